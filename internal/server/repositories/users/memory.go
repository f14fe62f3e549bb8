package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/sevr/internal/common"
	"github.com/dmitrijs2005/sevr/internal/server/models"
)

// MemoryRepository is a process-local Repository for development and tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]models.User
	now  func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: map[string]models.User{}, now: time.Now}
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if u.Email == user.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = r.now().UTC()
	r.byID[user.ID] = *user
	return user, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *MemoryRepository) SetAdmin(_ context.Context, id string) error {
	return r.update(id, func(u *models.User) error {
		u.IsAdmin = true
		return nil
	})
}

func (r *MemoryRepository) SetEncryption(_ context.Context, id string, keys models.VaultKeys) error {
	return r.update(id, func(u *models.User) error {
		setKeys(u, keys)
		return nil
	})
}

func (r *MemoryRepository) InitEncryption(_ context.Context, id string, keys models.VaultKeys) error {
	return r.update(id, func(u *models.User) error {
		if u.EncryptionSalt != nil && *u.EncryptionSalt != "" {
			return common.ErrAlreadySetUp
		}
		setKeys(u, keys)
		return nil
	})
}

func setKeys(u *models.User, keys models.VaultKeys) {
	salt, verifier := keys.Salt, keys.Verifier
	u.EncryptionSalt = &salt
	u.EncryptionVerifier = &verifier
	u.RecoveryVerifier = nil
	if keys.RecoveryVerifier != nil {
		rv := *keys.RecoveryVerifier
		u.RecoveryVerifier = &rv
	}
}

func (r *MemoryRepository) ClearEncryption(_ context.Context, id string) error {
	return r.update(id, func(u *models.User) error {
		u.EncryptionSalt = nil
		u.EncryptionVerifier = nil
		u.RecoveryVerifier = nil
		return nil
	})
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

// Snapshot copies the current state and returns a func restoring it.
func (r *MemoryRepository) Snapshot() (restore func()) {
	r.mu.RLock()
	saved := make(map[string]models.User, len(r.byID))
	for k, v := range r.byID {
		saved[k] = v
	}
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.byID = saved
		r.mu.Unlock()
	}
}

// update applies fn to a copy of the user under the write lock and stores
// it unless fn fails.
func (r *MemoryRepository) update(id string, fn func(u *models.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	if err := fn(&u); err != nil {
		return err
	}
	r.byID[id] = u
	return nil
}
