package refreshtokens

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
	mu     sync.RWMutex
	tokens map[string]models.RefreshToken
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tokens: map[string]models.RefreshToken{}, now: time.Now}
}

func (r *MemoryRepository) Create(_ context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token.ID = uuid.NewString()
	token.CreatedAt = r.now().UTC()
	r.tokens[token.ID] = *token
	return nil
}

func (r *MemoryRepository) FindActive(_ context.Context, tokenHash string, now time.Time) (*models.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tokens {
		if t.TokenHash == tokenHash && !t.Revoked && t.ExpiresAt.After(now) {
			return &t, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) Revoke(_ context.Context, tokenHash string) error {
	r.revokeWhere(func(t models.RefreshToken) bool { return t.TokenHash == tokenHash })
	return nil
}

func (r *MemoryRepository) RevokeAll(_ context.Context, userID string) error {
	r.revokeWhere(func(t models.RefreshToken) bool { return t.UserID == userID })
	return nil
}

// Snapshot copies the current state and returns a func restoring it.
func (r *MemoryRepository) Snapshot() (restore func()) {
	r.mu.RLock()
	saved := make(map[string]models.RefreshToken, len(r.tokens))
	for k, v := range r.tokens {
		saved[k] = v
	}
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.tokens = saved
		r.mu.Unlock()
	}
}

func (r *MemoryRepository) revokeWhere(match func(models.RefreshToken) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.tokens {
		if match(t) {
			t.Revoked = true
			r.tokens[id] = t
		}
	}
}
