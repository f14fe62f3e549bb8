package otpcodes

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
	mu    sync.RWMutex
	codes map[string]models.OneTimeCode
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{codes: map[string]models.OneTimeCode{}}
}

func (r *MemoryRepository) Create(_ context.Context, code *models.OneTimeCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code.ID = uuid.NewString()
	r.codes[code.ID] = *code
	return nil
}

func (r *MemoryRepository) DeleteStale(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, c := range r.codes {
		if c.Used || c.ExpiresAt.Before(now) {
			delete(r.codes, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) FindActive(_ context.Context, email string, now time.Time) (*models.OneTimeCode, error) {
	return r.newest(email, now, false)
}

func (r *MemoryRepository) FindLatest(_ context.Context, email string, now time.Time) (*models.OneTimeCode, error) {
	return r.newest(email, now, true)
}

func (r *MemoryRepository) newest(email string, now time.Time, includeUsed bool) (*models.OneTimeCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *models.OneTimeCode
	for _, c := range r.codes {
		if c.Email != email || (c.Used && !includeUsed) || !c.ExpiresAt.After(now) {
			continue
		}
		if best == nil || c.ExpiresAt.After(best.ExpiresAt) {
			best = &c
		}
	}
	if best == nil {
		return nil, common.ErrorNotFound
	}
	return best, nil
}

func (r *MemoryRepository) IncrementAttempts(_ context.Context, id string, maxAttempts int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.codes[id]
	if !ok || c.Used {
		return 0, common.ErrorNotFound
	}
	c.Attempts++
	c.Used = c.Attempts >= maxAttempts
	r.codes[id] = c
	return c.Attempts, nil
}

func (r *MemoryRepository) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.codes[id]
	if !ok || c.Used {
		return common.ErrorNotFound
	}
	c.Used = true
	r.codes[id] = c
	return nil
}

// Snapshot copies the current state and returns a func restoring it.
func (r *MemoryRepository) Snapshot() (restore func()) {
	r.mu.RLock()
	saved := make(map[string]models.OneTimeCode, len(r.codes))
	for k, v := range r.codes {
		saved[k] = v
	}
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.codes = saved
		r.mu.Unlock()
	}
}
