package vaults

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/sevr/internal/common"
	"github.com/dmitrijs2005/sevr/internal/server/models"
)

// MemoryRepository is a process-local Repository for development and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	blobs map[string]models.VaultBlob
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{blobs: map[string]models.VaultBlob{}}
}

func (r *MemoryRepository) Get(_ context.Context, userID string) (*models.VaultBlob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.blobs[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &b, nil
}

func (r *MemoryRepository) Put(_ context.Context, blob *models.VaultBlob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.blobs[blob.UserID] = *blob
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.blobs, userID)
	return nil
}

// Snapshot copies the current state and returns a func restoring it.
func (r *MemoryRepository) Snapshot() (restore func()) {
	r.mu.RLock()
	saved := make(map[string]models.VaultBlob, len(r.blobs))
	for k, v := range r.blobs {
		saved[k] = v
	}
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.blobs = saved
		r.mu.Unlock()
	}
}
