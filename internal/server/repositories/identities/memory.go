package identities

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
)

// MemoryRepository is an in-memory Repository used by tests and by the
// DSN-less development mode.
type MemoryRepository struct {
	mu   sync.Mutex
	keys map[string]*models.Identity
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{keys: make(map[string]*models.Identity)}
}

func (r *MemoryRepository) Publish(ctx context.Context, identity *models.Identity) (*models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	version := int64(1)
	if prev, ok := r.keys[identity.UserID]; ok {
		version = prev.KeyVersion + 1
	}

	stored := *identity
	stored.KeyVersion = version
	stored.UpdatedAt = time.Now()
	r.keys[identity.UserID] = &stored

	copied := stored
	return &copied, nil
}

func (r *MemoryRepository) Get(ctx context.Context, userID string) (*models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.keys[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *identity
	return &copied, nil
}
