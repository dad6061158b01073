package mediaitems

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository used by tests and by the
// DSN-less development mode.
type MemoryRepository struct {
	mu    sync.Mutex
	items map[string]*models.MediaItem
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]*models.MediaItem)}
}

func (r *MemoryRepository) Create(ctx context.Context, item *models.MediaItem) (*models.MediaItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *item
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now()
	r.items[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.MediaItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *item
	return &copied, nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]*models.MediaItem, error) {
	return r.list(func(*models.MediaItem) bool { return true })
}

func (r *MemoryRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.MediaItem, error) {
	return r.list(func(item *models.MediaItem) bool { return item.OwnerID == ownerID })
}

func (r *MemoryRepository) list(match func(*models.MediaItem) bool) ([]*models.MediaItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.MediaItem
	for _, item := range r.items {
		if match(item) {
			copied := *item
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
