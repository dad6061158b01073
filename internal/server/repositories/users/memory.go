package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository used by tests and by the
// DSN-less development mode.
type MemoryRepository struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	byLogin map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.User),
		byLogin: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byLogin[user.UserName]; exists {
		return nil, common.ErrorConflict
	}

	u := *user
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	r.byID[u.ID] = &u
	r.byLogin[u.UserName] = u.ID

	copied := u
	return &copied, nil
}

func (r *MemoryRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byLogin[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *r.byID[id]
	return &copied, nil
}
