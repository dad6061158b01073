package refreshtokens

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
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tokens: make(map[string]*models.RefreshToken)}
}

func (r *MemoryRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token] = &models.RefreshToken{
		UserID:    userID,
		Token:     token,
		Expires:   time.Now().Add(validity),
		CreatedAt: time.Now(),
	}
	return nil
}

func (r *MemoryRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *rt
	return &copied, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, token)
	return nil
}
