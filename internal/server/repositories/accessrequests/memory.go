package accessrequests

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository with the same atomicity
// guarantees as the PostgreSQL one: the duplicate-pair check and the
// pending-state compare-and-set both happen under one lock.
type MemoryRepository struct {
	mu       sync.Mutex
	requests map[string]*models.AccessRequest
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{requests: make(map[string]*models.AccessRequest)}
}

func (r *MemoryRepository) Create(ctx context.Context, req *models.AccessRequest) (*models.AccessRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.requests {
		if existing.ItemID == req.ItemID && existing.RequesterID == req.RequesterID &&
			existing.State != models.RequestRejected {
			return nil, common.ErrorConflict
		}
	}

	stored := *req
	stored.ID = uuid.NewString()
	stored.State = models.RequestPending
	stored.WrappedKey = nil
	stored.CreatedAt = time.Now()
	r.requests[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.AccessRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *req
	return &copied, nil
}

func (r *MemoryRepository) FindActive(ctx context.Context, itemID, requesterID string) (*models.AccessRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, req := range r.requests {
		if req.ItemID == itemID && req.RequesterID == requesterID &&
			req.State != models.RequestRejected {
			copied := *req
			return &copied, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) MarkApproved(ctx context.Context, id string, wrappedKey []byte) error {
	return r.transition(id, func(req *models.AccessRequest) {
		req.State = models.RequestApproved
		req.WrappedKey = wrappedKey
	})
}

func (r *MemoryRepository) MarkRejected(ctx context.Context, id string) error {
	return r.transition(id, func(req *models.AccessRequest) {
		req.State = models.RequestRejected
		req.WrappedKey = nil
	})
}

func (r *MemoryRepository) transition(id string, apply func(*models.AccessRequest)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return common.ErrorNotFound
	}
	if req.State != models.RequestPending {
		return common.ErrorInvalidState
	}
	apply(req)
	now := time.Now()
	req.DecidedAt = &now
	return nil
}

func (r *MemoryRepository) ListByItem(ctx context.Context, itemID string) ([]*models.AccessRequest, error) {
	return r.list(func(req *models.AccessRequest) bool { return req.ItemID == itemID })
}

func (r *MemoryRepository) ListByItems(ctx context.Context, itemIDs []string) ([]*models.AccessRequest, error) {
	ids := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		ids[id] = struct{}{}
	}
	return r.list(func(req *models.AccessRequest) bool {
		_, ok := ids[req.ItemID]
		return ok
	})
}

func (r *MemoryRepository) ListByRequester(ctx context.Context, requesterID string) ([]*models.AccessRequest, error) {
	return r.list(func(req *models.AccessRequest) bool { return req.RequesterID == requesterID })
}

func (r *MemoryRepository) list(match func(*models.AccessRequest) bool) ([]*models.AccessRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.AccessRequest
	for _, req := range r.requests {
		if match(req) {
			copied := *req
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
