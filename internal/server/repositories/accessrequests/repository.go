package accessrequests

import (
	"context"

	"github.com/dmitrijs2005/mediavault/internal/server/models"
)

type Repository interface {
	// Create inserts a new pending request. Returns common.ErrorConflict
	// if a pending or approved request already exists for the same
	// (item, requester) pair.
	Create(ctx context.Context, req *models.AccessRequest) (*models.AccessRequest, error)

	GetByID(ctx context.Context, id string) (*models.AccessRequest, error)

	// FindActive returns the pending or approved request for the pair,
	// or common.ErrorNotFound.
	FindActive(ctx context.Context, itemID, requesterID string) (*models.AccessRequest, error)

	// MarkApproved atomically transitions the request from pending to
	// approved, storing the wrapped key in the same statement. Returns
	// common.ErrorInvalidState if the request exists but is not pending;
	// of two racing calls exactly one succeeds.
	MarkApproved(ctx context.Context, id string, wrappedKey []byte) error

	// MarkRejected atomically transitions the request from pending to
	// rejected, clearing any wrapped key.
	MarkRejected(ctx context.Context, id string) error

	ListByItem(ctx context.Context, itemID string) ([]*models.AccessRequest, error)
	ListByItems(ctx context.Context, itemIDs []string) ([]*models.AccessRequest, error)
	ListByRequester(ctx context.Context, requesterID string) ([]*models.AccessRequest, error)
}
