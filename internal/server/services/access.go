package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/repomanager"
)

// AccessService runs the access request lifecycle and the key exchange it
// carries. A requester opens a pending request; the item's owner either
// rejects it or approves it by submitting the content key re-wrapped for
// the requester's published wrap key. Wrapping happens on the owner's
// client, so the server never handles an unwrapped content key.
type AccessService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewAccessService(db *sql.DB, m repomanager.RepositoryManager) *AccessService {
	return &AccessService{db: db, repomanager: m}
}

// Open creates a pending request from requesterID for itemID.
// Owners cannot request their own items, and at most one pending or
// approved request may exist per (item, requester) pair. A rejected
// request does not block a fresh one.
func (s *AccessService) Open(ctx context.Context, requesterID, itemID string) (*models.AccessRequest, error) {
	item, err := s.repomanager.MediaItems(s.db).GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID == requesterID {
		return nil, common.ErrorSelfRequest
	}

	repo := s.repomanager.AccessRequests(s.db)
	req, err := repo.Create(ctx, &models.AccessRequest{
		ItemID:      itemID,
		RequesterID: requesterID,
		State:       models.RequestPending,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("error creating access request: %v", err)
	}
	return req, nil
}

// RequesterWrapKey returns the published key set of a pending request's
// requester, so the owner's client can wrap the content key for them.
// Only the item owner may ask, and only while the request is pending.
func (s *AccessService) RequesterWrapKey(ctx context.Context, ownerID, requestID string) (*models.Identity, error) {
	req, err := s.ownedRequest(ctx, ownerID, requestID)
	if err != nil {
		return nil, err
	}
	if req.Terminal() {
		return nil, common.ErrorInvalidState
	}

	identity, err := s.repomanager.Identities(s.db).Get(ctx, req.RequesterID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNoPublicKeyPublished
		}
		return nil, fmt.Errorf("error loading keys: %v", err)
	}
	return identity, nil
}

// Approve transitions a pending request to approved, storing wrappedKey for
// the requester in the same step. The transition is atomic: of two racing
// decisions exactly one wins, the loser gets ErrorInvalidState.
func (s *AccessService) Approve(ctx context.Context, ownerID, requestID string, wrappedKey []byte) error {
	if len(wrappedKey) == 0 {
		return common.ErrorInvalidState
	}
	if _, err := s.ownedRequest(ctx, ownerID, requestID); err != nil {
		return err
	}
	return s.repomanager.AccessRequests(s.db).MarkApproved(ctx, requestID, wrappedKey)
}

// Reject transitions a pending request to rejected. No key material is
// stored; the requester may open a new request later.
func (s *AccessService) Reject(ctx context.Context, ownerID, requestID string) error {
	if _, err := s.ownedRequest(ctx, ownerID, requestID); err != nil {
		return err
	}
	return s.repomanager.AccessRequests(s.db).MarkRejected(ctx, requestID)
}

// Query resolves what userID may do with itemID: owners hold AccessOwner,
// approved requesters AccessGranted together with their wrapped key,
// everyone else AccessNone.
func (s *AccessService) Query(ctx context.Context, userID, itemID string) (*models.Access, error) {
	item, err := s.repomanager.MediaItems(s.db).GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID == userID {
		return &models.Access{Level: models.AccessOwner}, nil
	}

	req, err := s.repomanager.AccessRequests(s.db).FindActive(ctx, itemID, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &models.Access{Level: models.AccessNone}, nil
		}
		return nil, fmt.Errorf("error loading access request: %v", err)
	}
	if key, ok := req.WrappedKeyForRequester(); ok {
		return &models.Access{Level: models.AccessGranted, WrappedKey: key}, nil
	}
	return &models.Access{Level: models.AccessNone}, nil
}

// ListForOwner returns all requests against the owner's items, newest first.
func (s *AccessService) ListForOwner(ctx context.Context, ownerID string) ([]*models.AccessRequest, error) {
	items, err := s.repomanager.MediaItems(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return s.repomanager.AccessRequests(s.db).ListByItems(ctx, ids)
}

// ListForRequester returns the caller's own requests, newest first.
func (s *AccessService) ListForRequester(ctx context.Context, requesterID string) ([]*models.AccessRequest, error) {
	return s.repomanager.AccessRequests(s.db).ListByRequester(ctx, requesterID)
}

// ownedRequest loads the request and checks that ownerID owns the item it
// targets, returning ErrorForbidden otherwise.
func (s *AccessService) ownedRequest(ctx context.Context, ownerID, requestID string) (*models.AccessRequest, error) {
	req, err := s.repomanager.AccessRequests(s.db).GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	item, err := s.repomanager.MediaItems(s.db).GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, common.ErrorForbidden
	}
	return req, nil
}
