package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/cryptox"
	"github.com/dmitrijs2005/mediavault/internal/server/blob"
	"github.com/dmitrijs2005/mediavault/internal/server/integrity"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/repomanager"
)

// MediaService owns the media item lifecycle: verified publication, listing,
// on-demand integrity checks, and authorized downloads. Content is encrypted
// client-side; the server stores ciphertext plus the owner's wrapped content
// key and never sees plaintext or private keys.
type MediaService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	verifier    *integrity.Verifier
}

func NewMediaService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store) *MediaService {
	return &MediaService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		verifier:    integrity.NewVerifier(blobs),
	}
}

// CreateParams carries the owner-supplied fields for item publication.
// Digest and Signature are computed client-side over the ciphertext;
// WrappedKeyOwner is the content key wrapped for the owner's own wrap key.
type CreateParams struct {
	Title           string
	Description     string
	Digest          string
	Signature       []byte
	WrappedKeyOwner []byte
}

// Create stores the content stream and registers the item. The claimed
// digest is recomputed server-side and the signature is checked against the
// owner's published signing key before anything becomes visible: a mismatch
// refuses the publication with ErrorIntegrityMismatch or
// ErrorSignatureInvalid.
func (s *MediaService) Create(ctx context.Context, ownerID string, content io.Reader, p CreateParams) (*models.MediaItem, error) {
	if len(p.WrappedKeyOwner) == 0 {
		return nil, fmt.Errorf("%w: missing wrapped content key", common.ErrorInternal)
	}

	identity, err := s.identity(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	signKey, err := cryptox.ParseECDSAPublicKeyPEM(identity.SignPublicKey)
	if err != nil {
		return nil, common.ErrorNoPublicKeyPublished
	}

	ref, err := s.blobs.Write(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("error storing content: %v", err)
	}

	digest, err := s.verifier.ComputeDigest(ctx, ref)
	if err != nil {
		return nil, err
	}
	if digest != p.Digest {
		return nil, common.ErrorIntegrityMismatch
	}
	if !cryptox.VerifyDigestSignature(digest, p.Signature, signKey) {
		return nil, common.ErrorSignatureInvalid
	}

	repo := s.repomanager.MediaItems(s.db)
	item, err := repo.Create(ctx, &models.MediaItem{
		OwnerID:         ownerID,
		Title:           p.Title,
		Description:     p.Description,
		ContentRef:      ref,
		WrappedKeyOwner: p.WrappedKeyOwner,
		ContentHash:     digest,
		Signature:       p.Signature,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating media item: %v", err)
	}
	return item, nil
}

func (s *MediaService) Get(ctx context.Context, id string) (*models.MediaItem, error) {
	return s.repomanager.MediaItems(s.db).GetByID(ctx, id)
}

// List returns metadata for all items. Keys and signatures are omitted.
func (s *MediaService) List(ctx context.Context) ([]*models.MediaItem, error) {
	return s.repomanager.MediaItems(s.db).List(ctx)
}

func (s *MediaService) ListByOwner(ctx context.Context, ownerID string) ([]*models.MediaItem, error) {
	return s.repomanager.MediaItems(s.db).ListByOwner(ctx, ownerID)
}

// Verify recomputes the item's digest from stored content and revalidates
// the signature under the owner's current signing key. Results are never
// cached.
func (s *MediaService) Verify(ctx context.Context, itemID string) (*integrity.Report, error) {
	item, err := s.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	identity, err := s.identity(ctx, item.OwnerID)
	if err != nil {
		return nil, err
	}
	return s.verifier.VerifyItem(ctx, item, identity.SignPublicKey)
}

// Download streams the item's ciphertext to the owner or to a requester
// with an approved grant. Everyone else gets ErrorForbidden.
func (s *MediaService) Download(ctx context.Context, userID, itemID string) (io.ReadCloser, *models.MediaItem, error) {
	item, err := s.Get(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}

	if item.OwnerID != userID {
		req, err := s.repomanager.AccessRequests(s.db).FindActive(ctx, itemID, userID)
		if err != nil || req.State != models.RequestApproved {
			return nil, nil, common.ErrorForbidden
		}
	}

	rc, err := s.blobs.Open(ctx, item.ContentRef)
	if err != nil {
		if errors.Is(err, common.ErrorContentUnavailable) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("error opening content: %v", err)
	}
	return rc, item, nil
}

func (s *MediaService) identity(ctx context.Context, userID string) (*models.Identity, error) {
	identity, err := s.repomanager.Identities(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNoPublicKeyPublished
		}
		return nil, fmt.Errorf("error loading keys: %v", err)
	}
	return identity, nil
}
