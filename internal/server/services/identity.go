package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/cryptox"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/repomanager"
)

// IdentityService maintains the public key registry. Each user may publish
// one wrap key (RSA, used to deliver content keys) and one signing key
// (ECDSA, used to authenticate uploads). Republishing replaces the previous
// set and bumps the key version; grants issued under an older version stay
// valid.
type IdentityService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager) *IdentityService {
	return &IdentityService{db: db, repomanager: m}
}

// Publish stores the caller's current public key set. Both keys must be
// well-formed PEM of the expected type or the whole publish is refused.
func (s *IdentityService) Publish(ctx context.Context, userID string, wrapPublicKey, signPublicKey []byte) (*models.Identity, error) {
	if _, err := cryptox.ParseRSAPublicKeyPEM(wrapPublicKey); err != nil {
		return nil, fmt.Errorf("wrap key: %w", common.ErrorMalformedKey)
	}
	if _, err := cryptox.ParseECDSAPublicKeyPEM(signPublicKey); err != nil {
		return nil, fmt.Errorf("sign key: %w", common.ErrorMalformedKey)
	}

	repo := s.repomanager.Identities(s.db)
	identity, err := repo.Publish(ctx, &models.Identity{
		UserID:        userID,
		WrapPublicKey: wrapPublicKey,
		SignPublicKey: signPublicKey,
	})
	if err != nil {
		return nil, fmt.Errorf("error publishing keys: %v", err)
	}
	return identity, nil
}

// Get returns the published key set for userID, or
// common.ErrorNoPublicKeyPublished if there is none.
func (s *IdentityService) Get(ctx context.Context, userID string) (*models.Identity, error) {
	repo := s.repomanager.Identities(s.db)
	identity, err := repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNoPublicKeyPublished
		}
		return nil, fmt.Errorf("error loading keys: %v", err)
	}
	return identity, nil
}
