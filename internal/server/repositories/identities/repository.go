package identities

import (
	"context"

	"github.com/dmitrijs2005/mediavault/internal/server/models"
)

type Repository interface {
	// Publish stores the key set for identity.UserID, overwriting any
	// previous one and bumping the key version. Returns the stored row
	// with the new version.
	Publish(ctx context.Context, identity *models.Identity) (*models.Identity, error)

	// Get returns the current key set for userID, or common.ErrorNotFound
	// if the user has never published one.
	Get(ctx context.Context, userID string) (*models.Identity, error)
}
