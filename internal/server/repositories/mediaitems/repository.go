package mediaitems

import (
	"context"

	"github.com/dmitrijs2005/mediavault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, item *models.MediaItem) (*models.MediaItem, error)
	GetByID(ctx context.Context, id string) (*models.MediaItem, error)
	List(ctx context.Context) ([]*models.MediaItem, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.MediaItem, error)
}
