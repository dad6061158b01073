// Package mediaitems provides persistence for encrypted media item records.
// Items are write-once: there is no update path, a changed file requires a
// new item.
package mediaitems

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/dbx"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, item *models.MediaItem) (*models.MediaItem, error) {
	query := `
		INSERT INTO media_items (owner_id, title, description, content_ref, wrapped_key_owner, content_hash, signature)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		item.OwnerID, item.Title, item.Description, item.ContentRef,
		item.WrappedKeyOwner, item.ContentHash, item.Signature).
		Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.MediaItem, error) {
	query := `
		SELECT id, owner_id, title, description, content_ref, wrapped_key_owner, content_hash, signature, created_at
		FROM media_items
		WHERE id = $1
	`
	item := &models.MediaItem{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.ContentRef,
		&item.WrappedKeyOwner, &item.ContentHash, &item.Signature, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.MediaItem, error) {
	query := `
		SELECT id, owner_id, title, description, content_ref, content_hash, created_at
		FROM media_items
		ORDER BY created_at DESC
	`
	return r.scanList(ctx, query)
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.MediaItem, error) {
	query := `
		SELECT id, owner_id, title, description, content_ref, content_hash, created_at
		FROM media_items
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	return r.scanList(ctx, query, ownerID)
}

// scanList omits key and signature columns: listings are metadata only.
func (r *PostgresRepository) scanList(ctx context.Context, query string, args ...any) ([]*models.MediaItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select media items: %w", err)
	}
	defer rows.Close()

	var result []*models.MediaItem
	for rows.Next() {
		var item models.MediaItem
		if err := rows.Scan(
			&item.ID, &item.OwnerID, &item.Title, &item.Description,
			&item.ContentRef, &item.ContentHash, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
