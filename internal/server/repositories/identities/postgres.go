// Package identities provides persistence for published public key material.
package identities

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

// Publish upserts the key set. The key version starts at 1 and increments
// on every overwrite, making rotation an explicit versioned operation.
func (r *PostgresRepository) Publish(ctx context.Context, identity *models.Identity) (*models.Identity, error) {
	query := `
		INSERT INTO identities (user_id, wrap_public_key, sign_public_key)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET
			wrap_public_key = EXCLUDED.wrap_public_key,
			sign_public_key = EXCLUDED.sign_public_key,
			key_version = identities.key_version + 1,
			updated_at = now()
		RETURNING key_version, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		identity.UserID, identity.WrapPublicKey, identity.SignPublicKey).
		Scan(&identity.KeyVersion, &identity.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return identity, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Identity, error) {
	query := `
		SELECT user_id, wrap_public_key, sign_public_key, key_version, updated_at
		FROM identities
		WHERE user_id = $1
	`
	identity := &models.Identity{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&identity.UserID, &identity.WrapPublicKey, &identity.SignPublicKey,
		&identity.KeyVersion, &identity.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return identity, nil
}
