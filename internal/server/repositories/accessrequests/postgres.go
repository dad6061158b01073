// Package accessrequests provides PostgreSQL-backed persistence for the
// access request lifecycle. The approve/reject transitions are single
// conditional UPDATEs keyed on (id, state='pending'), so a racing double
// decision yields exactly one success.
package accessrequests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/dbx"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, req *models.AccessRequest) (*models.AccessRequest, error) {
	query := `
		INSERT INTO access_requests (item_id, requester_id)
		VALUES ($1, $2)
		RETURNING id, state, created_at
	`
	err := r.db.QueryRowContext(ctx, query, req.ItemID, req.RequesterID).
		Scan(&req.ID, &req.State, &req.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return req, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.AccessRequest, error) {
	query := `
		SELECT id, item_id, requester_id, state, wrapped_key, created_at, decided_at
		FROM access_requests
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindActive(ctx context.Context, itemID, requesterID string) (*models.AccessRequest, error) {
	query := `
		SELECT id, item_id, requester_id, state, wrapped_key, created_at, decided_at
		FROM access_requests
		WHERE item_id = $1 AND requester_id = $2 AND state IN ('pending', 'approved')
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, itemID, requesterID))
}

// MarkApproved sets state and wrapped key in one statement so no observer
// can see an approved request without its key.
func (r *PostgresRepository) MarkApproved(ctx context.Context, id string, wrappedKey []byte) error {
	query := `
		UPDATE access_requests
		SET state = 'approved', wrapped_key = $2, decided_at = now()
		WHERE id = $1 AND state = 'pending'
	`
	return r.transition(ctx, id, query, id, wrappedKey)
}

func (r *PostgresRepository) MarkRejected(ctx context.Context, id string) error {
	query := `
		UPDATE access_requests
		SET state = 'rejected', wrapped_key = NULL, decided_at = now()
		WHERE id = $1 AND state = 'pending'
	`
	return r.transition(ctx, id, query, id)
}

func (r *PostgresRepository) transition(ctx context.Context, id string, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 1 {
		return nil
	}

	// CAS missed: distinguish an absent request from a lost race.
	var exists bool
	err = r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM access_requests WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return common.ErrorNotFound
	}
	return common.ErrorInvalidState
}

func (r *PostgresRepository) ListByItem(ctx context.Context, itemID string) ([]*models.AccessRequest, error) {
	query := `
		SELECT id, item_id, requester_id, state, wrapped_key, created_at, decided_at
		FROM access_requests
		WHERE item_id = $1
		ORDER BY created_at DESC
	`
	return r.scanList(ctx, query, itemID)
}

func (r *PostgresRepository) ListByItems(ctx context.Context, itemIDs []string) ([]*models.AccessRequest, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, item_id, requester_id, state, wrapped_key, created_at, decided_at
		FROM access_requests
		WHERE item_id = ANY($1)
		ORDER BY created_at DESC
	`
	return r.scanList(ctx, query, itemIDs)
}

func (r *PostgresRepository) ListByRequester(ctx context.Context, requesterID string) ([]*models.AccessRequest, error) {
	query := `
		SELECT id, item_id, requester_id, state, wrapped_key, created_at, decided_at
		FROM access_requests
		WHERE requester_id = $1
		ORDER BY created_at DESC
	`
	return r.scanList(ctx, query, requesterID)
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.AccessRequest, error) {
	req := &models.AccessRequest{}
	err := row.Scan(&req.ID, &req.ItemID, &req.RequesterID, &req.State,
		&req.WrappedKey, &req.CreatedAt, &req.DecidedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return req, nil
}

func (r *PostgresRepository) scanList(ctx context.Context, query string, args ...any) ([]*models.AccessRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select access requests: %w", err)
	}
	defer rows.Close()

	var result []*models.AccessRequest
	for rows.Next() {
		var req models.AccessRequest
		if err := rows.Scan(&req.ID, &req.ItemID, &req.RequesterID, &req.State,
			&req.WrappedKey, &req.CreatedAt, &req.DecidedAt); err != nil {
			return nil, err
		}
		result = append(result, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
