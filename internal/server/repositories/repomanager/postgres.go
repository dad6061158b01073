// Package repomanager provides concrete RepositoryManager implementations:
// PostgreSQL-backed (with goose migrations) and in-memory for tests and the
// DSN-less development mode.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/mediavault/internal/dbx"
	"github.com/dmitrijs2005/mediavault/internal/server/migrations"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/accessrequests"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/identities"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/mediaitems"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository
// implementations and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Identities(db dbx.DBTX) identities.Repository {
	return identities.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) MediaItems(db dbx.DBTX) mediaitems.Repository {
	return mediaitems.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) AccessRequests(db dbx.DBTX) accessrequests.Repository {
	return accessrequests.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
