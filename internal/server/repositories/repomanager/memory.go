package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/mediavault/internal/dbx"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/accessrequests"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/identities"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/mediaitems"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/users"
)

// MemoryRepositoryManager vends shared in-memory repositories. Unlike the
// Postgres manager it ignores the DBTX argument; all callers see the same
// state.
type MemoryRepositoryManager struct {
	users          *users.MemoryRepository
	refreshTokens  *refreshtokens.MemoryRepository
	identities     *identities.MemoryRepository
	mediaItems     *mediaitems.MemoryRepository
	accessRequests *accessrequests.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:          users.NewMemoryRepository(),
		refreshTokens:  refreshtokens.NewMemoryRepository(),
		identities:     identities.NewMemoryRepository(),
		mediaItems:     mediaitems.NewMemoryRepository(),
		accessRequests: accessrequests.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func (m *MemoryRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return m.refreshTokens
}

func (m *MemoryRepositoryManager) Identities(db dbx.DBTX) identities.Repository {
	return m.identities
}

func (m *MemoryRepositoryManager) MediaItems(db dbx.DBTX) mediaitems.Repository {
	return m.mediaItems
}

func (m *MemoryRepositoryManager) AccessRequests(db dbx.DBTX) accessrequests.Repository {
	return m.accessRequests
}
