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

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Identities(db dbx.DBTX) identities.Repository
	MediaItems(db dbx.DBTX) mediaitems.Repository
	AccessRequests(db dbx.DBTX) accessrequests.Repository
}
