package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/eventplanner/internal/dbx"
	"github.com/dmitrijs2005/eventplanner/internal/server/repositories/activationtokens"
	"github.com/dmitrijs2005/eventplanner/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/eventplanner/internal/server/repositories/twofactor"
	"github.com/dmitrijs2005/eventplanner/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a *sql.DB or a *sql.Tx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	ActivationTokens(db dbx.DBTX) activationtokens.Repository
	TwoFactorCodes(db dbx.DBTX) twofactor.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
