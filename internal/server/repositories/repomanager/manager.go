// Package repomanager vends repositories bound to either the shared
// connection or a transaction, hiding which store backs them.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/sevr/internal/dbx"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/otpcodes"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/users"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/vaults"
)

// RepositoryManager is what services depend on. Repositories obtained from
// the tx passed to a WithTx callback take part in that transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Conn() dbx.DBTX
	WithTx(ctx context.Context, fn dbx.TxFunc) error
	Users(db dbx.DBTX) users.Repository
	OTPCodes(db dbx.DBTX) otpcodes.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Vaults(db dbx.DBTX) vaults.Repository
	Close() error
}
