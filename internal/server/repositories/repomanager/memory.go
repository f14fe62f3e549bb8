package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/sevr/internal/dbx"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/otpcodes"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/users"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/vaults"
)

// InMemoryRepositoryManager keeps everything in process memory.
// Transactions are serialised and rolled back by restoring snapshots.
// Writes made outside WithTx while a transaction rolls back are lost.
type InMemoryRepositoryManager struct {
	txMu          sync.Mutex
	users         *users.MemoryRepository
	otpCodes      *otpcodes.MemoryRepository
	refreshTokens *refreshtokens.MemoryRepository
	vaults        *vaults.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users:         users.NewMemoryRepository(),
		otpCodes:      otpcodes.NewMemoryRepository(),
		refreshTokens: refreshtokens.NewMemoryRepository(),
		vaults:        vaults.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *InMemoryRepositoryManager) Conn() dbx.DBTX { return nil }

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, fn dbx.TxFunc) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	restores := []func(){
		m.users.Snapshot(),
		m.otpCodes.Snapshot(),
		m.refreshTokens.Snapshot(),
		m.vaults.Snapshot(),
	}
	rollback := func() {
		for _, r := range restores {
			r()
		}
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
		if err != nil {
			rollback()
		}
	}()

	return fn(ctx, nil)
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *InMemoryRepositoryManager) OTPCodes(dbx.DBTX) otpcodes.Repository { return m.otpCodes }

func (m *InMemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.refreshTokens
}

func (m *InMemoryRepositoryManager) Vaults(dbx.DBTX) vaults.Repository { return m.vaults }

func (m *InMemoryRepositoryManager) Close() error { return nil }
