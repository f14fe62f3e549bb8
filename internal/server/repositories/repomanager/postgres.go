package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/sevr/internal/dbx"
	"github.com/dmitrijs2005/sevr/internal/server/migrations"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/otpcodes"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/users"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/vaults"
)

// seams for tests
var (
	sqlOpen        = sql.Open
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
// Vault blobs go to PostgreSQL unless another store is configured.
type PostgresRepositoryManager struct {
	db         *sql.DB
	vaultStore vaults.Repository
}

type Option func(*PostgresRepositoryManager)

// WithVaultStore keeps vault blobs in v (for example S3) instead of the
// vault_blobs table. v ignores transactions.
func WithVaultStore(v vaults.Repository) Option {
	return func(m *PostgresRepositoryManager) { m.vaultStore = v }
}

// OpenPostgres opens a pgx connection pool for dsn and checks it.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func NewPostgresRepositoryManager(db *sql.DB, opts ...Option) *PostgresRepositoryManager {
	m := &PostgresRepositoryManager{db: db}
	for _, o := range opts {
		o(m)
	}
	return m
}

// RunMigrations applies the embedded goose migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

func (m *PostgresRepositoryManager) Conn() dbx.DBTX {
	return m.db
}

func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	return dbx.WithTx(ctx, m.db, nil, fn)
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) OTPCodes(db dbx.DBTX) otpcodes.Repository {
	return otpcodes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Vaults(db dbx.DBTX) vaults.Repository {
	if m.vaultStore != nil {
		return m.vaultStore
	}
	return vaults.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
