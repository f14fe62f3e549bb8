package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/sevr/internal/common"
	"github.com/dmitrijs2005/sevr/internal/dbx"
	"github.com/dmitrijs2005/sevr/internal/server/models"
)

const pgUniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, created_at, is_admin, country_code,
		encryption_salt, encryption_verifier, recovery_verifier`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.CreatedAt, &u.IsAdmin, &u.CountryCode,
		&u.EncryptionSalt, &u.EncryptionVerifier, &u.RecoveryVerifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// Create inserts user and fills in the generated ID and CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, is_admin, country_code)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, user.Email, user.IsAdmin, user.CountryCode).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// SetAdmin flags the user as admin. There is no way back.
func (r *PostgresRepository) SetAdmin(ctx context.Context, id string) error {
	query := `UPDATE users SET is_admin = TRUE WHERE id = $1`
	return r.exec(ctx, query, id)
}

// SetEncryption replaces all three key metadata fields at once.
func (r *PostgresRepository) SetEncryption(ctx context.Context, id string, keys models.VaultKeys) error {
	query := `
		UPDATE users
		SET encryption_salt = $2, encryption_verifier = $3, recovery_verifier = $4
		WHERE id = $1
	`
	return r.exec(ctx, query, id, keys.Salt, keys.Verifier, keys.RecoveryVerifier)
}

// InitEncryption writes key metadata only while no salt is stored. The
// check and the write are one statement, so of two concurrent callers only
// one updates the row.
func (r *PostgresRepository) InitEncryption(ctx context.Context, id string, keys models.VaultKeys) error {
	query := `
		UPDATE users
		SET encryption_salt = $2, encryption_verifier = $3, recovery_verifier = $4
		WHERE id = $1 AND (encryption_salt IS NULL OR encryption_salt = '')
	`
	err := r.exec(ctx, query, id, keys.Salt, keys.Verifier, keys.RecoveryVerifier)
	if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if exists {
		return common.ErrAlreadySetUp
	}
	return common.ErrorNotFound
}

func (r *PostgresRepository) ClearEncryption(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET encryption_salt = NULL, encryption_verifier = NULL, recovery_verifier = NULL
		WHERE id = $1
	`
	return r.exec(ctx, query, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM users WHERE id = $1`, id)
}

// exec runs a single-row statement and maps zero affected rows to
// common.ErrorNotFound.
func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
