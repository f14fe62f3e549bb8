package otpcodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sevr/internal/common"
	"github.com/dmitrijs2005/sevr/internal/dbx"
	"github.com/dmitrijs2005/sevr/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts code and sets its generated ID.
func (r *PostgresRepository) Create(ctx context.Context, code *models.OneTimeCode) error {
	query := `
		INSERT INTO otp_codes (email, code, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, code.Email, code.Code, code.ExpiresAt).Scan(&code.ID); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// DeleteStale removes codes that are expired or already used.
func (r *PostgresRepository) DeleteStale(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM otp_codes WHERE expires_at < $1 OR used`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// FindActive picks the newest-expiring code that is neither used nor expired.
func (r *PostgresRepository) FindActive(ctx context.Context, email string, now time.Time) (*models.OneTimeCode, error) {
	query := `
		SELECT id, email, code, expires_at, attempts, used
		FROM otp_codes
		WHERE email = $1 AND NOT used AND expires_at > $2
		ORDER BY expires_at DESC
		LIMIT 1
	`
	return scanCode(r.db.QueryRowContext(ctx, query, email, now))
}

// FindLatest is FindActive without the used filter.
func (r *PostgresRepository) FindLatest(ctx context.Context, email string, now time.Time) (*models.OneTimeCode, error) {
	query := `
		SELECT id, email, code, expires_at, attempts, used
		FROM otp_codes
		WHERE email = $1 AND expires_at > $2
		ORDER BY expires_at DESC
		LIMIT 1
	`
	return scanCode(r.db.QueryRowContext(ctx, query, email, now))
}

func scanCode(row *sql.Row) (*models.OneTimeCode, error) {
	c := &models.OneTimeCode{}
	err := row.Scan(&c.ID, &c.Email, &c.Code, &c.ExpiresAt, &c.Attempts, &c.Used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// IncrementAttempts counts a wrong guess. SET expressions see the old row,
// so the row is flagged used by the same statement that reaches the cap.
func (r *PostgresRepository) IncrementAttempts(ctx context.Context, id string, maxAttempts int) (int, error) {
	query := `
		UPDATE otp_codes
		SET attempts = attempts + 1, used = attempts + 1 >= $2
		WHERE id = $1 AND NOT used
		RETURNING attempts
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, id, maxAttempts).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id string) error {
	query := `UPDATE otp_codes SET used = TRUE WHERE id = $1 AND NOT used`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
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
