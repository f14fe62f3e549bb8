package vaults

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.VaultBlob, error) {
	query := `SELECT user_id, data, iv, updated_at FROM vault_blobs WHERE user_id = $1`

	b := &models.VaultBlob{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&b.UserID, &b.Data, &b.IV, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

// Put upserts the blob. Last writer wins.
func (r *PostgresRepository) Put(ctx context.Context, blob *models.VaultBlob) error {
	query := `
		INSERT INTO vault_blobs (user_id, data, iv, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET data = EXCLUDED.data, iv = EXCLUDED.iv, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, blob.UserID, blob.Data, blob.IV, blob.UpdatedAt); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM vault_blobs WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
