package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sevr/internal/dbx"
	"github.com/dmitrijs2005/sevr/internal/server/models"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/repomanager"
)

type AccountService struct {
	repomanager repomanager.RepositoryManager
}

func NewAccountService(m repomanager.RepositoryManager) *AccountService {
	return &AccountService{repomanager: m}
}

func (s *AccountService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.repomanager.Conn()).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// Delete revokes every refresh token, removes the vault blob and then the
// user row, in one transaction.
func (s *AccountService) Delete(ctx context.Context, userID string) error {
	return s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).RevokeAll(ctx, userID); err != nil {
			return fmt.Errorf("error revoking refresh tokens: %w", err)
		}
		if err := s.repomanager.Vaults(tx).Delete(ctx, userID); err != nil {
			return fmt.Errorf("error deleting vault: %w", err)
		}
		if err := s.repomanager.Users(tx).Delete(ctx, userID); err != nil {
			return fmt.Errorf("error deleting user: %w", err)
		}
		return nil
	})
}
