package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/sevr/internal/common"
	"github.com/dmitrijs2005/sevr/internal/dbx"
	"github.com/dmitrijs2005/sevr/internal/server/models"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/repomanager"
)

// VaultService stores key metadata and the encrypted blob for a user.
// It never decrypts anything; all values are opaque client output.
//
// Blob writes have no version check. Concurrent writers race and the last
// PutData wins.
type VaultService struct {
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewVaultService(m repomanager.RepositoryManager) *VaultService {
	return &VaultService{repomanager: m, now: time.Now}
}

func (s *VaultService) Status(ctx context.Context, userID string) (*models.VaultStatus, error) {
	user, err := s.repomanager.Users(s.repomanager.Conn()).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	return &models.VaultStatus{
		IsSetUp:          present(user.EncryptionSalt) && present(user.EncryptionVerifier),
		Salt:             user.EncryptionSalt,
		Verifier:         user.EncryptionVerifier,
		RecoveryVerifier: user.RecoveryVerifier,
	}, nil
}

func validateKeys(keys models.VaultKeys) error {
	if strings.TrimSpace(keys.Salt) == "" || strings.TrimSpace(keys.Verifier) == "" {
		return fmt.Errorf("%w: salt and verifier are required", common.ErrValidation)
	}
	return nil
}

// Setup stores key metadata. It fails with common.ErrAlreadySetUp when a
// salt exists, unless allowOverwrite is set. The salt check is part of the
// write, so two first-time setups cannot both succeed.
func (s *VaultService) Setup(ctx context.Context, userID string, keys models.VaultKeys, allowOverwrite bool) error {
	if err := validateKeys(keys); err != nil {
		return err
	}

	users := s.repomanager.Users(s.repomanager.Conn())
	store := users.InitEncryption
	if allowOverwrite {
		store = users.SetEncryption
	}

	if err := store(ctx, userID, keys); err != nil {
		if errors.Is(err, common.ErrAlreadySetUp) {
			return err
		}
		return fmt.Errorf("error storing keys: %w", err)
	}
	return nil
}

// ChangePassword overwrites key metadata and, when blob is not nil, replaces
// the vault blob in the same transaction.
func (s *VaultService) ChangePassword(ctx context.Context, userID string, keys models.VaultKeys, blob *models.VaultBlob) error {
	if err := validateKeys(keys); err != nil {
		return err
	}

	return s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).SetEncryption(ctx, userID, keys); err != nil {
			return fmt.Errorf("error storing keys: %w", err)
		}
		if blob == nil {
			return nil
		}
		b := &models.VaultBlob{UserID: userID, Data: blob.Data, IV: blob.IV, UpdatedAt: s.now().UTC()}
		if err := s.repomanager.Vaults(tx).Put(ctx, b); err != nil {
			return fmt.Errorf("error storing vault: %w", err)
		}
		return nil
	})
}

// Reset wipes the blob and key metadata. Irreversible.
func (s *VaultService) Reset(ctx context.Context, userID string) error {
	return s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Vaults(tx).Delete(ctx, userID); err != nil {
			return fmt.Errorf("error deleting vault: %w", err)
		}
		if err := s.repomanager.Users(tx).ClearEncryption(ctx, userID); err != nil {
			return fmt.Errorf("error clearing keys: %w", err)
		}
		return nil
	})
}

// GetData returns (nil, nil) when the user has no blob.
func (s *VaultService) GetData(ctx context.Context, userID string) (*models.VaultBlob, error) {
	blob, err := s.repomanager.Vaults(s.repomanager.Conn()).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error loading vault: %w", err)
	}
	return blob, nil
}

// PutData replaces the blob and returns the stored timestamp.
func (s *VaultService) PutData(ctx context.Context, userID, data, iv string) (time.Time, error) {
	if data == "" || iv == "" {
		return time.Time{}, fmt.Errorf("%w: data and IV are required", common.ErrValidation)
	}

	b := &models.VaultBlob{UserID: userID, Data: data, IV: iv, UpdatedAt: s.now().UTC()}
	if err := s.repomanager.Vaults(s.repomanager.Conn()).Put(ctx, b); err != nil {
		return time.Time{}, fmt.Errorf("error storing vault: %w", err)
	}
	return b.UpdatedAt, nil
}

func present(s *string) bool {
	return s != nil && *s != ""
}
