package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sevr/internal/common"
	"github.com/dmitrijs2005/sevr/internal/server/auth"
	"github.com/dmitrijs2005/sevr/internal/server/config"
	"github.com/dmitrijs2005/sevr/internal/server/models"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/repomanager"
)

// hashToken is the stored form of a raw refresh token.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// TokenService mints access tokens and manages opaque refresh tokens.
//
// Refresh tokens are not rotated on use: the same raw token keeps working
// until it expires or is revoked, so concurrent refreshes all succeed.
type TokenService struct {
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
}

func NewTokenService(m repomanager.RepositoryManager, cfg *config.Config) *TokenService {
	return &TokenService{
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

func (s *TokenService) IssueAccessToken(user *models.User) (string, error) {
	return auth.GenerateToken(user.ID, user.Email, user.IsAdmin, s.jwtSecret, s.now(), s.accessTokenValidityDuration)
}

// IssueRefreshToken stores the hash of a new random token and returns the
// raw value. The raw value is not kept anywhere server side.
func (s *TokenService) IssueRefreshToken(ctx context.Context, user *models.User) (string, error) {
	raw, err := common.MakeRandHexString(32)
	if err != nil {
		return "", err
	}

	row := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(raw),
		ExpiresAt: s.now().Add(s.refreshTokenValidityDuration),
	}
	if err := s.repomanager.RefreshTokens(s.repomanager.Conn()).Create(ctx, row); err != nil {
		return "", fmt.Errorf("error storing refresh token: %w", err)
	}
	return raw, nil
}

// VerifyAccessToken fails closed with common.ErrInvalidToken.
func (s *TokenService) VerifyAccessToken(token string) (*auth.Claims, error) {
	return auth.ParseToken(token, s.jwtSecret, s.now())
}

// RefreshAccess exchanges a live refresh token for a new access token.
func (s *TokenService) RefreshAccess(ctx context.Context, raw string) (string, *models.User, error) {
	if raw == "" {
		return "", nil, common.ErrRefreshTokenInvalid
	}

	row, err := s.repomanager.RefreshTokens(s.repomanager.Conn()).FindActive(ctx, hashToken(raw), s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrRefreshTokenInvalid
		}
		return "", nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	user, err := s.repomanager.Users(s.repomanager.Conn()).GetByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrRefreshTokenInvalid
		}
		return "", nil, fmt.Errorf("error loading user: %w", err)
	}

	access, err := s.IssueAccessToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("error signing access token: %w", err)
	}
	return access, user, nil
}

// Revoke is idempotent; unknown tokens are not an error.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	if err := s.repomanager.RefreshTokens(s.repomanager.Conn()).Revoke(ctx, hashToken(raw)); err != nil {
		return fmt.Errorf("error revoking refresh token: %w", err)
	}
	return nil
}

func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	if err := s.repomanager.RefreshTokens(s.repomanager.Conn()).RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("error revoking refresh tokens: %w", err)
	}
	return nil
}
