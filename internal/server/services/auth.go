package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sevr/internal/common"
	"github.com/dmitrijs2005/sevr/internal/logging"
	"github.com/dmitrijs2005/sevr/internal/server/config"
	"github.com/dmitrijs2005/sevr/internal/server/events"
	"github.com/dmitrijs2005/sevr/internal/server/models"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/repomanager"
)

// LoginResult is returned once per successful code verification. The raw
// refresh token is only ever handed out here.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
	IsNewUser    bool
}

// AuthService composes OTPManager and TokenService into the login, refresh
// and logout use cases.
type AuthService struct {
	repomanager repomanager.RepositoryManager
	otp         *OTPManager
	tokens      *TokenService
	config      *config.Config
	notifier    events.Notifier
	logger      logging.Logger
	now         func() time.Time
}

func NewAuthService(m repomanager.RepositoryManager, otp *OTPManager, tokens *TokenService,
	cfg *config.Config, notifier events.Notifier, logger logging.Logger) *AuthService {
	if notifier == nil {
		notifier = events.Nop{}
	}
	return &AuthService{
		repomanager: m,
		otp:         otp,
		tokens:      tokens,
		config:      cfg,
		notifier:    notifier,
		logger:      logger.With("module", "auth"),
		now:         time.Now,
	}
}

func (s *AuthService) RequestOTP(ctx context.Context, email string) error {
	return s.otp.RequestCode(ctx, email)
}

// VerifyOTP checks the code and logs the user in, creating the account on
// first login and escalating to admin when the email is allowlisted.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*LoginResult, error) {
	email, err := s.otp.VerifyCode(ctx, email, code)
	if err != nil {
		return nil, err
	}

	user, isNew, err := s.findOrCreateUser(ctx, email)
	if err != nil {
		return nil, err
	}

	if !user.IsAdmin && s.config.IsAdminEmail(email) {
		if err := s.repomanager.Users(s.repomanager.Conn()).SetAdmin(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("error escalating admin: %w", err)
		}
		user.IsAdmin = true
		s.logger.Info(ctx, "admin flag granted", "user_id", user.ID)
	}

	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("error signing access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	if isNew {
		s.notifier.UserSignedUp(ctx, events.Signup{UserID: user.ID, Email: user.Email, At: s.now()})
	}

	return &LoginResult{AccessToken: access, RefreshToken: refresh, User: user, IsNewUser: isNew}, nil
}

func (s *AuthService) findOrCreateUser(ctx context.Context, email string) (*models.User, bool, error) {
	repo := s.repomanager.Users(s.repomanager.Conn())

	user, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, false, fmt.Errorf("error loading user: %w", err)
	}

	user, err = repo.Create(ctx, &models.User{Email: email})
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, common.ErrorAlreadyExists) {
		return nil, false, fmt.Errorf("error creating user: %w", err)
	}

	// lost a race with a concurrent first login
	user, err = repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("error loading user: %w", err)
	}
	return user, false, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, *models.User, error) {
	return s.tokens.RefreshAccess(ctx, refreshToken)
}

// Logout revokes the refresh token. Unknown tokens succeed as well.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken)
}
