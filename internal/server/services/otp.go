// Package services contains server-side business logic: one-time code login,
// token lifecycle, the encrypted vault endpoint and account management.
package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/sevr/internal/common"
	"github.com/dmitrijs2005/sevr/internal/logging"
	"github.com/dmitrijs2005/sevr/internal/server/delivery"
	"github.com/dmitrijs2005/sevr/internal/server/models"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/otpcodes"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/repomanager"
)

// Fixed code policy.
const (
	OTPCodeTTL     = 10 * time.Minute
	OTPMaxAttempts = 5
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lower-cases email, returning common.ErrValidation
// when it does not look like an address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRe.MatchString(email) {
		return "", fmt.Errorf("%w: invalid email format", common.ErrValidation)
	}
	return email, nil
}

// generateCode returns a uniform six digit code in 100000..999999.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// OTPManager issues and checks one-time login codes.
type OTPManager struct {
	repomanager repomanager.RepositoryManager
	sender      delivery.Sender
	logger      logging.Logger
	now         func() time.Time
	newCode     func() (string, error)
}

func NewOTPManager(m repomanager.RepositoryManager, sender delivery.Sender, logger logging.Logger) *OTPManager {
	return &OTPManager{
		repomanager: m,
		sender:      sender,
		logger:      logger.With("module", "otp"),
		now:         time.Now,
		newCode:     generateCode,
	}
}

// RequestCode reaps stale codes, stores a fresh one for email and delivers
// it. Delivery errors are logged and never fail the request.
func (s *OTPManager) RequestCode(ctx context.Context, email string) error {
	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}

	repo := s.repomanager.OTPCodes(s.repomanager.Conn())
	now := s.now()

	if n, err := repo.DeleteStale(ctx, now); err != nil {
		return fmt.Errorf("error deleting stale codes: %w", err)
	} else if n > 0 {
		s.logger.Debug(ctx, "stale codes removed", "count", n)
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("error generating code: %w", err)
	}

	row := &models.OneTimeCode{Email: email, Code: code, ExpiresAt: now.Add(OTPCodeTTL)}
	if err := repo.Create(ctx, row); err != nil {
		return fmt.Errorf("error storing code: %w", err)
	}

	if err := s.sender.SendCode(ctx, email, code); err != nil {
		s.logger.Error(ctx, "code delivery failed", "email", email, "error", err)
	}
	return nil
}

// VerifyCode checks code against the newest active code for email and
// returns the normalised email on success. Codes are single use. The guess
// that reaches OTPMaxAttempts marks the code used, and later guesses get
// common.ErrTooManyAttempts until it expires or a new code is requested.
func (s *OTPManager) VerifyCode(ctx context.Context, email, code string) (string, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return "", err
	}

	repo := s.repomanager.OTPCodes(s.repomanager.Conn())

	row, err := repo.FindActive(ctx, email, s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", s.inactiveCodeError(ctx, repo, email)
		}
		return "", fmt.Errorf("error looking up code: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(row.Code), []byte(strings.TrimSpace(code))) != 1 {
		n, err := repo.IncrementAttempts(ctx, row.ID, OTPMaxAttempts)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return "", s.inactiveCodeError(ctx, repo, email)
			}
			return "", fmt.Errorf("error counting attempt: %w", err)
		}
		if n >= OTPMaxAttempts {
			return "", common.ErrTooManyAttempts
		}
		return "", common.ErrCodeMismatch
	}

	if err := repo.MarkUsed(ctx, row.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", s.inactiveCodeError(ctx, repo, email)
		}
		return "", fmt.Errorf("error consuming code: %w", err)
	}
	return email, nil
}

// inactiveCodeError explains why email has no usable code: the newest
// unexpired one was locked by wrong guesses, or there is none left.
func (s *OTPManager) inactiveCodeError(ctx context.Context, repo otpcodes.Repository, email string) error {
	row, err := repo.FindLatest(ctx, email, s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrCodeNotFound
		}
		return fmt.Errorf("error looking up code: %w", err)
	}
	if row.Attempts >= OTPMaxAttempts {
		return common.ErrTooManyAttempts
	}
	return common.ErrCodeNotFound
}
