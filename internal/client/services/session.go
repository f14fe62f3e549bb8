// Package services contains the CLI's application services: the login
// session and the unlocked vault.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sevr/internal/client/client"
	"github.com/dmitrijs2005/sevr/internal/client/repositories/metadata"
)

// SessionService logs in with an emailed code and keeps the refresh token
// in the local cache so the next run can resume without a new code.
type SessionService struct {
	client client.Client
	meta   metadata.Repository
}

func NewSessionService(c client.Client, meta metadata.Repository) *SessionService {
	return &SessionService{client: c, meta: meta}
}

func (s *SessionService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *SessionService) RequestCode(ctx context.Context, email string) error {
	return s.client.RequestOTP(ctx, email)
}

// Login exchanges the code for tokens and caches the email and refresh token.
func (s *SessionService) Login(ctx context.Context, email, code string) (*client.LoginResult, error) {
	res, err := s.client.VerifyOTP(ctx, email, code)
	if err != nil {
		return nil, err
	}

	if err := s.meta.Set(ctx, metadata.KeyEmail, []byte(res.User.Email)); err != nil {
		return nil, fmt.Errorf("cache email: %w", err)
	}
	if err := s.meta.Set(ctx, metadata.KeyRefreshToken, []byte(res.RefreshToken)); err != nil {
		return nil, fmt.Errorf("cache refresh token: %w", err)
	}
	return res, nil
}

// Resume restores the session from the cached refresh token. A token the
// server no longer accepts is dropped and ErrNotLoggedIn is returned.
func (s *SessionService) Resume(ctx context.Context) (*client.User, error) {
	token, err := s.meta.Get(ctx, metadata.KeyRefreshToken)
	if err != nil {
		return nil, err
	}
	if len(token) == 0 {
		return nil, client.ErrNotLoggedIn
	}

	s.client.SetRefreshToken(string(token))
	user, err := s.client.Refresh(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			s.client.SetRefreshToken("")
			if err := s.meta.Delete(ctx, metadata.KeyRefreshToken); err != nil {
				return nil, err
			}
			return nil, client.ErrNotLoggedIn
		}
		return nil, err
	}
	return user, nil
}

// Email returns the cached login email, or "" when there is none.
func (s *SessionService) Email(ctx context.Context) (string, error) {
	v, err := s.meta.Get(ctx, metadata.KeyEmail)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// Logout revokes the refresh token on the server and forgets it locally.
// The local cache is cleared even when the server cannot be reached.
func (s *SessionService) Logout(ctx context.Context) error {
	serverErr := s.client.Logout(ctx)
	if err := s.meta.Delete(ctx, metadata.KeyRefreshToken); err != nil {
		return err
	}
	return serverErr
}

func (s *SessionService) Me(ctx context.Context) (*client.User, error) {
	return s.client.Me(ctx)
}

// DeleteAccount removes the account with its vault and clears the cache.
func (s *SessionService) DeleteAccount(ctx context.Context) error {
	if err := s.client.DeleteAccount(ctx); err != nil {
		return err
	}
	return s.meta.Clear(ctx)
}
