package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/sevr/internal/common"
)

// HTTPClient talks to the sevr REST API. It is safe for concurrent use.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) tokens() (access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

func (c *HTTPClient) setTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	if refresh != "" {
		c.refreshToken = refresh
	}
}

func (c *HTTPClient) SetRefreshToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshToken = token
}

func (c *HTTPClient) RefreshToken() string {
	_, refresh := c.tokens()
	return refresh
}

func (c *HTTPClient) send(ctx context.Context, method, path string, body []byte, token string) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

// call performs one request. Authenticated calls that get a 401 refresh the
// access token once and retry.
func (c *HTTPClient) call(ctx context.Context, method, path string, in, out any, authenticated bool) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return err
		}
	}

	var token string
	if authenticated {
		token, _ = c.tokens()
	}

	resp, err := c.send(ctx, method, path, body, token)
	if err != nil {
		return err
	}

	if authenticated && resp.StatusCode == http.StatusUnauthorized && c.RefreshToken() != "" {
		resp.Body.Close()

		if _, err := c.Refresh(ctx); err != nil {
			return err
		}
		token, _ = c.tokens()
		if resp, err = c.send(ctx, method, path, body, token); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/api/health", nil, nil, false)
}

func (c *HTTPClient) RequestOTP(ctx context.Context, email string) error {
	return c.call(ctx, http.MethodPost, "/api/auth/request-otp", map[string]string{"email": email}, nil, false)
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, email, code string) (*LoginResult, error) {
	var res LoginResult
	in := map[string]string{"email": email, "code": code}
	if err := c.call(ctx, http.MethodPost, "/api/auth/verify-otp", in, &res, false); err != nil {
		return nil, err
	}
	c.setTokens(res.AccessToken, res.RefreshToken)
	return &res, nil
}

// Refresh exchanges the stored refresh token for a new access token.
func (c *HTTPClient) Refresh(ctx context.Context) (*User, error) {
	refresh := c.RefreshToken()
	if refresh == "" {
		return nil, ErrNotLoggedIn
	}

	var res struct {
		AccessToken string `json:"accessToken"`
		User        User   `json:"user"`
	}
	in := map[string]string{"refreshToken": refresh}
	if err := c.call(ctx, http.MethodPost, "/api/auth/refresh", in, &res, false); err != nil {
		return nil, err
	}
	c.setTokens(res.AccessToken, "")
	return &res.User, nil
}

// Logout revokes the refresh token and forgets both tokens.
func (c *HTTPClient) Logout(ctx context.Context) error {
	refresh := c.RefreshToken()
	if refresh == "" {
		return nil
	}

	err := c.call(ctx, http.MethodPost, "/api/auth/logout", map[string]string{"refreshToken": refresh}, nil, false)

	c.mu.Lock()
	c.accessToken, c.refreshToken = "", ""
	c.mu.Unlock()
	return err
}

func (c *HTTPClient) VaultStatus(ctx context.Context) (*VaultStatus, error) {
	var st VaultStatus
	if err := c.call(ctx, http.MethodGet, "/api/encrypted/status", nil, &st, true); err != nil {
		return nil, err
	}
	return &st, nil
}

type keysRequest struct {
	Salt             string `json:"salt"`
	Verifier         string `json:"verifier"`
	RecoveryVerifier string `json:"recoveryVerifier,omitempty"`
	AllowOverwrite   bool   `json:"allowOverwrite,omitempty"`
	EncryptedData    string `json:"encryptedData,omitempty"`
	IV               string `json:"iv,omitempty"`
}

func (c *HTTPClient) SetupVault(ctx context.Context, keys VaultKeys, allowOverwrite bool) error {
	in := keysRequest{
		Salt:             keys.Salt,
		Verifier:         keys.Verifier,
		RecoveryVerifier: keys.RecoveryVerifier,
		AllowOverwrite:   allowOverwrite,
	}
	return c.call(ctx, http.MethodPost, "/api/encrypted/setup", in, nil, true)
}

func (c *HTTPClient) ChangePassword(ctx context.Context, keys VaultKeys, data *VaultData) error {
	in := keysRequest{Salt: keys.Salt, Verifier: keys.Verifier, RecoveryVerifier: keys.RecoveryVerifier}
	if data != nil {
		in.EncryptedData, in.IV = data.Data, data.IV
	}
	return c.call(ctx, http.MethodPost, "/api/encrypted/change-password", in, nil, true)
}

func (c *HTTPClient) ResetVault(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/api/encrypted/reset", nil, nil, true)
}

// GetVaultData returns (nil, nil) when nothing is stored yet.
func (c *HTTPClient) GetVaultData(ctx context.Context) (*VaultData, error) {
	var res struct {
		Data      *string   `json:"data"`
		IV        string    `json:"iv"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/encrypted/data", nil, &res, true); err != nil {
		return nil, err
	}
	if res.Data == nil {
		return nil, nil
	}
	return &VaultData{Data: *res.Data, IV: res.IV, UpdatedAt: res.UpdatedAt}, nil
}

func (c *HTTPClient) PutVaultData(ctx context.Context, data, iv string) (time.Time, error) {
	var res struct {
		UpdatedAt time.Time `json:"updatedAt"`
	}
	in := map[string]string{"data": data, "iv": iv}
	if err := c.call(ctx, http.MethodPut, "/api/encrypted/data", in, &res, true); err != nil {
		return time.Time{}, err
	}
	return res.UpdatedAt, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.call(ctx, http.MethodGet, "/api/user/me", nil, &u, true); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) DeleteAccount(ctx context.Context) error {
	if err := c.call(ctx, http.MethodDelete, "/api/user/me", nil, nil, true); err != nil {
		return err
	}
	c.mu.Lock()
	c.accessToken, c.refreshToken = "", ""
	c.mu.Unlock()
	return nil
}

var _ Client = (*HTTPClient)(nil)

// IsAPIStatus reports whether err is an APIError with the given status.
func IsAPIStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
