package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sevr/internal/client/client"
	"github.com/dmitrijs2005/sevr/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/sevr/internal/logging"
	"github.com/dmitrijs2005/sevr/internal/server/config"
	"github.com/dmitrijs2005/sevr/internal/server/events"
	hs "github.com/dmitrijs2005/sevr/internal/server/http"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/repomanager"
	srv "github.com/dmitrijs2005/sevr/internal/server/services"
)

type codeCatcher struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *codeCatcher) SendCode(_ context.Context, email, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[email] = code
	return nil
}

func (c *codeCatcher) last(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[email]
}

// backend is a full server on the in-memory store. writes counts requests
// that are not GETs.
type backend struct {
	url    string
	codes  *codeCatcher
	writes atomic.Int64
}

func newBackend(t *testing.T) *backend {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"

	logger := logging.NewJSONLogger(io.Discard, "error")
	rm := repomanager.NewInMemoryRepositoryManager()
	b := &backend{codes: &codeCatcher{codes: map[string]string{}}}

	otp := srv.NewOTPManager(rm, b.codes, logger)
	tokens := srv.NewTokenService(rm, cfg)
	server := hs.NewHTTPServer("127.0.0.1:0", nil, logger, hs.Services{
		Auth:     srv.NewAuthService(rm, otp, tokens, cfg, events.Nop{}, logger),
		Tokens:   tokens,
		Vault:    srv.NewVaultService(rm),
		Accounts: srv.NewAccountService(rm),
	})

	router := server.Router()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			b.writes.Add(1)
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)
	b.url = ts.URL
	return b
}

func newMetadata(t *testing.T) metadata.Repository {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "cli.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return metadata.NewSQLiteRepository(db)
}

func newAPI(b *backend) *client.HTTPClient {
	return client.NewHTTPClient(b.url, 5*time.Second)
}

// loggedIn returns a session and vault for a fresh user of b.
func loggedIn(t *testing.T, b *backend, email string) (*SessionService, *VaultSession, *client.HTTPClient) {
	t.Helper()
	ctx := context.Background()

	api := newAPI(b)
	s := NewSessionService(api, newMetadata(t))
	require.NoError(t, s.RequestCode(ctx, email))
	_, err := s.Login(ctx, email, b.codes.last(email))
	require.NoError(t, err)

	return s, NewVaultSession(api), api
}
