package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/sevr/internal/client/client"
	"github.com/dmitrijs2005/sevr/internal/client/config"
	"github.com/dmitrijs2005/sevr/internal/client/models"
	"github.com/dmitrijs2005/sevr/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/sevr/internal/client/services"
)

type App struct {
	db      *sql.DB
	session *services.SessionService
	vault   *services.VaultSession
	reader  *bufio.Reader
	out     io.Writer

	user  *client.User
	items models.Services
}

// NewApp opens the local cache and builds the services against the
// configured server.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	api := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)

	a := newApp(
		services.NewSessionService(api, metadata.NewSQLiteRepository(db)),
		services.NewVaultSession(api),
		bufio.NewReader(os.Stdin),
		os.Stdout,
	)
	a.db = db
	return a, nil
}

func newApp(s *services.SessionService, v *services.VaultSession, r *bufio.Reader, w io.Writer) *App {
	return &App{session: s, vault: v, reader: r, out: w}
}

// Run resumes a cached session when there is one and starts the REPL.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to sevr (type 'help' for commands)")

	if err := a.session.Ping(ctx); err != nil {
		fmt.Fprintln(a.out, "Warning: server is not reachable")
	}
	a.resume(ctx)

	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) resume(ctx context.Context) {
	user, err := a.session.Resume(ctx)
	if err != nil {
		if !errors.Is(err, client.ErrNotLoggedIn) {
			fmt.Fprintln(a.out, "Could not restore session:", err)
		}
		return
	}
	a.user = user
	fmt.Fprintf(a.out, "Logged in as %s\n", user.Email)
}

func (a *App) Close() {
	a.vault.Lock()
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) isUnlocked() bool {
	return a.vault.IsUnlocked()
}

func (a *App) status() string {
	switch {
	case !a.isLoggedIn():
		return ""
	case a.isUnlocked():
		return fmt.Sprintf("(%s, unlocked)", a.user.Email)
	default:
		return fmt.Sprintf("(%s, locked)", a.user.Email)
	}
}

func (a *App) requireLogin() error {
	if !a.isLoggedIn() {
		return client.ErrNotLoggedIn
	}
	return nil
}

func (a *App) requireUnlocked() error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if !a.isUnlocked() {
		return client.ErrVaultLocked
	}
	return nil
}
