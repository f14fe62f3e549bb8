// Package server wires configuration, storage, services and the HTTP
// transport into a runnable application.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/sevr/internal/logging"
	"github.com/dmitrijs2005/sevr/internal/server/config"
	"github.com/dmitrijs2005/sevr/internal/server/delivery"
	"github.com/dmitrijs2005/sevr/internal/server/events"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/vaults"
	"github.com/dmitrijs2005/sevr/internal/server/services"

	hs "github.com/dmitrijs2005/sevr/internal/server/http"
)

// seams for tests
var (
	openPostgres = repomanager.OpenPostgres
	newS3Client  = func(ctx context.Context, o vaults.S3Options) (vaults.ObjectAPI, error) {
		return vaults.NewS3Client(ctx, o)
	}
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	server      *hs.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	rm, err := newRepositoryManager(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	otp := services.NewOTPManager(rm, delivery.New(c, logger), logger)
	tokens := services.NewTokenService(rm, c)
	authService := services.NewAuthService(rm, otp, tokens, c, events.NewLogNotifier(logger), logger)

	srv := hs.NewHTTPServer(c.HTTPAddr, c.AllowedOrigins, logger, hs.Services{
		Auth:     authService,
		Tokens:   tokens,
		Vault:    services.NewVaultService(rm),
		Accounts: services.NewAccountService(rm),
	})

	return &App{config: c, logger: logger, repomanager: rm, server: srv}, nil
}

func newRepositoryManager(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == config.MemoryDSN {
		return repomanager.NewInMemoryRepositoryManager(), nil
	}

	var opts []repomanager.Option
	if c.VaultBackend == config.VaultBackendS3 {
		client, err := newS3Client(ctx, vaults.S3Options{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, repomanager.WithVaultStore(vaults.NewS3Repository(client, c.S3Bucket)))
	}

	db, err := openPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	return repomanager.NewPostgresRepositoryManager(db, opts...), nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a termination signal arrives or the
// server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.HTTPAddr, "vault_backend", app.config.VaultBackend)

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(ctx, "closing store", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
