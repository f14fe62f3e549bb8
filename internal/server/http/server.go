// Package http exposes the sevr services as a JSON REST API mounted under
// /api.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmitrijs2005/sevr/internal/logging"
	"github.com/dmitrijs2005/sevr/internal/server/services"
)

// Request body limits.
const (
	AuthBodyLimit      = 10 << 10
	EncryptedBodyLimit = 5 << 20
)

const shutdownTimeout = 5 * time.Second

// Services groups the use cases served over HTTP.
type Services struct {
	Auth     *services.AuthService
	Tokens   *services.TokenService
	Vault    *services.VaultService
	Accounts *services.AccountService
}

type HTTPServer struct {
	address        string
	allowedOrigins []string
	auth           *services.AuthService
	tokens         *services.TokenService
	vault          *services.VaultService
	accounts       *services.AccountService
	logger         logging.Logger
	now            func() time.Time
}

func NewHTTPServer(address string, allowedOrigins []string, l logging.Logger, svc Services) *HTTPServer {
	return &HTTPServer{
		address:        address,
		allowedOrigins: allowedOrigins,
		auth:           svc.Auth,
		tokens:         svc.Tokens,
		vault:          svc.Vault,
		accounts:       svc.Accounts,
		logger:         l.With("module", "http_server"),
		now:            time.Now,
	}
}

// Router builds the route tree.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)

		r.Route("/auth", func(r chi.Router) {
			r.Use(limitBody(AuthBodyLimit))
			r.Post("/request-otp", s.requestOTP)
			r.Post("/verify-otp", s.verifyOTP)
			r.Post("/refresh", s.refresh)
			r.Post("/logout", s.logout)
		})

		r.Route("/encrypted", func(r chi.Router) {
			r.Use(s.accessTokenMiddleware)
			r.Use(limitBody(EncryptedBodyLimit))
			r.Get("/status", s.vaultStatus)
			r.Post("/setup", s.vaultSetup)
			r.Post("/reset", s.vaultReset)
			r.Post("/change-password", s.vaultChangePassword)
			r.Get("/data", s.vaultGetData)
			r.Put("/data", s.vaultPutData)
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(s.accessTokenMiddleware)
			r.Use(limitBody(AuthBodyLimit))
			r.Get("/me", s.me)
			r.Delete("/me", s.deleteMe)
		})
	})

	return r
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *HTTPServer) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
