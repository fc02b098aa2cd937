// Package rest exposes the notekeeper API over HTTP: the session endpoints
// under /auth and the protected /users and /notes resources.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const shutdownTimeout = 10 * time.Second

// Authenticator is the session flow behind /auth.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string)
}

// UserAdmin is the account administration behind /users.
type UserAdmin interface {
	List(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, in services.CreateUserInput) (*models.User, error)
	Update(ctx context.Context, in services.UpdateUserInput) (*models.User, error)
	Delete(ctx context.Context, id string) (*models.User, error)
}

// NoteStore is the note management behind /notes.
type NoteStore interface {
	List(ctx context.Context) ([]*models.Note, error)
	Create(ctx context.Context, in services.NoteInput) (*models.Note, error)
	Update(ctx context.Context, in services.NoteInput) (*models.Note, error)
	Delete(ctx context.Context, id string) (*models.Note, error)
}

// HealthFunc reports whether the server's dependencies are reachable.
type HealthFunc func(ctx context.Context) error

// Options carries the collaborators of an HTTPServer.
type Options struct {
	Address        string
	AllowedOrigins []string
	Codec          *auth.Codec
	Auth           Authenticator
	Users          UserAdmin
	Notes          NoteStore
	Health         HealthFunc
	Metrics        *Metrics
	Logger         logging.Logger
}

// HTTPServer serves the REST API.
type HTTPServer struct {
	address        string
	allowedOrigins []string
	codec          *auth.Codec
	cookies        *CookieManager
	auth           Authenticator
	users          UserAdmin
	notes          NoteStore
	health         HealthFunc
	metrics        *Metrics
	logger         logging.Logger
}

func NewHTTPServer(o Options) *HTTPServer {
	return &HTTPServer{
		address:        o.Address,
		allowedOrigins: o.AllowedOrigins,
		codec:          o.Codec,
		cookies:        NewCookieManager(o.Codec.Secrets().RefreshTTL()),
		auth:           o.Auth,
		users:          o.Users,
		notes:          o.Notes,
		health:         o.Health,
		metrics:        o.Metrics,
		logger:         o.Logger.With("module", "http_server"),
	}
}

// Routes builds the router.
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/", s.handleLogin)
		r.Get("/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.VerifyJWT)

		r.Route("/users", func(r chi.Router) {
			r.Use(RequireRoles(common.RoleAdmin, common.RoleManager))
			r.Get("/", s.handleListUsers)
			r.Post("/", s.handleCreateUser)
			r.Patch("/", s.handleUpdateUser)
			r.Delete("/", s.handleDeleteUser)
		})

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", s.handleListNotes)
			r.Post("/", s.handleCreateNote)
			r.Patch("/", s.handleUpdateNote)
			r.Delete("/", s.handleDeleteNote)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}
