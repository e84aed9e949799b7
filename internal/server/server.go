// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects the store, services,
// handlers, middleware and routes. It decides:
//   - Which backing store is opened (sqlite or mongo)
//   - Which URL patterns map to which handler functions
//   - Which routes sit behind the bearer-token gate
//   - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → repository.Store (sqlite | mongodb)
//	             → services (auth, preferences, bookmarks, news)
//	             → handlers → chi routes
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes) rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/newsroom/internal/auth"
	"github.com/sakif/newsroom/internal/config"
	"github.com/sakif/newsroom/internal/handler"
	"github.com/sakif/newsroom/internal/middleware"
	"github.com/sakif/newsroom/internal/news"
	"github.com/sakif/newsroom/internal/repository"
	"github.com/sakif/newsroom/internal/repository/mongodb"
	sqliteRepo "github.com/sakif/newsroom/internal/repository/sqlite"
	"github.com/sakif/newsroom/internal/service"
)

// storeConnectTimeout bounds the initial store connection and index setup.
const storeConnectTimeout = 10 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store connection. Start() closes it after the HTTP
// server has drained; callers that never Start must call Close.
type Server struct {
	router    *chi.Mux
	config    config.Config
	logger    *slog.Logger
	store     repository.Store
	providers []auth.IdentityProvider
}

// Option customises New. Used by tests and alternative entry points.
type Option func(*Server)

// WithStore uses an already-open store instead of opening one from config.
func WithStore(store repository.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithIdentityProviders replaces the OAuth providers built from config.
func WithIdentityProviders(providers ...auth.IdentityProvider) Option {
	return func(s *Server) { s.providers = providers }
}

// New creates a Server from cfg.
//
// Failing to reach the store is the only fatal startup error: a missing news
// API key or OAuth registration just leaves those features failing per request.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		router:    chi.NewRouter(),
		config:    *cfg,
		logger:    logger,
		providers: identityProviders(cfg, logger),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		ctx, cancel := context.WithTimeout(context.Background(), storeConnectTimeout)
		defer cancel()

		store, err := openStore(ctx, cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
		}
		s.store = store
	}

	if err := s.setupRoutes(); err != nil {
		s.store.Close() // Clean up the store if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// openStore connects to the configured backend.
func openStore(ctx context.Context, cfg config.Store) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		// Ensure the data directory exists (like `mkdir -p`).
		if cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverMongo:
		store, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// identityProviders builds the OAuth providers that have credentials configured.
func identityProviders(cfg *config.Config, logger *slog.Logger) []auth.IdentityProvider {
	var providers []auth.IdentityProvider
	if cfg.Google.Enabled() {
		providers = append(providers, auth.NewGoogleProvider(auth.ProviderConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			CallbackURL:  cfg.Google.CallbackURL,
		}))
	} else {
		logger.Info("google sign-in disabled: client id/secret not set")
	}
	if cfg.GitHub.Enabled() {
		providers = append(providers, auth.NewGitHubProvider(auth.ProviderConfig{
			ClientID:     cfg.GitHub.ClientID,
			ClientSecret: cfg.GitHub.ClientSecret,
			CallbackURL:  cfg.GitHub.CallbackURL,
		}))
	} else {
		logger.Info("github sign-in disabled: client id/secret not set")
	}
	return providers
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                          → liveness + store ping
//	POST   /api/auth/signup                  → create local account
//	POST   /api/auth/login                   → password login, returns token
//	POST   /api/auth/logout                  → stateless acknowledgement
//	GET    /api/auth/me                      → current user            [auth]
//	GET    /api/auth/{google,github}         → OAuth redirect
//	GET    /api/auth/{google,github}/callback
//	GET    /api/user/preferences             → current preferences     [auth]
//	POST   /api/user/preferences             → alias of GET            [auth]
//	PUT    /api/user/preferences             → replace preferences     [auth]
//	GET    /api/news                         → top headlines (?country=)
//	GET    /api/news/personalized            → by stored preferences   [auth]
//	GET    /api/news/search                  → keyword search (?query=)
//	GET    /api/bookmark                     → list bookmarks          [auth]
//	POST   /api/bookmark                     → add bookmark            [auth]
//	DELETE /api/bookmark/{articleId}         → remove bookmark         [auth]
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns a unique ID to each request (for tracing)
// 2. RealIP: extracts the real client IP from proxy headers
// 3. Recoverer: catches panics and returns 500 instead of crashing
// 4. Logger: logs each request with timing info and the request ID
// 5. CORS: lets the browser frontend call us with an Authorization header
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWT.Secret, s.config.JWT.TTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	// === Services ===
	gateway := news.NewGateway(s.config.News.APIKey,
		news.WithBaseURL(s.config.News.BaseURL),
		news.WithTimeout(s.config.News.Timeout),
		news.WithLogger(s.logger),
	)
	authService := service.NewAuthService(s.store.Users(), tokens, auth.NewPasswordService(), s.logger)
	prefService := service.NewPreferenceService(s.store.Preferences(), s.logger)
	bookmarkService := service.NewBookmarkService(s.store.Bookmarks(), s.logger)
	newsService := service.NewNewsService(gateway, prefService, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, s.config.HTTP.FrontendURL, s.logger, s.providers...)
	prefHandler := handler.NewPreferenceHandler(prefService, s.logger)
	bookmarkHandler := handler.NewBookmarkHandler(bookmarkService, s.logger)
	newsHandler := handler.NewNewsHandler(newsService, s.logger)

	requireAuth := auth.RequireAuth(authService)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	// Baseline security headers; the API only ever returns JSON or redirects.
	s.router.Use(chimiddleware.SetHeader("X-Content-Type-Options", "nosniff"))
	s.router.Use(chimiddleware.SetHeader("X-Frame-Options", "DENY"))
	s.router.Use(chimiddleware.SetHeader("Referrer-Policy", "no-referrer"))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.config.HTTP.FrontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.NotFound(handler.HandleNotFound)
	s.router.MethodNotAllowed(handler.HandleMethodNotAllowed)

	s.router.Get("/healthz", handler.HandleHealth(s.store, s.logger))

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.HandleSignup)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)

			for _, p := range s.providers {
				r.Get("/"+p.Name(), authHandler.HandleOAuthLogin(p.Name()))
				r.Get("/"+p.Name()+"/callback", authHandler.HandleOAuthCallback(p.Name()))
			}
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/preferences", prefHandler.HandleGet)
			r.Post("/preferences", prefHandler.HandleGet)
			r.Put("/preferences", prefHandler.HandleUpdate)
		})

		r.Route("/news", func(r chi.Router) {
			r.Get("/", newsHandler.HandleHeadlines)
			r.Get("/search", newsHandler.HandleSearch)
			r.With(requireAuth).Get("/personalized", newsHandler.HandlePersonalized)
		})

		r.Route("/bookmark", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", bookmarkHandler.HandleList)
			r.Post("/", bookmarkHandler.HandleAdd)
			r.Delete("/{articleId}", bookmarkHandler.HandleRemove)
		})
	})

	return nil
}

// Handler exposes the router, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store.
func (s *Server) Close() error {
	return s.store.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (HTTP.ShutdownTimeout)
// 3. Close the store connection
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         ":" + s.config.HTTP.Port,
		Handler:      s.router,
		ReadTimeout:  s.config.HTTP.ReadTimeout,
		WriteTimeout: s.config.HTTP.WriteTimeout,
		IdleTimeout:  s.config.HTTP.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("store", s.config.Store.Driver),
			slog.String("frontend", s.config.HTTP.FrontendURL),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.HTTP.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
