// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It connects the record store, the
// object-storage presigner, services, handlers, middleware and routes, and
// decides which routes need a caller and which accept anonymous requests.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Backend (sqlite | redis | memory) → Tables
//	Tables + Presigner + TokenService → Services → Handlers → Routes
//
// Everything is assembled in New. Options let tests swap the backend, the
// presigner or the GitHub provider without touching the environment.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/openlecture/internal/auth"
	"github.com/sakif/openlecture/internal/config"
	"github.com/sakif/openlecture/internal/handler"
	"github.com/sakif/openlecture/internal/middleware"
	"github.com/sakif/openlecture/internal/model"
	"github.com/sakif/openlecture/internal/reconcile"
	"github.com/sakif/openlecture/internal/repository"
	"github.com/sakif/openlecture/internal/repository/memory"
	redisRepo "github.com/sakif/openlecture/internal/repository/redis"
	sqliteRepo "github.com/sakif/openlecture/internal/repository/sqlite"
	"github.com/sakif/openlecture/internal/service"
	"github.com/sakif/openlecture/internal/storage"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the record backend. Start closes it after the HTTP
// server has drained; callers that never Start must call Close.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	backend repository.Backend
}

// Option overrides a collaborator New would otherwise build from config.
type Option func(*collaborators)

type collaborators struct {
	backend   repository.Backend
	presigner service.Presigner
	github    handler.GitHubLogin
}

// WithBackend uses b instead of opening the store named by STORE_DRIVER.
func WithBackend(b repository.Backend) Option {
	return func(c *collaborators) { c.backend = b }
}

// WithPresigner uses p instead of building an S3 presigner.
func WithPresigner(p service.Presigner) Option {
	return func(c *collaborators) { c.presigner = p }
}

// WithGitHub enables the GitHub login routes with g as the provider.
func WithGitHub(g handler.GitHubLogin) Option {
	return func(c *collaborators) { c.github = g }
}

// New opens the record store and wires every service and route.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	var c collaborators
	for _, opt := range opts {
		opt(&c)
	}

	// === RECORD STORE ===
	if c.backend == nil {
		backend, err := openBackend(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c.backend = backend
	}

	// === OBJECT STORAGE ===
	// Without a bucket the API still serves metadata; upload init and
	// playback answer 503.
	if c.presigner == nil && cfg.StorageEnabled() {
		p, err := storage.NewS3Presigner(ctx, storage.S3Config{
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			Endpoint:     cfg.S3Endpoint,
			UsePathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			c.backend.Close()
			return nil, fmt.Errorf("creating S3 presigner: %w", err)
		}
		c.presigner = p
	}

	// === GITHUB LOGIN ===
	if c.github == nil && cfg.GitHubEnabled() {
		c.github = auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubCallbackURL)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		backend: c.backend,
	}

	if err := s.setupRoutes(c); err != nil {
		c.backend.Close() // Clean up the store if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// openBackend opens the store named by cfg.StoreDriver.
func openBackend(ctx context.Context, cfg *config.Config) (repository.Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil
	case config.DriverRedis:
		store, err := redisRepo.New(ctx, redisRepo.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return store, nil
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// setupRoutes configures all middleware and route handlers.
//
// AUTH LEVELS:
// Each route group carries one of two auth middlewares:
//   - OptionalAuth: a valid token identifies the caller, anything else is
//     anonymous. Used for reads where visibility decides.
//   - RequireAuth: 401 unless the token is valid. Used for every write.
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID, so the logger can tag lines with it
// 2. RealIP
// 3. Logger
// 4. Recoverer, innermost so a panic is still logged as a 500
func (s *Server) setupRoutes(c collaborators) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:   s.config.JWTSecret,
		Issuer:   s.config.JWTIssuer,
		Audience: s.config.JWTAudience,
		Lifetime: s.config.JWTExpiry,
	})
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	// === TABLES ===
	users := repository.NewTable[model.User](s.backend, repository.Users)
	videos := repository.NewTable[model.Video](s.backend, repository.Videos)
	comments := repository.NewTable[model.Comment](s.backend, repository.Comments)
	reactions := repository.NewTable[model.Reaction](s.backend, repository.Reactions)
	playlists := repository.NewTable[model.Playlist](s.backend, repository.Playlists)
	counters := reconcile.NewCounters(videos, comments, reactions, s.logger)

	// === SERVICES ===
	userService := service.NewUserService(users, passwords, s.logger)
	authService := service.NewAuthService(userService, users, tokens, passwords, s.logger)
	videoService := service.NewVideoService(videos, c.presigner, s.config.S3PlaybackExpiry, s.logger)
	uploadService := service.NewUploadService(c.presigner, s.config.S3Bucket, s.config.S3UploadExpiry, s.logger)
	commentService := service.NewCommentService(comments, videos, counters, s.logger)
	reactionService := service.NewReactionService(reactions, videos, counters, s.logger)
	playlistService := service.NewPlaylistService(playlists, s.logger)

	// === HANDLERS ===
	authHandler := handler.NewAuthHandler(authService, c.github, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	videoHandler := handler.NewVideoHandler(videoService, uploadService, s.logger)
	commentHandler := handler.NewCommentHandler(commentService, s.logger)
	reactionHandler := handler.NewReactionHandler(reactionService, s.logger)
	playlistHandler := handler.NewPlaylistHandler(playlistService, s.logger)

	optional := auth.OptionalAuth(tokens)
	required := auth.RequireAuth(tokens)

	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		if c.github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		} else {
			s.logger.Info("GitHub login disabled")
		}
	})

	s.router.Route("/api", func(api chi.Router) {
		api.Route("/users", func(r chi.Router) {
			r.Use(required)
			r.Get("/", userHandler.HandleList)
			r.Post("/", userHandler.HandleCreate)
			r.Get("/me", userHandler.HandleMe)
			r.Patch("/me", userHandler.HandlePatchMe)
			r.Get("/{id}", userHandler.HandleGet)
			r.Put("/{id}", userHandler.HandleReplace)
			r.Patch("/{id}", userHandler.HandlePatch)
			r.Delete("/{id}", userHandler.HandleDelete)
		})

		api.Route("/videos", func(r chi.Router) {
			r.With(optional).Get("/", videoHandler.HandleList)
			r.With(optional).Get("/{id}", videoHandler.HandleGet)
			r.With(optional).Get("/{id}/url", videoHandler.HandlePlaybackURL)
			r.Group(func(r chi.Router) {
				r.Use(required)
				r.Post("/", videoHandler.HandleCreate)
				r.Post("/uploads/init", videoHandler.HandleUploadInit)
				r.Put("/{id}", videoHandler.HandleReplace)
				r.Patch("/{id}", videoHandler.HandlePatch)
				r.Delete("/{id}", videoHandler.HandleDelete)
			})
		})

		api.Route("/comments", func(r chi.Router) {
			r.With(optional).Get("/", commentHandler.HandleList)
			r.With(optional).Get("/{id}", commentHandler.HandleGet)
			r.With(optional).Get("/videos/{videoId}", commentHandler.HandleByVideo)
			r.With(optional).Get("/parents/{parentId}/replies", commentHandler.HandleReplies)
			r.Group(func(r chi.Router) {
				r.Use(required)
				r.Post("/", commentHandler.HandleCreate)
				r.Put("/{id}", commentHandler.HandleReplace)
				r.Patch("/{id}", commentHandler.HandlePatch)
				r.Delete("/{id}", commentHandler.HandleDelete)
			})
		})

		api.Route("/reactions", func(r chi.Router) {
			r.Get("/", reactionHandler.HandleList)
			r.Get("/{id}", reactionHandler.HandleGet)
			r.Get("/videos/{videoId}/summary", reactionHandler.HandleSummary)
			r.Group(func(r chi.Router) {
				r.Use(required)
				r.Post("/", reactionHandler.HandleUpsert)
				r.Put("/{id}", reactionHandler.HandleReplace)
				r.Patch("/{id}", reactionHandler.HandlePatch)
				r.Delete("/{id}", reactionHandler.HandleDelete)
			})
		})

		api.Route("/playlists", func(r chi.Router) {
			r.With(optional).Get("/", playlistHandler.HandleList)
			r.With(optional).Get("/{id}", playlistHandler.HandleGet)
			r.Group(func(r chi.Router) {
				r.Use(required)
				r.Get("/me", playlistHandler.HandleMine)
				r.Post("/", playlistHandler.HandleCreate)
				r.Put("/{id}", playlistHandler.HandleReplace)
				r.Patch("/{id}", playlistHandler.HandlePatch)
				r.Delete("/{id}", playlistHandler.HandleDelete)
				r.Post("/{id}/videos", playlistHandler.HandleAddVideo)
				r.Delete("/{id}/videos/{videoId}", playlistHandler.HandleRemoveVideo)
			})
		})
	})

	return nil
}

// Router exposes the configured router, mainly for httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the record backend.
func (s *Server) Close() error {
	return s.backend.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the record backend (flushes SQLite, drops Redis connections)
func (s *Server) Start() error {
	defer func() {
		if err := s.backend.Close(); err != nil {
			s.logger.Error("closing record store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.AppEnv),
			slog.String("store", s.config.StoreDriver),
			slog.Bool("storage", s.config.StorageEnabled()),
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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
