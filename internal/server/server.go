package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/adoptly/apiserver/config"
	"github.com/adoptly/apiserver/internal/db"
	"github.com/adoptly/apiserver/internal/events"
	"github.com/adoptly/apiserver/internal/handlers"
	"github.com/adoptly/apiserver/internal/logging"
	"github.com/adoptly/apiserver/internal/metrics"
	"github.com/adoptly/apiserver/internal/mq"
	"github.com/adoptly/apiserver/internal/services"
	"github.com/adoptly/apiserver/internal/storage"
	"github.com/adoptly/apiserver/internal/store"
)

// Server wraps the HTTP server and the connections it owns.
type Server struct {
	httpServer *http.Server
	db         *sql.DB
	queue      *mq.MQ
}

// Services groups the use-cases exposed over HTTP.
type Services struct {
	Users     *services.UserService
	Pets      *services.PetService
	Adoptions *services.AdoptionService
	Favorites *services.FavoriteService
	Messages  *services.MessageService
	Stats     *services.StatsService
}

// New connects to postgres, object storage and the broker, then builds the
// router on top of the postgres repositories.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	var images services.ImageStore
	if objects != nil {
		images = objects
	} else {
		logger.Warn("image storage disabled; uploads will be rejected")
	}

	queue, err := mq.Open(ctx, cfg.Queue)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("open queue: %w", err)
	}
	publisher := events.Noop()
	if queue != nil {
		publisher = events.NewPublisher(queue, cfg.Queue.Channel)
	} else {
		logger.Info("event publishing disabled")
	}

	svc := Services{
		Users:     services.NewUserService(store.NewUserRepository(dbConn), images, logger),
		Pets:      services.NewPetService(store.NewPetRepository(dbConn), images, logger),
		Adoptions: services.NewAdoptionService(store.NewAdoptionRepository(dbConn), publisher, logger),
		Favorites: services.NewFavoriteService(store.NewFavoriteRepository(dbConn)),
		Messages:  services.NewMessageService(store.NewMessageRepository(dbConn), publisher, logger),
		Stats:     services.NewStatsService(store.NewStatsRepository(dbConn)),
	}

	router := NewRouter(cfg, svc, logger, dbConn)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		db:         dbConn,
		queue:      queue,
	}, nil
}

// NewRouter mounts every route on a fresh chi router. health may be nil.
func NewRouter(cfg config.Config, svc Services, logger *slog.Logger, health handlers.Pinger) *chi.Mux {
	auth := handlers.NewAuthHandler(svc.Users, cfg.JWTSecret, cfg.TokenTTL, logger)
	limiter := handlers.NewRateLimiter(cfg.RateLimit.MessageRPS, cfg.RateLimit.MessageBurst)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logging.Middleware(logger),
		metrics.Middleware,
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.Timeout(60*time.Second),
	)

	router.Get("/healthz", handlers.Healthz(health))
	router.Handle("/metrics", metrics.Handler())

	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, auth)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, svc.Users, auth, logger)
	})
	router.Route("/pets", func(r chi.Router) {
		handlers.PetRouter(r, svc.Pets, auth, logger)
	})
	router.Route("/adoptions", func(r chi.Router) {
		handlers.AdoptionRouter(r, svc.Adoptions, auth, logger)
	})
	router.Route("/favorites", func(r chi.Router) {
		handlers.FavoriteRouter(r, svc.Favorites, auth, logger)
	})
	router.Route("/message", func(r chi.Router) {
		handlers.MessageRouter(r, svc.Messages, auth, limiter, logger)
	})
	router.Route("/admin", func(r chi.Router) {
		handlers.AdminRouter(r, svc.Stats, auth, logger)
	})

	return router
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the broker and database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.queue != nil {
		err = errors.Join(err, s.queue.Close())
	}
	if s.db != nil {
		err = errors.Join(err, s.db.Close())
	}
	return err
}
