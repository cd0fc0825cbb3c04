package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/orgpulse/apiserver/config"
	"github.com/orgpulse/apiserver/internal/db"
	"github.com/orgpulse/apiserver/internal/handlers"
	"github.com/orgpulse/apiserver/internal/notify"
	"github.com/orgpulse/apiserver/internal/services"
	"github.com/orgpulse/apiserver/internal/storage"
	"github.com/orgpulse/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	mailer     *notify.Mailer
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	secret := strings.TrimSpace(cfg.Auth.Secret)
	if secret == "" {
		return nil, errors.New("AUTH_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mailer, err := newMailer(ctx, cfg.Notify)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	teamRepo := store.NewTeamRepository(dbConn)
	metricRepo := store.NewMetricRepository(dbConn)
	recordRepo := store.NewRecordRepository(dbConn)
	revokedRepo := store.NewRevokedTokenRepository(dbConn)

	tokenService := services.NewTokenService(secret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, userRepo, revokedRepo)
	activationTokens := services.NewActivationTokenGenerator(secret, cfg.Auth.ActivationTTL)
	registrationService := services.NewRegistrationService(
		userRepo,
		activationTokens,
		services.NewDefaultPasswordPolicy(),
		mailer,
		cfg.Frontend,
	)
	userService := services.NewUserService(userRepo)
	teamService := services.NewTeamService(teamRepo)
	metricService := services.NewMetricService(metricRepo)
	recordService := services.NewRecordService(recordRepo)
	summaryService := services.NewSummaryService(recordRepo)

	exportService, err := newExportService(ctx, cfg.Storage, summaryService)
	if err != nil {
		_ = mailer.Close()
		_ = dbConn.Close()
		return nil, err
	}

	authMiddleware := handlers.NewAuthMiddleware(tokenService)
	authHandler := handlers.NewAuthHandler(registrationService, userService, tokenService, cfg.Auth.CookieSecure)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler, authMiddleware)
	})
	router.Route("/teams", func(r chi.Router) {
		handlers.TeamRouter(r, teamService, authMiddleware)
	})
	router.Route("/metrics", func(r chi.Router) {
		handlers.MetricRouter(r, metricService, authMiddleware)
	})
	router.Route("/records", func(r chi.Router) {
		handlers.RecordRouter(r, recordService, authMiddleware)
	})
	router.Route("/summary", func(r chi.Router) {
		handlers.SummaryRouter(r, summaryService, exportService, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		mailer:     mailer,
	}, nil
}

// newMailer selects the mail dispatch backend from config.
func newMailer(ctx context.Context, cfg config.NotifyConfig) (*notify.Mailer, error) {
	var backend notify.Backend
	var err error

	switch cfg.Backend {
	case "rabbitmq":
		backend, err = notify.NewRabbitMQBackend(cfg.RabbitMQ)
	case "pubsub":
		backend, err = notify.NewPubSubBackend(ctx, cfg.PubSub)
	case "log", "":
		backend = notify.NewLogBackend()
	default:
		return nil, fmt.Errorf("unknown notify backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return notify.NewMailer(backend, cfg.Channel), nil
}

// newExportService selects the object storage backend from config. An
// empty backend disables summary exports and returns nil.
func newExportService(ctx context.Context, cfg config.StorageConfig, summaries *services.SummaryService) (*services.ExportService, error) {
	var objectStore storage.ObjectStorage
	var err error

	switch cfg.Backend {
	case "minio":
		objectStore, err = storage.NewMinioClient(cfg.Minio)
	case "gcs":
		objectStore, err = storage.NewGCSClient(ctx, cfg.GCS)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return services.NewExportService(summaries, storage.NewStorage(objectStore)), nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.mailer != nil {
		_ = s.mailer.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
