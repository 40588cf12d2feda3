package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-desk-api/internal/config"
	"github.com/jwalitptl/clinic-desk-api/internal/email"
	"github.com/jwalitptl/clinic-desk-api/internal/handler"
	authHandler "github.com/jwalitptl/clinic-desk-api/internal/handler/auth"
	visitHandler "github.com/jwalitptl/clinic-desk-api/internal/handler/visit"
	"github.com/jwalitptl/clinic-desk-api/internal/middleware"
	"github.com/jwalitptl/clinic-desk-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-desk-api/internal/router"
	authService "github.com/jwalitptl/clinic-desk-api/internal/service/auth"
	billingService "github.com/jwalitptl/clinic-desk-api/internal/service/billing"
	visitService "github.com/jwalitptl/clinic-desk-api/internal/service/visit"
	"github.com/jwalitptl/clinic-desk-api/pkg/auth"
	"github.com/jwalitptl/clinic-desk-api/pkg/logger"
	redisBroker "github.com/jwalitptl/clinic-desk-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-desk-api/pkg/metrics"
	"github.com/jwalitptl/clinic-desk-api/pkg/security"
	"github.com/jwalitptl/clinic-desk-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	visitRepo := postgres.NewVisitRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Shared infrastructure
	appMetrics := metrics.NewMetrics("clinicdesk", "api")
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour, cfg.JWT.Issuer)
	hasher := security.NewBcryptHasher(12)

	var emailSvc email.Service = email.NoopService{}
	if cfg.Email.Enabled {
		emailSvc = email.NewService(email.Config{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		})
	}

	// Services
	authSvc := authService.NewService(userRepo, jwtSvc, hasher, emailSvc, appLogger)
	visitSvc := visitService.NewService(visitRepo, appMetrics, appLogger)
	billingSvc := billingService.NewService(visitRepo, appMetrics, appLogger)

	// Handlers
	guard := middleware.NewAuthMiddleware(authSvc)
	authH := authHandler.NewHandler(authSvc)
	visitH := visitHandler.NewHandler(visitSvc, billingSvc, outboxRepo)
	healthH := handler.NewHealthHandler(db)

	r := router.NewRouter(guard, authH, visitH, healthH, router.Config{
		RateLimit:  rate.Limit(cfg.Server.RateLimit),
		RateBurst:  cfg.Server.RateBurst,
		CORSConfig: middleware.DefaultCORSConfig(),
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Outbox processor fans visit mutations out to the redis broker.
	zl := log.Logger
	broker, err := redisBroker.NewRedisBroker(redisBroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &zl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	outboxProcessor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.DefaultOutboxProcessorConfig(),
		appLogger,
		appMetrics,
	)
	go outboxProcessor.Start(ctx)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("clinic desk API listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
