package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"todoservice/internal/config"
	"todoservice/internal/handler"
	"todoservice/internal/httpserver"
	"todoservice/internal/repository"
	"todoservice/internal/repository/memory"
	"todoservice/internal/service"
	"todoservice/pkg/db"
	"todoservice/pkg/logger"
	"todoservice/pkg/mq"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting todo API...",
		zap.String("storage", cfg.Storage),
		zap.String("port", cfg.Server.Port),
	)

	// Storage
	var store repository.Store
	var pool *pgxpool.Pool
	switch cfg.Storage {
	case "memory":
		log.Info("Using in-memory storage")
		store = memory.New()
	default:
		dbConn, err := db.NewConnection(cfg.DB, log)
		if err != nil {
			log.Fatal("Failed to init DB", zap.Error(err))
		}
		defer dbConn.Close()
		pool = dbConn

		repo := repository.NewTodoRepository(dbConn, log)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := repo.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatal("Failed to ensure schema", zap.Error(err))
		}
		cancel()
		store = repo
	}

	// MQ publisher, optional: the API runs without a broker, events are
	// simply not emitted.
	var publisher *mq.Publisher
	if cfg.MQ.URL != "" {
		p, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Warn("MQ publisher unavailable, events disabled", zap.Error(err))
		} else {
			publisher = p
			defer publisher.Close()
			log.Info("MQ publisher initialized")
		}
	}

	// Services
	var pub service.Publisher
	if publisher != nil {
		pub = publisher
	}
	todoService := service.NewTodoService(store, pub, log)
	analyticsService := service.NewAnalyticsService(store, cfg.Analytics.DailyActivityDays)
	authService := service.NewAuthService(cfg.JWT.Secret)

	// Handlers
	todoHandler := handler.NewTodoHandler(todoService, log)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService, log)
	authHandler := handler.NewAuthHandler(authService, log)

	router := httpserver.NewRouter(todoHandler, analyticsHandler, authHandler, log, pool, publisher)

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down todo API gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("Todo API shutdown complete")
}
