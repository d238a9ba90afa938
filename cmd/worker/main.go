package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"todoservice/internal/config"
	"todoservice/internal/mqhandler"
	"todoservice/internal/repository"
	"todoservice/pkg/db"
	"todoservice/pkg/logger"
	"todoservice/pkg/mq"
	redisclient "todoservice/pkg/redis"
	"todoservice/pkg/util"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting recurrence worker...",
		zap.String("mq_url", cfg.MQ.URL),
		zap.String("redis_addr", cfg.Redis.Addr),
	)

	// Redis-backed dedup so a redelivered completion event regenerates
	// at most one occurrence.
	rdb := redisclient.NewRedisClient(cfg.Redis)
	defer rdb.Close()
	deduper := util.NewDeduper(rdb, time.Hour)

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	todoRepo := repository.NewTodoRepository(dbConn, log)
	completedHandler := mqhandler.NewTodoCompletedHandler(todoRepo, deduper, log)

	log.Info("Initializing MQ consumer for todo.completed",
		zap.String("queue", "todo.completed.q"),
	)
	consumer, err := mq.NewConsumer(cfg.MQ.URL, "todo.completed.q", "todo.completed", log)
	if err != nil {
		log.Fatal("Failed to init consumer", zap.Error(err))
	}
	defer consumer.Close()

	consumer.SetHandler(completedHandler.Handle)

	go func() {
		log.Info("Starting todo.completed consumer...")
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("Consumer failed", zap.Error(err))
		}
	}()

	log.Info("Recurrence worker is running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down recurrence worker...")
}
