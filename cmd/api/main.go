package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/events"
	"marketplace/internal/logger"
	"marketplace/internal/notify"
	"marketplace/internal/server"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	// In-flight requests get 30 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Flushes pending order events before the connections go away
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting marketplace API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Accounts live in Postgres
	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	db := dbService.DB()
	log.Info("Database health check", zap.Any("health", dbService.Health()))

	version, err := database.RunMigrations(db, "migrations", log)
	if err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := database.LogMigrationStatus("migrations", version, log); err != nil {
		log.Warn("Failed to report migration status", zap.Error(err))
	}

	// Catalog, carts, orders and reviews live in MongoDB
	ctx := context.Background()
	_, mongoDB, err := database.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := database.EnsureIndexes(ctx, mongoDB, log); err != nil {
		log.Fatal("Failed to create MongoDB indexes", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RateLimit.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			// The limiter fails open, so a missing Redis only disables throttling
			log.Warn("Redis unreachable, rate limiting will fail open", zap.Error(err))
		}
	}

	if !cfg.Mail.Configured() {
		log.Warn("SMTP not configured, checkout codes will be returned in API responses")
	}

	srv := server.NewServer(cfg, log, server.Deps{
		DB:        db,
		Mongo:     mongoDB,
		Redis:     redisClient,
		Publisher: events.NewPublisher(cfg.Kafka, log),
		Notifier:  notify.NewSMTPMailer(cfg.Mail, log),
	})

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
