// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agroreach/storefront/internal/config"
	"github.com/agroreach/storefront/internal/domain/product"
	"github.com/agroreach/storefront/internal/infrastructure/database/postgres"
	"github.com/agroreach/storefront/internal/infrastructure/database/redis"
	"github.com/agroreach/storefront/internal/interfaces/http"
	"github.com/agroreach/storefront/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(config.LoggingConfig{Level: "info", Format: "json"}).
			WithError(err).Fatal("failed to load configuration")
	}

	log := logger.New(cfg.Logging)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	log.WithField("version", cfg.App.Version).
		WithField("environment", cfg.App.Environment).
		Infof("starting %s", cfg.App.Name)

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()

	if err := db.Health(); err != nil {
		log.WithError(err).Fatal("database health check failed")
	}
	if err := redisClient.Health(); err != nil {
		log.WithError(err).Fatal("redis health check failed")
	}

	migration := postgres.NewMigration(db.GetDB(), log)
	if err := migration.RunAutoMigrations(); err != nil {
		log.WithError(err).Fatal("database migration failed")
	}
	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("index creation failed")
	}

	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(context.Background(), product.NewService(db.GetDB(), cfg)); err != nil {
			log.WithError(err).Warn("data seeding failed")
		}
	}

	server := http.NewServer(cfg, db.GetDB(), redisClient.GetClient(), log)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}

	log.Info("server shutdown completed")
}
