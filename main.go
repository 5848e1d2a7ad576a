package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"transit/internal/app"
	"transit/internal/config"
	"transit/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.Init(level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	traceProvider, err := observability.ConfigureTraceProvider(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = traceProvider.Shutdown(context.Background())
	}()

	db, err := sqlx.Open("postgres", cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer redisClient.Close()

	watermillLogger := log.NewWatermill(logrus.NewEntry(logrus.StandardLogger()))

	a, err := app.NewApp(cfg, watermillLogger, db, redisClient)
	if err != nil {
		panic(err)
	}

	if err := a.Run(ctx); err != nil {
		panic(err)
	}
}
