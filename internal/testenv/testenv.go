// Package testenv provides Postgres and Redis for integration tests.
// With USE_LOCAL_ENV=true the instances from TEST_POSTGRES_URL and TEST_REDIS_ADDR are used,
// otherwise containers are started once per test binary and reaped by testcontainers.
package testenv

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type Config struct {
	UseLocalEnv bool
	PostgresURL string
	RedisAddr   string
	StartupTime time.Duration
}

func LoadConfig() Config {
	return Config{
		UseLocalEnv: os.Getenv("USE_LOCAL_ENV") == "true",
		PostgresURL: os.Getenv("TEST_POSTGRES_URL"),
		RedisAddr:   os.Getenv("TEST_REDIS_ADDR"),
		StartupTime: getDurationEnv("TEST_STARTUP_TIMEOUT", time.Minute),
	}
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

var (
	postgresOnce sync.Once
	postgresURL  string
	postgresErr  error

	redisOnce sync.Once
	redisAddr string
	redisErr  error
)

// SkipIfShort skips tests that need external services.
func SkipIfShort(t testing.TB) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test, skipped with -short")
	}
}

// Postgres returns a connection to an empty-schema database shared by the test binary.
func Postgres(t testing.TB) *sqlx.DB {
	t.Helper()
	SkipIfShort(t)

	postgresOnce.Do(func() {
		postgresURL, postgresErr = startPostgres(LoadConfig())
	})
	if postgresErr != nil {
		t.Fatalf("postgres setup failed: %v", postgresErr)
	}

	db, err := sqlx.Connect("postgres", postgresURL)
	if err != nil {
		t.Fatalf("postgres connect failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// RedisAddr returns the address of a Redis instance shared by the test binary.
func RedisAddr(t testing.TB) string {
	t.Helper()
	SkipIfShort(t)

	redisOnce.Do(func() {
		redisAddr, redisErr = startRedis(LoadConfig())
	})
	if redisErr != nil {
		t.Fatalf("redis setup failed: %v", redisErr)
	}

	return redisAddr
}

func startPostgres(cfg Config) (string, error) {
	if cfg.UseLocalEnv {
		if cfg.PostgresURL == "" {
			return "", fmt.Errorf("TEST_POSTGRES_URL is required when USE_LOCAL_ENV=true")
		}
		return cfg.PostgresURL, nil
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "transit",
			"POSTGRES_PASSWORD": "transit",
			"POSTGRES_DB":       "transit",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(cfg.StartupTime),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("postgres://transit:transit@%s:%s/transit?sslmode=disable", host, port.Port()), nil
}

func startRedis(cfg Config) (string, error) {
	if cfg.UseLocalEnv {
		if cfg.RedisAddr == "" {
			return "", fmt.Errorf("TEST_REDIS_ADDR is required when USE_LOCAL_ENV=true")
		}
		return cfg.RedisAddr, nil
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(cfg.StartupTime),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		return "", err
	}

	return host + ":" + port.Port(), nil
}
