package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit/internal/config"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"HTTP_ADDR", "POSTGRES_URL", "REDIS_ADDR", "BROKER", "AMQP_URL", "SERVICES",
		"PURCHASE_TIMEOUT", "SWEEP_INTERVAL", "OUTBOX_POLL_INTERVAL", "RELEASE_CLAMP_TO_CAPACITY",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "CONSUL_ADDR", "SERVICE_NAME", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_URL", "postgres://localhost/transit")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "redis", cfg.Broker)
	assert.Equal(t, []string{config.ServiceRoute, config.ServiceTickets}, cfg.Services)
	assert.Equal(t, 2*time.Minute, cfg.PurchaseTimeout)
	assert.False(t, cfg.ReleaseClampToCapacity)
	assert.True(t, cfg.Runs(config.ServiceRoute))
	assert.True(t, cfg.Runs(config.ServiceTickets))
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_URL", "postgres://localhost/transit")
	t.Setenv("SERVICES", " tickets ")
	t.Setenv("BROKER", "amqp")
	t.Setenv("PURCHASE_TIMEOUT", "30s")
	t.Setenv("RELEASE_CLAMP_TO_CAPACITY", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{config.ServiceTickets}, cfg.Services)
	assert.False(t, cfg.Runs(config.ServiceRoute))
	assert.Equal(t, "amqp", cfg.Broker)
	assert.Equal(t, 30*time.Second, cfg.PurchaseTimeout)
	assert.True(t, cfg.ReleaseClampToCapacity)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing postgres", env: map[string]string{}},
		{name: "unknown service", env: map[string]string{"POSTGRES_URL": "x", "SERVICES": "route,billing"}},
		{name: "bad duration", env: map[string]string{"POSTGRES_URL": "x", "PURCHASE_TIMEOUT": "soon"}},
		{name: "bad bool", env: map[string]string{"POSTGRES_URL": "x", "RELEASE_CLAMP_TO_CAPACITY": "maybe"}},
		{name: "zero interval", env: map[string]string{"POSTGRES_URL": "x", "SWEEP_INTERVAL": "0s"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
