package discovery

import (
	"fmt"
	"net"
	"os"

	"github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
)

type ServiceConfig struct {
	Name string
	ID   string
	Port int
	Tags []string
}

type ConsulClient struct {
	client *api.Client
	logger zerolog.Logger
}

func NewConsulClient(addr string, logger zerolog.Logger) (*ConsulClient, error) {
	config := api.DefaultConfig()
	config.Address = addr

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	return &ConsulClient{
		client: client,
		logger: logger,
	}, nil
}

// Register announces the service with an HTTP health check on /health.
func (c *ConsulClient) Register(cfg ServiceConfig) error {
	host := advertisedHost()

	registration := &api.AgentServiceRegistration{
		ID:      cfg.ID,
		Name:    cfg.Name,
		Port:    cfg.Port,
		Address: host,
		Tags:    cfg.Tags,
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", host, cfg.Port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := c.client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	c.logger.Info().
		Str("service", cfg.Name).
		Str("id", cfg.ID).
		Str("address", fmt.Sprintf("%s:%d", host, cfg.Port)).
		Msg("registered in consul")
	return nil
}

func (c *ConsulClient) Deregister(serviceID string) error {
	if err := c.client.Agent().ServiceDeregister(serviceID); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}

	c.logger.Info().Str("id", serviceID).Msg("deregistered from consul")
	return nil
}

func advertisedHost() string {
	if host, err := os.Hostname(); err == nil {
		if addrs, err := net.LookupHost(host); err == nil && len(addrs) > 0 {
			return addrs[0]
		}
	}
	return "127.0.0.1"
}
