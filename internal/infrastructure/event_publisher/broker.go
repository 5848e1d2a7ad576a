package event_publisher

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
)

const (
	BrokerRedis = "redis"
	BrokerAMQP  = "amqp"
)

type BrokerConfig struct {
	Kind    string
	AMQPURL string
	Name    string
}

// Broker is the transport shared by both services: a publisher and per consumer group subscribers.
type Broker struct {
	Publisher     message.Publisher
	NewSubscriber func(consumerGroup string) (message.Subscriber, error)
}

func NewBroker(cfg BrokerConfig, rdb redis.UniversalClient, logger watermill.LoggerAdapter) (*Broker, error) {
	switch cfg.Kind {
	case BrokerRedis, "":
		if rdb == nil {
			return nil, fmt.Errorf("redis broker requires a redis client")
		}
		return newRedisBroker(rdb, logger)
	case BrokerAMQP:
		return newAMQPBroker(cfg.AMQPURL, cfg.Name, logger)
	default:
		return nil, fmt.Errorf("unknown broker %q", cfg.Kind)
	}
}
