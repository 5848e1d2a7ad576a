package event_publisher

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
)

func NewRedisPublisher(
	wlogger watermill.LoggerAdapter,
	redisClient redis.UniversalClient,
) (message.Publisher, error) {
	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: redisClient,
	}, wlogger)
	if err != nil {
		return nil, err
	}

	return publisher, err
}

func NewRedisSubscriber(
	wlogger watermill.LoggerAdapter,
	redisClient redis.UniversalClient,
	consumerGroup string,
) (message.Subscriber, error) {
	return redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        redisClient,
		ConsumerGroup: consumerGroup,
	}, wlogger)
}

func newRedisBroker(rdb redis.UniversalClient, logger watermill.LoggerAdapter) (*Broker, error) {
	publisher, err := NewRedisPublisher(logger, rdb)
	if err != nil {
		return nil, err
	}

	return &Broker{
		Publisher: publisher,
		NewSubscriber: func(consumerGroup string) (message.Subscriber, error) {
			return NewRedisSubscriber(logger, rdb, consumerGroup)
		},
	}, nil
}
