package event_publisher

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v2/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	amqp091 "github.com/rabbitmq/amqp091-go"
)

// AMQPConfig is a durable fanout exchange per topic with one durable queue per consumer group.
func AMQPConfig(url, connectionName, consumerGroup string) amqp.Config {
	cfg := amqp.NewDurablePubSubConfig(url, amqp.GenerateQueueNameTopicNameWithSuffix(consumerGroup))
	cfg.Connection.AmqpConfig = &amqp091.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Properties: amqp091.Table{
			"connection_name": connectionName,
		},
	}
	return cfg
}

func newAMQPBroker(url, name string, logger watermill.LoggerAdapter) (*Broker, error) {
	publisher, err := amqp.NewPublisher(AMQPConfig(url, name, ""), logger)
	if err != nil {
		return nil, err
	}

	return &Broker{
		Publisher: publisher,
		NewSubscriber: func(consumerGroup string) (message.Subscriber, error) {
			return amqp.NewSubscriber(AMQPConfig(url, name, consumerGroup), logger)
		},
	}, nil
}
