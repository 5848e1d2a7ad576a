package events

import (
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"

	"transit/internal/entities"
)

var ErrJsonUnmarshal = errors.New("json unmarshal error")

type jsonMarshaler struct {
	cqrs.JSONMarshaler
}

func (m jsonMarshaler) Unmarshal(msg *message.Message, v interface{}) error {
	if err := m.JSONMarshaler.Unmarshal(msg, v); err != nil {
		return fmt.Errorf("%w: %w", ErrJsonUnmarshal, err)
	}
	return nil
}

var Marshaler cqrs.CommandEventMarshaler = jsonMarshaler{
	JSONMarshaler: cqrs.JSONMarshaler{
		GenerateName: cqrs.StructName,
	},
}

// SubscriberConstructor creates a subscriber reading in the given consumer group.
type SubscriberConstructor func(consumerGroup string) (message.Subscriber, error)

func NewEventProcessorConfig(
	newSubscriber SubscriberConstructor,
	watermillLogger watermill.LoggerAdapter,
) cqrs.EventProcessorConfig {
	return cqrs.EventProcessorConfig{
		GenerateSubscribeTopic: func(params cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
			handlerEvent := params.EventHandler.NewEvent()
			event, ok := handlerEvent.(entities.Event)
			if !ok {
				return "", fmt.Errorf("invalid event type: %T doesn't implement entities.Event", handlerEvent)
			}

			return entities.Topic(event), nil
		},
		SubscriberConstructor: func(params cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return newSubscriber(ConsumerGroup(params.HandlerName))
		},
		Marshaler: Marshaler,
		Logger:    watermillLogger,
	}
}

// ConsumerGroup gives every handler its own group, so each one sees every event.
func ConsumerGroup(handlerName string) string {
	return "svc-" + handlerName
}
