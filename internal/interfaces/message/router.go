package message

import (
	"errors"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"transit/internal/interfaces/message/events"
)

const PoisonQueueTopic = "transit.poison-queue"

func NewRouter(
	watermillLogger watermill.LoggerAdapter,
	poisonPublisher message.Publisher,
	eventProcessorConfig cqrs.EventProcessorConfig,
	handlers []cqrs.EventHandler,
) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, err
	}

	if err := initMiddlewares(watermillLogger, router, poisonPublisher); err != nil {
		return nil, err
	}

	eventProcessor, err := cqrs.NewEventProcessorWithConfig(router, eventProcessorConfig)
	if err != nil {
		return nil, err
	}

	if err := eventProcessor.AddHandlers(handlers...); err != nil {
		return nil, err
	}

	return router, nil
}

func initMiddlewares(
	watermillLogger watermill.LoggerAdapter,
	router *message.Router,
	poisonPublisher message.Publisher,
) error {
	poisonQueue, err := middleware.PoisonQueue(poisonPublisher, PoisonQueueTopic)
	if err != nil {
		return err
	}

	malformedToPoisonQueue, err := middleware.PoisonQueueWithFilter(
		poisonPublisher,
		PoisonQueueTopic,
		func(err error) bool {
			return errors.Is(err, events.ErrJsonUnmarshal)
		},
	)
	if err != nil {
		return err
	}

	router.AddMiddleware(events.TracingMiddleware)
	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(events.CorrelationIDMiddleware)
	router.AddMiddleware(events.LoggingMiddleware)

	// messages still failing after retries
	router.AddMiddleware(poisonQueue)

	router.AddMiddleware(middleware.Retry{
		MaxRetries:      10,
		InitialInterval: time.Millisecond * 100,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          watermillLogger,
	}.Middleware)

	// malformed messages are not retried
	router.AddMiddleware(malformedToPoisonQueue)
	router.AddMiddleware(events.MetricsMiddleware)

	return nil
}
