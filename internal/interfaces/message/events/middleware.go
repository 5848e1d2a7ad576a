package events

import (
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const CorrelationIDMetadataKey = "correlation_id"

// sagaKeys are the identifiers shared by the saga events, pulled out for log fields.
type sagaKeys struct {
	Header struct {
		IdempotencyKey string `json:"idempotency_key"`
	} `json:"header"`
	PurchaseID *uuid.UUID `json:"purchase_id"`
	TripID     *int64     `json:"trip_id"`
	TripIDs    []int64    `json:"trip_ids"`
}

func eventName(msg *message.Message) string {
	if name := Marshaler.NameFromMessage(msg); name != "" {
		return name
	}
	return "unknown"
}

func messageFields(msg *message.Message) logrus.Fields {
	fields := logrus.Fields{
		"event":   eventName(msg),
		"handler": message.HandlerNameFromCtx(msg.Context()),
	}

	var keys sagaKeys
	if err := json.Unmarshal(msg.Payload, &keys); err != nil {
		return fields
	}
	if keys.Header.IdempotencyKey != "" {
		fields["idempotency_key"] = keys.Header.IdempotencyKey
	}
	if keys.PurchaseID != nil {
		fields["purchase_id"] = keys.PurchaseID.String()
	}
	if keys.TripID != nil {
		fields["trip_id"] = *keys.TripID
	}
	if len(keys.TripIDs) > 0 {
		fields["trip_ids"] = keys.TripIDs
	}

	return fields
}

// CorrelationIDMiddleware puts a logger carrying the correlation id and the saga keys of the
// event into the message context. A message without a correlation id gets a fresh one.
func CorrelationIDMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		correlationID := msg.Metadata.Get(CorrelationIDMetadataKey)
		if correlationID == "" {
			correlationID = uuid.New().String()
			msg.Metadata.Set(CorrelationIDMetadataKey, correlationID)
		}

		ctx := log.ContextWithCorrelationID(msg.Context(), correlationID)

		fields := messageFields(msg)
		fields["correlation_id"] = correlationID
		fields["message_uuid"] = msg.UUID
		ctx = log.ToContext(ctx, logrus.WithFields(fields))

		msg.SetContext(ctx)

		return next(msg)
	}
}

func LoggingMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		logger := log.FromContext(msg.Context())

		logger.Info("Handling event")
		logger.WithField("payload", string(msg.Payload)).Debug("Event payload")

		start := time.Now()
		msgs, err := next(msg)

		if err != nil {
			logger.
				WithField("payload", string(msg.Payload)).
				WithField("duration", time.Since(start)).
				WithError(err).
				Error("Event handling failed")
			return msgs, err
		}

		logger.WithField("duration", time.Since(start)).Debug("Event handled")

		return msgs, nil
	}
}

func TracingMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx := otel.GetTextMapPropagator().Extract(msg.Context(), propagation.MapCarrier(msg.Metadata))

		ctx, span := otel.Tracer("transit").Start(
			ctx,
			message.HandlerNameFromCtx(msg.Context()),
			trace.WithAttributes(
				attribute.String("messaging.message_id", msg.UUID),
				attribute.String("messaging.destination", message.SubscribeTopicFromCtx(msg.Context())),
				attribute.String("transit.event", eventName(msg)),
			),
		)
		defer span.End()

		msg.SetContext(ctx)

		msgs, err := next(msg)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		return msgs, err
	}
}

var (
	eventsHandledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transit_events_handled_total",
		Help: "Saga events handled, by event, handler and outcome",
	}, []string{"event", "handler", "result"})

	eventHandlingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transit_event_handling_duration_seconds",
		Help:    "Time spent handling a saga event",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"event", "handler"})
)

// MetricsMiddleware counts every delivery attempt. A retried event is counted once per attempt.
func MetricsMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		event := eventName(msg)
		handler := message.HandlerNameFromCtx(msg.Context())

		start := time.Now()
		msgs, err := next(msg)
		eventHandlingDuration.WithLabelValues(event, handler).Observe(time.Since(start).Seconds())

		result := "ok"
		if err != nil {
			result = "error"
		}
		eventsHandledTotal.WithLabelValues(event, handler, result).Inc()

		return msgs, err
	}
}
