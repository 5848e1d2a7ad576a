package outbox

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"

	"transit/internal/infrastructure/event_publisher"
	"transit/internal/observability"
)

// ForwarderTopic is the SQL table-backed topic holding messages waiting to be forwarded.
const ForwarderTopic = "transit_outbox"

// NewPublisher stores messages in the outbox within tx.
func NewPublisher(
	tx watermillSQL.ContextExecutor,
	logger watermill.LoggerAdapter,
) (message.Publisher, error) {
	publisher, err := watermillSQL.NewPublisher(
		tx,
		watermillSQL.PublisherConfig{
			SchemaAdapter: watermillSQL.DefaultPostgreSQLSchema{},
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	var pub message.Publisher = forwarder.NewPublisher(publisher, forwarder.PublisherConfig{
		ForwarderTopic: ForwarderTopic,
	})

	// metadata must be set before the message is wrapped into the forwarder envelope
	pub = observability.PublisherWithTracing{Publisher: pub}
	pub = event_publisher.CorrelationPublisherDecorator{Publisher: pub}

	return pub, nil
}
