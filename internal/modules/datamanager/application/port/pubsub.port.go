package port

import (
	"context"

	"pharmadash/internal/modules/datamanager/domain"
)

// PubSubPort consumes backend change events.
type PubSubPort interface {
	Consume(ctx context.Context, topic string, handler func(*domain.Message) error) error
}

// Broadcaster pushes messages to connected dashboard sessions.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg *domain.Message)
}

// TopicHandler is implemented by the handlers registered per change-event topic.
type TopicHandler interface {
	Topic() string
	Handle(ctx context.Context, msg *domain.Message) error
}
