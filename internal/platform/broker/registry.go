package broker

import (
	"context"
	"log/slog"

	"pharmadash/internal/modules/datamanager/application/port"
	"pharmadash/internal/modules/datamanager/domain"
	"pharmadash/internal/modules/datamanager/infrastructure"
)

// StartKafkaConsumers runs one consumer goroutine per registered topic until ctx is done.
func StartKafkaConsumers(ctx context.Context, registry *infrastructure.HandlerRegistry, consumer port.PubSubPort, enabled bool) {
	if !enabled || consumer == nil {
		slog.Info("kafka consumers disabled")
		return
	}
	for _, topic := range registry.Topics() {
		go func(tp string) {
			err := consumer.Consume(ctx, tp, func(msg *domain.Message) error {
				return registry.Dispatch(ctx, msg)
			})
			slog.Info("kafka consumer stopped", slog.String("topic", tp), slog.Any("error", err))
		}(topic)
	}
}
