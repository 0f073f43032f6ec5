package broker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"pharmadash/internal/modules/datamanager/application/port"
	"pharmadash/internal/modules/datamanager/domain"
	"pharmadash/internal/shared/normalization"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer reads backend change events. One reader is opened per consumed topic.
type KafkaConsumer struct {
	brokers   []string
	groupID   string
	newReader func(topic string) messageReader
	backoff   time.Duration
}

func NewKafkaConsumer(brokers []string, groupID string) *KafkaConsumer {
	consumer := &KafkaConsumer{brokers: brokers, groupID: groupID, backoff: time.Second}
	consumer.newReader = func(topic string) messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers: consumer.brokers,
			GroupID: consumer.groupID,
			Topic:   topic,
		})
	}
	return consumer
}

// Consume blocks until ctx is done, handing every decoded event to handler.
func (c *KafkaConsumer) Consume(ctx context.Context, topic string, handler func(*domain.Message) error) error {
	reader := c.newReader(topic)
	defer func() {
		if err := reader.Close(); err != nil {
			slog.Warn("kafka reader close error", slog.String("topic", topic), slog.Any("error", err))
		}
	}()

	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			slog.Warn("kafka read error", slog.String("topic", topic), slog.Any("error", err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff):
			}
			continue
		}
		msg := decodeMessage(m)
		slog.Info("kafka message consumed",
			slog.String("topic", m.Topic),
			slog.Int("partition", m.Partition),
			slog.Int64("offset", m.Offset),
			slog.String("entity", msg.Entity),
			slog.String("action", msg.Action),
			slog.String("resourceId", msg.ResourceID),
		)
		if err := handler(msg); err != nil {
			slog.Warn("kafka handler error", slog.String("topic", m.Topic), slog.Any("error", err))
		}
	}
}

// decodeMessage turns a change event into a Message whose Topic is the Kafka topic it came from.
// Bodies that are not JSON objects fall back to entity and action inferred from the topic name.
func decodeMessage(m kafka.Message) *domain.Message {
	msg := &domain.Message{Topic: m.Topic, Timestamp: m.Time.UTC()}
	if m.Time.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	var event map[string]any
	if err := json.Unmarshal(m.Value, &event); err != nil || event == nil {
		msg.Entity, msg.Action = inferEntityActionFromTopic(m.Topic)
		msg.Data = string(m.Value)
		return msg
	}

	msg.Entity = firstNonEmpty(normalization.AsString(event["entity"]), normalizeTopic(m.Topic))
	msg.Action = firstNonEmpty(normalization.AsString(event["action"]), "unknown")
	msg.ResourceID = firstNonEmpty(scalarText(event["resourceId"]), scalarText(event["id"]))
	msg.Data = event["data"]
	if raw, ok := event["metadata"].(map[string]any); ok {
		msg.Metadata = make(map[string]string, len(raw))
		for key, value := range raw {
			msg.Metadata[key] = scalarText(value)
		}
	}
	if stamp := normalization.AsString(event["timestamp"]); stamp != "" {
		if parsed, err := time.Parse(time.RFC3339, stamp); err == nil {
			msg.Timestamp = parsed.UTC()
		}
	}
	return msg
}

func scalarText(value any) string {
	text, _ := normalization.Stringify(value)
	return text
}

func inferEntityActionFromTopic(topic string) (string, string) {
	parts := strings.Split(topic, ".")
	if len(parts) >= 2 {
		entity := strings.TrimSpace(parts[len(parts)-2])
		action := strings.TrimSpace(parts[len(parts)-1])
		if entity != "" && action != "" {
			return entity, action
		}
	}
	if entity := normalizeTopic(topic); entity != "" {
		return entity, "unknown"
	}
	return "", "unknown"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func normalizeTopic(topic string) string {
	if idx := strings.LastIndex(topic, "."); idx >= 0 {
		topic = topic[idx+1:]
	}
	return strings.TrimSpace(topic)
}

var _ port.PubSubPort = (*KafkaConsumer)(nil)
