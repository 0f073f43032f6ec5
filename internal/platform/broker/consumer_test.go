package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"pharmadash/internal/modules/datamanager/domain"
)

type scriptedReader struct {
	messages []kafka.Message
	errs     []error
	cancel   context.CancelFunc
	closed   bool
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return kafka.Message{}, err
	}
	if len(r.messages) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.messages[0]
	r.messages = r.messages[1:]
	return m, nil
}

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

func TestDecodeMessage_JSONEvent(t *testing.T) {
	t.Parallel()

	msg := decodeMessage(kafka.Message{
		Topic: "pharma.products.events",
		Value: []byte(`{"entity":"products","action":"updated","resourceId":42,"metadata":{"branch":7},"timestamp":"2024-05-01T10:00:00Z","data":{"id":42}}`),
	})
	if msg.Topic != "pharma.products.events" {
		t.Fatalf("expected kafka topic kept for dispatch, got %s", msg.Topic)
	}
	if msg.Entity != "products" || msg.Action != "updated" || msg.ResourceID != "42" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.Metadata["branch"] != "7" {
		t.Fatalf("expected metadata stringified, got %v", msg.Metadata)
	}
	if !msg.Timestamp.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %v", msg.Timestamp)
	}
}

func TestDecodeMessage_FallsBackToTopicName(t *testing.T) {
	t.Parallel()

	msg := decodeMessage(kafka.Message{Topic: "pharma.branches.deleted", Value: []byte("not json")})
	if msg.Entity != "branches" || msg.Action != "deleted" {
		t.Fatalf("expected entity and action from topic, got %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}

	msg = decodeMessage(kafka.Message{Topic: "pharma.offers", Value: []byte(`{"resourceId":"9"}`)})
	if msg.Entity != "offers" || msg.Action != "unknown" {
		t.Fatalf("expected defaults from topic, got %+v", msg)
	}
}

func TestKafkaConsumer_ConsumeUntilCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &scriptedReader{
		errs:   []error{errors.New("leader not available")},
		cancel: cancel,
		messages: []kafka.Message{
			{Topic: "pharma.products", Value: []byte(`{"entity":"products","action":"created"}`)},
			{Topic: "pharma.products", Value: []byte(`{"entity":"products","action":"deleted"}`)},
		},
	}
	consumer := NewKafkaConsumer([]string{"localhost:9092"}, "dashboard")
	consumer.backoff = time.Millisecond
	consumer.newReader = func(topic string) messageReader { return reader }

	var actions []string
	err := consumer.Consume(ctx, "pharma.products", func(msg *domain.Message) error {
		actions = append(actions, msg.Action)
		return errors.New("handler errors are logged, not fatal")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(actions) != 2 || actions[0] != "created" || actions[1] != "deleted" {
		t.Fatalf("unexpected actions %v", actions)
	}
	if !reader.closed {
		t.Fatal("expected reader to be closed")
	}
}
