package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/publica-app/publica/pkg/log"
)

// KafkaPublisher implements Publisher on a kafka-go writer.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
	return &KafkaPublisher{writer: writer}
}

// Publish writes the event keyed by post ID so events for one post stay
// ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event *Event) error {
	l := log.Ctx(ctx)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.PostID),
		Value: data,
	})
	if err != nil {
		l.Error().Err(err).Str("event_type", event.Type).Msg("failed to publish event to kafka")
		return err
	}

	l.Debug().Str("event_type", event.Type).Str("post_id", event.PostID).Msg("event published")
	return nil
}

// Close closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Ensure interface is satisfied at compile time.
var _ Publisher = (*KafkaPublisher)(nil)
