// Package kafka contains the outbound Kafka adapters: the event publisher
// behind the queue port and the best-effort restaurant notifier.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"grubdash/internal/core/ports"
)

// dedupHeader carries the deduplication token. Kafka has no native producer
// dedup window, so the token travels as a header for consumers and tooling
// that collapse duplicates downstream.
const dedupHeader = "dedup-key"

// Publisher implements ports.EventPublisher over a shared kafka.Writer. The
// group key becomes the message key; the hash balancer then keeps every
// message for one key on one partition, which is the ordering guarantee the
// processors rely on.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher writing to the given brokers. The topic
// is chosen per message.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish sends one message and waits for broker acknowledgment.
func (p *Publisher) Publish(ctx context.Context, message ports.OutboundMessage) error {
	kafkaMessage := kafka.Message{
		Topic: message.Queue,
		Key:   []byte(message.GroupKey),
		Value: message.Body,
	}
	if message.DedupKey != "" {
		kafkaMessage.Headers = []kafka.Header{
			{Key: dedupHeader, Value: []byte(message.DedupKey)},
		}
	}

	if err := p.writer.WriteMessages(ctx, kafkaMessage); err != nil {
		return fmt.Errorf("publish to %s: %w", message.Queue, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
