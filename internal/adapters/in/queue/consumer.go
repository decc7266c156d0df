package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	maxBatchSize = 10
	fillTimeout  = 200 * time.Millisecond
	retryBackoff = 2 * time.Second
)

// batchHandler is the Dispatcher contract the consumer drives.
type batchHandler interface {
	HandleBatch(ctx context.Context, bodies [][]byte) (int, error)
}

// Consumer pumps one Kafka topic into a Dispatcher. Offsets are committed
// manually for exactly the prefix of each batch the dispatcher reports as
// done, so a failed event is redelivered from its own offset onward.
type Consumer struct {
	reader     *kafka.Reader
	dispatcher batchHandler
	logger     *slog.Logger
}

// NewConsumer creates a consumer group reader over the given topic.
func NewConsumer(brokers []string, groupID, topic string, dispatcher batchHandler, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		StartOffset: kafka.FirstOffset,
	})

	return &Consumer{
		reader:     reader,
		dispatcher: dispatcher,
		logger:     logger.With("component", "queue.Consumer", "topic", topic),
	}
}

// Run consumes until ctx is cancelled. Fetch or dispatch errors are logged
// and retried with a backoff; the uncommitted offsets make Kafka redeliver
// everything past the last durable prefix.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Error("closing reader", "error", err)
		}
	}()

	for {
		messages, err := c.fetchBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				// The reader was closed underneath us; surface it so the
				// caller notices a dead consumer instead of a clean exit.
				return fmt.Errorf("reader closed: %w", err)
			}
			c.logger.ErrorContext(ctx, "fetching batch", "error", err)
			if !c.sleep(ctx, retryBackoff) {
				return ctx.Err()
			}
			continue
		}

		bodies := make([][]byte, len(messages))
		for i, message := range messages {
			bodies[i] = message.Value
		}

		done, handleErr := c.dispatcher.HandleBatch(ctx, bodies)
		if done > 0 {
			if err := c.reader.CommitMessages(ctx, messages[:done]...); err != nil {
				c.logger.ErrorContext(ctx, "committing offsets", "error", err)
			}
		}

		if handleErr != nil {
			c.logger.ErrorContext(ctx, "processing batch",
				"error", handleErr, "committed", done, "fetched", len(messages))
			if !c.sleep(ctx, retryBackoff) {
				return ctx.Err()
			}
		}
	}
}

// fetchBatch blocks for the first message, then drains whatever else is
// already buffered, up to maxBatchSize, without waiting for more.
func (c *Consumer) fetchBatch(ctx context.Context) ([]kafka.Message, error) {
	first, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}

	messages := []kafka.Message{first}
	for len(messages) < maxBatchSize {
		fillCtx, cancel := context.WithTimeout(ctx, fillTimeout)
		message, err := c.reader.FetchMessage(fillCtx)
		cancel()
		if err != nil {
			break
		}
		messages = append(messages, message)
	}

	return messages, nil
}

func (c *Consumer) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
