package queue

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopBatchHandler struct{}

func (noopBatchHandler) HandleBatch(context.Context, [][]byte) (int, error) {
	return 0, nil
}

func newTestConsumer() *Consumer {
	return NewConsumer([]string{"localhost:9092"}, "test-group", "test-topic",
		noopBatchHandler{}, slog.New(slog.DiscardHandler))
}

func TestConsumer_Run_CancelledContext_ReturnsContextError(t *testing.T) {
	consumer := newTestConsumer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := consumer.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestConsumer_Run_ReaderClosed_ReturnsError(t *testing.T) {
	consumer := newTestConsumer()
	require.NoError(t, consumer.reader.Close())

	// The context is still live, so a dead reader must surface as an error
	// rather than a clean exit.
	err := consumer.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reader closed")
}
