package ports

import "context"

// OutboundMessage is an event destined for one of the downstream queues.
// GroupKey selects the partition so related events stay ordered relative to
// each other. DedupKey travels as a message header so redeliveries of the
// same logical event can be recognized downstream.
type OutboundMessage struct {
	Queue    string
	Body     []byte
	GroupKey string
	DedupKey string
}

// EventPublisher defines the contract for emitting events to the queues.
type EventPublisher interface {
	Publish(ctx context.Context, message OutboundMessage) error
}
