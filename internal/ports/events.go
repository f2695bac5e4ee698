package ports

import "context"

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}

// ConsumedEvent is one delivery from the event bus. EventType is resolved
// from the topic and PartitionKey is the message key; either may be empty
// when the transport does not carry it.
type ConsumedEvent struct {
	Topic        string
	EventType    string
	PartitionKey string
	Payload      []byte
}
