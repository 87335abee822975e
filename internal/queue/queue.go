// Package queue carries encoded ingest batches from the HTTP edge to the
// consumer that writes them into the reading store. A message is one
// ingest.Batch (or one chunk of it); the subject is the ingest subject.
// Backends: in-memory channels, NATS JetStream, Redis Streams and Kafka.
package queue

import "context"

// Publisher is the producer side used by the async ingest writer
type Publisher interface {
	// Publish sends one encoded batch and returns once the backend holds it
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishBatch sends the chunks of a large ingest batch together and
	// returns how many the backend accepted
	PublishBatch(ctx context.Context, messages []BatchMessage) (int, error)

	// Ping reports whether the backend can accept batches right now
	Ping(ctx context.Context) error

	Close() error
}

// BatchMessage is one encoded chunk of an ingest batch
type BatchMessage struct {
	Subject string
	Data    []byte

	// Key keeps messages of one device in order on partitioned backends.
	// Ingest uses the device id.
	Key string
}

// Subscriber is the consumer side feeding batches into the store
type Subscriber interface {
	// Subscribe delivers every batch on subject to handler. A handler error
	// leaves the batch unacknowledged where the backend supports redelivery.
	Subscribe(subject string, handler MessageHandler) error

	Unsubscribe(subject string) error
	Close() error
}

// MessageHandler decodes and stores one delivered batch
type MessageHandler func(data []byte) error

// Queue is both ends of the ingest pipeline
type Queue interface {
	Publisher
	Subscriber
}
