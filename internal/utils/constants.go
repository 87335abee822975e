package utils

import "time"

// HTTP handler timeouts
const (
	// DefaultRequestTimeout bounds a whole analytics request
	DefaultRequestTimeout = 30 * time.Second

	// IngestTimeout bounds storing or publishing one ingest batch
	IngestTimeout = 10 * time.Second

	// RegistryTimeout bounds device registry calls made on the request path
	RegistryTimeout = 5 * time.Second

	// HealthCheckTimeout bounds each backend check of /health
	HealthCheckTimeout = 2 * time.Second
)

// Retry and backoff
const (
	// DefaultMaxRetries is the default number of retry attempts
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the default backoff duration between retries
	DefaultRetryBackoff = 100 * time.Millisecond
)

// DefaultQueueBuffer is the per-subject buffer of the in-memory queue
const DefaultQueueBuffer = 10000

// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeMemory is the in-process queue (default)
	QueueTypeMemory QueueType = "memory"

	// QueueTypeNATS represents NATS JetStream queue
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"
)
