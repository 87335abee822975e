package queue

import (
	"testing"

	"github.com/soltixdb/climatix/internal/config"
)

func TestNewQueue_DefaultsToMemory(t *testing.T) {
	q, err := NewQueue(config.QueueConfig{})
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	defer func() { _ = q.Close() }()

	if _, ok := q.(*MemoryQueue); !ok {
		t.Fatalf("Expected *MemoryQueue, got %T", q)
	}
}

func TestNewQueue_TypeIsCaseInsensitive(t *testing.T) {
	q, err := NewQueue(config.QueueConfig{Type: "Memory"})
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	_ = q.Close()
}

func TestNewQueue_NATS(t *testing.T) {
	_, url, cleanup := setupTestNATS(t)
	defer cleanup()

	q, err := NewQueue(config.QueueConfig{Type: "nats", URL: url, NATSStream: "factory"})
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	defer func() { _ = q.Close() }()

	nq, ok := q.(*NATSQueue)
	if !ok {
		t.Fatalf("Expected *NATSQueue, got %T", q)
	}
	if nq.stream != "factory" {
		t.Errorf("Expected stream prefix factory, got %s", nq.stream)
	}
}

func TestNewQueue_KafkaWithoutBrokers(t *testing.T) {
	if _, err := NewQueue(config.QueueConfig{Type: "kafka"}); err == nil {
		t.Fatal("Expected error when no brokers are configured")
	}
}

func TestNewQueue_UnsupportedType(t *testing.T) {
	if _, err := NewQueue(config.QueueConfig{Type: "rabbitmq"}); err == nil {
		t.Fatal("Expected error for unsupported queue type")
	}
}
