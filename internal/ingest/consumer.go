package ingest

import (
	"context"

	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/queue"
	"github.com/soltixdb/climatix/internal/utils"
)

// Consumer drains the ingest subject into a Sink
type Consumer struct {
	subscriber queue.Subscriber
	subject    string
	sink       *Sink
	logger     *logging.Logger
}

// NewConsumer creates a consumer for subject
func NewConsumer(subscriber queue.Subscriber, subject string, sink *Sink) *Consumer {
	return &Consumer{
		subscriber: subscriber,
		subject:    subject,
		sink:       sink,
		logger:     logging.With("component", "ingest.consumer", "subject", subject),
	}
}

// Start subscribes to the subject
func (c *Consumer) Start() error {
	c.logger.Info("Ingest consumer started")
	return c.subscriber.Subscribe(c.subject, c.handle)
}

// Stop unsubscribes from the subject
func (c *Consumer) Stop() error {
	return c.subscriber.Unsubscribe(c.subject)
}

// handle drops undecodable messages so they are acknowledged and not
// redelivered; store failures are returned for redelivery
func (c *Consumer) handle(data []byte) error {
	b, err := Decode(data)
	if err != nil {
		c.logger.Warn("Dropping malformed batch", "bytes", len(data), "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), utils.IngestTimeout)
	defer cancel()

	if err := c.sink.Apply(ctx, b); err != nil {
		c.logger.Error("Failed to apply batch",
			"device_id", b.DeviceID,
			"batch_id", b.ID,
			"error", err)
		return err
	}
	return nil
}
