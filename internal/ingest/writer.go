package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/compression"
	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/metadata"
	"github.com/soltixdb/climatix/internal/queue"
)

// ErrUnknownDevice is returned when auto-registration is off and the device
// has not been registered
var ErrUnknownDevice = errors.New("device is not registered")

// WriterOptions configures NewWriter
type WriterOptions struct {
	Async        bool // publish to the queue instead of writing the store
	Subject      string
	Compressor   compression.Compressor
	AutoRegister bool

	// ChunkSize splits async batches larger than this many readings into
	// chunks sent with one PublishBatch call; 0 never splits
	ChunkSize int
}

// Writer is the entry point of the ingest endpoints
type Writer struct {
	sink      *Sink
	registry  metadata.Registry
	publisher queue.Publisher
	opts      WriterOptions
	logger    *logging.Logger
	now       func() time.Time
}

// NewWriter creates a writer. publisher is only used when opts.Async is set.
func NewWriter(sink *Sink, registry metadata.Registry, publisher queue.Publisher, opts WriterOptions) *Writer {
	if opts.Compressor == nil {
		opts.Compressor = &compression.NoneCompressor{}
	}
	return &Writer{
		sink:      sink,
		registry:  registry,
		publisher: publisher,
		opts:      opts,
		logger:    logging.With("component", "ingest.writer"),
		now:       time.Now,
	}
}

// Write validates deviceID and hands readings to the store or the queue.
// It returns the accepted batch.
func (w *Writer) Write(ctx context.Context, deviceID string, readings []analytics.Reading) (*Batch, error) {
	if err := metadata.ValidateDeviceID(deviceID); err != nil {
		return nil, err
	}
	if err := w.checkRegistered(ctx, deviceID); err != nil {
		return nil, err
	}

	b := NewBatch(deviceID, readings, w.now())
	if len(readings) == 0 {
		return b, nil
	}

	if !w.opts.Async || w.publisher == nil {
		return b, w.sink.Apply(ctx, b)
	}

	if err := w.publish(ctx, b); err != nil {
		w.logger.Error("Failed to publish batch",
			"device_id", deviceID,
			"batch_id", b.ID,
			"subject", w.opts.Subject,
			"error", err)
		return nil, fmt.Errorf("failed to queue batch: %w", err)
	}
	return b, nil
}

// publish sends b as one message, or as chunks in a single PublishBatch
func (w *Writer) publish(ctx context.Context, b *Batch) error {
	chunks := b.Split(w.opts.ChunkSize)
	if len(chunks) == 1 {
		data, err := Encode(w.opts.Compressor, b)
		if err != nil {
			return err
		}
		return w.publisher.Publish(ctx, w.opts.Subject, data)
	}

	messages := make([]queue.BatchMessage, len(chunks))
	for i, chunk := range chunks {
		data, err := Encode(w.opts.Compressor, chunk)
		if err != nil {
			return err
		}
		messages[i] = queue.BatchMessage{Subject: w.opts.Subject, Data: data, Key: b.DeviceID}
	}

	accepted, err := w.publisher.PublishBatch(ctx, messages)
	if err != nil {
		return err
	}
	if accepted < len(messages) {
		return fmt.Errorf("queue accepted %d of %d chunks", accepted, len(messages))
	}
	w.logger.Debug("Batch published in chunks",
		"device_id", b.DeviceID,
		"batch_id", b.ID,
		"chunks", len(messages))
	return nil
}

func (w *Writer) checkRegistered(ctx context.Context, deviceID string) error {
	if w.opts.AutoRegister || w.registry == nil {
		return nil
	}
	if _, err := w.registry.Get(ctx, deviceID); err != nil {
		if errors.Is(err, metadata.ErrDeviceNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
		}
		return err
	}
	return nil
}
