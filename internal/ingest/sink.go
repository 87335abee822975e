package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/metadata"
	"github.com/soltixdb/climatix/internal/storage"
	"github.com/soltixdb/climatix/internal/utils"
)

// Sink applies a batch: append to the store, then update registry counters.
// A registry failure is logged; the readings are already stored.
type Sink struct {
	store    storage.Store
	registry metadata.Registry
	logger   *logging.Logger
}

// NewSink creates a sink. registry may be nil.
func NewSink(store storage.Store, registry metadata.Registry) *Sink {
	return &Sink{
		store:    store,
		registry: registry,
		logger:   logging.With("component", "ingest.sink"),
	}
}

// Apply stores b and tracks it
func (s *Sink) Apply(ctx context.Context, b *Batch) error {
	if len(b.Readings) == 0 {
		return nil
	}
	if err := s.store.Append(ctx, b.DeviceID, b.Readings); err != nil {
		return fmt.Errorf("failed to store batch %s: %w", b.ID, err)
	}

	if s.registry != nil {
		trackCtx, cancel := context.WithTimeout(ctx, utils.RegistryTimeout)
		defer cancel()

		var newest int64
		for _, r := range b.Readings {
			if r.Timestamp > newest {
				newest = r.Timestamp
			}
		}
		if err := s.registry.Track(trackCtx, b.DeviceID, len(b.Readings), time.Unix(newest, 0)); err != nil {
			s.logger.Warn("Failed to track device",
				"device_id", b.DeviceID,
				"batch_id", b.ID,
				"error", err)
		}
	}

	s.logger.Debug("Batch stored",
		"device_id", b.DeviceID,
		"batch_id", b.ID,
		"readings", len(b.Readings))
	return nil
}
