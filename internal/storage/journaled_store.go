package storage

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/compression"
	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/wal"
)

// JournaledStore is a MemoryStore whose appends are written to a WAL
// first. Open replays the journal and compacts it to one block per device.
type JournaledStore struct {
	*MemoryStore
	log        *wal.Log
	compressor compression.Compressor
	logger     *logging.Logger
}

// JournalOptions configures OpenJournaledStore
type JournalOptions struct {
	Dir            string
	MaxSize        int // per device, as NewMemoryStore
	SyncWrites     bool
	MaxSegmentSize int64
	Compressor     compression.Compressor // nil means snappy
}

// OpenJournaledStore rebuilds the store from the journal in opts.Dir
func OpenJournaledStore(opts JournalOptions) (*JournaledStore, error) {
	if opts.Compressor == nil {
		opts.Compressor = compression.NewSnappyCompressor()
	}

	log, err := wal.Open(opts.Dir, wal.Options{
		SyncWrites:     opts.SyncWrites,
		MaxSegmentSize: opts.MaxSegmentSize,
	})
	if err != nil {
		return nil, err
	}

	js := &JournaledStore{
		MemoryStore: NewMemoryStore(opts.MaxSize),
		log:         log,
		compressor:  opts.Compressor,
		logger:      logging.With("component", "storage.journal"),
	}

	if err := js.recover(); err != nil {
		_ = log.Close()
		return nil, err
	}
	return js, nil
}

func (js *JournaledStore) recover() error {
	ctx := context.Background()
	records := 0
	err := js.log.Replay(func(payload []byte) error {
		deviceID, readings, err := decodeJournalRecord(payload)
		if err != nil {
			return err
		}
		records++
		if readings == nil {
			js.MemoryStore.reset(deviceID)
			return nil
		}
		return js.MemoryStore.Append(ctx, deviceID, readings)
	})
	if err != nil {
		return fmt.Errorf("failed to replay journal: %w", err)
	}

	devices, _ := js.MemoryStore.Devices(ctx)
	compacted := make([][]byte, 0, len(devices))
	for _, id := range devices {
		readings, err := js.MemoryStore.Snapshot(ctx, id)
		if err != nil {
			return err
		}
		if len(readings) == 0 {
			compacted = append(compacted, encodeClearRecord(id))
			continue
		}
		rec, err := encodeJournalRecord(id, readings, js.compressor)
		if err != nil {
			return err
		}
		compacted = append(compacted, rec)
	}
	if err := js.log.Rewrite(compacted); err != nil {
		return fmt.Errorf("failed to compact journal: %w", err)
	}

	js.logger.Info("Journal recovered",
		"records", records,
		"devices", len(devices),
		"readings", js.MemoryStore.Count())
	return nil
}

// Append journals the readings, then applies them in memory
func (js *JournaledStore) Append(ctx context.Context, deviceID string, readings []analytics.Reading) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deviceID == "" {
		return fmt.Errorf("device id required")
	}
	if len(readings) == 0 {
		return nil
	}

	rec, err := encodeJournalRecord(deviceID, readings, js.compressor)
	if err != nil {
		return err
	}
	if err := js.log.Append(rec); err != nil {
		return fmt.Errorf("failed to journal readings: %w", err)
	}
	return js.MemoryStore.Append(ctx, deviceID, readings)
}

// Clear journals a clear record, then empties the device in memory
func (js *JournaledStore) Clear(ctx context.Context, deviceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := js.MemoryStore.Snapshot(ctx, deviceID); err != nil {
		return err
	}
	if err := js.log.Append(encodeClearRecord(deviceID)); err != nil {
		return fmt.Errorf("failed to journal clear: %w", err)
	}
	js.logger.Info("Device readings cleared", "device_id", deviceID)
	return js.MemoryStore.Clear(ctx, deviceID)
}

func (js *JournaledStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return js.log.Ping()
}

func (js *JournaledStore) Close() error {
	return js.log.Close()
}

// [uvarint id length][id][block]; a record with no block clears the device
func encodeJournalRecord(deviceID string, readings []analytics.Reading, c compression.Compressor) ([]byte, error) {
	block, err := encodeBlock(readings, c)
	if err != nil {
		return nil, err
	}
	rec := binary.AppendUvarint(make([]byte, 0, len(deviceID)+len(block)+2), uint64(len(deviceID)))
	rec = append(rec, deviceID...)
	return append(rec, block...), nil
}

func encodeClearRecord(deviceID string) []byte {
	rec := binary.AppendUvarint(make([]byte, 0, len(deviceID)+2), uint64(len(deviceID)))
	return append(rec, deviceID...)
}

// decodeJournalRecord returns nil readings for a clear record
func decodeJournalRecord(rec []byte) (string, []analytics.Reading, error) {
	size, n := binary.Uvarint(rec)
	if n <= 0 || uint64(len(rec)-n) < size {
		return "", nil, fmt.Errorf("journal: truncated device id")
	}
	deviceID := string(rec[n : n+int(size)])
	if len(rec) == n+int(size) {
		return deviceID, nil, nil
	}
	readings, err := decodeBlock(rec[n+int(size):])
	if err != nil {
		return "", nil, fmt.Errorf("journal: device %s: %w", deviceID, err)
	}
	return deviceID, readings, nil
}
