package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/compression"
	"github.com/soltixdb/climatix/internal/logging"
)

// Key layout:
//
//	d/<device>               device marker, empty value
//	r/<device>/<seq BE64>    one compressed column block per Append
//
// The sequence is global and monotonic, so a prefix scan over r/<device>/
// returns blocks in append order.
var (
	devicePrefix = []byte("d/")
	blockPrefix  = []byte("r/")
	sequenceKey  = []byte("!seq")
)

// BadgerOptions configures NewBadgerStore
type BadgerOptions struct {
	Dir        string
	InMemory   bool
	SyncWrites bool
	Compressor compression.Compressor // block framing, none when nil
}

// BadgerStore keeps readings in badger as compressed column blocks
type BadgerStore struct {
	db         *badger.DB
	seq        *badger.Sequence
	compressor compression.Compressor
	logger     *logging.Logger
}

// NewBadgerStore opens (or creates) the badger database
func NewBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		bopts = badger.DefaultOptions(filepath.Join(opts.Dir, "badger"))
	}
	bopts = bopts.WithSyncWrites(opts.SyncWrites)
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	seq, err := db.GetSequence(sequenceKey, 1000)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open block sequence: %w", err)
	}

	c := opts.Compressor
	if c == nil {
		c = &compression.NoneCompressor{}
	}

	return &BadgerStore{
		db:         db,
		seq:        seq,
		compressor: c,
		logger:     logging.With("component", "storage.badger"),
	}, nil
}

func deviceKey(deviceID string) []byte {
	return append(append([]byte{}, devicePrefix...), deviceID...)
}

func deviceBlockPrefix(deviceID string) []byte {
	k := append(append([]byte{}, blockPrefix...), deviceID...)
	return append(k, '/')
}

func blockKey(deviceID string, seq uint64) []byte {
	return binary.BigEndian.AppendUint64(deviceBlockPrefix(deviceID), seq)
}

func (bs *BadgerStore) Append(ctx context.Context, deviceID string, readings []analytics.Reading) error {
	if deviceID == "" {
		return fmt.Errorf("device id required")
	}
	if len(readings) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	block, err := encodeBlock(readings, bs.compressor)
	if err != nil {
		return fmt.Errorf("failed to encode block: %w", err)
	}

	n, err := bs.seq.Next()
	if err != nil {
		return fmt.Errorf("failed to allocate block id: %w", err)
	}

	return bs.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(deviceKey(deviceID), nil); err != nil {
			return err
		}
		return txn.Set(blockKey(deviceID, n), block)
	})
}

func (bs *BadgerStore) Snapshot(ctx context.Context, deviceID string) ([]analytics.Reading, error) {
	prefix := deviceBlockPrefix(deviceID)

	var readings []analytics.Reading
	found := false
	err := bs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			found = true
			item := it.Item()
			err := item.Value(func(val []byte) error {
				block, err := decodeBlock(val)
				if err != nil {
					return err
				}
				readings = append(readings, block...)
				return nil
			})
			if err != nil {
				bs.logger.Warn("Skipping corrupt block", "device_id", deviceID, "key", fmt.Sprintf("%x", item.Key()), "error", err)
			}
		}
		if found {
			return nil
		}
		// a cleared device keeps its marker and has no blocks
		_, err := txn.Get(deviceKey(deviceID))
		if err == nil {
			found = true
			return nil
		}
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	return readings, nil
}

func (bs *BadgerStore) Devices(ctx context.Context) ([]string, error) {
	var ids []string
	err := bs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = devicePrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(devicePrefix); it.Next() {
			ids = append(ids, string(bytes.TrimPrefix(it.Item().Key(), devicePrefix)))
		}
		return nil
	})
	return ids, err
}

// Clear drops the device's blocks by prefix and keeps its marker
func (bs *BadgerStore) Clear(ctx context.Context, deviceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := bs.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(deviceKey(deviceID))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	if err != nil {
		return err
	}

	if err := bs.db.DropPrefix(deviceBlockPrefix(deviceID)); err != nil {
		return fmt.Errorf("failed to drop readings of %s: %w", deviceID, err)
	}
	bs.logger.Info("Device readings cleared", "device_id", deviceID)
	return nil
}

func (bs *BadgerStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if bs.db.IsClosed() {
		return fmt.Errorf("badger: database closed")
	}
	return nil
}

func (bs *BadgerStore) Close() error {
	if err := bs.seq.Release(); err != nil {
		bs.logger.Warn("Failed to release block sequence", "error", err)
	}
	return bs.db.Close()
}
