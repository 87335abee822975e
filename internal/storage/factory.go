package storage

import (
	"fmt"
	"strings"

	"github.com/soltixdb/climatix/internal/compression"
	"github.com/soltixdb/climatix/internal/config"
)

// NewStore creates the configured reading store
func NewStore(cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		if !cfg.MemoryStore.WAL.Enabled {
			return NewMemoryStore(cfg.MemoryStore.MaxSize), nil
		}
		return OpenJournaledStore(JournalOptions{
			Dir:            cfg.WALDir(),
			MaxSize:        cfg.MemoryStore.MaxSize,
			SyncWrites:     cfg.MemoryStore.WAL.SyncWrites,
			MaxSegmentSize: cfg.MemoryStore.WAL.MaxSegmentSize,
		})
	case "file":
		return NewFileStore(cfg.DataDir)
	case "badger":
		algo, err := compression.ParseAlgorithm(cfg.Badger.Compression)
		if err != nil {
			return nil, err
		}
		c, err := compression.GetCompressor(algo)
		if err != nil {
			return nil, err
		}
		return NewBadgerStore(BadgerOptions{
			Dir:        cfg.DataDir,
			InMemory:   cfg.Badger.InMemory,
			SyncWrites: cfg.Badger.SyncWrites,
			Compressor: c,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s (supported: memory, file, badger)", cfg.Backend)
	}
}
