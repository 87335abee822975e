package storage

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/soltixdb/climatix/internal/analytics"
)

// numShards is the number of lock shards; devices hash onto them by FNV
const numShards = 32

type shard struct {
	mu      sync.RWMutex
	devices map[string][]analytics.Reading
}

// MemoryStore keeps readings in memory, sharded by device id so writers for
// different devices rarely contend
type MemoryStore struct {
	shards  [numShards]shard
	maxSize int
}

// NewMemoryStore creates a store keeping at most maxSize readings per
// device, dropping the oldest appended first. maxSize <= 0 is unbounded.
func NewMemoryStore(maxSize int) *MemoryStore {
	ms := &MemoryStore{maxSize: maxSize}
	for i := range ms.shards {
		ms.shards[i].devices = make(map[string][]analytics.Reading)
	}
	return ms
}

func (ms *MemoryStore) shardFor(deviceID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(deviceID))
	return &ms.shards[h.Sum32()%numShards]
}

func (ms *MemoryStore) Append(ctx context.Context, deviceID string, readings []analytics.Reading) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deviceID == "" {
		return fmt.Errorf("device id required")
	}
	if len(readings) == 0 {
		return nil
	}

	s := ms.shardFor(deviceID)
	s.mu.Lock()
	defer s.mu.Unlock()

	series := append(s.devices[deviceID], readings...)
	if ms.maxSize > 0 && len(series) > ms.maxSize {
		// copy so the dropped prefix can be collected
		trimmed := make([]analytics.Reading, ms.maxSize)
		copy(trimmed, series[len(series)-ms.maxSize:])
		series = trimmed
	}
	s.devices[deviceID] = series
	return nil
}

func (ms *MemoryStore) Snapshot(ctx context.Context, deviceID string) ([]analytics.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := ms.shardFor(deviceID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.devices[deviceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	out := make([]analytics.Reading, len(series))
	copy(out, series)
	return out, nil
}

func (ms *MemoryStore) Devices(ctx context.Context) ([]string, error) {
	var ids []string
	for i := range ms.shards {
		s := &ms.shards[i]
		s.mu.RLock()
		for id := range s.devices {
			ids = append(ids, id)
		}
		s.mu.RUnlock()
	}
	sort.Strings(ids)
	return ids, nil
}

func (ms *MemoryStore) Clear(ctx context.Context, deviceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := ms.shardFor(deviceID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[deviceID]; !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	s.devices[deviceID] = []analytics.Reading{}
	return nil
}

// reset empties deviceID whether or not it was known
func (ms *MemoryStore) reset(deviceID string) {
	s := ms.shardFor(deviceID)
	s.mu.Lock()
	s.devices[deviceID] = []analytics.Reading{}
	s.mu.Unlock()
}

func (ms *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Count returns the number of stored readings across all devices
func (ms *MemoryStore) Count() int {
	total := 0
	for i := range ms.shards {
		s := &ms.shards[i]
		s.mu.RLock()
		for _, series := range s.devices {
			total += len(series)
		}
		s.mu.RUnlock()
	}
	return total
}

func (ms *MemoryStore) Close() error {
	return nil
}
