// Package ingest moves sensor readings from the HTTP edge into the store,
// either directly or through the queue.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/compression"
)

// Batch is the unit published on the ingest subject
type Batch struct {
	ID         string              `json:"id"`
	DeviceID   string              `json:"device_id"`
	Readings   []analytics.Reading `json:"readings"`
	ReceivedAt time.Time           `json:"received_at"`

	// Part and Parts number the chunks of a batch split for publishing.
	// Both are zero for an unsplit batch.
	Part  int `json:"part,omitempty"`
	Parts int `json:"parts,omitempty"`
}

// Split cuts b into chunks of at most size readings sharing b's id and
// receive time. It returns b alone when no split is needed.
func (b *Batch) Split(size int) []*Batch {
	if size <= 0 || len(b.Readings) <= size {
		return []*Batch{b}
	}

	parts := (len(b.Readings) + size - 1) / size
	out := make([]*Batch, 0, parts)
	for i := 0; i < parts; i++ {
		end := (i + 1) * size
		if end > len(b.Readings) {
			end = len(b.Readings)
		}
		out = append(out, &Batch{
			ID:         b.ID,
			DeviceID:   b.DeviceID,
			Readings:   b.Readings[i*size : end],
			ReceivedAt: b.ReceivedAt,
			Part:       i + 1,
			Parts:      parts,
		})
	}
	return out
}

// NewBatch stamps a batch with a fresh id and the receive time
func NewBatch(deviceID string, readings []analytics.Reading, now time.Time) *Batch {
	return &Batch{
		ID:         uuid.NewString(),
		DeviceID:   deviceID,
		Readings:   readings,
		ReceivedAt: now.UTC(),
	}
}

var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// Encode marshals b to JSON and frames it with c
func Encode(c compression.Compressor, b *Batch) ([]byte, error) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer jsonBufferPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(b); err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}
	return compression.Frame(c, buf.Bytes())
}

// Decode reverses Encode. The frame header names its own compression.
func Decode(data []byte) (*Batch, error) {
	raw, err := compression.Unframe(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unframe batch: %w", err)
	}

	var b Batch
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch: %w", err)
	}
	if b.DeviceID == "" {
		return nil, fmt.Errorf("batch %s has no device id", b.ID)
	}
	return &b, nil
}
