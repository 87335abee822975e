package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/ingest"
	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/metadata"
	"github.com/soltixdb/climatix/internal/storage"
)

func newTestIngestService(t *testing.T, autoRegister bool) (*IngestService, storage.Store, metadata.Registry) {
	t.Helper()
	store := storage.NewMemoryStore(0)
	registry := metadata.NewMemoryRegistry(autoRegister)
	writer := ingest.NewWriter(ingest.NewSink(store, registry), registry, nil,
		ingest.WriterOptions{AutoRegister: autoRegister})

	s := NewIngestService(logging.NewDevelopment(), writer, 3)
	s.now = func() time.Time { return testNow }
	return s, store, registry
}

func TestIngestService_WriteRecord(t *testing.T) {
	s, store, registry := newTestIngestService(t, true)
	ctx := context.Background()

	result, err := s.WriteRecord(ctx, "kitchen", map[string]interface{}{"temp": 21.5, "hum": 40.0, "lux": 300.0})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Received)
	assert.NotEmpty(t, result.BatchID)

	got, err := store.Snapshot(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, []analytics.Reading{{Timestamp: testNow.Unix(), Temp: 21.5, Hum: 40, Lux: 300}}, got)

	dev, err := registry.Get(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, int64(1), dev.ReadingCount)

	_, err = s.WriteRecord(ctx, "kitchen", map[string]interface{}{"temp": 21.5, "hum": 40.0})
	requireCode(t, err, CodeInvalidRequest)

	_, err = s.WriteRecord(ctx, "", map[string]interface{}{"temp": 1.0, "hum": 1.0, "lux": 1.0})
	requireCode(t, err, CodeInvalidRequest)

	_, err = s.WriteRecord(ctx, "no/slash", map[string]interface{}{"temp": 1.0, "hum": 1.0, "lux": 1.0})
	requireCode(t, err, CodeInvalidDeviceID)
}

func TestIngestService_WriteBatchSkipsMalformed(t *testing.T) {
	s, store, _ := newTestIngestService(t, true)
	ctx := context.Background()

	result, err := s.WriteBatch(ctx, "kitchen", []map[string]interface{}{
		{"timestamp": 100.0, "temp": 20.0, "hum": 40.0, "lux": 1.0},
		{"timestamp": 200.0, "temp": 20.0},
		{"timestamp": 300.0, "temp": 21.0, "hum": 41.0, "lux": 2.0},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Received)
	assert.Equal(t, 1, result.Skipped)

	got, err := store.Snapshot(ctx, "kitchen")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(300), got[1].Timestamp)

	_, err = s.WriteBatch(ctx, "kitchen", make([]map[string]interface{}, 4))
	requireCode(t, err, CodeInvalidRequest)
}

func TestIngestService_WriteArray(t *testing.T) {
	s, store, _ := newTestIngestService(t, true)
	ctx := context.Background()

	result, err := s.WriteArray(ctx, "kitchen", [][]interface{}{
		{100.0, 20.0, 40.0, 1.0},
		{200.0, 20.0},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Received)
	assert.Equal(t, 1, result.Skipped)

	got, err := store.Snapshot(ctx, "kitchen")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestIngestService_AllMalformedStoresNothing(t *testing.T) {
	s, store, _ := newTestIngestService(t, true)
	ctx := context.Background()

	result, err := s.WriteArray(ctx, "kitchen", [][]interface{}{{"x"}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Received)

	_, err = store.Snapshot(ctx, "kitchen")
	assert.ErrorIs(t, err, storage.ErrDeviceNotFound)
}

func TestIngestService_UnknownDevice(t *testing.T) {
	s, _, registry := newTestIngestService(t, false)
	ctx := context.Background()
	reading := map[string]interface{}{"temp": 1.0, "hum": 1.0, "lux": 1.0}

	_, err := s.WriteRecord(ctx, "kitchen", reading)
	requireCode(t, err, CodeUnknownDevice)

	require.NoError(t, registry.Register(ctx, &metadata.Device{ID: "kitchen"}))
	_, err = s.WriteRecord(ctx, "kitchen", reading)
	require.NoError(t, err)
}
