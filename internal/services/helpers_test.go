package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/config"
	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/storage"
)

// testNow is 2024-03-01 00:00:00 UTC
var testNow = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// hourlyReadings returns n readings one hour apart ending at testNow. Temp
// rises slowly, humidity mirrors it and light follows the hour of day.
func hourlyReadings(n int) []analytics.Reading {
	readings := make([]analytics.Reading, n)
	start := testNow.Add(-time.Duration(n-1) * time.Hour)
	for i := range readings {
		ts := start.Add(time.Duration(i) * time.Hour)
		hour := float64(ts.Hour())
		readings[i] = analytics.Reading{
			Timestamp: ts.Unix(),
			Temp:      20 + 0.05*float64(i) + 2*math.Sin(hour/24*2*math.Pi),
			Hum:       55 - 0.05*float64(i) - 4*math.Sin(hour/24*2*math.Pi),
			Lux:       300 + 200*math.Sin(hour/24*2*math.Pi),
		}
	}
	return readings
}

func newTestStore(t *testing.T, devices map[string][]analytics.Reading) storage.Store {
	t.Helper()
	store := storage.NewMemoryStore(0)
	for id, readings := range devices {
		require.NoError(t, store.Append(context.Background(), id, readings))
	}
	return store
}

func testAnalyticsConfig() config.AnalyticsConfig {
	return config.DefaultConfig().Analytics
}

func newTestAnalyticsService(t *testing.T, store storage.Store) *AnalyticsService {
	t.Helper()
	s := NewAnalyticsService(logging.NewDevelopment(), store, testAnalyticsConfig(), time.UTC)
	s.snapshots.now = func() time.Time { return testNow }
	return s
}

func newTestReportService(t *testing.T, store storage.Store) *ReportService {
	t.Helper()
	s := NewReportService(logging.NewDevelopment(), store, testAnalyticsConfig(), time.UTC)
	s.snapshots.now = func() time.Time { return testNow }
	return s
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	svcErr, ok := err.(*ServiceError)
	require.True(t, ok, "expected *ServiceError, got %T", err)
	require.Equal(t, code, svcErr.Code, svcErr.Message)
}
