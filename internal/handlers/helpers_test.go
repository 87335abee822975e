package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/config"
	"github.com/soltixdb/climatix/internal/ingest"
	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/metadata"
	"github.com/soltixdb/climatix/internal/services"
	"github.com/soltixdb/climatix/internal/storage"
)

type testEnv struct {
	app      *fiber.App
	handler  *Handler
	store    storage.Store
	registry metadata.Registry
}

// newTestEnv wires the handlers over an in-memory store and registry with
// auto registration on
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logging.NewDevelopment()
	store := storage.NewMemoryStore(0)
	registry := metadata.NewMemoryRegistry(true)
	cfg := config.DefaultConfig()

	writer := ingest.NewWriter(ingest.NewSink(store, registry), registry, nil,
		ingest.WriterOptions{AutoRegister: true})

	h := New(logger, "test", Services{
		Analytics: services.NewAnalyticsService(logger, store, cfg.Analytics, time.UTC),
		Reports:   services.NewReportService(logger, store, cfg.Analytics, time.UTC),
		Data:      services.NewDataService(logger, store, time.UTC),
		Devices:   services.NewDeviceService(logger, registry),
		Ingest:    services.NewIngestService(logger, writer, 100),
	})

	app := fiber.New()
	app.Get("/health", h.Health)
	app.Post("/api/sensor_data", h.SensorData)
	app.Post("/api/sensor_batch", h.SensorBatch)
	app.Post("/api/sensor_array", h.SensorArray)
	app.Get("/api/devices", h.ListDevices)
	app.Post("/api/devices", h.RegisterDevice)
	app.Get("/api/devices/:device_id", h.GetDevice)
	app.Put("/api/devices/:device_id", h.UpdateDevice)
	app.Delete("/api/devices/:device_id", h.DeleteDevice)
	dev := app.Group("/api/device/:device_id")
	dev.Get("/analytics/trends", h.Trends)
	dev.Get("/analytics/forecast", h.Forecast)
	dev.Get("/analytics/correlations", h.Correlations)
	dev.Get("/analytics/anomalies", h.Anomalies)
	dev.Get("/analytics/summary", h.Summary)
	dev.Get("/report/hourly-stats", h.HourlyStats)
	dev.Post("/report/compare", h.Compare)
	dev.Get("/report/recommendations", h.Recommendations)
	dev.Get("/data", h.Data)
	dev.Get("/series", h.Series)
	dev.Get("/download", h.Download)
	dev.Post("/clear-sd", h.ClearData)
	dev.Get("/settings", h.DeviceSettings)
	dev.Post("/settings", h.SaveDeviceSettings)
	app.Use(h.NotFound)

	return &testEnv{app: app, handler: h, store: store, registry: registry}
}

// seed stores n hourly readings ending now
func (e *testEnv) seed(t *testing.T, deviceID string, n int) []analytics.Reading {
	t.Helper()
	now := time.Now().Truncate(time.Hour)
	readings := make([]analytics.Reading, n)
	for i := range readings {
		ts := now.Add(-time.Duration(n-1-i) * time.Hour)
		phase := float64(ts.Hour()) / 24 * 2 * math.Pi
		readings[i] = analytics.Reading{
			Timestamp: ts.Unix(),
			Temp:      20 + 0.1*float64(i) + 2*math.Sin(phase),
			Hum:       60 - 0.1*float64(i) - 3*math.Sin(phase),
			Lux:       250 + 150*math.Sin(phase),
		}
	}
	require.NoError(t, e.store.Append(context.Background(), deviceID, readings))
	return readings
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	body := decode(t, data)
	detail, ok := body["error"].(map[string]interface{})
	require.True(t, ok, string(data))
	code, _ := detail["code"].(string)
	return code
}
