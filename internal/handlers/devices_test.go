package handlers

import (
	"context"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevices_Lifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "POST", "/api/devices", map[string]interface{}{
		"device_id": "cellar",
		"name":      "Wine cellar",
		"labels":    map[string]string{"floor": "-1"},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, "cellar", decode(t, body)["id"])

	resp, body = env.do(t, "POST", "/api/devices", map[string]interface{}{"device_id": "cellar"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DEVICE_EXISTS", errorCode(t, body))

	resp, body = env.do(t, "PUT", "/api/devices/cellar", map[string]interface{}{"name": "Cellar"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "Cellar", decode(t, body)["name"])

	resp, body = env.do(t, "GET", "/api/devices", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), decode(t, body)["count"])

	resp, _ = env.do(t, "DELETE", "/api/devices/cellar", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = env.do(t, "GET", "/api/devices/cellar", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "DEVICE_NOT_FOUND", errorCode(t, body))
}

func TestDevices_DeleteKeepsReadings(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "shed", 3)

	resp, body := env.do(t, "POST", "/api/devices", map[string]interface{}{"device_id": "shed"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	resp, _ = env.do(t, "DELETE", "/api/devices/shed", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	readings, err := env.store.Snapshot(context.Background(), "shed")
	require.NoError(t, err)
	assert.Len(t, readings, 3)
}

func TestDevices_InvalidID(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "POST", "/api/devices", map[string]interface{}{"device_id": "bad id!"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_DEVICE_ID", errorCode(t, body))
}

func TestDeviceSettings(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "GET", "/api/device/porch/settings", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, map[string]interface{}{
		"target_temp":  20.0,
		"target_hum":   50.0,
		"log_interval": float64(30),
	}, decode(t, body))

	resp, body = env.do(t, "POST", "/api/device/porch/settings", map[string]interface{}{
		"target_temp":  18.5,
		"log_interval": 15,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "ok", decode(t, body)["status"])

	resp, body = env.do(t, "GET", "/api/device/porch/settings", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	got := decode(t, body)
	assert.Equal(t, 18.5, got["target_temp"])
	assert.Equal(t, 50.0, got["target_hum"])
	assert.Equal(t, float64(15), got["log_interval"])

	dev, err := env.registry.Get(context.Background(), "porch")
	require.NoError(t, err)
	require.NotNil(t, dev.Settings)
	assert.Equal(t, 15, dev.Settings.LogInterval)

	resp, body = env.do(t, "POST", "/api/device/porch/settings", map[string]interface{}{"target_hum": 140})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, body))

	resp, body = env.do(t, "GET", "/api/device/bad%20id/settings", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_DEVICE_ID", errorCode(t, body))
}
