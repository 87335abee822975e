package handlers

import (
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestData_Recent(t *testing.T) {
	env := newTestEnv(t)
	readings := env.seed(t, "lab", 10)

	resp, body := env.do(t, "GET", "/api/device/lab/data?limit=3", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

	out := decode(t, body)
	assert.Equal(t, float64(3), out["count"])
	data := out["data"].([]interface{})
	last := data[2].(map[string]interface{})
	assert.Equal(t, float64(readings[9].Timestamp), last["timestamp"])
}

func TestDownload_CSV(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "lab", 5)

	resp, body := env.do(t, "GET", "/api/device/lab/download?format=csv&param=temp&period=all", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/csv")
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "lab_all.csv")

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "timestamp,temp", lines[0])
}

func TestDownload_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "lab", 5)

	resp, body := env.do(t, "GET", "/api/device/lab/download?param=hum", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

	out := decode(t, body)
	rows := out["data"].([]interface{})
	require.Len(t, rows, 5)
	row := rows[0].(map[string]interface{})
	assert.Contains(t, row, "hum")
	assert.NotContains(t, row, "temp")
}

func TestDownload_Rejects(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "lab", 5)

	resp, body := env.do(t, "GET", "/api/device/lab/download?format=xml", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, body))

	resp, body = env.do(t, "GET", "/api/device/lab/download?param=pressure", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, body))
}

func TestSeries(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "lab", 200)

	resp, body := env.do(t, "GET", "/api/device/lab/series?mode=minmax&points=40&channel=hum", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

	out := decode(t, body)
	assert.Equal(t, "minmax", out["mode"])
	assert.Equal(t, "humidity", out["channel"])
	assert.Equal(t, float64(200), out["original_points"])
	assert.LessOrEqual(t, len(out["data"].([]interface{})), 40)

	resp, body = env.do(t, "GET", "/api/device/lab/series?points=lots", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, body))
}

func TestClearData(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "greenhouse", 12)
	env.seed(t, "attic", 4)

	resp, body := env.do(t, "POST", "/api/device/greenhouse/clear-sd", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	out := decode(t, body)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "greenhouse", out["device_id"])

	resp, body = env.do(t, "GET", "/api/device/greenhouse/data", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), decode(t, body)["count"])

	resp, body = env.do(t, "GET", "/api/device/attic/data", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(4), decode(t, body)["count"])

	resp, body = env.do(t, "POST", "/api/device/nobody/clear-sd", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "DEVICE_NOT_FOUND", errorCode(t, body))
}
