package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReports_HourlyStats(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "lab", 48)

	resp, body := env.do(t, "GET", "/api/device/lab/report/hourly-stats", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

	out := decode(t, body)
	hourly, ok := out["hourly_stats"].([]interface{})
	require.True(t, ok)
	assert.Len(t, hourly, 24)
}

func TestReports_Compare(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "lab", 48)

	resp, body := env.do(t, "POST", "/api/device/lab/report/compare",
		map[string]interface{}{"period1": "day", "period2": "all"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, decode(t, body), "insights")

	// no body compares week against month
	resp, body = env.do(t, "POST", "/api/device/lab/report/compare", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

	resp, body = env.do(t, "POST", "/api/device/lab/report/compare",
		map[string]interface{}{"period1": "fortnight"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, body))
}

func TestReports_Recommendations(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "lab", 12)

	resp, body := env.do(t, "GET", "/api/device/lab/report/recommendations?period=all", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, decode(t, body), "recommendations")
}
