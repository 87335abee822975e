package forecast

import (
	"time"

	"github.com/soltixdb/climatix/internal/analytics"
)

// Common test data and helpers for all forecast tests

var (
	testBaseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	testInterval = time.Hour
)

// generateLinearSeries creates a series where every channel follows
// y = slope * x + intercept, with lux scaled by 10
func generateLinearSeries(n int, slope, intercept float64) analytics.TimeSeries {
	readings := make([]analytics.Reading, n)
	for i := 0; i < n; i++ {
		v := slope*float64(i) + intercept
		readings[i] = analytics.Reading{
			Timestamp: testBaseTime.Add(testInterval * time.Duration(i)).Unix(),
			Temp:      v,
			Hum:       v,
			Lux:       v * 10,
		}
	}
	return analytics.PrepareReadings(readings, time.UTC)
}

// generateConstantSeries creates n readings with every channel fixed
func generateConstantSeries(n int, temp, hum, lux float64) analytics.TimeSeries {
	readings := make([]analytics.Reading, n)
	for i := 0; i < n; i++ {
		readings[i] = analytics.Reading{
			Timestamp: testBaseTime.Add(testInterval * time.Duration(i)).Unix(),
			Temp:      temp,
			Hum:       hum,
			Lux:       lux,
		}
	}
	return analytics.PrepareReadings(readings, time.UTC)
}
