package correlation

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/climatix/internal/analytics"
)

func makeSeries(n int, fn func(i int) analytics.Reading) analytics.TimeSeries {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).Unix()
	readings := make([]analytics.Reading, n)
	for i := 0; i < n; i++ {
		r := fn(i)
		r.Timestamp = base + int64(i)*600
		readings[i] = r
	}
	return analytics.PrepareReadings(readings, time.UTC)
}

func TestPearson_SelfCorrelation(t *testing.T) {
	x := []float64{21.3, 22.8, 19.1, 25.4, 23.0, 20.7, 24.9, 18.2}
	y := append([]float64(nil), x...)

	r, err := Pearson(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-9)
}

func TestPearson_PerfectInverse(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{10, 8, 6, 4, 2}

	r, err := Pearson(x, y)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, r, 1e-9)
}

func TestPearson_Errors(t *testing.T) {
	_, err := Pearson([]float64{1, 2}, []float64{1})
	assert.Error(t, err)

	_, err = Pearson([]float64{5, 5, 5, 5}, []float64{1, 2, 3, 4})
	assert.True(t, errors.Is(err, analytics.ErrComputation))

	_, err = Pearson([]float64{1}, []float64{2})
	assert.True(t, errors.Is(err, analytics.ErrComputation))
}

func TestPearson_SkipsNonFinite(t *testing.T) {
	x := []float64{1, 2, math.NaN(), 3, 4}
	y := []float64{2, 4, 100, 6, math.Inf(1)}

	r, err := Pearson(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-9)
}

func TestClassify(t *testing.T) {
	th := analytics.DefaultThresholds().Correlation

	tests := []struct {
		r        float64
		expected Strength
	}{
		{0, StrengthWeak},
		{0.29, StrengthWeak},
		{-0.3, StrengthModerate},
		{0.69, StrengthModerate},
		{0.7, StrengthStrong},
		{-0.95, StrengthStrong},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Classify(tt.r, th), "r=%v", tt.r)
	}
}

func TestAnalyze_InsufficientData(t *testing.T) {
	ts := makeSeries(9, func(i int) analytics.Reading {
		return analytics.Reading{Temp: float64(i), Hum: float64(i), Lux: float64(i)}
	})

	_, err := Analyze(ts, DefaultConfig())
	assert.True(t, errors.Is(err, analytics.ErrInsufficientData))
}

func TestAnalyze_PairOrder(t *testing.T) {
	ts := makeSeries(24, func(i int) analytics.Reading {
		v := float64(i)
		return analytics.Reading{Temp: 15 + v, Hum: 80 - 2*v, Lux: 100 + 10*v + float64(i%3)}
	})

	result, err := Analyze(ts, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, result.Pairs, 3)

	assert.Equal(t, analytics.Temperature, result.Pairs[0].X)
	assert.Equal(t, analytics.Humidity, result.Pairs[0].Y)
	assert.Equal(t, analytics.Temperature, result.Pairs[1].X)
	assert.Equal(t, analytics.Illuminance, result.Pairs[1].Y)
	assert.Equal(t, analytics.Humidity, result.Pairs[2].X)
	assert.Equal(t, analytics.Illuminance, result.Pairs[2].Y)

	th, ok := result.Coefficient(analytics.Humidity, analytics.Temperature)
	require.True(t, ok)
	assert.InDelta(t, -1.0, th, 1e-9)
	assert.Equal(t, StrengthStrong, result.Pairs[0].Strength)
	assert.Equal(t, DirectionNegative, result.Pairs[0].Direction)
}

func TestAnalyze_ZeroVariancePair(t *testing.T) {
	ts := makeSeries(12, func(i int) analytics.Reading {
		return analytics.Reading{Temp: 20 + float64(i), Hum: 50 + float64(i%4), Lux: 300}
	})

	result, err := Analyze(ts, DefaultConfig())
	require.NoError(t, err)

	_, ok := result.Coefficient(analytics.Temperature, analytics.Humidity)
	assert.True(t, ok)

	pair, found := result.Find(analytics.Temperature, analytics.Illuminance)
	require.True(t, found)
	assert.Nil(t, pair.Coefficient)
	assert.NotEmpty(t, pair.Error)

	pair, found = result.Find(analytics.Humidity, analytics.Illuminance)
	require.True(t, found)
	assert.Nil(t, pair.Coefficient)
}

func TestAnalyze_AllDegenerate(t *testing.T) {
	ts := makeSeries(12, func(i int) analytics.Reading {
		return analytics.Reading{Temp: 20, Hum: 50, Lux: 300}
	})

	_, err := Analyze(ts, DefaultConfig())
	assert.True(t, errors.Is(err, analytics.ErrComputation))
}

func TestAnalyze_Significant(t *testing.T) {
	ts := makeSeries(30, func(i int) analytics.Reading {
		v := float64(i)
		// lux alternates so it carries almost no linear relation to the others
		lux := 500.0
		if i%2 == 0 {
			lux = 700
		}
		return analytics.Reading{Temp: 18 + 0.3*v, Hum: 40 + 0.5*v, Lux: lux}
	})

	result, err := Analyze(ts, DefaultConfig())
	require.NoError(t, err)

	significant := result.Significant(DefaultConfig().Thresholds.Significant)
	require.Len(t, significant, 1)
	assert.True(t, significant[0].Is(analytics.Temperature, analytics.Humidity))
}

func TestAnalyze_Deterministic(t *testing.T) {
	ts := makeSeries(40, func(i int) analytics.Reading {
		v := float64(i)
		return analytics.Reading{
			Temp: 20 + math.Sin(v/3)*4,
			Hum:  55 - math.Sin(v/3)*10 + math.Cos(v),
			Lux:  400 + math.Cos(v/5)*200,
		}
	})

	first, err := Analyze(ts, DefaultConfig())
	require.NoError(t, err)
	second, err := Analyze(ts, DefaultConfig())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
