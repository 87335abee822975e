// Package forecast extrapolates channel values a few steps beyond the last
// sample using an ordinary least-squares fit against the sample index.
package forecast

import (
	"math"

	"github.com/soltixdb/climatix/internal/analytics"
)

// Trend is the direction of the forecast over the horizon
type Trend string

const (
	TrendStable  Trend = "stable"
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
)

// Confidence is a coarse reliability tag based on the sample count
type Confidence string

const (
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Prediction is a single extrapolated value. Step 1 is the first index past
// the last observed sample.
type Prediction struct {
	Step  int     `json:"step"`
	Value float64 `json:"value"`
}

// ModelInfo contains metadata about the fitted model
type ModelInfo struct {
	Algorithm  string  `json:"algorithm"`
	Slope      float64 `json:"slope"`
	Intercept  float64 `json:"intercept"`
	MAE        float64 `json:"mae"`  // Mean Absolute Error on the fitted samples
	RMSE       float64 `json:"rmse"` // Root Mean Squared Error on the fitted samples
	DataPoints int     `json:"data_points"`
}

// Result is the forecast of one channel
type Result struct {
	Channel       analytics.Channel `json:"channel"`
	Trend         Trend             `json:"trend"`
	Predictions   []Prediction      `json:"predictions"`
	PredictedLast float64           `json:"predicted_last"`
	Confidence    Confidence        `json:"confidence"`
	ModelInfo     ModelInfo         `json:"model_info"`
}

// MultiResult holds per-channel forecasts. Channels without enough samples
// are listed in Omitted instead of failing the call.
type MultiResult struct {
	Horizon  int                 `json:"horizon"`
	Channels []Result            `json:"channels"`
	Omitted  []analytics.Channel `json:"omitted,omitempty"`
}

// Config holds configuration for forecasting
type Config struct {
	Horizon    int // Number of steps to forecast
	MaxHorizon int // Upper bound for Horizon, 0 means unbounded
	MinSamples int // Minimum samples required per channel
	Thresholds analytics.ForecastThresholds
}

// WithHorizon returns a copy using the requested horizon. Non-positive
// values keep the configured default and the result is capped at MaxHorizon.
func (c Config) WithHorizon(horizon int) Config {
	if horizon > 0 {
		c.Horizon = horizon
	}
	if c.MaxHorizon > 0 && c.Horizon > c.MaxHorizon {
		c.Horizon = c.MaxHorizon
	}
	return c
}

// DefaultConfig returns the single-channel configuration
func DefaultConfig() Config {
	return Config{
		Horizon:    6,
		MaxHorizon: 48,
		MinSamples: 10,
		Thresholds: analytics.DefaultThresholds().Forecast,
	}
}

// DefaultMultiConfig returns the multi-channel configuration
func DefaultMultiConfig() Config {
	return Config{
		Horizon:    3,
		MaxHorizon: 48,
		MinSamples: 5,
		Thresholds: analytics.DefaultThresholds().Forecast,
	}
}

// Forecast fits one channel of the series and extrapolates cfg.Horizon steps
func Forecast(ts analytics.TimeSeries, ch analytics.Channel, cfg Config) (*Result, error) {
	if ts.Len() < cfg.MinSamples {
		return nil, analytics.NewInsufficientData("forecast", cfg.MinSamples, ts.Len())
	}
	return forecastValues(ch, ts.Values(ch), cfg)
}

// ForecastChannels runs Forecast independently for every channel
func ForecastChannels(ts analytics.TimeSeries, cfg Config) *MultiResult {
	result := &MultiResult{
		Horizon:  cfg.Horizon,
		Channels: make([]Result, 0, len(analytics.Channels)),
	}

	for _, ch := range analytics.Channels {
		values := finiteValues(ts.Values(ch))
		if len(values) < cfg.MinSamples {
			result.Omitted = append(result.Omitted, ch)
			continue
		}

		r, err := forecastValues(ch, values, cfg)
		if err != nil {
			result.Omitted = append(result.Omitted, ch)
			continue
		}
		result.Channels = append(result.Channels, *r)
	}

	return result
}

func forecastValues(ch analytics.Channel, values []float64, cfg Config) (*Result, error) {
	forecaster := NewLinearRegressionForecaster()
	predictions, info, err := forecaster.Forecast(values, cfg.Horizon)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Channel:     ch,
		Trend:       ClassifyTrend(predictions, cfg.Thresholds.StableDelta),
		Predictions: predictions,
		Confidence:  ClassifyConfidence(len(values), cfg.Thresholds.HighConfidenceSamples),
		ModelInfo:   info,
	}
	if len(predictions) > 0 {
		result.PredictedLast = predictions[len(predictions)-1].Value
	}
	return result, nil
}

// ClassifyTrend compares the last and first predicted values
func ClassifyTrend(predictions []Prediction, stableDelta float64) Trend {
	if len(predictions) < 2 {
		return TrendStable
	}

	delta := predictions[len(predictions)-1].Value - predictions[0].Value
	switch {
	case math.Abs(delta) < stableDelta:
		return TrendStable
	case delta > 0:
		return TrendRising
	default:
		return TrendFalling
	}
}

// ClassifyConfidence is high only above the sample threshold
func ClassifyConfidence(samples, highThreshold int) Confidence {
	if samples > highThreshold {
		return ConfidenceHigh
	}
	return ConfidenceMedium
}

func finiteValues(values []float64) []float64 {
	out := values[:0:0]
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// CalculateMAE calculates Mean Absolute Error
func CalculateMAE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

// CalculateRMSE calculates Root Mean Squared Error
func CalculateRMSE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		diff := actual[i] - predicted[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(actual)))
}
