package forecast

import (
	"fmt"
)

// LinearModel is y = Intercept + Slope*x where x is the sample index
type LinearModel struct {
	Slope     float64
	Intercept float64
}

// Predict evaluates the model at index x
func (m LinearModel) Predict(x float64) float64 {
	return m.Intercept + m.Slope*x
}

// FitLinear fits an ordinary least-squares line to values against their
// index 0..n-1. Uneven wall-clock spacing is deliberately ignored: every
// sample counts as one step.
func FitLinear(values []float64) (LinearModel, error) {
	n := len(values)
	if n == 0 {
		return LinearModel{}, fmt.Errorf("cannot fit regression: no values")
	}
	if n == 1 {
		return LinearModel{Intercept: values[0]}, nil
	}

	meanX := float64(n-1) / 2
	meanY := 0.0
	for _, v := range values {
		meanY += v
	}
	meanY /= float64(n)

	// Centered sums keep a constant series at an exact zero slope
	var sxy, sxx float64
	for i, v := range values {
		dx := float64(i) - meanX
		sxy += dx * (v - meanY)
		sxx += dx * dx
	}

	slope := sxy / sxx
	return LinearModel{
		Slope:     slope,
		Intercept: meanY - slope*meanX,
	}, nil
}

// LinearRegressionForecaster implements index-based linear extrapolation
type LinearRegressionForecaster struct{}

// NewLinearRegressionForecaster creates a new Linear Regression forecaster
func NewLinearRegressionForecaster() *LinearRegressionForecaster {
	return &LinearRegressionForecaster{}
}

// Name returns the algorithm name
func (f *LinearRegressionForecaster) Name() string {
	return "linear"
}

// Forecast fits values and predicts horizon steps past the last index
func (f *LinearRegressionForecaster) Forecast(values []float64, horizon int) ([]Prediction, ModelInfo, error) {
	if horizon < 1 {
		return nil, ModelInfo{}, fmt.Errorf("horizon must be positive, got %d", horizon)
	}

	model, err := FitLinear(values)
	if err != nil {
		return nil, ModelInfo{}, err
	}

	fitted := make([]float64, len(values))
	for i := range values {
		fitted[i] = model.Predict(float64(i))
	}

	predictions := make([]Prediction, horizon)
	for i := 0; i < horizon; i++ {
		predictions[i] = Prediction{
			Step:  i + 1,
			Value: model.Predict(float64(len(values) + i)),
		}
	}

	return predictions, ModelInfo{
		Algorithm:  f.Name(),
		Slope:      model.Slope,
		Intercept:  model.Intercept,
		MAE:        CalculateMAE(values, fitted),
		RMSE:       CalculateRMSE(values, fitted),
		DataPoints: len(values),
	}, nil
}
