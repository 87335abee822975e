package forecast

import (
	"math"
	"testing"
)

func TestFitLinear_ExactLine(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 2*float64(i) + 5 // y = 2x + 5
	}

	model, err := FitLinear(values)
	if err != nil {
		t.Fatalf("FitLinear failed: %v", err)
	}

	if math.Abs(model.Slope-2) > 1e-9 {
		t.Errorf("Expected slope 2, got %v", model.Slope)
	}
	if math.Abs(model.Intercept-5) > 1e-9 {
		t.Errorf("Expected intercept 5, got %v", model.Intercept)
	}
	if math.Abs(model.Predict(25)-55) > 1e-9 {
		t.Errorf("Expected prediction 55 at x=25, got %v", model.Predict(25))
	}
}

func TestFitLinear_Constant(t *testing.T) {
	values := []float64{20, 20, 20, 20, 20, 20, 20, 20, 20, 20}

	model, err := FitLinear(values)
	if err != nil {
		t.Fatalf("FitLinear failed: %v", err)
	}
	if model.Slope != 0 {
		t.Errorf("Expected zero slope for constant data, got %v", model.Slope)
	}
	if model.Intercept != 20 {
		t.Errorf("Expected intercept 20, got %v", model.Intercept)
	}
}

func TestFitLinear_Degenerate(t *testing.T) {
	if _, err := FitLinear(nil); err == nil {
		t.Error("Expected error for empty input")
	}

	model, err := FitLinear([]float64{7})
	if err != nil {
		t.Fatalf("FitLinear failed on single value: %v", err)
	}
	if model.Slope != 0 || model.Intercept != 7 {
		t.Errorf("Expected flat line at 7, got slope=%v intercept=%v", model.Slope, model.Intercept)
	}
}

func TestLinearRegressionForecaster_Name(t *testing.T) {
	forecaster := NewLinearRegressionForecaster()
	if forecaster.Name() != "linear" {
		t.Errorf("Expected name 'linear', got '%s'", forecaster.Name())
	}
}

func TestLinearRegressionForecaster_BasicForecast(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 2*float64(i) + 5
	}

	forecaster := NewLinearRegressionForecaster()
	predictions, info, err := forecaster.Forecast(values, 5)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}

	if len(predictions) != 5 {
		t.Fatalf("Expected 5 predictions, got %d", len(predictions))
	}
	for i, p := range predictions {
		if p.Step != i+1 {
			t.Errorf("Prediction %d: expected step %d, got %d", i, i+1, p.Step)
		}
		expected := 2*float64(50+i) + 5
		if math.Abs(p.Value-expected) > 1e-9 {
			t.Errorf("Prediction %d: expected %v, got %v", i, expected, p.Value)
		}
	}

	if info.Algorithm != "linear" {
		t.Errorf("Expected algorithm 'linear', got '%s'", info.Algorithm)
	}
	if info.DataPoints != 50 {
		t.Errorf("Expected 50 data points, got %d", info.DataPoints)
	}
	if info.MAE > 1e-9 || info.RMSE > 1e-9 {
		t.Errorf("Expected zero fit error on exact line, got MAE=%v RMSE=%v", info.MAE, info.RMSE)
	}
}

func TestLinearRegressionForecaster_InvalidHorizon(t *testing.T) {
	forecaster := NewLinearRegressionForecaster()
	if _, _, err := forecaster.Forecast([]float64{1, 2, 3}, 0); err == nil {
		t.Error("Expected error for zero horizon")
	}
}
