package analytics

// Thresholds collects every numeric rule of the engine in one place so that
// analyses and narratives read limits from configuration instead of literals.
type Thresholds struct {
	Classification ClassificationThresholds `mapstructure:"classification" json:"classification"`
	Forecast       ForecastThresholds       `mapstructure:"forecast" json:"forecast"`
	Correlation    CorrelationThresholds    `mapstructure:"correlation" json:"correlation"`
	Stability      StabilityThresholds      `mapstructure:"stability" json:"stability"`
	Comparison     ComparisonThresholds     `mapstructure:"comparison" json:"comparison"`
	Comfort        ComfortThresholds        `mapstructure:"comfort" json:"comfort"`
}

// ClassificationThresholds label a flagged anomaly by absolute value
type ClassificationThresholds struct {
	TempHigh float64 `mapstructure:"temp_high" json:"temp_high"`
	TempLow  float64 `mapstructure:"temp_low" json:"temp_low"`
	HumHigh  float64 `mapstructure:"hum_high" json:"hum_high"`
	HumLow   float64 `mapstructure:"hum_low" json:"hum_low"`
	LuxHigh  float64 `mapstructure:"lux_high" json:"lux_high"`
	LuxLow   float64 `mapstructure:"lux_low" json:"lux_low"`
}

// ForecastThresholds drive trend and confidence classification
type ForecastThresholds struct {
	StableDelta           float64 `mapstructure:"stable_delta" json:"stable_delta"`
	HighConfidenceSamples int     `mapstructure:"high_confidence_samples" json:"high_confidence_samples"`
}

// CorrelationThresholds are bands on |r|
type CorrelationThresholds struct {
	Moderate       float64 `mapstructure:"moderate" json:"moderate"`
	Strong         float64 `mapstructure:"strong" json:"strong"`
	Significant    float64 `mapstructure:"significant" json:"significant"`
	InverseTempHum float64 `mapstructure:"inverse_temp_hum" json:"inverse_temp_hum"`
	TempLux        float64 `mapstructure:"temp_lux" json:"temp_lux"`
}

// StabilityThresholds drive the insight verdicts
type StabilityThresholds struct {
	TempStableStd      float64 `mapstructure:"temp_stable_std" json:"temp_stable_std"`
	TempFluctuationStd float64 `mapstructure:"temp_fluctuation_std" json:"temp_fluctuation_std"`
	HumStableStd       float64 `mapstructure:"hum_stable_std" json:"hum_stable_std"`
	HumFluctuationStd  float64 `mapstructure:"hum_fluctuation_std" json:"hum_fluctuation_std"`
	LuxVeryLow         float64 `mapstructure:"lux_very_low" json:"lux_very_low"`
	LuxLow             float64 `mapstructure:"lux_low" json:"lux_low"`
	LuxHigh            float64 `mapstructure:"lux_high" json:"lux_high"`
	LuxVeryHigh        float64 `mapstructure:"lux_very_high" json:"lux_very_high"`
	LuxPeak            float64 `mapstructure:"lux_peak" json:"lux_peak"`
	LuxDim             float64 `mapstructure:"lux_dim" json:"lux_dim"`
}

// ComparisonThresholds trigger period comparison narratives (percent change)
type ComparisonThresholds struct {
	TempPercent float64 `mapstructure:"temp_percent" json:"temp_percent"`
	HumPercent  float64 `mapstructure:"hum_percent" json:"hum_percent"`
}

// ComfortThresholds bound the comfortable indoor ranges used by recommendations
type ComfortThresholds struct {
	TempLow    float64 `mapstructure:"temp_low" json:"temp_low"`
	TempHigh   float64 `mapstructure:"temp_high" json:"temp_high"`
	HumLow     float64 `mapstructure:"hum_low" json:"hum_low"`
	HumHigh    float64 `mapstructure:"hum_high" json:"hum_high"`
	LuxLow     float64 `mapstructure:"lux_low" json:"lux_low"`
	LuxHigh    float64 `mapstructure:"lux_high" json:"lux_high"`
	MinSamples int     `mapstructure:"min_samples" json:"min_samples"`
}

// DefaultThresholds returns the limits the engine ships with
func DefaultThresholds() Thresholds {
	return Thresholds{
		Classification: ClassificationThresholds{
			TempHigh: 28,
			TempLow:  15,
			HumHigh:  75,
			HumLow:   30,
			LuxHigh:  1500,
			LuxLow:   50,
		},
		Forecast: ForecastThresholds{
			StableDelta:           0.5,
			HighConfidenceSamples: 50,
		},
		Correlation: CorrelationThresholds{
			Moderate:       0.3,
			Strong:         0.7,
			Significant:    0.3,
			InverseTempHum: -0.5,
			TempLux:        0.5,
		},
		Stability: StabilityThresholds{
			TempStableStd:      1.0,
			TempFluctuationStd: 3.0,
			HumStableStd:       5,
			HumFluctuationStd:  15,
			LuxVeryLow:         100,
			LuxLow:             300,
			LuxHigh:            1000,
			LuxVeryHigh:        2000,
			LuxPeak:            2000,
			LuxDim:             50,
		},
		Comparison: ComparisonThresholds{
			TempPercent: 10,
			HumPercent:  15,
		},
		Comfort: ComfortThresholds{
			TempLow:    18,
			TempHigh:   24,
			HumLow:     40,
			HumHigh:    60,
			LuxLow:     300,
			LuxHigh:    1000,
			MinSamples: 100,
		},
	}
}
