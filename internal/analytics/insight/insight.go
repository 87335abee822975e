// Package insight turns already computed statistics into short narratives.
// It performs no analysis of its own, so wording can change without touching
// the numeric packages.
package insight

import (
	"fmt"
	"math"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/analytics/aggregate"
	"github.com/soltixdb/climatix/internal/analytics/correlation"
)

// Insight codes
const (
	CodePeakHour           = "temperature_peak_hour"
	CodeTroughHour         = "temperature_trough_hour"
	CodeTempVeryStable     = "temperature_very_stable"
	CodeTempFluctuation    = "temperature_fluctuation"
	CodeHumStable          = "humidity_stable"
	CodeHumFluctuation     = "humidity_fluctuation"
	CodeLuxVeryLow         = "illuminance_very_low"
	CodeLuxLow             = "illuminance_low"
	CodeLuxHigh            = "illuminance_high"
	CodeLuxVeryHigh        = "illuminance_very_high"
	CodeLuxBrightPeriods   = "illuminance_bright_periods"
	CodeLuxDimPeriods      = "illuminance_dim_periods"
	CodeInverseTempHum     = "temperature_humidity_inverse"
	CodeLightDrivesTemp    = "illuminance_drives_temperature"
	CodeTempChange         = "temperature_change"
	CodeHumChange          = "humidity_change"
	CodeStabilityImproved  = "stability_improved"
	CodeStabilityWorsened  = "stability_worsened"
	CodeRaiseTemperature   = "raise_temperature"
	CodeLowerTemperature   = "lower_temperature"
	CodeHumidify           = "humidify"
	CodeDehumidify         = "dehumidify"
	CodeAddLight           = "add_light"
	CodeReduceLight        = "reduce_light"
	CodeCollectMoreData    = "collect_more_data"
	CodeWithinOptimalRange = "within_optimal_range"
)

// Insight is one narrative remark
type Insight struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

// Input bundles the computed statistics the generator reads. Correlation may
// be nil when that analysis failed.
type Input struct {
	Hourly      []aggregate.HourlyBucket
	Stats       aggregate.Stats
	Correlation *correlation.Result
}

// Generate produces the snapshot narrative: peak and trough hours, stability
// verdicts, illuminance remarks and relationship remarks.
func Generate(in Input, th analytics.Thresholds) []Insight {
	insights := []Insight{}

	if summary := aggregate.SummarizeHourly(in.Hourly); summary != nil {
		insights = append(insights,
			Insight{CodePeakHour, fmt.Sprintf("📈 Temperature usually peaks at %02d:00", summary.HottestHour.Hour)},
			Insight{CodeTroughHour, fmt.Sprintf("📉 Temperature is usually lowest at %02d:00", summary.ColdestHour.Hour)},
		)
	}

	if in.Stats.Count > 0 {
		insights = append(insights, stability(in.Stats, th.Stability)...)
		insights = append(insights, illuminance(in.Stats.Illuminance, th.Stability)...)
	}

	if in.Correlation != nil {
		insights = append(insights, relationships(in.Correlation, th.Correlation)...)
	}

	return insights
}

func stability(stats aggregate.Stats, th analytics.StabilityThresholds) []Insight {
	var insights []Insight

	switch temp := stats.Temperature.Std; {
	case temp < th.TempStableStd:
		insights = append(insights, Insight{CodeTempVeryStable, "🌡️ Temperature is very stable"})
	case temp > th.TempFluctuationStd:
		insights = append(insights, Insight{CodeTempFluctuation, "🌡️ Significant temperature fluctuations detected"})
	}

	switch hum := stats.Humidity.Std; {
	case hum < th.HumStableStd:
		insights = append(insights, Insight{CodeHumStable, "💧 Humidity level is stable"})
	case hum > th.HumFluctuationStd:
		insights = append(insights, Insight{CodeHumFluctuation, "💧 Significant humidity fluctuations detected"})
	}

	return insights
}

func illuminance(lux aggregate.ChannelStats, th analytics.StabilityThresholds) []Insight {
	var insights []Insight

	switch {
	case lux.Mean < th.LuxVeryLow:
		insights = append(insights, Insight{CodeLuxVeryLow, fmt.Sprintf("💡 Very low illuminance (%.0f lux on average)", lux.Mean)})
	case lux.Mean < th.LuxLow:
		insights = append(insights, Insight{CodeLuxLow, fmt.Sprintf("💡 Illuminance below recommended level (%.0f lux on average)", lux.Mean)})
	case lux.Mean > th.LuxVeryHigh:
		insights = append(insights, Insight{CodeLuxVeryHigh, fmt.Sprintf("💡 Very high illuminance (%.0f lux on average)", lux.Mean)})
	case lux.Mean > th.LuxHigh:
		insights = append(insights, Insight{CodeLuxHigh, fmt.Sprintf("💡 Illuminance above recommended level (%.0f lux on average)", lux.Mean)})
	}

	if lux.Max > th.LuxPeak {
		insights = append(insights, Insight{CodeLuxBrightPeriods, "☀️ Periods of very bright illumination detected"})
	}
	if lux.Min < th.LuxDim {
		insights = append(insights, Insight{CodeLuxDimPeriods, "🌑 Periods of very dim illumination detected"})
	}

	return insights
}

func relationships(result *correlation.Result, th analytics.CorrelationThresholds) []Insight {
	var insights []Insight

	if r, ok := result.Coefficient(analytics.Temperature, analytics.Humidity); ok && r < th.InverseTempHum {
		insights = append(insights, Insight{CodeInverseTempHum, "🔁 Strong inverse coupling: temperature ↑ → humidity ↓"})
	}
	if r, ok := result.Coefficient(analytics.Temperature, analytics.Illuminance); ok && r > th.TempLux {
		insights = append(insights, Insight{CodeLightDrivesTemp, "💡 Illumination strongly influences temperature"})
	}

	return insights
}

// CompareInsights narrates a period comparison
func CompareInsights(cmp *aggregate.Comparison, th analytics.ComparisonThresholds) []Insight {
	insights := []Insight{}
	if cmp == nil {
		return insights
	}

	if temp := cmp.Changes.Temperature.Percent; math.Abs(temp) > th.TempPercent {
		insights = append(insights, Insight{CodeTempChange,
			fmt.Sprintf("Temperature %s significantly by %.1f%%", direction(temp), math.Abs(temp))})
	}
	if hum := cmp.Changes.Humidity.Percent; math.Abs(hum) > th.HumPercent {
		insights = append(insights, Insight{CodeHumChange,
			fmt.Sprintf("Humidity %s significantly by %.1f%%", direction(hum), math.Abs(hum))})
	}

	stdA := cmp.PeriodA.Stats.Temperature.Std
	stdB := cmp.PeriodB.Stats.Temperature.Std
	switch {
	case stdB < stdA:
		insights = append(insights, Insight{CodeStabilityImproved, "Temperature regime became more stable"})
	case stdB > stdA:
		insights = append(insights, Insight{CodeStabilityWorsened, "Temperature fluctuations increased"})
	}

	return insights
}

func direction(percent float64) string {
	if percent > 0 {
		return "rose"
	}
	return "fell"
}

// Recommend suggests actions when channel means leave the comfort ranges
func Recommend(stats aggregate.Stats, th analytics.ComfortThresholds) []Insight {
	insights := []Insight{}
	if stats.Count == 0 {
		return insights
	}

	switch temp := stats.Temperature.Mean; {
	case temp < th.TempLow:
		insights = append(insights, Insight{CodeRaiseTemperature, "Increase room temperature to 20-22°C"})
	case temp > th.TempHigh:
		insights = append(insights, Insight{CodeLowerTemperature, "Decrease room temperature to 20-22°C"})
	}

	switch hum := stats.Humidity.Mean; {
	case hum < th.HumLow:
		insights = append(insights, Insight{CodeHumidify, "Use a humidifier to increase humidity"})
	case hum > th.HumHigh:
		insights = append(insights, Insight{CodeDehumidify, "Increase ventilation or use a dehumidifier"})
	}

	switch lux := stats.Illuminance.Mean; {
	case lux < th.LuxLow:
		insights = append(insights, Insight{CodeAddLight, "Add artificial lighting"})
	case lux > th.LuxHigh:
		insights = append(insights, Insight{CodeReduceLight, "Use blinds or curtains to reduce illuminance"})
	}

	if stats.Count < th.MinSamples {
		insights = append(insights, Insight{CodeCollectMoreData, "Collect more data for more accurate analysis"})
	}
	if len(insights) == 0 {
		insights = append(insights, Insight{CodeWithinOptimalRange, "Climate parameters are within optimal ranges"})
	}

	return insights
}

// Texts flattens insights to their text
func Texts(insights []Insight) []string {
	texts := make([]string, len(insights))
	for i, in := range insights {
		texts[i] = in.Text
	}
	return texts
}
