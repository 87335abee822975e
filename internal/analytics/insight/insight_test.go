package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/analytics/aggregate"
	"github.com/soltixdb/climatix/internal/analytics/correlation"
)

func codes(insights []Insight) []string {
	out := make([]string, len(insights))
	for i, in := range insights {
		out[i] = in.Code
	}
	return out
}

func coefficient(v float64) *float64 { return &v }

func pair(x, y analytics.Channel, r float64) correlation.Pair {
	th := analytics.DefaultThresholds().Correlation
	return correlation.Pair{
		X:           x,
		Y:           y,
		Coefficient: coefficient(r),
		Strength:    correlation.Classify(r, th),
		Direction:   correlation.DirectionOf(r),
	}
}

func TestGenerate_PeakAndTrough(t *testing.T) {
	in := Input{
		Hourly: []aggregate.HourlyBucket{
			{Hour: 4, Temperature: aggregate.Range{Mean: 17}},
			{Hour: 13, Temperature: aggregate.Range{Mean: 25}},
			{Hour: 14, Temperature: aggregate.Range{Mean: 25}},
		},
	}

	insights := Generate(in, analytics.DefaultThresholds())
	require.Len(t, insights, 2)
	assert.Equal(t, "📈 Temperature usually peaks at 13:00", insights[0].Text)
	assert.Equal(t, "📉 Temperature is usually lowest at 04:00", insights[1].Text)
}

func TestGenerate_StabilityVerdicts(t *testing.T) {
	th := analytics.DefaultThresholds()

	tests := []struct {
		name     string
		tempStd  float64
		humStd   float64
		expected []string
	}{
		{"stable", 0.5, 2, []string{CodeTempVeryStable, CodeHumStable}},
		{"fluctuating", 3.5, 20, []string{CodeTempFluctuation, CodeHumFluctuation}},
		{"in between", 2, 10, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := aggregate.Stats{
				Count:       20,
				Temperature: aggregate.ChannelStats{Std: tt.tempStd},
				Humidity:    aggregate.ChannelStats{Std: tt.humStd},
				Illuminance: aggregate.ChannelStats{Mean: 500, Min: 100, Max: 900},
			}
			got := Generate(Input{Stats: stats}, th)
			if tt.expected == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.expected, codes(got))
		})
	}
}

func TestGenerate_IlluminanceTiers(t *testing.T) {
	th := analytics.DefaultThresholds()

	tests := []struct {
		mean     float64
		expected string
	}{
		{80, CodeLuxVeryLow},
		{250, CodeLuxLow},
		{1500, CodeLuxHigh},
		{2500, CodeLuxVeryHigh},
	}

	for _, tt := range tests {
		stats := aggregate.Stats{
			Count:       10,
			Temperature: aggregate.ChannelStats{Std: 2},
			Humidity:    aggregate.ChannelStats{Std: 10},
			Illuminance: aggregate.ChannelStats{Mean: tt.mean, Min: 60, Max: 1900},
		}
		assert.Equal(t, []string{tt.expected}, codes(Generate(Input{Stats: stats}, th)), "mean=%v", tt.mean)
	}

	stats := aggregate.Stats{
		Count:       10,
		Temperature: aggregate.ChannelStats{Std: 2},
		Humidity:    aggregate.ChannelStats{Std: 10},
		Illuminance: aggregate.ChannelStats{Mean: 500, Min: 5, Max: 2400},
	}
	assert.Equal(t, []string{CodeLuxBrightPeriods, CodeLuxDimPeriods}, codes(Generate(Input{Stats: stats}, th)))
}

func TestGenerate_Relationships(t *testing.T) {
	th := analytics.DefaultThresholds()

	result := &correlation.Result{
		Samples: 30,
		Pairs: []correlation.Pair{
			pair(analytics.Temperature, analytics.Humidity, -0.8),
			pair(analytics.Temperature, analytics.Illuminance, 0.6),
			{X: analytics.Humidity, Y: analytics.Illuminance, Error: "pearson: zero variance"},
		},
	}

	insights := Generate(Input{Correlation: result}, th)
	// both remarks fire independently
	assert.Equal(t, []string{CodeInverseTempHum, CodeLightDrivesTemp}, codes(insights))

	result.Pairs[0] = pair(analytics.Temperature, analytics.Humidity, -0.4)
	assert.Equal(t, []string{CodeLightDrivesTemp}, codes(Generate(Input{Correlation: result}, th)))
}

func TestCompareInsights(t *testing.T) {
	th := analytics.DefaultThresholds().Comparison

	cmp := &aggregate.Comparison{
		PeriodA: aggregate.Period{Stats: aggregate.Stats{Temperature: aggregate.ChannelStats{Std: 2}}},
		PeriodB: aggregate.Period{Stats: aggregate.Stats{Temperature: aggregate.ChannelStats{Std: 1}}},
		Changes: aggregate.Changes{
			Temperature: aggregate.Change{Percent: 12.5},
			Humidity:    aggregate.Change{Percent: -20},
		},
	}

	insights := CompareInsights(cmp, th)
	require.Len(t, insights, 3)
	assert.Equal(t, "Temperature rose significantly by 12.5%", insights[0].Text)
	assert.Equal(t, "Humidity fell significantly by 20.0%", insights[1].Text)
	assert.Equal(t, CodeStabilityImproved, insights[2].Code)

	cmp.Changes.Temperature.Percent = 10
	cmp.Changes.Humidity.Percent = 15
	cmp.PeriodB.Stats.Temperature.Std = 3
	assert.Equal(t, []string{CodeStabilityWorsened}, codes(CompareInsights(cmp, th)))

	cmp.PeriodB.Stats.Temperature.Std = 2
	assert.Empty(t, CompareInsights(cmp, th))
	assert.Empty(t, CompareInsights(nil, th))
}

func TestRecommend(t *testing.T) {
	th := analytics.DefaultThresholds().Comfort

	stats := aggregate.Stats{
		Count:       500,
		Temperature: aggregate.ChannelStats{Mean: 16},
		Humidity:    aggregate.ChannelStats{Mean: 70},
		Illuminance: aggregate.ChannelStats{Mean: 200},
	}
	assert.Equal(t, []string{CodeRaiseTemperature, CodeDehumidify, CodeAddLight}, codes(Recommend(stats, th)))

	stats = aggregate.Stats{
		Count:       500,
		Temperature: aggregate.ChannelStats{Mean: 21},
		Humidity:    aggregate.ChannelStats{Mean: 50},
		Illuminance: aggregate.ChannelStats{Mean: 450},
	}
	assert.Equal(t, []string{CodeWithinOptimalRange}, codes(Recommend(stats, th)))

	stats.Count = 40
	assert.Equal(t, []string{CodeCollectMoreData}, codes(Recommend(stats, th)))
}
