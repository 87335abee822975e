package aggregate

import (
	"github.com/soltixdb/climatix/internal/analytics"
)

// ChannelStats describes one channel over a whole snapshot. Std is the
// population standard deviation.
type ChannelStats struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Stats holds ChannelStats for every channel
type Stats struct {
	Count       int          `json:"count"`
	Temperature ChannelStats `json:"temperature"`
	Humidity    ChannelStats `json:"humidity"`
	Illuminance ChannelStats `json:"illuminance"`
}

// Channel returns the stats of a channel
func (s Stats) Channel(ch analytics.Channel) ChannelStats {
	switch ch {
	case analytics.Humidity:
		return s.Humidity
	case analytics.Illuminance:
		return s.Illuminance
	default:
		return s.Temperature
	}
}

// Describe computes per-channel statistics of the snapshot
func Describe(ts analytics.TimeSeries) Stats {
	return Stats{
		Count:       ts.Len(),
		Temperature: describe(ts.Values(analytics.Temperature)),
		Humidity:    describe(ts.Values(analytics.Humidity)),
		Illuminance: describe(ts.Values(analytics.Illuminance)),
	}
}

func describe(values []float64) ChannelStats {
	min, max := analytics.MinMax(values)
	return ChannelStats{
		Mean:  analytics.Mean(values),
		Std:   analytics.StdDev(values),
		Min:   min,
		Max:   max,
		Count: len(values),
	}
}

// Trend tags the sign of a period-over-period change
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Change is the delta of a channel mean from period A to period B
type Change struct {
	Absolute float64 `json:"absolute"` // two decimals
	Percent  float64 `json:"percent"`  // one decimal
	Trend    Trend   `json:"trend"`
}

// Changes holds Change for every channel
type Changes struct {
	Temperature Change `json:"temperature"`
	Humidity    Change `json:"humidity"`
	Illuminance Change `json:"illuminance"`
}

// Channel returns the change of a channel
func (c Changes) Channel(ch analytics.Channel) Change {
	switch ch {
	case analytics.Humidity:
		return c.Humidity
	case analytics.Illuminance:
		return c.Illuminance
	default:
		return c.Temperature
	}
}

// Period is a named, described snapshot
type Period struct {
	Name  string `json:"name"`
	Stats Stats  `json:"stats"`
}

// Comparison is the result of comparing period A against period B
type Comparison struct {
	PeriodA Period  `json:"period_a"`
	PeriodB Period  `json:"period_b"`
	Changes Changes `json:"changes"`
}

// Compare describes both snapshots and computes the change of every channel
// mean. Both snapshots must hold at least one sample.
func Compare(nameA string, a analytics.TimeSeries, nameB string, b analytics.TimeSeries) (*Comparison, error) {
	if a.Empty() {
		return nil, analytics.NewInsufficientData("comparison of "+nameA, 1, 0)
	}
	if b.Empty() {
		return nil, analytics.NewInsufficientData("comparison of "+nameB, 1, 0)
	}

	statsA := Describe(a)
	statsB := Describe(b)

	return &Comparison{
		PeriodA: Period{Name: nameA, Stats: statsA},
		PeriodB: Period{Name: nameB, Stats: statsB},
		Changes: Changes{
			Temperature: ChangeOf(statsA.Temperature.Mean, statsB.Temperature.Mean),
			Humidity:    ChangeOf(statsA.Humidity.Mean, statsB.Humidity.Mean),
			Illuminance: ChangeOf(statsA.Illuminance.Mean, statsB.Illuminance.Mean),
		},
	}, nil
}

// ChangeOf computes the change from meanA to meanB. Percent is 0 when meanA
// is 0.
func ChangeOf(meanA, meanB float64) Change {
	percent := 0.0
	if meanA != 0 {
		percent = (meanB - meanA) / meanA * 100
	}

	trend := TrendStable
	switch {
	case percent > 0:
		trend = TrendUp
	case percent < 0:
		trend = TrendDown
	}

	return Change{
		Absolute: analytics.Round(meanB-meanA, 2),
		Percent:  analytics.Round(percent, 1),
		Trend:    trend,
	}
}
