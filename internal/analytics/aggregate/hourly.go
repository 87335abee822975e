// Package aggregate groups a snapshot by hour of day and compares two
// independently filtered periods.
package aggregate

import (
	"fmt"

	"github.com/soltixdb/climatix/internal/analytics"
)

// Range is the mean/min/max of one channel inside a bucket
type Range struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// HourlyBucket collects every sample taken during one hour of day,
// regardless of the date
type HourlyBucket struct {
	Hour        int   `json:"hour"`
	Temperature Range `json:"temperature"`
	Humidity    Range `json:"humidity"`
	Illuminance Range `json:"illuminance"`
	Count       int   `json:"count"`
}

// Channel returns the bucket range of a channel
func (b HourlyBucket) Channel(ch analytics.Channel) Range {
	switch ch {
	case analytics.Humidity:
		return b.Humidity
	case analytics.Illuminance:
		return b.Illuminance
	default:
		return b.Temperature
	}
}

// Hourly buckets the snapshot by hour of day. Only hours that have samples
// are returned, in ascending order.
func Hourly(ts analytics.TimeSeries) []HourlyBucket {
	var groups [24][]analytics.Reading
	for _, s := range ts.Samples {
		groups[s.Hour] = append(groups[s.Hour], s.Reading)
	}

	buckets := make([]HourlyBucket, 0, 24)
	for hour, readings := range groups {
		if len(readings) == 0 {
			continue
		}
		buckets = append(buckets, HourlyBucket{
			Hour:        hour,
			Temperature: rangeOf(readings, analytics.Temperature),
			Humidity:    rangeOf(readings, analytics.Humidity),
			Illuminance: rangeOf(readings, analytics.Illuminance),
			Count:       len(readings),
		})
	}
	return buckets
}

func rangeOf(readings []analytics.Reading, ch analytics.Channel) Range {
	values := make([]float64, len(readings))
	for i, r := range readings {
		values[i] = r.Value(ch)
	}
	min, max := analytics.MinMax(values)
	return Range{
		Mean: analytics.Mean(values),
		Min:  min,
		Max:  max,
	}
}

// HourMark points at the hour holding an extreme hourly mean
type HourMark struct {
	Hour  int     `json:"hour"`
	Value float64 `json:"value"`
}

// Format renders the mark as "14:00 (23.5°C)"
func (m HourMark) Format(unit string) string {
	return fmt.Sprintf("%02d:00 (%.1f%s)", m.Hour, m.Value, unit)
}

// HourlySummary picks the extreme hours out of the buckets
type HourlySummary struct {
	HottestHour    HourMark `json:"hottest_hour"`
	ColdestHour    HourMark `json:"coldest_hour"`
	MostHumidHour  HourMark `json:"most_humid_hour"`
	LeastHumidHour HourMark `json:"least_humid_hour"`
	TempVariation  float64  `json:"temp_variation"`
}

// SummarizeHourly returns nil for no buckets. When hours tie, the earliest
// one wins.
func SummarizeHourly(buckets []HourlyBucket) *HourlySummary {
	if len(buckets) == 0 {
		return nil
	}

	first := buckets[0]
	hottest := HourMark{Hour: first.Hour, Value: first.Temperature.Mean}
	coldest := hottest
	humid := HourMark{Hour: first.Hour, Value: first.Humidity.Mean}
	dry := humid

	for _, b := range buckets[1:] {
		if b.Temperature.Mean > hottest.Value {
			hottest = HourMark{Hour: b.Hour, Value: b.Temperature.Mean}
		}
		if b.Temperature.Mean < coldest.Value {
			coldest = HourMark{Hour: b.Hour, Value: b.Temperature.Mean}
		}
		if b.Humidity.Mean > humid.Value {
			humid = HourMark{Hour: b.Hour, Value: b.Humidity.Mean}
		}
		if b.Humidity.Mean < dry.Value {
			dry = HourMark{Hour: b.Hour, Value: b.Humidity.Mean}
		}
	}

	return &HourlySummary{
		HottestHour:    hottest,
		ColdestHour:    coldest,
		MostHumidHour:  humid,
		LeastHumidHour: dry,
		TempVariation:  analytics.Round(hottest.Value-coldest.Value, 1),
	}
}
