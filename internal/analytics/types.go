// Package analytics provides the shared types of the climate analytics engine:
// sensor records, the normalized time series produced by the data preparer,
// statistical helpers and the error taxonomy used by every analysis package.
package analytics

import (
	"math"
	"sort"
	"time"
)

// Channel identifies one measured quantity.
type Channel string

const (
	Temperature Channel = "temperature"
	Humidity    Channel = "humidity"
	Illuminance Channel = "illuminance"
)

// Channels lists every channel in declaration order. Iteration over channels
// always follows this order so results stay deterministic.
var Channels = []Channel{Temperature, Humidity, Illuminance}

// Unit returns the measurement unit of the channel
func (c Channel) Unit() string {
	switch c {
	case Temperature:
		return "°C"
	case Humidity:
		return "%"
	case Illuminance:
		return "lux"
	default:
		return ""
	}
}

// ParseChannel accepts both the long names and the short wire names (temp, hum, lux)
func ParseChannel(s string) (Channel, bool) {
	switch s {
	case "temperature", "temp":
		return Temperature, true
	case "humidity", "hum":
		return Humidity, true
	case "illuminance", "lux":
		return Illuminance, true
	default:
		return "", false
	}
}

// Record is a reading as it arrives on the wire. Required fields are pointers
// so that a missing field can be told apart from a zero value.
type Record struct {
	DeviceID  string   `json:"device_id,omitempty"`
	Timestamp *int64   `json:"timestamp"`
	Temp      *float64 `json:"temp"`
	Hum       *float64 `json:"hum"`
	Lux       *float64 `json:"lux"`
}

// Reading returns the typed reading, or false if a required field is missing
func (r Record) Reading() (Reading, bool) {
	if r.Timestamp == nil || r.Temp == nil || r.Hum == nil || r.Lux == nil {
		return Reading{}, false
	}
	return Reading{
		Timestamp: *r.Timestamp,
		Temp:      *r.Temp,
		Hum:       *r.Hum,
		Lux:       *r.Lux,
	}, true
}

// Reading is a complete sensor reading with seconds-since-epoch timestamp
type Reading struct {
	Timestamp int64   `json:"timestamp"`
	Temp      float64 `json:"temp"`
	Hum       float64 `json:"hum"`
	Lux       float64 `json:"lux"`
}

// Value returns the reading's value for a channel
func (r Reading) Value(ch Channel) float64 {
	switch ch {
	case Temperature:
		return r.Temp
	case Humidity:
		return r.Hum
	case Illuminance:
		return r.Lux
	default:
		return math.NaN()
	}
}

// Sample is a reading augmented with calendar fields derived from its timestamp
type Sample struct {
	Reading
	Time      time.Time `json:"-"`
	Hour      int       `json:"hour"`
	DayOfWeek int       `json:"day_of_week"` // Monday=0 .. Sunday=6
	Weekend   bool      `json:"weekend"`
}

// TimeSeries is a snapshot sorted ascending by timestamp. It is built by
// Prepare and never modified afterwards.
type TimeSeries struct {
	Samples  []Sample
	Location *time.Location
	Skipped  int // records dropped because a required field was missing
}

// Len returns the number of samples
func (ts TimeSeries) Len() int {
	return len(ts.Samples)
}

// Empty reports whether the snapshot holds no usable sample
func (ts TimeSeries) Empty() bool {
	return len(ts.Samples) == 0
}

// Values extracts one channel as a new slice
func (ts TimeSeries) Values(ch Channel) []float64 {
	values := make([]float64, len(ts.Samples))
	for i, s := range ts.Samples {
		values[i] = s.Value(ch)
	}
	return values
}

// Readings returns the underlying readings in time order
func (ts TimeSeries) Readings() []Reading {
	readings := make([]Reading, len(ts.Samples))
	for i, s := range ts.Samples {
		readings[i] = s.Reading
	}
	return readings
}

// First returns the earliest sample time, zero if empty
func (ts TimeSeries) First() time.Time {
	if len(ts.Samples) == 0 {
		return time.Time{}
	}
	return ts.Samples[0].Time
}

// Last returns the latest sample time, zero if empty
func (ts TimeSeries) Last() time.Time {
	if len(ts.Samples) == 0 {
		return time.Time{}
	}
	return ts.Samples[len(ts.Samples)-1].Time
}

// Prepare normalizes wire records into a TimeSeries. Records missing a
// required field are skipped and counted. The input slice is not modified.
// A nil location means UTC.
func Prepare(records []Record, loc *time.Location) TimeSeries {
	readings := make([]Reading, 0, len(records))
	skipped := 0
	for _, rec := range records {
		r, ok := rec.Reading()
		if !ok {
			skipped++
			continue
		}
		readings = append(readings, r)
	}

	ts := PrepareReadings(readings, loc)
	ts.Skipped = skipped
	return ts
}

// PrepareReadings normalizes typed readings into a TimeSeries.
// Sorting is stable, so readings sharing a timestamp keep arrival order.
func PrepareReadings(readings []Reading, loc *time.Location) TimeSeries {
	if loc == nil {
		loc = time.UTC
	}

	samples := make([]Sample, len(readings))
	for i, r := range readings {
		t := time.Unix(r.Timestamp, 0).In(loc)
		dow := (int(t.Weekday()) + 6) % 7
		samples[i] = Sample{
			Reading:   r,
			Time:      t,
			Hour:      t.Hour(),
			DayOfWeek: dow,
			Weekend:   dow >= 5,
		}
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp < samples[j].Timestamp
	})

	return TimeSeries{
		Samples:  samples,
		Location: loc,
	}
}

// Mean calculates the arithmetic mean, 0 for empty input
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev calculates the population standard deviation
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// MinMax returns the smallest and largest value, zeros for empty input
func MinMax(values []float64) (min, max float64) {
	if len(values) == 0 {
		return 0, 0
	}
	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Percentile calculates the p-th percentile (0-100) of sorted data with
// linear interpolation between closest ranks.
func Percentile(sortedData []float64, p float64) float64 {
	if len(sortedData) == 0 {
		return 0
	}
	if len(sortedData) == 1 {
		return sortedData[0]
	}

	index := (p / 100) * float64(len(sortedData)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sortedData) {
		return sortedData[len(sortedData)-1]
	}

	weight := index - float64(lower)
	return sortedData[lower] + (sortedData[upper]-sortedData[lower])*weight
}

// Round rounds to the given number of decimals
func Round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
