// Package downsampling thins a reading series for charting while keeping
// its visual shape. Point selection runs on one channel; the selected
// readings keep all their channels.
package downsampling

import (
	"fmt"
	"math"
	"strings"

	"github.com/soltixdb/climatix/internal/analytics"
)

// Mode represents the downsampling mode
type Mode string

const (
	ModeNone    Mode = "none"
	ModeAuto    Mode = "auto"   // pick an algorithm from the series' spikiness
	ModeLTTB    Mode = "lttb"   // Largest-Triangle-Three-Buckets
	ModeMinMax  Mode = "minmax" // min and max per bucket, keeps spikes
	ModeAverage Mode = "avg"    // bucket means, synthesizes readings
	ModeM4      Mode = "m4"     // first, min, max, last per bucket
)

// DefaultThreshold is the target point count when none is given
const DefaultThreshold = 500

// minThreshold keeps at least the two endpoints
const minThreshold = 2

// ParseMode maps a query value to a Mode. Empty means auto.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case "":
		return ModeAuto, nil
	case ModeNone, ModeAuto, ModeLTTB, ModeMinMax, ModeAverage, ModeM4:
		return m, nil
	}
	return "", fmt.Errorf("unknown downsampling mode: %s", s)
}

// Downsample reduces readings to about threshold points selected on ch.
// It returns the mode actually applied, ModeNone when the series is
// already small enough.
func Downsample(readings []analytics.Reading, ch analytics.Channel, mode Mode, threshold int) ([]analytics.Reading, Mode, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if threshold < minThreshold {
		threshold = minThreshold
	}
	if mode == ModeNone || len(readings) <= threshold {
		return readings, ModeNone, nil
	}

	values := make([]float64, len(readings))
	for i, r := range readings {
		values[i] = r.Value(ch)
	}

	if mode == ModeAuto {
		mode = pick(values)
	}

	var idx []int
	switch mode {
	case ModeLTTB:
		idx = lttb(values, threshold)
	case ModeMinMax:
		idx = minmax(values, threshold)
	case ModeM4:
		idx = m4(values, threshold)
	case ModeAverage:
		return average(readings, threshold), ModeAverage, nil
	default:
		return nil, "", fmt.Errorf("unknown downsampling mode: %s", mode)
	}

	out := make([]analytics.Reading, len(idx))
	for i, j := range idx {
		out[i] = readings[j]
	}
	return out, mode, nil
}

// pick prefers minmax for spiky series, m4 for moderately spiky ones and
// lttb for smooth ones
func pick(values []float64) Mode {
	s := spikiness(values)
	switch {
	case s > 0.2:
		return ModeMinMax
	case s > 0.1:
		return ModeM4
	default:
		return ModeLTTB
	}
}

// spikiness is in [0, 1]: the share of values beyond 2 sigma blended with
// the share of steps larger than 1 sigma, steps weighted 1.5
func spikiness(values []float64) float64 {
	n := len(values)
	if n < 10 {
		return 0
	}

	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	sigma := math.Sqrt(variance / float64(n))
	if sigma == 0 {
		return 0
	}

	var outliers, jumps int
	for i, v := range values {
		if math.Abs(v-mean) > 2*sigma {
			outliers++
		}
		if i > 0 && math.Abs(v-values[i-1]) > sigma {
			jumps++
		}
	}

	s := (float64(outliers)/float64(n) + 1.5*float64(jumps)/float64(n-1)) / 2.5
	return math.Min(s, 1)
}

// bucket returns the [start, end) bounds of bucket i of count over n values
func bucket(i, count, n int) (int, int) {
	size := float64(n) / float64(count)
	start := int(float64(i) * size)
	end := int(float64(i+1) * size)
	if end > n {
		end = n
	}
	return start, end
}

// extremes returns the indices of the min and max of values[start:end]
func extremes(values []float64, start, end int) (int, int) {
	lo, hi := start, start
	for j := start + 1; j < end; j++ {
		if values[j] < values[lo] {
			lo = j
		}
		if values[j] > values[hi] {
			hi = j
		}
	}
	return lo, hi
}

// lttb keeps the endpoints and, per inner bucket, the point forming the
// largest triangle with the previous pick and the next bucket's centroid
func lttb(values []float64, threshold int) []int {
	n := len(values)
	if threshold <= 2 {
		return []int{0, n - 1}
	}

	out := make([]int, 0, threshold)
	out = append(out, 0)

	size := float64(n-2) / float64(threshold-2)
	prev := 0
	for i := 0; i < threshold-2; i++ {
		nextStart := int(math.Floor(float64(i+1)*size)) + 1
		nextEnd := int(math.Floor(float64(i+2)*size)) + 1
		if nextEnd > n {
			nextEnd = n
		}
		var cx, cy float64
		for j := nextStart; j < nextEnd; j++ {
			cx += float64(j)
			cy += values[j]
		}
		if k := float64(nextEnd - nextStart); k > 0 {
			cx /= k
			cy /= k
		}

		start := int(math.Floor(float64(i)*size)) + 1
		end := int(math.Floor(float64(i+1)*size)) + 1
		best, bestArea := start, -1.0
		ax, ay := float64(prev), values[prev]
		for j := start; j < end; j++ {
			area := math.Abs((ax-cx)*(values[j]-ay) - (ax-float64(j))*(cy-ay))
			if area > bestArea {
				best, bestArea = j, area
			}
		}
		out = append(out, best)
		prev = best
	}

	return append(out, n-1)
}

// minmax keeps the min and max of each of threshold/2 buckets in time order
func minmax(values []float64, threshold int) []int {
	buckets := threshold / 2
	if buckets < 1 {
		buckets = 1
	}

	out := make([]int, 0, buckets*2)
	for i := 0; i < buckets; i++ {
		start, end := bucket(i, buckets, len(values))
		if start >= end {
			continue
		}
		lo, hi := extremes(values, start, end)
		if lo > hi {
			lo, hi = hi, lo
		}
		out = append(out, lo)
		if hi != lo {
			out = append(out, hi)
		}
	}
	return out
}

// m4 keeps first, min, max and last of each of threshold/4 buckets,
// deduplicated and in time order
func m4(values []float64, threshold int) []int {
	buckets := threshold / 4
	if buckets < 1 {
		buckets = 1
	}

	out := make([]int, 0, buckets*4)
	for i := 0; i < buckets; i++ {
		start, end := bucket(i, buckets, len(values))
		if start >= end {
			continue
		}
		lo, hi := extremes(values, start, end)
		if lo > hi {
			lo, hi = hi, lo
		}
		last := -1
		for _, j := range []int{start, lo, hi, end - 1} {
			if j != last {
				out = append(out, j)
				last = j
			}
		}
	}
	return out
}

// average replaces each bucket by a reading holding the mean of every
// channel, stamped with the bucket's middle timestamp
func average(readings []analytics.Reading, threshold int) []analytics.Reading {
	out := make([]analytics.Reading, 0, threshold)
	for i := 0; i < threshold; i++ {
		start, end := bucket(i, threshold, len(readings))
		if start >= end {
			continue
		}
		var temp, hum, lux float64
		for _, r := range readings[start:end] {
			temp += r.Temp
			hum += r.Hum
			lux += r.Lux
		}
		k := float64(end - start)
		out = append(out, analytics.Reading{
			Timestamp: readings[start+(end-start)/2].Timestamp,
			Temp:      temp / k,
			Hum:       hum / k,
			Lux:       lux / k,
		})
	}
	return out
}
