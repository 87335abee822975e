// Package correlation computes pairwise Pearson coefficients between the
// sensor channels and grades them into strength tiers.
package correlation

import (
	"fmt"
	"math"

	"github.com/soltixdb/climatix/internal/analytics"
)

// Strength is the tier of |r|
type Strength string

const (
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

// Direction is the sign of r
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
	DirectionNone     Direction = "none"
)

// Pair is the correlation of two channels. Coefficient is nil when the pair
// could not be computed, in which case Error says why.
type Pair struct {
	X           analytics.Channel `json:"x"`
	Y           analytics.Channel `json:"y"`
	Coefficient *float64          `json:"coefficient,omitempty"`
	Strength    Strength          `json:"strength,omitempty"`
	Direction   Direction         `json:"direction,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// R returns the coefficient and whether the pair was computed
func (p Pair) R() (float64, bool) {
	if p.Coefficient == nil {
		return 0, false
	}
	return *p.Coefficient, true
}

// Is reports whether the pair links channels a and b in either order
func (p Pair) Is(a, b analytics.Channel) bool {
	return (p.X == a && p.Y == b) || (p.X == b && p.Y == a)
}

// Result holds every pair in channel declaration order
type Result struct {
	Samples int    `json:"samples"`
	Pairs   []Pair `json:"pairs"`
}

// Find returns the pair linking a and b
func (r *Result) Find(a, b analytics.Channel) (Pair, bool) {
	for _, p := range r.Pairs {
		if p.Is(a, b) {
			return p, true
		}
	}
	return Pair{}, false
}

// Coefficient returns r for a and b, false if missing or degenerate
func (r *Result) Coefficient(a, b analytics.Channel) (float64, bool) {
	p, ok := r.Find(a, b)
	if !ok {
		return 0, false
	}
	return p.R()
}

// Significant returns the computed pairs with |r| above the threshold
func (r *Result) Significant(threshold float64) []Pair {
	var out []Pair
	for _, p := range r.Pairs {
		if v, ok := p.R(); ok && math.Abs(v) > threshold {
			out = append(out, p)
		}
	}
	return out
}

// Config holds configuration for correlation analysis
type Config struct {
	MinSamples int
	Thresholds analytics.CorrelationThresholds
}

// DefaultConfig returns default correlation configuration
func DefaultConfig() Config {
	return Config{
		MinSamples: 10,
		Thresholds: analytics.DefaultThresholds().Correlation,
	}
}

// Analyze correlates every unordered channel pair of the snapshot. A pair
// with zero variance carries an error instead of a coefficient; the call
// fails only when no pair could be computed.
func Analyze(ts analytics.TimeSeries, cfg Config) (*Result, error) {
	if ts.Len() < cfg.MinSamples {
		return nil, analytics.NewInsufficientData("correlation", cfg.MinSamples, ts.Len())
	}

	values := make(map[analytics.Channel][]float64, len(analytics.Channels))
	for _, ch := range analytics.Channels {
		values[ch] = ts.Values(ch)
	}

	result := &Result{Samples: ts.Len()}
	computed := 0
	for i := 0; i < len(analytics.Channels); i++ {
		for j := i + 1; j < len(analytics.Channels); j++ {
			x, y := analytics.Channels[i], analytics.Channels[j]
			pair := Pair{X: x, Y: y}

			r, err := Pearson(values[x], values[y])
			if err != nil {
				pair.Error = err.Error()
			} else {
				pair.Coefficient = &r
				pair.Strength = Classify(r, cfg.Thresholds)
				pair.Direction = DirectionOf(r)
				computed++
			}
			result.Pairs = append(result.Pairs, pair)
		}
	}

	if computed == 0 {
		return nil, analytics.NewComputationError("correlation", "every channel pair has zero variance")
	}
	return result, nil
}

// Pearson computes the linear correlation coefficient of x and y. Positions
// where either value is not finite are ignored.
func Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(x), len(y))
	}

	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if !finite(x[i]) || !finite(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return 0, analytics.NewComputationError("pearson", "fewer than two overlapping values")
	}

	meanX := analytics.Mean(xs)
	meanY := analytics.Mean(ys)

	var sxy, sxx, syy float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}

	if sxx == 0 || syy == 0 {
		return 0, analytics.NewComputationError("pearson", "zero variance")
	}

	r := sxy / (math.Sqrt(sxx) * math.Sqrt(syy))
	// Rounding can push |r| a hair past 1
	return math.Max(-1, math.Min(1, r)), nil
}

// Classify maps |r| onto a strength tier
func Classify(r float64, th analytics.CorrelationThresholds) Strength {
	abs := math.Abs(r)
	switch {
	case abs >= th.Strong:
		return StrengthStrong
	case abs >= th.Moderate:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

// DirectionOf returns the direction given by the sign of r
func DirectionOf(r float64) Direction {
	switch {
	case r > 0:
		return DirectionPositive
	case r < 0:
		return DirectionNegative
	default:
		return DirectionNone
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
