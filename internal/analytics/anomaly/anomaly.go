// Package anomaly flags unusual sensor readings with one of two selectable
// strategies: per-channel interquartile fences or a joint isolation forest
// over the standardized channels.
package anomaly

import (
	"fmt"
	"math"
	"strings"

	"github.com/soltixdb/climatix/internal/analytics"
)

// Strategy selects the detection algorithm
type Strategy string

const (
	StrategyIQR             Strategy = "iqr"
	StrategyIsolationForest Strategy = "isolation_forest"
)

// Strategies lists every supported strategy
var Strategies = []Strategy{StrategyIQR, StrategyIsolationForest}

// ParseStrategy validates a strategy name. An empty name yields def.
func ParseStrategy(s string, def Strategy) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return def, nil
	case StrategyIQR:
		return StrategyIQR, nil
	case StrategyIsolationForest, "isolationforest", "forest":
		return StrategyIsolationForest, nil
	default:
		return "", fmt.Errorf("unknown anomaly strategy: %s", s)
	}
}

// Range represents expected value range
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Record is one flagged reading. IQR records name the channel that broke
// its fence; isolation forest records judge the reading as a whole.
type Record struct {
	Timestamp int64             `json:"timestamp"`
	Datetime  string            `json:"datetime"`
	Channel   analytics.Channel `json:"channel,omitempty"`
	Temp      float64           `json:"temp"`
	Hum       float64           `json:"hum"`
	Lux       float64           `json:"lux"`
	Labels    []string          `json:"labels"`
	Type      string            `json:"type"`
	Score     float64           `json:"score"`
	Expected  *Range            `json:"expected,omitempty"`
}

// Result is the outcome of a detection run
type Result struct {
	Strategy     Strategy     `json:"strategy"`
	TotalSamples int          `json:"total_samples"`
	Total        int          `json:"total_anomalies"`
	Rate         float64      `json:"anomaly_rate"` // percent, one decimal
	Records      []Record     `json:"anomalies"`
	Tally        []TallyEntry `json:"tally"`
}

// Config holds configuration for anomaly detection
type Config struct {
	Thresholds analytics.ClassificationThresholds

	// IQRMultiplier scales the interquartile range into fences
	IQRMultiplier float64
	// IQRMinSamples is the count a channel must exceed before it is fenced
	IQRMinSamples int

	Trees            int
	MaxSamples       int
	Contamination    float64
	Seed             int64
	ForestMinSamples int
}

// DefaultConfig returns default detector configuration
func DefaultConfig() Config {
	return Config{
		Thresholds:       analytics.DefaultThresholds().Classification,
		IQRMultiplier:    1.5,
		IQRMinSamples:    5,
		Trees:            100,
		MaxSamples:       256,
		Contamination:    0.1,
		Seed:             42,
		ForestMinSamples: 20,
	}
}

// Detector is implemented by every strategy
type Detector interface {
	// Name returns the strategy name
	Name() string

	// Detect returns the flagged records of the snapshot
	Detect(ts analytics.TimeSeries) ([]Record, error)
}

// GetDetector builds a fresh detector for the strategy. Detectors carry no
// state between calls.
func GetDetector(strategy Strategy, cfg Config) (Detector, error) {
	switch strategy {
	case StrategyIQR:
		return NewIQRDetector(cfg), nil
	case StrategyIsolationForest:
		return NewIsolationForestDetector(cfg), nil
	default:
		return nil, fmt.Errorf("unknown anomaly strategy: %s", strategy)
	}
}

// Detect runs the selected strategy and assembles the result
func Detect(ts analytics.TimeSeries, strategy Strategy, cfg Config) (*Result, error) {
	detector, err := GetDetector(strategy, cfg)
	if err != nil {
		return nil, err
	}

	records, err := detector.Detect(ts)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}

	return &Result{
		Strategy:     strategy,
		TotalSamples: ts.Len(),
		Total:        len(records),
		Rate:         Rate(len(records), ts.Len()),
		Records:      records,
		Tally:        Summarize(records),
	}, nil
}

// Rate returns flagged/total as a percentage rounded to one decimal
func Rate(flagged, total int) float64 {
	if total == 0 {
		return 0
	}
	return analytics.Round(float64(flagged)/float64(total)*100, 1)
}

// roundScore keeps three decimals. A nonzero score never rounds to zero,
// so a flagged forest sample stays negative.
func roundScore(score float64) float64 {
	r := analytics.Round(score, 3)
	if r == 0 && score != 0 {
		return math.Copysign(0.001, score)
	}
	return r
}

func newRecord(s analytics.Sample, th analytics.ClassificationThresholds, score float64) Record {
	labels := Classify(s.Reading, th)
	return Record{
		Timestamp: s.Timestamp,
		Datetime:  s.Time.Format("2006-01-02 15:04"),
		Temp:      analytics.Round(s.Temp, 1),
		Hum:       analytics.Round(s.Hum, 1),
		Lux:       analytics.Round(s.Lux, 0),
		Labels:    labels,
		Type:      Label(labels),
		Score:     roundScore(score),
	}
}
