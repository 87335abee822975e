package anomaly

import (
	"math"
	"sort"

	"github.com/soltixdb/climatix/internal/analytics"
)

// IQRDetector detects anomalies using Interquartile Range (IQR) method
// Anomalies are points outside [Q1 - k*IQR, Q3 + k*IQR] where k is typically 1.5
// Every channel is fenced independently, so one reading can be reported once
// per channel it breaks.
type IQRDetector struct {
	cfg Config
}

// NewIQRDetector creates an IQR detector
func NewIQRDetector(cfg Config) *IQRDetector {
	return &IQRDetector{cfg: cfg}
}

// Name returns the algorithm name
func (iqr *IQRDetector) Name() string {
	return string(StrategyIQR)
}

// Detect finds anomalies using IQR method. Records are grouped by channel in
// declaration order, then by time.
func (iqr *IQRDetector) Detect(ts analytics.TimeSeries) ([]Record, error) {
	if ts.Len() <= iqr.cfg.IQRMinSamples {
		return nil, analytics.NewInsufficientData("iqr anomaly detection", iqr.cfg.IQRMinSamples+1, ts.Len())
	}

	var records []Record
	for _, ch := range analytics.Channels {
		records = append(records, iqr.detectChannel(ts, ch)...)
	}
	return records, nil
}

func (iqr *IQRDetector) detectChannel(ts analytics.TimeSeries, ch analytics.Channel) []Record {
	values := make([]float64, 0, ts.Len())
	for _, s := range ts.Samples {
		if v := s.Value(ch); !math.IsNaN(v) && !math.IsInf(v, 0) {
			values = append(values, v)
		}
	}
	if len(values) <= iqr.cfg.IQRMinSamples {
		return nil
	}

	q1, q3, iqrValue := CalculateIQR(values)
	lowerBound := q1 - iqr.cfg.IQRMultiplier*iqrValue
	upperBound := q3 + iqr.cfg.IQRMultiplier*iqrValue

	expectedRange := &Range{
		Min: lowerBound,
		Max: upperBound,
	}

	var records []Record
	for _, s := range ts.Samples {
		v := s.Value(ch)
		if !(v < lowerBound || v > upperBound) {
			continue
		}

		// Calculate score based on how far outside the bounds
		score := 1.0
		if iqrValue > 0 {
			if v < lowerBound {
				score = (lowerBound - v) / iqrValue
			} else {
				score = (v - upperBound) / iqrValue
			}
		}

		rec := newRecord(s, iqr.cfg.Thresholds, score)
		rec.Channel = ch
		rec.Expected = expectedRange
		records = append(records, rec)
	}
	return records
}

// CalculateIQR returns Q1, Q3, and IQR for a slice of values
func CalculateIQR(values []float64) (q1, q3, iqr float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}

	sortedValues := make([]float64, len(values))
	copy(sortedValues, values)
	sort.Float64s(sortedValues)

	q1 = analytics.Percentile(sortedValues, 25)
	q3 = analytics.Percentile(sortedValues, 75)
	iqr = q3 - q1

	return q1, q3, iqr
}
