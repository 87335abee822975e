package anomaly

import (
	"errors"
	"math"
	"testing"

	"github.com/soltixdb/climatix/internal/analytics"
)

func TestIsolationForestDetector_InsufficientData(t *testing.T) {
	detector := NewIsolationForestDetector(DefaultConfig())

	_, err := detector.Detect(createClimateSeries(19))
	if !errors.Is(err, analytics.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData for 19 samples, got %v", err)
	}
}

func TestIsolationForestDetector_FlagsOutliers(t *testing.T) {
	detector := NewIsolationForestDetector(DefaultConfig())

	ts := createClimateSeries(60,
		analytics.Reading{Temp: 38, Hum: 15, Lux: 4000},
		analytics.Reading{Temp: 2, Hum: 98, Lux: 1},
	)
	hot := ts.Samples[60].Timestamp
	cold := ts.Samples[61].Timestamp

	records, err := detector.Detect(ts)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	// Contamination 0.1 over 62 samples: the threshold sits between the
	// 7th and 8th lowest score
	if len(records) == 0 || len(records) > 8 {
		t.Fatalf("Expected roughly 10%% flagged, got %d", len(records))
	}

	found := map[int64]Record{}
	for _, rec := range records {
		if rec.Score >= 0 {
			t.Errorf("Flagged record at %d has non-negative score %v", rec.Timestamp, rec.Score)
		}
		if rec.Channel != "" {
			t.Errorf("Forest records must not name a channel, got %s", rec.Channel)
		}
		found[rec.Timestamp] = rec
	}

	if rec, ok := found[hot]; !ok {
		t.Error("Expected hot outlier to be flagged")
	} else if rec.Type != "high temperature, low humidity, bright light" {
		t.Errorf("Unexpected label for hot outlier: %s", rec.Type)
	}
	if rec, ok := found[cold]; !ok {
		t.Error("Expected cold outlier to be flagged")
	} else if rec.Type != "low temperature, high humidity, darkness" {
		t.Errorf("Unexpected label for cold outlier: %s", rec.Type)
	}
}

func TestIsolationForestDetector_ConstantSnapshot(t *testing.T) {
	detector := NewIsolationForestDetector(DefaultConfig())

	temps := make([]float64, 30)
	for i := range temps {
		temps[i] = 20
	}

	records, err := detector.Detect(createTestSeries(temps))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no anomalies for identical readings, got %d", len(records))
	}
}

func TestIsolationForest_SameSeedSameScores(t *testing.T) {
	ts := createClimateSeries(40, analytics.Reading{Temp: 30, Hum: 30, Lux: 900})

	features, err := standardize(ts)
	if err != nil {
		t.Fatalf("standardize failed: %v", err)
	}

	a := newIsolationForest(100, 256, 42)
	a.fit(features)
	b := newIsolationForest(100, 256, 42)
	b.fit(features)

	scoresA := a.scoreSamples(features)
	scoresB := b.scoreSamples(features)
	for i := range scoresA {
		if scoresA[i] != scoresB[i] {
			t.Fatalf("Sample %d: same seed produced %v and %v", i, scoresA[i], scoresB[i])
		}
		if scoresA[i] >= 0 || scoresA[i] < -1 {
			t.Errorf("Sample %d: score %v outside [-1, 0)", i, scoresA[i])
		}
	}
}

func TestStandardize(t *testing.T) {
	ts := createTestSeries([]float64{10, 20, 30, 40})

	features, err := standardize(ts)
	if err != nil {
		t.Fatalf("standardize failed: %v", err)
	}

	temps := make([]float64, len(features))
	for i, f := range features {
		temps[i] = f[0]
		// humidity and lux are constant and collapse to zero
		if f[1] != 0 || f[2] != 0 {
			t.Errorf("Row %d: expected constant channels at 0, got %v", i, f)
		}
	}

	if math.Abs(analytics.Mean(temps)) > 1e-12 {
		t.Errorf("Expected zero mean, got %v", analytics.Mean(temps))
	}
	if math.Abs(analytics.StdDev(temps)-1) > 1e-12 {
		t.Errorf("Expected unit std, got %v", analytics.StdDev(temps))
	}
}

func TestStandardize_NonFinite(t *testing.T) {
	ts := createTestSeries([]float64{10, 20, 30, 40})
	ts.Samples[2].Lux = math.NaN()

	_, err := standardize(ts)
	if !errors.Is(err, analytics.ErrComputation) {
		t.Errorf("Expected ErrComputation, got %v", err)
	}
}

func TestAveragePathLength(t *testing.T) {
	if averagePathLength(1) != 0 {
		t.Error("c(1) must be 0")
	}
	if averagePathLength(2) != 1 {
		t.Error("c(2) must be 1")
	}
	// c(256) is about 10.24
	if got := averagePathLength(256); math.Abs(got-10.2448) > 1e-3 {
		t.Errorf("c(256) = %v", got)
	}
}
