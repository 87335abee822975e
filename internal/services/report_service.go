package services

import (
	"context"
	"time"

	"github.com/soltixdb/climatix/internal/analytics/aggregate"
	"github.com/soltixdb/climatix/internal/analytics/insight"
	"github.com/soltixdb/climatix/internal/config"
	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/storage"
)

// Default periods of a comparison
const (
	DefaultComparePeriodA = "week"
	DefaultComparePeriodB = "month"
)

// ReportService builds the hourly, comparison and recommendation reports
type ReportService struct {
	logger    *logging.Logger
	snapshots *snapshotLoader
	cfg       config.AnalyticsConfig
}

// NewReportService creates a new ReportService
func NewReportService(
	logger *logging.Logger,
	store storage.Store,
	cfg config.AnalyticsConfig,
	location *time.Location,
) *ReportService {
	return &ReportService{
		logger:    logger,
		snapshots: newSnapshotLoader(store, location, cfg.DefaultPeriod),
		cfg:       cfg,
	}
}

// HourlyReport is the hour-of-day breakdown of a period
type HourlyReport struct {
	DeviceID    string                   `json:"device_id"`
	Period      string                   `json:"period"`
	HourlyStats []aggregate.HourlyBucket `json:"hourly_stats"`
	Summary     *aggregate.HourlySummary `json:"summary"`
}

// HourlyStats buckets a period by hour of day. An empty period is
// INSUFFICIENT_DATA.
func (s *ReportService) HourlyStats(ctx context.Context, deviceID, period string) (*HourlyReport, error) {
	ts, p, err := s.snapshots.load(ctx, deviceID, period)
	if err != nil {
		return nil, err
	}
	if err := requireSamples(ts, "hourly-stats", p); err != nil {
		return nil, err
	}

	var report *HourlyReport
	err = guard(s.logger, "hourly-stats", func() error {
		buckets := aggregate.Hourly(ts)
		report = &HourlyReport{
			DeviceID:    deviceID,
			Period:      string(p),
			HourlyStats: buckets,
			Summary:     aggregate.SummarizeHourly(buckets),
		}
		return nil
	})
	return report, err
}

// CompareRequest names the two periods; empty names use week and month
type CompareRequest struct {
	DeviceID string
	PeriodA  string
	PeriodB  string
}

// CompareReport is a period comparison with its narratives
type CompareReport struct {
	DeviceID string `json:"device_id"`
	*aggregate.Comparison
	Insights []insight.Insight `json:"insights"`
}

// Compare filters the device data twice, independently, and compares the
// two windows. Either window being empty is INSUFFICIENT_DATA.
func (s *ReportService) Compare(ctx context.Context, req *CompareRequest) (*CompareReport, error) {
	nameA, nameB := req.PeriodA, req.PeriodB
	if nameA == "" {
		nameA = DefaultComparePeriodA
	}
	if nameB == "" {
		nameB = DefaultComparePeriodB
	}

	periodA, err := s.snapshots.period(nameA)
	if err != nil {
		return nil, err
	}
	periodB, err := s.snapshots.period(nameB)
	if err != nil {
		return nil, err
	}

	readings, err := s.snapshots.readings(ctx, req.DeviceID)
	if err != nil {
		return nil, err
	}

	now := s.snapshots.now()
	a := s.snapshots.prepare(storage.FilterByPeriod(readings, periodA, now))
	b := s.snapshots.prepare(storage.FilterByPeriod(readings, periodB, now))
	if a.Empty() || b.Empty() {
		return nil, NewServiceErrorWithDetails(CodeInsufficientData, "not enough data to compare",
			map[string]interface{}{
				"period_a_samples": a.Len(),
				"period_b_samples": b.Len(),
			})
	}

	var report *CompareReport
	err = guard(s.logger, "compare", func() error {
		cmp, err := aggregate.Compare(string(periodA), a, string(periodB), b)
		if err != nil {
			return analysisError(err)
		}
		report = &CompareReport{
			DeviceID:   req.DeviceID,
			Comparison: cmp,
			Insights:   insight.CompareInsights(cmp, s.cfg.Thresholds.Comparison),
		}
		return nil
	})
	return report, err
}

// RecommendationReport lists comfort recommendations for a period
type RecommendationReport struct {
	DeviceID        string            `json:"device_id"`
	Period          Span              `json:"period"`
	Stats           aggregate.Stats   `json:"stats"`
	Recommendations []insight.Insight `json:"recommendations"`
}

// Recommendations compares the period means against the comfort ranges
func (s *ReportService) Recommendations(ctx context.Context, deviceID, period string) (*RecommendationReport, error) {
	ts, p, err := s.snapshots.load(ctx, deviceID, period)
	if err != nil {
		return nil, err
	}
	if err := requireSamples(ts, "recommendations", p); err != nil {
		return nil, err
	}

	var report *RecommendationReport
	err = guard(s.logger, "recommendations", func() error {
		stats := aggregate.Describe(ts)
		report = &RecommendationReport{
			DeviceID:        deviceID,
			Period:          spanOf(ts, p),
			Stats:           stats,
			Recommendations: insight.Recommend(stats, s.cfg.Thresholds.Comfort),
		}
		return nil
	})
	return report, err
}
