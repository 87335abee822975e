package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/analytics/aggregate"
	"github.com/soltixdb/climatix/internal/analytics/anomaly"
	"github.com/soltixdb/climatix/internal/analytics/correlation"
	"github.com/soltixdb/climatix/internal/analytics/forecast"
	"github.com/soltixdb/climatix/internal/analytics/insight"
	"github.com/soltixdb/climatix/internal/config"
	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/storage"
)

// AnalyticsService runs the engine over one device snapshot per call
type AnalyticsService struct {
	logger    *logging.Logger
	snapshots *snapshotLoader
	cfg       config.AnalyticsConfig
}

// NewAnalyticsService creates a new AnalyticsService. location drives the
// hour and weekday derived for every reading.
func NewAnalyticsService(
	logger *logging.Logger,
	store storage.Store,
	cfg config.AnalyticsConfig,
	location *time.Location,
) *AnalyticsService {
	return &AnalyticsService{
		logger:    logger,
		snapshots: newSnapshotLoader(store, location, cfg.DefaultPeriod),
		cfg:       cfg,
	}
}

func (s *AnalyticsService) singleForecastConfig() forecast.Config {
	return forecast.Config{
		Horizon:    s.cfg.Forecast.Horizon,
		MaxHorizon: s.cfg.Forecast.MaxHorizon,
		MinSamples: s.cfg.Forecast.MinSamples,
		Thresholds: s.cfg.Thresholds.Forecast,
	}
}

func (s *AnalyticsService) multiForecastConfig() forecast.Config {
	return forecast.Config{
		Horizon:    s.cfg.Forecast.MultiHorizon,
		MaxHorizon: s.cfg.Forecast.MaxHorizon,
		MinSamples: s.cfg.Forecast.MultiMinSamples,
		Thresholds: s.cfg.Thresholds.Forecast,
	}
}

func (s *AnalyticsService) correlationConfig() correlation.Config {
	return correlation.Config{
		MinSamples: s.cfg.Correlation.MinSamples,
		Thresholds: s.cfg.Thresholds.Correlation,
	}
}

func (s *AnalyticsService) anomalyConfig() anomaly.Config {
	a := s.cfg.Anomaly
	return anomaly.Config{
		Thresholds:       s.cfg.Thresholds.Classification,
		IQRMultiplier:    a.IQRMultiplier,
		IQRMinSamples:    a.IQRMinSamples,
		Trees:            a.Trees,
		MaxSamples:       a.MaxSamples,
		Contamination:    a.Contamination,
		Seed:             a.Seed,
		ForestMinSamples: a.ForestMinSamples,
	}
}

func (s *AnalyticsService) strategy(name string) (anomaly.Strategy, error) {
	strategy, err := anomaly.ParseStrategy(name, anomaly.Strategy(s.cfg.Anomaly.DefaultStrategy))
	if err != nil {
		return "", NewServiceErrorWithDetails(CodeInvalidRequest, err.Error(),
			map[string]interface{}{"available_strategies": anomaly.Strategies})
	}
	return strategy, nil
}

// TrendsRequest selects the multi-channel forecast
type TrendsRequest struct {
	DeviceID string
	Period   string
	Hours    int // horizon in steps, <= 0 uses the configured default
}

// TrendsResponse is the multi-channel forecast of a device
type TrendsResponse struct {
	DeviceID string `json:"device_id"`
	Period   string `json:"period"`
	*forecast.MultiResult
}

// Trends forecasts every channel independently. Channels without enough
// samples are omitted; the call fails only when no channel could be fitted.
func (s *AnalyticsService) Trends(ctx context.Context, req *TrendsRequest) (*TrendsResponse, error) {
	ts, period, err := s.snapshots.load(ctx, req.DeviceID, req.Period)
	if err != nil {
		return nil, err
	}

	var result *forecast.MultiResult
	err = guard(s.logger, "trends", func() error {
		cfg := s.multiForecastConfig().WithHorizon(req.Hours)
		result = forecast.ForecastChannels(ts, cfg)
		if len(result.Channels) == 0 {
			return analysisError(analytics.NewInsufficientData("trends", cfg.MinSamples, ts.Len()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &TrendsResponse{DeviceID: req.DeviceID, Period: string(period), MultiResult: result}, nil
}

// ForecastRequest selects the single-channel forecast
type ForecastRequest struct {
	DeviceID string
	Period   string
	Channel  string // temperature by default
	Steps    int    // <= 0 uses the configured default
}

// ForecastResponse is the forecast of one channel
type ForecastResponse struct {
	DeviceID string `json:"device_id"`
	Period   string `json:"period"`
	*forecast.Result
}

// Forecast extrapolates one channel
func (s *AnalyticsService) Forecast(ctx context.Context, req *ForecastRequest) (*ForecastResponse, error) {
	ch := analytics.Temperature
	if req.Channel != "" {
		parsed, ok := analytics.ParseChannel(req.Channel)
		if !ok {
			return nil, NewServiceErrorWithDetails(CodeInvalidRequest, "unknown channel: "+req.Channel,
				map[string]interface{}{"available_channels": analytics.Channels})
		}
		ch = parsed
	}

	ts, period, err := s.snapshots.load(ctx, req.DeviceID, req.Period)
	if err != nil {
		return nil, err
	}

	var result *forecast.Result
	err = guard(s.logger, "forecast", func() error {
		r, err := forecast.Forecast(ts, ch, s.singleForecastConfig().WithHorizon(req.Steps))
		if err != nil {
			return analysisError(err)
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ForecastResponse{DeviceID: req.DeviceID, Period: string(period), Result: result}, nil
}

// CorrelationReport is a correlation result with its narratives
type CorrelationReport struct {
	*correlation.Result
	Descriptions []string `json:"descriptions"`
	Summary      string   `json:"summary"`
}

func (s *AnalyticsService) correlate(ts analytics.TimeSeries) (*CorrelationReport, error) {
	var report *CorrelationReport
	err := guard(s.logger, "correlations", func() error {
		result, err := correlation.Analyze(ts, s.correlationConfig())
		if err != nil {
			return analysisError(err)
		}

		descriptions := make([]string, len(result.Pairs))
		for i, p := range result.Pairs {
			descriptions[i] = insight.DescribePair(p)
		}
		report = &CorrelationReport{
			Result:       result,
			Descriptions: descriptions,
			Summary:      insight.CorrelationSummary(result, s.cfg.Thresholds.Correlation),
		}
		return nil
	})
	return report, err
}

// Correlations correlates every channel pair of a device snapshot
func (s *AnalyticsService) Correlations(ctx context.Context, deviceID, period string) (*CorrelationReport, error) {
	ts, _, err := s.snapshots.load(ctx, deviceID, period)
	if err != nil {
		return nil, err
	}
	return s.correlate(ts)
}

// AnomalyRequest selects the detection strategy
type AnomalyRequest struct {
	DeviceID string
	Period   string
	Strategy string // empty uses the configured default
}

// AnomalyReport is a detection result with its tally narrative
type AnomalyReport struct {
	*anomaly.Result
	Summary string `json:"summary"`
}

func (s *AnalyticsService) detect(ts analytics.TimeSeries, strategy anomaly.Strategy) (*AnomalyReport, error) {
	var report *AnomalyReport
	err := guard(s.logger, "anomalies", func() error {
		result, err := anomaly.Detect(ts, strategy, s.anomalyConfig())
		if err != nil {
			return analysisError(err)
		}
		report = &AnomalyReport{
			Result:  result,
			Summary: insight.AnomalySummary(result.Tally),
		}
		return nil
	})
	return report, err
}

// Anomalies flags unusual readings of a device snapshot
func (s *AnalyticsService) Anomalies(ctx context.Context, req *AnomalyRequest) (*AnomalyReport, error) {
	strategy, err := s.strategy(req.Strategy)
	if err != nil {
		return nil, err
	}

	ts, _, err := s.snapshots.load(ctx, req.DeviceID, req.Period)
	if err != nil {
		return nil, err
	}

	startExec := time.Now()
	report, err := s.detect(ts, strategy)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Anomaly detection completed",
		"device_id", req.DeviceID,
		"strategy", strategy,
		"samples", ts.Len(),
		"anomalies", report.Total,
		"latency_ms", time.Since(startExec).Milliseconds())
	return report, nil
}

// Span describes the time range covered by a snapshot
type Span struct {
	Name  string  `json:"name"`
	Start string  `json:"start"` // YYYY-MM-DD
	End   string  `json:"end"`
	Days  float64 `json:"days"`
}

func spanOf(ts analytics.TimeSeries, period storage.Period) Span {
	first, last := ts.First(), ts.Last()
	return Span{
		Name:  string(period),
		Start: first.Format("2006-01-02"),
		End:   last.Format("2006-01-02"),
		Days:  analytics.Round(last.Sub(first).Hours()/24, 2),
	}
}

// Section is one analysis of a summary: its result, or the error that took
// its place. It marshals as the result itself or as {"error": {...}}.
type Section[T any] struct {
	Value *T
	Err   *ServiceError
}

// Failed reports whether the analysis produced an error instead of a result
func (s Section[T]) Failed() bool {
	return s.Err != nil
}

func (s Section[T]) MarshalJSON() ([]byte, error) {
	if s.Err != nil {
		return json.Marshal(struct {
			Error *ServiceError `json:"error"`
		}{s.Err})
	}
	return json.Marshal(s.Value)
}

// SummaryReport bundles every analysis of a snapshot. Each analysis fails on
// its own without affecting the others.
type SummaryReport struct {
	DeviceID     string                           `json:"device_id"`
	DataPoints   int                              `json:"data_points"`
	Period       Span                             `json:"period"`
	Stats        aggregate.Stats                  `json:"stats"`
	Trends       Section[forecast.MultiResult]    `json:"trends"`
	Correlations Section[CorrelationReport]       `json:"correlations"`
	Anomalies    Section[AnomalyReport]           `json:"anomalies"`
	Hourly       Section[aggregate.HourlySummary] `json:"hourly"`
	Insights     Section[[]insight.Insight]       `json:"insights"`
}

// FailedSections counts analyses that ended in an error
func (r *SummaryReport) FailedSections() int {
	n := 0
	for _, failed := range []bool{r.Trends.Failed(), r.Correlations.Failed(), r.Anomalies.Failed(), r.Hourly.Failed(), r.Insights.Failed()} {
		if failed {
			n++
		}
	}
	return n
}

// SummaryRequest selects the summary window and anomaly strategy
type SummaryRequest struct {
	DeviceID string
	Period   string
	Strategy string
}

// Summary runs trends, correlations and anomalies concurrently over the same
// snapshot, then composes the insights
func (s *AnalyticsService) Summary(ctx context.Context, req *SummaryRequest) (*SummaryReport, error) {
	strategy, err := s.strategy(req.Strategy)
	if err != nil {
		return nil, err
	}

	ts, period, err := s.snapshots.load(ctx, req.DeviceID, req.Period)
	if err != nil {
		return nil, err
	}
	if err := requireSamples(ts, "summary", period); err != nil {
		return nil, err
	}

	report := &SummaryReport{
		DeviceID:   req.DeviceID,
		DataPoints: ts.Len(),
		Period:     spanOf(ts, period),
	}

	failed := func(err error) *ServiceError {
		return AsServiceError(err, CodeComputationFailed)
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		err := guard(s.logger, "trends", func() error {
			cfg := s.multiForecastConfig()
			result := forecast.ForecastChannels(ts, cfg)
			if len(result.Channels) == 0 {
				return analysisError(analytics.NewInsufficientData("trends", cfg.MinSamples, ts.Len()))
			}
			report.Trends.Value = result
			return nil
		})
		if err != nil {
			report.Trends.Err = failed(err)
		}
	}()
	go func() {
		defer wg.Done()
		result, err := s.correlate(ts)
		if err != nil {
			report.Correlations.Err = failed(err)
			return
		}
		report.Correlations.Value = result
	}()
	go func() {
		defer wg.Done()
		result, err := s.detect(ts, strategy)
		if err != nil {
			report.Anomalies.Err = failed(err)
			return
		}
		report.Anomalies.Value = result
	}()
	wg.Wait()

	err = guard(s.logger, "insights", func() error {
		buckets := aggregate.Hourly(ts)
		report.Stats = aggregate.Describe(ts)
		report.Hourly.Value = aggregate.SummarizeHourly(buckets)

		in := insight.Input{Hourly: buckets, Stats: report.Stats}
		if report.Correlations.Value != nil {
			in.Correlation = report.Correlations.Value.Result
		}
		insights := insight.Generate(in, s.cfg.Thresholds)
		report.Insights.Value = &insights
		return nil
	})
	if err != nil {
		report.Insights.Err = failed(err)
		if report.Hourly.Value == nil {
			report.Hourly.Err = report.Insights.Err
		}
	}

	s.logger.Info("Summary completed",
		"device_id", req.DeviceID,
		"period", period,
		"data_points", ts.Len(),
		"failed_sections", report.FailedSections())
	return report, nil
}
