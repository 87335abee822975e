package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/downsampling"
	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/metadata"
	"github.com/soltixdb/climatix/internal/storage"
)

// DefaultRecentLimit is the number of readings returned by Recent when the
// caller does not ask for a limit
const DefaultRecentLimit = 100000

// DataService exposes raw readings
type DataService struct {
	logger    *logging.Logger
	snapshots *snapshotLoader
}

// NewDataService creates a new DataService. Raw data defaults to the whole
// history, regardless of the analytics default period.
func NewDataService(logger *logging.Logger, store storage.Store, location *time.Location) *DataService {
	return &DataService{
		logger:    logger,
		snapshots: newSnapshotLoader(store, location, string(storage.PeriodAll)),
	}
}

// Recent returns the last limit readings in append order
func (s *DataService) Recent(ctx context.Context, deviceID string, limit int) ([]analytics.Reading, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	readings, err := s.snapshots.readings(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if len(readings) > limit {
		readings = readings[len(readings)-limit:]
	}
	return readings, nil
}

// Clear drops every stored reading of a device. Backends that keep files
// leave a backup of the old data behind.
func (s *DataService) Clear(ctx context.Context, deviceID string) error {
	if err := metadata.ValidateDeviceID(deviceID); err != nil {
		return registryError(err)
	}

	err := s.snapshots.store.Clear(ctx, deviceID)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrDeviceNotFound):
		return NewServiceError(CodeDeviceNotFound, "no data for device "+deviceID)
	case errors.Is(err, context.DeadlineExceeded):
		return NewServiceError(CodeTimeout, "clearing device data timed out")
	default:
		return NewServiceErrorWithDetails(CodeStorageFailed, "failed to clear device data",
			map[string]interface{}{"error": err.Error()})
	}

	s.logger.Info("Device data cleared", "device_id", deviceID)
	return nil
}

// ExportRequest selects the readings and columns of an export
type ExportRequest struct {
	DeviceID string
	Period   string
	Param    string // all (default), or one channel name
}

// Export is a column projection of a device's readings in a period
type Export struct {
	DeviceID string
	Period   storage.Period
	Columns  []string
	Readings []analytics.Reading
}

// Rows returns the export as maps keyed by column, for JSON output
func (e *Export) Rows() []map[string]interface{} {
	rows := make([]map[string]interface{}, len(e.Readings))
	for i, r := range e.Readings {
		row := make(map[string]interface{}, len(e.Columns))
		for _, col := range e.Columns {
			row[col] = columnValue(r, col)
		}
		rows[i] = row
	}
	return rows
}

// WriteCSV writes a header line followed by one line per reading
func (e *Export) WriteCSV(w io.Writer) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(e.Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	row := make([]string, len(e.Columns))
	for _, r := range e.Readings {
		for i, col := range e.Columns {
			switch v := columnValue(r, col).(type) {
			case int64:
				row[i] = strconv.FormatInt(v, 10)
			case float64:
				row[i] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// Filename suggests a download name such as "kitchen_week.csv"
func (e *Export) Filename(ext string) string {
	return fmt.Sprintf("%s_%s.%s", e.DeviceID, e.Period, ext)
}

func columnValue(r analytics.Reading, col string) interface{} {
	switch col {
	case "timestamp":
		return r.Timestamp
	case "temp":
		return r.Temp
	case "hum":
		return r.Hum
	case "lux":
		return r.Lux
	default:
		return nil
	}
}

// exportColumns maps the param query value to the exported columns
func exportColumns(param string) ([]string, error) {
	if param == "" || param == "all" {
		return []string{"timestamp", "temp", "hum", "lux"}, nil
	}

	ch, ok := analytics.ParseChannel(param)
	if !ok {
		return nil, NewServiceError(CodeInvalidRequest, "param must be all, temp, hum or lux")
	}
	switch ch {
	case analytics.Humidity:
		return []string{"timestamp", "hum"}, nil
	case analytics.Illuminance:
		return []string{"timestamp", "lux"}, nil
	default:
		return []string{"timestamp", "temp"}, nil
	}
}

// Export returns the readings of a period in append order
func (s *DataService) Export(ctx context.Context, req *ExportRequest) (*Export, error) {
	columns, err := exportColumns(req.Param)
	if err != nil {
		return nil, err
	}
	period, err := s.snapshots.period(req.Period)
	if err != nil {
		return nil, err
	}

	readings, err := s.snapshots.readings(ctx, req.DeviceID)
	if err != nil {
		return nil, err
	}

	return &Export{
		DeviceID: req.DeviceID,
		Period:   period,
		Columns:  columns,
		Readings: storage.FilterByPeriod(readings, period, s.snapshots.now()),
	}, nil
}

// SeriesRequest selects a chart series
type SeriesRequest struct {
	DeviceID string
	Period   string
	Channel  string // channel driving point selection, temperature by default
	Mode     string // downsampling mode, auto by default
	Points   int    // target point count, <= 0 uses downsampling.DefaultThreshold
}

// Series is a time-ordered, downsampled view of a device's readings
type Series struct {
	DeviceID string              `json:"device_id"`
	Period   string              `json:"period"`
	Channel  analytics.Channel   `json:"channel"`
	Mode     downsampling.Mode   `json:"mode"`
	Original int                 `json:"original_points"`
	Readings []analytics.Reading `json:"data"`
}

// Series returns the period's readings sorted by time and thinned for
// charting
func (s *DataService) Series(ctx context.Context, req *SeriesRequest) (*Series, error) {
	ch := analytics.Temperature
	if req.Channel != "" {
		var ok bool
		if ch, ok = analytics.ParseChannel(req.Channel); !ok {
			return nil, NewServiceErrorWithDetails(CodeInvalidRequest, "unknown channel",
				map[string]interface{}{"channel": req.Channel})
		}
	}
	mode, err := downsampling.ParseMode(req.Mode)
	if err != nil {
		return nil, NewServiceErrorWithDetails(CodeInvalidRequest, err.Error(),
			map[string]interface{}{"mode": req.Mode})
	}

	ts, period, err := s.snapshots.load(ctx, req.DeviceID, req.Period)
	if err != nil {
		return nil, err
	}

	readings := make([]analytics.Reading, len(ts.Samples))
	for i, sample := range ts.Samples {
		readings[i] = sample.Reading
	}

	thinned, applied, err := downsampling.Downsample(readings, ch, mode, req.Points)
	if err != nil {
		return nil, NewServiceError(CodeComputationFailed, err.Error())
	}

	return &Series{
		DeviceID: req.DeviceID,
		Period:   string(period),
		Channel:  ch,
		Mode:     applied,
		Original: len(readings),
		Readings: thinned,
	}, nil
}
