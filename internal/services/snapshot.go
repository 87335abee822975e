package services

import (
	"context"
	"errors"
	"time"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/metadata"
	"github.com/soltixdb/climatix/internal/storage"
)

// snapshotLoader turns a device id and a period name into a prepared,
// immutable TimeSeries
type snapshotLoader struct {
	store         storage.Store
	location      *time.Location
	defaultPeriod storage.Period
	now           func() time.Time
}

func newSnapshotLoader(store storage.Store, location *time.Location, defaultPeriod string) *snapshotLoader {
	period, err := storage.ParsePeriod(defaultPeriod)
	if err != nil {
		period = storage.PeriodAll
	}
	if location == nil {
		location = time.UTC
	}
	return &snapshotLoader{
		store:         store,
		location:      location,
		defaultPeriod: period,
		now:           time.Now,
	}
}

// period parses name, falling back to the configured default when empty
func (l *snapshotLoader) period(name string) (storage.Period, error) {
	if name == "" {
		return l.defaultPeriod, nil
	}
	p, err := storage.ParsePeriod(name)
	if err != nil {
		return "", NewServiceError(CodeInvalidRequest, err.Error())
	}
	return p, nil
}

// readings returns the raw readings of deviceID in append order
func (l *snapshotLoader) readings(ctx context.Context, deviceID string) ([]analytics.Reading, error) {
	if err := metadata.ValidateDeviceID(deviceID); err != nil {
		return nil, registryError(err)
	}

	readings, err := l.store.Snapshot(ctx, deviceID)
	if err != nil {
		if errors.Is(err, storage.ErrDeviceNotFound) {
			return nil, NewServiceError(CodeDeviceNotFound, "no data for device "+deviceID)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewServiceError(CodeTimeout, "reading device data timed out")
		}
		return nil, NewServiceErrorWithDetails(CodeStorageFailed, "failed to read device data",
			map[string]interface{}{"error": err.Error()})
	}
	return readings, nil
}

// load reads, filters by period and prepares the snapshot
func (l *snapshotLoader) load(ctx context.Context, deviceID, periodName string) (analytics.TimeSeries, storage.Period, error) {
	period, err := l.period(periodName)
	if err != nil {
		return analytics.TimeSeries{}, "", err
	}

	readings, err := l.readings(ctx, deviceID)
	if err != nil {
		return analytics.TimeSeries{}, "", err
	}

	filtered := storage.FilterByPeriod(readings, period, l.now())
	return l.prepare(filtered), period, nil
}

func (l *snapshotLoader) prepare(readings []analytics.Reading) analytics.TimeSeries {
	return analytics.PrepareReadings(readings, l.location)
}

// requireSamples fails with INSUFFICIENT_DATA on an empty snapshot
func requireSamples(ts analytics.TimeSeries, operation string, period storage.Period) error {
	if !ts.Empty() {
		return nil
	}
	return NewServiceErrorWithDetails(CodeInsufficientData, "no data for the selected period",
		map[string]interface{}{
			"operation": operation,
			"period":    string(period),
		})
}
