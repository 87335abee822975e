// Package storage is the per-device reading store the analytics service
// takes snapshots from. Backends: memory, append-only CSV files and badger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/soltixdb/climatix/internal/analytics"
)

// ErrDeviceNotFound is returned by Snapshot for a device with no readings
var ErrDeviceNotFound = errors.New("device not found")

// Store is an append-only reading store keyed by device id
type Store interface {
	// Append stores readings for deviceID in the given order
	Append(ctx context.Context, deviceID string, readings []analytics.Reading) error

	// Snapshot returns a copy of every reading of deviceID in append order
	Snapshot(ctx context.Context, deviceID string) ([]analytics.Reading, error)

	// Devices lists device ids that have readings, sorted
	Devices(ctx context.Context) ([]string, error)

	// Clear drops every reading of deviceID. The device stays listed and
	// its Snapshot is empty until the next Append.
	Clear(ctx context.Context, deviceID string) error

	// Ping reports whether the backend can serve reads and writes
	Ping(ctx context.Context) error

	Close() error
}

// Period selects a trailing window of readings
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ParsePeriod accepts day, week, month and all; empty means all
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodAll, nil
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodAll:
		return p, nil
	default:
		return "", fmt.Errorf("invalid period %q (expected day, week, month or all)", s)
	}
}

// Duration returns the window length, 0 for all
func (p Period) Duration() time.Duration {
	switch p {
	case PeriodDay:
		return 24 * time.Hour
	case PeriodWeek:
		return 7 * 24 * time.Hour
	case PeriodMonth:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// FilterByPeriod keeps readings with timestamp >= now - period. The input is
// not modified; PeriodAll returns it as is.
func FilterByPeriod(readings []analytics.Reading, period Period, now time.Time) []analytics.Reading {
	window := period.Duration()
	if window == 0 {
		return readings
	}

	cutoff := now.Add(-window).Unix()
	out := make([]analytics.Reading, 0, len(readings))
	for _, r := range readings {
		if r.Timestamp >= cutoff {
			out = append(out, r)
		}
	}
	return out
}
