// Package metadata keeps the device registry: which sensors have reported,
// their descriptive fields and ingest counters.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"time"
)

var (
	// ErrDeviceNotFound is returned for unknown device ids
	ErrDeviceNotFound = errors.New("device not found")

	// ErrDeviceExists is returned by Register for an id already present
	ErrDeviceExists = errors.New("device already exists")

	// ErrInvalidDeviceID is returned for ids outside [A-Za-z0-9._-]{1,64}
	ErrInvalidDeviceID = errors.New("invalid device id")

	// ErrRegistryUnavailable wraps backend connectivity failures
	ErrRegistryUnavailable = errors.New("device registry unavailable")

	// ErrInvalidSettings is returned for out-of-range device settings
	ErrInvalidSettings = errors.New("invalid device settings")
)

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// ValidateDeviceID checks that id is safe to use as a key segment
func ValidateDeviceID(id string) error {
	if !deviceIDPattern.MatchString(id) {
		return ErrInvalidDeviceID
	}
	return nil
}

// Registry manages device metadata
type Registry interface {
	// Register adds a new device. CreatedAt is set when zero.
	Register(ctx context.Context, dev *Device) error
	Get(ctx context.Context, id string) (*Device, error)
	// List returns all devices ordered by id
	List(ctx context.Context) ([]*Device, error)
	// Update replaces name, description and labels of an existing device
	Update(ctx context.Context, dev *Device) error
	Delete(ctx context.Context, id string) error

	// Track records that count readings arrived for id, the newest at
	// lastSeen. Unknown devices are registered when auto-registration is on.
	Track(ctx context.Context, id string, count int, lastSeen time.Time) error

	// UpdateSettings stores the logger settings of a device. Unknown devices
	// are registered when auto-registration is on.
	UpdateSettings(ctx context.Context, id string, settings Settings) error

	// Ping reports whether the backend is reachable
	Ping(ctx context.Context) error
	Close() error
}

// Settings are the logger targets a device reads back on its next sync
type Settings struct {
	TargetTemp  float64 `json:"target_temp"`
	TargetHum   float64 `json:"target_hum"`
	LogInterval int     `json:"log_interval"`
}

// DefaultSettings returns the settings reported for devices that never saved any
func DefaultSettings() Settings {
	return Settings{TargetTemp: 20.0, TargetHum: 50.0, LogInterval: 30}
}

// Validate checks ranges the logger firmware accepts
func (s Settings) Validate() error {
	if math.IsNaN(s.TargetTemp) || math.IsInf(s.TargetTemp, 0) {
		return fmt.Errorf("%w: target_temp must be finite", ErrInvalidSettings)
	}
	if math.IsNaN(s.TargetHum) || s.TargetHum < 0 || s.TargetHum > 100 {
		return fmt.Errorf("%w: target_hum must be within 0..100", ErrInvalidSettings)
	}
	if s.LogInterval < 1 {
		return fmt.Errorf("%w: log_interval must be at least 1", ErrInvalidSettings)
	}
	return nil
}

// Device represents one sensor
type Device struct {
	ID           string            `json:"id"`
	Name         string            `json:"name,omitempty"`
	Description  string            `json:"description,omitempty"`
	Labels       map[string]string `json:"labels,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	LastSeen     *time.Time        `json:"last_seen,omitempty"`
	ReadingCount int64             `json:"reading_count"`
	Settings     *Settings         `json:"settings,omitempty"`
}

// EffectiveSettings returns the stored settings or the defaults
func (d *Device) EffectiveSettings() Settings {
	if d == nil || d.Settings == nil {
		return DefaultSettings()
	}
	return *d.Settings
}

// clone returns a deep copy so callers never share registry state
func (d *Device) clone() *Device {
	c := *d
	if d.Labels != nil {
		c.Labels = make(map[string]string, len(d.Labels))
		for k, v := range d.Labels {
			c.Labels[k] = v
		}
	}
	if d.LastSeen != nil {
		ts := *d.LastSeen
		c.LastSeen = &ts
	}
	if d.Settings != nil {
		st := *d.Settings
		c.Settings = &st
	}
	return &c
}

// applyTrack folds one ingest batch into the counters
func (d *Device) applyTrack(count int, lastSeen time.Time) {
	d.ReadingCount += int64(count)
	if lastSeen.IsZero() {
		return
	}
	if d.LastSeen == nil || lastSeen.After(*d.LastSeen) {
		ts := lastSeen.UTC()
		d.LastSeen = &ts
	}
}

func sortDevices(devices []*Device) {
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
}
