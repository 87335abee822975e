package services

import (
	"context"
	"errors"

	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/metadata"
)

// DeviceService manages the device registry
type DeviceService struct {
	logger   *logging.Logger
	registry metadata.Registry
}

// NewDeviceService creates a new DeviceService
func NewDeviceService(logger *logging.Logger, registry metadata.Registry) *DeviceService {
	return &DeviceService{
		logger:   logger,
		registry: registry,
	}
}

// DeviceRequest carries the editable device fields
type DeviceRequest struct {
	ID          string            `json:"device_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Labels      map[string]string `json:"labels"`
}

func (r *DeviceRequest) device() *metadata.Device {
	return &metadata.Device{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Labels:      r.Labels,
	}
}

func wrapRegistryError(err error) error {
	if svcErr := registryError(err); svcErr != nil {
		return svcErr
	}
	return NewServiceErrorWithDetails(CodeStorageFailed, "device registry error",
		map[string]interface{}{"error": err.Error()})
}

// List returns every registered device ordered by id
func (s *DeviceService) List(ctx context.Context) ([]*metadata.Device, error) {
	devices, err := s.registry.List(ctx)
	if err != nil {
		return nil, wrapRegistryError(err)
	}
	return devices, nil
}

// Get returns one device
func (s *DeviceService) Get(ctx context.Context, id string) (*metadata.Device, error) {
	if err := metadata.ValidateDeviceID(id); err != nil {
		return nil, wrapRegistryError(err)
	}
	dev, err := s.registry.Get(ctx, id)
	if err != nil {
		return nil, wrapRegistryError(err)
	}
	return dev, nil
}

// Register adds a device. An existing id is DEVICE_EXISTS.
func (s *DeviceService) Register(ctx context.Context, req *DeviceRequest) (*metadata.Device, error) {
	dev := req.device()
	if err := s.registry.Register(ctx, dev); err != nil {
		return nil, wrapRegistryError(err)
	}

	s.logger.Info("Device registered", "device_id", dev.ID, "name", dev.Name)
	return dev, nil
}

// Update replaces the editable fields of an existing device
func (s *DeviceService) Update(ctx context.Context, req *DeviceRequest) (*metadata.Device, error) {
	if err := metadata.ValidateDeviceID(req.ID); err != nil {
		return nil, wrapRegistryError(err)
	}
	if err := s.registry.Update(ctx, req.device()); err != nil {
		return nil, wrapRegistryError(err)
	}
	return s.Get(ctx, req.ID)
}

// Delete removes a device from the registry. Stored readings are kept.
func (s *DeviceService) Delete(ctx context.Context, id string) error {
	if err := metadata.ValidateDeviceID(id); err != nil {
		return wrapRegistryError(err)
	}
	if err := s.registry.Delete(ctx, id); err != nil {
		return wrapRegistryError(err)
	}

	s.logger.Info("Device deleted", "device_id", id)
	return nil
}

// SettingsRequest carries logger settings. Omitted fields take the defaults.
type SettingsRequest struct {
	TargetTemp  *float64 `json:"target_temp"`
	TargetHum   *float64 `json:"target_hum"`
	LogInterval *int     `json:"log_interval"`
}

func (r *SettingsRequest) settings() metadata.Settings {
	st := metadata.DefaultSettings()
	if r.TargetTemp != nil {
		st.TargetTemp = *r.TargetTemp
	}
	if r.TargetHum != nil {
		st.TargetHum = *r.TargetHum
	}
	if r.LogInterval != nil {
		st.LogInterval = *r.LogInterval
	}
	return st
}

// Settings returns the stored logger settings of a device, or the defaults
// when none were saved or the device is not registered yet
func (s *DeviceService) Settings(ctx context.Context, id string) (metadata.Settings, error) {
	if err := metadata.ValidateDeviceID(id); err != nil {
		return metadata.Settings{}, wrapRegistryError(err)
	}
	dev, err := s.registry.Get(ctx, id)
	if errors.Is(err, metadata.ErrDeviceNotFound) {
		return metadata.DefaultSettings(), nil
	}
	if err != nil {
		return metadata.Settings{}, wrapRegistryError(err)
	}
	return dev.EffectiveSettings(), nil
}

// SaveSettings validates and stores logger settings for a device
func (s *DeviceService) SaveSettings(ctx context.Context, id string, req *SettingsRequest) (metadata.Settings, error) {
	st := req.settings()
	if err := s.registry.UpdateSettings(ctx, id, st); err != nil {
		return metadata.Settings{}, wrapRegistryError(err)
	}

	s.logger.Info("Device settings saved",
		"device_id", id,
		"target_temp", st.TargetTemp,
		"target_hum", st.TargetHum,
		"log_interval", st.LogInterval)
	return st, nil
}
