package metadata

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryRegistry keeps devices in process memory
type MemoryRegistry struct {
	mu           sync.RWMutex
	devices      map[string]*Device
	autoRegister bool
}

// NewMemoryRegistry creates an empty in-memory registry
func NewMemoryRegistry(autoRegister bool) *MemoryRegistry {
	return &MemoryRegistry{
		devices:      make(map[string]*Device),
		autoRegister: autoRegister,
	}
}

func (r *MemoryRegistry) Register(ctx context.Context, dev *Device) error {
	if err := ValidateDeviceID(dev.ID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[dev.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDeviceExists, dev.ID)
	}
	if dev.CreatedAt.IsZero() {
		dev.CreatedAt = time.Now().UTC()
	}
	r.devices[dev.ID] = dev.clone()
	return nil
}

func (r *MemoryRegistry) Get(ctx context.Context, id string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dev, ok := r.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return dev.clone(), nil
}

func (r *MemoryRegistry) List(ctx context.Context) ([]*Device, error) {
	r.mu.RLock()
	devices := make([]*Device, 0, len(r.devices))
	for _, dev := range r.devices {
		devices = append(devices, dev.clone())
	}
	r.mu.RUnlock()

	sortDevices(devices)
	return devices, nil
}

func (r *MemoryRegistry) Update(ctx context.Context, dev *Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.devices[dev.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, dev.ID)
	}
	next := cur.clone()
	next.Name = dev.Name
	next.Description = dev.Description
	next.Labels = dev.clone().Labels
	r.devices[dev.ID] = next
	return nil
}

func (r *MemoryRegistry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[id]; !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	delete(r.devices, id)
	return nil
}

func (r *MemoryRegistry) Track(ctx context.Context, id string, count int, lastSeen time.Time) error {
	if err := ValidateDeviceID(id); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.devices[id]
	if !ok {
		if !r.autoRegister {
			return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
		}
		dev = &Device{ID: id, CreatedAt: time.Now().UTC()}
		r.devices[id] = dev
	}
	dev.applyTrack(count, lastSeen)
	return nil
}

func (r *MemoryRegistry) UpdateSettings(ctx context.Context, id string, settings Settings) error {
	if err := ValidateDeviceID(id); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.devices[id]
	if !ok {
		if !r.autoRegister {
			return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
		}
		dev = &Device{ID: id, CreatedAt: time.Now().UTC()}
		r.devices[id] = dev
	}
	dev.Settings = &settings
	return nil
}

func (r *MemoryRegistry) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryRegistry) Close() error {
	return nil
}
