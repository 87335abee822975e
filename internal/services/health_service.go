package services

import (
	"context"
	"sync"

	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/utils"
)

// Component states reported by HealthService
const (
	ComponentOK          = "ok"
	ComponentUnavailable = "unavailable"
	ComponentDisabled    = "disabled"
)

// Pinger is a backend that can report whether it is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus is the result of one round of backend checks
type HealthStatus struct {
	Healthy  bool
	Storage  string
	Registry string
	Queue    string
}

// HealthService checks the reading store, the device registry and the
// ingest queue. A nil queue means async ingest is off.
type HealthService struct {
	logger   *logging.Logger
	store    Pinger
	registry Pinger
	queue    Pinger
}

// NewHealthService creates a HealthService. queue may be nil.
func NewHealthService(logger *logging.Logger, store, registry, queue Pinger) *HealthService {
	return &HealthService{
		logger:   logger,
		store:    store,
		registry: registry,
		queue:    queue,
	}
}

// Check pings every configured backend concurrently
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{Queue: ComponentDisabled}

	var wg sync.WaitGroup
	run := func(name string, p Pinger, out *string) {
		if p == nil {
			*out = ComponentDisabled
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			*out = s.ping(ctx, name, p)
		}()
	}
	run("storage", s.store, &status.Storage)
	run("registry", s.registry, &status.Registry)
	run("queue", s.queue, &status.Queue)
	wg.Wait()

	status.Healthy = status.Storage != ComponentUnavailable &&
		status.Registry != ComponentUnavailable &&
		status.Queue != ComponentUnavailable
	return status
}

func (s *HealthService) ping(ctx context.Context, name string, p Pinger) string {
	ctx, cancel := context.WithTimeout(ctx, utils.HealthCheckTimeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		s.logger.Warn("Health check failed", "component", name, "error", err)
		return ComponentUnavailable
	}
	return ComponentOK
}
