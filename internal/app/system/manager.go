package system

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Manager starts registered services in registration order and stops them in
// reverse. Registration is rejected once the manager has started.
type Manager struct {
	mu       sync.Mutex
	services []Service
	names    map[string]struct{}
	started  bool
}

// NewManager creates an empty service manager.
func NewManager() *Manager {
	return &Manager{names: make(map[string]struct{})}
}

// Register adds a service. Names must be unique and non-empty.
func (m *Manager) Register(service Service) error {
	if service == nil {
		return errors.New("service is nil")
	}
	name := service.Name()
	if name == "" {
		return errors.New("service name is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("register %s: manager already started", name)
	}
	if _, exists := m.names[name]; exists {
		return fmt.Errorf("service %s already registered", name)
	}
	m.names[name] = struct{}{}
	m.services = append(m.services, service)
	return nil
}

// Start brings up every registered service. If one fails, services started so
// far are stopped in reverse order before the error is returned.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	services := make([]Service, len(m.services))
	copy(services, m.services)
	m.mu.Unlock()

	for i, service := range services {
		if err := service.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = services[j].Stop(ctx)
			}
			m.mu.Lock()
			m.started = false
			m.mu.Unlock()
			return fmt.Errorf("start %s: %w", service.Name(), err)
		}
	}
	return nil
}

// Stop shuts down services in reverse registration order. All services are
// attempted; the combined error is returned.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	services := make([]Service, len(m.services))
	copy(services, m.services)
	m.mu.Unlock()

	var errs []error
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", services[i].Name(), err))
		}
	}
	return errors.Join(errs...)
}

// NoopService satisfies Service for components that need a lifecycle slot but
// have nothing to run.
type NoopService struct {
	ServiceName string
}

func (s NoopService) Name() string { return s.ServiceName }

func (s NoopService) Start(_ context.Context) error { return nil }

func (s NoopService) Stop(_ context.Context) error { return nil }
