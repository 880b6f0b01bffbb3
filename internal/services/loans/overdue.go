package loans

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/readstack/catalog/internal/app/system"
	"github.com/readstack/catalog/internal/metrics"
	"github.com/readstack/catalog/pkg/logger"
)

var _ system.Service = (*OverdueMonitor)(nil)

// OverdueMonitor periodically counts loans past their due date and publishes
// the figure as a gauge so dashboards can alert on it.
type OverdueMonitor struct {
	service  *Service
	log      *logger.Logger
	schedule cron.Schedule

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewOverdueMonitor creates a lifecycle-managed overdue scanner. The schedule
// uses the standard five-field cron syntax plus the @hourly style shortcuts.
func NewOverdueMonitor(service *Service, spec string, log *logger.Logger) (*OverdueMonitor, error) {
	if log == nil {
		log = logger.NewDefault("overdue-monitor")
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse overdue schedule %q: %w", spec, err)
	}
	return &OverdueMonitor{service: service, log: log, schedule: schedule}, nil
}

func (m *OverdueMonitor) Name() string { return "overdue-monitor" }

func (m *OverdueMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.scan(runCtx)

		for {
			next := m.schedule.Next(time.Now())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-runCtx.Done():
				timer.Stop()
				return
			case <-timer.C:
				m.scan(runCtx)
			}
		}
	}()

	m.log.Info("overdue monitor started")
	return nil
}

func (m *OverdueMonitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.log.Info("overdue monitor stopped")
	return nil
}

func (m *OverdueMonitor) scan(ctx context.Context) {
	if m.service == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	count, err := m.service.CountOverdue(ctx)
	if err != nil {
		m.log.WithError(err).Warn("overdue scan failed")
		return
	}

	metrics.SetOverdueLoans(count)
	if count > 0 {
		m.log.WithField("overdue", count).Warn("loans past due date")
	}
}
