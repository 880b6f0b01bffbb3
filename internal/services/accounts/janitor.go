package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/readstack/catalog/internal/app/system"
	"github.com/readstack/catalog/pkg/logger"
)

var _ system.Service = (*Janitor)(nil)

// Janitor periodically deletes expired session rows so the sessions table
// does not grow without bound.
type Janitor struct {
	service  *Service
	log      *logger.Logger
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewJanitor creates a lifecycle-managed session sweeper. Intervals at or
// below zero default to one hour.
func NewJanitor(service *Service, interval time.Duration, log *logger.Logger) *Janitor {
	if log == nil {
		log = logger.NewDefault("session-janitor")
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Janitor{service: service, log: log, interval: interval}
}

func (j *Janitor) Name() string { return "session-janitor" }

func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				j.sweep(runCtx)
			}
		}
	}()

	j.log.Info("session janitor started")
	return nil
}

func (j *Janitor) Stop(ctx context.Context) error {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return nil
	}
	cancel := j.cancel
	j.running = false
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		j.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	j.log.Info("session janitor stopped")
	return nil
}

func (j *Janitor) sweep(ctx context.Context) {
	if j.service == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	removed, err := j.service.PurgeExpired(ctx)
	if err != nil {
		j.log.WithError(err).Warn("session sweep failed")
		return
	}
	if removed > 0 {
		j.log.WithField("removed", removed).Info("expired sessions purged")
	}
}
