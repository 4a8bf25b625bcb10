package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/mailctl/internal/domain"
	"github.com/bnema/mailctl/internal/ports"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	defaultMonitorInterval     = 6 * time.Second
	defaultMonitorProbeTimeout = 5 * time.Second
)

type MonitorOptions struct {
	Interval     time.Duration
	ProbeTimeout time.Duration
	// OnChange is called from the monitor goroutine after every probe that
	// changes the status. It must not block.
	OnChange func(domain.HealthStatus)
	Logger   *zap.Logger
}

// Monitor polls a HealthProbe on a fixed interval. Probes never overlap: a
// tick or a manual check that arrives while one is running is skipped.
type Monitor struct {
	probe ports.HealthProbe
	opts  MonitorOptions

	status atomic.Value
	busy   atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewMonitor(probe ports.HealthProbe, opts MonitorOptions) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = defaultMonitorInterval
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaultMonitorProbeTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	opts.Logger = opts.Logger.Named("monitor")

	m := &Monitor{probe: probe, opts: opts}
	m.status.Store(domain.HealthChecking)
	return m
}

// Start launches the polling loop. The first probe runs immediately. Calling
// Start on a running monitor does nothing.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	ticker := backoff.NewTicker(backoff.NewConstantBackOff(m.opts.Interval))
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case _, ok := <-ticker.C:
				if !ok {
					return
				}
				m.check(loopCtx)
			}
		}
	}()
}

// Stop ends the loop and waits for it to exit. It is safe to call before
// Start and more than once.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// CheckNow probes once unless a probe is already running, in which case the
// current status is returned as-is.
func (m *Monitor) CheckNow(ctx context.Context) domain.HealthStatus {
	m.check(ctx)
	return m.Status()
}

func (m *Monitor) Status() domain.HealthStatus {
	return m.status.Load().(domain.HealthStatus)
}

func (m *Monitor) Busy() bool {
	return m.busy.Load()
}

func (m *Monitor) check(ctx context.Context) {
	if !m.busy.CompareAndSwap(false, true) {
		return
	}
	defer m.busy.Store(false)

	probeCtx, cancel := context.WithTimeout(ctx, m.opts.ProbeTimeout)
	alive, err := m.probe.Probe(probeCtx)
	cancel()

	next := domain.HealthDown
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return
		}
		m.opts.Logger.Debug("probe failed", zap.Error(err))
	case alive:
		next = domain.HealthUp
	}

	prev := m.status.Swap(next).(domain.HealthStatus)
	if prev != next && m.opts.OnChange != nil {
		m.opts.OnChange(next)
	}
}
