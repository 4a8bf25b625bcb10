package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/mailctl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProbe struct {
	mu      sync.Mutex
	alive   bool
	err     error
	calls   atomic.Int32
	block   chan struct{}
	entered chan struct{}
}

func (p *scriptedProbe) set(alive bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alive, p.err = alive, err
}

func (p *scriptedProbe) Probe(ctx context.Context) (bool, error) {
	p.calls.Add(1)
	if p.block != nil {
		if p.entered != nil {
			p.entered <- struct{}{}
		}
		select {
		case <-p.block:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive, p.err
}

func waitStatus(t *testing.T, ch <-chan domain.HealthStatus, want domain.HealthStatus) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("status %q never reported", want)
		}
	}
}

func TestMonitorProbesImmediatelyOnStart(t *testing.T) {
	t.Parallel()

	probe := &scriptedProbe{alive: true}
	changes := make(chan domain.HealthStatus, 8)
	m := NewMonitor(probe, MonitorOptions{
		Interval: time.Hour,
		OnChange: func(s domain.HealthStatus) { changes <- s },
	})
	assert.Equal(t, domain.HealthChecking, m.Status())

	m.Start(context.Background())
	t.Cleanup(m.Stop)

	waitStatus(t, changes, domain.HealthUp)
	assert.Equal(t, domain.HealthUp, m.Status())
	assert.Equal(t, int32(1), probe.calls.Load())
}

func TestMonitorProbeErrorMeansDown(t *testing.T) {
	t.Parallel()

	probe := &scriptedProbe{alive: true}
	changes := make(chan domain.HealthStatus, 8)
	m := NewMonitor(probe, MonitorOptions{
		Interval: 10 * time.Millisecond,
		OnChange: func(s domain.HealthStatus) { changes <- s },
	})
	m.Start(context.Background())
	t.Cleanup(m.Stop)
	waitStatus(t, changes, domain.HealthUp)

	probe.set(true, errors.New("status 502"))
	waitStatus(t, changes, domain.HealthDown)

	probe.set(true, nil)
	waitStatus(t, changes, domain.HealthUp)
}

func TestMonitorCheckNowSkipsWhileProbeInFlight(t *testing.T) {
	t.Parallel()

	probe := &scriptedProbe{alive: true, block: make(chan struct{}), entered: make(chan struct{}, 1)}
	m := NewMonitor(probe, MonitorOptions{Interval: time.Hour})

	done := make(chan domain.HealthStatus, 1)
	go func() { done <- m.CheckNow(context.Background()) }()
	<-probe.entered
	require.True(t, m.Busy())

	assert.Equal(t, domain.HealthChecking, m.CheckNow(context.Background()))
	assert.Equal(t, int32(1), probe.calls.Load())

	close(probe.block)
	assert.Equal(t, domain.HealthUp, <-done)
	assert.False(t, m.Busy())
}

func TestMonitorStopIsIdempotentAndRestartable(t *testing.T) {
	t.Parallel()

	probe := &scriptedProbe{alive: false}
	m := NewMonitor(probe, MonitorOptions{Interval: time.Hour})

	m.Stop()

	m.Start(context.Background())
	require.Eventually(t, func() bool { return probe.calls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)
	m.Stop()
	m.Stop()

	m.Start(context.Background())
	require.Eventually(t, func() bool { return probe.calls.Load() == 2 }, 5*time.Second, 5*time.Millisecond)
	m.Stop()
	assert.Equal(t, domain.HealthDown, m.Status())
}

func TestMonitorStopCancelsBlockedProbe(t *testing.T) {
	t.Parallel()

	probe := &scriptedProbe{alive: true, block: make(chan struct{}), entered: make(chan struct{}, 1)}
	m := NewMonitor(probe, MonitorOptions{Interval: time.Hour, ProbeTimeout: time.Hour})

	m.Start(context.Background())
	<-probe.entered

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		m.Stop()
	}()
	waitDone(t, stopped)
	assert.Equal(t, domain.HealthChecking, m.Status())
}
