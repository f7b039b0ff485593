package manager

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Manager owns the shared engine and serves render requests on it.
type Manager struct {
	env        Environment
	launcher   Launcher
	retry      RetryPolicy
	launchWait time.Duration
	probe      time.Duration
	loadTO     time.Duration
	exportTO   time.Duration
	maxWait    time.Duration

	// engine is the instance cache: zero or one live engine. Reads are
	// lock-free; every replacement happens while holding launchMu.
	engine   atomic.Pointer[engineRef]
	launchMu *semaphore.Weighted
	closed   atomic.Bool

	maxSessions int
	sessions    *semaphore.Weighted

	mu           sync.RWMutex
	state        State
	strategy     StrategyKind
	lastErr      error
	lastAttempts []LaunchAttempt

	launches       atomic.Uint64
	relaunches     atomic.Uint64
	invalidations  atomic.Uint64
	sessionsOpened atomic.Uint64
	sessionsClosed atomic.Uint64

	log       zerolog.Logger
	publisher EventPublisher
	metrics   MetricsCollector

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration

	startTime time.Time
}

type engineRef struct {
	e        Engine
	strategy StrategyKind
}

// New constructs a Manager for the given environment with default tunables.
func New(env Environment, logger *zerolog.Logger) *Manager {
	return NewWithConfig(ManagerConfig{Environment: env, Logger: logger})
}

// Ready reports whether the manager can accept renders: it is not shut down
// and the last launch did not fail for lack of an executable.
func (m *Manager) Ready() bool {
	if m.closed.Load() {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !(m.state == StateError && IsMissingBinary(m.lastErr))
}

// Warmup launches the engine ahead of the first render.
func (m *Manager) Warmup(ctx context.Context) error {
	_, err := m.ensure(ctx)
	return err
}

// Close shuts the shared engine down. Renders started afterwards fail with ErrClosed.
func (m *Manager) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	// Wait for an in-flight launch so its engine is not leaked.
	_ = m.launchMu.Acquire(context.Background(), 1)
	defer m.launchMu.Release(1)
	var err error
	if ref := m.engine.Swap(nil); ref != nil {
		err = ref.e.Close()
		m.metrics.EngineClosed("shutdown")
		m.publish(Event{Name: "engine_shutdown", PID: ref.e.PID()})
		m.log.Info().Str("event", "engine_shutdown").Int("pid", ref.e.PID()).Msg("engine closed")
	}
	m.setState(StateClosed, nil)
	return err
}

func (m *Manager) setState(s State, err error) {
	m.mu.Lock()
	m.state = s
	m.lastErr = err
	m.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
