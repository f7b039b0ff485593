package manager

import (
	"context"
	"time"
)

func (m *Manager) cached() *engineRef { return m.engine.Load() }

// alive runs the liveness probe against e.
func (m *Manager) alive(ctx context.Context, e Engine) bool {
	if !e.Connected() {
		return false
	}
	pctx, cancel := context.WithTimeout(ctx, m.probe)
	defer cancel()
	return e.Ping(pctx) == nil
}

// ensure returns a live engine, launching one if the cache is empty or its
// engine fails the probe. Launches are serialized by launchMu; callers that
// arrive during a launch wait for it (up to launchWait) instead of spawning.
func (m *Manager) ensure(ctx context.Context) (Engine, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if ref := m.cached(); ref != nil && m.alive(ctx, ref.e) {
		return ref.e, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, m.launchWait)
	err := m.launchMu.Acquire(waitCtx, 1)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		m.log.Warn().Str("event", "launch_wait_timeout").Dur("waited", m.launchWait).Msg("gave up waiting for engine launch")
		return nil, &LaunchError{Class: ClassSpawnBusy, Strategy: Resolve(m.env).Kind, Err: errLaunchInProgress}
	}
	defer m.launchMu.Release(1)

	if m.closed.Load() {
		return nil, ErrClosed
	}
	replacing := false
	if ref := m.cached(); ref != nil {
		// Probe detached from ctx: an aborted caller must not read as a dead engine.
		if m.alive(context.WithoutCancel(ctx), ref.e) {
			return ref.e, nil
		}
		m.dropLocked(ref, "probe_failed")
		replacing = true
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	strategy := Resolve(m.env)
	m.mu.Lock()
	m.state = StateLaunching
	m.strategy = strategy.Kind
	m.mu.Unlock()
	m.publish(Event{Name: "launch_start", Fields: map[string]any{"strategy": strategy.String()}})
	start := time.Now()

	eng, attempts, err := m.launchWithRetry(ctx, strategy)

	m.mu.Lock()
	m.lastAttempts = attempts
	m.mu.Unlock()
	if err != nil {
		m.setState(StateError, err)
		m.publish(Event{Name: "launch_failed", Fields: map[string]any{"strategy": strategy.String(), "attempts": len(attempts), "error": err.Error()}})
		m.log.Error().Err(err).Str("event", "launch_exhausted").Str("strategy", strategy.String()).Int("attempts", len(attempts)).
			Str("class", string(ClassOf(err))).Msg("engine unavailable")
		return nil, err
	}

	m.engine.Store(&engineRef{e: eng, strategy: strategy.Kind})
	m.launches.Add(1)
	if replacing || m.launches.Load() > 1 {
		m.relaunches.Add(1)
	}
	m.metrics.EngineLaunched(strategy.String(), time.Since(start))
	m.setState(StateReady, nil)
	m.publish(Event{Name: "engine_ready", PID: eng.PID(), Fields: map[string]any{"strategy": strategy.String(), "attempts": len(attempts)}})
	return eng, nil
}

// invalidate drops e from the cache if it is still the cached engine and
// closes it. A newer engine launched by someone else is left alone.
func (m *Manager) invalidate(ctx context.Context, e Engine, reason string) {
	if err := m.launchMu.Acquire(ctx, 1); err != nil {
		// The next ensure probes and drops the engine lazily.
		return
	}
	defer m.launchMu.Release(1)
	if ref := m.cached(); ref != nil && ref.e == e {
		m.dropLocked(ref, reason)
	}
}

// dropLocked removes ref from the cache and closes its engine. Caller holds launchMu.
func (m *Manager) dropLocked(ref *engineRef, reason string) {
	if !m.engine.CompareAndSwap(ref, nil) {
		return
	}
	m.invalidations.Add(1)
	if err := ref.e.Close(); err != nil {
		m.log.Warn().Err(err).Str("event", "engine_close_error").Int("pid", ref.e.PID()).Msg("closing dropped engine")
	}
	m.metrics.EngineClosed(reason)
	m.publish(Event{Name: "engine_invalidated", PID: ref.e.PID(), Fields: map[string]any{"reason": reason}})
	m.log.Warn().Str("event", "engine_invalidated").Int("pid", ref.e.PID()).Str("reason", reason).Msg("dropped cached engine")
}
