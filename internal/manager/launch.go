package manager

import (
	"context"
	"math/rand/v2"
	"time"
)

// delay returns the wait before the attempt following a failed attempt n (1-based).
func (p RetryPolicy) delay(n int, class ErrorClass, jitter func(time.Duration) time.Duration) time.Duration {
	if class != ClassSpawnBusy {
		return p.OtherDelay + jitter(p.OtherJitter)
	}
	d := p.BusyBaseDelay
	for i := 1; i < n && d < p.BusyMaxDelay; i++ {
		d *= 2
	}
	d += jitter(p.BusyJitter)
	if d > p.BusyMaxDelay {
		d = p.BusyMaxDelay
	}
	return d
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max)
}

// launchWithRetry runs sequential launch attempts for s. Missing binaries fail
// immediately; other failures are retried with backoff. When every attempt
// fails the last error is returned as-is. Delays never decrease.
func (m *Manager) launchWithRetry(ctx context.Context, s LaunchStrategy) (Engine, []LaunchAttempt, error) {
	var (
		attempts []LaunchAttempt
		prev     time.Duration
		lastErr  error
	)
	max := m.retry.MaxAttempts
	for n := 1; n <= max; n++ {
		m.log.Debug().Str("event", "launch_attempt").Str("strategy", s.String()).Int("attempt", n).Int("max_attempts", max).Msg("launching engine")
		eng, err := m.launcher.Launch(ctx, s)
		if err == nil {
			attempts = append(attempts, LaunchAttempt{Attempt: n})
			m.metrics.LaunchAttempt(s.String(), "ok")
			m.publish(Event{Name: "launch_attempt", PID: eng.PID(), Fields: map[string]any{"attempt": n, "strategy": s.String(), "ok": true}})
			m.log.Info().Str("event", "launch_ok").Str("strategy", s.String()).Int("attempt", n).Int("pid", eng.PID()).Msg("engine launched")
			return eng, attempts, nil
		}
		lastErr = err
		class := ClassOf(err)
		if class == ClassUnknown {
			class = ClassOther
		}
		rec := LaunchAttempt{Attempt: n, Class: class, Err: err}
		m.metrics.LaunchAttempt(s.String(), string(class))

		retry := class != ClassMissingBinary && n < max && ctx.Err() == nil
		if retry {
			d := m.retry.delay(n, class, m.jitter)
			if d < prev {
				d = prev
			}
			prev = d
			rec.Delay = d
		}
		attempts = append(attempts, rec)
		m.publish(Event{Name: "launch_attempt", Fields: map[string]any{
			"attempt": n, "strategy": s.String(), "ok": false, "class": string(class), "delay_ms": rec.Delay.Milliseconds(), "error": err.Error(),
		}})
		m.log.Warn().Err(err).Str("event", "launch_failed").Str("strategy", s.String()).Int("attempt", n).Int("max_attempts", max).
			Str("class", string(class)).Dur("delay", rec.Delay).Msg("engine launch failed")

		if !retry {
			break
		}
		if err := m.sleep(ctx, rec.Delay); err != nil {
			return nil, attempts, err
		}
	}
	if ctx.Err() != nil && ClassOf(lastErr) != ClassMissingBinary {
		return nil, attempts, ctx.Err()
	}
	return nil, attempts, lastErr
}
