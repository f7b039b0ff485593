package manager

import (
	"time"

	"renderd/pkg/types"
)

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	s := Snapshot{State: m.state, Strategy: m.strategy}
	if m.lastErr != nil {
		s.Err = m.lastErr.Error()
	}
	m.mu.RUnlock()
	if ref := m.cached(); ref != nil {
		s.PID = ref.e.PID()
	}
	return s
}

// Status builds a detailed status response for /status. It does not probe
// the engine.
func (m *Manager) Status() types.StatusResponse {
	now := time.Now()
	m.mu.RLock()
	resp := types.StatusResponse{
		State:    string(m.state),
		Strategy: m.strategy.String(),
	}
	if m.lastErr != nil {
		resp.LastError = m.lastErr.Error()
		resp.LastErrorClass = string(ClassOf(m.lastErr))
	}
	for _, a := range m.lastAttempts {
		st := types.LaunchAttemptStatus{Attempt: a.Attempt, Class: "ok", DelayMs: a.Delay.Milliseconds()}
		if a.Err != nil {
			st.Class = string(a.Class)
			st.Error = a.Err.Error()
		}
		resp.LastLaunchAttempts = append(resp.LastLaunchAttempts, st)
	}
	m.mu.RUnlock()

	if ref := m.cached(); ref != nil {
		resp.Strategy = ref.strategy.String()
		resp.PID = ref.e.PID()
		resp.EngineCreatedUnix = ref.e.CreatedAt().Unix()
		resp.Connected = ref.e.Connected()
	}
	resp.LaunchesTotal = m.launches.Load()
	resp.RelaunchesTotal = m.relaunches.Load()
	resp.InvalidationsTotal = m.invalidations.Load()
	resp.SessionsOpened = m.sessionsOpened.Load()
	resp.SessionsClosed = m.sessionsClosed.Load()
	resp.SessionsOpen = int64(resp.SessionsOpened - resp.SessionsClosed)
	resp.MaxSessions = m.maxSessions
	resp.UptimeSeconds = int64(now.Sub(m.startTime).Seconds())
	resp.ServerTimeUnix = now.Unix()
	return resp
}
