package manager

import (
	"context"
	"errors"
	"fmt"
)

// withSession opens a session on e, runs fn and closes the session on every
// exit path, panics included. It never closes the engine itself.
func (m *Manager) withSession(ctx context.Context, e Engine, fn func(Session) error) (err error) {
	s, err := e.OpenSession(ctx)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case !m.alive(context.WithoutCancel(ctx), e):
			return &RenderError{Class: ClassDisconnected, Op: "open", Err: err}
		}
		var re *RenderError
		if errors.As(err, &re) {
			return err
		}
		return &RenderError{Class: ClassUnknown, Op: "open", Err: err}
	}
	n := m.sessionsOpened.Add(1)
	m.metrics.SessionsInUse(int64(n - m.sessionsClosed.Load()))
	m.log.Debug().Str("event", "session_open").Str("session", s.ID()).Int("pid", e.PID()).Msg("render session opened")

	defer func() {
		if r := recover(); r != nil {
			err = &RenderError{Class: ClassUnknown, Op: "session", Err: fmt.Errorf("panic: %v", r)}
		}
		m.closeSession(e, s)
	}()
	return fn(s)
}

func (m *Manager) closeSession(e Engine, s Session) {
	if cerr := s.Close(); cerr != nil {
		m.log.Warn().Err(cerr).Str("event", "session_close_error").Str("session", s.ID()).Int("pid", e.PID()).Msg("closing render session")
	}
	c := m.sessionsClosed.Add(1)
	m.metrics.SessionsInUse(int64(m.sessionsOpened.Load() - c))
	m.log.Debug().Str("event", "session_close").Str("session", s.ID()).Msg("render session closed")
}
