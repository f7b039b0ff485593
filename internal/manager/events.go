package manager

import (
	"time"

	"github.com/rs/zerolog"
)

// Event is an engine lifecycle notification: launch_start, launch_attempt,
// engine_ready, launch_failed, engine_invalidated, engine_shutdown.
type Event struct {
	Name string
	// PID of the engine involved, zero when there is none yet.
	PID    int
	At     time.Time
	Fields map[string]any
}

// EventPublisher receives events from the manager. Publish is called on the
// render path and must not block or panic.
type EventPublisher interface {
	Publish(Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// LogPublisher writes every event to a zerolog logger at debug level.
type LogPublisher struct {
	Log zerolog.Logger
}

func (p LogPublisher) Publish(e Event) {
	ev := p.Log.Debug().Str("event", e.Name)
	if e.PID > 0 {
		ev = ev.Int("pid", e.PID)
	}
	ev.Fields(e.Fields).Msg("engine event")
}

// publish stamps e and hands it to the configured publisher.
func (m *Manager) publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	m.publisher.Publish(e)
}
