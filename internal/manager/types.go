package manager

import "time"

// State represents the lifecycle state of the shared engine.
type State string

const (
	StateIdle      State = "idle"
	StateLaunching State = "launching"
	StateReady     State = "ready"
	StateError     State = "error"
	StateClosed    State = "closed"
)

// LaunchAttempt is bookkeeping for one iteration of the launch retry loop.
type LaunchAttempt struct {
	Attempt int
	// Class is empty for the successful attempt.
	Class ErrorClass
	// Delay applied before the next attempt (zero for the last one).
	Delay time.Duration
	Err   error
}

// RenderResult is a finished PDF. It is never returned alongside an error.
type RenderResult struct {
	Bytes     []byte
	SizeBytes int
	Duration  time.Duration
	PageCount int
}

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State    State
	Strategy StrategyKind
	PID      int
	Err      string
}
