package types

// RenderRequest is the payload of POST /render.
type RenderRequest struct {
	// Fully assembled HTML document to render.
	// example: <!DOCTYPE html><html><body><h1>Report</h1></body></html>
	HTML string `json:"html" example:"<!DOCTYPE html><html><body><h1>Report</h1></body></html>"`
	// Identifier used to name the artifact (<name>.pdf). A random id is used when empty.
	// example: report-2024-001
	Name string `json:"name,omitempty" example:"report-2024-001"`
	// Page geometry. Missing fields take the service defaults (A4, portrait, 0.5cm).
	Page PageOptions `json:"page,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Short error message.
	// example: engine launch failed
	Error string `json:"error" example:"engine launch failed"`
	// Underlying cause, if any.
	// example: fork/exec /opt/chromium/chrome: text file busy
	Details string `json:"details,omitempty" example:"fork/exec /opt/chromium/chrome: text file busy"`
	// Machine-readable failure class (spawn_busy, missing_binary, content_load_timeout, ...).
	// example: spawn_busy
	ErrorClass string `json:"errorClass,omitempty" example:"spawn_busy"`
	// HTTP status code.
	// example: 503
	Code int `json:"code" example:"503"`
}

// LaunchAttemptStatus describes one engine launch attempt.
type LaunchAttemptStatus struct {
	// 1-based attempt number.
	// example: 2
	Attempt int `json:"attempt" example:"2"`
	// Failure class of the attempt, or "ok".
	// example: spawn_busy
	Class string `json:"class" example:"spawn_busy"`
	// Delay applied before the next attempt, in milliseconds.
	// example: 1000
	DelayMs int64 `json:"delay_ms" example:"1000"`
	// Error text of a failed attempt.
	Error string `json:"error,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Engine lifecycle state: idle, launching, ready, error, closed.
	// example: ready
	State string `json:"state" example:"ready"`
	// Launch strategy of the cached engine.
	// example: local_default
	Strategy string `json:"strategy,omitempty" example:"local_default"`
	// Process ID of the cached engine.
	// example: 12345
	PID int `json:"pid,omitempty" example:"12345"`
	// Engine creation time (unix seconds).
	// example: 1700000000
	EngineCreatedUnix int64 `json:"engine_created_unix,omitempty" example:"1700000000"`
	// Whether the cached engine reports itself connected.
	// example: true
	Connected bool `json:"connected" example:"true"`
	// Successful engine launches since start.
	// example: 1
	LaunchesTotal uint64 `json:"launches_total" example:"1"`
	// Launches that replaced a previously cached engine.
	// example: 0
	RelaunchesTotal uint64 `json:"relaunches_total" example:"0"`
	// Engines dropped after a failed probe or a disconnect.
	// example: 0
	InvalidationsTotal uint64 `json:"invalidations_total" example:"0"`
	// Attempts of the most recent launch.
	LastLaunchAttempts []LaunchAttemptStatus `json:"last_launch_attempts,omitempty"`
	// Last error observed by the manager (if any).
	LastError string `json:"last_error,omitempty"`
	// Class of the last error (if any).
	LastErrorClass string `json:"last_error_class,omitempty"`
	// Render sessions currently open.
	// example: 1
	SessionsOpen int64 `json:"sessions_open" example:"1"`
	// Render sessions opened since start.
	// example: 42
	SessionsOpened uint64 `json:"sessions_opened" example:"42"`
	// Render sessions closed since start.
	// example: 41
	SessionsClosed uint64 `json:"sessions_closed" example:"41"`
	// Maximum concurrent render sessions.
	// example: 4
	MaxSessions int `json:"max_sessions" example:"4"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
