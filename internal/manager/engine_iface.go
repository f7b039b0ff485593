package manager

import (
	"context"
	"time"

	"renderd/pkg/types"
)

// Launcher starts a rendering engine process for a resolved strategy.
// Failures should be returned as *LaunchError so the retry loop can classify them.
type Launcher interface {
	Launch(ctx context.Context, s LaunchStrategy) (Engine, error)
}

// Engine is a running headless engine process. It is owned by the Manager's
// instance cache; callers never close it directly.
type Engine interface {
	PID() int
	CreatedAt() time.Time
	// Connected reports the last known connection state without a round trip.
	Connected() bool
	// Ping is the liveness probe: a cheap round trip to the process.
	Ping(ctx context.Context) error
	// OpenSession opens an isolated page on the engine.
	OpenSession(ctx context.Context) (Session, error)
	// Close terminates the process. It is idempotent.
	Close() error
}

// Session is a short-lived page scoped to one document-to-PDF conversion.
type Session interface {
	ID() string
	// Load installs the document and waits until it is ready.
	Load(ctx context.Context, html string) error
	// Export prints the loaded document with the given geometry.
	Export(ctx context.Context, opts types.PageOptions) ([]byte, error)
	// Close releases the page. It is idempotent.
	Close() error
}
