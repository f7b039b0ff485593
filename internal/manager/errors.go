package manager

import (
	"context"
	"errors"
	"fmt"
)

// ErrorClass classifies failures so callers can tell "retry later" from
// "fix configuration" from "engine fault".
type ErrorClass string

const (
	ClassSpawnBusy          ErrorClass = "spawn_busy"
	ClassSpawnTimeout       ErrorClass = "spawn_timeout"
	ClassMissingBinary      ErrorClass = "missing_binary"
	ClassOther              ErrorClass = "other"
	ClassContentLoadTimeout ErrorClass = "content_load_timeout"
	ClassExportTimeout      ErrorClass = "export_timeout"
	ClassDisconnected       ErrorClass = "disconnected"
	ClassInvalidRequest     ErrorClass = "invalid_request"
	ClassTooBusy            ErrorClass = "too_busy"
	ClassShutdown           ErrorClass = "shutdown"
	ClassUnknown            ErrorClass = "unknown"
)

// ErrClosed is returned once the manager has been shut down.
var ErrClosed = errors.New("render manager closed")

var (
	errLaunchInProgress = errors.New("engine launch in progress")
	errEmptyOutput      = errors.New("engine produced an empty document")
)

// LaunchError is a classified engine launch failure.
type LaunchError struct {
	Class    ErrorClass
	Strategy StrategyKind
	Err      error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %s: %v", e.Strategy, e.Class, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// RenderError is a classified failure of a single render.
type RenderError struct {
	Class ErrorClass
	// Op is the render step that failed: validate, admit, open, load or export.
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %s: %v", e.Op, e.Class, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func invalidRequest(format string, args ...any) error {
	return &RenderError{Class: ClassInvalidRequest, Op: "validate", Err: fmt.Errorf(format, args...)}
}

// ClassOf returns the class carried by err, ClassShutdown for ErrClosed and
// ClassUnknown for anything unclassified (including nil).
func ClassOf(err error) ErrorClass {
	var le *LaunchError
	if errors.As(err, &le) {
		return le.Class
	}
	var re *RenderError
	if errors.As(err, &re) {
		return re.Class
	}
	if errors.Is(err, ErrClosed) {
		return ClassShutdown
	}
	return ClassUnknown
}

// IsSpawnBusy reports a transient launch race (retry later).
func IsSpawnBusy(err error) bool { return ClassOf(err) == ClassSpawnBusy }

// IsMissingBinary reports a configuration error: the engine executable is absent.
func IsMissingBinary(err error) bool { return ClassOf(err) == ClassMissingBinary }

// IsContentLoadTimeout reports that the document did not become ready in time.
func IsContentLoadTimeout(err error) bool { return ClassOf(err) == ClassContentLoadTimeout }

// IsExportTimeout reports that PDF export did not finish in time.
func IsExportTimeout(err error) bool { return ClassOf(err) == ClassExportTimeout }

// IsDisconnected reports that the shared engine died during a render.
func IsDisconnected(err error) bool { return ClassOf(err) == ClassDisconnected }

// IsInvalidRequest reports a rejected render request.
func IsInvalidRequest(err error) bool { return ClassOf(err) == ClassInvalidRequest }

// IsTooBusy reports that no render slot became free in time (return 429).
func IsTooBusy(err error) bool { return ClassOf(err) == ClassTooBusy }

// IsCanceled reports a caller-initiated cancellation.
func IsCanceled(err error) bool { return errors.Is(err, context.Canceled) }

// IsRetryable reports whether the caller may retry the same request later.
func IsRetryable(err error) bool {
	switch ClassOf(err) {
	case ClassSpawnBusy, ClassSpawnTimeout, ClassOther, ClassDisconnected, ClassTooBusy:
		return true
	}
	return false
}
