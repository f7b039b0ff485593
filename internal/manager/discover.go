package manager

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"

	"renderd/internal/common/fsutil"
)

// chromeNames are looked up on PATH for the local default strategy.
var chromeNames = []string{
	"headless_shell",
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"chrome",
}

// chromePaths are well-known install locations checked after PATH.
var chromePaths = []string{
	"/usr/bin/chromium",
	"/usr/bin/google-chrome",
	"/opt/google/chrome/chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
}

var lookPath = exec.LookPath

func discoverChrome() string {
	for _, name := range chromeNames {
		if p, err := lookPath(name); err == nil {
			return p
		}
	}
	return fsutil.FirstFile(chromePaths...)
}

// executableFor returns the binary to start for s, or a missing_binary
// LaunchError when there is none. Checking before spawning keeps a missing
// executable from looking like a transient failure.
func executableFor(s LaunchStrategy) (string, error) {
	var bin string
	switch s.Kind {
	case CustomExecutable, BundledMinimal:
		bin = s.ExecPath
	default:
		bin = discoverChrome()
	}
	if bin == "" {
		return "", &LaunchError{Class: ClassMissingBinary, Strategy: s.Kind, Err: fmt.Errorf("no engine executable for %s: %w", s, fs.ErrNotExist)}
	}
	if !fsutil.IsFile(bin) {
		return bin, &LaunchError{Class: ClassMissingBinary, Strategy: s.Kind, Err: &fs.PathError{Op: "stat", Path: bin, Err: fs.ErrNotExist}}
	}
	return bin, nil
}

// classifySpawnError maps a process start failure to an ErrorClass.
func classifySpawnError(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassUnknown
	case isTextBusy(err):
		return ClassSpawnBusy
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return ClassMissingBinary
	case errors.Is(err, context.DeadlineExceeded):
		return ClassSpawnTimeout
	default:
		return ClassOther
	}
}
