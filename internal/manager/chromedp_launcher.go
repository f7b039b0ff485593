package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// ChromedpLauncher starts Chromium (or headless_shell) processes and drives
// them over the DevTools protocol.
type ChromedpLauncher struct {
	startTimeout time.Duration
	log          zerolog.Logger
}

// NewChromedpLauncher returns a launcher that gives each process startTimeout
// to expose its DevTools endpoint.
func NewChromedpLauncher(startTimeout time.Duration, logger zerolog.Logger) *ChromedpLauncher {
	if startTimeout <= 0 {
		startTimeout = defaultStartTimeout
	}
	return &ChromedpLauncher{startTimeout: startTimeout, log: logger}
}

// allocatorOptions returns the exec allocator options for s. The flag set
// depends only on the strategy, so every retry starts the same command line.
func allocatorOptions(s LaunchStrategy, bin string) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	for _, f := range s.Flags() {
		opts = append(opts, chromedp.Flag(f.Name, f.Value))
	}
	opts = append(opts, chromedp.ExecPath(bin))
	if len(s.LibraryPaths) > 0 {
		opts = append(opts, chromedp.Env("LD_LIBRARY_PATH="+strings.Join(s.LibraryPaths, string(os.PathListSeparator))))
	}
	return opts
}

// Launch implements Launcher. The returned engine is detached from ctx: ctx
// only bounds the start itself.
func (l *ChromedpLauncher) Launch(ctx context.Context, s LaunchStrategy) (Engine, error) {
	bin, err := executableFor(s)
	if err != nil {
		return nil, err
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(s, bin)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			l.log.Debug().Str("component", "chromedp").Msgf(format, args...)
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			l.log.Warn().Str("component", "chromedp").Msgf(format, args...)
		}),
	)

	started := make(chan error, 1)
	go func() { started <- chromedp.Run(browserCtx) }()

	timer := time.NewTimer(l.startTimeout)
	defer timer.Stop()
	select {
	case err = <-started:
	case <-timer.C:
		err = fmt.Errorf("engine did not start within %s: %w", l.startTimeout, context.DeadlineExceeded)
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		browserCancel()
		allocCancel()
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &LaunchError{Class: classifySpawnError(err), Strategy: s.Kind, Err: err}
	}

	e := &chromeEngine{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		created:       time.Now(),
		log:           l.log,
	}
	if c := chromedp.FromContext(browserCtx); c != nil && c.Browser != nil {
		if p := c.Browser.Process(); p != nil {
			e.pid = p.Pid
		}
	}
	l.log.Debug().Str("event", "engine_started").Str("strategy", s.String()).Str("exec", bin).Int("pid", e.pid).Msg("chromium started")
	return e, nil
}
