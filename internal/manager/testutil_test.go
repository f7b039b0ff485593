package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"renderd/pkg/types"
)

// fakeLauncher returns scripted errors for the first len(errs) launches,
// then live fake engines.
type fakeLauncher struct {
	mu       sync.Mutex
	errs     []error
	calls    atomic.Int32
	delay    time.Duration
	engines  []*fakeEngine
	sessions sessionScript
	// onPing is copied to every engine and runs at the start of Ping.
	onPing func()
}

func (l *fakeLauncher) Launch(ctx context.Context, s LaunchStrategy) (Engine, error) {
	n := int(l.calls.Add(1))
	if l.delay > 0 {
		select {
		case <-time.After(l.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= len(l.errs) && l.errs[n-1] != nil {
		return nil, l.errs[n-1]
	}
	e := &fakeEngine{pid: 1000 + n, created: time.Now(), script: l.sessions, onPing: l.onPing}
	e.connected.Store(true)
	l.engines = append(l.engines, e)
	return e, nil
}

func (l *fakeLauncher) launched() []*fakeEngine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*fakeEngine(nil), l.engines...)
}

// sessionScript controls fake session behavior.
type sessionScript struct {
	loadHang   bool
	exportHang bool
	loadErr    error
	exportErr  error
	openErr    error
	// killOnLoad marks the engine dead when Load runs.
	killOnLoad bool
	panicLoad  bool
}

type fakeEngine struct {
	pid       int
	created   time.Time
	connected atomic.Bool
	pingFail  atomic.Bool
	pings     atomic.Int32
	closed    atomic.Int32
	script    sessionScript
	opened    atomic.Int32
	closedS   atomic.Int32
	onPing    func()
}

func (e *fakeEngine) PID() int             { return e.pid }
func (e *fakeEngine) CreatedAt() time.Time { return e.created }
func (e *fakeEngine) Connected() bool      { return e.connected.Load() }

func (e *fakeEngine) Ping(ctx context.Context) error {
	e.pings.Add(1)
	if e.onPing != nil {
		e.onPing()
	}
	if e.pingFail.Load() {
		return errors.New("ping: no response")
	}
	if !e.connected.Load() {
		return errors.New("connection closed")
	}
	return ctx.Err()
}

func (e *fakeEngine) kill() {
	e.connected.Store(false)
}

func (e *fakeEngine) OpenSession(ctx context.Context) (Session, error) {
	if e.script.openErr != nil {
		return nil, e.script.openErr
	}
	if !e.connected.Load() {
		return nil, errors.New("target closed")
	}
	n := e.opened.Add(1)
	return &fakeSession{id: fmt.Sprintf("s-%d-%d", e.pid, n), e: e}, nil
}

func (e *fakeEngine) Close() error {
	e.closed.Add(1)
	e.connected.Store(false)
	return nil
}

type fakeSession struct {
	id     string
	e      *fakeEngine
	closed atomic.Bool
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Load(ctx context.Context, html string) error {
	sc := s.e.script
	if sc.panicLoad {
		panic("boom")
	}
	if sc.killOnLoad {
		s.e.kill()
		return errors.New("websocket: close 1006 (abnormal closure)")
	}
	if sc.loadHang {
		<-ctx.Done()
		return ctx.Err()
	}
	return sc.loadErr
}

func (s *fakeSession) Export(ctx context.Context, opts types.PageOptions) ([]byte, error) {
	sc := s.e.script
	if sc.exportHang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if sc.exportErr != nil {
		return nil, sc.exportErr
	}
	pp := buildPrintParams(opts)
	doc := fmt.Sprintf("%%PDF-1.4\n1 0 obj << /Type /Pages /Count 1 >>\n2 0 obj << /Type /Page /MediaBox [0 0 %.0f %.0f] >>\n%%%%EOF\n", pp.paperWidth*72, pp.paperHeight*72)
	return []byte(doc), nil
}

func (s *fakeSession) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.e.closedS.Add(1)
	}
	return nil
}

func busyErr() error {
	return &LaunchError{Class: ClassSpawnBusy, Strategy: BundledMinimal, Err: &fakePathError{err: errors.New("text file busy")}}
}

type fakePathError struct{ err error }

func (e *fakePathError) Error() string { return "fork/exec /tmp/chromium: " + e.err.Error() }
func (e *fakePathError) Unwrap() error { return e.err }

// recordedSleeps replaces Manager.sleep so retry tests run instantly.
type recordedSleeps struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleeps) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recordedSleeps) all() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

// newTestManager builds a Manager around l with instant sleeps and zero jitter.
func newTestManager(t *testing.T, l Launcher, cfg ManagerConfig) (*Manager, *recordedSleeps, *MemoryPublisher) {
	t.Helper()
	cfg.Launcher = l
	pub := NewMemoryPublisher()
	cfg.Publisher = pub
	m := NewWithConfig(cfg)
	rs := &recordedSleeps{}
	m.sleep = rs.sleep
	m.jitter = func(time.Duration) time.Duration { return 0 }
	t.Cleanup(func() { _ = m.Close() })
	return m, rs, pub
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}

func sampleRequest() types.RenderRequest {
	return types.RenderRequest{HTML: "<html><body><h1>Report</h1></body></html>", Name: "report"}
}
