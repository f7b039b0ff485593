package e2e

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"renderd/internal/httpapi"
	"renderd/internal/manager"
	"renderd/pkg/types"
)

// scriptedLauncher hands out in-memory engines. failures are returned by the
// first len(failures) launches, in order.
type scriptedLauncher struct {
	mu       sync.Mutex
	failures []error
	calls    atomic.Int32
	engines  []*memEngine
	// block, when non-nil, holds every Load until it is closed.
	block chan struct{}
}

func (l *scriptedLauncher) Launch(ctx context.Context, s manager.LaunchStrategy) (manager.Engine, error) {
	n := int(l.calls.Add(1))
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= len(l.failures) {
		return nil, l.failures[n-1]
	}
	e := &memEngine{pid: 4000 + n, created: time.Now(), block: l.block}
	e.alive.Store(true)
	l.engines = append(l.engines, e)
	return e, nil
}

func (l *scriptedLauncher) engine(i int) *memEngine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engines[i]
}

type memEngine struct {
	pid     int
	created time.Time
	alive   atomic.Bool
	block   chan struct{}
	opened  atomic.Int32
}

func (e *memEngine) PID() int             { return e.pid }
func (e *memEngine) CreatedAt() time.Time { return e.created }
func (e *memEngine) Connected() bool      { return e.alive.Load() }

func (e *memEngine) Ping(ctx context.Context) error {
	if !e.alive.Load() {
		return errors.New("target closed")
	}
	return nil
}

func (e *memEngine) OpenSession(ctx context.Context) (manager.Session, error) {
	if !e.alive.Load() {
		return nil, errors.New("websocket closed")
	}
	e.opened.Add(1)
	return &memSession{id: uuid.NewString(), e: e}, nil
}

func (e *memEngine) Close() error {
	e.alive.Store(false)
	return nil
}

type memSession struct {
	id   string
	e    *memEngine
	html string
}

func (s *memSession) ID() string { return s.id }

func (s *memSession) Load(ctx context.Context, html string) error {
	if s.e.block != nil {
		select {
		case <-s.e.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.html = html
	return nil
}

func (s *memSession) Export(ctx context.Context, opts types.PageOptions) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%%PDF-1.7\n%% %s %s\n", opts.Format, opts.Orientation)
	b.WriteString("1 0 obj << /Type /Pages /Count 1 >> endobj\n2 0 obj << /Type /Page /Parent 1 0 R >> endobj\n%%EOF\n")
	return b.Bytes(), nil
}

func (s *memSession) Close() error { return nil }

func busy() error {
	return &manager.LaunchError{Class: manager.ClassSpawnBusy, Strategy: manager.LocalDefault, Err: errors.New("fork/exec chrome: text file busy")}
}

func newServer(t *testing.T, l *scriptedLauncher, cfg manager.ManagerConfig) (*httptest.Server, *manager.Manager) {
	t.Helper()
	cfg.Launcher = l
	if cfg.Retry.BusyBaseDelay == 0 {
		cfg.Retry = manager.RetryPolicy{MaxAttempts: 5, BusyBaseDelay: time.Millisecond, BusyMaxDelay: 4 * time.Millisecond, BusyJitter: -1, OtherDelay: time.Millisecond, OtherJitter: -1}
	}
	mgr := manager.NewWithConfig(cfg)
	t.Cleanup(func() { _ = mgr.Close() })
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(srv.Close)
	return srv, mgr
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
