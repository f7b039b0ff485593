package manager

import (
	"context"
	"errors"
	"strings"
	"time"

	"renderd/pkg/types"
)

// Render converts req.HTML into a PDF on the shared engine. A render either
// returns the full document or a classified error with no bytes. When the
// engine disconnects mid-render it is invalidated and the render is retried
// once on a fresh engine.
func (m *Manager) Render(ctx context.Context, req types.RenderRequest) (*RenderResult, error) {
	start := time.Now()
	res, err := m.render(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = outcomeOf(err)
	}
	m.metrics.RenderObserved(outcome, time.Since(start), len(resBytes(res)))
	if err != nil {
		ev := m.log.Warn()
		if ClassOf(err) == ClassUnknown && !IsCanceled(err) {
			ev = m.log.Error()
		}
		ev.Err(err).Str("event", "render_failed").Str("class", outcome).Dur("elapsed", time.Since(start)).Msg("render failed")
		return nil, err
	}
	return res, nil
}

func (m *Manager) render(ctx context.Context, req types.RenderRequest) (*RenderResult, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if strings.TrimSpace(req.HTML) == "" {
		return nil, invalidRequest("html is empty")
	}
	page, err := normalizePage(req.Page)
	if err != nil {
		return nil, err
	}
	release, err := m.admit(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	var pdf []byte
	for try := 1; try <= 2; try++ {
		var eng Engine
		eng, err = m.ensure(ctx)
		if err != nil {
			return nil, err
		}
		pdf, err = m.renderOnce(ctx, eng, req.HTML, page)
		if err == nil {
			break
		}
		if !IsDisconnected(err) {
			return nil, err
		}
		m.invalidate(ctx, eng, "disconnected")
		if try == 1 {
			m.log.Warn().Err(err).Str("event", "render_retry").Int("pid", eng.PID()).Msg("engine disconnected, retrying on a fresh engine")
		}
	}
	if err != nil {
		return nil, err
	}
	res := &RenderResult{
		Bytes:     pdf,
		SizeBytes: len(pdf),
		Duration:  time.Since(start),
		PageCount: estimatePageCount(pdf),
	}
	m.log.Info().Str("event", "render_ok").Int("bytes", res.SizeBytes).Int("pages", res.PageCount).Dur("duration", res.Duration).Msg("pdf rendered")
	return res, nil
}

// admit takes a render slot, waiting up to maxWait.
func (m *Manager) admit(ctx context.Context) (func(), error) {
	wctx, cancel := context.WithTimeout(ctx, m.maxWait)
	defer cancel()
	if err := m.sessions.Acquire(wctx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RenderError{Class: ClassTooBusy, Op: "admit", Err: errors.New("no render slot available")}
	}
	return func() { m.sessions.Release(1) }, nil
}

// renderOnce runs one load+export cycle on e inside a supervised session.
func (m *Manager) renderOnce(ctx context.Context, e Engine, html string, page types.PageOptions) ([]byte, error) {
	var out []byte
	err := m.withSession(ctx, e, func(s Session) error {
		if err := m.step(ctx, e, "load", m.loadTO, ClassContentLoadTimeout, func(c context.Context) error {
			return s.Load(c, html)
		}); err != nil {
			return err
		}
		return m.step(ctx, e, "export", m.exportTO, ClassExportTimeout, func(c context.Context) error {
			b, err := s.Export(c, page)
			if err != nil {
				return err
			}
			if len(b) == 0 {
				return &RenderError{Class: ClassUnknown, Op: "export", Err: errEmptyOutput}
			}
			out = b
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// step runs fn under its own timeout and classifies the failure. Caller
// cancellation is returned unclassified; the engine is left running.
func (m *Manager) step(ctx context.Context, e Engine, op string, timeout time.Duration, timeoutClass ErrorClass, fn func(context.Context) error) error {
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := fn(sctx)
	if err == nil {
		return nil
	}
	var re *RenderError
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return ctx.Err()
	case ctx.Err() != nil || errors.Is(sctx.Err(), context.DeadlineExceeded):
		return &RenderError{Class: timeoutClass, Op: op, Err: err}
	case errors.As(err, &re):
		return err
	case !m.alive(context.WithoutCancel(ctx), e):
		return &RenderError{Class: ClassDisconnected, Op: op, Err: err}
	default:
		return &RenderError{Class: ClassUnknown, Op: op, Err: err}
	}
}

func outcomeOf(err error) string {
	if IsCanceled(err) {
		return "canceled"
	}
	return string(ClassOf(err))
}

func resBytes(r *RenderResult) []byte {
	if r == nil {
		return nil
	}
	return r.Bytes
}
