package manager

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"renderd/pkg/types"
)

type chromeEngine struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	pid           int
	created       time.Time
	log           zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

func (e *chromeEngine) PID() int             { return e.pid }
func (e *chromeEngine) CreatedAt() time.Time { return e.created }
func (e *chromeEngine) Connected() bool      { return e.browserCtx.Err() == nil }

// Ping lists the browser targets: one DevTools round trip, no page work.
func (e *chromeEngine) Ping(ctx context.Context) error {
	pctx, cancel := context.WithCancel(e.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	_, err := chromedp.Targets(pctx)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// OpenSession opens a fresh tab with scripts disabled, the cache off and the
// network offline, so the page only sees the document it is given.
func (e *chromeEngine) OpenSession(ctx context.Context) (Session, error) {
	if !e.Connected() {
		return nil, errors.New("engine connection closed")
	}
	tabCtx, tabCancel := chromedp.NewContext(e.browserCtx)
	// The first Run creates the target and must not carry a deadline, so
	// caller cancellation closes the tab instead.
	stop := context.AfterFunc(ctx, tabCancel)
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		emulation.SetScriptExecutionDisabled(true),
		network.Enable(),
		network.SetCacheDisabled(true),
		network.EmulateNetworkConditions(true, 0, -1, -1),
	)
	stop()
	if err != nil {
		tabCancel()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return &chromeSession{id: uuid.NewString(), tabCtx: tabCtx, cancel: tabCancel}, nil
}

func (e *chromeEngine) Close() error {
	e.closeOnce.Do(func() {
		if err := chromedp.Cancel(e.browserCtx); err != nil && !errors.Is(err, context.Canceled) {
			e.closeErr = err
		}
		e.browserCancel()
		e.allocCancel()
		e.log.Debug().Str("event", "engine_stopped").Int("pid", e.pid).Msg("chromium stopped")
	})
	return e.closeErr
}

type chromeSession struct {
	id     string
	tabCtx context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func (s *chromeSession) ID() string { return s.id }

// run executes actions on the tab bounded by ctx.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	rctx, cancel := context.WithCancel(s.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	err := chromedp.Run(rctx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *chromeSession) Load(ctx context.Context, html string) error {
	return s.run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (s *chromeSession) Export(ctx context.Context, opts types.PageOptions) ([]byte, error) {
	pp := buildPrintParams(opts)
	var out []byte
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		data, _, err := page.PrintToPDF().
			WithPrintBackground(true).
			WithPreferCSSPageSize(true).
			WithPaperWidth(pp.paperWidth).
			WithPaperHeight(pp.paperHeight).
			WithMarginTop(pp.marginTop).
			WithMarginRight(pp.marginRight).
			WithMarginBottom(pp.marginBottom).
			WithMarginLeft(pp.marginLeft).
			WithLandscape(pp.landscape).
			Do(ctx)
		if err != nil {
			return err
		}
		out = data
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *chromeSession) Close() error {
	s.once.Do(s.cancel)
	return nil
}
