package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"renderd/internal/httpapi"
	"renderd/internal/manager"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	var (
		addr     string
		warmup   bool
		corsOn   bool
		origins  string
		methods  string
		headers  string
		bodyMax  int64
		renderTO int64
	)
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP render API",
		Example: "  renderd serve --addr :8080 --warmup\n  renderd serve --config /etc/renderd.yaml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			f := cmd.Flags()
			if f.Changed("addr") || cfg.Addr == "" {
				cfg.Addr = addr
			}
			if f.Changed("warmup") {
				cfg.Warmup = warmup
			}
			if f.Changed("cors") {
				cfg.CORS.Enabled = corsOn
			}
			if f.Changed("cors-origins") {
				cfg.CORS.Origins = splitCSV(origins)
			}
			if f.Changed("cors-methods") {
				cfg.CORS.Methods = splitCSV(methods)
			}
			if f.Changed("cors-headers") {
				cfg.CORS.Headers = splitCSV(headers)
			}
			if f.Changed("max-body-bytes") {
				cfg.MaxBodyBytes = bodyMax
			}
			if f.Changed("render-timeout-sec") {
				cfg.RenderTimeoutSec = renderTO
			}

			log := opts.logger
			mcfg := managerConfig(cfg, environment(cfg, os.Getenv), &log)
			mcfg.Metrics = manager.NewPrometheusMetrics(prometheus.DefaultRegisterer, "renderd")
			mcfg.Publisher = manager.LogPublisher{Log: log.With().Str("component", "manager").Logger()}
			mgr := manager.NewWithConfig(mcfg)

			httpapi.SetLogger(log)
			httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
			httpapi.SetRenderTimeoutSeconds(cfg.RenderTimeoutSec)
			httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.Origins, cfg.CORS.Methods, cfg.CORS.Headers)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			// Renders are canceled only if draining outlives shutdownTimeout.
			base, abort := context.WithCancel(context.Background())
			defer abort()
			httpapi.SetBaseContext(base)

			if cfg.Warmup {
				if err := mgr.Warmup(ctx); err != nil {
					log.Warn().Err(err).Str("event", "warmup_failed").Str("class", string(manager.ClassOf(err))).Msg("engine warmup failed; launching on first render")
				}
			}
			return serve(ctx, &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(mgr)}, mgr, abort, log)
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", envOr("RENDERD_ADDR", ":8080"), "HTTP listen address, e.g. :8080 (defaults RENDERD_ADDR)")
	f.BoolVar(&warmup, "warmup", false, "Launch the engine before accepting requests")
	f.BoolVar(&corsOn, "cors", false, "Enable CORS")
	f.StringVar(&origins, "cors-origins", "", "Comma-separated allowed origins")
	f.StringVar(&methods, "cors-methods", "", "Comma-separated allowed methods")
	f.StringVar(&headers, "cors-headers", "", "Comma-separated allowed headers")
	f.Int64Var(&bodyMax, "max-body-bytes", 0, "Request body limit for /render (0=16MiB)")
	f.Int64Var(&renderTO, "render-timeout-sec", 0, "Whole-request render timeout in seconds (0=disabled)")
	addEngineFlags(cmd)
	return cmd
}

// serve runs srv until ctx is done, then drains requests and closes the engine.
// abort cancels in-flight renders when draining does not finish in time.
func serve(ctx context.Context, srv *http.Server, mgr *manager.Manager, abort context.CancelFunc, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("event", "listen").Str("addr", srv.Addr).Msg("renderd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Str("event", "shutdown_error").Msg("graceful shutdown error")
		abort()
		_ = srv.Close()
	}
	if err := mgr.Close(); err != nil {
		log.Warn().Err(err).Str("event", "engine_close_failed").Msg("engine close failed")
	}
	log.Info().Str("event", "stopped").Msg("renderd stopped")
	return serveErr
}
