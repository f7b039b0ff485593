package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"renderd/internal/manager"
	"renderd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Render(ctx context.Context, req types.RenderRequest) (*manager.RenderResult, error)
	Status() types.StatusResponse
	SanityCheck() manager.SanityReport
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer, metrics
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: orDefaultList(corsAllowedOrigins, []string{"*"}),
			AllowedMethods: orDefaultList(corsAllowedMethods, []string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			AllowedHeaders: orDefaultList(corsAllowedHeaders, []string{"Content-Type", "X-Log-Level", "X-Request-Id"}),
			ExposedHeaders: []string{"Content-Disposition", "X-Render-Duration-Ms", "X-Page-Count", "Retry-After"},
			MaxAge:         300,
		}))
	}
	// JSON endpoints are compressed; PDFs are already compressed.
	r.Use(middleware.Compress(5, "application/json"))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/render", renderHandler(svc))

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/sanity", func(w http.ResponseWriter, r *http.Request) {
		rep := svc.SanityCheck()
		status := http.StatusOK
		if !rep.Found {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, rep)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unavailable"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// renderHandler godoc
// @Summary      Render HTML to PDF
// @Description  Renders a fully assembled HTML document on the shared headless engine and returns the PDF.
// @Tags         render
// @Accept       json
// @Produce      application/pdf
// @Param        request  body      types.RenderRequest  true  "Document and page options"
// @Success      200      {file}    binary
// @Failure      400      {object}  types.ErrorResponse
// @Failure      413      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Failure      504      {object}  types.ErrorResponse
// @Router       /render [post]
func renderHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.RenderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writeJSONError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", mbe.Limit))
				return
			}
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.HTML) == "" {
			writeErrorResponse(w, types.ErrorResponse{Error: "html is required", ErrorClass: string(manager.ClassInvalidRequest), Code: http.StatusBadRequest})
			return
		}
		name := artifactName(req.Name)
		rl := newRenderLog(r, name)
		rl.begin(len(req.HTML))

		// Join server base context with request context so shutdown cancels work too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if renderTimeout > 0 {
			var tcancel context.CancelFunc
			ctx, tcancel = context.WithTimeout(ctx, renderTimeout)
			defer tcancel()
		}

		res, err := svc.Render(ctx, req)
		if err != nil {
			// Client went away: nothing to write, the session is already released.
			if r.Context().Err() != nil {
				rl.end(499, 0, err)
				return
			}
			if errors.Is(context.Cause(ctx), errShuttingDown) {
				err = fmt.Errorf("%w: %w", errShuttingDown, err)
			}
			resp := writeRenderError(w, err)
			rl.end(resp.Code, 0, err)
			return
		}

		h := w.Header()
		h.Set("Content-Type", "application/pdf")
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name + ".pdf"}))
		h.Set("Content-Length", strconv.Itoa(res.SizeBytes))
		h.Set("Cache-Control", "no-store")
		h.Set("X-Render-Duration-Ms", strconv.FormatInt(res.Duration.Milliseconds(), 10))
		h.Set("X-Page-Count", strconv.Itoa(res.PageCount))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.Bytes)
		renderResponseBytes.Observe(float64(res.SizeBytes))
		rl.end(http.StatusOK, res.SizeBytes, nil)
	}
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// artifactName turns the caller-supplied identifier into a safe file stem.
func artifactName(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".pdf")
	s = strings.Trim(unsafeNameChars.ReplaceAllString(s, "-"), "-.")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		return "document-" + uuid.NewString()[:8]
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}

func orDefaultList(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}
