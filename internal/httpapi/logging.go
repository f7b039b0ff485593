package httpapi

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is the structured logger of the HTTP layer. Nop until SetLogger.
var zlog = zerolog.Nop()

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off":
		return LevelOff
	case "error":
		return LevelError
	case "", "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = parseLevel(os.Getenv("RENDERD_LOG_LEVEL"))

func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// renderLog emits the start/end lines of a /render request at the request's level.
type renderLog struct {
	lvl   LogLevel
	rid   string
	name  string
	start time.Time
}

func newRenderLog(r *http.Request, name string) *renderLog {
	return &renderLog{lvl: requestLogLevel(r), rid: middleware.GetReqID(r.Context()), name: name, start: time.Now()}
}

func (l *renderLog) begin(htmlBytes int) {
	if l.lvl < LevelInfo {
		return
	}
	zlog.Info().Str("request_id", l.rid).Str("name", l.name).Int("html_bytes", htmlBytes).Msg("render start")
}

func (l *renderLog) end(status int, pdfBytes int, err error) {
	if l.lvl == LevelOff || (l.lvl < LevelInfo && err == nil) {
		return
	}
	ev := zlog.Info()
	if err != nil && status >= 500 {
		ev = zlog.Error()
	}
	ev = ev.Str("request_id", l.rid).Str("name", l.name).Int("status", status).Dur("dur", time.Since(l.start))
	if pdfBytes > 0 {
		ev = ev.Int("pdf_bytes", pdfBytes)
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("render end")
}
