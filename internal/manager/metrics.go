package manager

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector receives engine and render measurements.
type MetricsCollector interface {
	// LaunchAttempt records one launch attempt; outcome is "ok" or an ErrorClass.
	LaunchAttempt(strategy, outcome string)
	// EngineLaunched records a successful launch and the time spent including retries.
	EngineLaunched(strategy string, d time.Duration)
	// EngineClosed records an engine leaving the cache.
	EngineClosed(reason string)
	// SessionsInUse reports the number of open render sessions.
	SessionsInUse(n int64)
	// RenderObserved records a finished render; outcome is "ok" or an ErrorClass.
	RenderObserved(outcome string, d time.Duration, sizeBytes int)
}

type noopMetrics struct{}

func (noopMetrics) LaunchAttempt(string, string)              {}
func (noopMetrics) EngineLaunched(string, time.Duration)      {}
func (noopMetrics) EngineClosed(string)                       {}
func (noopMetrics) SessionsInUse(int64)                       {}
func (noopMetrics) RenderObserved(string, time.Duration, int) {}

// PrometheusMetrics implements MetricsCollector with Prometheus collectors.
type PrometheusMetrics struct {
	launchAttempts *prometheus.CounterVec
	launchDuration *prometheus.HistogramVec
	engineClosed   *prometheus.CounterVec
	sessionsInUse  prometheus.Gauge
	renders        *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	renderBytes    prometheus.Histogram
}

// NewPrometheusMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) *PrometheusMetrics {
	if namespace == "" {
		namespace = "renderd"
	}
	p := &PrometheusMetrics{
		launchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_launch_attempts_total",
			Help:      "Engine launch attempts by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		launchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_launch_duration_seconds",
			Help:      "Time to a live engine including retries",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"strategy"}),
		engineClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_closed_total",
			Help:      "Engines removed from the instance cache by reason",
		}, []string{"reason"}),
		sessionsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_in_use",
			Help:      "Render sessions currently open on the shared engine",
		}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Finished renders by outcome",
		}, []string{"outcome"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "End-to-end render latency by outcome",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		renderBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_output_bytes",
			Help:      "Size of produced PDF documents",
			Buckets:   prometheus.ExponentialBuckets(4096, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(p.launchAttempts, p.launchDuration, p.engineClosed, p.sessionsInUse,
			p.renders, p.renderDuration, p.renderBytes)
	}
	return p
}

func (p *PrometheusMetrics) LaunchAttempt(strategy, outcome string) {
	p.launchAttempts.WithLabelValues(strategy, outcome).Inc()
}

func (p *PrometheusMetrics) EngineLaunched(strategy string, d time.Duration) {
	p.launchDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

func (p *PrometheusMetrics) EngineClosed(reason string) {
	p.engineClosed.WithLabelValues(reason).Inc()
}

func (p *PrometheusMetrics) SessionsInUse(n int64) { p.sessionsInUse.Set(float64(n)) }

func (p *PrometheusMetrics) RenderObserved(outcome string, d time.Duration, sizeBytes int) {
	p.renders.WithLabelValues(outcome).Inc()
	p.renderDuration.WithLabelValues(outcome).Observe(d.Seconds())
	if outcome == "ok" {
		p.renderBytes.Observe(float64(sizeBytes))
	}
}
