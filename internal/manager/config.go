package manager

import (
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxAttempts       = 5
	defaultBusyBaseDelay     = 500 * time.Millisecond
	defaultBusyMaxDelay      = 8 * time.Second
	defaultBusyJitter        = 200 * time.Millisecond
	defaultOtherDelay        = 1 * time.Second
	defaultOtherJitter       = 1 * time.Second
	defaultLaunchWaitTimeout = 5 * time.Second
	defaultStartTimeout      = 30 * time.Second
	defaultProbeTimeout      = 2 * time.Second
	defaultLoadTimeout       = 20 * time.Second
	defaultExportTimeout     = 30 * time.Second
	defaultMaxSessions       = 4
	defaultMaxWait           = 30 * time.Second
)

// RetryPolicy tunes the launch retry loop. Zero fields take package defaults.
type RetryPolicy struct {
	MaxAttempts int
	// Spawn-busy failures back off exponentially: BusyBaseDelay*2^(n-1) plus
	// up to BusyJitter, capped at BusyMaxDelay.
	BusyBaseDelay time.Duration
	BusyMaxDelay  time.Duration
	BusyJitter    time.Duration
	// Other retryable failures wait OtherDelay plus up to OtherJitter.
	OtherDelay  time.Duration
	OtherJitter time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.BusyBaseDelay <= 0 {
		p.BusyBaseDelay = defaultBusyBaseDelay
	}
	if p.BusyMaxDelay <= 0 {
		p.BusyMaxDelay = defaultBusyMaxDelay
	}
	if p.BusyJitter < 0 {
		p.BusyJitter = 0
	} else if p.BusyJitter == 0 {
		p.BusyJitter = defaultBusyJitter
	}
	if p.OtherDelay <= 0 {
		p.OtherDelay = defaultOtherDelay
	}
	if p.OtherJitter < 0 {
		p.OtherJitter = 0
	} else if p.OtherJitter == 0 {
		p.OtherJitter = defaultOtherJitter
	}
	return p
}

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Launcher starts engine processes. Nil selects the chromedp launcher.
	Launcher    Launcher
	Environment Environment
	Retry       RetryPolicy
	// LaunchWaitTimeout bounds how long a caller waits for another caller's launch.
	LaunchWaitTimeout time.Duration
	// StartTimeout bounds a single launch attempt (chromedp launcher only).
	StartTimeout time.Duration
	// ProbeTimeout bounds the liveness probe of a cached engine.
	ProbeTimeout  time.Duration
	LoadTimeout   time.Duration
	ExportTimeout time.Duration
	// MaxSessions caps concurrent render sessions on the shared engine.
	MaxSessions int
	// MaxWait bounds the wait for a free render slot before failing with too_busy.
	MaxWait   time.Duration
	Logger    *zerolog.Logger
	Publisher EventPublisher
	Metrics   MetricsCollector
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		env:        cfg.Environment,
		retry:      cfg.Retry.withDefaults(),
		launchWait: orDefault(cfg.LaunchWaitTimeout, defaultLaunchWaitTimeout),
		probe:      orDefault(cfg.ProbeTimeout, defaultProbeTimeout),
		loadTO:     orDefault(cfg.LoadTimeout, defaultLoadTimeout),
		exportTO:   orDefault(cfg.ExportTimeout, defaultExportTimeout),
		maxWait:    orDefault(cfg.MaxWait, defaultMaxWait),
		state:      StateIdle,
		launchMu:   semaphore.NewWeighted(1),
		publisher:  cfg.Publisher,
		metrics:    cfg.Metrics,
		sleep:      sleepCtx,
		jitter:     randomJitter,
		startTime:  time.Now(),
	}
	m.maxSessions = cfg.MaxSessions
	if m.maxSessions <= 0 {
		m.maxSessions = defaultMaxSessions
	}
	m.sessions = semaphore.NewWeighted(int64(m.maxSessions))
	if cfg.Logger != nil {
		m.log = *cfg.Logger
	} else {
		m.log = zerolog.Nop()
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if m.metrics == nil {
		m.metrics = noopMetrics{}
	}
	m.launcher = cfg.Launcher
	if m.launcher == nil {
		m.launcher = NewChromedpLauncher(orDefault(cfg.StartTimeout, defaultStartTimeout), m.log)
	}
	return m
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
