package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"renderd/internal/config"
	"renderd/internal/manager"
)

// options is shared by every subcommand. The config file is read in the root
// PersistentPreRunE; flags set on the command line win over file values.
type options struct {
	configPath string
	logLevel   string
	cfg        config.Config
	logger     zerolog.Logger
}

func buildRootCmd(out io.Writer) *cobra.Command {
	opts := &options{logLevel: envOr("RENDERD_LOG_LEVEL", "info")}
	root := &cobra.Command{
		Use:           "renderd",
		Short:         "Render HTML documents to PDF on a shared headless Chromium",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("RENDERD_CONFIG"), "Config file (.yaml, .json or .toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "Log level: debug|info|warn|error (defaults RENDERD_LOG_LEVEL or info)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if opts.configPath != "" {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			opts.cfg = cfg
			if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
				opts.logLevel = cfg.LogLevel
			}
		}
		lvl, err := zerolog.ParseLevel(strings.ToLower(opts.logLevel))
		if err != nil || lvl == zerolog.NoLevel {
			lvl = zerolog.InfoLevel
		}
		opts.logger = zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Str("service", "renderd").Logger()
		return bindEngineFlags(cmd, &opts.cfg)
	}

	root.AddCommand(newServeCmd(opts), newRenderCmd(opts), newSanityCmd(opts))
	return root
}

// addEngineFlags registers the flags accepted by every subcommand that starts or inspects the engine.
func addEngineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("executable-path", "", "Chromium executable (overrides CHROME_EXECUTABLE_PATH)")
	f.String("bundled-chromium", "", "Bundled minimal Chromium used in serverless mode")
	f.Bool("serverless", false, "Force the serverless launch strategy")
	f.StringSlice("library-path", nil, "Extra shared-library directories for the bundled engine")
	f.Int("max-sessions", 0, "Concurrent render sessions on the shared engine (0=default)")
	f.Int("launch-max-attempts", 0, "Engine launch attempts before giving up (0=default)")
	f.Duration("load-timeout", 0, "Per-render content load timeout (0=default)")
	f.Duration("export-timeout", 0, "Per-render PDF export timeout (0=default)")
	f.Duration("start-timeout", 0, "Single engine launch attempt timeout (0=default)")
}

// bindEngineFlags copies explicitly set flags over the file configuration.
func bindEngineFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Lookup("executable-path") == nil {
		return nil
	}
	if f.Changed("executable-path") {
		cfg.ExecutablePath, _ = f.GetString("executable-path")
	}
	if f.Changed("bundled-chromium") {
		cfg.BundledChromium, _ = f.GetString("bundled-chromium")
	}
	if f.Changed("serverless") {
		cfg.Serverless, _ = f.GetBool("serverless")
	}
	if f.Changed("library-path") {
		cfg.LibraryPaths, _ = f.GetStringSlice("library-path")
	}
	if f.Changed("max-sessions") {
		cfg.MaxSessions, _ = f.GetInt("max-sessions")
	}
	if f.Changed("launch-max-attempts") {
		cfg.LaunchMaxAttempts, _ = f.GetInt("launch-max-attempts")
	}
	for name, dst := range map[string]*int{
		"load-timeout":   &cfg.LoadTimeoutMs,
		"export-timeout": &cfg.ExportTimeoutMs,
		"start-timeout":  &cfg.StartTimeoutMs,
	} {
		if f.Changed(name) {
			d, _ := f.GetDuration(name)
			*dst = int(d / time.Millisecond)
		}
	}
	return cfg.Validate()
}

// environment overlays configured engine locations on the process environment.
func environment(cfg config.Config, getenv func(string) string) manager.Environment {
	env := manager.EnvironmentFromLookup(getenv)
	if cfg.ExecutablePath != "" {
		env.ExecutablePath = cfg.ExecutablePath
	}
	if cfg.BundledChromium != "" {
		env.BundledPath = cfg.BundledChromium
	}
	env.Serverless = env.Serverless || cfg.Serverless
	env.LibraryPaths = append(env.LibraryPaths, cfg.LibraryPaths...)
	return env
}

func managerConfig(cfg config.Config, env manager.Environment, logger *zerolog.Logger) manager.ManagerConfig {
	return manager.ManagerConfig{
		Environment:       env,
		Retry:             manager.RetryPolicy{MaxAttempts: cfg.LaunchMaxAttempts},
		LaunchWaitTimeout: ms(cfg.LaunchWaitMs),
		StartTimeout:      ms(cfg.StartTimeoutMs),
		LoadTimeout:       ms(cfg.LoadTimeoutMs),
		ExportTimeout:     ms(cfg.ExportTimeoutMs),
		MaxSessions:       cfg.MaxSessions,
		MaxWait:           ms(cfg.MaxWaitMs),
		Logger:            logger,
	}
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// splitCSV splits a comma-separated flag value, dropping empty items.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
