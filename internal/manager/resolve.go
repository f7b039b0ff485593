package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"renderd/internal/common/fsutil"
)

// StrategyKind tags the LaunchStrategy variant.
type StrategyKind int

const (
	LocalDefault StrategyKind = iota
	CustomExecutable
	BundledMinimal
)

func (k StrategyKind) String() string {
	switch k {
	case CustomExecutable:
		return "custom_executable"
	case BundledMinimal:
		return "bundled_minimal"
	default:
		return "local_default"
	}
}

// LaunchStrategy describes how to start the engine in this environment.
type LaunchStrategy struct {
	Kind StrategyKind
	// ExecPath is set for CustomExecutable, and for BundledMinimal when a bundled
	// build was found. LocalDefault discovers the executable at launch time.
	ExecPath string
	// LibraryPaths are prepended to LD_LIBRARY_PATH of the engine process.
	LibraryPaths []string
}

func (s LaunchStrategy) String() string { return s.Kind.String() }

// Environment is the deployment context consumed by Resolve.
type Environment struct {
	// ExecutablePath is an explicit engine executable override.
	ExecutablePath string
	// BundledPath points at a bundled minimal Chromium build.
	BundledPath string
	// Serverless marks constrained environments (Lambda, Vercel, Netlify).
	Serverless bool
	// LibraryPaths are extra shared-library directories for the bundled build.
	LibraryPaths []string
	// InheritedLibraryPath is the LD_LIBRARY_PATH of this process.
	InheritedLibraryPath string
}

var (
	executablePathVars = []string{"CHROME_EXECUTABLE_PATH", "PUPPETEER_EXECUTABLE_PATH", "GOOGLE_CHROME_BIN"}
	serverlessVars     = []string{"AWS_LAMBDA_FUNCTION_VERSION", "VERCEL", "NETLIFY"}

	// bundledCandidates are the places a bundled minimal build is unpacked to.
	bundledCandidates = []string{
		"/tmp/chromium",
		"/tmp/chromium/chromium",
		"/opt/chromium/chromium",
		"/opt/chromium/chrome",
		"/opt/headless-shell/headless-shell",
	}

	// bundledLibraryDirs are the shared-library dirs bundled builds extract next to themselves.
	bundledLibraryDirs = []string{"/tmp/al2/lib", "/tmp/al2023/lib"}
)

// EnvironmentFromLookup builds an Environment from environment variables.
// Pass os.Getenv in production.
func EnvironmentFromLookup(getenv func(string) string) Environment {
	var env Environment
	for _, k := range executablePathVars {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			env.ExecutablePath = v
			break
		}
	}
	for _, k := range serverlessVars {
		if strings.TrimSpace(getenv(k)) != "" {
			env.Serverless = true
			break
		}
	}
	if getenv("RENDERD_SERVERLESS") == "1" {
		env.Serverless = true
	}
	env.BundledPath = strings.TrimSpace(getenv("RENDERD_BUNDLED_CHROMIUM"))
	env.LibraryPaths = fsutil.SplitList(getenv("RENDERD_LIBRARY_PATH"))
	env.InheritedLibraryPath = getenv("LD_LIBRARY_PATH")
	return env
}

// EnvironmentFromOS reads the Environment of the current process.
func EnvironmentFromOS() Environment { return EnvironmentFromLookup(os.Getenv) }

// Resolve maps the deployment context to a launch strategy. Its only I/O is
// filesystem existence checks; a configured path that does not exist falls
// through to the next rule.
func Resolve(env Environment) LaunchStrategy {
	if p, err := fsutil.ExpandHome(env.ExecutablePath); err == nil && fsutil.IsFile(p) {
		return LaunchStrategy{Kind: CustomExecutable, ExecPath: p}
	}
	if env.Serverless {
		bin := fsutil.FirstFile(append([]string{env.BundledPath}, bundledCandidates...)...)
		var dirs []string
		if bin != "" {
			dirs = append(dirs, filepath.Dir(bin))
		}
		dirs = append(dirs, bundledLibraryDirs...)
		dirs = append(dirs, env.LibraryPaths...)
		dirs = append(dirs, fsutil.SplitList(env.InheritedLibraryPath)...)
		return LaunchStrategy{Kind: BundledMinimal, ExecPath: bin, LibraryPaths: fsutil.ExistingDirs(dirs...)}
	}
	return LaunchStrategy{Kind: LocalDefault}
}

// Flag is one engine command-line switch.
type Flag struct {
	Name  string
	Value any
}

var (
	localFlags = []Flag{
		{"no-sandbox", true},
		{"disable-setuid-sandbox", true},
		{"disable-dev-shm-usage", true},
		{"disable-gpu", true},
		{"no-first-run", true},
		{"no-zygote", true},
		{"disable-extensions", true},
		{"font-render-hinting", "none"},
	}
	customFlags = append(append([]Flag(nil), localFlags...),
		Flag{"disable-background-timer-throttling", true},
		Flag{"disable-backgrounding-occluded-windows", true},
		Flag{"disable-renderer-backgrounding", true},
		Flag{"disable-ipc-flooding-protection", true},
		Flag{"disable-features", "TranslateUI"},
	)
	bundledFlags = []Flag{
		{"no-sandbox", true},
		{"disable-setuid-sandbox", true},
		{"disable-dev-shm-usage", true},
		{"disable-gpu", true},
		{"no-first-run", true},
		{"no-zygote", true},
		{"single-process", true},
		{"disable-extensions", true},
		{"hide-scrollbars", true},
		{"mute-audio", true},
		{"disable-features", "VizDisplayCompositor"},
		{"run-all-compositor-stages-before-draw", true},
		{"font-render-hinting", "none"},
	}
)

// String renders the switch as it appears on the command line.
func (f Flag) String() string {
	switch v := f.Value.(type) {
	case bool:
		if v {
			return "--" + f.Name
		}
		return "--" + f.Name + "=false"
	default:
		return fmt.Sprintf("--%s=%v", f.Name, v)
	}
}

// Flags returns the fixed switch set for the strategy. The result is the same
// on every call so retries never change the launch surface.
func (s LaunchStrategy) Flags() []Flag {
	var src []Flag
	switch s.Kind {
	case CustomExecutable:
		src = customFlags
	case BundledMinimal:
		src = bundledFlags
	default:
		src = localFlags
	}
	return append([]Flag(nil), src...)
}
