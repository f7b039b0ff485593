// Package manager owns the shared headless Chromium process and renders HTML
// documents to PDF on it. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, Ready/Warmup/Close.
//   - config.go: ManagerConfig, RetryPolicy and package defaults; NewWithConfig applies defaults.
//   - types.go: State, LaunchAttempt, RenderResult, Snapshot.
//   - errors.go: ErrorClass, LaunchError/RenderError and helpers (IsSpawnBusy, IsMissingBinary, ...).
//   - resolve.go: Environment and Resolve, mapping the deployment context to a LaunchStrategy.
//   - launch.go: launchWithRetry, the classified retry loop with backoff.
//   - ensure.go: the instance cache (ensure, invalidate) guarded by the launch lock.
//   - render.go: Render, admission and the load/export steps with their timeouts.
//   - session_scope.go: withSession, which closes every opened session.
//   - pageopts.go: page format, orientation and margin normalization.
//   - chromedp_launcher.go, chromedp_engine.go: the DevTools-backed Launcher, Engine and Session.
//   - discover.go: executable discovery and spawn error classification.
//   - metrics.go, events.go: MetricsCollector (Prometheus) and EventPublisher hooks.
//   - status_report.go, sanity.go: Status/Snapshot and SanityCheck reporting.
//
// Launcher, Engine and Session are interfaces so tests can substitute fakes
// without starting a browser. External packages should use public methods
// only (New/NewWithConfig, Render, Status, SanityCheck, Close).
package manager
