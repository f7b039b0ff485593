package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_IdleBeforeFirstRender(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeLauncher{}, ManagerConfig{MaxSessions: 7})
	st := m.Status()
	assert.Equal(t, "idle", st.State)
	assert.Zero(t, st.PID)
	assert.False(t, st.Connected)
	assert.Equal(t, 7, st.MaxSessions)
	assert.Positive(t, st.ServerTimeUnix)
	assert.True(t, m.Ready())
}

func TestStatus_ReflectsCachedEngine(t *testing.T) {
	l := &fakeLauncher{}
	m, _, _ := newTestManager(t, l, ManagerConfig{})
	_, err := m.Render(testCtx(t), sampleRequest())
	require.NoError(t, err)

	st := m.Status()
	eng := l.launched()[0]
	assert.Equal(t, eng.pid, st.PID)
	assert.True(t, st.Connected)
	assert.Equal(t, eng.created.Unix(), st.EngineCreatedUnix)
	assert.Equal(t, eng.pid, m.Snapshot().PID)
}

func TestSanityCheck(t *testing.T) {
	bin := writeExecutable(t, t.TempDir(), "chrome")
	m, _, _ := newTestManager(t, &fakeLauncher{}, ManagerConfig{Environment: Environment{ExecutablePath: bin}})
	r := m.SanityCheck()
	assert.Equal(t, "custom_executable", r.Strategy)
	assert.True(t, r.Found)
	assert.Equal(t, bin, r.ExecPath)
	assert.Contains(t, r.Flags, "--no-sandbox")
	assert.Empty(t, r.Error)

	m2, _, _ := newTestManager(t, &fakeLauncher{}, ManagerConfig{Environment: Environment{Serverless: true, BundledPath: "/definitely/not/here"}})
	r2 := m2.SanityCheck()
	assert.Equal(t, "bundled_minimal", r2.Strategy)
	assert.True(t, r2.Serverless)
	assert.False(t, r2.Found)
	assert.NotEmpty(t, r2.Error)
	assert.Zero(t, m2.Status().LaunchesTotal, "sanity never launches")
}

func TestNewWithConfigDefaults(t *testing.T) {
	m := NewWithConfig(ManagerConfig{Launcher: &fakeLauncher{}})
	assert.Equal(t, defaultMaxSessions, m.maxSessions)
	assert.Equal(t, defaultMaxWait, m.maxWait)
	assert.Equal(t, defaultLaunchWaitTimeout, m.launchWait)
	assert.Equal(t, defaultLoadTimeout, m.loadTO)
	assert.Equal(t, defaultExportTimeout, m.exportTO)
	assert.Equal(t, defaultMaxAttempts, m.retry.MaxAttempts)
	assert.Equal(t, defaultBusyJitter, m.retry.BusyJitter)

	def := NewWithConfig(ManagerConfig{})
	_, ok := def.launcher.(*ChromedpLauncher)
	assert.True(t, ok)
}
