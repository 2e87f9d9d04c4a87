package adapter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Code-Grump/vscode-cucumber-test-adapter/config"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/logging"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/testapi"
)

const loginFeature = `Feature: Login

  Scenario: Valid login
    Given a registered user

  Scenario Outline: Invalid login
    Given the user "<user>" logs in

    Examples:
      | user  |
      | bob   |
      | eve   |
`

type recorder struct {
	mu    sync.Mutex
	loads []testapi.TestLoadEvent
	runs  []testapi.TestRunEvent
}

func (r *recorder) load(e testapi.TestLoadEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads = append(r.loads, e)
}

func (r *recorder) run(e testapi.TestRunEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, e)
}

func (r *recorder) testStates() map[string]testapi.TestEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	states := map[string]testapi.TestEvent{}
	for _, e := range r.runs {
		if te, ok := e.(testapi.TestEvent); ok && te.State != testapi.StateRunning {
			states[te.Test] = te
		}
	}
	return states
}

func workspace(t *testing.T, files map[string]string) testapi.WorkspaceFolder {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return testapi.WorkspaceFolder{Name: filepath.Base(dir), Path: dir}
}

func workerSettings(t *testing.T, mode string) config.StaticSettings {
	t.Helper()
	exe, err := os.Executable()
	require.NoError(t, err)
	return config.StaticSettings{
		ExecPath: exe,
		Env:      map[string]any{workerModeEnv: mode},
	}
}

func newTestAdapter(t *testing.T, folder testapi.WorkspaceFolder, settings config.SettingsSource) (*CucumberAdapter, *recorder, *bytes.Buffer) {
	t.Helper()
	var output bytes.Buffer
	a := New(folder, NewWriterChannel(&output), logging.Disabled(), settings)
	t.Cleanup(a.Dispose)

	rec := &recorder{}
	a.Tests(rec.load)
	a.TestStates(rec.run)
	return a, rec, &output
}

func TestLoadDiscoversFeatures(t *testing.T) {
	folder := workspace(t, map[string]string{"features/login.feature": loginFeature})
	a, rec, _ := newTestAdapter(t, folder, workerSettings(t, "worker"))

	require.NoError(t, a.Load(context.Background()))

	require.Len(t, rec.loads, 2)
	assert.Equal(t, testapi.TestLoadEvent{Type: testapi.LoadStarted}, rec.loads[0])

	finished := rec.loads[1]
	assert.Equal(t, testapi.LoadFinished, finished.Type)
	require.NotNil(t, finished.Suite)
	assert.Equal(t, testapi.RootID, finished.Suite.ID)
	assert.Equal(t, RootLabel, finished.Suite.Label)
	require.Len(t, finished.Suite.Children, 1)

	feature := finished.Suite.Children[0].(*testapi.TestSuiteInfo)
	assert.Equal(t, "features/login.feature", feature.ID)
	assert.Len(t, feature.Children, 2)
	assert.Len(t, testapi.Leaves(feature), 3)
}

func TestLoadIsRepeatable(t *testing.T) {
	folder := workspace(t, map[string]string{
		"features/login.feature":  loginFeature,
		"features/logout.feature": "Feature: Logout\n\n  Scenario: Leaving\n    Given a registered user\n",
	})
	a, rec, _ := newTestAdapter(t, folder, workerSettings(t, "worker"))

	require.NoError(t, a.Load(context.Background()))
	require.NoError(t, a.Load(context.Background()))
	require.Len(t, rec.loads, 4)

	ids := func(e testapi.TestLoadEvent) []string {
		var ids []string
		testapi.Walk(e.Suite, func(n testapi.TestNode, _ []*testapi.TestSuiteInfo) bool {
			ids = append(ids, n.NodeID())
			return true
		})
		return ids
	}
	assert.ElementsMatch(t, ids(rec.loads[1]), ids(rec.loads[3]))
}

func TestLoadWithoutFeatures(t *testing.T) {
	folder := workspace(t, nil)
	a, rec, _ := newTestAdapter(t, folder, workerSettings(t, "worker"))

	require.NoError(t, a.Load(context.Background()))
	require.Len(t, rec.loads, 2)
	assert.Nil(t, rec.loads[1].Suite)
}

func TestLoadSurvivesFailingDiscovery(t *testing.T) {
	folder := workspace(t, map[string]string{
		"features/broken.feature": "Given a step outside of any feature\nFeature: Broken\n",
	})
	a, rec, output := newTestAdapter(t, folder, workerSettings(t, "worker"))

	require.NoError(t, a.Load(context.Background()))
	require.Len(t, rec.loads, 2)
	assert.Nil(t, rec.loads[1].Suite)
	assert.Contains(t, output.String(), "parse error in 'features/broken.feature'")
}

func TestLoadReportsConfigurationErrors(t *testing.T) {
	folder := workspace(t, map[string]string{
		"features/login.feature": loginFeature,
		"cucumber.yaml":          "default: --no-such-flag\n",
	})
	a, rec, _ := newTestAdapter(t, folder, workerSettings(t, "worker"))

	err := a.Load(context.Background())
	require.Error(t, err)

	require.Len(t, rec.loads, 2)
	assert.Equal(t, testapi.LoadFinished, rec.loads[1].Type)
	assert.Nil(t, rec.loads[1].Suite)
	assert.Contains(t, rec.loads[1].ErrorMessage, "no-such-flag")
}

func TestRunRelaysTestStates(t *testing.T) {
	folder := workspace(t, map[string]string{"features/login.feature": loginFeature})
	a, rec, output := newTestAdapter(t, folder, workerSettings(t, "worker"))

	require.NoError(t, a.Run(context.Background(), []string{testapi.RootID}))

	require.NotEmpty(t, rec.runs)
	started, ok := rec.runs[0].(testapi.TestRunStartedEvent)
	require.True(t, ok)
	assert.Equal(t, []string{testapi.RootID}, started.Tests)
	assert.NotEmpty(t, started.RunID)

	finished, ok := rec.runs[len(rec.runs)-1].(testapi.TestRunFinishedEvent)
	require.True(t, ok)
	assert.Equal(t, started.RunID, finished.RunID)

	states := rec.testStates()
	assert.Equal(t, testapi.StatePassed, states["features/login.feature:3"].State)
	assert.Equal(t, testapi.StatePassed, states[`features/login.feature:6{"user":"bob"}`].State)
	eve := states[`features/login.feature:6{"user":"eve"}`]
	assert.Equal(t, testapi.StateFailed, eve.State)
	assert.Contains(t, eve.Message, "user eve is locked")

	assert.Contains(t, rec.runs, testapi.TestSuiteEvent{Suite: "features/login.feature", State: testapi.StateRunning})
	assert.Contains(t, rec.runs, testapi.TestSuiteEvent{Suite: "features/login.feature", State: testapi.StateCompleted})

	assert.Contains(t, output.String(), "3 scenarios")
}

func TestRunSelectedTests(t *testing.T) {
	folder := workspace(t, map[string]string{"features/login.feature": loginFeature})
	a, rec, _ := newTestAdapter(t, folder, workerSettings(t, "worker"))

	require.NoError(t, a.Run(context.Background(), []string{`features/login.feature:6{"user":"bob"}`}))

	states := rec.testStates()
	assert.Len(t, states, 1)
	assert.Equal(t, testapi.StatePassed, states[`features/login.feature:6{"user":"bob"}`].State)
}

func TestRunFinishesOnConfigurationError(t *testing.T) {
	folder := workspace(t, map[string]string{"cucumber.yaml": "default: --order sideways\n"})
	a, rec, _ := newTestAdapter(t, folder, workerSettings(t, "worker"))

	require.Error(t, a.Run(context.Background(), nil))
	require.Len(t, rec.runs, 2)
	assert.IsType(t, testapi.TestRunFinishedEvent{}, rec.runs[1])
}

func TestCancelWithoutRunIsNoop(t *testing.T) {
	folder := workspace(t, nil)
	a, _, _ := newTestAdapter(t, folder, workerSettings(t, "worker"))

	assert.NotPanics(t, a.Cancel)
	assert.NotPanics(t, a.Cancel)
}

func TestCancelKillsActiveRun(t *testing.T) {
	folder := workspace(t, map[string]string{"features/login.feature": loginFeature})
	a, rec, _ := newTestAdapter(t, folder, workerSettings(t, "hang"))

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background(), nil) }()

	require.Eventually(t, a.activeProcess, 10*time.Second, 10*time.Millisecond)
	a.Cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not finish after cancel")
	}

	assert.False(t, a.activeProcess())
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.IsType(t, testapi.TestRunFinishedEvent{}, rec.runs[len(rec.runs)-1])
}

func TestDisposeIsIdempotent(t *testing.T) {
	folder := workspace(t, map[string]string{"features/login.feature": loginFeature})
	a, rec, _ := newTestAdapter(t, folder, workerSettings(t, "worker"))

	a.Dispose()
	a.Dispose()

	// disposed emitters drop events
	require.NoError(t, a.Load(context.Background()))
	assert.Empty(t, rec.loads)
}

func TestWatchFiresAutorun(t *testing.T) {
	folder := workspace(t, map[string]string{"features/login.feature": loginFeature})
	a, _, _ := newTestAdapter(t, folder, workerSettings(t, "worker"))
	a.debounce = 20 * time.Millisecond

	var fired atomic.Int32
	a.Autorun(func() { fired.Add(1) })

	require.NoError(t, a.Watch(context.Background()))
	require.NoError(t, a.Watch(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(folder.Path, "features", "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(folder.Path, "features", "login.feature"), []byte(loginFeature+"\n"), 0o644))

	require.Eventually(t, func() bool { return fired.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestFeatureDirs(t *testing.T) {
	assert.Equal(t, []string{"/w"}, featureDirs("/w", nil))
	assert.Equal(t,
		[]string{"/w/features", "/w/features/admin"},
		featureDirs("/w", []string{"/w/features/b.feature", "/w/features/admin/a.feature", "/w/features/a.feature"}))
}
