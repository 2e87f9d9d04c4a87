// Package adapter is the test hub façade. It loads the test tree and runs
// tests by spawning the explorer's worker processes, one per operation, and
// relays what they report.
package adapter

import (
	"context"
	"encoding/json"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Code-Grump/vscode-cucumber-test-adapter/config"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/ipc"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/logging"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/testapi"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/worker"
)

// RootLabel is the label of the suite every feature hangs off.
const RootLabel = "Cucumber"

// CucumberAdapter implements testapi.TestAdapter for one workspace folder.
// Its methods may be called from any goroutine.
type CucumberAdapter struct {
	workspace testapi.WorkspaceFolder
	channel   testapi.OutputChannel
	log       *logging.Log
	loader    *config.Loader

	tests      testapi.Emitter[testapi.TestLoadEvent]
	testStates testapi.Emitter[testapi.TestRunEvent]
	autorun    testapi.Emitter[struct{}]

	// debounce delays autorun after the last feature file change
	debounce time.Duration

	mu       sync.Mutex
	active   *exec.Cmd
	watcher  *Watcher
	disposed bool
}

var _ testapi.TestAdapter = (*CucumberAdapter)(nil)

func New(workspace testapi.WorkspaceFolder, channel testapi.OutputChannel, log *logging.Log, settings config.SettingsSource) *CucumberAdapter {
	if log == nil {
		log = logging.Disabled()
	}

	log.Info("Initializing Cucumber adapter")

	return &CucumberAdapter{
		workspace: workspace,
		channel:   channel,
		log:       log,
		loader:    config.NewLoader(workspace.Path, settings, log.With("config")),
		debounce:  defaultDebounce,
	}
}

func (a *CucumberAdapter) Workspace() testapi.WorkspaceFolder {
	return a.workspace
}

func (a *CucumberAdapter) Tests(fn func(testapi.TestLoadEvent)) testapi.Disposable {
	return a.tests.Event(fn)
}

func (a *CucumberAdapter) TestStates(fn func(testapi.TestRunEvent)) testapi.Disposable {
	return a.testStates.Event(fn)
}

func (a *CucumberAdapter) Autorun(fn func()) testapi.Disposable {
	return a.autorun.Event(func(struct{}) { fn() })
}

// Load discovers the workspace's features and fires the resulting tree. A
// failing discovery worker yields a partial or empty tree, not an error; only
// an unusable configuration is returned.
func (a *CucumberAdapter) Load(ctx context.Context) error {
	a.tests.Fire(testapi.TestLoadEvent{Type: testapi.LoadStarted})

	cfg, err := a.loader.Load(ctx)
	if err != nil {
		a.log.Error(err, "Failed to load configuration")
		a.tests.Fire(testapi.TestLoadEvent{Type: testapi.LoadFinished, ErrorMessage: err.Error()})
		return err
	}

	if a.log.Enabled() {
		a.log.Info("Loading Cucumber tests from %s", a.workspace.Path)
	}

	root := testapi.NewRoot(RootLabel)
	root.Children = append(root.Children, a.discoverFeatures(ctx, cfg)...)

	event := testapi.TestLoadEvent{Type: testapi.LoadFinished}
	if len(root.Children) > 0 {
		event.Suite = root
	}
	a.tests.Fire(event)

	return nil
}

// discoverFeatures collects suites in the order the worker sends them.
func (a *CucumberAdapter) discoverFeatures(ctx context.Context, cfg *config.Configuration) []testapi.TestNode {
	var features []testapi.TestNode

	args := worker.DiscoverArgs(cfg.FeatureDefaultLanguage, a.log.Enabled(), cfg.FeaturePaths)
	err := a.spawn(ctx, cfg, args, false, func(m ipc.Message) {
		switch m.Kind {
		case ipc.KindLog:
			a.log.Info("Worker: %s", m.Text)
		case ipc.KindSuite:
			if m.Suite == nil {
				return
			}
			if a.log.Enabled() {
				a.log.Info("Received scenarios for feature %s from worker", m.Suite.File)
			}
			features = append(features, m.Suite)
		}
	})
	if err != nil {
		a.log.Error(err, "Failed to start discovery worker")
	}

	return features
}

// Run executes tests, every test when empty or containing the root id, and
// relays their states. Configuration is reloaded so settings edited since
// the last load apply.
func (a *CucumberAdapter) Run(ctx context.Context, tests []string) error {
	if a.log.Enabled() {
		ids, _ := json.Marshal(tests)
		a.log.Info("Running Cucumber tests %s", ids)
	}

	runID := uuid.NewString()
	a.testStates.Fire(testapi.TestRunStartedEvent{Tests: tests, RunID: runID})
	defer a.testStates.Fire(testapi.TestRunFinishedEvent{RunID: runID})

	cfg, err := a.loader.Load(ctx)
	if err != nil {
		a.log.Error(err, "Failed to load configuration")
		return err
	}

	encoded, err := cfg.Encode()
	if err != nil {
		return err
	}

	args := worker.RunArgs(encoded, a.log.Enabled(), tests)
	err = a.spawn(ctx, cfg, args, true, func(m ipc.Message) {
		switch m.Kind {
		case ipc.KindLog:
			a.log.Info("Worker: %s", m.Text)
		case ipc.KindSuiteState:
			a.testStates.Fire(testapi.TestSuiteEvent{Suite: m.ID, State: m.State})
		case ipc.KindTestState:
			a.testStates.Fire(testapi.TestEvent{Test: m.ID, State: m.State, Message: m.Message})
		case ipc.KindFinished:
			if a.log.Enabled() {
				a.log.Info("Test run %s finished, success: %t", runID, m.Success)
			}
		}
	})
	if err != nil {
		a.log.Error(err, "Failed to start runner worker")
		return err
	}

	return nil
}

// Cancel kills the active test run, if any.
func (a *CucumberAdapter) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active == nil || a.active.Process == nil {
		return
	}

	a.log.Info("Cancelling test run")
	if err := a.active.Process.Kill(); err != nil {
		a.log.Debug("Kill runner worker: %v", err)
	}
}

// Dispose cancels any run, stops watching and releases the emitters. It is
// safe to call more than once.
func (a *CucumberAdapter) Dispose() {
	a.Cancel()

	a.mu.Lock()
	if a.disposed {
		a.mu.Unlock()
		return
	}
	a.disposed = true
	watcher := a.watcher
	a.watcher = nil
	a.mu.Unlock()

	if watcher != nil {
		if err := watcher.Close(); err != nil {
			a.log.Error(err, "Failed to stop watching feature files")
		}
	}

	a.tests.Dispose()
	a.testStates.Dispose()
	a.autorun.Dispose()
}

// spawn runs one worker process to completion. Its stdout and stderr go to
// the output channel and its messages to onMessage. The exit code is only
// logged; the returned error means the worker could not be started.
func (a *CucumberAdapter) spawn(ctx context.Context, cfg *config.Configuration, args []string, track bool, onMessage func(ipc.Message)) error {
	argv := append(append([]string{}, cfg.ExecArgv...), args...)

	cmd := exec.CommandContext(ctx, cfg.ExecPath, argv...)
	cmd.Dir = cfg.Cwd
	cmd.Env = cfg.Environ()

	out := channelWriter{channel: a.channel}
	cmd.Stdout = out
	cmd.Stderr = out

	r, w, err := ipc.Attach(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	a.mu.Lock()
	err = cmd.Start()
	if err == nil && track {
		a.active = cmd
	}
	a.mu.Unlock()

	// the worker holds its own copy of the write end
	w.Close()
	if err != nil {
		return err
	}

	if err := ipc.Receive(r, onMessage); err != nil {
		a.log.Error(err, "Failed to read worker messages")
	}

	waitErr := cmd.Wait()

	if track {
		a.mu.Lock()
		if a.active == cmd {
			a.active = nil
		}
		a.mu.Unlock()
	}

	if _, ok := waitErr.(*exec.ExitError); waitErr != nil && !ok {
		a.log.Error(waitErr, "Worker process failed")
	}
	a.log.Info("Worker process exited with code %d", cmd.ProcessState.ExitCode())

	return nil
}

// activeProcess reports whether a test run is in progress.
func (a *CucumberAdapter) activeProcess() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active != nil
}
