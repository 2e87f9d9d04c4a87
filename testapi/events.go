package testapi

// Load lifecycle.
const (
	LoadStarted  = "started"
	LoadFinished = "finished"
)

// States a test or suite moves through during a run.
const (
	StateRunning   = "running"
	StatePassed    = "passed"
	StateFailed    = "failed"
	StateSkipped   = "skipped"
	StateErrored   = "errored"
	StateCompleted = "completed"
)

// TestLoadEvent is fired with Type "started" when a load begins and "finished"
// when it ends. Suite is nil when nothing was discovered.
type TestLoadEvent struct {
	Type         string         `json:"type"`
	Suite        *TestSuiteInfo `json:"suite,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
}

// TestRunEvent is one of TestRunStartedEvent, TestRunFinishedEvent,
// TestSuiteEvent or TestEvent.
type TestRunEvent interface {
	runEvent()
}

type TestRunStartedEvent struct {
	Tests []string `json:"tests"`
	RunID string   `json:"runId"`
}

type TestRunFinishedEvent struct {
	RunID string `json:"runId"`
}

type TestSuiteEvent struct {
	Suite string `json:"suite"`
	State string `json:"state"`
}

type TestEvent struct {
	Test    string `json:"test"`
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

func (TestRunStartedEvent) runEvent()  {}
func (TestRunFinishedEvent) runEvent() {}
func (TestSuiteEvent) runEvent()       {}
func (TestEvent) runEvent()            {}
