package runner

import (
	"path/filepath"

	messages "github.com/cucumber/cucumber-messages-go/v3"

	"github.com/Code-Grump/vscode-cucumber-test-adapter/ipc"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/testapi"
)

// StateMapper translates engine events into test and suite state messages
// for the adapter. It is fed from the runtime event bus, one envelope at a
// time.
type StateMapper struct {
	cwd  string
	emit func(ipc.Message)

	byLine  map[string]map[int]string
	parents map[string][]*testapi.TestSuiteInfo

	// expected counts the selected tests below each suite
	expected map[string]int
	finished map[string]int
	open     []string
	isOpen   map[string]bool

	pickles  map[string]string
	failures map[string]string
}

func NewStateMapper(cwd string, tree *testapi.TestSuiteInfo, sel Selection, emit func(ipc.Message)) *StateMapper {
	m := &StateMapper{
		cwd:      cwd,
		emit:     emit,
		byLine:   map[string]map[int]string{},
		parents:  map[string][]*testapi.TestSuiteInfo{},
		expected: map[string]int{},
		finished: map[string]int{},
		isOpen:   map[string]bool{},
		pickles:  map[string]string{},
		failures: map[string]string{},
	}

	testapi.Walk(tree, func(n testapi.TestNode, parents []*testapi.TestSuiteInfo) bool {
		t, ok := n.(*testapi.TestInfo)
		if !ok {
			return true
		}
		if t.File != "" && t.Line != nil {
			file := filepath.Clean(t.File)
			if m.byLine[file] == nil {
				m.byLine[file] = map[int]string{}
			}
			m.byLine[file][*t.Line+1] = t.ID
		}

		// the root suite is reported by the run started and finished events
		var suites []*testapi.TestSuiteInfo
		for _, p := range parents {
			if p.ID != testapi.RootID {
				suites = append(suites, p)
			}
		}
		m.parents[t.ID] = suites

		if sel.Tests[t.ID] {
			for _, s := range suites {
				m.expected[s.ID]++
			}
		}
		return true
	})

	return m
}

func (m *StateMapper) ProcessMessage(env *messages.Envelope) {
	switch x := env.Message.(type) {
	case *messages.Envelope_CommandInitializeTestCase:
		if id, ok := m.resolve(x.CommandInitializeTestCase.Pickle); ok {
			m.pickles[x.CommandInitializeTestCase.Pickle.Id] = id
		}
	case *messages.Envelope_TestCaseStarted:
		id, ok := m.pickles[x.TestCaseStarted.PickleId]
		if !ok {
			return
		}
		for _, s := range m.parents[id] {
			if !m.isOpen[s.ID] {
				m.isOpen[s.ID] = true
				m.open = append(m.open, s.ID)
				m.emit(ipc.Message{Kind: ipc.KindSuiteState, ID: s.ID, State: testapi.StateRunning})
			}
		}
		m.emit(ipc.Message{Kind: ipc.KindTestState, ID: id, State: testapi.StateRunning})
	case *messages.Envelope_TestStepFinished:
		result := x.TestStepFinished.TestResult
		if result == nil {
			return
		}
		switch result.Status {
		case messages.TestResult_FAILED, messages.TestResult_AMBIGUOUS:
			if _, seen := m.failures[x.TestStepFinished.PickleId]; !seen {
				m.failures[x.TestStepFinished.PickleId] = result.Message
			}
		}
	case *messages.Envelope_TestCaseFinished:
		pickleID := x.TestCaseFinished.PickleId
		id, ok := m.pickles[pickleID]
		if !ok {
			return
		}
		state, message := m.testState(pickleID, x.TestCaseFinished.TestResult)
		m.emit(ipc.Message{Kind: ipc.KindTestState, ID: id, State: state, Message: message})

		parents := m.parents[id]
		for i := len(parents) - 1; i >= 0; i-- {
			s := parents[i]
			m.finished[s.ID]++
			if m.finished[s.ID] >= m.expected[s.ID] {
				m.complete(s.ID)
			}
		}
	case *messages.Envelope_TestRunFinished:
		for i := len(m.open) - 1; i >= 0; i-- {
			m.complete(m.open[i])
		}
	}
}

func (m *StateMapper) complete(suiteID string) {
	if !m.isOpen[suiteID] {
		return
	}
	m.isOpen[suiteID] = false
	m.emit(ipc.Message{Kind: ipc.KindSuiteState, ID: suiteID, State: testapi.StateCompleted})
}

func (m *StateMapper) testState(pickleID string, result *messages.TestResult) (string, string) {
	if result == nil {
		return testapi.StateErrored, "no result reported"
	}

	message := m.failures[pickleID]
	if message == "" {
		message = result.Message
	}

	switch result.Status {
	case messages.TestResult_PASSED:
		return testapi.StatePassed, ""
	case messages.TestResult_FAILED:
		return testapi.StateFailed, message
	case messages.TestResult_PENDING:
		return testapi.StateSkipped, "pending"
	case messages.TestResult_UNDEFINED:
		return testapi.StateSkipped, "undefined step"
	case messages.TestResult_SKIPPED:
		return testapi.StateSkipped, ""
	case messages.TestResult_AMBIGUOUS:
		return testapi.StateErrored, message
	default:
		return testapi.StateErrored, message
	}
}

// resolve finds the test a pickle was compiled from. Example rows and plain
// scenarios are both indexed by their own line; for an outline pickle the
// scenario line is not a test, so the row line wins.
func (m *StateMapper) resolve(pickle *messages.Pickle) (string, bool) {
	if pickle == nil {
		return "", false
	}

	file := pickle.Uri
	if !filepath.IsAbs(file) {
		file = filepath.Join(m.cwd, file)
	}
	lines, ok := m.byLine[filepath.Clean(file)]
	if !ok {
		return "", false
	}

	for _, loc := range pickle.Locations {
		if loc == nil {
			continue
		}
		if id, ok := lines[int(loc.Line)]; ok {
			return id, true
		}
	}
	return "", false
}
