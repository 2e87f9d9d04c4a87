package runner

import (
	"os"
	"path/filepath"
	"testing"

	messages "github.com/cucumber/cucumber-messages-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Code-Grump/vscode-cucumber-test-adapter/ipc"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/testapi"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func initialize(pickleID, uri string, lines ...uint32) *messages.Envelope {
	pickle := &messages.Pickle{Id: pickleID, Uri: uri}
	for _, l := range lines {
		pickle.Locations = append(pickle.Locations, &messages.Location{Line: l})
	}
	return &messages.Envelope{
		Message: &messages.Envelope_CommandInitializeTestCase{
			CommandInitializeTestCase: &messages.CommandInitializeTestCase{Pickle: pickle},
		},
	}
}

func started(pickleID string) *messages.Envelope {
	return &messages.Envelope{
		Message: &messages.Envelope_TestCaseStarted{
			TestCaseStarted: &messages.TestCaseStarted{PickleId: pickleID},
		},
	}
}

func stepFinished(pickleID string, status messages.TestResult_Status, message string) *messages.Envelope {
	return &messages.Envelope{
		Message: &messages.Envelope_TestStepFinished{
			TestStepFinished: &messages.TestStepFinished{
				PickleId:   pickleID,
				TestResult: &messages.TestResult{Status: status, Message: message},
			},
		},
	}
}

func finished(pickleID string, status messages.TestResult_Status) *messages.Envelope {
	return &messages.Envelope{
		Message: &messages.Envelope_TestCaseFinished{
			TestCaseFinished: &messages.TestCaseFinished{
				PickleId:   pickleID,
				TestResult: &messages.TestResult{Status: status},
			},
		},
	}
}

func runFinished() *messages.Envelope {
	return &messages.Envelope{
		Message: &messages.Envelope_TestRunFinished{
			TestRunFinished: &messages.TestRunFinished{Success: true},
		},
	}
}

func newRecordingMapper(t *testing.T, ids []string) (*StateMapper, string, *[]ipc.Message) {
	t.Helper()
	dir, tree := shopTree(t)
	var got []ipc.Message
	m := NewStateMapper(dir, tree, Select(tree, ids), func(msg ipc.Message) {
		got = append(got, msg)
	})
	return m, dir, &got
}

func TestStateMapperScenario(t *testing.T) {
	m, dir, got := newRecordingMapper(t, []string{"features/cart.feature"})
	uri := filepath.Join(dir, "features", "cart.feature")

	m.ProcessMessage(initialize("p1", uri, 3))
	m.ProcessMessage(started("p1"))
	m.ProcessMessage(finished("p1", messages.TestResult_PASSED))
	m.ProcessMessage(runFinished())

	assert.Equal(t, []ipc.Message{
		{Kind: ipc.KindSuiteState, ID: "features/cart.feature", State: testapi.StateRunning},
		{Kind: ipc.KindTestState, ID: "features/cart.feature:3", State: testapi.StateRunning},
		{Kind: ipc.KindTestState, ID: "features/cart.feature:3", State: testapi.StatePassed},
		{Kind: ipc.KindSuiteState, ID: "features/cart.feature", State: testapi.StateCompleted},
	}, *got)
}

func TestStateMapperOutlineRowsAndRelativeURI(t *testing.T) {
	m, _, got := newRecordingMapper(t, []string{"features/shop.feature:6"})
	uri := "features/shop.feature"

	// outline pickles carry the row line and the scenario line
	m.ProcessMessage(initialize("p1", uri, 13, 6))
	m.ProcessMessage(initialize("p2", uri, 14, 6))
	m.ProcessMessage(started("p1"))
	m.ProcessMessage(finished("p1", messages.TestResult_PASSED))
	m.ProcessMessage(started("p2"))
	m.ProcessMessage(stepFinished("p2", messages.TestResult_PASSED, ""))
	m.ProcessMessage(stepFinished("p2", messages.TestResult_FAILED, "expected 3 items"))
	m.ProcessMessage(stepFinished("p2", messages.TestResult_SKIPPED, ""))
	m.ProcessMessage(finished("p2", messages.TestResult_FAILED))
	m.ProcessMessage(runFinished())

	row1 := `features/shop.feature:6{"count":"1"}`
	row3 := `features/shop.feature:6{"count":"3"}`
	assert.Equal(t, []ipc.Message{
		{Kind: ipc.KindSuiteState, ID: "features/shop.feature", State: testapi.StateRunning},
		{Kind: ipc.KindSuiteState, ID: "features/shop.feature:6", State: testapi.StateRunning},
		{Kind: ipc.KindTestState, ID: row1, State: testapi.StateRunning},
		{Kind: ipc.KindTestState, ID: row1, State: testapi.StatePassed},
		{Kind: ipc.KindTestState, ID: row3, State: testapi.StateRunning},
		{Kind: ipc.KindTestState, ID: row3, State: testapi.StateFailed, Message: "expected 3 items"},
		{Kind: ipc.KindSuiteState, ID: "features/shop.feature:6", State: testapi.StateCompleted},
		{Kind: ipc.KindSuiteState, ID: "features/shop.feature", State: testapi.StateCompleted},
	}, *got)
}

func TestStateMapperStatusMapping(t *testing.T) {
	cases := []struct {
		status messages.TestResult_Status
		state  string
	}{
		{messages.TestResult_PASSED, testapi.StatePassed},
		{messages.TestResult_FAILED, testapi.StateFailed},
		{messages.TestResult_PENDING, testapi.StateSkipped},
		{messages.TestResult_UNDEFINED, testapi.StateSkipped},
		{messages.TestResult_SKIPPED, testapi.StateSkipped},
		{messages.TestResult_AMBIGUOUS, testapi.StateErrored},
	}

	for _, c := range cases {
		t.Run(c.status.String(), func(t *testing.T) {
			m, dir, got := newRecordingMapper(t, nil)
			m.ProcessMessage(initialize("p", filepath.Join(dir, "features", "cart.feature"), 3))
			m.ProcessMessage(started("p"))
			m.ProcessMessage(finished("p", c.status))

			last := (*got)[len(*got)-1]
			if last.Kind == ipc.KindSuiteState {
				last = (*got)[len(*got)-2]
			}
			assert.Equal(t, ipc.KindTestState, last.Kind)
			assert.Equal(t, c.state, last.State)
		})
	}
}

func TestStateMapperCompletesPartialSuitesAtRunEnd(t *testing.T) {
	m, dir, got := newRecordingMapper(t, []string{"features/shop.feature"})
	uri := filepath.Join(dir, "features", "shop.feature")

	// a tag filter left only the rule scenario out of the four selected
	m.ProcessMessage(initialize("p1", uri, 18))
	m.ProcessMessage(started("p1"))
	m.ProcessMessage(finished("p1", messages.TestResult_PASSED))

	assert.Equal(t, []ipc.Message{
		{Kind: ipc.KindSuiteState, ID: "features/shop.feature", State: testapi.StateRunning},
		{Kind: ipc.KindSuiteState, ID: "features/shop.feature:16", State: testapi.StateRunning},
		{Kind: ipc.KindTestState, ID: "features/shop.feature:18", State: testapi.StateRunning},
		{Kind: ipc.KindTestState, ID: "features/shop.feature:18", State: testapi.StatePassed},
		{Kind: ipc.KindSuiteState, ID: "features/shop.feature:16", State: testapi.StateCompleted},
	}, *got)

	m.ProcessMessage(runFinished())

	require.Len(t, *got, 6)
	assert.Equal(t, ipc.Message{Kind: ipc.KindSuiteState, ID: "features/shop.feature", State: testapi.StateCompleted}, (*got)[5])
}

func TestStateMapperIgnoresUnknownPickles(t *testing.T) {
	m, dir, got := newRecordingMapper(t, nil)

	m.ProcessMessage(initialize("p1", filepath.Join(dir, "elsewhere.feature"), 3))
	m.ProcessMessage(started("p1"))
	m.ProcessMessage(finished("p1", messages.TestResult_PASSED))
	m.ProcessMessage(runFinished())

	assert.Empty(t, *got)
}
