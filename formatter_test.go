package cucumber

import (
	"bytes"
	"testing"

	messages "github.com/cucumber/cucumber-messages-go/v3"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepFinished(status messages.TestResult_Status) *messages.Envelope {
	return &messages.Envelope{
		Message: &messages.Envelope_TestStepFinished{
			TestStepFinished: &messages.TestStepFinished{
				TestResult: &messages.TestResult{Status: status},
			},
		},
	}
}

func TestNewFormatter(t *testing.T) {
	for _, name := range []string{"", "dots", "progress", "summary", "debug", "none"} {
		f, err := NewFormatter(name, &bytes.Buffer{})
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}

	_, err := NewFormatter("json", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestDotFormatter(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	f := NewDotFormatter(&out)

	f.ProcessMessage(stepFinished(messages.TestResult_PASSED))
	f.ProcessMessage(stepFinished(messages.TestResult_FAILED))
	f.ProcessMessage(stepFinished(messages.TestResult_SKIPPED))
	f.ProcessMessage(stepFinished(messages.TestResult_UNDEFINED))

	assert.Equal(t, ".F-U", out.String())

	out.Reset()
	for i := 0; i < dotsPerLine+1; i++ {
		f.ProcessMessage(stepFinished(messages.TestResult_PASSED))
	}
	assert.Contains(t, out.String(), "\n")
}

func TestSummaryFormatterCounts(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer

	NewSummaryFormatter(&out).DisplaySummary(Summary{
		TestCasesTotal:  3,
		TestCasesPassed: 2,
		TestCasesFailed: 1,
		StepsTotal:      6,
		StepsPassed:     5,
		StepsSkipped:    1,
	})

	assert.Contains(t, out.String(), "3 scenarios (2 passed, 1 failed)")
	assert.Contains(t, out.String(), "6 steps (5 passed, 1 skipped)")
}

func TestMultiFormatter(t *testing.T) {
	var a, b bytes.Buffer
	single := NewDebugFormatter(&a)
	assert.Same(t, single, MultiFormatter(single))

	f := MultiFormatter(NewDebugFormatter(&a), NewDebugFormatter(&b))
	f.DisplaySummary(Summary{Success: true})
	assert.Contains(t, a.String(), "Success:true")
	assert.Contains(t, b.String(), "Success:true")
}
