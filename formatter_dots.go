package cucumber

// Based on https://github.com/cucumber/dots-formatter-go/blob/master/dots.go

import (
	"fmt"
	"io"

	messages "github.com/cucumber/cucumber-messages-go/v3"
	"github.com/fatih/color"
)

const (
	successColor   = color.FgGreen
	failureColor   = color.FgRed
	skippedColor   = color.FgCyan
	undefinedColor = color.FgYellow
	pendingColor   = color.FgYellow
	ambiguousColor = color.FgMagenta
)

// dotsPerLine wraps long runs so the output channel stays readable.
const dotsPerLine = 80

type dot struct {
	symbol string
	color  color.Attribute
}

var stepDots = map[messages.TestResult_Status]dot{
	messages.TestResult_AMBIGUOUS: {"A", ambiguousColor},
	messages.TestResult_FAILED:    {"F", failureColor},
	messages.TestResult_PASSED:    {".", successColor},
	messages.TestResult_PENDING:   {"P", pendingColor},
	messages.TestResult_SKIPPED:   {"-", skippedColor},
	messages.TestResult_UNDEFINED: {"U", undefinedColor},
}

type dotFormatter struct {
	out     io.Writer
	summary *summaryFormatter
	column  int
}

func NewDotFormatter(stdout io.Writer) *dotFormatter {
	return &dotFormatter{
		out:     stdout,
		summary: NewSummaryFormatter(stdout),
	}
}

func (df *dotFormatter) ProcessMessage(msg *messages.Envelope) {
	switch m := msg.Message.(type) {
	case *messages.Envelope_TestRunFinished:
		fmt.Fprint(df.out, "\n")
		df.column = 0
	case *messages.Envelope_TestHookFinished:
		if m.TestHookFinished.TestResult.Status == messages.TestResult_FAILED {
			df.print(dot{"H", failureColor})
		}
	case *messages.Envelope_TestStepFinished:
		if d, ok := stepDots[m.TestStepFinished.TestResult.Status]; ok {
			df.print(d)
		}
	}

	df.summary.ProcessMessage(msg)
}

func (df *dotFormatter) print(d dot) {
	if df.column == dotsPerLine {
		fmt.Fprint(df.out, "\n")
		df.column = 0
	}
	color.New(d.color).Fprint(df.out, d.symbol)
	df.column++
}

func (df *dotFormatter) DisplaySummary(summary Summary) {
	df.summary.DisplaySummary(summary)
}
