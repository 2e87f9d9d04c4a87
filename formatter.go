package cucumber

import (
	"fmt"
	"io"

	messages "github.com/cucumber/cucumber-messages-go/v3"
)

// Formatter renders the engine's event stream for humans.
type Formatter interface {
	ProcessMessage(msg *messages.Envelope)
	DisplaySummary(summary Summary)
}

// NewDebugFormatter dumps every envelope, useful when diagnosing the engine.
func NewDebugFormatter(out io.Writer) Formatter {
	return &debugFormatter{out: out}
}

type debugFormatter struct {
	out io.Writer
}

func (df *debugFormatter) ProcessMessage(msg *messages.Envelope) {
	fmt.Fprintf(df.out, "cucumber-engine OUT: %+v\n", msg)
}

func (df *debugFormatter) DisplaySummary(summary Summary) {
	fmt.Fprintf(df.out, "summary: %+v\n", summary)
}

// NopFormatter discards everything.
func NopFormatter() Formatter {
	return nopFormatter{}
}

type nopFormatter struct{}

func (nf nopFormatter) ProcessMessage(msg *messages.Envelope) {
}

func (nf nopFormatter) DisplaySummary(summary Summary) {
}

// NewFormatter returns the formatter registered under name: "dots" (default),
// "summary", "debug" or "none".
func NewFormatter(name string, out io.Writer) (Formatter, error) {
	switch name {
	case "", "dots", "progress":
		return NewDotFormatter(out), nil
	case "summary":
		return NewSummaryFormatter(out), nil
	case "debug":
		return NewDebugFormatter(out), nil
	case "none":
		return NopFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown formatter %q", name)
	}
}

// MultiFormatter fans every message out to each of formatters.
func MultiFormatter(formatters ...Formatter) Formatter {
	if len(formatters) == 1 {
		return formatters[0]
	}
	return multiFormatter(formatters)
}

type multiFormatter []Formatter

func (mf multiFormatter) ProcessMessage(msg *messages.Envelope) {
	for _, f := range mf {
		f.ProcessMessage(msg)
	}
}

func (mf multiFormatter) DisplaySummary(summary Summary) {
	for _, f := range mf {
		f.DisplaySummary(summary)
	}
}
