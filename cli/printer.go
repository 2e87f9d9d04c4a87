package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Code-Grump/vscode-cucumber-test-adapter/testapi"
)

var stateColors = map[string]color.Attribute{
	testapi.StatePassed:  color.FgGreen,
	testapi.StateFailed:  color.FgRed,
	testapi.StateSkipped: color.FgCyan,
	testapi.StateErrored: color.FgMagenta,
}

// summaryStates are the final states, in the order the summary lists them.
var summaryStates = []string{
	testapi.StatePassed,
	testapi.StateFailed,
	testapi.StateSkipped,
	testapi.StateErrored,
}

// statePrinter prints one line per finished test and counts the results.
type statePrinter struct {
	mu     sync.Mutex
	out    io.Writer
	counts map[string]int
}

func newStatePrinter(out io.Writer) *statePrinter {
	return &statePrinter{out: out, counts: map[string]int{}}
}

func (p *statePrinter) handle(_ testapi.TestAdapter, e testapi.TestRunEvent) {
	te, ok := e.(testapi.TestEvent)
	if !ok || te.State == testapi.StateRunning {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.counts[te.State]++
	color.New(stateColors[te.State]).Fprintf(p.out, "%-8s", te.State)
	fmt.Fprintf(p.out, " %s\n", te.Test)
	if te.Message != "" && te.State != testapi.StateSkipped {
		for _, line := range strings.Split(strings.TrimRight(te.Message, "\n"), "\n") {
			fmt.Fprintf(p.out, "         %s\n", line)
		}
	}
}

// failed reports whether any test failed or errored.
func (p *statePrinter) failed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[testapi.StateFailed]+p.counts[testapi.StateErrored] > 0
}

// renderSummary writes the result counts as a table.
func (p *statePrinter) renderSummary() {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.AppendHeader(table.Row{"State", "Tests"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Tests", Align: text.AlignRight, AlignFooter: text.AlignRight},
	})

	total := 0
	for _, state := range summaryStates {
		t.AppendRow(table.Row{state, p.counts[state]})
		total += p.counts[state]
	}
	t.AppendFooter(table.Row{"Total", total})
	t.SetStyle(table.StyleLight)
	t.Render()
}

// renderTree writes the suites and tests below root as an indented list.
func renderTree(out io.Writer, root *testapi.TestSuiteInfo) {
	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedRounded)

	children := append([]testapi.TestNode(nil), root.Children...)
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].NodeID() < children[j].NodeID()
	})

	var add func(n testapi.TestNode)
	add = func(n testapi.TestNode) {
		switch n := n.(type) {
		case *testapi.TestSuiteInfo:
			l.AppendItem(fmt.Sprintf("%s  [%s]", n.Label, n.ID))
			l.Indent()
			for _, c := range n.Children {
				add(c)
			}
			l.UnIndent()
		case *testapi.TestInfo:
			l.AppendItem(fmt.Sprintf("%s  [%s]", n.Label, n.ID))
		}
	}
	for _, c := range children {
		add(c)
	}

	fmt.Fprintln(out, l.Render())
}
