// Package worker runs the discovery and runner worker processes the adapter
// spawns. Both the explorer CLI and test binaries dispatch into it.
package worker

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	cucumber "github.com/Code-Grump/vscode-cucumber-test-adapter"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/discovery"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/ipc"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/runner"
)

const (
	CommandDiscover = "discover"
	CommandRun      = "run-worker"
)

// DiscoverArgs is the argv of a discovery worker after the executable.
func DiscoverArgs(language string, logEnabled bool, patterns []string) []string {
	args := []string{CommandDiscover, language, strconv.FormatBool(logEnabled)}
	return append(args, patterns...)
}

// RunArgs is the argv of a runner worker after the executable.
func RunArgs(configuration string, logEnabled bool, tests []string) []string {
	args := []string{CommandRun, configuration, strconv.FormatBool(logEnabled)}
	return append(args, tests...)
}

// Run executes the named worker. Messages go to the channel inherited from
// the adapter, console output to stdout.
func Run(ctx context.Context, command string, args []string, catalog cucumber.Catalog, stdout io.Writer) error {
	sender := ipc.FromEnvironment()
	defer sender.Close()

	switch command {
	case CommandDiscover:
		return discovery.Main(ctx, args, sender)
	case CommandRun:
		return runner.Main(ctx, args, catalog, sender, stdout)
	default:
		return fmt.Errorf("unknown worker %q", command)
	}
}

// Main runs the worker named by args[0] and returns the process exit code.
func Main(args []string, catalog cucumber.Catalog) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "missing worker command")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := Run(ctx, args[0], args[1:], catalog, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
