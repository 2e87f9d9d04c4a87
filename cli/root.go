// Package cli is the command line host of the explorer. It plays the part of
// a test hub for one or more workspace folders and doubles as the worker
// executable the adapters spawn.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	cucumber "github.com/Code-Grump/vscode-cucumber-test-adapter"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/adapter"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/config"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/logging"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/testapi"
)

// Exit codes for CLI commands.
const (
	ExitCodeSuccess     = 0
	ExitCodeError       = 1
	ExitCodeTestsFailed = 2
)

// ErrTestsFailed is returned by run when a test failed or errored.
var ErrTestsFailed = errors.New("tests failed")

type options struct {
	workspaces []string
	log        bool
	logLevel   string
}

// NewRootCmd builds the explorer command tree. catalog holds the support
// code the run worker can load.
func NewRootCmd(version string, catalog cucumber.Catalog) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "cucumber-explorer",
		Short: "Discover and run Cucumber features",
		Long: `cucumber-explorer lists the scenarios of the feature files in a workspace
as a test tree and runs them, reporting the state of every scenario.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(`{{printf "cucumber-explorer version %s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringArrayVarP(&opts.workspaces, "workspace", "w", []string{"."}, "workspace folder, may be repeated")
	flags.BoolVar(&opts.log, "log", false, "write the diagnostic log to stderr")
	flags.StringVar(&opts.logLevel, "log-level", "info", "level of the diagnostic log")

	root.AddCommand(newListCmd(opts))
	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newWatchCmd(opts))
	root.AddCommand(newVersionCmd())
	root.AddCommand(newWorkerCmds(catalog)...)

	return root
}

// Execute runs the explorer and exits the process with the command's exit
// code.
func Execute(version string, catalog cucumber.Catalog) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := NewRootCmd(version, catalog).ExecuteContext(ctx)
	stop()

	if err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.Is(err, ErrTestsFailed):
		return ExitCodeTestsFailed
	default:
		return ExitCodeError
	}
}

// folders resolves the workspace flags into absolute workspace folders.
func (o *options) folders() ([]testapi.WorkspaceFolder, error) {
	var folders []testapi.WorkspaceFolder
	for _, w := range o.workspaces {
		path, err := filepath.Abs(w)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("workspace %s: %w", w, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("workspace %s is not a directory", w)
		}
		folders = append(folders, testapi.WorkspaceFolder{Name: filepath.Base(path), Path: path})
	}
	return folders, nil
}

// logger is enabled by --log or by the logpanel setting of the first
// workspace folder.
func (o *options) logger(stderr io.Writer, folders []testapi.WorkspaceFolder) (*logging.Log, error) {
	enabled := o.log
	levelName := o.logLevel

	if len(folders) > 0 {
		settings, err := config.ReadSettings(filepath.Join(folders[0].Path, config.SettingsFile))
		if err != nil {
			return nil, err
		}
		enabled = enabled || settings.LogPanel
		if settings.LogLevel != "" && levelName == "info" {
			levelName = settings.LogLevel
		}
	}

	if !enabled {
		return logging.Disabled(), nil
	}

	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	return logging.New("explorer", stderr, level), nil
}

// session activates one adapter per workspace folder against a fresh hub.
type session struct {
	hub       *Hub
	registrar *adapter.Registrar
	log       *logging.Log
}

func (o *options) open(cmd *cobra.Command) (*session, error) {
	folders, err := o.folders()
	if err != nil {
		return nil, err
	}

	log, err := o.logger(cmd.ErrOrStderr(), folders)
	if err != nil {
		return nil, err
	}

	hub := NewHub()
	channel := adapter.NewWriterChannel(cmd.ErrOrStderr())
	registrar := adapter.Activate(hub, folders, channel, log)

	return &session{hub: hub, registrar: registrar, log: log}, nil
}

func (s *session) Close() {
	s.registrar.Dispose()
}
