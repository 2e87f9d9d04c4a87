// Package runner is the worker process that executes selected scenarios and
// reports their states back to the adapter.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	cucumber "github.com/Code-Grump/vscode-cucumber-test-adapter"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/config"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/discovery"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/ipc"
)

var ErrUsage = errors.New("usage: run-worker <configuration> <logEnabled> [testId...]")

// Main is the runner worker. args are the encoded configuration, the logging
// flag and the ids of the tests to run. A run with failing scenarios still
// completes normally; only failures to start or finish the run are returned.
func Main(ctx context.Context, args []string, catalog cucumber.Catalog, sender *ipc.Sender, stdout io.Writer) error {
	if len(args) < 2 {
		return ErrUsage
	}

	logEnabled := args[1] == "true"

	cfg, err := config.Decode(args[0])
	if err == nil {
		var summary cucumber.Summary
		summary, err = Run(ctx, cfg, args[2:], catalog, sender, stdout)
		if err == nil && logEnabled {
			_ = sender.Log("Test run finished: %s", summary)
		}
	}

	if err != nil && logEnabled {
		_ = sender.Log("Error during test run: %v", err)
	}
	return err
}

// Run executes the tests identified by ids, all of them when ids is empty,
// and sends their states through sender. Console output goes to stdout.
func Run(ctx context.Context, cfg *config.Configuration, ids []string, catalog cucumber.Catalog, sender *ipc.Sender, stdout io.Writer) (cucumber.Summary, error) {
	builder := cucumber.NewSupportCodeBuilder(cfg.Cwd)
	if err := catalog.Load(builder, cfg.SupportCodeRequiredModules, cfg.SupportCodePaths); err != nil {
		return cucumber.Summary{}, err
	}
	library, err := builder.Finalize()
	if err != nil {
		return cucumber.Summary{}, err
	}

	language := cfg.FeatureDefaultLanguage
	if language == "" {
		language = discovery.DefaultLanguage
	}

	tree, err := discovery.Tree(ctx, cfg.Cwd, language, cfg.FeaturePaths)
	if err != nil {
		return cucumber.Summary{}, err
	}

	selection := Select(tree, ids)
	for _, id := range selection.Unknown {
		_ = sender.Log("Ignoring unknown test %s", id)
	}

	lines, err := cfg.Lines()
	if err != nil {
		return cucumber.Summary{}, err
	}
	selection.Restrict(lines)

	order, seed, err := cfg.OrderType()
	if err != nil {
		return cucumber.Summary{}, err
	}

	if cfg.Parallel < 0 {
		return cucumber.Summary{}, fmt.Errorf("invalid parallel value %d", cfg.Parallel)
	}

	formatter, closeOutputs, err := formatters(cfg, stdout)
	if err != nil {
		return cucumber.Summary{}, err
	}
	defer closeOutputs()

	runtime := cucumber.NewRuntime(cucumber.Config{
		BaseDirectory:     cfg.Cwd,
		Paths:             selection.Files,
		Language:          language,
		Order:             order,
		Seed:              seed,
		Parallel:          uint64(cfg.Parallel),
		FailFast:          cfg.RuntimeOptions.FailFast,
		DryRun:            cfg.RuntimeOptions.DryRun,
		Strict:            cfg.RuntimeOptions.Strict,
		FilterStacktraces: cfg.RuntimeOptions.FilterStacktraces,
		WorldParameters:   cfg.RuntimeOptions.WorldParameters,
		TagExpression:     cfg.PickleFilterOptions.TagExpression,
		Names:             cfg.PickleFilterOptions.Names,
		Lines:             selection.Lines,
		Formatter:         formatter,
	}, library)

	mapper := NewStateMapper(cfg.Cwd, tree, selection, func(m ipc.Message) {
		_ = sender.Send(m)
	})
	runtime.Subscribe(mapper.ProcessMessage)

	summary, err := runtime.Start(ctx)
	if err != nil {
		return summary, err
	}

	if err := sender.Send(ipc.Message{Kind: ipc.KindFinished, Success: summary.Success}); err != nil {
		return summary, err
	}
	return summary, nil
}

// formatters builds the console formatters of cfg. Formats without an output
// file write to stdout; the dots formatter is used when none is configured.
func formatters(cfg *config.Configuration, stdout io.Writer) (cucumber.Formatter, func(), error) {
	var (
		list  []cucumber.Formatter
		files []*os.File
	)
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	for _, format := range cfg.Formats {
		out := stdout
		if format.OutputTo != "" {
			path := format.OutputTo
			if !filepath.IsAbs(path) {
				path = filepath.Join(cfg.Cwd, path)
			}
			f, err := os.Create(path)
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("open format output: %w", err)
			}
			files = append(files, f)
			out = f
		}

		formatter, err := cucumber.NewFormatter(format.Type, out)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		list = append(list, formatter)
	}

	if len(list) == 0 {
		list = append(list, cucumber.NewDotFormatter(stdout))
	}

	return cucumber.MultiFormatter(list...), closeAll, nil
}
