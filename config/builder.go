package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	cucumber "github.com/Code-Grump/vscode-cucumber-test-adapter"
)

// DefaultFeaturePath is used when the command line names no feature paths.
const DefaultFeaturePath = "features"

// Build turns cucumber command line arguments into a configuration scoped to
// cwd. Unknown flags, malformed JSON options and missing feature paths are
// errors.
func Build(argv []string, cwd string) (*Configuration, error) {
	flags := pflag.NewFlagSet("cucumber", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}

	require := flags.StringArrayP("require", "r", nil, "")
	requireModule := flags.StringArray("require-module", nil, "")
	names := flags.StringArray("name", nil, "")
	tags := flags.StringArrayP("tags", "t", nil, "")
	language := flags.String("language", "en", "")
	parallel := flags.Int("parallel", 0, "")
	dryRun := flags.BoolP("dry-run", "d", false, "")
	failFast := flags.Bool("fail-fast", false, "")
	strict := flags.BoolP("strict", "S", true, "")
	noStrict := flags.Bool("no-strict", false, "")
	filterStacktraces := flags.Bool("filter-stacktraces", true, "")
	backtrace := flags.BoolP("backtrace", "b", false, "")
	worldParameters := flags.StringArray("world-parameters", nil, "")
	formats := flags.StringArrayP("format", "f", nil, "")
	formatOptions := flags.StringArray("format-options", nil, "")
	order := flags.String("order", "defined", "")

	if err := flags.Parse(argv); err != nil {
		return nil, fmt.Errorf("parse cucumber arguments: %w", err)
	}

	if _, _, err := parseOrder(*order); err != nil {
		return nil, err
	}

	if *parallel < 0 {
		return nil, fmt.Errorf("parallel must not be negative, got %d", *parallel)
	}

	world, err := mergeJSON("world-parameters", *worldParameters)
	if err != nil {
		return nil, err
	}

	fmtOptions, err := mergeJSON("format-options", *formatOptions)
	if err != nil {
		return nil, err
	}

	featurePaths, filterPaths, err := resolveFeaturePaths(cwd, flags.Args())
	if err != nil {
		return nil, err
	}

	return &Configuration{
		Cwd:                    cwd,
		FeaturePaths:           featurePaths,
		FeatureDefaultLanguage: *language,
		Formats:                parseFormats(*formats),
		FormatOptions:          fmtOptions,
		Order:                  *order,
		Parallel:               *parallel,
		PickleFilterOptions: PickleFilterOptions{
			FeaturePaths:  filterPaths,
			Names:         *names,
			TagExpression: joinTags(*tags),
		},
		RuntimeOptions: RuntimeOptions{
			DryRun:            *dryRun,
			FailFast:          *failFast,
			FilterStacktraces: *filterStacktraces && !*backtrace,
			Strict:            *strict && !*noStrict,
			WorldParameters:   world,
		},
		SupportCodePaths:           *require,
		SupportCodeRequiredModules: *requireModule,
	}, nil
}

func resolveFeaturePaths(cwd string, args []string) ([]string, []string, error) {
	if len(args) == 0 {
		_, err := os.Stat(filepath.Join(cwd, DefaultFeaturePath))
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, []string{}, nil
		}
		args = []string{DefaultFeaturePath}
	}

	paths := make([]string, 0, len(args))
	for _, arg := range args {
		path, _ := cucumber.SplitLines(arg)
		paths = append(paths, path)
	}

	files, err := cucumber.FindFeatures(cwd, paths)
	if err != nil {
		return nil, nil, err
	}
	return files, args, nil
}

func mergeJSON(flag string, values []string) (map[string]any, error) {
	merged := map[string]any{}
	for _, v := range values {
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, fmt.Errorf("--%s passed invalid JSON %q: %w", flag, v, err)
		}
		for k, x := range m {
			merged[k] = x
		}
	}
	return merged, nil
}

func parseFormats(values []string) []Format {
	formats := make([]Format, 0, len(values))
	for _, v := range values {
		typ, out, _ := strings.Cut(v, ":")
		formats = append(formats, Format{Type: typ, OutputTo: out})
	}
	return formats
}

func joinTags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, "("+t+")")
		}
	}
	if len(parts) == 1 {
		return strings.TrimSuffix(strings.TrimPrefix(parts[0], "("), ")")
	}
	return strings.Join(parts, " and ")
}
