// Package config resolves the workspace settings, the profiles file and the
// cucumber command line of a profile into the Configuration both workers run
// with.
package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	cucumber "github.com/Code-Grump/vscode-cucumber-test-adapter"
)

// Configuration is built once per load or run and never mutated afterwards.
// It crosses the process boundary to the runner worker as JSON.
type Configuration struct {
	Cwd                        string              `json:"cwd"`
	ProfileName                string              `json:"profileName"`
	Env                        map[string]string   `json:"env"`
	ExecPath                   string              `json:"execPath"`
	ExecArgv                   []string            `json:"execArgv"`
	FeaturePaths               []string            `json:"featurePaths"`
	FeatureDefaultLanguage     string              `json:"featureDefaultLanguage"`
	Formats                    []Format            `json:"formats"`
	FormatOptions              map[string]any      `json:"formatOptions"`
	Order                      string              `json:"order"`
	Parallel                   int                 `json:"parallel"`
	PickleFilterOptions        PickleFilterOptions `json:"pickleFilterOptions"`
	RuntimeOptions             RuntimeOptions      `json:"runtimeOptions"`
	SupportCodePaths           []string            `json:"supportCodePaths"`
	SupportCodeRequiredModules []string            `json:"supportCodeRequiredModules"`
}

type Format struct {
	Type     string `json:"type"`
	OutputTo string `json:"outputTo"`
}

type PickleFilterOptions struct {
	// Feature paths as given, including any ":line" suffixes.
	FeaturePaths  []string `json:"featurePaths"`
	Names         []string `json:"names"`
	TagExpression string   `json:"tagExpression"`
}

type RuntimeOptions struct {
	DryRun            bool           `json:"dryRun"`
	FailFast          bool           `json:"failFast"`
	FilterStacktraces bool           `json:"filterStacktraces"`
	Strict            bool           `json:"strict"`
	WorldParameters   map[string]any `json:"worldParameters"`
}

// Encode serializes the configuration for the runner worker's command line.
func (c *Configuration) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode configuration: %w", err)
	}
	return string(data), nil
}

// Decode rebuilds a configuration produced by Encode.
func Decode(data string) (*Configuration, error) {
	var c Configuration
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	return &c, nil
}

// Environ renders Env as sorted KEY=value pairs for a child process.
func (c *Configuration) Environ() []string {
	env := make([]string, 0, len(c.Env))
	for k, v := range c.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}

// OrderType maps Order onto the runtime order and seed.
func (c *Configuration) OrderType() (cucumber.OrderType, uint64, error) {
	return parseOrder(c.Order)
}

func parseOrder(order string) (cucumber.OrderType, uint64, error) {
	switch {
	case order == "" || order == "defined":
		return cucumber.OrderDefined, 0, nil
	case order == "random":
		return cucumber.OrderRandom, 0, nil
	case strings.HasPrefix(order, "random:"):
		seed, err := strconv.ParseUint(strings.TrimPrefix(order, "random:"), 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid order seed in %q: %w", order, err)
		}
		return cucumber.OrderRandom, seed, nil
	default:
		return 0, 0, fmt.Errorf("unrecognized order type %q, expected defined or random", order)
	}
}

// Lines collects the ":line" filters of PickleFilterOptions keyed by absolute
// feature file path.
func (c *Configuration) Lines() (map[string][]uint64, error) {
	lines := map[string][]uint64{}
	for _, entry := range c.PickleFilterOptions.FeaturePaths {
		path, ls := cucumber.SplitLines(entry)
		if len(ls) == 0 {
			continue
		}
		files, err := cucumber.FindFeatures(c.Cwd, []string{path})
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			lines[f] = append(lines[f], ls...)
		}
	}
	return lines, nil
}
