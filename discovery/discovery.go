// Package discovery turns feature files into the suite and test tree shown by
// the hub. It backs the discovery worker process and is reused in process by
// the runner worker to resolve selected ids.
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	gherkin "github.com/cucumber/gherkin-go/v19"
	"github.com/cucumber/messages-go/v16"
	"golang.org/x/sync/errgroup"

	cucumber "github.com/Code-Grump/vscode-cucumber-test-adapter"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/testapi"
)

// DefaultLanguage is used when no feature language is configured.
const DefaultLanguage = "en"

// Discover parses every feature file matched by patterns, relative to cwd,
// one goroutine per file, and hands each feature suite to emit as soon as it
// is mapped. A failing file does not stop the others; the first error is
// returned once all of them settled.
func Discover(ctx context.Context, cwd, language string, patterns []string, emit func(*testapi.TestSuiteInfo) error) error {
	if language == "" {
		language = DefaultLanguage
	}
	if gherkin.GherkinDialectsBuildin().GetDialect(language) == nil {
		return fmt.Errorf("unknown feature language %q", language)
	}

	files, err := cucumber.FindFeatures(cwd, patterns)
	if err != nil {
		return err
	}

	var g errgroup.Group
	for _, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			suite, err := ParseFeature(cwd, file, language)
			if err != nil {
				return err
			}
			if suite == nil {
				return nil
			}
			return emit(suite)
		})
	}
	return g.Wait()
}

// Tree discovers patterns into a root suite whose children are sorted by id.
func Tree(ctx context.Context, cwd, language string, patterns []string) (*testapi.TestSuiteInfo, error) {
	root := testapi.NewRoot("Cucumber")

	var mu sync.Mutex
	err := Discover(ctx, cwd, language, patterns, func(s *testapi.TestSuiteInfo) error {
		mu.Lock()
		defer mu.Unlock()
		root.Children = append(root.Children, s)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(root.Children, func(i, j int) bool {
		return root.Children[i].NodeID() < root.Children[j].NodeID()
	})
	return root, nil
}

// ParseFeature reads and maps one feature file. It returns nil for a file
// without a feature, and an error naming the file when Gherkin rejects it.
func ParseFeature(cwd, file, language string) (*testapi.TestSuiteInfo, error) {
	uri := featureURI(cwd, file)

	source, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read feature %s: %w", uri, err)
	}

	doc, err := gherkin.ParseGherkinDocumentForLanguage(bytes.NewReader(source), language, (&messages.Incrementing{}).NewId)
	if err != nil {
		return nil, fmt.Errorf("parse error in '%s': %w", uri, err)
	}
	if doc.Feature == nil {
		return nil, nil
	}

	return MapFeature(doc.Feature, uri, file), nil
}

func featureURI(cwd, file string) string {
	rel, err := filepath.Rel(cwd, file)
	if err != nil {
		rel = file
	}
	return filepath.ToSlash(rel)
}

// MapFeature builds the suite of a feature. uri becomes the suite id and the
// prefix of every descendant id; file is recorded on every node.
func MapFeature(feature *messages.Feature, uri, file string) *testapi.TestSuiteInfo {
	suite := testapi.NewSuite(uri, label(feature.Name, uri))
	suite.File = file
	suite.Line = testapi.ZeroBased(sourceLine(feature.Location))

	for _, child := range feature.Children {
		if child == nil {
			continue
		}
		if child.Scenario != nil {
			suite.Children = append(suite.Children, mapScenario(child.Scenario, uri, file))
		}
		if child.Rule != nil {
			suite.Children = append(suite.Children, mapRule(child.Rule, uri, file))
		}
	}
	return suite
}

func mapRule(rule *messages.Rule, uri, file string) *testapi.TestSuiteInfo {
	line := sourceLine(rule.Location)
	suite := testapi.NewSuite(nodeID(uri, line), label(rule.Name, rule.Keyword))
	suite.File = file
	suite.Line = testapi.ZeroBased(line)

	for _, child := range rule.Children {
		if child == nil || child.Scenario == nil {
			continue
		}
		suite.Children = append(suite.Children, mapScenario(child.Scenario, uri, file))
	}
	return suite
}

func mapScenario(scenario *messages.Scenario, uri, file string) testapi.TestNode {
	line := sourceLine(scenario.Location)
	id := nodeID(uri, line)

	if len(scenario.Examples) == 0 {
		test := testapi.NewTest(id, label(scenario.Name, scenario.Keyword))
		test.File = file
		test.Line = testapi.ZeroBased(line)
		return test
	}

	outline := testapi.NewSuite(id, label(scenario.Name, scenario.Keyword))
	outline.File = file
	outline.Line = testapi.ZeroBased(line)

	seen := map[string]int{}
	for _, examples := range scenario.Examples {
		if examples == nil || examples.TableHeader == nil {
			continue
		}
		for _, row := range examples.TableBody {
			rowID := id + exampleArguments(examples.TableHeader, row)
			seen[rowID]++
			if n := seen[rowID]; n > 1 {
				rowID = fmt.Sprintf("%s#%d", rowID, n)
			}

			test := testapi.NewTest(rowID, rowLabel(row))
			test.File = file
			test.Line = testapi.ZeroBased(sourceLine(row.Location))
			outline.Children = append(outline.Children, test)
		}
	}
	return outline
}

// exampleArguments encodes a row as a JSON object from header to value. Keys
// come out sorted, so equal rows always give equal ids.
func exampleArguments(header, row *messages.TableRow) string {
	args := make(map[string]string, len(header.Cells))
	for i, cell := range header.Cells {
		if cell == nil {
			continue
		}
		value := ""
		if i < len(row.Cells) && row.Cells[i] != nil {
			value = row.Cells[i].Value
		}
		args[cell.Value] = value
	}

	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func rowLabel(row *messages.TableRow) string {
	values := make([]string, 0, len(row.Cells))
	for _, cell := range row.Cells {
		if cell != nil {
			values = append(values, cell.Value)
		}
	}
	return "| " + strings.Join(values, " | ") + " |"
}

func nodeID(uri string, line int) string {
	return fmt.Sprintf("%s:%d", uri, line)
}

func label(name, fallback string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return strings.TrimSpace(fallback)
}

func sourceLine(location *messages.Location) int {
	if location == nil {
		return 0
	}
	return int(location.Line)
}
