package cucumber

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	ErrUnknownModule = errors.New("unknown support code module")
	ErrFinalized     = errors.New("support code library already finalized")
)

// StepHandler runs a step with the captures of its pattern.
type StepHandler func(TestCase, ...string) error

// HookHandler runs before or after each test case.
type HookHandler func(TestCase) error

type StepDefinition struct {
	Pattern string
	Handler StepHandler
}

// IsRegularExpression reports whether the pattern is matched as a regular
// expression rather than a cucumber expression.
func (sd StepDefinition) IsRegularExpression() bool {
	return strings.HasPrefix(sd.Pattern, "^") || strings.HasSuffix(sd.Pattern, "$")
}

// SupportCodeBuilder collects step and hook definitions registered by support
// modules. It is scoped to one working directory and sealed by Finalize.
type SupportCodeBuilder struct {
	cwd       string
	steps     []StepDefinition
	before    []HookHandler
	after     []HookHandler
	finalized bool
}

func NewSupportCodeBuilder(cwd string) *SupportCodeBuilder {
	b := &SupportCodeBuilder{}
	b.Reset(cwd)
	return b
}

// Reset drops every collected definition and rescopes the builder.
func (b *SupportCodeBuilder) Reset(cwd string) {
	b.cwd = cwd
	b.steps = nil
	b.before = nil
	b.after = nil
	b.finalized = false
}

func (b *SupportCodeBuilder) Cwd() string {
	return b.cwd
}

func (b *SupportCodeBuilder) DefineStep(pattern string, fn StepHandler) {
	b.steps = append(b.steps, StepDefinition{
		Pattern: pattern,
		Handler: fn,
	})
}

func (b *SupportCodeBuilder) Before(fn HookHandler) {
	b.before = append(b.before, fn)
}

func (b *SupportCodeBuilder) After(fn HookHandler) {
	b.after = append(b.after, fn)
}

// Finalize validates the collected definitions and returns them as an
// immutable library.
func (b *SupportCodeBuilder) Finalize() (*SupportCodeLibrary, error) {
	if b.finalized {
		return nil, ErrFinalized
	}

	for _, sd := range b.steps {
		if sd.Handler == nil {
			return nil, fmt.Errorf("step %q has no handler", sd.Pattern)
		}
		if sd.IsRegularExpression() {
			if _, err := regexp.Compile(sd.Pattern); err != nil {
				return nil, fmt.Errorf("step %q: %w", sd.Pattern, err)
			}
		}
	}

	b.finalized = true

	return &SupportCodeLibrary{
		cwd:    b.cwd,
		steps:  append([]StepDefinition(nil), b.steps...),
		before: append([]HookHandler(nil), b.before...),
		after:  append([]HookHandler(nil), b.after...),
	}, nil
}

type SupportCodeLibrary struct {
	cwd    string
	steps  []StepDefinition
	before []HookHandler
	after  []HookHandler
}

func (l *SupportCodeLibrary) Cwd() string {
	return l.cwd
}

func (l *SupportCodeLibrary) StepDefinitions() []StepDefinition {
	return append([]StepDefinition(nil), l.steps...)
}

func (l *SupportCodeLibrary) stepDefinition(i int) (StepDefinition, bool) {
	if i < 0 || i >= len(l.steps) {
		return StepDefinition{}, false
	}
	return l.steps[i], true
}

// SupportModule is a unit of support code compiled into the explorer binary.
// Path is the slash separated location the module is selected by, relative to
// the working directory, e.g. "features/support/steps.go".
type SupportModule struct {
	Name     string
	Path     string
	Register func(*SupportCodeBuilder) error
}

// Catalog lists the support modules available to the runner worker.
type Catalog []SupportModule

// Load registers the modules named in required, then every module whose path
// matches one of paths. With neither given every module is registered.
func (c Catalog) Load(b *SupportCodeBuilder, required, paths []string) error {
	loaded := make(map[int]bool, len(c))

	load := func(i int) error {
		if loaded[i] {
			return nil
		}
		loaded[i] = true
		if c[i].Register == nil {
			return nil
		}
		if err := c[i].Register(b); err != nil {
			return fmt.Errorf("load support module %s: %w", c[i].Name, err)
		}
		return nil
	}

	if len(required) == 0 && len(paths) == 0 {
		for i := range c {
			if err := load(i); err != nil {
				return err
			}
		}
		return nil
	}

	for _, name := range required {
		i := c.indexOf(name)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownModule, name)
		}
		if err := load(i); err != nil {
			return err
		}
	}

	for _, p := range paths {
		pattern := relativeTo(b.Cwd(), p)
		for i, m := range c {
			if !matchModulePath(pattern, m.Path) {
				continue
			}
			if err := load(i); err != nil {
				return err
			}
		}
	}

	return nil
}

func (c Catalog) indexOf(name string) int {
	for i, m := range c {
		if m.Name == name {
			return i
		}
	}
	return -1
}

func relativeTo(cwd, p string) string {
	if filepath.IsAbs(p) && cwd != "" {
		if rel, err := filepath.Rel(cwd, p); err == nil {
			p = rel
		}
	}
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(p)), "./")
}

func matchModulePath(pattern, modulePath string) bool {
	if modulePath == "" {
		return false
	}
	if pattern == "." || pattern == modulePath {
		return true
	}
	if strings.HasPrefix(modulePath, strings.TrimSuffix(pattern, "/")+"/") {
		return true
	}
	ok, err := filepath.Match(pattern, modulePath)
	return err == nil && ok
}
