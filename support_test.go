package cucumber

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(TestCase, ...string) error { return nil }

func TestStepDefinitionPatternType(t *testing.T) {
	assert.True(t, StepDefinition{Pattern: `^a (\d+)$`}.IsRegularExpression())
	assert.True(t, StepDefinition{Pattern: `a (\d+)$`}.IsRegularExpression())
	assert.False(t, StepDefinition{Pattern: `a {int}`}.IsRegularExpression())
}

func TestSupportCodeBuilderFinalize(t *testing.T) {
	b := NewSupportCodeBuilder("/work")
	b.DefineStep(`^a step$`, noop)
	b.Before(func(TestCase) error { return nil })

	l, err := b.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "/work", l.Cwd())
	assert.Len(t, l.StepDefinitions(), 1)

	_, ok := l.stepDefinition(1)
	assert.False(t, ok)

	_, err = b.Finalize()
	assert.ErrorIs(t, err, ErrFinalized)

	b.Reset("/other")
	l, err = b.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "/other", l.Cwd())
	assert.Empty(t, l.StepDefinitions())
}

func TestSupportCodeBuilderRejectsInvalidDefinitions(t *testing.T) {
	b := NewSupportCodeBuilder(".")
	b.DefineStep(`^unbalanced ($`, noop)
	_, err := b.Finalize()
	assert.Error(t, err)

	b.Reset(".")
	b.DefineStep(`a step`, nil)
	_, err = b.Finalize()
	assert.Error(t, err)
}

func catalog(loaded *[]string) Catalog {
	module := func(name, path string) SupportModule {
		return SupportModule{
			Name: name,
			Path: path,
			Register: func(b *SupportCodeBuilder) error {
				*loaded = append(*loaded, name)
				return nil
			},
		}
	}
	return Catalog{
		module("steps", "features/support/steps.go"),
		module("hooks", "features/support/hooks.go"),
		module("api", "features/api/steps.go"),
		module("fixtures", ""),
	}
}

func TestCatalogLoad(t *testing.T) {
	cases := []struct {
		name     string
		required []string
		paths    []string
		want     []string
	}{
		{"everything by default", nil, nil, []string{"steps", "hooks", "api", "fixtures"}},
		{"required by name", []string{"fixtures", "steps"}, nil, []string{"fixtures", "steps"}},
		{"directory prefix", nil, []string{"features/support"}, []string{"steps", "hooks"}},
		{"glob", nil, []string{"features/*/steps.go"}, []string{"steps", "api"}},
		{"absolute path", nil, []string{"/work/features/api/steps.go"}, []string{"api"}},
		{"loaded once", []string{"api"}, []string{"features"}, []string{"api", "steps", "hooks"}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var loaded []string
			err := catalog(&loaded).Load(NewSupportCodeBuilder("/work"), c.required, c.paths)
			require.NoError(t, err)
			assert.Equal(t, c.want, loaded)
		})
	}
}

func TestCatalogLoadErrors(t *testing.T) {
	var loaded []string
	err := catalog(&loaded).Load(NewSupportCodeBuilder("/work"), []string{"missing"}, nil)
	assert.ErrorIs(t, err, ErrUnknownModule)

	boom := errors.New("boom")
	failing := Catalog{{Name: "broken", Register: func(*SupportCodeBuilder) error { return boom }}}
	err = failing.Load(NewSupportCodeBuilder("/work"), nil, nil)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
}
