package worker

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Code-Grump/vscode-cucumber-test-adapter/runner"
)

func TestArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"discover", "en", "true", "features/**/*.feature"},
		DiscoverArgs("en", true, []string{"features/**/*.feature"}))

	assert.Equal(t,
		[]string{"run-worker", "{}", "false", "a.feature:3", "b.feature"},
		RunArgs("{}", false, []string{"a.feature:3", "b.feature"}))

	assert.Equal(t, []string{"run-worker", "{}", "false"}, RunArgs("{}", false, nil))
}

func TestRunDispatch(t *testing.T) {
	t.Setenv("CUCUMBER_EXPLORER_IPC_FD", "")

	err := Run(context.Background(), "explode", nil, nil, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "explode")

	err = Run(context.Background(), CommandRun, []string{"{}"}, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, runner.ErrUsage)
}

func TestMainExitCodes(t *testing.T) {
	t.Setenv("CUCUMBER_EXPLORER_IPC_FD", "")

	assert.Equal(t, 2, Main(nil, nil))
	assert.Equal(t, 1, Main([]string{CommandDiscover}, nil))
	assert.Equal(t, 0, Main([]string{CommandDiscover, "en", "false", t.TempDir()}, nil))
}
