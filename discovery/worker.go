package discovery

import (
	"context"
	"errors"
	"os"

	"github.com/Code-Grump/vscode-cucumber-test-adapter/ipc"
)

var ErrUsage = errors.New("usage: discover <language> <logEnabled> [featurePath...]")

// Main is the discovery worker. args are the default feature language, the
// logging flag and the feature path patterns; suites and diagnostics go to
// sender. The returned error makes the process exit non-zero.
func Main(ctx context.Context, args []string, sender *ipc.Sender) error {
	if len(args) < 2 {
		return ErrUsage
	}

	language := args[0]
	logEnabled := args[1] == "true"
	patterns := args[2:]

	cwd, err := os.Getwd()
	if err == nil {
		err = Discover(ctx, cwd, language, patterns, sender.SendSuite)
	}

	if err != nil && logEnabled {
		_ = sender.Log("Error during feature discovery: %v", err)
	}
	return err
}
