package cli

import (
	"github.com/spf13/cobra"

	cucumber "github.com/Code-Grump/vscode-cucumber-test-adapter"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/worker"
)

// newWorkerCmds returns the hidden commands adapters spawn. Their arguments
// are passed through untouched.
func newWorkerCmds(catalog cucumber.Catalog) []*cobra.Command {
	workerCmd := func(name string) *cobra.Command {
		return &cobra.Command{
			Use:                name,
			Hidden:             true,
			DisableFlagParsing: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return worker.Run(cmd.Context(), name, args, catalog, cmd.OutOrStdout())
			},
		}
	}
	return []*cobra.Command{
		workerCmd(worker.CommandDiscover),
		workerCmd(worker.CommandRun),
	}
}
