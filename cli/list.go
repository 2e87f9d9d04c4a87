package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Code-Grump/vscode-cucumber-test-adapter/testapi"
)

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the test tree of every workspace folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			adapters := s.hub.Adapters()
			for _, a := range adapters {
				if err := a.Load(cmd.Context()); err != nil {
					return err
				}

				if len(adapters) > 1 {
					if w, ok := a.(interface{ Workspace() testapi.WorkspaceFolder }); ok {
						fmt.Fprintf(out, "%s\n", w.Workspace().Path)
					}
				}

				loaded, _ := s.hub.Loaded(a)
				if loaded.Suite == nil {
					fmt.Fprintln(out, "No features found")
					continue
				}
				renderTree(out, loaded.Suite)
			}
			return nil
		},
	}
}
