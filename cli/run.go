package cli

import (
	"github.com/spf13/cobra"
)

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run [test id...]",
		Short: "Run tests, every test when no id is given",
		Long: `Run the scenarios with the given ids, as printed by list. A feature,
rule or scenario outline id runs every scenario below it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			printer := newStatePrinter(cmd.OutOrStdout())
			s.hub.OnState(printer.handle)

			for _, a := range s.hub.Adapters() {
				if err := a.Run(cmd.Context(), args); err != nil {
					return err
				}
			}

			printer.renderSummary()
			if printer.failed() {
				return ErrTestsFailed
			}
			return nil
		},
	}
}
