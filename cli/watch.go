package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Code-Grump/vscode-cucumber-test-adapter/testapi"
)

// watcher is implemented by adapters that can report feature file changes.
type watcher interface {
	Watch(ctx context.Context) error
}

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run every test, then again whenever a feature file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			changed := make(chan testapi.TestAdapter, 2*len(s.hub.Adapters()))

			for _, a := range s.hub.Adapters() {
				a.Autorun(func() {
					select {
					case changed <- a:
					default:
					}
				})
				if w, ok := a.(watcher); ok {
					if err := w.Watch(ctx); err != nil {
						return err
					}
				}
				changed <- a
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case a := <-changed:
					printer := newStatePrinter(out)
					s.hub.OnState(printer.handle)
					if err := a.Run(ctx, nil); err != nil {
						s.log.Error(err, "Test run failed")
					}
					printer.renderSummary()
					fmt.Fprintln(out, "Waiting for changes...")
				}
			}
		},
	}
}
