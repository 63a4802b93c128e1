package cli

import (
	"fmt"

	"github.com/joacominatel/devintest/internal/app"
	"github.com/joacominatel/devintest/internal/tui"
	"github.com/joacominatel/devintest/internal/tui/theme"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var useTUI bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo: connect, create, seed, update, delete",
		Long: `Run the demo sequence against the configured database. Steps run in order
and the sequence stops at the first failure. With --strict an update or delete
that matches no row counts as a failure.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := envFrom(cmd)
			if err != nil {
				return err
			}
			steps := app.DemoSteps(e.svc)

			if useTUI {
				results, err := tui.Run(cmd.Context(), steps, e.desc, e.settings.Strict)
				e.log.Info().Int("steps", len(results)).Err(err).Msg("run finished")
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, theme.StyleTitle.Render("devin_test demo run")+" "+
				theme.StyleMuted.Render(e.desc.DisplayString()))

			results, err := app.RunSteps(cmd.Context(), steps, func(r app.StepResult) {
				renderStep(out, r)
			})
			e.log.Info().Int("steps", len(results)).Err(err).Msg("run finished")
			return err
		},
	}
	cmd.Flags().BoolVar(&useTUI, "tui", false, "show the interactive run view")
	return cmd
}
