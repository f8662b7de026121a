package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"relflow/internal/output"
)

func newReleaseCommand(app *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "release",
		Short: "Run the release runbook",
		Long: `Run the enabled release steps in order:
  check-host-status, ensure-clean, checkout-develop, pull-develop,
  checkout-master, pull-master, merge-develop, strip-prerelease-version
and, when enabled by release.steps or a runbook:
  commit-release-changes, create-new-tag, push-master, publish-release,
  checkout-develop, bump-develop, commit-bump-changes, push-develop

A GitHub token is required before any step runs. The first failing step
stops the release; nothing is rolled back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var results []output.StepResult
			o, err := app.newOrchestrator(&results)
			if err != nil {
				return app.fail(cmd, err)
			}

			if dryRun {
				steps, err := o.Plan()
				if err != nil {
					return app.fail(cmd, err)
				}
				app.Printer.Info("Dry run: %d steps would run", len(steps))
				for i, s := range steps {
					app.Printer.Info("  %2d. %-26s %s", i+1, s.Name, s.Description)
				}
				return nil
			}

			app.Printer.RunHeader(fmt.Sprintf("relflow release (%s bump)", o.Config().BumpType), o.Config().Steps)
			err = o.Release(cmd.Context(), func(err error) {
				if len(results) > 0 {
					app.Printer.Summary(results)
				}
				if err != nil {
					app.Printer.Error(err)
					return
				}
				app.Printer.Success(output.SuccessBanner)
			})
			if err != nil {
				cmd.SilenceUsage = true
				return NewExitError(1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the steps without running them")
	return cmd
}
