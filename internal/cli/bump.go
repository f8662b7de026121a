package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBumpCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "bump",
		Short: "Move the version to the next prerelease version",
		Long: `Bump the version in package.json to the next prerelease version.

The base version is incremented by --bump-type and labelled with the
prerelease label, e.g. 1.2.3 -> 1.3.0-prerelease for a minor bump. bump
runs on any branch and does not need a GitHub token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := app.newOrchestrator(nil)
			if err != nil {
				return app.fail(cmd, err)
			}

			v, err := o.Bump(cmd.Context())
			if err != nil {
				return app.fail(cmd, err)
			}
			app.Printer.Success(fmt.Sprintf("version bumped to %s", v))
			return nil
		},
	}
}
