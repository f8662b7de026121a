package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"relflow/internal/config"
)

func newStepCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "step <name>",
		Short:     "Run a single release step",
		Long:      `Run one registered step by name, whether or not it is enabled. Run "relflow steps" for the list.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.StepNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := app.newOrchestrator(nil)
			if err != nil {
				return app.fail(cmd, err)
			}
			if err := o.RunStep(cmd.Context(), args[0]); err != nil {
				return app.fail(cmd, err)
			}
			app.Printer.Success(args[0] + " finished")
			return nil
		},
	}
}

// stepInfo is one row of the steps listing.
type stepInfo struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Enabled     bool   `yaml:"enabled"`
}

func newStepsCommand(app *App) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "steps",
		Short: "List the release steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := app.newOrchestrator(nil)
			if err != nil {
				return app.fail(cmd, err)
			}

			enabled := make(map[string]bool)
			for _, name := range o.Config().Steps {
				enabled[name] = true
			}

			var infos []stepInfo
			for _, name := range o.Registry().Names() {
				s, _ := o.Registry().Lookup(name)
				infos = append(infos, stepInfo{Name: name, Description: s.Description, Enabled: enabled[name]})
			}

			if asYAML {
				enc := yaml.NewEncoder(app.Printer.Writer())
				enc.SetIndent(2)
				if err := enc.Encode(infos); err != nil {
					return app.fail(cmd, err)
				}
				return enc.Close()
			}

			for _, info := range infos {
				mark := " "
				if info.Enabled {
					mark = "*"
				}
				app.Printer.Info("%s %-26s %s", mark, info.Name, info.Description)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the steps as YAML")
	return cmd
}
