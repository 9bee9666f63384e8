package cli

import (
	"github.com/spf13/cobra"

	"maturity/internal/config"
)

func newCriteriaCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "criteria",
		Short: "List the criteria gating each stage transition",
		Long: `List every row of the active criteria table in order: the built-in
table, or the CSV file named by criteria.manifest_path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return app.fail(err)
			}
			rows := app.table().Criteria()
			if ok, err := app.emit(format, rows); ok {
				return err
			}
			app.Printer.Criteria(rows)
			return nil
		},
	}
}

func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(app))
	return cmd
}

func newConfigInitCommand(app *App) *cobra.Command {
	var (
		path  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Long: `Write the default settings as YAML. Without --path the file goes to the
user config directory, where it is picked up automatically.

Example:
  maturity config init
  maturity config init --path ./config.yaml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := config.WriteDefault(path, force)
			if err != nil {
				return app.fail(err)
			}
			app.Printer.Success("wrote %s", written)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "file to write (default: user config directory)")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing file")
	return cmd
}
