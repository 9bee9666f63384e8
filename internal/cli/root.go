package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"maturity/internal/config"
	"maturity/internal/product"
)

// NewRootCommand creates the root command with every subcommand attached.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "maturity",
		Short: "Track products through the V1-V5 maturity pipeline",
		Long: `maturity shows where each product sits in the V1-V5 maturity pipeline,
which criteria gate its next stage and how ready it is to move on.

Products are read from the maturity API (remote.base_url) or from a local
YAML file (remote.store_file). Stage moves that skip unmet criteria must be
forced explicitly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("format", "o", app.Config.Output.Format,
		"output format: board, table, json or yaml")

	rootCmd.AddCommand(
		newListCommand(app),
		newBoardCommand(app),
		newShowCommand(app),
		newProjectsCommand(app),
		newStatsCommand(app),
		newRoadmapCommand(app),
		newExplainCommand(app),
		newAdvanceCommand(app),
		newRevertCommand(app),
		newMoveCommand(app),
		newObserveCommand(app),
		newCreateCommand(app),
		newWatchCommand(app),
		newSchemaCommand(app),
		newCriteriaCommand(app),
		newConfigCommand(app),
	)

	return rootCmd
}

// errUnknownFormat rejects a --format value outside [formats].
var errUnknownFormat = errors.New("unknown output format")

var formats = []string{config.FormatBoard, config.FormatTable, config.FormatJSON, config.FormatYAML}

// outputFormat returns the validated --format value.
func outputFormat(cmd *cobra.Command) (string, error) {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return "", err
	}
	if !slices.Contains(formats, format) {
		return "", fmt.Errorf("%w %q", errUnknownFormat, format)
	}
	return format, nil
}

// emit writes v as JSON or YAML and reports whether format was one of them.
func (a *App) emit(format string, v any) (bool, error) {
	switch format {
	case config.FormatJSON:
		return true, a.Printer.JSON(v)
	case config.FormatYAML:
		return true, a.Printer.YAML(v)
	}
	return false, nil
}

// selectProducts applies the --filter and --project flags to the cache.
func selectProducts(cmd *cobra.Command, app *App) []product.Product {
	filter, _ := cmd.Flags().GetString("filter")
	project, _ := cmd.Flags().GetString("project")
	return product.ByProject(product.Filter(app.Store.Products(), filter), project)
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().String("filter", product.FilterAll, "all, ready, blocked, in-progress or a stage (V1..V5)")
	cmd.Flags().String("project", "", "only products with this name")
}
