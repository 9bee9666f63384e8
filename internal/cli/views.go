package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"maturity/internal/config"
	"maturity/internal/product"
	"maturity/internal/session"
	"maturity/internal/stage"
)

func newListCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return app.fail(err)
			}
			if err := app.load(cmd.Context()); err != nil {
				return err
			}
			products := selectProducts(cmd, app)
			if ok, err := app.emit(format, products); ok {
				return err
			}
			app.Printer.Table(products)
			return nil
		},
	}
	addSelectionFlags(cmd)
	return cmd
}

func newBoardCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show products grouped by stage",
		Long: `Show one column per maturity stage with a card for each product.

Example:
  maturity board --filter ready
  maturity board --project Kenna -o table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return app.fail(err)
			}
			if err := app.load(cmd.Context()); err != nil {
				return err
			}
			products := selectProducts(cmd, app)
			if ok, err := app.emit(format, product.ByStage(products)); ok {
				return err
			}
			if format == config.FormatTable {
				app.Printer.Table(products)
				return nil
			}
			app.Printer.Board(products)
			return nil
		},
	}
	addSelectionFlags(cmd)
	return cmd
}

func newShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a product and the criteria for its next stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return app.fail(err)
			}
			if err := app.load(cmd.Context()); err != nil {
				return err
			}
			item, err := app.find(args[0])
			if err != nil {
				return err
			}
			if ok, err := app.emit(format, item); ok {
				return err
			}
			app.Printer.ProductDetails(item, app.table())
			prev, next := neighbours(app.Store.Products(), item.ID)
			if prev != "" || next != "" {
				app.Printer.Text("")
				app.Printer.Text(fmt.Sprintf("Previous: %s  Next: %s", orNone(prev), orNone(next)))
			}
			return nil
		},
	}
}

// neighbours returns the ids before and after id in list order.
func neighbours(products []product.Product, id string) (prev, next string) {
	for i, p := range products {
		if p.ID != id {
			continue
		}
		if i > 0 {
			prev = products[i-1].ID
		}
		if i < len(products)-1 {
			next = products[i+1].ID
		}
		return prev, next
	}
	return "", ""
}

func orNone(id string) string {
	if id == "" {
		return "-"
	}
	return id
}

func newProjectsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List distinct project names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return app.fail(err)
			}
			if err := app.load(cmd.Context()); err != nil {
				return err
			}
			names := app.Store.ProjectNames()
			if ok, err := app.emit(format, names); ok {
				return err
			}
			app.Printer.Projects(names)
			return nil
		},
	}
}

func newStatsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return app.fail(err)
			}
			if err := app.load(cmd.Context()); err != nil {
				return err
			}
			stats := product.Summarize(selectProducts(cmd, app))
			if ok, err := app.emit(format, stats); ok {
				return err
			}
			app.Printer.Stats(stats)
			return nil
		},
	}
	addSelectionFlags(cmd)
	return cmd
}

func newRoadmapCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "roadmap <id>",
		Short: "Show every remaining transition for a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return app.fail(err)
			}
			if err := app.load(cmd.Context()); err != nil {
				return err
			}
			item, err := app.find(args[0])
			if err != nil {
				return err
			}
			steps := app.table().Roadmap(item.Stage)
			if ok, err := app.emit(format, steps); ok {
				return err
			}
			app.Printer.Roadmap(item, steps, app.table())
			return nil
		},
	}
}

func newExplainCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <stage>",
		Short: "Describe what leaving a stage requires",
		Long: `Describe the criteria gating the transition out of a stage.

Example:
  maturity explain V2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := stage.Parse(args[0], stage.Strict)
			if err != nil {
				return app.fail(err)
			}
			app.Printer.Text(app.table().Describe(s))
			for _, k := range app.table().Required(s) {
				app.Printer.Text(fmt.Sprintf("  - %s (%s)", app.table().Label(k), k))
			}
			return nil
		},
	}
}

// find looks id up in the cache.
func (a *App) find(id string) (product.Product, error) {
	item, ok := a.Store.Product(id)
	if !ok {
		return product.Product{}, a.fail(fmt.Errorf("%w: %s", session.ErrProductNotFound, id))
	}
	return item, nil
}
