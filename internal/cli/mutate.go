package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"maturity/internal/product"
	"maturity/internal/session"
	"maturity/internal/stage"
)

func newAdvanceCommand(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "advance <id>",
		Short: "Move a product to its next stage",
		Long: `Move a product to its next stage.

The move is refused while any criterion for the next stage is unmet. Use
--force to move anyway; forced moves are logged.

Example:
  maturity advance kenna
  maturity advance kenna --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.load(ctx); err != nil {
				return err
			}
			if err := app.Store.Advance(ctx, args[0], force); err != nil {
				return app.stageFailure(err)
			}
			app.reportStage(args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "move even if criteria are not met")
	return cmd
}

func newRevertCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "revert <id>",
		Short: "Move a product back to its previous stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.load(ctx); err != nil {
				return err
			}
			if err := app.Store.Revert(ctx, args[0]); err != nil {
				return app.fail(err)
			}
			app.reportStage(args[0])
			return nil
		},
	}
}

func newMoveCommand(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "move <id> <stage>",
		Short: "Move a product to an adjacent stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := stage.Parse(args[1], stage.Strict)
			if err != nil {
				return app.fail(err)
			}
			ctx := cmd.Context()
			if err := app.load(ctx); err != nil {
				return err
			}
			if err := app.Store.ChangeStage(ctx, args[0], to, force); err != nil {
				return app.stageFailure(err)
			}
			app.reportStage(args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "move even if criteria are not met")
	return cmd
}

// stageFailure prints err with a hint when the move was blocked.
func (a *App) stageFailure(err error) error {
	exitErr := a.fail(err)
	if errors.Is(err, session.ErrBlocked) {
		a.Printer.Warning("use --force to move anyway")
	}
	return exitErr
}

func (a *App) reportStage(id string) {
	item, ok := a.Store.Product(id)
	if !ok {
		a.Printer.Success("moved %s", id)
		return
	}
	a.Printer.Success("%s is now at %s %s", id, item.Stage, item.Stage.Label())
}

func newObserveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "observe <id> <text...>",
		Short: "Replace the observations of a product",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			if err := app.Store.UpdateObservations(cmd.Context(), args[0], text); err != nil {
				return app.fail(err)
			}
			app.Printer.Success("updated observations of %s", args[0])
			return nil
		},
	}
}

func newCreateCommand(app *App) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <id> <name...>",
		Short: "Create a product at V1",
		Long: `Create a product. The id must be lowercase letters and digits only.

Example:
  maturity create chorus Chorus --description "Meeting notes assistant"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			np := product.NewProduct{
				ID:          args[0],
				Name:        strings.Join(args[1:], " "),
				Description: description,
			}
			if err := app.Store.CreateProduct(cmd.Context(), np); err != nil {
				return app.fail(err)
			}
			app.Printer.Success("created %s", strings.TrimSpace(np.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "product description")
	return cmd
}
