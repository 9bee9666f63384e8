package cli

import (
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"maturity/internal/product"
)

var schemaTargets = map[string]any{
	"record": &product.Record{},
	"new":    &product.NewProduct{},
}

func newSchemaCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "schema [record|new]",
		Short: "Print the JSON Schema of a product record",
		Long: `Print the JSON Schema of the product record returned by the maturity API
("record", the default) or of the product creation payload ("new").`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"record", "new"},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "record"
			if len(args) == 1 {
				name = args[0]
			}
			target, ok := schemaTargets[name]
			if !ok {
				app.Printer.Error(fmt.Errorf("unknown schema %q (want record or new)", name))
				return NewExitError(ExitInvalid)
			}
			return app.Printer.JSON(reflectSchema(target))
		},
	}
}

func reflectSchema(v any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	return reflector.Reflect(v)
}
