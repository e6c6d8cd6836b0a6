package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/kayz/facet/internal/render"
	"github.com/spf13/cobra"
)

func newRenderCommand() *cobra.Command {
	var vars []string

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a template file with variables",
		Long: `Render {{#if name}}...{{/if}} blocks and {{name}} placeholders.

Use "-" to read the template from stdin. Unset variables render as empty.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := render.ParseVars(vars)
			if err != nil {
				return err
			}

			var data []byte
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read template: %w", err)
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), render.RenderTemplate(string(data), parsed))
			return err
		},
	}

	cmd.Flags().StringArrayVar(&vars, "var", nil, "Template variable key=value (repeatable)")
	return cmd
}
