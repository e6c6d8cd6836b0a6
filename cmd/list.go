package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kayz/facet/internal/facet"
	"github.com/spf13/cobra"
)

func newListCommand(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List facet names of a kind",
		Long: fmt.Sprintf(`List facet names of a kind across all configured engines.

Kinds: %s`, kindNames()),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := facet.ParseKind(args[0])
			if err != nil {
				return err
			}
			cfg, err := root.config()
			if err != nil {
				return err
			}
			eng, release, err := openEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer release()

			keys, err := eng.List(cmd.Context(), kind)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(keys, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}
			for _, key := range keys {
				if _, err := fmt.Fprintln(out, key); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render output as JSON")
	return cmd
}

func kindNames() string {
	kinds := facet.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
