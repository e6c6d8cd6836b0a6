package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kayz/facet/internal/compose"
	"github.com/kayz/facet/internal/config"
	"github.com/kayz/facet/internal/facet"
	"github.com/kayz/facet/internal/resolve"
	"github.com/spf13/cobra"
)

func newResolveCommand(root *rootOptions) *cobra.Command {
	var kindName string

	cmd := &cobra.Command{
		Use:   "resolve <ref>...",
		Short: "Print the content a facet ref resolves to",
		Long: `Print the content each ref resolves to, separated by "---".

Bare names are looked up in the configured roots (only under --kind when
given), resource paths are read relative to the base dir, and anything else
is echoed as inline text.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}
			dirs, err := resolveDirs(cfg, kindName)
			if err != nil {
				return err
			}
			baseDir, err := filepath.Abs(cfg.Facets.BaseDir)
			if err != nil {
				return fmt.Errorf("resolve base dir: %w", err)
			}

			contents, err := resolve.ResolveRefList(args, nil, baseDir, dirs)
			if err != nil {
				return err
			}
			if contents == nil {
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(contents, compose.BodySeparator))
			return err
		},
	}

	cmd.Flags().StringVar(&kindName, "kind", "", "Restrict name lookup to one facet kind")
	return cmd
}

// resolveDirs returns the candidate dirs for one kind, or for every kind in
// declaration order when kindName is empty.
func resolveDirs(cfg *config.Config, kindName string) ([]string, error) {
	if kindName != "" {
		kind, err := facet.ParseKind(kindName)
		if err != nil {
			return nil, err
		}
		return cfg.CandidateDirs(kind), nil
	}
	var dirs []string
	for _, kind := range facet.Kinds() {
		dirs = append(dirs, cfg.CandidateDirs(kind)...)
	}
	return dirs, nil
}
