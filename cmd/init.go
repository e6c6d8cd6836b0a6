package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kayz/facet/internal/config"
	"github.com/kayz/facet/internal/facet"
	"github.com/spf13/cobra"
)

func newInitCommand(root *rootOptions) *cobra.Command {
	var (
		facetRoot string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config and create the facet directories",
		Long: `Write a default config (to --config, or .facet.yaml next to the
executable) and create one directory per facet kind under the facet root.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := root.configPath
			if path == "" {
				path = config.ConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config %s already exists (use --force to overwrite)", path)
			}

			cfg := config.DefaultConfig()
			if facetRoot != "" {
				abs, err := filepath.Abs(facetRoot)
				if err != nil {
					return fmt.Errorf("resolve facet root: %w", err)
				}
				cfg.Facets.Roots = []string{abs}
			}

			for _, kind := range facet.Kinds() {
				for _, dir := range cfg.CandidateDirs(kind) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						return fmt.Errorf("create %s: %w", dir, err)
					}
				}
			}

			var err error
			if root.configPath != "" {
				err = cfg.SaveTo(path)
			} else {
				err = cfg.Save()
			}
			if err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return err
		},
	}

	cmd.Flags().StringVar(&facetRoot, "root", "", "Facet root directory (default: .facet)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	return cmd
}
