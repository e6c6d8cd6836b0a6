package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/kayz/facet/internal/engine"
	"github.com/kayz/facet/internal/facet"
	"github.com/kayz/facet/internal/logger"
	"github.com/spf13/cobra"
)

func newImportCommand(root *rootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import <kind> <key> <file>",
		Short: "Store a facet file in the SQLite store",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := facet.ParseKind(args[0])
			if err != nil {
				return err
			}
			key := strings.TrimSpace(args[1])
			if key == "" || strings.ContainsAny(key, `/\`) {
				return fmt.Errorf("invalid facet key %q", args[1])
			}

			if dbPath == "" {
				cfg, err := root.config()
				if err != nil {
					return err
				}
				dbPath = cfg.Store.SQLitePath
			}
			if dbPath == "" {
				return fmt.Errorf("no SQLite store configured: set store.sqlite_path or pass --db")
			}

			body, err := os.ReadFile(args[2])
			if err != nil {
				return fmt.Errorf("read facet file: %w", err)
			}

			store, err := engine.OpenSQLite(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Put(cmd.Context(), kind, key, string(body)); err != nil {
				return err
			}
			logger.Debug("Imported %s (%d bytes) into %s", args[2], len(body), dbPath)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %s/%s into %s\n", kind, key, dbPath)
			return err
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (default: store.sqlite_path from config)")
	return cmd
}
