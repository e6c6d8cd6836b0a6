package cmd

import (
	"context"

	"github.com/kayz/facet/internal/config"
	"github.com/kayz/facet/internal/engine"
	"github.com/kayz/facet/internal/logger"
)

// openEngine chains one file engine per configured root, followed by the
// SQLite store when one is configured. The returned func releases the store.
// With neither configured it returns engine.ErrNoEngines.
func openEngine(ctx context.Context, cfg *config.Config) (engine.DataEngine, func(), error) {
	var (
		engines []engine.DataEngine
		store   *engine.SQLiteEngine
	)
	for _, root := range cfg.Facets.Roots {
		fe := engine.NewFileEngine(root)
		logger.Debug("Facet root: %s", fe.Root())
		engines = append(engines, fe)
	}
	if p := cfg.Store.SQLitePath; p != "" {
		s, err := engine.OpenSQLite(ctx, p)
		if err != nil {
			return nil, nil, err
		}
		store = s
		engines = append(engines, store)
	}

	release := func() {
		if store != nil {
			if err := store.Close(); err != nil {
				logger.Warn("Close facet store: %v", err)
			}
		}
	}

	composite, err := engine.NewComposite(engines...)
	if err != nil {
		release()
		return nil, nil, err
	}
	logger.Debug("Facet engines: %d file roots, sqlite=%t", len(cfg.Facets.Roots), store != nil)
	return composite, release, nil
}
