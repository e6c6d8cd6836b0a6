package engine

import (
	"context"
	"errors"

	"github.com/kayz/facet/internal/facet"
	"golang.org/x/sync/errgroup"
)

// ErrNoEngines is returned when a Composite is built without engines. An empty
// chain can never resolve anything, so this is a setup mistake.
var ErrNoEngines = errors.New("composite engine requires at least one engine")

// Composite chains engines. The first engine that has a facet wins.
type Composite struct {
	engines []DataEngine
}

// NewComposite builds a chain in priority order.
func NewComposite(engines ...DataEngine) (*Composite, error) {
	if len(engines) == 0 {
		return nil, ErrNoEngines
	}
	return &Composite{engines: engines}, nil
}

func (c *Composite) Resolve(ctx context.Context, kind facet.Kind, key string) (*facet.Content, error) {
	for _, e := range c.engines {
		content, err := e.Resolve(ctx, kind, key)
		if err != nil {
			return nil, err
		}
		if content != nil {
			return content, nil
		}
	}
	return nil, nil
}

// List returns the union of keys across engines. Keys keep the position of
// their first occurrence in engine order.
func (c *Composite) List(ctx context.Context, kind facet.Kind) ([]string, error) {
	results := make([][]string, len(c.engines))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range c.engines {
		i, e := i, e
		g.Go(func() error {
			keys, err := e.List(gctx, kind)
			if err != nil {
				return err
			}
			results[i] = keys
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	merged := []string{}
	for _, keys := range results {
		for _, key := range keys {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, key)
		}
	}
	return merged, nil
}
