// Package engine provides facet storage backends. Composition only depends on
// the DataEngine interface; callers pick and chain concrete engines.
package engine

import (
	"context"

	"github.com/kayz/facet/internal/facet"
)

// DataEngine retrieves facets by kind and key.
type DataEngine interface {
	// Resolve returns nil, nil when the facet does not exist.
	Resolve(ctx context.Context, kind facet.Kind, key string) (*facet.Content, error)
	// List returns the keys available for kind.
	List(ctx context.Context, kind facet.Kind) ([]string, error)
}
