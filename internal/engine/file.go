package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kayz/facet/internal/facet"
	"github.com/kayz/facet/internal/resolve"
)

// FileEngine resolves facets from {root}/{kind dir}/{key}.md.
type FileEngine struct {
	root     string
	resolver *resolve.Resolver
}

// NewFileEngine creates a FileEngine rooted at root.
func NewFileEngine(root string) *FileEngine {
	return &FileEngine{root: root, resolver: resolve.New(nil)}
}

// Root returns the engine's root directory.
func (e *FileEngine) Root() string {
	return e.root
}

func (e *FileEngine) Resolve(ctx context.Context, kind facet.Kind, key string) (*facet.Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Join(e.root, kind.Dir())
	p, ok := e.resolver.ResolveFacetPath(key, []string{dir})
	if !ok {
		return nil, nil
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read facet %s/%s: %w", kind, key, err)
	}
	return &facet.Content{Body: string(data), SourcePath: p}, nil
}

func (e *FileEngine) List(ctx context.Context, kind facet.Kind) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(e.root, kind.Dir()))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list %s facets: %w", kind, err)
	}
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if key, ok := strings.CutSuffix(entry.Name(), ".md"); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
