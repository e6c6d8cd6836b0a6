// Package resolve turns facet references into text. A reference is either a
// bare facet name, looked up in candidate directories, or a resource path.
// Anything that cannot be found is treated as inline content.
//
// Not found is never an error here: lookups report absence through an ok
// flag or a nil result. Only I/O faults on files that exist are returned.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kayz/facet/internal/facet"
	"github.com/kayz/facet/internal/logger"
)

const facetExt = ".md"

// FS is the file capability the resolver needs.
type FS interface {
	Exists(path string) bool
	ReadFile(path string) ([]byte, error)
}

// OSFS reads from the local file system.
type OSFS struct{}

func (OSFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Resolver resolves references against an FS.
type Resolver struct {
	fs FS
}

// New creates a Resolver. A nil fs means the local file system.
func New(fs FS) *Resolver {
	if fs == nil {
		fs = OSFS{}
	}
	return &Resolver{fs: fs}
}

var defaultResolver = New(OSFS{})

// IsResourcePath reports whether spec denotes a file location rather than a
// facet name: it starts with ./, ../, / or ~, or ends with .md.
func IsResourcePath(spec string) bool {
	return strings.HasPrefix(spec, "./") ||
		strings.HasPrefix(spec, "../") ||
		strings.HasPrefix(spec, "/") ||
		strings.HasPrefix(spec, "~") ||
		strings.HasSuffix(spec, facetExt)
}

// ResolveResourcePath maps a resource spec to a path. "./" specs are joined
// to baseDir without the prefix, "/" specs are returned as-is and anything
// else is joined to baseDir. "~" is not expanded.
func ResolveResourcePath(spec, baseDir string) string {
	if rest, ok := strings.CutPrefix(spec, "./"); ok {
		return filepath.Join(baseDir, rest)
	}
	if strings.HasPrefix(spec, "/") {
		return spec
	}
	return filepath.Join(baseDir, spec)
}

// ExtractPersonaDisplayName returns the base name of a persona path with a
// trailing .md removed ("/a/b/architect.md" -> "architect").
func ExtractPersonaDisplayName(personaPath string) string {
	base := filepath.Base(personaPath)
	if base == "." || base == string(filepath.Separator) {
		return personaPath
	}
	if name, ok := strings.CutSuffix(base, facetExt); ok && name != "" {
		return name
	}
	return base
}

// ResolveFacetPath returns the first {dir}/{name}.md that exists. Earlier
// directories win.
func (r *Resolver) ResolveFacetPath(name string, candidateDirs []string) (string, bool) {
	for _, dir := range candidateDirs {
		p := filepath.Join(dir, name+facetExt)
		if r.fs.Exists(p) {
			return p, true
		}
	}
	return "", false
}

// ResolveFacetByName reads the facet file found by ResolveFacetPath.
func (r *Resolver) ResolveFacetByName(name string, candidateDirs []string) (string, bool, error) {
	p, ok := r.ResolveFacetPath(name, candidateDirs)
	if !ok {
		return "", false, nil
	}
	body, err := r.readFile(p)
	if err != nil {
		return "", false, err
	}
	return body, true, nil
}

// ResolveResourceContent returns the text of an existing .md resource, or
// spec itself for anything else. A .md spec whose file is missing is
// indistinguishable from literal text that happens to end in .md.
func (r *Resolver) ResolveResourceContent(spec, baseDir string) (string, error) {
	c, err := r.resolveResource(spec, baseDir)
	if err != nil {
		return "", err
	}
	return c.Body, nil
}

func (r *Resolver) resolveResource(spec, baseDir string) (facet.Content, error) {
	if strings.HasSuffix(spec, facetExt) {
		p := ResolveResourcePath(spec, baseDir)
		if r.fs.Exists(p) {
			body, err := r.readFile(p)
			if err != nil {
				return facet.Content{}, err
			}
			return facet.Content{Body: body, SourcePath: p}, nil
		}
		logger.Debug("Resource %s not found at %s, using it as inline content", spec, p)
	}
	return facet.Content{Body: spec}, nil
}

// ResolveRef resolves a reference and keeps the file it came from. Lookup
// order: resolvedMap, resource path, facet name in candidateDirs (when
// given), inline text. ok is false when the result is empty.
func (r *Resolver) ResolveRef(ref string, resolvedMap map[string]string, baseDir string, candidateDirs []string) (facet.Content, bool, error) {
	if mapped := resolvedMap[ref]; mapped != "" {
		return facet.Content{Body: mapped}, true, nil
	}

	var (
		c   facet.Content
		err error
	)
	switch {
	case IsResourcePath(ref):
		c, err = r.resolveResource(ref, baseDir)
	default:
		if candidateDirs != nil {
			if p, found := r.ResolveFacetPath(ref, candidateDirs); found {
				body, readErr := r.readFile(p)
				if readErr != nil {
					return facet.Content{}, false, readErr
				}
				logger.Trace("Facet %s resolved to %s", ref, p)
				return facet.Content{Body: body, SourcePath: p}, body != "", nil
			}
		}
		c, err = r.resolveResource(ref, baseDir)
	}
	if err != nil {
		return facet.Content{}, false, err
	}
	return c, c.Body != "", nil
}

// ResolveRefToContent is ResolveRef without the source path.
func (r *Resolver) ResolveRefToContent(ref string, resolvedMap map[string]string, baseDir string, candidateDirs []string) (string, bool, error) {
	c, ok, err := r.ResolveRef(ref, resolvedMap, baseDir, candidateDirs)
	if err != nil || !ok {
		return "", false, err
	}
	return c.Body, true, nil
}

// ResolveRefList resolves refs in order and drops empty results. It returns
// nil when refs is nil or nothing resolved to non-empty content.
func (r *Resolver) ResolveRefList(refs []string, resolvedMap map[string]string, baseDir string, candidateDirs []string) ([]string, error) {
	if refs == nil {
		return nil, nil
	}
	var contents []string
	for _, ref := range refs {
		content, ok, err := r.ResolveRefToContent(ref, resolvedMap, baseDir, candidateDirs)
		if err != nil {
			return nil, err
		}
		if ok {
			contents = append(contents, content)
		}
	}
	if len(contents) == 0 {
		return nil, nil
	}
	return contents, nil
}

// ResolveSectionMap resolves every value of raw with ResolveResourceContent.
// It returns nil for a nil or empty map.
func (r *Resolver) ResolveSectionMap(raw map[string]string, baseDir string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	resolved := make(map[string]string, len(raw))
	for name, spec := range raw {
		content, err := r.ResolveResourceContent(spec, baseDir)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", name, err)
		}
		resolved[name] = content
	}
	return resolved, nil
}

func (r *Resolver) readFile(p string) (string, error) {
	data, err := r.fs.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return string(data), nil
}

// Package-level helpers use the local file system.

func ResolveFacetPath(name string, candidateDirs []string) (string, bool) {
	return defaultResolver.ResolveFacetPath(name, candidateDirs)
}

func ResolveFacetByName(name string, candidateDirs []string) (string, bool, error) {
	return defaultResolver.ResolveFacetByName(name, candidateDirs)
}

func ResolveResourceContent(spec, baseDir string) (string, error) {
	return defaultResolver.ResolveResourceContent(spec, baseDir)
}

func ResolveRef(ref string, resolvedMap map[string]string, baseDir string, candidateDirs []string) (facet.Content, bool, error) {
	return defaultResolver.ResolveRef(ref, resolvedMap, baseDir, candidateDirs)
}

func ResolveRefToContent(ref string, resolvedMap map[string]string, baseDir string, candidateDirs []string) (string, bool, error) {
	return defaultResolver.ResolveRefToContent(ref, resolvedMap, baseDir, candidateDirs)
}

func ResolveRefList(refs []string, resolvedMap map[string]string, baseDir string, candidateDirs []string) ([]string, error) {
	return defaultResolver.ResolveRefList(refs, resolvedMap, baseDir, candidateDirs)
}

func ResolveSectionMap(raw map[string]string, baseDir string) (map[string]string, error) {
	return defaultResolver.ResolveSectionMap(raw, baseDir)
}
