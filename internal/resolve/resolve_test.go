package resolve

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kayz/facet/internal/facet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapFS struct {
	files   map[string]string
	failing map[string]bool
}

func (m mapFS) Exists(path string) bool {
	_, ok := m.files[path]
	return ok || m.failing[path]
}

func (m mapFS) ReadFile(path string) ([]byte, error) {
	if m.failing[path] {
		return nil, os.ErrPermission
	}
	content, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(content), nil
}

func TestIsResourcePath(t *testing.T) {
	tests := map[string]bool{
		"./x.md":  true,
		"../x.md": true,
		"/x.md":   true,
		"~/x.md":  true,
		"name.md": true,
		"name":    false,
		"a/b":     false,
		"":        false,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsResourcePath(in), "IsResourcePath(%q)", in)
	}
}

func TestResolveFacetPath(t *testing.T) {
	fs := mapFS{files: map[string]string{
		"/dir1/coding.md": "one",
		"/dir2/coding.md": "two",
		"/dir2/review.md": "review",
	}}
	r := New(fs)

	p, ok := r.ResolveFacetPath("coding", []string{"/dir1", "/dir2"})
	require.True(t, ok)
	assert.Equal(t, "/dir1/coding.md", p)

	p, ok = r.ResolveFacetPath("review", []string{"/dir1", "/dir2"})
	require.True(t, ok)
	assert.Equal(t, "/dir2/review.md", p)

	_, ok = r.ResolveFacetPath("missing", []string{"/dir1"})
	assert.False(t, ok)

	_, ok = r.ResolveFacetPath("coding", nil)
	assert.False(t, ok)
}

func TestResolveFacetByName(t *testing.T) {
	r := New(mapFS{files: map[string]string{"/dir/coder.md": "You are a coder."}})

	body, ok, err := r.ResolveFacetByName("coder", []string{"/dir"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "You are a coder.", body)

	_, ok, err = r.ResolveFacetByName("missing", []string{"/dir"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveFacetByNamePropagatesReadFaults(t *testing.T) {
	r := New(mapFS{failing: map[string]bool{"/dir/locked.md": true}})

	_, _, err := r.ResolveFacetByName("locked", []string{"/dir"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrPermission))
}

func TestResolveResourcePath(t *testing.T) {
	assert.Equal(t, "/project/policies/a.md", ResolveResourcePath("./policies/a.md", "/project"))
	assert.Equal(t, "/abs/a.md", ResolveResourcePath("/abs/a.md", "/project"))
	assert.Equal(t, "/project/policies/a.md", ResolveResourcePath("policies/a.md", "/project"))
	assert.Equal(t, "/shared/a.md", ResolveResourcePath("../shared/a.md", "/project"))
	// "~" is not expanded.
	assert.Equal(t, "/project/~/a.md", ResolveResourcePath("~/a.md", "/project"))
}

func TestResolveResourceContent(t *testing.T) {
	r := New(mapFS{files: map[string]string{"/base/notes.md": "notes body"}})

	got, err := r.ResolveResourceContent("./notes.md", "/base")
	require.NoError(t, err)
	assert.Equal(t, "notes body", got)

	got, err = r.ResolveResourceContent("./missing.md", "/base")
	require.NoError(t, err)
	assert.Equal(t, "./missing.md", got)

	got, err = r.ResolveResourceContent("Just inline text", "/base")
	require.NoError(t, err)
	assert.Equal(t, "Just inline text", got)
}

func TestResolveRefToContent(t *testing.T) {
	fs := mapFS{files: map[string]string{
		"/base/rules.md":       "rules from file",
		"/facets/coding.md":    "coding facet",
		"/facets/mapped.md":    "should not be read",
		"/facets/empty-one.md": "",
	}}
	r := New(fs)
	dirs := []string{"/facets"}

	tests := []struct {
		name   string
		ref    string
		m      map[string]string
		dirs   []string
		want   string
		wantOK bool
	}{
		{name: "map wins", ref: "mapped", m: map[string]string{"mapped": "from map"}, dirs: dirs, want: "from map", wantOK: true},
		{name: "empty map entry falls through", ref: "coding", m: map[string]string{"coding": ""}, dirs: dirs, want: "coding facet", wantOK: true},
		{name: "resource path", ref: "./rules.md", dirs: dirs, want: "rules from file", wantOK: true},
		{name: "facet name", ref: "coding", dirs: dirs, want: "coding facet", wantOK: true},
		{name: "name without dirs is literal", ref: "coding", want: "coding", wantOK: true},
		{name: "unknown name is literal", ref: "Do the thing", dirs: dirs, want: "Do the thing", wantOK: true},
		{name: "empty facet file is absent", ref: "empty-one", dirs: dirs, wantOK: false},
		{name: "empty ref is absent", ref: "", dirs: dirs, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := r.ResolveRefToContent(tt.ref, tt.m, "/base", tt.dirs)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRefKeepsSourcePath(t *testing.T) {
	r := New(mapFS{files: map[string]string{
		"/base/rules.md":    "rules",
		"/facets/coding.md": "coding",
	}})

	c, ok, err := r.ResolveRef("./rules.md", nil, "/base", nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, facet.Content{Body: "rules", SourcePath: "/base/rules.md"}, c)

	c, ok, err = r.ResolveRef("coding", nil, "/base", []string{"/facets"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/facets/coding.md", c.SourcePath)

	c, ok, err = r.ResolveRef("inline words", nil, "/base", []string{"/facets"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, c.SourcePath)
}

func TestResolveRefList(t *testing.T) {
	r := New(mapFS{files: map[string]string{"/facets/a.md": "A", "/facets/b.md": "B"}})
	dirs := []string{"/facets"}

	got, err := r.ResolveRefList([]string{"a", "", "b"}, nil, "/base", dirs)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, got)

	got, err = r.ResolveRefList([]string{"a"}, nil, "/base", dirs)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, got)

	got, err = r.ResolveRefList(nil, nil, "/base", dirs)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.ResolveRefList([]string{"", ""}, nil, "/base", dirs)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolveSectionMap(t *testing.T) {
	r := New(mapFS{files: map[string]string{"/base/s1.md": "section one"}})

	got, err := r.ResolveSectionMap(map[string]string{"one": "./s1.md", "two": "inline"}, "/base")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"one": "section one", "two": "inline"}, got)

	got, err = r.ResolveSectionMap(nil, "/base")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.ResolveSectionMap(map[string]string{}, "/base")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExtractPersonaDisplayName(t *testing.T) {
	assert.Equal(t, "coder", ExtractPersonaDisplayName("coder.md"))
	assert.Equal(t, "architect", ExtractPersonaDisplayName("/a/b/architect.md"))
	assert.Equal(t, "coder", ExtractPersonaDisplayName("coder"))
}

func TestPackageHelpersUseLocalFiles(t *testing.T) {
	dir := t.TempDir()
	facets := filepath.Join(dir, "personas")
	if err := os.MkdirAll(facets, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(facets, "coder.md"), []byte("You are a coder."), 0644); err != nil {
		t.Fatalf("write facet: %v", err)
	}

	body, ok, err := ResolveFacetByName("coder", []string{filepath.Join(dir, "missing"), facets})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "You are a coder.", body)

	content, err := ResolveResourceContent("./personas/coder.md", dir)
	require.NoError(t, err)
	assert.Equal(t, "You are a coder.", content)
}
