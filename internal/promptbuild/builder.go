// Package promptbuild turns recipes into composed prompts: it resolves facet
// references through the configured engines and resolver, renders templates,
// composes, and keeps an optional audit trail.
package promptbuild

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kayz/facet/internal/compose"
	"github.com/kayz/facet/internal/config"
	"github.com/kayz/facet/internal/engine"
	"github.com/kayz/facet/internal/facet"
	"github.com/kayz/facet/internal/logger"
	"github.com/kayz/facet/internal/render"
	"github.com/kayz/facet/internal/resolve"
)

// Builder assembles prompts from recipes.
type Builder struct {
	cfg      *config.Config
	engine   engine.DataEngine
	resolver *resolve.Resolver
	now      func() time.Time
}

// NewBuilder creates a Builder. eng may be nil, in which case bare facet
// names are looked up in the configured roots through the resolver.
func NewBuilder(cfg *config.Config, eng engine.DataEngine) *Builder {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Builder{
		cfg:      cfg,
		engine:   eng,
		resolver: resolve.New(nil),
		now:      time.Now,
	}
}

// Build resolves, renders and composes a recipe.
func (b *Builder) Build(ctx context.Context, recipe *Recipe) (*Result, error) {
	if err := ValidateRecipe(recipe); err != nil {
		return nil, err
	}
	baseDir := b.baseDir(recipe)

	sections, err := b.resolver.ResolveSectionMap(recipe.Sections, baseDir)
	if err != nil {
		return nil, err
	}

	set, err := b.assemble(ctx, recipe, sections, baseDir)
	if err != nil {
		return nil, err
	}

	if vars := templateVars(recipe, sections); len(vars) > 0 {
		set = renderSet(set, vars)
	}

	opts := facet.ComposeOptions{ContextMaxChars: b.contextMaxChars(recipe)}
	res := &Result{
		Recipe:  recipe.Name,
		Facets:  set,
		Options: opts,
		Prompt:  compose.Compose(set, opts),
	}
	if set.Persona != nil {
		res.PersonaName = personaDisplayName(recipe.Persona, *set.Persona)
	}

	if err := b.writeAuditRecord(recipe, res); err != nil {
		logger.Warn("Prompt audit failed: %v", err)
	}

	logger.Debug("Composed recipe %s: %d system chars, %d user chars",
		recipe.Name, len(res.Prompt.SystemPrompt), len(res.Prompt.UserMessage))
	return res, nil
}

// Assemble resolves the recipe's facet references without rendering or
// composing.
func (b *Builder) Assemble(ctx context.Context, recipe *Recipe) (facet.Set, error) {
	if err := ValidateRecipe(recipe); err != nil {
		return facet.Set{}, err
	}
	baseDir := b.baseDir(recipe)
	sections, err := b.resolver.ResolveSectionMap(recipe.Sections, baseDir)
	if err != nil {
		return facet.Set{}, err
	}
	return b.assemble(ctx, recipe, sections, baseDir)
}

func (b *Builder) assemble(ctx context.Context, recipe *Recipe, sections map[string]string, baseDir string) (facet.Set, error) {
	var set facet.Set

	persona, err := b.resolveOne(ctx, facet.KindPersona, recipe.Persona, sections, baseDir)
	if err != nil {
		return set, err
	}
	set.Persona = persona

	if set.Policies, err = b.resolveMany(ctx, facet.KindPolicy, recipe.Policies, sections, baseDir); err != nil {
		return set, err
	}
	if set.Knowledge, err = b.resolveMany(ctx, facet.KindKnowledge, recipe.Knowledge, sections, baseDir); err != nil {
		return set, err
	}

	instruction, err := b.resolveOne(ctx, facet.KindInstruction, recipe.Instruction, sections, baseDir)
	if err != nil {
		return set, err
	}
	set.Instruction = instruction

	if set.AdditionalInstructions, err = b.resolveMany(ctx, facet.KindAdditionalInstruction, recipe.AdditionalInstructions, sections, baseDir); err != nil {
		return set, err
	}
	return set, nil
}

func (b *Builder) resolveOne(ctx context.Context, kind facet.Kind, ref string, sections map[string]string, baseDir string) (*facet.Content, error) {
	if ref == "" {
		return nil, nil
	}
	c, ok, err := b.resolveRef(ctx, kind, ref, sections, baseDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.Warn("Facet %s %q resolved to empty content, skipping", kind, ref)
		return nil, nil
	}
	return &c, nil
}

func (b *Builder) resolveMany(ctx context.Context, kind facet.Kind, refs RefList, sections map[string]string, baseDir string) ([]facet.Content, error) {
	var out []facet.Content
	for _, ref := range refs {
		c, err := b.resolveOne(ctx, kind, ref, sections, baseDir)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

// resolveRef looks up sections first, then resource paths, then facet
// names (through the engine when one is configured), then falls back to the
// ref as inline text.
func (b *Builder) resolveRef(ctx context.Context, kind facet.Kind, ref string, sections map[string]string, baseDir string) (facet.Content, bool, error) {
	if b.engine == nil || sections[ref] != "" || resolve.IsResourcePath(ref) {
		return b.resolver.ResolveRef(ref, sections, baseDir, b.cfg.CandidateDirs(kind))
	}

	c, err := b.engine.Resolve(ctx, kind, ref)
	if err != nil {
		return facet.Content{}, false, fmt.Errorf("resolve %s %q: %w", kind, ref, err)
	}
	if c != nil {
		logger.Trace("Facet %s %q resolved from %s", kind, ref, c.SourcePath)
		return *c, c.Body != "", nil
	}

	logger.Debug("Facet %s %q not found in any engine, using it as inline text", kind, ref)
	return b.resolver.ResolveRef(ref, sections, baseDir, nil)
}

// personaDisplayName names the persona after its file, or after the ref when
// the ref is a bare name (section or store key). Inline text has no name.
func personaDisplayName(ref string, persona facet.Content) string {
	switch {
	case persona.SourcePath != "" && !strings.Contains(persona.SourcePath, "://"):
		return resolve.ExtractPersonaDisplayName(persona.SourcePath)
	case isBareName(ref):
		return ref
	default:
		return ""
	}
}

func isBareName(ref string) bool {
	if ref == "" || resolve.IsResourcePath(ref) {
		return false
	}
	return !strings.ContainsAny(ref, " \t\n/\\")
}

func (b *Builder) baseDir(recipe *Recipe) string {
	if recipe.BaseDir != "" {
		return recipe.BaseDir
	}
	return b.resolvePath(".")
}

func (b *Builder) contextMaxChars(recipe *Recipe) int {
	if recipe.ContextMaxChars != nil {
		return *recipe.ContextMaxChars
	}
	if b.cfg.Facets.ContextMaxChars >= 0 {
		return b.cfg.Facets.ContextMaxChars
	}
	return facet.DefaultContextMaxChars
}

// templateVars merges resolved sections and recipe variables; variables win
// on name clashes.
func templateVars(recipe *Recipe, sections map[string]string) render.Vars {
	vars := make(render.Vars, len(sections)+len(recipe.Variables))
	for k, v := range sections {
		vars[k] = v
	}
	for k, v := range recipe.Variables {
		vars[k] = v
	}
	return vars
}

func renderSet(set facet.Set, vars render.Vars) facet.Set {
	renderOne := func(c *facet.Content) *facet.Content {
		if c == nil {
			return nil
		}
		return &facet.Content{Body: render.RenderTemplate(c.Body, vars), SourcePath: c.SourcePath}
	}
	renderMany := func(cs []facet.Content) []facet.Content {
		if cs == nil {
			return nil
		}
		out := make([]facet.Content, len(cs))
		for i, c := range cs {
			out[i] = facet.Content{Body: render.RenderTemplate(c.Body, vars), SourcePath: c.SourcePath}
		}
		return out
	}

	return facet.Set{
		Persona:                renderOne(set.Persona),
		Policies:               renderMany(set.Policies),
		Knowledge:              renderMany(set.Knowledge),
		Instruction:            renderOne(set.Instruction),
		AdditionalInstructions: renderMany(set.AdditionalInstructions),
	}
}

func (b *Builder) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	root := b.cfg.Facets.BaseDir
	if root == "" {
		root = "."
	}
	return filepath.Join(root, p)
}
