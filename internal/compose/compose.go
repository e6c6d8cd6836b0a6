// Package compose applies the facet placement rule:
//
//	system prompt: persona only
//	user message:  policy, knowledge, instruction, additional instructions
package compose

import (
	"strings"

	"github.com/kayz/facet/internal/facet"
	"github.com/kayz/facet/internal/truncation"
)

// BodySeparator joins multiple policy or knowledge bodies into one block.
const BodySeparator = "\n\n---\n\n"

// Compose builds the final prompt from a resolved facet set. Policy and
// knowledge are trimmed and annotated; instructions are passed through as-is.
func Compose(facets facet.Set, opts facet.ComposeOptions) facet.ComposedPrompt {
	var systemPrompt string
	if facets.Persona != nil {
		systemPrompt = facets.Persona.Body
	}

	var parts []string
	if len(facets.Policies) > 0 {
		parts = append(parts, truncation.PreparePolicyContent(
			joinBodies(facets.Policies),
			opts.ContextMaxChars,
			singleSourcePath(facets.Policies),
		))
	}
	if len(facets.Knowledge) > 0 {
		parts = append(parts, truncation.PrepareKnowledgeContent(
			joinBodies(facets.Knowledge),
			opts.ContextMaxChars,
			singleSourcePath(facets.Knowledge),
		))
	}
	if facets.Instruction != nil && facets.Instruction.Body != "" {
		parts = append(parts, facets.Instruction.Body)
	}
	for _, extra := range facets.AdditionalInstructions {
		if extra.Body != "" {
			parts = append(parts, extra.Body)
		}
	}

	return facet.ComposedPrompt{
		SystemPrompt: systemPrompt,
		UserMessage:  strings.Join(parts, "\n\n"),
	}
}

func joinBodies(contents []facet.Content) string {
	bodies := make([]string, len(contents))
	for i, c := range contents {
		bodies[i] = c.Body
	}
	return strings.Join(bodies, BodySeparator)
}

// singleSourcePath returns the source path only when exactly one facet is
// present; a joined block has no single attributable file.
func singleSourcePath(contents []facet.Content) string {
	if len(contents) == 1 {
		return contents[0].SourcePath
	}
	return ""
}
