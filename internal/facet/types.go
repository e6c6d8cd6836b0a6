// Package facet defines the data model shared by resolution, storage and
// composition: facet kinds, resolved facet content and the composed prompt.
package facet

import (
	"fmt"
	"strings"
)

// Kind identifies the role a facet plays in a composed prompt.
type Kind string

const (
	KindPersona               Kind = "persona"
	KindPolicy                Kind = "policy"
	KindKnowledge             Kind = "knowledge"
	KindInstruction           Kind = "instruction"
	KindAdditionalInstruction Kind = "additional-instruction"
)

// DefaultContextMaxChars is the character budget used when neither the recipe
// nor the configuration sets one.
const DefaultContextMaxChars = 2000

// Kinds returns every facet kind in composition order.
func Kinds() []Kind {
	return []Kind{
		KindPersona,
		KindPolicy,
		KindKnowledge,
		KindInstruction,
		KindAdditionalInstruction,
	}
}

// Dir returns the directory name facets of this kind are stored under.
func (k Kind) Dir() string {
	switch k {
	case KindPersona:
		return "personas"
	case KindPolicy:
		return "policies"
	case KindKnowledge:
		return "knowledge"
	case KindInstruction:
		return "instructions"
	case KindAdditionalInstruction:
		return "additional-instructions"
	default:
		return string(k)
	}
}

// ParseKind accepts a kind tag or its directory name.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if s == string(k) || s == k.Dir() {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown facet kind: %q", s)
}

// Content is a resolved facet body. SourcePath is empty for inline content.
type Content struct {
	Body       string `json:"body"`
	SourcePath string `json:"source_path,omitempty"`
}

// Set holds the resolved facets of one prompt build. Slice order is the
// caller's order and is preserved when joining.
type Set struct {
	Persona                *Content  `json:"persona,omitempty"`
	Policies               []Content `json:"policies,omitempty"`
	Knowledge              []Content `json:"knowledge,omitempty"`
	Instruction            *Content  `json:"instruction,omitempty"`
	AdditionalInstructions []Content `json:"additional_instructions,omitempty"`
}

// Counts reports how many facets of each kind the set carries.
func (s Set) Counts() map[Kind]int {
	counts := map[Kind]int{
		KindPolicy:                len(s.Policies),
		KindKnowledge:             len(s.Knowledge),
		KindAdditionalInstruction: len(s.AdditionalInstructions),
	}
	if s.Persona != nil {
		counts[KindPersona] = 1
	}
	if s.Instruction != nil {
		counts[KindInstruction] = 1
	}
	return counts
}

// ComposeOptions controls composition.
type ComposeOptions struct {
	// ContextMaxChars is applied separately to the joined policy block and the
	// joined knowledge block.
	ContextMaxChars int `json:"context_max_chars"`
}

// ComposedPrompt is the final two-part prompt.
type ComposedPrompt struct {
	SystemPrompt string `json:"system_prompt"`
	UserMessage  string `json:"user_message"`
}
