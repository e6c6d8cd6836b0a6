package promptbuild

import (
	"fmt"

	"github.com/kayz/facet/internal/facet"
	"github.com/kayz/facet/internal/render"
	"gopkg.in/yaml.v3"
)

// RefList is a list of facet references. In YAML it may be written as a
// single scalar or as a sequence.
type RefList []string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (r *RefList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.ShortTag() == "!!null" {
			*r = nil
			return nil
		}
		*r = RefList{value.Value}
		return nil
	case yaml.SequenceNode:
		var refs []string
		if err := value.Decode(&refs); err != nil {
			return err
		}
		*r = refs
		return nil
	default:
		return fmt.Errorf("line %d: facet refs must be a string or a list of strings", value.Line)
	}
}

// BuildRequest describes an ad-hoc build without a recipe file.
type BuildRequest struct {
	Persona                string
	Policies               []string
	Knowledge              []string
	Instruction            string
	AdditionalInstructions []string
	Variables              render.Vars
	// ContextMaxChars overrides the configured limit when set.
	ContextMaxChars *int
	BaseDir         string
}

// Recipe converts the request into an in-memory recipe.
func (req BuildRequest) Recipe() *Recipe {
	r := &Recipe{
		Version:                RecipeVersion,
		Name:                   "adhoc",
		BaseDir:                req.BaseDir,
		Persona:                req.Persona,
		Policies:               req.Policies,
		Knowledge:              req.Knowledge,
		Instruction:            req.Instruction,
		AdditionalInstructions: req.AdditionalInstructions,
		ContextMaxChars:        req.ContextMaxChars,
	}
	if len(req.Variables) > 0 {
		r.Variables = make(map[string]any, len(req.Variables))
		for k, v := range req.Variables {
			r.Variables[k] = v
		}
	}
	return r
}

// Result is the outcome of Builder.Build.
type Result struct {
	Recipe      string               `json:"recipe"`
	PersonaName string               `json:"persona,omitempty"`
	Facets      facet.Set            `json:"facets"`
	Options     facet.ComposeOptions `json:"options"`
	Prompt      facet.ComposedPrompt `json:"prompt"`
}
