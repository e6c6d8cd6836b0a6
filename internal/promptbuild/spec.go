package promptbuild

// RecipeVersion is the only recipe format version understood.
const RecipeVersion = "v1"

// Recipe is a YAML-driven prompt composition: which facets to pull in, which
// sections and variables to render them with, and the context budget.
type Recipe struct {
	Version     string `yaml:"version" json:"version"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// BaseDir anchors relative resource paths. Defaults to the recipe's
	// directory.
	BaseDir string `yaml:"base_dir,omitempty" json:"base_dir,omitempty"`

	Persona                string  `yaml:"persona,omitempty" json:"persona,omitempty"`
	Policies               RefList `yaml:"policies,omitempty" json:"policies,omitempty"`
	Knowledge              RefList `yaml:"knowledge,omitempty" json:"knowledge,omitempty"`
	Instruction            string  `yaml:"instruction,omitempty" json:"instruction,omitempty"`
	AdditionalInstructions RefList `yaml:"additional_instructions,omitempty" json:"additional_instructions,omitempty"`

	// Sections are named blocks (file or inline). Their resolved text can be
	// referenced by name from any facet ref and from templates.
	Sections map[string]string `yaml:"sections,omitempty" json:"sections,omitempty"`
	// Variables feed the template renderer. Strings and booleans are
	// meaningful.
	Variables map[string]any `yaml:"variables,omitempty" json:"variables,omitempty"`

	ContextMaxChars *int `yaml:"context_max_chars,omitempty" json:"context_max_chars,omitempty"`
}
