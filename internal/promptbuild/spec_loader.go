package promptbuild

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadRecipe reads and validates a recipe file.
func LoadRecipe(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe file %s: %w", path, err)
	}

	var recipe Recipe
	if err := yaml.Unmarshal(data, &recipe); err != nil {
		return nil, fmt.Errorf("parse recipe file %s: %w", path, err)
	}
	if err := ValidateRecipe(&recipe); err != nil {
		return nil, fmt.Errorf("invalid recipe file %s: %w", path, err)
	}

	recipeDir := filepath.Dir(path)
	if abs, err := filepath.Abs(recipeDir); err == nil {
		recipeDir = abs
	}
	switch {
	case recipe.BaseDir == "":
		recipe.BaseDir = recipeDir
	case !filepath.IsAbs(recipe.BaseDir):
		recipe.BaseDir = filepath.Join(recipeDir, recipe.BaseDir)
	}

	return &recipe, nil
}

// ValidateRecipe checks structural requirements.
func ValidateRecipe(recipe *Recipe) error {
	if recipe == nil {
		return fmt.Errorf("recipe is nil")
	}
	if v := strings.TrimSpace(recipe.Version); v != "" && v != RecipeVersion {
		return fmt.Errorf("unsupported version: %s", v)
	}
	if strings.TrimSpace(recipe.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if recipe.Persona == "" && len(recipe.Policies) == 0 && len(recipe.Knowledge) == 0 &&
		recipe.Instruction == "" && len(recipe.AdditionalInstructions) == 0 {
		return fmt.Errorf("at least one facet is required")
	}

	lists := []struct {
		field string
		refs  RefList
	}{
		{"policies", recipe.Policies},
		{"knowledge", recipe.Knowledge},
		{"additional_instructions", recipe.AdditionalInstructions},
	}
	for _, l := range lists {
		for i, ref := range l.refs {
			if strings.TrimSpace(ref) == "" {
				return fmt.Errorf("%s[%d] is empty", l.field, i)
			}
		}
	}

	for name := range recipe.Sections {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("section name is required")
		}
	}
	if recipe.ContextMaxChars != nil && *recipe.ContextMaxChars < 0 {
		return fmt.Errorf("context_max_chars must not be negative")
	}

	return nil
}
