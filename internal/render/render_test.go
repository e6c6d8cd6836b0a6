package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessConditionals(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     Vars
		want     string
	}{
		{name: "true branch", template: "{{#if a}}yes{{else}}no{{/if}}", vars: Vars{"a": true}, want: "yes"},
		{name: "false branch", template: "{{#if a}}yes{{else}}no{{/if}}", vars: Vars{"a": false}, want: "no"},
		{name: "missing var", template: "{{#if a}}yes{{else}}no{{/if}}", vars: Vars{}, want: "no"},
		{name: "non-empty string truthy", template: "{{#if a}}yes{{/if}}", vars: Vars{"a": "x"}, want: "yes"},
		{name: "empty string falsy", template: "{{#if a}}yes{{/if}}", vars: Vars{"a": ""}, want: ""},
		{name: "multiline body", template: "pre\n{{#if a}}line1\nline2\n{{/if}}post", vars: Vars{"a": true}, want: "pre\nline1\nline2\npost"},
		{name: "several blocks", template: "{{#if a}}A{{/if}}-{{#if b}}B{{else}}b{{/if}}", vars: Vars{"a": true}, want: "A-b"},
		{name: "whitespace after if", template: "{{#if   a}}yes{{/if}}", vars: Vars{"a": true}, want: "yes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProcessConditionals(tt.template, tt.vars))
		})
	}
}

func TestSubstituteVariables(t *testing.T) {
	vars := Vars{"name": "facet", "on": true, "off": false, "n": 3}
	got := SubstituteVariables("{{name}}|{{on}}|{{off}}|{{missing}}|{{n}}", vars)
	assert.Equal(t, "facet|true|||3", got)
}

func TestRenderTemplate(t *testing.T) {
	tpl := "{{#if a}}{{b}}{{else}}no{{/if}}"
	assert.Equal(t, "X", RenderTemplate(tpl, Vars{"a": true, "b": "X"}))
	assert.Equal(t, "no", RenderTemplate(tpl, Vars{"a": false, "b": "X"}))
}

func TestRenderTemplateLeavesUnknownMarkupAlone(t *testing.T) {
	assert.Equal(t, "{{ spaced }} {{#each x}}", RenderTemplate("{{ spaced }} {{#each x}}", Vars{}))
}

func TestParseVars(t *testing.T) {
	vars, err := ParseVars([]string{"project=facet", "strict=true", "loose=false", "flag", "eq=a=b"})
	require.NoError(t, err)
	assert.Equal(t, Vars{
		"project": "facet",
		"strict":  true,
		"loose":   false,
		"flag":    true,
		"eq":      "a=b",
	}, vars)

	_, err = ParseVars([]string{"=x"})
	require.Error(t, err)
}
