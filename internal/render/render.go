// Package render implements the facet template language:
//
//	{{#if name}}...{{else}}...{{/if}}  conditional block, no nesting
//	{{name}}                           variable substitution
package render

import (
	"fmt"
	"regexp"
	"strings"
)

// Vars maps variable names to values. Strings and booleans are the supported
// value types; anything else is formatted with fmt.Sprint.
type Vars map[string]any

const elseMarker = "{{else}}"

var (
	conditionalPattern = regexp.MustCompile(`(?s)\{\{#if\s+(\w+)\}\}(.*?)\{\{/if\}\}`)
	variablePattern    = regexp.MustCompile(`\{\{(\w+)\}\}`)
)

// ProcessConditionals resolves every {{#if}} block. The first {{/if}} closes
// the block.
func ProcessConditionals(template string, vars Vars) string {
	return conditionalPattern.ReplaceAllStringFunc(template, func(block string) string {
		m := conditionalPattern.FindStringSubmatch(block)
		name, body := m[1], m[2]

		elseIdx := strings.Index(body, elseMarker)
		if isTruthy(vars[name]) {
			if elseIdx >= 0 {
				return body[:elseIdx]
			}
			return body
		}
		if elseIdx >= 0 {
			return body[elseIdx+len(elseMarker):]
		}
		return ""
	})
}

// SubstituteVariables replaces {{name}} placeholders.
func SubstituteVariables(template string, vars Vars) string {
	return variablePattern.ReplaceAllStringFunc(template, func(ref string) string {
		name := ref[2 : len(ref)-2]
		return stringify(vars[name])
	})
}

// RenderTemplate processes conditionals and then substitutes variables, so
// placeholders inside the chosen branch are filled in.
func RenderTemplate(template string, vars Vars) string {
	return SubstituteVariables(ProcessConditionals(template, vars), vars)
}

func isTruthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	default:
		return fmt.Sprint(val) != ""
	}
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case bool:
		if val {
			return "true"
		}
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// ParseVars turns k=v pairs into Vars. "true" and "false" become booleans and
// a bare key means true.
func ParseVars(pairs []string) (Vars, error) {
	vars := make(Vars, len(pairs))
	for _, pair := range pairs {
		key, value, hasValue := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid variable %q: empty name", pair)
		}
		switch {
		case !hasValue:
			vars[key] = true
		case value == "true":
			vars[key] = true
		case value == "false":
			vars[key] = false
		default:
			vars[key] = value
		}
	}
	return vars, nil
}
