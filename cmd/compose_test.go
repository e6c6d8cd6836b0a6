package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kayz/facet/internal/engine"
	"github.com/kayz/facet/internal/promptbuild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeJSON(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeWorkspace(t, dir, map[string]string{
		"personas/coder.md":   "You are a coder.",
		"policies/safety.md":  "Be safe.",
		"knowledge/domain.md": "Facets are reusable.",
	})

	out, err := executeCommand(t, "--config", cfgPath, "compose",
		"--persona", "coder",
		"--policy", "safety",
		"--knowledge", "domain",
		"--instruction", "Ship {{thing}}.",
		"--extra", "Be brief.",
		"--var", "thing=it",
		"--json")
	require.NoError(t, err, out)

	var res promptbuild.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	assert.Equal(t, "adhoc", res.Recipe)
	assert.Equal(t, "coder", res.PersonaName)
	assert.Equal(t, "You are a coder.", res.Prompt.SystemPrompt)
	assert.Contains(t, res.Prompt.UserMessage, "Be safe.")
	assert.Contains(t, res.Prompt.UserMessage, "Policy Source: "+filepath.Join(dir, ".facet", "policies", "safety.md"))
	assert.Contains(t, res.Prompt.UserMessage, "Knowledge Source: "+filepath.Join(dir, ".facet", "knowledge", "domain.md"))
	assert.True(t, strings.HasSuffix(res.Prompt.UserMessage, "Ship it.\n\nBe brief."), res.Prompt.UserMessage)
	assert.Equal(t, 2000, res.Options.ContextMaxChars)
}

func TestComposePlainText(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeWorkspace(t, dir, map[string]string{
		"personas/coder.md": "You are a coder.",
	})

	out, err := executeCommand(t, "--config", cfgPath, "compose",
		"--persona", "coder", "--instruction", "Do it.", "--pretty=false")
	require.NoError(t, err, out)
	assert.Equal(t, "## System Prompt\n\nYou are a coder.\n\n## User Message\n\nDo it.\n", out)
}

func TestComposeRecipeWithOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeWorkspace(t, dir, map[string]string{
		"personas/reviewer.md": "You review.",
	})
	recipePath := filepath.Join(dir, "review.yaml")
	recipe := `version: v1
name: review
persona: reviewer
knowledge: ./notes.md
instruction: "Review {{target}}{{#if strict}} strictly{{/if}}."
variables:
  target: the API
`
	require.NoError(t, os.WriteFile(recipePath, []byte(recipe), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("abcdefghij"), 0644))

	out, err := executeCommand(t, "--config", cfgPath, "compose",
		"--recipe", recipePath,
		"--var", "strict",
		"--extra", "Report findings.",
		"--max-chars", "4",
		"--json")
	require.NoError(t, err, out)

	var res promptbuild.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "review", res.Recipe)
	assert.Equal(t, "You review.", res.Prompt.SystemPrompt)
	assert.True(t, strings.HasPrefix(res.Prompt.UserMessage, "abcd\n...TRUNCATED..."), res.Prompt.UserMessage)
	assert.Contains(t, res.Prompt.UserMessage, "Review the API strictly.")
	assert.True(t, strings.HasSuffix(res.Prompt.UserMessage, "Report findings."), res.Prompt.UserMessage)
}

func TestComposeErrors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeWorkspace(t, dir, nil)

	tests := []struct {
		name string
		args []string
	}{
		{"no facets", []string{"compose"}},
		{"bad var", []string{"compose", "--instruction", "x", "--var", "=v"}},
		{"negative max chars", []string{"compose", "--instruction", "x", "--max-chars", "-1"}},
		{"missing recipe", []string{"compose", "--recipe", filepath.Join(dir, "missing.yaml")}},
		{"positional arg", []string{"compose", "stray"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, append([]string{"--config", cfgPath}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

func TestComposeWithoutEnginesUsesInlineAndPaths(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "facet.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("facets:\n  roots: []\n  base_dir: "+dir+"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "task.md"), []byte("Task from file."), 0644))
	t.Setenv("FACET_ROOTS", "")

	out, err := executeCommand(t, "--config", cfgPath, "compose",
		"--persona", "You are terse.", "--instruction", "./task.md", "--extra", "coder", "--pretty=false")
	require.NoError(t, err, out)
	assert.Equal(t, "## System Prompt\n\nYou are terse.\n\n## User Message\n\nTask from file.\n\ncoder\n", out)

	_, err = executeCommand(t, "--config", cfgPath, "list", "persona")
	assert.ErrorIs(t, err, engine.ErrNoEngines)
}
