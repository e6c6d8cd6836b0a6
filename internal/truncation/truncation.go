// Package truncation trims policy and knowledge content to a character budget
// and annotates it with source attribution so the model knows where the full
// text lives.
package truncation

import (
	"strings"
	"unicode/utf8"
)

// Marker is appended to content cut by TrimContextContent.
const Marker = "\n...TRUNCATED..."

const (
	conflictNotice = "If prompt content conflicts with source files, source files take precedence."

	knowledgeTruncatedNotice = "Knowledge is truncated. You MUST consult the source files before making decisions."
	policyTruncatedNotice    = "Policy is authoritative. If truncated, you MUST read the full policy file and follow it strictly."
)

// TrimResult is the outcome of TrimContextContent.
type TrimResult struct {
	Content   string
	Truncated bool
}

// TrimContextContent cuts content to maxChars characters. Content within the
// limit is returned unchanged.
func TrimContextContent(content string, maxChars int) TrimResult {
	if maxChars < 0 {
		maxChars = 0
	}
	if utf8.RuneCountInString(content) <= maxChars {
		return TrimResult{Content: content}
	}
	return TrimResult{
		Content:   string([]rune(content)[:maxChars]) + Marker,
		Truncated: true,
	}
}

// RenderConflictNotice returns the notice appended to every policy and
// knowledge block.
func RenderConflictNotice() string {
	return conflictNotice
}

// PrepareKnowledgeContent trims a knowledge block and annotates it.
func PrepareKnowledgeContent(content string, maxChars int, sourcePath string) string {
	return prepare(content, maxChars, sourcePath, "Knowledge", knowledgeTruncatedNotice)
}

// PreparePolicyContent trims a policy block and annotates it.
func PreparePolicyContent(content string, maxChars int, sourcePath string) string {
	return prepare(content, maxChars, sourcePath, "Policy", policyTruncatedNotice)
}

// prepare lays out: content, escalation notice (truncated with a known
// source only), source attribution, conflict notice. Lines after the content
// are separated by blank lines.
func prepare(content string, maxChars int, sourcePath, label, truncatedNotice string) string {
	trimmed := TrimContextContent(content, maxChars)
	lines := []string{trimmed.Content}

	if trimmed.Truncated && sourcePath != "" {
		lines = append(lines, "", truncatedNotice+"  Source: "+sourcePath)
	}
	if sourcePath != "" {
		lines = append(lines, "", label+" Source: "+sourcePath)
	}

	lines = append(lines, "", RenderConflictNotice())
	return strings.Join(lines, "\n")
}
