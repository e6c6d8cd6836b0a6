package promptbuild

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kayz/facet/internal/facet"
)

var auditMu sync.Mutex

const defaultAuditPrefix = "promptbuild"

// AuditRecord is one line of the JSONL audit trail.
type AuditRecord struct {
	ID            string         `json:"id"`
	Timestamp     string         `json:"timestamp"`
	Recipe        string         `json:"recipe"`
	RequestDigest string         `json:"request_digest"`
	Persona       string         `json:"persona,omitempty"`
	SystemPrompt  string         `json:"system_prompt"`
	UserMessage   string         `json:"user_message"`
	FacetCounts   map[string]int `json:"facet_counts"`
}

func (b *Builder) writeAuditRecord(recipe *Recipe, res *Result) error {
	audit := b.cfg.PromptBuild
	if !audit.AuditEnabled {
		return nil
	}

	auditDir := b.resolvePath(audit.AuditDir)
	if err := os.MkdirAll(auditDir, 0755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	now := b.now()
	filePath := filepath.Join(auditDir, fmt.Sprintf("%s-%s.jsonl", b.auditPrefix(), now.Format("2006-01-02")))

	counts := make(map[string]int, len(facet.Kinds()))
	for kind, n := range res.Facets.Counts() {
		counts[string(kind)] = n
	}

	record := AuditRecord{
		ID:            uuid.NewString(),
		Timestamp:     now.Format(time.RFC3339),
		Recipe:        recipe.Name,
		RequestDigest: recipeDigest(recipe),
		Persona:       res.PersonaName,
		SystemPrompt:  res.Prompt.SystemPrompt,
		UserMessage:   res.Prompt.UserMessage,
		FacetCounts:   counts,
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if err := appendJSONL(filePath, line); err != nil {
		return err
	}
	return b.cleanupOldAuditFilesWithNow(now)
}

func appendJSONL(filePath string, line []byte) error {
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit file: %w", err)
	}
	return nil
}

// CleanupOldAuditFiles removes audit files older than the retention window.
func (b *Builder) CleanupOldAuditFiles() error {
	auditMu.Lock()
	defer auditMu.Unlock()
	return b.cleanupOldAuditFilesWithNow(b.now())
}

func (b *Builder) cleanupOldAuditFilesWithNow(now time.Time) error {
	audit := b.cfg.PromptBuild
	if !audit.AuditEnabled || audit.AuditRetentionDays <= 0 {
		return nil
	}

	auditDir := b.resolvePath(audit.AuditDir)
	entries, err := os.ReadDir(auditDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("list audit dir: %w", err)
	}

	prefix := b.auditPrefix()
	cutoff := now.AddDate(0, 0, -audit.AuditRetentionDays)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, ".jsonl") {
			continue
		}

		filePath := filepath.Join(auditDir, name)
		if fileDate, ok := parseAuditDate(name, prefix); ok {
			if fileDate.Before(startOfDay(cutoff)) {
				if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove old audit file %s: %w", filePath, err)
				}
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("stat audit file %s: %w", filePath, err)
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove old audit file %s: %w", filePath, err)
			}
		}
	}
	return nil
}

func (b *Builder) auditPrefix() string {
	if prefix := strings.TrimSpace(b.cfg.PromptBuild.AuditFilePrefix); prefix != "" {
		return prefix
	}
	return defaultAuditPrefix
}

func parseAuditDate(filename, prefix string) (time.Time, bool) {
	raw := strings.TrimSuffix(filename, ".jsonl")
	raw = strings.TrimPrefix(raw, prefix+"-")
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// recipeDigest fingerprints the recipe's references, not the resolved text,
// so identical requests share a digest across content edits.
func recipeDigest(recipe *Recipe) string {
	digestInput := struct {
		Name                   string   `json:"name"`
		Persona                string   `json:"persona,omitempty"`
		Policies               []string `json:"policies,omitempty"`
		Knowledge              []string `json:"knowledge,omitempty"`
		Instruction            string   `json:"instruction,omitempty"`
		AdditionalInstructions []string `json:"additional_instructions,omitempty"`
		SectionCount           int      `json:"section_count"`
		VariableCount          int      `json:"variable_count"`
		ContextMaxChars        *int     `json:"context_max_chars,omitempty"`
	}{
		Name:                   strings.TrimSpace(recipe.Name),
		Persona:                recipe.Persona,
		Policies:               recipe.Policies,
		Knowledge:              recipe.Knowledge,
		Instruction:            recipe.Instruction,
		AdditionalInstructions: recipe.AdditionalInstructions,
		SectionCount:           len(recipe.Sections),
		VariableCount:          len(recipe.Variables),
		ContextMaxChars:        recipe.ContextMaxChars,
	}
	payload, _ := json.Marshal(digestInput)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
