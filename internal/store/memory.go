package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Memory is the root entity of the store: spec §3's Memory type.
type Memory struct {
	ID                     int64
	Content                string
	ContentHash            string
	MemoryType             string
	Importance             float64
	QualityScore           float64
	SalienceScore          float64
	ScopeKind              string
	ScopeID                string
	Workspace              string
	Tier                   string
	ExpiresAt              *int64
	LifecycleState         string
	ValidationStatus       string
	Version                int
	Deleted                bool
	Pinned                 bool
	Origin                 string
	CreatedAt              int64
	UpdatedAt              int64
	LastAccessedAt         *int64
	AccessCount            int
	EventTime              *int64
	EventDurationSeconds   *int64
	TriggerPattern         string
	ProcedureSuccessCount  int
	ProcedureFailureCount  int
	SummaryOfID            *int64
	Metadata               string // JSON
	Tags                   []string
}

// MemoryTypes enumerates the allowed memory_type values.
var MemoryTypes = map[string]bool{
	"note": true, "todo": true, "issue": true, "decision": true, "preference": true,
	"learning": true, "context": true, "credential": true, "episodic": true,
	"procedural": true, "summary": true, "checkpoint": true, "transcript_chunk": true,
}

// ScopeKinds enumerates the allowed scope_kind values.
var ScopeKinds = map[string]bool{"global": true, "user": true, "session": true, "agent": true}

// EdgeTypes enumerates the allowed cross-reference edge types.
var EdgeTypes = map[string]bool{
	"related_to": true, "supersedes": true, "contradicts": true, "implements": true,
	"extends": true, "references": true, "depends_on": true, "blocks": true,
	"follows_up": true, "derived_from": true, "mentions": true, "part_of": true,
}

// EntityTypes enumerates the allowed entity_type values.
var EntityTypes = map[string]bool{
	"person": true, "organization": true, "project": true, "technology": true,
	"concept": true, "location": true, "event": true, "datetime": true,
	"reference": true, "other": true,
}

// ContentHash returns the SHA-256 hex digest of normalized content, per
// invariant 3: deterministic over normalized content, used for within-scope
// dedup lookups.
func ContentHash(content string) string {
	normalized := normalizeContent(content)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func normalizeContent(content string) string {
	return strings.Join(strings.Fields(content), " ")
}

// NormalizeWorkspace lowercases, restricts to [a-z0-9_-], truncates to 64
// chars, strips a leading underscore, and falls back to "default" for an
// empty result — the workspace normalization rule in spec §3.
func NormalizeWorkspace(ws string) string {
	ws = strings.ToLower(strings.TrimSpace(ws))
	var b strings.Builder
	for _, r := range ws {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	out := b.String()
	for strings.HasPrefix(out, "_") {
		out = out[1:]
	}
	if len(out) > 64 {
		out = out[:64]
	}
	if out == "" {
		return "default"
	}
	return out
}

// NormalizeTag lowercases and trims a tag for case-insensitive, globally
// uniqued storage.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
