package outline

import (
	"fmt"
	"strings"
)

// Scope selects how deeply the analyzer covers the document.
type Scope string

const (
	ScopeHighLevelSummary Scope = "high_level_summary"
	ScopeCoreConcepts     Scope = "core_concepts"
	ScopeFullWalkthrough  Scope = "full_walkthrough"
)

// ParseScope normalizes user input into a Scope, defaulting to core
// concepts when empty.
func ParseScope(raw string) (Scope, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "":
		return ScopeCoreConcepts, nil
	case string(ScopeHighLevelSummary), "summary":
		return ScopeHighLevelSummary, nil
	case string(ScopeCoreConcepts), "concepts":
		return ScopeCoreConcepts, nil
	case string(ScopeFullWalkthrough), "walkthrough", "full":
		return ScopeFullWalkthrough, nil
	default:
		return "", fmt.Errorf("unknown scope %q (expected high_level_summary, core_concepts, or full_walkthrough)", raw)
	}
}

// description renders the scope as prompt guidance.
func (s Scope) description() string {
	switch s {
	case ScopeHighLevelSummary:
		return "a short high-level summary: 2-4 sections covering only the central result and why it matters"
	case ScopeFullWalkthrough:
		return "a full walkthrough: one section per major part of the document, including methods and derivations"
	default:
		return "the core concepts: 3-6 sections covering the main ideas, skipping peripheral detail"
	}
}

// Block is one ordered unit of the outline. Text carries the source
// material the scene composer narrates from.
type Block struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Outline is the ordered plan for the whole video. It is immutable once
// produced; downstream stages index into Blocks and never reorder them.
type Outline struct {
	Title  string  `json:"title"`
	Blocks []Block `json:"blocks"`
}

// Validate reports every schema violation in the outline. An empty slice
// means the outline is acceptable.
func (o *Outline) Validate() []string {
	var violations []string
	if strings.TrimSpace(o.Title) == "" {
		violations = append(violations, "outline title must not be empty")
	}
	if len(o.Blocks) == 0 {
		violations = append(violations, "outline must contain at least one block")
	}
	for i, block := range o.Blocks {
		if strings.TrimSpace(block.Title) == "" {
			violations = append(violations, fmt.Sprintf("block %d title must not be empty", i+1))
		}
		if strings.TrimSpace(block.Text) == "" {
			violations = append(violations, fmt.Sprintf("block %d text must not be empty", i+1))
		}
	}
	return violations
}
