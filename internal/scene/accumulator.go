package scene

import (
	"fmt"
	"strings"
	"sync"
)

// contextCharBudget bounds how much rolling narrative is fed forward. Older
// entries fall off first so late scenes still see their recent neighbors.
const contextCharBudget = 2400

// Accumulator builds the rolling narrative summary that keeps scene
// transcripts coherent across the video. Entries are folded strictly in
// outline order; Fold panics on out-of-order use because ordering is an
// invariant of the dispatch loop, not a runtime condition.
type Accumulator struct {
	mu      sync.Mutex
	next    int
	entries []string
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Fold records the scene at index into the rolling context. Index must be
// exactly the next unfolded position.
func (a *Accumulator) Fold(index int, title, transcript string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index != a.next {
		panic(fmt.Sprintf("scene: context folded out of order: got %d, want %d", index, a.next))
	}
	a.next++
	summary := summarize(transcript)
	if summary == "" {
		return
	}
	a.entries = append(a.entries, fmt.Sprintf("%s: %s", strings.TrimSpace(title), summary))
}

// Context returns the accumulated narrative, most recent entries last,
// trimmed to the character budget.
func (a *Accumulator) Context() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	total := 0
	start := len(a.entries)
	for start > 0 {
		next := total + len(a.entries[start-1]) + 1
		if next > contextCharBudget {
			break
		}
		total = next
		start--
	}
	return strings.Join(a.entries[start:], "\n")
}

// Folded reports how many scenes have been folded so far.
func (a *Accumulator) Folded() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}

// summarize keeps the leading sentences of a transcript up to a modest cap.
func summarize(transcript string) string {
	text := strings.Join(strings.Fields(transcript), " ")
	const limit = 320
	if len(text) <= limit {
		return text
	}
	if idx := strings.LastIndexByte(text[:limit], '.'); idx > limit/2 {
		return text[:idx+1]
	}
	return text[:limit] + "..."
}
