package scene

import (
	"strings"
	"testing"
)

func TestAccumulatorFoldsInOrder(t *testing.T) {
	acc := NewAccumulator()
	acc.Fold(0, "Intro", "Waves add up into richer shapes.")
	acc.Fold(1, "Coefficients", "Each coefficient measures similarity to a sinusoid.")

	ctx := acc.Context()
	introIdx := strings.Index(ctx, "Intro:")
	coeffIdx := strings.Index(ctx, "Coefficients:")
	if introIdx < 0 || coeffIdx < 0 {
		t.Fatalf("missing entries in context: %q", ctx)
	}
	if introIdx > coeffIdx {
		t.Fatalf("entries out of order: %q", ctx)
	}
	if acc.Folded() != 2 {
		t.Fatalf("expected 2 folded, got %d", acc.Folded())
	}
}

func TestAccumulatorPanicsOnOutOfOrderFold(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-order fold")
		}
	}()
	acc := NewAccumulator()
	acc.Fold(1, "Skipped", "text")
}

func TestAccumulatorTrimsOldEntriesToBudget(t *testing.T) {
	acc := NewAccumulator()
	long := strings.Repeat("word ", 80)
	for i := 0; i < 30; i++ {
		acc.Fold(i, "Section", long)
	}

	ctx := acc.Context()
	if len(ctx) > contextCharBudget {
		t.Fatalf("context exceeds budget: %d > %d", len(ctx), contextCharBudget)
	}
	if ctx == "" {
		t.Fatal("context should retain recent entries")
	}
}

func TestAccumulatorSkipsEmptyTranscripts(t *testing.T) {
	acc := NewAccumulator()
	acc.Fold(0, "Silent", "   ")
	if acc.Context() != "" {
		t.Fatalf("empty transcript should add nothing, got %q", acc.Context())
	}
	if acc.Folded() != 1 {
		t.Fatal("fold position must still advance")
	}
}

func TestSummarizeEndsAtSentenceBoundary(t *testing.T) {
	long := strings.Repeat("This is a sentence. ", 40)
	summary := summarize(long)
	if len(summary) > 321 {
		t.Fatalf("summary too long: %d", len(summary))
	}
	if !strings.HasSuffix(summary, ".") {
		t.Fatalf("expected sentence boundary, got %q", summary[len(summary)-10:])
	}
}
