package outline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ansci/internal/config"
	"ansci/internal/services"
	"ansci/internal/services/llm"
)

type scriptedClient struct {
	responses []string
	calls     []([]llm.Message)
}

func (c *scriptedClient) CompleteJSONConversation(_ context.Context, _ string, turns []llm.Message) (string, error) {
	copied := make([]llm.Message, len(turns))
	copy(copied, turns)
	c.calls = append(c.calls, copied)
	if len(c.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	response := c.responses[0]
	c.responses = c.responses[1:]
	return response, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Cache.Enabled = false
	return &cfg
}

const validOutlineJSON = `{"title":"Fourier Series","blocks":[{"title":"Intro","text":"Waves add up."},{"title":"Coefficients","text":"Projecting onto sinusoids."}]}`

func TestParseScope(t *testing.T) {
	cases := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{"", ScopeCoreConcepts, false},
		{"core_concepts", ScopeCoreConcepts, false},
		{"High-Level-Summary", ScopeHighLevelSummary, false},
		{"walkthrough", ScopeFullWalkthrough, false},
		{"everything", "", true},
	}
	for _, tc := range cases {
		got, err := ParseScope(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseScope(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseScope(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseScope(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAnalyzeAcceptsValidOutline(t *testing.T) {
	client := &scriptedClient{responses: []string{validOutlineJSON}}
	analyzer := NewAnalyzer(testConfig(t), client, nil, nil)

	result, err := analyzer.Analyze(context.Background(), Request{
		Document: []byte("A paper about Fourier series."),
		Scope:    ScopeCoreConcepts,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.Title != "Fourier Series" {
		t.Fatalf("unexpected title %q", result.Title)
	}
	if len(result.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(result.Blocks))
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected a single completion, got %d", len(client.calls))
	}
}

func TestAnalyzeStripsCodeFences(t *testing.T) {
	client := &scriptedClient{responses: []string{"```json\n" + validOutlineJSON + "\n```"}}
	analyzer := NewAnalyzer(testConfig(t), client, nil, nil)

	result, err := analyzer.Analyze(context.Background(), Request{Document: []byte("doc")})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(result.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(result.Blocks))
	}
}

func TestAnalyzeRetriesWithCorrectiveFeedback(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"title":"","blocks":[]}`,
		validOutlineJSON,
	}}
	analyzer := NewAnalyzer(testConfig(t), client, nil, nil)

	result, err := analyzer.Analyze(context.Background(), Request{Document: []byte("doc")})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(result.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(result.Blocks))
	}
	if len(client.calls) != 2 {
		t.Fatalf("expected 2 completions, got %d", len(client.calls))
	}

	// The retry conversation must contain the rejected reply and the
	// violations as a corrective user turn.
	retry := client.calls[1]
	if len(retry) != 3 {
		t.Fatalf("expected 3 turns on retry, got %d", len(retry))
	}
	if retry[1].Role != "assistant" {
		t.Fatalf("expected rejected reply replayed, got role %q", retry[1].Role)
	}
	last := retry[2]
	if last.Role != "user" || !strings.Contains(last.Content, "at least one block") {
		t.Fatalf("corrective turn missing violations: %+v", last)
	}
}

func TestAnalyzeFailsFatallyAfterRetryBudget(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"not json at all",
		`{"title":"x","blocks":[{"title":"","text":""}]}`,
		`{"title":"","blocks":[]}`,
		"still not json",
	}}
	cfg := testConfig(t)
	cfg.Outline.MaxRetries = 3
	analyzer := NewAnalyzer(cfg, client, nil, nil)

	_, err := analyzer.Analyze(context.Background(), Request{Document: []byte("doc")})
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
	if !errors.Is(err, services.ErrOutlineGeneration) {
		t.Fatalf("expected outline generation error, got %v", err)
	}
	if !services.IsFatal(err) {
		t.Fatal("outline generation failure must be fatal")
	}
	if len(client.calls) != 4 {
		t.Fatalf("expected 4 attempts, got %d", len(client.calls))
	}
}

func TestAnalyzeForwardsHistoryAndSteering(t *testing.T) {
	client := &scriptedClient{responses: []string{validOutlineJSON}}
	analyzer := NewAnalyzer(testConfig(t), client, nil, nil)

	history := []llm.Message{
		{Role: "user", Content: "Keep the tone playful."},
		{Role: "assistant", Content: "Understood."},
	}
	_, err := analyzer.Analyze(context.Background(), Request{
		Document: []byte("doc"),
		Steering: "emphasize intuition over proofs",
		History:  history,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	turns := client.calls[0]
	if len(turns) != 3 {
		t.Fatalf("expected history + prompt, got %d turns", len(turns))
	}
	if turns[0].Content != "Keep the tone playful." {
		t.Fatalf("history not forwarded: %+v", turns[0])
	}
	if !strings.Contains(turns[2].Content, "emphasize intuition over proofs") {
		t.Fatalf("steering missing from prompt: %q", turns[2].Content)
	}
}

func TestAnalyzeRejectsEmptyDocument(t *testing.T) {
	analyzer := NewAnalyzer(testConfig(t), &scriptedClient{}, nil, nil)
	_, err := analyzer.Analyze(context.Background(), Request{})
	if !errors.Is(err, services.ErrOutlineGeneration) {
		t.Fatalf("expected outline generation error, got %v", err)
	}
}
