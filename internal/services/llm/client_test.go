package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestCompleteJSONSendsConversation(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		gotBody = buf
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing auth header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "test-model"})
	content, err := client.CompleteJSON(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if content != `{"ok":true}` {
		t.Fatalf("unexpected content %q", content)
	}
	if len(gotBody) == 0 {
		t.Fatal("request body not captured")
	}
}

func TestCompleteJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "test-model"},
		WithRetryBackoff(time.Millisecond, 5*time.Millisecond))
	if _, err := client.CompleteJSON(context.Background(), "sys", "user"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestCompleteJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "test-model"},
		WithRetryBackoff(time.Millisecond, 5*time.Millisecond))
	if _, err := client.CompleteJSON(context.Background(), "sys", "user"); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected single call, got %d", calls.Load())
	}
}

func TestCompleteJSONRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{Model: "m"})
	if _, err := client.CompleteJSON(context.Background(), "sys", "user"); err == nil {
		t.Fatal("expected API key error")
	}
}

func TestDecodeLLMJSONHandlesCodeFences(t *testing.T) {
	var target struct {
		Title string `json:"title"`
	}
	fenced := "```json\n{\"title\": \"Attention Is All You Need\"}\n```"
	if err := DecodeLLMJSON(fenced, &target); err != nil {
		t.Fatalf("DecodeLLMJSON: %v", err)
	}
	if target.Title != "Attention Is All You Need" {
		t.Fatalf("unexpected title %q", target.Title)
	}
}

func TestDecodeLLMJSONHandlesProseWrapping(t *testing.T) {
	var target struct {
		OK bool `json:"ok"`
	}
	wrapped := `Here is the JSON you asked for: {"ok": true} hope that helps!`
	if err := DecodeLLMJSON(wrapped, &target); err != nil {
		t.Fatalf("DecodeLLMJSON: %v", err)
	}
	if !target.OK {
		t.Fatal("expected ok=true")
	}
}

func TestDecodeLLMJSONRejectsEmpty(t *testing.T) {
	var target map[string]any
	if err := DecodeLLMJSON("   ", &target); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
