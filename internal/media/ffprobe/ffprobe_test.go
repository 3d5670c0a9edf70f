package ffprobe

import (
	"encoding/json"
	"testing"
)

func TestDurationSecondsPrefersFormat(t *testing.T) {
	payload := `{"streams":[{"codec_type":"video","duration":"9.5"}],"format":{"duration":"10.250000"}}`
	var result Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := result.DurationSeconds(); got != 10.25 {
		t.Fatalf("expected 10.25, got %f", got)
	}
}

func TestDurationSecondsFallsBackToStreams(t *testing.T) {
	payload := `{"streams":[{"codec_type":"audio","duration":"3.2"},{"codec_type":"video","duration":"12.8"}],"format":{}}`
	var result Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := result.DurationSeconds(); got != 12.8 {
		t.Fatalf("expected 12.8, got %f", got)
	}
}

func TestStreamPresence(t *testing.T) {
	payload := `{"streams":[{"codec_type":"video"},{"codec_type":"audio"}]}`
	var result Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !result.HasVideo() || !result.HasAudio() {
		t.Fatal("expected both stream types present")
	}
	if (Result{}).HasVideo() || (Result{}).HasAudio() {
		t.Fatal("empty result should report no streams")
	}
}
