package testsupport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FakeRunner implements the ffmpeg runner contract without invoking the
// binary. Each operation records a call line and materializes the output
// path so downstream file checks pass.
type FakeRunner struct {
	mu    sync.Mutex
	calls []string
	// Fail maps an operation name (mux, pad_video, stretch_audio,
	// pad_audio, silent_track, title_card, concat) to the error it should
	// return.
	Fail map[string]error
}

// NewFakeRunner returns an empty fake runner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Fail: make(map[string]error)}
}

// Calls returns a copy of the recorded operation lines in order.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeRunner) record(op, outPath, detail string) error {
	f.mu.Lock()
	if detail == "" {
		f.calls = append(f.calls, fmt.Sprintf("%s %s", op, filepath.Base(outPath)))
	} else {
		f.calls = append(f.calls, fmt.Sprintf("%s %s %s", op, filepath.Base(outPath), detail))
	}
	err := f.Fail[op]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if mkErr := os.MkdirAll(filepath.Dir(outPath), 0o755); mkErr != nil {
		return mkErr
	}
	return os.WriteFile(outPath, []byte(op), 0o644)
}

func (f *FakeRunner) Mux(_ context.Context, videoPath, audioPath, outPath string) error {
	return f.record("mux", outPath, filepath.Base(videoPath)+"+"+filepath.Base(audioPath))
}

func (f *FakeRunner) PadVideo(_ context.Context, _, outPath string, extraSeconds float64) error {
	return f.record("pad_video", outPath, fmt.Sprintf("%.3f", extraSeconds))
}

func (f *FakeRunner) StretchAudio(_ context.Context, _, outPath string, tempo float64) error {
	return f.record("stretch_audio", outPath, fmt.Sprintf("%.4f", tempo))
}

func (f *FakeRunner) PadAudio(_ context.Context, _, outPath string, padSeconds float64) error {
	return f.record("pad_audio", outPath, fmt.Sprintf("%.3f", padSeconds))
}

func (f *FakeRunner) SilentTrack(_ context.Context, outPath string, seconds float64) error {
	return f.record("silent_track", outPath, fmt.Sprintf("%.3f", seconds))
}

func (f *FakeRunner) TitleCard(_ context.Context, outPath, title string, _, _, _ int, seconds float64) error {
	return f.record("title_card", outPath, fmt.Sprintf("%q %.3f", title, seconds))
}

func (f *FakeRunner) Concat(_ context.Context, inputPaths []string, outPath string) error {
	names := make([]string, len(inputPaths))
	for i, input := range inputPaths {
		names[i] = filepath.Base(input)
	}
	return f.record("concat", outPath, fmt.Sprintf("%v", names))
}

// FakeProber reports media durations from a fixed table.
type FakeProber struct {
	mu sync.Mutex
	// Durations maps base names to seconds.
	Durations map[string]float64
	// Default is returned for paths missing from Durations.
	Default float64
}

// NewFakeProber returns a prober defaulting every path to seconds.
func NewFakeProber(seconds float64) *FakeProber {
	return &FakeProber{Durations: make(map[string]float64), Default: seconds}
}

// SetDuration fixes the duration reported for the given base name.
func (f *FakeProber) SetDuration(baseName string, seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Durations[baseName] = seconds
}

func (f *FakeProber) Duration(_ context.Context, path string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if seconds, ok := f.Durations[filepath.Base(path)]; ok {
		return seconds, nil
	}
	return f.Default, nil
}
