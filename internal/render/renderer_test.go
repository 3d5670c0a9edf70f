package render_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ansci/internal/quality"
	"ansci/internal/render"
	"ansci/internal/scene"
	"ansci/internal/testsupport"
)

type fakeEngine struct {
	failures int
	calls    int
}

func (e *fakeEngine) Render(_ context.Context, codePath, outPath string, _, _, _ int) error {
	e.calls++
	if e.calls <= e.failures {
		return errors.New("engine crashed")
	}
	if _, err := os.Stat(codePath); err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte("clip"), 0o644)
}

func testRequest() render.Request {
	return render.Request{
		Index:           0,
		Title:           "Fourier Series",
		Block:           scene.Block{Code: "class S(Scene):\n    def construct(self): pass\n"},
		FallbackSeconds: 42,
	}
}

func newRenderer(t *testing.T, engine render.Engine, runner *testsupport.FakeRunner, prober *testsupport.FakeProber) *render.Renderer {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return render.NewRenderer(cfg, engine, runner, prober, cfg.Paths.WorkspaceDir, nil)
}

func TestRenderSceneSucceedsFirstAttempt(t *testing.T) {
	engine := &fakeEngine{}
	prober := testsupport.NewFakeProber(37.5)
	renderer := newRenderer(t, engine, testsupport.NewFakeRunner(), prober)

	clip, err := renderer.RenderScene(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if clip.Flag != quality.OK {
		t.Fatalf("expected OK, got %s", clip.Flag)
	}
	if clip.DurationSeconds != 37.5 {
		t.Fatalf("expected probed duration, got %.2f", clip.DurationSeconds)
	}
	if engine.calls != 1 {
		t.Fatalf("expected one engine call, got %d", engine.calls)
	}
	if filepath.Base(clip.Path) != "scene_001.mp4" {
		t.Fatalf("unexpected clip name %q", clip.Path)
	}
	if _, err := os.Stat(strings.TrimSuffix(clip.Path, ".mp4") + ".py"); err != nil {
		t.Fatalf("code file missing: %v", err)
	}
}

func TestRenderSceneRetriesOnce(t *testing.T) {
	engine := &fakeEngine{failures: 1}
	renderer := newRenderer(t, engine, testsupport.NewFakeRunner(), testsupport.NewFakeProber(30))

	clip, err := renderer.RenderScene(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if clip.Flag != quality.OK {
		t.Fatalf("expected OK after retry, got %s", clip.Flag)
	}
	if engine.calls != 2 {
		t.Fatalf("expected 2 engine calls, got %d", engine.calls)
	}
}

func TestRenderSceneFallsBackToTitleCard(t *testing.T) {
	engine := &fakeEngine{failures: 2}
	runner := testsupport.NewFakeRunner()
	renderer := newRenderer(t, engine, runner, testsupport.NewFakeProber(30))

	clip, err := renderer.RenderScene(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if clip.Flag != quality.Fallback {
		t.Fatalf("expected FALLBACK, got %s", clip.Flag)
	}
	if clip.DurationSeconds != 42 {
		t.Fatalf("fallback should use the narration estimate, got %.2f", clip.DurationSeconds)
	}
	if engine.calls != 2 {
		t.Fatalf("expected engine retry before fallback, got %d calls", engine.calls)
	}

	calls := runner.Calls()
	if len(calls) != 1 || !strings.HasPrefix(calls[0], "title_card") {
		t.Fatalf("expected a title card render, got %v", calls)
	}
	if !strings.Contains(calls[0], "Fourier Series") {
		t.Fatalf("title card should carry the scene title: %v", calls[0])
	}
	if _, err := os.Stat(clip.Path); err != nil {
		t.Fatalf("fallback clip missing: %v", err)
	}
}

func TestRenderSceneErrorsWhenFallbackFails(t *testing.T) {
	engine := &fakeEngine{failures: 2}
	runner := testsupport.NewFakeRunner()
	runner.Fail["title_card"] = errors.New("no ffmpeg")
	renderer := newRenderer(t, engine, runner, testsupport.NewFakeProber(30))

	_, err := renderer.RenderScene(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error when the fallback cannot be produced")
	}
}

func TestRenderSceneHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := &fakeEngine{failures: 2}
	renderer := newRenderer(t, engine, testsupport.NewFakeRunner(), testsupport.NewFakeProber(30))

	_, err := renderer.RenderScene(ctx, testRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
