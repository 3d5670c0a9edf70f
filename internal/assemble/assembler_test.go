package assemble_test

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"ansci/internal/assemble"
	"ansci/internal/quality"
	"ansci/internal/testsupport"
)

func newAssembler(t *testing.T) (*assemble.Assembler, *testsupport.FakeRunner, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	runner := testsupport.NewFakeRunner()
	return assemble.NewAssembler(cfg, runner, cfg.Paths.OutputDir, nil), runner, cfg.Paths.OutputDir
}

func clips(durations ...float64) []assemble.Input {
	out := make([]assemble.Input, len(durations))
	for i, d := range durations {
		out[i] = assemble.Input{
			Index:           i,
			Title:           "Scene",
			Path:            "synced_" + string(rune('a'+i)) + ".mp4",
			DurationSeconds: d,
			Flag:            quality.OK,
			Confidence:      1,
		}
	}
	return out
}

func TestAssembleSingleProducesOneOrderedOutput(t *testing.T) {
	assembler, runner, outDir := newAssembler(t)

	outputs, err := assembler.Assemble(context.Background(), clips(10, 20, 30, 40), assemble.Options{
		Mode:     assemble.ModeSingle,
		BaseName: "Fourier Series",
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(outputs) != 1 {
		t.Fatalf("expected one output, got %v", outputs)
	}
	if outputs[0] != filepath.Join(outDir, "fourier_series.mp4") {
		t.Fatalf("unexpected output path %q", outputs[0])
	}

	calls := runner.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one concat, got %v", calls)
	}
	// All four clips, in order.
	if !strings.Contains(calls[0], "[synced_a.mp4 synced_b.mp4 synced_c.mp4 synced_d.mp4]") {
		t.Fatalf("clips reordered or missing: %v", calls[0])
	}
}

func TestAssemblePerSceneEmitsOneFilePerClip(t *testing.T) {
	assembler, _, outDir := newAssembler(t)

	outputs, err := assembler.Assemble(context.Background(), clips(10, 20, 30), assemble.Options{
		Mode:     assemble.ModePerScene,
		BaseName: "demo",
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	want := []string{
		filepath.Join(outDir, "demo_scene_01.mp4"),
		filepath.Join(outDir, "demo_scene_02.mp4"),
		filepath.Join(outDir, "demo_scene_03.mp4"),
	}
	if !reflect.DeepEqual(outputs, want) {
		t.Fatalf("outputs = %v, want %v", outputs, want)
	}
}

func TestAssembleGroupsBalancesContiguousDurations(t *testing.T) {
	assembler, runner, _ := newAssembler(t)

	// Total 120s over two groups: the balanced contiguous cut is after the
	// third clip (10+20+30 = 60) leaving (40+15+5 = 60).
	outputs, err := assembler.Assemble(context.Background(), clips(10, 20, 30, 40, 15, 5), assemble.Options{
		Mode:     assemble.ModeGroups,
		Groups:   2,
		BaseName: "demo",
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(outputs) != 2 {
		t.Fatalf("expected two outputs, got %v", outputs)
	}

	calls := runner.Calls()
	if !strings.Contains(calls[0], "[synced_a.mp4 synced_b.mp4 synced_c.mp4]") {
		t.Fatalf("first group wrong: %v", calls[0])
	}
	if !strings.Contains(calls[1], "[synced_d.mp4 synced_e.mp4 synced_f.mp4]") {
		t.Fatalf("second group wrong: %v", calls[1])
	}
}

func TestAssembleGroupsNeverStarvesTrailingGroups(t *testing.T) {
	assembler, runner, _ := newAssembler(t)

	// One huge leading clip must not swallow every group.
	_, err := assembler.Assemble(context.Background(), clips(100, 1, 1), assemble.Options{
		Mode:     assemble.ModeGroups,
		Groups:   3,
		BaseName: "demo",
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if calls := runner.Calls(); len(calls) != 3 {
		t.Fatalf("expected three groups, got %v", calls)
	}
}

func TestAssembleGroupsEmitsExactCountWithHugeTrailingClip(t *testing.T) {
	assembler, runner, _ := newAssembler(t)

	// A huge final clip keeps every earlier group under its duration
	// target; the partition must still close groups early enough to
	// emit exactly the requested count.
	outputs, err := assembler.Assemble(context.Background(), clips(1, 1, 1, 100), assemble.Options{
		Mode:     assemble.ModeGroups,
		Groups:   3,
		BaseName: "demo",
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(outputs) != 3 {
		t.Fatalf("expected three outputs, got %v", outputs)
	}

	calls := runner.Calls()
	if !strings.Contains(calls[0], "[synced_a.mp4 synced_b.mp4]") {
		t.Fatalf("first group wrong: %v", calls[0])
	}
	if !strings.Contains(calls[1], "[synced_c.mp4]") {
		t.Fatalf("second group wrong: %v", calls[1])
	}
	if !strings.Contains(calls[2], "[synced_d.mp4]") {
		t.Fatalf("third group wrong: %v", calls[2])
	}
}

func TestAssembleGroupsWithMoreGroupsThanClips(t *testing.T) {
	assembler, runner, _ := newAssembler(t)

	outputs, err := assembler.Assemble(context.Background(), clips(10, 20), assemble.Options{
		Mode:     assemble.ModeGroups,
		Groups:   5,
		BaseName: "demo",
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(outputs) != 2 {
		t.Fatalf("group count caps at scene count, got %v", outputs)
	}
	if calls := runner.Calls(); len(calls) != 2 {
		t.Fatalf("expected two concats, got %v", calls)
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	assembler, _, _ := newAssembler(t)
	opts := assemble.Options{Mode: assemble.ModeGroups, Groups: 3, BaseName: "demo"}

	first, err := assembler.Assemble(context.Background(), clips(10, 20, 30, 40, 50), opts)
	if err != nil {
		t.Fatalf("first assemble: %v", err)
	}
	second, err := assembler.Assemble(context.Background(), clips(10, 20, 30, 40, 50), opts)
	if err != nil {
		t.Fatalf("second assemble: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("outputs differ: %v vs %v", first, second)
	}
}

func TestAssembleRejectsBrokenOrder(t *testing.T) {
	assembler, _, _ := newAssembler(t)
	broken := clips(10, 20)
	broken[0].Index = 1
	broken[1].Index = 0

	if _, err := assembler.Assemble(context.Background(), broken, assemble.Options{BaseName: "demo"}); err == nil {
		t.Fatal("expected order violation error")
	}
}

func TestAssembleRejectsUnknownMode(t *testing.T) {
	assembler, _, _ := newAssembler(t)
	if _, err := assembler.Assemble(context.Background(), clips(10), assemble.Options{Mode: "halves"}); err == nil {
		t.Fatal("expected unknown mode error")
	}
}
