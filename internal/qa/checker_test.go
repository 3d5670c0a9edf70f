package qa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ansci/internal/config"
	"ansci/internal/outline"
	"ansci/internal/quality"
	"ansci/internal/scene"
)

const cleanCode = `class WaveScene(Scene):
    def construct(self):
        title = Text("Fourier").move_to([0, 3, 0])
        axis = Text("frequency").move_to([0, -3, 0])
        self.add(title, axis)
`

const outOfFrameCode = `class WaveScene(Scene):
    def construct(self):
        label = Text("far away").move_to([9.5, 6, 0])
        self.add(label)
`

const structurelessCode = `def draw():
    return None
`

const overlappingCode = `class WaveScene(Scene):
    def construct(self):
        a = Text("identical spot label").move_to([0, 0, 0])
        b = Text("identical spot label").move_to([0.1, 0, 0])
        self.add(a, b)
`

type stubRegenerator struct {
	block    *scene.Block
	err      error
	feedback []string
	calls    int
}

func (s *stubRegenerator) Regenerate(_ context.Context, _ scene.Request, feedback []string) (*scene.Block, error) {
	s.calls++
	s.feedback = feedback
	return s.block, s.err
}

func testChecker(t *testing.T, regen Regenerator) *Checker {
	t.Helper()
	cfg := config.Default()
	return NewChecker(&cfg, regen, nil)
}

func testRequest() scene.Request {
	return scene.Request{Index: 0, Block: outline.Block{Title: "Intro", Text: "text"}}
}

func sceneWith(code string) scene.Block {
	return scene.Block{Transcript: "narration", Description: "desc", Code: code}
}

func TestCheckCleanCodePasses(t *testing.T) {
	checker := testChecker(t, nil)
	if violations := checker.Check(cleanCode); len(violations) != 0 {
		t.Fatalf("unexpected violations: %v", violations)
	}
}

func TestCheckFlagsMissingStructure(t *testing.T) {
	checker := testChecker(t, nil)
	violations := checker.Check(structurelessCode)
	if len(violations) != 2 {
		t.Fatalf("expected class and construct violations, got %v", violations)
	}
}

func TestCheckFlagsOutOfFrameCoordinates(t *testing.T) {
	checker := testChecker(t, nil)
	violations := checker.Check(outOfFrameCode)
	var sawX, sawY bool
	for _, v := range violations {
		if strings.Contains(v, "x coordinate 9.50") {
			sawX = true
		}
		if strings.Contains(v, "y coordinate 6.00") {
			sawY = true
		}
	}
	if !sawX || !sawY {
		t.Fatalf("expected both axes flagged: %v", violations)
	}
}

func TestCheckFlagsOverlappingText(t *testing.T) {
	checker := testChecker(t, nil)
	violations := checker.Check(overlappingCode)
	if len(violations) != 1 || !strings.Contains(violations[0], "overlap") {
		t.Fatalf("expected one overlap violation, got %v", violations)
	}
}

func TestReviewPassesCleanScene(t *testing.T) {
	regen := &stubRegenerator{}
	checker := testChecker(t, regen)

	result, err := checker.Review(context.Background(), testRequest(), sceneWith(cleanCode))
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if result.Flag != quality.OK {
		t.Fatalf("expected OK, got %s", result.Flag)
	}
	if regen.calls != 0 {
		t.Fatal("clean scene must not trigger regeneration")
	}
}

func TestReviewRepairsThroughRegeneration(t *testing.T) {
	fixed := sceneWith(cleanCode)
	regen := &stubRegenerator{block: &fixed}
	checker := testChecker(t, regen)

	result, err := checker.Review(context.Background(), testRequest(), sceneWith(outOfFrameCode))
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if result.Flag != quality.Repaired {
		t.Fatalf("expected REPAIRED, got %s", result.Flag)
	}
	if regen.calls != 1 {
		t.Fatalf("expected one regeneration, got %d", regen.calls)
	}
	if len(regen.feedback) == 0 {
		t.Fatal("violations must feed the regeneration")
	}
}

func TestReviewClampsWhenRegenerationStaysInvalid(t *testing.T) {
	stillBroken := sceneWith(outOfFrameCode)
	regen := &stubRegenerator{block: &stillBroken}
	checker := testChecker(t, regen)

	result, err := checker.Review(context.Background(), testRequest(), sceneWith(outOfFrameCode))
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if result.Flag != quality.Repaired {
		t.Fatalf("expected clamped scene to be REPAIRED, got %s (%v)", result.Flag, result.Violations)
	}
	if strings.Contains(result.Block.Code, "9.5") {
		t.Fatalf("x literal not clamped: %s", result.Block.Code)
	}
	if !strings.Contains(result.Block.Code, "[7, 4, 0]") {
		t.Fatalf("expected coordinates clamped to frame: %s", result.Block.Code)
	}
}

func TestReviewClampLeavesInBoundCoordinateAlone(t *testing.T) {
	// The offending y digit also appears inside the in-bound x literal;
	// only y may change.
	code := `class WaveScene(Scene):
    def construct(self):
        dot = Text("dot").move_to([1.5, 5, 0])
        self.add(dot)
`
	stillBroken := sceneWith(code)
	regen := &stubRegenerator{block: &stillBroken}
	checker := testChecker(t, regen)

	result, err := checker.Review(context.Background(), testRequest(), stillBroken)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if result.Flag != quality.Repaired {
		t.Fatalf("expected clamped scene to be REPAIRED, got %s (%v)", result.Flag, result.Violations)
	}
	if !strings.Contains(result.Block.Code, "[1.5, 4, 0]") {
		t.Fatalf("expected only y clamped: %s", result.Block.Code)
	}
	if violations := checker.Check(result.Block.Code); len(violations) != 0 {
		t.Fatalf("clamped code still violates bounds: %v", violations)
	}
}

func TestClampCoordinatesSplicesEachLiteralIndependently(t *testing.T) {
	clamped := clampCoordinates("a.move_to([1.5, 5, 0]); b.move_to([-8, 2.5, 0])", 7, 4)
	if !strings.Contains(clamped, "[1.5, 4, 0]") {
		t.Fatalf("first literal wrong: %s", clamped)
	}
	if !strings.Contains(clamped, "[-7, 2.5, 0]") {
		t.Fatalf("second literal wrong: %s", clamped)
	}
}

func TestReviewDegradePolicyAcceptsDefect(t *testing.T) {
	cfg := config.Default()
	cfg.QA.RepairPolicy = RepairPolicyDegrade
	stillBroken := sceneWith(outOfFrameCode)
	checker := NewChecker(&cfg, &stubRegenerator{block: &stillBroken}, nil)

	result, err := checker.Review(context.Background(), testRequest(), sceneWith(outOfFrameCode))
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if result.Flag != quality.Degraded {
		t.Fatalf("expected DEGRADED, got %s", result.Flag)
	}
	if !strings.Contains(result.Block.Code, "9.5") {
		t.Fatal("degrade policy must leave the code unmodified")
	}
	if len(result.Violations) == 0 {
		t.Fatal("remaining violations must be reported")
	}
}

func TestReviewSurvivesRegenerationFailure(t *testing.T) {
	regen := &stubRegenerator{err: errors.New("llm unavailable")}
	checker := testChecker(t, regen)

	result, err := checker.Review(context.Background(), testRequest(), sceneWith(outOfFrameCode))
	if err != nil {
		t.Fatalf("review must absorb regeneration failure: %v", err)
	}
	// Clamping salvages the original code.
	if result.Flag != quality.Repaired {
		t.Fatalf("expected REPAIRED via clamp, got %s", result.Flag)
	}
}

func TestReviewDegradesUnclampableStructure(t *testing.T) {
	stillBroken := sceneWith(structurelessCode)
	regen := &stubRegenerator{block: &stillBroken}
	checker := testChecker(t, regen)

	result, err := checker.Review(context.Background(), testRequest(), sceneWith(structurelessCode))
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if result.Flag != quality.Degraded {
		t.Fatalf("structure defects cannot be clamped, expected DEGRADED, got %s", result.Flag)
	}
}
