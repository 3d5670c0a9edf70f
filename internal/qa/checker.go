package qa

import (
	"context"
	"log/slog"
	"strings"

	"ansci/internal/config"
	"ansci/internal/logging"
	"ansci/internal/quality"
	"ansci/internal/scene"
)

// RepairPolicyClamp rewrites out-of-frame literals; RepairPolicyDegrade
// accepts the code unmodified.
const (
	RepairPolicyClamp   = "clamp"
	RepairPolicyDegrade = "degrade"
)

// Regenerator re-invokes scene composition with QA feedback. Satisfied by
// *scene.Composer.
type Regenerator interface {
	Regenerate(ctx context.Context, req scene.Request, feedback []string) (*scene.Block, error)
}

// Result carries the reviewed (possibly rewritten) scene, the quality flag,
// and the violations that remained after the repair pass.
type Result struct {
	Block      scene.Block
	Flag       quality.Flag
	Violations []string
}

// Checker runs the static review pipeline over composed scenes.
type Checker struct {
	boundX           float64
	boundY           float64
	overlapThreshold float64
	policy           string
	regen            Regenerator
	logger           *slog.Logger
}

// NewChecker builds a checker from configuration. regen may be nil, in
// which case the repair pass is skipped and violations go straight to the
// policy step.
func NewChecker(cfg *config.Config, regen Regenerator, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = logging.NewNop()
	}
	boundX, boundY := 7.0, 4.0
	overlapThreshold := 0.25
	policy := RepairPolicyClamp
	if cfg != nil {
		if cfg.QA.BoundX > 0 {
			boundX = cfg.QA.BoundX
		}
		if cfg.QA.BoundY > 0 {
			boundY = cfg.QA.BoundY
		}
		if cfg.QA.OverlapThreshold > 0 {
			overlapThreshold = cfg.QA.OverlapThreshold
		}
		if cfg.QA.RepairPolicy != "" {
			policy = cfg.QA.RepairPolicy
		}
	}
	return &Checker{
		boundX:           boundX,
		boundY:           boundY,
		overlapThreshold: overlapThreshold,
		policy:           policy,
		regen:            regen,
		logger:           logging.NewComponentLogger(logger, "qa"),
	}
}

// Check returns every violation in the code without attempting repair.
func (c *Checker) Check(code string) []string {
	var violations []string
	violations = append(violations, checkStructure(code)...)
	violations = append(violations, checkBounds(code, c.boundX, c.boundY)...)
	violations = append(violations, checkOverlap(code, c.overlapThreshold)...)
	return violations
}

// Review validates the scene and repairs what it can. Clean code passes
// with OK; one regeneration with the violations as hints earns REPAIRED
// when it comes back clean; after that the repair policy decides between
// clamping literals and accepting the defect. Review never returns an
// error for code content, only for context cancellation during
// regeneration.
func (c *Checker) Review(ctx context.Context, req scene.Request, block scene.Block) (*Result, error) {
	violations := c.Check(block.Code)
	if len(violations) == 0 {
		return &Result{Block: block, Flag: quality.OK}, nil
	}

	c.logger.Warn("scene failed validation",
		logging.String(logging.FieldEventType, "qa_violations"),
		logging.Int(logging.FieldScene, req.Index+1),
		logging.Int("violations", len(violations)),
		logging.String("detail", strings.Join(violations, "; ")))

	if c.regen != nil {
		repaired, err := c.regen.Regenerate(ctx, req, violations)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("repair regeneration failed",
				logging.String(logging.FieldEventType, "qa_repair_failed"),
				logging.Int(logging.FieldScene, req.Index+1),
				logging.Error(err))
		} else {
			block = *repaired
			violations = c.Check(block.Code)
			if len(violations) == 0 {
				return &Result{Block: block, Flag: quality.Repaired}, nil
			}
		}
	}

	if c.policy == RepairPolicyClamp {
		clamped := clampCoordinates(block.Code, c.boundX, c.boundY)
		if clamped != block.Code {
			block.Code = clamped
			violations = c.Check(block.Code)
			if len(violations) == 0 {
				return &Result{Block: block, Flag: quality.Repaired}, nil
			}
		}
	}

	// Remaining defects ship as a known compromise.
	return &Result{Block: block, Flag: quality.Degraded, Violations: violations}, nil
}
