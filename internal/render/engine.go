package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Engine renders a scene code file into the clip at outPath.
type Engine interface {
	Render(ctx context.Context, codePath, outPath string, width, height, fps int) error
}

// ExecEngine shells out to the animation engine binary (manim-compatible
// CLI).
type ExecEngine struct {
	Binary string
}

// NewExecEngine constructs an engine for the given binary ("manim" when
// empty).
func NewExecEngine(binary string) *ExecEngine {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "manim"
	}
	return &ExecEngine{Binary: binary}
}

func (e *ExecEngine) Render(ctx context.Context, codePath, outPath string, width, height, fps int) error {
	args := []string{
		"render",
		"--resolution", fmt.Sprintf("%d,%d", width, height),
		"--fps", fmt.Sprintf("%d", fps),
		"--output_file", outPath,
		codePath,
	}
	cmd := exec.CommandContext(ctx, e.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return fmt.Errorf("engine render %s: %w", codePath, err)
		}
		return fmt.Errorf("engine render %s: %w: %s", codePath, err, truncateDetail(detail))
	}
	return nil
}

// truncateDetail keeps engine stack traces out of log lines.
func truncateDetail(detail string) string {
	const limit = 600
	if len(detail) <= limit {
		return detail
	}
	return detail[len(detail)-limit:]
}
