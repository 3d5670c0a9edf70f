package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// LocalSynth renders narration through a speech binary on the host.
type LocalSynth interface {
	Synthesize(ctx context.Context, text, outPath string) error
}

// ExecLocalSynth shells out to an espeak-ng style binary.
type ExecLocalSynth struct {
	Binary string
}

// NewExecLocalSynth constructs a local synthesizer ("espeak-ng" when
// binary is empty).
func NewExecLocalSynth(binary string) *ExecLocalSynth {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "espeak-ng"
	}
	return &ExecLocalSynth{Binary: binary}
}

func (s *ExecLocalSynth) Synthesize(ctx context.Context, text, outPath string) error {
	cmd := exec.CommandContext(ctx, s.Binary, "-w", outPath, text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return fmt.Errorf("local synth: %w", err)
		}
		return fmt.Errorf("local synth: %w: %s", err, detail)
	}
	return nil
}
