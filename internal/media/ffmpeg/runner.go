package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner abstracts the media-muxing operations the pipeline needs so tests
// can substitute a deterministic implementation.
type Runner interface {
	Mux(ctx context.Context, videoPath, audioPath, outPath string) error
	PadVideo(ctx context.Context, videoPath, outPath string, extraSeconds float64) error
	StretchAudio(ctx context.Context, audioPath, outPath string, tempo float64) error
	PadAudio(ctx context.Context, audioPath, outPath string, padSeconds float64) error
	SilentTrack(ctx context.Context, outPath string, seconds float64) error
	TitleCard(ctx context.Context, outPath, title string, width, height, fps int, seconds float64) error
	Concat(ctx context.Context, inputPaths []string, outPath string) error
}

// ExecRunner shells out to ffmpeg.
type ExecRunner struct {
	Binary string
}

// NewExecRunner constructs a runner for the given ffmpeg binary ("ffmpeg"
// when empty).
func NewExecRunner(binary string) *ExecRunner {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &ExecRunner{Binary: binary}
}

func (r *ExecRunner) Mux(ctx context.Context, videoPath, audioPath, outPath string) error {
	return r.run(ctx, BuildMuxArgs(videoPath, audioPath, outPath))
}

func (r *ExecRunner) PadVideo(ctx context.Context, videoPath, outPath string, extraSeconds float64) error {
	return r.run(ctx, BuildPadVideoArgs(videoPath, outPath, extraSeconds))
}

func (r *ExecRunner) StretchAudio(ctx context.Context, audioPath, outPath string, tempo float64) error {
	return r.run(ctx, BuildStretchAudioArgs(audioPath, outPath, tempo))
}

func (r *ExecRunner) PadAudio(ctx context.Context, audioPath, outPath string, padSeconds float64) error {
	return r.run(ctx, BuildPadAudioArgs(audioPath, outPath, padSeconds))
}

func (r *ExecRunner) SilentTrack(ctx context.Context, outPath string, seconds float64) error {
	return r.run(ctx, BuildSilentTrackArgs(outPath, seconds))
}

func (r *ExecRunner) TitleCard(ctx context.Context, outPath, title string, width, height, fps int, seconds float64) error {
	return r.run(ctx, BuildTitleCardArgs(outPath, title, width, height, fps, seconds))
}

func (r *ExecRunner) Concat(ctx context.Context, inputPaths []string, outPath string) error {
	if len(inputPaths) == 0 {
		return fmt.Errorf("ffmpeg concat: no inputs")
	}
	listPath, err := writeConcatList(inputPaths, outPath)
	if err != nil {
		return err
	}
	defer os.Remove(listPath)
	return r.run(ctx, BuildConcatArgs(listPath, outPath))
}

// writeConcatList writes the concat demuxer file next to the output so
// relative path resolution stays predictable.
func writeConcatList(inputPaths []string, outPath string) (string, error) {
	var buf bytes.Buffer
	for _, input := range inputPaths {
		abs, err := filepath.Abs(input)
		if err != nil {
			return "", fmt.Errorf("ffmpeg concat: resolve %s: %w", input, err)
		}
		fmt.Fprintf(&buf, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	listPath := outPath + ".concat.txt"
	if err := os.WriteFile(listPath, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("ffmpeg concat: write list: %w", err)
	}
	return listPath, nil
}

// run executes ffmpeg with captured stderr so failures carry the tool's
// diagnostics.
func (r *ExecRunner) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return fmt.Errorf("ffmpeg %s: %w", firstArgHint(args), err)
		}
		return fmt.Errorf("ffmpeg %s: %w: %s", firstArgHint(args), err, detail)
	}
	return nil
}

func firstArgHint(args []string) string {
	for i, arg := range args {
		if arg == "-i" && i+1 < len(args) {
			return filepath.Base(args[i+1])
		}
	}
	return "run"
}
