package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"ansci/internal/config"
	"ansci/internal/logging"
	"ansci/internal/media/ffmpeg"
	"ansci/internal/quality"
)

// Split modes.
const (
	ModeSingle   = "single"
	ModePerScene = "per-scene"
	ModeGroups   = "groups"
)

// Input is one synced scene clip in outline order.
type Input struct {
	Index           int
	Title           string
	Path            string
	DurationSeconds float64
	Flag            quality.Flag
	Confidence      float64
}

// Options select how the final video is split.
type Options struct {
	Mode string
	// Groups is the partition count for ModeGroups.
	Groups int
	// BaseName names the output files; it is slugified.
	BaseName string
}

// Assembler concatenates clips into the output directory.
type Assembler struct {
	ffmpeg    ffmpeg.Runner
	outputDir string
	logger    *slog.Logger
}

// NewAssembler wires the assembler to the media runner and output
// directory.
func NewAssembler(cfg *config.Config, runner ffmpeg.Runner, outputDir string, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if outputDir == "" && cfg != nil {
		outputDir = cfg.Paths.OutputDir
	}
	return &Assembler{
		ffmpeg:    runner,
		outputDir: outputDir,
		logger:    logging.NewComponentLogger(logger, "assemble"),
	}
}

// Assemble produces the final output files for the ordered clips. Outputs
// are deterministic for identical inputs: the same clips, mode, and base
// name always yield the same paths and cut points.
func (a *Assembler) Assemble(ctx context.Context, clips []Input, opts Options) ([]string, error) {
	if len(clips) == 0 {
		return nil, fmt.Errorf("assemble: no clips")
	}
	for i, clip := range clips {
		if clip.Index != i {
			return nil, fmt.Errorf("assemble: clip order broken at position %d (index %d)", i, clip.Index)
		}
	}

	base := Slugify(opts.BaseName)
	if base == "" {
		base = "output"
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModeSingle
	}

	var partitions [][]Input
	switch mode {
	case ModeSingle:
		partitions = [][]Input{clips}
	case ModePerScene:
		for _, clip := range clips {
			partitions = append(partitions, []Input{clip})
		}
	case ModeGroups:
		if opts.Groups < 1 {
			return nil, fmt.Errorf("assemble: groups mode requires a positive group count")
		}
		partitions = partitionByDuration(clips, opts.Groups)
	default:
		return nil, fmt.Errorf("assemble: unknown split mode %q", mode)
	}

	outputs := make([]string, 0, len(partitions))
	for i, partition := range partitions {
		outPath := a.outputPath(base, mode, i, len(partitions))
		paths := make([]string, len(partition))
		for j, clip := range partition {
			paths[j] = clip.Path
		}
		if err := a.ffmpeg.Concat(ctx, paths, outPath); err != nil {
			return nil, fmt.Errorf("assemble: concat %s: %w", filepath.Base(outPath), err)
		}
		outputs = append(outputs, outPath)
	}

	a.logger.Info("assembly complete",
		logging.String(logging.FieldEventType, "assembly_complete"),
		logging.String("mode", mode),
		logging.Int("scenes", len(clips)),
		logging.Int("outputs", len(outputs)))

	return outputs, nil
}

func (a *Assembler) outputPath(base, mode string, index, total int) string {
	if total == 1 {
		return filepath.Join(a.outputDir, base+".mp4")
	}
	if mode == ModePerScene {
		return filepath.Join(a.outputDir, fmt.Sprintf("%s_scene_%02d.mp4", base, index+1))
	}
	return filepath.Join(a.outputDir, fmt.Sprintf("%s_part_%02d.mp4", base, index+1))
}

// partitionByDuration splits clips into at most groups contiguous runs with
// roughly balanced total duration. Greedy against the running target so the
// result is deterministic.
func partitionByDuration(clips []Input, groups int) [][]Input {
	if groups >= len(clips) {
		out := make([][]Input, 0, len(clips))
		for _, clip := range clips {
			out = append(out, []Input{clip})
		}
		return out
	}

	total := 0.0
	for _, clip := range clips {
		total += clip.DurationSeconds
	}

	var partitions [][]Input
	var current []Input
	accumulated := 0.0
	consumed := 0.0
	for i, clip := range clips {
		current = append(current, clip)
		accumulated += clip.DurationSeconds
		consumed += clip.DurationSeconds

		remainingClips := len(clips) - i - 1
		remainingGroups := groups - len(partitions) - 1
		if remainingGroups == 0 {
			continue
		}
		// Close the group when it reaches its share of what is left, but
		// never starve the remaining groups of clips. When the clips left
		// only just cover the groups still owed, close regardless of the
		// target so the partition count is exact.
		target := (total - (consumed - accumulated)) / float64(remainingGroups+1)
		if remainingClips == remainingGroups || (accumulated >= target && remainingClips > remainingGroups) {
			partitions = append(partitions, current)
			current = nil
			accumulated = 0
		}
	}
	if len(current) > 0 {
		partitions = append(partitions, current)
	}
	return partitions
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases the name and collapses everything non-alphanumeric to
// single underscores.
func Slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(slug, "_")
}
