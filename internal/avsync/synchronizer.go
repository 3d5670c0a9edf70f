package avsync

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"ansci/internal/config"
	"ansci/internal/logging"
	"ansci/internal/media/ffmpeg"
	"ansci/internal/quality"
)

// durationTolerance is the drift below which no adjustment is attempted.
const durationTolerance = 0.05

// Request pairs one scene's clip and narration.
type Request struct {
	Index        int
	VideoPath    string
	VideoSeconds float64
	AudioPath    string
	AudioSeconds float64
}

// Result is the muxed scene with its sync outcome.
type Result struct {
	Path            string
	DurationSeconds float64
	Flag            quality.Flag
	// Confidence scores the duration agreement of the incoming pair in
	// [0, 1]; 1 means the clip and narration already matched.
	Confidence float64
}

// Synchronizer adjusts durations and muxes narration into clips.
type Synchronizer struct {
	ffmpeg     ffmpeg.Runner
	maxStretch float64
	workDir    string
	logger     *slog.Logger
}

// NewSynchronizer wires the synchronizer to the media runner. workDir
// receives intermediate and muxed files.
func NewSynchronizer(cfg *config.Config, runner ffmpeg.Runner, workDir string, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	maxStretch := 0.10
	if cfg != nil && cfg.Sync.MaxStretchRatio > 0 {
		maxStretch = cfg.Sync.MaxStretchRatio
	}
	return &Synchronizer{
		ffmpeg:     runner,
		maxStretch: maxStretch,
		workDir:    workDir,
		logger:     logging.NewComponentLogger(logger, "sync"),
	}
}

// Sync reconciles the pair and muxes it into one scene clip. The narration
// is kept whole in every branch; only the video is extended and only the
// audio tempo is adjusted, within the configured bound.
func (s *Synchronizer) Sync(ctx context.Context, req Request) (*Result, error) {
	if req.VideoSeconds <= 0 || req.AudioSeconds <= 0 {
		return nil, fmt.Errorf("avsync: scene %d has non-positive durations (video %.3f, audio %.3f)",
			req.Index+1, req.VideoSeconds, req.AudioSeconds)
	}

	confidence := confidenceScore(req.VideoSeconds, req.AudioSeconds)
	outPath := filepath.Join(s.workDir, fmt.Sprintf("synced_%03d.mp4", req.Index+1))

	videoPath := req.VideoPath
	audioPath := req.AudioPath
	videoSeconds := req.VideoSeconds
	flag := quality.OK

	switch {
	case math.Abs(req.VideoSeconds-req.AudioSeconds) <= durationTolerance:
		// Close enough to mux directly; the container runs to the longer
		// stream, so the narration tail survives even here.
		videoSeconds = math.Max(req.VideoSeconds, req.AudioSeconds)

	case req.AudioSeconds > req.VideoSeconds:
		// Narration runs long: hold the final frame.
		extra := req.AudioSeconds - req.VideoSeconds
		paddedPath := filepath.Join(s.workDir, fmt.Sprintf("padded_%03d.mp4", req.Index+1))
		if err := s.ffmpeg.PadVideo(ctx, videoPath, paddedPath, extra); err != nil {
			return nil, fmt.Errorf("avsync: pad scene %d video: %w", req.Index+1, err)
		}
		videoPath = paddedPath
		videoSeconds = req.AudioSeconds
		s.logger.Debug("video padded to narration",
			logging.String(logging.FieldEventType, "sync_pad_video"),
			logging.Int(logging.FieldScene, req.Index+1),
			logging.Float64("extra_seconds", extra))

	default:
		// Clip runs long: slow the narration down, bounded, then fill the
		// remainder with trailing silence.
		requiredRatio := (req.VideoSeconds - req.AudioSeconds) / req.AudioSeconds
		stretchRatio := requiredRatio
		if requiredRatio > s.maxStretch {
			stretchRatio = s.maxStretch
			flag = quality.Degraded
			s.logger.Warn("required stretch exceeds bound",
				logging.String(logging.FieldEventType, "sync_overflow"),
				logging.Int(logging.FieldScene, req.Index+1),
				logging.Float64("required_ratio", requiredRatio),
				logging.Float64("max_ratio", s.maxStretch))
		}

		stretchedSeconds := req.AudioSeconds
		if stretchRatio > 0 {
			tempo := 1.0 / (1.0 + stretchRatio)
			stretchedPath := filepath.Join(s.workDir, fmt.Sprintf("stretched_%03d%s", req.Index+1, filepath.Ext(audioPath)))
			if err := s.ffmpeg.StretchAudio(ctx, audioPath, stretchedPath, tempo); err != nil {
				return nil, fmt.Errorf("avsync: stretch scene %d audio: %w", req.Index+1, err)
			}
			audioPath = stretchedPath
			stretchedSeconds = req.AudioSeconds * (1.0 + stretchRatio)
		}

		if remainder := req.VideoSeconds - stretchedSeconds; remainder > durationTolerance {
			paddedPath := filepath.Join(s.workDir, fmt.Sprintf("padded_%03d%s", req.Index+1, filepath.Ext(audioPath)))
			if err := s.ffmpeg.PadAudio(ctx, audioPath, paddedPath, remainder); err != nil {
				return nil, fmt.Errorf("avsync: pad scene %d audio: %w", req.Index+1, err)
			}
			audioPath = paddedPath
		}
	}

	if err := s.ffmpeg.Mux(ctx, videoPath, audioPath, outPath); err != nil {
		return nil, fmt.Errorf("avsync: mux scene %d: %w", req.Index+1, err)
	}

	return &Result{
		Path:            outPath,
		DurationSeconds: videoSeconds,
		Flag:            flag,
		Confidence:      confidence,
	}, nil
}

// confidenceScore measures duration agreement as the ratio of the shorter
// to the longer duration.
func confidenceScore(videoSeconds, audioSeconds float64) float64 {
	longer := math.Max(videoSeconds, audioSeconds)
	if longer <= 0 {
		return 0
	}
	return math.Min(videoSeconds, audioSeconds) / longer
}
