package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ansci/internal/config"
	"ansci/internal/logging"
	"ansci/internal/media/ffmpeg"
	"ansci/internal/media/ffprobe"
	"ansci/internal/quality"
)

// Artifact is a narration track for one scene.
type Artifact struct {
	Path            string
	DurationSeconds float64
	Flag            quality.Flag
}

// Speech is the remote synthesis contract, satisfied by the tts client.
type Speech interface {
	Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error)
}

// Request describes one scene narration.
type Request struct {
	Index      int
	Transcript string
	// Voice overrides the configured voice when set.
	Voice string
	// Speed is the persona speaking-rate multiplier; non-positive means
	// normal speed.
	Speed float64
}

// Synthesizer walks the narration fallback chain.
type Synthesizer struct {
	speech         Speech
	local          LocalSynth
	ffmpeg         ffmpeg.Runner
	prober         ffprobe.Prober
	voice          string
	wordsPerSecond float64
	workDir        string
	logger         *slog.Logger
}

// NewSynthesizer wires the synthesizer. speech and local may be nil to
// skip those rungs of the chain.
func NewSynthesizer(cfg *config.Config, speech Speech, local LocalSynth, runner ffmpeg.Runner, prober ffprobe.Prober, workDir string, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	voice := "leah"
	wordsPerSecond := 2.5
	if cfg != nil {
		if cfg.TTS.Voice != "" {
			voice = cfg.TTS.Voice
		}
		if cfg.TTS.WordsPerSecond > 0 {
			wordsPerSecond = cfg.TTS.WordsPerSecond
		}
	}
	return &Synthesizer{
		speech:         speech,
		local:          local,
		ffmpeg:         runner,
		prober:         prober,
		voice:          voice,
		wordsPerSecond: wordsPerSecond,
		workDir:        workDir,
		logger:         logging.NewComponentLogger(logger, "audio"),
	}
}

// EstimateSeconds converts a transcript to an expected speaking duration at
// the configured rate.
func (s *Synthesizer) EstimateSeconds(transcript string) float64 {
	words := len(strings.Fields(transcript))
	if words == 0 {
		return 1
	}
	return float64(words) / s.wordsPerSecond
}

// SynthesizeScene produces a narration artifact for the scene, degrading
// through the chain instead of failing. An error is returned only when
// even the silent track cannot be produced or the context is done.
func (s *Synthesizer) SynthesizeScene(ctx context.Context, req Request) (*Artifact, error) {
	voice := req.Voice
	if voice == "" {
		voice = s.voice
	}
	speed := req.Speed
	if speed <= 0 {
		speed = 1.0
	}
	estimate := s.EstimateSeconds(req.Transcript)

	if s.speech != nil {
		audioPath := filepath.Join(s.workDir, fmt.Sprintf("narration_%03d.mp3", req.Index+1))
		payload, err := s.speech.Synthesize(ctx, req.Transcript, voice, speed)
		if err == nil {
			if writeErr := os.WriteFile(audioPath, payload, 0o644); writeErr == nil {
				duration, probeErr := s.prober.Duration(ctx, audioPath)
				if probeErr == nil {
					return &Artifact{Path: audioPath, DurationSeconds: duration, Flag: quality.OK}, nil
				}
				err = probeErr
			} else {
				err = writeErr
			}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("speech api failed, trying local synthesizer",
			logging.String(logging.FieldEventType, "audio_api_failed"),
			logging.Int(logging.FieldScene, req.Index+1),
			logging.Error(err))
	}

	if s.local != nil {
		audioPath := filepath.Join(s.workDir, fmt.Sprintf("narration_%03d.wav", req.Index+1))
		err := s.local.Synthesize(ctx, req.Transcript, audioPath)
		if err == nil {
			duration, probeErr := s.prober.Duration(ctx, audioPath)
			if probeErr == nil {
				return &Artifact{Path: audioPath, DurationSeconds: duration, Flag: quality.Fallback}, nil
			}
			err = probeErr
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("local synthesizer failed, emitting silence",
			logging.String(logging.FieldEventType, "audio_local_failed"),
			logging.Int(logging.FieldScene, req.Index+1),
			logging.Error(err))
	}

	audioPath := filepath.Join(s.workDir, fmt.Sprintf("narration_%03d_silence.m4a", req.Index+1))
	if err := s.ffmpeg.SilentTrack(ctx, audioPath, estimate); err != nil {
		return nil, err
	}
	s.logger.Warn("scene narration is silent",
		logging.String(logging.FieldEventType, "audio_silent"),
		logging.Int(logging.FieldScene, req.Index+1),
		logging.Float64("estimated_seconds", estimate))
	return &Artifact{Path: audioPath, DurationSeconds: estimate, Flag: quality.AudioSilent}, nil
}
