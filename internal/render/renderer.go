package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ansci/internal/config"
	"ansci/internal/logging"
	"ansci/internal/media/ffmpeg"
	"ansci/internal/media/ffprobe"
	"ansci/internal/quality"
	"ansci/internal/scene"
	"ansci/internal/services"
)

// Clip is a rendered scene artifact.
type Clip struct {
	Path            string
	DurationSeconds float64
	Flag            quality.Flag
}

// Request describes one scene render.
type Request struct {
	Index int
	Title string
	Block scene.Block
	// FallbackSeconds sizes the title card when the engine fails; it is
	// the estimated narration duration for the scene.
	FallbackSeconds float64
}

// Renderer drives the engine with a per-call timeout, one retry, and the
// title-card fallback.
type Renderer struct {
	engine  Engine
	ffmpeg  ffmpeg.Runner
	prober  ffprobe.Prober
	workDir string
	width   int
	height  int
	fps     int
	timeout time.Duration
	logger  *slog.Logger
}

// NewRenderer wires the renderer to the engine, the media runner, and the
// prober. workDir receives the generated code files and clips.
func NewRenderer(cfg *config.Config, engine Engine, runner ffmpeg.Runner, prober ffprobe.Prober, workDir string, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = logging.NewNop()
	}
	width, height := 1920, 1080
	fps := 30
	timeout := 10 * time.Minute
	if cfg != nil {
		width, height = cfg.ResolutionDimensions()
		if cfg.Render.FPS > 0 {
			fps = cfg.Render.FPS
		}
		if cfg.Render.TimeoutSeconds > 0 {
			timeout = time.Duration(cfg.Render.TimeoutSeconds) * time.Second
		}
	}
	return &Renderer{
		engine:  engine,
		ffmpeg:  runner,
		prober:  prober,
		workDir: workDir,
		width:   width,
		height:  height,
		fps:     fps,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "render"),
	}
}

// RenderScene produces a clip for the scene. The engine gets two attempts
// under the per-call timeout; after that a title card stands in and the
// clip is flagged FALLBACK. An error is returned only when the fallback
// itself cannot be produced.
func (r *Renderer) RenderScene(ctx context.Context, req Request) (*Clip, error) {
	codePath := filepath.Join(r.workDir, fmt.Sprintf("scene_%03d.py", req.Index+1))
	clipPath := filepath.Join(r.workDir, fmt.Sprintf("scene_%03d.mp4", req.Index+1))

	if err := os.WriteFile(codePath, []byte(req.Block.Code), 0o644); err != nil {
		return nil, services.Wrap(services.ErrRenderFailure, "render", "write_code",
			fmt.Sprintf("write scene %d code", req.Index+1), err)
	}

	var engineErr error
	for attempt := 1; attempt <= 2; attempt++ {
		engineErr = r.renderOnce(ctx, codePath, clipPath)
		if engineErr == nil {
			duration, err := r.prober.Duration(ctx, clipPath)
			if err != nil {
				engineErr = fmt.Errorf("probe rendered clip: %w", err)
				break
			}
			return &Clip{Path: clipPath, DurationSeconds: duration, Flag: quality.OK}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("engine render failed",
			logging.String(logging.FieldEventType, "render_attempt_failed"),
			logging.Int(logging.FieldScene, req.Index+1),
			logging.Int("attempt", attempt),
			logging.Error(engineErr))
	}

	return r.fallbackCard(ctx, req, clipPath, engineErr)
}

func (r *Renderer) renderOnce(ctx context.Context, codePath, clipPath string) error {
	renderCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.engine.Render(renderCtx, codePath, clipPath, r.width, r.height, r.fps)
}

// fallbackCard renders a static title card sized to the narration estimate.
func (r *Renderer) fallbackCard(ctx context.Context, req Request, clipPath string, engineErr error) (*Clip, error) {
	seconds := req.FallbackSeconds
	if seconds <= 0 {
		seconds = 5
	}
	title := req.Title
	if title == "" {
		title = fmt.Sprintf("Scene %d", req.Index+1)
	}

	if err := r.ffmpeg.TitleCard(ctx, clipPath, title, r.width, r.height, r.fps, seconds); err != nil {
		return nil, services.Wrap(services.ErrRenderFailure, "render", "fallback",
			fmt.Sprintf("scene %d title card after engine failure (%v)", req.Index+1, engineErr), err)
	}

	r.logger.Warn("scene fell back to title card",
		logging.String(logging.FieldEventType, "render_fallback"),
		logging.Int(logging.FieldScene, req.Index+1),
		logging.Error(engineErr))

	return &Clip{Path: clipPath, DurationSeconds: seconds, Flag: quality.Fallback}, nil
}
