package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"ansci/internal/assemble"
	"ansci/internal/audio"
	"ansci/internal/avsync"
	"ansci/internal/config"
	"ansci/internal/logging"
	"ansci/internal/outline"
	"ansci/internal/persona"
	"ansci/internal/quality"
	"ansci/internal/queue"
	"ansci/internal/render"
	"ansci/internal/scene"
	"ansci/internal/services"
	"ansci/internal/services/llm"
)

// JobRequest describes one generation run.
type JobRequest struct {
	Document []byte
	// Title overrides the outline's own title for output naming when set.
	Title    string
	Scope    outline.Scope
	Steering string
	// History carries prior conversation turns into outline generation.
	History   []llm.Message
	Persona   string
	SplitMode string
	Groups    int
}

// JobResult is the completed job with its report and outputs.
type JobResult struct {
	JobID   string
	Outline *outline.Outline
	Report  *assemble.Report
	Outputs []string
}

// Runner executes jobs against the persisted queue.
type Runner struct {
	cfg      *config.Config
	store    *queue.Store
	deps     Deps
	personas *persona.Registry
	logger   *slog.Logger
}

// NewRunner builds a job runner. personas may be nil when no presets are
// loaded.
func NewRunner(cfg *config.Config, store *queue.Store, deps Deps, personas *persona.Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:      cfg,
		store:    store,
		deps:     deps,
		personas: personas,
		logger:   logging.NewComponentLogger(logger, "workflow"),
	}
}

// sceneState carries one scene's artifacts between stages.
type sceneState struct {
	index      int
	title      string
	block      scene.Block
	flag       quality.Flag
	confidence float64
	notes      []string
	syncedPath string
	seconds    float64
}

// Run executes the job to completion. The only failure mode besides
// environmental breakage is outline generation; scene-level trouble
// degrades into quality flags. Cancellation finishes in-flight scene work,
// persists the cancelled status, and produces no output.
func (r *Runner) Run(ctx context.Context, req JobRequest) (*JobResult, error) {
	// Job bookkeeping outlives cancellation so the final status is always
	// recorded.
	job, err := r.store.NewJob(context.WithoutCancel(ctx), req.Title, string(req.Scope), req.SplitMode, req.Groups)
	if err != nil {
		return nil, fmt.Errorf("workflow: create job: %w", err)
	}
	ctx = services.WithJobID(ctx, job.ID)
	logger := r.logger.With(logging.String(logging.FieldJobID, job.ID))

	if err := r.store.UpdateJobStatus(context.WithoutCancel(ctx), job.ID, queue.JobRunning, ""); err != nil {
		return nil, fmt.Errorf("workflow: start job: %w", err)
	}

	result, runErr := r.run(ctx, job.ID, req, logger)
	switch {
	case runErr == nil:
		if err := r.store.UpdateJobStatus(context.WithoutCancel(ctx), job.ID, queue.JobCompleted, ""); err != nil {
			return nil, fmt.Errorf("workflow: complete job: %w", err)
		}
		return result, nil
	case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
		_ = r.store.UpdateJobStatus(context.WithoutCancel(ctx), job.ID, queue.JobCancelled, "")
		logger.Info("job cancelled",
			logging.String(logging.FieldEventType, "job_cancelled"))
		return nil, runErr
	default:
		_ = r.store.UpdateJobStatus(context.WithoutCancel(ctx), job.ID, queue.JobFailed, runErr.Error())
		logger.Error("job failed",
			logging.String(logging.FieldEventType, "job_failed"),
			logging.Error(runErr))
		return nil, runErr
	}
}

func (r *Runner) run(ctx context.Context, jobID string, req JobRequest, logger *slog.Logger) (*JobResult, error) {
	plan, err := r.deps.Analyzer.Analyze(ctx, outline.Request{
		Document: req.Document,
		Scope:    req.Scope,
		Steering: req.Steering,
		History:  req.History,
	})
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = plan.Title
	}

	titles := make([]string, len(plan.Blocks))
	for i, block := range plan.Blocks {
		titles[i] = block.Title
	}
	if err := r.store.InsertScenes(ctx, jobID, titles); err != nil {
		return nil, fmt.Errorf("workflow: persist scenes: %w", err)
	}

	logger.Info("outline ready",
		logging.String(logging.FieldEventType, "outline_ready"),
		logging.Int("scenes", len(plan.Blocks)))

	personaStyle, personaVoice, personaSpeed := r.resolvePersona(req.Persona)

	states := make([]*sceneState, len(plan.Blocks))
	accumulator := scene.NewAccumulator()

	group, groupCtx := errgroup.WithContext(ctx)
	workers := r.cfg.Workflow.Workers
	if workers < 1 {
		workers = 1
	}
	group.SetLimit(workers)

	// Compositions run here, strictly in outline order, so each scene sees
	// the rolling context of everything before it. The per-scene tail
	// (review, render, narration, sync) fans out to the pool.
	for i, block := range plan.Blocks {
		if groupCtx.Err() != nil {
			break
		}
		sceneReq := scene.Request{
			Index:   i,
			Block:   block,
			Scope:   req.Scope,
			Context: accumulator.Context(),
			Persona: personaStyle,
		}

		state := r.composeScene(groupCtx, jobID, sceneReq, logger)
		states[i] = state
		accumulator.Fold(i, block.Title, state.block.Transcript)

		group.Go(func() error {
			return r.processScene(groupCtx, jobID, sceneReq, state, personaVoice, personaSpeed, logger)
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := r.assemble(ctx, jobID, title, req, states, logger)
	if err != nil {
		return nil, err
	}
	result.Outline = plan
	return result, nil
}

// composeScene generates one scene, degrading to a text-only fallback block
// when composition fails outright.
func (r *Runner) composeScene(ctx context.Context, jobID string, req scene.Request, logger *slog.Logger) *sceneState {
	state := &sceneState{index: req.Index, title: req.Block.Title, flag: quality.OK, confidence: 1}

	r.transition(ctx, jobID, req.Index, queue.SceneComposing, logger)
	result, err := r.deps.Composer.Compose(ctx, req)
	if err != nil {
		// The scene survives as narration over a title card.
		state.block = scene.Block{Transcript: fallbackTranscript(req.Block)}
		state.flag = quality.Fallback
		state.notes = append(state.notes, "composition failed: "+err.Error())
		logger.Warn("scene composition failed, using fallback",
			logging.String(logging.FieldEventType, "scene_compose_fallback"),
			logging.Int(logging.FieldScene, req.Index+1),
			logging.Error(err))
	} else {
		state.block = result.Block
		state.flag = result.Flag
	}
	r.transition(ctx, jobID, req.Index, queue.SceneComposed, logger)
	return state
}

// processScene carries one composed scene through review, render, audio,
// and sync.
func (r *Runner) processScene(ctx context.Context, jobID string, req scene.Request, state *sceneState, voice string, speed float64, logger *slog.Logger) error {
	ctx = services.WithSceneIndex(ctx, state.index)

	r.transition(ctx, jobID, state.index, queue.SceneValidating, logger)
	if strings.TrimSpace(state.block.Code) != "" {
		review, err := r.deps.Reviewer.Review(ctx, req, state.block)
		if err != nil {
			return err
		}
		state.block = review.Block
		state.flag = quality.Worse(state.flag, review.Flag)
		state.notes = append(state.notes, review.Violations...)
	}
	r.transition(ctx, jobID, state.index, queue.SceneValidated, logger)

	narrationEstimate := r.deps.Synthesizer.EstimateSeconds(state.block.Transcript)

	// Render and narration are independent; run them side by side. The
	// audio goroutine only reads the state and reports through the
	// channel; flags merge after the join.
	type audioOutcome struct {
		artifact *audio.Artifact
		err      error
	}
	audioCh := make(chan audioOutcome, 1)
	transcript := state.block.Transcript
	go func() {
		artifact, err := r.deps.Synthesizer.SynthesizeScene(ctx, audio.Request{
			Index:      state.index,
			Transcript: transcript,
			Voice:      voice,
			Speed:      speed,
		})
		audioCh <- audioOutcome{artifact: artifact, err: err}
	}()

	r.transition(ctx, jobID, state.index, queue.SceneRendering, logger)
	clip, renderErr := r.deps.Renderer.RenderScene(ctx, render.Request{
		Index:           state.index,
		Title:           state.title,
		Block:           state.block,
		FallbackSeconds: narrationEstimate,
	})
	audioRes := <-audioCh
	if renderErr != nil {
		return renderErr
	}
	if audioRes.err != nil {
		return audioRes.err
	}
	state.flag = quality.Worse(state.flag, clip.Flag)
	state.flag = quality.Worse(state.flag, audioRes.artifact.Flag)
	r.transition(ctx, jobID, state.index, queue.SceneRendered, logger)
	r.transition(ctx, jobID, state.index, queue.SceneSynthesizing, logger)
	r.transition(ctx, jobID, state.index, queue.SceneSynthesized, logger)

	if err := r.store.UpdateSceneArtifacts(ctx, jobID, state.index, queue.SceneArtifacts{
		ClipPath:     clip.Path,
		ClipSeconds:  clip.DurationSeconds,
		AudioPath:    audioRes.artifact.Path,
		AudioSeconds: audioRes.artifact.DurationSeconds,
	}); err != nil {
		logger.Warn("scene artifact update failed",
			logging.String(logging.FieldEventType, "scene_persist_failed"),
			logging.Int(logging.FieldScene, state.index+1),
			logging.Error(err))
	}

	r.transition(ctx, jobID, state.index, queue.SceneSyncing, logger)
	synced, err := r.deps.Syncer.Sync(ctx, avsync.Request{
		Index:        state.index,
		VideoPath:    clip.Path,
		VideoSeconds: clip.DurationSeconds,
		AudioPath:    audioRes.artifact.Path,
		AudioSeconds: audioRes.artifact.DurationSeconds,
	})
	if err != nil {
		return err
	}
	state.flag = quality.Worse(state.flag, synced.Flag)
	state.confidence = synced.Confidence
	state.syncedPath = synced.Path
	state.seconds = synced.DurationSeconds
	r.transition(ctx, jobID, state.index, queue.SceneSynced, logger)

	if err := r.store.UpdateSceneArtifacts(ctx, jobID, state.index, queue.SceneArtifacts{
		SyncedPath:   synced.Path,
		FinalSeconds: synced.DurationSeconds,
	}); err != nil {
		logger.Warn("scene artifact update failed",
			logging.String(logging.FieldEventType, "scene_persist_failed"),
			logging.Int(logging.FieldScene, state.index+1),
			logging.Error(err))
	}
	if err := r.store.SetSceneFlag(ctx, jobID, state.index, state.flag); err != nil {
		logger.Warn("scene flag update failed",
			logging.String(logging.FieldEventType, "scene_persist_failed"),
			logging.Int(logging.FieldScene, state.index+1),
			logging.Error(err))
	}
	return nil
}

func (r *Runner) assemble(ctx context.Context, jobID, title string, req JobRequest, states []*sceneState, logger *slog.Logger) (*JobResult, error) {
	inputs := make([]assemble.Input, len(states))
	outcomes := make([]assemble.SceneOutcome, len(states))
	for i, state := range states {
		r.transition(ctx, jobID, i, queue.SceneAssembled, logger)
		inputs[i] = assemble.Input{
			Index:           i,
			Title:           state.title,
			Path:            state.syncedPath,
			DurationSeconds: state.seconds,
			Flag:            state.flag,
			Confidence:      state.confidence,
		}
		outcomes[i] = assemble.SceneOutcome{
			Index:           i,
			Title:           state.title,
			Flag:            state.flag,
			DurationSeconds: state.seconds,
			Confidence:      state.confidence,
			Notes:           state.notes,
		}
	}

	mode := req.SplitMode
	if mode == "" {
		mode = r.cfg.Assembly.SplitMode
	}
	groups := req.Groups
	if groups == 0 {
		groups = r.cfg.Assembly.Groups
	}

	outputs, err := r.deps.Assembler.Assemble(ctx, inputs, assemble.Options{
		Mode:     mode,
		Groups:   groups,
		BaseName: title,
	})
	if err != nil {
		return nil, err
	}

	report := assemble.BuildReport(title, outcomes, outputs)
	if payload, marshalErr := json.Marshal(report); marshalErr == nil {
		if err := r.store.SetJobReport(ctx, jobID, string(payload)); err != nil {
			logger.Warn("report persist failed",
				logging.String(logging.FieldEventType, "report_persist_failed"),
				logging.Error(err))
		}
	}

	logger.Info("job complete",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String(logging.FieldQuality, string(report.Overall)),
		logging.Int("outputs", len(outputs)))

	return &JobResult{JobID: jobID, Report: report, Outputs: outputs}, nil
}

func (r *Runner) resolvePersona(name string) (style, voice string, speed float64) {
	if name == "" {
		name = r.cfg.TTS.Persona
	}
	if r.personas == nil {
		return "", "", 0
	}
	p, ok := r.personas.Lookup(name)
	if !ok {
		return "", "", 0
	}
	return p.Style, p.Voice, p.Speed
}

// transition advances the persisted scene status; persistence trouble is
// logged rather than propagated so it cannot fail a job.
func (r *Runner) transition(ctx context.Context, jobID string, index int, to queue.SceneStatus, logger *slog.Logger) {
	if err := r.store.TransitionScene(context.WithoutCancel(ctx), jobID, index, to); err != nil {
		logger.Warn("scene transition failed",
			logging.String(logging.FieldEventType, "scene_transition_failed"),
			logging.Int(logging.FieldScene, index+1),
			logging.String("to", string(to)),
			logging.Error(err))
	}
}

// fallbackTranscript trims the outline block text into something speakable.
func fallbackTranscript(block outline.Block) string {
	text := strings.Join(strings.Fields(block.Text), " ")
	const limit = 800
	if len(text) > limit {
		if idx := strings.LastIndexByte(text[:limit], '.'); idx > limit/2 {
			text = text[:idx+1]
		} else {
			text = text[:limit]
		}
	}
	if text == "" {
		return block.Title
	}
	return text
}
