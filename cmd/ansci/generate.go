package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"ansci/internal/assemble"
	"ansci/internal/audio"
	"ansci/internal/avsync"
	"ansci/internal/cachestore"
	"ansci/internal/config"
	"ansci/internal/media/ffmpeg"
	"ansci/internal/media/ffprobe"
	"ansci/internal/outline"
	"ansci/internal/persona"
	"ansci/internal/qa"
	"ansci/internal/queue"
	"ansci/internal/render"
	"ansci/internal/scene"
	"ansci/internal/services/llm"
	"ansci/internal/services/tts"
	"ansci/internal/workflow"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		titleFlag    string
		scopeFlag    string
		steeringFlag string
		personaFlag  string
		splitFlag    string
		groupsFlag   int
	)

	cmd := &cobra.Command{
		Use:   "generate <document>",
		Short: "Generate a narrated animation video from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			scope, err := outline.ParseScope(scopeFlag)
			if err != nil {
				return err
			}

			docPath, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve document path: %w", err)
			}
			document, err := os.ReadFile(docPath)
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			lock := flock.New(filepath.Join(cfg.Paths.LogDir, "ansci.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire workspace lock: %w", err)
			}
			if !locked {
				return errors.New("another generation is already running against this workspace")
			}
			defer func() {
				_ = lock.Unlock()
			}()

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			req := workflow.JobRequest{
				Document:  document,
				Title:     strings.TrimSpace(titleFlag),
				Scope:     scope,
				Steering:  strings.TrimSpace(steeringFlag),
				Persona:   strings.TrimSpace(personaFlag),
				SplitMode: strings.TrimSpace(splitFlag),
				Groups:    groupsFlag,
			}

			result, err := runGeneration(runCtx, cfg, logger, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job %s completed\n", result.JobID)
			for _, output := range result.Outputs {
				fmt.Fprintf(out, "  %s\n", output)
			}
			if result.Report != nil {
				fmt.Fprintln(out)
				fmt.Fprint(out, renderReportTable(result.Report))
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&titleFlag, "title", "", "Override the generated video title")
	cmd.Flags().StringVar(&scopeFlag, "scope", "", "Outline scope: summary, concepts, or walkthrough")
	cmd.Flags().StringVar(&steeringFlag, "steering", "", "Free-form guidance for outline generation")
	cmd.Flags().StringVar(&personaFlag, "persona", "", "Narration persona preset")
	cmd.Flags().StringVar(&splitFlag, "split", "", "Output split mode: single, per-scene, or groups")
	cmd.Flags().IntVar(&groupsFlag, "groups", 0, "Number of output parts when --split=groups")

	return cmd
}

func runGeneration(ctx context.Context, cfg *config.Config, logger *slog.Logger, req workflow.JobRequest) (*workflow.JobResult, error) {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		return nil, errors.New("llm api_key is not configured (set llm.api_key or export ANSCI_LLM_API_KEY)")
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	var cache *cachestore.Store
	if cfg.Cache.Enabled {
		cache, err = cachestore.Open(filepath.Join(cfg.Paths.CacheDir, "cache.db"), logger)
		if err != nil {
			return nil, err
		}
		defer cache.Close()
	}

	personas, err := persona.Load(cfg.Paths.PersonasPath)
	if err != nil {
		return nil, err
	}

	llmClient := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})

	var speech audio.Speech
	if strings.TrimSpace(cfg.TTS.APIKey) != "" {
		speech = tts.NewClient(tts.Config{
			APIKey:         cfg.TTS.APIKey,
			BaseURL:        cfg.TTS.BaseURL,
			Voice:          cfg.TTS.Voice,
			TimeoutSeconds: cfg.TTS.TimeoutSeconds,
		})
	}

	var local audio.LocalSynth
	if strings.TrimSpace(cfg.TTS.LocalBinary) != "" {
		local = audio.NewExecLocalSynth(cfg.TTS.LocalBinary)
	}

	runner := ffmpeg.NewExecRunner(cfg.Render.FFmpegBinary)
	prober := ffprobe.BinaryProber{Binary: cfg.Render.FFprobeBinary}
	engine := render.NewExecEngine(cfg.Render.EngineBinary)
	workDir := cfg.Paths.WorkspaceDir

	composer := scene.NewComposer(cfg, llmClient, cache, logger)
	deps := workflow.Deps{
		Analyzer:    outline.NewAnalyzer(cfg, llmClient, cache, logger),
		Composer:    composer,
		Reviewer:    qa.NewChecker(cfg, composer, logger),
		Renderer:    render.NewRenderer(cfg, engine, runner, prober, workDir, logger),
		Synthesizer: audio.NewSynthesizer(cfg, speech, local, runner, prober, workDir, logger),
		Syncer:      avsync.NewSynchronizer(cfg, runner, workDir, logger),
		Assembler:   assemble.NewAssembler(cfg, runner, cfg.Paths.OutputDir, logger),
	}

	return workflow.NewRunner(cfg, store, deps, personas, logger).Run(ctx, req)
}
