package workflow

import (
	"context"

	"ansci/internal/assemble"
	"ansci/internal/audio"
	"ansci/internal/avsync"
	"ansci/internal/outline"
	"ansci/internal/qa"
	"ansci/internal/render"
	"ansci/internal/scene"
)

// OutlineAnalyzer produces the job outline.
type OutlineAnalyzer interface {
	Analyze(ctx context.Context, req outline.Request) (*outline.Outline, error)
}

// SceneComposer generates scene blocks.
type SceneComposer interface {
	Compose(ctx context.Context, req scene.Request) (*scene.Result, error)
}

// SceneReviewer validates and repairs scene code.
type SceneReviewer interface {
	Review(ctx context.Context, req scene.Request, block scene.Block) (*qa.Result, error)
}

// SceneRenderer produces clips.
type SceneRenderer interface {
	RenderScene(ctx context.Context, req render.Request) (*render.Clip, error)
}

// AudioSynthesizer produces narration tracks.
type AudioSynthesizer interface {
	SynthesizeScene(ctx context.Context, req audio.Request) (*audio.Artifact, error)
	EstimateSeconds(transcript string) float64
}

// Synchronizer reconciles and muxes clip/narration pairs.
type Synchronizer interface {
	Sync(ctx context.Context, req avsync.Request) (*avsync.Result, error)
}

// Assembler concatenates synced clips into outputs.
type Assembler interface {
	Assemble(ctx context.Context, clips []assemble.Input, opts assemble.Options) ([]string, error)
}

// Deps bundles the stage implementations the runner drives.
type Deps struct {
	Analyzer    OutlineAnalyzer
	Composer    SceneComposer
	Reviewer    SceneReviewer
	Renderer    SceneRenderer
	Synthesizer AudioSynthesizer
	Syncer      Synchronizer
	Assembler   Assembler
}
