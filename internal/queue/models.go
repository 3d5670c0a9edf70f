package queue

import (
	"time"

	"ansci/internal/quality"
)

// JobStatus tracks the whole job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// SceneStatus tracks one scene through the pipeline.
type SceneStatus string

const (
	ScenePending      SceneStatus = "pending"
	SceneComposing    SceneStatus = "composing"
	SceneComposed     SceneStatus = "composed"
	SceneValidating   SceneStatus = "validating"
	SceneValidated    SceneStatus = "validated"
	SceneRendering    SceneStatus = "rendering"
	SceneRendered     SceneStatus = "rendered"
	SceneSynthesizing SceneStatus = "synthesizing"
	SceneSynthesized  SceneStatus = "synthesized"
	SceneSyncing      SceneStatus = "syncing"
	SceneSynced       SceneStatus = "synced"
	SceneAssembled    SceneStatus = "assembled"
)

// sceneOrder gives each status its position in the chain.
var sceneOrder = map[SceneStatus]int{
	ScenePending:      0,
	SceneComposing:    1,
	SceneComposed:     2,
	SceneValidating:   3,
	SceneValidated:    4,
	SceneRendering:    5,
	SceneRendered:     6,
	SceneSynthesizing: 7,
	SceneSynthesized:  8,
	SceneSyncing:      9,
	SceneSynced:       10,
	SceneAssembled:    11,
}

// CanTransition reports whether a scene may move from one status to the
// next. Only single forward steps are allowed.
func CanTransition(from, to SceneStatus) bool {
	fromOrder, okFrom := sceneOrder[from]
	toOrder, okTo := sceneOrder[to]
	return okFrom && okTo && toOrder == fromOrder+1
}

// Job is one generation request.
type Job struct {
	ID         string
	Title      string
	Scope      string
	SplitMode  string
	Groups     int
	Status     JobStatus
	ErrorMsg   string
	ReportJSON string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Scene is one outline block's persisted progress.
type Scene struct {
	JobID        string
	Index        int
	Title        string
	Status       SceneStatus
	Flag         quality.Flag
	ClipPath     string
	AudioPath    string
	SyncedPath   string
	ClipSeconds  float64
	AudioSeconds float64
	FinalSeconds float64
	UpdatedAt    time.Time
}
