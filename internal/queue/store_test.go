package queue_test

import (
	"context"
	"errors"
	"testing"

	"ansci/internal/quality"
	"ansci/internal/queue"
	"ansci/internal/testsupport"
)

func TestNewJobRoundTrip(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job, err := store.NewJob(ctx, "Fourier Series", "core_concepts", "single", 0)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if job.ID == "" {
		t.Fatal("job id missing")
	}
	if job.Status != queue.JobPending {
		t.Fatalf("expected pending, got %s", job.Status)
	}

	fetched, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if fetched == nil || fetched.Title != "Fourier Series" || fetched.Scope != "core_concepts" {
		t.Fatalf("unexpected job %+v", fetched)
	}

	missing, err := store.GetJob(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("missing job should be nil, got %+v err %v", missing, err)
	}
}

func TestJobStatusAndReport(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job, err := store.NewJob(ctx, "demo", "core_concepts", "single", 0)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := store.UpdateJobStatus(ctx, job.ID, queue.JobRunning, ""); err != nil {
		t.Fatalf("to running: %v", err)
	}
	if err := store.SetJobReport(ctx, job.ID, `{"overall":"OK"}`); err != nil {
		t.Fatalf("set report: %v", err)
	}
	if err := store.UpdateJobStatus(ctx, job.ID, queue.JobCompleted, ""); err != nil {
		t.Fatalf("to completed: %v", err)
	}

	fetched, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if fetched.Status != queue.JobCompleted {
		t.Fatalf("expected completed, got %s", fetched.Status)
	}
	if fetched.ReportJSON != `{"overall":"OK"}` {
		t.Fatalf("report not stored: %q", fetched.ReportJSON)
	}

	if err := store.UpdateJobStatus(ctx, "nope", queue.JobFailed, "boom"); err == nil {
		t.Fatal("expected error for unknown job")
	}
}

func TestSceneLifecycle(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job, err := store.NewJob(ctx, "demo", "core_concepts", "single", 0)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := store.InsertScenes(ctx, job.ID, []string{"Intro", "Detail", "Outro"}); err != nil {
		t.Fatalf("insert scenes: %v", err)
	}

	scenes, err := store.Scenes(ctx, job.ID)
	if err != nil {
		t.Fatalf("scenes: %v", err)
	}
	if len(scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(scenes))
	}
	for i, scene := range scenes {
		if scene.Index != i {
			t.Fatalf("scene order broken: %+v", scene)
		}
		if scene.Status != queue.ScenePending {
			t.Fatalf("expected pending, got %s", scene.Status)
		}
	}

	if err := store.TransitionScene(ctx, job.ID, 0, queue.SceneComposing); err != nil {
		t.Fatalf("to composing: %v", err)
	}
	if err := store.TransitionScene(ctx, job.ID, 0, queue.SceneComposed); err != nil {
		t.Fatalf("to composed: %v", err)
	}

	// Skipping a stage is rejected.
	err = store.TransitionScene(ctx, job.ID, 0, queue.SceneRendered)
	if !errors.Is(err, queue.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	// So is moving backwards.
	err = store.TransitionScene(ctx, job.ID, 0, queue.SceneComposing)
	if !errors.Is(err, queue.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	if err := store.UpdateSceneArtifacts(ctx, job.ID, 0, queue.SceneArtifacts{
		ClipPath:    "scene_001.mp4",
		ClipSeconds: 31.5,
	}); err != nil {
		t.Fatalf("update artifacts: %v", err)
	}
	if err := store.UpdateSceneArtifacts(ctx, job.ID, 0, queue.SceneArtifacts{
		AudioPath:    "narration_001.mp3",
		AudioSeconds: 30.0,
	}); err != nil {
		t.Fatalf("update artifacts: %v", err)
	}
	if err := store.SetSceneFlag(ctx, job.ID, 0, quality.Repaired); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	scenes, err = store.Scenes(ctx, job.ID)
	if err != nil {
		t.Fatalf("scenes: %v", err)
	}
	first := scenes[0]
	if first.ClipPath != "scene_001.mp4" || first.ClipSeconds != 31.5 {
		t.Fatalf("clip fields lost: %+v", first)
	}
	if first.AudioPath != "narration_001.mp3" || first.AudioSeconds != 30.0 {
		t.Fatalf("audio fields lost: %+v", first)
	}
	if first.Flag != quality.Repaired {
		t.Fatalf("flag not stored: %+v", first)
	}
}

func TestListJobsNewestFirstAndDelete(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first, err := store.NewJob(ctx, "first", "core_concepts", "single", 0)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	second, err := store.NewJob(ctx, "second", "core_concepts", "single", 0)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	jobs, err := store.ListJobs(ctx)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != second.ID {
		t.Fatalf("expected newest first, got %s", jobs[0].Title)
	}

	if err := store.InsertScenes(ctx, first.ID, []string{"only"}); err != nil {
		t.Fatalf("insert scenes: %v", err)
	}
	if err := store.DeleteJob(ctx, first.ID); err != nil {
		t.Fatalf("delete job: %v", err)
	}
	if scenes, err := store.Scenes(ctx, first.ID); err != nil || len(scenes) != 0 {
		t.Fatalf("scenes should cascade on delete: %v %v", scenes, err)
	}
}

func TestCanTransitionChain(t *testing.T) {
	if !queue.CanTransition(queue.ScenePending, queue.SceneComposing) {
		t.Fatal("pending -> composing must be allowed")
	}
	if !queue.CanTransition(queue.SceneSynced, queue.SceneAssembled) {
		t.Fatal("synced -> assembled must be allowed")
	}
	if queue.CanTransition(queue.ScenePending, queue.SceneComposed) {
		t.Fatal("skipping composing must be rejected")
	}
	if queue.CanTransition(queue.SceneAssembled, queue.ScenePending) {
		t.Fatal("reversing must be rejected")
	}
	if queue.CanTransition(queue.SceneStatus("bogus"), queue.SceneComposing) {
		t.Fatal("unknown status must be rejected")
	}
}
