package services_test

import (
	"errors"
	"strings"
	"testing"

	"ansci/internal/services"
)

func TestWrapIncludesStageContext(t *testing.T) {
	err := services.Wrap(services.ErrRenderFailure, "render", "invoke engine", "exit status 1", errors.New("boom"))
	if !errors.Is(err, services.ErrRenderFailure) {
		t.Fatalf("expected render failure marker, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"render", "invoke engine", "exit status 1", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("error message %q missing %q", msg, fragment)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "audio", "synthesize", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	fatal := services.Wrap(services.ErrOutlineGeneration, "outline", "generate", "schema invalid after retries", nil)
	if !services.IsFatal(fatal) {
		t.Fatal("outline generation errors must be fatal")
	}
	for _, marker := range []error{
		services.ErrSceneGeneration,
		services.ErrValidation,
		services.ErrRenderFailure,
		services.ErrAudioFailure,
		services.ErrSyncOverflow,
	} {
		if services.IsFatal(services.Wrap(marker, "stage", "op", "", nil)) {
			t.Fatalf("%v must not be fatal", marker)
		}
	}
}
