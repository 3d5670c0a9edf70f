package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOutlineGeneration is the single fatal pipeline error. A job that
	// cannot produce a valid outline produces no output at all.
	ErrOutlineGeneration = errors.New("outline generation error")

	// ErrSceneGeneration marks recoverable scene composition failures.
	ErrSceneGeneration = errors.New("scene generation error")

	// ErrValidation marks animation code that failed static layout checks.
	ErrValidation = errors.New("validation violation")

	// ErrRenderFailure marks render engine failures recovered via fallback clips.
	ErrRenderFailure = errors.New("render failure")

	// ErrAudioFailure marks speech synthesis failures recovered via fallback audio.
	ErrAudioFailure = errors.New("audio failure")

	// ErrSyncOverflow marks duration reconciliation that exceeded the stretch bound.
	ErrSyncOverflow = errors.New("sync overflow")

	ErrExternalTool  = errors.New("external tool error")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error must fail the whole job. Every condition
// other than outline generation degrades to a per-scene quality flag.
func IsFatal(err error) bool {
	return errors.Is(err, ErrOutlineGeneration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
