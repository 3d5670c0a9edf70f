package services

import "context"

type contextKey string

const (
	jobIDKey      contextKey = "job_id"
	sceneIndexKey contextKey = "scene_index"
	stageKey      contextKey = "stage"
	requestIDKey  contextKey = "request_id"
)

// WithJobID annotates context with the pipeline job identifier.
func WithJobID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, jobIDKey, id)
}

// JobIDFromContext extracts the job identifier if present.
func JobIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(jobIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSceneIndex annotates context with the outline position being processed.
func WithSceneIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, sceneIndexKey, index)
}

// SceneIndexFromContext returns the scene index if present.
func SceneIndexFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(sceneIndexKey)
	if idx, ok := v.(int); ok {
		return idx, true
	}
	return 0, false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
