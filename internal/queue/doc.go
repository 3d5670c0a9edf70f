// Package queue persists generation jobs and their per-scene lifecycle in
// SQLite. Scene rows advance through a fixed status chain; the store
// rejects transitions that would skip or reverse a stage.
package queue
