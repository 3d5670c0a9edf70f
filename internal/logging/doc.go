// Package logging wires log/slog with console and JSON handlers plus the
// standardized field keys used across the pipeline. Component loggers carry
// a component attribute; WithContext folds job/scene/stage identifiers from
// the request context into every record.
package logging
