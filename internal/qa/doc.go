// Package qa statically checks generated animation code before it reaches
// the renderer: scene structure, coordinate bounds, and estimated text
// overlap. Violations trigger one repair regeneration, then either literal
// clamping or accepted degradation. QA never fails a job.
package qa
