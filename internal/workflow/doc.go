// Package workflow orchestrates one generation job end to end: outline,
// ordered scene composition with rolling context, bounded-parallel
// per-scene processing (review, render, narration, sync), and final
// assembly with the aggregated quality report. Only outline generation can
// fail a job; every later defect degrades into a per-scene flag.
package workflow
