// Package services defines shared error taxonomy and context plumbing for
// the external collaborators the pipeline depends on.
//
// The sentinels encode the propagation policy: only ErrOutlineGeneration is
// surfaced to the caller as a job failure. Every other marker is absorbed by
// the stage that encounters it and reappears only as a per-scene quality
// flag in the final report. Wrap tags errors with a marker plus
// stage/operation context so logs stay greppable.
package services
