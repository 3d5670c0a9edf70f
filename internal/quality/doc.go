// Package quality defines the per-scene quality flags the pipeline uses to
// report recoverable degradation. Flags are values carried through the
// report, never errors.
package quality
