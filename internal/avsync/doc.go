// Package avsync reconciles scene clip and narration durations before
// muxing. Narration is never truncated: video is padded when audio runs
// long, and audio is stretched within a bounded ratio then padded with
// silence when video runs long.
package avsync
