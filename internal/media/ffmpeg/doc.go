// Package ffmpeg builds and executes the ffmpeg invocations behind the
// pipeline's muxing operations: embedding narration, padding, stretching,
// silent tracks, title cards, and order-preserving concatenation. Argument
// construction is split from execution so commands are testable without the
// binary.
package ffmpeg
