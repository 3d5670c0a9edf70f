// Package ffprobe shells out to ffprobe and parses its JSON output. The
// synchronizer and assembler only ever need durations and stream presence,
// so that is all this package exposes.
package ffprobe
