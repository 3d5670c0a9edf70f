package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Prober inspects media files. The interface exists so tests can substitute
// deterministic durations without a real ffprobe binary.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// BinaryProber shells out to ffprobe.
type BinaryProber struct {
	Binary string
}

// Duration returns the container duration of the file at path in seconds.
func (p BinaryProber) Duration(ctx context.Context, path string) (float64, error) {
	result, err := Inspect(ctx, p.Binary, path)
	if err != nil {
		return 0, err
	}
	duration := result.DurationSeconds()
	if duration <= 0 {
		return 0, fmt.Errorf("ffprobe: no duration reported for %s", path)
	}
	return duration, nil
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// DurationSeconds returns the container duration in seconds, falling back to
// the longest stream duration when the container omits one.
func (r Result) DurationSeconds() float64 {
	if duration := parseFloat(r.Format.Duration); duration > 0 {
		return duration
	}
	var longest float64
	for _, stream := range r.Streams {
		if duration := parseFloat(stream.Duration); duration > longest {
			longest = duration
		}
	}
	return longest
}

// HasAudio reports whether any audio stream is present.
func (r Result) HasAudio() bool {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			return true
		}
	}
	return false
}

// HasVideo reports whether any video stream is present.
func (r Result) HasVideo() bool {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return true
		}
	}
	return false
}

func parseFloat(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return parsed
}
