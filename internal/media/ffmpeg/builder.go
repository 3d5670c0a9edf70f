package ffmpeg

import (
	"fmt"
	"strings"
)

// preamble returns the shared flags every invocation starts with.
func preamble() []string {
	return []string{"-hide_banner", "-nostdin", "-y", "-loglevel", "error"}
}

// BuildMuxArgs embeds an audio track into a silent clip. Video is stream
// copied; audio is re-encoded to AAC so arbitrary TTS output formats mux
// cleanly into MP4. The container runs to the longer stream so a narration
// tail within the sync tolerance is kept, not cut.
func BuildMuxArgs(videoPath, audioPath, outPath string) []string {
	args := preamble()
	args = append(args,
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "128k",
		outPath,
	)
	return args
}

// BuildPadVideoArgs extends a clip by holding its final frame for
// extraSeconds. Audio streams, if any, are dropped; padding happens before
// the narration is muxed in.
func BuildPadVideoArgs(videoPath, outPath string, extraSeconds float64) []string {
	args := preamble()
	args = append(args,
		"-i", videoPath,
		"-an",
		"-vf", fmt.Sprintf("tpad=stop_mode=clone:stop_duration=%.3f", extraSeconds),
		outPath,
	)
	return args
}

// BuildStretchAudioArgs retimes an audio file by the given tempo factor.
// Factors below 1.0 slow the narration down (longer output). The caller is
// responsible for keeping the factor within the configured bound; atempo
// itself only accepts [0.5, 2.0].
func BuildStretchAudioArgs(audioPath, outPath string, tempo float64) []string {
	args := preamble()
	args = append(args,
		"-i", audioPath,
		"-filter:a", fmt.Sprintf("atempo=%.4f", tempo),
		outPath,
	)
	return args
}

// BuildPadAudioArgs appends padSeconds of trailing silence to an audio file.
func BuildPadAudioArgs(audioPath, outPath string, padSeconds float64) []string {
	args := preamble()
	args = append(args,
		"-i", audioPath,
		"-filter:a", fmt.Sprintf("apad=pad_dur=%.3f", padSeconds),
		outPath,
	)
	return args
}

// BuildSilentTrackArgs produces a silent stereo audio file of the given duration.
func BuildSilentTrackArgs(outPath string, seconds float64) []string {
	args := preamble()
	args = append(args,
		"-f", "lavfi",
		"-i", "anullsrc=r=44100:cl=stereo",
		"-t", fmt.Sprintf("%.3f", seconds),
		"-c:a", "aac",
		outPath,
	)
	return args
}

// BuildTitleCardArgs renders a static title card clip from text. Used as the
// render fallback so every scene yields a playable artifact.
func BuildTitleCardArgs(outPath, title string, width, height, fps int, seconds float64) []string {
	drawtext := fmt.Sprintf(
		"drawtext=text='%s':fontcolor=white:fontsize=%d:x=(w-text_w)/2:y=(h-text_h)/2",
		escapeDrawtext(title), height/18,
	)
	args := preamble()
	args = append(args,
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=0x101020:s=%dx%d:r=%d", width, height, fps),
		"-vf", drawtext,
		"-t", fmt.Sprintf("%.3f", seconds),
		"-pix_fmt", "yuv420p",
		outPath,
	)
	return args
}

// BuildConcatArgs concatenates the clips listed in listPath (concat demuxer
// format) without re-encoding. Input order is preserved exactly.
func BuildConcatArgs(listPath, outPath string) []string {
	args := preamble()
	args = append(args,
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	)
	return args
}

// escapeDrawtext escapes characters that terminate or confuse the drawtext filter.
func escapeDrawtext(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return replacer.Replace(text)
}
