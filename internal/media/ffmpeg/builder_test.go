package ffmpeg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func argsContainSequence(args []string, want ...string) bool {
	if len(want) == 0 {
		return true
	}
	for i := 0; i+len(want) <= len(args); i++ {
		matched := true
		for j, w := range want {
			if args[i+j] != w {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func TestBuildMuxArgsCopiesVideoAndEncodesAudio(t *testing.T) {
	args := BuildMuxArgs("scene.mp4", "narration.mp3", "out.mp4")
	if !argsContainSequence(args, "-hide_banner", "-nostdin", "-y") {
		t.Fatalf("missing preamble: %v", args)
	}
	if !argsContainSequence(args, "-c:v", "copy") {
		t.Fatalf("expected stream-copied video: %v", args)
	}
	if !argsContainSequence(args, "-c:a", "aac") {
		t.Fatalf("expected aac audio encode: %v", args)
	}
	if args[len(args)-1] != "out.mp4" {
		t.Fatalf("output path should be last arg: %v", args)
	}
	// The narration may run slightly past the clip; the mux must never
	// trim it to the shorter stream.
	if argsContainSequence(args, "-shortest") {
		t.Fatalf("-shortest would truncate the narration tail: %v", args)
	}
}

func TestBuildPadVideoArgsDropsAudioAndClonesLastFrame(t *testing.T) {
	args := BuildPadVideoArgs("scene.mp4", "padded.mp4", 1.5)
	if !argsContainSequence(args, "-an") {
		t.Fatalf("expected -an: %v", args)
	}
	if !argsContainSequence(args, "-vf", "tpad=stop_mode=clone:stop_duration=1.500") {
		t.Fatalf("unexpected tpad filter: %v", args)
	}
}

func TestBuildStretchAudioArgsFormatsTempo(t *testing.T) {
	args := BuildStretchAudioArgs("narration.mp3", "stretched.mp3", 0.9434)
	if !argsContainSequence(args, "-filter:a", "atempo=0.9434") {
		t.Fatalf("unexpected atempo filter: %v", args)
	}
}

func TestBuildPadAudioArgsAppendsSilence(t *testing.T) {
	args := BuildPadAudioArgs("narration.mp3", "padded.mp3", 0.75)
	if !argsContainSequence(args, "-filter:a", "apad=pad_dur=0.750") {
		t.Fatalf("unexpected apad filter: %v", args)
	}
}

func TestBuildSilentTrackArgsUsesAnullsrc(t *testing.T) {
	args := BuildSilentTrackArgs("silence.m4a", 12.25)
	if !argsContainSequence(args, "-f", "lavfi", "-i", "anullsrc=r=44100:cl=stereo") {
		t.Fatalf("expected anullsrc input: %v", args)
	}
	if !argsContainSequence(args, "-t", "12.250") {
		t.Fatalf("expected duration flag: %v", args)
	}
}

func TestBuildTitleCardArgsEscapesText(t *testing.T) {
	args := BuildTitleCardArgs("card.mp4", "Euler's Identity: 100%", 1920, 1080, 30, 5)
	var filter string
	for i, arg := range args {
		if arg == "-vf" && i+1 < len(args) {
			filter = args[i+1]
		}
	}
	if filter == "" {
		t.Fatalf("no -vf in args: %v", args)
	}
	if !strings.Contains(filter, `Euler\'s Identity\: 100\%`) {
		t.Fatalf("drawtext text not escaped: %q", filter)
	}
	if !strings.Contains(filter, "fontsize=60") {
		t.Fatalf("fontsize should scale with height: %q", filter)
	}
	if !argsContainSequence(args, "-i", "color=c=0x101020:s=1920x1080:r=30") {
		t.Fatalf("unexpected background source: %v", args)
	}
}

func TestBuildConcatArgsUsesDemuxerWithoutReencode(t *testing.T) {
	args := BuildConcatArgs("list.txt", "final.mp4")
	if !argsContainSequence(args, "-f", "concat", "-safe", "0", "-i", "list.txt") {
		t.Fatalf("unexpected concat input: %v", args)
	}
	if !argsContainSequence(args, "-c", "copy") {
		t.Fatalf("expected stream copy: %v", args)
	}
}

func TestWriteConcatListPreservesOrderAndEscapesQuotes(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		filepath.Join(dir, "scene_1.mp4"),
		filepath.Join(dir, "it's scene 2.mp4"),
		filepath.Join(dir, "scene_3.mp4"),
	}
	outPath := filepath.Join(dir, "final.mp4")

	listPath, err := writeConcatList(inputs, outPath)
	if err != nil {
		t.Fatalf("writeConcatList: %v", err)
	}
	defer os.Remove(listPath)

	if listPath != outPath+".concat.txt" {
		t.Fatalf("unexpected list path %q", listPath)
	}
	data, err := os.ReadFile(listPath)
	if err != nil {
		t.Fatalf("read list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 entries, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "scene_1.mp4") || !strings.Contains(lines[2], "scene_3.mp4") {
		t.Fatalf("entries out of order: %q", lines)
	}
	if !strings.Contains(lines[1], `it'\''s scene 2.mp4`) {
		t.Fatalf("single quote not escaped: %q", lines[1])
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "file '") {
			t.Fatalf("malformed entry: %q", line)
		}
	}
}
