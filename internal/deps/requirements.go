package deps

import "ansci/internal/config"

// Requirements lists the external binaries a generation run can invoke,
// resolved from configuration. The render engine, ffmpeg, and ffprobe are
// mandatory; the local speech synthesizer only matters when the hosted
// speech service is unavailable, so it is reported as optional.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "Animation engine",
			Command:     cfg.Render.EngineBinary,
			Description: "Renders scene code into video clips",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Render.FFmpegBinary,
			Description: "Muxes, pads, and concatenates media",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Render.FFprobeBinary,
			Description: "Measures clip and narration durations",
		},
	}
	if cfg.TTS.LocalBinary != "" {
		reqs = append(reqs, Requirement{
			Name:        "Local speech synthesizer",
			Command:     cfg.TTS.LocalBinary,
			Description: "Narration fallback when the speech service fails",
			Optional:    true,
		})
	}
	return reqs
}
