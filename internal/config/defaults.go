package config

const (
	defaultWorkspaceDir       = "~/.local/share/ansci/workspace"
	defaultOutputDir          = "~/.local/share/ansci/output"
	defaultCacheDir           = "~/.local/share/ansci/cache"
	defaultLogDir             = "~/.local/share/ansci/logs"
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "anthropic/claude-sonnet-4"
	defaultLLMReferer         = "https://github.com/ansci/ansci"
	defaultLLMTitle           = "AnSci Pipeline"
	defaultLLMTimeoutSeconds  = 120
	defaultTTSBaseURL         = "https://api.lmnt.com/v1/ai/speech"
	defaultTTSVoice           = "leah"
	defaultTTSPersona         = "narrator"
	defaultTTSTimeoutSeconds  = 60
	defaultWordsPerSecond     = 2.5
	defaultOutlineMaxRetries  = 3
	defaultTranscriptMinWords = 75
	defaultTranscriptMaxWords = 150
	defaultBoundX             = 7.0
	defaultBoundY             = 4.0
	defaultOverlapThreshold   = 0.25
	defaultRepairPolicy       = "clamp"
	defaultEngineBinary       = "manim"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultResolution         = "1080p"
	defaultFPS                = 30
	defaultRenderTimeout      = 600
	defaultMaxStretchRatio    = 0.10
	defaultSplitMode          = "single"
	defaultCacheTTLHours      = 24
	defaultWorkers            = 3
	defaultStageTimeout       = 300
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			OutputDir:    defaultOutputDir,
			CacheDir:     defaultCacheDir,
			LogDir:       defaultLogDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		TTS: TTS{
			BaseURL:        defaultTTSBaseURL,
			Voice:          defaultTTSVoice,
			Persona:        defaultTTSPersona,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
			WordsPerSecond: defaultWordsPerSecond,
		},
		Outline: Outline{
			MaxRetries: defaultOutlineMaxRetries,
		},
		Scene: Scene{
			TranscriptMinWords: defaultTranscriptMinWords,
			TranscriptMaxWords: defaultTranscriptMaxWords,
		},
		QA: QA{
			BoundX:           defaultBoundX,
			BoundY:           defaultBoundY,
			OverlapThreshold: defaultOverlapThreshold,
			RepairPolicy:     defaultRepairPolicy,
		},
		Render: Render{
			EngineBinary:   defaultEngineBinary,
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			Resolution:     defaultResolution,
			FPS:            defaultFPS,
			TimeoutSeconds: defaultRenderTimeout,
		},
		Sync: Sync{
			MaxStretchRatio: defaultMaxStretchRatio,
		},
		Assembly: Assembly{
			SplitMode: defaultSplitMode,
		},
		Cache: Cache{
			Enabled:  true,
			TTLHours: defaultCacheTTLHours,
		},
		Workflow: Workflow{
			Workers:             defaultWorkers,
			StageTimeoutSeconds: defaultStageTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
