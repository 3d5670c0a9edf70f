package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeTTS()
	c.normalizeRender()
	c.normalizeAssembly()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		c.Paths.WorkspaceDir = defaultWorkspaceDir
	}
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.PersonasPath) != "" {
		if c.Paths.PersonasPath, err = expandPath(c.Paths.PersonasPath); err != nil {
			return fmt.Errorf("paths.personas_path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeLLM() {
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("ANSCI_LLM_API_KEY"); ok {
			c.LLM.APIKey = value
		}
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeTTS() {
	if c.TTS.APIKey == "" {
		if value, ok := os.LookupEnv("ANSCI_TTS_API_KEY"); ok {
			c.TTS.APIKey = value
		}
	}
	c.TTS.APIKey = strings.TrimSpace(c.TTS.APIKey)
	c.TTS.BaseURL = strings.TrimSpace(c.TTS.BaseURL)
	if c.TTS.BaseURL == "" {
		c.TTS.BaseURL = defaultTTSBaseURL
	}
	c.TTS.Voice = strings.TrimSpace(c.TTS.Voice)
	if c.TTS.Voice == "" {
		c.TTS.Voice = defaultTTSVoice
	}
	c.TTS.Persona = strings.TrimSpace(c.TTS.Persona)
	if c.TTS.Persona == "" {
		c.TTS.Persona = defaultTTSPersona
	}
	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultTTSTimeoutSeconds
	}
	if c.TTS.WordsPerSecond <= 0 {
		c.TTS.WordsPerSecond = defaultWordsPerSecond
	}
}

func (c *Config) normalizeRender() {
	c.Render.EngineBinary = strings.TrimSpace(c.Render.EngineBinary)
	if c.Render.EngineBinary == "" {
		c.Render.EngineBinary = defaultEngineBinary
	}
	c.Render.FFmpegBinary = strings.TrimSpace(c.Render.FFmpegBinary)
	if c.Render.FFmpegBinary == "" {
		c.Render.FFmpegBinary = defaultFFmpegBinary
	}
	c.Render.FFprobeBinary = strings.TrimSpace(c.Render.FFprobeBinary)
	if c.Render.FFprobeBinary == "" {
		c.Render.FFprobeBinary = defaultFFprobeBinary
	}
	c.Render.Resolution = strings.ToLower(strings.TrimSpace(c.Render.Resolution))
	if c.Render.Resolution == "" {
		c.Render.Resolution = defaultResolution
	}
	if c.Render.FPS <= 0 {
		c.Render.FPS = defaultFPS
	}
	if c.Render.TimeoutSeconds <= 0 {
		c.Render.TimeoutSeconds = defaultRenderTimeout
	}
}

func (c *Config) normalizeAssembly() {
	c.Assembly.SplitMode = strings.ToLower(strings.TrimSpace(c.Assembly.SplitMode))
	if c.Assembly.SplitMode == "" {
		c.Assembly.SplitMode = defaultSplitMode
	}
	c.QA.RepairPolicy = strings.ToLower(strings.TrimSpace(c.QA.RepairPolicy))
	if c.QA.RepairPolicy == "" {
		c.QA.RepairPolicy = defaultRepairPolicy
	}
	if c.Sync.MaxStretchRatio <= 0 {
		c.Sync.MaxStretchRatio = defaultMaxStretchRatio
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = defaultCacheTTLHours
	}
	if c.Workflow.Workers <= 0 {
		c.Workflow.Workers = defaultWorkers
	}
	if c.Workflow.StageTimeoutSeconds <= 0 {
		c.Workflow.StageTimeoutSeconds = defaultStageTimeout
	}
	if c.Scene.TranscriptMinWords <= 0 {
		c.Scene.TranscriptMinWords = defaultTranscriptMinWords
	}
	if c.Scene.TranscriptMaxWords <= 0 {
		c.Scene.TranscriptMaxWords = defaultTranscriptMaxWords
	}
	if c.Outline.MaxRetries <= 0 {
		c.Outline.MaxRetries = defaultOutlineMaxRetries
	}
	if c.QA.BoundX <= 0 {
		c.QA.BoundX = defaultBoundX
	}
	if c.QA.BoundY <= 0 {
		c.QA.BoundY = defaultBoundY
	}
	if c.QA.OverlapThreshold <= 0 {
		c.QA.OverlapThreshold = defaultOverlapThreshold
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
