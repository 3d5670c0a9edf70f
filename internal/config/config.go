package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkspaceDir string `toml:"workspace_dir"`
	OutputDir    string `toml:"output_dir"`
	CacheDir     string `toml:"cache_dir"`
	LogDir       string `toml:"log_dir"`
	PersonasPath string `toml:"personas_path"`
}

// LLM contains connection settings for the generative text service.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TTS contains connection settings for the speech-synthesis service.
type TTS struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Voice          string `toml:"voice"`
	Persona        string `toml:"persona"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	LocalBinary    string `toml:"local_binary"`
	WordsPerSecond float64 `toml:"words_per_second"`
}

// Outline contains configuration for document analysis.
type Outline struct {
	MaxRetries int `toml:"max_retries"`
}

// Scene contains configuration for scene composition.
type Scene struct {
	TranscriptMinWords int `toml:"transcript_min_words"`
	TranscriptMaxWords int `toml:"transcript_max_words"`
}

// QA contains configuration for animation code validation.
type QA struct {
	BoundX           float64 `toml:"bound_x"`
	BoundY           float64 `toml:"bound_y"`
	OverlapThreshold float64 `toml:"overlap_threshold"`
	RepairPolicy     string  `toml:"repair_policy"` // "clamp" or "degrade"
}

// Render contains configuration for the animation engine.
type Render struct {
	EngineBinary   string `toml:"engine_binary"`
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	Resolution     string `toml:"resolution"`
	FPS            int    `toml:"fps"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Sync contains configuration for audio/video duration reconciliation.
type Sync struct {
	MaxStretchRatio float64 `toml:"max_stretch_ratio"`
}

// Assembly contains configuration for final output assembly.
type Assembly struct {
	SplitMode string `toml:"split_mode"` // "single", "per-scene", or "groups"
	Groups    int    `toml:"groups"`
}

// Cache contains configuration for the generation cache.
type Cache struct {
	Enabled  bool `toml:"enabled"`
	TTLHours int  `toml:"ttl_hours"`
}

// Workflow contains configuration for job execution.
type Workflow struct {
	Workers             int `toml:"workers"`
	StageTimeoutSeconds int `toml:"stage_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the pipeline.
//
// Configuration sections by subsystem:
//   - Paths: workspace, output, cache, and log directories
//   - LLM: generative text service connection settings
//   - TTS: speech synthesis connection settings and fallbacks
//   - Outline: document analysis retry budget
//   - Scene: transcript length band
//   - QA: layout bounds and repair policy
//   - Render: animation engine and media tool binaries
//   - Sync: audio stretch bound
//   - Assembly: output split mode
//   - Cache: generation memoization
//   - Workflow: per-job worker pool sizing and stage timeouts
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	LLM      LLM      `toml:"llm"`
	TTS      TTS      `toml:"tts"`
	Outline  Outline  `toml:"outline"`
	Scene    Scene    `toml:"scene"`
	QA       QA       `toml:"qa"`
	Render   Render   `toml:"render"`
	Sync     Sync     `toml:"sync"`
	Assembly Assembly `toml:"assembly"`
	Cache    Cache    `toml:"cache"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ansci/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ansci.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkspaceDir, c.Paths.OutputDir, c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to the given path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
