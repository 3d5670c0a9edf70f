package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateQA(); err != nil {
		return err
	}
	if err := c.validateScene(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateAssembly(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateQA() error {
	switch c.QA.RepairPolicy {
	case "clamp", "degrade":
	default:
		return fmt.Errorf("qa.repair_policy must be %q or %q, got %q", "clamp", "degrade", c.QA.RepairPolicy)
	}
	if c.QA.OverlapThreshold < 0 || c.QA.OverlapThreshold > 1 {
		return errors.New("qa.overlap_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateScene() error {
	if c.Scene.TranscriptMinWords >= c.Scene.TranscriptMaxWords {
		return errors.New("scene.transcript_min_words must be below scene.transcript_max_words")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.MaxStretchRatio <= 0 || c.Sync.MaxStretchRatio >= 1 {
		return errors.New("sync.max_stretch_ratio must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateAssembly() error {
	switch c.Assembly.SplitMode {
	case "single", "per-scene":
	case "groups":
		if c.Assembly.Groups < 1 {
			return errors.New("assembly.groups must be at least 1 when split_mode is groups")
		}
	default:
		return fmt.Errorf("assembly.split_mode must be one of single, per-scene, groups; got %q", c.Assembly.SplitMode)
	}
	return nil
}

func (c *Config) validateRender() error {
	switch c.Render.Resolution {
	case "480p", "720p", "1080p", "1440p", "2160p":
	default:
		return fmt.Errorf("render.resolution %q not recognized", c.Render.Resolution)
	}
	if c.Render.FPS < 1 || c.Render.FPS > 120 {
		return errors.New("render.fps must be between 1 and 120")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q not recognized", c.Logging.Level)
	}
	return nil
}

// ResolutionDimensions maps the configured resolution label to pixel dimensions.
func (c *Config) ResolutionDimensions() (width, height int) {
	switch c.Render.Resolution {
	case "480p":
		return 854, 480
	case "720p":
		return 1280, 720
	case "1440p":
		return 2560, 1440
	case "2160p":
		return 3840, 2160
	default:
		return 1920, 1080
	}
}
