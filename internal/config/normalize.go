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
	c.normalizeConvert()
	c.normalizePlay()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeConvert() {
	c.Convert.OutputDir = strings.TrimSpace(c.Convert.OutputDir)
	if c.Convert.OutputDir == "" {
		c.Convert.OutputDir = defaultOutputDir
	}
	c.Convert.Palette = strings.ToLower(strings.TrimSpace(c.Convert.Palette))
	if c.Convert.Palette == "" {
		c.Convert.Palette = defaultPalette
	}
	if value, ok := os.LookupEnv("ASCIIREEL_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		c.Convert.FFmpegBinary = value
	}
	c.Convert.FFmpegBinary = strings.TrimSpace(c.Convert.FFmpegBinary)
	if c.Convert.FFmpegBinary == "" {
		c.Convert.FFmpegBinary = defaultFFmpegBinary
	}
	if value, ok := os.LookupEnv("ASCIIREEL_FFPROBE"); ok && strings.TrimSpace(value) != "" {
		c.Convert.FFprobeBinary = value
	}
	c.Convert.FFprobeBinary = strings.TrimSpace(c.Convert.FFprobeBinary)
	if c.Convert.FFprobeBinary == "" {
		c.Convert.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizePlay() {
	c.Play.FramesDir = strings.TrimSpace(c.Play.FramesDir)
	if c.Play.FramesDir == "" {
		c.Play.FramesDir = defaultOutputDir
	}
	if c.Play.LoopDelayMillis < 0 {
		c.Play.LoopDelayMillis = 0
	}
	if c.Play.AudioBufferMillis <= 0 {
		c.Play.AudioBufferMillis = defaultAudioBufferMillis
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
