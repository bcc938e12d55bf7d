package config

import (
	"errors"
	"fmt"
	"math"

	"asciireel/internal/render"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateConvert(); err != nil {
		return err
	}
	if err := c.validatePlay(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateConvert() error {
	if !positiveFinite(c.Convert.FPS) {
		return errors.New("convert.fps must be positive")
	}
	if err := ensurePositiveMap(map[string]int{
		"convert.width":  c.Convert.Width,
		"convert.height": c.Convert.Height,
	}); err != nil {
		return err
	}
	if _, ok := render.LookupPalette(c.Convert.Palette); !ok {
		return fmt.Errorf("convert.palette: unknown palette %q (available: %v)", c.Convert.Palette, render.PaletteNames())
	}
	return nil
}

func (c *Config) validatePlay() error {
	if !positiveFinite(c.Play.FPS) {
		return errors.New("play.fps must be positive")
	}
	if c.Play.AudioBufferMillis <= 0 {
		return errors.New("play.audio_buffer_ms must be positive")
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
