package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-pitch/logging"
)

// ErrInvalidConfig indicates a configuration field is out of range
var ErrInvalidConfig = errors.New("config: invalid detector configuration")

// DetectorConfig holds the construction parameters of a period detector.
// Capture range rules (highest/lowest in [4, 16]) are enforced by the
// detector itself.
type DetectorConfig struct {
	LowestFrequency  float64 `json:"lowest_frequency" yaml:"lowest_frequency"`   // Hz
	HighestFrequency float64 `json:"highest_frequency" yaml:"highest_frequency"` // Hz
	SampleRate       int     `json:"sample_rate" yaml:"sample_rate"`             // Hz
	HysteresisDB     float64 `json:"hysteresis_db" yaml:"hysteresis_db"`         // dB, typically negative
	LogLevel         string  `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// DefaultDetectorConfig returns a configuration covering a standard tuned
// guitar, low E (E2) up to C6
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		LowestFrequency:  82.41,
		HighestFrequency: 1046.50,
		SampleRate:       44100,
		HysteresisDB:     -45,
		LogLevel:         "info",
	}
}

// Validate checks that every field is usable
func (c *DetectorConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample_rate %d", ErrInvalidConfig, c.SampleRate)
	}
	if !(c.LowestFrequency > 0) || !(c.HighestFrequency > 0) {
		return fmt.Errorf("%w: frequencies must be positive (lowest %g, highest %g)",
			ErrInvalidConfig, c.LowestFrequency, c.HighestFrequency)
	}
	if c.HighestFrequency > float64(c.SampleRate) {
		return fmt.Errorf("%w: highest_frequency %g above sample_rate %d",
			ErrInvalidConfig, c.HighestFrequency, c.SampleRate)
	}
	if c.HysteresisDB > 0 {
		return fmt.Errorf("%w: hysteresis_db %g must not be positive", ErrInvalidConfig, c.HysteresisDB)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Level returns the parsed log level, InfoLevel when unset or invalid
func (c *DetectorConfig) Level() logging.Level {
	level, _ := logging.ParseLevel(c.LogLevel)
	return level
}

// Load reads a configuration file. Files ending in .json are decoded as
// JSON, everything else as YAML. Fields missing from the file keep their
// default values.
func Load(path string) (*DetectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultDetectorConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
