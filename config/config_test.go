package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-pitch/logging"
)

func TestDefaultDetectorConfigIsValid(t *testing.T) {
	cfg := DefaultDetectorConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, logging.InfoLevel, cfg.Level())
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *DetectorConfig){
		"zero sample rate":    func(c *DetectorConfig) { c.SampleRate = 0 },
		"negative lowest":     func(c *DetectorConfig) { c.LowestFrequency = -1 },
		"zero highest":        func(c *DetectorConfig) { c.HighestFrequency = 0 },
		"above sample rate":   func(c *DetectorConfig) { c.HighestFrequency = 50000 },
		"positive hysteresis": func(c *DetectorConfig) { c.HysteresisDB = 3 },
		"bad log level":       func(c *DetectorConfig) { c.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultDetectorConfig()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detector.yaml")
	data := "lowest_frequency: 100\nhighest_frequency: 800\nsample_rate: 48000\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100.0, cfg.LowestFrequency)
	assert.Equal(t, 800.0, cfg.HighestFrequency)
	assert.Equal(t, 48000, cfg.SampleRate)
	assert.Equal(t, -45.0, cfg.HysteresisDB, "default kept")
	assert.Equal(t, logging.DebugLevel, cfg.Level())
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detector.json")
	data := `{"lowest_frequency": 50, "highest_frequency": 400, "hysteresis_db": -30}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50.0, cfg.LowestFrequency)
	assert.Equal(t, 400.0, cfg.HighestFrequency)
	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, -30.0, cfg.HysteresisDB)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sample_rate: -1\n"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	garbled := filepath.Join(t.TempDir(), "garbled.json")
	require.NoError(t, os.WriteFile(garbled, []byte("{not json"), 0o644))
	_, err = Load(garbled)
	assert.Error(t, err)
}
