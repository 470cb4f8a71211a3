package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-pitch/config"
	"github.com/RyanBlaney/sonido-pitch/logging"
)

// detectorFlags are the persistent flags shared by every subcommand
type detectorFlags struct {
	configPath string
	lowest     float64
	highest    float64
	hysteresis float64
	logLevel   string
	dcCutoff   float64
}

func newRootCommand() *cobra.Command {
	flags := &detectorFlags{}

	root := &cobra.Command{
		Use:          "sonido-pitch",
		Short:        "Streaming fundamental period detection",
		SilenceUsage: true,
	}

	defaults := config.DefaultDetectorConfig()
	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "detector configuration file (yaml or json)")
	pf.Float64Var(&flags.lowest, "lowest", defaults.LowestFrequency, "lowest detectable frequency in Hz")
	pf.Float64Var(&flags.highest, "highest", defaults.HighestFrequency, "highest detectable frequency in Hz")
	pf.Float64Var(&flags.hysteresis, "hysteresis", defaults.HysteresisDB, "zero crossing hysteresis in dB")
	pf.Float64Var(&flags.dcCutoff, "dc-cutoff", 0, "DC blocker cutoff in Hz, 0 disables it")
	pf.StringVar(&flags.logLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(
		newDetectCommand(flags),
		newToneCommand(flags),
	)
	return root
}

// resolve builds the detector configuration: defaults, then the config
// file, then any flag set explicitly on the command line. The global
// logger is configured from the result.
func (f *detectorFlags) resolve(cmd *cobra.Command, sampleRate int) (*config.DetectorConfig, error) {
	cfg := config.DefaultDetectorConfig()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("lowest") {
		cfg.LowestFrequency = f.lowest
	}
	if changed("highest") {
		cfg.HighestFrequency = f.highest
	}
	if changed("hysteresis") {
		cfg.HysteresisDB = f.hysteresis
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if sampleRate > 0 {
		cfg.SampleRate = sampleRate
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewDefaultLoggerWithWriters(cmd.ErrOrStderr(), cmd.ErrOrStderr())
	logger.SetLevel(cfg.Level())
	logging.SetGlobalLogger(logger)

	return cfg, nil
}
