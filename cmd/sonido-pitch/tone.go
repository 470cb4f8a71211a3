package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-pitch/algorithms/synth"
	"github.com/RyanBlaney/sonido-pitch/config"
)

func newToneCommand(flags *detectorFlags) *cobra.Command {
	var (
		freq       float64
		duration   time.Duration
		gain       float64
		sampleRate int
		showFrames bool
	)

	cmd := &cobra.Command{
		Use:   "tone",
		Short: "Run the detector on a synthetic sine tone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if freq <= 0 || duration <= 0 {
				return fmt.Errorf("tone needs a positive frequency and duration")
			}

			rate := 0
			if cmd.Flags().Changed("sample-rate") {
				rate = sampleRate
			}
			cfg, err := flags.resolve(cmd, rate)
			if err != nil {
				return err
			}

			samples := make([]float64, int(duration.Seconds()*float64(cfg.SampleRate)))
			synth.NewSine(freq, cfg.SampleRate).Fill(samples, gain)

			estimates, err := analyze(cfg, samples, flags.dcCutoff)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tone: %.1f Hz, %s\n", freq, duration)
			if showFrames {
				printEstimates(out, estimates)
			}
			printSummary(out, summarize(estimates))
			return nil
		},
	}

	cmd.Flags().Float64Var(&freq, "freq", 440, "tone frequency in Hz")
	cmd.Flags().DurationVar(&duration, "duration", time.Second, "tone duration")
	cmd.Flags().Float64Var(&gain, "gain", 0.8, "tone amplitude (0-1)")
	cmd.Flags().IntVar(&sampleRate, "sample-rate", config.DefaultDetectorConfig().SampleRate, "sample rate in Hz")
	cmd.Flags().BoolVar(&showFrames, "frames", false, "print the estimate of every analysis window")
	return cmd
}
