package main

import (
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-pitch/logging"
	"github.com/RyanBlaney/sonido-pitch/transcode"
)

func newDetectCommand(flags *detectorFlags) *cobra.Command {
	var showFrames bool

	cmd := &cobra.Command{
		Use:   "detect <file.wav>",
		Short: "Estimate the fundamental frequency of a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audio, err := transcode.NewDecoder(nil).DecodeFile(args[0])
			if err != nil {
				return err
			}

			cfg, err := flags.resolve(cmd, audio.SampleRate)
			if err != nil {
				return err
			}

			logging.Info("Analyzing audio", logging.Fields{
				"file":        args[0],
				"sample_rate": audio.SampleRate,
				"duration":    audio.Duration.Seconds(),
			})

			estimates, err := analyze(cfg, audio.PCM, flags.dcCutoff)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showFrames {
				printEstimates(out, estimates)
			}
			printSummary(out, summarize(estimates))
			return nil
		},
	}

	cmd.Flags().BoolVar(&showFrames, "frames", false, "print the estimate of every analysis window")
	return cmd
}
