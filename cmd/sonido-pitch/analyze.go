package main

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/sonido-pitch/algorithms/filters"
	"github.com/RyanBlaney/sonido-pitch/algorithms/pitch"
	"github.com/RyanBlaney/sonido-pitch/config"
)

// estimate is the detector output for one analysis window
type estimate struct {
	Time        float64 // Seconds from the start of the signal
	Frequency   float64 // Hz, 0 when unvoiced
	Periodicity float64
}

// summary aggregates the voiced estimates of a signal
type summary struct {
	Windows         int
	Voiced          int
	MeanFrequency   float64
	StdFrequency    float64
	MeanPeriodicity float64
}

// analyze runs samples through a detector built from cfg and returns one
// estimate per completed window. A positive dcCutoff puts a DC blocker in
// front of the detector.
func analyze(cfg *config.DetectorConfig, samples []float64, dcCutoff float64) ([]estimate, error) {
	pd, err := pitch.NewPeriodDetectorFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	var dc *filters.DCBlock
	if dcCutoff > 0 {
		dc = filters.NewDCBlock(dcCutoff, cfg.SampleRate)
	}

	var estimates []estimate
	for i, s := range samples {
		if dc != nil {
			s = dc.Process(s)
		}
		if !pd.Process(s) {
			continue
		}
		f := pd.Fundamental()
		estimates = append(estimates, estimate{
			Time:        float64(i) / float64(cfg.SampleRate),
			Frequency:   f.Frequency(cfg.SampleRate),
			Periodicity: f.Periodicity,
		})
	}
	return estimates, nil
}

func summarize(estimates []estimate) summary {
	s := summary{Windows: len(estimates)}

	var freqs, periodicities []float64
	for _, e := range estimates {
		if e.Frequency > 0 {
			freqs = append(freqs, e.Frequency)
			periodicities = append(periodicities, e.Periodicity)
		}
	}
	s.Voiced = len(freqs)
	if s.Voiced == 0 {
		return s
	}

	s.MeanFrequency, s.StdFrequency = stat.MeanStdDev(freqs, nil)
	if s.Voiced == 1 {
		s.StdFrequency = 0
	}
	s.MeanPeriodicity = stat.Mean(periodicities, nil)
	return s
}

func printEstimates(w io.Writer, estimates []estimate) {
	for _, e := range estimates {
		if e.Frequency > 0 {
			fmt.Fprintf(w, "%8.3fs  %8.2f Hz  periodicity %.3f\n", e.Time, e.Frequency, e.Periodicity)
		} else {
			fmt.Fprintf(w, "%8.3fs  unvoiced\n", e.Time)
		}
	}
}

func printSummary(w io.Writer, s summary) {
	fmt.Fprintf(w, "windows: %d voiced: %d\n", s.Windows, s.Voiced)
	if s.Voiced == 0 {
		fmt.Fprintln(w, "no pitch detected")
		return
	}
	fmt.Fprintf(w, "frequency: %.1f Hz (std %.2f)\n", s.MeanFrequency, s.StdFrequency)
	fmt.Fprintf(w, "periodicity: %.3f\n", s.MeanPeriodicity)
}
