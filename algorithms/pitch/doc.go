// Package pitch implements real-time fundamental period detection for
// monophonic signals.
//
// PeriodDetector consumes one sample at a time. Positive pulses of the
// signal, found by a zero crossing detector with hysteresis, are turned
// into a bitstream once per analysis window and scored by bitstream
// autocorrelation at every lag between two strong pulses. A harmonic
// collector folds lags that are integer multiples of the best period back
// onto it, so an octave of the fundamental is not mistaken for it.
//
// Between windows, PredictedPeriod gives a low-latency estimate from the
// two most recent similar pulses.
//
// Example usage:
//
//	pd, err := pitch.NewPeriodDetector(82.41, 1046.5, 44100, -45)
//	if err != nil {
//	    return err
//	}
//	for _, s := range samples {
//	    if pd.Process(s) {
//	        f := pd.Fundamental()
//	        fmt.Println(f.Frequency(44100), f.Periodicity)
//	    }
//	}
package pitch
