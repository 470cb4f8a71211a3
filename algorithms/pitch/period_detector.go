package pitch

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
	"github.com/RyanBlaney/sonido-pitch/algorithms/stats"
	"github.com/RyanBlaney/sonido-pitch/algorithms/temporal"
	"github.com/RyanBlaney/sonido-pitch/config"
	"github.com/RyanBlaney/sonido-pitch/logging"
)

const (
	// PulseThreshold is the fraction of the peak pulse an edge must reach
	// to take part in the bitstream and the sweep
	PulseThreshold = 0.6

	// HarmonicPeriodicityFactor scales the periodicity gain, in mismatching
	// bits, that a harmonic candidate may show and still be merged
	HarmonicPeriodicityFactor = 15

	// PeriodicityDiffFactor scales the window midpoint into the largest
	// period difference still considered the same period
	PeriodicityDiffFactor = 0.008

	// MinCaptureRatio and MaxCaptureRatio bound highest/lowest frequency
	MinCaptureRatio = 4
	MaxCaptureRatio = 16
)

// Info is a period estimate in samples. A period of -1 means no estimate.
type Info struct {
	Period      float64 `json:"period"`      // Samples, sub-sample precision
	Periodicity float64 `json:"periodicity"` // 0-1, 1 is a perfect match
}

var unknownFundamental = Info{Period: -1}

// Known reports whether the estimate holds a period
func (i Info) Known() bool {
	return i.Period > 0
}

// Frequency converts the period to Hz, 0 when unknown
func (i Info) Frequency(sampleRate int) float64 {
	if !i.Known() {
		return 0
	}
	return float64(sampleRate) / i.Period
}

// PeriodDetector estimates the fundamental period of a monophonic signal,
// one sample at a time.
//
// Zero crossings of the signal are rasterized into a pulse bitstream once
// per analysis window (two periods of the lowest frequency). The lag
// between every pair of strong pulses is then scored by bitstream
// autocorrelation and the best lag, with harmonic multiples folded back
// onto the fundamental, is published.
//
// Process never allocates. A PeriodDetector must not be used from more
// than one goroutine at a time.
type PeriodDetector struct {
	zc          *temporal.ZeroCrossing
	fundamental Info

	minPeriod     int
	harmonicRange int
	midPoint      int
	weight        float64

	bits    *common.Bitset
	acf     *stats.BitstreamACF
	collect collector

	predictedPeriod float64
	edgeMark        uint64
	predictEdge     uint64
}

// NewPeriodDetector creates a detector for fundamentals between
// lowestFreq and highestFreq Hz. highestFreq/lowestFreq must be within
// [4, 16]. hysteresisDB is passed to the zero crossing detector.
func NewPeriodDetector(lowestFreq, highestFreq float64, sampleRate int, hysteresisDB float64) (*PeriodDetector, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "period_detector",
	})

	harmonicRange, err := captureRange(lowestFreq, highestFreq, sampleRate)
	if err != nil {
		logger.Error(err, "Invalid period detector configuration")
		return nil, err
	}

	windowSize := int(2 * float64(sampleRate) / lowestFreq)
	midPoint := windowSize / 2
	bits := common.NewBitset(windowSize)

	pd := &PeriodDetector{
		zc:              temporal.NewZeroCrossing(hysteresisDB, windowSize),
		fundamental:     unknownFundamental,
		minPeriod:       int(float64(sampleRate) / highestFreq),
		harmonicRange:   harmonicRange,
		midPoint:        midPoint,
		weight:          2 / float64(windowSize),
		bits:            bits,
		acf:             stats.NewBitstreamACF(bits),
		collect:         newCollector(windowSize, float64(midPoint)*PeriodicityDiffFactor, harmonicRange),
		predictedPeriod: -1,
	}

	logger.Debug("Period detector created", logging.Fields{
		"lowest_freq":    lowestFreq,
		"highest_freq":   highestFreq,
		"sample_rate":    sampleRate,
		"window_size":    windowSize,
		"min_period":     pd.minPeriod,
		"harmonic_range": harmonicRange,
	})

	return pd, nil
}

// NewPeriodDetectorFromConfig creates a detector from a validated configuration
func NewPeriodDetectorFromConfig(cfg *config.DetectorConfig) (*PeriodDetector, error) {
	if cfg == nil {
		cfg = config.DefaultDetectorConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewPeriodDetector(cfg.LowestFrequency, cfg.HighestFrequency, cfg.SampleRate, cfg.HysteresisDB)
}

// captureRange validates the frequency bounds and returns the number of
// harmonics searched, ceil(highest/lowest)
func captureRange(lowestFreq, highestFreq float64, sampleRate int) (int, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidSampleRate, sampleRate)
	}
	if !(lowestFreq > 0) || !(highestFreq > lowestFreq) {
		return 0, fmt.Errorf("%w: lowest %g Hz, highest %g Hz", ErrInvalidRange, lowestFreq, highestFreq)
	}
	if highestFreq > float64(sampleRate) {
		return 0, fmt.Errorf("%w: highest %g Hz is above the %d Hz sample rate",
			ErrInvalidRange, highestFreq, sampleRate)
	}

	ratio := highestFreq / lowestFreq
	if ratio > MaxCaptureRatio {
		return 0, fmt.Errorf("%w: got %g", ErrCaptureRangeExceeded, ratio)
	}
	if ratio < MinCaptureRatio {
		return 0, fmt.Errorf("%w: got %g", ErrCaptureRangeTooNarrow, ratio)
	}

	return min(max(int(math.Ceil(ratio)), MinCaptureRatio), MaxCaptureRatio), nil
}

// Process feeds one sample. It returns true when the sample completed an
// analysis window and a new fundamental estimate was computed.
func (pd *PeriodDetector) Process(s float64) bool {
	prev := pd.zc.State()
	state := pd.zc.Process(s)

	// A falling edge makes the cached prediction stale
	if !state && prev != state {
		pd.edgeMark++
		pd.predictedPeriod = -1
	}

	if pd.zc.IsReset() {
		pd.fundamental = unknownFundamental
	}

	if pd.zc.IsReady() {
		pd.setBitstream()
		pd.autocorrelate()
		return true
	}
	return false
}

// setBitstream rasterizes the qualifying pulses of the window
func (pd *PeriodDetector) setBitstream() {
	threshold := pd.zc.PeakPulse() * PulseThreshold

	pd.bits.Clear()
	for _, e := range pd.zc.Edges() {
		if e.Peak >= threshold {
			pos := max(e.Leading, 0)
			pd.bits.Set(pos, e.Trailing-pos, true)
		}
	}
}

func (pd *PeriodDetector) autocorrelate() {
	edges := pd.zc.Edges()
	if len(edges) < 2 {
		panic("pitch: autocorrelation needs at least two edges")
	}

	pd.collect.reset()
	sweep(edges, pd.sweepParams(), pd.acf, &pd.collect)
	pd.fundamental = pd.collect.result(edges)
}

func (pd *PeriodDetector) sweepParams() sweepParams {
	return sweepParams{
		threshold: pd.zc.PeakPulse() * PulseThreshold,
		minPeriod: pd.minPeriod,
		midPoint:  pd.midPoint,
		weight:    pd.weight,
	}
}

// State returns true while the signal is inside a pulse
func (pd *PeriodDetector) State() bool {
	return pd.zc.State()
}

// IsReady reports whether the last sample completed an analysis window
func (pd *PeriodDetector) IsReady() bool {
	return pd.zc.IsReady()
}

// IsReset reports whether the last sample lost the signal and cleared the estimate
func (pd *PeriodDetector) IsReset() bool {
	return pd.zc.IsReset()
}

// MinimumPeriod returns the shortest period searched, in samples
func (pd *PeriodDetector) MinimumPeriod() int {
	return pd.minPeriod
}

// WindowSize returns the analysis window size in samples
func (pd *PeriodDetector) WindowSize() int {
	return pd.zc.WindowSize()
}

// HarmonicRange returns the highest harmonic number searched
func (pd *PeriodDetector) HarmonicRange() int {
	return pd.harmonicRange
}

// Bitstream returns the pulse bitstream of the last window. It must not be modified.
func (pd *PeriodDetector) Bitstream() *common.Bitset {
	return pd.bits
}

// Edges returns the edges of the current window, oldest first. The slice
// must not be modified and is only valid until the next call to Process.
func (pd *PeriodDetector) Edges() []temporal.Edge {
	return pd.zc.Edges()
}

// Fundamental returns the estimate of the last analysis window
func (pd *PeriodDetector) Fundamental() Info {
	return pd.fundamental
}

// HarmonicPeriodicity returns the periodicity of the signal at
// fundamental/index. Index 1 is the fundamental itself. Lags outside the
// searched range score 0.
func (pd *PeriodDetector) HarmonicPeriodicity(index int) float64 {
	if index <= 0 {
		return 0
	}
	if index == 1 {
		return pd.fundamental.Periodicity
	}

	target := pd.fundamental.Period / float64(index)
	if target >= float64(pd.minPeriod) && target < float64(pd.midPoint) {
		count := pd.acf.MismatchCount(int(math.Round(target)))
		return periodicityOf(count, pd.weight)
	}
	return 0
}

// PredictedPeriod estimates the period of the cycle still forming, ahead
// of the next analysis window, from the latest pair of similar pulses.
// It returns -1 when no prediction is available. The result is cached
// until the next falling edge.
func (pd *PeriodDetector) PredictedPeriod() float64 {
	if pd.predictedPeriod != -1 || pd.edgeMark == pd.predictEdge {
		return pd.predictedPeriod
	}
	pd.predictEdge = pd.edgeMark

	edges := pd.zc.Edges()
	if len(edges) < 2 {
		return pd.predictedPeriod
	}

	threshold := pd.zc.PeakPulse() * PulseThreshold
	for i := len(edges) - 1; i > 0; i-- {
		edge2 := &edges[i]
		if edge2.Peak < threshold {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			edge1 := &edges[j]
			if edge1.Similar(edge2) {
				pd.predictedPeriod = edge1.FractionalPeriod(edge2)
				return pd.predictedPeriod
			}
		}
	}
	return pd.predictedPeriod
}
