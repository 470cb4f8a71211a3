package pitch

import (
	"errors"
	"fmt"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-pitch/algorithms/synth"
	"github.com/RyanBlaney/sonido-pitch/config"
	"github.com/RyanBlaney/sonido-pitch/logging"
)

const (
	sampleRate = 44100
	hysteresis = -45.0
)

func TestMain(m *testing.M) {
	logging.SetGlobalLogger(&logging.NoOpLogger{})
	os.Exit(m.Run())
}

func newDetector(t *testing.T, lowest, highest float64) *PeriodDetector {
	t.Helper()
	pd, err := NewPeriodDetector(lowest, highest, sampleRate, hysteresis)
	require.NoError(t, err)
	return pd
}

// feed runs n samples of osc through pd and returns the number of
// completed windows
func feed(pd *PeriodDetector, osc *synth.Sine, n int) int {
	ready := 0
	for range n {
		if pd.Process(osc.Next()) {
			ready++
		}
	}
	return ready
}

// predict processes osc until pd has a period prediction, giving up
// after one window
func predict(t *testing.T, pd *PeriodDetector, osc *synth.Sine) float64 {
	t.Helper()
	for range pd.WindowSize() {
		if p := pd.PredictedPeriod(); p != -1 {
			return p
		}
		pd.Process(osc.Next())
	}
	require.Fail(t, "no period prediction within a window")
	return -1
}

func TestNewPeriodDetectorErrors(t *testing.T) {
	cases := []struct {
		name            string
		lowest, highest float64
		rate            int
		want            error
	}{
		{"equal bounds", 200, 200, sampleRate, ErrInvalidRange},
		{"inverted bounds", 800, 100, sampleRate, ErrInvalidRange},
		{"zero lowest", 0, 800, sampleRate, ErrInvalidRange},
		{"NaN highest", 100, math.NaN(), sampleRate, ErrInvalidRange},
		{"above sample rate", 5000, 50000, sampleRate, ErrInvalidRange},
		{"ratio above 16", 50, 801, sampleRate, ErrCaptureRangeExceeded},
		{"ratio 17", 100, 1700, sampleRate, ErrCaptureRangeExceeded},
		{"ratio below 4", 100, 399, sampleRate, ErrCaptureRangeTooNarrow},
		{"one octave", 100, 200, sampleRate, ErrCaptureRangeTooNarrow},
		{"zero sample rate", 100, 800, 0, ErrInvalidSampleRate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pd, err := NewPeriodDetector(tc.lowest, tc.highest, tc.rate, hysteresis)
			assert.Nil(t, pd)
			assert.True(t, errors.Is(err, tc.want), "want %v, got %v", tc.want, err)
		})
	}
}

func TestNewPeriodDetectorValidRanges(t *testing.T) {
	for _, ratio := range []float64{4, 4.5, 8, 12.7, 15.99, 16} {
		t.Run(fmt.Sprintf("ratio %g", ratio), func(t *testing.T) {
			pd, err := NewPeriodDetector(60, 60*ratio, sampleRate, hysteresis)
			require.NoError(t, err)
			assert.Equal(t, int(math.Ceil(ratio)), pd.HarmonicRange())
			assert.GreaterOrEqual(t, pd.HarmonicRange(), 4)
			assert.LessOrEqual(t, pd.HarmonicRange(), 16)
		})
	}
}

func TestPeriodDetectorGeometry(t *testing.T) {
	pd := newDetector(t, 100, 800)

	assert.Equal(t, 882, pd.WindowSize())
	assert.Equal(t, 55, pd.MinimumPeriod())
	assert.Equal(t, 8, pd.HarmonicRange())
	assert.Equal(t, 896, pd.Bitstream().Size())
	assert.Equal(t, unknownFundamental, pd.Fundamental())
	assert.False(t, pd.IsReady())
	assert.Empty(t, pd.Edges())
}

func TestNewPeriodDetectorFromConfig(t *testing.T) {
	pd, err := NewPeriodDetectorFromConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, 1070, pd.WindowSize())
	assert.Equal(t, 42, pd.MinimumPeriod())
	assert.Equal(t, 13, pd.HarmonicRange())

	cfg := config.DefaultDetectorConfig()
	cfg.HighestFrequency = 2000
	_, err = NewPeriodDetectorFromConfig(cfg)
	assert.ErrorIs(t, err, ErrCaptureRangeExceeded)

	cfg = config.DefaultDetectorConfig()
	cfg.SampleRate = -1
	_, err = NewPeriodDetectorFromConfig(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestPeriodDetectorSine(t *testing.T) {
	for _, freq := range []float64{98, 196, 261.63, 440, 659.25, 880} {
		t.Run(fmt.Sprintf("%g Hz", freq), func(t *testing.T) {
			pd, err := NewPeriodDetectorFromConfig(config.DefaultDetectorConfig())
			require.NoError(t, err)
			osc := synth.NewSine(freq, sampleRate)

			ready := feed(pd, osc, 10*pd.WindowSize())
			require.Positive(t, ready)

			f := pd.Fundamental()
			want := sampleRate / freq
			assert.InEpsilon(t, want, f.Period, 0.01, "period")
			assert.InEpsilon(t, freq, f.Frequency(sampleRate), 0.01, "frequency")
			assert.Greater(t, f.Periodicity, 0.0)
			assert.LessOrEqual(t, f.Periodicity, 1.0)
		})
	}
}

// checkEveryWindow asserts that every window after the first two reports
// the period of osc
func checkEveryWindow(t *testing.T, pd *PeriodDetector, osc *synth.Sine, windows int) {
	t.Helper()
	want := osc.Period()
	ready := 0
	for ready < windows {
		if !pd.Process(0.8 * osc.Next()) {
			continue
		}
		ready++
		if ready <= 2 {
			continue
		}
		f := pd.Fundamental()
		assert.InEpsilon(t, want, f.Period, 0.01, "window %d", ready)
		assert.GreaterOrEqual(t, f.Periodicity, 0.0, "window %d", ready)
		assert.LessOrEqual(t, f.Periodicity, 1.0, "window %d", ready)
	}
}

func TestPeriodDetectorTopOfRange(t *testing.T) {
	for _, freq := range []float64{900, 950, 989.1, 992.1, 1019.2, 1040, 1046} {
		t.Run(fmt.Sprintf("%g Hz", freq), func(t *testing.T) {
			pd, err := NewPeriodDetectorFromConfig(config.DefaultDetectorConfig())
			require.NoError(t, err)
			checkEveryWindow(t, pd, synth.NewSine(freq, sampleRate), 60)
		})
	}

	t.Run("790 Hz of 50-800 Hz", func(t *testing.T) {
		pd := newDetector(t, 50, 800)
		checkEveryWindow(t, pd, synth.NewSine(790, sampleRate), 60)
	})
}

func TestPeriodicityBoundedOnSmallWindow(t *testing.T) {
	// 88 sample window, 11 sample minimum period
	pd := newDetector(t, 1000, 4000)
	require.Equal(t, 88, pd.WindowSize())
	osc := synth.NewSine(1500, sampleRate)

	ready := 0
	for range 200 * pd.WindowSize() {
		if !pd.Process(osc.Next()) {
			continue
		}
		ready++
		assert.GreaterOrEqual(t, pd.Fundamental().Periodicity, 0.0)
		assert.LessOrEqual(t, pd.Fundamental().Periodicity, 1.0)
		for i := 2; i <= 4; i++ {
			h := pd.HarmonicPeriodicity(i)
			assert.GreaterOrEqual(t, h, 0.0, "harmonic %d", i)
			assert.LessOrEqual(t, h, 1.0, "harmonic %d", i)
		}
	}
	assert.Positive(t, ready)
}

func TestPeriodDetectorQuietSine(t *testing.T) {
	pd := newDetector(t, 100, 800)
	osc := synth.NewSine(330, sampleRate)

	for range 10 * pd.WindowSize() {
		pd.Process(osc.Next() * 0.05)
	}
	assert.InEpsilon(t, sampleRate/330.0, pd.Fundamental().Period, 0.01)
}

func TestPeriodDetectorOctaveUp(t *testing.T) {
	for _, base := range []float64{110, 196, 300} {
		t.Run(fmt.Sprintf("2 x %g Hz", base), func(t *testing.T) {
			pd := newDetector(t, 100, 800)
			osc := synth.NewSine(2*base, sampleRate)
			feed(pd, osc, 10*pd.WindowSize())

			period := pd.Fundamental().Period
			assert.InEpsilon(t, sampleRate/(2*base), period, 0.01)
			assert.Less(t, period, 0.75*sampleRate/base, "sub-harmonic reported")
		})
	}
}

func TestPeriodDetectorDeterministic(t *testing.T) {
	a := newDetector(t, 100, 800)
	b := newDetector(t, 100, 800)
	oscA := synth.NewSine(523.25, sampleRate)
	oscB := synth.NewSine(523.25, sampleRate)

	for range 8 * a.WindowSize() {
		readyA := a.Process(oscA.Next())
		readyB := b.Process(oscB.Next())
		require.Equal(t, readyA, readyB)
		if readyA {
			require.Equal(t, a.Fundamental(), b.Fundamental())
		}
	}
}

func TestPeriodDetectorRepeatedWindows(t *testing.T) {
	// 147 samples per cycle, the window slides by 441 samples (3 cycles),
	// so every window after the first sees the same samples
	const period = 147
	pd := newDetector(t, 100, 800)

	var estimates []Info
	for n := range 12 * pd.WindowSize() {
		s := math.Sin(2 * math.Pi * float64(n%period) / period)
		if pd.Process(s) {
			estimates = append(estimates, pd.Fundamental())
		}
	}

	require.Greater(t, len(estimates), 4)
	for _, e := range estimates[2:] {
		assert.Equal(t, estimates[1], e)
	}
	assert.InEpsilon(t, period, estimates[1].Period, 0.01)
}

func TestPeriodDetectorSilence(t *testing.T) {
	pd := newDetector(t, 100, 800)

	for range 20 * pd.WindowSize() {
		assert.False(t, pd.Process(0))
		assert.False(t, pd.IsReady())
	}
	assert.Equal(t, -1.0, pd.Fundamental().Period)
	assert.Equal(t, -1.0, pd.PredictedPeriod())
}

func TestPeriodDetectorResetAfterTone(t *testing.T) {
	pd := newDetector(t, 100, 800)
	osc := synth.NewSine(440, sampleRate)

	feed(pd, osc, 6*pd.WindowSize())
	for pd.State() {
		pd.Process(osc.Next())
	}
	require.True(t, pd.Fundamental().Known())

	reset := false
	for range 4 * pd.WindowSize() {
		pd.Process(0)
		if pd.IsReset() {
			reset = true
			assert.Equal(t, -1.0, pd.Fundamental().Period)
			break
		}
	}
	require.True(t, reset, "silence never reset the detector")

	// Still unknown for as long as the silence lasts
	for range 4 * pd.WindowSize() {
		pd.Process(0)
		assert.Equal(t, -1.0, pd.Fundamental().Period)
	}

	// And the tone is picked up again
	feed(pd, osc, 6*pd.WindowSize())
	assert.InEpsilon(t, osc.Period(), pd.Fundamental().Period, 0.01)
}

func TestPeriodDetectorBitstream(t *testing.T) {
	pd := newDetector(t, 100, 800)
	osc := synth.NewSine(250, sampleRate)

	for range 4 * pd.WindowSize() {
		if !pd.Process(osc.Next()) {
			continue
		}

		bits := pd.Bitstream()
		threshold := pd.zc.PeakPulse() * PulseThreshold
		expected := 0
		for _, e := range pd.Edges() {
			if e.Peak < threshold {
				continue
			}
			start := max(e.Leading, 0)
			end := min(e.Trailing, bits.Size())
			for pos := start; pos < end; pos++ {
				assert.True(t, bits.Get(pos), "bit %d of edge %d-%d", pos, e.Leading, e.Trailing)
			}
			expected += end - start
		}
		assert.Equal(t, expected, bits.Count())
	}
}

func TestHarmonicPeriodicity(t *testing.T) {
	pd := newDetector(t, 100, 800)
	osc := synth.NewSine(220, sampleRate)

	// Unknown fundamental
	assert.Equal(t, pd.Fundamental().Periodicity, pd.HarmonicPeriodicity(1))
	assert.Equal(t, 0.0, pd.HarmonicPeriodicity(2))

	feed(pd, osc, 8*pd.WindowSize())
	f := pd.Fundamental()
	require.True(t, f.Known())

	assert.Equal(t, f.Periodicity, pd.HarmonicPeriodicity(1))
	assert.Equal(t, 0.0, pd.HarmonicPeriodicity(0))
	assert.Equal(t, 0.0, pd.HarmonicPeriodicity(-3))

	for _, i := range []int{2, 3} {
		h := pd.HarmonicPeriodicity(i)
		assert.GreaterOrEqual(t, h, 0.0, "harmonic %d", i)
		assert.LessOrEqual(t, h, 1.0, "harmonic %d", i)
	}

	// 200 / 4 is below the minimum period
	assert.Equal(t, 0.0, pd.HarmonicPeriodicity(4))
}

func TestPredictedPeriod(t *testing.T) {
	pd := newDetector(t, 100, 800)
	osc := synth.NewSine(370, sampleRate)

	assert.Equal(t, -1.0, pd.PredictedPeriod())

	feed(pd, osc, 6*pd.WindowSize())
	fundamental := pd.Fundamental().Period
	require.Positive(t, fundamental)

	predicted := predict(t, pd, osc)
	assert.InEpsilon(t, fundamental, predicted, 0.01)
	assert.Equal(t, predicted, pd.PredictedPeriod(), "cached")

	// Keeps tracking while the window fills up
	for range 3 * pd.WindowSize() {
		pd.Process(osc.Next())
		if p := pd.PredictedPeriod(); p != -1 {
			assert.InEpsilon(t, osc.Period(), p, 0.01)
		}
	}
}

func TestPredictedPeriodInvalidatedByFallingEdge(t *testing.T) {
	pd := newDetector(t, 100, 800)
	osc := synth.NewSine(440, sampleRate)
	feed(pd, osc, 4*pd.WindowSize())

	predict(t, pd, osc)
	mark := pd.edgeMark

	for pd.edgeMark == mark {
		pd.Process(osc.Next())
	}
	assert.Equal(t, -1.0, pd.predictedPeriod, "cache dropped on falling edge")
	assert.InEpsilon(t, osc.Period(), pd.PredictedPeriod(), 0.01)
}

func TestProcessDoesNotAllocate(t *testing.T) {
	pd := newDetector(t, 100, 800)
	osc := synth.NewSine(440, sampleRate)
	feed(pd, osc, 2*pd.WindowSize())

	allocs := testing.AllocsPerRun(5*pd.WindowSize(), func() {
		pd.Process(osc.Next())
	})
	assert.Zero(t, allocs)
}

func TestInfoFrequency(t *testing.T) {
	assert.Equal(t, 0.0, unknownFundamental.Frequency(sampleRate))
	assert.False(t, unknownFundamental.Known())
	assert.Equal(t, 441.0, Info{Period: 100}.Frequency(sampleRate))
}
