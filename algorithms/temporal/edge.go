package temporal

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	// PulseHeightDiff is the minimum relative peak agreement of similar pulses
	PulseHeightDiff = 0.8

	// PulseWidthDiff is the minimum relative width agreement of similar pulses
	PulseWidthDiff = 0.85

	// widthFactor marks where a pulse width is measured: the first sample
	// that falls under this fraction of the peak
	widthFactor = 0.3
)

// UndefinedEdge marks an edge position that has not been recorded yet
const UndefinedEdge = math.MinInt32

// Edge describes one positive pulse of the signal: where it crossed zero
// going up, where it crossed the hysteresis going down and how high it
// got in between. Positions are sample indices relative to the current
// analysis window and can be negative for pulses carried over from the
// previous window.
type Edge struct {
	Leading  int     `json:"leading"`  // Frame of the rising crossing
	Trailing int     `json:"trailing"` // Frame of the falling crossing
	Peak     float64 `json:"peak"`     // Highest sample of the pulse
	Width    float64 `json:"width"`    // Frames until the pulse fell under 30% of the peak

	// Samples on either side of the rising crossing
	crossingPrev float64
	crossingCurr float64
}

func (e *Edge) updatePeak(s float64, frame int) {
	e.Peak = math.Max(s, e.Peak)
	if e.Width == 0 && s < e.Peak*widthFactor {
		e.Width = float64(frame - e.Leading)
	}
}

// Period returns the number of frames between the leading edges of e and next
func (e *Edge) Period(next *Edge) int {
	return next.Leading - e.Leading
}

// FractionalPeriod returns the period between e and next with both zero
// crossings linearly interpolated for sub-sample precision
func (e *Edge) FractionalPeriod(next *Edge) float64 {
	dx1 := e.crossingOffset()
	dx2 := next.crossingOffset()
	return float64(next.Leading-e.Leading) + (dx2 - dx1)
}

// crossingOffset is the fraction of a frame between the previous sample
// and the interpolated zero crossing
func (e *Edge) crossingOffset() float64 {
	dy := e.crossingCurr - e.crossingPrev
	if dy == 0 {
		return 0
	}
	return -e.crossingPrev / dy
}

// PulseWidth returns the high span of the pulse in frames
func (e *Edge) PulseWidth() int {
	return e.Trailing - e.Leading
}

// Similar reports whether next has about the same peak and width as e
func (e *Edge) Similar(next *Edge) bool {
	return scalar.EqualWithinRel(e.Peak, next.Peak, 1-PulseHeightDiff) &&
		scalar.EqualWithinRel(e.Width, next.Width, 1-PulseWidthDiff)
}
