package pitch

import (
	"math"

	"github.com/RyanBlaney/sonido-pitch/algorithms/temporal"
)

// candidate is one autocorrelation result: the pair of edges that
// produced the lag and how periodic the bitstream is at that lag
type candidate struct {
	i1          int
	i2          int
	period      int
	periodicity float64
	harmonic    int
}

var noCandidate = candidate{i1: -1, i2: -1, period: -1}

// collectorAction is what the collector does with an incoming candidate
type collectorAction int

const (
	keepFundamental collectorAction = iota
	mergeHarmonic
	replaceFundamental
)

func (a collectorAction) String() string {
	switch a {
	case keepFundamental:
		return "keep"
	case mergeHarmonic:
		return "merge"
	case replaceFundamental:
		return "replace"
	default:
		return "unknown"
	}
}

// collectorTransitions is indexed by
// [divisor matched][periodicity improved][gain within harmonic threshold].
//
// For a matched divisor, improved also requires the divisor to differ from
// the harmonic already recorded on the held fundamental.
var collectorTransitions = [2][2][2]collectorAction{
	// No harmonic relation to the held fundamental
	{
		{keepFundamental, keepFundamental},
		{replaceFundamental, replaceFundamental},
	},
	// Incoming period is a multiple of the held fundamental
	{
		{keepFundamental, keepFundamental},
		{replaceFundamental, mergeHarmonic},
	},
}

func transition(matched, improved, within bool) collectorAction {
	return collectorTransitions[b2i(matched)][b2i(improved)][b2i(within)]
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// collector reduces the candidates of one sweep to a single fundamental.
//
// Autocorrelation scores integer multiples of the true period about as
// high as the period itself. The collector keeps the best candidate seen
// so far and, when a later candidate is a multiple of it, only records
// which multiple it was unless the periodicity gain is large.
type collector struct {
	fundamental              candidate
	harmonicThreshold        float64
	periodicityDiffThreshold float64
	harmonicRange            int
}

func newCollector(windowSize int, periodicityDiffThreshold float64, harmonicRange int) collector {
	return collector{
		fundamental:              noCandidate,
		harmonicThreshold:        HarmonicPeriodicityFactor * 2 / float64(windowSize),
		periodicityDiffThreshold: periodicityDiffThreshold,
		harmonicRange:            harmonicRange,
	}
}

func (c *collector) reset() {
	c.fundamental = noCandidate
}

func (c *collector) save(incoming candidate) {
	c.fundamental = incoming
	c.fundamental.harmonic = 1
}

// matchDivisor returns the harmonic number h for which incoming.period/h
// lands on the held period, or 0. Higher divisors are tried first.
func (c *collector) matchDivisor(incoming candidate) int {
	for h := c.harmonicRange; h >= 1; h-- {
		diff := math.Abs(float64(incoming.period/h - c.fundamental.period))
		if diff < c.periodicityDiffThreshold {
			return h
		}
	}
	return 0
}

func (c *collector) collect(incoming candidate) {
	if c.fundamental.period == -1 {
		c.save(incoming)
		return
	}

	h := c.matchDivisor(incoming)
	matched := h != 0

	improved := incoming.periodicity > c.fundamental.periodicity
	if matched {
		improved = improved && h != c.fundamental.harmonic
	}
	within := math.Abs(incoming.periodicity-c.fundamental.periodicity) < c.harmonicThreshold

	switch transition(matched, improved, within) {
	case mergeHarmonic:
		// Period identity stays, the better pair and its harmonic are noted
		c.fundamental.i1 = incoming.i1
		c.fundamental.i2 = incoming.i2
		c.fundamental.periodicity = incoming.periodicity
		c.fundamental.harmonic = h
	case replaceFundamental:
		c.save(incoming)
	case keepFundamental:
	}
}

// result converts the held candidate to the published fundamental
func (c *collector) result(edges []temporal.Edge) Info {
	if c.fundamental.period == -1 {
		return unknownFundamental
	}
	first := &edges[c.fundamental.i1]
	next := &edges[c.fundamental.i2]
	return Info{
		Period:      first.FractionalPeriod(next) / float64(c.fundamental.harmonic),
		Periodicity: c.fundamental.periodicity,
	}
}
