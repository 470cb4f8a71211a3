package pitch

import (
	"github.com/RyanBlaney/sonido-pitch/algorithms/stats"
	"github.com/RyanBlaney/sonido-pitch/algorithms/temporal"
)

// LagCorrelator scores a candidate lag against the pulse bitstream.
// MismatchCount returns 0 for a perfect match, lower is more periodic.
type LagCorrelator interface {
	MismatchCount(lag int) int
}

var _ LagCorrelator = (*stats.BitstreamACF)(nil)

// sweepParams are the window-derived bounds of one autocorrelation sweep
type sweepParams struct {
	threshold float64 // Minimum pulse peak
	minPeriod int
	midPoint  int
	weight    float64 // Periodicity lost per mismatching bit
}

// periodicityOf maps a mismatch count to a periodicity in [0, 1]
func periodicityOf(count int, weight float64) float64 {
	return min(max(1-float64(count)*weight, 0), 1)
}

// sweep scores the lag between every pair of qualifying edges and feeds
// the results to the collector. The inner scan stops once the lag passes
// the window midpoint and the whole sweep stops on a perfect match.
func sweep(edges []temporal.Edge, p sweepParams, ac LagCorrelator, c *collector) {
	for i := 0; i < len(edges)-1; i++ {
		first := &edges[i]
		if first.Peak < p.threshold {
			continue
		}
		for j := i + 1; j < len(edges); j++ {
			next := &edges[j]
			if next.Peak < p.threshold {
				continue
			}

			period := first.Period(next)
			if period > p.midPoint {
				break
			}
			if period < p.minPeriod {
				continue
			}

			count := ac.MismatchCount(period)
			c.collect(candidate{
				i1:          i,
				i2:          j,
				period:      period,
				periodicity: periodicityOf(count, p.weight),
			})

			// Nothing beats a perfect correlation
			if count == 0 {
				return
			}
		}
	}
}
