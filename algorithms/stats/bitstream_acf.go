package stats

import (
	"math/bits"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
)

// BitstreamACF computes the autocorrelation of a pulse bitstream.
//
// The first half of the bitstream is XORed against the bitstream shifted
// by the lag and the differing bits are counted. A count of 0 means the
// signal repeats perfectly at that lag.
//
// The correlator holds a reference to the bitset, so a single instance
// stays valid while the bitset contents are rebuilt.
type BitstreamACF struct {
	bits     *common.Bitset
	midArray int
}

// NewBitstreamACF creates a correlator over the given bitset
func NewBitstreamACF(b *common.Bitset) *BitstreamACF {
	midArray := 0
	if words := len(b.Words()); words > 0 {
		midArray = max((words/2)-1, 1)
	}
	return &BitstreamACF{
		bits:     b,
		midArray: midArray,
	}
}

// MismatchCount returns the number of bits that differ between the
// bitstream and itself shifted by lag. Lower is more periodic.
func (ac *BitstreamACF) MismatchCount(lag int) int {
	if lag < 0 {
		lag = -lag
	}

	words := ac.bits.Words()
	index := lag / common.WordBits
	shift := uint(lag % common.WordBits)

	count := 0
	if shift == 0 {
		for i := range ac.midArray {
			count += bits.OnesCount64(words[i] ^ wordAt(words, index+i))
		}
		return count
	}

	shift2 := common.WordBits - shift
	for i := range ac.midArray {
		v := wordAt(words, index+i) >> shift
		v |= wordAt(words, index+i+1) << shift2
		count += bits.OnesCount64(words[i] ^ v)
	}
	return count
}

// MaxCount returns the largest count MismatchCount can report
func (ac *BitstreamACF) MaxCount() int {
	return ac.midArray * common.WordBits
}

// wordAt reads past the end of the bitstream as zeros
func wordAt(words []uint64, i int) uint64 {
	if i >= len(words) {
		return 0
	}
	return words[i]
}
