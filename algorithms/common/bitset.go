package common

import "math/bits"

// WordBits is the number of bits stored per Bitset word
const WordBits = 64

// Bitset is a fixed-capacity bit vector backed by 64-bit words.
// The capacity is rounded up to a whole number of words at construction
// and never changes afterwards.
type Bitset struct {
	words []uint64
	size  int
}

// NewBitset creates a bitset that can hold at least size bits
func NewBitset(size int) *Bitset {
	if size < 0 {
		size = 0
	}
	n := (size + WordBits - 1) / WordBits
	return &Bitset{
		words: make([]uint64, n),
		size:  n * WordBits,
	}
}

// Size returns the capacity in bits (a multiple of WordBits)
func (b *Bitset) Size() int {
	return b.size
}

// Words returns the backing words. The slice must not be modified.
func (b *Bitset) Words() []uint64 {
	return b.words
}

// Clear sets all bits to 0
func (b *Bitset) Clear() {
	clear(b.words)
}

// Get returns the bit at pos. Out of range positions read as false.
func (b *Bitset) Get(pos int) bool {
	if pos < 0 || pos >= b.size {
		return false
	}
	return b.words[pos/WordBits]&(1<<(uint(pos)%WordBits)) != 0
}

// Set sets n bits starting at pos to val. The span is clipped to the
// capacity of the bitset.
func (b *Bitset) Set(pos, n int, val bool) {
	if pos < 0 {
		n += pos
		pos = 0
	}
	if pos+n > b.size {
		n = b.size - pos
	}
	if n <= 0 {
		return
	}

	for n > 0 {
		index := pos / WordBits
		offset := uint(pos % WordBits)
		span := min(n, WordBits-int(offset))

		var mask uint64
		if span == WordBits {
			mask = ^uint64(0)
		} else {
			mask = ((uint64(1) << uint(span)) - 1) << offset
		}

		if val {
			b.words[index] |= mask
		} else {
			b.words[index] &^= mask
		}

		pos += span
		n -= span
	}
}

// Count returns the number of bits set to 1
func (b *Bitset) Count() int {
	count := 0
	for _, w := range b.words {
		count += bits.OnesCount64(w)
	}
	return count
}
