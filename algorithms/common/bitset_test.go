package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBitsetRoundsToWords(t *testing.T) {
	assert.Equal(t, 0, NewBitset(0).Size())
	assert.Equal(t, 64, NewBitset(1).Size())
	assert.Equal(t, 64, NewBitset(64).Size())
	assert.Equal(t, 896, NewBitset(882).Size())
	assert.Len(t, NewBitset(882).Words(), 14)
}

func TestBitsetSetSpansWords(t *testing.T) {
	b := NewBitset(256)
	b.Set(60, 10, true)

	for i := 0; i < 256; i++ {
		want := i >= 60 && i < 70
		require.Equal(t, want, b.Get(i), "bit %d", i)
	}
	assert.Equal(t, 10, b.Count())
	assert.Equal(t, uint64(0xF)<<60, b.Words()[0])
	assert.Equal(t, uint64(0x3F), b.Words()[1])
}

func TestBitsetFullWord(t *testing.T) {
	b := NewBitset(192)
	b.Set(64, 64, true)
	assert.Equal(t, uint64(0), b.Words()[0])
	assert.Equal(t, ^uint64(0), b.Words()[1])
	assert.Equal(t, uint64(0), b.Words()[2])
}

func TestBitsetClipsOutOfRange(t *testing.T) {
	b := NewBitset(64)
	b.Set(-5, 10, true)
	assert.Equal(t, 5, b.Count())
	assert.True(t, b.Get(0))
	assert.True(t, b.Get(4))
	assert.False(t, b.Get(5))

	b.Set(60, 100, true)
	assert.Equal(t, 9, b.Count())
	assert.False(t, b.Get(64))
	assert.False(t, b.Get(-1))
}

func TestBitsetClearAndUnset(t *testing.T) {
	b := NewBitset(128)
	b.Set(0, 128, true)
	b.Set(10, 20, false)
	assert.Equal(t, 108, b.Count())
	assert.False(t, b.Get(10))
	assert.True(t, b.Get(30))

	b.Clear()
	assert.Equal(t, 0, b.Count())
}
