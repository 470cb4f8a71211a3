// Package synth provides simple test signal generators
package synth

import (
	"math"
)

// phaseScale maps one full cycle onto the 32-bit phase accumulator
const phaseScale = 1 << 32

// Sine is a phase-accumulator sine oscillator. The phase is a 32-bit
// fixed-point fraction of a cycle that wraps around on overflow.
type Sine struct {
	sampleRate float64
	frequency  float64
	step       uint32
	phase      uint32
	shift      uint32
}

// NewSine creates a sine oscillator at freq Hz
func NewSine(freq float64, sampleRate int) *Sine {
	s := &Sine{sampleRate: float64(sampleRate)}
	s.SetFrequency(freq)
	return s
}

// NewSineWithPhase creates a sine oscillator starting at phase (0-1 of a cycle)
func NewSineWithPhase(freq float64, sampleRate int, phase float64) *Sine {
	s := NewSine(freq, sampleRate)
	s.shift = toPhase(phase)
	s.phase = s.shift
	return s
}

// SetFrequency changes the frequency without resetting the phase
func (s *Sine) SetFrequency(freq float64) {
	s.frequency = freq
	s.step = toPhase(freq / s.sampleRate)
}

// Frequency returns the oscillator frequency in Hz
func (s *Sine) Frequency() float64 {
	return s.frequency
}

// Period returns the period in samples
func (s *Sine) Period() float64 {
	return s.sampleRate / s.frequency
}

// Reset returns the phase to its starting point
func (s *Sine) Reset() {
	s.phase = s.shift
}

// Next returns the next sample
func (s *Sine) Next() float64 {
	v := math.Sin(2 * math.Pi * float64(s.phase) / phaseScale)
	s.phase += s.step
	return v
}

// Fill writes the next len(buf) samples scaled by gain
func (s *Sine) Fill(buf []float64, gain float64) {
	for i := range buf {
		buf[i] = s.Next() * gain
	}
}

func toPhase(fraction float64) uint32 {
	fraction -= math.Floor(fraction)
	return uint32(uint64(fraction*phaseScale) & math.MaxUint32)
}
