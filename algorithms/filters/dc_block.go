package filters

import (
	"math"
)

// DCBlock is a one pole, one zero high-pass filter that removes the DC
// offset of a signal so zero crossings land where the waveform actually
// changes sign. It implements
//
//	y[n] = x[n] - x[n-1] + R * y[n-1]
//
// See Julius O. Smith III, "Introduction to Digital Filters with Audio
// Applications", DC Blocker.
type DCBlock struct {
	pole float64 // R, 0 < R < 1

	x1 float64
	y1 float64
}

// NewDCBlock creates a DC blocker with its -3 dB point at cutoffFreq Hz.
// The pole is placed at R = 1 - 2*pi*fc/fs, accurate for fc << fs/2.
func NewDCBlock(cutoffFreq float64, sampleRate int) *DCBlock {
	pole := 0.995
	if sampleRate > 0 && cutoffFreq > 0 {
		pole = 1.0 - (2.0 * math.Pi * cutoffFreq / float64(sampleRate))
		pole = min(max(pole, 0.001), 0.999)
	}
	return &DCBlock{pole: pole}
}

// Process filters one sample
func (dc *DCBlock) Process(input float64) float64 {
	output := input - dc.x1 + dc.pole*dc.y1
	dc.x1 = input
	dc.y1 = output
	return output
}

// ProcessInPlace filters buf in place
func (dc *DCBlock) ProcessInPlace(buf []float64) {
	for i, s := range buf {
		buf[i] = dc.Process(s)
	}
}

// Reset clears the filter state
func (dc *DCBlock) Reset() {
	dc.x1 = 0
	dc.y1 = 0
}

// Pole returns R
func (dc *DCBlock) Pole() float64 {
	return dc.pole
}

// Cutoff returns the approximate -3 dB frequency, fc = (1-R)*fs/(2*pi)
func (dc *DCBlock) Cutoff(sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return (1.0 - dc.pole) * float64(sampleRate) / (2.0 * math.Pi)
}
