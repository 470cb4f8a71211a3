package temporal

import (
	"math"
)

// ZeroCrossing turns a sample stream into timestamped pulses.
//
// A pulse starts when the signal crosses zero going up and ends when it
// falls below the (negative) hysteresis level. Samples are offset by half
// of the hysteresis so detection stays centered on the actual zero.
//
// Edges are collected over a window of windowSize frames. The window is
// ready once the frame counter reaches the window size outside of a pulse
// with at least two edges recorded. On the following sample the window
// slides forward by half its size: only the most recent edge is kept,
// shifted to the new window start, and the rest are discarded. A window
// that fills up with fewer than two edges, or that is half full without
// any edge, resets the detector (voicing lost).
//
// Storage for the edges is allocated once at construction, Process does
// not allocate.
type ZeroCrossing struct {
	hysteresis float64
	windowSize int
	capacity   int

	edges []Edge // Oldest first

	prev  float64
	state bool
	frame int

	ready    bool
	wasReset bool

	peak       float64 // Peak of the previous window
	peakUpdate float64 // Peak of the current window
}

// NewZeroCrossing creates an edge detector. hysteresisDB is the level,
// in decibels relative to full scale (e.g. -45), the signal must fall
// under before a pulse ends.
func NewZeroCrossing(hysteresisDB float64, windowSize int) *ZeroCrossing {
	capacity := max(windowSize/2, 2)
	return &ZeroCrossing{
		hysteresis: -math.Pow(10, hysteresisDB/20),
		windowSize: windowSize,
		capacity:   capacity,
		edges:      make([]Edge, 0, capacity),
	}
}

// Process feeds one sample and returns true while inside a pulse
func (zc *ZeroCrossing) Process(s float64) bool {
	zc.wasReset = false
	s += zc.hysteresis / 2

	if zc.ready {
		zc.shift(zc.windowSize / 2)
		zc.ready = false
		zc.peak = zc.peakUpdate
		zc.peakUpdate = 0
	}

	if len(zc.edges) >= zc.capacity {
		zc.reset()
	}

	if zc.frame == zc.windowSize/2 && len(zc.edges) == 0 {
		zc.reset()
	}

	zc.updateState(s)

	zc.frame++
	if zc.frame >= zc.windowSize && !zc.state {
		// Drop half the window so the next one continues seamlessly
		zc.frame -= zc.windowSize / 2

		// At least two rising edges are needed for a period
		if len(zc.edges) > 1 {
			zc.ready = true
		} else {
			zc.reset()
		}
	}

	zc.prev = s
	return zc.state
}

func (zc *ZeroCrossing) updateState(s float64) {
	if s > 0 {
		if !zc.state {
			zc.edges = append(zc.edges, Edge{
				Leading:      zc.frame,
				Trailing:     UndefinedEdge,
				Peak:         s,
				crossingPrev: zc.prev,
				crossingCurr: s,
			})
			zc.state = true
		} else {
			zc.edges[len(zc.edges)-1].updatePeak(s, zc.frame)
		}
		if s > zc.peakUpdate {
			zc.peakUpdate = s
		}
	} else if zc.state && s < zc.hysteresis {
		zc.state = false
		zc.edges[len(zc.edges)-1].Trailing = zc.frame
		if zc.peak == 0 {
			zc.peak = zc.peakUpdate
		}
	}
}

// shift keeps the latest edge, moved n frames back
func (zc *ZeroCrossing) shift(n int) {
	if len(zc.edges) == 0 {
		return
	}
	last := zc.edges[len(zc.edges)-1]
	last.Leading -= n
	if last.Trailing != UndefinedEdge {
		last.Trailing -= n
	}
	zc.edges = append(zc.edges[:0], last)
}

func (zc *ZeroCrossing) reset() {
	zc.edges = zc.edges[:0]
	zc.state = false
	zc.frame = 0
	zc.ready = false
	zc.peak = 0
	zc.peakUpdate = 0
	zc.wasReset = true
}

// State returns true while inside a pulse
func (zc *ZeroCrossing) State() bool {
	return zc.state
}

// IsReady reports whether the last sample completed a window
func (zc *ZeroCrossing) IsReady() bool {
	return zc.ready
}

// IsReset reports whether the last sample reset the detector
func (zc *ZeroCrossing) IsReset() bool {
	return zc.wasReset
}

// PeakPulse returns the highest pulse seen over the previous and current window
func (zc *ZeroCrossing) PeakPulse() float64 {
	return math.Max(zc.peak, zc.peakUpdate)
}

// NumEdges returns the number of edges in the current window
func (zc *ZeroCrossing) NumEdges() int {
	return len(zc.edges)
}

// Edge returns the edge at index i, 0 being the oldest
func (zc *ZeroCrossing) Edge(i int) Edge {
	return zc.edges[i]
}

// Edges returns the edges of the current window, oldest first. The slice
// is owned by the detector and is only valid until the next call to
// Process.
func (zc *ZeroCrossing) Edges() []Edge {
	return zc.edges
}

// Capacity returns the maximum number of edges held before a reset
func (zc *ZeroCrossing) Capacity() int {
	return zc.capacity
}

// Frame returns the current frame position within the window
func (zc *ZeroCrossing) Frame() int {
	return zc.frame
}

// WindowSize returns the window size in frames
func (zc *ZeroCrossing) WindowSize() int {
	return zc.windowSize
}
