package pitch

import "errors"

var (
	// ErrInvalidRange indicates the frequency bounds are not positive and increasing.
	ErrInvalidRange = errors.New("pitch: highest frequency must be above lowest frequency")
	// ErrCaptureRangeExceeded indicates highest/lowest exceeds 16 (4 octaves).
	ErrCaptureRangeExceeded = errors.New("pitch: capture range exceeded, highest/lowest must not exceed 16 (4 octaves)")
	// ErrCaptureRangeTooNarrow indicates highest/lowest is below 4 (2 octaves).
	ErrCaptureRangeTooNarrow = errors.New("pitch: capture range too narrow, highest/lowest must be at least 4 (2 octaves)")
	// ErrInvalidSampleRate indicates a non-positive sample rate.
	ErrInvalidSampleRate = errors.New("pitch: sample rate must be positive")
)
