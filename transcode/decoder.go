package transcode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mjibson/go-dsp/wav"

	"github.com/RyanBlaney/sonido-pitch/logging"
)

// ErrUnsupportedFormat is returned for WAV encodings the decoder cannot read
var ErrUnsupportedFormat = errors.New("transcode: unsupported wav format")

// chunkFrames is the number of frames read from the wav stream at once
const chunkFrames = 4096

// AudioData represents decoded audio data
type AudioData struct {
	PCM        []float64     `json:"-"` // Samples in [-1, 1], interleaved when Channels > 1
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
}

// Frames returns the number of sample frames
func (a *AudioData) Frames() int {
	if a.Channels <= 0 {
		return 0
	}
	return len(a.PCM) / a.Channels
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetChannels int           `json:"target_channels"` // 1 downmixes to mono, 0 keeps the source layout
	MaxDuration    time.Duration `json:"max_duration"`    // 0 means no limit
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetChannels: 1, // The period detector is monophonic
		MaxDuration:    0,
	}
}

// Decoder reads PCM WAV audio
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// DecodeFile decodes a WAV file
func (d *Decoder) DecodeFile(filename string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeFile",
		"filename":  filename,
	})

	f, err := os.Open(filename)
	if err != nil {
		logger.Error(err, "Failed to open audio file")
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer f.Close()

	return d.DecodeReader(f)
}

// DecodeBytes decodes WAV audio held in memory
func (d *Decoder) DecodeBytes(data []byte) (*AudioData, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio data")
	}
	return d.DecodeReader(bytes.NewReader(data))
}

// DecodeReader decodes WAV audio from an io.Reader
func (d *Decoder) DecodeReader(reader io.Reader) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeReader",
	})

	w, err := wav.New(reader)
	if err != nil {
		logger.Error(err, "Failed to read wav header")
		return nil, fmt.Errorf("failed to read wav header: %w", err)
	}

	channels := int(w.NumChannels)
	sampleRate := int(w.SampleRate)
	if channels <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedFormat, channels, sampleRate)
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": sampleRate,
		"input_channels":    channels,
		"bits_per_sample":   w.BitsPerSample,
		"audio_format":      w.AudioFormat,
		"samples":           w.Samples,
	})

	remaining := w.Samples
	if d.config.MaxDuration > 0 {
		limit := int(d.config.MaxDuration.Seconds()*float64(sampleRate)) * channels
		remaining = min(remaining, limit)
	}

	pcm := make([]float64, 0, max(remaining, 0))
	for remaining > 0 {
		n := min(chunkFrames*channels, remaining)
		samples, err := w.ReadSamples(n)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			logger.Warn("Wav data ended early", logging.Fields{
				"missing_samples": remaining,
			})
			break
		}
		if err != nil {
			logger.Error(err, "Failed to read wav samples")
			return nil, fmt.Errorf("failed to read wav samples: %w", err)
		}

		before := len(pcm)
		pcm, err = appendSamples(pcm, samples)
		if err != nil {
			return nil, err
		}
		read := len(pcm) - before
		if read < n {
			break
		}
		remaining -= read
	}

	// Whole frames only
	pcm = pcm[:len(pcm)-len(pcm)%channels]

	audio := &AudioData{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   channels,
	}
	if d.config.TargetChannels == 1 && channels > 1 {
		audio = downmix(audio)
	}
	audio.Duration = time.Duration(audio.Frames()) * time.Second / time.Duration(sampleRate)

	logger.Debug("Audio decode completed", logging.Fields{
		"frames":   audio.Frames(),
		"channels": audio.Channels,
		"duration": audio.Duration.Seconds(),
	})

	return audio, nil
}

// appendSamples converts one block returned by the wav reader to floats
// in [-1, 1]
func appendSamples(pcm []float64, samples any) ([]float64, error) {
	switch s := samples.(type) {
	case nil:
	case []uint8:
		for _, v := range s {
			pcm = append(pcm, (float64(v)-128)/128)
		}
	case []int16:
		for _, v := range s {
			pcm = append(pcm, float64(v)/32768)
		}
	case []float32:
		for _, v := range s {
			pcm = append(pcm, float64(v))
		}
	default:
		return pcm, fmt.Errorf("%w: sample type %T", ErrUnsupportedFormat, samples)
	}
	return pcm, nil
}

// downmix averages interleaved channels into a single one
func downmix(a *AudioData) *AudioData {
	frames := a.Frames()
	mono := make([]float64, frames)
	for i := range frames {
		var sum float64
		for c := range a.Channels {
			sum += a.PCM[i*a.Channels+c]
		}
		mono[i] = sum / float64(a.Channels)
	}
	return &AudioData{
		PCM:        mono,
		SampleRate: a.SampleRate,
		Channels:   1,
	}
}
