package spatial

import (
	"fmt"

	"github.com/tphakala/go-audio-spatial/internal/engine"
	"github.com/tphakala/go-audio-spatial/internal/graph"
)

// AudioBuffer is a block of planar float32 audio at a fixed sample rate.
type AudioBuffer struct {
	sampleRate float32
	channels   [][]float32
}

// NewAudioBuffer creates a silent buffer.
func NewAudioBuffer(channels, length int, sampleRate float32) (*AudioBuffer, error) {
	if err := checkBufferShape(channels, length, sampleRate); err != nil {
		return nil, err
	}

	b := &AudioBuffer{
		sampleRate: sampleRate,
		channels:   make([][]float32, channels),
	}
	for i := range b.channels {
		b.channels[i] = make([]float32, length)
	}
	return b, nil
}

// NewAudioBufferFromChannels creates a buffer that takes ownership of data,
// one slice per channel. Every channel must have the same length.
func NewAudioBufferFromChannels(data [][]float32, sampleRate float32) (*AudioBuffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: buffer needs at least one channel", ErrInvalidConfig)
	}
	if err := checkBufferShape(len(data), len(data[0]), sampleRate); err != nil {
		return nil, err
	}
	for i, ch := range data {
		if len(ch) != len(data[0]) {
			return nil, fmt.Errorf("%w: channel %d has %d frames, want %d", ErrInvalidConfig, i, len(ch), len(data[0]))
		}
	}

	return &AudioBuffer{sampleRate: sampleRate, channels: data}, nil
}

func checkBufferShape(channels, length int, sampleRate float32) error {
	if channels < 1 || channels > graph.MaxChannels {
		return fmt.Errorf("%w: channel count %d out of range (1-%d)", ErrInvalidConfig, channels, graph.MaxChannels)
	}
	if length < 1 {
		return fmt.Errorf("%w: buffer length must be positive", ErrInvalidConfig)
	}
	if rate := float64(sampleRate); !isFinite(rate) || rate < minSampleRate || rate > maxSampleRate {
		return fmt.Errorf("%w: sample rate %v out of range (%d-%d Hz)", ErrInvalidConfig, sampleRate, minSampleRate, maxSampleRate)
	}
	return nil
}

// SampleRate returns the sample rate in Hz.
func (b *AudioBuffer) SampleRate() float32 { return b.sampleRate }

// NumberOfChannels returns the number of channels.
func (b *AudioBuffer) NumberOfChannels() int { return len(b.channels) }

// Length returns the number of frames.
func (b *AudioBuffer) Length() int { return len(b.channels[0]) }

// Duration returns the length in seconds.
func (b *AudioBuffer) Duration() float64 {
	return float64(b.Length()) / float64(b.sampleRate)
}

// Channel returns the samples of channel i. The slice aliases the buffer.
func (b *AudioBuffer) Channel(i int) []float32 {
	return b.channels[i]
}

// Resample returns a copy of b converted to sampleRate. The conversion is
// band-limited: content above the lower of the two Nyquist frequencies is
// removed rather than aliased. The result has ceil(Length*ratio) frames.
func (b *AudioBuffer) Resample(sampleRate float32) (*AudioBuffer, error) {
	if err := checkBufferShape(len(b.channels), b.Length(), sampleRate); err != nil {
		return nil, err
	}

	out := make([][]float32, len(b.channels))
	if sampleRate == b.sampleRate {
		for i, ch := range b.channels {
			out[i] = append([]float32(nil), ch...)
		}
		return &AudioBuffer{sampleRate: sampleRate, channels: out}, nil
	}

	r, err := engine.NewResampler[float32](float64(b.sampleRate), float64(sampleRate), engine.QualityMedium)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for i, ch := range b.channels {
		out[i] = r.Resample(ch)
	}

	return &AudioBuffer{sampleRate: sampleRate, channels: out}, nil
}
