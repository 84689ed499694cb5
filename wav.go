package spatial

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV indicates input that is not a readable PCM WAV file.
var ErrInvalidWAV = errors.New("invalid WAV file")

// LoadWAV decodes a PCM WAV stream into a buffer at the file's sample rate.
func LoadWAV(r io.ReadSeeker) (*AudioBuffer, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	switch int(decoder.BitDepth) {
	case bitsPerSample16, bitsPerSample24, bitsPerSample32:
	default:
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidWAV, decoder.BitDepth)
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}

	format := decoder.Format()
	channels := format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidWAV)
	}
	frames := len(pcm.Data) / channels
	if frames == 0 {
		return nil, fmt.Errorf("%w: no audio data", ErrInvalidWAV)
	}

	buf, err := NewAudioBuffer(channels, frames, float32(format.SampleRate))
	if err != nil {
		return nil, err
	}
	deinterleave(pcm.Data, buf.channels, 1/maxValue(int(decoder.BitDepth)))

	return buf, nil
}

// WriteWAV encodes b as PCM WAV with the given bit depth (16, 24 or 32).
// Samples are clamped to [-1, 1].
func WriteWAV(w io.WriteSeeker, b *AudioBuffer, bitDepth int) error {
	switch bitDepth {
	case bitsPerSample16, bitsPerSample24, bitsPerSample32:
	default:
		return fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidConfig, bitDepth)
	}

	channels := b.NumberOfChannels()
	encoder := wav.NewEncoder(w, int(b.sampleRate), bitDepth, channels, wavFormatPCM)

	pcm := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  int(b.sampleRate),
		},
		Data:           interleave(b.channels, maxValue(bitDepth)),
		SourceBitDepth: bitDepth,
	}

	if err := encoder.Write(pcm); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return nil
}

// maxValue returns the largest sample value for the given bit depth.
func maxValue(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample24:
		return maxInt24
	case bitsPerSample32:
		return maxInt32
	default:
		return maxInt16
	}
}

// deinterleave converts interleaved integer samples to planar floats.
func deinterleave(data []int, channels [][]float32, scale float64) {
	n := len(channels)
	for i := range channels[0] {
		for ch := range n {
			channels[ch][i] = float32(float64(data[i*n+ch]) * scale)
		}
	}
}

// interleave converts planar floats to interleaved integer samples.
func interleave(channels [][]float32, scale float64) []int {
	n := len(channels)
	out := make([]int, len(channels[0])*n)
	for i := range channels[0] {
		for ch := range n {
			s := min(max(float64(channels[ch][i]), -1), 1)
			out[i*n+ch] = int(s * scale)
		}
	}
	return out
}
