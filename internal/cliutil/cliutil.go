// Package cliutil holds the plumbing shared by the command-line tools.
package cliutil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	"github.com/mitchellh/go-homedir"
	spatial "github.com/tphakala/go-audio-spatial"
)

const (
	// go-mp3 always decodes to interleaved 16-bit little-endian stereo
	mp3Channels      = 2
	mp3BytesPerFrame = 4
	mp3BytesPerValue = 2
	mp3MaxValue      = 32767.0
)

// ErrUnsupportedFormat is returned for files that are neither WAV nor MP3.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// ResolveLogLevel maps a level name to its slog level.
func ResolveLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", level)
	}
}

// NewLogger returns a text logger on w at the named level.
func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	logLevel, err := ResolveLogLevel(level)
	if err != nil {
		return nil, err
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler), nil
}

// ExpandPath resolves a leading ~ and cleans the result.
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", path, err)
	}
	return filepath.Clean(expanded), nil
}

// LoadAudio reads a WAV or MP3 file, chosen by extension.
func LoadAudio(path string) (*spatial.AudioBuffer, error) {
	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return spatial.LoadWAV(f)
	case ".mp3":
		return DecodeMP3(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// DecodeMP3 decodes a whole MP3 stream into a stereo buffer.
func DecodeMP3(r io.Reader) (*spatial.AudioBuffer, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	frames := len(data) / mp3BytesPerFrame
	if frames == 0 {
		return nil, fmt.Errorf("failed to decode MP3: no audio data")
	}

	channels := make([][]float32, mp3Channels)
	for ch := range channels {
		channels[ch] = make([]float32, frames)
	}
	decodePCM16(data[:frames*mp3BytesPerFrame], channels)

	return spatial.NewAudioBufferFromChannels(channels, float32(decoder.SampleRate()))
}

// decodePCM16 splits interleaved 16-bit little-endian samples into channels.
func decodePCM16(data []byte, channels [][]float32) {
	n := len(channels)
	for i := range channels[0] {
		base := i * n * mp3BytesPerValue
		for ch := range n {
			v := int16(binary.LittleEndian.Uint16(data[base+ch*mp3BytesPerValue:]))
			channels[ch][i] = float32(float64(v) / mp3MaxValue)
		}
	}
}

// StartCPUProfile writes a CPU profile to path until the returned stop is called.
// An empty path disables profiling.
func StartCPUProfile(path string) (stop func(), err error) {
	if path == "" {
		return func() {}, nil
	}

	path, err = ExpandPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}
	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}, nil
}

// CreateOutput creates the file at path after expanding it.
func CreateOutput(path string) (*os.File, error) {
	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// OrbitPosition places a source on a horizontal circle around the origin at
// time t, starting in front and moving clockwise seen from above.
func OrbitPosition(t, period, radius float64) (x, z float32) {
	theta := 2 * math.Pi * t / period
	return float32(radius * math.Sin(theta)), float32(-radius * math.Cos(theta))
}
