// Package hrtf implements binaural rendering from a sphere of measured
// head-related impulse responses (HRIRs).
//
// A [Sphere] is loaded once on the control side from the binary dataset
// format and then shared read-only by any number of [Processor] instances,
// each of which convolves one render block at a time and crossfades between
// the previous and the new source direction so that block-rate direction
// changes do not click.
//
// Directions use a listener-centered frame with x to the right, y up and z
// forward.
package hrtf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tphakala/go-audio-spatial/internal/simdops"
)

// ErrInvalidDataset indicates a dataset that cannot be parsed or used.
var ErrInvalidDataset = errors.New("invalid HRIR dataset")

// Sphere is a set of HRIR pairs indexed by direction.
// It is immutable after loading and safe for concurrent reads.
type Sphere struct {
	sampleRate uint32
	length     int
	points     []point
}

// point holds one measured direction. Impulse responses are stored reversed
// so they can be passed straight to a correlation-form convolution.
type point struct {
	dir   mgl32.Vec3
	left  []float32
	right []float32
}

// Load parses a dataset and converts it to sampleRate.
//
// When the dataset was measured at a different rate, each impulse response
// is resampled with cubic Hermite interpolation and scaled to preserve its DC
// gain.
func Load(data []byte, sampleRate uint32) (*Sphere, error) {
	if sampleRate == 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive", ErrInvalidDataset)
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: truncated header (%d bytes)", ErrInvalidDataset, len(data))
	}
	if string(data[:4]) != datasetMagic {
		return nil, fmt.Errorf("%w: bad signature %q", ErrInvalidDataset, data[:4])
	}

	le := binary.LittleEndian
	version := le.Uint32(data[4:])
	sourceRate := le.Uint32(data[8:])
	length := int(le.Uint32(data[12:]))
	count := int(le.Uint32(data[16:]))

	if version != datasetVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidDataset, version)
	}
	if sourceRate == 0 {
		return nil, fmt.Errorf("%w: dataset sample rate is zero", ErrInvalidDataset)
	}
	if length < 1 || length > maxIRLength {
		return nil, fmt.Errorf("%w: impulse response length %d out of range (1-%d)", ErrInvalidDataset, length, maxIRLength)
	}
	if count < 1 || count > maxPoints {
		return nil, fmt.Errorf("%w: point count %d out of range (1-%d)", ErrInvalidDataset, count, maxPoints)
	}

	pointSize := pointDirSize + 2*length*bytesPerSample
	if want := headerSize + count*pointSize; len(data) != want {
		return nil, fmt.Errorf("%w: size %d bytes, want %d", ErrInvalidDataset, len(data), want)
	}

	ratio := float64(sampleRate) / float64(sourceRate)
	if ratio < minRateRatio || ratio > maxRateRatio {
		return nil, fmt.Errorf("%w: cannot convert %d Hz dataset to %d Hz", ErrInvalidDataset, sourceRate, sampleRate)
	}

	s := &Sphere{
		sampleRate: sampleRate,
		points:     make([]point, count),
	}

	offset := headerSize
	readFloats := func(n int) []float32 {
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(le.Uint32(data[offset:]))
			offset += bytesPerSample
		}
		return out
	}

	for i := range s.points {
		xyz := readFloats(3)
		dir := mgl32.Vec3{xyz[0], xyz[1], xyz[2]}
		if !isFinite(dir) || dir.Len() == 0 {
			return nil, fmt.Errorf("%w: point %d has no direction", ErrInvalidDataset, i)
		}

		left := readFloats(length)
		right := readFloats(length)
		if sampleRate != sourceRate {
			left = resampleIR(left, ratio)
			right = resampleIR(right, ratio)
		}
		reverse(left)
		reverse(right)

		s.points[i] = point{dir: dir.Normalize(), left: left, right: right}
	}
	s.length = len(s.points[0].left)

	return s, nil
}

// SampleRate returns the rate the impulse responses are stored at.
func (s *Sphere) SampleRate() uint32 {
	return s.sampleRate
}

// Len returns the impulse response length in samples.
func (s *Sphere) Len() int {
	return s.length
}

// NumPoints returns the number of measured directions.
func (s *Sphere) NumPoints() int {
	return len(s.points)
}

// Point returns the direction and a copy of the left and right impulse
// responses of measured point i, in playback order.
func (s *Sphere) Point(i int) (dir mgl32.Vec3, left, right []float32) {
	p := s.points[i]
	left = append([]float32(nil), p.left...)
	right = append([]float32(nil), p.right...)
	reverse(left)
	reverse(right)
	return p.dir, left, right
}

// Interpolate writes the impulse response pair for dir into left and right,
// which must both have length [Sphere.Len]. The output is reversed (last tap
// first), ready for correlation-form convolution.
//
// The nearest measured points are blended with weights inversely
// proportional to their angular distance. Interpolate does not allocate.
func (s *Sphere) Interpolate(dir mgl32.Vec3, left, right []float32) {
	var (
		nearest [blendPoints]int
		dots    [blendPoints]float32
		found   int
	)
	for i := range dots {
		dots[i] = -2
	}

	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	}

	// Keep the blendPoints largest dot products, sorted descending
	for i := range s.points {
		d := s.points[i].dir.Dot(dir)
		if found < blendPoints {
			found++
		} else if d <= dots[blendPoints-1] {
			continue
		}
		j := found - 1
		for ; j > 0 && dots[j-1] < d; j-- {
			dots[j] = dots[j-1]
			nearest[j] = nearest[j-1]
		}
		dots[j] = d
		nearest[j] = i
	}

	var (
		weights [blendPoints]float32
		total   float32
	)
	if found > 0 && dots[0] >= exactMatchDot {
		copy(left, s.points[nearest[0]].left)
		copy(right, s.points[nearest[0]].right)
		return
	}
	for k := range found {
		angle := float32(math.Acos(float64(mgl32.Clamp(dots[k], -1, 1))))
		weights[k] = 1 / angle
		total += weights[k]
	}

	ops := simdops.Float32Ops()
	clear(left)
	clear(right)
	for k := range found {
		w := weights[k] / total
		p := &s.points[nearest[k]]
		ops.AddScaled(left, w, p.left)
		ops.AddScaled(right, w, p.right)
	}
}

// Encode writes the sphere in the binary dataset format.
func (s *Sphere) Encode(w io.Writer) error {
	header := struct {
		Magic      [4]byte
		Version    uint32
		SampleRate uint32
		Length     uint32
		Count      uint32
	}{
		Version:    datasetVersion,
		SampleRate: s.sampleRate,
		Length:     uint32(s.length),
		Count:      uint32(len(s.points)),
	}
	copy(header.Magic[:], datasetMagic)

	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write dataset header: %w", err)
	}

	for i := range s.points {
		dir, left, right := s.Point(i)
		if err := binary.Write(w, binary.LittleEndian, dir); err != nil {
			return fmt.Errorf("failed to write point %d: %w", i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, left); err != nil {
			return fmt.Errorf("failed to write point %d: %w", i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, right); err != nil {
			return fmt.Errorf("failed to write point %d: %w", i, err)
		}
	}

	return nil
}

func reverse(s []float32) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func isFinite(v mgl32.Vec3) bool {
	for _, c := range v {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
