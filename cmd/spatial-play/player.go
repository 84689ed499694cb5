package main

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
	spatial "github.com/tphakala/go-audio-spatial"
)

const (
	playerChannels  = 2
	bytesPerSample  = 4
	bytesPerFrame   = playerChannels * bytesPerSample
	bytesPerQuantum = spatial.RenderQuantumSize * bytesPerFrame
)

// quantumReader streams a context as interleaved float32 little-endian
// stereo. Read runs on the audio device goroutine.
type quantumReader struct {
	ctx   *spatial.Context
	left  []float32
	right []float32

	// Rendered bytes not yet handed to the device
	pending []byte
	offset  int

	err atomic.Pointer[error]
}

func newQuantumReader(ctx *spatial.Context) *quantumReader {
	return &quantumReader{
		ctx:     ctx,
		left:    make([]float32, spatial.RenderQuantumSize),
		right:   make([]float32, spatial.RenderQuantumSize),
		pending: make([]byte, bytesPerQuantum),
		offset:  bytesPerQuantum,
	}
}

func (r *quantumReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if r.offset == len(r.pending) {
			if err := r.ctx.RenderQuantum(r.left, r.right); err != nil {
				r.err.Store(&err)
				clear(p[n:])
				return len(p), nil
			}
			interleaveFloat32LE(r.pending, r.left, r.right)
			r.offset = 0
		}
		c := copy(p[n:], r.pending[r.offset:])
		r.offset += c
		n += c
	}
	return n, nil
}

// Err reports the first render failure, if any.
func (r *quantumReader) Err() error {
	if err := r.err.Load(); err != nil {
		return *err
	}
	return nil
}

func interleaveFloat32LE(dst []byte, left, right []float32) {
	for i := range left {
		base := i * bytesPerFrame
		binary.LittleEndian.PutUint32(dst[base:], math.Float32bits(left[i]))
		binary.LittleEndian.PutUint32(dst[base+bytesPerSample:], math.Float32bits(right[i]))
	}
}

// openDevice creates the output context for float32 stereo at sampleRate
// and waits until the device is ready.
func openDevice(sampleRate int) (*oto.Context, error) {
	otoContextOptions := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: playerChannels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	}
	ctx, readyChan, err := oto.NewContext(otoContextOptions)
	if err != nil {
		return nil, err
	}
	<-readyChan
	return ctx, nil
}
