package main

import (
	"errors"
	"fmt"
	"log"
	"math"

	spatial "github.com/tphakala/go-audio-spatial"
	"github.com/tphakala/go-audio-spatial/internal/cliutil"
)

const (
	progressInterval = 10 // Print progress every N%
	percentScale     = 100
)

// renderPlan describes one offline render of an input through a panner.
type renderPlan struct {
	input   *spatial.AudioBuffer
	panner  spatial.PannerOptions
	context spatial.ContextOptions

	tail   float64 // seconds after the input ends
	sweep  float64 // half-width of the X sweep in meters
	orbit  float64 // orbit period in seconds
	radius float64 // orbit radius in meters

	verbose bool
}

func (p *renderPlan) validate() error {
	switch {
	case p.input == nil:
		return errors.New("no input")
	case p.tail < 0 || math.IsNaN(p.tail):
		return fmt.Errorf("invalid tail: %g", p.tail)
	case p.sweep < 0 || p.orbit < 0:
		return errors.New("sweep and orbit must not be negative")
	case p.sweep > 0 && p.orbit > 0:
		return errors.New("sweep and orbit are mutually exclusive")
	case p.orbit > 0 && !(p.radius > 0):
		return fmt.Errorf("invalid orbit radius: %g", p.radius)
	}
	return nil
}

// render builds source -> panner -> destination and renders the input
// plus the tail, one quantum at a time.
func (p *renderPlan) render() (*spatial.AudioBuffer, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	ctx, err := spatial.NewContext(p.context)
	if err != nil {
		return nil, err
	}
	src, err := ctx.CreateBufferSource(p.input)
	if err != nil {
		return nil, err
	}
	panner, err := ctx.CreatePanner(p.panner)
	if err != nil {
		return nil, err
	}
	if err := src.Connect(panner); err != nil {
		return nil, err
	}
	if err := panner.Connect(ctx.Destination()); err != nil {
		return nil, err
	}
	if err := src.Start(0); err != nil {
		return nil, err
	}

	if p.sweep > 0 {
		x := panner.PositionX()
		if err := x.SetValueAtTime(float32(-p.sweep), 0); err != nil {
			return nil, err
		}
		if err := x.LinearRampToValueAtTime(float32(p.sweep), p.input.Duration()); err != nil {
			return nil, err
		}
	}

	frames := p.input.Length() + int(p.tail*float64(ctx.SampleRate()))
	quanta := (frames + spatial.RenderQuantumSize - 1) / spatial.RenderQuantumSize
	left := make([]float32, quanta*spatial.RenderQuantumSize)
	right := make([]float32, quanta*spatial.RenderQuantumSize)
	progress := newProgressTracker(quanta, p.verbose)

	for q := range quanta {
		if p.orbit > 0 {
			x, z := cliutil.OrbitPosition(ctx.CurrentTime(), p.orbit, p.radius)
			if err := panner.SetPosition(x, p.panner.PositionY, z); err != nil {
				return nil, err
			}
		}

		lo, hi := q*spatial.RenderQuantumSize, (q+1)*spatial.RenderQuantumSize
		if err := ctx.RenderQuantum(left[lo:hi], right[lo:hi]); err != nil {
			return nil, err
		}
		progress.reportIfNeeded(q + 1)
	}

	return spatial.NewAudioBufferFromChannels([][]float32{left[:frames], right[:frames]}, ctx.SampleRate())
}

// progressTracker handles progress reporting.
type progressTracker struct {
	total        int
	lastProgress int
	verbose      bool
}

func newProgressTracker(total int, verbose bool) *progressTracker {
	return &progressTracker{total: total, verbose: verbose}
}

// reportIfNeeded reports progress if threshold crossed.
func (p *progressTracker) reportIfNeeded(current int) {
	if !p.verbose || p.total == 0 {
		return
	}

	progress := current * percentScale / p.total
	if progress >= p.lastProgress+progressInterval {
		log.Printf("Progress: %d%%", progress)
		p.lastProgress = progress
	}
}
