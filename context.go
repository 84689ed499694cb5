package spatial

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tphakala/go-audio-spatial/internal/graph"
	"github.com/tphakala/go-audio-spatial/internal/hrtf"
	"github.com/tphakala/go-audio-spatial/internal/param"
)

// Context owns an audio graph, its parameters, its listener and its
// destination.
type Context struct {
	sampleRate float32
	dataset    []byte
	logger     *slog.Logger

	params      *param.Registry
	graph       *graph.Graph
	destination *DestinationNode

	listenerOnce sync.Once
	listener     *AudioListener

	sphereMu sync.Mutex
	sphere   *hrtf.Sphere

	// Node whose processor reads each parameter
	ownersMu sync.Mutex
	owners   map[*AudioParam]NodeID

	// Frames rendered so far, published for CurrentTime
	frames atomic.Uint64
}

// NewContext creates a context with a destination node and no sources.
func NewContext(opts ContextOptions) (*Context, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	params := param.NewRegistry()
	c := &Context{
		sampleRate: opts.SampleRate,
		dataset:    opts.HRIRDataset,
		logger:     opts.Logger,
		params:     params,
		graph:      graph.New(opts.SampleRate, params),
		owners:     make(map[*AudioParam]NodeID),
	}

	c.destination = newDestinationNode(c)
	if err := c.graph.SetDestination(c.destination.id); err != nil {
		return nil, fmt.Errorf("failed to set destination: %w", err)
	}

	c.logger.Debug("audio context created",
		"sample_rate", c.sampleRate,
		"custom_hrir", len(c.dataset) > 0)

	return c, nil
}

// SampleRate returns the render rate in Hz.
func (c *Context) SampleRate() float32 {
	return c.sampleRate
}

// CurrentTime returns the time in seconds of the next frame to be rendered.
func (c *Context) CurrentTime() float64 {
	return float64(c.frames.Load()) / float64(c.sampleRate)
}

// Destination returns the node whose input is rendered by the context.
func (c *Context) Destination() *DestinationNode {
	return c.destination
}

// Listener returns the context's listener, creating it on first use.
func (c *Context) Listener() *AudioListener {
	return c.ensureListener()
}

// adoptParams records owner as the node that reads params.
func (c *Context) adoptParams(owner NodeID, params ...*AudioParam) {
	c.ownersMu.Lock()
	defer c.ownersMu.Unlock()

	for _, p := range params {
		c.owners[p] = owner
	}
}

// paramOwner returns the node reading p, or an error when p does not belong
// to c.
func (c *Context) paramOwner(p *AudioParam) (NodeID, error) {
	if p == nil {
		return NodeID{}, fmt.Errorf("%w: nil parameter", ErrInvalidConfig)
	}

	c.ownersMu.Lock()
	defer c.ownersMu.Unlock()

	owner, ok := c.owners[p]
	if !ok {
		return NodeID{}, fmt.Errorf("%w: parameter %s belongs to a different context", ErrInvalidConfig, p.Name())
	}
	return owner, nil
}

// hrtfSphere returns the context's HRIR sphere, loading it on first use.
// Every HRTF panner of the context shares it.
func (c *Context) hrtfSphere() (*hrtf.Sphere, error) {
	c.sphereMu.Lock()
	defer c.sphereMu.Unlock()

	if c.sphere != nil {
		return c.sphere, nil
	}

	rate := uint32(c.sampleRate)
	var (
		sphere *hrtf.Sphere
		err    error
	)
	if len(c.dataset) > 0 {
		sphere, err = hrtf.Load(c.dataset, rate)
	} else {
		sphere, err = hrtf.Default(rate)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatasetLoad, err)
	}

	c.logger.Debug("HRIR dataset loaded",
		"points", sphere.NumPoints(),
		"length", sphere.Len(),
		"sample_rate", sphere.SampleRate())

	c.sphere = sphere
	return sphere, nil
}

// RenderQuantum renders the next [RenderQuantumSize] frames into left and
// right. A mono destination signal is copied to both channels.
//
// RenderQuantum and [Context.Render] must be called from one goroutine at a
// time. RenderQuantum does not allocate.
func (c *Context) RenderQuantum(left, right []float32) error {
	if len(left) < RenderQuantumSize || len(right) < RenderQuantumSize {
		return fmt.Errorf("%w: need %d frames per channel, have %d and %d",
			ErrBufferTooSmall, RenderQuantumSize, len(left), len(right))
	}

	out := c.graph.Render()
	copy(left, out.Channel(0))
	if out.NumberOfChannels() >= stereoChannels {
		copy(right, out.Channel(1))
	} else {
		copy(right, out.Channel(0))
	}

	c.frames.Store(c.graph.CurrentFrame())
	return nil
}

// Render renders the next frames frames into a new stereo buffer.
func (c *Context) Render(frames int) (*AudioBuffer, error) {
	if frames <= 0 {
		return nil, fmt.Errorf("%w: frame count must be positive", ErrInvalidConfig)
	}

	buf, err := NewAudioBuffer(stereoChannels, frames, c.sampleRate)
	if err != nil {
		return nil, err
	}

	left := make([]float32, RenderQuantumSize)
	right := make([]float32, RenderQuantumSize)
	outL, outR := buf.Channel(0), buf.Channel(1)

	for offset := 0; offset < frames; offset += RenderQuantumSize {
		if err := c.RenderQuantum(left, right); err != nil {
			return nil, err
		}
		copy(outL[offset:], left)
		copy(outR[offset:], right)
	}

	return buf, nil
}
