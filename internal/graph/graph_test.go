package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-audio-spatial/internal/param"
)

const testSampleRate = 48000

// constSource writes a constant to every frame of its single output.
type constSource struct {
	value    float32
	channels int
	calls    int
}

func (s *constSource) Process(_, outputs []*Quantum, _ param.Values, _ *Scope) bool {
	s.calls++
	out := outputs[0]
	out.SetNumberOfChannels(s.channels)
	for c := range s.channels {
		for i := range out.Channel(c) {
			out.Channel(c)[i] = s.value
		}
	}
	return false
}

// gainNode copies input 0 to output 0 scaled by a parameter.
type gainNode struct {
	gain      param.ID
	keepAlive bool
	calls     int
	lastScope Scope
}

func (g *gainNode) Process(inputs, outputs []*Quantum, values param.Values, scope *Scope) bool {
	g.calls++
	g.lastScope = *scope
	outputs[0].CopyFrom(inputs[0])
	gain := values.Get(g.gain)[0]
	for c := range outputs[0].NumberOfChannels() {
		ch := outputs[0].Channel(c)
		for i := range ch {
			ch[i] *= gain
		}
	}
	return g.keepAlive
}

func newTestGraph() *Graph {
	return New(testSampleRate, param.NewRegistry())
}

func addGain(t *testing.T, g *Graph, value float32) (*gainNode, NodeID) {
	t.Helper()
	p, id := g.Params().Create(param.Descriptor{Name: "gain", Default: value, MinValue: -1, MaxValue: 1, Rate: param.RateK})
	require.NotNil(t, p)
	n := &gainNode{gain: id}
	return n, g.Register(n, NodeConfig{NumberOfInputs: 1, NumberOfOutputs: 1})
}

func TestGraph_RenderWithoutDestinationIsSilent(t *testing.T) {
	g := newTestGraph()
	out := g.Render()
	assert.True(t, out.IsSilent())
	assert.Equal(t, uint64(RenderQuantumSize), g.CurrentFrame())
}

func TestGraph_SourceThroughGain(t *testing.T) {
	g := newTestGraph()
	src := &constSource{value: 0.5, channels: 1}
	srcID := g.Register(src, NodeConfig{NumberOfOutputs: 1})
	gain, gainID := addGain(t, g, 0.5)

	require.NoError(t, g.Connect(srcID, 0, gainID, 0))
	require.NoError(t, g.SetDestination(gainID))

	out := g.Render()
	assert.Equal(t, 1, out.NumberOfChannels())
	assert.InDelta(t, 0.25, out.Channel(0)[0], 1e-7)
	assert.Equal(t, 1, gain.calls)
	assert.Equal(t, uint64(0), gain.lastScope.CurrentFrame)
	assert.Equal(t, float32(testSampleRate), gain.lastScope.SampleRate)

	g.Render()
	assert.Equal(t, uint64(RenderQuantumSize), gain.lastScope.CurrentFrame)
	assert.InDelta(t, float64(RenderQuantumSize)/testSampleRate, gain.lastScope.CurrentTime, 1e-12)
}

func TestGraph_ProcessesInTopologicalOrder(t *testing.T) {
	g := newTestGraph()

	// Register downstream first so registration order differs from render order
	gain, gainID := addGain(t, g, 1)
	src := &constSource{value: 0.3, channels: 2}
	srcID := g.Register(src, NodeConfig{NumberOfOutputs: 1})

	require.NoError(t, g.Connect(srcID, 0, gainID, 0))
	require.NoError(t, g.SetDestination(gainID))

	out := g.Render()
	assert.Equal(t, 1, gain.calls)
	assert.Equal(t, 2, out.NumberOfChannels())
	assert.InDelta(t, 0.3, out.Channel(1)[5], 1e-7)
}

func TestGraph_SumsConnectionsWithMixing(t *testing.T) {
	g := newTestGraph()
	mono := g.Register(&constSource{value: 0.25, channels: 1}, NodeConfig{NumberOfOutputs: 1})
	stereo := g.Register(&constSource{value: 0.5, channels: 2}, NodeConfig{NumberOfOutputs: 1})
	_, gainID := addGain(t, g, 1)

	require.NoError(t, g.Connect(mono, 0, gainID, 0))
	require.NoError(t, g.Connect(stereo, 0, gainID, 0))
	require.NoError(t, g.SetDestination(gainID))

	out := g.Render()
	require.Equal(t, 2, out.NumberOfChannels())
	assert.InDelta(t, 0.75, out.Channel(0)[0], 1e-7)
	assert.InDelta(t, 0.75, out.Channel(1)[0], 1e-7)
}

func TestGraph_ExplicitChannelsDownMix(t *testing.T) {
	g := newTestGraph()
	stereo := g.Register(&constSource{value: 0.5, channels: 2}, NodeConfig{NumberOfOutputs: 1})
	p, pid := g.Params().Create(param.Descriptor{Default: 1, MaxValue: 1, Rate: param.RateK})
	require.NotNil(t, p)
	dst := g.Register(&gainNode{gain: pid}, NodeConfig{
		NumberOfInputs:  1,
		NumberOfOutputs: 1,
		Channels:        NewChannelConfig(1, Explicit, Speakers),
	})

	require.NoError(t, g.Connect(stereo, 0, dst, 0))
	require.NoError(t, g.SetDestination(dst))

	out := g.Render()
	assert.Equal(t, 1, out.NumberOfChannels())
	assert.InDelta(t, 0.5, out.Channel(0)[0], 1e-7)
}

func TestGraph_ParamsTickedBeforeProcessing(t *testing.T) {
	g := newTestGraph()
	src := g.Register(&constSource{value: 1, channels: 1}, NodeConfig{NumberOfOutputs: 1})
	p, id := g.Params().Create(param.Descriptor{Default: 1, MinValue: -1, MaxValue: 1, Rate: param.RateK})
	dst := g.Register(&gainNode{gain: id}, NodeConfig{NumberOfInputs: 1, NumberOfOutputs: 1})
	require.NoError(t, g.Connect(src, 0, dst, 0))
	require.NoError(t, g.SetDestination(dst))

	require.NoError(t, p.SetValue(-0.5))
	assert.InDelta(t, -0.5, g.Render().Channel(0)[0], 1e-7)
}

func TestGraph_SkipsSilentNodeWithoutKeepAlive(t *testing.T) {
	g := newTestGraph()
	src := &constSource{value: 0, channels: 1}
	srcID := g.Register(src, NodeConfig{NumberOfOutputs: 1})
	gain, gainID := addGain(t, g, 1)
	require.NoError(t, g.Connect(srcID, 0, gainID, 0))
	require.NoError(t, g.SetDestination(gainID))

	g.Render()
	assert.Equal(t, 1, src.calls, "sources are always pulled")
	assert.Zero(t, gain.calls, "silent input and no keep-alive")

	src.value = 1
	g.Render()
	assert.Equal(t, 1, gain.calls)

	// Keep-alive keeps the node running through silence
	gain.keepAlive = true
	g.Render()
	src.value = 0
	g.Render()
	g.Render()
	assert.Equal(t, 4, gain.calls)

	gain.keepAlive = false
	g.Render() // reports no keep-alive
	g.Render() // skipped
	assert.Equal(t, 5, gain.calls)
	assert.True(t, g.Render().IsSilent())
}

func TestGraph_UnconnectedInputIsSkipped(t *testing.T) {
	g := newTestGraph()
	gain, gainID := addGain(t, g, 1)
	require.NoError(t, g.SetDestination(gainID))

	assert.True(t, g.Render().IsSilent())
	assert.Zero(t, gain.calls)
}

func TestGraph_ConnectErrors(t *testing.T) {
	g := newTestGraph()
	srcID := g.Register(&constSource{channels: 1}, NodeConfig{NumberOfOutputs: 1})
	_, a := addGain(t, g, 1)
	_, b := addGain(t, g, 1)
	unknown := NodeID{1}

	require.ErrorIs(t, g.Connect(unknown, 0, a, 0), ErrUnknownNode)
	require.ErrorIs(t, g.Connect(srcID, 0, unknown, 0), ErrUnknownNode)
	require.ErrorIs(t, g.Connect(srcID, 1, a, 0), ErrInvalidPort)
	require.ErrorIs(t, g.Connect(srcID, 0, a, 1), ErrInvalidPort)
	require.ErrorIs(t, g.Connect(srcID, 0, srcID, 0), ErrInvalidPort, "sources have no inputs")
	require.ErrorIs(t, g.SetDestination(unknown), ErrUnknownNode)

	require.NoError(t, g.Connect(a, 0, b, 0))
	require.NoError(t, g.Connect(a, 0, b, 0), "duplicate connection")
	require.ErrorIs(t, g.Connect(b, 0, a, 0), ErrCycle)
	require.ErrorIs(t, g.Connect(a, 0, a, 0), ErrCycle)

	// The rejected edge must not linger
	require.NoError(t, g.Disconnect(a, b))
	require.NoError(t, g.Connect(b, 0, a, 0))
}

func TestGraph_RemoveAndDisconnect(t *testing.T) {
	g := newTestGraph()
	srcID := g.Register(&constSource{value: 1, channels: 1}, NodeConfig{NumberOfOutputs: 1})
	_, gainID := addGain(t, g, 1)
	require.NoError(t, g.Connect(srcID, 0, gainID, 0))
	require.NoError(t, g.SetDestination(gainID))
	assert.False(t, g.Render().IsSilent())

	require.NoError(t, g.Disconnect(srcID, gainID))
	assert.True(t, g.Render().IsSilent())

	require.NoError(t, g.Remove(gainID))
	assert.False(t, g.Contains(gainID))
	assert.Equal(t, 1, g.Len())
	assert.True(t, g.Render().IsSilent(), "destination removed")
	require.ErrorIs(t, g.Remove(gainID), ErrUnknownNode)
	require.ErrorIs(t, g.Disconnect(srcID, gainID), ErrUnknownNode)
}

func TestGraph_ParamInputAddsToValue(t *testing.T) {
	g := newTestGraph()
	srcID := g.Register(&constSource{value: 0.5, channels: 1}, NodeConfig{NumberOfOutputs: 1})
	gain, gainID := addGain(t, g, 0.25)
	require.NoError(t, g.Connect(srcID, 0, gainID, 0))
	require.NoError(t, g.SetDestination(gainID))

	// Registered after the gain node, so ordering comes from the param edge
	mod := &constSource{value: 0.25, channels: 2}
	modID := g.Register(mod, NodeConfig{NumberOfOutputs: 1})
	require.NoError(t, g.ConnectParam(modID, 0, gainID, gain.gain))
	require.NoError(t, g.ConnectParam(modID, 0, gainID, gain.gain), "duplicate connection")

	out := g.Render()
	assert.Equal(t, 1, mod.calls)
	assert.InDelta(t, 0.25, out.Channel(0)[0], 1e-7, "gain is 0.25 intrinsic plus 0.25 input")

	require.NoError(t, g.DisconnectParam(modID, gain.gain))
	out = g.Render()
	assert.InDelta(t, 0.125, out.Channel(0)[0], 1e-7)
}

func TestGraph_ConnectParamErrors(t *testing.T) {
	g := newTestGraph()
	srcID := g.Register(&constSource{channels: 1}, NodeConfig{NumberOfOutputs: 1})
	gain, gainID := addGain(t, g, 1)
	unknown := NodeID{1}

	require.ErrorIs(t, g.ConnectParam(unknown, 0, gainID, gain.gain), ErrUnknownNode)
	require.ErrorIs(t, g.ConnectParam(srcID, 0, unknown, gain.gain), ErrUnknownNode)
	require.ErrorIs(t, g.ConnectParam(srcID, 1, gainID, gain.gain), ErrInvalidPort)
	require.ErrorIs(t, g.ConnectParam(gainID, 0, gainID, gain.gain), ErrCycle)
	require.ErrorIs(t, g.DisconnectParam(unknown, gain.gain), ErrUnknownNode)

	// Removing the owner drops its param connections
	require.NoError(t, g.ConnectParam(srcID, 0, gainID, gain.gain))
	require.NoError(t, g.Remove(gainID))
	assert.NotPanics(t, func() { g.Render() })
}

func TestGraph_RenderDoesNotAllocate(t *testing.T) {
	g := newTestGraph()
	srcID := g.Register(&constSource{value: 0.1, channels: 2}, NodeConfig{NumberOfOutputs: 1})
	gain, gainID := addGain(t, g, 1)
	require.NoError(t, g.Connect(srcID, 0, gainID, 0))
	require.NoError(t, g.ConnectParam(srcID, 0, gainID, gain.gain))
	require.NoError(t, g.SetDestination(gainID))

	allocs := testing.AllocsPerRun(100, func() {
		g.Render()
	})
	assert.Zero(t, allocs)
}

func TestNodeID_String(t *testing.T) {
	g := newTestGraph()
	id := g.Register(&constSource{channels: 1}, NodeConfig{NumberOfOutputs: 1})
	assert.Len(t, id.String(), 36)
}

func BenchmarkGraph_Render(b *testing.B) {
	g := New(testSampleRate, param.NewRegistry())
	srcID := g.Register(&constSource{value: 0.1, channels: 2}, NodeConfig{NumberOfOutputs: 1})
	_, pid := g.Params().Create(param.Descriptor{Default: 1, MaxValue: 1, Rate: param.RateK})
	gainID := g.Register(&gainNode{gain: pid}, NodeConfig{NumberOfInputs: 1, NumberOfOutputs: 1})
	_ = g.Connect(srcID, 0, gainID, 0)
	_ = g.SetDestination(gainID)

	b.ReportAllocs()
	for b.Loop() {
		g.Render()
	}
}
