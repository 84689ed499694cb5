package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-audio-spatial/internal/graph"
	"github.com/tphakala/go-audio-spatial/internal/hrtf"
	"github.com/tphakala/go-audio-spatial/internal/param"
	"github.com/tphakala/go-audio-spatial/internal/testutil"
	"gonum.org/v1/gonum/spatial/r3"
)

const testSampleRate = 44100

var centerGain = math.Cos(math.Pi / 4)

// rendererFixture drives a pannerRenderer directly, without a graph.
type rendererFixture struct {
	reg     *param.Registry
	params  [pannerParamCount]*param.AudioParam
	r       *pannerRenderer
	inputs  []*graph.Quantum
	outputs []*graph.Quantum
	scope   graph.Scope
}

func newRendererFixture(t testing.TB, model PanningModel) *rendererFixture {
	t.Helper()

	f := &rendererFixture{
		reg: param.NewRegistry(),
		r: &pannerRenderer{
			model: model,
			cone:  &coneConfig{},
		},
		inputs:  make([]*graph.Quantum, pannerInputs),
		outputs: []*graph.Quantum{graph.NewQuantum()},
		scope:   graph.Scope{SampleRate: testSampleRate},
	}
	f.r.cone.innerAngle.Store(defaultConeAngle)
	f.r.cone.outerAngle.Store(defaultConeAngle)

	if model == PanningModelHRTF {
		sphere, err := hrtf.Default(testSampleRate)
		require.NoError(t, err)
		f.r.hrtf = newHrtfState(sphere)
	}

	for i, name := range pannerParamNames {
		f.params[i], f.r.ids[i] = f.reg.Create(param.Descriptor{
			Name:     name,
			MinValue: minParamValue,
			MaxValue: maxParamValue,
			Rate:     param.RateK,
		})
	}
	for i := range f.inputs {
		f.inputs[i] = graph.NewQuantum()
	}

	f.setListener(r3.Vec{}, r3.Vec{Z: -1}, r3.Vec{Y: 1})
	f.setSource(r3.Vec{Z: -1}, r3.Vec{X: 1})
	return f
}

func (f *rendererFixture) setListener(position, forward, up r3.Vec) {
	for i, v := range []float64{
		position.X, position.Y, position.Z,
		forward.X, forward.Y, forward.Z,
		up.X, up.Y, up.Z,
	} {
		ch := f.inputs[1+i].Channel(0)
		for j := range ch {
			ch[j] = float32(v)
		}
	}
}

func (f *rendererFixture) setSource(position, orientation r3.Vec) {
	for i, v := range []float64{
		position.X, position.Y, position.Z,
		orientation.X, orientation.Y, orientation.Z,
	} {
		_ = f.params[i].SetValue(float32(v))
	}
}

// process renders one quantum of the given input channels.
func (f *rendererFixture) process(channels ...[]float32) bool {
	in := f.inputs[0]
	in.SetNumberOfChannels(len(channels))
	for i, ch := range channels {
		copy(in.Channel(i), ch)
	}

	values := f.reg.Tick(f.scope.CurrentTime, testSampleRate, RenderQuantumSize)
	keepAlive := f.r.Process(f.inputs, f.outputs, values, &f.scope)

	f.scope.CurrentFrame += RenderQuantumSize
	f.scope.CurrentTime = float64(f.scope.CurrentFrame) / testSampleRate
	return keepAlive
}

func (f *rendererFixture) output() *graph.Quantum {
	return f.outputs[0]
}

func constant(v float32) []float32 {
	s := make([]float32, RenderQuantumSize)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestPannerRenderer_SilentInput(t *testing.T) {
	for _, model := range []PanningModel{PanningModelEqualPower, PanningModelHRTF} {
		t.Run(model.String(), func(t *testing.T) {
			f := newRendererFixture(t, model)

			keepAlive := f.process(make([]float32, RenderQuantumSize))

			assert.False(t, keepAlive)
			assert.Equal(t, 1, f.output().NumberOfChannels())
			testutil.AssertSilent(t, f.output().Channel(0))
		})
	}
}

func TestPannerRenderer_EqualPower(t *testing.T) {
	tests := []struct {
		name     string
		position r3.Vec
		left     float64
		right    float64
	}{
		{"Front", r3.Vec{Z: -1}, centerGain, centerGain},
		{"Right", r3.Vec{X: 1}, 0, 1},
		{"Left", r3.Vec{X: -1}, 1, 0},
		{"Behind", r3.Vec{Z: 1}, centerGain, centerGain},
		{"FrontFourMeters", r3.Vec{Z: -4}, centerGain / 4, centerGain / 4},
		{"Colocated", r3.Vec{}, centerGain, centerGain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRendererFixture(t, PanningModelEqualPower)
			f.setSource(tt.position, r3.Vec{X: 1})

			keepAlive := f.process(constant(1))

			assert.False(t, keepAlive)
			out := f.output()
			require.Equal(t, 2, out.NumberOfChannels())
			for i := range RenderQuantumSize {
				assert.InDelta(t, tt.left, out.Channel(0)[i], testutil.GainTolerance, "left %d", i)
				assert.InDelta(t, tt.right, out.Channel(1)[i], testutil.GainTolerance, "right %d", i)
			}
		})
	}
}

func TestPannerRenderer_StereoInputIsDownmixed(t *testing.T) {
	f := newRendererFixture(t, PanningModelEqualPower)

	f.process(constant(1), constant(0))

	out := f.output()
	assert.InDelta(t, 0.5*centerGain, out.Channel(0)[0], testutil.GainTolerance)
	assert.InDelta(t, 0.5*centerGain, out.Channel(1)[0], testutil.GainTolerance)
}

func TestPannerRenderer_ListenerInputs(t *testing.T) {
	// Listener at (5, 0, 5) facing +X: a source at (5, 0, 7) is two meters to its right
	f := newRendererFixture(t, PanningModelEqualPower)
	f.setListener(r3.Vec{X: 5, Z: 5}, r3.Vec{X: 1}, r3.Vec{Y: 1})
	f.setSource(r3.Vec{X: 5, Z: 7}, r3.Vec{X: 1})

	f.process(constant(1))

	out := f.output()
	assert.InDelta(t, 0, out.Channel(0)[0], testutil.GainTolerance)
	assert.InDelta(t, 0.5, out.Channel(1)[0], testutil.GainTolerance)
}

func TestPannerRenderer_Cone(t *testing.T) {
	const outerGain = 0.25

	tests := []struct {
		name        string
		orientation r3.Vec
		gain        float64
	}{
		{"FacingListener", r3.Vec{Z: 1}, 1},
		{"FacingAway", r3.Vec{Z: -1}, outerGain},
		// 45° off axis is halfway between the 30° and 60° half angles
		{"Between", r3.Vec{X: 1, Z: 1}, (1 + outerGain) / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRendererFixture(t, PanningModelEqualPower)
			f.r.cone.innerAngle.Store(60)
			f.r.cone.outerAngle.Store(120)
			f.r.cone.outerGain.Store(outerGain)
			f.setSource(r3.Vec{Z: -2}, tt.orientation)

			f.process(constant(1))

			want := tt.gain * centerGain / 2
			assert.InDelta(t, want, f.output().Channel(0)[0], testutil.GainTolerance)
			assert.InDelta(t, want, f.output().Channel(1)[0], testutil.GainTolerance)
		})
	}
}

func TestPannerRenderer_ConeUpdatesNextQuantum(t *testing.T) {
	f := newRendererFixture(t, PanningModelEqualPower)
	f.setSource(r3.Vec{Z: -1}, r3.Vec{Z: -1})

	f.process(constant(1))
	assert.InDelta(t, centerGain, f.output().Channel(0)[0], testutil.GainTolerance)

	f.r.cone.innerAngle.Store(10)
	f.r.cone.outerAngle.Store(20)
	f.r.cone.outerGain.Store(0.5)

	f.process(constant(1))
	assert.InDelta(t, 0.5*centerGain, f.output().Channel(0)[0], testutil.GainTolerance)
}

func TestPannerRenderer_HRTFLateralization(t *testing.T) {
	tests := []struct {
		name     string
		position r3.Vec
		louder   int
	}{
		{"Right", r3.Vec{X: 1}, 1},
		{"Left", r3.Vec{X: -1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRendererFixture(t, PanningModelHRTF)
			f.setSource(tt.position, r3.Vec{X: 1})

			// High enough for the head to shadow the far ear
			signal := testutil.Sine(4*RenderQuantumSize, 6000, testSampleRate)
			var energy [2]float64
			for b := range 4 {
				f.process(signal[b*RenderQuantumSize : (b+1)*RenderQuantumSize])
				out := f.output()
				require.Equal(t, 2, out.NumberOfChannels())
				testutil.AssertNoNaNOrInf(t, out.Channel(0))
				testutil.AssertNoNaNOrInf(t, out.Channel(1))
				if b > 0 {
					energy[0] += testutil.Energy(out.Channel(0))
					energy[1] += testutil.Energy(out.Channel(1))
				}
			}

			assert.Greater(t, energy[tt.louder], 2*energy[1-tt.louder])
		})
	}
}

func TestPannerRenderer_HRTFTailKeepsNodeAlive(t *testing.T) {
	f := newRendererFixture(t, PanningModelHRTF)

	// An impulse on the last frame spills into the next quantum
	impulse := make([]float32, RenderQuantumSize)
	impulse[RenderQuantumSize-1] = 1

	assert.True(t, f.process(impulse), "tail ringing after impulse")
	assert.True(t, f.r.hrtf.Ringing())

	keepAlive := f.process(make([]float32, RenderQuantumSize))
	assert.False(t, keepAlive, "tail drained")
	require.Equal(t, 2, f.output().NumberOfChannels(), "silent input with a tail is still rendered")
	assert.Positive(t, testutil.Energy(f.output().Channel(0))+testutil.Energy(f.output().Channel(1)))

	assert.False(t, f.process(make([]float32, RenderQuantumSize)))
	assert.Equal(t, 1, f.output().NumberOfChannels(), "silent input short-circuits once drained")
	testutil.AssertSilent(t, f.output().Channel(0))
}

func TestPannerRenderer_HRTFClearsScratch(t *testing.T) {
	f := newRendererFixture(t, PanningModelHRTF)

	f.process(testutil.Sine(RenderQuantumSize, 440, testSampleRate))

	testutil.AssertSilent(t, f.r.hrtf.ctx.Output)
}

func TestPannerRenderer_NoAllocations(t *testing.T) {
	for _, model := range []PanningModel{PanningModelEqualPower, PanningModelHRTF} {
		t.Run(model.String(), func(t *testing.T) {
			f := newRendererFixture(t, model)
			signal := testutil.Sine(RenderQuantumSize, 440, testSampleRate)
			f.process(signal)

			allocs := testing.AllocsPerRun(100, func() {
				f.process(signal)
			})
			assert.Zero(t, allocs)
		})
	}
}

func TestHrtfDirection(t *testing.T) {
	tests := []struct {
		name string
		in   r3.Vec
		want r3.Vec
	}{
		{"Forward", r3.Vec{Z: 1}, r3.Vec{Z: 1}},
		{"Unnormalized", r3.Vec{X: 3, Z: 4}, r3.Vec{X: 0.6, Z: 0.8}},
		{"Magnitude1e-4", r3.Vec{X: 1e-4}, r3.Vec{X: 1}},
		{"Magnitude1e-7", r3.Vec{X: 1e-7}, r3.Vec{Z: 1}},
		{"Zero", r3.Vec{}, r3.Vec{Z: 1}},
		{"NaN", r3.Vec{X: math.NaN(), Y: 1}, r3.Vec{Z: 1}},
		{"AllTinyComponents", r3.Vec{X: 9e-7, Y: -9e-7, Z: 9e-7}, r3.Vec{Z: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hrtfDirection(tt.in)
			assert.InDelta(t, tt.want.X, got.X(), testutil.GainTolerance)
			assert.InDelta(t, tt.want.Y, got.Y(), testutil.GainTolerance)
			assert.InDelta(t, tt.want.Z, got.Z(), testutil.GainTolerance)
			assert.InDelta(t, 1.0, got.Len(), testutil.GainTolerance)
		})
	}
}

func TestHrtfState_PreviousValues(t *testing.T) {
	sphere, err := hrtf.Default(testSampleRate)
	require.NoError(t, err)

	s := newHrtfState(sphere)
	assert.Equal(t, forwardDirection, s.ctx.PrevDirection)
	assert.Zero(t, s.ctx.PrevGain)
	assert.Len(t, s.ctx.PrevLeftTail, sphere.Len()-1)
	assert.Len(t, s.ctx.Output, 2*RenderQuantumSize)
	assert.False(t, s.Ringing())

	right := hrtfDirection(r3.Vec{X: 1})
	out := s.Process(constant(1), 0.5, right)
	assert.Len(t, out, 2*RenderQuantumSize)
	assert.Equal(t, right, s.ctx.PrevDirection)
	assert.Equal(t, float32(0.5), s.ctx.PrevGain)
	assert.Nil(t, s.ctx.Source)

	// Gain ramps up from zero across the first quantum
	assert.InDelta(t, 0, out[0], testutil.SampleTolerance)
	assert.InDelta(t, 0, out[1], testutil.SampleTolerance)
}

func BenchmarkPannerRenderer(b *testing.B) {
	for _, model := range []PanningModel{PanningModelEqualPower, PanningModelHRTF} {
		b.Run(model.String(), func(b *testing.B) {
			f := newRendererFixture(b, model)
			signal := testutil.Sine(RenderQuantumSize, 440, testSampleRate)
			for b.Loop() {
				f.process(signal)
			}
		})
	}
}
