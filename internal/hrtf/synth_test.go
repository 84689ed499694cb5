package hrtf

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-audio-spatial/internal/testutil"
)

func TestSynthesize_Layout(t *testing.T) {
	s, err := Synthesize(SynthOptions{})
	require.NoError(t, err)

	assert.Equal(t, uint32(defaultSynthRate), s.SampleRate())
	assert.Equal(t, defaultSynthLength, s.Len())
	assert.Equal(t, len(defaultElevations)*12+1, s.NumPoints())

	for i := range s.NumPoints() {
		dir, left, right := s.Point(i)
		assert.InDelta(t, 1, dir.Len(), 1e-6, "point %d", i)
		testutil.AssertNoNaNOrInf(t, left)
		testutil.AssertNoNaNOrInf(t, right)
	}

	top, _, _ := s.Point(s.NumPoints() - 1)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, top)

	front, _, _ := s.Point(2 * 12) // elevation 0, azimuth 0
	assert.InDelta(t, 1, front.Z(), 1e-6)
}

func TestSynthesize_InterauralCues(t *testing.T) {
	s, err := Synthesize(SynthOptions{})
	require.NoError(t, err)

	// Elevation 0 ring: azimuth 90 is index 3, azimuth 270 is index 9
	ring := 2 * 12

	_, left, right := s.Point(ring + 3)
	assert.Greater(t, testutil.Energy(right), testutil.Energy(left), "source on the right")
	assert.Less(t, peakIndex(right), peakIndex(left), "right ear hears it first")

	_, left, right = s.Point(ring + 9)
	assert.Greater(t, testutil.Energy(left), testutil.Energy(right), "source on the left")
	assert.Less(t, peakIndex(left), peakIndex(right), "left ear hears it first")

	// Straight ahead the ears are symmetric
	_, left, right = s.Point(ring)
	for i := range left {
		assert.InDelta(t, left[i], right[i], 1e-6, "tap %d", i)
	}
}

func TestSynthesize_UnitDCGainFacingEar(t *testing.T) {
	s, err := Synthesize(SynthOptions{})
	require.NoError(t, err)

	_, _, right := s.Point(2*12 + 3)
	testutil.AssertRelativeError(t, 1.0, float64(sumOf(right)), 0.01)
}

func TestSynthesize_CustomOptions(t *testing.T) {
	s, err := Synthesize(SynthOptions{
		SampleRate:  96000,
		Length:      256,
		Elevations:  []float64{0},
		AzimuthStep: 90,
	})
	require.NoError(t, err)

	assert.Equal(t, uint32(96000), s.SampleRate())
	assert.Equal(t, 256, s.Len())
	assert.Equal(t, 5, s.NumPoints())
}

func TestSynthOptions_Validate(t *testing.T) {
	tests := []struct {
		name string
		opts SynthOptions
	}{
		{"NegativeLength", SynthOptions{Length: -1}},
		{"LengthTooLarge", SynthOptions{Length: maxIRLength + 1}},
		{"NegativeRadius", SynthOptions{HeadRadius: -0.1}},
		{"AzimuthStepTooLarge", SynthOptions{AzimuthStep: 400}},
		{"ElevationOutOfRange", SynthOptions{Elevations: []float64{0, 95}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.opts.Validate(), ErrInvalidDataset)
			_, err := Synthesize(tt.opts)
			require.ErrorIs(t, err, ErrInvalidDataset)
		})
	}

	assert.NoError(t, DefaultSynthOptions().Validate())
}

func TestDefault_MatchesSynthesizedModel(t *testing.T) {
	embedded, err := Default(defaultSynthRate)
	require.NoError(t, err)
	model, err := Synthesize(DefaultSynthOptions())
	require.NoError(t, err)

	require.Equal(t, model.NumPoints(), embedded.NumPoints())
	require.Equal(t, model.Len(), embedded.Len())

	for i := range model.NumPoints() {
		wantDir, wantLeft, wantRight := model.Point(i)
		gotDir, gotLeft, gotRight := embedded.Point(i)
		assert.InDelta(t, 0, wantDir.Sub(gotDir).Len(), 1e-6, "point %d direction", i)
		for n := range wantLeft {
			assert.InDelta(t, wantLeft[n], gotLeft[n], 1e-4, "point %d left tap %d", i, n)
			assert.InDelta(t, wantRight[n], gotRight[n], 1e-4, "point %d right tap %d", i, n)
		}
	}
}

func TestDefault_CachedPerRate(t *testing.T) {
	a, err := Default(48000)
	require.NoError(t, err)
	b, err := Default(48000)
	require.NoError(t, err)
	assert.Same(t, a, b)

	assert.Equal(t, 70, a.Len())

	c, err := Default(44100)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestDefaultDataset_IsCopy(t *testing.T) {
	data := DefaultDataset()
	data[0] = 'X'
	assert.Equal(t, byte('H'), DefaultDataset()[0])
}

func TestEncode_RoundTripsSynthesized(t *testing.T) {
	s, err := Synthesize(SynthOptions{Elevations: []float64{0}, AzimuthStep: 120})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Encode(&buf))

	loaded, err := Load(buf.Bytes(), s.SampleRate())
	require.NoError(t, err)
	require.Equal(t, s.NumPoints(), loaded.NumPoints())

	for i := range s.NumPoints() {
		_, wantLeft, _ := s.Point(i)
		_, gotLeft, _ := loaded.Point(i)
		assert.Equal(t, wantLeft, gotLeft)
	}
}

func TestFadeOut(t *testing.T) {
	ir := make([]float64, 16)
	for i := range ir {
		ir[i] = 1
	}
	fadeOut(ir, fadeOutKaiserBeta)

	for i := range 12 {
		assert.Equal(t, 1.0, ir[i], "untouched tap %d", i)
	}
	testutil.AssertMonotonicDecreasing(t, ir)
	assert.Less(t, ir[15], 0.01)
}

func peakIndex(s []float32) int {
	best := 0
	for i, v := range s {
		if v > s[best] {
			best = i
		}
	}
	return best
}
