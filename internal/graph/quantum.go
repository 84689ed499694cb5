package graph

import "github.com/tphakala/go-audio-spatial/internal/simdops"

// Quantum is one render quantum of multi-channel audio.
//
// Storage for MaxChannels channels is allocated once; changing the channel
// count only changes how many of them are in use.
type Quantum struct {
	data     [][]float32
	channels int
}

// NewQuantum creates a silent mono quantum.
func NewQuantum() *Quantum {
	q := &Quantum{
		data:     make([][]float32, MaxChannels),
		channels: 1,
	}
	backing := make([]float32, MaxChannels*RenderQuantumSize)
	for i := range q.data {
		q.data[i] = backing[i*RenderQuantumSize : (i+1)*RenderQuantumSize : (i+1)*RenderQuantumSize]
	}
	return q
}

// NumberOfChannels returns the number of channels in use.
func (q *Quantum) NumberOfChannels() int {
	return q.channels
}

// SetNumberOfChannels changes the channel count without touching sample
// data. Channels that come into use may hold stale samples.
func (q *Quantum) SetNumberOfChannels(n int) {
	q.channels = min(max(n, 1), MaxChannels)
}

// Channel returns the samples of channel i.
func (q *Quantum) Channel(i int) []float32 {
	return q.data[i]
}

// Clear zeroes every channel in use.
func (q *Quantum) Clear() {
	for _, ch := range q.data[:q.channels] {
		clear(ch)
	}
}

// MakeSilent resets the quantum to a single channel of zeros.
func (q *Quantum) MakeSilent() {
	q.channels = 1
	clear(q.data[0])
}

// IsSilent reports whether every sample in use is zero.
func (q *Quantum) IsSilent() bool {
	for _, ch := range q.data[:q.channels] {
		if !simdops.IsSilent(ch) {
			return false
		}
	}
	return true
}

// CopyFrom replaces the contents of q with src.
func (q *Quantum) CopyFrom(src *Quantum) {
	q.channels = src.channels
	for i := range q.channels {
		copy(q.data[i], src.data[i])
	}
}

// Mix converts q in place to n channels.
//
// With [Speakers] interpretation mono is duplicated to stereo and stereo is
// averaged to mono. Every other conversion, and every conversion with
// [Discrete] interpretation, keeps the common channels, zero-filling new ones
// and dropping surplus ones.
func (q *Quantum) Mix(n int, interp ChannelInterpretation) {
	n = min(max(n, 1), MaxChannels)
	from := q.channels
	if n == from {
		return
	}

	if interp == Speakers {
		switch {
		case from == 1 && n == 2:
			copy(q.data[1], q.data[0])
			q.channels = 2
			return
		case from == 2 && n == 1:
			l, r := q.data[0], q.data[1]
			for i := range l {
				l[i] = stereoToMonoGain * (l[i] + r[i])
			}
			q.channels = 1
			return
		}
	}

	for i := from; i < n; i++ {
		clear(q.data[i])
	}
	q.channels = n
}

// AddFrom sums src into q, converting src to q's channel count with the same
// rules as [Quantum.Mix].
func (q *Quantum) AddFrom(src *Quantum, interp ChannelInterpretation) {
	from, to := src.channels, q.channels

	if interp == Speakers {
		switch {
		case from == 1 && to == 2:
			simdops.MixInto(q.data[0], src.data[0], 1)
			simdops.MixInto(q.data[1], src.data[0], 1)
			return
		case from == 2 && to == 1:
			simdops.MixInto(q.data[0], src.data[0], stereoToMonoGain)
			simdops.MixInto(q.data[0], src.data[1], stereoToMonoGain)
			return
		}
	}

	for i := range min(from, to) {
		simdops.MixInto(q.data[i], src.data[i], 1)
	}
}
