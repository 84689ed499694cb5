package graph

const (
	// RenderQuantumSize is the number of frames processed per render call.
	RenderQuantumSize = 128

	// MaxChannels is the largest channel count a quantum can carry.
	MaxChannels = 32

	// Gain applied to each channel when speakers down-mix stereo to mono
	stereoToMonoGain = 0.5
)
