package param

// Queue and timeline sizing
const (
	// Pending control events per parameter; rounded up to a power of 2
	queueCapacity = 256

	// Scheduled events a parameter can hold at once
	timelineCapacity = 256

	// Values produced per render quantum for a-rate parameters
	maxFrames = 128
)
