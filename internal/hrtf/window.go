package hrtf

import "github.com/tphakala/go-audio-spatial/internal/filter"

// fadeOut applies the falling half of a Kaiser window to the last
// len(ir)/fadeOutFraction samples of ir.
func fadeOut(ir []float64, beta float64) {
	fadeLen := len(ir) / fadeOutFraction
	if fadeLen == 0 {
		return
	}

	window := filter.KaiserWindow(2*fadeLen, beta)
	start := len(ir) - fadeLen
	for i := range fadeLen {
		ir[start+i] *= window[fadeLen+i]
	}
}
