package hrtf

import (
	_ "embed"
	"sync"
)

// defaultDataset is the output of Synthesize(DefaultSynthOptions()),
// as written by cmd/hrir-gen.
//
//go:embed resources/default.hrir
var defaultDataset []byte

var (
	defaultMu     sync.Mutex
	defaultByRate = make(map[uint32]*Sphere)
)

// DefaultDataset returns a copy of the embedded dataset in the binary format.
func DefaultDataset() []byte {
	return append([]byte(nil), defaultDataset...)
}

// Default returns the embedded sphere converted to sampleRate.
// Spheres are cached per rate and shared, which is safe because a Sphere is
// immutable.
func Default(sampleRate uint32) (*Sphere, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if s, ok := defaultByRate[sampleRate]; ok {
		return s, nil
	}

	s, err := Load(defaultDataset, sampleRate)
	if err != nil {
		return nil, err
	}
	defaultByRate[sampleRate] = s
	return s, nil
}
