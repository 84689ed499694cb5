// Command hrir-gen synthesizes an HRIR dataset from a spherical head model
// and writes it in the binary format read by the HRTF panner.
//
// Usage:
//
//	hrir-gen -o default.hrir                         # the built-in dataset
//	hrir-gen -rate 48000 -length 128 -o hires.hrir
//	hrir-gen -radius 0.095 -step 15 -elevations -30,0,30,60 -o big-head.hrir
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/tphakala/go-audio-spatial/internal/cliutil"
	"github.com/tphakala/go-audio-spatial/internal/hrtf"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() (err error) {
	defaults := hrtf.DefaultSynthOptions()

	rate := flag.Uint("rate", uint(defaults.SampleRate), "Sample rate of the responses in Hz")
	length := flag.Int("length", defaults.Length, "Response length in samples")
	radius := flag.Float64("radius", defaults.HeadRadius, "Head radius in meters")
	speed := flag.Float64("speed", defaults.SpeedOfSound, "Speed of sound in m/s")
	step := flag.Float64("step", defaults.AzimuthStep, "Azimuth spacing in degrees")
	onset := flag.Float64("onset", defaults.OnsetSamples, "Onset delay in samples")
	elevations := flag.String("elevations", formatElevations(defaults.Elevations), "Comma-separated ring elevations in degrees")
	output := flag.String("o", "default.hrir", "Output file")
	verify := flag.Bool("verify", true, "Load the written dataset back as a check")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	els, err := parseElevations(*elevations)
	if err != nil {
		return err
	}

	opts := hrtf.SynthOptions{
		SampleRate:   uint32(*rate),
		Length:       *length,
		HeadRadius:   *radius,
		SpeedOfSound: *speed,
		Elevations:   els,
		AzimuthStep:  *step,
		OnsetSamples: *onset,
	}
	sphere, err := hrtf.Synthesize(opts)
	if err != nil {
		return err
	}
	if *verbose {
		log.Printf("Synthesized %d points, %d samples at %d Hz", sphere.NumPoints(), sphere.Len(), sphere.SampleRate())
	}

	var encoded bytes.Buffer
	if err := sphere.Encode(&encoded); err != nil {
		return err
	}
	if *verify {
		if _, err := hrtf.Load(encoded.Bytes(), sphere.SampleRate()); err != nil {
			return fmt.Errorf("written dataset does not load: %w", err)
		}
	}

	f, err := cliutil.CreateOutput(*output)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	w := bufio.NewWriter(f)
	if _, err := encoded.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}

	fmt.Printf("Wrote %s (%d points, %d taps, %d Hz)\n", *output, sphere.NumPoints(), sphere.Len(), sphere.SampleRate())
	return nil
}

// parseElevations reads a comma-separated list of degrees.
func parseElevations(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid elevation %q: %w", f, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no elevations given")
	}
	return out, nil
}

func formatElevations(els []float64) string {
	parts := make([]string, len(els))
	for i, el := range els {
		parts[i] = strconv.FormatFloat(el, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
