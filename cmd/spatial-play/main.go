// Command spatial-play plays a sound orbiting the listener through the
// default audio device.
//
// Usage:
//
//	spatial-play                          # built-in tone, HRTF, 4 s per revolution
//	spatial-play -in music.mp3 -period 8  # loop a file
//	spatial-play -model equalpower -radius 3 -duration 20
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"time"

	spatial "github.com/tphakala/go-audio-spatial"
	"github.com/tphakala/go-audio-spatial/internal/cliutil"
	"github.com/tphakala/simd/cpu"
)

const (
	defaultSampleRate = 48000
	defaultPeriod     = 4.0
	defaultRadius     = 1.5
	defaultDuration   = 10.0

	// Position updates from the control loop
	updateInterval = 10 * time.Millisecond

	// Built-in tone: a decaying beep followed by silence
	toneFrequency = 660.0
	toneSeconds   = 0.5
	toneDecay     = 8.0
	toneLevel     = 0.5
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "Input WAV or MP3 file, looped (default: built-in tone)")
	model := flag.String("model", "hrtf", "Panning model: hrtf, equalpower")
	period := flag.Float64("period", defaultPeriod, "Orbit period in seconds")
	radius := flag.Float64("radius", defaultRadius, "Orbit radius in meters")
	duration := flag.Float64("duration", defaultDuration, "Playback time in seconds (0 plays until interrupted)")
	rate := flag.Int("rate", defaultSampleRate, "Device sample rate in Hz")
	hrir := flag.String("hrir", "", "HRIR dataset file (default: built-in)")
	verbose := flag.Bool("v", false, "Verbose output")
	logLevel := flag.String("log-level", "warn", "Library log level: debug, info, warn, error")
	flag.Parse()

	if !(*period > 0) || !(*radius > 0) {
		return fmt.Errorf("period and radius must be positive")
	}

	logger, err := cliutil.NewLogger(os.Stderr, *logLevel)
	if err != nil {
		return err
	}

	var panningModel spatial.PanningModel
	switch *model {
	case "hrtf":
		panningModel = spatial.PanningModelHRTF
	case "equalpower":
		panningModel = spatial.PanningModelEqualPower
	default:
		return fmt.Errorf("unknown panning model: %s", *model)
	}

	opts := spatial.ContextOptions{
		SampleRate: float32(*rate),
		Logger:     logger,
	}
	if *hrir != "" {
		path, err := cliutil.ExpandPath(*hrir)
		if err != nil {
			return err
		}
		if opts.HRIRDataset, err = os.ReadFile(path); err != nil {
			return fmt.Errorf("failed to read HRIR dataset: %w", err)
		}
	}
	ctx, err := spatial.NewContext(opts)
	if err != nil {
		return err
	}

	input, err := loadInput(*in, ctx.SampleRate())
	if err != nil {
		return err
	}

	src, err := ctx.CreateBufferSource(input)
	if err != nil {
		return err
	}
	src.SetLoop(true)

	pannerOpts := spatial.DefaultPannerOptions()
	pannerOpts.PanningModel = panningModel
	pannerOpts.PositionZ = float32(-*radius)
	panner, err := ctx.CreatePanner(pannerOpts)
	if err != nil {
		return err
	}
	if err := src.Connect(panner); err != nil {
		return err
	}
	if err := panner.Connect(ctx.Destination()); err != nil {
		return err
	}
	if err := src.Start(0); err != nil {
		return err
	}

	if *verbose {
		log.Printf("Device: %d Hz stereo float32", *rate)
		log.Printf("Model: %s, radius %.2f m, period %.2f s", panningModel, *radius, *period)
		log.Printf("SIMD: %s", cpu.Info())
	}

	device, err := openDevice(*rate)
	if err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}
	reader := newQuantumReader(ctx)
	player := device.NewPlayer(reader)
	defer func() { _ = player.Close() }()

	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if *duration > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, time.Duration(*duration*float64(time.Second)))
		defer cancelTimeout()
	}

	player.Play()
	err = orbit(runCtx, panner, *period, *radius, reader.Err)
	player.Pause()
	return err
}

// orbit moves the panner around the listener until ctx is done.
// Positions are derived from wall-clock time since the start.
func orbit(ctx context.Context, panner *spatial.PannerNode, period, radius float64, renderErr func() error) error {
	start := time.Now()
	ticker := time.NewTicker(updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := renderErr(); err != nil {
				return fmt.Errorf("render failed: %w", err)
			}
			x, z := cliutil.OrbitPosition(time.Since(start).Seconds(), period, radius)
			if err := panner.SetPosition(x, 0, z); err != nil {
				return err
			}
		}
	}
}

// loadInput reads path at the context rate, or builds the built-in tone.
func loadInput(path string, sampleRate float32) (*spatial.AudioBuffer, error) {
	if path == "" {
		return toneBuffer(sampleRate)
	}

	buf, err := cliutil.LoadAudio(path)
	if err != nil {
		return nil, err
	}
	if buf.SampleRate() == sampleRate {
		return buf, nil
	}
	return buf.Resample(sampleRate)
}

// toneBuffer returns a beep with an exponential decay in the first half and
// silence in the second, so the position is easy to follow when looped.
func toneBuffer(sampleRate float32) (*spatial.AudioBuffer, error) {
	frames := int(toneSeconds * float64(sampleRate))
	buf, err := spatial.NewAudioBuffer(1, frames, sampleRate)
	if err != nil {
		return nil, err
	}

	data := buf.Channel(0)
	for i := range frames / 2 {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-toneDecay * t)
		data[i] = float32(toneLevel * envelope * math.Sin(2*math.Pi*toneFrequency*t))
	}
	return buf, nil
}
