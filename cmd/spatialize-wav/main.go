// Command spatialize-wav renders an audio file through a 3D panner and
// writes the binaural or equal-power stereo result as WAV.
//
// Usage:
//
//	spatialize-wav input.wav output.wav                     # HRTF, source 1 m in front
//	spatialize-wav -x 2 -z 0 voice.mp3 right.wav            # fixed position to the right
//	spatialize-wav -sweep 3 input.wav sweep.wav             # left to right pass
//	spatialize-wav -orbit 4 -radius 2 input.wav orbit.wav   # one revolution every 4 s
//	spatialize-wav -model equalpower -bits 24 in.wav out.wav
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	spatial "github.com/tphakala/go-audio-spatial"
	"github.com/tphakala/go-audio-spatial/internal/cliutil"
	"github.com/tphakala/simd/cpu"
)

const (
	minRequiredArgs = 2

	// CLI defaults
	defaultBitDepth = 16
	defaultTail     = 0.25
	defaultRadius   = 1.0
	defaultZ        = -1.0
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() (err error) {
	model := flag.String("model", "hrtf", "Panning model: hrtf, equalpower")
	x := flag.Float64("x", 0, "Source X position in meters (right is positive)")
	y := flag.Float64("y", 0, "Source Y position in meters (up is positive)")
	z := flag.Float64("z", defaultZ, "Source Z position in meters (front is negative)")
	sweep := flag.Float64("sweep", 0, "Sweep X linearly from -sweep to +sweep over the input")
	orbit := flag.Float64("orbit", 0, "Orbit period in seconds (0 disables)")
	radius := flag.Float64("radius", defaultRadius, "Orbit radius in meters")
	rate := flag.Float64("rate", 0, "Render sample rate in Hz (default: input rate)")
	bits := flag.Int("bits", defaultBitDepth, "Output bit depth: 16, 24, 32")
	tail := flag.Float64("tail", defaultTail, "Seconds rendered after the input ends")
	hrir := flag.String("hrir", "", "HRIR dataset file (default: built-in)")
	verbose := flag.Bool("v", false, "Verbose output")
	logLevel := flag.String("log-level", "warn", "Library log level: debug, info, warn, error")
	cpuprofile := flag.String("cpuprofile", "", "Write CPU profile to file")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.{wav,mp3} output.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		return fmt.Errorf("insufficient arguments")
	}

	stop, err := cliutil.StartCPUProfile(*cpuprofile)
	if err != nil {
		return err
	}
	defer stop()

	logger, err := cliutil.NewLogger(os.Stderr, *logLevel)
	if err != nil {
		return err
	}

	panningModel, err := parseModel(*model)
	if err != nil {
		return err
	}

	inputPath, outputPath := args[0], args[1]
	if *verbose {
		log.Printf("Input: %s", inputPath)
		log.Printf("Output: %s", outputPath)
		log.Printf("Model: %s", panningModel)
		log.Printf("SIMD: %s", cpu.Info())
	}

	input, err := cliutil.LoadAudio(inputPath)
	if err != nil {
		return err
	}
	if *rate > 0 && float32(*rate) != input.SampleRate() {
		if *verbose {
			log.Printf("Resampling input: %.0f Hz -> %.0f Hz", input.SampleRate(), *rate)
		}
		if input, err = input.Resample(float32(*rate)); err != nil {
			return err
		}
	}

	opts := spatial.ContextOptions{
		SampleRate: input.SampleRate(),
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

	pannerOpts := spatial.DefaultPannerOptions()
	pannerOpts.PanningModel = panningModel
	pannerOpts.PositionX = float32(*x)
	pannerOpts.PositionY = float32(*y)
	pannerOpts.PositionZ = float32(*z)

	plan := renderPlan{
		input:   input,
		panner:  pannerOpts,
		context: opts,
		tail:    *tail,
		sweep:   *sweep,
		orbit:   *orbit,
		radius:  *radius,
		verbose: *verbose,
	}

	start := time.Now()
	output, err := plan.render()
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	f, err := cliutil.CreateOutput(outputPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	if err := spatial.WriteWAV(f, output, *bits); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	fmt.Printf("Spatialized %s -> %s\n", filepath.Base(inputPath), filepath.Base(outputPath))
	fmt.Printf("  %s, %.0f Hz, %d -> 2 channels, %d-bit\n",
		panningModel, output.SampleRate(), input.NumberOfChannels(), *bits)
	fmt.Printf("  Duration: %.2fs, Speed: %.1fx realtime\n",
		elapsed.Seconds(), output.Duration()/elapsed.Seconds())

	return nil
}

func parseModel(s string) (spatial.PanningModel, error) {
	switch s {
	case "hrtf", "HRTF":
		return spatial.PanningModelHRTF, nil
	case "equalpower", "equal-power":
		return spatial.PanningModelEqualPower, nil
	default:
		return 0, fmt.Errorf("unknown panning model: %s", s)
	}
}
