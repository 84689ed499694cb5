// Package spatial renders audio sources positioned in three-dimensional
// space relative to a listener.
//
// It implements the spatial panner of a Web Audio style render graph: a
// [PannerNode] attenuates its input by distance and by a directional cone and
// renders it to stereo, either with equal-power panning or binaurally with
// head-related transfer functions (HRTF).
//
// # Quick Start
//
//	ctx, err := spatial.NewContext(spatial.ContextOptions{SampleRate: 48000})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	opts := spatial.DefaultPannerOptions()
//	opts.PanningModel = spatial.PanningModelHRTF
//	panner, err := ctx.CreatePanner(opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	src, _ := ctx.CreateBufferSource(buffer)
//	_ = src.Connect(panner)
//	_ = panner.Connect(ctx.Destination())
//	_ = src.Start(0)
//
//	// Move the source two meters to the right over one second
//	_ = panner.PositionX().LinearRampToValueAtTime(2, 1)
//
//	out, err := ctx.Render(48000)
//
// # Threads
//
// Everything except [Context.Render] and [Context.RenderQuantum] is control
// side API and safe for concurrent use. The two render methods drive the
// graph one quantum of [RenderQuantumSize] frames at a time; they must be
// called from a single goroutine, and nothing they reach locks or allocates
// once the graph is built.
//
// # Listener
//
// Every context owns one [AudioListener]. Its nine parameters (position,
// forward and up, three components each) are rendered by a graph node whose
// outputs feed auxiliary inputs 1 to 9 of every panner, so listener movement
// can be automated like any other parameter.
//
// # Parameters
//
// Position and orientation are automatable [AudioParam] values evaluated once
// per quantum. The cone settings are plain values that reach the render side
// on the next quantum.
//
// # Distance Models
//
// Only the inverse distance model is rendered: the distance gain is
// 1/distance, or 1 when the source and listener coincide.
// [DistanceModelLinear] and [DistanceModelExponential] are accepted and
// reported but render as inverse.
//
// # HRIR Datasets
//
// HRTF panners share one impulse response sphere per context. By default it
// is the embedded spherical head model dataset; [ContextOptions.HRIRDataset]
// replaces it. Datasets recorded at another sample rate are converted when
// they are loaded.
package spatial
