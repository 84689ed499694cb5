package spatial

import (
	"github.com/tphakala/go-audio-spatial/internal/graph"
	"github.com/tphakala/go-audio-spatial/internal/param"
)

// DestinationNode is the final node of a context. Its input is mixed to
// stereo and returned by [Context.Render] and [Context.RenderQuantum].
type DestinationNode struct {
	audioNode
}

func newDestinationNode(c *Context) *DestinationNode {
	d := &DestinationNode{}
	d.register(c, destinationRenderer{}, graph.NodeConfig{
		NumberOfInputs:  1,
		NumberOfOutputs: 1,
		Channels:        graph.NewChannelConfig(stereoChannels, ChannelCountModeExplicit, ChannelInterpretationSpeakers),
	})
	return d
}

// destinationRenderer passes its mixed input through.
type destinationRenderer struct{}

func (destinationRenderer) Process(inputs, outputs []*graph.Quantum, _ param.Values, _ *graph.Scope) bool {
	outputs[0].CopyFrom(inputs[0])
	return false
}
