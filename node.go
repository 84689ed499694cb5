package spatial

import (
	"fmt"

	"github.com/tphakala/go-audio-spatial/internal/graph"
)

// Node is implemented by every node of a [Context].
type Node interface {
	// ID returns the node's identifier in its context's graph.
	ID() NodeID

	// NumberOfInputs returns the number of input ports.
	NumberOfInputs() int

	// NumberOfOutputs returns the number of output ports.
	NumberOfOutputs() int

	base() *audioNode
}

// audioNode holds what every node shares: its context, its graph ID and its
// port counts.
type audioNode struct {
	ctx     *Context
	id      NodeID
	inputs  int
	outputs int
}

func (n *audioNode) register(ctx *Context, proc graph.Processor, cfg graph.NodeConfig) {
	n.ctx = ctx
	n.inputs = cfg.NumberOfInputs
	n.outputs = cfg.NumberOfOutputs
	n.id = ctx.graph.Register(proc, cfg)
}

// ID returns the node's identifier.
func (n *audioNode) ID() NodeID { return n.id }

// NumberOfInputs returns the number of input ports.
func (n *audioNode) NumberOfInputs() int { return n.inputs }

// NumberOfOutputs returns the number of output ports.
func (n *audioNode) NumberOfOutputs() int { return n.outputs }

// Context returns the context the node belongs to.
func (n *audioNode) Context() *Context { return n.ctx }

func (n *audioNode) base() *audioNode { return n }

// Connect routes output 0 of n into input 0 of dst.
func (n *audioNode) Connect(dst Node) error {
	return n.ConnectPort(dst, 0, 0)
}

// ConnectPort routes an output of n into an input of dst.
func (n *audioNode) ConnectPort(dst Node, output, input int) error {
	if err := n.sameContext(dst); err != nil {
		return err
	}
	return n.ctx.graph.Connect(n.id, output, dst.ID(), input)
}

// ConnectParam routes an output of n into dst. Each quantum the output is
// down-mixed to mono and added to the parameter's own value, and the sum is
// clamped to the parameter's range. K-rate parameters take the first frame.
// The parameter's Value is not affected.
func (n *audioNode) ConnectParam(dst *AudioParam, output int) error {
	owner, err := n.ctx.paramOwner(dst)
	if err != nil {
		return err
	}
	return n.ctx.graph.ConnectParam(n.id, output, owner, dst.ID())
}

// DisconnectParam removes every connection from n to dst.
func (n *audioNode) DisconnectParam(dst *AudioParam) error {
	if _, err := n.ctx.paramOwner(dst); err != nil {
		return err
	}
	return n.ctx.graph.DisconnectParam(n.id, dst.ID())
}

// Disconnect removes every connection from n to dst.
func (n *audioNode) Disconnect(dst Node) error {
	if err := n.sameContext(dst); err != nil {
		return err
	}
	return n.ctx.graph.Disconnect(n.id, dst.ID())
}

func (n *audioNode) sameContext(dst Node) error {
	if dst == nil {
		return fmt.Errorf("%w: nil destination node", ErrInvalidConfig)
	}
	if dst.base().ctx != n.ctx {
		return fmt.Errorf("%w: nodes belong to different contexts", ErrInvalidConfig)
	}
	return nil
}
