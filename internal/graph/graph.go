// Package graph implements a pull-based audio render graph.
//
// Nodes are registered with a [Processor] and connected output to input, or
// output to parameter, on the control side. Every topology change builds a new immutable render
// plan, topologically sorted, and publishes it atomically; the render side
// loads the current plan once per quantum and never locks. Node buffers are
// allocated at registration so that rendering does not allocate.
package graph

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tphakala/go-audio-spatial/internal/param"
)

// Sentinel errors returned by topology operations.
var (
	ErrUnknownNode = errors.New("unknown node")
	ErrInvalidPort = errors.New("invalid port")
	ErrCycle       = errors.New("connection would create a cycle")
)

// NodeID identifies a registered node.
type NodeID uuid.UUID

// String returns the canonical UUID form of the ID.
func (id NodeID) String() string {
	return uuid.UUID(id).String()
}

// Scope describes the quantum being rendered.
type Scope struct {
	// CurrentFrame is the index of the first frame of the quantum
	CurrentFrame uint64
	// CurrentTime is CurrentFrame in seconds
	CurrentTime float64
	SampleRate  float32
}

// Processor is the render side of a node.
//
// Process is called once per quantum on the render goroutine with mixed
// inputs and outputs to fill, and must neither block nor allocate. The
// returned flag asks the graph to keep calling Process even while the
// primary input is silent, for example while a filter tail rings out.
type Processor interface {
	Process(inputs, outputs []*Quantum, params param.Values, scope *Scope) bool
}

// NodeConfig describes a node at registration.
type NodeConfig struct {
	NumberOfInputs  int
	NumberOfOutputs int

	// Channels controls input mixing. Nil means two channels, Max, Speakers.
	Channels *ChannelConfig
}

type node struct {
	id       NodeID
	proc     Processor
	channels *ChannelConfig
	inputs   []*Quantum
	outputs  []*Quantum

	// Written only by the render goroutine
	keepAlive bool
}

type connection struct {
	from   NodeID
	output int
	to     NodeID
	input  int
}

// paramConnection feeds an output into a parameter read by owner.
type paramConnection struct {
	from   NodeID
	output int
	owner  NodeID
	param  param.ID
}

type source struct {
	node   *node
	output int
}

type paramInput struct {
	id      param.ID
	sources []source
}

type step struct {
	node    *node
	sources [][]source // per input
	params  []paramInput
}

// plan is an immutable render order.
type plan struct {
	steps []step
	dest  *node
}

// Graph owns the nodes and connections of one audio context.
type Graph struct {
	sampleRate float32
	params     *param.Registry

	mu          sync.Mutex
	nodes       map[NodeID]*node
	order       []NodeID
	edges       []connection
	paramEdges  []paramConnection
	destination NodeID

	plan atomic.Pointer[plan]

	// Render side
	scope    Scope
	silence  *Quantum
	paramMix *Quantum
}

// New creates an empty graph rendering at sampleRate. Parameters registered
// in params are ticked once per quantum before any node is processed.
func New(sampleRate float32, params *param.Registry) *Graph {
	g := &Graph{
		sampleRate: sampleRate,
		params:     params,
		nodes:      make(map[NodeID]*node),
		silence:    NewQuantum(),
		paramMix:   NewQuantum(),
		scope:      Scope{SampleRate: sampleRate},
	}
	g.plan.Store(&plan{})
	return g
}

// SampleRate returns the render rate in Hz.
func (g *Graph) SampleRate() float32 {
	return g.sampleRate
}

// Params returns the parameter registry ticked by the graph.
func (g *Graph) Params() *param.Registry {
	return g.params
}

// Register adds a node and returns its ID.
func (g *Graph) Register(proc Processor, cfg NodeConfig) NodeID {
	channels := cfg.Channels
	if channels == nil {
		channels = NewChannelConfig(2, Max, Speakers)
	}

	n := &node{
		id:       NodeID(uuid.New()),
		proc:     proc,
		channels: channels,
		inputs:   make([]*Quantum, max(0, cfg.NumberOfInputs)),
		outputs:  make([]*Quantum, max(0, cfg.NumberOfOutputs)),
	}
	for i := range n.inputs {
		n.inputs[i] = NewQuantum()
	}
	for i := range n.outputs {
		n.outputs[i] = NewQuantum()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes[n.id] = n
	g.order = append(g.order, n.id)
	g.publishLocked()

	return n.id
}

// Remove deletes a node and every connection to or from it.
func (g *Graph) Remove(id NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}

	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(n NodeID) bool { return n == id })
	g.edges = slices.DeleteFunc(g.edges, func(c connection) bool { return c.from == id || c.to == id })
	g.paramEdges = slices.DeleteFunc(g.paramEdges, func(c paramConnection) bool { return c.from == id || c.owner == id })
	if g.destination == id {
		g.destination = NodeID{}
	}
	g.publishLocked()

	return nil
}

// Contains reports whether id is registered.
func (g *Graph) Contains(id NodeID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.nodes)
}

// Connect routes output of from into input of to. Connecting the same ports
// twice is a no-op.
func (g *Graph) Connect(from NodeID, output int, to NodeID, input int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	src, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, from)
	}
	dst, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, to)
	}
	if output < 0 || output >= len(src.outputs) {
		return fmt.Errorf("%w: output %d of node with %d outputs", ErrInvalidPort, output, len(src.outputs))
	}
	if input < 0 || input >= len(dst.inputs) {
		return fmt.Errorf("%w: input %d of node with %d inputs", ErrInvalidPort, input, len(dst.inputs))
	}

	c := connection{from: from, output: output, to: to, input: input}
	if slices.Contains(g.edges, c) {
		return nil
	}

	g.edges = append(g.edges, c)
	if _, err := g.buildPlanLocked(); err != nil {
		g.edges = g.edges[:len(g.edges)-1]
		return err
	}
	g.publishLocked()

	return nil
}

// ConnectParam routes output of from into parameter id, which is read by the
// processor of owner. The output is down-mixed to mono and added to the
// parameter's rendered values before owner is processed. Connecting the same
// output twice is a no-op.
func (g *Graph) ConnectParam(from NodeID, output int, owner NodeID, id param.ID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	src, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, from)
	}
	if _, ok := g.nodes[owner]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, owner)
	}
	if output < 0 || output >= len(src.outputs) {
		return fmt.Errorf("%w: output %d of node with %d outputs", ErrInvalidPort, output, len(src.outputs))
	}

	c := paramConnection{from: from, output: output, owner: owner, param: id}
	if slices.Contains(g.paramEdges, c) {
		return nil
	}

	g.paramEdges = append(g.paramEdges, c)
	if _, err := g.buildPlanLocked(); err != nil {
		g.paramEdges = g.paramEdges[:len(g.paramEdges)-1]
		return err
	}
	g.publishLocked()

	return nil
}

// DisconnectParam removes every connection from a node into parameter id.
func (g *Graph) DisconnectParam(from NodeID, id param.ID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, from)
	}

	g.paramEdges = slices.DeleteFunc(g.paramEdges, func(c paramConnection) bool { return c.from == from && c.param == id })
	g.publishLocked()

	return nil
}

// Disconnect removes every connection from one node to another.
func (g *Graph) Disconnect(from, to NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, from)
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, to)
	}

	g.edges = slices.DeleteFunc(g.edges, func(c connection) bool { return c.from == from && c.to == to })
	g.publishLocked()

	return nil
}

// SetDestination selects the node whose first output [Graph.Render] returns.
func (g *Graph) SetDestination(id NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	if len(n.outputs) == 0 {
		return fmt.Errorf("%w: destination has no outputs", ErrInvalidPort)
	}

	g.destination = id
	g.publishLocked()

	return nil
}

// publishLocked rebuilds and stores the render plan. Callers hold g.mu and
// have already rejected cycles, so a build error cannot occur here.
func (g *Graph) publishLocked() {
	p, err := g.buildPlanLocked()
	if err != nil {
		return
	}
	g.plan.Store(p)
}

// buildPlanLocked sorts nodes topologically with Kahn's algorithm, breaking
// ties by registration order.
func (g *Graph) buildPlanLocked() (*plan, error) {
	indegree := make(map[NodeID]int, len(g.order))
	next := make(map[NodeID][]NodeID, len(g.order))
	for _, c := range g.edges {
		indegree[c.to]++
		next[c.from] = append(next[c.from], c.to)
	}
	for _, c := range g.paramEdges {
		indegree[c.owner]++
		next[c.from] = append(next[c.from], c.owner)
	}

	ready := make([]NodeID, 0, len(g.order))
	for _, id := range g.order {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	sorted := make([]NodeID, 0, len(g.order))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		sorted = append(sorted, id)
		for _, to := range next[id] {
			indegree[to]--
			if indegree[to] == 0 {
				ready = append(ready, to)
			}
		}
	}
	if len(sorted) != len(g.order) {
		return nil, ErrCycle
	}

	p := &plan{steps: make([]step, len(sorted))}
	for i, id := range sorted {
		n := g.nodes[id]
		s := step{node: n, sources: make([][]source, len(n.inputs))}
		for _, c := range g.edges {
			if c.to == id {
				s.sources[c.input] = append(s.sources[c.input], source{node: g.nodes[c.from], output: c.output})
			}
		}
		for _, c := range g.paramEdges {
			if c.owner != id {
				continue
			}
			src := source{node: g.nodes[c.from], output: c.output}
			j := slices.IndexFunc(s.params, func(in paramInput) bool { return in.id == c.param })
			if j < 0 {
				s.params = append(s.params, paramInput{id: c.param})
				j = len(s.params) - 1
			}
			s.params[j].sources = append(s.params[j].sources, src)
		}
		p.steps[i] = s
	}
	if d, ok := g.nodes[g.destination]; ok {
		p.dest = d
	}

	return p, nil
}

// Render processes one quantum and returns the first output of the
// destination node, or a silent quantum when there is none. The result is
// valid until the next call. Render must only be called from one goroutine.
func (g *Graph) Render() *Quantum {
	p := g.plan.Load()
	values := g.params.Tick(g.scope.CurrentTime, float64(g.sampleRate), RenderQuantumSize)

	for i := range p.steps {
		g.renderStep(&p.steps[i], values)
	}

	g.scope.CurrentFrame += RenderQuantumSize
	g.scope.CurrentTime = float64(g.scope.CurrentFrame) / float64(g.sampleRate)

	if p.dest == nil {
		return g.silence
	}
	return p.dest.outputs[0]
}

// CurrentFrame returns the index of the next frame to be rendered.
// Only the render goroutine may call it.
func (g *Graph) CurrentFrame() uint64 {
	return g.scope.CurrentFrame
}

func (g *Graph) renderStep(s *step, values param.Values) {
	n := s.node
	interp := n.channels.Interpretation()

	for _, in := range s.params {
		mix := g.paramMix
		mix.MakeSilent()
		for _, src := range in.sources {
			mix.AddFrom(src.node.outputs[src.output], Speakers)
		}
		values.AddInput(in.id, mix.Channel(0))
	}

	for i, in := range n.inputs {
		widest := 1
		for _, src := range s.sources[i] {
			widest = max(widest, src.node.outputs[src.output].NumberOfChannels())
		}
		in.SetNumberOfChannels(n.channels.ComputedChannels(widest))
		in.Clear()
		for _, src := range s.sources[i] {
			in.AddFrom(src.node.outputs[src.output], interp)
		}
	}

	// Stop pulling nodes that went quiet and have nothing left to ring out
	if len(n.inputs) > 0 && !n.keepAlive && n.inputs[0].IsSilent() {
		for _, out := range n.outputs {
			out.Clear()
		}
		return
	}

	n.keepAlive = n.proc.Process(n.inputs, n.outputs, values, &g.scope)
}
