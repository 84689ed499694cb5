package spatial

import (
	"github.com/tphakala/go-audio-spatial/internal/graph"
	"github.com/tphakala/go-audio-spatial/internal/param"
)

// Listener parameter order, which is also the order of its outputs and of
// the panner inputs they feed.
const (
	listenerPositionX = iota
	listenerPositionY
	listenerPositionZ
	listenerForwardX
	listenerForwardY
	listenerForwardZ
	listenerUpX
	listenerUpY
	listenerUpZ
)

var listenerParams = [listenerOutputs]param.Descriptor{
	listenerPositionX: {Name: "listener.positionX"},
	listenerPositionY: {Name: "listener.positionY"},
	listenerPositionZ: {Name: "listener.positionZ"},
	listenerForwardX:  {Name: "listener.forwardX"},
	listenerForwardY:  {Name: "listener.forwardY"},
	listenerForwardZ:  {Name: "listener.forwardZ", Default: -1},
	listenerUpX:       {Name: "listener.upX"},
	listenerUpY:       {Name: "listener.upY", Default: 1},
	listenerUpZ:       {Name: "listener.upZ"},
}

// AudioListener is the position and orientation every panner of a context
// renders against. It is created once per context.
//
// The listener is a graph node with nine mono outputs, one per parameter.
// Every panner receives them on inputs 1 to 9. Its parameters are a-rate and
// may be driven by other nodes through ConnectParam.
type AudioListener struct {
	audioNode
	params [listenerOutputs]*AudioParam
}

// ensureListener creates the listener on first call and returns it.
func (c *Context) ensureListener() *AudioListener {
	c.listenerOnce.Do(func() {
		l := &AudioListener{}
		r := &listenerRenderer{}
		for i, desc := range listenerParams {
			desc.MinValue = minParamValue
			desc.MaxValue = maxParamValue
			desc.Rate = param.RateA
			l.params[i], r.ids[i] = c.params.Create(desc)
		}

		l.register(c, r, graph.NodeConfig{NumberOfOutputs: listenerOutputs})
		c.adoptParams(l.id, l.params[:]...)
		c.listener = l

		c.logger.Debug("audio listener created", "node", l.id)
	})
	return c.listener
}

// connectTo feeds the listener outputs into inputs 1 to 9 of node.
func (l *AudioListener) connectTo(node NodeID) error {
	for i := range listenerOutputs {
		if err := l.ctx.graph.Connect(l.id, i, node, 1+i); err != nil {
			return err
		}
	}
	return nil
}

// PositionX returns the x coordinate of the listener position.
func (l *AudioListener) PositionX() *AudioParam { return l.params[listenerPositionX] }

// PositionY returns the y coordinate of the listener position.
func (l *AudioListener) PositionY() *AudioParam { return l.params[listenerPositionY] }

// PositionZ returns the z coordinate of the listener position.
func (l *AudioListener) PositionZ() *AudioParam { return l.params[listenerPositionZ] }

// ForwardX returns the x component of the direction the listener faces.
func (l *AudioListener) ForwardX() *AudioParam { return l.params[listenerForwardX] }

// ForwardY returns the y component of the direction the listener faces.
func (l *AudioListener) ForwardY() *AudioParam { return l.params[listenerForwardY] }

// ForwardZ returns the z component of the direction the listener faces.
func (l *AudioListener) ForwardZ() *AudioParam { return l.params[listenerForwardZ] }

// UpX returns the x component of the listener's up vector.
func (l *AudioListener) UpX() *AudioParam { return l.params[listenerUpX] }

// UpY returns the y component of the listener's up vector.
func (l *AudioListener) UpY() *AudioParam { return l.params[listenerUpY] }

// UpZ returns the z component of the listener's up vector.
func (l *AudioListener) UpZ() *AudioParam { return l.params[listenerUpZ] }

// SetPosition sets the listener position from the next quantum on.
func (l *AudioListener) SetPosition(x, y, z float32) error {
	return setValues(l.params[listenerPositionX:listenerPositionZ+1], x, y, z)
}

// SetOrientation sets the forward and up vectors from the next quantum on.
func (l *AudioListener) SetOrientation(forwardX, forwardY, forwardZ, upX, upY, upZ float32) error {
	return setValues(l.params[listenerForwardX:], forwardX, forwardY, forwardZ, upX, upY, upZ)
}

// listenerRenderer writes each listener parameter to its own mono output.
type listenerRenderer struct {
	ids [listenerOutputs]param.ID
}

func (r *listenerRenderer) Process(_, outputs []*graph.Quantum, values param.Values, _ *graph.Scope) bool {
	for i, out := range outputs {
		out.SetNumberOfChannels(monoChannels)
		ch := out.Channel(0)

		v := values.Get(r.ids[i])
		switch len(v) {
		case 0:
			clear(ch)
		case 1:
			for j := range ch {
				ch[j] = v[0]
			}
		default:
			copy(ch, v)
		}
	}
	return false
}

func setValues(params []*AudioParam, values ...float32) error {
	for i, v := range values {
		if err := params[i].SetValue(v); err != nil {
			return err
		}
	}
	return nil
}
