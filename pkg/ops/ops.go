// Package ops implements the shader node operations over the IR.
//
// Apply is the single dispatch point: it switches on the node kind and runs
// the matching pure function. Operations pull their operands through an
// Inputs callback, so only the inputs an operation actually reads are
// evaluated. Every operation is total: division, modulo, logarithm and the
// other partial functions return a defined value instead of failing.
package ops

import (
	"errors"
	"fmt"

	"github.com/chazu/shadevol/pkg/ir"
)

// ErrMissingInput is returned when a node has fewer inputs than its
// operation reads.
var ErrMissingInput = errors.New("node is missing an input")

// Inputs resolves the i-th input of a node at a coordinate. The evaluator
// implements it; literal inputs resolve to themselves.
type Inputs interface {
	Input(n *ir.Node, i int, co ir.Coord) (ir.Value, error)
}

// Func is the signature of Apply, so callers can wrap it.
type Func func(in Inputs, n *ir.Node, co ir.Coord) (ir.Channels, error)

// Apply evaluates node n at coordinate co. The result always holds at least
// one channel.
func Apply(in Inputs, n *ir.Node, co ir.Coord) (ir.Channels, error) {
	o := &operands{in: in, n: n, co: co}
	var out ir.Channels

	switch k := n.Kind; {
	case k >= ir.MathAdd && k <= ir.MathDegrees:
		out = one(ir.Scalar(scalarMath(o, k)))
	case k >= ir.VectorAdd && k <= ir.VectorTangent:
		out = vectorMath(o, k)
	case k >= ir.MapRangeLinear && k <= ir.MapRangeSmootherstep:
		out = one(ir.Scalar(mapRange(o, k)))
	case k == ir.SeparateXYZ, k == ir.SeparateRGB:
		out = separate(o.value(0))
	case k == ir.CombineXYZ:
		out = one(ir.Vector(o.float(0), o.float(1), o.float(2)))
	case k == ir.CombineRGB:
		out = one(ir.Color(o.float(0), o.float(1), o.float(2), 1))
	case k == ir.SeparateHSV:
		out = separateHSV(o.value(0))
	case k == ir.CombineHSV:
		out = one(combineHSV(o.float(0), o.float(1), o.float(2)))
	case k == ir.Clamp:
		out = one(ir.Scalar(clamp(o.float(0), o.float(1), o.float(2))))
	case k == ir.ColorRamp:
		if n.Ramp == nil {
			return nil, fmt.Errorf("node #%d %q: %w", n.Index, n.Name, ir.ErrMissingDefault)
		}
		out = colorRamp(n.Ramp, o.float(0))
	case k == ir.TexCoord:
		out = texCoord(co)
	case k == ir.ValueSource, k == ir.RGBSource:
		out = one(n.Value)
	case k == ir.Reroute:
		out = one(o.value(0))
	default:
		return nil, fmt.Errorf("node #%d %q: %w: %s", n.Index, n.Name, ir.ErrUnsupportedOperation, k)
	}

	if o.err != nil {
		return nil, o.err
	}
	return out, nil
}

// Kinds lists the identifiers of every supported operation.
func Kinds() []string {
	kinds := ir.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}

func one(v ir.Value) ir.Channels {
	return ir.Channels{v}
}

// operands fetches the inputs of one node, remembering the first error so
// the operation bodies stay free of error plumbing. After an error every
// fetch returns the zero value.
type operands struct {
	in  Inputs
	n   *ir.Node
	co  ir.Coord
	err error
}

func (o *operands) value(i int) ir.Value {
	if o.err != nil {
		return ir.Value{}
	}
	if i >= len(o.n.Inputs) {
		o.err = fmt.Errorf("node #%d %q (%s): input %d: %w", o.n.Index, o.n.Name, o.n.Kind, i, ErrMissingInput)
		return ir.Value{}
	}
	v, err := o.in.Input(o.n, i, o.co)
	if err != nil {
		o.err = err
		return ir.Value{}
	}
	return v
}

func (o *operands) float(i int) float64 {
	return o.value(i).Float()
}

func (o *operands) vec(i int) ir.Vec3 {
	return o.value(i).Vec()
}
