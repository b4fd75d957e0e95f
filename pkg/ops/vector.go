package ops

import (
	"math"

	"github.com/chazu/shadevol/pkg/ir"
)

// vectorMath evaluates a VECT_MATH node. Operations with a scalar result
// place it on channel 1, matching the node's Value output socket, with a
// zero placeholder on channel 0.
func vectorMath(o *operands, k ir.Kind) ir.Channels {
	switch k {
	case ir.VectorDot:
		return valueOutput(o.vec(0).Dot(o.vec(1)))
	case ir.VectorDistance:
		return valueOutput(o.vec(0).Sub(o.vec(1)).Length())
	case ir.VectorLength:
		return valueOutput(o.vec(0).Length())
	}
	return one(ir.FromVec3(vectorOp(o, k)))
}

func valueOutput(s float64) ir.Channels {
	return ir.Channels{ir.Scalar(0), ir.Scalar(s)}
}

func vectorOp(o *operands, k ir.Kind) ir.Vec3 {
	switch k {
	case ir.VectorAdd:
		return o.vec(0).Add(o.vec(1))
	case ir.VectorSubtract:
		return o.vec(0).Sub(o.vec(1))
	case ir.VectorMultiply:
		return o.vec(0).Mul(o.vec(1))
	case ir.VectorDivide:
		return vecDivide(o.vec(0), o.vec(1))
	case ir.VectorCross:
		return o.vec(0).Cross(o.vec(1))
	case ir.VectorProject:
		return project(o.vec(0), o.vec(1))
	case ir.VectorReflect:
		return reflect(o.vec(0), o.vec(1))
	case ir.VectorScale:
		return o.vec(0).Scale(o.float(3))
	case ir.VectorNormalize:
		return o.vec(0).Normalize()
	case ir.VectorAbsolute:
		return o.vec(0).Map(math.Abs)
	case ir.VectorMinimum:
		return o.vec(0).Zip(o.vec(1), math.Min)
	case ir.VectorMaximum:
		return o.vec(0).Zip(o.vec(1), math.Max)
	case ir.VectorFloor:
		return o.vec(0).Map(math.Floor)
	case ir.VectorCeil:
		return o.vec(0).Map(math.Ceil)
	case ir.VectorFraction:
		return o.vec(0).Map(fract)
	case ir.VectorModulo:
		return o.vec(0).Zip(o.vec(1), safeMod)
	case ir.VectorWrap:
		x, lo, hi := o.vec(0), o.vec(1), o.vec(2)
		return ir.Vec3{
			X: wrapComponent(x.X, lo.X, hi.X),
			Y: wrapComponent(x.Y, lo.Y, hi.Y),
			Z: wrapComponent(x.Z, lo.Z, hi.Z),
		}
	case ir.VectorSnap:
		a, b := o.vec(0), o.vec(1)
		return vecDivide(a, b).Map(math.Floor).Mul(b)
	case ir.VectorSine:
		return o.vec(0).Map(math.Sin)
	case ir.VectorCosine:
		return o.vec(0).Map(math.Cos)
	case ir.VectorTangent:
		return o.vec(0).Map(math.Tan)
	}
	return ir.Vec3{}
}

// vecDivide divides component-wise, yielding 0 wherever the divisor is 0.
func vecDivide(a, b ir.Vec3) ir.Vec3 {
	return a.Zip(b, func(x, y float64) float64 {
		if y == 0 {
			return 0
		}
		return x / y
	})
}

// project returns the projection of a onto b, zero when b is zero.
func project(a, b ir.Vec3) ir.Vec3 {
	d := b.Dot(b)
	if d == 0 {
		return ir.Vec3{}
	}
	return b.Scale(a.Dot(b) / d)
}

// reflect mirrors a about the plane whose normal is n.
func reflect(a, n ir.Vec3) ir.Vec3 {
	n = n.Normalize()
	return a.Sub(n.Scale(2 * a.Dot(n)))
}
