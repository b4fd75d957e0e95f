package ops

import (
	"math"

	"github.com/chazu/shadevol/pkg/ir"
)

// compareFloor is the smallest tolerance COMPARE accepts.
const compareFloor = 1e-5

// scalarMath evaluates a MATH node. Only the operands the operation reads
// are fetched.
func scalarMath(o *operands, k ir.Kind) float64 {
	switch k {
	case ir.MathAdd:
		return o.float(0) + o.float(1)
	case ir.MathSubtract:
		return o.float(0) - o.float(1)
	case ir.MathMultiply:
		return o.float(0) * o.float(1)
	case ir.MathDivide:
		return safeDivide(o.float(0), o.float(1))
	case ir.MathMultiplyAdd:
		return o.float(0)*o.float(1) + o.float(2)
	case ir.MathPower:
		return power(o.float(0), o.float(1))
	case ir.MathLogarithm:
		return logarithm(o.float(0), o.float(1))
	case ir.MathSqrt:
		return sqrt(o.float(0))
	case ir.MathInverseSqrt:
		return inverseSqrt(o.float(0))
	case ir.MathAbsolute:
		return math.Abs(o.float(0))
	case ir.MathExponent:
		return math.Exp(o.float(0))
	case ir.MathMinimum:
		return math.Min(o.float(0), o.float(1))
	case ir.MathMaximum:
		return math.Max(o.float(0), o.float(1))
	case ir.MathLessThan:
		return boolFloat(o.float(0) < o.float(1))
	case ir.MathGreaterThan:
		return boolFloat(o.float(0) > o.float(1))
	case ir.MathSign:
		return sign(o.float(0))
	case ir.MathCompare:
		return compare(o.float(0), o.float(1), o.float(2))
	case ir.MathSmoothMin:
		return smoothMin(o.float(0), o.float(1), o.float(2))
	case ir.MathSmoothMax:
		return smoothMax(o.float(0), o.float(1), o.float(2))
	case ir.MathRound:
		return math.RoundToEven(o.float(0))
	case ir.MathFloor:
		return math.Floor(o.float(0))
	case ir.MathCeil:
		return math.Ceil(o.float(0))
	case ir.MathTrunc:
		return math.Trunc(o.float(0))
	case ir.MathFract:
		return fract(o.float(0))
	case ir.MathModulo:
		return safeMod(o.float(0), o.float(1))
	case ir.MathWrap:
		return wrap(o.float(0), o.float(1), o.float(2))
	case ir.MathSnap:
		return snap(o.float(0), o.float(1))
	case ir.MathPingPong:
		return pingPong(o.float(0), o.float(1))
	case ir.MathSine:
		return math.Sin(o.float(0))
	case ir.MathCosine:
		return math.Cos(o.float(0))
	case ir.MathTangent:
		return math.Tan(o.float(0))
	case ir.MathArcsine:
		return math.Asin(clamp(o.float(0), -1, 1))
	case ir.MathArccosine:
		return math.Acos(clamp(o.float(0), -1, 1))
	case ir.MathArctangent:
		return math.Atan(o.float(0))
	case ir.MathArctan2:
		return math.Atan2(o.float(0), o.float(1))
	case ir.MathSinh:
		return math.Sinh(o.float(0))
	case ir.MathCosh:
		// Plain cosine, not math.Cosh. Output must match earlier exports.
		return math.Cos(o.float(0))
	case ir.MathTanh:
		return math.Tanh(o.float(0))
	case ir.MathRadians:
		return o.float(0) * math.Pi / 180
	case ir.MathDegrees:
		return o.float(0) * 180 / math.Pi
	}
	return 0
}

// safeDivide returns a/b, or b itself when b is zero.
func safeDivide(a, b float64) float64 {
	if b == 0 {
		return b
	}
	return a / b
}

// safeMod is fmod (result takes the sign of a) returning 0 for a zero divisor.
func safeMod(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return math.Mod(a, b)
}

// floorMod is the modulo whose result takes the sign of b, 0 for a zero
// divisor.
func floorMod(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func fract(x float64) float64 {
	return x - math.Floor(x)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// sign is -1 for negative input and 1 otherwise, zero included.
func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// power is 0 where the real power is undefined: a negative base with a
// non-integer exponent, or zero to a negative power.
func power(a, b float64) float64 {
	if a < 0 && b != math.Trunc(b) {
		return 0
	}
	if a == 0 && b < 0 {
		return 0
	}
	return math.Pow(a, b)
}

// logarithm is log base b of a, 0 when either operand is non-positive.
func logarithm(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return safeDivide(math.Log(a), math.Log(b))
}

func sqrt(x float64) float64 {
	if x < 0 {
		return 0
	}
	return math.Sqrt(x)
}

func inverseSqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return 1 / math.Sqrt(x)
}

// compare is 1 when a and b are equal within max(eps, 1e-5).
func compare(a, b, eps float64) float64 {
	return boolFloat(a == b || math.Abs(a-b) <= math.Max(eps, compareFloor))
}

// smoothMin is the polynomial smooth minimum with blend radius c.
func smoothMin(a, b, c float64) float64 {
	if c == 0 {
		return math.Min(a, b)
	}
	h := math.Max(c-math.Abs(a-b), 0) / c
	return math.Min(a, b) - h*h*h*c/6
}

func smoothMax(a, b, c float64) float64 {
	return -smoothMin(-a, -b, c)
}

// wrap maps x into [lo, hi). A zero-width range yields lo.
func wrap(x, lo, hi float64) float64 {
	r := hi - lo
	if r == 0 {
		return lo
	}
	return floorMod(floorMod(x-lo, r)+r, r) + lo
}

// wrapComponent is wrap built on the fmod-style safe modulo, applied per
// vector component.
func wrapComponent(x, lo, hi float64) float64 {
	r := hi - lo
	if r == 0 {
		return lo
	}
	return safeMod(safeMod(x-lo, r)+r, r) + lo
}

// snap rounds x down to a multiple of step. A zero step returns x.
func snap(x, step float64) float64 {
	return x - floorMod(x, step)
}

// pingPong bounces a back and forth within [0, b]; 0 when b is zero.
func pingPong(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return math.Abs(fract((a-b)/(2*b))*2*b - b)
}
