package ops

import (
	"math"

	"github.com/chazu/shadevol/pkg/ir"
)

// mapRange evaluates a MAP_RANGE node. Inputs are value, from min, from
// max, to min, to max and, for the stepped variant, the step count.
func mapRange(o *operands, k ir.Kind) float64 {
	v, fromMin, fromMax := o.float(0), o.float(1), o.float(2)
	toMin, toMax := o.float(3), o.float(4)

	var f float64
	switch k {
	case ir.MapRangeLinear:
		f = safeDivide(v-fromMin, fromMax-fromMin)
	case ir.MapRangeStepped:
		f = stepped(safeDivide(v-fromMin, fromMax-fromMin), o.float(5))
	case ir.MapRangeSmoothstep:
		f = eased(smoothstep, v, fromMin, fromMax)
	case ir.MapRangeSmootherstep:
		f = eased(smootherstep, v, fromMin, fromMax)
	}
	return toMin + f*(toMax-toMin)
}

// stepped quantizes factor f; a non-positive step count yields 0.
func stepped(f, steps float64) float64 {
	if steps <= 0 {
		return 0
	}
	return math.Floor(f*(steps+1)) / steps
}

// eased applies an easing curve over [fromMin, fromMax]. A swapped range
// runs the curve backwards instead of dividing by a negative width.
func eased(curve func(e0, e1, x float64) float64, v, fromMin, fromMax float64) float64 {
	if fromMin > fromMax {
		return 1 - curve(fromMax, fromMin, v)
	}
	return curve(fromMin, fromMax, v)
}

func smoothstep(e0, e1, x float64) float64 {
	t := clamp(safeDivide(x-e0, e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

func smootherstep(e0, e1, x float64) float64 {
	t := clamp(safeDivide(x-e0, e1-e0), 0, 1)
	return t * t * t * (t*(t*6-15) + 10)
}
