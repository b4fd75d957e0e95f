package ir

import "fmt"

// Kind identifies the operation a node performs. Its string form is the
// editor node type concatenated with the node's operation or interpolation
// variant, e.g. "MATHADD" or "MAP_RANGESMOOTHSTEP".
type Kind uint8

const (
	KindInvalid Kind = iota

	// Scalar math.
	MathAdd
	MathSubtract
	MathMultiply
	MathDivide
	MathMultiplyAdd
	MathPower
	MathLogarithm
	MathSqrt
	MathInverseSqrt
	MathAbsolute
	MathExponent
	MathMinimum
	MathMaximum
	MathLessThan
	MathGreaterThan
	MathSign
	MathCompare
	MathSmoothMin
	MathSmoothMax
	MathRound
	MathFloor
	MathCeil
	MathTrunc
	MathFract
	MathModulo
	MathWrap
	MathSnap
	MathPingPong
	MathSine
	MathCosine
	MathTangent
	MathArcsine
	MathArccosine
	MathArctangent
	MathArctan2
	MathSinh
	MathCosh
	MathTanh
	MathRadians
	MathDegrees

	// Vector math.
	VectorAdd
	VectorSubtract
	VectorMultiply
	VectorDivide
	VectorCross
	VectorProject
	VectorReflect
	VectorDot
	VectorDistance
	VectorLength
	VectorScale
	VectorNormalize
	VectorAbsolute
	VectorMinimum
	VectorMaximum
	VectorFloor
	VectorCeil
	VectorFraction
	VectorModulo
	VectorWrap
	VectorSnap
	VectorSine
	VectorCosine
	VectorTangent

	// Map range.
	MapRangeLinear
	MapRangeStepped
	MapRangeSmoothstep
	MapRangeSmootherstep

	// Converters, sources and utilities.
	SeparateXYZ
	CombineXYZ
	SeparateRGB
	CombineRGB
	SeparateHSV
	CombineHSV
	Clamp
	ColorRamp
	TexCoord
	ValueSource
	RGBSource
	Reroute

	numKinds
)

var kindNames = [numKinds]string{
	KindInvalid: "INVALID",

	MathAdd:         "MATHADD",
	MathSubtract:    "MATHSUBTRACT",
	MathMultiply:    "MATHMULTIPLY",
	MathDivide:      "MATHDIVIDE",
	MathMultiplyAdd: "MATHMULTIPLY_ADD",
	MathPower:       "MATHPOWER",
	MathLogarithm:   "MATHLOGARITHM",
	MathSqrt:        "MATHSQRT",
	MathInverseSqrt: "MATHINVERSE_SQRT",
	MathAbsolute:    "MATHABSOLUTE",
	MathExponent:    "MATHEXPONENT",
	MathMinimum:     "MATHMINIMUM",
	MathMaximum:     "MATHMAXIMUM",
	MathLessThan:    "MATHLESS_THAN",
	MathGreaterThan: "MATHGREATER_THAN",
	MathSign:        "MATHSIGN",
	MathCompare:     "MATHCOMPARE",
	MathSmoothMin:   "MATHSMOOTH_MIN",
	MathSmoothMax:   "MATHSMOOTH_MAX",
	MathRound:       "MATHROUND",
	MathFloor:       "MATHFLOOR",
	MathCeil:        "MATHCEIL",
	MathTrunc:       "MATHTRUNC",
	MathFract:       "MATHFRACT",
	MathModulo:      "MATHMODULO",
	MathWrap:        "MATHWRAP",
	MathSnap:        "MATHSNAP",
	MathPingPong:    "MATHPINGPONG",
	MathSine:        "MATHSINE",
	MathCosine:      "MATHCOSINE",
	MathTangent:     "MATHTANGENT",
	MathArcsine:     "MATHARCSINE",
	MathArccosine:   "MATHARCCOSINE",
	MathArctangent:  "MATHARCTANGENT",
	MathArctan2:     "MATHARCTAN2",
	MathSinh:        "MATHSINH",
	MathCosh:        "MATHCOSH",
	MathTanh:        "MATHTANH",
	MathRadians:     "MATHRADIANS",
	MathDegrees:     "MATHDEGREES",

	VectorAdd:       "VECT_MATHADD",
	VectorSubtract:  "VECT_MATHSUBTRACT",
	VectorMultiply:  "VECT_MATHMULTIPLY",
	VectorDivide:    "VECT_MATHDIVIDE",
	VectorCross:     "VECT_MATHCROSS_PRODUCT",
	VectorProject:   "VECT_MATHPROJECT",
	VectorReflect:   "VECT_MATHREFLECT",
	VectorDot:       "VECT_MATHDOT_PRODUCT",
	VectorDistance:  "VECT_MATHDISTANCE",
	VectorLength:    "VECT_MATHLENGTH",
	VectorScale:     "VECT_MATHSCALE",
	VectorNormalize: "VECT_MATHNORMALIZE",
	VectorAbsolute:  "VECT_MATHABSOLUTE",
	VectorMinimum:   "VECT_MATHMINIMUM",
	VectorMaximum:   "VECT_MATHMAXIMUM",
	VectorFloor:     "VECT_MATHFLOOR",
	VectorCeil:      "VECT_MATHCEIL",
	VectorFraction:  "VECT_MATHFRACTION",
	VectorModulo:    "VECT_MATHMODULO",
	VectorWrap:      "VECT_MATHWRAP",
	VectorSnap:      "VECT_MATHSNAP",
	VectorSine:      "VECT_MATHSINE",
	VectorCosine:    "VECT_MATHCOSINE",
	VectorTangent:   "VECT_MATHTANGENT",

	MapRangeLinear:       "MAP_RANGELINEAR",
	MapRangeStepped:      "MAP_RANGESTEPPED",
	MapRangeSmoothstep:   "MAP_RANGESMOOTHSTEP",
	MapRangeSmootherstep: "MAP_RANGESMOOTHERSTEP",

	SeparateXYZ: "SEPXYZ",
	CombineXYZ:  "COMBXYZ",
	SeparateRGB: "SEPRGB",
	CombineRGB:  "COMBRGB",
	SeparateHSV: "SEPHSV",
	CombineHSV:  "COMBHSV",
	Clamp:       "CLAMP",
	ColorRamp:   "VALTORGB",
	TexCoord:    "TEX_COORD",
	ValueSource: "VALUE",
	RGBSource:   "RGB",
	Reroute:     "REROUTE",
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, numKinds)
	for k := KindInvalid + 1; k < numKinds; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is a known, non-invalid kind.
func (k Kind) Valid() bool {
	return k > KindInvalid && k < numKinds
}

// ParseKind looks up a kind by its identifier.
func ParseKind(s string) (Kind, bool) {
	k, ok := kindByName[s]
	return k, ok
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, numKinds-1)
	for k := KindInvalid + 1; k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}
