package ops

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/chazu/shadevol/pkg/ir"
)

// separate splits a vector or colour into its first three components.
func separate(v ir.Value) ir.Channels {
	c := v.Vec()
	return ir.Channels{ir.Scalar(c.X), ir.Scalar(c.Y), ir.Scalar(c.Z)}
}

// separateHSV converts the RGB part of a colour to hue, saturation and
// value, all in [0, 1]. Alpha is dropped.
func separateHSV(v ir.Value) ir.Channels {
	c := v.Vec()
	h, s, val := colorful.Color{R: c.X, G: c.Y, B: c.Z}.Hsv()
	// A hue a hair below 0 comes back as exactly 360.
	if h >= 360 {
		h = 0
	}
	return ir.Channels{ir.Scalar(h / 360), ir.Scalar(s), ir.Scalar(val)}
}

// combineHSV builds an opaque colour from hue, saturation and value. Hue
// wraps around the unit interval.
func combineHSV(h, s, v float64) ir.Value {
	hp := fract(h) * 360
	// fract of a tiny negative hue rounds up to 1; colorful has no sector
	// for 360.
	if hp >= 360 {
		hp = 0
	}
	c := colorful.Hsv(hp, s, v)
	return ir.Color(c.R, c.G, c.B, 1)
}

// colorRamp looks t up in the ramp and returns the RGB triple and the alpha
// as separate channels.
func colorRamp(r ir.Ramp, t float64) ir.Channels {
	c := r.Evaluate(t)
	return ir.Channels{ir.Vector(c[0], c[1], c[2]), ir.Scalar(c[3])}
}

// texCoord mirrors the texture coordinate node: the generated coordinate
// mapped into the unit cube, two unused sockets, and the object coordinate.
func texCoord(co ir.Coord) ir.Channels {
	return ir.Channels{
		ir.Vector((co[0]+1)*0.5, (co[1]+1)*0.5, (co[2]+1)*0.5),
		ir.Scalar(0),
		ir.Scalar(0),
		ir.Vector(co[0], co[1], co[2]),
	}
}
