package nodetree

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/shadevol/pkg/colorramp"
)

// Node type identifiers, as reported by the editor.
const (
	TypeOutputMaterial    = "OUTPUT_MATERIAL"
	TypePrincipledVolume  = "PRINCIPLED_VOLUME"
	TypeVolumeAbsorption  = "VOLUME_ABSORPTION"
	TypeVolumeScatter     = "VOLUME_SCATTER"
	TypeMath              = "MATH"
	TypeVectorMath        = "VECT_MATH"
	TypeMapRange          = "MAP_RANGE"
	TypeClamp             = "CLAMP"
	TypeSeparateXYZ       = "SEPXYZ"
	TypeCombineXYZ        = "COMBXYZ"
	TypeSeparateRGB       = "SEPRGB"
	TypeCombineRGB        = "COMBRGB"
	TypeSeparateHSV       = "SEPHSV"
	TypeCombineHSV        = "COMBHSV"
	TypeColorRamp         = "VALTORGB"
	TypeTextureCoordinate = "TEX_COORD"
	TypeValue             = "VALUE"
	TypeRGB               = "RGB"
	TypeReroute           = "REROUTE"
)

// DensityInput is the name of the density socket on volume shader nodes.
const DensityInput = "Density"

// ErrUnknownNodeType is returned by NewNode for types missing from the catalog.
var ErrUnknownNodeType = errors.New("nodetree: unknown node type")

// socketSpec is a catalog entry for one socket.
type socketSpec struct {
	name string
	def  []float64
}

// nodeSpec describes the socket layout and default variant of a node type.
type nodeSpec struct {
	inputs        []socketSpec
	outputs       []socketSpec
	operation     string // default operation, empty if the type has none
	interpolation string // default interpolation, empty if the type has none
}

func scalar(name string, v float64) socketSpec { return socketSpec{name, []float64{v}} }
func vector(name string, x, y, z float64) socketSpec {
	return socketSpec{name, []float64{x, y, z}}
}
func color(name string, r, g, b, a float64) socketSpec {
	return socketSpec{name, []float64{r, g, b, a}}
}
func shader(name string) socketSpec { return socketSpec{name: name} }

var grey = []float64{0.8, 0.8, 0.8, 1}

// catalog mirrors the socket layouts of the editor's node types. Output
// order matters: links record the positional index of their source socket.
var catalog = map[string]nodeSpec{
	TypeOutputMaterial: {
		inputs: []socketSpec{shader("Surface"), shader("Volume"), vector("Displacement", 0, 0, 0)},
	},
	TypePrincipledVolume: {
		inputs: []socketSpec{
			color("Color", 0.5, 0.5, 0.5, 1),
			scalar("Density", 1),
			scalar("Anisotropy", 0),
			color("Absorption Color", 0, 0, 0, 1),
			scalar("Emission Strength", 0),
			color("Emission Color", 1, 1, 1, 1),
			scalar("Blackbody Intensity", 0),
			color("Blackbody Tint", 1, 1, 1, 1),
			scalar("Temperature", 1000),
		},
		outputs: []socketSpec{shader("Volume")},
	},
	TypeVolumeAbsorption: {
		inputs:  []socketSpec{color("Color", 0.8, 0.8, 0.8, 1), scalar("Density", 1)},
		outputs: []socketSpec{shader("Volume")},
	},
	TypeVolumeScatter: {
		inputs:  []socketSpec{color("Color", 0.8, 0.8, 0.8, 1), scalar("Density", 1), scalar("Anisotropy", 0)},
		outputs: []socketSpec{shader("Volume")},
	},
	TypeMath: {
		inputs:    []socketSpec{scalar("Value", 0.5), scalar("Value", 0.5), scalar("Value", 0.5)},
		outputs:   []socketSpec{scalar("Value", 0)},
		operation: "ADD",
	},
	TypeVectorMath: {
		inputs: []socketSpec{
			vector("Vector", 0, 0, 0),
			vector("Vector", 0, 0, 0),
			vector("Vector", 0, 0, 0),
			scalar("Scale", 1),
		},
		outputs:   []socketSpec{vector("Vector", 0, 0, 0), scalar("Value", 0)},
		operation: "ADD",
	},
	TypeMapRange: {
		inputs: []socketSpec{
			scalar("Value", 1),
			scalar("From Min", 0),
			scalar("From Max", 1),
			scalar("To Min", 0),
			scalar("To Max", 1),
			scalar("Steps", 4),
		},
		outputs:       []socketSpec{scalar("Result", 0)},
		interpolation: "LINEAR",
	},
	TypeClamp: {
		inputs:  []socketSpec{scalar("Value", 1), scalar("Min", 0), scalar("Max", 1)},
		outputs: []socketSpec{scalar("Result", 0)},
	},
	TypeSeparateXYZ: {
		inputs:  []socketSpec{vector("Vector", 0, 0, 0)},
		outputs: []socketSpec{scalar("X", 0), scalar("Y", 0), scalar("Z", 0)},
	},
	TypeCombineXYZ: {
		inputs:  []socketSpec{scalar("X", 0), scalar("Y", 0), scalar("Z", 0)},
		outputs: []socketSpec{vector("Vector", 0, 0, 0)},
	},
	TypeSeparateRGB: {
		inputs:  []socketSpec{{"Image", grey}},
		outputs: []socketSpec{scalar("R", 0), scalar("G", 0), scalar("B", 0)},
	},
	TypeCombineRGB: {
		inputs:  []socketSpec{scalar("R", 0), scalar("G", 0), scalar("B", 0)},
		outputs: []socketSpec{color("Image", 0, 0, 0, 1)},
	},
	TypeSeparateHSV: {
		inputs:  []socketSpec{{"Color", grey}},
		outputs: []socketSpec{scalar("H", 0), scalar("S", 0), scalar("V", 0)},
	},
	TypeCombineHSV: {
		inputs:  []socketSpec{scalar("H", 0), scalar("S", 0), scalar("V", 0)},
		outputs: []socketSpec{color("Color", 0, 0, 0, 1)},
	},
	TypeColorRamp: {
		inputs:  []socketSpec{scalar("Fac", 0.5)},
		outputs: []socketSpec{color("Color", 0, 0, 0, 1), scalar("Alpha", 0)},
	},
	TypeTextureCoordinate: {
		outputs: []socketSpec{
			vector("Generated", 0, 0, 0),
			vector("Normal", 0, 0, 0),
			vector("UV", 0, 0, 0),
			vector("Object", 0, 0, 0),
			vector("Camera", 0, 0, 0),
			vector("Window", 0, 0, 0),
			vector("Reflection", 0, 0, 0),
		},
	},
	TypeValue: {
		outputs: []socketSpec{scalar("Value", 0.5)},
	},
	TypeRGB: {
		outputs: []socketSpec{color("Color", 0.5, 0.5, 0.5, 1)},
	},
	TypeReroute: {
		inputs:  []socketSpec{scalar("Input", 0)},
		outputs: []socketSpec{scalar("Output", 0)},
	},
}

// NewNode creates a node of the given type with the editor's socket layout
// and default values. Empty operation or interpolation pick the type's
// default; types without a variant ignore them. Colour ramp nodes get the
// default black-to-white ramp.
func NewNode(name, typ, operation, interpolation string) (*Node, error) {
	typ = strings.ToUpper(typ)
	spec, ok := catalog[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, typ)
	}

	n := &Node{
		Name:    name,
		Type:    typ,
		Inputs:  buildSockets(spec.inputs),
		Outputs: buildSockets(spec.outputs),
	}
	if spec.operation != "" {
		n.Operation = spec.operation
		if operation != "" {
			n.Operation = strings.ToUpper(operation)
		}
	}
	if spec.interpolation != "" {
		n.Interpolation = spec.interpolation
		if interpolation != "" {
			n.Interpolation = strings.ToUpper(interpolation)
		}
	}
	if typ == TypeColorRamp {
		n.Ramp = colorramp.Default()
	}
	return n, nil
}

func buildSockets(specs []socketSpec) []*Socket {
	sockets := make([]*Socket, len(specs))
	for i, s := range specs {
		var def []float64
		if s.def != nil {
			def = append([]float64(nil), s.def...)
		}
		sockets[i] = &Socket{Name: s.name, Default: def}
	}
	return sockets
}

// KnownTypes returns the catalogued node types in sorted order.
func KnownTypes() []string {
	types := make([]string, 0, len(catalog))
	for t := range catalog {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsVolumeShader reports whether typ is a volume shader with a density input.
func IsVolumeShader(typ string) bool {
	switch typ {
	case TypePrincipledVolume, TypeVolumeAbsorption, TypeVolumeScatter:
		return true
	}
	return false
}
