// Package hclload reads shader node trees from HCL files.
//
// Each node is a block labelled with its type and name. Inputs are
// attributes of a nested inputs block: a number or tuple sets the
// socket default, a reference such as dist.value links an output.
//
//	node "TEX_COORD" "coords" {}
//
//	node "VECT_MATH" "dist" {
//	  operation = "LENGTH"
//	  inputs {
//	    vector = coords.object
//	  }
//	}
//
// Input and output attribute names are the socket names in lower case
// with spaces replaced by underscores. Repeated socket names get a
// numeric suffix: a MATH node has inputs value, value_2 and value_3.
package hclload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/chazu/shadevol/pkg/colorramp"
	"github.com/chazu/shadevol/pkg/ctxlog"
	"github.com/chazu/shadevol/pkg/nodetree"
)

// ErrInvalid is wrapped by every decode failure.
var ErrInvalid = errors.New("invalid node tree file")

type fileRoot struct {
	Nodes []*nodeBlock `hcl:"node,block"`
}

type nodeBlock struct {
	Type          string         `hcl:"type,label"`
	Name          string         `hcl:"name,label"`
	Operation     string         `hcl:"operation,optional"`
	Interpolation string         `hcl:"interpolation,optional"`
	Value         hcl.Expression `hcl:"value,optional"`
	Inputs        *inputsBlock   `hcl:"inputs,block"`
	Ramp          *rampBlock     `hcl:"ramp,block"`
	DefRange      hcl.Range      `hcl:",def_range"`
}

type inputsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

type rampBlock struct {
	Interpolation string       `hcl:"interpolation,optional"`
	Stops         []*stopBlock `hcl:"stop,block"`
}

type stopBlock struct {
	Position float64   `hcl:"position"`
	Color    []float64 `hcl:"color"`
}

// Load reads the node tree in the HCL file at path.
func Load(ctx context.Context, path string) (*nodetree.Tree, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading node tree: %w", err)
	}
	return Parse(ctx, src, path)
}

// Parse decodes a node tree from HCL source. filename is used in
// diagnostics only.
func Parse(ctx context.Context, src []byte, filename string) (*nodetree.Tree, error) {
	logger := ctxlog.FromContext(ctx)

	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, diags.Error())
	}
	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, diags.Error())
	}

	// Nodes are created first so links may refer to blocks further down.
	t := nodetree.New()
	for _, b := range root.Nodes {
		n, err := newNode(b)
		if err != nil {
			return nil, err
		}
		if err := t.Add(n); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, b.DefRange, err)
		}
	}
	for i, b := range root.Nodes {
		if err := setInputs(t, t.Nodes[i], b); err != nil {
			return nil, err
		}
	}

	logger.Debug("Loaded HCL node tree.", "file", filename, "nodes", t.NodeCount())
	return t, nil
}

func newNode(b *nodeBlock) (*nodetree.Node, error) {
	n, err := nodetree.NewNode(b.Name, b.Type, b.Operation, b.Interpolation)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, b.DefRange, err)
	}

	if b.Value != nil {
		val, diags := b.Value.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("%w: %s", ErrInvalid, diags.Error())
		}
		if !val.IsNull() {
			if n.Type != nodetree.TypeValue && n.Type != nodetree.TypeRGB {
				return nil, fmt.Errorf("%w: %s: %s nodes take no value", ErrInvalid, b.DefRange, n.Type)
			}
			vals, err := numbers(val)
			if err != nil || len(vals) != len(n.Outputs[0].Default) {
				return nil, fmt.Errorf("%w: %s: value needs %d numbers", ErrInvalid, b.Value.Range(), len(n.Outputs[0].Default))
			}
			n.Outputs[0].Default = vals
		}
	}

	if b.Ramp != nil {
		if n.Type != nodetree.TypeColorRamp {
			return nil, fmt.Errorf("%w: %s: %s nodes take no ramp", ErrInvalid, b.DefRange, n.Type)
		}
		ramp, err := decodeRamp(b.Ramp)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, b.DefRange, err)
		}
		n.Ramp = ramp
	}
	return n, nil
}

func decodeRamp(r *rampBlock) (*colorramp.Ramp, error) {
	interp, err := colorramp.ParseInterpolation(r.Interpolation)
	if err != nil {
		return nil, err
	}
	stops := make([]colorramp.Stop, 0, len(r.Stops))
	for _, s := range r.Stops {
		st := colorramp.Stop{Position: s.Position, Color: [4]float64{0, 0, 0, 1}}
		switch len(s.Color) {
		case 3, 4:
			copy(st.Color[:], s.Color)
		default:
			return nil, fmt.Errorf("stop color needs 3 or 4 components, got %d", len(s.Color))
		}
		stops = append(stops, st)
	}
	return colorramp.New(interp, stops...)
}

// socketIdents returns the attribute name of each socket.
func socketIdents(sockets []*nodetree.Socket) []string {
	seen := make(map[string]int)
	out := make([]string, len(sockets))
	for i, s := range sockets {
		id := strings.ReplaceAll(strings.ToLower(s.Name), " ", "_")
		seen[id]++
		if seen[id] > 1 {
			id = fmt.Sprintf("%s_%d", id, seen[id])
		}
		out[i] = id
	}
	return out
}

func setInputs(t *nodetree.Tree, n *nodetree.Node, b *nodeBlock) error {
	if b.Inputs == nil {
		return nil
	}
	attrs, diags := b.Inputs.Body.JustAttributes()
	if diags.HasErrors() {
		return fmt.Errorf("%w: %s", ErrInvalid, diags.Error())
	}
	ordered := make([]*hcl.Attribute, 0, len(attrs))
	for _, a := range attrs {
		ordered = append(ordered, a)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Range.Start.Byte < ordered[j].Range.Start.Byte
	})

	idents := socketIdents(n.Inputs)
	for _, a := range ordered {
		i := indexOf(idents, a.Name)
		if i < 0 {
			return fmt.Errorf("%w: %s: %s node %q has no input %q", ErrInvalid, a.NameRange, n.Type, n.Name, a.Name)
		}
		if err := setInput(t, n.Inputs[i], a); err != nil {
			return err
		}
	}
	return nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// setInput links the socket when the expression is a reference and sets
// its default otherwise.
func setInput(t *nodetree.Tree, s *nodetree.Socket, a *hcl.Attribute) error {
	if traversal, diags := hcl.AbsTraversalForExpr(a.Expr); !diags.HasErrors() {
		from, out, err := resolve(t, traversal)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, a.Expr.Range(), err)
		}
		s.Link = &nodetree.Link{From: from, Socket: from.Outputs[out]}
		return nil
	}

	val, diags := a.Expr.Value(nil)
	if diags.HasErrors() {
		return fmt.Errorf("%w: %s", ErrInvalid, diags.Error())
	}
	vals, err := numbers(val)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, a.Expr.Range(), err)
	}
	switch {
	case len(s.Default) == 0:
		return fmt.Errorf("%w: %s: input %q only takes a link", ErrInvalid, a.Expr.Range(), a.Name)
	case len(vals) == 1:
		for i := range s.Default {
			if i < 3 {
				s.Default[i] = vals[0]
			}
		}
	case len(vals) == len(s.Default), len(vals) == 3 && len(s.Default) == 4:
		copy(s.Default, vals)
	default:
		return fmt.Errorf("%w: %s: input %q takes %d components, got %d", ErrInvalid, a.Expr.Range(), a.Name, len(s.Default), len(vals))
	}
	return nil
}

// resolve maps node, node.output or node[index] to a node and output index.
func resolve(t *nodetree.Tree, traversal hcl.Traversal) (*nodetree.Node, int, error) {
	name := traversal.RootName()
	n := t.Lookup(name)
	if n == nil {
		return nil, 0, fmt.Errorf("no node named %q", name)
	}
	if len(n.Outputs) == 0 {
		return nil, 0, fmt.Errorf("node %q has no outputs", name)
	}
	switch len(traversal) {
	case 1:
		return n, 0, nil
	case 2:
	default:
		return nil, 0, fmt.Errorf("reference to %q is too deep", name)
	}

	switch step := traversal[1].(type) {
	case hcl.TraverseAttr:
		if i := indexOf(socketIdents(n.Outputs), step.Name); i >= 0 {
			return n, i, nil
		}
		return nil, 0, fmt.Errorf("node %q has no output %q", name, step.Name)
	case hcl.TraverseIndex:
		if step.Key.Type() == cty.Number {
			if bf := step.Key.AsBigFloat(); bf.IsInt() {
				i, _ := bf.Int64()
				if i >= 0 && int(i) < len(n.Outputs) {
					return n, int(i), nil
				}
			}
		}
		return nil, 0, fmt.Errorf("node %q has no output %s", name, step.Key.GoString())
	}
	return nil, 0, fmt.Errorf("unsupported reference to %q", name)
}

// numbers converts a number or a tuple or list of numbers.
func numbers(val cty.Value) ([]float64, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, fmt.Errorf("value must be known and not null")
	}
	ty := val.Type()
	if ty == cty.Number {
		f, _ := val.AsBigFloat().Float64()
		return []float64{f}, nil
	}
	if !ty.IsTupleType() && !ty.IsListType() {
		return nil, fmt.Errorf("expected a number or a list of numbers, got %s", ty.FriendlyName())
	}
	var out []float64
	for it := val.ElementIterator(); it.Next(); {
		_, el := it.Element()
		if el.IsNull() || !el.IsKnown() || el.Type() != cty.Number {
			return nil, fmt.Errorf("expected a list of numbers")
		}
		f, _ := el.AsBigFloat().Float64()
		out = append(out, f)
	}
	return out, nil
}
