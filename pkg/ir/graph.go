// Package ir defines the immutable intermediate graph the exporter evaluates.
// A Graph is an arena of nodes addressed by a small integer index; inputs
// refer to other nodes by index, never by pointer into the source tree, so
// the index doubles as the memoization key during evaluation.
package ir

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedOperation is returned for node kinds with no implementation.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrCyclicGraph is returned when a node is its own ancestor.
	ErrCyclicGraph = errors.New("cyclic graph")
	// ErrMissingDefault is returned for an unlinked input without a default value.
	ErrMissingDefault = errors.New("unlinked input has no default value")
	// ErrBadLink is returned when a link references a socket its source node
	// does not own.
	ErrBadLink = errors.New("link references a foreign socket")
)

// Ramp is an interpolation table mapping a factor to an RGBA colour.
type Ramp interface {
	Evaluate(t float64) [4]float64
}

// Input is one operand of a node: either a link to an output channel of
// another node in the same graph, or a literal.
type Input struct {
	Node    int // index into Graph.Nodes, -1 for a literal
	Channel int // output socket of Node feeding this input
	Literal Value
}

// Link returns an input fed by output channel ch of node idx.
func Link(idx, ch int) Input {
	return Input{Node: idx, Channel: ch}
}

// Lit returns a literal input.
func Lit(v Value) Input {
	return Input{Node: -1, Literal: v}
}

// IsLiteral reports whether the input is a literal.
func (in Input) IsLiteral() bool {
	return in.Node < 0
}

func (in Input) String() string {
	if in.IsLiteral() {
		return in.Literal.String()
	}
	return fmt.Sprintf("#%d[%d]", in.Node, in.Channel)
}

// Node is one operation of the graph.
type Node struct {
	Index  int
	Kind   Kind
	Name   string // name of the originating tree node, diagnostics only
	Inputs []Input
	Value  Value // payload of VALUE and RGB nodes
	Ramp   Ramp  // interpolation table of VALTORGB nodes
}

// Graph is an immutable arena of nodes plus the root input that supplies
// the density. A literal root means the density is constant.
type Graph struct {
	Nodes []*Node
	Root  Input
}

// Add appends a node of the given kind and returns it. Inputs must link to
// nodes already in the graph; this keeps the arena in topological order.
func (g *Graph) Add(kind Kind, inputs ...Input) *Node {
	n := &Node{Index: len(g.Nodes), Kind: kind, Inputs: inputs}
	g.Nodes = append(g.Nodes, n)
	return n
}

// Constant returns the literal root value and true when the density does
// not depend on any node.
func (g *Graph) Constant() (Value, bool) {
	if g.Root.IsLiteral() {
		return g.Root.Literal, true
	}
	return Value{}, false
}

// String renders the graph one node per line, for the inspect command.
func (g *Graph) String() string {
	var b strings.Builder
	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "#%d %s", n.Index, n.Kind)
		if n.Name != "" {
			fmt.Fprintf(&b, " %q", n.Name)
		}
		if n.Kind == ValueSource || n.Kind == RGBSource {
			fmt.Fprintf(&b, " = %s", n.Value)
		}
		for i, in := range n.Inputs {
			if i == 0 {
				b.WriteString(" <-")
			}
			b.WriteString(" " + in.String())
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "root %s\n", g.Root)
	return b.String()
}
