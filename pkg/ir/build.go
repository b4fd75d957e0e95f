package ir

import (
	"fmt"

	"github.com/chazu/shadevol/pkg/nodetree"
)

// Build snapshots the subtree feeding root into a Graph. root is normally
// the density input of a volume shader. An unlinked root yields a graph
// with no nodes and a literal root.
//
// Every source node is built once, no matter how many links reach it, and
// the source tree is never modified.
func Build(root *nodetree.Socket) (*Graph, error) {
	b := &builder{
		g:     &Graph{},
		index: make(map[*nodetree.Node]int),
		state: make(map[*nodetree.Node]visitState),
	}
	in, err := b.input(nil, root)
	if err != nil {
		return nil, err
	}
	b.g.Root = in
	return b.g, nil
}

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	done
)

type builder struct {
	g     *Graph
	index map[*nodetree.Node]int
	state map[*nodetree.Node]visitState
}

// input converts one socket of owner into an Input, descending into the
// linked node if there is one. owner is nil for the root socket.
func (b *builder) input(owner *nodetree.Node, s *nodetree.Socket) (Input, error) {
	if s.Link == nil {
		v, ok := FromSlice(s.Default)
		if !ok {
			return Input{}, fmt.Errorf("%s: input %q: %w", describe(owner), s.Name, ErrMissingDefault)
		}
		return Lit(v), nil
	}

	from := s.Link.From
	ch := from.OutputIndex(s.Link.Socket)
	if ch < 0 {
		return Input{}, fmt.Errorf("%s: input %q: %w", describe(owner), s.Name, ErrBadLink)
	}
	idx, err := b.node(from)
	if err != nil {
		return Input{}, err
	}
	return Link(idx, ch), nil
}

// node builds n after its inputs and returns its arena index.
func (b *builder) node(n *nodetree.Node) (int, error) {
	switch b.state[n] {
	case done:
		return b.index[n], nil
	case visiting:
		return 0, fmt.Errorf("node %q: %w", n.Name, ErrCyclicGraph)
	}
	b.state[n] = visiting

	id := n.Type + n.Operation + n.Interpolation
	kind, ok := ParseKind(id)
	if !ok {
		return 0, fmt.Errorf("node %q: %w: %s", n.Name, ErrUnsupportedOperation, id)
	}

	inputs := make([]Input, len(n.Inputs))
	for i, s := range n.Inputs {
		in, err := b.input(n, s)
		if err != nil {
			return 0, err
		}
		inputs[i] = in
	}

	out := b.g.Add(kind, inputs...)
	out.Name = n.Name

	switch kind {
	case ValueSource, RGBSource:
		if len(n.Outputs) == 0 {
			return 0, fmt.Errorf("node %q: payload: %w", n.Name, ErrMissingDefault)
		}
		v, ok := FromSlice(n.Outputs[0].Default)
		if !ok {
			return 0, fmt.Errorf("node %q: payload: %w", n.Name, ErrMissingDefault)
		}
		out.Value = v
	case ColorRamp:
		if n.Ramp == nil {
			return 0, fmt.Errorf("node %q: colour ramp has no stops: %w", n.Name, ErrMissingDefault)
		}
		out.Ramp = n.Ramp
	}

	b.state[n] = done
	b.index[n] = out.Index
	return out.Index, nil
}

func describe(n *nodetree.Node) string {
	if n == nil {
		return "root"
	}
	return fmt.Sprintf("node %q", n.Name)
}
