// Package eval evaluates an IR graph at one coordinate at a time.
//
// An Evaluator memoizes node results in a Cache indexed by node index, so a
// node reached through several links runs its operation once per
// coordinate. The cache must be reset between coordinates; the sampler does
// this once per lattice cell.
package eval

import (
	"errors"
	"fmt"

	"github.com/chazu/shadevol/pkg/ir"
	"github.com/chazu/shadevol/pkg/ops"
)

var (
	// ErrChannelRange is returned when an input selects an output channel
	// the source operation did not produce.
	ErrChannelRange = errors.New("output channel out of range")
	// ErrDanglingLink is returned when an input links to a node index
	// outside the graph.
	ErrDanglingLink = errors.New("link to a node outside the graph")
)

// Cache holds the channel lists computed for one coordinate, indexed by
// node index. A nil entry means the node has not run yet.
type Cache struct {
	results []ir.Channels
}

// NewCache returns an empty cache for a graph of size nodes.
func NewCache(size int) *Cache {
	return &Cache{results: make([]ir.Channels, size)}
}

// Reset forgets every stored result.
func (c *Cache) Reset() {
	clear(c.results)
}

// Len returns the number of nodes with a stored result.
func (c *Cache) Len() int {
	n := 0
	for _, r := range c.results {
		if r != nil {
			n++
		}
	}
	return n
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithApply replaces the operation dispatch, typically to wrap ops.Apply
// with instrumentation.
func WithApply(f ops.Func) Option {
	return func(e *Evaluator) { e.apply = f }
}

// Evaluator evaluates the nodes of one graph. It is not safe for
// concurrent use; give each goroutine its own Evaluator.
type Evaluator struct {
	g     *ir.Graph
	cache *Cache
	apply ops.Func
	depth int
	calls uint64
}

// New creates an evaluator for g with an empty cache.
func New(g *ir.Graph, opts ...Option) *Evaluator {
	e := &Evaluator{
		g:     g,
		cache: NewCache(len(g.Nodes)),
		apply: ops.Apply,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reset clears the cache. Call it before moving to a new coordinate.
func (e *Evaluator) Reset() {
	e.cache.Reset()
}

// Calls returns the number of operation invocations so far.
func (e *Evaluator) Calls() uint64 {
	return e.calls
}

// Cache exposes the evaluator's cache.
func (e *Evaluator) Cache() *Cache {
	return e.cache
}

// Eval returns the output channels of n at co, running its operation only
// if the cache has no result for it yet.
func (e *Evaluator) Eval(n *ir.Node, co ir.Coord) (ir.Channels, error) {
	if out := e.cache.results[n.Index]; out != nil {
		return out, nil
	}

	// A path longer than the node count must revisit a node.
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > len(e.g.Nodes) {
		return nil, fmt.Errorf("node #%d %q: %w", n.Index, n.Name, ir.ErrCyclicGraph)
	}

	e.calls++
	out, err := e.apply(e, n, co)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("node #%d %q (%s) produced no channels: %w", n.Index, n.Name, n.Kind, ErrChannelRange)
	}
	e.cache.results[n.Index] = out
	return out, nil
}

// Input resolves the i-th input of n at co. It implements ops.Inputs.
func (e *Evaluator) Input(n *ir.Node, i int, co ir.Coord) (ir.Value, error) {
	return e.Resolve(n.Inputs[i], co)
}

// Resolve returns the value an input carries at co. Literals are returned
// unchanged.
func (e *Evaluator) Resolve(in ir.Input, co ir.Coord) (ir.Value, error) {
	if in.IsLiteral() {
		return in.Literal, nil
	}
	if in.Node >= len(e.g.Nodes) {
		return ir.Value{}, fmt.Errorf("input %s: %w", in, ErrDanglingLink)
	}
	src := e.g.Nodes[in.Node]
	out, err := e.Eval(src, co)
	if err != nil {
		return ir.Value{}, err
	}
	if in.Channel < 0 || in.Channel >= len(out) {
		return ir.Value{}, fmt.Errorf("node #%d %q (%s) has %d channels, input wants %d: %w",
			src.Index, src.Name, src.Kind, len(out), in.Channel, ErrChannelRange)
	}
	return out[in.Channel], nil
}

// Density evaluates the root node at co and returns the scalar view of
// its first output channel, whichever channel the root link names. A
// literal root is its own density.
func (e *Evaluator) Density(co ir.Coord) (float64, error) {
	root := e.g.Root
	if root.IsLiteral() {
		return root.Literal.Float(), nil
	}
	if root.Node >= len(e.g.Nodes) {
		return 0, fmt.Errorf("root %s: %w", root, ErrDanglingLink)
	}
	out, err := e.Eval(e.g.Nodes[root.Node], co)
	if err != nil {
		return 0, err
	}
	return out[0].Float(), nil
}
