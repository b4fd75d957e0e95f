package nodetree

import (
	"errors"
	"fmt"

	"github.com/chazu/shadevol/pkg/colorramp"
)

// MaterialOutputName is the name the editor gives the material output node.
const MaterialOutputName = "Material Output"

var (
	// ErrDuplicateName is returned when two nodes in one tree share a name.
	ErrDuplicateName = errors.New("nodetree: duplicate node name")
	// ErrNoSocket is returned when a link names a socket the node lacks.
	ErrNoSocket = errors.New("nodetree: no such socket")
)

// Socket is a single input or output slot of a node.
type Socket struct {
	Name string `json:"name"`
	// Default is the unlinked value: one component for numeric sockets,
	// three for vectors, four for colours, nil for shader sockets.
	Default []float64 `json:"default,omitempty"`
	// Link is the incoming connection of an input socket, nil if unlinked.
	Link *Link `json:"-"`
}

// Linked reports whether the socket has an incoming link.
func (s *Socket) Linked() bool {
	return s.Link != nil
}

// Link connects an output socket of one node to an input socket.
type Link struct {
	From   *Node
	Socket *Socket // one of From.Outputs
}

// Node is one node of the shader tree.
type Node struct {
	Name          string          `json:"name"`
	Type          string          `json:"type"`                    // e.g. "MATH", "VECT_MATH"
	Operation     string          `json:"operation,omitempty"`     // e.g. "ADD"
	Interpolation string          `json:"interpolation,omitempty"` // map range variant
	Inputs        []*Socket       `json:"inputs"`
	Outputs       []*Socket       `json:"outputs"`
	Ramp          *colorramp.Ramp `json:"-"` // colour ramp nodes only
}

// Input returns the first input socket with the given name, or nil.
func (n *Node) Input(name string) *Socket {
	for _, s := range n.Inputs {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Output returns the first output socket with the given name, or nil.
func (n *Node) Output(name string) *Socket {
	for _, s := range n.Outputs {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// OutputIndex returns the positional index of s among the node's outputs,
// or -1 if s does not belong to the node.
func (n *Node) OutputIndex(s *Socket) int {
	for i, o := range n.Outputs {
		if o == s {
			return i
		}
	}
	return -1
}

// Tree is a shader node tree.
type Tree struct {
	Nodes  []*Node
	byName map[string]*Node
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{byName: make(map[string]*Node)}
}

// Add appends a node to the tree. Names must be unique.
func (t *Tree) Add(n *Node) error {
	if _, exists := t.byName[n.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, n.Name)
	}
	t.Nodes = append(t.Nodes, n)
	t.byName[n.Name] = n
	return nil
}

// Lookup returns the node with the given name, or nil.
func (t *Tree) Lookup(name string) *Node {
	return t.byName[name]
}

// NodeCount returns the number of nodes in the tree.
func (t *Tree) NodeCount() int {
	return len(t.Nodes)
}

// MaterialOutput returns the node named "Material Output", falling back to
// the first OUTPUT_MATERIAL node. It returns nil if the tree has neither.
func (t *Tree) MaterialOutput() *Node {
	if n := t.byName[MaterialOutputName]; n != nil {
		return n
	}
	for _, n := range t.Nodes {
		if n.Type == TypeOutputMaterial {
			return n
		}
	}
	return nil
}

// Connect links output socket `output` of from to input socket `input` of
// to, replacing any existing link on that input.
func Connect(from *Node, output int, to *Node, input int) error {
	if output < 0 || output >= len(from.Outputs) {
		return fmt.Errorf("%w: node %q has no output %d", ErrNoSocket, from.Name, output)
	}
	if input < 0 || input >= len(to.Inputs) {
		return fmt.Errorf("%w: node %q has no input %d", ErrNoSocket, to.Name, input)
	}
	to.Inputs[input].Link = &Link{From: from, Socket: from.Outputs[output]}
	return nil
}

// ConnectNamed is Connect with sockets addressed by name.
func ConnectNamed(from *Node, output string, to *Node, input string) error {
	out := from.Output(output)
	if out == nil {
		return fmt.Errorf("%w: node %q has no output %q", ErrNoSocket, from.Name, output)
	}
	in := to.Input(input)
	if in == nil {
		return fmt.Errorf("%w: node %q has no input %q", ErrNoSocket, to.Name, input)
	}
	in.Link = &Link{From: from, Socket: out}
	return nil
}
