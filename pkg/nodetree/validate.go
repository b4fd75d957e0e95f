package nodetree

import "fmt"

// Severity indicates whether a validation finding blocks export or is
// merely informational.
type Severity int

const (
	SeverityError   Severity = iota // blocks export
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Finding describes a single validation finding.
type Finding struct {
	Node     string // offending node name, empty for tree-level findings
	Message  string
	Severity Severity
}

func (f Finding) Error() string {
	if f.Node == "" {
		return fmt.Sprintf("[%s] %s", f.Severity, f.Message)
	}
	return fmt.Sprintf("[%s] node %q: %s", f.Severity, f.Node, f.Message)
}

// Validate runs the structural checks on the tree and returns every
// finding. It is read-only.
func Validate(t *Tree) []Finding {
	var out []Finding
	out = append(out, validateLinks(t)...)
	out = append(out, validateAcyclic(t)...)
	out = append(out, validateOutput(t)...)
	out = append(out, validateReachable(t)...)
	return out
}

// HasErrors reports whether any finding has error severity.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// validateAcyclic checks for cycles using DFS with 3-colour marking.
// White = unvisited, gray = on the current path, black = fully explored.
// Reaching a gray node means the path has looped back on itself.
func validateAcyclic(t *Tree) []Finding {
	const (
		white = iota
		gray
		black
	)

	colour := make(map[*Node]int)
	var out []Finding

	var visit func(n *Node) bool
	visit = func(n *Node) bool {
		switch colour[n] {
		case black:
			return false
		case gray:
			out = append(out, Finding{
				Node:     n.Name,
				Message:  "cycle detected: node feeds back into itself",
				Severity: SeverityError,
			})
			return true
		}

		colour[n] = gray
		for _, in := range n.Inputs {
			if in.Link != nil && in.Link.From != nil {
				if visit(in.Link.From) {
					return true
				}
			}
		}
		colour[n] = black
		return false
	}

	for _, n := range t.Nodes {
		if colour[n] == white && visit(n) {
			// One cycle is enough to reject the tree.
			break
		}
	}
	return out
}

// validateLinks checks that every link points at a node in the tree and at
// an output socket that node owns.
func validateLinks(t *Tree) []Finding {
	members := make(map[*Node]bool, len(t.Nodes))
	for _, n := range t.Nodes {
		members[n] = true
	}

	var out []Finding
	for _, n := range t.Nodes {
		for _, in := range n.Inputs {
			if in.Link == nil {
				continue
			}
			from := in.Link.From
			switch {
			case from == nil:
				out = append(out, Finding{
					Node:     n.Name,
					Message:  fmt.Sprintf("input %q has a link without a source node", in.Name),
					Severity: SeverityError,
				})
			case !members[from]:
				out = append(out, Finding{
					Node:     n.Name,
					Message:  fmt.Sprintf("input %q is linked to node %q outside the tree", in.Name, from.Name),
					Severity: SeverityError,
				})
			case from.OutputIndex(in.Link.Socket) < 0:
				out = append(out, Finding{
					Node:     n.Name,
					Message:  fmt.Sprintf("input %q is linked to a socket node %q does not own", in.Name, from.Name),
					Severity: SeverityError,
				})
			}
		}
	}
	return out
}

// validateOutput checks that a material output exists and, if its volume
// input is linked, that it is fed by a volume shader.
func validateOutput(t *Tree) []Finding {
	out := t.MaterialOutput()
	if out == nil {
		return []Finding{{Message: "tree has no material output node", Severity: SeverityError}}
	}
	vol := out.Input("Volume")
	if vol == nil || vol.Link == nil {
		return []Finding{{
			Node:     out.Name,
			Message:  "volume input is not linked",
			Severity: SeverityError,
		}}
	}
	if src := vol.Link.From; src != nil && !IsVolumeShader(src.Type) {
		return []Finding{{
			Node:     out.Name,
			Message:  fmt.Sprintf("volume input is fed by %s node %q, not a volume shader", src.Type, src.Name),
			Severity: SeverityError,
		}}
	}
	return nil
}

// validateReachable warns about nodes that do not contribute to the
// material output.
func validateReachable(t *Tree) []Finding {
	root := t.MaterialOutput()
	if root == nil {
		return nil
	}

	reachable := map[*Node]bool{root: true}
	queue := []*Node{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, in := range n.Inputs {
			if in.Link == nil || in.Link.From == nil || reachable[in.Link.From] {
				continue
			}
			reachable[in.Link.From] = true
			queue = append(queue, in.Link.From)
		}
	}

	var out []Finding
	for _, n := range t.Nodes {
		if !reachable[n] {
			out = append(out, Finding{
				Node:     n.Name,
				Message:  "node does not feed the material output (orphan)",
				Severity: SeverityWarning,
			})
		}
	}
	return out
}
