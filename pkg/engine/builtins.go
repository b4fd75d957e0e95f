package engine

import (
	"fmt"
	"sort"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/shadevol/pkg/colorramp"
	"github.com/chazu/shadevol/pkg/ir"
	"github.com/chazu/shadevol/pkg/nodetree"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms node tree Lisp source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: map-range -> map_range
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNode wraps a tree node so it can be linked by later builtins. Used
// directly as an input it stands for the node's first output.
type sexpNode struct {
	node *nodetree.Node
}

func (n *sexpNode) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(node %q %s)", n.node.Name, n.node.Type)
}
func (n *sexpNode) Type() *zygo.RegisteredType { return nil }

// sexpOutput names one output socket of a node, as returned by `out`.
type sexpOutput struct {
	node  *nodetree.Node
	index int
}

func (o *sexpOutput) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(out %q %q)", o.node.Name, o.node.Outputs[o.index].Name)
}
func (o *sexpOutput) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a vector default.
type sexpVec3 struct {
	vec [3]float64
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpColor wraps an RGBA colour default.
type sexpColor struct {
	rgba [4]float64
}

func (c *sexpColor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rgba %g %g %g %g)", c.rgba[0], c.rgba[1], c.rgba[2], c.rgba[3])
}
func (c *sexpColor) Type() *zygo.RegisteredType { return nil }

// sexpStop wraps one colour ramp stop.
type sexpStop struct {
	stop colorramp.Stop
}

func (s *sexpStop) SexpString(ps *zygo.PrintState) string {
	c := s.stop.Color
	return fmt.Sprintf("(stop %g (rgba %g %g %g %g))", s.stop.Position, c[0], c[1], c[2], c[3])
}
func (s *sexpStop) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value is a flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toName returns s as a node name when it is a plain string, not a
// preprocessed keyword.
func toName(s zygo.Sexp) (string, bool) {
	if _, kw := isKW(s); kw {
		return "", false
	}
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	return str.S, true
}

// toNode extracts the node behind a sexpNode or sexpOutput.
func toNode(s zygo.Sexp) (*nodetree.Node, error) {
	switch v := s.(type) {
	case *sexpNode:
		return v.node, nil
	case *sexpOutput:
		return v.node, nil
	}
	return nil, fmt.Errorf("expected node, got %T (%s)", s, s.SexpString(nil))
}

// toStop extracts a colour ramp stop.
func toStop(s zygo.Sexp) (colorramp.Stop, error) {
	if st, ok := s.(*sexpStop); ok {
		return st.stop, nil
	}
	return colorramp.Stop{}, fmt.Errorf("expected stop, got %T (%s)", s, s.SexpString(nil))
}

// socketKey is the keyword form of a socket name: "From Min" -> "from-min".
func socketKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

// numbers extracts n numeric arguments.
func numbers(fn string, args []zygo.Sexp, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s requires exactly %d arguments, got %d", fn, n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", fn, i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Node construction
// ---------------------------------------------------------------------------

// nodeBuiltins maps DSL function names to node types. The names use
// underscores since preprocessSource rewrites kebab-case identifiers.
var nodeBuiltins = map[string]string{
	"math":              nodetree.TypeMath,
	"vect_math":         nodetree.TypeVectorMath,
	"map_range":         nodetree.TypeMapRange,
	"clamp":             nodetree.TypeClamp,
	"separate_xyz":      nodetree.TypeSeparateXYZ,
	"combine_xyz":       nodetree.TypeCombineXYZ,
	"separate_rgb":      nodetree.TypeSeparateRGB,
	"combine_rgb":       nodetree.TypeCombineRGB,
	"separate_hsv":      nodetree.TypeSeparateHSV,
	"combine_hsv":       nodetree.TypeCombineHSV,
	"tex_coord":         nodetree.TypeTextureCoordinate,
	"value":             nodetree.TypeValue,
	"rgb":               nodetree.TypeRGB,
	"reroute":           nodetree.TypeReroute,
	"principled_volume": nodetree.TypePrincipledVolume,
	"volume_absorption": nodetree.TypeVolumeAbsorption,
	"volume_scatter":    nodetree.TypeVolumeScatter,
	"material_output":   nodetree.TypeOutputMaterial,
}

// builder accumulates nodes into a tree during one evaluation.
type builder struct {
	tree  *nodetree.Tree
	count map[string]int
}

// typeLabel turns a node type into the base of generated names:
// VECT_MATH -> "Vect Math".
func typeLabel(typ string) string {
	if typ == nodetree.TypeOutputMaterial {
		return nodetree.MaterialOutputName
	}
	words := strings.Split(strings.ToLower(typ), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// autoName returns the next free name for an unnamed node of typ, in the
// editor's "Math", "Math.001", ... style.
func (b *builder) autoName(typ string) string {
	base := typeLabel(typ)
	for {
		n := b.count[base]
		b.count[base]++
		name := base
		if n > 0 {
			name = fmt.Sprintf("%s.%03d", base, n)
		}
		if b.tree.Lookup(name) == nil {
			return name
		}
	}
}

// define creates a node of typ from builtin arguments and adds it to the
// tree. An optional leading string names the node; :op and :interp pick
// the variant; further positional arguments fill inputs in order and
// keywords fill inputs by name. Keywords in reserved are left to the
// caller. VALUE and RGB nodes take their payload instead of inputs.
func (b *builder) define(fn, typ string, args []zygo.Sexp, reserved ...string) (*nodetree.Node, kwArgs, error) {
	pa := parseArgs(args)
	skip := map[string]bool{"op": true, "interp": true}
	for _, r := range reserved {
		skip[r] = true
	}

	name := ""
	if len(pa.positional) > 0 {
		if s, ok := toName(pa.positional[0]); ok {
			name = s
			pa.positional = pa.positional[1:]
		}
	}

	var op, interp string
	for key, dst := range map[string]*string{"op": &op, "interp": &interp} {
		v, ok := pa.kw[key]
		if !ok || contains(reserved, key) {
			continue
		}
		s, err := toKeywordString(v)
		if err != nil {
			return nil, pa, fmt.Errorf("%s: %s: %w", fn, key, err)
		}
		*dst = strings.ReplaceAll(s, "-", "_")
	}

	if name == "" {
		name = b.autoName(typ)
	}
	n, err := nodetree.NewNode(name, typ, op, interp)
	if err != nil {
		return nil, pa, fmt.Errorf("%s: %w", fn, err)
	}
	if op != "" && n.Operation == "" {
		return nil, pa, fmt.Errorf("%s: %s nodes take no :op", fn, n.Type)
	}
	if interp != "" && n.Interpolation == "" {
		return nil, pa, fmt.Errorf("%s: %s nodes take no :interp", fn, n.Type)
	}
	if n.Operation != "" || n.Interpolation != "" {
		if _, ok := ir.ParseKind(n.Type + n.Operation + n.Interpolation); !ok {
			return nil, pa, fmt.Errorf("%s: unsupported variant %q", fn, n.Operation+n.Interpolation)
		}
	}

	targets, constant := n.Inputs, false
	if n.Type == nodetree.TypeValue || n.Type == nodetree.TypeRGB {
		targets, constant = n.Outputs, true
	}
	if len(pa.positional) > len(targets) {
		return nil, pa, fmt.Errorf("%s: %d arguments for %d inputs", fn, len(pa.positional), len(targets))
	}
	for i, v := range pa.positional {
		if err := setSocket(targets[i], v, !constant); err != nil {
			return nil, pa, fmt.Errorf("%s: input %d: %w", fn, i, err)
		}
	}

	keys := make([]string, 0, len(pa.kw))
	for k := range pa.kw {
		if !skip[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		s := findSocket(targets, k)
		if s == nil {
			return nil, pa, fmt.Errorf("%s: %s has no input %q", fn, n.Type, k)
		}
		if err := setSocket(s, pa.kw[k], !constant); err != nil {
			return nil, pa, fmt.Errorf("%s: %s: %w", fn, k, err)
		}
	}

	if err := b.tree.Add(n); err != nil {
		return nil, pa, fmt.Errorf("%s: %w", fn, err)
	}
	return n, pa, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// findSocket returns the first socket whose name or keyword form is key.
func findSocket(sockets []*nodetree.Socket, key string) *nodetree.Socket {
	for _, s := range sockets {
		if s.Name == key || socketKey(s.Name) == key {
			return s
		}
	}
	return nil
}

// setSocket links s to a node output or overwrites its default. A plain
// number fills every component but alpha.
func setSocket(s *nodetree.Socket, v zygo.Sexp, allowLink bool) error {
	switch x := v.(type) {
	case *sexpNode:
		if !allowLink {
			return fmt.Errorf("%q must be a constant", s.Name)
		}
		return link(s, x.node, 0)
	case *sexpOutput:
		if !allowLink {
			return fmt.Errorf("%q must be a constant", s.Name)
		}
		return link(s, x.node, x.index)
	case *zygo.SexpInt, *zygo.SexpFloat:
		f, _ := toFloat64(v)
		if len(s.Default) == 0 {
			return fmt.Errorf("%q only takes a link", s.Name)
		}
		for i := range s.Default {
			if i < 3 {
				s.Default[i] = f
			}
		}
		return nil
	case *sexpVec3:
		switch len(s.Default) {
		case 0:
			return fmt.Errorf("%q only takes a link", s.Name)
		case 1:
			return fmt.Errorf("%q is a scalar, got %s", s.Name, x.SexpString(nil))
		}
		copy(s.Default, x.vec[:])
		return nil
	case *sexpColor:
		switch len(s.Default) {
		case 0:
			return fmt.Errorf("%q only takes a link", s.Name)
		case 1:
			return fmt.Errorf("%q is a scalar, got %s", s.Name, x.SexpString(nil))
		}
		copy(s.Default, x.rgba[:])
		return nil
	}
	return fmt.Errorf("%q: expected number, vec3, rgba or node, got %T (%s)", s.Name, v, v.SexpString(nil))
}

func link(s *nodetree.Socket, from *nodetree.Node, output int) error {
	if output < 0 || output >= len(from.Outputs) {
		return fmt.Errorf("node %q has no output %d", from.Name, output)
	}
	s.Link = &nodetree.Link{From: from, Socket: from.Outputs[output]}
	return nil
}

// outputIndex resolves an output selector: an index, a socket name or its
// keyword form.
func outputIndex(n *nodetree.Node, sel zygo.Sexp) (int, error) {
	if i, ok := sel.(*zygo.SexpInt); ok {
		if i.Val < 0 || int(i.Val) >= len(n.Outputs) {
			return 0, fmt.Errorf("node %q has no output %d", n.Name, i.Val)
		}
		return int(i.Val), nil
	}
	key, err := toKeywordString(sel)
	if err != nil {
		return 0, err
	}
	for i, o := range n.Outputs {
		if o.Name == key || socketKey(o.Name) == key {
			return i, nil
		}
	}
	return 0, fmt.Errorf("node %q has no output %q", n.Name, key)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the node tree DSL builtins into a zygomys
// environment. The builtins add nodes to t during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, t *nodetree.Tree) {
	b := &builder{tree: t, count: make(map[string]int)}

	// -----------------------------------------------------------------------
	// (math "Falloff" :op :subtract 1.0 (out len "Value"))
	// (principled-volume :density falloff)
	// -----------------------------------------------------------------------
	for fn, typ := range nodeBuiltins {
		fn, typ := fn, typ
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			n, _, err := b.define(strings.ReplaceAll(fn, "_", "-"), typ, args)
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpNode{node: n}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (node "MATH" "name" :op :add ...) for any catalogued type
	// -----------------------------------------------------------------------
	env.AddFunction("node", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("node requires a type argument")
		}
		typ, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node: type: %w", err)
		}
		n, _, err := b.define("node", strings.ToUpper(typ), args[1:])
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpNode{node: n}, nil
	})

	// -----------------------------------------------------------------------
	// (color-ramp "Ramp" fac :interp :ease :stops (list (stop 0 (rgba 0 0 0 1)) ...))
	// -----------------------------------------------------------------------
	env.AddFunction("color_ramp", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		n, pa, err := b.define("color-ramp", nodetree.TypeColorRamp, args, "interp", "stops")
		if err != nil {
			return zygo.SexpNull, err
		}

		interp := colorramp.Linear
		if v, ok := pa.kw["interp"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("color-ramp: interp: %w", err)
			}
			if interp, err = colorramp.ParseInterpolation(s); err != nil {
				return zygo.SexpNull, fmt.Errorf("color-ramp: %w", err)
			}
		}
		stops := n.Ramp.Stops()
		if v, ok := pa.kw["stops"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("color-ramp: stops: %w", err)
			}
			stops = stops[:0]
			for _, item := range items {
				st, err := toStop(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("color-ramp: stop entry: %w", err)
				}
				stops = append(stops, st)
			}
		}
		ramp, err := colorramp.New(interp, stops...)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("color-ramp: %w", err)
		}
		n.Ramp = ramp
		return &sexpNode{node: n}, nil
	})

	// -----------------------------------------------------------------------
	// (out node), (out node "Object"), (out node :object), (out node 3)
	// -----------------------------------------------------------------------
	env.AddFunction("out", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 || len(args) > 2 {
			return zygo.SexpNull, fmt.Errorf("out requires a node and an optional output, got %d arguments", len(args))
		}
		n, err := toNode(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("out: %w", err)
		}
		idx := 0
		if len(args) == 2 {
			if idx, err = outputIndex(n, args[1]); err != nil {
				return zygo.SexpNull, fmt.Errorf("out: %w", err)
			}
		}
		if idx >= len(n.Outputs) {
			return zygo.SexpNull, fmt.Errorf("out: node %q has no outputs", n.Name)
		}
		return &sexpOutput{node: n, index: idx}, nil
	})

	// -----------------------------------------------------------------------
	// (connect (out a "Value") b :density)
	// -----------------------------------------------------------------------
	env.AddFunction("connect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("connect requires a source, a target node and an input, got %d arguments", len(args))
		}
		to, err := toNode(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("connect: target: %w", err)
		}
		var in *nodetree.Socket
		if i, ok := args[2].(*zygo.SexpInt); ok {
			if i.Val < 0 || int(i.Val) >= len(to.Inputs) {
				return zygo.SexpNull, fmt.Errorf("connect: node %q has no input %d", to.Name, i.Val)
			}
			in = to.Inputs[i.Val]
		} else {
			key, err := toKeywordString(args[2])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("connect: input: %w", err)
			}
			if in = findSocket(to.Inputs, key); in == nil {
				return zygo.SexpNull, fmt.Errorf("connect: node %q has no input %q", to.Name, key)
			}
		}
		if _, err := toNode(args[0]); err != nil {
			return zygo.SexpNull, fmt.Errorf("connect: source: %w", err)
		}
		if err := setSocket(in, args[0], true); err != nil {
			return zygo.SexpNull, fmt.Errorf("connect: %w", err)
		}
		return &sexpNode{node: to}, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := numbers("vec3", args, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpVec3{vec: [3]float64{v[0], v[1], v[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (rgba 1 0.5 0 1), alpha defaults to 1: (rgba 1 0.5 0)
	// -----------------------------------------------------------------------
	env.AddFunction("rgba", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 3 {
			args = append(args[:3:3], &zygo.SexpFloat{Val: 1})
		}
		v, err := numbers("rgba", args, 4)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpColor{rgba: [4]float64{v[0], v[1], v[2], v[3]}}, nil
	})

	// -----------------------------------------------------------------------
	// (stop 0.5 (rgba 1 0 0 1))
	// -----------------------------------------------------------------------
	env.AddFunction("stop", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("stop requires a position and a colour, got %d arguments", len(args))
		}
		pos, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("stop: position: %w", err)
		}
		c, ok := args[1].(*sexpColor)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("stop: expected rgba, got %T (%s)", args[1], args[1].SexpString(nil))
		}
		return &sexpStop{stop: colorramp.Stop{Position: pos, Color: c.rgba}}, nil
	})
}
