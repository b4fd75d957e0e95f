package engine

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/chazu/shadevol/pkg/colorramp"
	"github.com/chazu/shadevol/pkg/eval"
	"github.com/chazu/shadevol/pkg/ir"
	"github.com/chazu/shadevol/pkg/nodetree"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(math :op :add)`,
			expect: `(math "__kw_op" "__kw_add")`,
		},
		{
			name:   "multiple keywords",
			input:  `(clamp :min 0 :max 2)`,
			expect: `(clamp "__kw_min" 0 "__kw_max" 2)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(map-range :from-min lo)`,
			expect: `(map_range "__kw_from-min" lo)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(vec3 -1 0 -0.5)`,
			expect: `(vec3 -1 0 -0.5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:emission-strength`,
			expect: `"__kw_emission-strength"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestSocketKeyAndLabel(t *testing.T) {
	if got := socketKey("From Min"); got != "from-min" {
		t.Errorf("socketKey(From Min) = %q", got)
	}
	if got := typeLabel(nodetree.TypeVectorMath); got != "Vect Math" {
		t.Errorf("typeLabel(VECT_MATH) = %q", got)
	}
	if got := typeLabel(nodetree.TypeOutputMaterial); got != nodetree.MaterialOutputName {
		t.Errorf("typeLabel(OUTPUT_MATERIAL) = %q", got)
	}
}

// ---------------------------------------------------------------------------
// Node tree programs
// ---------------------------------------------------------------------------

// sphereSource is a density of 1 - |p| around the object origin.
const sphereSource = `
; unit sphere falloff
(def co (tex-coord))
(def dist (vect-math "Distance" :op :length (out co :object)))
(def falloff (math "Falloff" :op :subtract 1 (out dist "Value")))
(def vol (principled-volume :density falloff))
(material-output :volume vol)
`

func mustEvaluate(t *testing.T, source string) *nodetree.Tree {
	t.Helper()
	tree, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if tree == nil {
		t.Fatal("expected non-nil tree")
	}
	return tree
}

// describeTree renders nodes and links one per line for comparison.
func describeTree(tree *nodetree.Tree) []string {
	var out []string
	for _, n := range tree.Nodes {
		out = append(out, fmt.Sprintf("%s %s%s%s", n.Name, n.Type, n.Operation, n.Interpolation))
		for _, in := range n.Inputs {
			if in.Link != nil {
				out = append(out, fmt.Sprintf("  %s <- %s.%s", in.Name, in.Link.From.Name, in.Link.Socket.Name))
			} else {
				out = append(out, fmt.Sprintf("  %s = %v", in.Name, in.Default))
			}
		}
	}
	return out
}

func TestSphereProgram(t *testing.T) {
	tree := mustEvaluate(t, sphereSource)
	if tree.NodeCount() != 5 {
		t.Fatalf("expected 5 nodes, got %d", tree.NodeCount())
	}
	if findings := nodetree.Validate(tree); nodetree.HasErrors(findings) {
		t.Fatalf("validation errors: %v", findings)
	}

	out := tree.MaterialOutput()
	if out == nil || out.Name != nodetree.MaterialOutputName {
		t.Fatalf("material output = %v", out)
	}
	vol := out.Input("Volume").Link.From
	if vol.Name != "Principled Volume" {
		t.Errorf("volume node named %q, want generated name", vol.Name)
	}

	dist := tree.Lookup("Distance")
	if dist == nil || dist.Operation != "LENGTH" {
		t.Fatalf("Distance node = %+v", dist)
	}
	if l := dist.Inputs[0].Link; l == nil || l.From.Name != "Tex Coord" || l.Socket.Name != "Object" {
		t.Errorf("Distance input link = %+v", l)
	}

	falloff := tree.Lookup("Falloff")
	if got := falloff.Inputs[0].Default; len(got) != 1 || got[0] != 1 {
		t.Errorf("Falloff input 0 default = %v, want [1]", got)
	}
	if l := falloff.Inputs[1].Link; l == nil || l.From != dist || dist.OutputIndex(l.Socket) != 1 {
		t.Errorf("Falloff input 1 should link Distance.Value")
	}

	// The tree builds and evaluates: 1 - |(1, 0, 0) ... at the origin|.
	g, err := ir.Build(vol.Input(nodetree.DensityInput))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ev := eval.New(g)
	d, err := ev.Density(ir.Coord{0, 0, 0})
	if err != nil {
		t.Fatalf("Density: %v", err)
	}
	if d != 1 {
		t.Errorf("density at origin = %v, want 1", d)
	}
	ev.Reset()
	d, err = ev.Density(ir.Coord{0.6, 0, 0.8})
	if err != nil {
		t.Fatalf("Density: %v", err)
	}
	if math.Abs(d) > 1e-12 {
		t.Errorf("density at |p|=1 is %v, want 0", d)
	}
}

func TestVariableReference(t *testing.T) {
	tree := mustEvaluate(t, `
(def lo 0.25)
(def hi (* lo 3))
(clamp "C" 2 :min lo :max hi)
`)
	c := tree.Lookup("C")
	if c == nil {
		t.Fatal("expected node named 'C'")
	}
	want := [][]float64{{2}, {0.25}, {0.75}}
	for i, w := range want {
		if got := c.Inputs[i].Default; len(got) != 1 || got[0] != w[0] {
			t.Errorf("input %d = %v, want %v", i, got, w)
		}
	}
}

func TestKeywordSockets(t *testing.T) {
	tree := mustEvaluate(t, `
(map-range "R" 0.5 :from-min -1 :to-max 10 :interp :smootherstep)
(vect-math "V" :op :cross-product (vec3 1 2 3) :scale 4)
(principled-volume "P" :color (rgba 1 0 0) :emission-strength 2)
`)
	r := tree.Lookup("R")
	if r.Interpolation != "SMOOTHERSTEP" {
		t.Errorf("R interpolation = %q", r.Interpolation)
	}
	if got := r.Input("From Min").Default[0]; got != -1 {
		t.Errorf("From Min = %v, want -1", got)
	}
	if got := r.Input("To Max").Default[0]; got != 10 {
		t.Errorf("To Max = %v, want 10", got)
	}
	if got := r.Inputs[0].Default[0]; got != 0.5 {
		t.Errorf("Value = %v, want 0.5", got)
	}

	v := tree.Lookup("V")
	if v.Operation != "CROSS_PRODUCT" {
		t.Errorf("V operation = %q", v.Operation)
	}
	if got := v.Inputs[0].Default; fmt.Sprint(got) != "[1 2 3]" {
		t.Errorf("V input 0 = %v", got)
	}
	if got := v.Input("Scale").Default[0]; got != 4 {
		t.Errorf("Scale = %v", got)
	}

	p := tree.Lookup("P")
	if got := p.Input("Color").Default; fmt.Sprint(got) != "[1 0 0 1]" {
		t.Errorf("Color = %v", got)
	}
	if got := p.Input("Emission Strength").Default[0]; got != 2 {
		t.Errorf("Emission Strength = %v", got)
	}
}

func TestNumberBroadcast(t *testing.T) {
	tree := mustEvaluate(t, `
(vect-math "V" 2)
(combine-rgb "C")
(separate-rgb "S" 0.25)
`)
	if got := tree.Lookup("V").Inputs[0].Default; fmt.Sprint(got) != "[2 2 2]" {
		t.Errorf("vector broadcast = %v", got)
	}
	if got := tree.Lookup("S").Inputs[0].Default; fmt.Sprint(got) != "[0.25 0.25 0.25 1]" {
		t.Errorf("colour broadcast keeps alpha, got %v", got)
	}
}

func TestConstantPayloads(t *testing.T) {
	tree := mustEvaluate(t, `
(value "K" 0.25)
(rgb "Red" (rgba 1 0 0 0.5))
(value "Default")
`)
	if got := tree.Lookup("K").Outputs[0].Default; fmt.Sprint(got) != "[0.25]" {
		t.Errorf("K payload = %v", got)
	}
	if got := tree.Lookup("Red").Outputs[0].Default; fmt.Sprint(got) != "[1 0 0 0.5]" {
		t.Errorf("Red payload = %v", got)
	}
	if got := tree.Lookup("Default").Outputs[0].Default; fmt.Sprint(got) != "[0.5]" {
		t.Errorf("Default payload = %v", got)
	}
}

func TestColorRamp(t *testing.T) {
	tree := mustEvaluate(t, `
(color-ramp "Ramp" 0.3 :interp :constant
  :stops (list (stop 1 (rgba 1 1 1 1)) (stop 0 (rgba 0 0 0 1)) (stop 0.5 (rgba 1 0 0))))
(color-ramp "Plain")
`)
	r := tree.Lookup("Ramp")
	if r.Ramp.Interpolation() != colorramp.Constant {
		t.Errorf("interpolation = %s", r.Ramp.Interpolation())
	}
	if n := len(r.Ramp.Stops()); n != 3 {
		t.Fatalf("stops = %d, want 3", n)
	}
	if got := r.Ramp.Evaluate(0.7); got != [4]float64{1, 0, 0, 1} {
		t.Errorf("Evaluate(0.7) = %v, want red", got)
	}
	if got := r.Inputs[0].Default[0]; got != 0.3 {
		t.Errorf("Fac = %v", got)
	}
	if got := tree.Lookup("Plain").Ramp.Evaluate(0.5); math.Abs(got[0]-0.5) > 1e-12 {
		t.Errorf("default ramp at 0.5 = %v", got)
	}
}

func TestGenericNodeAndOutputs(t *testing.T) {
	tree := mustEvaluate(t, `
(def sep (node :sepxyz "Split" (out (tex-coord) 3)))
(node "MATH" "Sum" :op :add (out sep :y) (out sep "Z"))
`)
	sum := tree.Lookup("Sum")
	if sum == nil || sum.Type != nodetree.TypeMath {
		t.Fatalf("Sum = %+v", sum)
	}
	if l := sum.Inputs[0].Link; l == nil || l.Socket.Name != "Y" {
		t.Errorf("Sum input 0 link = %+v", l)
	}
	if l := sum.Inputs[1].Link; l == nil || l.Socket.Name != "Z" {
		t.Errorf("Sum input 1 link = %+v", l)
	}
	if l := tree.Lookup("Split").Inputs[0].Link; l == nil || l.Socket.Name != "Object" {
		t.Errorf("Split input link = %+v", l)
	}
}

func TestAutoNames(t *testing.T) {
	tree := mustEvaluate(t, `
(math)
(math "Math.001")
(math)
(math)
`)
	var names []string
	for _, n := range tree.Nodes {
		names = append(names, n.Name)
	}
	if got := strings.Join(names, ","); got != "Math,Math.001,Math.002,Math.003" {
		t.Errorf("names = %s", got)
	}
}

func TestConnectBuildsCycle(t *testing.T) {
	tree := mustEvaluate(t, `
(def a (math "A"))
(def b (math "B" a))
(connect b a 0)
(material-output :volume (principled-volume :density b))
`)
	findings := nodetree.Validate(tree)
	if !nodetree.HasErrors(findings) {
		t.Fatal("expected a cycle finding")
	}
	if l := tree.Lookup("A").Inputs[0].Link; l == nil || l.From.Name != "B" {
		t.Errorf("A input 0 link = %+v", l)
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"unknown operation", `(math :op :frobnicate)`, "unsupported variant"},
		{"op on plain node", `(clamp :op :add)`, "take no :op"},
		{"unknown input", `(clamp :bogus 1)`, "no input"},
		{"too many inputs", `(clamp 1 2 3 4)`, "arguments for 3 inputs"},
		{"duplicate name", `(math "X") (math "X")`, "duplicate"},
		{"vector into scalar", `(math (vec3 1 2 3))`, "is a scalar"},
		{"number into shader", `(material-output :volume 1)`, "only takes a link"},
		{"link into payload", `(value "V" (math))`, "must be a constant"},
		{"missing output", `(out (tex-coord) :nope)`, "no output"},
		{"output index out of range", `(out (math) 4)`, "no output 4"},
		{"output of sink", `(out (material-output))`, "has no outputs"},
		{"unknown type", `(node "FROB")`, "unknown node type"},
		{"vec3 arity", `(vec3 1 2)`, "exactly 3 arguments"},
		{"bad stop", `(color-ramp :stops (list 1))`, "expected stop"},
		{"bad ramp interpolation", `(color-ramp :interp :cubic)`, "unsupported interpolation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if tree != nil {
				t.Fatal("expected nil tree on eval error")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected an eval error")
			}
			if !strings.Contains(evalErrs[0].Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", evalErrs[0].Message, tt.wantMsg)
			}
		})
	}
}
