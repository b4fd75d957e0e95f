package ir

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/chazu/shadevol/pkg/nodetree"
)

func newNode(t *testing.T, name, typ, op string) *nodetree.Node {
	t.Helper()
	n, err := nodetree.NewNode(name, typ, op, "")
	if err != nil {
		t.Fatalf("NewNode(%q): %v", typ, err)
	}
	return n
}

func connect(t *testing.T, from *nodetree.Node, out int, to *nodetree.Node, in int) {
	t.Helper()
	if err := nodetree.Connect(from, out, to, in); err != nil {
		t.Fatal(err)
	}
}

func TestBuildUnlinkedRoot(t *testing.T) {
	vol := newNode(t, "vol", nodetree.TypePrincipledVolume, "")
	density := vol.Input(nodetree.DensityInput)
	density.Default = []float64{0.5}

	g, err := Build(density)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(g.Nodes) != 0 {
		t.Fatalf("nodes = %d, want 0", len(g.Nodes))
	}
	v, ok := g.Constant()
	if !ok || v != Scalar(0.5) {
		t.Fatalf("Constant() = %v, %v; want 0.5, true", v, ok)
	}
}

func TestBuildSharesNodes(t *testing.T) {
	co := newNode(t, "coord", nodetree.TypeTextureCoordinate, "")
	sep := newNode(t, "sep", nodetree.TypeSeparateXYZ, "")
	add := newNode(t, "add", nodetree.TypeMath, "add")
	connect(t, co, 3, sep, 0)
	connect(t, sep, 0, add, 0)
	connect(t, sep, 0, add, 1)

	g, err := Build(&nodetree.Socket{Name: "Density", Link: &nodetree.Link{From: add, Socket: add.Outputs[0]}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := &Graph{}
	want.Add(TexCoord).Name = "coord"
	want.Add(SeparateXYZ, Link(0, 3)).Name = "sep"
	want.Add(MathAdd, Link(1, 0), Link(1, 0), Lit(Scalar(0.5))).Name = "add"
	want.Root = Link(2, 0)

	if diff := cmp.Diff(want, g, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("graph mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDiamondBuildsSharedSourceOnce(t *testing.T) {
	co := newNode(t, "coord", nodetree.TypeTextureCoordinate, "")
	left := newNode(t, "left", nodetree.TypeVectorMath, "length")
	right := newNode(t, "right", nodetree.TypeVectorMath, "dot_product")
	join := newNode(t, "join", nodetree.TypeMath, "maximum")
	connect(t, co, 3, left, 0)
	connect(t, co, 3, right, 0)
	connect(t, co, 0, right, 1)
	connect(t, left, 1, join, 0)
	connect(t, right, 1, join, 1)

	g, err := Build(&nodetree.Socket{Link: &nodetree.Link{From: join, Socket: join.Outputs[0]}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(g.Nodes) != 4 {
		t.Fatalf("nodes = %d, want 4\n%s", len(g.Nodes), g)
	}
	coords := 0
	for _, n := range g.Nodes {
		if n.Kind == TexCoord {
			coords++
		}
	}
	if coords != 1 {
		t.Errorf("texture coordinate built %d times, want 1", coords)
	}
	if n := g.Nodes[g.Root.Node]; n.Kind != MathMaximum {
		t.Errorf("root kind = %s, want MATHMAXIMUM", n.Kind)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) *nodetree.Socket
		want  error
	}{
		{
			name: "cycle",
			setup: func(t *testing.T) *nodetree.Socket {
				a := newNode(t, "a", nodetree.TypeMath, "add")
				b := newNode(t, "b", nodetree.TypeMath, "multiply")
				connect(t, a, 0, b, 0)
				connect(t, b, 0, a, 0)
				return &nodetree.Socket{Link: &nodetree.Link{From: a, Socket: a.Outputs[0]}}
			},
			want: ErrCyclicGraph,
		},
		{
			name: "unsupported operation",
			setup: func(t *testing.T) *nodetree.Socket {
				n := newNode(t, "m", nodetree.TypeMath, "bogus")
				return &nodetree.Socket{Link: &nodetree.Link{From: n, Socket: n.Outputs[0]}}
			},
			want: ErrUnsupportedOperation,
		},
		{
			name: "shader inside density",
			setup: func(t *testing.T) *nodetree.Socket {
				n := newNode(t, "vol", nodetree.TypeVolumeScatter, "")
				return &nodetree.Socket{Link: &nodetree.Link{From: n, Socket: n.Outputs[0]}}
			},
			want: ErrUnsupportedOperation,
		},
		{
			name: "missing default",
			setup: func(t *testing.T) *nodetree.Socket {
				n := newNode(t, "m", nodetree.TypeMath, "add")
				n.Inputs[1].Default = nil
				return &nodetree.Socket{Link: &nodetree.Link{From: n, Socket: n.Outputs[0]}}
			},
			want: ErrMissingDefault,
		},
		{
			name: "foreign socket",
			setup: func(t *testing.T) *nodetree.Socket {
				n := newNode(t, "m", nodetree.TypeMath, "add")
				return &nodetree.Socket{Link: &nodetree.Link{From: n, Socket: &nodetree.Socket{Name: "stray"}}}
			},
			want: ErrBadLink,
		},
		{
			name: "ramp without stops",
			setup: func(t *testing.T) *nodetree.Socket {
				n := newNode(t, "ramp", nodetree.TypeColorRamp, "")
				n.Ramp = nil
				return &nodetree.Socket{Link: &nodetree.Link{From: n, Socket: n.Outputs[0]}}
			},
			want: ErrMissingDefault,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.setup(t))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuildPayloads(t *testing.T) {
	val := newNode(t, "v", nodetree.TypeValue, "")
	val.Outputs[0].Default = []float64{0.25}
	rgb := newNode(t, "c", nodetree.TypeRGB, "")
	rgb.Outputs[0].Default = []float64{1, 0, 0, 1}
	mix := newNode(t, "mix", nodetree.TypeVectorMath, "add")
	connect(t, val, 0, mix, 0)
	connect(t, rgb, 0, mix, 1)

	g, err := Build(&nodetree.Socket{Link: &nodetree.Link{From: mix, Socket: mix.Outputs[0]}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := g.Nodes[0].Value; got != Scalar(0.25) {
		t.Errorf("value payload = %v, want 0.25", got)
	}
	if got := g.Nodes[1].Value; got != Color(1, 0, 0, 1) {
		t.Errorf("rgb payload = %v, want (1, 0, 0, 1)", got)
	}
	if got := g.Nodes[2].Inputs[2].Literal; got != Vector(0, 0, 0) {
		t.Errorf("unlinked vector literal = %v, want (0, 0, 0)", got)
	}
}

func TestBuildDoesNotMutateTree(t *testing.T) {
	a := newNode(t, "a", nodetree.TypeMath, "add")
	before := append([]float64(nil), a.Inputs[0].Default...)
	if _, err := Build(&nodetree.Socket{Link: &nodetree.Link{From: a, Socket: a.Outputs[0]}}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, a.Inputs[0].Default); diff != "" {
		t.Errorf("default changed (-before +after):\n%s", diff)
	}
	if a.Operation != "ADD" {
		t.Errorf("operation changed to %q", a.Operation)
	}
}
