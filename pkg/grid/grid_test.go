package grid

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAccessorSetAndGet(t *testing.T) {
	g := New("density", 0)
	a := g.Accessor()

	points := []struct {
		c Coord
		v float32
	}{
		{Coord{0, 0, 0}, 1},
		{Coord{-1, -1, -1}, 2},
		{Coord{7, 8, -9}, 3},
		{Coord{MinIndex, MaxIndex, 0}, 4},
	}
	for _, p := range points {
		if err := a.SetValue(p.c.X, p.c.Y, p.c.Z, p.v); err != nil {
			t.Fatalf("SetValue(%s): %v", p.c, err)
		}
	}
	for _, p := range points {
		v, ok := g.Value(p.c)
		if !ok || v != p.v {
			t.Errorf("Value(%s) = %v, %v; want %v, true", p.c, v, ok, p.v)
		}
		// A fresh accessor must not rely on the cached leaf.
		v, ok = g.Accessor().Value(p.c.X, p.c.Y, p.c.Z)
		if !ok || v != p.v {
			t.Errorf("Accessor.Value(%s) = %v, %v; want %v, true", p.c, v, ok, p.v)
		}
	}
	if g.ActiveVoxelCount() != uint64(len(points)) {
		t.Errorf("ActiveVoxelCount = %d, want %d", g.ActiveVoxelCount(), len(points))
	}
	if v, ok := g.Value(Coord{1, 0, 0}); ok || v != 0 {
		t.Errorf("unset voxel = %v, %v; want background, false", v, ok)
	}
}

func TestSetValueOutOfRange(t *testing.T) {
	a := New("d", 0).Accessor()
	for _, c := range []Coord{{MaxIndex + 1, 0, 0}, {0, MinIndex - 1, 0}, {0, 0, 1 << 20}} {
		if err := a.SetValue(c.X, c.Y, c.Z, 1); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("SetValue(%s) err = %v, want ErrOutOfRange", c, err)
		}
	}
}

func TestLeafAllocation(t *testing.T) {
	g := New("d", 0)
	a := g.Accessor()
	// One 8^3 block spans [-8, -1] on each axis.
	for x := -8; x < 0; x++ {
		for y := -8; y < 0; y++ {
			if err := a.SetValue(x, y, -1, 1); err != nil {
				t.Fatal(err)
			}
		}
	}
	if g.LeafCount() != 1 {
		t.Errorf("LeafCount = %d, want 1", g.LeafCount())
	}
	if err := a.SetValue(0, 0, 0, 1); err != nil {
		t.Fatal(err)
	}
	if g.LeafCount() != 2 {
		t.Errorf("LeafCount = %d, want 2", g.LeafCount())
	}
}

func TestForEachActiveOrder(t *testing.T) {
	g := New("d", 0)
	a := g.Accessor()
	in := []Coord{{1, 0, 0}, {-2, 5, 1}, {-2, -3, 4}, {0, 0, -1}, {0, 0, 0}}
	for i, c := range in {
		if err := a.SetValue(c.X, c.Y, c.Z, float32(i)); err != nil {
			t.Fatal(err)
		}
	}

	var got []Coord
	if err := g.ForEachActive(func(c Coord, _ float32) error {
		got = append(got, c)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	want := []Coord{{-2, -3, 4}, {-2, 5, 1}, {0, 0, -1}, {0, 0, 0}, {1, 0, 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("iteration order mismatch (-want +got):\n%s", diff)
	}

	stop := errors.New("stop")
	calls := 0
	err := g.ForEachActive(func(Coord, float32) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("ForEachActive did not stop: err=%v calls=%d", err, calls)
	}
}

func TestBoundsAndTransform(t *testing.T) {
	g := New("d", 0)
	if _, _, ok := g.Bounds(); ok {
		t.Fatal("empty grid reported bounds")
	}
	a := g.Accessor()
	for _, c := range []Coord{{-4, 2, 0}, {3, -1, 7}} {
		if err := a.SetValue(c.X, c.Y, c.Z, 1); err != nil {
			t.Fatal(err)
		}
	}
	lo, hi, ok := g.Bounds()
	if !ok || lo != (Coord{-4, -1, 0}) || hi != (Coord{3, 2, 7}) {
		t.Errorf("Bounds = %s %s %v", lo, hi, ok)
	}

	g.Scale(0.25, 0.25, 0.25)
	g.Scale(2, 1, 1)
	if diff := cmp.Diff([3]float64{0.5, 0.25, 0.25}, g.Transform().Scale); diff != "" {
		t.Errorf("scale mismatch (-want +got):\n%s", diff)
	}
	if got := g.Transform().IndexToWorld(Coord{4, 4, -8}); got != [3]float64{2, 1, -2} {
		t.Errorf("IndexToWorld = %v", got)
	}
	if got := g.Transform().WorldToIndex([3]float64{2, 1, -2}); got != [3]float64{4, 4, -8} {
		t.Errorf("WorldToIndex = %v", got)
	}
	wlo, whi, _ := g.WorldBounds()
	if wlo != [3]float64{-2, -0.25, 0} || whi != [3]float64{1.5, 0.5, 1.75} {
		t.Errorf("WorldBounds = %v %v", wlo, whi)
	}
}

func TestSampleTrilinear(t *testing.T) {
	g := New("d", 0)
	a := g.Accessor()
	if err := a.SetValue(0, 0, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := a.SetValue(1, 0, 0, 1); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		p    [3]float64
		want float64
	}{
		{[3]float64{0, 0, 0}, 0},
		{[3]float64{1, 0, 0}, 1},
		{[3]float64{0.25, 0, 0}, 0.25},
		{[3]float64{0.5, 0.5, 0}, 0.25}, // y neighbours are background 0
	}
	for _, tt := range tests {
		if got := g.Sample(tt.p); got != tt.want {
			t.Errorf("Sample(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}

	g.Scale(0.5, 0.5, 0.5)
	if got := g.Sample([3]float64{0.25, 0, 0}); got != 0.5 {
		t.Errorf("scaled Sample = %v, want 0.5", got)
	}
}

func TestBackgroundFill(t *testing.T) {
	g := New("d", -1)
	a := g.Accessor()
	if err := a.SetValue(0, 0, 0, 5); err != nil {
		t.Fatal(err)
	}
	if v, ok := a.Value(1, 0, 0); ok || v != -1 {
		t.Errorf("neighbour in same leaf = %v, %v; want -1, false", v, ok)
	}
	if got := g.Sample([3]float64{0, 0, 1}); got != -1 {
		t.Errorf("Sample of inactive voxel = %v, want background -1", got)
	}
}
