package grid

import (
	"errors"
	"testing"

	"github.com/RoaringBitmap/roaring"
	"github.com/google/go-cmp/cmp"
)

func TestFromMaskRoundTrip(t *testing.T) {
	src := New("density", 0.25)
	a := src.Accessor()
	for i, c := range []Coord{{3, -2, 1}, {-9, 0, 4}, {MaxIndex, MinIndex, 0}, {0, 0, 0}} {
		if err := a.SetValue(c.X, c.Y, c.Z, float32(i)+0.5); err != nil {
			t.Fatal(err)
		}
	}

	got, err := FromMask("copy", src.Background(), src.ActiveMask(), src.Values())
	if err != nil {
		t.Fatalf("FromMask: %v", err)
	}
	if got.Name() != "copy" || got.Background() != 0.25 {
		t.Errorf("name/background = %q/%v", got.Name(), got.Background())
	}
	if !got.ActiveMask().Equals(src.ActiveMask()) {
		t.Error("active masks differ")
	}
	if diff := cmp.Diff(src.Values(), got.Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if v, ok := got.Value(Coord{MaxIndex, MinIndex, 0}); !ok || v != 2.5 {
		t.Errorf("corner voxel = %v, %v", v, ok)
	}
}

func TestFromMaskErrors(t *testing.T) {
	mask := roaring.BitmapOf(Coord{1, 2, 3}.key(), Coord{0, 0, 0}.key())
	if _, err := FromMask("d", 0, mask, []float32{1}); !errors.Is(err, ErrMaskMismatch) {
		t.Errorf("short values err = %v, want ErrMaskMismatch", err)
	}
	bad := roaring.BitmapOf(maxKey + 1)
	if _, err := FromMask("d", 0, bad, []float32{1}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("oversized key err = %v, want ErrOutOfRange", err)
	}
	empty, err := FromMask("d", 0, roaring.New(), nil)
	if err != nil || empty.ActiveVoxelCount() != 0 {
		t.Errorf("empty mask = %v, %v", empty, err)
	}
}
