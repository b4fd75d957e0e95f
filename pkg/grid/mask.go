package grid

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring"
)

// ErrMaskMismatch is returned when a mask and its value list disagree.
var ErrMaskMismatch = errors.New("active mask does not match values")

// maxKey is the largest key an in-range coordinate packs to.
const maxKey = 1<<(3*axisBits) - 1

// Values returns the active voxel values in mask order, the order
// ForEachActive visits them.
func (g *FloatGrid) Values() []float32 {
	out := make([]float32, 0, g.active.GetCardinality())
	it := g.active.Iterator()
	for it.HasNext() {
		c := coordOf(it.Next())
		out = append(out, g.leaves[c.origin()].values[c.offset()])
	}
	return out
}

// FromMask rebuilds a grid from an active mask and the values of its
// voxels in mask order.
func FromMask(name string, background float32, mask *roaring.Bitmap, values []float32) (*FloatGrid, error) {
	if n := mask.GetCardinality(); n != uint64(len(values)) {
		return nil, fmt.Errorf("%w: %d active voxels, %d values", ErrMaskMismatch, n, len(values))
	}
	if !mask.IsEmpty() && mask.Maximum() > maxKey {
		return nil, fmt.Errorf("%w: key %d", ErrOutOfRange, mask.Maximum())
	}
	g := New(name, background)
	acc := g.Accessor()
	it := mask.Iterator()
	for i := 0; it.HasNext(); i++ {
		c := coordOf(it.Next())
		if err := acc.SetValue(c.X, c.Y, c.Z, values[i]); err != nil {
			return nil, err
		}
	}
	return g, nil
}
