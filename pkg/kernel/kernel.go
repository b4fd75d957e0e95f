// Package kernel defines the surface extraction interface used to turn a
// sampled density field into a triangle mesh. Implementations (sdfx)
// provide the marching cubes backend behind this interface.
package kernel

import "errors"

// ErrEmptyField is returned when a field has no bounds to extract from.
var ErrEmptyField = errors.New("field has no active region")

// Field is a scalar field in world space.
// *grid.FloatGrid implements it.
type Field interface {
	// Sample returns the field value at world position p.
	Sample(p [3]float64) float64
	// WorldBounds returns the world space box holding every non-background
	// value. ok is false when the field is empty.
	WorldBounds() (min, max [3]float64, ok bool)
	// VoxelSize is the spacing below which the field carries no detail.
	VoxelSize() float64
}

// Named is implemented by fields that carry a name, such as grids.
type Named interface {
	Name() string
}

// Kernel extracts iso surfaces from a Field.
type Kernel interface {
	// ToMesh returns the surface where the field crosses iso. Cells where
	// the field exceeds iso are inside.
	ToMesh(f Field, iso float64) (*Mesh, error)
	// SaveSTL writes the same surface to a binary STL file and returns
	// the triangle count.
	SaveSTL(path string, f Field, iso float64) (int, error)
}
