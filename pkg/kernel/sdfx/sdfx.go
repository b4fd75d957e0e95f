// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx marching cubes renderer.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/shadevol/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// defaultMeshCells is the marching cubes resolution along the longest axis.
const defaultMeshCells = 128

// fieldSDF presents a density field as a signed distance function that is
// negative wherever the density exceeds iso.
type fieldSDF struct {
	f   kernel.Field
	iso float64
	bb  sdf.Box3
}

// Evaluate returns iso minus the density at p.
func (s *fieldSDF) Evaluate(p v3.Vec) float64 {
	return s.iso - s.f.Sample([3]float64{p.X, p.Y, p.Z})
}

// BoundingBox returns the padded field bounds.
func (s *fieldSDF) BoundingBox() sdf.Box3 {
	return s.bb
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// Option configures an SdfxKernel.
type Option func(*SdfxKernel)

// WithCells sets the marching cubes resolution along the longest axis.
// Values below 1 are ignored.
func WithCells(n int) Option {
	return func(k *SdfxKernel) {
		if n > 0 {
			k.cells = n
		}
	}
}

// New returns a new SdfxKernel.
func New(opts ...Option) *SdfxKernel {
	k := &SdfxKernel{cells: defaultMeshCells}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Cells returns the configured marching cubes resolution.
func (k *SdfxKernel) Cells() int { return k.cells }

// wrap builds the SDF for f. The bounds are padded by one voxel so the
// falloff to the background value is inside the rendered box.
func wrap(f kernel.Field, iso float64) (*fieldSDF, error) {
	if math.IsNaN(iso) || math.IsInf(iso, 0) {
		return nil, fmt.Errorf("iso must be finite, got %v", iso)
	}
	lo, hi, ok := f.WorldBounds()
	if !ok {
		return nil, kernel.ErrEmptyField
	}
	pad := f.VoxelSize()
	if pad <= 0 {
		pad = 1
	}
	bb := sdf.Box3{
		Min: v3.Vec{X: lo[0] - pad, Y: lo[1] - pad, Z: lo[2] - pad},
		Max: v3.Vec{X: hi[0] + pad, Y: hi[1] + pad, Z: hi[2] + pad},
	}
	return &fieldSDF{f: f, iso: iso, bb: bb}, nil
}

// ToMesh extracts the iso surface as a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(f kernel.Field, iso float64) (*kernel.Mesh, error) {
	s, err := wrap(f, iso)
	if err != nil {
		return nil, err
	}
	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(k.cells))

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	mesh := &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}
	if named, ok := f.(kernel.Named); ok {
		mesh.Name = named.Name()
	}
	return mesh, nil
}

// SaveSTL writes the iso surface to a binary STL file at path.
func (k *SdfxKernel) SaveSTL(path string, f kernel.Field, iso float64) (int, error) {
	s, err := wrap(f, iso)
	if err != nil {
		return 0, err
	}
	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(k.cells))
	if err := render.SaveSTL(path, triangles); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return len(triangles), nil
}
