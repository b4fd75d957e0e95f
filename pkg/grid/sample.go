package grid

import "math"

// Sample returns the trilinearly interpolated value at world position p.
// Inactive voxels contribute the background value. Sample only reads the
// grid, so concurrent calls are safe as long as nothing writes.
func (g *FloatGrid) Sample(p [3]float64) float64 {
	idx := g.transform.WorldToIndex(p)
	a := Accessor{g: g}

	x0, y0, z0 := math.Floor(idx[0]), math.Floor(idx[1]), math.Floor(idx[2])
	fx, fy, fz := idx[0]-x0, idx[1]-y0, idx[2]-z0
	ix, iy, iz := int(x0), int(y0), int(z0)

	at := func(dx, dy, dz int) float64 {
		v, _ := a.Value(ix+dx, iy+dy, iz+dz)
		return float64(v)
	}
	lerp := func(a, b, t float64) float64 { return a + t*(b-a) }

	c00 := lerp(at(0, 0, 0), at(1, 0, 0), fx)
	c10 := lerp(at(0, 1, 0), at(1, 1, 0), fx)
	c01 := lerp(at(0, 0, 1), at(1, 0, 1), fx)
	c11 := lerp(at(0, 1, 1), at(1, 1, 1), fx)
	return lerp(lerp(c00, c10, fy), lerp(c01, c11, fy), fz)
}

// WorldBounds returns the world-space box covered by the active voxels,
// or false for an empty grid.
func (g *FloatGrid) WorldBounds() (lo, hi [3]float64, ok bool) {
	ilo, ihi, ok := g.Bounds()
	if !ok {
		return lo, hi, false
	}
	lo = g.transform.IndexToWorld(ilo)
	hi = g.transform.IndexToWorld(ihi)
	for i := range lo {
		if lo[i] > hi[i] {
			lo[i], hi[i] = hi[i], lo[i]
		}
	}
	return lo, hi, true
}

// VoxelSize returns the largest world space edge of one voxel.
func (g *FloatGrid) VoxelSize() float64 {
	s := g.transform.Scale
	return math.Max(math.Abs(s[0]), math.Max(math.Abs(s[1]), math.Abs(s[2])))
}
