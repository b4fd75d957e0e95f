// Package grid provides a sparse float grid for density volumes.
//
// Voxels live in 8x8x8 leaf blocks allocated on first write. A roaring
// bitmap records which voxels are active; its keys pack the three index
// coordinates so that iterating the bitmap visits voxels in x, y, z order.
package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring"
)

const (
	leafLog2 = 3
	leafDim  = 1 << leafLog2
	leafMask = leafDim - 1

	axisBits = 10
	axisMask = 1<<axisBits - 1
	axisBias = 1 << (axisBits - 1)
)

const (
	// MinIndex and MaxIndex bound every axis of a voxel index.
	MinIndex = -axisBias
	MaxIndex = axisBias - 1
)

// ErrOutOfRange is returned for voxel indices outside [MinIndex, MaxIndex].
var ErrOutOfRange = errors.New("voxel index out of range")

// Coord is an integer voxel index.
type Coord struct {
	X, Y, Z int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.X, c.Y, c.Z)
}

func (c Coord) inRange() bool {
	return c.X >= MinIndex && c.X <= MaxIndex &&
		c.Y >= MinIndex && c.Y <= MaxIndex &&
		c.Z >= MinIndex && c.Z <= MaxIndex
}

// key packs an in-range coordinate into a bitmap key.
func (c Coord) key() uint32 {
	return uint32(c.X+axisBias)<<(2*axisBits) | uint32(c.Y+axisBias)<<axisBits | uint32(c.Z+axisBias)
}

func coordOf(k uint32) Coord {
	return Coord{
		X: int(k>>(2*axisBits)&axisMask) - axisBias,
		Y: int(k>>axisBits&axisMask) - axisBias,
		Z: int(k&axisMask) - axisBias,
	}
}

// origin returns the index of the leaf block containing c.
func (c Coord) origin() Coord {
	return Coord{c.X &^ leafMask, c.Y &^ leafMask, c.Z &^ leafMask}
}

// offset returns the position of c inside its leaf block.
func (c Coord) offset() int {
	return (c.X&leafMask)<<(2*leafLog2) | (c.Y&leafMask)<<leafLog2 | c.Z&leafMask
}

type leaf struct {
	values [leafDim * leafDim * leafDim]float32
}

// Transform maps voxel indices to world space by a per-axis scale.
type Transform struct {
	Scale [3]float64
}

// Identity is the transform with unit scale.
func Identity() Transform {
	return Transform{Scale: [3]float64{1, 1, 1}}
}

// IndexToWorld maps a voxel index to a world position.
func (t Transform) IndexToWorld(c Coord) [3]float64 {
	return [3]float64{float64(c.X) * t.Scale[0], float64(c.Y) * t.Scale[1], float64(c.Z) * t.Scale[2]}
}

// WorldToIndex maps a world position to fractional index space.
func (t Transform) WorldToIndex(p [3]float64) [3]float64 {
	var out [3]float64
	for i := range out {
		if t.Scale[i] != 0 {
			out[i] = p[i] / t.Scale[i]
		}
	}
	return out
}

// FloatGrid is a named sparse grid of float32 values. Voxels that were
// never written hold the background value and are inactive.
type FloatGrid struct {
	name       string
	background float32
	transform  Transform
	leaves     map[Coord]*leaf
	active     *roaring.Bitmap
}

// New creates an empty grid with an identity transform.
func New(name string, background float32) *FloatGrid {
	return &FloatGrid{
		name:       name,
		background: background,
		transform:  Identity(),
		leaves:     make(map[Coord]*leaf),
		active:     roaring.New(),
	}
}

// Name returns the grid name.
func (g *FloatGrid) Name() string { return g.name }

// SetName renames the grid.
func (g *FloatGrid) SetName(name string) { g.name = name }

// Background returns the value of inactive voxels.
func (g *FloatGrid) Background() float32 { return g.background }

// Transform returns the index-to-world transform.
func (g *FloatGrid) Transform() Transform { return g.transform }

// SetTransform replaces the index-to-world transform.
func (g *FloatGrid) SetTransform(t Transform) { g.transform = t }

// Scale multiplies the transform scale per axis.
func (g *FloatGrid) Scale(sx, sy, sz float64) {
	g.transform.Scale[0] *= sx
	g.transform.Scale[1] *= sy
	g.transform.Scale[2] *= sz
}

// ActiveVoxelCount returns the number of active voxels.
func (g *FloatGrid) ActiveVoxelCount() uint64 {
	return g.active.GetCardinality()
}

// LeafCount returns the number of allocated leaf blocks.
func (g *FloatGrid) LeafCount() int {
	return len(g.leaves)
}

// Value returns the value at c and whether c is active.
func (g *FloatGrid) Value(c Coord) (float32, bool) {
	if !c.inRange() || !g.active.Contains(c.key()) {
		return g.background, false
	}
	return g.leaves[c.origin()].values[c.offset()], true
}

// Bounds returns the inclusive index bounding box of the active voxels.
// ok is false for an empty grid.
func (g *FloatGrid) Bounds() (lo, hi Coord, ok bool) {
	if g.active.IsEmpty() {
		return Coord{}, Coord{}, false
	}
	lo = Coord{math.MaxInt, math.MaxInt, math.MaxInt}
	hi = Coord{math.MinInt, math.MinInt, math.MinInt}
	it := g.active.Iterator()
	for it.HasNext() {
		c := coordOf(it.Next())
		lo = Coord{min(lo.X, c.X), min(lo.Y, c.Y), min(lo.Z, c.Z)}
		hi = Coord{max(hi.X, c.X), max(hi.Y, c.Y), max(hi.Z, c.Z)}
	}
	return lo, hi, true
}

// ForEachActive calls fn for every active voxel in x, y, z order. It stops
// at the first error fn returns.
func (g *FloatGrid) ForEachActive(fn func(c Coord, v float32) error) error {
	it := g.active.Iterator()
	for it.HasNext() {
		c := coordOf(it.Next())
		if err := fn(c, g.leaves[c.origin()].values[c.offset()]); err != nil {
			return err
		}
	}
	return nil
}

// ActiveMask returns a copy of the active-voxel bitmap.
func (g *FloatGrid) ActiveMask() *roaring.Bitmap {
	return g.active.Clone()
}

// Accessor returns a new accessor for reading and writing voxels.
func (g *FloatGrid) Accessor() *Accessor {
	return &Accessor{g: g}
}

// Accessor reads and writes voxels, caching the most recently used leaf
// block. Sweeps that touch neighbouring voxels mostly hit the cache. An
// accessor is not safe for concurrent use.
type Accessor struct {
	g      *FloatGrid
	origin Coord
	leaf   *leaf
}

// SetValue stores v at index (x, y, z) and marks the voxel active.
func (a *Accessor) SetValue(x, y, z int, v float32) error {
	c := Coord{x, y, z}
	if !c.inRange() {
		return fmt.Errorf("set %s: %w", c, ErrOutOfRange)
	}
	l := a.leafFor(c, true)
	l.values[c.offset()] = v
	a.g.active.Add(c.key())
	return nil
}

// Value returns the value at (x, y, z) and whether the voxel is active.
func (a *Accessor) Value(x, y, z int) (float32, bool) {
	c := Coord{x, y, z}
	if !c.inRange() || !a.g.active.Contains(c.key()) {
		return a.g.background, false
	}
	return a.leafFor(c, false).values[c.offset()], true
}

func (a *Accessor) leafFor(c Coord, create bool) *leaf {
	o := c.origin()
	if a.leaf != nil && a.origin == o {
		return a.leaf
	}
	l := a.g.leaves[o]
	if l == nil {
		if !create {
			return nil
		}
		l = new(leaf)
		if a.g.background != 0 {
			for i := range l.values {
				l.values[i] = a.g.background
			}
		}
		a.g.leaves[o] = l
	}
	a.origin, a.leaf = o, l
	return l
}
