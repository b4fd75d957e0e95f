package ir

import (
	"fmt"
	"math"
	"strings"
)

// Value is a single socket value: a scalar (N=1), a vector (N=3) or a
// colour (N=4). Components beyond N are zero.
type Value struct {
	N int
	V [4]float64
}

// Scalar returns a one-component value.
func Scalar(f float64) Value {
	return Value{N: 1, V: [4]float64{f}}
}

// Vector returns a three-component value.
func Vector(x, y, z float64) Value {
	return Value{N: 3, V: [4]float64{x, y, z}}
}

// Color returns a four-component value.
func Color(r, g, b, a float64) Value {
	return Value{N: 4, V: [4]float64{r, g, b, a}}
}

// FromVec3 returns a vector value with the components of v.
func FromVec3(v Vec3) Value {
	return Vector(v.X, v.Y, v.Z)
}

// FromSlice converts a socket default into a value. One component yields a
// scalar, anything longer is truncated to at most four components. It
// returns false for an empty slice.
func FromSlice(s []float64) (Value, bool) {
	switch len(s) {
	case 0:
		return Value{}, false
	case 1:
		return Scalar(s[0]), true
	}
	v := Value{N: min(len(s), 4)}
	copy(v.V[:], s)
	return v, true
}

// IsScalar reports whether v has a single component.
func (v Value) IsScalar() bool { return v.N <= 1 }

// Float returns the scalar view of v. Vectors and colours collapse to the
// mean of their first three components, the same way the editor converts a
// colour socket plugged into a value socket.
func (v Value) Float() float64 {
	if v.N <= 1 {
		return v.V[0]
	}
	return (v.V[0] + v.V[1] + v.V[2]) / 3
}

// Vec returns the vector view of v. A scalar is broadcast to all three
// components.
func (v Value) Vec() Vec3 {
	if v.N <= 1 {
		return Vec3{v.V[0], v.V[0], v.V[0]}
	}
	return Vec3{v.V[0], v.V[1], v.V[2]}
}

func (v Value) String() string {
	if v.N <= 1 {
		return fmt.Sprintf("%g", v.V[0])
	}
	parts := make([]string, v.N)
	for i := range parts {
		parts[i] = fmt.Sprintf("%g", v.V[i])
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Channels is the output list of one node, indexed by output socket.
type Channels []Value

// Coord is the normalized sample position of one lattice cell.
type Coord [3]float64

// Vec3 is a plain 3-vector used by the vector operations.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns the component-wise sum a + b.
func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }

// Sub returns the component-wise difference a - b.
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

// Mul returns the component-wise product of a and b.
func (a Vec3) Mul(b Vec3) Vec3 { return Vec3{a.X * b.X, a.Y * b.Y, a.Z * b.Z} }

// Scale returns a with every component multiplied by s.
func (a Vec3) Scale(s float64) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }

// Dot returns the dot product of a and b.
func (a Vec3) Dot(b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

// Cross returns the cross product a x b.
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

// Length returns the Euclidean norm of a.
func (a Vec3) Length() float64 {
	return math.Sqrt(a.Dot(a))
}

// Normalize returns a scaled to unit length. The zero vector stays zero.
func (a Vec3) Normalize() Vec3 {
	l := a.Length()
	if l == 0 {
		return Vec3{}
	}
	return a.Scale(1 / l)
}

// Map applies f to each component.
func (a Vec3) Map(f func(float64) float64) Vec3 {
	return Vec3{f(a.X), f(a.Y), f(a.Z)}
}

// Zip applies f to each pair of components.
func (a Vec3) Zip(b Vec3, f func(x, y float64) float64) Vec3 {
	return Vec3{f(a.X, b.X), f(a.Y, b.Y), f(a.Z, b.Z)}
}
