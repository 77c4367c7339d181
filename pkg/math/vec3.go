// Package math provides storage vector types whose element width is chosen
// by the caller. Arithmetic that must be exact across widths is done in
// float64 through mgl64.
package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Float is the set of element types a stored vector may use.
type Float interface {
	~float32 | ~float64
}

// Vec3 is a 3D vector stored with element type T.
type Vec3[T Float] struct {
	X, Y, Z T
}

// FromVec64 narrows (or copies) a float64 vector into a Vec3[T].
func FromVec64[T Float](v mgl64.Vec3) Vec3[T] {
	return Vec3[T]{T(v[0]), T(v[1]), T(v[2])}
}

// Vec64 widens v to a float64 vector.
func (v Vec3[T]) Vec64() mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X), float64(v.Y), float64(v.Z)}
}

// Add returns v + other.
func (v Vec3[T]) Add(other Vec3[T]) Vec3[T] {
	return Vec3[T]{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3[T]) Sub(other Vec3[T]) Vec3[T] {
	return Vec3[T]{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * scalar.
func (v Vec3[T]) Scale(s T) Vec3[T] {
	return Vec3[T]{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product, accumulated in float64.
func (v Vec3[T]) Dot(other Vec3[T]) float64 {
	return float64(v.X)*float64(other.X) + float64(v.Y)*float64(other.Y) + float64(v.Z)*float64(other.Z)
}

// Cross returns the cross product.
func (v Vec3[T]) Cross(other Vec3[T]) Vec3[T] {
	return Vec3[T]{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

// Length returns the magnitude.
func (v Vec3[T]) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns a unit vector.
func (v Vec3[T]) Normalize() Vec3[T] {
	l := v.Length()
	if l == 0 {
		return Vec3[T]{}
	}
	return Vec3[T]{T(float64(v.X) / l), T(float64(v.Y) / l), T(float64(v.Z) / l)}
}

// Distance returns the distance to another point.
func (v Vec3[T]) Distance(other Vec3[T]) float64 {
	return v.Sub(other).Length()
}
