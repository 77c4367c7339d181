package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/tribag/internal/raytrace"
)

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// Pad returns b grown by d on every side.
func (b AABB) Pad(d float64) AABB {
	pad := mgl64.Vec3{d, d, d}
	return AABB{Min: b.Min.Sub(pad), Max: b.Max.Add(pad)}
}

// Contains reports whether p lies inside or on b.
func (b AABB) Contains(p mgl64.Vec3) bool {
	for a := 0; a < 3; a++ {
		if p[a] < b.Min[a] || p[a] > b.Max[a] {
			return false
		}
	}
	return true
}

// ClipLine intersects the infinite line of r with box and returns the
// parameter range inside it. Kernel hits may lie behind the ray origin, so
// the range is not clamped at zero. A line parallel to a slab and outside
// it misses.
func ClipLine(r raytrace.Ray, box AABB) (tmin, tmax float64, hit bool) {
	tmin = math.Inf(-1)
	tmax = math.Inf(1)

	for a := 0; a < 3; a++ {
		if r.Dir[a] != 0 {
			t1 := (box.Min[a] - r.Origin[a]) / r.Dir[a]
			t2 := (box.Max[a] - r.Origin[a]) / r.Dir[a]
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			tmin = max(tmin, t1)
			tmax = min(tmax, t2)
		} else if r.Origin[a] < box.Min[a] || r.Origin[a] > box.Max[a] {
			return 0, 0, false
		}
	}

	if tmax < tmin {
		return 0, 0, false
	}
	return tmin, tmax, true
}

// IntersectAABB tests the forward ray against box. It returns the entry
// distance, or the exit distance when the origin is inside.
func IntersectAABB(r raytrace.Ray, box AABB) (t float64, hit bool) {
	tmin, tmax, ok := ClipLine(r, box)
	if !ok || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}
