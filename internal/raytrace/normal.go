package raytrace

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/tribag/internal/mesh"
)

// Normal returns the unit surface normal at h. Faces with vertex normals
// interpolate them at the hit's barycentric coordinates. For oriented
// solids the outward normal is returned as is; otherwise it is flipped so
// an in hit's normal faces back along the ray and an out hit's normal
// points along it.
func (s *Solid) Normal(h Hit) mgl64.Vec3 {
	n, ok := s.tris.shadingNormal(h.Tri, h.U, h.V)
	if !ok {
		n = s.tris.unitNormal(h.Tri)
	}
	if s.orientation != mesh.Unoriented && !s.mode.IsPlate() && s.mode != mesh.ModeSurface {
		return n
	}
	if (h.Exit && h.DN < 0) || (!h.Exit && h.DN > 0) {
		return n.Mul(-1)
	}
	return n
}

// Point returns the position of h along r.
func Point(r Ray, h Hit) mgl64.Vec3 {
	if nr, ok := r.normalized(); ok {
		r = nr
	}
	return r.At(h.Dist)
}
