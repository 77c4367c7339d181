package raytrace

import (
	"github.com/go-gl/mathgl/mgl64"

	pkgmath "github.com/Faultbox/tribag/pkg/math"
)

// triangle is a prepared face. Positions are stored with element type T and
// vertex normals with element type N; all arithmetic runs in float64.
type triangle[T pkgmath.Float, N pkgmath.NormalElem] struct {
	a  pkgmath.Vec3[T] // first vertex
	ba pkgmath.Vec3[T] // B - A
	ca pkgmath.Vec3[T] // C - A
	wn pkgmath.Vec3[T] // (B - A) x (C - A)
	n  pkgmath.Vec3[T] // unit outward normal

	vn         [3]pkgmath.Normal3[N]
	hasNormals bool

	face int
}

// arena holds every prepared triangle of one solid in build order.
type arena[T pkgmath.Float, N pkgmath.NormalElem] struct {
	tris []triangle[T, N]
}

// geometry is the width-independent view of an arena.
type geometry interface {
	len() int
	face(i int) int
	intersect(i int, r Ray, tol *Tolerance, h *Hit) bool
	vertices(i int) [3]mgl64.Vec3
	unitNormal(i int) mgl64.Vec3
	shadingNormal(i int, u, v float64) (mgl64.Vec3, bool)
}

func newTriangle[T pkgmath.Float, N pkgmath.NormalElem](a, b, c, wn, n mgl64.Vec3, face int) triangle[T, N] {
	return triangle[T, N]{
		a:    pkgmath.FromVec64[T](a),
		ba:   pkgmath.FromVec64[T](b.Sub(a)),
		ca:   pkgmath.FromVec64[T](c.Sub(a)),
		wn:   pkgmath.FromVec64[T](wn),
		n:    pkgmath.FromVec64[T](n),
		face: face,
	}
}

func (t *triangle[T, N]) setNormals(n [3]mgl64.Vec3) {
	for i := range n {
		t.vn[i] = pkgmath.QuantizeNormal[N](n[i])
	}
	t.hasNormals = true
}

func (g *arena[T, N]) len() int {
	return len(g.tris)
}

func (g *arena[T, N]) face(i int) int {
	return g.tris[i].face
}

func (g *arena[T, N]) intersect(i int, r Ray, tol *Tolerance, h *Hit) bool {
	t := &g.tris[i]
	dist, u, v, ok := intersectTriangle(t.a.Vec64(), t.ba.Vec64(), t.ca.Vec64(), t.wn.Vec64(), r, tol)
	if !ok {
		return false
	}
	*h = Hit{
		Dist: dist,
		Tri:  i,
		Face: t.face,
		DN:   t.n.Vec64().Dot(r.Dir),
		U:    u,
		V:    v,
	}
	return true
}

func (g *arena[T, N]) vertices(i int) [3]mgl64.Vec3 {
	t := &g.tris[i]
	a := t.a.Vec64()
	return [3]mgl64.Vec3{a, a.Add(t.ba.Vec64()), a.Add(t.ca.Vec64())}
}

func (g *arena[T, N]) unitNormal(i int) mgl64.Vec3 {
	return g.tris[i].n.Vec64()
}

// shadingNormal interpolates the vertex normals at barycentric (u, v).
func (g *arena[T, N]) shadingNormal(i int, u, v float64) (mgl64.Vec3, bool) {
	t := &g.tris[i]
	if !t.hasNormals {
		return mgl64.Vec3{}, false
	}
	w := 1 - u - v
	n := t.vn[0].Vec64().Mul(w).
		Add(t.vn[1].Vec64().Mul(u)).
		Add(t.vn[2].Vec64().Mul(v))
	l := n.Len()
	if l == 0 {
		return mgl64.Vec3{}, false
	}
	return n.Mul(1 / l), true
}
