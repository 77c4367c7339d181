package raytrace

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// intersectTriangle tests r against the triangle with first vertex a, edge
// vectors ba and ca and weighted normal wn = ba x ca. r.Dir must be unit
// length.
//
// It returns the hit distance and the barycentric weights u (of B) and v
// (of C). Rays running along the face plane miss. The inside test accepts
// points up to EdgeEpsilon*|dn| outside an edge, so a ray through an edge
// shared by two faces hits both.
func intersectTriangle(a, ba, ca, wn mgl64.Vec3, r Ray, tol *Tolerance) (dist, u, v float64, ok bool) {
	dn := wn.Dot(r.Dir)
	absDN := math.Abs(dn)
	if absDN < tol.MinDN {
		return 0, 0, 0, false
	}

	wxb := a.Sub(r.Origin)
	xp := wxb.Cross(r.Dir)
	eps := tol.EdgeEpsilon * absDN
	hi := absDN + eps

	alpha := ca.Dot(xp)
	if dn < 0 {
		alpha = -alpha
	}
	if alpha < -eps || alpha > hi {
		return 0, 0, 0, false
	}

	beta := ba.Dot(xp)
	if dn > 0 {
		beta = -beta
	}
	if beta < -eps || beta > hi {
		return 0, 0, 0, false
	}
	if alpha+beta > hi {
		return 0, 0, 0, false
	}

	return wxb.Dot(wn) / dn, alpha / absDN, beta / absDN, true
}
