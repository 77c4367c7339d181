package raytrace

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/tribag/internal/logger"
	"github.com/Faultbox/tribag/internal/mesh"
	pkgmath "github.com/Faultbox/tribag/pkg/math"
)

// Solid is a mesh prepared for ray intersection. It copies the geometry it
// needs, so later edits to the source mesh do not affect it. A Solid is
// immutable and safe for concurrent use.
type Solid struct {
	mode        mesh.Mode
	orientation mesh.Orientation

	thickness       []float64 // by source face
	appendThickness []bool

	tris   geometry
	pieces []piece

	tol Tolerance
	rep Reporter

	min, max mgl64.Vec3
	center   mgl64.Vec3
	aRadius  float64
	bRadius  float64
}

// Prepare validates m and builds its triangle arena and, when the mesh is
// large enough, its piece index.
//
// Faces with out-of-range vertex indices or degenerate geometry are
// skipped and reported. ErrEmptyMesh is returned when nothing survives;
// a nil mesh, unknown mode or orientation, mismatched plate arrays and bad options
// return ErrInvalidArgument.
func Prepare(m *mesh.Mesh, tol Tolerance, opts Options) (*Solid, error) {
	if m == nil {
		return nil, fmt.Errorf("nil mesh: %w", ErrInvalidArgument)
	}
	if !m.Mode.Valid() {
		return nil, fmt.Errorf("mode %d: %w", int(m.Mode), ErrInvalidArgument)
	}
	if !m.Orientation.Valid() {
		return nil, fmt.Errorf("orientation %d: %w", int(m.Orientation), ErrInvalidArgument)
	}
	if m.Mode.IsPlate() && (len(m.Thickness) != len(m.Faces) || len(m.AppendThickness) != len(m.Faces)) {
		return nil, fmt.Errorf("plate arrays do not match %d faces: %w", len(m.Faces), ErrInvalidArgument)
	}
	tol, err := tol.normalized()
	if err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	s := &Solid{
		mode:        m.Mode,
		orientation: m.Orientation,
		tol:         tol,
		rep:         opts.Reporter,
	}
	if s.rep == nil {
		s.rep = defaultReporter()
	}
	if m.Mode.IsPlate() {
		s.thickness = append([]float64(nil), m.Thickness...)
		s.appendThickness = append([]bool(nil), m.AppendThickness...)
	}

	var ok bool
	switch opts.Precision {
	case PrecisionSingle:
		var g *arena[float32, int8]
		g, ok = buildArena[float32, int8](s, m)
		s.tris = g
	default:
		var g *arena[float64, float64]
		g, ok = buildArena[float64, float64](s, m)
		s.tris = g
	}
	if !ok {
		return nil, fmt.Errorf("%d faces, none usable: %w", len(m.Faces), ErrEmptyMesh)
	}

	s.finishBounds()
	if opts.MinPieces > 0 && s.tris.len() >= opts.MinPieces {
		s.pieces = buildPieces(s, opts.TrisPerPiece)
	}

	logger.Debug("solid prepared",
		zap.Stringer("mode", s.mode),
		zap.Stringer("orientation", s.orientation),
		zap.Int("faces", len(m.Faces)),
		zap.Int("triangles", s.tris.len()),
		zap.Int("pieces", len(s.pieces)),
		zap.Stringer("precision", opts.Precision))
	return s, nil
}

// buildArena converts every usable face of m and grows the solid's raw
// bounding box. ok is false when no face was usable.
func buildArena[T pkgmath.Float, N pkgmath.NormalElem](s *Solid, m *mesh.Mesh) (*arena[T, N], bool) {
	g := &arena[T, N]{tris: make([]triangle[T, N], 0, len(m.Faces))}
	useNormals := m.UseNormals && m.HasFaceNormals()
	nv := len(m.Vertices)

	for i, f := range m.Faces {
		if f[0] < 0 || f[0] >= nv || f[1] < 0 || f[1] >= nv || f[2] < 0 || f[2] >= nv {
			s.rep.Report(Event{Kind: EventBadIndex, Face: i, Detail: "face references a missing vertex"})
			continue
		}
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		if degenerate(a, b, c, &s.tol) {
			s.rep.Report(Event{Kind: EventDegenerateFace, Face: i, Detail: "degenerate face skipped"})
			continue
		}
		wn := b.Sub(a).Cross(c.Sub(a))
		wl := wn.Len()
		if wl < s.tol.Dist {
			s.rep.Report(Event{Kind: EventDegenerateFace, Face: i, Detail: "collinear face skipped"})
			continue
		}
		n := wn.Mul(1 / wl)
		if s.orientation == mesh.CW {
			n = n.Mul(-1)
		}

		t := newTriangle[T, N](a, b, c, wn, n, i)
		if useNormals {
			if vn, ok := cornerNormals(m, i); ok {
				t.setNormals(vn)
			} else {
				s.rep.Report(Event{Kind: EventBadNormals, Face: i, Detail: "vertex normals ignored"})
			}
		}
		g.tris = append(g.tris, t)

		if len(g.tris) == 1 {
			s.min, s.max = a, a
		}
		for _, p := range [3]mgl64.Vec3{a, b, c} {
			s.grow(p)
		}
	}
	return g, len(g.tris) > 0
}

func degenerate(a, b, c mgl64.Vec3, tol *Tolerance) bool {
	for _, d := range [3]mgl64.Vec3{b.Sub(a), c.Sub(b), a.Sub(c)} {
		if d.Dot(d) < tol.DistSq {
			return true
		}
	}
	return false
}

func cornerNormals(m *mesh.Mesh, face int) ([3]mgl64.Vec3, bool) {
	var out [3]mgl64.Vec3
	for c, idx := range m.FaceNormals[face] {
		if idx < 0 || idx >= len(m.Normals) {
			return out, false
		}
		n := m.Normals[idx]
		l := n.Len()
		if l == 0 {
			return out, false
		}
		out[c] = n.Mul(1 / l)
	}
	return out, true
}

func (s *Solid) grow(p mgl64.Vec3) {
	for a := 0; a < 3; a++ {
		s.min[a] = min(s.min[a], p[a])
		s.max[a] = max(s.max[a], p[a])
	}
}

// finishBounds inflates flat axes and derives center and radii.
func (s *Solid) finishBounds() {
	for a := 0; a < 3; a++ {
		if s.max[a]-s.min[a] < s.tol.Dist {
			s.min[a] -= s.tol.Dist
			s.max[a] += s.tol.Dist
		}
	}
	half := s.max.Sub(s.min).Mul(0.5)
	s.center = s.min.Add(half)
	s.aRadius = max(half[0], half[1], half[2])
	s.bRadius = half.Len()
}

// Bounds returns the axis-aligned bounding box.
func (s *Solid) Bounds() (min, max mgl64.Vec3) {
	return s.min, s.max
}

// Center returns the center of the bounding box.
func (s *Solid) Center() mgl64.Vec3 {
	return s.center
}

// ARadius returns the largest half extent of the bounding box.
func (s *Solid) ARadius() float64 {
	return s.aRadius
}

// BRadius returns the half diagonal of the bounding box, the radius of a
// sphere around Center enclosing the solid.
func (s *Solid) BRadius() float64 {
	return s.bRadius
}

// Mode returns the mesh mode the solid was prepared with.
func (s *Solid) Mode() mesh.Mode {
	return s.mode
}

// Orientation returns the mesh orientation the solid was prepared with.
func (s *Solid) Orientation() mesh.Orientation {
	return s.orientation
}

// NumTriangles returns the number of usable faces.
func (s *Solid) NumTriangles() int {
	return s.tris.len()
}

// Tolerance returns the tolerance the solid was prepared with.
func (s *Solid) Tolerance() Tolerance {
	return s.tol
}

// Triangle returns the vertices and source face of prepared triangle i.
func (s *Solid) Triangle(i int) (verts [3]mgl64.Vec3, face int) {
	return s.tris.vertices(i), s.tris.face(i)
}
