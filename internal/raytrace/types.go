// Package raytrace intersects rays with triangle meshes.
//
// Prepare turns a mesh.Mesh into an immutable Solid: an arena of
// precomputed triangles plus, for larger meshes, a piece index of
// fixed-size triangle runs with conservative boxes. Shoot returns the
// segments of a ray inside the solid. Callers walking their own spatial
// partition use ShootPieces with an Accumulator and form segments once with
// Complete.
//
// Segment building depends on the mesh mode. Oriented solids classify hits
// by the sign of direction . normal and run an entry/exit state machine;
// unoriented solids pair hits in order; surfaces yield zero-length
// segments; plates give each hit the thickness of its face.
package raytrace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/tribag/internal/mesh"
)

var (
	// ErrEmptyMesh is returned by Prepare when no face survives validation.
	ErrEmptyMesh = errors.New("empty mesh")

	// ErrInvalidArgument is mesh.ErrInvalidArgument, re-exported so callers
	// of this package need not import mesh to test for it.
	ErrInvalidArgument = mesh.ErrInvalidArgument
)

// Ray is a half line. Dir need not be unit length; distances reported in
// hits are measured along the normalized direction.
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

func (r Ray) normalized() (Ray, bool) {
	l := r.Dir.Len()
	if l == 0 {
		return r, false
	}
	return Ray{Origin: r.Origin, Dir: r.Dir.Mul(1 / l)}, true
}

// Hit is one ray/triangle intersection.
type Hit struct {
	Dist float64
	Tri  int     // index of the triangle in the prepared solid
	Face int     // index of the face in the source mesh
	DN   float64 // ray direction dot unit outward normal; negative enters
	U    float64 // barycentric weight of the second vertex
	V    float64 // barycentric weight of the third vertex
	Exit bool    // set on the out hit of a segment
}

// Entering reports whether the hit enters an oriented solid.
func (h Hit) Entering() bool {
	return h.DN < 0
}

func (h Hit) inverted() Hit {
	h.DN = -h.DN
	return h
}

// Segment is the part of a ray inside the solid.
type Segment struct {
	In  Hit
	Out Hit
}

// Length returns the in-solid distance.
func (s Segment) Length() float64 {
	return s.Out.Dist - s.In.Dist
}

// Tolerance is the numeric tolerance bundle used by Prepare and shooting.
type Tolerance struct {
	// Dist is the linear distance tolerance: shorter triangle edges are
	// degenerate and closer hits are coincident.
	Dist float64

	// DistSq is Dist squared. Zero means derive it from Dist.
	DistSq float64

	// MinDN is the smallest |direction . weighted normal| treated as a
	// crossing; smaller values mean the ray runs along the face.
	MinDN float64

	// EdgeEpsilon widens the inside-triangle test by this fraction of
	// |direction . weighted normal| so rays through a shared edge hit both
	// neighbors.
	EdgeEpsilon float64
}

// DefaultTolerance returns the tolerance used when none is configured.
func DefaultTolerance() Tolerance {
	return Tolerance{
		Dist:        0.0005,
		DistSq:      0.0005 * 0.0005,
		MinDN:       1e-9,
		EdgeEpsilon: 1e-9,
	}
}

func (t Tolerance) normalized() (Tolerance, error) {
	if t.Dist <= 0 {
		return t, fmt.Errorf("distance tolerance %g: %w", t.Dist, ErrInvalidArgument)
	}
	if t.MinDN < 0 || t.EdgeEpsilon < 0 {
		return t, fmt.Errorf("negative tolerance: %w", ErrInvalidArgument)
	}
	if t.DistSq <= 0 {
		t.DistSq = t.Dist * t.Dist
	}
	return t, nil
}

// Precision selects the storage width of prepared triangles.
type Precision int

const (
	// PrecisionDouble stores positions and normals as float64.
	PrecisionDouble Precision = iota
	// PrecisionSingle stores positions as float32 and vertex normals
	// quantized to int8.
	PrecisionSingle
)

func (p Precision) String() string {
	switch p {
	case PrecisionDouble:
		return "double"
	case PrecisionSingle:
		return "single"
	}
	return fmt.Sprintf("Precision(%d)", int(p))
}

// ParsePrecision converts "double" or "single".
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(s) {
	case "double", "":
		return PrecisionDouble, nil
	case "single":
		return PrecisionSingle, nil
	}
	return 0, fmt.Errorf("precision %q: %w", s, ErrInvalidArgument)
}

// Options tunes Prepare.
type Options struct {
	// MinPieces is the smallest triangle count for which a piece index is
	// built. Zero disables pieces.
	MinPieces int

	// TrisPerPiece is the number of triangles per piece, a power of two.
	TrisPerPiece int

	Precision Precision

	// Reporter receives geometric diagnostics. Nil uses a sampled logger.
	Reporter Reporter
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		MinPieces:    32,
		TrisPerPiece: 4,
		Precision:    PrecisionDouble,
	}
}

func (o Options) validate() error {
	if o.MinPieces < 0 {
		return fmt.Errorf("min pieces %d: %w", o.MinPieces, ErrInvalidArgument)
	}
	if o.MinPieces > 0 && (o.TrisPerPiece <= 0 || o.TrisPerPiece&(o.TrisPerPiece-1) != 0) {
		return fmt.Errorf("tris per piece %d is not a power of two: %w", o.TrisPerPiece, ErrInvalidArgument)
	}
	if o.Precision != PrecisionDouble && o.Precision != PrecisionSingle {
		return fmt.Errorf("precision %d: %w", int(o.Precision), ErrInvalidArgument)
	}
	return nil
}
