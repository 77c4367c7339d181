// Package tessellate turns signed distance solids into triangle meshes.
//
// Shapes come from github.com/deadsy/sdfx and are sampled with uniform
// marching cubes. The raw triangle soup is welded into an indexed mesh with
// outward counter-clockwise faces, ready for raytrace.Prepare.
package tessellate

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/tribag/internal/logger"
	"github.com/Faultbox/tribag/internal/mesh"
)

// DefaultCells is the marching cubes resolution along the longest side.
const DefaultCells = 64

// snapFraction sets the weld lattice as a fraction of the bounding
// diagonal. Marching cubes interpolates a shared edge once per adjacent
// cell, not always in the same order.
const snapFraction = 1e-9

// Mesh samples s on a uniform grid of cells along its longest side and
// returns the welded solid mesh.
func Mesh(s sdf.SDF3, cells int) (*mesh.Mesh, error) {
	if cells <= 0 {
		return nil, fmt.Errorf("cells %d: %w", cells, mesh.ErrInvalidArgument)
	}

	tris := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))
	if len(tris) == 0 {
		return nil, fmt.Errorf("tessellation produced no triangles")
	}

	bb := s.BoundingBox()
	diag := math.Sqrt(sq(bb.Max.X-bb.Min.X) + sq(bb.Max.Y-bb.Min.Y) + sq(bb.Max.Z-bb.Min.Z))
	q := diag * snapFraction

	m := &mesh.Mesh{
		Mode:        mesh.ModeSolid,
		Orientation: mesh.CCW,
		Vertices:    make([]mgl64.Vec3, 0, 3*len(tris)),
		Faces:       make([][3]int, 0, len(tris)),
	}
	for _, tri := range tris {
		n := len(m.Vertices)
		for j := 0; j < 3; j++ {
			v := tri[j]
			m.Vertices = append(m.Vertices, mgl64.Vec3{snap(v.X, q), snap(v.Y, q), snap(v.Z, q)})
		}
		m.Faces = append(m.Faces, [3]int{n, n + 1, n + 2})
	}

	fused, err := mesh.VertexFuse(m)
	if err != nil {
		return nil, err
	}
	slivers := mesh.RemoveDegenerate(m)
	if _, err := mesh.Condense(m); err != nil {
		return nil, err
	}
	if len(m.Faces) == 0 {
		return nil, fmt.Errorf("tessellation collapsed to nothing")
	}
	if mesh.Volume(m) < 0 {
		mesh.Flip(m)
		m.Orientation = mesh.CCW
	}

	logger.Named("tessellate").Debug("tessellated",
		zap.Int("cells", cells),
		zap.Int("triangles", len(tris)),
		zap.Int("fused", fused),
		zap.Int("slivers", slivers),
		zap.Int("faces", len(m.Faces)),
		zap.Int("vertices", len(m.Vertices)))
	return m, nil
}

func snap(x, q float64) float64 {
	if q == 0 {
		return x
	}
	return math.Round(x/q) * q
}

func sq(x float64) float64 {
	return x * x
}
