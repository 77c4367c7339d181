package mesh

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// EdgeStats summarizes the edge lengths of a mesh.
type EdgeStats struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// EdgeLengths returns the length of every distinct edge in ascending edge
// order.
func EdgeLengths(m *Mesh) []float64 {
	edges := BuildEdgeTable(m).Edges()
	out := make([]float64, len(edges))
	for i, e := range edges {
		out[i] = m.Vertices[e.V1].Sub(m.Vertices[e.V2]).Len()
	}
	return out
}

// ComputeEdgeStats returns edge length statistics. The zero value is
// returned for a mesh without edges.
func ComputeEdgeStats(m *Mesh) EdgeStats {
	lengths := EdgeLengths(m)
	if len(lengths) == 0 {
		return EdgeStats{}
	}
	s := EdgeStats{
		Count: len(lengths),
		Min:   floats.Min(lengths),
		Max:   floats.Max(lengths),
		Mean:  stat.Mean(lengths, nil),
	}
	if len(lengths) > 1 {
		s.StdDev = stat.StdDev(lengths, nil)
	}
	return s
}

// MinEdge returns the shortest edge length, 0 for a mesh without edges.
func MinEdge(m *Mesh) float64 {
	return ComputeEdgeStats(m).Min
}

// MaxEdge returns the longest edge length, 0 for a mesh without edges.
func MaxEdge(m *Mesh) float64 {
	return ComputeEdgeStats(m).Max
}

// Volume returns the enclosed volume of a closed mesh by summing the
// signed tetrahedra from the origin to each face. The result is negative
// when the winding disagrees with m.Orientation, and meaningless for an
// open mesh.
func Volume(m *Mesh) float64 {
	var v float64
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		v += a.Dot(b.Cross(c))
	}
	if m.Orientation == CW {
		v = -v
	}
	return v / 6
}

// Describe returns a multi-line human-readable summary of m.
func Describe(m *Mesh) string {
	var b strings.Builder
	fmt.Fprintf(&b, "mode:        %s\n", m.Mode)
	fmt.Fprintf(&b, "orientation: %s\n", m.Orientation)
	fmt.Fprintf(&b, "vertices:    %d\n", len(m.Vertices))
	fmt.Fprintf(&b, "faces:       %d\n", len(m.Faces))
	if m.HasFaceNormals() {
		fmt.Fprintf(&b, "normals:     %d (use=%t)\n", len(m.Normals), m.UseNormals)
	}

	if err := m.checkFaceIndices(); err != nil {
		fmt.Fprintf(&b, "invalid:     %v\n", err)
		return b.String()
	}

	edges := BuildEdgeTable(m)
	fmt.Fprintf(&b, "edges:       %d (free %d, non-manifold %d)\n",
		edges.Len(), len(edges.FreeEdges()), len(edges.NonManifold()))

	if lo, hi, ok := m.Bounds(); ok {
		fmt.Fprintf(&b, "bounds:      (%g, %g, %g) - (%g, %g, %g)\n", lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
	}
	if m.Mode == ModeSolid && edges.Closed() {
		fmt.Fprintf(&b, "volume:      %g\n", Volume(m))
	}
	if s := ComputeEdgeStats(m); s.Count > 0 {
		fmt.Fprintf(&b, "edge length: min %g max %g mean %g stddev %g\n", s.Min, s.Max, s.Mean, s.StdDev)
	}
	if m.Mode.IsPlate() && len(m.Thickness) > 0 {
		appended := 0
		for _, a := range m.AppendThickness {
			if a {
				appended++
			}
		}
		fmt.Fprintf(&b, "thickness:   min %g max %g (%d appended, %d centered)\n",
			floats.Min(m.Thickness), floats.Max(m.Thickness), appended, len(m.AppendThickness)-appended)
	}
	return b.String()
}
