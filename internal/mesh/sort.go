package mesh

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SortFaces reorders the faces so that each run of trisPerPiece consecutive
// faces is spatially coherent. A run starts at the lowest-numbered
// unplaced face and grows greedily: faces sharing an edge with the run
// first, then faces sharing a vertex, then the face whose centroid lies
// nearest the run's first face. Ties go to the lowest face index. All
// per-face arrays are permuted in step.
func SortFaces(m *Mesh, trisPerPiece int) error {
	if trisPerPiece <= 0 {
		return fmt.Errorf("tris per piece %d: %w", trisPerPiece, ErrInvalidArgument)
	}
	if err := m.checkFaceIndices(); err != nil {
		return err
	}
	if len(m.Faces) <= 1 {
		return nil
	}

	incident := vertexFaces(m.Faces, len(m.Vertices))
	placed := make([]bool, len(m.Faces))
	order := make([]int, 0, len(m.Faces))
	next := 0

	for len(order) < len(m.Faces) {
		for placed[next] {
			next++
		}
		seed := next
		placed[seed] = true
		order = append(order, seed)

		inPiece := map[int]bool{}
		for _, v := range m.Faces[seed] {
			inPiece[v] = true
		}
		seedCenter := m.FaceCenter(seed)

		for n := 1; n < trisPerPiece && len(order) < len(m.Faces); n++ {
			best, bestShared := -1, 0
			for v := range inPiece {
				for _, f := range incident[v] {
					if placed[f] {
						continue
					}
					shared := 0
					for _, w := range m.Faces[f] {
						if inPiece[w] {
							shared++
						}
					}
					if shared > bestShared || (shared == bestShared && f < best) {
						best, bestShared = f, shared
					}
				}
			}
			if best < 0 {
				best = m.nearestUnplaced(seedCenter, placed)
			}
			placed[best] = true
			order = append(order, best)
			for _, v := range m.Faces[best] {
				inPiece[v] = true
			}
		}
	}

	m.reorderFaces(order)
	return nil
}

func (m *Mesh) nearestUnplaced(p mgl64.Vec3, placed []bool) int {
	best, bestDist := -1, math.Inf(1)
	for i := range m.Faces {
		if placed[i] {
			continue
		}
		d := m.FaceCenter(i).Sub(p)
		if d := d.Dot(d); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// vertexFaces lists, for each vertex, the faces that use it in ascending
// order.
func vertexFaces(faces [][3]int, numVertices int) [][]int {
	out := make([][]int, numVertices)
	for i, f := range faces {
		for c, v := range f {
			if c > 0 && (f[0] == v || (c == 2 && f[1] == v)) {
				continue
			}
			out[v] = append(out[v], i)
		}
	}
	return out
}
