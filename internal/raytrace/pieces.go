package raytrace

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// piece is a run of consecutive arena triangles with a conservative box.
type piece struct {
	start, end int
	min, max   mgl64.Vec3
}

// buildPieces groups the arena into runs of size triangles. Each box covers
// the member vertices pushed out along the unit normal by the line-of-sight
// half thickness in both directions: the plate thickness (appended) or
// 0.51 of it (centered) for plate solids, the distance tolerance otherwise.
func buildPieces(s *Solid, size int) []piece {
	n := s.tris.len()
	out := make([]piece, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		p := piece{start: start, end: min(start+size, n)}
		for i := p.start; i < p.end; i++ {
			off := s.tris.unitNormal(i).Mul(s.losHalf(i))
			for k, v := range s.tris.vertices(i) {
				lo, hi := v.Sub(off), v.Add(off)
				if i == p.start && k == 0 {
					p.min, p.max = lo, lo
				}
				for _, q := range [2]mgl64.Vec3{lo, hi} {
					for a := 0; a < 3; a++ {
						p.min[a] = min(p.min[a], q[a])
						p.max[a] = max(p.max[a], q[a])
					}
				}
			}
		}
		out = append(out, p)
	}
	return out
}

func (s *Solid) losHalf(tri int) float64 {
	if !s.mode.IsPlate() {
		return s.tol.Dist
	}
	face := s.tris.face(tri)
	if s.appendThickness[face] {
		return s.thickness[face]
	}
	return 0.51 * s.thickness[face]
}

// Pieces returns the number of pieces, 0 when the solid has no piece
// index.
func (s *Solid) Pieces() int {
	return len(s.pieces)
}

// PieceBounds returns the box of piece i.
func (s *Solid) PieceBounds(i int) (min, max mgl64.Vec3, err error) {
	if i < 0 || i >= len(s.pieces) {
		return min, max, fmt.Errorf("piece %d of %d: %w", i, len(s.pieces), ErrInvalidArgument)
	}
	return s.pieces[i].min, s.pieces[i].max, nil
}

// PieceTriangles returns the half-open range of arena triangles in piece i.
func (s *Solid) PieceTriangles(i int) (start, end int, err error) {
	if i < 0 || i >= len(s.pieces) {
		return 0, 0, fmt.Errorf("piece %d of %d: %w", i, len(s.pieces), ErrInvalidArgument)
	}
	return s.pieces[i].start, s.pieces[i].end, nil
}
