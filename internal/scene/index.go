package scene

import (
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/tribag/internal/raytrace"
)

// R-tree branching limits.
const (
	treeMinChildren = 4
	treeMaxChildren = 16
)

// DefaultCells is the number of cells a ray is split into when walking the
// piece index.
const DefaultCells = 8

// pieceBox is one piece of a solid as stored in the R-tree.
type pieceBox struct {
	id   int
	box  AABB
	rect rtreego.Rect
}

func (p *pieceBox) Bounds() rtreego.Rect {
	return p.rect
}

// PieceIndex is an R-tree over the piece boxes of a prepared solid. It
// walks a ray through the solid's bounding box cell by cell and shoots
// only the pieces whose boxes the ray crosses in each cell.
//
// A PieceIndex is safe for concurrent use by multiple goroutines as long
// as each uses its own accumulator.
type PieceIndex struct {
	solid  *raytrace.Solid
	tree   *rtreego.Rtree
	bounds AABB
	pad    float64
	cells  int
}

// NewPieceIndex builds the R-tree for s. A solid without pieces gets an
// empty index whose Shoot falls back to shooting every triangle.
func NewPieceIndex(s *raytrace.Solid, cells int) (*PieceIndex, error) {
	if cells <= 0 {
		return nil, fmt.Errorf("cells %d: %w", cells, raytrace.ErrInvalidArgument)
	}
	lo, hi := s.Bounds()
	ix := &PieceIndex{
		solid:  s,
		tree:   rtreego.NewTree(3, treeMinChildren, treeMaxChildren),
		pad:    s.Tolerance().Dist,
		cells:  cells,
		bounds: AABB{Min: lo, Max: hi},
	}
	for i := 0; i < s.Pieces(); i++ {
		pmin, pmax, err := s.PieceBounds(i)
		if err != nil {
			return nil, err
		}
		box := AABB{Min: pmin, Max: pmax}
		rect, err := ix.rect(box)
		if err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}
		ix.bounds.Min = minVec(ix.bounds.Min, pmin)
		ix.bounds.Max = maxVec(ix.bounds.Max, pmax)
		ix.tree.Insert(&pieceBox{id: i, box: box, rect: rect})
	}
	return ix, nil
}

// Solid returns the indexed solid.
func (ix *PieceIndex) Solid() *raytrace.Solid {
	return ix.solid
}

// Size returns the number of indexed pieces.
func (ix *PieceIndex) Size() int {
	return ix.tree.Size()
}

// rect converts box to an R-tree rectangle, padding flat sides.
func (ix *PieceIndex) rect(box AABB) (rtreego.Rect, error) {
	box = box.Pad(ix.pad)
	return rtreego.NewRectFromPoints(
		rtreego.Point{box.Min[0], box.Min[1], box.Min[2]},
		rtreego.Point{box.Max[0], box.Max[1], box.Max[2]},
	)
}

// Shoot returns the in-solid segments of r. acc must come from the indexed
// solid, or be nil; it is reset before use. With no pieces the whole solid
// is shot.
func (ix *PieceIndex) Shoot(acc *raytrace.Accumulator, r raytrace.Ray) ([]raytrace.Segment, error) {
	l := r.Dir.Len()
	if l == 0 {
		return nil, fmt.Errorf("zero ray direction: %w", raytrace.ErrInvalidArgument)
	}
	if ix.tree.Size() == 0 {
		return ix.solid.Shoot(r), nil
	}
	// Cells are measured along the unit ray; the kernel gets r as given.
	u := raytrace.Ray{Origin: r.Origin, Dir: r.Dir.Mul(1 / l)}

	if acc == nil {
		acc = ix.solid.NewAccumulator()
	}
	acc.Reset()
	t0, t1, ok := ClipLine(u, ix.bounds.Pad(ix.pad))
	if !ok {
		return nil, nil
	}

	step := (t1 - t0) / float64(ix.cells)
	ids := make([]int, 0, 16)
	for c := 0; c < ix.cells; c++ {
		a, b := t0+float64(c)*step, t0+float64(c+1)*step
		if c == ix.cells-1 {
			b = t1
		}
		p, q := u.At(a), u.At(b)
		cell, err := ix.rect(AABB{Min: minVec(p, q), Max: maxVec(p, q)})
		if err != nil {
			return nil, err
		}

		ids = ids[:0]
		for _, obj := range ix.tree.SearchIntersect(cell) {
			pb := obj.(*pieceBox)
			if _, _, hit := ClipLine(u, pb.box.Pad(ix.pad)); hit {
				ids = append(ids, pb.id)
			}
		}
		if err := ix.solid.ShootPieces(acc, r, ids); err != nil {
			return nil, err
		}
	}
	return acc.Complete(), nil
}

func minVec(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])}
}

func maxVec(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])}
}
