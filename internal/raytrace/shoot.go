package raytrace

import (
	"fmt"
)

// Shoot intersects r with every triangle of the solid and returns the
// segments of r inside it, nearest first. A ray with a zero direction
// misses.
func (s *Solid) Shoot(r Ray) []Segment {
	r, ok := r.normalized()
	if !ok {
		return nil
	}
	hits := s.hitsAlong(r, nil)
	sortHits(hits)
	return s.makeSegments(hits)
}

// hitsAlong appends the unsorted hits of the unit ray r on every triangle.
func (s *Solid) hitsAlong(r Ray, hits []Hit) []Hit {
	var h Hit
	for i, n := 0, s.tris.len(); i < n; i++ {
		if s.tris.intersect(i, r, &s.tol, &h) {
			hits = append(hits, h)
		}
	}
	return hits
}

// Accumulator collects the hits of one ray across repeated ShootPieces
// calls, for callers that walk a spatial partition cell by cell. It is not
// safe for concurrent use; use one per ray.
type Accumulator struct {
	solid   *Solid
	ray     Ray
	started bool
	shot    []uint64 // bit per piece
	hits    []Hit

	done bool
	segs []Segment
}

// NewAccumulator returns an empty accumulator for this solid.
func (s *Solid) NewAccumulator() *Accumulator {
	return &Accumulator{
		solid: s,
		shot:  make([]uint64, (len(s.pieces)+63)/64),
	}
}

// Reset clears acc for a new ray, keeping its storage.
func (acc *Accumulator) Reset() {
	clear(acc.shot)
	acc.hits = acc.hits[:0]
	acc.segs = nil
	acc.started = false
	acc.done = false
}

// Hits returns the number of hits collected so far.
func (acc *Accumulator) Hits() int {
	return len(acc.hits)
}

// ShootPieces intersects r with the triangles of the listed pieces and
// adds the hits to acc. Pieces already shot for this accumulator are
// skipped, so a caller may pass overlapping lists as the ray crosses
// partition cells. Every call for one accumulator must use the same ray.
func (s *Solid) ShootPieces(acc *Accumulator, r Ray, pieces []int) error {
	if acc == nil || acc.solid != s {
		return fmt.Errorf("accumulator belongs to another solid: %w", ErrInvalidArgument)
	}
	if acc.done {
		return fmt.Errorf("ray already completed: %w", ErrInvalidArgument)
	}
	nr, ok := r.normalized()
	if !ok {
		return fmt.Errorf("zero ray direction: %w", ErrInvalidArgument)
	}
	for _, p := range pieces {
		if p < 0 || p >= len(s.pieces) {
			return fmt.Errorf("piece %d of %d: %w", p, len(s.pieces), ErrInvalidArgument)
		}
	}

	if !acc.started {
		acc.ray = nr
		acc.started = true
	} else if nr != acc.ray {
		return fmt.Errorf("accumulator holds a different ray: %w", ErrInvalidArgument)
	}

	var h Hit
	for _, p := range pieces {
		word, bit := p/64, uint64(1)<<(p%64)
		if acc.shot[word]&bit != 0 {
			continue
		}
		acc.shot[word] |= bit
		pc := &s.pieces[p]
		for i := pc.start; i < pc.end; i++ {
			if s.tris.intersect(i, nr, &s.tol, &h) {
				acc.hits = append(acc.hits, h)
			}
		}
	}
	return nil
}

// Complete sorts the accumulated hits and forms the segments. Later calls
// return the same segments.
func (acc *Accumulator) Complete() []Segment {
	if acc.done {
		return acc.segs
	}
	acc.done = true
	sortHits(acc.hits)
	acc.segs = acc.solid.makeSegments(acc.hits)
	return acc.segs
}
