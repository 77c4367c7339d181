package raytrace

import (
	"math"

	"github.com/Faultbox/tribag/internal/mesh"
)

// makeSegments turns sorted hits into segments according to the solid's
// mode and orientation. hits may be reordered and overwritten.
func (s *Solid) makeSegments(hits []Hit) []Segment {
	if len(hits) == 0 {
		return nil
	}
	switch {
	case s.mode.IsPlate():
		return s.plateSegments(hits)
	case s.mode == mesh.ModeSurface:
		return surfaceSegments(dedupSameSign(hits, s.tol.Dist, s.rep))
	case s.orientation == mesh.Unoriented:
		return unorientedSegments(hits, s.tol.Dist, s.rep)
	default:
		return orientedSegments(hits, s.tol.Dist, s.rep)
	}
}

func pair(in, out Hit) Segment {
	in.Exit = false
	out.Exit = true
	return Segment{In: in, Out: out}
}

// surfaceSegments models a thin shell: every hit is a zero-length segment.
func surfaceSegments(hits []Hit) []Segment {
	segs := make([]Segment, len(hits))
	for i, h := range hits {
		segs[i] = pair(h, h)
	}
	return segs
}

// plateSegments gives every hit the thickness of its face, either centered
// on the hit or appended beyond it. Plate solids correct the thickness for
// the ray's obliquity; the no-cosine variant does not.
func (s *Solid) plateSegments(hits []Hit) []Segment {
	segs := make([]Segment, len(hits))
	for i, h := range hits {
		los := s.thickness[h.Face]
		if s.mode == mesh.ModePlate && h.DN != 0 {
			los = math.Abs(los / h.DN)
		}
		in := h
		if !s.appendThickness[h.Face] {
			in.Dist = h.Dist - los/2
		}
		out := in
		out.Dist = in.Dist + los
		segs[i] = pair(in, out)
	}
	return segs
}

// unorientedSegments pairs hits positionally after merging coincident
// ones. A lone hit, before or after merging, is a zero-length segment.
func unorientedSegments(hits []Hit, tol float64, rep Reporter) []Segment {
	if len(hits) == 1 {
		return []Segment{pair(hits[0], hits[0])}
	}
	hits = dedupUnoriented(hits, tol, rep)
	segs := make([]Segment, 0, (len(hits)+1)/2)
	for i := 0; i+1 < len(hits); i += 2 {
		segs = append(segs, pair(hits[i], hits[i+1]))
	}
	if len(hits)%2 == 1 {
		last := hits[len(hits)-1]
		segs = append(segs, pair(last, last))
	}
	return segs
}

// orientedSegments merges coincident hits, repairs an odd count and runs
// the entry/exit state machine.
func orientedSegments(hits []Hit, tol float64, rep Reporter) []Segment {
	hits = dedupOriented(hits, tol, rep)
	if len(hits)%2 == 1 {
		hits = repairOdd(hits, rep)
	}
	return pairOriented(hits, rep)
}

// repairOdd restores an even hit count without discarding real hits. When
// more than two hits remain, a fictitious entry is inserted before every
// exit that follows an exit (or starts the list), and a fictitious exit
// after every entry that precedes another entry. If the count is still
// odd the last hit is doubled with its sign inverted.
func repairOdd(hits []Hit, rep Reporter) []Hit {
	rep.Report(Event{Kind: EventOddHits, Face: -1, Count: len(hits), Detail: "odd hit count on oriented solid"})

	if len(hits) > 2 {
		fixed := make([]Hit, 0, len(hits)+len(hits)/2+1)
		prevExit := true
		for _, h := range hits {
			switch {
			case prevExit && !h.Entering():
				entry := h.inverted()
				fixed = append(fixed, entry)
				rep.Report(Event{Kind: EventFictitiousHit, Face: h.Face, Dist: h.Dist, Detail: "adding fictitious entry"})
			case !prevExit && h.Entering():
				exit := fixed[len(fixed)-1].inverted()
				fixed = append(fixed, exit)
				rep.Report(Event{Kind: EventFictitiousHit, Face: exit.Face, Dist: exit.Dist, Detail: "adding fictitious exit"})
			}
			fixed = append(fixed, h)
			prevExit = !h.Entering()
		}
		hits = fixed
	}

	if len(hits)%2 == 1 {
		last := hits[len(hits)-1].inverted()
		hits = append(hits, last)
		rep.Report(Event{Kind: EventFictitiousHit, Face: last.Face, Dist: last.Dist, Detail: "adding fictitious hit"})
	}
	return hits
}

type segState int

const (
	stateOutside segState = iota
	stateInside
	statePendingExit
)

// pairOriented scans sorted hits. An entry opens a segment and later
// entries are absorbed (the first one is kept); an exit closes it and
// later exits extend it (the last one is kept) until the next entry.
// Exits seen while outside and an entry left open at the end are dropped.
func pairOriented(hits []Hit, rep Reporter) []Segment {
	var (
		segs  []Segment
		state = stateOutside
		in    Hit
	)
	for _, h := range hits {
		switch state {
		case stateOutside:
			if h.Entering() {
				in = h
				state = stateInside
				continue
			}
			rep.Report(Event{Kind: EventDroppedHit, Face: h.Face, Dist: h.Dist, Detail: "dropping leading exit"})
		case stateInside:
			if h.Entering() {
				continue
			}
			segs = append(segs, pair(in, h))
			state = statePendingExit
		case statePendingExit:
			if h.Entering() {
				in = h
				state = stateInside
				continue
			}
			segs[len(segs)-1] = pair(segs[len(segs)-1].In, h)
		}
	}
	if state == stateInside {
		rep.Report(Event{Kind: EventDroppedHit, Face: in.Face, Dist: in.Dist, Detail: "dropping trailing entry"})
	}
	return segs
}
