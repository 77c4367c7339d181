package raytrace

import (
	"cmp"
	"slices"
)

// sortHits orders hits by ascending distance, keeping discovery order for
// equal distances.
func sortHits(hits []Hit) {
	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(a.Dist, b.Dist)
	})
}

// cluster returns the end of the run of hits starting at i whose
// successive distances differ by at most tol.
func cluster(hits []Hit, i int, tol float64) int {
	j := i + 1
	for j < len(hits) && hits[j].Dist-hits[j-1].Dist <= tol {
		j++
	}
	return j
}

// dedupOriented merges coincident hits of an oriented solid. Within a
// cluster, entries collapse to the first entry and exits to the last exit.
// A cluster holding both keeps one entry and one exit, ordered so the pair
// is consistent with whether the ray was inside the solid before the
// cluster. hits must be sorted; the result reuses its storage.
func dedupOriented(hits []Hit, tol float64, rep Reporter) []Hit {
	out := hits[:0]
	inside := false
	for i := 0; i < len(hits); {
		j := cluster(hits, i, tol)
		if j-i == 1 {
			out = append(out, hits[i])
			inside = hits[i].Entering()
			i = j
			continue
		}

		firstIn, lastIn, firstOut, lastOut := -1, -1, -1, -1
		for k := i; k < j; k++ {
			if hits[k].Entering() {
				if firstIn < 0 {
					firstIn = k
				}
				lastIn = k
			} else {
				if firstOut < 0 {
					firstOut = k
				}
				lastOut = k
			}
		}

		switch {
		case firstOut < 0:
			out = append(out, hits[firstIn])
			inside = true
			rep.Report(Event{Kind: EventMergedHits, Face: hits[firstIn].Face, Dist: hits[firstIn].Dist, Count: j - i})
		case firstIn < 0:
			out = append(out, hits[lastOut])
			inside = false
			rep.Report(Event{Kind: EventMergedHits, Face: hits[lastOut].Face, Dist: hits[lastOut].Dist, Count: j - i})
		case inside:
			exit, entry := hits[firstOut], hits[lastIn]
			entry.Dist = max(entry.Dist, exit.Dist)
			out = append(out, exit, entry)
			rep.Report(Event{Kind: EventGraze, Face: exit.Face, Dist: exit.Dist, Count: j - i})
		default:
			entry, exit := hits[firstIn], hits[lastOut]
			exit.Dist = max(exit.Dist, entry.Dist)
			out = append(out, entry, exit)
			rep.Report(Event{Kind: EventGraze, Face: entry.Face, Dist: entry.Dist, Count: j - i})
		}
		i = j
	}
	return out
}

// dedupUnoriented collapses every cluster of coincident hits to its first
// member. hits must be sorted; the result reuses its storage.
func dedupUnoriented(hits []Hit, tol float64, rep Reporter) []Hit {
	out := hits[:0]
	for i := 0; i < len(hits); {
		j := cluster(hits, i, tol)
		out = append(out, hits[i])
		if j-i > 1 {
			rep.Report(Event{Kind: EventMergedHits, Face: hits[i].Face, Dist: hits[i].Dist, Count: j - i})
		}
		i = j
	}
	return out
}

// dedupSameSign keeps the first entry and the first exit of every cluster
// of coincident hits, in their original order. A ray through a shared edge
// or vertex of a surface then yields one hit per side. hits must be sorted;
// the result reuses its storage.
func dedupSameSign(hits []Hit, tol float64, rep Reporter) []Hit {
	out := hits[:0]
	for i := 0; i < len(hits); {
		j := cluster(hits, i, tol)
		if j-i == 1 {
			out = append(out, hits[i])
			i = j
			continue
		}
		firstIn, firstOut := -1, -1
		for k := i; k < j; k++ {
			if hits[k].Entering() {
				if firstIn < 0 {
					firstIn = k
				}
			} else if firstOut < 0 {
				firstOut = k
			}
		}
		kept := 0
		for _, k := range []int{min(firstIn, firstOut), max(firstIn, firstOut)} {
			if k >= 0 {
				out = append(out, hits[k])
				kept++
			}
		}
		if kept < j-i {
			rep.Report(Event{Kind: EventMergedHits, Face: hits[i].Face, Dist: hits[i].Dist, Count: j - i})
		}
		i = j
	}
	return out
}
