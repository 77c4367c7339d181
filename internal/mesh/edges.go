package mesh

import (
	"cmp"
	"slices"
)

// Edge is an undirected edge between two vertices, with V1 < V2.
type Edge struct {
	V1, V2 int
}

// MakeEdge returns the edge between a and b in canonical order.
func MakeEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{a, b}
}

// EdgeTable counts how many faces use each edge. A use count of 1 is a free
// (boundary) edge, 2 an interior edge, more than 2 a non-manifold edge.
type EdgeTable struct {
	adj   []map[int]int // symmetric: adj[a][b] == adj[b][a]
	count int
}

// BuildEdgeTable records every edge of every face of m.
func BuildEdgeTable(m *Mesh) *EdgeTable {
	return buildEdgeTable(m.Faces, len(m.Vertices))
}

func buildEdgeTable(faces [][3]int, numVertices int) *EdgeTable {
	t := &EdgeTable{adj: make([]map[int]int, numVertices)}
	for _, f := range faces {
		t.addFace(f)
	}
	return t
}

func (t *EdgeTable) addFace(f [3]int) {
	for c := 0; c < 3; c++ {
		t.add(f[c], f[(c+1)%3], 1)
	}
}

func (t *EdgeTable) removeFace(f [3]int) {
	for c := 0; c < 3; c++ {
		t.remove(f[c], f[(c+1)%3])
	}
}

func (t *EdgeTable) add(a, b, n int) {
	if a == b || n <= 0 {
		return
	}
	if t.adj[a] == nil {
		t.adj[a] = make(map[int]int)
	}
	if t.adj[b] == nil {
		t.adj[b] = make(map[int]int)
	}
	if t.adj[a][b] == 0 {
		t.count++
	}
	t.adj[a][b] += n
	t.adj[b][a] += n
}

// remove drops one use of edge a-b, deleting the edge when no use remains.
func (t *EdgeTable) remove(a, b int) {
	if a == b || t.adj[a] == nil {
		return
	}
	n, ok := t.adj[a][b]
	if !ok {
		return
	}
	if n <= 1 {
		delete(t.adj[a], b)
		delete(t.adj[b], a)
		t.count--
		return
	}
	t.adj[a][b] = n - 1
	t.adj[b][a] = n - 1
}

// merge moves every edge of vertex from onto vertex to. Edges that become
// duplicates are merged by summing their use counts; the edge from-to
// itself disappears.
func (t *EdgeTable) merge(from, to int) {
	for w, n := range t.adj[from] {
		delete(t.adj[w], from)
		t.count--
		if w == to {
			continue
		}
		t.add(to, w, n)
	}
	t.adj[from] = nil
}

// Len returns the number of distinct edges.
func (t *EdgeTable) Len() int {
	return t.count
}

// Uses returns the use count of edge a-b, 0 when absent.
func (t *EdgeTable) Uses(a, b int) int {
	if a < 0 || a >= len(t.adj) || t.adj[a] == nil {
		return 0
	}
	return t.adj[a][b]
}

// Neighbors returns the vertices sharing an edge with v, ascending.
func (t *EdgeTable) Neighbors(v int) []int {
	if v < 0 || v >= len(t.adj) {
		return nil
	}
	out := make([]int, 0, len(t.adj[v]))
	for w := range t.adj[v] {
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}

// OnFreeEdge reports whether v is an endpoint of a free edge.
func (t *EdgeTable) OnFreeEdge(v int) bool {
	for _, n := range t.adj[v] {
		if n < 2 {
			return true
		}
	}
	return false
}

// Edges returns every edge in ascending order.
func (t *EdgeTable) Edges() []Edge {
	return t.collect(func(int) bool { return true })
}

// FreeEdges returns the edges used by exactly one face.
func (t *EdgeTable) FreeEdges() []Edge {
	return t.collect(func(n int) bool { return n == 1 })
}

// NonManifold returns the edges used by more than two faces.
func (t *EdgeTable) NonManifold() []Edge {
	return t.collect(func(n int) bool { return n > 2 })
}

// Closed reports whether the table is non-empty and every edge is shared
// by exactly two faces.
func (t *EdgeTable) Closed() bool {
	if t.count == 0 {
		return false
	}
	for _, m := range t.adj {
		for _, n := range m {
			if n != 2 {
				return false
			}
		}
	}
	return true
}

func (t *EdgeTable) collect(keep func(uses int) bool) []Edge {
	var out []Edge
	for a, m := range t.adj {
		for b, n := range m {
			if a < b && keep(n) {
				out = append(out, Edge{a, b})
			}
		}
	}
	slices.SortFunc(out, func(x, y Edge) int {
		if c := cmp.Compare(x.V1, y.V1); c != 0 {
			return c
		}
		return cmp.Compare(x.V2, y.V2)
	})
	return out
}
