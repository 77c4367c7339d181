package mesh

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// VertexFuse merges vertices with exactly equal coordinates (no tolerance).
// Faces are re-indexed to the first occurrence and the duplicate slots are
// removed. It returns the number of vertices fused.
func VertexFuse(m *Mesh) (int, error) {
	if err := m.checkFaceIndices(); err != nil {
		return 0, err
	}

	first := make(map[mgl64.Vec3]int, len(m.Vertices))
	remap := make([]int, len(m.Vertices))
	kept := m.Vertices[:0:0]
	fused := 0
	for i, v := range m.Vertices {
		if j, ok := first[v]; ok {
			remap[i] = remap[j]
			fused++
			continue
		}
		first[v] = i
		remap[i] = len(kept)
		kept = append(kept, v)
	}
	if fused == 0 {
		return 0, nil
	}

	m.Vertices = kept
	for i := range m.Faces {
		for c := range m.Faces[i] {
			m.Faces[i][c] = remap[m.Faces[i][c]]
		}
	}
	return fused, nil
}

// sameOrientation reports whether faces a and b, which use the same three
// vertices, wind the same way.
func sameOrientation(a, b [3]int) bool {
	for i := 0; i < 3; i++ {
		if a[0] == b[i] {
			return a[1] == b[(i+1)%3]
		}
	}
	return false
}

func sortedKey(f [3]int) [3]int {
	k := f
	slices.Sort(k[:])
	return k
}

// FaceFuse removes faces that duplicate an earlier face. Plate faces must
// also agree on thickness and thickness mode; oriented meshes require the
// same winding while unoriented meshes treat any permutation as a
// duplicate. It returns the number of faces removed.
func FaceFuse(m *Mesh) (int, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}

	seen := make(map[[3]int][]int, len(m.Faces))
	alive := make([]bool, len(m.Faces))
	removed := 0
	for j, f := range m.Faces {
		key := sortedKey(f)
		dup := false
		for _, i := range seen[key] {
			if m.duplicateFaces(i, j) {
				dup = true
				break
			}
		}
		if dup {
			removed++
			continue
		}
		alive[j] = true
		seen[key] = append(seen[key], j)
	}
	if removed > 0 {
		m.keepFaces(alive)
	}
	return removed, nil
}

func (m *Mesh) duplicateFaces(i, j int) bool {
	if m.Mode.IsPlate() {
		if m.Thickness[i] != m.Thickness[j] || m.AppendThickness[i] != m.AppendThickness[j] {
			return false
		}
	}
	if m.Orientation == Unoriented {
		return true
	}
	return sameOrientation(m.Faces[i], m.Faces[j])
}

// Condense removes vertices that no face references and compacts the
// indices. It returns the number of vertices removed.
func Condense(m *Mesh) (int, error) {
	if err := m.checkFaceIndices(); err != nil {
		return 0, err
	}

	used := make([]bool, len(m.Vertices))
	for _, f := range m.Faces {
		for _, idx := range f {
			used[idx] = true
		}
	}

	remap := make([]int, len(m.Vertices))
	n := 0
	for i, v := range m.Vertices {
		if !used[i] {
			remap[i] = -1
			continue
		}
		remap[i] = n
		m.Vertices[n] = v
		n++
	}
	dead := len(m.Vertices) - n
	if dead == 0 {
		return 0, nil
	}

	m.Vertices = m.Vertices[:n]
	for i := range m.Faces {
		for c := range m.Faces[i] {
			m.Faces[i][c] = remap[m.Faces[i][c]]
		}
	}
	return dead, nil
}

// RemoveDegenerate drops faces that use one vertex more than once, as left
// behind by fusing the corners of a sliver. It returns the number removed.
func RemoveDegenerate(m *Mesh) int {
	alive := make([]bool, len(m.Faces))
	removed := 0
	for i, f := range m.Faces {
		alive[i] = f[0] != f[1] && f[1] != f[2] && f[0] != f[2]
		if !alive[i] {
			removed++
		}
	}
	if removed > 0 {
		m.keepFaces(alive)
	}
	return removed
}
