package mesh

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Flip reverses the winding of every face and swaps CW and CCW
// orientation, so an oriented mesh keeps describing the same solid.
func Flip(m *Mesh) {
	for i := range m.Faces {
		m.Faces[i][1], m.Faces[i][2] = m.Faces[i][2], m.Faces[i][1]
	}
	for i := range m.FaceNormals {
		m.FaceNormals[i][1], m.FaceNormals[i][2] = m.FaceNormals[i][2], m.FaceNormals[i][1]
	}
	switch m.Orientation {
	case CW:
		m.Orientation = CCW
	case CCW:
		m.Orientation = CW
	}
}

// Transform applies mat to every vertex. Vertex normals are carried by the
// inverse transpose of the upper 3x3 and renormalized. A mirroring matrix
// reverses the meaning of the winding, so the orientation is swapped.
func Transform(m *Mesh, mat mgl64.Mat4) {
	for i, v := range m.Vertices {
		m.Vertices[i] = mat.Mul4x1(v.Vec4(1)).Vec3()
	}

	lin := mat.Mat3()
	if len(m.Normals) > 0 {
		nm := lin.Inv().Transpose()
		for i, n := range m.Normals {
			m.Normals[i] = safeNormalize(nm.Mul3x1(n))
		}
	}

	if lin.Det() < 0 {
		switch m.Orientation {
		case CW:
			m.Orientation = CCW
		case CCW:
			m.Orientation = CW
		}
	}
}

// Sync makes the winding of each connected patch agree with its
// lowest-numbered face: a neighbor that traverses a shared edge in the
// same direction is flipped. It returns the number of faces flipped.
func Sync(m *Mesh) (int, error) {
	if err := m.checkFaceIndices(); err != nil {
		return 0, err
	}

	byEdge := make(map[Edge][]int, len(m.Faces)*3/2)
	for i, f := range m.Faces {
		for c := 0; c < 3; c++ {
			e := MakeEdge(f[c], f[(c+1)%3])
			byEdge[e] = append(byEdge[e], i)
		}
	}

	visited := make([]bool, len(m.Faces))
	flipped := 0
	queue := make([]int, 0, len(m.Faces))
	for start := range m.Faces {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			f := queue[0]
			queue = queue[1:]
			face := m.Faces[f]
			for c := 0; c < 3; c++ {
				a, b := face[c], face[(c+1)%3]
				for _, g := range byEdge[MakeEdge(a, b)] {
					if visited[g] {
						continue
					}
					visited[g] = true
					if hasDirectedEdge(m.Faces[g], a, b) {
						m.Faces[g][1], m.Faces[g][2] = m.Faces[g][2], m.Faces[g][1]
						if len(m.FaceNormals) > g {
							m.FaceNormals[g][1], m.FaceNormals[g][2] = m.FaceNormals[g][2], m.FaceNormals[g][1]
						}
						flipped++
					}
					queue = append(queue, g)
				}
			}
		}
	}
	return flipped, nil
}

func hasDirectedEdge(f [3]int, a, b int) bool {
	for c := 0; c < 3; c++ {
		if f[c] == a && f[(c+1)%3] == b {
			return true
		}
	}
	return false
}

// Split returns one mesh per connected component, where faces sharing a
// vertex are connected. Components are ordered by their lowest face index
// and each is condensed.
func Split(m *Mesh) ([]*Mesh, error) {
	if err := m.checkFaceIndices(); err != nil {
		return nil, err
	}

	parent := make([]int, len(m.Vertices))
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, f := range m.Faces {
		r0 := find(f[0])
		for _, v := range f[1:] {
			if r := find(v); r != r0 {
				parent[r] = r0
			}
		}
	}

	var roots []int
	members := map[int][]bool{}
	for i, f := range m.Faces {
		r := find(f[0])
		alive, ok := members[r]
		if !ok {
			alive = make([]bool, len(m.Faces))
			members[r] = alive
			roots = append(roots, r)
		}
		alive[i] = true
	}

	out := make([]*Mesh, 0, len(roots))
	for _, r := range roots {
		part := m.Clone()
		part.keepFaces(members[r])
		if _, err := Condense(part); err != nil {
			return nil, err
		}
		out = append(out, part)
	}
	return out, nil
}
