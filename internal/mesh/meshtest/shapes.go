// Package meshtest builds small reference meshes for tests.
package meshtest

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/tribag/internal/mesh"
)

// Cube returns a closed CCW solid cube centered on the origin with the
// given half edge length. Vertex i sits at the corner selected by its
// bits (x=bit 0, y=bit 1, z=bit 2).
func Cube(half float64) *mesh.Mesh {
	m := &mesh.Mesh{Mode: mesh.ModeSolid, Orientation: mesh.CCW}
	for i := 0; i < 8; i++ {
		v := mgl64.Vec3{-half, -half, -half}
		for a := 0; a < 3; a++ {
			if i&(1<<a) != 0 {
				v[a] = half
			}
		}
		m.Vertices = append(m.Vertices, v)
	}
	m.Faces = [][3]int{
		{0, 2, 1}, {1, 2, 3}, // -z
		{4, 5, 6}, {5, 7, 6}, // +z
		{0, 1, 4}, {1, 5, 4}, // -y
		{2, 6, 3}, {3, 6, 7}, // +y
		{0, 4, 2}, {2, 4, 6}, // -x
		{1, 3, 5}, {3, 7, 5}, // +x
	}
	return m
}

// Icosahedron returns a closed CCW solid icosahedron with edge length 2.
func Icosahedron() *mesh.Mesh {
	p := (1 + math.Sqrt(5)) / 2
	m := &mesh.Mesh{
		Mode:        mesh.ModeSolid,
		Orientation: mesh.CCW,
		Vertices: []mgl64.Vec3{
			{-1, p, 0}, {1, p, 0}, {-1, -p, 0}, {1, -p, 0},
			{0, -1, p}, {0, 1, p}, {0, -1, -p}, {0, 1, -p},
			{p, 0, -1}, {p, 0, 1}, {-p, 0, -1}, {-p, 0, 1},
		},
		Faces: [][3]int{
			{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
			{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
			{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
			{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
		},
	}
	orientOutward(m)
	return m
}

// Grid returns an open n by n grid of unit squares in the z=0 plane, each
// split into two triangles. It has (n+1)^2 vertices and 4n free edges.
func Grid(n int) *mesh.Mesh {
	m := &mesh.Mesh{Mode: mesh.ModeSurface, Orientation: mesh.CCW}
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			m.Vertices = append(m.Vertices, mgl64.Vec3{float64(x), float64(y), 0})
		}
	}
	at := func(x, y int) int { return y*(n+1) + x }
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			m.Faces = append(m.Faces,
				[3]int{at(x, y), at(x+1, y), at(x+1, y+1)},
				[3]int{at(x, y), at(x+1, y+1), at(x, y+1)})
		}
	}
	return m
}

// Plate returns a single centered plate triangle in the z=0 plane with the
// given thickness.
func Plate(thickness float64, appendThickness bool) *mesh.Mesh {
	return &mesh.Mesh{
		Mode:            mesh.ModePlate,
		Orientation:     mesh.Unoriented,
		Vertices:        []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:           [][3]int{{0, 1, 2}},
		Thickness:       []float64{thickness},
		AppendThickness: []bool{appendThickness},
	}
}

// orientOutward flips faces of a mesh centered on the origin whose normal
// points toward the origin.
func orientOutward(m *mesh.Mesh) {
	for i, f := range m.Faces {
		if m.FaceNormal(i).Dot(m.FaceCenter(i)) < 0 {
			m.Faces[i] = [3]int{f[0], f[2], f[1]}
		}
	}
}
