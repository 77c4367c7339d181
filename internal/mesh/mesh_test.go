package mesh_test

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/tribag/internal/mesh"
	"github.com/Faultbox/tribag/internal/mesh/meshtest"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    mesh.Mode
		wantErr bool
	}{
		{"solid", mesh.ModeSolid, false},
		{"Surface", mesh.ModeSurface, false},
		{"plate", mesh.ModePlate, false},
		{"plate_nocos", mesh.ModePlateNoCos, false},
		{"volume", 0, true},
	}
	for _, tt := range tests {
		got, err := mesh.ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, mesh.ErrInvalidArgument) {
			t.Errorf("ParseMode(%q) error = %v, want ErrInvalidArgument", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	good := meshtest.Cube(0.5)
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate() on cube = %v", err)
	}

	bad := meshtest.Cube(0.5)
	bad.Faces[3][1] = 8
	err := bad.Validate()
	var ie *mesh.IndexError
	if !errors.As(err, &ie) {
		t.Fatalf("Validate() error = %v, want *IndexError", err)
	}
	if ie.Face != 3 || ie.Corner != 1 || ie.Index != 8 {
		t.Errorf("IndexError = %+v", ie)
	}
	if !errors.Is(err, mesh.ErrInvalidArgument) {
		t.Errorf("IndexError does not match ErrInvalidArgument")
	}

	plate := meshtest.Plate(0.1, false)
	plate.Thickness = nil
	if err := plate.Validate(); !errors.Is(err, mesh.ErrInvalidArgument) {
		t.Errorf("Validate() on plate without thickness = %v, want ErrInvalidArgument", err)
	}

	unknown := meshtest.Cube(0.5)
	unknown.Orientation = 7
	if err := unknown.Validate(); !errors.Is(err, mesh.ErrInvalidArgument) {
		t.Errorf("Validate() with unknown orientation = %v, want ErrInvalidArgument", err)
	}
}

func TestEdgeTable(t *testing.T) {
	cube := mesh.BuildEdgeTable(meshtest.Cube(0.5))
	if cube.Len() != 18 {
		t.Errorf("cube edges = %d, want 18", cube.Len())
	}
	if n := len(cube.FreeEdges()); n != 0 {
		t.Errorf("cube free edges = %d, want 0", n)
	}
	if n := len(cube.NonManifold()); n != 0 {
		t.Errorf("cube non-manifold edges = %d, want 0", n)
	}
	if got := cube.Uses(0, 1); got != 2 {
		t.Errorf("Uses(0, 1) = %d, want 2", got)
	}

	grid := mesh.BuildEdgeTable(meshtest.Grid(3))
	if n := len(grid.FreeEdges()); n != 12 {
		t.Errorf("grid free edges = %d, want 12", n)
	}
	if !grid.OnFreeEdge(0) {
		t.Error("grid corner should be on a free edge")
	}
	if grid.OnFreeEdge(5) {
		t.Error("grid interior vertex should not be on a free edge")
	}
}

func TestBounds(t *testing.T) {
	lo, hi, ok := meshtest.Cube(2).Bounds()
	if !ok {
		t.Fatal("Bounds() not ok")
	}
	if lo != (mgl64.Vec3{-2, -2, -2}) || hi != (mgl64.Vec3{2, 2, 2}) {
		t.Errorf("Bounds() = %v, %v", lo, hi)
	}
	if _, _, ok := (&mesh.Mesh{}).Bounds(); ok {
		t.Error("Bounds() on empty mesh should not be ok")
	}
}

func TestVertexFuse(t *testing.T) {
	m := &mesh.Mesh{
		Mode:        mesh.ModeSurface,
		Orientation: mesh.Unoriented,
		Vertices: []mgl64.Vec3{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
			{1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		},
		Faces: [][3]int{{0, 1, 2}, {3, 4, 5}},
	}
	n, err := mesh.VertexFuse(m)
	if err != nil {
		t.Fatalf("VertexFuse() error = %v", err)
	}
	if n != 2 {
		t.Errorf("VertexFuse() = %d, want 2", n)
	}
	if len(m.Vertices) != 4 {
		t.Errorf("vertices after fuse = %d, want 4", len(m.Vertices))
	}
	if m.Faces[1] != [3]int{1, 3, 2} {
		t.Errorf("second face = %v, want [1 3 2]", m.Faces[1])
	}

	again, _ := mesh.VertexFuse(m)
	if again != 0 {
		t.Errorf("second VertexFuse() = %d, want 0", again)
	}
}

func TestVertexFuseBadIndex(t *testing.T) {
	m := meshtest.Cube(1)
	m.Faces[0][0] = -1
	if _, err := mesh.VertexFuse(m); !errors.Is(err, mesh.ErrInvalidArgument) {
		t.Errorf("VertexFuse() error = %v, want ErrInvalidArgument", err)
	}
}

func TestFuseThenCondense(t *testing.T) {
	m := meshtest.Grid(2)
	// duplicate every vertex and point the second face of each square at
	// the copies, then add a stray vertex
	nv := len(m.Vertices)
	m.Vertices = append(m.Vertices, m.Vertices...)
	for i := 1; i < len(m.Faces); i += 2 {
		for c := range m.Faces[i] {
			m.Faces[i][c] += nv
		}
	}
	m.Vertices = append(m.Vertices, mgl64.Vec3{9, 9, 9})

	if _, err := mesh.VertexFuse(m); err != nil {
		t.Fatalf("VertexFuse() error = %v", err)
	}
	removed, err := mesh.Condense(m)
	if err != nil {
		t.Fatalf("Condense() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Condense() = %d, want 1", removed)
	}

	seen := map[mgl64.Vec3]bool{}
	for _, v := range m.Vertices {
		if seen[v] {
			t.Errorf("duplicate vertex %v after fuse", v)
		}
		seen[v] = true
	}
	used := make([]bool, len(m.Vertices))
	for _, f := range m.Faces {
		for _, v := range f {
			used[v] = true
		}
	}
	for i, u := range used {
		if !u {
			t.Errorf("vertex %d unreferenced after condense", i)
		}
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestFaceFuse(t *testing.T) {
	base := func(o mesh.Orientation) *mesh.Mesh {
		return &mesh.Mesh{
			Mode:        mesh.ModeSurface,
			Orientation: o,
			Vertices:    []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Faces:       [][3]int{{0, 1, 2}, {1, 2, 0}, {0, 2, 1}},
		}
	}
	tests := []struct {
		name string
		m    *mesh.Mesh
		want int
	}{
		{"oriented keeps reversed winding", base(mesh.CCW), 1},
		{"unoriented drops any permutation", base(mesh.Unoriented), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mesh.FaceFuse(tt.m)
			if err != nil {
				t.Fatalf("FaceFuse() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FaceFuse() = %d, want %d", got, tt.want)
			}
			if again, _ := mesh.FaceFuse(tt.m); again != 0 {
				t.Errorf("second FaceFuse() = %d, want 0", again)
			}
		})
	}
}

func TestFaceFusePlate(t *testing.T) {
	m := &mesh.Mesh{
		Mode:            mesh.ModePlate,
		Orientation:     mesh.Unoriented,
		Vertices:        []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:           [][3]int{{0, 1, 2}, {0, 1, 2}, {2, 1, 0}, {0, 1, 2}},
		Thickness:       []float64{0.1, 0.2, 0.1, 0.1},
		AppendThickness: []bool{false, false, false, true},
	}
	got, err := mesh.FaceFuse(m)
	if err != nil {
		t.Fatalf("FaceFuse() error = %v", err)
	}
	if got != 1 {
		t.Errorf("FaceFuse() = %d, want 1", got)
	}
	if !slices.Equal(m.Thickness, []float64{0.1, 0.2, 0.1}) {
		t.Errorf("thickness = %v", m.Thickness)
	}
	if !slices.Equal(m.AppendThickness, []bool{false, false, true}) {
		t.Errorf("append flags = %v", m.AppendThickness)
	}
}

func TestSortFaces(t *testing.T) {
	m := meshtest.Grid(4)
	m.Mode = mesh.ModePlate
	// shuffle deterministically so coherence has to be rebuilt
	n := len(m.Faces)
	for i := 0; i < n; i++ {
		j := (i*7 + 3) % n
		m.Faces[i], m.Faces[j] = m.Faces[j], m.Faces[i]
	}
	orig := slices.Clone(m.Faces)
	m.Thickness = make([]float64, n)
	m.AppendThickness = make([]bool, n)
	for i := range m.Thickness {
		m.Thickness[i] = float64(i)
		m.AppendThickness[i] = i%2 == 0
	}

	if err := mesh.SortFaces(m, 4); err != nil {
		t.Fatalf("SortFaces() error = %v", err)
	}
	if len(m.Faces) != n {
		t.Fatalf("faces after sort = %d, want %d", len(m.Faces), n)
	}

	seen := make([]bool, n)
	for k, f := range m.Faces {
		src := int(m.Thickness[k])
		if seen[src] {
			t.Fatalf("face %d placed twice", src)
		}
		seen[src] = true
		if orig[src] != f {
			t.Errorf("face %d = %v, thickness says it came from %v", k, f, orig[src])
		}
		if m.AppendThickness[k] != (src%2 == 0) {
			t.Errorf("append flag %d not permuted with its face", k)
		}
	}

	// the first piece grows from an untouched grid, so every face it takes
	// shares a vertex with the faces before it and the second one shares
	// an edge with the seed
	for i := 1; i < 4; i++ {
		touches := false
		for _, g := range m.Faces[:i] {
			if sharedVertices(m.Faces[i], g) > 0 {
				touches = true
			}
		}
		if !touches {
			t.Errorf("first piece face %d %v is isolated", i, m.Faces[i])
		}
	}
	if got := sharedVertices(m.Faces[0], m.Faces[1]); got != 2 {
		t.Errorf("seed and second face share %d vertices, want 2", got)
	}
}

func TestSortFacesInvalid(t *testing.T) {
	if err := mesh.SortFaces(meshtest.Cube(1), 0); !errors.Is(err, mesh.ErrInvalidArgument) {
		t.Errorf("SortFaces(0) error = %v, want ErrInvalidArgument", err)
	}
}

func sharedVertices(a, b [3]int) int {
	n := 0
	for _, x := range a {
		if slices.Contains(b[:], x) {
			n++
		}
	}
	return n
}

func TestFlip(t *testing.T) {
	m := meshtest.Cube(1)
	mesh.Flip(m)
	if m.Orientation != mesh.CW {
		t.Errorf("orientation after Flip() = %v, want cw", m.Orientation)
	}
	for i := range m.Faces {
		if m.FaceNormal(i).Dot(m.FaceCenter(i)) >= 0 {
			t.Errorf("face %d still points outward after Flip()", i)
		}
	}
}

func TestSync(t *testing.T) {
	m := meshtest.Cube(1)
	f := m.Faces[5]
	m.Faces[5] = [3]int{f[0], f[2], f[1]}
	f = m.Faces[9]
	m.Faces[9] = [3]int{f[0], f[2], f[1]}

	n, err := mesh.Sync(m)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Sync() = %d, want 2", n)
	}
	for i := range m.Faces {
		if m.FaceNormal(i).Dot(m.FaceCenter(i)) <= 0 {
			t.Errorf("face %d points inward after Sync()", i)
		}
	}
}

func TestSplit(t *testing.T) {
	a := meshtest.Cube(1)
	b := meshtest.Cube(1)
	mesh.Transform(b, mgl64.Translate3D(5, 0, 0))

	m := a.Clone()
	off := len(m.Vertices)
	m.Vertices = append(m.Vertices, b.Vertices...)
	for _, f := range b.Faces {
		m.Faces = append(m.Faces, [3]int{f[0] + off, f[1] + off, f[2] + off})
	}

	parts, err := mesh.Split(m)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("Split() = %d parts, want 2", len(parts))
	}
	for i, p := range parts {
		if len(p.Vertices) != 8 || len(p.Faces) != 12 {
			t.Errorf("part %d has %d vertices, %d faces", i, len(p.Vertices), len(p.Faces))
		}
	}
	if lo, _, _ := parts[1].Bounds(); lo[0] != 4 {
		t.Errorf("second part min x = %v, want 4", lo[0])
	}
}

func TestTransform(t *testing.T) {
	m := meshtest.Cube(1)
	m.Normals = []mgl64.Vec3{{1, 0, 0}}
	mesh.Transform(m, mgl64.Translate3D(1, 2, 3).Mul4(mgl64.Scale3D(2, 1, 1)))

	lo, hi, _ := m.Bounds()
	if lo != (mgl64.Vec3{-1, 1, 2}) || hi != (mgl64.Vec3{3, 3, 4}) {
		t.Errorf("Bounds() after Transform() = %v, %v", lo, hi)
	}
	if !m.Normals[0].ApproxEqual(mgl64.Vec3{1, 0, 0}) {
		t.Errorf("normal after Transform() = %v", m.Normals[0])
	}
	if m.Orientation != mesh.CCW {
		t.Errorf("orientation = %v, want ccw", m.Orientation)
	}

	mesh.Transform(m, mgl64.Scale3D(-1, 1, 1))
	if m.Orientation != mesh.CW {
		t.Errorf("orientation after mirror = %v, want cw", m.Orientation)
	}
}

func TestEdgeStats(t *testing.T) {
	s := mesh.ComputeEdgeStats(meshtest.Cube(0.5))
	if s.Count != 18 {
		t.Errorf("Count = %d, want 18", s.Count)
	}
	if math.Abs(s.Min-1) > 1e-12 {
		t.Errorf("Min = %v, want 1", s.Min)
	}
	if math.Abs(s.Max-math.Sqrt2) > 1e-12 {
		t.Errorf("Max = %v, want sqrt(2)", s.Max)
	}
	if got := mesh.MaxEdge(&mesh.Mesh{}); got != 0 {
		t.Errorf("MaxEdge(empty) = %v, want 0", got)
	}
}

func TestDescribe(t *testing.T) {
	out := mesh.Describe(meshtest.Plate(0.25, true))
	for _, want := range []string{"mode:        plate", "faces:       1", "free 3", "1 appended"} {
		if !strings.Contains(out, want) {
			t.Errorf("Describe() missing %q in:\n%s", want, out)
		}
	}
}

func TestVolume(t *testing.T) {
	cube := meshtest.Cube(0.5)
	if got := mesh.Volume(cube); math.Abs(got-1) > 1e-12 {
		t.Errorf("Volume(cube) = %v, want 1", got)
	}
	mesh.Flip(cube)
	if got := mesh.Volume(cube); math.Abs(got-1) > 1e-12 {
		t.Errorf("Volume(flipped cube) = %v, want 1", got)
	}

	// 5/12 (3+sqrt5) a^3 with edge length 2
	want := 5.0 / 12 * (3 + math.Sqrt(5)) * 8
	if got := mesh.Volume(meshtest.Icosahedron()); math.Abs(got-want) > 1e-9 {
		t.Errorf("Volume(icosahedron) = %v, want %v", got, want)
	}

	if !mesh.BuildEdgeTable(cube).Closed() {
		t.Error("cube edge table should be closed")
	}
	if mesh.BuildEdgeTable(meshtest.Grid(2)).Closed() {
		t.Error("grid edge table should not be closed")
	}
	if out := mesh.Describe(meshtest.Cube(0.5)); !strings.Contains(out, "volume:      1") {
		t.Errorf("Describe() missing volume in:\n%s", out)
	}
}

func TestRemoveDegenerate(t *testing.T) {
	m := &mesh.Mesh{
		Mode:        mesh.ModeSurface,
		Orientation: mesh.CCW,
		Vertices:    []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:       [][3]int{{0, 1, 2}, {0, 0, 1}, {2, 1, 2}},
	}
	if got := mesh.RemoveDegenerate(m); got != 2 {
		t.Errorf("RemoveDegenerate() = %d, want 2", got)
	}
	if len(m.Faces) != 1 || m.Faces[0] != [3]int{0, 1, 2} {
		t.Errorf("Faces = %v", m.Faces)
	}
	if got := mesh.RemoveDegenerate(m); got != 0 {
		t.Errorf("second RemoveDegenerate() = %d, want 0", got)
	}
}
