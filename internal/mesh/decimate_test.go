package mesh_test

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/tribag/internal/mesh"
	"github.com/Faultbox/tribag/internal/mesh/meshtest"
)

func unbounded() mesh.DecimateOptions {
	return mesh.DecimateOptions{
		MaxChordError:     -1,
		MaxNormalError:    -1,
		MinFaces:          4,
		PreserveFreeEdges: true,
	}
}

func TestDecimateKeepsManifold(t *testing.T) {
	m := meshtest.Icosahedron()
	collapsed, err := mesh.Decimate(context.Background(), m, unbounded())
	if err != nil {
		t.Fatalf("Decimate() error = %v", err)
	}
	if collapsed == 0 {
		t.Fatal("Decimate() collapsed nothing on an unbounded icosahedron")
	}
	if 2*collapsed != 20-len(m.Faces) {
		t.Errorf("Decimate() = %d collapses, but face count went 20 -> %d", collapsed, len(m.Faces))
	}
	if len(m.Faces) < 4 {
		t.Errorf("faces = %d, below floor 4", len(m.Faces))
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() after Decimate() = %v", err)
	}

	edges := mesh.BuildEdgeTable(m)
	if n := len(edges.NonManifold()); n != 0 {
		t.Errorf("non-manifold edges after Decimate() = %d", n)
	}
	if n := len(edges.FreeEdges()); n != 0 {
		t.Errorf("free edges after Decimate() on closed mesh = %d", n)
	}
	used := make([]bool, len(m.Vertices))
	for _, f := range m.Faces {
		for _, v := range f {
			used[v] = true
		}
	}
	for i, u := range used {
		if !u {
			t.Errorf("vertex %d unreferenced after Decimate()", i)
		}
	}
}

func TestDecimateFloor(t *testing.T) {
	opts := unbounded()
	opts.MinFaces = 16
	m := meshtest.Icosahedron()
	removed, err := mesh.Decimate(context.Background(), m, opts)
	if err != nil {
		t.Fatalf("Decimate() error = %v", err)
	}
	if len(m.Faces) < 16 {
		t.Errorf("faces = %d, want at least 16", len(m.Faces))
	}
	if removed > 2 {
		t.Errorf("Decimate() = %d collapses, want at most 2", removed)
	}
}

func TestDecimateBounds(t *testing.T) {
	tests := []struct {
		name string
		opts func() mesh.DecimateOptions
	}{
		{"default chord and normal bounds", mesh.DefaultDecimateOptions},
		{"short edge gate", func() mesh.DecimateOptions {
			o := unbounded()
			o.MinEdgeLength = 1
			return o
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := meshtest.Icosahedron()
			removed, err := mesh.Decimate(context.Background(), m, tt.opts())
			if err != nil {
				t.Fatalf("Decimate() error = %v", err)
			}
			if removed != 0 || len(m.Faces) != 20 {
				t.Errorf("Decimate() = %d (faces %d), want nothing removed", removed, len(m.Faces))
			}
		})
	}
}

func TestDecimatePreservesFreeEdges(t *testing.T) {
	m := meshtest.Grid(4)
	boundary := map[mgl64.Vec3]bool{}
	for _, e := range mesh.BuildEdgeTable(m).FreeEdges() {
		boundary[m.Vertices[e.V1]] = true
		boundary[m.Vertices[e.V2]] = true
	}

	removed, err := mesh.Decimate(context.Background(), m, mesh.DefaultDecimateOptions())
	if err != nil {
		t.Fatalf("Decimate() error = %v", err)
	}
	if removed == 0 {
		t.Fatal("Decimate() removed nothing from a flat grid")
	}

	kept := map[mgl64.Vec3]bool{}
	for _, v := range m.Vertices {
		kept[v] = true
	}
	for p := range boundary {
		if !kept[p] {
			t.Errorf("boundary vertex %v removed", p)
		}
	}
	edges := mesh.BuildEdgeTable(m)
	if n := len(edges.FreeEdges()); n != 16 {
		t.Errorf("free edges after Decimate() = %d, want 16", n)
	}
	if n := len(edges.NonManifold()); n != 0 {
		t.Errorf("non-manifold edges after Decimate() = %d", n)
	}
	for i := range m.Faces {
		if m.FaceNormal(i).Z() <= 0 {
			t.Errorf("face %d flipped or degenerate: normal %v", i, m.FaceNormal(i))
		}
	}
}

func TestDecimateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := meshtest.Icosahedron()
	removed, err := mesh.Decimate(ctx, m, unbounded())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Decimate() error = %v, want context.Canceled", err)
	}
	if removed != 0 || len(m.Faces) != 20 {
		t.Errorf("Decimate() = %d (faces %d), want untouched mesh", removed, len(m.Faces))
	}
}

func TestDecimateInvalid(t *testing.T) {
	m := meshtest.Cube(1)
	m.Mode = 0
	if _, err := mesh.Decimate(context.Background(), m, unbounded()); !errors.Is(err, mesh.ErrInvalidArgument) {
		t.Errorf("Decimate() error = %v, want ErrInvalidArgument", err)
	}
}
