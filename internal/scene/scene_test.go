package scene

import (
	"context"
	"errors"
	"image/png"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/tribag/internal/mesh"
	"github.com/Faultbox/tribag/internal/mesh/meshtest"
	"github.com/Faultbox/tribag/internal/raytrace"
)

func prepare(t *testing.T, m *mesh.Mesh, opts raytrace.Options) *raytrace.Solid {
	t.Helper()
	s, err := raytrace.Prepare(m, raytrace.DefaultTolerance(), opts)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return s
}

func pieced() raytrace.Options {
	return raytrace.Options{MinPieces: 1, TrisPerPiece: 2}
}

func TestClipLine(t *testing.T) {
	box := AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}
	tests := []struct {
		name       string
		ray        raytrace.Ray
		hit        bool
		tmin, tmax float64
	}{
		{"through", raytrace.Ray{Origin: mgl64.Vec3{0, 0, -5}, Dir: mgl64.Vec3{0, 0, 1}}, true, 4, 6},
		{"behind origin", raytrace.Ray{Origin: mgl64.Vec3{0, 0, 5}, Dir: mgl64.Vec3{0, 0, 1}}, true, -6, -4},
		{"parallel outside", raytrace.Ray{Origin: mgl64.Vec3{2, 0, -5}, Dir: mgl64.Vec3{0, 0, 1}}, false, 0, 0},
		{"diagonal miss", raytrace.Ray{Origin: mgl64.Vec3{3, 0, 0}, Dir: mgl64.Vec3{1, 1, 0}}, false, 0, 0},
		{"touches face", raytrace.Ray{Origin: mgl64.Vec3{1, 0, -5}, Dir: mgl64.Vec3{0, 0, 1}}, true, 4, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmin, tmax, hit := ClipLine(tt.ray, box)
			if hit != tt.hit {
				t.Fatalf("ClipLine() hit = %v, want %v", hit, tt.hit)
			}
			if hit && (tmin != tt.tmin || tmax != tt.tmax) {
				t.Errorf("ClipLine() = [%v, %v], want [%v, %v]", tmin, tmax, tt.tmin, tt.tmax)
			}
		})
	}
}

func TestIntersectAABB(t *testing.T) {
	box := AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}
	tests := []struct {
		name string
		ray  raytrace.Ray
		hit  bool
		t    float64
	}{
		{"entry", raytrace.Ray{Origin: mgl64.Vec3{-5, 0, 0}, Dir: mgl64.Vec3{1, 0, 0}}, true, 4},
		{"inside returns exit", raytrace.Ray{Origin: mgl64.Vec3{0, 0, 0}, Dir: mgl64.Vec3{0, 1, 0}}, true, 1},
		{"behind", raytrace.Ray{Origin: mgl64.Vec3{-5, 0, 0}, Dir: mgl64.Vec3{-1, 0, 0}}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := IntersectAABB(tt.ray, box)
			if hit != tt.hit || got != tt.t {
				t.Errorf("IntersectAABB() = %v, %v, want %v, %v", got, hit, tt.t, tt.hit)
			}
		})
	}

	if !box.Pad(0.5).Contains(mgl64.Vec3{1.5, -1.5, 0}) || box.Contains(mgl64.Vec3{1.5, 0, 0}) {
		t.Error("Pad/Contains mismatch")
	}
}

func TestPieceIndexMatchesShoot(t *testing.T) {
	s := prepare(t, meshtest.Icosahedron(), pieced())
	ix, err := NewPieceIndex(s, 4)
	if err != nil {
		t.Fatalf("NewPieceIndex() error = %v", err)
	}
	if ix.Size() != s.Pieces() {
		t.Fatalf("Size() = %d, want %d", ix.Size(), s.Pieces())
	}

	rng := rand.New(rand.NewPCG(1, 2))
	rays := []raytrace.Ray{
		{Origin: mgl64.Vec3{0.2, 0.1, -10}, Dir: mgl64.Vec3{0, 0, 1}},
		{Origin: mgl64.Vec3{-10, 0.3, 0.3}, Dir: mgl64.Vec3{1, 0, 0}},
		{Origin: mgl64.Vec3{0, 0, 0}, Dir: mgl64.Vec3{0, 1, 0}},
	}
	for i := 0; i < 200; i++ {
		o := mgl64.Vec3{rng.Float64()*6 - 3, rng.Float64()*6 - 3, rng.Float64()*6 - 3}
		d := mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
		rays = append(rays, raytrace.Ray{Origin: o, Dir: d})
	}

	acc := s.NewAccumulator()
	for i, r := range rays {
		want := s.Shoot(r)
		got, err := ix.Shoot(acc, r)
		if err != nil {
			t.Fatalf("ray %d: Shoot() error = %v", i, err)
		}
		if len(got) != len(want) {
			t.Errorf("ray %d: %d segments, want %d", i, len(got), len(want))
			continue
		}
		for k := range got {
			if got[k].In.Dist != want[k].In.Dist || got[k].Out.Dist != want[k].Out.Dist {
				t.Errorf("ray %d segment %d = [%v, %v], want [%v, %v]", i, k,
					got[k].In.Dist, got[k].Out.Dist, want[k].In.Dist, want[k].Out.Dist)
			}
		}
	}
}

func TestPieceIndexFallback(t *testing.T) {
	s := prepare(t, meshtest.Cube(0.5), raytrace.DefaultOptions())
	ix, err := NewPieceIndex(s, DefaultCells)
	if err != nil {
		t.Fatalf("NewPieceIndex() error = %v", err)
	}
	if ix.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", ix.Size())
	}
	segs, err := ix.Shoot(nil, raytrace.Ray{Origin: mgl64.Vec3{0.1, 0.2, 5}, Dir: mgl64.Vec3{0, 0, -1}})
	if err != nil || len(segs) != 1 {
		t.Errorf("Shoot() = %d segments, %v, want 1", len(segs), err)
	}

	if _, err := ix.Shoot(nil, raytrace.Ray{}); !errors.Is(err, raytrace.ErrInvalidArgument) {
		t.Errorf("zero direction: error = %v", err)
	}
	if _, err := NewPieceIndex(s, 0); !errors.Is(err, raytrace.ErrInvalidArgument) {
		t.Errorf("zero cells: error = %v", err)
	}
}

func TestRenderCube(t *testing.T) {
	for _, opts := range []raytrace.Options{raytrace.DefaultOptions(), pieced()} {
		s := prepare(t, meshtest.Cube(0.5), opts)
		for _, view := range []View{ViewTop, ViewFront, ViewSide} {
			tm, err := Render(context.Background(), s, Options{Width: 16, Height: 16, Workers: 4, View: view})
			if err != nil {
				t.Fatalf("%v: Render() error = %v", view, err)
			}
			if tm.Hits != 256 || tm.Rays != 256 {
				t.Errorf("%v: hits %d of %d rays, want 256", view, tm.Hits, tm.Rays)
			}
			if math.Abs(tm.Max-1) > 1e-9 {
				t.Errorf("%v: Max = %v, want 1", view, tm.Max)
			}
			if math.Abs(tm.Volume()-1) > 1e-9 {
				t.Errorf("%v: Volume() = %v, want 1", view, tm.Volume())
			}
		}
	}
}

func TestRenderVolume(t *testing.T) {
	m := meshtest.Icosahedron()
	s := prepare(t, m, pieced())
	tm, err := Render(context.Background(), s, Options{Width: 64, Height: 64})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := mesh.Volume(m)
	if got := tm.Volume(); math.Abs(got-want) > 0.03*want {
		t.Errorf("Volume() = %v, want %v within 3%%", got, want)
	}
	if tm.At(0, 0) != 0 {
		t.Errorf("corner thickness = %v, want 0", tm.At(0, 0))
	}
	if tm.At(32, 32) <= 0 {
		t.Error("center pixel should hit the solid")
	}
}

func TestRenderErrors(t *testing.T) {
	s := prepare(t, meshtest.Cube(0.5), raytrace.DefaultOptions())

	if _, err := Render(context.Background(), s, Options{Width: 0, Height: 4}); !errors.Is(err, raytrace.ErrInvalidArgument) {
		t.Errorf("zero width: error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Render(ctx, s, Options{Width: 8, Height: 8}); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled: error = %v, want context.Canceled", err)
	}
}

func TestParseView(t *testing.T) {
	for _, v := range []View{ViewTop, ViewFront, ViewSide} {
		got, err := ParseView(v.String())
		if err != nil || got != v {
			t.Errorf("ParseView(%q) = %v, %v", v.String(), got, err)
		}
	}
	if _, err := ParseView("iso"); err == nil {
		t.Error("ParseView(iso) should fail")
	}
}

func TestWritePNG(t *testing.T) {
	s := prepare(t, meshtest.Icosahedron(), raytrace.DefaultOptions())
	tm, err := Render(context.Background(), s, Options{Width: 20, Height: 10})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "out", "thickness.png")
	if err := tm.WritePNG(path); err != nil {
		t.Fatalf("WritePNG() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("image size = %dx%d, want 20x10", b.Dx(), b.Dy())
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r != 0 {
		t.Errorf("corner pixel = %d, want black", r)
	}
}
