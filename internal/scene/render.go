// Package scene shoots grids of parallel rays through a prepared solid.
//
// A render walks every pixel of an orthographic view, sums the lengths of
// the in-solid segments along its ray and stores the result as a thickness
// map. Rows are spread over a pool of goroutines that share one read-only
// solid and piece index; each worker owns its accumulator.
package scene

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/tribag/internal/logger"
	"github.com/Faultbox/tribag/internal/raytrace"
)

// View selects the axis an orthographic render looks along.
type View int

const (
	ViewTop   View = iota // looking down -Z
	ViewFront             // looking along +Y
	ViewSide              // looking along -X
)

var viewNames = [...]string{"top", "front", "side"}

func (v View) String() string {
	if v >= 0 && int(v) < len(viewNames) {
		return viewNames[v]
	}
	return fmt.Sprintf("View(%d)", int(v))
}

// ParseView converts a view name.
func ParseView(s string) (View, error) {
	for i, n := range viewNames {
		if n == s {
			return View(i), nil
		}
	}
	return 0, fmt.Errorf("view %q: %w", s, raytrace.ErrInvalidArgument)
}

// axes returns the image column axis, row axis, depth axis and the ray
// direction along the depth axis.
func (v View) axes() (u, w, d int, sign float64) {
	switch v {
	case ViewFront:
		return 0, 2, 1, 1
	case ViewSide:
		return 1, 2, 0, -1
	}
	return 0, 1, 2, -1
}

// Options configures Render.
type Options struct {
	Width   int
	Height  int
	Workers int // 0 means GOMAXPROCS
	View    View
	Cells   int // ray cells per piece index walk, 0 means DefaultCells
}

// ThicknessMap holds the summed in-solid length for each pixel, row 0 at
// the top of the view.
type ThicknessMap struct {
	Width, Height int
	Values        []float64
	Max           float64
	PixelArea     float64
	Rays          int
	Hits          int // pixels with at least one segment
}

// At returns the thickness at pixel (x, y).
func (m *ThicknessMap) At(x, y int) float64 {
	return m.Values[y*m.Width+x]
}

// Volume estimates the solid volume as thickness times pixel area.
func (m *ThicknessMap) Volume() float64 {
	var sum float64
	for _, v := range m.Values {
		sum += v
	}
	return sum * m.PixelArea
}

// grid maps pixels to rays.
type grid struct {
	origin mgl64.Vec3 // ray origin of pixel (0, 0)
	du, dw mgl64.Vec3 // step per column and per row
	dir    mgl64.Vec3
}

func (g *grid) ray(x, y int) raytrace.Ray {
	o := g.origin.Add(g.du.Mul(float64(x))).Add(g.dw.Mul(float64(y)))
	return raytrace.Ray{Origin: o, Dir: g.dir}
}

func newGrid(lo, hi mgl64.Vec3, v View, width, height int) (grid, float64) {
	u, w, d, sign := v.axes()
	su := (hi[u] - lo[u]) / float64(width)
	sw := (hi[w] - lo[w]) / float64(height)

	var g grid
	g.origin[u] = lo[u] + su/2
	g.origin[w] = hi[w] - sw/2
	g.origin[d] = hi[d] + 1
	if sign > 0 {
		g.origin[d] = lo[d] - 1
	}
	g.du[u] = su
	g.dw[w] = -sw
	g.dir[d] = sign
	return g, su * sw
}

// Render shoots one ray per pixel through s, covering its bounding box in
// the chosen view. It stops early with ctx's error when ctx is canceled.
func Render(ctx context.Context, s *raytrace.Solid, opts Options) (*ThicknessMap, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("render size %dx%d: %w", opts.Width, opts.Height, raytrace.ErrInvalidArgument)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	cells := opts.Cells
	if cells <= 0 {
		cells = DefaultCells
	}
	ix, err := NewPieceIndex(s, cells)
	if err != nil {
		return nil, err
	}

	lo, hi := s.Bounds()
	g, area := newGrid(lo, hi, opts.View, opts.Width, opts.Height)
	tm := &ThicknessMap{
		Width:     opts.Width,
		Height:    opts.Height,
		Values:    make([]float64, opts.Width*opts.Height),
		PixelArea: area,
		Rays:      opts.Width * opts.Height,
	}

	rows := make(chan int)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc := s.NewAccumulator()
			for y := range rows {
				if err := renderRow(ix, acc, &g, tm, y); err != nil {
					errs <- err
					return
				}
			}
		}()
	}

	err = feedRows(ctx, rows, errs, opts.Height)
	close(rows)
	wg.Wait()
	if err == nil {
		select {
		case err = <-errs:
		default:
		}
	}
	if err != nil {
		return nil, err
	}

	for _, v := range tm.Values {
		if v > 0 {
			tm.Hits++
		}
		tm.Max = max(tm.Max, v)
	}
	logger.Named("scene").Debug("render complete",
		zap.Stringer("view", opts.View),
		zap.Int("width", opts.Width),
		zap.Int("height", opts.Height),
		zap.Int("workers", workers),
		zap.Int("pieces", ix.Size()),
		zap.Int("hit_pixels", tm.Hits))
	return tm, nil
}

// feedRows sends row numbers until done, ctx is canceled or a worker
// fails.
func feedRows(ctx context.Context, rows chan<- int, errs <-chan error, height int) error {
	for y := 0; y < height; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case rows <- y:
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			return err
		}
	}
	return nil
}

// renderRow fills row y. Each worker writes disjoint pixels.
func renderRow(ix *PieceIndex, acc *raytrace.Accumulator, g *grid, tm *ThicknessMap, y int) error {
	for x := 0; x < tm.Width; x++ {
		segs, err := ix.Shoot(acc, g.ray(x, y))
		if err != nil {
			return fmt.Errorf("pixel (%d, %d): %w", x, y, err)
		}
		var sum float64
		for _, seg := range segs {
			sum += seg.Length()
		}
		tm.Values[y*tm.Width+x] = sum
	}
	return nil
}
