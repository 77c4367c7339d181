package mesh

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/tribag/internal/logger"
)

// maxAffectedFaces caps the number of faces a single collapse may reshape.
const maxAffectedFaces = 128

// DecimateOptions bounds the error an edge collapse may introduce.
type DecimateOptions struct {
	// MaxChordError is the largest distance the removed vertex may lie from
	// any reshaped face. Negative disables the check.
	MaxChordError float64

	// MaxNormalError is the largest angle, in degrees, between a reshaped
	// face's normal and its normal before decimation. Negative disables the
	// check.
	MaxNormalError float64

	// MinEdgeLength, when positive, restricts collapses to edges no longer
	// than it.
	MinEdgeLength float64

	// MinFaces stops decimation before the face count would drop below it.
	MinFaces int

	// PreserveFreeEdges forbids collapsing a vertex that lies on a free edge.
	PreserveFreeEdges bool
}

// DefaultDecimateOptions returns conservative decimation bounds.
func DefaultDecimateOptions() DecimateOptions {
	return DecimateOptions{
		MaxChordError:     0.01,
		MaxNormalError:    5,
		MinEdgeLength:     0,
		MinFaces:          4,
		PreserveFreeEdges: true,
	}
}

type decimator struct {
	m     *Mesh
	opts  DecimateOptions
	edges *EdgeTable
	vf    [][]int
	alive []bool
	live  int

	collapsed int

	origNormals []mgl64.Vec3
	minCos      float64
	degenerate  float64
}

// Decimate reduces the face count of m by collapsing edges, one endpoint
// onto the other, while every bound in opts holds. A collapse that would
// make an edge shared by more than two faces is never performed.
//
// It returns the number of edges collapsed; each collapse removes two
// faces. Zero is not a failure. ctx is checked between edge evaluations.
// On cancellation the collapses done so far are kept, the mesh is left
// consistent and ctx.Err() is returned alongside their count.
func Decimate(ctx context.Context, m *Mesh, opts DecimateOptions) (int, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	if opts.MinFaces < 0 {
		opts.MinFaces = 0
	}

	d := newDecimator(m, opts)
	before := len(m.Faces)
	err := d.run(ctx)
	d.finish()

	logger.Debug("decimate finished",
		zap.Int("edges_collapsed", d.collapsed),
		zap.Int("faces_before", before),
		zap.Int("faces_after", len(m.Faces)),
		zap.Int("vertices", len(m.Vertices)),
		zap.Bool("canceled", err != nil))
	return d.collapsed, err
}

func newDecimator(m *Mesh, opts DecimateOptions) *decimator {
	d := &decimator{
		m:           m,
		opts:        opts,
		edges:       BuildEdgeTable(m),
		vf:          vertexFaces(m.Faces, len(m.Vertices)),
		alive:       make([]bool, len(m.Faces)),
		live:        len(m.Faces),
		origNormals: make([]mgl64.Vec3, len(m.Faces)),
		minCos:      -2,
	}
	for i := range m.Faces {
		d.alive[i] = true
		d.origNormals[i] = safeNormalize(m.FaceNormal(i))
	}
	if opts.MaxNormalError >= 0 {
		d.minCos = math.Cos(mgl64.DegToRad(opts.MaxNormalError))
	}
	if lo, hi, ok := m.Bounds(); ok {
		diag := hi.Sub(lo).Len()
		d.degenerate = 1e-12 * diag * diag
	}
	return d
}

func (d *decimator) run(ctx context.Context) error {
	for {
		progress := false
		for i := range d.vf {
			if len(d.vf[i]) == 0 {
				continue
			}
			for _, j := range d.edges.Neighbors(i) {
				if j <= i {
					continue
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				if d.live-2 < d.opts.MinFaces {
					return nil
				}
				if d.tryCollapse(i, j) || d.tryCollapse(j, i) {
					progress = true
					break
				}
			}
		}
		if !progress {
			return nil
		}
	}
}

// tryCollapse moves v1 onto v2 when every bound allows it.
func (d *decimator) tryCollapse(v1, v2 int) bool {
	deleted, affected, ok := d.classify(v1, v2)
	if !ok {
		return false
	}
	if !d.allowed(v1, v2, deleted, affected) {
		return false
	}
	d.collapse(v1, v2, deleted, affected)
	return true
}

// classify splits the live faces around v1 into those that vanish with
// edge v1-v2 and those that are reshaped.
func (d *decimator) classify(v1, v2 int) (deleted, affected []int, ok bool) {
	for _, f := range d.vf[v1] {
		if faceHas(d.m.Faces[f], v2) {
			deleted = append(deleted, f)
		} else {
			affected = append(affected, f)
		}
	}
	if len(deleted) != 2 || len(affected) == 0 || len(affected) > maxAffectedFaces {
		return nil, nil, false
	}
	return deleted, affected, true
}

func (d *decimator) allowed(v1, v2 int, deleted, affected []int) bool {
	if d.opts.PreserveFreeEdges && d.edges.OnFreeEdge(v1) {
		return false
	}

	p1, p2 := d.m.Vertices[v1], d.m.Vertices[v2]
	if d.opts.MinEdgeLength > 0 && p1.Sub(p2).Len() > d.opts.MinEdgeLength {
		return false
	}

	if !d.linkCondition(v1, v2, deleted) {
		return false
	}

	for _, f := range affected {
		face := replaceVertex(d.m.Faces[f], v1, v2)
		a := d.m.Vertices[face[0]]
		n := d.m.Vertices[face[1]].Sub(a).Cross(d.m.Vertices[face[2]].Sub(a))
		nl := n.Len()
		if nl <= d.degenerate {
			return false
		}
		n = n.Mul(1 / nl)
		if d.opts.MaxNormalError >= 0 && n.Dot(d.origNormals[f]) < d.minCos {
			return false
		}
		if d.opts.MaxChordError >= 0 && math.Abs(p1.Sub(p2).Dot(n)) > d.opts.MaxChordError {
			return false
		}
	}
	return true
}

// linkCondition holds when the only vertices adjacent to both v1 and v2 are
// the apexes of the two faces that share the edge. Collapsing otherwise
// would fold two distinct edges into one.
func (d *decimator) linkCondition(v1, v2 int, deleted []int) bool {
	apex := map[int]bool{}
	for _, f := range deleted {
		for _, v := range d.m.Faces[f] {
			if v != v1 && v != v2 {
				apex[v] = true
			}
		}
	}
	if len(apex) != 2 {
		return false
	}
	common := 0
	for _, w := range d.edges.Neighbors(v1) {
		if w == v2 || d.edges.Uses(v2, w) == 0 {
			continue
		}
		if !apex[w] {
			return false
		}
		common++
	}
	return common == 2
}

func (d *decimator) collapse(v1, v2 int, deleted, affected []int) {
	for _, f := range deleted {
		d.edges.removeFace(d.m.Faces[f])
		d.alive[f] = false
		d.live--
		for _, v := range d.m.Faces[f] {
			d.vf[v] = removeInt(d.vf[v], f)
		}
	}
	for _, f := range affected {
		d.m.Faces[f] = replaceVertex(d.m.Faces[f], v1, v2)
		d.vf[v2] = append(d.vf[v2], f)
	}
	d.vf[v1] = nil
	d.edges.merge(v1, v2)
	d.collapsed++
}

// finish drops dead faces and the vertices they orphaned.
func (d *decimator) finish() {
	d.m.keepFaces(d.alive)
	if _, err := Condense(d.m); err != nil {
		logger.Warn("condense after decimate", zap.Error(err))
	}
}

func faceHas(f [3]int, v int) bool {
	return f[0] == v || f[1] == v || f[2] == v
}

func replaceVertex(f [3]int, from, to int) [3]int {
	for c := range f {
		if f[c] == from {
			f[c] = to
		}
	}
	return f
}

func removeInt(s []int, x int) []int {
	for i, v := range s {
		if v == x {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

func safeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Mul(1 / l)
}
