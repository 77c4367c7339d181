// Package mesh holds the plain vertex/face representation of a triangle
// mesh ("bag of triangles") and the whole-mesh editing operations that run
// on it: vertex and face fusion, condensation, piece-coherent face sorting
// and edge-collapse decimation.
//
// Editing functions mutate the mesh in place and are not safe for
// concurrent use on the same mesh.
package mesh

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidArgument reports a caller parameter outside the accepted set:
// an out-of-range vertex index, an unknown mode or orientation, or per-face
// arrays that do not match the face count.
var ErrInvalidArgument = errors.New("invalid argument")

// Mode is the geometric interpretation of a mesh.
type Mode int

// Mode values match the numbering used in stored BOT records.
const (
	ModeSurface    Mode = 1 // thin shell, no volume
	ModeSolid      Mode = 2 // closed volume
	ModePlate      Mode = 3 // per-face thickness, corrected for obliquity
	ModePlateNoCos Mode = 4 // per-face thickness, not corrected for obliquity
)

var modeNames = map[Mode]string{
	ModeSurface:    "surface",
	ModeSolid:      "solid",
	ModePlate:      "plate",
	ModePlateNoCos: "plate_nocos",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// IsPlate reports whether m carries per-face thickness.
func (m Mode) IsPlate() bool {
	return m == ModePlate || m == ModePlateNoCos
}

// ParseMode converts a mode name ("surface", "solid", "plate", "plate_nocos").
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("mode %q: %w", s, ErrInvalidArgument)
}

// Orientation describes what the face winding means.
type Orientation int

// Orientation values match the numbering used in stored BOT records.
const (
	Unoriented Orientation = 1
	CCW        Orientation = 2 // counter-clockwise winding faces outward
	CW         Orientation = 3 // clockwise winding faces outward
)

var orientationNames = map[Orientation]string{
	Unoriented: "unoriented",
	CCW:        "ccw",
	CW:         "cw",
}

func (o Orientation) String() string {
	if s, ok := orientationNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// Valid reports whether o is a known orientation.
func (o Orientation) Valid() bool {
	_, ok := orientationNames[o]
	return ok
}

// ParseOrientation converts an orientation name ("unoriented", "ccw", "cw").
func ParseOrientation(s string) (Orientation, error) {
	for o, name := range orientationNames {
		if strings.EqualFold(s, name) {
			return o, nil
		}
	}
	return 0, fmt.Errorf("orientation %q: %w", s, ErrInvalidArgument)
}

// Mesh is a triangle mesh as plain arrays.
//
// Thickness and AppendThickness are per face and only meaningful in plate
// modes. FaceNormals, when present, holds one index into Normals per face
// corner.
type Mesh struct {
	Mode        Mode
	Orientation Orientation

	Vertices []mgl64.Vec3
	Faces    [][3]int

	Thickness       []float64
	AppendThickness []bool // false centers the thickness on the hit point

	Normals     []mgl64.Vec3
	FaceNormals [][3]int
	UseNormals  bool
}

// IndexError reports a face corner that references a missing vertex or
// normal.
type IndexError struct {
	Face   int
	Corner int
	Index  int
	Limit  int
	What   string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("face %d corner %d: %s index %d out of range [0,%d)", e.Face, e.Corner, e.What, e.Index, e.Limit)
}

// Unwrap makes IndexError match ErrInvalidArgument.
func (e *IndexError) Unwrap() error {
	return ErrInvalidArgument
}

// NumVertices returns the vertex count.
func (m *Mesh) NumVertices() int {
	return len(m.Vertices)
}

// NumFaces returns the face count.
func (m *Mesh) NumFaces() int {
	return len(m.Faces)
}

// HasFaceNormals reports whether per-corner vertex normals are present.
func (m *Mesh) HasFaceNormals() bool {
	return len(m.FaceNormals) == len(m.Faces) && len(m.Normals) > 0
}

// Validate checks mode, orientation, per-face array lengths and every face
// index.
func (m *Mesh) Validate() error {
	if !m.Mode.Valid() {
		return fmt.Errorf("mode %d: %w", int(m.Mode), ErrInvalidArgument)
	}
	if !m.Orientation.Valid() {
		return fmt.Errorf("orientation %d: %w", int(m.Orientation), ErrInvalidArgument)
	}
	if m.Mode.IsPlate() {
		if len(m.Thickness) != len(m.Faces) {
			return fmt.Errorf("plate mesh has %d thicknesses for %d faces: %w", len(m.Thickness), len(m.Faces), ErrInvalidArgument)
		}
		if len(m.AppendThickness) != len(m.Faces) {
			return fmt.Errorf("plate mesh has %d face modes for %d faces: %w", len(m.AppendThickness), len(m.Faces), ErrInvalidArgument)
		}
	}
	if err := m.checkFaceIndices(); err != nil {
		return err
	}
	if len(m.FaceNormals) > 0 {
		if len(m.FaceNormals) != len(m.Faces) {
			return fmt.Errorf("%d face normal triples for %d faces: %w", len(m.FaceNormals), len(m.Faces), ErrInvalidArgument)
		}
		for i, fn := range m.FaceNormals {
			for c, idx := range fn {
				if idx < 0 || idx >= len(m.Normals) {
					return &IndexError{Face: i, Corner: c, Index: idx, Limit: len(m.Normals), What: "normal"}
				}
			}
		}
	}
	return nil
}

func (m *Mesh) checkFaceIndices() error {
	nv := len(m.Vertices)
	for i, f := range m.Faces {
		for c, idx := range f {
			if idx < 0 || idx >= nv {
				return &IndexError{Face: i, Corner: c, Index: idx, Limit: nv, What: "vertex"}
			}
		}
	}
	return nil
}

// Clone returns a deep copy of m.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Mode:        m.Mode,
		Orientation: m.Orientation,
		UseNormals:  m.UseNormals,
	}
	out.Vertices = append([]mgl64.Vec3(nil), m.Vertices...)
	out.Faces = append([][3]int(nil), m.Faces...)
	out.Thickness = append([]float64(nil), m.Thickness...)
	out.AppendThickness = append([]bool(nil), m.AppendThickness...)
	out.Normals = append([]mgl64.Vec3(nil), m.Normals...)
	out.FaceNormals = append([][3]int(nil), m.FaceNormals...)
	return out
}

// Bounds returns the axis-aligned box of every vertex referenced by a face.
// ok is false for a mesh without faces.
func (m *Mesh) Bounds() (min, max mgl64.Vec3, ok bool) {
	for _, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Vertices) {
				continue
			}
			p := m.Vertices[idx]
			if !ok {
				min, max, ok = p, p, true
				continue
			}
			for a := 0; a < 3; a++ {
				if p[a] < min[a] {
					min[a] = p[a]
				}
				if p[a] > max[a] {
					max[a] = p[a]
				}
			}
		}
	}
	return min, max, ok
}

// FaceNormal returns the unnormalized (B-A)x(C-A) normal of face i.
func (m *Mesh) FaceNormal(i int) mgl64.Vec3 {
	f := m.Faces[i]
	a := m.Vertices[f[0]]
	return m.Vertices[f[1]].Sub(a).Cross(m.Vertices[f[2]].Sub(a))
}

// FaceCenter returns the centroid of face i.
func (m *Mesh) FaceCenter(i int) mgl64.Vec3 {
	f := m.Faces[i]
	return m.Vertices[f[0]].Add(m.Vertices[f[1]]).Add(m.Vertices[f[2]]).Mul(1.0 / 3.0)
}

// keepFaces drops every face whose alive entry is false, keeping the
// per-face arrays parallel.
func (m *Mesh) keepFaces(alive []bool) {
	n := 0
	for i := range m.Faces {
		if !alive[i] {
			continue
		}
		m.Faces[n] = m.Faces[i]
		if len(m.Thickness) > i {
			m.Thickness[n] = m.Thickness[i]
		}
		if len(m.AppendThickness) > i {
			m.AppendThickness[n] = m.AppendThickness[i]
		}
		if len(m.FaceNormals) > i {
			m.FaceNormals[n] = m.FaceNormals[i]
		}
		n++
	}
	m.Faces = m.Faces[:n]
	if len(m.Thickness) > n {
		m.Thickness = m.Thickness[:n]
	}
	if len(m.AppendThickness) > n {
		m.AppendThickness = m.AppendThickness[:n]
	}
	if len(m.FaceNormals) > n {
		m.FaceNormals = m.FaceNormals[:n]
	}
}

// reorderFaces permutes the faces (and per-face arrays) so that new face k
// is old face order[k].
func (m *Mesh) reorderFaces(order []int) {
	faces := make([][3]int, len(order))
	for k, i := range order {
		faces[k] = m.Faces[i]
	}
	m.Faces = faces

	if len(m.Thickness) == len(order) {
		th := make([]float64, len(order))
		for k, i := range order {
			th[k] = m.Thickness[i]
		}
		m.Thickness = th
	}
	if len(m.AppendThickness) == len(order) {
		ap := make([]bool, len(order))
		for k, i := range order {
			ap[k] = m.AppendThickness[i]
		}
		m.AppendThickness = ap
	}
	if len(m.FaceNormals) == len(order) {
		fn := make([][3]int, len(order))
		for k, i := range order {
			fn[k] = m.FaceNormals[i]
		}
		m.FaceNormals = fn
	}
}
