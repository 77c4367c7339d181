// Package meshio reads and writes triangle meshes as STL and 3MF files.
package meshio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/tribag/internal/mesh"
)

// STL format errors.
var (
	ErrTruncatedSTL = errors.New("truncated STL data")
	ErrInvalidSTL   = errors.New("invalid STL data")
)

const (
	stlHeaderSize = 80
	stlFacetSize  = 4*3*4 + 2 // normal, three vertices, attribute count
)

// STL holds a decoded STL file. Mesh is an oriented counter-clockwise
// solid with coincident corners welded.
type STL struct {
	Header string
	Mesh   *mesh.Mesh
}

// welder assigns one index per distinct corner position.
type welder struct {
	index map[[3]float32]int
	m     *mesh.Mesh
}

func newWelder() *welder {
	return &welder{
		index: make(map[[3]float32]int),
		m:     &mesh.Mesh{Mode: mesh.ModeSolid, Orientation: mesh.CCW},
	}
}

func (w *welder) vertex(p [3]float32) int {
	if i, ok := w.index[p]; ok {
		return i
	}
	i := len(w.m.Vertices)
	w.m.Vertices = append(w.m.Vertices, mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])})
	w.index[p] = i
	return i
}

func (w *welder) face(c [3][3]float32) {
	w.m.Faces = append(w.m.Faces, [3]int{w.vertex(c[0]), w.vertex(c[1]), w.vertex(c[2])})
}

// ParseSTL decodes a binary or ASCII STL file from raw bytes. A file that
// starts with "solid" but whose size matches its binary facet count is
// read as binary, as many exporters write that header.
func ParseSTL(data []byte) (*STL, error) {
	if isASCII(data) {
		return parseASCII(data)
	}
	return parseBinary(data)
}

func isASCII(data []byte) bool {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return false
	}
	if len(data) >= stlHeaderSize+4 {
		n := binary.LittleEndian.Uint32(data[stlHeaderSize:])
		if uint64(len(data)) == stlHeaderSize+4+uint64(n)*stlFacetSize {
			return false
		}
	}
	return true
}

func parseBinary(data []byte) (*STL, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, ErrTruncatedSTL
	}
	out := &STL{Header: strings.TrimRight(string(data[:stlHeaderSize]), " \x00")}
	n := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	body := data[stlHeaderSize+4:]
	if uint64(len(body)) < uint64(n)*stlFacetSize {
		return nil, fmt.Errorf("%w: %d facets need %d bytes, have %d", ErrTruncatedSTL, n, uint64(n)*stlFacetSize, len(body))
	}

	w := newWelder()
	w.m.Faces = make([][3]int, 0, n)
	var corners [3][3]float32
	for i := uint32(0); i < n; i++ {
		facet := body[int(i)*stlFacetSize:]
		for v := range corners {
			for c := range corners[v] {
				const start = 3 * 4 // skip normal
				corners[v][c] = math.Float32frombits(binary.LittleEndian.Uint32(facet[start+12*v+4*c:]))
			}
		}
		w.face(corners)
	}
	out.Mesh = w.m
	return out, nil
}

func parseASCII(data []byte) (*STL, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	out := &STL{}
	w := newWelder()

	var corners [3][3]float32
	nv := 0
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "solid":
			out.Header = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(sc.Text()), "solid"))
		case "facet":
			nv = 0
		case "vertex":
			if len(fields) != 4 || nv >= 3 {
				return nil, fmt.Errorf("%w: line %d: bad vertex", ErrInvalidSTL, line)
			}
			for c := 0; c < 3; c++ {
				f, err := strconv.ParseFloat(fields[c+1], 32)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidSTL, line, err)
				}
				corners[nv][c] = float32(f)
			}
			nv++
		case "endfacet":
			if nv != 3 {
				return nil, fmt.Errorf("%w: line %d: facet has %d vertices", ErrInvalidSTL, line, nv)
			}
			w.face(corners)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	out.Mesh = w.m
	return out, nil
}

// WriteSTL encodes m as binary STL. Faces are written counter-clockwise
// with their unit normals; plate and normal data is not representable and
// is dropped.
func WriteSTL(wr io.Writer, m *mesh.Mesh, header string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(wr)

	var hdr [stlHeaderSize]byte
	copy(hdr[:], header)
	if _, err := bw.Write(hdr[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(m.Faces))); err != nil {
		return err
	}

	buf := make([]byte, stlFacetSize)
	for i, f := range m.Faces {
		if m.Orientation == mesh.CW {
			f[1], f[2] = f[2], f[1]
		}
		n := m.FaceNormal(i)
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		if m.Orientation == mesh.CW {
			n = n.Mul(-1)
		}
		putVec(buf[0:], n)
		for v := 0; v < 3; v++ {
			putVec(buf[12+12*v:], m.Vertices[f[v]])
		}
		binary.LittleEndian.PutUint16(buf[48:], 0)
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func putVec(b []byte, v mgl64.Vec3) {
	for c := 0; c < 3; c++ {
		binary.LittleEndian.PutUint32(b[4*c:], math.Float32bits(float32(v[c])))
	}
}
