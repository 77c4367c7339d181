package meshio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/tribag/internal/logger"
	"github.com/Faultbox/tribag/internal/mesh"
)

// Load reads a mesh file chosen by extension (.stl or .3mf). The objects
// of a 3MF package are merged into one mesh.
func Load(path string) (*mesh.Mesh, error) {
	var m *mesh.Mesh
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		s, err := ParseSTL(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		m = s.Mesh
	case ".3mf":
		objs, err := Read3MF(path)
		if err != nil {
			return nil, err
		}
		m = Merge(objs...)
	default:
		return nil, fmt.Errorf("%s: unsupported mesh format %q: %w", path, filepath.Ext(path), mesh.ErrInvalidArgument)
	}

	logger.Named("meshio").Debug("loaded mesh",
		zap.String("path", path),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("faces", len(m.Faces)))
	return m, nil
}

// Save writes m to path in the format chosen by extension.
func Save(path string, m *mesh.Mesh) error {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := WriteSTL(f, m, name); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case ".3mf":
		return Write3MF(path, Object{Name: name, Mesh: m})
	}
	return fmt.Errorf("%s: unsupported mesh format %q: %w", path, filepath.Ext(path), mesh.ErrInvalidArgument)
}

// Merge concatenates solid objects into one mesh. Clockwise inputs are
// rewound to counter-clockwise.
func Merge(objs ...Object) *mesh.Mesh {
	out := &mesh.Mesh{Mode: mesh.ModeSolid, Orientation: mesh.CCW}
	for _, o := range objs {
		base := len(out.Vertices)
		out.Vertices = append(out.Vertices, o.Mesh.Vertices...)
		for _, f := range o.Mesh.Faces {
			if o.Mesh.Orientation == mesh.CW {
				f[1], f[2] = f[2], f[1]
			}
			out.Faces = append(out.Faces, [3]int{f[0] + base, f[1] + base, f[2] + base})
		}
	}
	return out
}
