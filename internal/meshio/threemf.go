package meshio

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hpinc/go3mf"

	"github.com/Faultbox/tribag/internal/mesh"
)

// Object is one named mesh object of a 3MF package.
type Object struct {
	Name string
	Mesh *mesh.Mesh
}

// Read3MF decodes the mesh objects of the 3MF file at path. Build item
// transforms and components are not applied.
func Read3MF(path string) ([]Object, error) {
	r, err := go3mf.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open 3MF: %w", err)
	}
	defer r.Close()

	var model go3mf.Model
	if err := r.Decode(&model); err != nil {
		return nil, fmt.Errorf("decode 3MF: %w", err)
	}

	var out []Object
	for _, obj := range model.Resources.Objects {
		if obj.Mesh == nil {
			continue
		}
		m := &mesh.Mesh{
			Mode:        mesh.ModeSolid,
			Orientation: mesh.CCW,
			Vertices:    make([]mgl64.Vec3, len(obj.Mesh.Vertices.Vertex)),
			Faces:       make([][3]int, len(obj.Mesh.Triangles.Triangle)),
		}
		for i, p := range obj.Mesh.Vertices.Vertex {
			m.Vertices[i] = mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
		}
		for i, t := range obj.Mesh.Triangles.Triangle {
			m.Faces[i] = [3]int{int(t.V1), int(t.V2), int(t.V3)}
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("3MF object %d %q: %w", obj.ID, obj.Name, err)
		}
		out = append(out, Object{Name: obj.Name, Mesh: m})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("3MF %s has no mesh objects", path)
	}
	return out, nil
}

// Write3MF encodes objs as a 3MF package at path, one build item per
// object. Clockwise meshes are rewound since 3MF requires outward
// counter-clockwise triangles.
func Write3MF(path string, objs ...Object) error {
	var model go3mf.Model
	for i, o := range objs {
		if err := o.Mesh.Validate(); err != nil {
			return fmt.Errorf("object %q: %w", o.Name, err)
		}
		id := uint32(i + 1)
		gm := &go3mf.Mesh{}
		gm.Vertices.Vertex = make([]go3mf.Point3D, len(o.Mesh.Vertices))
		for k, v := range o.Mesh.Vertices {
			gm.Vertices.Vertex[k] = go3mf.Point3D{float32(v[0]), float32(v[1]), float32(v[2])}
		}
		gm.Triangles.Triangle = make([]go3mf.Triangle, len(o.Mesh.Faces))
		for k, f := range o.Mesh.Faces {
			if o.Mesh.Orientation == mesh.CW {
				f[1], f[2] = f[2], f[1]
			}
			gm.Triangles.Triangle[k] = go3mf.Triangle{V1: uint32(f[0]), V2: uint32(f[1]), V3: uint32(f[2])}
		}
		model.Resources.Objects = append(model.Resources.Objects, &go3mf.Object{ID: id, Name: o.Name, Mesh: gm})
		model.Build.Items = append(model.Build.Items, &go3mf.Item{ObjectID: id})
	}

	w, err := go3mf.CreateWriter(path)
	if err != nil {
		return fmt.Errorf("create 3MF: %w", err)
	}
	// Shortest exact float32 text; the default keeps only 4 digits.
	w.FloatPrecision = -1
	if err := w.Encode(&model); err != nil {
		w.Close()
		return fmt.Errorf("encode 3MF: %w", err)
	}
	return w.Close()
}
