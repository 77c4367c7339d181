package tessellate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/tribag/internal/mesh"
)

// Sphere returns a sphere of radius r centered on the origin.
func Sphere(r float64) (sdf.SDF3, error) {
	return sdf.Sphere3D(r)
}

// Box returns an x by y by z box centered on the origin with edges rounded
// by round.
func Box(x, y, z, round float64) (sdf.SDF3, error) {
	return sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, round)
}

// Cylinder returns a cylinder of height h along Z and radius r, centered on
// the origin.
func Cylinder(h, r, round float64) (sdf.SDF3, error) {
	return sdf.Cylinder3D(h, r, round)
}

// Translate moves s by d.
func Translate(s sdf.SDF3, d mgl64.Vec3) sdf.SDF3 {
	return sdf.Transform3D(s, sdf.Translate3d(v3.Vec{X: d[0], Y: d[1], Z: d[2]}))
}

// Parse builds a shape from a "kind:a,b,..." description:
//
//	sphere:r
//	box:x,y,z[,round]
//	cylinder:h,r[,round]
func Parse(desc string) (sdf.SDF3, error) {
	kind, args, _ := strings.Cut(desc, ":")
	var vals []float64
	if args != "" {
		for _, f := range strings.Split(args, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("shape %q: %w", desc, err)
			}
			vals = append(vals, v)
		}
	}

	arity := func(lo, hi int) error {
		if len(vals) < lo || len(vals) > hi {
			return fmt.Errorf("shape %q: %s takes %d to %d values: %w", desc, kind, lo, hi, mesh.ErrInvalidArgument)
		}
		return nil
	}
	opt := func(i int) float64 {
		if i < len(vals) {
			return vals[i]
		}
		return 0
	}

	switch strings.ToLower(kind) {
	case "sphere":
		if err := arity(1, 1); err != nil {
			return nil, err
		}
		return Sphere(vals[0])
	case "box":
		if err := arity(3, 4); err != nil {
			return nil, err
		}
		return Box(vals[0], vals[1], vals[2], opt(3))
	case "cylinder":
		if err := arity(2, 3); err != nil {
			return nil, err
		}
		return Cylinder(vals[0], vals[1], opt(2))
	}
	return nil, fmt.Errorf("unknown shape %q: %w", kind, mesh.ErrInvalidArgument)
}
