package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/tribag/internal/config"
	"github.com/Faultbox/tribag/internal/logger"
	"github.com/Faultbox/tribag/internal/mesh"
	"github.com/Faultbox/tribag/internal/meshio"
	"github.com/Faultbox/tribag/internal/raytrace"
	"github.com/Faultbox/tribag/internal/scene"
	"github.com/Faultbox/tribag/internal/tessellate"
)

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	if _, err := setup(fs, args); err != nil {
		return err
	}
	if err := needArgs(fs, 1, "<mesh>"); err != nil {
		return err
	}

	m, err := meshio.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "file:        %s\n", fs.Arg(0))
	fmt.Fprint(stdout, mesh.Describe(m))
	return nil
}

func cmdShoot(args []string) error {
	fs := flag.NewFlagSet("shoot", flag.ContinueOnError)
	origin := fs.String("o", "", "Ray origin x,y,z")
	dir := fs.String("d", "0,0,1", "Ray direction x,y,z")
	mf := registerModeFlags(fs)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 1, "-o x,y,z -d x,y,z <mesh>"); err != nil {
		return err
	}

	m, err := meshio.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := mf.apply(m); err != nil {
		return err
	}
	opts, err := cfg.RaytraceOptions()
	if err != nil {
		return err
	}
	solid, err := raytrace.Prepare(m, cfg.RaytraceTolerance(), opts)
	if err != nil {
		return err
	}

	var r raytrace.Ray
	if r.Dir, err = parseVec(*dir); err != nil {
		return err
	}
	if r.Dir.Len() == 0 {
		return fmt.Errorf("ray direction must not be zero")
	}
	if *origin == "" {
		// Start outside the bounding sphere, aimed through the center.
		r.Dir = r.Dir.Normalize()
		r.Origin = solid.Center().Sub(r.Dir.Mul(2 * solid.BRadius()))
	} else if r.Origin, err = parseVec(*origin); err != nil {
		return err
	}

	segs := solid.Shoot(r)
	fmt.Fprintf(stdout, "ray %v -> %v: %d segment(s)\n", fmtVec(r.Origin), fmtVec(r.Dir), len(segs))
	var total float64
	for i, seg := range segs {
		total += seg.Length()
		fmt.Fprintf(stdout, "  %d: in %.6g (face %d, normal %s)  out %.6g (face %d, normal %s)  length %.6g\n",
			i,
			seg.In.Dist, seg.In.Face, fmtVec(solid.Normal(seg.In)),
			seg.Out.Dist, seg.Out.Face, fmtVec(solid.Normal(seg.Out)),
			seg.Length())
	}
	fmt.Fprintf(stdout, "total length %.6g\n", total)

	lo, hi := solid.Bounds()
	box := scene.AABB{Min: lo, Max: hi}
	switch {
	case box.Contains(r.Origin):
		fmt.Fprintln(stdout, "origin is inside the bounding box")
	case len(segs) == 0:
		if _, hit := scene.IntersectAABB(r, box); !hit {
			fmt.Fprintln(stdout, "ray misses the bounding box")
		}
	}
	return nil
}

func cmdConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	save := fs.Bool("save", false, "Write the effective config to the user config directory")
	out := fs.String("o", "", "Write the effective config to this path")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 0, "[-save] [-o path]"); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, string(data))

	if *save {
		if err := cfg.Save(); err != nil {
			return err
		}
		logger.Info("config saved", zap.String("dir", config.ConfigDir()))
	}
	if *out != "" {
		return cfg.SaveTo(*out)
	}
	return nil
}

func fmtVec(v mgl64.Vec3) string {
	return fmt.Sprintf("(%.4g, %.4g, %.4g)", v[0], v[1], v[2])
}

// editCommand loads <in>, applies edit and saves <out>.
func editCommand(name string, args []string, register func(*flag.FlagSet), edit func(*config.Config, *mesh.Mesh) (string, error)) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if register != nil {
		register(fs)
	}
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 2, "<in> <out>"); err != nil {
		return err
	}

	m, err := meshio.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	before := len(m.Faces)
	summary, err := edit(cfg, m)
	if err != nil {
		return err
	}
	if err := meshio.Save(fs.Arg(1), m); err != nil {
		return err
	}
	logger.Info(name+" done",
		zap.String("in", fs.Arg(0)),
		zap.String("out", fs.Arg(1)),
		zap.Int("faces_before", before),
		zap.Int("faces_after", len(m.Faces)))
	fmt.Fprintln(stdout, summary)
	return nil
}

func cmdFuse(args []string) error {
	return editCommand("fuse", args, nil, func(_ *config.Config, m *mesh.Mesh) (string, error) {
		verts, err := mesh.VertexFuse(m)
		if err != nil {
			return "", err
		}
		faces, err := mesh.FaceFuse(m)
		if err != nil {
			return "", err
		}
		dead, err := mesh.Condense(m)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("fused %d vertices, %d faces; condensed %d vertices", verts, faces, dead), nil
	})
}

func cmdCondense(args []string) error {
	return editCommand("condense", args, nil, func(_ *config.Config, m *mesh.Mesh) (string, error) {
		n, err := mesh.Condense(m)
		return fmt.Sprintf("removed %d unused vertices", n), err
	})
}

func cmdSort(args []string) error {
	var tris *int
	return editCommand("sort", args, func(fs *flag.FlagSet) {
		tris = fs.Int("n", raytrace.DefaultOptions().TrisPerPiece, "Triangles per piece")
	}, func(_ *config.Config, m *mesh.Mesh) (string, error) {
		if err := mesh.SortFaces(m, *tris); err != nil {
			return "", err
		}
		return fmt.Sprintf("sorted %d faces into pieces of %d", len(m.Faces), *tris), nil
	})
}

func cmdDecimate(args []string) error {
	var chord, normal, minEdge *float64
	var minFaces *int
	var moveFree *bool
	return editCommand("decimate", args, func(fs *flag.FlagSet) {
		chord = fs.Float64("chord", -1, "Max chord error (default from config)")
		normal = fs.Float64("normal", -1, "Max normal error in degrees (default from config)")
		minEdge = fs.Float64("min-edge", -1, "Only collapse edges up to this length (default from config)")
		minFaces = fs.Int("min-faces", -1, "Face count floor (default from config)")
		moveFree = fs.Bool("move-free-edges", false, "Allow collapsing free edges")
	}, func(cfg *config.Config, m *mesh.Mesh) (string, error) {
		opts := cfg.DecimateOptions()
		if *chord >= 0 {
			opts.MaxChordError = *chord
		}
		if *normal >= 0 {
			opts.MaxNormalError = *normal
		}
		if *minEdge >= 0 {
			opts.MinEdgeLength = *minEdge
		}
		if *minFaces >= 0 {
			opts.MinFaces = *minFaces
		}
		if *moveFree {
			opts.PreserveFreeEdges = false
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		before := len(m.Faces)
		n, err := mesh.Decimate(ctx, m, opts)
		if err != nil && ctx.Err() == nil {
			return "", err
		}
		status := ""
		if err != nil {
			status = " (interrupted)"
		}
		return fmt.Sprintf("collapsed %d edges, faces %d -> %d%s", n, before, len(m.Faces), status), nil
	})
}

func cmdFlip(args []string) error {
	return editCommand("flip", args, nil, func(_ *config.Config, m *mesh.Mesh) (string, error) {
		mesh.Flip(m)
		return fmt.Sprintf("flipped %d faces", len(m.Faces)), nil
	})
}

func cmdConvert(args []string) error {
	var scale *float64
	var translate *string
	var sync *bool
	return editCommand("convert", args, func(fs *flag.FlagSet) {
		scale = fs.Float64("scale", 1, "Uniform scale factor")
		translate = fs.String("translate", "0,0,0", "Translation x,y,z applied after scaling")
		sync = fs.Bool("sync", false, "Make face winding consistent first")
	}, func(_ *config.Config, m *mesh.Mesh) (string, error) {
		flipped := 0
		if *sync {
			n, err := mesh.Sync(m)
			if err != nil {
				return "", err
			}
			flipped = n
		}
		t, err := parseVec(*translate)
		if err != nil {
			return "", err
		}
		if *scale == 0 {
			return "", fmt.Errorf("scale must not be zero")
		}
		mat := mgl64.Translate3D(t[0], t[1], t[2]).Mul4(mgl64.Scale3D(*scale, *scale, *scale))
		mesh.Transform(m, mat)
		return fmt.Sprintf("converted %d faces (%d rewound)", len(m.Faces), flipped), nil
	})
}

func cmdSplit(args []string) error {
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	if _, err := setup(fs, args); err != nil {
		return err
	}
	if err := needArgs(fs, 2, "<in> <out-prefix.ext>"); err != nil {
		return err
	}

	m, err := meshio.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	parts, err := mesh.Split(m)
	if err != nil {
		return err
	}

	ext := filepath.Ext(fs.Arg(1))
	base := fs.Arg(1)[:len(fs.Arg(1))-len(ext)]
	for i, p := range parts {
		out := fmt.Sprintf("%s_%d%s", base, i, ext)
		if err := meshio.Save(out, p); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: %d faces\n", out, len(p.Faces))
	}
	return nil
}

func cmdTess(args []string) error {
	fs := flag.NewFlagSet("tess", flag.ContinueOnError)
	cells := fs.Int("cells", tessellate.DefaultCells, "Marching cubes cells along the longest side")
	if _, err := setup(fs, args); err != nil {
		return err
	}
	if err := needArgs(fs, 2, "<shape> <out>"); err != nil {
		return err
	}

	shape, err := tessellate.Parse(fs.Arg(0))
	if err != nil {
		return err
	}
	m, err := tessellate.Mesh(shape, *cells)
	if err != nil {
		return err
	}
	if err := meshio.Save(fs.Arg(1), m); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: %d faces, %d vertices, volume %.6g\n",
		fs.Arg(1), len(m.Faces), len(m.Vertices), mesh.Volume(m))
	return nil
}

func cmdRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	view := fs.String("view", "top", "View axis: top, front or side")
	mf := registerModeFlags(fs)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 2, "<mesh> <out.png>"); err != nil {
		return err
	}
	v, err := scene.ParseView(*view)
	if err != nil {
		return err
	}

	m, err := meshio.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := mf.apply(m); err != nil {
		return err
	}
	opts, err := cfg.RaytraceOptions()
	if err != nil {
		return err
	}
	solid, err := raytrace.Prepare(m, cfg.RaytraceTolerance(), opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	tm, err := scene.Render(ctx, solid, scene.Options{
		Width:   cfg.Render.Width,
		Height:  cfg.Render.Height,
		Workers: cfg.Render.Workers,
		View:    v,
	})
	if err != nil {
		return err
	}
	if err := tm.WritePNG(fs.Arg(1)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: %dx%d, %d of %d rays hit, max thickness %.6g, volume %.6g\n",
		fs.Arg(1), tm.Width, tm.Height, tm.Hits, tm.Rays, tm.Max, tm.Volume())
	return nil
}
