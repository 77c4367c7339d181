// bottool is a CLI utility for inspecting, editing and ray tracing
// triangle meshes.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/tribag/internal/config"
	"github.com/Faultbox/tribag/internal/logger"
	"github.com/Faultbox/tribag/internal/mesh"
)

// stdout receives command output; logs go to stderr.
var stdout io.Writer = os.Stdout

var commands = map[string]func([]string) error{
	"info":     cmdInfo,
	"shoot":    cmdShoot,
	"fuse":     cmdFuse,
	"condense": cmdCondense,
	"sort":     cmdSort,
	"decimate": cmdDecimate,
	"flip":     cmdFlip,
	"split":    cmdSplit,
	"convert":  cmdConvert,
	"tess":     cmdTess,
	"render":   cmdRender,
	"config":   cmdConfig,
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "help", "-h", "--help":
		printUsage()
		return
	}

	run, ok := commands[command]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	err := run(os.Args[2:])
	logger.Sync()
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`bottool - triangle mesh ray tracing and editing utility

Usage:
  bottool <command> [options] <args>

Commands:
  info <mesh>                          Show mesh summary
  shoot -o x,y,z -d x,y,z <mesh>       Shoot one ray and print segments
  fuse <in> <out>                      Fuse coincident vertices and duplicate faces
  condense <in> <out>                  Drop unreferenced vertices
  sort [-n tris] <in> <out>            Reorder faces into coherent pieces
  decimate [limits] <in> <out>         Collapse edges within error limits
  flip <in> <out>                      Reverse the winding of every face
  split <in> <out-prefix>              Write each connected component
  convert [-scale s] [-translate x,y,z] <in> <out>
                                       Transform and change format
  tess [-cells n] <shape> <out>        Tessellate sphere:r, box:x,y,z or cylinder:h,r
  render [-view top|front|side] <mesh> <out.png>
                                       Write a thickness map
  config [-save] [-o path]             Print the effective config

Meshes are read and written as .stl or .3mf. Every command accepts
-config, -debug, -log-file, -precision, -tol, -min-pieces, -tris-per-piece,
-width, -height and -workers.

Examples:
  bottool tess -cells 48 sphere:10 ball.stl
  bottool decimate -chord 0.05 ball.stl ball-lo.stl
  bottool shoot -o 0,0,-50 -d 0,0,1 ball-lo.stl
  bottool render -view front -width 512 -height 512 ball.stl ball.png`)
}

// setup parses args into fs with the shared config flags, then loads the
// config and installs the logger.
func setup(fs *flag.FlagSet, args []string) (*config.Config, error) {
	cf := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := config.Load(cf)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logger.Sugar.Debugf("config: %+v", cfg)
	return cfg, nil
}

// needArgs checks the positional argument count.
func needArgs(fs *flag.FlagSet, n int, usage string) error {
	if fs.NArg() != n {
		return fmt.Errorf("usage: bottool %s %s", fs.Name(), usage)
	}
	return nil
}

// parseVec parses "x,y,z".
func parseVec(s string) (mgl64.Vec3, error) {
	var v mgl64.Vec3
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("vector %q: want x,y,z", s)
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return v, fmt.Errorf("vector %q: %w", s, err)
		}
		v[i] = f
	}
	return v, nil
}

// modeFlags reinterprets a loaded solid as another mode, since mesh files
// carry no mode or thickness.
type modeFlags struct {
	mode      *string
	thickness *float64
	appendT   *bool
}

func registerModeFlags(fs *flag.FlagSet) *modeFlags {
	return &modeFlags{
		mode:      fs.String("mode", "", "Treat the mesh as solid, surface, plate or plate_nocos"),
		thickness: fs.Float64("thickness", 1, "Plate thickness for every face"),
		appendT:   fs.Bool("append", false, "Append plate thickness instead of centering it"),
	}
}

func (f *modeFlags) apply(m *mesh.Mesh) error {
	if *f.mode == "" {
		return nil
	}
	mode, err := mesh.ParseMode(*f.mode)
	if err != nil {
		return err
	}
	m.Mode = mode
	if mode.IsPlate() {
		m.Thickness = make([]float64, len(m.Faces))
		m.AppendThickness = make([]bool, len(m.Faces))
		for i := range m.Faces {
			m.Thickness[i] = *f.thickness
			m.AppendThickness[i] = *f.appendT
		}
	}
	return nil
}
