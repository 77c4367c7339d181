package config

import "flag"

// Flags holds the command-line overrides registered on one command's
// flag set.
type Flags struct {
	config       *string
	debug        *bool
	logFile      *string
	precision    *string
	tol          *float64
	minPieces    *int
	trisPerPiece *int
	width        *int
	height       *int
	workers      *int
}

// RegisterFlags adds the shared overrides to fs. Call before fs.Parse.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:       fs.String("config", "", "Path to config file"),
		debug:        fs.Bool("debug", false, "Enable debug logging"),
		logFile:      fs.String("log-file", "", "Write logs to a rotating file"),
		precision:    fs.String("precision", "", "Triangle storage precision (double, single)"),
		tol:          fs.Float64("tol", 0, "Distance tolerance"),
		minPieces:    fs.Int("min-pieces", -1, "Smallest triangle count that gets a piece index (0 disables)"),
		trisPerPiece: fs.Int("tris-per-piece", 0, "Triangles per piece, a power of two"),
		width:        fs.Int("width", 0, "Render width in pixels"),
		height:       fs.Int("height", 0, "Render height in pixels"),
		workers:      fs.Int("workers", 0, "Render workers"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.logFile != "" {
		cfg.Logging.LogFile = *f.logFile
	}
	if *f.precision != "" {
		cfg.Precision = *f.precision
	}
	if *f.tol > 0 {
		cfg.Tolerance.Dist = *f.tol
	}
	if *f.minPieces >= 0 {
		cfg.Pieces.MinPieces = *f.minPieces
	}
	if *f.trisPerPiece > 0 {
		cfg.Pieces.TrisPerPiece = *f.trisPerPiece
	}
	if *f.width > 0 {
		cfg.Render.Width = *f.width
	}
	if *f.height > 0 {
		cfg.Render.Height = *f.height
	}
	if *f.workers > 0 {
		cfg.Render.Workers = *f.workers
	}
}
