// Package config handles tribag configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/tribag/internal/mesh"
	"github.com/Faultbox/tribag/internal/raytrace"
)

// Config holds all tool settings.
type Config struct {
	Tolerance ToleranceConfig `yaml:"tolerance"`
	Pieces    PiecesConfig    `yaml:"pieces"`
	Precision string          `yaml:"precision"`
	Decimate  DecimateConfig  `yaml:"decimate"`
	Render    RenderConfig    `yaml:"render"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ToleranceConfig holds intersection tolerances.
type ToleranceConfig struct {
	Dist        float64 `yaml:"dist"`
	MinDN       float64 `yaml:"min_dn"`
	EdgeEpsilon float64 `yaml:"edge_epsilon"`
}

// PiecesConfig holds the piece index tuning.
type PiecesConfig struct {
	MinPieces    int `yaml:"min_pieces"`    // 0 disables pieces
	TrisPerPiece int `yaml:"tris_per_piece"` // power of two
}

// DecimateConfig holds edge-collapse limits.
type DecimateConfig struct {
	MaxChordError     float64 `yaml:"max_chord_error"`
	MaxNormalError    float64 `yaml:"max_normal_error"` // degrees
	MinEdgeLength     float64 `yaml:"min_edge_length"`
	MinFaces          int     `yaml:"min_faces"`
	PreserveFreeEdges bool    `yaml:"preserve_free_edges"`
}

// RenderConfig holds thickness map settings.
type RenderConfig struct {
	Width   int `yaml:"width"`
	Height  int `yaml:"height"`
	Workers int `yaml:"workers"` // 0 means GOMAXPROCS
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	tol := raytrace.DefaultTolerance()
	opts := raytrace.DefaultOptions()
	dec := mesh.DefaultDecimateOptions()
	return &Config{
		Tolerance: ToleranceConfig{
			Dist:        tol.Dist,
			MinDN:       tol.MinDN,
			EdgeEpsilon: tol.EdgeEpsilon,
		},
		Pieces: PiecesConfig{
			MinPieces:    opts.MinPieces,
			TrisPerPiece: opts.TrisPerPiece,
		},
		Precision: opts.Precision.String(),
		Decimate: DecimateConfig{
			MaxChordError:     dec.MaxChordError,
			MaxNormalError:    dec.MaxNormalError,
			MinEdgeLength:     dec.MinEdgeLength,
			MinFaces:          dec.MinFaces,
			PreserveFreeEdges: dec.PreserveFreeEdges,
		},
		Render: RenderConfig{
			Width:  256,
			Height: 256,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// RaytraceTolerance converts the tolerance section.
func (c *Config) RaytraceTolerance() raytrace.Tolerance {
	return raytrace.Tolerance{
		Dist:        c.Tolerance.Dist,
		DistSq:      c.Tolerance.Dist * c.Tolerance.Dist,
		MinDN:       c.Tolerance.MinDN,
		EdgeEpsilon: c.Tolerance.EdgeEpsilon,
	}
}

// RaytraceOptions converts the pieces and precision settings.
func (c *Config) RaytraceOptions() (raytrace.Options, error) {
	prec, err := raytrace.ParsePrecision(c.Precision)
	if err != nil {
		return raytrace.Options{}, fmt.Errorf("config precision: %w", err)
	}
	return raytrace.Options{
		MinPieces:    c.Pieces.MinPieces,
		TrisPerPiece: c.Pieces.TrisPerPiece,
		Precision:    prec,
	}, nil
}

// DecimateOptions converts the decimate section.
func (c *Config) DecimateOptions() mesh.DecimateOptions {
	return mesh.DecimateOptions{
		MaxChordError:     c.Decimate.MaxChordError,
		MaxNormalError:    c.Decimate.MaxNormalError,
		MinEdgeLength:     c.Decimate.MinEdgeLength,
		MinFaces:          c.Decimate.MinFaces,
		PreserveFreeEdges: c.Decimate.PreserveFreeEdges,
	}
}
