package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags. A nil
// f skips the flag layer and the explicit path.
func Load(f *Flags) (*Config, error) {
	cfg := Default()

	// Explicit path takes priority over the search
	configPath := f.ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	f.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that the kernel would otherwise reject
// later with a less specific error.
func (c *Config) Validate() error {
	if c.Tolerance.Dist <= 0 {
		return fmt.Errorf("tolerance.dist must be positive, got %v", c.Tolerance.Dist)
	}
	if c.Tolerance.MinDN < 0 || c.Tolerance.EdgeEpsilon < 0 {
		return fmt.Errorf("tolerance.min_dn and tolerance.edge_epsilon must not be negative")
	}
	if _, err := c.RaytraceOptions(); err != nil {
		return err
	}
	if c.Pieces.MinPieces < 0 {
		return fmt.Errorf("pieces.min_pieces must not be negative, got %d", c.Pieces.MinPieces)
	}
	if n := c.Pieces.TrisPerPiece; n <= 0 || n&(n-1) != 0 {
		return fmt.Errorf("pieces.tris_per_piece must be a power of two, got %d", n)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render size must be positive, got %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Render.Workers < 0 {
		return fmt.Errorf("render.workers must not be negative, got %d", c.Render.Workers)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./tribag.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Tribag")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Tribag")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "tribag")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "tribag")
	}
}

// loadFromFile merges a YAML file over the values already in cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
