// Package config handles obj2pcd configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"
)

// Config holds all sampling, mesh, output, preview and logging settings.
type Config struct {
	Sampling SamplingConfig `yaml:"sampling"`
	Mesh     MeshConfig     `yaml:"mesh"`
	Output   OutputConfig   `yaml:"output"`
	Preview  PreviewConfig  `yaml:"preview"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SamplingConfig holds the surface sampler settings.
type SamplingConfig struct {
	Density     float64 `yaml:"density"`      // Samples per unit area
	FlipNormals bool    `yaml:"flip_normals"` // Negate every emitted normal
	Seed        int64   `yaml:"seed"`         // 0 seeds from the clock
	MaxAttempts int     `yaml:"max_attempts"` // Draws per sample before failing
}

// MeshConfig holds mesh loading and post-processing settings.
type MeshConfig struct {
	Normalize      bool    `yaml:"normalize"`
	ComputeNormals bool    `yaml:"compute_normals"`
	SmoothNormals  bool    `yaml:"smooth_normals"`
	Primitive      string  `yaml:"primitive"` // box, sphere or cylinder instead of a file
	PrimitiveSize  float64 `yaml:"primitive_size"`
	PrimitiveCells int     `yaml:"primitive_cells"`
	Export         string  `yaml:"export"` // Optional ASCII STL dump of the prepared mesh
}

// OutputConfig holds point cloud output settings.
type OutputConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"` // Empty derives the format from Path
}

// PreviewConfig holds terminal and PNG preview settings.
type PreviewConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	PNG          string `yaml:"png"`
	NormalColors bool   `yaml:"normal_colors"`
	Bounds       bool   `yaml:"bounds"` // Draw the bounding box and axes
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	LogFile  string `yaml:"log_file"`
	Progress bool   `yaml:"progress"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Sampling: SamplingConfig{
			Density:     1000,
			FlipNormals: false,
			Seed:        0,
			MaxAttempts: 2,
		},
		Mesh: MeshConfig{
			Normalize:      false,
			ComputeNormals: false,
			SmoothNormals:  false,
			PrimitiveSize:  1,
			PrimitiveCells: 64,
		},
		Output: OutputConfig{
			Path:   "out.pcd",
			Format: "",
		},
		Preview: PreviewConfig{
			Enabled: false,
			Width:   80,
			Height:  48,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	d := c.Sampling.Density
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return fmt.Errorf("sampling.density %v must be a positive number: %w", d, ErrInvalidConfig)
	}
	if c.Sampling.MaxAttempts < 1 {
		return fmt.Errorf("sampling.max_attempts %d must be at least 1: %w", c.Sampling.MaxAttempts, ErrInvalidConfig)
	}
	if c.Mesh.Primitive != "" && c.Mesh.PrimitiveSize <= 0 {
		return fmt.Errorf("mesh.primitive_size %v must be positive: %w", c.Mesh.PrimitiveSize, ErrInvalidConfig)
	}
	if c.Preview.Enabled || c.Preview.PNG != "" {
		if c.Preview.Width <= 0 || c.Preview.Height <= 0 {
			return fmt.Errorf("preview size %dx%d must be positive: %w", c.Preview.Width, c.Preview.Height, ErrInvalidConfig)
		}
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output.path is empty: %w", ErrInvalidConfig)
	}
	return nil
}
