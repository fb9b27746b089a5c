package models

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned by Load for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// LoadOptions controls post-processing applied by Load.
type LoadOptions struct {
	// Normalize centers the mesh and scales it into the unit cube.
	Normalize bool
	// ComputeNormals recomputes vertex normals even when the file has them.
	ComputeNormals bool
	// SmoothNormals averages recomputed normals across shared vertices.
	SmoothNormals bool
}

// Load reads a mesh, choosing the loader by file extension.
func Load(path string, opts LoadOptions) (*Mesh, error) {
	var (
		mesh *Mesh
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		mesh, err = LoadOBJ(path)
	case ".stl":
		mesh, err = LoadSTL(path)
	case ".glb", ".gltf":
		loader := NewGLTFLoader()
		loader.SmoothNormals = opts.SmoothNormals
		mesh, err = loader.Load(path)
	default:
		return nil, fmt.Errorf("%s: %q: %w", path, ext, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}

	mesh.Apply(opts)
	return mesh, nil
}

// Apply runs the normal and normalization passes selected by opts.
func (m *Mesh) Apply(opts LoadOptions) {
	if opts.ComputeNormals {
		if opts.SmoothNormals {
			m.CalculateSmoothNormals()
		} else {
			m.CalculateNormals()
		}
	}
	if opts.Normalize {
		m.Normalize()
	}
}
