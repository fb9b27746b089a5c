package models

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/DonSiMP/obj2pcd/pkg/math3d"
)

// ErrNonTriangularFace is returned for OBJ faces with more than three corners.
var ErrNonTriangularFace = errors.New("face is not a triangle")

// LoadOBJ loads a Wavefront OBJ file.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	return ReadOBJ(f, filepath.Base(path))
}

// objCorner is one v/vt/vn reference of a face, already resolved to
// zero-based indices. Missing attributes are -1.
type objCorner struct {
	v, vt, vn int
}

// ReadOBJ parses OBJ geometry from r. Only v, vt, vn and triangular f
// statements are interpreted; everything else is skipped. Each face gets its
// own three vertices so face normals stay faceted.
func ReadOBJ(r io.Reader, name string) (*Mesh, error) {
	var (
		positions []math3d.Vec3
		uvs       []math3d.Vec2
		normals   []math3d.Vec3
		missing   bool
	)

	mesh := NewMesh(name)
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "v":
			v, err := parseFloats(parts[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: vertex: %w", name, lineNo, err)
			}
			positions = append(positions, math3d.V3(v[0], v[1], v[2]))
		case "vt":
			v, err := parseFloats(parts[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: texcoord: %w", name, lineNo, err)
			}
			uvs = append(uvs, math3d.V2(v[0], v[1]))
		case "vn":
			v, err := parseFloats(parts[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: normal: %w", name, lineNo, err)
			}
			normals = append(normals, math3d.V3(v[0], v[1], v[2]))
		case "f":
			if len(parts) != 4 {
				return nil, fmt.Errorf("%s:%d: %d corners: %w", name, lineNo, len(parts)-1, ErrNonTriangularFace)
			}

			var face Face
			for i, tok := range parts[1:] {
				c, err := parseCorner(tok, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, fmt.Errorf("%s:%d: face: %w", name, lineNo, err)
				}

				vert := MeshVertex{Position: positions[c.v]}
				if c.vt >= 0 {
					vert.UV = uvs[c.vt]
				}
				if c.vn >= 0 {
					vert.Normal = normals[c.vn]
				} else {
					missing = true
				}

				face.V[i] = len(mesh.Vertices)
				mesh.Vertices = append(mesh.Vertices, vert)
			}
			mesh.Faces = append(mesh.Faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	if missing {
		mesh.fillFaceNormals()
	}
	mesh.CalculateBounds()

	return mesh, nil
}

// fillFaceNormals gives every vertex without a normal its face's normal.
func (m *Mesh) fillFaceNormals() {
	for _, f := range m.Faces {
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position
		normal := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()

		for _, idx := range f.V {
			if m.Vertices[idx].Normal.LenSq() == 0 {
				m.Vertices[idx].Normal = normal
			}
		}
	}
}

func parseFloats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d components, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i := range n {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// parseCorner parses v, v/vt, v//vn or v/vt/vn.
func parseCorner(tok string, nv, nvt, nvn int) (objCorner, error) {
	c := objCorner{v: -1, vt: -1, vn: -1}
	refs := strings.Split(tok, "/")
	if len(refs) > 3 {
		return c, fmt.Errorf("malformed corner %q", tok)
	}

	var err error
	if c.v, err = resolveIndex(refs[0], nv); err != nil {
		return c, fmt.Errorf("corner %q position: %w", tok, err)
	}
	if len(refs) > 1 && refs[1] != "" {
		if c.vt, err = resolveIndex(refs[1], nvt); err != nil {
			return c, fmt.Errorf("corner %q texcoord: %w", tok, err)
		}
	}
	if len(refs) > 2 && refs[2] != "" {
		if c.vn, err = resolveIndex(refs[2], nvn); err != nil {
			return c, fmt.Errorf("corner %q normal: %w", tok, err)
		}
	}
	return c, nil
}

// resolveIndex turns a one-based or negative (relative) OBJ index into a
// zero-based index into a list of length n.
func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0 && i <= n:
		return i - 1, nil
	case i < 0 && -i <= n:
		return n + i, nil
	default:
		return 0, fmt.Errorf("index %d out of range [1, %d]", i, n)
	}
}
