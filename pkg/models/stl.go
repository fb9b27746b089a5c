package models

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/DonSiMP/obj2pcd/pkg/math3d"
)

const (
	stlHeaderSize = 80
	stlRecordSize = 50 // normal, 3 vertices, attribute byte count
)

// LoadSTL loads a binary or ASCII STL file.
func LoadSTL(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stl: %w", err)
	}
	defer f.Close()

	return ReadSTL(f, filepath.Base(path))
}

// ReadSTL parses STL data from r. Binary files are recognized by their
// triangle count matching the data length; anything starting with "solid"
// that does not is read as ASCII.
func ReadSTL(r io.Reader, name string) (*Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stl: %w", err)
	}

	var mesh *Mesh
	if isBinarySTL(data) {
		mesh, err = readBinarySTL(data, name)
	} else {
		mesh, err = readASCIISTL(data, name)
	}
	if err != nil {
		return nil, err
	}

	mesh.CalculateBounds()
	return mesh, nil
}

func isBinarySTL(data []byte) bool {
	if len(data) < stlHeaderSize+4 {
		return false
	}
	n := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	if uint64(len(data)) == stlHeaderSize+4+uint64(n)*stlRecordSize {
		return true
	}
	return !bytes.HasPrefix(bytes.TrimSpace(data[:stlHeaderSize]), []byte("solid"))
}

func readBinarySTL(data []byte, name string) (*Mesh, error) {
	n := int(binary.LittleEndian.Uint32(data[stlHeaderSize:]))
	body := data[stlHeaderSize+4:]
	if len(body) < n*stlRecordSize {
		return nil, fmt.Errorf("%s: binary stl declares %d triangles, has data for %d",
			name, n, len(body)/stlRecordSize)
	}

	mesh := NewMesh(name)
	mesh.Vertices = make([]MeshVertex, 0, n*3)
	mesh.Faces = make([]Face, 0, n)

	for i := range n {
		rec := body[i*stlRecordSize:]
		var corners [3]math3d.Vec3
		for v := range corners {
			corners[v] = readSTLVec3(rec[12+12*v:])
		}
		mesh.addFacet(readSTLVec3(rec), corners)
	}

	return mesh, nil
}

func readSTLVec3(b []byte) math3d.Vec3 {
	return math3d.V3(
		float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:]))),
		float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))),
		float64(math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))),
	)
}

func readASCIISTL(data []byte, name string) (*Mesh, error) {
	mesh := NewMesh(name)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0

	var (
		normal  math3d.Vec3
		corners [3]math3d.Vec3
		count   int
		inFacet bool
	)

	for scanner.Scan() {
		lineNo++
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "facet":
			if len(parts) != 5 || parts[1] != "normal" {
				return nil, fmt.Errorf("%s:%d: malformed facet", name, lineNo)
			}
			v, err := parseFloats(parts[2:], 3)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: facet normal: %w", name, lineNo, err)
			}
			normal = math3d.V3(v[0], v[1], v[2])
			count = 0
			inFacet = true
		case "vertex":
			if !inFacet {
				return nil, fmt.Errorf("%s:%d: vertex outside facet", name, lineNo)
			}
			if count == 3 {
				return nil, fmt.Errorf("%s:%d: %w", name, lineNo, ErrNonTriangularFace)
			}
			v, err := parseFloats(parts[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: vertex: %w", name, lineNo, err)
			}
			corners[count] = math3d.V3(v[0], v[1], v[2])
			count++
		case "endfacet":
			if count != 3 {
				return nil, fmt.Errorf("%s:%d: facet with %d vertices: %w", name, lineNo, count, ErrNonTriangularFace)
			}
			mesh.addFacet(normal, corners)
			inFacet = false
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stl: %w", err)
	}

	return mesh, nil
}

// addFacet appends a triangle with its own three vertices. A zero or
// non-finite facet normal is replaced by the geometric one.
func (m *Mesh) addFacet(normal math3d.Vec3, corners [3]math3d.Vec3) {
	if normal.LenSq() == 0 || !normal.IsFinite() {
		normal = corners[1].Sub(corners[0]).Cross(corners[2].Sub(corners[0]))
	}
	normal = normal.Normalize()

	base := len(m.Vertices)
	for _, p := range corners {
		m.Vertices = append(m.Vertices, MeshVertex{Position: p, Normal: normal})
	}
	m.Faces = append(m.Faces, Face{V: [3]int{base, base + 1, base + 2}})
}

// formatSTLFloat prints the shortest text that round-trips a float32.
func formatSTLFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 32)
}

// WriteSTL writes the mesh as ASCII STL.
func (m *Mesh) WriteSTL(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", m.Name)
	for _, f := range m.Faces {
		a := m.Vertices[f.V[0]].Position
		b := m.Vertices[f.V[1]].Position
		c := m.Vertices[f.V[2]].Position
		n := b.Sub(a).Cross(c.Sub(a)).Normalize()

		fmt.Fprintf(bw, "  facet normal %s %s %s\n", formatSTLFloat(n.X), formatSTLFloat(n.Y), formatSTLFloat(n.Z))
		fmt.Fprintln(bw, "    outer loop")
		for _, p := range []math3d.Vec3{a, b, c} {
			fmt.Fprintf(bw, "      vertex %s %s %s\n", formatSTLFloat(p.X), formatSTLFloat(p.Y), formatSTLFloat(p.Z))
		}
		fmt.Fprintln(bw, "    endloop")
		fmt.Fprintln(bw, "  endfacet")
	}
	fmt.Fprintf(bw, "endsolid %s\n", m.Name)
	return bw.Flush()
}
