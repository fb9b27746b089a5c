// Package models loads triangle meshes from OBJ, STL and glTF files, or
// builds them from SDF primitives, and flattens them into the triangle soup
// consumed by the surface sampler.
package models

import (
	"github.com/DonSiMP/obj2pcd/pkg/math3d"
	"github.com/DonSiMP/obj2pcd/pkg/sampler"
)

// Mesh represents an indexed triangle mesh.
type Mesh struct {
	Name     string
	Vertices []MeshVertex
	Faces    []Face

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// MeshVertex holds all vertex attributes.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
}

// Face is a triangle referencing three entries of Mesh.Vertices.
type Face struct {
	V [3]int
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]MeshVertex, 0),
		Faces:    make([]Face, 0),
	}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		return
	}

	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// HasNormals reports whether any vertex carries a non-zero normal.
func (m *Mesh) HasNormals() bool {
	for _, v := range m.Vertices {
		if v.Normal.Len() > 0.001 {
			return true
		}
	}
	return false
}

// CalculateNormals assigns each face its geometric normal. Faces are given
// their own three vertices first so a vertex shared by faces that disagree
// does not keep only the last face's normal.
func (m *Mesh) CalculateNormals() {
	m.unweld()
	for _, f := range m.Faces {
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position

		normal := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()

		for _, idx := range f.V {
			m.Vertices[idx].Normal = normal
		}
	}
}

// unweld rewrites the mesh so face i owns vertices 3i, 3i+1 and 3i+2.
func (m *Mesh) unweld() {
	vertices := make([]MeshVertex, 0, len(m.Faces)*3)
	for i, f := range m.Faces {
		for j, idx := range f.V {
			vertices = append(vertices, m.Vertices[idx])
			m.Faces[i].V[j] = i*3 + j
		}
	}
	m.Vertices = vertices
}

// CalculateSmoothNormals computes area-weighted averaged vertex normals.
// Vertices at the same position share one normal whether or not the file
// indexed them as one vertex, so soups from OBJ, STL and marching cubes
// smooth the same way as indexed glTF.
func (m *Mesh) CalculateSmoothNormals() {
	// Unnormalized cross products weight each face by its area.
	sums := make(map[math3d.Vec3]math3d.Vec3, len(m.Vertices))
	for _, f := range m.Faces {
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position

		normal := v1.Sub(v0).Cross(v2.Sub(v0))

		sums[v0] = sums[v0].Add(normal)
		sums[v1] = sums[v1].Add(normal)
		sums[v2] = sums[v2].Add(normal)
	}

	for i := range m.Vertices {
		m.Vertices[i].Normal = sums[m.Vertices[i].Position].Normalize()
	}
}

// Transform applies a transformation matrix to all vertices.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Vertices {
		m.Vertices[i].Position = mat.MulVec3(m.Vertices[i].Position)
		// Only the linear part applies to normals; exact for uniform scale.
		m.Vertices[i].Normal = mat.MulVec3Dir(m.Vertices[i].Normal).Normalize()
	}
	m.CalculateBounds()
}

// Normalize centers the mesh on the origin and scales it uniformly so its
// largest bounding-box dimension is 1.
func (m *Mesh) Normalize() {
	m.CalculateBounds()
	size := m.Size()
	maxDim := max(size.X, size.Y, size.Z)
	if maxDim <= 0 {
		return
	}
	scale := 1.0 / maxDim
	m.Transform(math3d.ScaleUniform(scale).Mul(math3d.Translate(m.Center().Negate())))
}

// SurfaceArea returns the summed area of all faces.
func (m *Mesh) SurfaceArea() float64 {
	var total float64
	for _, f := range m.Faces {
		total += sampler.TriangleArea(
			m.Vertices[f.V[0]].Position,
			m.Vertices[f.V[1]].Position,
			m.Vertices[f.V[2]].Position,
		)
	}
	return total
}

// Soup expands the indexed faces into flat position and normal buffers,
// three entries per triangle in face order.
func (m *Mesh) Soup() (positions, normals []math3d.Vec3) {
	positions = make([]math3d.Vec3, 0, len(m.Faces)*3)
	normals = make([]math3d.Vec3, 0, len(m.Faces)*3)
	for _, f := range m.Faces {
		for _, idx := range f.V {
			v := m.Vertices[idx]
			positions = append(positions, v.Position)
			normals = append(normals, v.Normal)
		}
	}
	return positions, normals
}

// Geometry flattens the mesh and builds the sampler's geometry store.
func (m *Mesh) Geometry() (*sampler.Geometry, error) {
	positions, normals := m.Soup()
	return sampler.NewGeometry(positions, normals)
}
