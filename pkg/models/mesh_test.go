package models

import (
	"errors"
	"math"
	"testing"

	"github.com/DonSiMP/obj2pcd/pkg/math3d"
	"github.com/DonSiMP/obj2pcd/pkg/sampler"
)

// quadMesh returns a 2x4 rectangle in the XY plane at z=1 sharing four
// vertices between two faces.
func quadMesh() *Mesh {
	m := NewMesh("quad")
	m.Vertices = []MeshVertex{
		{Position: math3d.V3(0, 0, 1)},
		{Position: math3d.V3(2, 0, 1)},
		{Position: math3d.V3(2, 4, 1)},
		{Position: math3d.V3(0, 4, 1)},
	}
	m.Faces = []Face{{V: [3]int{0, 1, 2}}, {V: [3]int{0, 2, 3}}}
	m.CalculateBounds()
	return m
}

func TestMeshBounds(t *testing.T) {
	m := quadMesh()
	if m.BoundsMin != math3d.V3(0, 0, 1) || m.BoundsMax != math3d.V3(2, 4, 1) {
		t.Errorf("bounds = %v..%v", m.BoundsMin, m.BoundsMax)
	}
	if m.Center() != math3d.V3(1, 2, 1) {
		t.Errorf("Center = %v, want (1,2,1)", m.Center())
	}
	if m.Size() != math3d.V3(2, 4, 0) {
		t.Errorf("Size = %v, want (2,4,0)", m.Size())
	}
}

func TestMeshCalculateNormals(t *testing.T) {
	m := quadMesh()
	if m.HasNormals() {
		t.Fatal("fresh mesh should have no normals")
	}

	m.CalculateNormals()
	for i, v := range m.Vertices {
		if v.Normal != math3d.V3(0, 0, 1) {
			t.Errorf("vertex %d normal = %v, want +Z", i, v.Normal)
		}
	}

	m.CalculateSmoothNormals()
	for i, v := range m.Vertices {
		if math.Abs(v.Normal.Z-1) > 1e-12 {
			t.Errorf("vertex %d smooth normal = %v, want +Z", i, v.Normal)
		}
	}
}

func TestMeshCalculateNormalsUnwelds(t *testing.T) {
	m := NewMesh("fold")
	m.Vertices = []MeshVertex{
		{Position: math3d.V3(0, 0, 0), UV: math3d.V2(0.5, 0.5)},
		{Position: math3d.V3(1, 0, 0)},
		{Position: math3d.V3(0, 1, 0)},
		{Position: math3d.V3(0, 0, 1)},
	}
	m.Faces = []Face{{V: [3]int{0, 1, 2}}, {V: [3]int{0, 3, 1}}}

	m.CalculateNormals()

	if m.VertexCount() != 6 {
		t.Fatalf("VertexCount = %d, want 6", m.VertexCount())
	}
	if m.Faces[1].V != [3]int{3, 4, 5} {
		t.Errorf("Faces[1] = %v, want [3 4 5]", m.Faces[1].V)
	}
	if m.Vertices[3].Position != math3d.V3(0, 0, 0) || m.Vertices[3].UV != math3d.V2(0.5, 0.5) {
		t.Errorf("vertex 3 = %+v, want a copy of vertex 0", m.Vertices[3])
	}
	for i, want := range []math3d.Vec3{math3d.V3(0, 0, 1), math3d.V3(0, 1, 0)} {
		for _, idx := range m.Faces[i].V {
			if m.Vertices[idx].Normal != want {
				t.Errorf("face %d vertex %d normal = %v, want %v", i, idx, m.Vertices[idx].Normal, want)
			}
		}
	}
	if math.Abs(m.SurfaceArea()-1) > 1e-12 {
		t.Errorf("SurfaceArea = %v, want 1", m.SurfaceArea())
	}
}

func TestMeshNormalize(t *testing.T) {
	m := quadMesh()
	m.CalculateNormals()
	m.Normalize()

	if m.Center().Len() > 1e-12 {
		t.Errorf("Center after Normalize = %v, want origin", m.Center())
	}
	size := m.Size()
	if math.Abs(size.Y-1) > 1e-12 || math.Abs(size.X-0.5) > 1e-12 {
		t.Errorf("Size after Normalize = %v, want (0.5,1,0)", size)
	}
	if m.Vertices[0].Normal != math3d.V3(0, 0, 1) {
		t.Errorf("normal after Normalize = %v, want +Z", m.Vertices[0].Normal)
	}
	if math.Abs(m.SurfaceArea()-0.5) > 1e-12 {
		t.Errorf("SurfaceArea after Normalize = %v, want 0.5", m.SurfaceArea())
	}
}

func TestMeshNormalizeEmpty(t *testing.T) {
	m := NewMesh("empty")
	m.Normalize()
	if m.VertexCount() != 0 {
		t.Errorf("VertexCount = %d, want 0", m.VertexCount())
	}
}

func TestMeshSurfaceArea(t *testing.T) {
	if got := quadMesh().SurfaceArea(); math.Abs(got-8) > 1e-12 {
		t.Errorf("SurfaceArea = %v, want 8", got)
	}
}

func TestMeshSoup(t *testing.T) {
	m := quadMesh()
	m.CalculateNormals()

	positions, normals := m.Soup()
	if len(positions) != 6 || len(normals) != 6 {
		t.Fatalf("soup lengths = %d, %d, want 6, 6", len(positions), len(normals))
	}

	want := []int{0, 1, 2, 0, 2, 3}
	for i, idx := range want {
		if positions[i] != m.Vertices[idx].Position {
			t.Errorf("positions[%d] = %v, want vertex %d %v", i, positions[i], idx, m.Vertices[idx].Position)
		}
		if normals[i] != m.Vertices[idx].Normal {
			t.Errorf("normals[%d] = %v, want %v", i, normals[i], m.Vertices[idx].Normal)
		}
	}
}

func TestMeshGeometry(t *testing.T) {
	g, err := quadMesh().Geometry()
	if err != nil {
		t.Fatalf("Geometry: %v", err)
	}
	if g.TriangleCount() != 2 {
		t.Errorf("TriangleCount = %d, want 2", g.TriangleCount())
	}
	if math.Abs(g.TotalArea()-8) > 1e-12 {
		t.Errorf("TotalArea = %v, want 8", g.TotalArea())
	}

	_, err = NewMesh("empty").Geometry()
	if !errors.Is(err, sampler.ErrEmptyMesh) {
		t.Errorf("empty mesh Geometry error = %v, want ErrEmptyMesh", err)
	}
}
