package models

import (
	"errors"
	"fmt"
	"slices"

	sdfrender "github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/DonSiMP/obj2pcd/pkg/math3d"
)

// DefaultPrimitiveCells is the marching cubes resolution along the longest
// axis of a primitive's bounding box.
const DefaultPrimitiveCells = 64

// ErrUnknownPrimitive is returned by Primitive for an unsupported kind.
var ErrUnknownPrimitive = errors.New("unknown primitive")

// primitiveKinds lists the names accepted by Primitive.
var primitiveKinds = []string{"box", "sphere", "cylinder"}

// PrimitiveKinds returns the primitive names Primitive accepts.
func PrimitiveKinds() []string {
	return slices.Clone(primitiveKinds)
}

// Primitive tessellates a procedural solid centered on the origin.
// size is the box edge, the sphere diameter, or the cylinder's height and
// diameter. cells <= 0 selects DefaultPrimitiveCells.
func Primitive(kind string, size float64, cells int) (*Mesh, error) {
	if size <= 0 {
		return nil, fmt.Errorf("primitive %s: size %v must be positive", kind, size)
	}
	if cells <= 0 {
		cells = DefaultPrimitiveCells
	}

	var (
		s   sdf.SDF3
		err error
	)
	switch kind {
	case "box":
		s, err = sdf.Box3D(v3.Vec{X: size, Y: size, Z: size}, 0)
	case "sphere":
		s, err = sdf.Sphere3D(size / 2)
	case "cylinder":
		s, err = sdf.Cylinder3D(size, size/2, 0)
	default:
		return nil, fmt.Errorf("%q (want one of %v): %w", kind, primitiveKinds, ErrUnknownPrimitive)
	}
	if err != nil {
		return nil, fmt.Errorf("primitive %s: %w", kind, err)
	}

	mesh := meshFromSDF(kind, s, cells)
	if len(mesh.Faces) == 0 {
		return nil, fmt.Errorf("primitive %s: marching cubes produced no triangles", kind)
	}
	return mesh, nil
}

// meshFromSDF runs uniform marching cubes over s and keeps the renderer's
// face normals on three private vertices per triangle.
func meshFromSDF(name string, s sdf.SDF3, cells int) *Mesh {
	renderer := sdfrender.NewMarchingCubesUniform(cells)
	triangles := sdfrender.ToTriangles(s, renderer)

	mesh := NewMesh(name)
	mesh.Vertices = make([]MeshVertex, 0, len(triangles)*3)
	mesh.Faces = make([]Face, 0, len(triangles))

	for i, tri := range triangles {
		n := tri.Normal()
		normal := math3d.V3(n.X, n.Y, n.Z)
		if !normal.IsFinite() {
			normal = math3d.Zero3()
		}

		for j := range 3 {
			v := tri[j]
			mesh.Vertices = append(mesh.Vertices, MeshVertex{
				Position: math3d.V3(v.X, v.Y, v.Z),
				Normal:   normal,
			})
		}
		mesh.Faces = append(mesh.Faces, Face{V: [3]int{i * 3, i*3 + 1, i*3 + 2}})
	}

	mesh.CalculateBounds()
	return mesh
}
