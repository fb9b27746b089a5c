package cloud

import (
	"io"

	"github.com/EliCDavis/polyform/formats/ply"
	"github.com/EliCDavis/polyform/modeling"
	"github.com/EliCDavis/vector/vector3"

	"github.com/DonSiMP/obj2pcd/pkg/sampler"
)

// WritePLY writes a binary PLY point cloud with per-vertex normals.
func WritePLY(w io.Writer, samples []sampler.Sample) error {
	return ply.WriteBinary(w, PointCloud(samples))
}

// PointCloud converts samples into a polyform point cloud carrying the
// position and normal attributes.
func PointCloud(samples []sampler.Sample) modeling.Mesh {
	positions := make([]vector3.Vector[float64], 0, len(samples))
	normals := make([]vector3.Vector[float64], 0, len(samples))

	for _, s := range samples {
		positions = append(positions, vector3.New(s.Position.X, s.Position.Y, s.Position.Z))
		normals = append(normals, vector3.New(s.Normal.X, s.Normal.Y, s.Normal.Z))
	}

	return modeling.NewPointCloud(
		nil,
		map[string][]vector3.Vector[float64]{
			modeling.PositionAttribute: positions,
			modeling.NormalAttribute:   normals,
		},
		nil,
		nil,
		nil,
	)
}
