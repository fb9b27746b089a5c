package render

import (
	"image/color"

	"github.com/DonSiMP/obj2pcd/pkg/math3d"
)

// Wireframe draws reference geometry (bounding boxes, axes) under a cloud.
type Wireframe struct {
	camera *Camera
	fb     *Framebuffer
}

// NewWireframe creates a new wireframe renderer.
func NewWireframe(camera *Camera, fb *Framebuffer) *Wireframe {
	return &Wireframe{
		camera: camera,
		fb:     fb,
	}
}

// DrawLine3D draws a line in 3D space. Lines with an endpoint outside the
// view are skipped rather than clipped.
func (w *Wireframe) DrawLine3D(p1, p2 math3d.Vec3, c color.RGBA) {
	x1, y1, _, vis1 := w.camera.WorldToScreen(p1, w.fb.Width, w.fb.Height)
	x2, y2, _, vis2 := w.camera.WorldToScreen(p2, w.fb.Width, w.fb.Height)
	if !vis1 || !vis2 {
		return
	}
	w.fb.DrawLine(int(x1), int(y1), int(x2), int(y2), c)
}

// boxEdges indexes the corners produced by DrawBox.
var boxEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0}, // min Z face
	{4, 5}, {5, 7}, {7, 6}, {6, 4}, // max Z face
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// DrawBox draws the 12 edges of the axis-aligned box lo..hi.
func (w *Wireframe) DrawBox(lo, hi math3d.Vec3, c color.RGBA) {
	var corners [8]math3d.Vec3
	for i := range corners {
		corners[i] = lo
		if i&1 != 0 {
			corners[i].X = hi.X
		}
		if i&2 != 0 {
			corners[i].Y = hi.Y
		}
		if i&4 != 0 {
			corners[i].Z = hi.Z
		}
	}

	for _, edge := range boxEdges {
		w.DrawLine3D(corners[edge[0]], corners[edge[1]], c)
	}
}

// DrawAxes draws the coordinate axes from origin, X red, Y green, Z blue.
func (w *Wireframe) DrawAxes(origin math3d.Vec3, length float64) {
	w.DrawLine3D(origin, origin.Add(math3d.V3(length, 0, 0)), RGB(255, 0, 0))
	w.DrawLine3D(origin, origin.Add(math3d.V3(0, length, 0)), RGB(0, 255, 0))
	w.DrawLine3D(origin, origin.Add(math3d.V3(0, 0, length)), RGB(0, 0, 255))
}
