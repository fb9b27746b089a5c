package render

import (
	"math"

	"github.com/DonSiMP/obj2pcd/pkg/math3d"
)

// Camera is a look-at perspective camera used to preview point clouds.
type Camera struct {
	Position math3d.Vec3
	Target   math3d.Vec3

	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64
	Far         float64

	viewProj math3d.Mat4
	dirty    bool
}

// NewCamera creates a camera on +Z looking at the origin.
func NewCamera() *Camera {
	return &Camera{
		Position:    math3d.V3(0, 0, 5),
		FOV:         math.Pi / 3, // 60 degrees
		AspectRatio: 1,
		Near:        0.1,
		Far:         1000,
		dirty:       true,
	}
}

// LookAt places the camera at eye facing target.
func (c *Camera) LookAt(eye, target math3d.Vec3) {
	c.Position = eye
	c.Target = target
	c.dirty = true
}

// SetAspectRatio sets the aspect ratio.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.dirty = true
}

// SetClipPlanes sets the near and far clipping planes.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near = near
	c.Far = far
	c.dirty = true
}

// ViewProjectionMatrix returns projection * view, rebuilt after any setter.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	if c.dirty {
		view := math3d.LookAt(c.Position, c.Target, math3d.Up())
		proj := math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
		c.viewProj = proj.Mul(view)
		c.dirty = false
	}
	return c.viewProj
}

// WorldToScreen projects a world point to pixel coordinates with y down.
// Points outside the view volume are reported not visible.
func (c *Camera) WorldToScreen(worldPos math3d.Vec3, screenWidth, screenHeight int) (x, y, depth float64, visible bool) {
	clip := c.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(worldPos, 1))
	if clip.W <= 0 {
		return 0, 0, 0, false
	}

	ndc := clip.PerspectiveDivide()
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
		return 0, 0, 0, false
	}

	x = (ndc.X + 1) * 0.5 * float64(screenWidth)
	y = (1 - ndc.Y) * 0.5 * float64(screenHeight)
	return x, y, ndc.Z, true
}
