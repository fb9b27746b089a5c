package render

import (
	"image/color"
	"math"

	"github.com/DonSiMP/obj2pcd/pkg/cloud"
	"github.com/DonSiMP/obj2pcd/pkg/math3d"
	"github.com/DonSiMP/obj2pcd/pkg/sampler"
)

// Splatter draws samples as depth-tested, Lambert-shaded points.
type Splatter struct {
	camera *Camera
	fb     *Framebuffer
	depth  []float64

	// LightDir points from the surface toward the light.
	LightDir math3d.Vec3
	Ambient  float64
	Color    color.RGBA
	// Radius grows each point to a (2r+1)x(2r+1) square.
	Radius int
	// NormalColors maps normals to RGB instead of shading Color.
	NormalColors bool
}

// NewSplatter creates a splatter drawing into fb through camera.
func NewSplatter(camera *Camera, fb *Framebuffer) *Splatter {
	s := &Splatter{
		camera:   camera,
		fb:       fb,
		depth:    make([]float64, fb.Width*fb.Height),
		LightDir: math3d.V3(0.4, 0.8, 0.6).Normalize(),
		Ambient:  0.2,
		Color:    ColorPoint,
	}
	s.ClearDepth()
	return s
}

// ClearDepth resets the depth buffer to the far plane.
func (s *Splatter) ClearDepth() {
	for i := range s.depth {
		s.depth[i] = math.MaxFloat64
	}
}

// Draw splats every sample and returns how many landed on screen.
func (s *Splatter) Draw(samples []sampler.Sample) int {
	drawn := 0
	for _, smp := range samples {
		if s.Splat(smp) {
			drawn++
		}
	}
	return drawn
}

// Splat projects one sample and writes it where it is nearest so far.
func (s *Splatter) Splat(smp sampler.Sample) bool {
	fx, fy, z, ok := s.camera.WorldToScreen(smp.Position, s.fb.Width, s.fb.Height)
	if !ok {
		return false
	}
	cx, cy := int(fx), int(fy)
	c := s.shade(smp)

	hit := false
	for y := cy - s.Radius; y <= cy+s.Radius; y++ {
		for x := cx - s.Radius; x <= cx+s.Radius; x++ {
			if x < 0 || x >= s.fb.Width || y < 0 || y >= s.fb.Height {
				continue
			}
			idx := y*s.fb.Width + x
			if z >= s.depth[idx] {
				continue
			}
			s.depth[idx] = z
			s.fb.Pixels[idx] = c
			hit = true
		}
	}
	return hit
}

// DepthAt returns the stored NDC depth at (x, y), or +Inf off-screen.
func (s *Splatter) DepthAt(x, y int) float64 {
	if x < 0 || x >= s.fb.Width || y < 0 || y >= s.fb.Height {
		return math.Inf(1)
	}
	return s.depth[y*s.fb.Width+x]
}

func (s *Splatter) shade(smp sampler.Sample) color.RGBA {
	n := smp.Normal
	if s.NormalColors {
		return RGB(normalChannel(n.X), normalChannel(n.Y), normalChannel(n.Z))
	}

	// Points are two-sided: a normal facing away from the camera is lit as
	// if flipped toward it.
	if n.Dot(s.camera.Position.Sub(smp.Position)) < 0 {
		n = n.Negate()
	}
	intensity := s.Ambient + (1-s.Ambient)*math.Max(0, n.Dot(s.LightDir))

	return color.RGBA{
		R: uint8(float64(s.Color.R) * intensity),
		G: uint8(float64(s.Color.G) * intensity),
		B: uint8(float64(s.Color.B) * intensity),
		A: 255,
	}
}

func normalChannel(v float64) uint8 {
	return uint8(math.Round((math.Max(-1, math.Min(1, v))*0.5 + 0.5) * 255))
}

// FrameBounds points camera at the bounding sphere of the box lo..hi from
// a fixed three-quarter view so the whole box fits the frame.
func FrameBounds(camera *Camera, lo, hi math3d.Vec3) {
	center := lo.Add(hi).Scale(0.5)
	radius := hi.Sub(lo).Len() / 2
	if radius == 0 {
		radius = 1
	}

	halfFOV := camera.FOV / 2
	if camera.AspectRatio < 1 {
		halfFOV = math.Atan(math.Tan(halfFOV) * camera.AspectRatio)
	}
	distance := radius / math.Sin(halfFOV) * 1.05

	dir := math3d.V3(0.6, 0.45, 1).Normalize()
	camera.LookAt(center.Add(dir.Scale(distance)), center)
	camera.SetClipPlanes(math.Max(distance-radius*1.5, distance*0.01), distance+radius*1.5)
}

// PreviewOptions controls Preview.
type PreviewOptions struct {
	Width, Height int
	// NormalColors colors points by normal instead of shading them.
	NormalColors bool
	// Bounds draws the cloud's bounding box and axes under the points.
	Bounds bool
}

// Preview renders samples into a new framebuffer framed on the cloud.
func Preview(samples []sampler.Sample, opts PreviewOptions) *Framebuffer {
	fb := NewFramebuffer(opts.Width, opts.Height)
	fb.Clear(ColorBackground)

	camera := NewCamera()
	camera.SetAspectRatio(float64(opts.Width) / float64(opts.Height))

	lo, hi, ok := cloud.Bounds(samples)
	if !ok {
		return fb
	}
	FrameBounds(camera, lo, hi)

	if opts.Bounds {
		wf := NewWireframe(camera, fb)
		wf.DrawBox(lo, hi, ColorBounds)
		wf.DrawAxes(lo, hi.Sub(lo).Len()*0.25)
	}

	s := NewSplatter(camera, fb)
	s.NormalColors = opts.NormalColors
	s.Draw(samples)
	return fb
}
