package sampler

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/DonSiMP/obj2pcd/pkg/math3d"
	"go.uber.org/zap"
)

const (
	// inclusionEpsilon is the slack allowed on u and v in the inclusion test.
	inclusionEpsilon = 1e-5

	// degenerateEpsilon bounds the barycentric denominator relative to the
	// squared edge lengths. |e0 x e1|^2 below this fraction means the edges
	// are parallel to working precision.
	degenerateEpsilon = 1e-12

	// DefaultMaxAttempts is one draw plus one fresh redraw.
	DefaultMaxAttempts = 2

	// progressInterval is how often (in samples) cancellation is checked and
	// progress reported.
	progressInterval = 1024
)

// Sample is one point on the surface with its unit normal.
type Sample struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
}

// Components returns the sample as the record x, y, z, nx, ny, nz.
func (s Sample) Components() [6]float64 {
	return [6]float64{
		s.Position.X, s.Position.Y, s.Position.Z,
		s.Normal.X, s.Normal.Y, s.Normal.Z,
	}
}

// Sampler draws area-weighted surface samples from a Geometry.
// A Sampler owns its random source and must not be shared between goroutines.
type Sampler struct {
	geom        *Geometry
	flip        bool
	source      Source
	maxAttempts int
	log         *zap.Logger
	progress    func(done, total int)
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithSource sets the random source. The default is seeded from the clock.
func WithSource(src Source) Option {
	return func(s *Sampler) {
		s.source = src
	}
}

// WithSeed seeds a fresh RandomSource for reproducible output.
func WithSeed(seed int64) Option {
	return func(s *Sampler) {
		s.source = NewRandomSource(seed)
	}
}

// WithMaxAttempts sets how many independent draws a sample gets before the
// request fails with ErrSampleRejected. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(s *Sampler) {
		if n >= 1 {
			s.maxAttempts = n
		}
	}
}

// WithLogger sets the logger used for sampling diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(s *Sampler) {
		if log != nil {
			s.log = log
		}
	}
}

// WithProgress registers a callback invoked periodically while sampling.
func WithProgress(fn func(done, total int)) Option {
	return func(s *Sampler) {
		s.progress = fn
	}
}

// New creates a sampler over g. When flip is set every emitted normal is
// negated before normalization.
func New(g *Geometry, flip bool, opts ...Option) *Sampler {
	s := &Sampler{
		geom:        g,
		flip:        flip,
		maxAttempts: DefaultMaxAttempts,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = NewTimeSource()
	}
	return s
}

// Geometry returns the store the sampler reads from.
func (s *Sampler) Geometry() *Geometry {
	return s.geom
}

// Flip reports whether normals are negated.
func (s *Sampler) Flip() bool {
	return s.flip
}

// SampleCount returns round(density * total area), the number of samples a
// request at density produces.
func (s *Sampler) SampleCount(density float64) (int, error) {
	if math.IsNaN(density) || math.IsInf(density, 0) || density <= 0 {
		return 0, fmt.Errorf("density %v: %w", density, ErrInvalidDensity)
	}
	n := math.Round(density * s.geom.TotalArea())
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("density %v yields %.0f samples: %w", density, n, ErrInvalidDensity)
	}
	return int(n), nil
}

// Sample materializes every sample of a request at density.
func (s *Sampler) Sample(ctx context.Context, density float64) ([]Sample, error) {
	n, err := s.SampleCount(density)
	if err != nil {
		return nil, err
	}

	out := make([]Sample, 0, n)
	err = s.Each(ctx, density, func(_ int, smp Sample) error {
		out = append(out, smp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Each streams the samples of a request at density to fn in order.
// It stops at the first error from fn, from sampling, or from ctx.
func (s *Sampler) Each(ctx context.Context, density float64, fn func(i int, smp Sample) error) error {
	n, err := s.SampleCount(density)
	if err != nil {
		return err
	}

	s.log.Debug("sampling surface",
		zap.Int("samples", n),
		zap.Float64("density", density),
		zap.Float64("area", s.geom.TotalArea()),
		zap.Int("triangles", s.geom.TriangleCount()),
		zap.Bool("flip", s.flip),
	)

	for i := range n {
		if i%progressInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("sample %d of %d: %w", i, n, err)
			}
			s.report(i, n)
		}

		smp, err := s.next()
		if err != nil {
			return fmt.Errorf("sample %d of %d: %w", i, n, err)
		}
		if err := fn(i, smp); err != nil {
			return err
		}
	}
	s.report(n, n)
	return nil
}

func (s *Sampler) report(done, total int) {
	if s.progress != nil {
		s.progress(done, total)
	}
}

// next draws a single sample.
func (s *Sampler) next() (Sample, error) {
	idx := selectIndex(s.geom.weights, s.source.Get1D())
	tri := s.geom.Triangle(idx)

	var lastErr error
	for attempt := range s.maxAttempts {
		r0, r1 := s.source.Get2D()
		p, err := pointOnTriangle(tri, r0, r1)
		if err == nil {
			return Sample{Position: p, Normal: interpolateNormal(tri, p, s.flip)}, nil
		}
		if errors.Is(err, ErrDegenerateTriangle) {
			return Sample{}, fmt.Errorf("triangle %d: %w", idx, err)
		}
		lastErr = err
		s.log.Warn("sample rejected, redrawing",
			zap.Int("triangle", idx),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return Sample{}, fmt.Errorf("triangle %d after %d attempts: %w", idx, s.maxAttempts, lastErr)
}

// selectIndex walks the weight table in order, subtracting each weight from
// x, and returns the first index whose weight covers the remainder. The scan
// always spans the whole table. Zero weights are never selected; if rounding
// leaves x above every weight the last positive weight wins.
func selectIndex(weights []float64, x float64) int {
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if x <= w {
			return i
		}
		x -= w
		last = i
	}
	return last
}

// pointOnTriangle maps (r0, r1) onto the parallelogram spanned by the
// triangle's edges and folds the far half back by reflection.
func pointOnTriangle(t Triangle, r0, r1 float64) (math3d.Vec3, error) {
	e0 := t.B.Sub(t.A)
	e1 := t.C.Sub(t.A)

	p := t.A.Add(e0.Scale(r0)).Add(e1.Scale(r1))
	u, v, err := barycentric(e0, e1, p.Sub(t.A))
	if err != nil {
		return math3d.Vec3{}, err
	}
	if inside(u, v) {
		return p, nil
	}

	r0, r1 = 1-r0, 1-r1
	p = t.A.Add(e0.Scale(r0)).Add(e1.Scale(r1))
	u, v, err = barycentric(e0, e1, p.Sub(t.A))
	if err != nil {
		return math3d.Vec3{}, err
	}
	if inside(u, v) {
		return p, nil
	}

	return math3d.Vec3{}, fmt.Errorf("u=%g v=%g r0=%g r1=%g a=%v b=%v c=%v: %w",
		u, v, r0, r1, t.A, t.B, t.C, ErrSampleRejected)
}

// barycentric solves p = u*e0 + v*e1 in the plane of the two edges.
func barycentric(e0, e1, p math3d.Vec3) (u, v float64, err error) {
	dot00 := e0.Dot(e0)
	dot01 := e0.Dot(e1)
	dot11 := e1.Dot(e1)
	dot02 := e0.Dot(p)
	dot12 := e1.Dot(p)

	denom := dot00*dot11 - dot01*dot01
	if flatDenominator(denom, dot00, dot11) {
		return 0, 0, fmt.Errorf("barycentric denominator %g: %w", denom, ErrDegenerateTriangle)
	}

	u = (dot11*dot02 - dot01*dot12) / denom
	v = (dot00*dot12 - dot01*dot02) / denom
	return u, v, nil
}

// flatDenominator reports whether the barycentric denominator is too small
// relative to the squared edge lengths to solve for u and v.
func flatDenominator(denom, dot00, dot11 float64) bool {
	return denom <= degenerateEpsilon*dot00*dot11 || math.IsNaN(denom)
}

// solvable reports whether barycentric can resolve points in triangle abc.
func solvable(a, b, c math3d.Vec3) bool {
	e0 := b.Sub(a)
	e1 := c.Sub(a)
	dot00 := e0.Dot(e0)
	dot01 := e0.Dot(e1)
	dot11 := e1.Dot(e1)
	return !flatDenominator(dot00*dot11-dot01*dot01, dot00, dot11)
}

func inside(u, v float64) bool {
	return u >= -inclusionEpsilon && v >= -inclusionEpsilon && u+v <= 1
}

// interpolateNormal blends the vertex normals with sub-triangle area ratios.
// The three ratios are area(b,c,p), area(c,a,p) and area(a,c,p) over
// area(a,b,c); they need not sum to 1, the result is normalized anyway.
// A vanishing blend falls back to the face normal.
func interpolateNormal(t Triangle, p math3d.Vec3, flip bool) math3d.Vec3 {
	area := TriangleArea(t.A, t.B, t.C)
	w0 := TriangleArea(t.B, t.C, p) / area
	w1 := TriangleArea(t.C, t.A, p) / area
	w2 := TriangleArea(t.A, t.C, p) / area

	n := t.NA.Scale(w0).Add(t.NB.Scale(w1)).Add(t.NC.Scale(w2))
	if n.LenSq() == 0 || !n.IsFinite() {
		n = t.B.Sub(t.A).Cross(t.C.Sub(t.A))
	}
	if flip {
		n = n.Negate()
	}
	return n.Normalize()
}
