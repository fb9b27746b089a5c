package sampler

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/DonSiMP/obj2pcd/pkg/math3d"
)

// fixedSource returns the same draws forever.
type fixedSource struct {
	x      float64
	r0, r1 float64
}

func (f *fixedSource) Get1D() float64            { return f.x }
func (f *fixedSource) Get2D() (float64, float64) { return f.r0, f.r1 }

func newSquareSampler(t *testing.T, flip bool, opts ...Option) *Sampler {
	t.Helper()
	positions, normals := unitSquare()
	g, err := NewGeometry(positions, normals)
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	return New(g, flip, opts...)
}

func TestSampleCount(t *testing.T) {
	s := newSquareSampler(t, false, WithSeed(1))

	tests := []struct {
		density float64
		want    int
	}{
		{1000, 1000},
		{10.4, 10},
		{10.6, 11},
		{0.2, 0},
	}

	for _, tc := range tests {
		got, err := s.SampleCount(tc.density)
		if err != nil {
			t.Fatalf("SampleCount(%v): %v", tc.density, err)
		}
		if got != tc.want {
			t.Errorf("SampleCount(%v) = %d, want %d", tc.density, got, tc.want)
		}

		samples, err := s.Sample(context.Background(), tc.density)
		if err != nil {
			t.Fatalf("Sample(%v): %v", tc.density, err)
		}
		if len(samples) != tc.want {
			t.Errorf("Sample(%v) produced %d samples, want %d", tc.density, len(samples), tc.want)
		}
	}
}

func TestSampleCountInvalidDensity(t *testing.T) {
	s := newSquareSampler(t, false, WithSeed(1))

	for _, d := range []float64{0, -1, math.NaN(), math.Inf(1), 1e30} {
		if _, err := s.SampleCount(d); !errors.Is(err, ErrInvalidDensity) {
			t.Errorf("SampleCount(%v) error = %v, want ErrInvalidDensity", d, err)
		}
		if _, err := s.Sample(context.Background(), d); !errors.Is(err, ErrInvalidDensity) {
			t.Errorf("Sample(%v) error = %v, want ErrInvalidDensity", d, err)
		}
	}
}

func TestSampleUnitSquare(t *testing.T) {
	for _, flip := range []bool{false, true} {
		s := newSquareSampler(t, flip, WithSeed(7))

		samples, err := s.Sample(context.Background(), 1000)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		if len(samples) != 1000 {
			t.Fatalf("got %d samples, want 1000", len(samples))
		}

		wantZ := 1.0
		if flip {
			wantZ = -1
		}

		for i, smp := range samples {
			p := smp.Position
			if p.X < -1e-9 || p.X > 1+1e-9 || p.Y < -1e-9 || p.Y > 1+1e-9 || p.Z != 0 {
				t.Fatalf("flip=%v sample %d position %v outside unit square", flip, i, p)
			}
			n := smp.Normal
			if math.Abs(n.X) > 1e-9 || math.Abs(n.Y) > 1e-9 || math.Abs(n.Z-wantZ) > 1e-9 {
				t.Fatalf("flip=%v sample %d normal %v, want (0,0,%v)", flip, i, n, wantZ)
			}
		}
	}
}

func TestSampleEquilateralInsideHull(t *testing.T) {
	a := math3d.V3(0, 0, 0)
	b := math3d.V3(2, 0, 0)
	c := math3d.V3(1, math.Sqrt(3), 0)
	n := math3d.V3(0, 0, 1)

	g, err := NewGeometry([]math3d.Vec3{a, b, c}, []math3d.Vec3{n, n, n})
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	s := New(g, false, WithSeed(3))

	const density = 100.0
	samples, err := s.Sample(context.Background(), density)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}

	want := int(math.Round(density * math.Sqrt(3)))
	if len(samples) != want {
		t.Errorf("got %d samples, want %d", len(samples), want)
	}

	// Each edge's cross product with the point must point along +Z.
	edges := [][2]math3d.Vec3{{a, b}, {b, c}, {c, a}}
	for i, smp := range samples {
		for _, e := range edges {
			side := e[1].Sub(e[0]).Cross(smp.Position.Sub(e[0])).Z
			if side < -1e-9 {
				t.Fatalf("sample %d at %v is outside the triangle", i, smp.Position)
			}
		}
	}
}

func TestSampleNormalsUnitLength(t *testing.T) {
	// A tetrahedron-like fan with skewed, non-unit vertex normals.
	positions := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0),
		math3d.V3(0, 0, 0), math3d.V3(0, 0, 1), math3d.V3(1, 0, 0),
		math3d.V3(0, 0, 0), math3d.V3(0, 1, 0), math3d.V3(0, 0, 2),
	}
	normals := []math3d.Vec3{
		math3d.V3(0, 0, -3), math3d.V3(0.2, 0, -1), math3d.V3(0, 0.5, -2),
		math3d.V3(0, -1, 0), math3d.V3(0, -4, 1), math3d.V3(1, -1, 0),
		math3d.V3(-2, 0, 0), math3d.V3(-1, 1, 0), math3d.V3(-1, 0, 3),
	}

	g, err := NewGeometry(positions, normals)
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	s := New(g, false, WithSeed(11))

	samples, err := s.Sample(context.Background(), 2000)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	for i, smp := range samples {
		if l := smp.Normal.Len(); math.Abs(l-1) > 1e-4 {
			t.Fatalf("sample %d normal length %v, want 1", i, l)
		}
	}
}

func TestSampleZeroNormalsFallBackToFaceNormal(t *testing.T) {
	positions, _ := unitSquare()
	g, err := NewGeometry(positions, make([]math3d.Vec3, len(positions)))
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}

	samples, err := New(g, false, WithSeed(5)).Sample(context.Background(), 50)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	for i, smp := range samples {
		if math.Abs(smp.Normal.Z-1) > 1e-9 {
			t.Fatalf("sample %d normal %v, want face normal (0,0,1)", i, smp.Normal)
		}
	}
}

func TestInterpolateNormalWeights(t *testing.T) {
	tri := Triangle{
		A: math3d.V3(0, 0, 0), B: math3d.V3(1, 0, 0), C: math3d.V3(0, 1, 0),
		NA: math3d.V3(1, 0, 0), NB: math3d.V3(0, 1, 0), NC: math3d.V3(0, 0, 1),
	}

	// area(b,c,p)=0.2, area(c,a,p)=0.25 and area(a,c,p)=0.25 over 0.5. The
	// third weight is not the barycentric 0.1 of area(a,b,p).
	got := interpolateNormal(tri, math3d.V3(0.5, 0.1, 0), false)
	want := math3d.V3(0.4, 0.5, 0.5).Normalize()
	if got.Sub(want).Len() > 1e-6 {
		t.Errorf("interpolateNormal = %v, want %v", got, want)
	}

	flipped := interpolateNormal(tri, math3d.V3(0.5, 0.1, 0), true)
	if flipped.Add(want).Len() > 1e-6 {
		t.Errorf("flipped interpolateNormal = %v, want %v", flipped, want.Negate())
	}
}

func TestFlipNegatesNormalExactly(t *testing.T) {
	positions := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(2, 0, 0), math3d.V3(0, 1, 1),
		math3d.V3(1, 1, 1), math3d.V3(2, 3, 1), math3d.V3(0, 2, 0),
	}
	normals := []math3d.Vec3{
		math3d.V3(0.1, 0.2, 1), math3d.V3(-0.3, 0, 1), math3d.V3(0, 0.7, 0.4),
		math3d.V3(1, 0, 0), math3d.V3(0, 1, 0), math3d.V3(0, 0, 1),
	}

	g, err := NewGeometry(positions, normals)
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}

	plain, err := New(g, false, WithSeed(99)).Sample(context.Background(), 500)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	flipped, err := New(g, true, WithSeed(99)).Sample(context.Background(), 500)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}

	if len(plain) != len(flipped) {
		t.Fatalf("sample counts differ: %d vs %d", len(plain), len(flipped))
	}
	for i := range plain {
		if plain[i].Position != flipped[i].Position {
			t.Fatalf("sample %d positions differ for the same draw", i)
		}
		if flipped[i].Normal != plain[i].Normal.Negate() {
			t.Fatalf("sample %d flipped normal %v is not the negation of %v", i, flipped[i].Normal, plain[i].Normal)
		}
	}
}

func TestSampleReproducibleWithSeed(t *testing.T) {
	a, err := newSquareSampler(t, false, WithSeed(42)).Sample(context.Background(), 100)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	b, err := newSquareSampler(t, false, WithSeed(42)).Sample(context.Background(), 100)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs between runs with the same seed", i)
		}
	}
}

func TestPointOnTriangleInclusion(t *testing.T) {
	tri := Triangle{
		A: math3d.V3(1, 2, 3),
		B: math3d.V3(4, 2, 1),
		C: math3d.V3(0, 5, 2),
	}
	e0 := tri.B.Sub(tri.A)
	e1 := tri.C.Sub(tri.A)

	// Offsets keep r0+r1 away from exactly 1, where rounding decides.
	const steps = 40
	for i := range steps {
		for j := range steps {
			r0 := (float64(i) + 0.25) / steps
			r1 := (float64(j) + 0.5) / steps

			p, err := pointOnTriangle(tri, r0, r1)
			if err != nil {
				t.Fatalf("pointOnTriangle(%v, %v): %v", r0, r1, err)
			}
			u, v, err := barycentric(e0, e1, p.Sub(tri.A))
			if err != nil {
				t.Fatalf("barycentric: %v", err)
			}
			if !inside(u, v) {
				t.Fatalf("point for (%v, %v) has u=%v v=%v outside triangle", r0, r1, u, v)
			}
		}
	}
}

func TestPointOnTriangleReflects(t *testing.T) {
	tri := Triangle{
		A: math3d.V3(0, 0, 0),
		B: math3d.V3(1, 0, 0),
		C: math3d.V3(0, 1, 0),
	}

	p, err := pointOnTriangle(tri, 0.75, 0.75)
	if err != nil {
		t.Fatalf("pointOnTriangle: %v", err)
	}
	want := math3d.V3(0.25, 0.25, 0)
	if p.Distance(want) > 1e-12 {
		t.Errorf("reflected point = %v, want %v", p, want)
	}
}

func TestPointOnTriangleRejects(t *testing.T) {
	tri := Triangle{
		A: math3d.V3(0, 0, 0),
		B: math3d.V3(1, 0, 0),
		C: math3d.V3(0, 1, 0),
	}

	// Draws outside [0,1) land outside both the triangle and its reflection.
	_, err := pointOnTriangle(tri, 2, 2)
	if !errors.Is(err, ErrSampleRejected) {
		t.Errorf("error = %v, want ErrSampleRejected", err)
	}
}

func TestBarycentricDegenerate(t *testing.T) {
	_, _, err := barycentric(math3d.V3(1, 0, 0), math3d.V3(2, 0, 0), math3d.V3(0.5, 0, 0))
	if !errors.Is(err, ErrDegenerateTriangle) {
		t.Errorf("error = %v, want ErrDegenerateTriangle", err)
	}
}

func TestSamplerFailsInsteadOfSpinning(t *testing.T) {
	src := &fixedSource{x: 0.1, r0: 2, r1: 2}
	s := newSquareSampler(t, false, WithSource(src), WithMaxAttempts(3))

	_, err := s.Sample(context.Background(), 10)
	if !errors.Is(err, ErrSampleRejected) {
		t.Fatalf("error = %v, want ErrSampleRejected", err)
	}
}

func TestSampleHonorsCancellation(t *testing.T) {
	s := newSquareSampler(t, false, WithSeed(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Sample(ctx, 100)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestEachStopsOnCallbackError(t *testing.T) {
	s := newSquareSampler(t, false, WithSeed(1))
	stop := errors.New("stop")

	calls := 0
	err := s.Each(context.Background(), 100, func(i int, _ Sample) error {
		calls++
		if i == 4 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("error = %v, want callback error", err)
	}
	if calls != 5 {
		t.Errorf("callback ran %d times, want 5", calls)
	}
}

func TestProgressReportsCompletion(t *testing.T) {
	var lastDone, lastTotal int
	s := newSquareSampler(t, false, WithSeed(1), WithProgress(func(done, total int) {
		lastDone, lastTotal = done, total
	}))

	if _, err := s.Sample(context.Background(), 3000); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if lastDone != 3000 || lastTotal != 3000 {
		t.Errorf("final progress = %d/%d, want 3000/3000", lastDone, lastTotal)
	}
}

func TestSampleComponents(t *testing.T) {
	smp := Sample{Position: math3d.V3(1, 2, 3), Normal: math3d.V3(0, 0, -1)}
	want := [6]float64{1, 2, 3, 0, 0, -1}
	if got := smp.Components(); got != want {
		t.Errorf("Components = %v, want %v", got, want)
	}
}

func TestSelectIndex(t *testing.T) {
	weights := []float64{0.1, 0, 0.3, 0.6}

	tests := []struct {
		x    float64
		want int
	}{
		{0, 0},
		{0.05, 0},
		{0.1, 0},
		{0.1000001, 2},
		{0.35, 2},
		{0.41, 3},
		{0.999999, 3},
		{1.0000001, 3}, // rounding overshoot falls to the last positive weight
	}

	for _, tc := range tests {
		if got := selectIndex(weights, tc.x); got != tc.want {
			t.Errorf("selectIndex(%v) = %d, want %d", tc.x, got, tc.want)
		}
	}
}

func TestSelectionReachesEveryTriangle(t *testing.T) {
	// Many more triangles than samples: the scan must cover the whole table,
	// not stop at the requested sample count.
	const strips = 200
	positions := make([]math3d.Vec3, 0, strips*3)
	for i := range strips {
		x := float64(i)
		positions = append(positions,
			math3d.V3(x, 0, 0), math3d.V3(x+1, 0, 0), math3d.V3(x, 1, 0))
	}
	g, err := NewGeometry(positions, make([]math3d.Vec3, len(positions)))
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}

	// Density 0.05 over area 100 asks for 5 samples.
	s := New(g, false, WithSeed(1))
	var maxX float64
	for range 50 {
		samples, err := s.Sample(context.Background(), 0.05)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		for _, smp := range samples {
			maxX = math.Max(maxX, smp.Position.X)
		}
	}
	if maxX < 10 {
		t.Errorf("samples never left the first triangles (max x = %v)", maxX)
	}
}

func TestSelectionFollowsArea(t *testing.T) {
	positions := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 2, 0), // area 1
		math3d.V3(5, 0, 0), math3d.V3(8, 0, 0), math3d.V3(5, 2, 0), // area 3
	}
	g, err := NewGeometry(positions, make([]math3d.Vec3, len(positions)))
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}

	samples, err := New(g, false, WithSeed(1337)).Sample(context.Background(), 5000)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}

	small := 0
	for _, smp := range samples {
		if smp.Position.X < 2 {
			small++
		}
	}
	frac := float64(small) / float64(len(samples))
	if math.Abs(frac-0.25) > 0.02 {
		t.Errorf("fraction on the small triangle = %v, want about 0.25", frac)
	}
}

func BenchmarkSample(b *testing.B) {
	positions, normals := unitSquare()
	g, err := NewGeometry(positions, normals)
	if err != nil {
		b.Fatalf("NewGeometry: %v", err)
	}
	s := New(g, false, WithSeed(1))

	for b.Loop() {
		if _, err := s.Sample(context.Background(), 1000); err != nil {
			b.Fatal(err)
		}
	}
}
