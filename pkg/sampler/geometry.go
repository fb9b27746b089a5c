// Package sampler draws area-weighted random points from the surface of a
// triangle soup and interpolates a unit normal for each of them.
package sampler

import (
	"fmt"
	"math"

	"github.com/DonSiMP/obj2pcd/pkg/math3d"
)

// Triangle is one face of the soup with its three vertex normals.
type Triangle struct {
	A, B, C    math3d.Vec3
	NA, NB, NC math3d.Vec3
}

// Area returns the triangle's area.
func (t Triangle) Area() float64 {
	return TriangleArea(t.A, t.B, t.C)
}

// Geometry holds a triangle soup and its area-weight table.
// It is immutable once built and safe to read from several goroutines.
type Geometry struct {
	positions []math3d.Vec3
	normals   []math3d.Vec3

	weights    []float64
	totalArea  float64
	degenerate []int
}

// NewGeometry builds the store from flat position and normal buffers where
// indices [3i, 3i+1, 3i+2] form triangle i. The buffers are copied.
//
// Triangles with zero or non-finite area, and slivers too thin for the
// barycentric solve, get weight 0 and are listed by Degenerate. An error is returned if no triangle has positive area.
func NewGeometry(positions, normals []math3d.Vec3) (*Geometry, error) {
	if len(positions)%3 != 0 {
		return nil, fmt.Errorf("%d positions: %w", len(positions), ErrBufferLength)
	}
	if len(normals) != len(positions) {
		return nil, fmt.Errorf("%d normals for %d positions: %w", len(normals), len(positions), ErrBufferMismatch)
	}
	if len(positions) == 0 {
		return nil, ErrEmptyMesh
	}

	g := &Geometry{
		positions: make([]math3d.Vec3, len(positions)),
		normals:   make([]math3d.Vec3, len(normals)),
	}
	copy(g.positions, positions)
	copy(g.normals, normals)

	if err := g.buildWeights(); err != nil {
		return nil, err
	}
	return g, nil
}

// buildWeights computes each triangle's area, the total area and the
// normalized weight table. Every triangle given a positive weight is
// solvable by barycentric.
func (g *Geometry) buildWeights() error {
	n := g.TriangleCount()
	g.weights = make([]float64, n)
	g.totalArea = 0

	for i := range n {
		a, b, c := g.positions[i*3], g.positions[i*3+1], g.positions[i*3+2]
		area := TriangleArea(a, b, c)
		// Slivers keep a sliver of Heron area but cannot be sampled.
		if math.IsNaN(area) || math.IsInf(area, 0) || area <= 0 || !solvable(a, b, c) {
			g.degenerate = append(g.degenerate, i)
			continue
		}
		g.weights[i] = area
		g.totalArea += area
	}

	if g.totalArea <= 0 || math.IsInf(g.totalArea, 0) {
		return fmt.Errorf("%d of %d triangles degenerate: %w", len(g.degenerate), n, ErrZeroArea)
	}

	for i := range g.weights {
		g.weights[i] /= g.totalArea
	}
	return nil
}

// TriangleArea returns the area of triangle abc by Heron's formula.
// The radicand is clamped at zero so collinear or repeated points give 0
// rather than NaN.
func TriangleArea(a, b, c math3d.Vec3) float64 {
	e0 := a.Distance(b)
	e1 := b.Distance(c)
	e2 := c.Distance(a)
	s := (e0 + e1 + e2) / 2
	radicand := s * (s - e0) * (s - e1) * (s - e2)
	if radicand < 0 {
		radicand = 0
	}
	return math.Sqrt(radicand)
}

// TriangleCount returns the number of triangles in the soup.
func (g *Geometry) TriangleCount() int {
	return len(g.positions) / 3
}

// TotalArea returns the summed area of all non-degenerate triangles.
func (g *Geometry) TotalArea() float64 {
	return g.totalArea
}

// Weight returns the selection probability of triangle i.
func (g *Geometry) Weight(i int) float64 {
	return g.weights[i]
}

// Weights returns a copy of the weight table.
func (g *Geometry) Weights() []float64 {
	out := make([]float64, len(g.weights))
	copy(out, g.weights)
	return out
}

// Degenerate returns the indices of triangles that were given zero weight.
func (g *Geometry) Degenerate() []int {
	out := make([]int, len(g.degenerate))
	copy(out, g.degenerate)
	return out
}

// Triangle returns triangle i.
func (g *Geometry) Triangle(i int) Triangle {
	return Triangle{
		A:  g.positions[i*3],
		B:  g.positions[i*3+1],
		C:  g.positions[i*3+2],
		NA: g.normals[i*3],
		NB: g.normals[i*3+1],
		NC: g.normals[i*3+2],
	}
}
