package split

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/surfmesh/brep"
	"github.com/gogpu/surfmesh/geom"
	"github.com/gogpu/surfmesh/internal/discret"
)

var (
	wireParams  = discret.Params{Deflection: 0.01, Angle: 0.5}
	splitParams = Params{Deflection: 0.01, Angle: 0.5}
)

func faceLoops(t *testing.T, f *brep.Face) ([]discret.Polyline, r2.Rect) {
	t.Helper()
	loops, _ := discret.Wires(f, nil, wireParams, nil)
	require.NotEmpty(t, loops)
	domain := r2.EmptyRect()
	for i := range loops {
		domain = domain.Union(loops[i].Bounds())
	}
	return loops, domain
}

func assertNodesClear(t *testing.T, nodes []r2.Point, loops []discret.Polyline, domain r2.Rect) {
	t.Helper()
	for _, p := range nodes {
		require.True(t, domain.InteriorContainsPoint(p), "node %v outside domain %v", p, domain)
		require.True(t, Inside(p, loops), "node %v outside face", p)
	}
}

func TestFor(t *testing.T) {
	f := geom.StandardFrame()
	bez, err := geom.NewBezierSurface([][]r3.Vector{
		{{X: 0}, {X: 1}, {X: 2}},
		{{Y: 1}, {X: 1, Y: 1, Z: 1}, {X: 2, Y: 1}},
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		s    geom.Surface
		want Splitter
	}{
		{"plane", &geom.Plane{Frame: f}, Plane{Subdivide: true}},
		{"cylinder", geom.NewCylinder(f, 2), Cylinder{Radius: 2}},
		{"cone", geom.NewCone(f, 1, 0.3), Cone{RefRadius: 1, SemiAngle: 0.3}},
		{"sphere", geom.NewSphere(f, 3), Sphere{Radius: 3}},
		{"torus", geom.NewTorus(f, 4, 1), Torus{Major: 4, Minor: 1}},
		{"bezier", bez, General{DegreeU: 1, DegreeV: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, For(tt.s, true))
		})
	}
}

func TestGenerate_PlaneWithoutSubdivision(t *testing.T) {
	loops, domain := faceLoops(t, brep.NewRectangle(geom.StandardFrame(), 2, 1))
	assert.Empty(t, GenerateSurfaceNodes(Plane{}, domain, loops, splitParams))
}

func TestGenerate_PlaneSubdivided(t *testing.T) {
	loops, domain := faceLoops(t, brep.NewRectangle(geom.StandardFrame(), 2, 1))
	nodes := GenerateSurfaceNodes(Plane{Subdivide: true}, domain, loops, splitParams)
	require.NotEmpty(t, nodes)
	assertNodesClear(t, nodes, loops, domain)
}

func TestGenerate_CylinderSpacing(t *testing.T) {
	const radius = 1.0
	cyl := brep.NewCylinder(geom.StandardFrame(), radius, 2)
	loops, domain := faceLoops(t, cyl.Faces[0])
	nodes := GenerateSurfaceNodes(Cylinder{Radius: radius}, domain, loops, splitParams)
	require.Greater(t, len(nodes), 100)
	assertNodesClear(t, nodes, loops, domain)

	// Consecutive nodes of a row must keep the chord within deflection.
	step := splitParams.angleStep(radius)
	sagitta := radius * (1 - math.Cos(step/2))
	assert.LessOrEqual(t, sagitta, splitParams.Deflection+1e-12)
}

func TestGenerate_SphereRowsThinTowardsPoles(t *testing.T) {
	loops, domain := faceLoops(t, brep.NewSphereFace(geom.StandardFrame(), 1))
	nodes := GenerateSurfaceNodes(Sphere{Radius: 1}, domain, loops, splitParams)
	require.NotEmpty(t, nodes)
	assertNodesClear(t, nodes, loops, domain)

	perRow := make(map[float64]int)
	for _, p := range nodes {
		perRow[p.Y]++
	}
	equator, polar := math.Inf(1), 0.0
	for v := range perRow {
		equator = math.Min(equator, math.Abs(v))
		polar = math.Max(polar, math.Abs(v))
	}
	rowCount := func(absV float64) int {
		return max(perRow[absV], perRow[-absV])
	}
	assert.Greater(t, rowCount(equator), rowCount(polar))
}

func TestGenerate_GeneralGrid(t *testing.T) {
	bez, err := geom.NewBezierSurface([][]r3.Vector{
		{{X: 0}, {X: 1}, {X: 2}, {X: 3}},
		{{Y: 1}, {X: 1, Y: 1, Z: 1}, {X: 2, Y: 1, Z: 1}, {X: 3, Y: 1}},
		{{Y: 2}, {X: 1, Y: 2, Z: 1}, {X: 2, Y: 2, Z: 1}, {X: 3, Y: 2}},
		{{Y: 3}, {X: 1, Y: 3}, {X: 2, Y: 3}, {X: 3, Y: 3}},
	})
	require.NoError(t, err)
	loops, domain := faceLoops(t, brep.NewPatchFace(bez))
	nodes := GenerateSurfaceNodes(For(bez, false), domain, loops, splitParams)
	assert.Len(t, nodes, 25)
	assertNodesClear(t, nodes, loops, domain)
}

func TestInside_EvenOdd(t *testing.T) {
	square := func(lo, hi float64, ccw bool) discret.Polyline {
		pts := []r2.Point{{X: lo, Y: lo}, {X: hi, Y: lo}, {X: hi, Y: hi}, {X: lo, Y: hi}}
		if !ccw {
			pts[1], pts[3] = pts[3], pts[1]
		}
		var pl discret.Polyline
		for _, p := range pts {
			pl.Nodes = append(pl.Nodes, discret.Node{UV: p})
		}
		return pl
	}
	loops := []discret.Polyline{square(0, 4, true), square(1, 3, false)}

	assert.True(t, Inside(r2.Point{X: 0.5, Y: 0.5}, loops))
	assert.False(t, Inside(r2.Point{X: 2, Y: 2}, loops), "point in hole")
	assert.False(t, Inside(r2.Point{X: 5, Y: 2}, loops))
}

func TestAngleStep(t *testing.T) {
	p := Params{Deflection: 0.1, Angle: 1}
	assert.InDelta(t, 2*math.Acos(0.9), p.angleStep(1), 1e-12)
	assert.Equal(t, 1.0, p.angleStep(0.05), "deflection larger than radius")
	p.MinSize = 1.2
	assert.InDelta(t, 1.2, p.angleStep(1), 1e-12)
}
