package discret

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/surfmesh/brep"
	"github.com/gogpu/surfmesh/geom"
	"github.com/gogpu/surfmesh/mesh"
)

var testParams = Params{Deflection: 0.01, Angle: 0.5}

// =============================================================================
// Edge Discretization Tests
// =============================================================================

func TestDiscretizeEdge_Line(t *testing.T) {
	a, b := brep.NewVertex(r3.Vector{}), brep.NewVertex(r3.Vector{X: 3, Y: 4})
	e := &brep.Edge{Curve: geom.NewSegment3D(a.Point, b.Point), V0: a, V1: b}

	poly, err := DiscretizeEdge(e, testParams)
	require.NoError(t, err)
	assert.Equal(t, 2, poly.Len())
	assert.Equal(t, a.Point, poly.Points[0])
	assert.Equal(t, b.Point, poly.Points[1])
}

func TestDiscretizeEdge_CircleWithinDeflection(t *testing.T) {
	circle := geom.NewCircle3D(geom.StandardFrame(), 1)
	v := brep.NewVertex(circle.Value(0))
	e := &brep.Edge{Curve: circle, V0: v, V1: v}

	poly, err := DiscretizeEdge(e, testParams)
	require.NoError(t, err)
	require.Greater(t, poly.Len(), 8)
	assert.Equal(t, v.Point, poly.Points[0])
	assert.Equal(t, v.Point, poly.Points[poly.Len()-1])

	for i := 1; i < poly.Len(); i++ {
		require.Greater(t, poly.Params[i], poly.Params[i-1], "parameters must increase")
		mid := circle.Value((poly.Params[i] + poly.Params[i-1]) / 2)
		d := distToSegment(mid, poly.Points[i-1], poly.Points[i])
		assert.LessOrEqual(t, d, testParams.Deflection+1e-12)
	}
}

func TestDiscretizeEdge_Relative(t *testing.T) {
	small := geom.NewCircle3D(geom.StandardFrame(), 1)
	big := geom.NewCircle3D(geom.StandardFrame(), 100)
	p := Params{Deflection: 0.01, Relative: true}

	ps, err := DiscretizeEdge(&brep.Edge{Curve: small}, p)
	require.NoError(t, err)
	pb, err := DiscretizeEdge(&brep.Edge{Curve: big}, p)
	require.NoError(t, err)
	assert.Equal(t, ps.Len(), pb.Len(), "relative deflection is scale invariant")
}

func TestDiscretizeEdge_MinSizeStopsSubdivision(t *testing.T) {
	circle := geom.NewCircle3D(geom.StandardFrame(), 1)
	fine, err := DiscretizeEdge(&brep.Edge{Curve: circle}, Params{Deflection: 1e-6})
	require.NoError(t, err)
	coarse, err := DiscretizeEdge(&brep.Edge{Curve: circle}, Params{Deflection: 1e-6, MinSize: 0.5})
	require.NoError(t, err)
	assert.Less(t, coarse.Len(), fine.Len())
}

func TestDiscretizeEdge_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		edge *brep.Edge
	}{
		{"nil curve", &brep.Edge{}},
		{"empty range", &brep.Edge{Curve: &geom.Line3D{Dir: r3.Vector{X: 1}, Range: r1.Interval{Lo: 1, Hi: 1}}}},
		{"zero length", &brep.Edge{Curve: geom.NewSegment3D(r3.Vector{X: 1}, r3.Vector{X: 1})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DiscretizeEdge(tt.edge, testParams)
			assert.True(t, errors.Is(err, ErrDegenerateCurve), "err = %v", err)
		})
	}
}

func TestDiscretizeAll_SharedEdges(t *testing.T) {
	cyl := brep.NewCylinder(geom.StandardFrame(), 1, 2)
	edges := brep.AllEdges(cyl.AllFaces())
	require.Len(t, edges, 3)

	polys, err := DiscretizeAll(context.Background(), edges, testParams, 2)
	require.NoError(t, err)
	for _, e := range edges {
		assert.NotNil(t, polys[e])
	}
}

func TestDiscretizeAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cyl := brep.NewCylinder(geom.StandardFrame(), 1, 2)
	_, err := DiscretizeAll(ctx, brep.AllEdges(cyl.AllFaces()), testParams, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// Wire Tests
// =============================================================================

func TestWires_Rectangle(t *testing.T) {
	f := brep.NewRectangle(geom.StandardFrame(), 2, 1)
	loops, st := Wires(f, nil, testParams, nil)
	assert.Equal(t, mesh.NoError, st)
	require.Len(t, loops, 1)
	assert.True(t, loops[0].Outer)
	assert.Len(t, loops[0].Nodes, 4)
	assert.InDelta(t, 2, loops[0].SignedArea(), 1e-12)
}

func TestWires_CylinderCapsShareBoundary(t *testing.T) {
	cyl := brep.NewCylinder(geom.StandardFrame(), 1, 2)
	faces := cyl.AllFaces()
	polys, err := DiscretizeAll(context.Background(), brep.AllEdges(faces), testParams, 0)
	require.NoError(t, err)

	lateral, st := Wires(faces[0], polys, testParams, nil)
	require.Equal(t, mesh.NoError, st)
	bottom, st := Wires(faces[1], polys, testParams, nil)
	require.Equal(t, mesh.NoError, st)

	onLateral := make(map[r3.Vector]bool)
	for _, n := range lateral[0].Nodes {
		onLateral[n.Point] = true
	}
	for _, n := range bottom[0].Nodes {
		assert.True(t, onLateral[n.Point], "cap point %v missing from lateral boundary", n.Point)
	}
	assert.Greater(t, bottom[0].SignedArea(), 0.0)
}

func TestWires_SpherePoles(t *testing.T) {
	f := brep.NewSphereFace(geom.StandardFrame(), 1)
	loops, st := Wires(f, nil, testParams, nil)
	assert.Equal(t, mesh.NoError, st)
	require.Len(t, loops, 1)

	var south int
	for _, n := range loops[0].Nodes {
		if n.Point.Sub(r3.Vector{Z: -1}).Norm() < 1e-9 {
			south++
		}
	}
	assert.Greater(t, south, 2, "pole must appear once per UV sample")
	assert.InDelta(t, 2*math.Pi*math.Pi, loops[0].SignedArea(), 1e-9)
}

func TestWires_OpenWire(t *testing.T) {
	pts := []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	plane := &geom.Plane{Frame: geom.StandardFrame()}
	var w brep.Wire
	for i := range 3 {
		a, b := pts[i], pts[i+1]
		va, vb := brep.NewVertex(plane.Value(a)), brep.NewVertex(plane.Value(b))
		e := &brep.Edge{Curve: geom.NewSegment3D(va.Point, vb.Point), V0: va, V1: vb}
		w.CoEdges = append(w.CoEdges, brep.CoEdge{Edge: e, PCurve: geom.NewSegment2D(a, b)})
	}
	f := &brep.Face{Surface: plane, Wires: []brep.Wire{w}}

	loops, st := Wires(f, nil, testParams, nil)
	assert.True(t, st.Has(mesh.OpenWire))
	require.Len(t, loops, 1)
	assert.Len(t, loops[0].Nodes, 4)
}

func TestWires_UnorientedWireIsReversed(t *testing.T) {
	cw := []r2.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}}
	f := brep.NewPolygon(geom.StandardFrame(), cw)
	loops, st := Wires(f, nil, testParams, nil)
	assert.True(t, st.Has(mesh.UnorientedWire))
	require.Len(t, loops, 1)
	assert.Greater(t, loops[0].SignedArea(), 0.0)
}

func TestWires_SelfIntersecting(t *testing.T) {
	bowtie := []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	f := brep.NewPolygon(geom.StandardFrame(), bowtie)
	_, st := Wires(f, nil, testParams, nil)
	assert.True(t, st.Has(mesh.SelfIntersectingWire))
}

func TestWires_DegenerateCurveDropsWire(t *testing.T) {
	f := brep.NewRectangle(geom.StandardFrame(), 1, 1)
	e := f.Wires[0].CoEdges[0].Edge
	polys := Polygons{e: nil}
	loops, st := Wires(f, polys, testParams, nil)
	assert.True(t, st.Has(mesh.TooFewPoints))
	assert.Empty(t, loops)
}

// =============================================================================
// Segment Index Tests
// =============================================================================

func circleLoop(c r2.Point, r float64, n int) Polyline {
	l := Polyline{Outer: true}
	for i := range n {
		a := 2 * math.Pi * float64(i) / float64(n)
		l.Nodes = append(l.Nodes, Node{UV: r2.Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}})
	}
	return l
}

func squareLoop(lo r2.Point, size float64) Polyline {
	return Polyline{Nodes: []Node{
		{UV: lo},
		{UV: r2.Point{X: lo.X, Y: lo.Y + size}},
		{UV: r2.Point{X: lo.X + size, Y: lo.Y + size}},
		{UV: r2.Point{X: lo.X + size, Y: lo.Y}},
	}}
}

func TestSelfIntersecting_LargeBoundary(t *testing.T) {
	outer := circleLoop(r2.Point{}, 1, 6000)

	inside := []Polyline{outer, squareLoop(r2.Point{X: -0.2, Y: -0.2}, 0.4)}
	assert.False(t, SelfIntersecting(inside))

	straddling := []Polyline{outer, squareLoop(r2.Point{X: 0.9, Y: -0.05}, 0.2)}
	assert.True(t, SelfIntersecting(straddling))
}

func TestSegmentIndex_Near(t *testing.T) {
	loops := []Polyline{squareLoop(r2.Point{}, 1)}
	idx := NewSegmentIndex(loops, loops[0].Bounds())
	assert.Equal(t, 4, idx.Len())
	assert.True(t, idx.Near(r2.Point{X: 0.5, Y: 0.05}, 0.1))
	assert.False(t, idx.Near(r2.Point{X: 0.5, Y: 0.5}, 0.1))
	assert.True(t, idx.Near(r2.Point{X: 1.05, Y: 0.5}, 0.1))
}
