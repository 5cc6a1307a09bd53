package brep

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"

	"github.com/gogpu/surfmesh/geom"
)

// newEdge returns an edge with a fresh identity.
func newEdge(c geom.Curve3D, v0, v1 *Vertex) *Edge {
	return &Edge{ID: NextID(), Curve: c, V0: v0, V1: v1, Tolerance: DefaultTolerance}
}

// newFace returns a face with a fresh identity.
func newFace(s geom.Surface, wires ...Wire) *Face {
	return &Face{ID: NextID(), Surface: s, Wires: wires}
}

var (
	uDir = r2.Point{X: 1}
	vDir = r2.Point{Y: 1}
	turn = r1.Interval{Lo: 0, Hi: 2 * math.Pi}
)

// NewPolygon returns a planar face bounded by straight edges through the
// given points, expressed in the plane's UV coordinates. Points should be
// counter-clockwise.
func NewPolygon(frame geom.Frame, pts []r2.Point) *Face {
	plane := &geom.Plane{Frame: frame}
	verts := make([]*Vertex, len(pts))
	for i, p := range pts {
		verts[i] = NewVertex(plane.Value(p))
	}
	var w Wire
	for i := range pts {
		j := (i + 1) % len(pts)
		e := newEdge(geom.NewSegment3D(verts[i].Point, verts[j].Point), verts[i], verts[j])
		w.CoEdges = append(w.CoEdges, CoEdge{Edge: e, PCurve: geom.NewSegment2D(pts[i], pts[j])})
	}
	return newFace(plane, w)
}

// NewRectangle returns the planar face [0,w]×[0,h] of frame.
func NewRectangle(frame geom.Frame, w, h float64) *Face {
	return NewPolygon(frame, []r2.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}})
}

// NewDisc returns a planar disc of the given radius centred on the frame
// origin and bounded by circle.
func NewDisc(frame geom.Frame, radius float64) *Face {
	circle := geom.NewCircle3D(frame, radius)
	v := NewVertex(circle.Value(0))
	e := newEdge(circle, v, v)
	return discOn(frame, e, radius, false)
}

// discOn builds a disc face on a circle edge whose frame may differ from
// the plane's frame by the sign of the normal.
func discOn(plane geom.Frame, e *Edge, radius float64, flipped bool) *Face {
	pc := geom.NewCircle2D(r2.Point{}, radius)
	pc.Clockwise = flipped
	w := Wire{CoEdges: []CoEdge{{Edge: e, PCurve: pc, Reversed: flipped}}}
	return newFace(&geom.Plane{Frame: plane}, w)
}

// NewCylinder returns a closed cylinder of the given radius and height as
// three faces: the lateral surface and two caps. The caps share their
// circle edges with the lateral face.
func NewCylinder(frame geom.Frame, radius, height float64) *Shape {
	cyl := geom.NewCylinder(frame, radius)
	top := frame
	top.Origin = frame.Point(0, 0, height)

	v0 := NewVertex(cyl.Value(r2.Point{}))
	v1 := NewVertex(cyl.Value(r2.Point{Y: height}))
	bottomEdge := newEdge(geom.NewCircle3D(frame, radius), v0, v0)
	topEdge := newEdge(geom.NewCircle3D(top, radius), v1, v1)
	seamLine := &geom.Line3D{Origin: v0.Point, Dir: frame.Z, Range: r1.Interval{Lo: 0, Hi: height}}
	seam := newEdge(seamLine, v0, v1)

	h := r1.Interval{Lo: 0, Hi: height}
	lateral := newFace(cyl, Wire{CoEdges: []CoEdge{
		{Edge: bottomEdge, PCurve: geom.NewIsoLine2D(r2.Point{}, uDir, turn)},
		{Edge: seam, PCurve: geom.NewIsoLine2D(r2.Point{X: 2 * math.Pi}, vDir, h)},
		{Edge: topEdge, PCurve: geom.NewIsoLine2D(r2.Point{Y: height}, uDir, turn), Reversed: true},
		{Edge: seam, PCurve: geom.NewIsoLine2D(r2.Point{}, vDir, h), Reversed: true},
	}})

	// The bottom cap faces -Z: its UV frame mirrors the circle's, so the
	// circle runs clockwise in UV and the coedge is reversed.
	bottomPlane := geom.NewFrame(frame.Origin, frame.Z.Mul(-1), frame.X)
	bottom := discOn(bottomPlane, bottomEdge, radius, true)
	topCap := discOn(top, topEdge, radius, false)

	return &Shape{ID: NextID(), Faces: []*Face{lateral, bottom, topCap}}
}

// NewConeFace returns the lateral face of a cone between heights v0 < v1
// of its parameter.
func NewConeFace(frame geom.Frame, refRadius, semiAngle, v0, v1 float64) *Face {
	cone := geom.NewCone(frame, refRadius, semiAngle)
	cos := math.Cos(semiAngle)

	ring := func(v float64) *Edge {
		f := frame
		f.Origin = frame.Point(0, 0, v*cos)
		c := geom.NewCircle3D(f, cone.RadiusAt(v))
		vx := NewVertex(c.Value(0))
		return newEdge(c, vx, vx)
	}
	bottom, top := ring(v0), ring(v1)
	seamLine := &geom.Line3D{
		Origin: cone.Value(r2.Point{}),
		Dir:    frame.X.Mul(math.Sin(semiAngle)).Add(frame.Z.Mul(cos)),
		Range:  r1.Interval{Lo: v0, Hi: v1},
	}
	seam := newEdge(seamLine, bottom.V0, top.V0)

	h := r1.Interval{Lo: v0, Hi: v1}
	return newFace(cone, Wire{CoEdges: []CoEdge{
		{Edge: bottom, PCurve: geom.NewIsoLine2D(r2.Point{Y: v0}, uDir, turn)},
		{Edge: seam, PCurve: geom.NewIsoLine2D(r2.Point{X: 2 * math.Pi}, vDir, h)},
		{Edge: top, PCurve: geom.NewIsoLine2D(r2.Point{Y: v1}, uDir, turn), Reversed: true},
		{Edge: seam, PCurve: geom.NewIsoLine2D(r2.Point{}, vDir, h), Reversed: true},
	}})
}

// NewSphereFace returns a full sphere as one face bounded by its seam and
// two degenerated pole edges.
func NewSphereFace(frame geom.Frame, radius float64) *Face {
	s := geom.NewSphere(frame, radius)
	half := math.Pi / 2
	south := NewVertex(s.Value(r2.Point{Y: -half}))
	north := NewVertex(s.Value(r2.Point{Y: half}))

	lat := r1.Interval{Lo: -half, Hi: half}
	meridian := &geom.CurveOnSurface{Surface: s, PCurve: geom.NewIsoLine2D(r2.Point{}, vDir, lat)}
	seam := newEdge(meridian, south, north)
	southPole := &Edge{ID: NextID(), V0: south, V1: south, Tolerance: DefaultTolerance, Degenerated: true}
	northPole := &Edge{ID: NextID(), V0: north, V1: north, Tolerance: DefaultTolerance, Degenerated: true}

	return newFace(s, Wire{CoEdges: []CoEdge{
		{Edge: southPole, PCurve: geom.NewIsoLine2D(r2.Point{Y: -half}, uDir, turn)},
		{Edge: seam, PCurve: geom.NewIsoLine2D(r2.Point{X: 2 * math.Pi}, vDir, lat)},
		{Edge: northPole, PCurve: geom.NewIsoLine2D(r2.Point{Y: half}, uDir, turn), Reversed: true},
		{Edge: seam, PCurve: geom.NewIsoLine2D(r2.Point{}, vDir, lat), Reversed: true},
	}})
}

// NewTorusFace returns a full torus as one face bounded by its two seams.
func NewTorusFace(frame geom.Frame, major, minor float64) *Face {
	t := geom.NewTorus(frame, major, minor)
	v := NewVertex(t.Value(r2.Point{}))

	equator := &geom.CurveOnSurface{Surface: t, PCurve: geom.NewIsoLine2D(r2.Point{}, uDir, turn)}
	meridian := &geom.CurveOnSurface{Surface: t, PCurve: geom.NewIsoLine2D(r2.Point{}, vDir, turn)}
	a := newEdge(equator, v, v)
	b := newEdge(meridian, v, v)

	return newFace(t, Wire{CoEdges: []CoEdge{
		{Edge: a, PCurve: geom.NewIsoLine2D(r2.Point{}, uDir, turn)},
		{Edge: b, PCurve: geom.NewIsoLine2D(r2.Point{X: 2 * math.Pi}, vDir, turn)},
		{Edge: a, PCurve: geom.NewIsoLine2D(r2.Point{Y: 2 * math.Pi}, uDir, turn), Reversed: true},
		{Edge: b, PCurve: geom.NewIsoLine2D(r2.Point{}, vDir, turn), Reversed: true},
	}})
}

// NewPatchFace returns a face covering the natural [0,1]² domain of a
// bounded surface, bounded by its four iso-curves.
func NewPatchFace(s geom.Surface) *Face {
	corners := []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	verts := make([]*Vertex, 4)
	for i, c := range corners {
		verts[i] = NewVertex(s.Value(c))
	}
	iso := func(a, b int) (*Edge, geom.Curve2D) {
		pc := geom.NewSegment2D(corners[a], corners[b])
		return newEdge(&geom.CurveOnSurface{Surface: s, PCurve: pc}, verts[a], verts[b]), pc
	}
	var w Wire
	for i := range corners {
		e, pc := iso(i, (i+1)%4)
		w.CoEdges = append(w.CoEdges, CoEdge{Edge: e, PCurve: pc})
	}
	return newFace(s, w)
}

// Single wraps faces into a shape.
func Single(faces ...*Face) *Shape {
	return &Shape{ID: NextID(), Faces: faces}
}
