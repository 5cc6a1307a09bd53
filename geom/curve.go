package geom

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Curve3D is a parametric curve in space.
type Curve3D interface {
	Bounds() r1.Interval
	Value(t float64) r3.Vector
}

// Curve2D is a parametric curve in the UV plane of a surface.
type Curve2D interface {
	Bounds() r1.Interval
	Value(t float64) r2.Point
}

// Line3D is the straight curve Origin + t·Dir over Range.
type Line3D struct {
	Origin r3.Vector
	Dir    r3.Vector
	Range  r1.Interval
}

// NewSegment3D returns the segment from a to b parameterized over [0, 1].
func NewSegment3D(a, b r3.Vector) *Line3D {
	return &Line3D{Origin: a, Dir: b.Sub(a), Range: r1.Interval{Lo: 0, Hi: 1}}
}

func (c *Line3D) Bounds() r1.Interval { return c.Range }

func (c *Line3D) Value(t float64) r3.Vector {
	return c.Origin.Add(c.Dir.Mul(t))
}

// Line2D is the straight curve Origin + t·Dir over Range.
type Line2D struct {
	Origin r2.Point
	Dir    r2.Point
	Range  r1.Interval
}

// NewSegment2D returns the segment from a to b parameterized over [0, 1].
func NewSegment2D(a, b r2.Point) *Line2D {
	return &Line2D{Origin: a, Dir: b.Sub(a), Range: r1.Interval{Lo: 0, Hi: 1}}
}

// NewIsoLine2D returns the UV line through origin with direction dir,
// parameterized over rng. Pcurves of circles on revolution surfaces and of
// seams are iso-lines.
func NewIsoLine2D(origin, dir r2.Point, rng r1.Interval) *Line2D {
	return &Line2D{Origin: origin, Dir: dir, Range: rng}
}

func (c *Line2D) Bounds() r1.Interval { return c.Range }

func (c *Line2D) Value(t float64) r2.Point {
	return c.Origin.Add(c.Dir.Mul(t))
}

// Circle3D is the circle Center + R·(cos t·X + sin t·Y) of a frame.
type Circle3D struct {
	Frame  Frame
	Radius float64
	Range  r1.Interval
}

// NewCircle3D returns a full circle in the XY plane of frame.
func NewCircle3D(frame Frame, radius float64) *Circle3D {
	return &Circle3D{Frame: frame, Radius: radius, Range: fullTurn}
}

func (c *Circle3D) Bounds() r1.Interval { return c.Range }

func (c *Circle3D) Value(t float64) r3.Vector {
	er, _ := radial(c.Frame, t)
	return c.Frame.Origin.Add(er.Mul(c.Radius))
}

// Circle2D is a circle in the UV plane. Clockwise circles are the pcurves
// of circles seen from a plane whose normal opposes the circle's axis.
type Circle2D struct {
	Center    r2.Point
	Radius    float64
	Range     r1.Interval
	Clockwise bool
}

// NewCircle2D returns a full counter-clockwise circle.
func NewCircle2D(center r2.Point, radius float64) *Circle2D {
	return &Circle2D{Center: center, Radius: radius, Range: fullTurn}
}

func (c *Circle2D) Bounds() r1.Interval { return c.Range }

func (c *Circle2D) Value(t float64) r2.Point {
	sin, cos := math.Sincos(t)
	if c.Clockwise {
		sin = -sin
	}
	return r2.Point{X: c.Center.X + c.Radius*cos, Y: c.Center.Y + c.Radius*sin}
}

// CurveOnSurface is the 3D image of a pcurve through its surface.
type CurveOnSurface struct {
	Surface Surface
	PCurve  Curve2D
}

func (c *CurveOnSurface) Bounds() r1.Interval { return c.PCurve.Bounds() }

func (c *CurveOnSurface) Value(t float64) r3.Vector {
	return c.Surface.Value(c.PCurve.Value(t))
}
