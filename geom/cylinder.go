package geom

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Cylinder is the surface P(u,v) = O + R·(cos u·X + sin u·Y) + v·Z.
// u is the angle around the axis, v the height along it.
type Cylinder struct {
	Frame  Frame
	Radius float64
}

// NewCylinder returns a cylinder around the Z axis of frame.
func NewCylinder(frame Frame, radius float64) *Cylinder {
	return &Cylinder{Frame: frame, Radius: radius}
}

func (*Cylinder) Kind() Kind             { return KindCylinder }
func (*Cylinder) Continuity() Continuity { return CN }

func (*Cylinder) Bounds() r2.Rect {
	return r2.Rect{X: fullTurn, Y: unbounded}
}

func (s *Cylinder) Value(uv r2.Point) r3.Vector {
	er, _ := radial(s.Frame, uv.X)
	return s.Frame.Origin.Add(er.Mul(s.Radius)).Add(s.Frame.Z.Mul(uv.Y))
}

func (s *Cylinder) D1(uv r2.Point) (p, du, dv r3.Vector) {
	er, et := radial(s.Frame, uv.X)
	p = s.Frame.Origin.Add(er.Mul(s.Radius)).Add(s.Frame.Z.Mul(uv.Y))
	return p, et.Mul(s.Radius), s.Frame.Z
}

// Normal implements NormalEvaluator.
func (s *Cylinder) Normal(uv r2.Point) (r3.Vector, bool) {
	er, _ := radial(s.Frame, uv.X)
	return er, true
}
