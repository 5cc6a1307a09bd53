package geom

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Torus is the surface
//
//	P(u,v) = O + (R + r·cos v)·(cos u·X + sin u·Y) + r·sin v·Z
//
// with R the major and r the minor radius.
type Torus struct {
	Frame       Frame
	MajorRadius float64
	MinorRadius float64
}

// NewTorus returns a torus around the Z axis of frame.
func NewTorus(frame Frame, major, minor float64) *Torus {
	return &Torus{Frame: frame, MajorRadius: major, MinorRadius: minor}
}

func (*Torus) Kind() Kind             { return KindTorus }
func (*Torus) Continuity() Continuity { return CN }

func (*Torus) Bounds() r2.Rect {
	return r2.Rect{X: fullTurn, Y: fullTurn}
}

// RingRadius returns the distance from the axis at minor angle v.
func (s *Torus) RingRadius(v float64) float64 {
	return s.MajorRadius + s.MinorRadius*math.Cos(v)
}

func (s *Torus) Value(uv r2.Point) r3.Vector {
	er, _ := radial(s.Frame, uv.X)
	return s.Frame.Origin.Add(er.Mul(s.RingRadius(uv.Y))).Add(s.Frame.Z.Mul(s.MinorRadius * math.Sin(uv.Y)))
}

func (s *Torus) D1(uv r2.Point) (p, du, dv r3.Vector) {
	er, et := radial(s.Frame, uv.X)
	sin, cos := math.Sincos(uv.Y)
	rho := s.MajorRadius + s.MinorRadius*cos
	p = s.Frame.Origin.Add(er.Mul(rho)).Add(s.Frame.Z.Mul(s.MinorRadius * sin))
	du = et.Mul(rho)
	dv = er.Mul(-s.MinorRadius * sin).Add(s.Frame.Z.Mul(s.MinorRadius * cos))
	return p, du, dv
}

// Normal implements NormalEvaluator.
func (s *Torus) Normal(uv r2.Point) (r3.Vector, bool) {
	if math.Abs(s.RingRadius(uv.Y)) < 1e-12 {
		return r3.Vector{}, false
	}
	er, _ := radial(s.Frame, uv.X)
	sin, cos := math.Sincos(uv.Y)
	return er.Mul(cos).Add(s.Frame.Z.Mul(sin)), true
}
