package geom

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Cone is the surface
//
//	P(u,v) = O + (R + v·sin α)·(cos u·X + sin u·Y) + v·cos α·Z
//
// where R is the reference radius at v = 0 and α the semi-angle.
type Cone struct {
	Frame     Frame
	RefRadius float64
	SemiAngle float64
}

// NewCone returns a cone around the Z axis of frame.
func NewCone(frame Frame, refRadius, semiAngle float64) *Cone {
	return &Cone{Frame: frame, RefRadius: refRadius, SemiAngle: semiAngle}
}

func (*Cone) Kind() Kind             { return KindCone }
func (*Cone) Continuity() Continuity { return CN }

func (*Cone) Bounds() r2.Rect {
	return r2.Rect{X: fullTurn, Y: unbounded}
}

// RadiusAt returns the ring radius at height parameter v.
func (s *Cone) RadiusAt(v float64) float64 {
	return s.RefRadius + v*math.Sin(s.SemiAngle)
}

func (s *Cone) Value(uv r2.Point) r3.Vector {
	er, _ := radial(s.Frame, uv.X)
	return s.Frame.Origin.Add(er.Mul(s.RadiusAt(uv.Y))).Add(s.Frame.Z.Mul(uv.Y * math.Cos(s.SemiAngle)))
}

func (s *Cone) D1(uv r2.Point) (p, du, dv r3.Vector) {
	er, et := radial(s.Frame, uv.X)
	sin, cos := math.Sincos(s.SemiAngle)
	rho := s.RadiusAt(uv.Y)
	p = s.Frame.Origin.Add(er.Mul(rho)).Add(s.Frame.Z.Mul(uv.Y * cos))
	du = et.Mul(rho)
	dv = er.Mul(sin).Add(s.Frame.Z.Mul(cos))
	return p, du, dv
}

// Normal implements NormalEvaluator. The normal is undefined at the apex.
func (s *Cone) Normal(uv r2.Point) (r3.Vector, bool) {
	rho := s.RadiusAt(uv.Y)
	if math.Abs(rho) < 1e-12 {
		return r3.Vector{}, false
	}
	er, _ := radial(s.Frame, uv.X)
	sin, cos := math.Sincos(s.SemiAngle)
	n := er.Mul(cos).Sub(s.Frame.Z.Mul(sin))
	if rho < 0 {
		n = n.Mul(-1)
	}
	return n, true
}
