package geom

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Sphere is the surface P(u,v) = O + R·cos v·(cos u·X + sin u·Y) + R·sin v·Z
// with u the longitude in [0, 2π] and v the latitude in [-π/2, π/2].
type Sphere struct {
	Frame  Frame
	Radius float64
}

// NewSphere returns a sphere centred on the frame origin.
func NewSphere(frame Frame, radius float64) *Sphere {
	return &Sphere{Frame: frame, Radius: radius}
}

func (*Sphere) Kind() Kind             { return KindSphere }
func (*Sphere) Continuity() Continuity { return CN }

func (*Sphere) Bounds() r2.Rect {
	return r2.Rect{X: fullTurn, Y: r1.Interval{Lo: -math.Pi / 2, Hi: math.Pi / 2}}
}

func (s *Sphere) Value(uv r2.Point) r3.Vector {
	er, _ := radial(s.Frame, uv.X)
	sin, cos := math.Sincos(uv.Y)
	return s.Frame.Origin.Add(er.Mul(s.Radius * cos)).Add(s.Frame.Z.Mul(s.Radius * sin))
}

func (s *Sphere) D1(uv r2.Point) (p, du, dv r3.Vector) {
	er, et := radial(s.Frame, uv.X)
	sin, cos := math.Sincos(uv.Y)
	p = s.Frame.Origin.Add(er.Mul(s.Radius * cos)).Add(s.Frame.Z.Mul(s.Radius * sin))
	du = et.Mul(s.Radius * cos)
	dv = er.Mul(-s.Radius * sin).Add(s.Frame.Z.Mul(s.Radius * cos))
	return p, du, dv
}

// Normal implements NormalEvaluator.
func (s *Sphere) Normal(uv r2.Point) (r3.Vector, bool) {
	er, _ := radial(s.Frame, uv.X)
	sin, cos := math.Sincos(uv.Y)
	return er.Mul(cos).Add(s.Frame.Z.Mul(sin)), true
}
