package geom

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Plane is the surface P(u,v) = O + u·X + v·Y of its frame.
type Plane struct {
	Frame Frame
}

// NewPlane returns a plane through origin with the given normal.
func NewPlane(origin, normal, xDir r3.Vector) *Plane {
	return &Plane{Frame: NewFrame(origin, normal, xDir)}
}

func (*Plane) Kind() Kind             { return KindPlane }
func (*Plane) Continuity() Continuity { return CN }

func (*Plane) Bounds() r2.Rect {
	return r2.Rect{X: unbounded, Y: unbounded}
}

func (s *Plane) Value(uv r2.Point) r3.Vector {
	return s.Frame.Point(uv.X, uv.Y, 0)
}

func (s *Plane) D1(uv r2.Point) (p, du, dv r3.Vector) {
	return s.Value(uv), s.Frame.X, s.Frame.Y
}

// Normal implements NormalEvaluator.
func (s *Plane) Normal(r2.Point) (r3.Vector, bool) {
	return s.Frame.Z, true
}
