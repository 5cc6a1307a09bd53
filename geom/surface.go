package geom

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Kind identifies the analytic family of a surface.
type Kind uint8

// Surface kinds.
const (
	KindPlane Kind = iota
	KindCylinder
	KindCone
	KindSphere
	KindTorus
	KindGeneral
)

var kindNames = [...]string{"plane", "cylinder", "cone", "sphere", "torus", "general"}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Continuity is the parametric continuity class of a surface.
type Continuity uint8

// Continuity classes, ordered from weakest to strongest.
const (
	C0 Continuity = iota
	C1
	C2
	CN
)

// Surface is a parametric surface evaluator.
//
// Implementations must be safe for concurrent use: the mesher evaluates the
// same surface from several faces at once when meshing in parallel.
type Surface interface {
	// Kind reports the analytic family.
	Kind() Kind

	// Bounds returns the natural parameter domain. Unbounded directions
	// use infinite intervals.
	Bounds() r2.Rect

	// Value evaluates the surface point at uv.
	Value(uv r2.Point) r3.Vector

	// D1 evaluates the point and the partial derivatives along u and v.
	D1(uv r2.Point) (p, du, dv r3.Vector)

	// Continuity reports the continuity class.
	Continuity() Continuity
}

// NormalEvaluator is implemented by surfaces that supply analytic unit
// normals. The boolean result is false where the normal is undefined
// (for example at a cone apex).
type NormalEvaluator interface {
	Normal(uv r2.Point) (r3.Vector, bool)
}

// SurfaceNormal returns the unit normal of s at uv, using the analytic
// normal when available and du×dv otherwise.
func SurfaceNormal(s Surface, uv r2.Point) (r3.Vector, bool) {
	if ne, ok := s.(NormalEvaluator); ok {
		return ne.Normal(uv)
	}
	_, du, dv := s.D1(uv)
	n := du.Cross(dv)
	l := n.Norm()
	if l < 1e-12 {
		return r3.Vector{}, false
	}
	return n.Mul(1 / l), true
}

// fullTurn is the closed parameter interval of a full revolution.
var fullTurn = r1.Interval{Lo: 0, Hi: 2 * math.Pi}

// unbounded is the parameter interval of an infinite direction.
var unbounded = r1.Interval{Lo: math.Inf(-1), Hi: math.Inf(1)}

// radial returns the unit radial and tangential directions of f at angle u.
func radial(f Frame, u float64) (er, et r3.Vector) {
	sin, cos := math.Sincos(u)
	er = f.X.Mul(cos).Add(f.Y.Mul(sin))
	et = f.X.Mul(-sin).Add(f.Y.Mul(cos))
	return er, et
}
