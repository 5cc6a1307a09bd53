package delaunay

import (
	"math"

	"github.com/golang/geo/r2"
)

// orient returns twice the signed area of abc: positive when c lies to the
// left of a→b.
func orient(a, b, c r2.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// inCircle is positive when d lies inside the circumcircle of the
// counter-clockwise triangle abc. The second result bounds the rounding
// error of the determinant.
func inCircle(a, b, c, d r2.Point) (det, errBound float64) {
	adx, ady := a.X-d.X, a.Y-d.Y
	bdx, bdy := b.X-d.X, b.Y-d.Y
	cdx, cdy := c.X-d.X, c.Y-d.Y

	alift := adx*adx + ady*ady
	blift := bdx*bdx + bdy*bdy
	clift := cdx*cdx + cdy*cdy

	bc := bdx*cdy - cdx*bdy
	ca := cdx*ady - adx*cdy
	ab := adx*bdy - bdx*ady
	det = alift*bc + blift*ca + clift*ab

	permanent := alift*(math.Abs(bdx*cdy)+math.Abs(cdx*bdy)) +
		blift*(math.Abs(cdx*ady)+math.Abs(adx*cdy)) +
		clift*(math.Abs(adx*bdy)+math.Abs(bdx*ady))
	return det, 1e-10 * permanent
}

// distToLine returns the distance from p to the infinite line through a
// and b.
func distToLine(p, a, b r2.Point) float64 {
	l := b.Sub(a).Norm()
	if l == 0 {
		return p.Sub(a).Norm()
	}
	return math.Abs(orient(a, b, p)) / l
}

// projectsInside reports whether the projection of p onto the line ab
// falls strictly between a and b.
func projectsInside(p, a, b r2.Point) bool {
	ab := b.Sub(a)
	s := p.Sub(a).Dot(ab)
	return s > 0 && s < ab.Dot(ab)
}

// minAngle returns the smallest interior angle of triangle abc in radians.
func minAngle(a, b, c r2.Point) float64 {
	angle := func(o, p, q r2.Point) float64 {
		u, v := p.Sub(o), q.Sub(o)
		return math.Atan2(math.Abs(u.Cross(v)), u.Dot(v))
	}
	return math.Min(angle(a, b, c), math.Min(angle(b, c, a), angle(c, a, b)))
}

// segmentsCross reports whether the open segments pq and rs cross at a
// single interior point.
func segmentsCross(p, q, r, s r2.Point) bool {
	d1 := orient(p, q, r)
	d2 := orient(p, q, s)
	d3 := orient(r, s, p)
	d4 := orient(r, s, q)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// intersection returns the parameter along pq of its crossing with rs.
func intersection(p, q, r, s r2.Point) float64 {
	d := q.Sub(p).Cross(s.Sub(r))
	if d == 0 {
		return 0.5
	}
	return r.Sub(p).Cross(s.Sub(r)) / d
}

// sq returns the squared length of v.
func sq(v r2.Point) float64 { return v.Dot(v) }
