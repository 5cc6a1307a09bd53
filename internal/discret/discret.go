// Package discret turns face boundaries into polylines.
//
// Edges are discretized once, by bisection on their curve parameter, and
// the resulting polygons are shared by every face using the edge. Faces
// then map the shared parameters through their own pcurves, so adjacent
// faces see the same 3D boundary points.
package discret

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/surfmesh/brep"
)

// ErrDegenerateCurve is returned for edges whose curve is missing, has an
// empty parameter range or collapses to a point.
var ErrDegenerateCurve = errors.New("discret: degenerate curve")

// Default subdivision budgets.
const (
	DefaultMaxDepth  = 20
	DefaultMaxPoints = 1 << 14
)

// Params are the boundary tolerances.
type Params struct {
	// Deflection bounds the distance between the curve and its chords.
	Deflection float64
	// Angle bounds the turn between consecutive half-chords, in radians.
	Angle float64
	// MinSize stops subdivision of arcs shorter than it.
	MinSize float64
	// Relative scales Deflection by the size of each edge.
	Relative bool

	MaxDepth  int
	MaxPoints int
}

func (p Params) withDefaults() Params {
	if p.MaxDepth <= 0 {
		p.MaxDepth = DefaultMaxDepth
	}
	if p.MaxPoints <= 0 {
		p.MaxPoints = DefaultMaxPoints
	}
	return p
}

// EdgePolygon is the discretization of one edge: increasing curve
// parameters and their 3D points. The end points are the edge vertices.
type EdgePolygon struct {
	Edge   *brep.Edge
	Params []float64
	Points []r3.Vector
}

// Len returns the number of points.
func (p *EdgePolygon) Len() int { return len(p.Params) }

// segment is a pending parameter interval.
type segment struct {
	ta, tb float64
	pa, pb r3.Vector
	depth  int
}

// DiscretizeEdge samples e by bisection until every chord is within the
// deflection and angle tolerances or shorter than MinSize.
func DiscretizeEdge(e *brep.Edge, p Params) (*EdgePolygon, error) {
	if e == nil || e.Curve == nil {
		return nil, ErrDegenerateCurve
	}
	rng := e.Curve.Bounds()
	if !(rng.Hi > rng.Lo) || math.IsInf(rng.Lo, 0) || math.IsInf(rng.Hi, 0) {
		return nil, fmt.Errorf("%w: edge %d range %v", ErrDegenerateCurve, e.ID, rng)
	}
	p = p.withDefaults()
	defl := p.Deflection
	if p.Relative {
		defl *= edgeSize(e)
	}
	if defl <= 0 {
		defl = e.Tol()
	}

	c := e.Curve
	start, end := c.Value(rng.Lo), c.Value(rng.Hi)
	if e.V0 != nil {
		start = e.V0.Point
	}
	if e.V1 != nil {
		end = e.V1.Point
	}

	poly := &EdgePolygon{
		Edge:   e,
		Params: []float64{rng.Lo},
		Points: []r3.Vector{start},
	}
	stack := []segment{{ta: rng.Lo, tb: rng.Hi, pa: start, pb: end}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		tm := (s.ta + s.tb) / 2
		pm := c.Value(tm)
		full := s.depth >= p.MaxDepth || len(poly.Params)+len(stack) >= p.MaxPoints
		if full || accept(c.Value, s, pm, defl, p) {
			poly.Params = append(poly.Params, s.tb)
			poly.Points = append(poly.Points, s.pb)
			continue
		}
		// Right half first so the left half is emitted first.
		stack = append(stack,
			segment{ta: tm, tb: s.tb, pa: pm, pb: s.pb, depth: s.depth + 1},
			segment{ta: s.ta, tb: tm, pa: s.pa, pb: pm, depth: s.depth + 1},
		)
	}

	var length float64
	for i := 1; i < len(poly.Points); i++ {
		length += poly.Points[i].Sub(poly.Points[i-1]).Norm()
	}
	if length <= e.Tol() {
		return nil, fmt.Errorf("%w: edge %d has length %g", ErrDegenerateCurve, e.ID, length)
	}
	return poly, nil
}

// accept reports whether the chord of s approximates the curve.
func accept(value func(float64) r3.Vector, s segment, pm r3.Vector, defl float64, p Params) bool {
	size := math.Max(s.pa.Sub(s.pb).Norm(), math.Max(s.pa.Sub(pm).Norm(), pm.Sub(s.pb).Norm()))
	if p.MinSize > 0 && size < p.MinSize {
		return true
	}
	if s.depth == 0 && s.pa.Sub(s.pb).Norm() <= defl {
		// A closed curve: its chord says nothing.
		return false
	}
	for _, f := range [3]float64{0.25, 0.5, 0.75} {
		t := s.ta + f*(s.tb-s.ta)
		q := pm
		if f != 0.5 {
			q = value(t)
		}
		if distToSegment(q, s.pa, s.pb) > defl {
			return false
		}
	}
	if p.Angle > 0 {
		a, b := pm.Sub(s.pa), s.pb.Sub(pm)
		if a.Norm2() > 0 && b.Norm2() > 0 && a.Angle(b).Radians() > p.Angle {
			return false
		}
	}
	return true
}

// distToSegment returns the distance from q to the segment ab.
func distToSegment(q, a, b r3.Vector) float64 {
	ab := b.Sub(a)
	l2 := ab.Norm2()
	if l2 == 0 {
		return q.Sub(a).Norm()
	}
	t := math.Max(0, math.Min(1, q.Sub(a).Dot(ab)/l2))
	return q.Sub(a.Add(ab.Mul(t))).Norm()
}

// edgeSize returns the bounding box diagonal of a few curve samples.
func edgeSize(e *brep.Edge) float64 {
	rng := e.Curve.Bounds()
	const n = 8
	lo := e.Curve.Value(rng.Lo)
	hi := lo
	for i := 1; i <= n; i++ {
		q := e.Curve.Value(rng.Lo + float64(i)/n*rng.Length())
		lo = r3.Vector{X: math.Min(lo.X, q.X), Y: math.Min(lo.Y, q.Y), Z: math.Min(lo.Z, q.Z)}
		hi = r3.Vector{X: math.Max(hi.X, q.X), Y: math.Max(hi.Y, q.Y), Z: math.Max(hi.Z, q.Z)}
	}
	return hi.Sub(lo).Norm()
}

// Polygons maps edges to their discretization. Edges whose curve is
// degenerate map to nil.
type Polygons map[*brep.Edge]*EdgePolygon

// DiscretizeAll discretizes edges concurrently with at most workers
// goroutines. Degenerate curves are recorded as nil entries rather than
// failing the run; only cancellation is returned as an error.
func DiscretizeAll(ctx context.Context, edges []*brep.Edge, p Params, workers int) (Polygons, error) {
	out := make([]*EdgePolygon, len(edges))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, e := range edges {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			poly, err := DiscretizeEdge(e, p)
			if err != nil {
				if errors.Is(err, ErrDegenerateCurve) {
					return nil
				}
				return err
			}
			out[i] = poly
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	polys := make(Polygons, len(edges))
	for i, e := range edges {
		polys[e] = out[i]
	}
	return polys, nil
}
