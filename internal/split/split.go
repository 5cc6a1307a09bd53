// Package split generates the interior UV nodes of a face before
// triangulation.
//
// Each surface kind has its own sampling rule, chosen so that the initial
// mesh already respects the angular and linear deflections on analytic
// surfaces. Free-form surfaces get a coarse grid and rely on refinement.
package split

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/gogpu/surfmesh/geom"
	"github.com/gogpu/surfmesh/internal/discret"
)

// MaxNodes bounds the nodes generated for one face.
const MaxNodes = 1 << 18

// planarDivisions is the grid density of subdivided planes along the
// longer UV side.
const planarDivisions = 16

// Splitter describes how to sample the UV domain of one surface kind. The
// set of implementations is closed: Plane, Cylinder, Cone, Sphere, Torus
// and General.
type Splitter interface {
	splitter()
}

// Plane splits planar faces. No nodes are produced unless Subdivide is set.
type Plane struct {
	Subdivide bool
}

// Cylinder splits faces of a cylinder of the given radius.
type Cylinder struct {
	Radius float64
}

// Cone splits faces of a cone.
type Cone struct {
	RefRadius float64
	SemiAngle float64
}

// Sphere splits faces of a sphere of the given radius.
type Sphere struct {
	Radius float64
}

// Torus splits faces of a torus.
type Torus struct {
	Major, Minor float64
}

// General splits free-form surfaces on a grid sized from their degree.
type General struct {
	DegreeU, DegreeV int
}

func (Plane) splitter()    {}
func (Cylinder) splitter() {}
func (Cone) splitter()     {}
func (Sphere) splitter()   {}
func (Torus) splitter()    {}
func (General) splitter()  {}

// degreer is implemented by polynomial surfaces.
type degreer interface {
	Degree() (du, dv int)
}

// For returns the splitter matching surface s.
func For(s geom.Surface, subdividePlanes bool) Splitter {
	switch s := s.(type) {
	case *geom.Plane:
		return Plane{Subdivide: subdividePlanes}
	case *geom.Cylinder:
		return Cylinder{Radius: s.Radius}
	case *geom.Cone:
		return Cone{RefRadius: s.RefRadius, SemiAngle: s.SemiAngle}
	case *geom.Sphere:
		return Sphere{Radius: s.Radius}
	case *geom.Torus:
		return Torus{Major: s.MajorRadius, Minor: s.MinorRadius}
	case degreer:
		du, dv := s.Degree()
		return General{DegreeU: du, DegreeV: dv}
	}
	return General{DegreeU: 3, DegreeV: 3}
}

// Params are the sampling tolerances.
type Params struct {
	Deflection float64
	Angle      float64
	MinSize    float64
}

// GenerateSurfaceNodes returns the UV nodes strictly inside domain that
// lie inside the face bounded by loops and keep clear of its boundary.
func GenerateSurfaceNodes(sp Splitter, domain r2.Rect, loops []discret.Polyline, p Params) []r2.Point {
	if domain.IsEmpty() || !(domain.X.Length() > 0) || !(domain.Y.Length() > 0) {
		return nil
	}
	var rows []row
	switch sp := sp.(type) {
	case Plane:
		if !sp.Subdivide {
			return nil
		}
		pitch := math.Max(p.MinSize, math.Max(domain.X.Length(), domain.Y.Length())/planarDivisions)
		rows = uniform(domain, pitch, pitch)
	case Cylinder:
		du := p.angleStep(sp.Radius)
		rows = uniform(domain, du, math.Max(sp.Radius*du, p.MinSize))
	case Cone:
		r := math.Max(coneRadius(sp, domain.Y.Lo), coneRadius(sp, domain.Y.Hi))
		du := p.angleStep(r)
		rows = uniform(domain, du, math.Max(r*du, p.MinSize))
	case Sphere:
		dv := p.angleStep(sp.Radius)
		rows = rings(domain, dv, func(v float64) (float64, float64) {
			return sp.Radius * math.Cos(v), sp.Radius
		}, p)
	case Torus:
		dv := p.angleStep(sp.Minor)
		rows = rings(domain, dv, func(v float64) (float64, float64) {
			return sp.Major + sp.Minor*math.Cos(v), sp.Minor
		}, p)
	case General:
		nu := max(4, 2*sp.DegreeU)
		nv := max(4, 2*sp.DegreeV)
		rows = uniform(domain, domain.X.Length()/float64(nu), domain.Y.Length()/float64(nv))
	}
	return filter(rows, loops, domain)
}

// row is one iso-v line of candidate nodes with its u spacing.
type row struct {
	v      float64
	du, dv float64
}

// angleStep returns the angular step keeping the chord of an arc of
// radius r within the deflection.
func (p Params) angleStep(r float64) float64 {
	step := p.Angle
	if step <= 0 || step > math.Pi/2 {
		step = math.Pi / 2
	}
	r = math.Abs(r)
	if p.Deflection > 0 && p.Deflection < r {
		step = math.Min(step, 2*math.Acos(1-p.Deflection/r))
	}
	if r > 0 && p.MinSize > 0 {
		step = math.Max(step, p.MinSize/r)
	}
	return step
}

func coneRadius(c Cone, v float64) float64 {
	return math.Abs(c.RefRadius + v*math.Sin(c.SemiAngle))
}

// interior returns n-1 evenly spaced values strictly inside [lo, hi],
// with n chosen so the spacing does not exceed step.
func interior(lo, hi, step float64) []float64 {
	if !(step > 0) {
		return nil
	}
	n := int(math.Ceil((hi - lo) / step))
	if n < 2 {
		return nil
	}
	vals := make([]float64, n-1)
	for i := range vals {
		vals[i] = lo + float64(i+1)*(hi-lo)/float64(n)
	}
	return vals
}

// uniform returns rows of a regular grid.
func uniform(domain r2.Rect, du, dv float64) []row {
	du, dv = capSteps(domain, du, dv)
	var rows []row
	for _, v := range interior(domain.Y.Lo, domain.Y.Hi, dv) {
		rows = append(rows, row{v: v, du: du, dv: dv})
	}
	return rows
}

// rings returns rows of a surface of revolution whose parallels have
// radius along(v) and whose meridians have radius across.
func rings(domain r2.Rect, dv float64, radii func(v float64) (along, across float64), p Params) []row {
	_, dv = capSteps(domain, dv, dv)
	var rows []row
	for _, v := range interior(domain.Y.Lo, domain.Y.Hi, dv) {
		along, across := radii(v)
		du := p.angleStep(along)
		// Keep parallels no denser in space than meridians.
		if along > 0 {
			du = math.Max(du, dv*across/along)
		}
		du, _ = capSteps(domain, du, dv)
		rows = append(rows, row{v: v, du: du, dv: dv})
	}
	return rows
}

// capSteps enlarges the steps so a full grid stays under MaxNodes.
func capSteps(domain r2.Rect, du, dv float64) (float64, float64) {
	n := (domain.X.Length() / du) * (domain.Y.Length() / dv)
	if n > MaxNodes {
		s := math.Sqrt(n / MaxNodes)
		du, dv = du*s, dv*s
	}
	return du, dv
}

// filter keeps the candidates inside the face and clear of its boundary.
func filter(rows []row, loops []discret.Polyline, domain r2.Rect) []r2.Point {
	if len(rows) == 0 || len(loops) == 0 {
		return nil
	}
	idx := discret.NewSegmentIndex(loops, domain)
	var out []r2.Point
	for _, r := range rows {
		for _, u := range interior(domain.X.Lo, domain.X.Hi, r.du) {
			p := r2.Point{X: u, Y: r.v}
			clearance := 0.5 * math.Min(r.du, r.dv)
			if !Inside(p, loops) || idx.Near(p, clearance) {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

// Inside reports whether p is inside the face bounded by loops using the
// even-odd rule.
func Inside(p r2.Point, loops []discret.Polyline) bool {
	in := false
	for _, l := range loops {
		n := len(l.Nodes)
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			a, b := l.Nodes[i].UV, l.Nodes[j].UV
			if (a.Y > p.Y) != (b.Y > p.Y) &&
				p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
				in = !in
			}
		}
	}
	return in
}
