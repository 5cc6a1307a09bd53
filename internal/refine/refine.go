// Package refine inserts surface points into a face triangulation until
// its facets follow the surface within the deflection tolerances.
package refine

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/gogpu/surfmesh/geom"
	"github.com/gogpu/surfmesh/internal/delaunay"
	"github.com/gogpu/surfmesh/internal/meshdata"
	"github.com/gogpu/surfmesh/mesh"
)

// Metric aggregates the sample deviations of one triangle.
type Metric uint8

const (
	// Max takes the largest sample deviation.
	Max Metric = iota
	// RMS takes the root mean square of the sample deviations.
	RMS
)

func (m Metric) String() string {
	switch m {
	case Max:
		return "max"
	case RMS:
		return "rms"
	}
	return fmt.Sprintf("Metric(%d)", m)
}

// DefaultMaxIterations bounds refinement when Params.MaxIterations is zero.
const DefaultMaxIterations = 32

// Params are the refinement tolerances.
type Params struct {
	// Deflection bounds the distance between facets and the surface.
	Deflection float64
	// Angle bounds the angle between facet normals and surface normals
	// along the boundary, in radians. Zero disables the check.
	Angle float64
	// MinSize is the smallest edge refinement may create.
	MinSize float64

	MaxIterations int
	Metric        Metric
}

// Result summarizes a refinement run.
type Result struct {
	Iterations int
	Inserted   int
	// Removed counts refined vertices dropped from sliver triangles.
	Removed int
	// Deflection is the largest deviation measured on the final mesh.
	Deflection float64
	// Status is ReMesh, Outdated or NoError.
	Status mesh.Status
}

// candidate is the point inserted for a violating triangle. Angle-only
// candidates carry the constrained edge they try to fit.
type candidate struct {
	uv        r2.Point
	point     r3.Vector
	tol       float64
	angleOnly bool
	edge      edgeKey
	angle     float64
}

// edgeKey names an undirected edge by its sorted vertex ids.
type edgeKey [2]int

func keyOf(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// angleGain is the relative improvement an angle insertion must reach for
// its edge to be tested again.
const angleGain = 1e-3

// boundaryFit tracks the constrained edges refined for the angle check.
// A settled edge is no longer tested.
type boundaryFit struct {
	last    map[edgeKey]float64
	settled map[edgeKey]bool
}

func newBoundaryFit() *boundaryFit {
	return &boundaryFit{last: map[edgeKey]float64{}, settled: map[edgeKey]bool{}}
}

// skip reports whether edge e is settled, settling it when its angle did
// not improve since the previous insertion.
func (f *boundaryFit) skip(e edgeKey, angle float64) bool {
	if f == nil {
		return false
	}
	if f.settled[e] {
		return true
	}
	if prev, ok := f.last[e]; ok && angle >= prev*(1-angleGain) {
		f.settled[e] = true
		return true
	}
	return false
}

func (f *boundaryFit) settle(e edgeKey) {
	if f != nil {
		f.settled[e] = true
	}
}

// Refine runs the refinement loop on a classified triangulation. It
// returns ctx.Err() when cancelled between iterations.
func Refine(ctx context.Context, m *meshdata.MeshData, p Params, log *slog.Logger) (Result, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	res, err := refine(ctx, m, p, log)
	if err != nil {
		return res, err
	}
	if n := dropSlivers(m, p); n > 0 {
		res.Removed = n
		res.Deflection = Measure(m, p)
		log.Debug("sliver vertices removed", "face", m.FaceID, "removed", n)
	}
	return res, nil
}

func refine(ctx context.Context, m *meshdata.MeshData, p Params, log *slog.Logger) (Result, error) {
	maxIter := p.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	fit := newBoundaryFit()
	var res Result
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		cands, blocked, worst := measure(m, p, fit)
		res.Deflection = worst
		deflecting := 0
		for _, c := range cands {
			if !c.angleOnly {
				deflecting++
			}
		}
		if len(cands) == 0 && blocked == 0 {
			return res, nil
		}
		if len(cands) == 0 {
			res.Status |= mesh.ReMesh
			log.Debug("refinement blocked by min size", "face", m.FaceID, "blocked", blocked)
			return res, nil
		}
		if res.Iterations == maxIter {
			if deflecting > 0 || blocked > 0 {
				res.Status |= mesh.Outdated
			}
			log.Debug("refinement cap reached", "face", m.FaceID,
				"iterations", res.Iterations, "violations", len(cands)+blocked, "deflection", worst)
			return res, nil
		}
		res.Iterations++

		uvs := make([]r2.Point, len(cands))
		for i, c := range cands {
			uvs[i] = c.uv
		}
		ids, outs := m.AddNodes(uvs, meshdata.SourceRefined, 0)
		inserted, insertedDeflecting := 0, 0
		for i, c := range cands {
			if outs[i] != delaunay.Inserted {
				if c.angleOnly {
					fit.settle(c.edge)
				}
				continue
			}
			m.Vertices[ids[i]].Tol = c.tol
			inserted++
			if c.angleOnly {
				fit.last[c.edge] = c.angle
			} else {
				insertedDeflecting++
			}
		}
		res.Inserted += inserted
		log.Debug("refinement pass", "face", m.FaceID, "iteration", res.Iterations,
			"candidates", len(cands), "inserted", inserted, "blocked", blocked, "deflection", worst)
		if deflecting > 0 && insertedDeflecting == 0 {
			res.Status |= mesh.ReMesh
			return res, nil
		}
	}
}

// Measure returns the largest facet deviation of the face triangles.
func Measure(m *meshdata.MeshData, p Params) float64 {
	_, _, worst := measure(m, p, nil)
	return worst
}

// measure samples every face triangle. It returns one insertion candidate
// per violating triangle, the number of deflection violations blocked by
// MinSize and the largest deviation seen. Angle candidates blocked by
// MinSize settle their edge.
func measure(m *meshdata.MeshData, p Params, fit *boundaryFit) (cands []candidate, blocked int, worst float64) {
	for _, t := range m.FaceTriangles() {
		c, dev, bad := sample(m, t, p, fit)
		worst = math.Max(worst, dev)
		if !bad {
			continue
		}
		if tooClose(m, t, c.point, p.MinSize) {
			if c.angleOnly {
				fit.settle(c.edge)
				continue
			}
			blocked++
			continue
		}
		cands = append(cands, c)
	}
	return cands, blocked, worst
}

// sample evaluates triangle t at the midpoints of its free edges and at
// its centroid. When the deflection holds it checks the facet normal
// against the surface normal along each constrained edge and proposes a
// point halfway between the worst edge and the opposite corner.
func sample(m *meshdata.MeshData, t int, p Params, fit *boundaryFit) (candidate, float64, bool) {
	s := m.Surface
	corners := m.Tri.Corners(t)
	var uv [3]r2.Point
	var pt [3]r3.Vector
	var tol float64
	for i, id := range corners {
		uv[i], pt[i] = m.Vertices[id].UV, m.Vertices[id].Point
		tol = math.Max(tol, m.Vertices[id].Tol)
	}

	var (
		best    candidate
		bestDev = -1.0
		sumSq   float64
		n       int
		onEdge  []int
	)
	try := func(suv r2.Point, facet r3.Vector) {
		sp := s.Value(suv)
		dev := sp.Sub(facet).Norm()
		sumSq += dev * dev
		n++
		if dev > bestDev {
			best, bestDev = candidate{uv: suv, point: sp, tol: tol}, dev
		}
	}
	for k := range 3 {
		a, b := (k+1)%3, (k+2)%3
		if m.Tri.IsConstrained(t, k) {
			onEdge = append(onEdge, k)
			continue
		}
		try(uv[a].Add(uv[b]).Mul(0.5), pt[a].Add(pt[b]).Mul(0.5))
	}
	try(uv[0].Add(uv[1]).Add(uv[2]).Mul(1.0/3), pt[0].Add(pt[1]).Add(pt[2]).Mul(1.0/3))

	dev := bestDev
	if p.Metric == RMS {
		dev = math.Sqrt(sumSq / float64(n))
	}
	if dev > p.Deflection {
		return best, dev, true
	}
	if p.Angle <= 0 || len(onEdge) == 0 {
		return best, dev, false
	}
	facet := pt[1].Sub(pt[0]).Cross(pt[2].Sub(pt[0]))
	if facet.Norm2() == 0 {
		return best, dev, false
	}
	worstEdge, worstAngle := -1, p.Angle
	for _, k := range onEdge {
		a, b := (k+1)%3, (k+2)%3
		sn, ok := geom.SurfaceNormal(s, uv[a].Add(uv[b]).Mul(0.5))
		if !ok {
			continue
		}
		angle := float64(facet.Angle(sn))
		if angle <= p.Angle || fit.skip(keyOf(corners[a], corners[b]), angle) {
			continue
		}
		if angle > worstAngle {
			worstEdge, worstAngle = k, angle
		}
	}
	if worstEdge < 0 {
		return best, dev, false
	}
	a, b := (worstEdge+1)%3, (worstEdge+2)%3
	mid := uv[a].Add(uv[b]).Mul(0.5)
	cuv := mid.Add(uv[worstEdge].Sub(mid).Mul(0.5))
	return candidate{
		uv:        cuv,
		point:     s.Value(cuv),
		tol:       tol,
		angleOnly: true,
		edge:      keyOf(corners[a], corners[b]),
		angle:     worstAngle,
	}, dev, true
}

// sliverAngle is the smallest corner angle, in radians, a face triangle
// may have in space before its refined corners are reconsidered.
const sliverAngle = 1e-2

// dropSlivers removes refined vertices that are corners of sliver
// triangles when doing so adds no violation and no deviation above the
// tolerance. It returns the number of vertices removed.
func dropSlivers(m *meshdata.MeshData, p Params) int {
	cands, blocked, base := measure(m, p, nil)
	violations := len(cands) + blocked
	limit := math.Max(base, p.Deflection)
	removed := 0
	for _, t := range m.FaceTriangles() {
		if !m.Tri.IsFaceTriangle(t) || !isSliver(m, t) {
			continue
		}
		for _, id := range m.Tri.Corners(t) {
			v := m.Vertices[id]
			if v.Source != meshdata.SourceRefined || m.RemoveNode(id) != nil {
				continue
			}
			cands, blocked, worst := measure(m, p, nil)
			if len(cands)+blocked > violations || worst > limit {
				m.AddNode(v.UV, meshdata.SourceRefined, v.Tol)
				continue
			}
			violations = len(cands) + blocked
			removed++
			break
		}
	}
	return removed
}

// isSliver reports whether face triangle t has a nonzero area in space
// and a corner angle below sliverAngle.
func isSliver(m *meshdata.MeshData, t int) bool {
	c := m.Tri.Corners(t)
	p := [3]r3.Vector{m.Vertices[c[0]].Point, m.Vertices[c[1]].Point, m.Vertices[c[2]].Point}
	if p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).Norm2() == 0 {
		return false
	}
	for k := range 3 {
		u, w := p[(k+1)%3].Sub(p[k]), p[(k+2)%3].Sub(p[k])
		if float64(u.Angle(w)) < sliverAngle {
			return true
		}
	}
	return false
}

// tooClose reports whether p is nearer than minSize to a corner of t.
func tooClose(m *meshdata.MeshData, t int, p r3.Vector, minSize float64) bool {
	if minSize <= 0 {
		return false
	}
	for _, id := range m.Tri.Corners(t) {
		if m.Vertices[id].Point.Sub(p).Norm() < minSize {
			return true
		}
	}
	return false
}
