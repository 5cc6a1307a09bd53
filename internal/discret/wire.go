package discret

import (
	"log/slog"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/gogpu/surfmesh/brep"
	"github.com/gogpu/surfmesh/mesh"
)

// Node is a boundary point of a face. Edge and T refer back to the curve
// the point was sampled from; Edge is nil on closing segments.
type Node struct {
	UV    r2.Point
	Point r3.Vector
	Edge  *brep.Edge
	T     float64
	// Tol is the merge tolerance at the point.
	Tol float64
}

// Polyline is a closed boundary loop in UV: the last node connects back
// to the first. The outer loop is counter-clockwise, holes clockwise.
type Polyline struct {
	Nodes []Node
	Outer bool
}

// Segments returns the number of boundary segments.
func (p *Polyline) Segments() int { return len(p.Nodes) }

// SignedArea returns the shoelace area of the loop in UV.
func (p *Polyline) SignedArea() float64 {
	var a float64
	n := len(p.Nodes)
	for i := range n {
		u, v := p.Nodes[i].UV, p.Nodes[(i+1)%n].UV
		a += u.Cross(v)
	}
	return a / 2
}

// Bounds returns the UV bounding rectangle of the loop.
func (p *Polyline) Bounds() r2.Rect {
	r := r2.EmptyRect()
	for _, n := range p.Nodes {
		r = r.AddPoint(n.UV)
	}
	return r
}

// Wires builds the boundary loops of f from the shared edge polygons.
// Edges missing from polys are discretized on the spot. Problems are
// reported as status flags; wires that cannot be used are dropped.
func Wires(f *brep.Face, polys Polygons, p Params, log *slog.Logger) ([]Polyline, mesh.Status) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	var (
		loops  []Polyline
		status mesh.Status
	)
	for wi, w := range f.Wires {
		nodes, st := wireNodes(w, polys, p)
		status |= st
		if st.Has(mesh.TooFewPoints) {
			log.Warn("wire dropped", "face", f.ID, "wire", wi, "status", st)
			continue
		}
		if distinct(nodes) < 3 {
			status |= mesh.TooFewPoints
			log.Warn("wire has too few points", "face", f.ID, "wire", wi, "points", len(nodes))
			continue
		}
		pl := Polyline{Nodes: nodes, Outer: wi == 0}
		area := pl.SignedArea()
		if (pl.Outer && area <= 0) || (!pl.Outer && area >= 0) {
			status |= mesh.UnorientedWire
			log.Warn("wire orientation disagrees with its role", "face", f.ID, "wire", wi, "area", area)
			reverse(pl.Nodes)
		}
		loops = append(loops, pl)
	}
	if SelfIntersecting(loops) {
		status |= mesh.SelfIntersectingWire
		log.Warn("boundary self-intersects", "face", f.ID)
	}
	return loops, status
}

// wireNodes walks the coedges of w, merging the end of each coedge with
// the start of the next.
func wireNodes(w brep.Wire, polys Polygons, p Params) ([]Node, mesh.Status) {
	var (
		nodes  []Node
		status mesh.Status
	)
	for i, ce := range w.CoEdges {
		seq, err := coedgeNodes(ce, polys, p)
		if err != nil || len(seq) == 0 {
			return nil, mesh.TooFewPoints
		}
		if i > 0 {
			prev := nodes[len(nodes)-1]
			tol := math.Max(prev.Tol, seq[0].Tol)
			if prev.Point.Sub(seq[0].Point).Norm() <= tol {
				seq = seq[1:]
			} else {
				status |= mesh.OpenWire
			}
		}
		nodes = append(nodes, seq...)
	}
	if len(nodes) > 1 {
		first, last := nodes[0], nodes[len(nodes)-1]
		if last.Point.Sub(first.Point).Norm() <= math.Max(first.Tol, last.Tol) {
			nodes = nodes[:len(nodes)-1]
		} else {
			// The closing segment from last to first becomes a straight
			// UV constraint.
			status |= mesh.OpenWire
		}
	}
	return nodes, status
}

// coedgeNodes returns the nodes of one coedge in traversal order.
func coedgeNodes(ce brep.CoEdge, polys Polygons, p Params) ([]Node, error) {
	e := ce.Edge
	if e == nil || ce.PCurve == nil {
		return nil, ErrDegenerateCurve
	}
	if e.Degenerated {
		return degeneratedNodes(ce, p)
	}
	poly, ok := polys[e]
	if !ok {
		var err error
		if poly, err = DiscretizeEdge(e, p); err != nil {
			return nil, err
		}
	}
	if poly == nil {
		return nil, ErrDegenerateCurve
	}

	n := poly.Len()
	nodes := make([]Node, n)
	for i := range n {
		j := i
		if ce.Reversed {
			j = n - 1 - i
		}
		t := poly.Params[j]
		nodes[i] = Node{
			UV:    ce.PCurve.Value(t),
			Point: poly.Points[j],
			Edge:  e,
			T:     t,
			Tol:   nodeTol(e, j, n),
		}
	}
	return nodes, nil
}

// nodeTol returns the merge tolerance at point j of an n-point polygon.
func nodeTol(e *brep.Edge, j, n int) float64 {
	tol := e.Tol()
	switch j {
	case 0:
		tol = math.Max(tol, e.V0.Tol())
	case n - 1:
		tol = math.Max(tol, e.V1.Tol())
	}
	return tol
}

// degeneratedNodes samples the pcurve of an edge collapsed to a point.
// All nodes share the vertex position; only UV varies.
func degeneratedNodes(ce brep.CoEdge, p Params) ([]Node, error) {
	e := ce.Edge
	if e.V0 == nil {
		return nil, ErrDegenerateCurve
	}
	rng := ce.PCurve.Bounds()
	if !(rng.Hi > rng.Lo) {
		return nil, ErrDegenerateCurve
	}
	steps := 2
	if p.Angle > 0 {
		uvLen := ce.PCurve.Value(rng.Hi).Sub(ce.PCurve.Value(rng.Lo)).Norm()
		steps = max(steps, int(math.Ceil(uvLen/p.Angle)))
	}
	nodes := make([]Node, steps+1)
	for i := range nodes {
		j := i
		if ce.Reversed {
			j = steps - i
		}
		t := rng.Lo + float64(j)/float64(steps)*rng.Length()
		nodes[i] = Node{
			UV:    ce.PCurve.Value(t),
			Point: e.V0.Point,
			Edge:  e,
			T:     t,
			Tol:   math.Max(e.Tol(), e.V0.Tol()),
		}
	}
	return nodes, nil
}

// distinct counts nodes with distinct UV positions.
func distinct(nodes []Node) int {
	seen := make(map[r2.Point]struct{}, len(nodes))
	for _, n := range nodes {
		seen[n.UV] = struct{}{}
	}
	return len(seen)
}

func reverse(nodes []Node) {
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
}

// SelfIntersecting reports whether two non-adjacent boundary segments
// cross in UV.
func SelfIntersecting(loops []Polyline) bool {
	domain := r2.EmptyRect()
	for i := range loops {
		domain = domain.Union(loops[i].Bounds())
	}
	if domain.IsEmpty() {
		return false
	}
	return NewSegmentIndex(loops, domain).Crossing()
}

func properCross(p, q, r, s r2.Point) bool {
	orient := func(a, b, c r2.Point) float64 { return b.Sub(a).Cross(c.Sub(a)) }
	d1, d2 := orient(p, q, r), orient(p, q, s)
	d3, d4 := orient(r, s, p), orient(r, s, q)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}
