// Package delaunay implements an incremental constrained Delaunay
// triangulation over the UV domain of a face.
//
// Points are inserted one at a time: the containing triangle is found by a
// directed walk from the last touched triangle, split, and the Delaunay
// property restored by Lawson flips. Boundary segments are then recovered
// as constrained edges, and a parity flood fill separates the face interior
// from the exterior and holes. Constrained edges are never flipped, so
// points inserted afterwards keep the boundary intact.
//
// A Triangulation is not safe for concurrent use.
package delaunay

import (
	"errors"
	"math"

	"github.com/golang/geo/r2"
)

// SuperVertices is the number of synthetic vertices enclosing the domain.
// They occupy ids 0, 1 and 2.
const SuperVertices = 3

// Errors returned by RecoverEdge.
var (
	// ErrRecoveryBudget: the segment could not be recovered within the
	// local Steiner point budget. Its region is marked invalid.
	ErrRecoveryBudget = errors.New("delaunay: constrained edge not recovered")

	// ErrFaceBudget: the face-wide Steiner point budget is exhausted.
	ErrFaceBudget = errors.New("delaunay: edge recovery budget exhausted")

	// ErrBadVertex: a vertex id is out of range or synthetic.
	ErrBadVertex = errors.New("delaunay: invalid vertex")

	// ErrNotRemovable: the vertex touches a constrained edge, the hull or
	// the super-triangle.
	ErrNotRemovable = errors.New("delaunay: vertex cannot be removed")
)

// Outcome describes what Insert did with a point.
type Outcome uint8

// Insert outcomes.
const (
	// Inserted: a new vertex was created.
	Inserted Outcome = iota
	// Duplicate: the point is within tolerance of an existing vertex,
	// whose id is returned.
	Duplicate
	// OnConstraint: the point lies on a constrained edge and was rejected.
	OnConstraint
	// Outside: the point is outside the domain or, once classified,
	// outside the face.
	Outside
)

// triangle stores counter-clockwise vertices. Edge k is the edge opposite
// v[k], running v[k+1]→v[k+2]; n[k] is the triangle across it and c[k]
// marks it constrained. Dead slots were merged away by RemoveVertex.
type triangle struct {
	v       [3]int
	n       [3]int
	c       [3]bool
	inside  bool
	invalid bool
	dead    bool
}

// index returns the corner of t holding vertex id, or -1.
func (t *triangle) index(id int) int {
	for k, v := range t.v {
		if v == id {
			return k
		}
	}
	return -1
}

// neighborIndex returns the edge of t shared with triangle other, or -1.
func (t *triangle) neighborIndex(other int) int {
	for k, n := range t.n {
		if n == other {
			return k
		}
	}
	return -1
}

// Stats reports work counters of a triangulation.
type Stats struct {
	Vertices  int
	Triangles int
	Flips     int
	Steiner   int
	Removed   int
	Walks     int
	Scans     int
}

// Triangulation is an incremental constrained Delaunay triangulation.
type Triangulation struct {
	pts  []r2.Point
	tris []triangle
	vtri []int // one triangle incident to each vertex
	last int

	tol        float64
	classified bool

	// faceBudget is the number of Steiner points RecoverEdge may still add.
	faceBudget  int
	localBudget int
	steiner    []Steiner

	stats Stats
}

// LocalRecoveryBudget bounds the Steiner points inserted for one segment.
const LocalRecoveryBudget = 8

// New returns a triangulation whose super-triangle encloses bounds. tol is
// the UV distance under which points are considered coincident.
func New(bounds r2.Rect, tol float64) *Triangulation {
	c := bounds.Center()
	size := math.Max(bounds.X.Length(), bounds.Y.Length())
	if !(size > 0) || math.IsInf(size, 0) {
		size = 1
	}
	tr := &Triangulation{
		pts: []r2.Point{
			{X: c.X - 20*size, Y: c.Y - size},
			{X: c.X + 20*size, Y: c.Y - size},
			{X: c.X, Y: c.Y + 20*size},
		},
		tris:       []triangle{{v: [3]int{0, 1, 2}, n: [3]int{-1, -1, -1}}},
		vtri:       []int{0, 0, 0},
		tol:        tol,
		faceBudget: 64,

		localBudget: LocalRecoveryBudget,
	}
	return tr
}

// SetRecoveryBudget sets the face-wide number of Steiner points edge
// recovery may insert.
func (tr *Triangulation) SetRecoveryBudget(n int) {
	tr.faceBudget = n
}

// SetLocalRecoveryBudget sets the number of Steiner points RecoverEdge may
// insert for one segment.
func (tr *Triangulation) SetLocalRecoveryBudget(n int) {
	tr.localBudget = n
}

// Tolerance returns the coincidence tolerance.
func (tr *Triangulation) Tolerance() float64 { return tr.tol }

// NumVertices returns the number of vertex ids handed out, including the
// super vertices and removed vertices.
func (tr *Triangulation) NumVertices() int { return len(tr.pts) }

// Vertex returns the UV position of vertex id.
func (tr *Triangulation) Vertex(id int) r2.Point { return tr.pts[id] }

// IsSuper reports whether id is one of the synthetic enclosing vertices.
func IsSuper(id int) bool { return id < SuperVertices }

// NumTriangles returns the number of triangle slots, live or not.
func (tr *Triangulation) NumTriangles() int { return len(tr.tris) }

// Corners returns the vertex ids of triangle t in counter-clockwise order.
func (tr *Triangulation) Corners(t int) [3]int { return tr.tris[t].v }

// Neighbor returns the triangle across edge k of t, or -1.
func (tr *Triangulation) Neighbor(t, k int) int { return tr.tris[t].n[k] }

// IsConstrained reports whether edge k of t is constrained.
func (tr *Triangulation) IsConstrained(t, k int) bool { return tr.tris[t].c[k] }

// IsFaceTriangle reports whether t belongs to the meshed face: classified
// inside, valid and free of super vertices.
func (tr *Triangulation) IsFaceTriangle(t int) bool {
	tri := &tr.tris[t]
	if !tri.inside || tri.invalid || tri.dead {
		return false
	}
	return !IsSuper(tri.v[0]) && !IsSuper(tri.v[1]) && !IsSuper(tri.v[2])
}

// Triangles returns the face triangles in slot order.
func (tr *Triangulation) Triangles() [][3]int {
	var out [][3]int
	for t := range tr.tris {
		if tr.IsFaceTriangle(t) {
			out = append(out, tr.tris[t].v)
		}
	}
	return out
}

// ConstrainedEdges returns each constrained edge once, smaller id first,
// in triangle slot order.
func (tr *Triangulation) ConstrainedEdges() [][2]int {
	var out [][2]int
	for t := range tr.tris {
		tri := &tr.tris[t]
		for k := range 3 {
			if !tri.c[k] {
				continue
			}
			a, b := tri.v[(k+1)%3], tri.v[(k+2)%3]
			if n := tri.n[k]; n >= 0 && n < t {
				continue
			}
			if a > b {
				a, b = b, a
			}
			out = append(out, [2]int{a, b})
		}
	}
	return out
}

// HasEdge reports whether a and b are joined by an edge.
func (tr *Triangulation) HasEdge(a, b int) bool {
	_, _, ok := tr.findEdge(a, b)
	return ok
}

// Stats returns the work counters.
func (tr *Triangulation) Stats() Stats {
	s := tr.stats
	s.Vertices = len(tr.pts) - SuperVertices - s.Removed
	for t := range tr.tris {
		if tr.IsFaceTriangle(t) {
			s.Triangles++
		}
	}
	return s
}

// touch records t as the incident triangle of its corners.
func (tr *Triangulation) touch(ts ...int) {
	for _, t := range ts {
		for _, v := range tr.tris[t].v {
			tr.vtri[v] = t
		}
	}
	tr.last = ts[0]
}

// replaceNeighbor redirects t's link to old towards repl.
func (tr *Triangulation) replaceNeighbor(t, old, repl int) {
	if t < 0 {
		return
	}
	if k := tr.tris[t].neighborIndex(old); k >= 0 {
		tr.tris[t].n[k] = repl
	}
}

// star calls fn for every triangle around vertex id with the corner index
// of id, until fn returns false.
func (tr *Triangulation) star(id int, fn func(t, k int) bool) {
	start := tr.vtri[id]
	if start < 0 {
		return
	}
	t := start
	closed := false
	for range len(tr.tris) + 1 {
		k := tr.tris[t].index(id)
		if k < 0 {
			return
		}
		if !fn(t, k) {
			return
		}
		// Step counter-clockwise across the edge (v[k+2], id).
		next := tr.tris[t].n[(k+1)%3]
		if next < 0 {
			break
		}
		if next == start {
			closed = true
			break
		}
		t = next
	}
	if closed {
		return
	}
	// Hull vertex: finish the fan clockwise from start.
	t = start
	for range len(tr.tris) + 1 {
		k := tr.tris[t].index(id)
		next := tr.tris[t].n[(k+2)%3]
		if next < 0 {
			return
		}
		t = next
		if !fn(t, tr.tris[t].index(id)) {
			return
		}
	}
}

// findEdge locates edge ab as edge k of triangle t.
func (tr *Triangulation) findEdge(a, b int) (t, k int, ok bool) {
	if a < 0 || b < 0 || a >= len(tr.pts) || b >= len(tr.pts) || a == b {
		return -1, -1, false
	}
	t, k = -1, -1
	tr.star(a, func(ti, i int) bool {
		tri := &tr.tris[ti]
		switch b {
		case tri.v[(i+1)%3]:
			t, k = ti, (i+2)%3
			return false
		case tri.v[(i+2)%3]:
			t, k = ti, (i+1)%3
			return false
		}
		return true
	})
	return t, k, t >= 0
}

// setConstrained flags edge k of t and its twin.
func (tr *Triangulation) setConstrained(t, k int, on bool) {
	tr.tris[t].c[k] = on
	if n := tr.tris[t].n[k]; n >= 0 {
		if j := tr.tris[n].neighborIndex(t); j >= 0 {
			tr.tris[n].c[j] = on
		}
	}
}
