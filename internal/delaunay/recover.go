package delaunay

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// Steiner records a vertex added by edge recovery. It lies at parameter T
// on the segment from vertex A to vertex B.
type Steiner struct {
	ID   int
	A, B int
	T    float64
}

// Steiners returns the vertices added by edge recovery in insertion order.
func (tr *Triangulation) Steiners() []Steiner { return tr.steiner }

// crossing is the run of edges a segment crosses starting at a vertex.
type crossing struct {
	edges  [][2]int
	tris   []int
	blockT int // triangle owning the first constrained crossed edge, or -1
	blockK int
	end    int // last vertex reached: the target or a vertex on the segment
}

// RecoverEdge makes the segment between vertices a and b a chain of
// constrained edges. Crossing edges are flipped away; vertices lying on
// the segment split it, and Steiner points are added when flipping stalls
// or another constrained edge is crossed. It returns the vertex chain from
// a towards b. On error the chain stops where recovery gave up and the
// triangles crossed by the rest of the segment are marked invalid.
func (tr *Triangulation) RecoverEdge(a, b int) ([]int, error) {
	for _, id := range [2]int{a, b} {
		if id < SuperVertices || id >= len(tr.pts) {
			return nil, fmt.Errorf("%w: %d", ErrBadVertex, id)
		}
	}
	chain := []int{a}
	if a == b {
		return chain, nil
	}
	local := tr.localBudget
	cur := a
	for range 4*len(tr.pts) + 64 {
		if t, k, ok := tr.findEdge(cur, b); ok {
			tr.setConstrained(t, k, true)
			return append(chain, b), nil
		}
		t, k, coll := tr.startCrossing(cur, b)
		if coll >= 0 {
			et, ek, _ := tr.findEdge(cur, coll)
			tr.setConstrained(et, ek, true)
			chain = append(chain, coll)
			cur = coll
			continue
		}
		if t < 0 {
			return chain, fmt.Errorf("%w: no triangle at %d towards %d", ErrRecoveryBudget, cur, b)
		}
		cr := tr.walk(cur, b, t, k)
		if cr.blockT >= 0 {
			if err := tr.spend(&local); err != nil {
				tr.invalidate(cr)
				return chain, err
			}
			tr.splitConstrained(cur, b, cr.blockT, cr.blockK)
			continue
		}
		created, ok := tr.flipOut(cur, cr.end, cr.edges)
		if ok {
			tr.restore(created)
			continue
		}
		if err := tr.spend(&local); err != nil {
			tr.invalidateFrom(cur, b)
			return chain, err
		}
		if !tr.insertMidpoint(cur, cr.end) {
			tr.invalidateFrom(cur, b)
			return chain, fmt.Errorf("%w: segment %d-%d", ErrRecoveryBudget, cur, b)
		}
	}
	tr.invalidateFrom(cur, b)
	return chain, fmt.Errorf("%w: segment %d-%d", ErrRecoveryBudget, cur, b)
}

// spend takes one Steiner point from the local and face budgets.
func (tr *Triangulation) spend(local *int) error {
	if tr.faceBudget <= 0 {
		return ErrFaceBudget
	}
	if *local <= 0 {
		return ErrRecoveryBudget
	}
	*local--
	tr.faceBudget--
	tr.stats.Steiner++
	return nil
}

// onSegment reports whether vertex v lies on the open segment pq within
// tolerance.
func (tr *Triangulation) onSegment(v int, p, q r2.Point) bool {
	x := tr.pts[v]
	return distToLine(x, p, q) <= tr.tol && projectsInside(x, p, q)
}

// startCrossing finds, around vertex c, either a neighbor lying on the
// segment c→b or the triangle whose edge opposite c the segment leaves
// through.
func (tr *Triangulation) startCrossing(c, b int) (t, k, coll int) {
	pc, pb := tr.pts[c], tr.pts[b]
	t, k, coll = -1, -1, -1
	tr.star(c, func(ti, i int) bool {
		tri := &tr.tris[ti]
		x, y := tri.v[(i+1)%3], tri.v[(i+2)%3]
		switch {
		case !IsSuper(x) && tr.onSegment(x, pc, pb):
			coll = x
			return false
		case !IsSuper(y) && tr.onSegment(y, pc, pb):
			coll = y
			return false
		}
		if orient(pc, tr.pts[x], pb) > 0 && orient(pc, tr.pts[y], pb) < 0 {
			t, k = ti, i
			return false
		}
		return true
	})
	return t, k, coll
}

// walk collects the edges crossed by the segment c→b, leaving c through
// edge k of t. It stops at b, at the first vertex found on the segment or
// at the first constrained edge.
func (tr *Triangulation) walk(c, b, t, k int) crossing {
	pc, pb := tr.pts[c], tr.pts[b]
	cr := crossing{blockT: -1, end: b}
	for range len(tr.tris) + 1 {
		T := &tr.tris[t]
		x, y := T.v[(k+1)%3], T.v[(k+2)%3]
		cr.tris = append(cr.tris, t)
		if T.c[k] {
			cr.blockT, cr.blockK = t, k
			return cr
		}
		cr.edges = append(cr.edges, [2]int{x, y})
		u := T.n[k]
		if u < 0 {
			return cr
		}
		U := &tr.tris[u]
		j := U.neighborIndex(t)
		w := U.v[j]
		if w == b {
			cr.tris = append(cr.tris, u)
			return cr
		}
		if !IsSuper(w) && tr.onSegment(w, pc, pb) {
			cr.tris = append(cr.tris, u)
			cr.end = w
			return cr
		}
		if orient(pc, pb, tr.pts[w]) > 0 {
			t, k = u, (j+1)%3
		} else {
			t, k = u, (j+2)%3
		}
	}
	return cr
}

// flipOut flips the listed edges until none crosses the segment c→d.
// It reports false when a full pass makes no progress.
func (tr *Triangulation) flipOut(c, d int, edges [][2]int) ([][2]int, bool) {
	pc, pd := tr.pts[c], tr.pts[d]
	queue := append([][2]int(nil), edges...)
	var created [][2]int
	stall := 0
	for len(queue) > 0 {
		if stall > len(queue) {
			return created, false
		}
		e := queue[0]
		queue = queue[1:]
		t, k, ok := tr.findEdge(e[0], e[1])
		if !ok {
			stall = 0
			continue
		}
		if !tr.flippable(t, k) {
			queue = append(queue, e)
			stall++
			continue
		}
		tr.flip(t, k)
		stall = 0
		nd := [2]int{tr.tris[t].v[0], tr.tris[t].v[2]}
		switch {
		case segmentsCross(pc, pd, tr.pts[nd[0]], tr.pts[nd[1]]):
			queue = append(queue, nd)
		case (nd[0] == c && nd[1] == d) || (nd[0] == d && nd[1] == c):
		default:
			created = append(created, nd)
		}
	}
	return created, true
}

// restore re-applies the circumcircle test to edges created by flipOut.
func (tr *Triangulation) restore(edges [][2]int) {
	for range len(edges) + 8 {
		changed := false
		for i, e := range edges {
			t, k, ok := tr.findEdge(e[0], e[1])
			if !ok || !tr.flippable(t, k) || !tr.shouldFlip(t, k) {
				continue
			}
			tr.flip(t, k)
			edges[i] = [2]int{tr.tris[t].v[0], tr.tris[t].v[2]}
			changed = true
		}
		if !changed {
			return
		}
	}
}

// splitConstrained inserts a Steiner point where segment c→b crosses the
// constrained edge k of t.
func (tr *Triangulation) splitConstrained(c, b, t, k int) {
	T := &tr.tris[t]
	x, y := T.v[(k+1)%3], T.v[(k+2)%3]
	px, py := tr.pts[x], tr.pts[y]
	s := intersection(px, py, tr.pts[c], tr.pts[b])
	s = min(max(s, 0.01), 0.99)
	p := px.Add(py.Sub(px).Mul(s))
	id := tr.insertAt(location{kind: onEdge, t: t, k: k}, p)
	tr.steiner = append(tr.steiner, Steiner{ID: id, A: x, B: y, T: s})
}

// insertMidpoint adds a Steiner point halfway along c→d.
func (tr *Triangulation) insertMidpoint(c, d int) bool {
	p := tr.pts[c].Add(tr.pts[d]).Mul(0.5)
	loc := tr.locate(p)
	if loc.kind == outside || loc.kind == onVertex {
		return false
	}
	id := tr.insertAt(loc, p)
	tr.steiner = append(tr.steiner, Steiner{ID: id, A: c, B: d, T: 0.5})
	return true
}

// invalidate marks the triangles of a crossing run as invalid.
func (tr *Triangulation) invalidate(cr crossing) {
	for _, t := range cr.tris {
		tr.tris[t].invalid = true
	}
}

// invalidateFrom marks the triangles crossed by segment c→b as invalid.
func (tr *Triangulation) invalidateFrom(c, b int) {
	t, k, _ := tr.startCrossing(c, b)
	if t < 0 {
		return
	}
	tr.invalidate(tr.walk(c, b, t, k))
}
