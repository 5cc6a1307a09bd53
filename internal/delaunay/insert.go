package delaunay

import (
	"cmp"
	"math"
	"slices"

	"github.com/golang/geo/r2"
)

type locKind uint8

const (
	inTriangle locKind = iota
	onEdge
	onVertex
	outside
)

// location is the result of a point query.
type location struct {
	kind locKind
	t    int // containing triangle
	k    int // edge of t for onEdge
	v    int // vertex for onVertex
}

// Insert adds p to the triangulation and restores the Delaunay property
// around it. After Classify, points outside the face and points on a
// constrained edge are rejected.
func (tr *Triangulation) Insert(p r2.Point) (int, Outcome) {
	loc := tr.locate(p)
	switch loc.kind {
	case outside:
		return -1, Outside
	case onVertex:
		return loc.v, Duplicate
	}
	if loc.kind == onEdge && tr.tris[loc.t].c[loc.k] {
		return -1, OnConstraint
	}
	if tr.classified {
		tri := &tr.tris[loc.t]
		if !tri.inside || tri.invalid {
			return -1, Outside
		}
	}
	return tr.insertAt(loc, p), Inserted
}

// AddVertices inserts a batch of points. Points are inserted along rows of
// a grid, alternating direction from row to row, so every walk starts next
// to its target. ids and outcomes follow the order of pts.
func (tr *Triangulation) AddVertices(pts []r2.Point) ([]int, []Outcome) {
	ids := make([]int, len(pts))
	outs := make([]Outcome, len(pts))
	for _, i := range snakeOrder(pts) {
		ids[i], outs[i] = tr.Insert(pts[i])
	}
	return ids, outs
}

// snakeOrder returns the indices of pts sorted by grid row, then by X in
// a direction that alternates with the row.
func snakeOrder(pts []r2.Point) []int {
	order := make([]int, len(pts))
	if len(pts) == 0 {
		return order
	}
	box := r2.RectFromPoints(pts...)
	rows := max(1, int(math.Sqrt(float64(len(pts)))/2))
	h := box.Y.Length() / float64(rows)
	row := func(p r2.Point) int {
		if !(h > 0) {
			return 0
		}
		return min(int((p.Y-box.Y.Lo)/h), rows-1)
	}
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ra, rb := row(pts[a]), row(pts[b])
		if ra != rb {
			return cmp.Compare(ra, rb)
		}
		if ra%2 == 1 {
			return cmp.Compare(pts[b].X, pts[a].X)
		}
		return cmp.Compare(pts[a].X, pts[b].X)
	})
	return order
}

// Locate returns the id of a vertex within tolerance of p, or -1.
func (tr *Triangulation) Locate(p r2.Point) int {
	loc := tr.locate(p)
	if loc.kind != onVertex {
		return -1
	}
	return loc.v
}

// insertAt creates a vertex at p inside the located triangle or edge and
// legalizes the new triangles.
func (tr *Triangulation) insertAt(loc location, p r2.Point) int {
	id := len(tr.pts)
	tr.pts = append(tr.pts, p)
	tr.vtri = append(tr.vtri, loc.t)

	var created []int
	if loc.kind == onEdge {
		created = tr.splitEdge(loc.t, loc.k, id)
	} else {
		created = tr.splitTriangle(loc.t, id)
	}
	tr.legalize(id, created)
	return id
}

// locate finds the triangle, edge or vertex holding p by a directed walk
// from the last touched triangle.
func (tr *Triangulation) locate(p r2.Point) location {
	t := tr.last
	if t < 0 || t >= len(tr.tris) {
		t = 0
	}
	tr.stats.Walks++
	maxSteps := 4*len(tr.tris) + 16
	rot := 0
	for range maxSteps {
		tri := &tr.tris[t]
		moved := false
		for i := range 3 {
			k := (i + rot) % 3
			a, b := tr.pts[tri.v[(k+1)%3]], tr.pts[tri.v[(k+2)%3]]
			if orient(a, b, p) < 0 {
				if tri.n[k] < 0 {
					return location{kind: outside, t: -1}
				}
				t = tri.n[k]
				moved = true
				break
			}
		}
		if !moved {
			return tr.refine(t, p)
		}
		rot = (rot + 1) % 3
	}
	return tr.scan(p)
}

// scan finds the triangle containing p by testing every triangle. Used
// when the walk does not terminate on nearly degenerate input.
func (tr *Triangulation) scan(p r2.Point) location {
	tr.stats.Scans++
	best, bestDist := -1, math.Inf(-1)
	for t := range tr.tris {
		tri := &tr.tris[t]
		if tri.dead {
			continue
		}
		d := math.Inf(1)
		for k := range 3 {
			a, b := tr.pts[tri.v[(k+1)%3]], tr.pts[tri.v[(k+2)%3]]
			l := b.Sub(a).Norm()
			if l == 0 {
				continue
			}
			d = math.Min(d, orient(a, b, p)/l)
		}
		if d > bestDist {
			best, bestDist = t, d
		}
	}
	if best < 0 || bestDist < -tr.tol {
		return location{kind: outside, t: -1}
	}
	return tr.refine(best, p)
}

// refine classifies p within triangle t as a vertex hit, an edge hit or
// an interior point.
func (tr *Triangulation) refine(t int, p r2.Point) location {
	tri := &tr.tris[t]
	tol2 := tr.tol * tr.tol
	for _, v := range tri.v {
		if sq(tr.pts[v].Sub(p)) <= tol2 {
			return location{kind: onVertex, t: t, v: v}
		}
	}
	for _, n := range tri.n {
		if n < 0 {
			continue
		}
		nt := &tr.tris[n]
		if j := nt.neighborIndex(t); j >= 0 {
			if v := nt.v[j]; sq(tr.pts[v].Sub(p)) <= tol2 {
				return location{kind: onVertex, t: t, v: v}
			}
		}
	}
	for k := range 3 {
		a, b := tr.pts[tri.v[(k+1)%3]], tr.pts[tri.v[(k+2)%3]]
		if distToLine(p, a, b) <= tr.tol && projectsInside(p, a, b) {
			return location{kind: onEdge, t: t, k: k}
		}
	}
	return location{kind: inTriangle, t: t}
}

// splitTriangle replaces t by three triangles fanning around vertex p.
func (tr *Triangulation) splitTriangle(t, p int) []int {
	T := tr.tris[t]
	v0, v1, v2 := T.v[0], T.v[1], T.v[2]
	n0, n1, n2 := T.n[0], T.n[1], T.n[2]
	t1, t2 := len(tr.tris), len(tr.tris)+1

	tr.tris[t] = triangle{
		v: [3]int{p, v1, v2}, n: [3]int{n0, t1, t2},
		c: [3]bool{T.c[0], false, false}, inside: T.inside, invalid: T.invalid,
	}
	tr.tris = append(tr.tris,
		triangle{
			v: [3]int{p, v2, v0}, n: [3]int{n1, t2, t},
			c: [3]bool{T.c[1], false, false}, inside: T.inside, invalid: T.invalid,
		},
		triangle{
			v: [3]int{p, v0, v1}, n: [3]int{n2, t, t1},
			c: [3]bool{T.c[2], false, false}, inside: T.inside, invalid: T.invalid,
		},
	)
	tr.replaceNeighbor(n1, t, t1)
	tr.replaceNeighbor(n2, t, t2)
	tr.touch(t, t1, t2)
	return []int{t, t1, t2}
}

// splitEdge inserts vertex p on edge k of t, splitting t and the triangle
// across the edge. A constrained edge stays constrained on both halves.
func (tr *Triangulation) splitEdge(t, k, p int) []int {
	T := tr.tris[t]
	a, b, c := T.v[k], T.v[(k+1)%3], T.v[(k+2)%3]
	nCA, cCA := T.n[(k+1)%3], T.c[(k+1)%3]
	nAB, cAB := T.n[(k+2)%3], T.c[(k+2)%3]
	cBC := T.c[k]
	u := T.n[k]

	t1 := len(tr.tris)
	if u < 0 {
		tr.tris[t] = triangle{
			v: [3]int{a, b, p}, n: [3]int{-1, t1, nAB},
			c: [3]bool{cBC, false, cAB}, inside: T.inside, invalid: T.invalid,
		}
		tr.tris = append(tr.tris, triangle{
			v: [3]int{a, p, c}, n: [3]int{-1, nCA, t},
			c: [3]bool{cBC, cCA, false}, inside: T.inside, invalid: T.invalid,
		})
		tr.replaceNeighbor(nCA, t, t1)
		tr.touch(t, t1)
		return []int{t, t1}
	}

	U := tr.tris[u]
	j := U.neighborIndex(t)
	d := U.v[j]
	nBD, cBD := U.n[(j+1)%3], U.c[(j+1)%3]
	nDC, cDC := U.n[(j+2)%3], U.c[(j+2)%3]
	u1 := t1 + 1

	tr.tris[t] = triangle{
		v: [3]int{a, b, p}, n: [3]int{u1, t1, nAB},
		c: [3]bool{cBC, false, cAB}, inside: T.inside, invalid: T.invalid,
	}
	tr.tris[u] = triangle{
		v: [3]int{d, c, p}, n: [3]int{t1, u1, nDC},
		c: [3]bool{cBC, false, cDC}, inside: U.inside, invalid: U.invalid,
	}
	tr.tris = append(tr.tris,
		triangle{
			v: [3]int{a, p, c}, n: [3]int{u, nCA, t},
			c: [3]bool{cBC, cCA, false}, inside: T.inside, invalid: T.invalid,
		},
		triangle{
			v: [3]int{d, p, b}, n: [3]int{t, nBD, u},
			c: [3]bool{cBC, cBD, false}, inside: U.inside, invalid: U.invalid,
		},
	)
	tr.replaceNeighbor(nCA, t, t1)
	tr.replaceNeighbor(nBD, u, u1)
	tr.touch(t, t1, u, u1)
	return []int{t, t1, u, u1}
}

// flip replaces the diagonal shared by t and its neighbor across edge k.
// Afterwards t and the neighbor both keep t's corner k.
func (tr *Triangulation) flip(t, k int) int {
	T := tr.tris[t]
	u := T.n[k]
	U := tr.tris[u]
	a, b, c := T.v[k], T.v[(k+1)%3], T.v[(k+2)%3]
	nCA, cCA := T.n[(k+1)%3], T.c[(k+1)%3]
	nAB, cAB := T.n[(k+2)%3], T.c[(k+2)%3]
	j := U.neighborIndex(t)
	d := U.v[j]
	nBD, cBD := U.n[(j+1)%3], U.c[(j+1)%3]
	nDC, cDC := U.n[(j+2)%3], U.c[(j+2)%3]

	tr.tris[t] = triangle{
		v: [3]int{a, b, d}, n: [3]int{nBD, u, nAB},
		c: [3]bool{cBD, false, cAB}, inside: T.inside, invalid: T.invalid,
	}
	tr.tris[u] = triangle{
		v: [3]int{a, d, c}, n: [3]int{nDC, nCA, t},
		c: [3]bool{cDC, cCA, false}, inside: U.inside, invalid: U.invalid,
	}
	tr.replaceNeighbor(nBD, u, t)
	tr.replaceNeighbor(nCA, t, u)
	tr.touch(t, u)
	tr.stats.Flips++
	return u
}

// flippable reports whether the edge k of t may be flipped: it is shared,
// unconstrained, separates triangles of the same class and borders a
// strictly convex quadrilateral.
func (tr *Triangulation) flippable(t, k int) bool {
	T := &tr.tris[t]
	u := T.n[k]
	if u < 0 || T.c[k] {
		return false
	}
	U := &tr.tris[u]
	if U.inside != T.inside || U.invalid != T.invalid {
		return false
	}
	d := U.v[U.neighborIndex(t)]
	pa, pb, pc, pd := tr.pts[T.v[k]], tr.pts[T.v[(k+1)%3]], tr.pts[T.v[(k+2)%3]], tr.pts[d]
	return orient(pa, pb, pd) > 0 && orient(pa, pd, pc) > 0
}

// legalize flips edges opposite p until every triangle around p satisfies
// the empty circumcircle test.
func (tr *Triangulation) legalize(p int, stack []int) {
	limit := 64*len(tr.tris) + 1024
	for n := 0; len(stack) > 0 && n < limit; n++ {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		k := tr.tris[t].index(p)
		if k < 0 || !tr.flippable(t, k) {
			continue
		}
		if !tr.shouldFlip(t, k) {
			continue
		}
		u := tr.flip(t, k)
		stack = append(stack, t, u)
	}
}

// shouldFlip applies the circumcircle test to edge k of t. Co-circular
// quadrilaterals are flipped only when the smallest angle improves.
func (tr *Triangulation) shouldFlip(t, k int) bool {
	T := &tr.tris[t]
	U := &tr.tris[T.n[k]]
	d := U.v[U.neighborIndex(t)]
	pa, pb, pc, pd := tr.pts[T.v[k]], tr.pts[T.v[(k+1)%3]], tr.pts[T.v[(k+2)%3]], tr.pts[d]
	det, bound := inCircle(tr.pts[T.v[0]], tr.pts[T.v[1]], tr.pts[T.v[2]], pd)
	if det > bound {
		return true
	}
	if det < -bound {
		return false
	}
	before := math.Min(minAngle(pa, pb, pc), minAngle(pd, pc, pb))
	after := math.Min(minAngle(pa, pb, pd), minAngle(pa, pd, pc))
	return after > before*(1+1e-9)
}
