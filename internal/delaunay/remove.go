package delaunay

import "fmt"

// RemoveVertex deletes vertex id and retriangulates the hole it leaves.
// Incident edges are flipped away until three triangles remain, which are
// merged into one; the surrounding edges are then made Delaunay again.
// Only vertices strictly inside one class of triangles, away from
// constrained edges and the super-triangle, can be removed.
func (tr *Triangulation) RemoveVertex(id int) error {
	if id < SuperVertices || id >= len(tr.pts) || tr.vtri[id] < 0 {
		return fmt.Errorf("%w: %d", ErrBadVertex, id)
	}
	fan, ok := tr.removableFan(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotRemovable, id)
	}
	var created [][2]int
	for len(fan) > 3 {
		flipped := false
		for _, t := range fan {
			// Edge e of t runs from id to the next neighbor.
			e := (tr.tris[t].index(id) + 2) % 3
			if !tr.flippable(t, e) {
				continue
			}
			tr.flip(t, e)
			created = append(created, [2]int{tr.tris[t].v[0], tr.tris[t].v[2]})
			flipped = true
			break
		}
		if !flipped {
			tr.restore(created)
			return fmt.Errorf("%w: %d has no flippable edge", ErrNotRemovable, id)
		}
		fan, _ = tr.removableFan(id)
	}
	link := tr.merge(id, fan)
	tr.restore(append(link, created...))
	tr.stats.Removed++
	return nil
}

// removableFan returns the triangles around id when id can be removed.
func (tr *Triangulation) removableFan(id int) ([]int, bool) {
	var fan []int
	ok := true
	first := -1
	tr.star(id, func(t, k int) bool {
		tri := &tr.tris[t]
		if first < 0 {
			first = t
		}
		a, b := (k+1)%3, (k+2)%3
		switch {
		case tri.n[a] < 0 || tri.n[b] < 0,
			tri.c[a] || tri.c[b],
			IsSuper(tri.v[a]) || IsSuper(tri.v[b]),
			tri.inside != tr.tris[first].inside || tri.invalid != tr.tris[first].invalid:
			ok = false
			return false
		}
		fan = append(fan, t)
		return true
	})
	return fan, ok && len(fan) >= 3
}

// merge replaces the three triangles around id by the triangle of their
// outer edges and returns those edges.
func (tr *Triangulation) merge(id int, fan []int) [][2]int {
	t0 := fan[0]
	T0 := tr.tris[t0]
	k0 := T0.index(id)
	x, y := T0.v[(k0+1)%3], T0.v[(k0+2)%3]
	w := -1
	for _, t := range fan[1:] {
		for _, v := range tr.tris[t].v {
			if v != id && v != x && v != y {
				w = v
			}
		}
	}
	m := triangle{v: [3]int{x, y, w}, n: [3]int{-1, -1, -1}, inside: T0.inside, invalid: T0.invalid}
	for _, t := range fan {
		T := &tr.tris[t]
		k := T.index(id)
		a, b := T.v[(k+1)%3], T.v[(k+2)%3]
		for j := range 3 {
			if m.v[(j+1)%3] == a && m.v[(j+2)%3] == b {
				m.n[j], m.c[j] = T.n[k], T.c[k]
			}
		}
	}
	for _, t := range fan[1:] {
		T := &tr.tris[t]
		tr.replaceNeighbor(T.n[T.index(id)], t, t0)
	}
	tr.tris[t0] = m
	for _, t := range fan[1:] {
		tr.tris[t] = triangle{n: [3]int{-1, -1, -1}, invalid: true, dead: true}
	}
	tr.vtri[id] = -1
	tr.touch(t0)
	return [][2]int{{x, y}, {y, w}, {w, x}}
}
