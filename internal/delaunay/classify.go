package delaunay

// Classify marks the triangles inside the face. Starting from the
// triangles touching the super vertices, which are outside, every crossing
// of a constrained edge toggles between outside and inside. Holes bounded
// by inner wires come out as outside.
func (tr *Triangulation) Classify() {
	level := make([]int, len(tr.tris))
	for i := range level {
		level[i] = -1
	}
	// 0-1 breadth first search: crossing a constraint costs one level.
	deque := make([]int, 0, len(tr.tris))
	for t := range tr.tris {
		v := tr.tris[t].v
		if IsSuper(v[0]) || IsSuper(v[1]) || IsSuper(v[2]) {
			level[t] = 0
			deque = append(deque, t)
		}
	}
	var back []int
	for len(deque) > 0 || len(back) > 0 {
		if len(deque) == 0 {
			deque, back = back, deque[:0]
		}
		t := deque[0]
		deque = deque[1:]
		tri := &tr.tris[t]
		for k, n := range tri.n {
			if n < 0 {
				continue
			}
			w := level[t]
			if tri.c[k] {
				w++
			}
			if level[n] >= 0 && level[n] <= w {
				continue
			}
			level[n] = w
			if w == level[t] {
				deque = append(deque, n)
			} else {
				back = append(back, n)
			}
		}
	}
	for t := range tr.tris {
		tr.tris[t].inside = level[t]%2 == 1
	}
	tr.classified = true
}

// Classified reports whether Classify has run.
func (tr *Triangulation) Classified() bool { return tr.classified }
