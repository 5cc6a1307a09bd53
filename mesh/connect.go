package mesh

import (
	"github.com/golang/geo/r3"
)

// PolyConnect is the read-only adjacency of a finalized triangulation:
// node → incident triangles and triangle → neighbour across each edge.
//
// Incident triangles are stored in compressed rows: the triangles of node
// n are incident[offsets[n]:offsets[n+1]], in increasing triangle order.
type PolyConnect struct {
	offsets   []int32
	incident  []int32
	neighbors [][3]int32
}

// NewPolyConnect builds the adjacency of t in one pass over its triangles.
func NewPolyConnect(t *Triangulation) *PolyConnect {
	n := len(t.Nodes)
	c := &PolyConnect{
		offsets:   make([]int32, n+1),
		incident:  make([]int32, 3*len(t.Triangles)),
		neighbors: make([][3]int32, len(t.Triangles)),
	}

	for _, tr := range t.Triangles {
		for _, v := range tr {
			c.offsets[v+1]++
		}
	}
	for i := 1; i <= n; i++ {
		c.offsets[i] += c.offsets[i-1]
	}
	fill := make([]int32, n)
	copy(fill, c.offsets[:n])

	type edgeKey [2]int32
	owner := make(map[edgeKey]int32, 3*len(t.Triangles)/2)
	for ti, tr := range t.Triangles {
		c.neighbors[ti] = [3]int32{-1, -1, -1}
		for k, v := range tr {
			c.incident[fill[v]] = int32(ti)
			fill[v]++

			// Edge k is opposite corner k.
			a, b := int32(tr[(k+1)%3]), int32(tr[(k+2)%3])
			if a > b {
				a, b = b, a
			}
			key := edgeKey{a, b}
			if other, ok := owner[key]; ok {
				c.neighbors[ti][k] = other
				ot := t.Triangles[other]
				for j := range 3 {
					oa, ob := int32(ot[(j+1)%3]), int32(ot[(j+2)%3])
					if (oa == a && ob == b) || (oa == b && ob == a) {
						c.neighbors[other][j] = int32(ti)
					}
				}
				delete(owner, key)
			} else {
				owner[key] = int32(ti)
			}
		}
	}
	return c
}

// Triangles returns the triangles incident to node. The slice aliases the
// adjacency and must not be modified.
func (c *PolyConnect) Triangles(node int) []int32 {
	return c.incident[c.offsets[node]:c.offsets[node+1]]
}

// Neighbors returns, for each corner k of triangle tri, the triangle across
// the edge opposite k, or -1 on a free edge.
func (c *PolyConnect) Neighbors(tri int) [3]int32 {
	return c.neighbors[tri]
}

// FreeEdges returns the edges used by exactly one triangle, oriented as in
// that triangle, in triangle order.
func (c *PolyConnect) FreeEdges(t *Triangulation) [][2]int {
	var out [][2]int
	for ti, tr := range t.Triangles {
		for k := range 3 {
			if c.neighbors[ti][k] < 0 {
				out = append(out, [2]int{tr[(k+1)%3], tr[(k+2)%3]})
			}
		}
	}
	return out
}

// NormalFunc returns the analytic unit normal at a node, or false where the
// surface has none.
type NormalFunc func(node int) (r3.Vector, bool)

// NormalBuilder computes per-node normals of a triangulation.
type NormalBuilder struct {
	// Analytic supplies surface normals. When set, averaging only runs for
	// nodes where it reports false.
	Analytic NormalFunc

	// Tolerances holds the local tolerance of each node. Incident triangles
	// whose area is below the square of the node tolerance are degenerate
	// and excluded from averaging. Nil means a zero tolerance.
	Tolerances []float64
}

// Build returns unit normals parallel to t.Nodes. Nodes without a usable
// incident triangle get the zero vector.
func (b NormalBuilder) Build(t *Triangulation, conn *PolyConnect) []r3.Vector {
	normals := make([]r3.Vector, len(t.Nodes))
	var facets []r3.Vector

	for v := range t.Nodes {
		if b.Analytic != nil {
			if n, ok := b.Analytic(v); ok {
				normals[v] = n
				continue
			}
		}
		if facets == nil {
			facets = make([]r3.Vector, len(t.Triangles))
			for i := range t.Triangles {
				facets[i] = t.TriangleNormal(i)
			}
		}
		var tol float64
		if b.Tolerances != nil {
			tol = b.Tolerances[v]
		}

		// |facet| is twice the area, so the sum is area-weighted.
		var sum r3.Vector
		for _, ti := range conn.Triangles(v) {
			f := facets[ti]
			if area := f.Norm() / 2; area <= tol*tol || area == 0 {
				continue
			}
			sum = sum.Add(f)
		}
		if sum.Norm2() > 0 {
			normals[v] = sum.Normalize()
		}
	}
	return normals
}
