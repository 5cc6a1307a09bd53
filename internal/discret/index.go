package discret

import (
	"math"

	"github.com/golang/geo/r2"
)

// maxCells bounds the cells of a segment index along one axis.
const maxCells = 256

type segment struct{ a, b r2.Point }

// SegmentIndex buckets the boundary segments of a face on a uniform UV
// grid to answer proximity and crossing queries.
type SegmentIndex struct {
	origin r2.Point
	cell   float64
	nx, ny int
	cells  [][]int
	segs   []segment
}

// NewSegmentIndex indexes every segment of loops over domain.
func NewSegmentIndex(loops []Polyline, domain r2.Rect) *SegmentIndex {
	size := math.Max(domain.X.Length(), domain.Y.Length())
	idx := &SegmentIndex{
		origin: domain.Lo(),
		cell:   size / maxCells,
	}
	if !(idx.cell > 0) {
		idx.cell = 1
	}
	idx.nx = int(domain.X.Length()/idx.cell) + 1
	idx.ny = int(domain.Y.Length()/idx.cell) + 1
	idx.cells = make([][]int, idx.nx*idx.ny)
	for _, l := range loops {
		n := len(l.Nodes)
		for i := range n {
			s := segment{l.Nodes[i].UV, l.Nodes[(i+1)%n].UV}
			id := len(idx.segs)
			idx.segs = append(idx.segs, s)
			idx.visit(s.bounds(), func(c int) bool {
				idx.cells[c] = append(idx.cells[c], id)
				return true
			})
		}
	}
	return idx
}

// Len returns the number of indexed segments.
func (idx *SegmentIndex) Len() int { return len(idx.segs) }

// Near reports whether a segment lies within d of p.
func (idx *SegmentIndex) Near(p r2.Point, d float64) bool {
	r := r2.RectFromCenterSize(p, r2.Point{X: 2 * d, Y: 2 * d})
	d2 := d * d
	found := false
	idx.visit(r, func(c int) bool {
		for _, id := range idx.cells[c] {
			if dist2(p, idx.segs[id]) <= d2 {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// Crossing reports whether two segments without a shared endpoint cross
// at a single interior point.
func (idx *SegmentIndex) Crossing() bool {
	for i, s := range idx.segs {
		found := false
		idx.visit(s.bounds(), func(c int) bool {
			for _, j := range idx.cells[c] {
				if j <= i {
					continue
				}
				t := idx.segs[j]
				if s.a == t.a || s.a == t.b || s.b == t.a || s.b == t.b {
					continue
				}
				if properCross(s.a, s.b, t.a, t.b) {
					found = true
					return false
				}
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}

// visit calls fn for every cell overlapping r until fn returns false.
func (idx *SegmentIndex) visit(r r2.Rect, fn func(cell int) bool) {
	x0, y0 := idx.coords(r.Lo())
	x1, y1 := idx.coords(r.Hi())
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if !fn(y*idx.nx + x) {
				return
			}
		}
	}
}

// coords returns the clamped cell of p.
func (idx *SegmentIndex) coords(p r2.Point) (int, int) {
	x := int((p.X - idx.origin.X) / idx.cell)
	y := int((p.Y - idx.origin.Y) / idx.cell)
	return min(max(x, 0), idx.nx-1), min(max(y, 0), idx.ny-1)
}

func (s segment) bounds() r2.Rect {
	return r2.RectFromPoints(s.a, s.b)
}

func dist2(p r2.Point, s segment) float64 {
	ab := s.b.Sub(s.a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		d := p.Sub(s.a)
		return d.Dot(d)
	}
	t := math.Max(0, math.Min(1, p.Sub(s.a).Dot(ab)/l2))
	d := p.Sub(s.a.Add(ab.Mul(t)))
	return d.Dot(d)
}
