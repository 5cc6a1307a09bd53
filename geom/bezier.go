package geom

import (
	"errors"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// ErrBadControlNet is returned for an empty or ragged control net.
var ErrBadControlNet = errors.New("geom: control net must be a non-empty rectangular grid")

// BezierSurface is a tensor-product Bézier patch over [0,1]×[0,1].
// Poles[i][j] is the control point at u-index i and v-index j.
type BezierSurface struct {
	Poles [][]r3.Vector
}

// NewBezierSurface validates the control net and returns the patch.
func NewBezierSurface(poles [][]r3.Vector) (*BezierSurface, error) {
	if len(poles) < 2 || len(poles[0]) < 2 {
		return nil, ErrBadControlNet
	}
	for _, row := range poles {
		if len(row) != len(poles[0]) {
			return nil, ErrBadControlNet
		}
	}
	return &BezierSurface{Poles: poles}, nil
}

func (*BezierSurface) Kind() Kind             { return KindGeneral }
func (*BezierSurface) Continuity() Continuity { return CN }

func (*BezierSurface) Bounds() r2.Rect {
	unit := r1.Interval{Lo: 0, Hi: 1}
	return r2.Rect{X: unit, Y: unit}
}

// Degree returns the polynomial degrees along u and v.
func (s *BezierSurface) Degree() (du, dv int) {
	return len(s.Poles) - 1, len(s.Poles[0]) - 1
}

func (s *BezierSurface) Value(uv r2.Point) r3.Vector {
	p, _, _ := s.D1(uv)
	return p
}

func (s *BezierSurface) D1(uv r2.Point) (p, du, dv r3.Vector) {
	n, m := s.Degree()
	bu, dbu := bernstein(n, uv.X)
	bv, dbv := bernstein(m, uv.Y)
	for i, row := range s.Poles {
		for j, pole := range row {
			p = p.Add(pole.Mul(bu[i] * bv[j]))
			du = du.Add(pole.Mul(dbu[i] * bv[j]))
			dv = dv.Add(pole.Mul(bu[i] * dbv[j]))
		}
	}
	return p, du, dv
}

// bernstein returns the degree-n Bernstein basis at t and its derivative.
func bernstein(n int, t float64) (b, db []float64) {
	b = make([]float64, n+1)
	db = make([]float64, n+1)
	// lower holds the degree n-1 basis for the derivative.
	lower := make([]float64, n)
	b[0] = 1
	s := 1 - t
	for k := 1; k <= n; k++ {
		if k == n {
			copy(lower, b[:n])
		}
		saved := 0.0
		for i := 0; i < k; i++ {
			tmp := b[i]
			b[i] = saved + s*tmp
			saved = t * tmp
		}
		b[k] = saved
	}
	if n == 0 {
		return b, db
	}
	for i := 0; i <= n; i++ {
		var left, right float64
		if i > 0 {
			left = lower[i-1]
		}
		if i < n {
			right = lower[i]
		}
		db[i] = float64(n) * (left - right)
	}
	return b, db
}
