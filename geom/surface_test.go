package geom

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSurfaces(t *testing.T) map[string]Surface {
	t.Helper()
	frame := NewFrame(r3.Vector{X: 1, Y: -2, Z: 0.5}, r3.Vector{X: 0.2, Y: 0.1, Z: 1}, r3.Vector{X: 1})
	bez, err := NewBezierSurface([][]r3.Vector{
		{{X: 0, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0.5}, {X: 0, Y: 2, Z: 0}},
		{{X: 1, Y: 0, Z: 0.3}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 2, Z: 0.2}},
		{{X: 2, Y: 0, Z: 0}, {X: 2, Y: 1, Z: -0.4}, {X: 2, Y: 2, Z: 0}},
	})
	require.NoError(t, err)
	return map[string]Surface{
		"plane":    &Plane{Frame: frame},
		"cylinder": NewCylinder(frame, 2),
		"cone":     NewCone(frame, 1.5, 0.3),
		"sphere":   NewSphere(frame, 3),
		"torus":    NewTorus(frame, 4, 1),
		"bezier":   bez,
	}
}

func TestSurfaceD1MatchesFiniteDifferences(t *testing.T) {
	const h = 1e-6
	samples := []r2.Point{{X: 0.3, Y: 0.2}, {X: 0.7, Y: 0.9}, {X: 0.1, Y: 0.5}}

	for name, s := range testSurfaces(t) {
		t.Run(name, func(t *testing.T) {
			for _, uv := range samples {
				p, du, dv := s.D1(uv)
				assert.InDelta(t, 0, p.Sub(s.Value(uv)).Norm(), 1e-12)

				fu := s.Value(r2.Point{X: uv.X + h, Y: uv.Y}).Sub(s.Value(r2.Point{X: uv.X - h, Y: uv.Y})).Mul(1 / (2 * h))
				fv := s.Value(r2.Point{X: uv.X, Y: uv.Y + h}).Sub(s.Value(r2.Point{X: uv.X, Y: uv.Y - h})).Mul(1 / (2 * h))
				assert.InDelta(t, 0, du.Sub(fu).Norm(), 1e-5, "du at %v", uv)
				assert.InDelta(t, 0, dv.Sub(fv).Norm(), 1e-5, "dv at %v", uv)
			}
		})
	}
}

func TestAnalyticNormalAgreesWithDerivatives(t *testing.T) {
	uv := r2.Point{X: 0.4, Y: 0.3}
	for name, s := range testSurfaces(t) {
		ne, ok := s.(NormalEvaluator)
		if !ok {
			continue
		}
		t.Run(name, func(t *testing.T) {
			n, ok := ne.Normal(uv)
			require.True(t, ok)
			_, du, dv := s.D1(uv)
			cross := du.Cross(dv).Normalize()
			assert.InDelta(t, 1, n.Dot(cross), 1e-9)
		})
	}
}

func TestSurfaceNormalFallsBackToDerivatives(t *testing.T) {
	s := testSurfaces(t)["bezier"]
	_, isAnalytic := s.(NormalEvaluator)
	require.False(t, isAnalytic)

	n, ok := SurfaceNormal(s, r2.Point{X: 0.5, Y: 0.5})
	require.True(t, ok)
	assert.InDelta(t, 1, n.Norm(), 1e-12)
}

func TestConeApexHasNoNormal(t *testing.T) {
	c := NewCone(StandardFrame(), 1, math.Pi/4)
	apex := -1 / math.Sin(math.Pi/4)
	_, ok := c.Normal(r2.Point{X: 0, Y: apex})
	assert.False(t, ok)
}

func TestSpherePointsOnRadius(t *testing.T) {
	s := NewSphere(StandardFrame(), 2.5)
	for u := 0.0; u < 2*math.Pi; u += 0.37 {
		for v := -math.Pi / 2; v <= math.Pi/2; v += 0.29 {
			assert.InDelta(t, 2.5, s.Value(r2.Point{X: u, Y: v}).Norm(), 1e-12)
		}
	}
}

func TestBernsteinPartitionOfUnity(t *testing.T) {
	for n := 1; n <= 5; n++ {
		b, db := bernstein(n, 0.37)
		var sum, dsum float64
		for i := range b {
			sum += b[i]
			dsum += db[i]
		}
		assert.InDelta(t, 1, sum, 1e-12, "degree %d", n)
		assert.InDelta(t, 0, dsum, 1e-12, "degree %d", n)
	}
}

func TestNewBezierSurfaceRejectsRaggedNet(t *testing.T) {
	_, err := NewBezierSurface([][]r3.Vector{{{}, {}}, {{}}})
	assert.ErrorIs(t, err, ErrBadControlNet)
}

func TestCurvesShareParameterWithPCurves(t *testing.T) {
	cyl := NewCylinder(StandardFrame(), 1)
	circle := NewCircle3D(StandardFrame(), 1)
	pcurve := NewIsoLine2D(r2.Point{}, r2.Point{X: 1}, circle.Bounds())

	for _, tt := range []float64{0, 1, 2.5, 5} {
		got := cyl.Value(pcurve.Value(tt))
		want := circle.Value(tt)
		assert.InDelta(t, 0, got.Sub(want).Norm(), 1e-12)
	}
}
