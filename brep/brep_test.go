package brep

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/surfmesh/geom"
)

func TestAllFacesWalksNestedCompoundsOnce(t *testing.T) {
	a := NewRectangle(geom.StandardFrame(), 1, 1)
	b := NewDisc(geom.StandardFrame(), 1)
	leaf := Single(a, b)
	shared := Single(b)

	// Deep nesting must not recurse.
	deep := leaf
	for range 10000 {
		deep = Compound(deep)
	}
	root := Compound(deep, shared, leaf)

	faces := root.AllFaces()
	require.Len(t, faces, 2)
	assert.Same(t, a, faces[0])
	assert.Same(t, b, faces[1])
}

func TestAllFacesNil(t *testing.T) {
	var s *Shape
	assert.Nil(t, s.AllFaces())
}

func TestCylinderSharesCapEdges(t *testing.T) {
	shape := NewCylinder(geom.StandardFrame(), 2, 3)
	require.Len(t, shape.Faces, 3)

	edges := AllEdges(shape.Faces)
	// bottom circle, seam, top circle
	assert.Len(t, edges, 3)

	uses := make(map[*Edge]int)
	for _, f := range shape.Faces {
		for _, w := range f.Wires {
			for _, ce := range w.CoEdges {
				uses[ce.Edge]++
			}
		}
	}
	for _, e := range edges {
		assert.Equal(t, 2, uses[e])
	}
}

func TestCoEdgePCurvesMatchEdgeCurves(t *testing.T) {
	faces := append(NewCylinder(geom.StandardFrame(), 1.5, 2).Faces,
		NewConeFace(geom.StandardFrame(), 1, 0.4, 0, 2),
		NewTorusFace(geom.StandardFrame(), 3, 1),
		NewSphereFace(geom.StandardFrame(), 2),
	)
	for _, f := range faces {
		for _, w := range f.Wires {
			for _, ce := range w.CoEdges {
				if ce.Edge.Degenerated {
					continue
				}
				rng := ce.Edge.Curve.Bounds()
				for _, s := range []float64{0, 0.25, 0.5, 1} {
					tt := rng.Lo + s*rng.Length()
					onSurface := f.Surface.Value(ce.PCurve.Value(tt))
					assert.InDelta(t, 0, onSurface.Sub(ce.Edge.Curve.Value(tt)).Norm(), 1e-9,
						"face %s edge %d at %v", f.Surface.Kind(), ce.Edge.ID, tt)
				}
			}
		}
	}
}

func TestSpherePolesAreDegenerated(t *testing.T) {
	f := NewSphereFace(geom.StandardFrame(), 1)
	var poles int
	for _, ce := range f.Wires[0].CoEdges {
		if ce.Edge.Degenerated {
			poles++
			assert.InDelta(t, 1, math.Abs(ce.Edge.V0.Point.Z), 1e-12)
		}
	}
	assert.Equal(t, 2, poles)
	assert.Len(t, AllEdges([]*Face{f}), 1)
}

func TestToleranceFallback(t *testing.T) {
	var v *Vertex
	assert.Equal(t, DefaultTolerance, v.Tol())
	assert.Equal(t, 0.5, (&Vertex{Point: r3.Vector{}, Tolerance: 0.5}).Tol())
	assert.Equal(t, DefaultTolerance, (&Edge{}).Tol())
}
