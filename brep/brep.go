// Package brep holds the minimal boundary representation consumed by the
// mesher: faces bounded by wires of oriented edges.
//
// Building and validating topology is the job of the modelling layer; this
// package only carries the data and walks nested compounds.
package brep

import (
	"sync/atomic"

	"github.com/golang/geo/r3"

	"github.com/gogpu/surfmesh/geom"
)

// DefaultTolerance is the geometric tolerance of vertices and edges that
// do not carry their own.
const DefaultTolerance = 1e-7

var lastID atomic.Uint64

// NextID returns a process-unique shape identity. Face identities key the
// triangulation cache, so callers that build faces by hand should use it.
func NextID() uint64 {
	return lastID.Add(1)
}

// Vertex is a topological vertex shared by the edges that meet there.
type Vertex struct {
	Point     r3.Vector
	Tolerance float64
}

// NewVertex returns a vertex with the default tolerance.
func NewVertex(p r3.Vector) *Vertex {
	return &Vertex{Point: p, Tolerance: DefaultTolerance}
}

// Tol returns the vertex tolerance, falling back to DefaultTolerance.
func (v *Vertex) Tol() float64 {
	if v == nil || v.Tolerance <= 0 {
		return DefaultTolerance
	}
	return v.Tolerance
}

// Edge is a bounded curve shared by up to two faces. Degenerated edges
// collapse to a single point in space (sphere poles, cone apex); their
// geometry lives only in the pcurves.
type Edge struct {
	ID          uint64
	Curve       geom.Curve3D
	V0, V1      *Vertex
	Tolerance   float64
	Degenerated bool
}

// Tol returns the edge tolerance, falling back to DefaultTolerance.
func (e *Edge) Tol() float64 {
	if e.Tolerance <= 0 {
		return DefaultTolerance
	}
	return e.Tolerance
}

// CoEdge is the use of an edge by one face. PCurve shares the parameter
// of Edge.Curve. Reversed coedges traverse the edge from V1 to V0.
type CoEdge struct {
	Edge     *Edge
	PCurve   geom.Curve2D
	Reversed bool
}

// Wire is a closed chain of coedges. The first wire of a face is the outer
// boundary (counter-clockwise in UV), the others are holes (clockwise).
type Wire struct {
	CoEdges []CoEdge
}

// Face is a bounded region of a surface.
type Face struct {
	ID       uint64
	Surface  geom.Surface
	Wires    []Wire
	Reversed bool
}

// Shape is a compound of faces and nested shapes.
type Shape struct {
	ID       uint64
	Faces    []*Face
	Children []*Shape
}

// Compound groups shapes under a new identity.
func Compound(children ...*Shape) *Shape {
	return &Shape{ID: NextID(), Children: children}
}

// AllFaces returns every face of s and its descendants in depth-first
// order, each face once. Nesting is walked with an explicit stack so deep
// assemblies cannot exhaust the goroutine stack; shared sub-shapes and
// cycles are visited once.
func (s *Shape) AllFaces() []*Face {
	if s == nil {
		return nil
	}
	var faces []*Face
	seenShape := make(map[*Shape]bool)
	seenFace := make(map[*Face]bool)
	stack := []*Shape{s}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == nil || seenShape[cur] {
			continue
		}
		seenShape[cur] = true
		for _, f := range cur.Faces {
			if f != nil && !seenFace[f] {
				seenFace[f] = true
				faces = append(faces, f)
			}
		}
		// Push in reverse so children are visited in declaration order.
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return faces
}

// AllEdges returns the distinct non-degenerated edges used by faces, in
// order of first use.
func AllEdges(faces []*Face) []*Edge {
	var edges []*Edge
	seen := make(map[*Edge]bool)
	for _, f := range faces {
		for _, w := range f.Wires {
			for _, ce := range w.CoEdges {
				e := ce.Edge
				if e == nil || e.Degenerated || seen[e] {
					continue
				}
				seen[e] = true
				edges = append(edges, e)
			}
		}
	}
	return edges
}
