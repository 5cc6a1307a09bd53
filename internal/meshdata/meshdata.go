// Package meshdata holds the working state of one face while it is being
// meshed: the constrained triangulation, per-vertex data and the state
// machine driving the pipeline.
package meshdata

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/gogpu/surfmesh/brep"
	"github.com/gogpu/surfmesh/geom"
	"github.com/gogpu/surfmesh/internal/delaunay"
	"github.com/gogpu/surfmesh/mesh"
)

// Source tells where a vertex came from.
type Source uint8

const (
	SourceSuper Source = iota
	SourceBoundary
	SourceInterior
	SourceRefined
	SourceSteiner
)

func (s Source) String() string {
	switch s {
	case SourceSuper:
		return "super"
	case SourceBoundary:
		return "boundary"
	case SourceInterior:
		return "interior"
	case SourceRefined:
		return "refined"
	case SourceSteiner:
		return "steiner"
	}
	return fmt.Sprintf("Source(%d)", s)
}

// Vertex is a mesh vertex. Only Normal may change after insertion.
type Vertex struct {
	UV     r2.Point
	Point  r3.Vector
	Source Source
	Tol    float64

	// Edge and T locate boundary vertices on their curve.
	Edge *brep.Edge
	T    float64

	Normal    r3.Vector
	HasNormal bool
}

// Edge is a constrained boundary segment.
type Edge struct {
	A, B        int
	Constrained bool

	// EdgeID, T0 and T1 refer to the originating curve when both ends
	// lie on the same edge; EdgeID is zero otherwise.
	EdgeID uint64
	T0, T1 float64
}

// MeshData is the triangulation of one face under construction. It is
// owned by a single goroutine.
type MeshData struct {
	FaceID  uint64
	Surface geom.Surface

	Tri      *delaunay.Triangulation
	Vertices []Vertex
	Edges    []Edge
	Status   mesh.Status

	state   State
	steiner int // Steiner records already mirrored into Vertices
}

// New returns the mesh data of a face whose UV boundary lies in bounds.
// uvTol is the distance under which UV points coincide.
func New(faceID uint64, s geom.Surface, bounds r2.Rect, uvTol float64) *MeshData {
	m := &MeshData{
		FaceID:  faceID,
		Surface: s,
		Tri:     delaunay.New(bounds, uvTol),
	}
	for id := range delaunay.SuperVertices {
		m.Vertices = append(m.Vertices, Vertex{UV: m.Tri.Vertex(id), Source: SourceSuper})
	}
	return m
}

// State returns the current pipeline state.
func (m *MeshData) State() State { return m.state }

// Advance moves the face to state to.
func (m *MeshData) Advance(to State) error {
	if !CanTransition(m.state, to) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, m.state, to)
	}
	m.state = to
	return nil
}

// Fail flags the face and moves it to Failed.
func (m *MeshData) Fail(flags mesh.Status) {
	m.Status |= flags | mesh.Failure
	if !m.state.Terminal() {
		m.state = Failed
	}
}

// AddBoundary inserts a boundary point with its known 3D position.
func (m *MeshData) AddBoundary(uv r2.Point, p r3.Vector, e *brep.Edge, t, tol float64) (int, delaunay.Outcome) {
	id, out := m.Tri.Insert(uv)
	if out == delaunay.Inserted {
		m.Vertices = append(m.Vertices, Vertex{
			UV: uv, Point: p, Source: SourceBoundary, Tol: tol, Edge: e, T: t,
		})
	}
	return id, out
}

// AddNode inserts a surface point and evaluates its 3D position.
func (m *MeshData) AddNode(uv r2.Point, src Source, tol float64) (int, delaunay.Outcome) {
	id, out := m.Tri.Insert(uv)
	if out == delaunay.Inserted {
		m.Vertices = append(m.Vertices, Vertex{
			UV: uv, Point: m.Surface.Value(uv), Source: src, Tol: tol,
		})
	}
	return id, out
}

// AddNodes inserts a batch of surface points in an order that keeps the
// point location walks short. ids and outcomes follow the order of uvs.
func (m *MeshData) AddNodes(uvs []r2.Point, src Source, tol float64) ([]int, []delaunay.Outcome) {
	ids, outs := m.Tri.AddVertices(uvs)
	m.Vertices = append(m.Vertices, make([]Vertex, m.Tri.NumVertices()-len(m.Vertices))...)
	for i, uv := range uvs {
		if outs[i] == delaunay.Inserted {
			m.Vertices[ids[i]] = Vertex{UV: uv, Point: m.Surface.Value(uv), Source: src, Tol: tol}
		}
	}
	return ids, outs
}

// RemoveNode takes an interior or refined vertex out of the triangulation.
// Boundary and Steiner vertices are kept.
func (m *MeshData) RemoveNode(id int) error {
	if id < 0 || id >= len(m.Vertices) {
		return fmt.Errorf("%w: %d", delaunay.ErrBadVertex, id)
	}
	if src := m.Vertices[id].Source; src != SourceInterior && src != SourceRefined {
		return fmt.Errorf("%w: %s vertex %d", delaunay.ErrNotRemovable, src, id)
	}
	return m.Tri.RemoveVertex(id)
}

// Recover makes the boundary segment a-b a chain of constrained edges and
// records it. Steiner points added on the way get 3D positions from the
// curve when both neighbors lie on the same edge and from the surface
// otherwise.
func (m *MeshData) Recover(a, b int) ([]int, error) {
	chain, err := m.Tri.RecoverEdge(a, b)
	m.syncSteiner()
	for i := 1; i < len(chain); i++ {
		m.Edges = append(m.Edges, m.edge(chain[i-1], chain[i]))
	}
	return chain, err
}

func (m *MeshData) edge(a, b int) Edge {
	e := Edge{A: a, B: b, Constrained: true}
	va, vb := &m.Vertices[a], &m.Vertices[b]
	if va.Edge != nil && va.Edge == vb.Edge {
		e.EdgeID, e.T0, e.T1 = va.Edge.ID, va.T, vb.T
	}
	return e
}

// syncSteiner mirrors new Steiner vertices of the triangulation.
func (m *MeshData) syncSteiner() {
	st := m.Tri.Steiners()
	for _, s := range st[m.steiner:] {
		a, b := &m.Vertices[s.A], &m.Vertices[s.B]
		v := Vertex{
			UV:     m.Tri.Vertex(s.ID),
			Source: SourceSteiner,
			Tol:    math.Max(a.Tol, b.Tol),
		}
		if e := a.Edge; e != nil && e == b.Edge && !e.Degenerated && e.Curve != nil {
			v.Edge = e
			v.T = a.T + s.T*(b.T-a.T)
			v.Point = e.Curve.Value(v.T)
		} else {
			v.Point = m.Surface.Value(v.UV)
		}
		m.Vertices = append(m.Vertices, v)
	}
	m.steiner = len(st)
}

// FaceTriangles returns the triangle slots of the face.
func (m *MeshData) FaceTriangles() []int {
	var out []int
	for t := range m.Tri.NumTriangles() {
		if m.Tri.IsFaceTriangle(t) {
			out = append(out, t)
		}
	}
	return out
}

// Export builds the immutable mesh. Super and unused vertices are dropped,
// triangles collapsing to zero area in space are skipped and the winding
// is flipped for reversed faces. tolerances receives the node tolerances.
func (m *MeshData) Export(reversed bool) (*mesh.Triangulation, []float64) {
	remap := make([]int, len(m.Vertices))
	for i := range remap {
		remap[i] = -1
	}
	out := &mesh.Triangulation{}
	var tols []float64
	node := func(id int) int {
		if remap[id] < 0 {
			v := &m.Vertices[id]
			remap[id] = len(out.Nodes)
			out.Nodes = append(out.Nodes, v.Point)
			out.UVNodes = append(out.UVNodes, v.UV)
			tols = append(tols, v.Tol)
		}
		return remap[id]
	}
	for _, t := range m.FaceTriangles() {
		c := m.Tri.Corners(t)
		a, b, d := m.Vertices[c[0]].Point, m.Vertices[c[1]].Point, m.Vertices[c[2]].Point
		if b.Sub(a).Cross(d.Sub(a)).Norm2() == 0 {
			continue
		}
		tri := mesh.Triangle{node(c[0]), node(c[1]), node(c[2])}
		if reversed {
			tri[1], tri[2] = tri[2], tri[1]
		}
		out.Triangles = append(out.Triangles, tri)
	}
	return out, tols
}
