package surfmesh

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/gogpu/surfmesh/brep"
	"github.com/gogpu/surfmesh/cache"
	"github.com/gogpu/surfmesh/geom"
	"github.com/gogpu/surfmesh/internal/delaunay"
	"github.com/gogpu/surfmesh/internal/discret"
	"github.com/gogpu/surfmesh/internal/meshdata"
	"github.com/gogpu/surfmesh/internal/refine"
	"github.com/gogpu/surfmesh/internal/split"
	"github.com/gogpu/surfmesh/mesh"
)

// minRecoveryBudget is the smallest face-wide Steiner budget; larger
// boundaries get one point per boundary node.
const minRecoveryBudget = 64

// uvMergeFactor scales the UV extent of a face into its merge tolerance.
const uvMergeFactor = 1e-9

// face meshes f, going through the cache when one is configured.
func (m *Mesher) face(ctx context.Context, f *brep.Face, polys discret.Polygons, log *slog.Logger) FaceResult {
	fr := FaceResult{Face: f}
	if m.cache == nil {
		fr.Mesh, fr.Status = m.tessellate(ctx, f, polys, log)
		return fr
	}
	key := cache.Key{Face: f.ID, Params: m.fingerprint}
	e, reused, err := m.cache.Do(key, func() (cache.Entry, error) {
		tri, st := m.tessellate(ctx, f, polys, log)
		return cache.Entry{Mesh: tri, Status: st}, nil
	})
	if err != nil {
		log.Error("face cache", "face", f.ID, "err", err)
		fr.Status = mesh.Failure
		return fr
	}
	fr.Mesh, fr.Status = e.Mesh, e.Status
	if reused {
		fr.Status |= mesh.Reused
		log.Debug("face reused", "face", f.ID)
	}
	return fr
}

// tessellate runs the face pipeline: boundary, surface nodes, constrained
// triangulation, refinement, export.
func (m *Mesher) tessellate(ctx context.Context, f *brep.Face, polys discret.Polygons, log *slog.Logger) (*mesh.Triangulation, mesh.Status) {
	log = log.With("face", f.ID)
	if f.Surface == nil {
		log.Warn("face has no surface")
		return nil, mesh.Failure
	}
	if ctx.Err() != nil {
		return nil, mesh.UserBreak
	}

	loops, status := discret.Wires(f, polys, m.params.discretParams(), log)
	if len(loops) == 0 {
		log.Warn("face has no usable wire", "status", status)
		return nil, status | mesh.Failure
	}
	bounds, size, nb := extent(loops)

	md := meshdata.New(f.ID, f.Surface, bounds, uvMergeFactor*math.Max(bounds.X.Length(), bounds.Y.Length()))
	md.Status = status
	md.Tri.SetRecoveryBudget(max(minRecoveryBudget, nb))
	md.Tri.SetLocalRecoveryBudget(m.localBudget)
	if err := md.Advance(meshdata.BoundaryDiscretized); err != nil {
		return abort(md, log, err)
	}

	sp := split.For(f.Surface, m.params.PlanarSubdivision)
	nodes := split.GenerateSurfaceNodes(sp, bounds, loops, m.params.splitParams(size))
	if err := md.Advance(meshdata.NodesGenerated); err != nil {
		return abort(md, log, err)
	}

	if err := constrain(md, loops, log); err != nil {
		log.Warn("edge recovery budget exhausted", "err", err)
		md.Fail(0)
		return nil, md.Status
	}
	md.Tri.Classify()
	md.AddNodes(nodes, meshdata.SourceInterior, brep.DefaultTolerance)
	if len(md.FaceTriangles()) == 0 {
		log.Warn("boundary encloses no triangle")
		md.Fail(0)
		return nil, md.Status
	}
	if err := md.Advance(meshdata.Triangulated); err != nil {
		return abort(md, log, err)
	}

	rp := m.params.refineParams(size)
	var deflection float64
	if m.params.ControlSurfaceDeflection {
		res, err := refine.Refine(ctx, md, rp, log)
		if err != nil {
			md.Status |= mesh.UserBreak
			_ = md.Advance(meshdata.Failed)
			log.Debug("face cancelled", "iterations", res.Iterations)
			return nil, md.Status
		}
		md.Status |= res.Status
		deflection = res.Deflection
	} else {
		deflection = refine.Measure(md, rp)
	}
	if err := md.Advance(meshdata.Refined); err != nil {
		return abort(md, log, err)
	}

	tri, tols := md.Export(f.Reversed)
	if tri.NbTriangles() == 0 {
		log.Warn("face collapsed to zero area")
		md.Fail(0)
		return nil, md.Status
	}
	tri.Deflection = deflection
	tri.Normals = normals(f, tri, tols)
	if err := md.Advance(meshdata.Finalized); err != nil {
		return abort(md, log, err)
	}

	st := md.Tri.Stats()
	log.Debug("face meshed",
		"surface", f.Surface.Kind(),
		"nodes", tri.NbNodes(),
		"triangles", tri.NbTriangles(),
		"interior", len(nodes),
		"flips", st.Flips,
		"steiner", st.Steiner,
		"deflection", deflection,
		"status", md.Status)
	return tri, md.Status
}

// constrain inserts the boundary nodes and recovers every boundary
// segment. A segment that cannot be recovered leaves its region out of the
// mesh and flags the face with Failure; only an exhausted face-wide budget
// is returned.
func constrain(md *meshdata.MeshData, loops []discret.Polyline, log *slog.Logger) error {
	chains := make([][]int, len(loops))
	for li, l := range loops {
		ids := make([]int, len(l.Nodes))
		for i, n := range l.Nodes {
			ids[i], _ = md.AddBoundary(n.UV, n.Point, n.Edge, n.T, n.Tol)
		}
		chains[li] = ids
	}
	for _, ids := range chains {
		for i := range ids {
			a, b := ids[i], ids[(i+1)%len(ids)]
			_, err := md.Recover(a, b)
			switch {
			case err == nil:
			case errors.Is(err, delaunay.ErrFaceBudget):
				return err
			default:
				md.Status |= mesh.Failure
				log.Warn("boundary segment not recovered",
					"from", md.Vertices[a].UV, "to", md.Vertices[b].UV, "err", err)
			}
		}
	}
	return nil
}

// normals returns the node normals of tri, analytic where the surface
// provides them.
func normals(f *brep.Face, tri *mesh.Triangulation, tols []float64) []r3.Vector {
	b := mesh.NormalBuilder{Tolerances: tols}
	if ne, ok := f.Surface.(geom.NormalEvaluator); ok {
		b.Analytic = func(node int) (r3.Vector, bool) {
			n, ok := ne.Normal(tri.UVNodes[node])
			if ok && f.Reversed {
				n = n.Mul(-1)
			}
			return n, ok
		}
	}
	return b.Build(tri, mesh.NewPolyConnect(tri))
}

// extent returns the UV box of the loops, the diagonal of their 3D box and
// the number of boundary nodes.
func extent(loops []discret.Polyline) (uv r2.Rect, size float64, nodes int) {
	uv = r2.EmptyRect()
	lo := r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := lo.Mul(-1)
	for i := range loops {
		uv = uv.Union(loops[i].Bounds())
		for _, n := range loops[i].Nodes {
			p := n.Point
			lo = r3.Vector{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
			hi = r3.Vector{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
		}
		nodes += len(loops[i].Nodes)
	}
	return uv, hi.Sub(lo).Norm(), nodes
}

func abort(md *meshdata.MeshData, log *slog.Logger, err error) (*mesh.Triangulation, mesh.Status) {
	log.Error("face pipeline", "state", md.State(), "err", err)
	md.Fail(0)
	return nil, md.Status
}
