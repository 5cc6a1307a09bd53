package surfmesh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/surfmesh/brep"
	"github.com/gogpu/surfmesh/cache"
	"github.com/gogpu/surfmesh/internal/delaunay"
	"github.com/gogpu/surfmesh/internal/discret"
	"github.com/gogpu/surfmesh/internal/parallel"
	"github.com/gogpu/surfmesh/mesh"
)

// ErrNilShape is returned by Perform when there is nothing to mesh.
var ErrNilShape = errors.New("surfmesh: nil shape")

// FaceResult is the outcome of one face. Mesh is nil when the face failed
// or was not meshed because the run was cancelled.
type FaceResult struct {
	Face   *brep.Face
	Mesh   *mesh.Triangulation
	Status mesh.Status
}

// Result is the outcome of a Perform call. Faces follow the order of
// brep.Shape.AllFaces.
type Result struct {
	RunID uuid.UUID
	Faces []FaceResult

	// Status is the union of the face statuses.
	Status mesh.Status
}

// Lookup returns the result of face f.
func (r *Result) Lookup(f *brep.Face) (FaceResult, bool) {
	for _, fr := range r.Faces {
		if fr.Face == f {
			return fr, true
		}
	}
	return FaceResult{}, false
}

// NbNodes returns the number of nodes over all meshed faces.
func (r *Result) NbNodes() int {
	n := 0
	for _, fr := range r.Faces {
		if fr.Mesh != nil {
			n += fr.Mesh.NbNodes()
		}
	}
	return n
}

// NbTriangles returns the number of triangles over all meshed faces.
func (r *Result) NbTriangles() int {
	n := 0
	for _, fr := range r.Faces {
		if fr.Mesh != nil {
			n += fr.Mesh.NbTriangles()
		}
	}
	return n
}

// Mesher tessellates shapes with a fixed parameter set. A Mesher is safe
// for concurrent use; each Perform call owns its face data.
type Mesher struct {
	params      Parameters
	fingerprint uint64
	cache       *cache.MeshCache
	log         *slog.Logger
	workers     int
	localBudget int
}

// NewMesher validates p and returns a mesher.
func NewMesher(p Parameters, opts ...Option) (*Mesher, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	o := mesherOptions{workers: p.Workers}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	if o.workers <= 0 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	return &Mesher{
		params:      p,
		fingerprint: p.fingerprint(),
		cache:       o.cache,
		log:         o.logger,
		workers:     o.workers,
		localBudget: delaunay.LocalRecoveryBudget,
	}, nil
}

// Parameters returns the parameters of the mesher.
func (m *Mesher) Parameters() Parameters { return m.params }

// Workers returns the number of goroutines used by parallel runs.
func (m *Mesher) Workers() int { return m.workers }

// Perform meshes every face of shape.
//
// Boundary edges are discretized once for the whole shape, so faces that
// share an edge share its vertices. Faces are then meshed one per task,
// concurrently when Parameters.InParallel is set.
//
// Per-face problems are reported in the face status, never as an error.
// When ctx is cancelled the faces not yet finished report UserBreak, the
// finished ones are kept, and the returned error wraps ctx.Err().
func (m *Mesher) Perform(ctx context.Context, shape *brep.Shape) (*Result, error) {
	if shape == nil {
		return nil, ErrNilShape
	}
	runID := uuid.New()
	log := m.log.With("run", runID.String())

	faces := shape.AllFaces()
	res := &Result{RunID: runID, Faces: make([]FaceResult, len(faces))}
	for i, f := range faces {
		res.Faces[i] = FaceResult{Face: f, Status: mesh.UserBreak}
	}

	workers := 1
	if m.params.InParallel {
		workers = m.workers
	}
	start := time.Now()
	log.Info("meshing started", "faces", len(faces), "workers", workers)

	edges := brep.AllEdges(faces)
	polys, err := discret.DiscretizeAll(ctx, edges, m.params.discretParams(), workers)
	if err != nil {
		res.Status = mesh.UserBreak
		log.Info("meshing cancelled", "stage", "edges")
		return res, fmt.Errorf("surfmesh: discretize edges: %w", err)
	}
	log.Debug("edges discretized", "edges", len(edges), "elapsed", time.Since(start))

	task := func(i int) {
		res.Faces[i] = m.face(ctx, faces[i], polys, log)
	}
	if workers > 1 && len(faces) > 1 {
		pool := parallel.NewPool(min(workers, len(faces)))
		pool.Run(ctx, len(faces), task)
		pool.Close()
	} else {
		for i := range faces {
			if ctx.Err() != nil {
				break
			}
			task(i)
		}
	}

	for _, fr := range res.Faces {
		res.Status |= fr.Status
	}
	if err := ctx.Err(); err != nil {
		log.Info("meshing cancelled", "stage", "faces", "status", res.Status)
		return res, fmt.Errorf("surfmesh: meshing interrupted: %w", err)
	}
	log.Info("meshing finished",
		"faces", len(faces),
		"triangles", res.NbTriangles(),
		"status", res.Status,
		"elapsed", time.Since(start))
	return res, nil
}
