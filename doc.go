// Package surfmesh tessellates bounded parametric surfaces into triangle
// meshes that stay within a chordal deviation of the true surface.
//
// # Overview
//
// A [brep.Shape] is a set of faces. Each face carries a [geom.Surface] and
// wires of boundary curves. surfmesh discretizes every boundary edge once,
// so faces sharing an edge share its vertices and the result is
// watertight. Each face is then meshed on its own:
//
//  1. boundary wires are turned into closed UV polylines
//  2. interior nodes are laid out according to the surface kind
//  3. a constrained Delaunay triangulation is built in UV with the
//     boundary as hard constraints
//  4. triangles are refined until the facets follow the surface within
//     the requested deflection
//  5. the mesh is exported with connectivity and normals
//
// # Quick Start
//
//	shape := brep.Single(brep.NewSphereFace(geom.StandardFrame(), 1))
//
//	p := surfmesh.DefaultParameters()
//	p.LinearDeflection = 0.01
//
//	m, err := surfmesh.NewMesher(p)
//	if err != nil {
//	    return err
//	}
//	res, err := m.Perform(ctx, shape)
//	if err != nil {
//	    return err
//	}
//	for _, fr := range res.Faces {
//	    fmt.Println(fr.Status, fr.Mesh.NbTriangles())
//	}
//
// # Status
//
// Per-face problems never abort a run. They accumulate in the face
// [mesh.Status]: a face with an open or misoriented wire still gets a
// best-effort mesh, a face flagged [mesh.Failure] gets none. Only
// cancellation of the context is returned as an error; faces finished
// before it are kept.
//
// # Caching
//
// [WithCache] puts a [cache.MeshCache] in front of the face pipeline.
// Faces are keyed by identity and parameter fingerprint; concurrent
// requests for the same face are collapsed and report [mesh.Reused].
//
// # Logging
//
// surfmesh is silent by default. See [SetLogger] and [WithLogger].
package surfmesh
