// Package geom provides the surface and curve adaptors consumed by the mesher.
//
// A [Surface] maps a UV parameter point to a 3D point and exposes its
// first derivatives and parameter bounds. The analytic kinds ([Plane],
// [Cylinder], [Cone], [Sphere], [Torus]) also implement [NormalEvaluator] so
// the mesher can skip normal averaging. [BezierSurface] stands for the
// general free-form case.
//
// Curves come in two flavors: [Curve3D] for the edge geometry in space and
// [Curve2D] for the parametric curve of an edge on a face (pcurve). Both
// of an edge's curves share one parameter range.
//
// Vectors use github.com/golang/geo: r2.Point for UV, r3.Vector for space,
// r1.Interval for parameter ranges.
package geom
