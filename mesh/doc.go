// Package mesh defines the immutable output of the mesher: per-face
// triangulations, the status bitmask, and the connectivity and normal
// builder that finishes a triangulation.
//
// Downstream consumers (renderers, exporters, analysis) only ever see a
// [Triangulation] and a [Status]; internal mesh data never escapes.
package mesh
