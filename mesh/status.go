package mesh

import "strings"

// Status is a bitmask describing how a face (or a whole run) was meshed.
// NoError is the empty mask; the other flags accumulate.
type Status uint32

// Status flags.
const (
	NoError Status = 0

	// OpenWire: consecutive boundary curves did not meet within tolerance.
	OpenWire Status = 1 << (iota - 1)
	// SelfIntersectingWire: the UV boundary crosses itself.
	SelfIntersectingWire
	// Failure: no mesh could be produced for the face, or a boundary
	// region could not be recovered and is missing from its mesh.
	Failure
	// ReMesh: deflection is still exceeded where the MinSize floor blocked
	// further refinement.
	ReMesh
	// UnorientedWire: a wire runs opposite to its role (outer/hole).
	UnorientedWire
	// TooFewPoints: a wire was dropped because it degenerated.
	TooFewPoints
	// Outdated: refinement stopped at MaxIterations with deflection still
	// exceeded.
	Outdated
	// Reused: the triangulation came from the cache.
	Reused
	// UserBreak: meshing was cancelled.
	UserBreak
)

var statusNames = []struct {
	flag Status
	name string
}{
	{OpenWire, "OpenWire"},
	{SelfIntersectingWire, "SelfIntersectingWire"},
	{Failure, "Failure"},
	{ReMesh, "ReMesh"},
	{UnorientedWire, "UnorientedWire"},
	{TooFewPoints, "TooFewPoints"},
	{Outdated, "Outdated"},
	{Reused, "Reused"},
	{UserBreak, "UserBreak"},
}

// Has reports whether every flag in f is set.
func (s Status) Has(f Status) bool {
	return s&f == f
}

// IsFailed reports whether the mask marks a face without a mesh or with
// an incomplete one.
func (s Status) IsFailed() bool {
	return s&(Failure|UserBreak) != 0
}

// String lists the set flags joined by '|'.
func (s Status) String() string {
	if s == NoError {
		return "NoError"
	}
	var parts []string
	for _, n := range statusNames {
		if s&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
