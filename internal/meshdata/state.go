package meshdata

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a face is moved to a state that
// does not follow its current one.
var ErrInvalidTransition = errors.New("meshdata: invalid state transition")

// State is the progress of one face through the pipeline.
type State uint8

// Pipeline states in order. Failed is reachable from every state except
// Finalized and is terminal.
const (
	Init State = iota
	BoundaryDiscretized
	NodesGenerated
	Triangulated
	Refined
	Finalized
	Failed
)

var stateNames = [...]string{
	Init:                "Init",
	BoundaryDiscretized: "BoundaryDiscretized",
	NodesGenerated:      "NodesGenerated",
	Triangulated:        "Triangulated",
	Refined:             "Refined",
	Finalized:           "Finalized",
	Failed:              "Failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == Finalized || s == Failed
}

// CanTransition reports whether from → to is legal.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == Failed {
		return true
	}
	return to == from+1
}
