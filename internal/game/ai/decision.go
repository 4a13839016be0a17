// Package ai picks one action per unit per turn using a fixed priority order:
// capture an objective, make the best attack, clear a blocking obstacle,
// approach the movement goal, or wait.
package ai

import (
	"fmt"

	"github.com/cory-johannsen/tactics/internal/game/grid"
)

// Kind is the category of a Decision.
type Kind int

const (
	Wait Kind = iota
	Capture
	Attack
	Clear
	Approach
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case Capture:
		return "capture"
	case Attack:
		return "attack"
	case Clear:
		return "clear"
	case Approach:
		return "approach"
	default:
		return "wait"
	}
}

// Decision is the action chosen for one unit.
//
// Invariant: Path is nil when Move equals the unit's tile; otherwise Path
// runs from the unit's tile to Move inclusive.
type Decision struct {
	Kind Kind
	// Move is where the unit ends its movement.
	Move grid.Coord
	Path []grid.Coord
	// Attack and Target are set for Attack and Clear decisions.
	Attack string
	Target grid.Coord
	Score  float64
}

// Moves reports whether the decision relocates the unit.
func (d Decision) Moves() bool { return len(d.Path) > 1 }

// String renders the decision for logs.
func (d Decision) String() string {
	switch d.Kind {
	case Attack, Clear:
		return fmt.Sprintf("%s %s@%s from %s", d.Kind, d.Attack, d.Target, d.Move)
	case Capture, Approach:
		return fmt.Sprintf("%s to %s", d.Kind, d.Move)
	default:
		return d.Kind.String()
	}
}
