package combat

import (
	"time"

	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// Scope selects which entities an effect may touch.
type Scope int

const (
	// ScopeOpposing targets opposing units and destructible obstacles.
	ScopeOpposing Scope = iota
	// ScopeAllied targets the attacker's own team.
	ScopeAllied
	// ScopeEveryone targets every unit and destructible obstacle.
	ScopeEveryone
)

// String returns "opposing", "allied" or "everyone".
func (s Scope) String() string {
	switch s {
	case ScopeAllied:
		return "allied"
	case ScopeEveryone:
		return "everyone"
	default:
		return "opposing"
	}
}

// Props is the special-properties bag carried by an effect.
type Props struct {
	// Counter marks a counter-attack; it never triggers another counter.
	Counter bool
	// NoCounter marks a reaction-sourced effect that bypasses counter triggering.
	NoCounter bool
	// Free effects do not consume the attacker's turn.
	Free bool
	// Multiplier scales damage before passive bonuses; 0 means 1.
	Multiplier float64
	// InstanceID is shared by every effect of one attack and deduplicates
	// once-per-attack side effects.
	InstanceID string
}

// Effect is a queued, delayed, spatially scoped combat intent.
//
// Lifecycle: pending while Delay > 0, eligible once it reaches zero, resolved
// exactly once, and removed after its visual lifetime elapses.
type Effect struct {
	Attacker *unit.Unit
	Attack   string
	Area     grid.Rect
	Scope    Scope
	// Status forces a status onto hit targets instead of the attack's own.
	Status      string
	StatusTurns int
	Props       Props
	Delay       time.Duration

	resolved bool
	age      time.Duration
}

// Resolved reports whether the effect has been resolved.
func (e *Effect) Resolved() bool { return e.resolved }

// instance tracks the effects of one launched attack until all have resolved.
type instance struct {
	attacker  *unit.Unit
	remaining int
	free      bool
}

// Objective is a capturable tile.
type Objective struct {
	Tile  grid.Coord
	Owner unit.Team
}
