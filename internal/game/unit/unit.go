// Package unit defines the combat entities the rules engine operates on:
// units, obstacles and the status instances attached to units.
package unit

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ruleset"
)

// Team identifies a side. The zero value is intentionally "no team".
type Team int

const (
	NoTeam Team = iota
	TeamPlayer
	TeamEnemy
)

// String returns "player", "enemy" or "none".
func (t Team) String() string {
	switch t {
	case TeamPlayer:
		return "player"
	case TeamEnemy:
		return "enemy"
	default:
		return "none"
	}
}

// ParseTeam maps "player", "enemy" and "none" (or "") to a Team.
func ParseTeam(s string) (Team, error) {
	switch s {
	case "player":
		return TeamPlayer, nil
	case "enemy":
		return TeamEnemy, nil
	case "", "none":
		return NoTeam, nil
	default:
		return NoTeam, fmt.Errorf("unit: unknown team %q", s)
	}
}

// Opposes reports whether t and o are different real teams.
func (t Team) Opposes(o Team) bool {
	return t != NoTeam && o != NoTeam && t != o
}

// Weight classifies how hard an entity is to push.
type Weight int

const (
	Light Weight = iota
	Medium
	Heavy
	Immovable
)

// ParseWeight maps "light", "medium", "heavy" and "immovable" to a Weight.
func ParseWeight(s string) Weight {
	switch s {
	case "medium":
		return Medium
	case "heavy":
		return Heavy
	case "immovable":
		return Immovable
	default:
		return Light
	}
}

// Status is one status effect attached to a unit.
type Status struct {
	Type string
	Unit ruleset.DurationUnit
	// Turns is the remaining turn count for turn-based statuses.
	Turns int
	// Remaining is the remaining time for continuous statuses.
	Remaining time.Duration
	// External marks a duration owned by a reactive system rather than the generic ticker.
	External bool
	// Attacker applied the status; tick damage is attributed to it. May be nil.
	Attacker *Unit
	Stacks   int
	// Force and Direction carry knockback payload.
	Force     int
	Direction grid.Coord
}

// Unit is a combatant.
//
// Invariant: Final is a cache derived from Base, weapon, statuses, passives and
// terrain; it is only written by stats recalculation.
type Unit struct {
	ID        string
	Name      string
	Team      Team
	Tile      grid.Coord
	Facing    grid.Facing
	Traversal grid.Traversal
	Weight    Weight
	Origin    string
	Level     int
	Exp       int

	HP      int
	MaxHP   int
	Wisp    int
	MaxWisp int

	Base  ruleset.Stats
	Final ruleset.Stats

	// Statuses maps status type to the single active instance of that type.
	Statuses map[string]*Status
	// Attacks is ordered; Attacks[0] is the basic attack used for counters.
	Attacks []string
	Weapon  string
	// Passives are innate blueprint passives; Overrides are granted by mechanics
	// such as devouring a defeated unit.
	Passives  []string
	Overrides []string

	HasActed              bool
	ActionInProgress      bool
	TurnEndedByForcedMove bool
	// PendingDamageDisplay is owned by the host; true while a hit animation plays.
	PendingDamageDisplay bool
}

// New creates a unit at full health and wisp with Final = Base.
//
// Precondition: id must be non-empty; maxHP >= 1.
// Postcondition: HP == MaxHP, Wisp == MaxWisp, Statuses non-nil.
func New(id, name string, team Team, tile grid.Coord, maxHP, maxWisp int, base ruleset.Stats) *Unit {
	return &Unit{
		ID:       id,
		Name:     name,
		Team:     team,
		Tile:     tile,
		Level:    1,
		HP:       maxHP,
		MaxHP:    maxHP,
		Wisp:     maxWisp,
		MaxWisp:  maxWisp,
		Base:     base,
		Final:    base.Floored(),
		Statuses: make(map[string]*Status),
	}
}

// Alive reports whether the unit has health left.
func (u *Unit) Alive() bool { return u.HP > 0 }

// IsPlayerControlled reports whether the unit belongs to the player team.
func (u *Unit) IsPlayerControlled() bool { return u.Team == TeamPlayer }

// HasStatus reports whether status typ is active.
func (u *Unit) HasStatus(typ string) bool {
	_, ok := u.Statuses[typ]
	return ok
}

// BasicAttack returns the unit's first known attack, or "" if it knows none.
func (u *Unit) BasicAttack() string {
	if len(u.Attacks) == 0 {
		return ""
	}
	return u.Attacks[0]
}

// Heal adds amount to HP, capped at MaxHP, and returns the amount restored.
//
// Postcondition: 0 <= HP <= MaxHP; return value >= 0.
func (u *Unit) Heal(amount int) int {
	if amount <= 0 || !u.Alive() {
		return 0
	}
	before := u.HP
	u.HP = min(u.HP+amount, u.MaxHP)
	return u.HP - before
}

// TakeDamage reduces HP by amount, flooring at zero, and returns the damage dealt.
//
// Precondition: amount >= 0.
// Postcondition: HP >= 0.
func (u *Unit) TakeDamage(amount int) int {
	if amount <= 0 {
		return 0
	}
	dealt := min(amount, u.HP)
	u.HP -= dealt
	return dealt
}

// SpendWisp removes up to amount wisp and returns the amount actually spent.
//
// Postcondition: Wisp >= 0.
func (u *Unit) SpendWisp(amount int) int {
	spent := min(max(amount, 0), u.Wisp)
	u.Wisp -= spent
	return spent
}

// GainWisp adds amount wisp capped at MaxWisp and returns the amount gained.
func (u *Unit) GainWisp(amount int) int {
	before := u.Wisp
	u.Wisp = min(u.Wisp+max(amount, 0), u.MaxWisp)
	return u.Wisp - before
}

// Bounds returns the tile rectangle the unit occupies.
func (u *Unit) Bounds() grid.Rect { return grid.Tile(u.Tile) }

// ResetTurn clears the per-turn flags.
func (u *Unit) ResetTurn() {
	u.HasActed = false
	u.ActionInProgress = false
	u.TurnEndedByForcedMove = false
}
