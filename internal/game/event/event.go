// Package event is the typed publish/subscribe channel through which the rules
// engine announces transitions to rendering, UI and reactive systems.
//
// Dispatch is synchronous and single-threaded: Publish invokes every handler
// for the event's kind, in subscription order, before returning. The engine
// never depends on who is subscribed.
package event

import (
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// Kind names an event type.
type Kind string

const (
	KindUnitDied          Kind = "unit_died"
	KindStatusApplied     Kind = "status_applied"
	KindStatusRemoved     Kind = "status_removed"
	KindUnitTileChanged   Kind = "unit_tile_changed"
	KindWeaponEquipped    Kind = "weapon_equipped"
	KindActionFinalized   Kind = "action_finalized"
	KindMissed            Kind = "missed"
	KindHit               Kind = "hit"
	KindHealed            Kind = "healed"
	KindTileStatusChanged Kind = "tile_status_changed"
	KindExperienceGained  Kind = "experience_gained"
	KindObstacleDestroyed Kind = "obstacle_destroyed"
)

// Event is implemented by every payload.
type Event interface {
	Kind() Kind
}

// UnitDied fires once when a unit's health reaches zero. Killer may be nil.
type UnitDied struct {
	Victim *unit.Unit
	Killer *unit.Unit
	Reason string
}

// StatusApplied fires after a status is created or refreshed on a unit.
type StatusApplied struct {
	Target *unit.Unit
	Effect *unit.Status
}

// StatusRemoved fires after a status leaves a unit.
type StatusRemoved struct {
	Target *unit.Unit
	Effect *unit.Status
}

// UnitTileChanged fires after a unit's authoritative tile changes.
type UnitTileChanged struct {
	Unit *unit.Unit
	From grid.Coord
}

// WeaponEquipped fires after a unit's weapon changes.
type WeaponEquipped struct {
	Unit     *unit.Unit
	Previous string
}

// ActionFinalized fires when a unit's action for the turn is complete.
type ActionFinalized struct {
	Unit *unit.Unit
}

// Missed fires when a hit roll fails. Target is a *unit.Unit or *unit.Obstacle.
type Missed struct {
	Attacker *unit.Unit
	Target   any
	Attack   string
}

// Hit fires after damage from a landed hit is applied. Target is a *unit.Unit or *unit.Obstacle.
type Hit struct {
	Attacker *unit.Unit
	Target   any
	Attack   string
	Damage   int
	Crit     bool
	Strong   bool
	Counter  bool
}

// Healed fires after a heal restores health.
type Healed struct {
	Caster *unit.Unit
	Target *unit.Unit
	Amount int
}

// TileStatusChanged fires when a tile status is placed or cleared.
type TileStatusChanged struct {
	Tile   grid.Coord
	Status string
	Active bool
}

// ExperienceGained fires after a player unit earns experience. ConsumesTurn is
// false when the gain came from a free reactive attack.
type ExperienceGained struct {
	Unit         *unit.Unit
	Amount       int
	LevelUp      bool
	ConsumesTurn bool
}

// ObstacleDestroyed fires when a destructible obstacle reaches zero health.
type ObstacleDestroyed struct {
	Obstacle *unit.Obstacle
	By       *unit.Unit
}

func (UnitDied) Kind() Kind          { return KindUnitDied }
func (StatusApplied) Kind() Kind     { return KindStatusApplied }
func (StatusRemoved) Kind() Kind     { return KindStatusRemoved }
func (UnitTileChanged) Kind() Kind   { return KindUnitTileChanged }
func (WeaponEquipped) Kind() Kind    { return KindWeaponEquipped }
func (ActionFinalized) Kind() Kind   { return KindActionFinalized }
func (Missed) Kind() Kind            { return KindMissed }
func (Hit) Kind() Kind               { return KindHit }
func (Healed) Kind() Kind            { return KindHealed }
func (TileStatusChanged) Kind() Kind { return KindTileStatusChanged }
func (ExperienceGained) Kind() Kind  { return KindExperienceGained }
func (ObstacleDestroyed) Kind() Kind { return KindObstacleDestroyed }
