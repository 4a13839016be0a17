package ruleset

import (
	"fmt"
	"time"
)

// WeaponDef is an equippable weapon.
type WeaponDef struct {
	Name     string   `yaml:"name"`
	Stats    Stats    `yaml:"stats"`
	Passives []string `yaml:"passives"`
	// WispPerAttack is paid once per attack instance while this weapon is equipped.
	WispPerAttack int `yaml:"wisp_per_attack"`
}

// Validate checks the weapon definition.
func (w *WeaponDef) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("weapon: name must not be empty")
	}
	if w.WispPerAttack < 0 {
		return fmt.Errorf("weapon %q: wisp_per_attack must be >= 0", w.Name)
	}
	return nil
}

// Trigger is the kind of moment a passive reacts to. Each subsystem queries
// only the trigger kinds relevant to it.
type Trigger string

const (
	OnHit           Trigger = "on_hit"
	OnDeath         Trigger = "on_death"
	OnTurnEnd       Trigger = "on_turn_end"
	ConditionalStat Trigger = "conditional_stat"
	Reactive        Trigger = "reactive"
)

// PassiveDef is a persistent conditional ability.
type PassiveDef struct {
	Name    string  `yaml:"name"`
	Trigger Trigger `yaml:"trigger"`
	// Condition gates conditional_stat passives: "always", "hp_below_half",
	// "wisp_empty", "terrain:<name>" or "status:<type>". Empty means always.
	Condition string `yaml:"condition"`
	// LuaCondition names a script hook consulted instead of Condition when set.
	LuaCondition string  `yaml:"lua_condition"`
	Stats        Stats   `yaml:"stats"`
	Amount       int     `yaml:"amount"`
	Multiplier   float64 `yaml:"multiplier"`
	Fraction     float64 `yaml:"fraction"`
	Status       string  `yaml:"status"`
	StatusTurns  int     `yaml:"status_turns"`
}

// Validate checks the passive definition.
func (p *PassiveDef) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("passive: name must not be empty")
	}
	switch p.Trigger {
	case OnHit, OnDeath, OnTurnEnd, ConditionalStat, Reactive:
	case "":
		p.Trigger = Reactive
	default:
		return fmt.Errorf("passive %q: unknown trigger %q", p.Name, p.Trigger)
	}
	if p.Fraction < 0 || p.Fraction > 1 {
		return fmt.Errorf("passive %q: fraction must be in [0,1]", p.Name)
	}
	return nil
}

// DurationUnit says what a status duration is measured in.
type DurationUnit string

const (
	Turns      DurationUnit = "turns"
	Continuous DurationUnit = "time"
	Permanent  DurationUnit = "permanent"
)

// StatusKind selects engine behaviour beyond stat modifiers.
type StatusKind string

const (
	KindPlain     StatusKind = ""
	KindKnockback StatusKind = "knockback"
	KindStun      StatusKind = "stun"
	KindAirborne  StatusKind = "airborne"
)

// StatusDef is the static definition of a status effect.
type StatusDef struct {
	Name     string        `yaml:"name"`
	Kind     StatusKind    `yaml:"kind"`
	Unit     DurationUnit  `yaml:"duration"`
	Turns    int           `yaml:"turns"`
	Time     time.Duration `yaml:"time"`
	External bool          `yaml:"external"` // duration owned by a reactive system, not the ticker
	// MaxStacks > 1 allows stacking; otherwise re-application refreshes.
	MaxStacks      int    `yaml:"max_stacks"`
	TickDamage     int    `yaml:"tick_damage"`
	Stats          Stats  `yaml:"stats"`
	Cleansable     bool   `yaml:"cleansable"`
	SuppressFacing bool   `yaml:"suppress_facing"`
	PreventsAction bool   `yaml:"prevents_action"`
	// Tile marks a tile status; Terrains restricts which terrains accept it (empty = any).
	Tile      bool     `yaml:"tile"`
	Terrains  []string `yaml:"terrains"`
	Flammable bool     `yaml:"flammable"` // tile status that spreads through spreads_fire terrain
	LuaOnTick string   `yaml:"lua_on_tick"`
}

// Stackable reports whether re-application adds stacks rather than refreshing.
func (s *StatusDef) Stackable() bool { return s.MaxStacks > 1 }

// AcceptsTerrain reports whether a tile status may sit on terrain name.
func (s *StatusDef) AcceptsTerrain(name string) bool {
	if len(s.Terrains) == 0 {
		return true
	}
	for _, t := range s.Terrains {
		if t == name {
			return true
		}
	}
	return false
}

// Validate checks the status definition.
func (s *StatusDef) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("status: name must not be empty")
	}
	switch s.Unit {
	case Turns, Continuous, Permanent:
	case "":
		s.Unit = Turns
	default:
		return fmt.Errorf("status %q: unknown duration unit %q", s.Name, s.Unit)
	}
	switch s.Kind {
	case KindPlain, KindKnockback, KindStun, KindAirborne:
	default:
		return fmt.Errorf("status %q: unknown kind %q", s.Name, s.Kind)
	}
	if s.TickDamage < 0 {
		return fmt.Errorf("status %q: tick_damage must be >= 0", s.Name)
	}
	return nil
}
