// Package combat runs a tactical battle: attack effects and their resolution
// pipeline, counter-attacks, movement, deaths and turn bookkeeping. It owns
// the mutable battle state and coordinates the passive roster, the stats
// calculator and the status manager through the event bus.
package combat

import (
	"sort"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/config"
	"github.com/cory-johannsen/tactics/internal/game/dice"
	"github.com/cory-johannsen/tactics/internal/game/event"
	"github.com/cory-johannsen/tactics/internal/game/formula"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/passive"
	"github.com/cory-johannsen/tactics/internal/game/ruleset"
	"github.com/cory-johannsen/tactics/internal/game/stats"
	"github.com/cory-johannsen/tactics/internal/game/status"
	"github.com/cory-johannsen/tactics/internal/game/unit"
	"github.com/cory-johannsen/tactics/internal/scripting"
)

// ScriptCaller invokes Lua hooks for passive conditions and status ticks.
type ScriptCaller interface {
	CallHook(hook string, args ...lua.LValue) (lua.LValue, error)
}

// Deps are the collaborators a Battle is built from.
type Deps struct {
	Registry *ruleset.Registry
	Grid     *grid.Grid
	Bus      *event.Bus
	Roller   *dice.Roller
	// Scripts is optional.
	Scripts ScriptCaller
	Rules   config.RulesConfig
	Logger  *zap.Logger
}

// Battle is the authoritative state of one fight. It is single-threaded:
// every method must be called from the host's frame loop.
type Battle struct {
	ID string

	reg    *ruleset.Registry
	grid   *grid.Grid
	bus    *event.Bus
	roller *dice.Roller
	rules  config.RulesConfig
	logger *zap.Logger

	roster   *passive.Roster
	calc     *stats.Calculator
	statuses *status.Manager
	airborne *status.AirborneDriver

	units      []*unit.Unit
	obstacles  []*unit.Obstacle
	objectives []*Objective

	effects   []*Effect
	counters  CounterQueue
	inFlight  map[string]*instance
	paid      map[string]bool
	countered map[counterKey]bool
	dead      map[*unit.Unit]bool
	round     int
}

type counterKey struct {
	defender *unit.Unit
	instance string
}

// NewBattle wires a Battle and its rules subsystems together.
//
// Precondition: d.Registry, d.Grid, d.Bus, d.Roller and d.Logger must not be nil.
// Postcondition: the status manager routes tick damage through the Battle.
func NewBattle(d Deps) *Battle {
	if d.Registry == nil || d.Grid == nil || d.Bus == nil || d.Roller == nil || d.Logger == nil {
		panic("combat.NewBattle: registry, grid, bus, roller and logger must not be nil")
	}
	if d.Rules.CritMultiplier <= 0 {
		d.Rules.CritMultiplier = formula.DefaultCritMultiplier
	}
	if d.Rules.ExpPerLevel <= 0 {
		d.Rules.ExpPerLevel = 100
	}
	if d.Rules.FireTurns <= 0 {
		d.Rules.FireTurns = 3
	}
	id := uuid.NewString()
	b := &Battle{
		ID:        id,
		reg:       d.Registry,
		grid:      d.Grid,
		bus:       d.Bus,
		roller:    d.Roller,
		rules:     d.Rules,
		logger:    d.Logger.With(zap.String("battle", id)),
		roster:    passive.NewRoster(d.Registry),
		inFlight:  make(map[string]*instance),
		paid:      make(map[string]bool),
		countered: make(map[counterKey]bool),
		dead:      make(map[*unit.Unit]bool),
	}
	b.calc = stats.NewCalculator(d.Registry, b.roster, d.Grid, d.Scripts)
	b.statuses = status.NewManager(d.Registry, d.Grid, d.Bus, b.calc, b.logger)
	if d.Scripts != nil {
		b.statuses.SetScripts(d.Scripts)
	}
	b.statuses.SetDamager(b)
	b.airborne = status.NewAirborneDriver(b.statuses, d.Bus)
	return b
}

// Registry returns the definitions the battle resolves names against.
func (b *Battle) Registry() *ruleset.Registry { return b.reg }

// Grid returns the battle map.
func (b *Battle) Grid() *grid.Grid { return b.grid }

// Bus returns the event bus.
func (b *Battle) Bus() *event.Bus { return b.bus }

// Roster returns the passive roster.
func (b *Battle) Roster() *passive.Roster { return b.roster }

// Statuses returns the status manager.
func (b *Battle) Statuses() *status.Manager { return b.statuses }

// Round returns the number of completed rounds.
func (b *Battle) Round() int { return b.round }

// AddUnit places u in the battle, registers its passives and computes its stats.
//
// Precondition: u must not be nil and its ID must be unique in the battle.
func (b *Battle) AddUnit(u *unit.Unit) {
	b.units = append(b.units, u)
	b.roster.AddUnit(u)
	b.calc.Recalculate(u)
}

// AddObstacle places o on the map.
func (b *Battle) AddObstacle(o *unit.Obstacle) {
	b.obstacles = append(b.obstacles, o)
}

// AddObjective marks c as a capturable tile owned by owner.
func (b *Battle) AddObjective(c grid.Coord, owner unit.Team) {
	b.objectives = append(b.objectives, &Objective{Tile: c, Owner: owner})
}

// Units returns every unit, living or dead, in insertion order.
func (b *Battle) Units() []*unit.Unit {
	return append([]*unit.Unit(nil), b.units...)
}

// Living returns the living units of team, in insertion order.
func (b *Battle) Living(team unit.Team) []*unit.Unit {
	var out []*unit.Unit
	for _, u := range b.units {
		if u.Alive() && u.Team == team {
			out = append(out, u)
		}
	}
	return out
}

// Opponents returns the living units opposing u, in insertion order.
func (b *Battle) Opponents(u *unit.Unit) []*unit.Unit {
	var out []*unit.Unit
	for _, o := range b.units {
		if o.Alive() && u.Team.Opposes(o.Team) {
			out = append(out, o)
		}
	}
	return out
}

// Obstacles returns the obstacles still on the map.
func (b *Battle) Obstacles() []*unit.Obstacle {
	var out []*unit.Obstacle
	for _, o := range b.obstacles {
		if o.Standing() {
			out = append(out, o)
		}
	}
	return out
}

// Objectives returns the capturable tiles.
func (b *Battle) Objectives() []*Objective {
	return append([]*Objective(nil), b.objectives...)
}

// UnitAt returns the living unit standing on c, or nil.
func (b *Battle) UnitAt(c grid.Coord) *unit.Unit {
	for _, u := range b.units {
		if u.Alive() && u.Tile == c {
			return u
		}
	}
	return nil
}

// UnitByID returns the unit with the given ID, living or dead, or nil.
func (b *Battle) UnitByID(id string) *unit.Unit {
	if id == "" {
		return nil
	}
	for _, u := range b.units {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// ObstacleAt returns the standing obstacle on c, or nil.
func (b *Battle) ObstacleAt(c grid.Coord) *unit.Obstacle {
	for _, o := range b.obstacles {
		if o.Standing() && o.Tile == c {
			return o
		}
	}
	return nil
}

// Blocked reports whether a standing blocking obstacle occupies c.
func (b *Battle) Blocked(c grid.Coord) bool {
	o := b.ObstacleAt(c)
	return o != nil && o.Blocks
}

// Outcome reports the surviving team once at most one team has living units.
func (b *Battle) Outcome() (winner unit.Team, over bool) {
	players, enemies := len(b.Living(unit.TeamPlayer)), len(b.Living(unit.TeamEnemy))
	switch {
	case players > 0 && enemies > 0:
		return unit.NoTeam, false
	case players > 0:
		return unit.TeamPlayer, true
	case enemies > 0:
		return unit.TeamEnemy, true
	default:
		return unit.NoTeam, true
	}
}

// Equip changes u's weapon. An empty name unequips.
//
// Postcondition: on true, u's roster membership and final stats reflect the
// new weapon and WeaponEquipped has been published.
func (b *Battle) Equip(u *unit.Unit, weapon string) bool {
	if weapon != "" {
		if _, ok := b.reg.Weapon(weapon); !ok {
			return false
		}
	}
	prev := u.Weapon
	u.Weapon = weapon
	b.roster.Refresh(u)
	b.calc.Recalculate(u)
	b.bus.Publish(event.WeaponEquipped{Unit: u, Previous: prev})
	return true
}

// MoveUnit moves u to dest, facing along the last step of the move.
// Traps on dest spring and objectives on dest are captured.
//
// Precondition: dest was validated by pathfinding; the caller owns legality.
func (b *Battle) MoveUnit(u *unit.Unit, dest grid.Coord) {
	if !u.Alive() || u.Tile == dest {
		return
	}
	u.Facing = grid.FacingToward(u.Tile, dest, u.Facing)
	b.place(u, dest)
}

// place sets u's authoritative tile and runs arrival side effects.
func (b *Battle) place(u *unit.Unit, dest grid.Coord) {
	from := u.Tile
	u.Tile = dest
	b.calc.Recalculate(u)
	b.logger.Debug("unit moved",
		zap.String("unit", u.ID),
		zap.Stringer("from", from),
		zap.Stringer("to", dest),
	)
	b.bus.Publish(event.UnitTileChanged{Unit: u, From: from})
	for _, obj := range b.objectives {
		if obj.Tile == dest {
			obj.Owner = u.Team
		}
	}
	b.springTrap(u, dest)
}

func (b *Battle) springTrap(u *unit.Unit, c grid.Coord) {
	o := b.ObstacleAt(c)
	if o == nil || o.Trap == nil {
		return
	}
	trap := o.Trap
	if trap.SelfDestruct {
		b.removeObstacle(o, nil)
	}
	b.damageUnit(u, nil, trap.Damage, "trap:"+o.Name)
	if trap.Status != "" && u.Alive() {
		b.statuses.ApplyNamed(u, trap.Status, trap.StatusTurns, nil)
	}
}

func (b *Battle) removeObstacle(o *unit.Obstacle, by *unit.Unit) {
	for i, cur := range b.obstacles {
		if cur == o {
			b.obstacles = append(b.obstacles[:i], b.obstacles[i+1:]...)
			break
		}
	}
	b.bus.Publish(event.ObstacleDestroyed{Obstacle: o, By: by})
}

// StatusDamage deals status tick damage to target, attributing any kill to attacker.
func (b *Battle) StatusDamage(target, attacker *unit.Unit, amount int, source string) {
	b.damageUnit(target, attacker, amount, source)
}

// damageUnit applies amount to target and runs kill handling on a lethal blow.
func (b *Battle) damageUnit(target, attacker *unit.Unit, amount int, reason string) int {
	if target == nil || !target.Alive() {
		return 0
	}
	dealt := b.hurt(target, amount)
	if !target.Alive() {
		b.Kill(target, attacker, reason)
	}
	return dealt
}

// Apart from Kill zeroing a victim, hurt, heal, spendWisp and gainWisp are the
// only writers of a unit's HP and wisp. Conditional passives read both, so
// each refreshes Final before returning.

func (b *Battle) hurt(u *unit.Unit, amount int) int {
	n := u.TakeDamage(amount)
	b.calc.Recalculate(u)
	return n
}

func (b *Battle) heal(u *unit.Unit, amount int) int {
	n := u.Heal(amount)
	b.calc.Recalculate(u)
	return n
}

func (b *Battle) spendWisp(u *unit.Unit, amount int) int {
	n := u.SpendWisp(amount)
	b.calc.Recalculate(u)
	return n
}

func (b *Battle) gainWisp(u *unit.Unit, amount int) int {
	n := u.GainWisp(amount)
	b.calc.Recalculate(u)
	return n
}

// Kill handles a unit's death exactly once: on-death passives, roster
// removal, devourer absorption by the killer and the UnitDied event.
//
// Postcondition: victim.HP == 0 and victim appears in no roster list.
func (b *Battle) Kill(victim, killer *unit.Unit, reason string) {
	if b.dead[victim] {
		return
	}
	b.dead[victim] = true
	victim.HP = 0
	absorbed := b.roster.Names(victim)
	deathPassives := b.roster.Triggered(victim, ruleset.OnDeath)
	b.roster.RemoveUnit(victim)

	for _, p := range deathPassives {
		if p.Status != "" && killer != nil && killer.Alive() {
			b.statuses.ApplyNamed(killer, p.Status, p.StatusTurns, victim)
		}
		if p.Amount > 0 {
			for _, ally := range b.Living(victim.Team) {
				if n := b.heal(ally, p.Amount); n > 0 {
					b.bus.Publish(event.Healed{Caster: victim, Target: ally, Amount: n})
				}
			}
		}
	}

	if killer != nil && killer.Alive() && b.roster.HasPassive(killer, passive.Devourer) {
		killer.Overrides = append(killer.Overrides, absorbed...)
		b.roster.Refresh(killer)
		b.calc.Recalculate(killer)
	}

	killerID := ""
	if killer != nil {
		killerID = killer.ID
	}
	b.logger.Info("unit died",
		zap.String("unit", victim.ID),
		zap.String("killer", killerID),
		zap.String("reason", reason),
	)
	b.bus.Publish(event.UnitDied{Victim: victim, Killer: killer, Reason: reason})
}

// combatant returns the formula view of u.
func (b *Battle) combatant(u *unit.Unit) formula.Combatant {
	return formula.FromStats(u.Final, u.Level, u.Origin)
}

// combatantAt is the formula view of u as if it stood on at.
func (b *Battle) combatantAt(u *unit.Unit, at grid.Coord) formula.Combatant {
	if at == u.Tile {
		return b.combatant(u)
	}
	return formula.FromStats(b.calc.ComputeAt(u, at), u.Level, u.Origin)
}

func obstacleCombatant(o *unit.Obstacle) formula.Combatant {
	return formula.Combatant{Defense: o.Defense, Resistance: o.Resistance, Wit: o.Wit, Level: 1}
}

// ScriptView exposes a read-only snapshot of a unit to Lua.
func (b *Battle) ScriptView(id string) *scripting.UnitInfo {
	u := b.UnitByID(id)
	if u == nil {
		return nil
	}
	info := &scripting.UnitInfo{
		ID:      u.ID,
		Name:    u.Name,
		Team:    u.Team.String(),
		X:       u.Tile.X,
		Y:       u.Tile.Y,
		HP:      u.HP,
		MaxHP:   u.MaxHP,
		Wisp:    u.Wisp,
		MaxWisp: u.MaxWisp,
		Level:   u.Level,
	}
	for typ := range u.Statuses {
		info.Statuses = append(info.Statuses, typ)
	}
	sort.Strings(info.Statuses)
	return info
}
