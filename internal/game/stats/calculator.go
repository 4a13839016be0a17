// Package stats recomputes a unit's final stats from their sources.
package stats

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/passive"
	"github.com/cory-johannsen/tactics/internal/game/ruleset"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// ScriptCaller evaluates Lua passive conditions.
type ScriptCaller interface {
	// CallHook calls a named Lua function. Returns (LNil, nil) if it is not defined.
	CallHook(hook string, args ...lua.LValue) (lua.LValue, error)
}

// Calculator derives Final stats. It never caches: every call recomputes
// from base, weapon, statuses, conditional passives and terrain.
type Calculator struct {
	reg     *ruleset.Registry
	roster  *passive.Roster
	grid    *grid.Grid
	scripts ScriptCaller
}

// NewCalculator creates a Calculator. g and scripts may be nil, in which case
// terrain bonuses and Lua conditions are treated as absent.
//
// Precondition: reg and roster must not be nil.
func NewCalculator(reg *ruleset.Registry, roster *passive.Roster, g *grid.Grid, scripts ScriptCaller) *Calculator {
	if reg == nil {
		panic("stats.NewCalculator: reg must not be nil")
	}
	if roster == nil {
		panic("stats.NewCalculator: roster must not be nil")
	}
	return &Calculator{reg: reg, roster: roster, grid: g, scripts: scripts}
}

// Compute returns u's final stats without storing them.
//
// Postcondition: every field of the result is >= 0.
func (c *Calculator) Compute(u *unit.Unit) ruleset.Stats {
	return c.ComputeAt(u, u.Tile)
}

// ComputeAt returns the final stats u would have standing on at: terrain
// bonuses and terrain: conditions use at instead of u.Tile. Lua conditions
// still see the unit where it is.
func (c *Calculator) ComputeAt(u *unit.Unit, at grid.Coord) ruleset.Stats {
	final := u.Base
	if w, ok := c.reg.Weapon(u.Weapon); ok {
		final = final.Plus(w.Stats)
	}
	for typ, s := range u.Statuses {
		def, ok := c.reg.Status(typ)
		if !ok {
			continue
		}
		final = final.Plus(def.Stats.Scaled(max(s.Stacks, 1)))
	}
	for _, p := range c.roster.Triggered(u, ruleset.ConditionalStat) {
		if c.holds(u, p, at) {
			final = final.Plus(p.Stats)
		}
	}
	if t := c.terrain(at); t != nil {
		final.Defense += t.DefenseBonus
		final.Resistance += t.ResistanceBonus
		final.Wit += t.WitBonus
	}
	return final.Floored()
}

// Recalculate stores Compute(u) in u.Final.
func (c *Calculator) Recalculate(u *unit.Unit) {
	if u == nil {
		return
	}
	u.Final = c.Compute(u)
}

func (c *Calculator) terrain(at grid.Coord) *grid.Terrain {
	if c.grid == nil || !c.grid.InBounds(at) {
		return nil
	}
	return c.grid.Terrain(at)
}

// holds evaluates a conditional_stat passive. Unknown conditions are false.
func (c *Calculator) holds(u *unit.Unit, p *ruleset.PassiveDef, at grid.Coord) bool {
	if p.LuaCondition != "" {
		if c.scripts == nil {
			return false
		}
		ret, err := c.scripts.CallHook(p.LuaCondition, lua.LString(u.ID))
		return err == nil && lua.LVAsBool(ret)
	}
	cond := p.Condition
	switch {
	case cond == "" || cond == "always":
		return true
	case cond == "hp_below_half":
		return u.HP*2 < u.MaxHP
	case cond == "wisp_empty":
		return u.Wisp == 0
	case strings.HasPrefix(cond, "terrain:"):
		t := c.terrain(at)
		return t != nil && t.Name == strings.TrimPrefix(cond, "terrain:")
	case strings.HasPrefix(cond, "status:"):
		return u.HasStatus(strings.TrimPrefix(cond, "status:"))
	}
	return false
}
