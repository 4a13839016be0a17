// Package passive maintains the per-team passive roster: for each team and
// passive name, the living units currently granting it.
package passive

import (
	"sort"

	"github.com/cory-johannsen/tactics/internal/game/ruleset"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// Engine-recognised passive names.
const (
	FriendlyFire = "friendly_fire" // attacks may damage the attacker's own team
	WispHunger   = "wisp_hunger"   // bonus damage while the attacker's wisp is empty
	Lifesteal    = "lifesteal"     // attacker heals a fraction of damage dealt
	WispSiphon   = "wisp_siphon"   // hits on enemies move wisp from defender to attacker
	Betrayal     = "betrayal"      // hitting an ally grants permanent attack and stuns the ally
	Devourer     = "devourer"      // kills absorb the victim's passives
	PhaseWalk    = "phase_walk"    // may move through tiles occupied by enemies
)

// Roster is the team-indexed passive membership table.
//
// Invariant: a unit appears under a name iff it is alive, has a team, and the
// name is in its blueprint, weapon or override passives as of its last Add.
// It is not safe for concurrent use; the engine is single-threaded.
type Roster struct {
	reg   *ruleset.Registry
	teams map[unit.Team]map[string][]*unit.Unit
}

// NewRoster creates an empty Roster resolving weapon passives through reg.
//
// Precondition: reg must not be nil.
func NewRoster(reg *ruleset.Registry) *Roster {
	if reg == nil {
		panic("passive.NewRoster: reg must not be nil")
	}
	return &Roster{reg: reg, teams: make(map[unit.Team]map[string][]*unit.Unit)}
}

// Names returns the full passive name set for u: blueprint ∪ weapon-granted ∪
// overrides, deduplicated, in first-seen order. An unknown weapon grants nothing.
func (r *Roster) Names(u *unit.Unit) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(names []string) {
		for _, n := range names {
			if n != "" && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	add(u.Passives)
	if w, ok := r.reg.Weapon(u.Weapon); ok {
		add(w.Passives)
	}
	add(u.Overrides)
	return out
}

// AddUnit inserts u under every passive name it currently grants. Dead units
// and units without a team are ignored. Adding a unit that is already present
// does not duplicate it.
func (r *Roster) AddUnit(u *unit.Unit) {
	if u == nil || !u.Alive() || u.Team == unit.NoTeam {
		return
	}
	team := r.teams[u.Team]
	if team == nil {
		team = make(map[string][]*unit.Unit)
		r.teams[u.Team] = team
	}
	for _, name := range r.Names(u) {
		if !contains(team[name], u) {
			team[name] = append(team[name], u)
		}
	}
}

// RemoveUnit deletes u from every list of every team, regardless of what it
// grants now, so no stale membership can survive a change of state.
func (r *Roster) RemoveUnit(u *unit.Unit) {
	if u == nil {
		return
	}
	for _, team := range r.teams {
		for name, members := range team {
			out := members[:0]
			for _, m := range members {
				if m != u {
					out = append(out, m)
				}
			}
			if len(out) == 0 {
				delete(team, name)
			} else {
				team[name] = out
			}
		}
	}
}

// Refresh fully removes and re-adds u. Call after death, weapon change, team
// change or any override mutation.
func (r *Roster) Refresh(u *unit.Unit) {
	r.RemoveUnit(u)
	r.AddUnit(u)
}

// HasPassive reports whether u currently grants name, by scanning its team's list.
func (r *Roster) HasPassive(u *unit.Unit, name string) bool {
	if u == nil {
		return false
	}
	return contains(r.teams[u.Team][name], u)
}

// Providers returns the units on team currently granting name, in insertion order.
func (r *Roster) Providers(team unit.Team, name string) []*unit.Unit {
	members := r.teams[team][name]
	out := make([]*unit.Unit, len(members))
	copy(out, members)
	return out
}

// TeamHas reports whether any living unit on team grants name.
func (r *Roster) TeamHas(team unit.Team, name string) bool {
	return len(r.teams[team][name]) > 0
}

// PassivesOf returns the sorted names u is currently registered under.
func (r *Roster) PassivesOf(u *unit.Unit) []string {
	var out []string
	if u == nil {
		return out
	}
	for name, members := range r.teams[u.Team] {
		if contains(members, u) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Triggered returns the definitions of u's registered passives with trigger t,
// sorted by name. Names without a definition are skipped.
func (r *Roster) Triggered(u *unit.Unit, t ruleset.Trigger) []*ruleset.PassiveDef {
	var out []*ruleset.PassiveDef
	for _, name := range r.PassivesOf(u) {
		if def, ok := r.reg.Passive(name); ok && def.Trigger == t {
			out = append(out, def)
		}
	}
	return out
}

// Def returns the definition of passive name when u grants it.
func (r *Roster) Def(u *unit.Unit, name string) (*ruleset.PassiveDef, bool) {
	if !r.HasPassive(u, name) {
		return nil, false
	}
	return r.reg.Passive(name)
}

func contains(members []*unit.Unit, u *unit.Unit) bool {
	for _, m := range members {
		if m == u {
			return true
		}
	}
	return false
}
