// Package status owns the lifecycle of status effects on units and tiles:
// application and refresh, per-turn and continuous decay, externally driven
// durations, and fire spreading across tiles.
package status

import (
	"sort"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/event"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ruleset"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// Recalculator refreshes a unit's final stats after its statuses change.
type Recalculator interface {
	Recalculate(u *unit.Unit)
}

// Damager applies status damage so that deaths are attributed and announced
// by the owner of kill handling.
type Damager interface {
	// StatusDamage deals amount to target on behalf of attacker (may be nil).
	StatusDamage(target, attacker *unit.Unit, amount int, source string)
}

// ScriptCaller evaluates lua_on_tick hooks.
type ScriptCaller interface {
	CallHook(hook string, args ...lua.LValue) (lua.LValue, error)
}

// Manager applies, ticks and removes statuses. It is the only writer of
// unit.Statuses and of grid tile statuses.
type Manager struct {
	reg     *ruleset.Registry
	grid    *grid.Grid
	bus     *event.Bus
	recalc  Recalculator
	scripts ScriptCaller
	damager Damager
	logger  *zap.Logger
}

// NewManager creates a Manager. g may be nil when no tile statuses are used.
//
// Precondition: reg, bus, recalc and logger must not be nil.
func NewManager(reg *ruleset.Registry, g *grid.Grid, bus *event.Bus, recalc Recalculator, logger *zap.Logger) *Manager {
	if reg == nil || bus == nil || recalc == nil || logger == nil {
		panic("status.NewManager: reg, bus, recalc and logger must not be nil")
	}
	return &Manager{reg: reg, grid: g, bus: bus, recalc: recalc, logger: logger}
}

// SetScripts installs the Lua hook caller used by lua_on_tick.
func (m *Manager) SetScripts(s ScriptCaller) { m.scripts = s }

// SetDamager installs the sink for tick damage. Without one, tick damage is
// applied directly to the unit's health and its final stats are recalculated.
func (m *Manager) SetDamager(d Damager) { m.damager = d }

// Apply creates or refreshes s on target. Re-applying a type the target
// already holds replaces its duration and payload; stackable definitions
// additionally add one stack up to MaxStacks. Unknown types, dead targets
// and finite durations that resolve to <= 0 are no-ops.
//
// Postcondition: on true, target.Statuses[s.Type] holds exactly one instance,
// target's final stats are recalculated, and StatusApplied has been published.
func (m *Manager) Apply(target *unit.Unit, s unit.Status) (*unit.Status, bool) {
	if target == nil || !target.Alive() {
		return nil, false
	}
	def, ok := m.reg.Status(s.Type)
	if !ok || def.Tile {
		return nil, false
	}
	s.Unit = def.Unit
	s.External = s.External || def.External
	switch def.Unit {
	case ruleset.Turns:
		if s.Turns == 0 {
			s.Turns = def.Turns
		}
		if s.Turns <= 0 {
			return nil, false
		}
	case ruleset.Continuous:
		if s.Remaining == 0 {
			s.Remaining = def.Time
		}
		if s.Remaining <= 0 {
			return nil, false
		}
	}
	s.Stacks = 1
	if prev, had := target.Statuses[s.Type]; had && def.Stackable() {
		s.Stacks = min(prev.Stacks+1, def.MaxStacks)
	}
	inst := &s
	target.Statuses[s.Type] = inst
	m.recalc.Recalculate(target)
	m.logger.Debug("status applied",
		zap.String("unit", target.ID),
		zap.String("status", s.Type),
		zap.Int("turns", s.Turns),
		zap.Int("stacks", s.Stacks),
	)
	m.bus.Publish(event.StatusApplied{Target: target, Effect: inst})
	return inst, true
}

// ApplyNamed is Apply for the common case of a turn-count status with an attacker.
// turns == 0 uses the definition's duration.
func (m *Manager) ApplyNamed(target *unit.Unit, typ string, turns int, attacker *unit.Unit) bool {
	_, ok := m.Apply(target, unit.Status{Type: typ, Turns: turns, Attacker: attacker})
	return ok
}

// Remove deletes status typ from target. Absent statuses are a no-op.
//
// Postcondition: on true, target's final stats are recalculated and
// StatusRemoved has been published.
func (m *Manager) Remove(target *unit.Unit, typ string) bool {
	if target == nil {
		return false
	}
	s, ok := target.Statuses[typ]
	if !ok {
		return false
	}
	delete(target.Statuses, typ)
	m.recalc.Recalculate(target)
	m.logger.Debug("status removed", zap.String("unit", target.ID), zap.String("status", typ))
	m.bus.Publish(event.StatusRemoved{Target: target, Effect: s})
	return true
}

// Def returns the definition of an active status instance.
func (m *Manager) Def(s *unit.Status) (*ruleset.StatusDef, bool) {
	if s == nil {
		return nil, false
	}
	return m.reg.Status(s.Type)
}

// HasKind reports whether u holds any status whose definition is of kind k.
func (m *Manager) HasKind(u *unit.Unit, k ruleset.StatusKind) bool {
	return m.FindKind(u, k) != nil
}

// FindKind returns u's first status (by type name) of kind k, or nil.
func (m *Manager) FindKind(u *unit.Unit, k ruleset.StatusKind) *unit.Status {
	for _, typ := range sortedTypes(u) {
		if def, ok := m.reg.Status(typ); ok && def.Kind == k {
			return u.Statuses[typ]
		}
	}
	return nil
}

// PreventsAction reports whether any active status forbids u from acting.
func (m *Manager) PreventsAction(u *unit.Unit) bool {
	for typ := range u.Statuses {
		if def, ok := m.reg.Status(typ); ok && (def.PreventsAction || def.Kind == ruleset.KindStun) {
			return true
		}
	}
	return false
}

// TickEndOfTurn runs the per-turn behaviour of every turn-based status on u
// that is not externally controlled: tick damage (plus any lua_on_tick
// result) attributed to the stored attacker, then a one-turn decrement.
// Statuses reaching zero are removed. Processing is in type-name order.
func (m *Manager) TickEndOfTurn(u *unit.Unit) {
	if u == nil {
		return
	}
	for _, typ := range sortedTypes(u) {
		s, ok := u.Statuses[typ]
		if !ok || s.External || s.Unit != ruleset.Turns {
			continue
		}
		damage := 0
		if def, ok := m.reg.Status(typ); ok {
			damage = def.TickDamage * max(s.Stacks, 1)
			damage += m.scriptedTick(def, u, s)
		}
		if damage > 0 {
			m.dealTick(u, s.Attacker, damage, typ)
		}
		if !u.Alive() {
			return
		}
		s.Turns--
		if s.Turns <= 0 {
			m.Remove(u, typ)
		}
	}
}

func (m *Manager) scriptedTick(def *ruleset.StatusDef, u *unit.Unit, s *unit.Status) int {
	if def.LuaOnTick == "" || m.scripts == nil {
		return 0
	}
	ret, err := m.scripts.CallHook(def.LuaOnTick, lua.LString(u.ID), lua.LNumber(s.Turns))
	if err != nil {
		return 0
	}
	if n, ok := ret.(lua.LNumber); ok && n > 0 {
		return int(n)
	}
	return 0
}

func (m *Manager) dealTick(u, attacker *unit.Unit, amount int, source string) {
	m.logger.Debug("status tick",
		zap.String("unit", u.ID),
		zap.String("status", source),
		zap.Int("damage", amount),
	)
	if m.damager != nil {
		m.damager.StatusDamage(u, attacker, amount, source)
		return
	}
	u.TakeDamage(amount)
	m.recalc.Recalculate(u)
}

// Elapse advances every continuous, non-external status on u by dt and
// removes those whose remaining time reaches zero.
func (m *Manager) Elapse(u *unit.Unit, dt time.Duration) {
	if u == nil || dt <= 0 {
		return
	}
	for _, typ := range sortedTypes(u) {
		s, ok := u.Statuses[typ]
		if !ok || s.External || s.Unit != ruleset.Continuous {
			continue
		}
		s.Remaining -= dt
		if s.Remaining <= 0 {
			m.Remove(u, typ)
		}
	}
}

// Cleanse removes every cleansable status from u and returns how many were removed.
func (m *Manager) Cleanse(u *unit.Unit) int {
	n := 0
	for _, typ := range sortedTypes(u) {
		if def, ok := m.reg.Status(typ); ok && def.Cleansable && m.Remove(u, typ) {
			n++
		}
	}
	return n
}

func sortedTypes(u *unit.Unit) []string {
	out := make([]string, 0, len(u.Statuses))
	for typ := range u.Statuses {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}
