package combat

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/formula"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ruleset"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// Knows reports whether u can use the named attack.
func Knows(u *unit.Unit, attack string) bool {
	for _, a := range u.Attacks {
		if a == attack {
			return true
		}
	}
	return false
}

// CanTarget reports whether attacker, standing on from, may use attack on
// target: the attacker is alive and able to act, knows the attack, can pay
// its wisp cost, and the attack's pattern reaches target from from.
func (b *Battle) CanTarget(attacker *unit.Unit, attack string, from, target grid.Coord) bool {
	def, ok := b.reg.Attack(attack)
	if !ok || !attacker.Alive() || !Knows(attacker, attack) {
		return false
	}
	if attacker.Wisp < def.WispCost || b.statuses.PreventsAction(attacker) {
		return false
	}
	return b.grid.InBounds(target) && def.Reaches(from, target)
}

// Targets returns every in-bounds tile attacker could aim attack at from from,
// in pattern order.
func (b *Battle) Targets(attacker *unit.Unit, attack string, from grid.Coord) []grid.Coord {
	def, ok := b.reg.Attack(attack)
	if !ok {
		return nil
	}
	var out []grid.Coord
	for _, off := range def.Offsets() {
		if c := from.Add(off); b.CanTarget(attacker, attack, from, c) {
			out = append(out, c)
		}
	}
	return out
}

// PerformAttack starts attacker's attack on target: the wisp cost is paid and
// one effect per area tile is queued, staggered by the attack's delay.
//
// Postcondition: on true, attacker.ActionInProgress is set until every effect
// of the attack has resolved, after which ActionFinalized is published.
func (b *Battle) PerformAttack(attacker *unit.Unit, attack string, target grid.Coord) bool {
	if !b.CanTarget(attacker, attack, attacker.Tile, target) {
		return false
	}
	def, _ := b.reg.Attack(attack)
	b.spendWisp(attacker, def.WispCost)
	attacker.Facing = grid.FacingToward(attacker.Tile, target, attacker.Facing)
	scope := ScopeOpposing
	if def.IsHeal() {
		scope = ScopeAllied
	}
	return b.launch(attacker, def, target, scope, Props{}) > 0
}

// launch queues the effects of one attack instance and returns how many were queued.
func (b *Battle) launch(attacker *unit.Unit, def *ruleset.AttackDef, target grid.Coord, scope Scope, props Props) int {
	props.InstanceID = uuid.NewString()
	n := 0
	for i, off := range def.AreaOffsets() {
		c := target.Add(off)
		if !b.grid.InBounds(c) {
			continue
		}
		b.Enqueue(&Effect{
			Attacker: attacker,
			Attack:   def.Name,
			Area:     grid.Tile(c),
			Scope:    scope,
			Props:    props,
			Delay:    def.Stagger * time.Duration(i),
		})
		n++
	}
	if n == 0 {
		return 0
	}
	b.inFlight[props.InstanceID] = &instance{attacker: attacker, remaining: n, free: props.Free}
	if !props.Free {
		attacker.ActionInProgress = true
	}
	b.logger.Debug("attack launched",
		zap.String("attacker", attacker.ID),
		zap.String("attack", def.Name),
		zap.Stringer("target", target),
		zap.Int("effects", n),
		zap.Bool("counter", props.Counter),
	)
	return n
}

// Forecast is the expected outcome of one attack against one target.
type Forecast struct {
	Hit    float64
	Damage int
	Lethal bool
}

// ForecastUnit predicts attacker's attack against defender without rolling,
// with attacker standing on from. Damage is the non-critical amount including
// passive modifiers.
func (b *Battle) ForecastUnit(attacker *unit.Unit, attack string, from grid.Coord, defender *unit.Unit) (Forecast, bool) {
	def, ok := b.reg.Attack(attack)
	if !ok || def.IsHeal() {
		return Forecast{}, false
	}
	ac, dc := b.combatantAt(attacker, from), b.combatant(defender)
	dmg := formula.FinalDamage(ac, dc, def, b.reg.Effectiveness(), false)
	damage := b.modifiedDamage(&Effect{Attacker: attacker}, dmg.Amount)
	return Forecast{
		Hit:    formula.HitChance(ac, dc, def.Accuracy),
		Damage: damage,
		Lethal: damage >= defender.HP,
	}, true
}

// ForecastObstacle predicts attacker's attack from tile from against a
// destructible obstacle.
func (b *Battle) ForecastObstacle(attacker *unit.Unit, attack string, from grid.Coord, o *unit.Obstacle) (Forecast, bool) {
	def, ok := b.reg.Attack(attack)
	if !ok || def.IsHeal() || !o.Destructible() {
		return Forecast{}, false
	}
	ac, oc := b.combatantAt(attacker, from), obstacleCombatant(o)
	dmg := formula.FinalDamage(ac, oc, def, nil, false)
	damage := b.modifiedDamage(&Effect{Attacker: attacker}, dmg.Amount)
	return Forecast{
		Hit:    formula.HitChance(ac, oc, def.Accuracy),
		Damage: damage,
		Lethal: damage >= *o.HP,
	}, true
}

// Idle reports whether no effect, counter or action is in flight.
func (b *Battle) Idle() bool {
	if len(b.counters.pending) > 0 || len(b.inFlight) > 0 {
		return false
	}
	for _, e := range b.effects {
		if !e.resolved {
			return false
		}
	}
	return true
}
