package combat

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/event"
	"github.com/cory-johannsen/tactics/internal/game/formula"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/passive"
	"github.com/cory-johannsen/tactics/internal/game/ruleset"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

const defaultHungerMultiplier = 1.5

// Enqueue adds e to the pending effects. It is first eligible on the next
// ResolveAttackEffects call.
//
// Precondition: e.Attacker must not be nil.
func (b *Battle) Enqueue(e *Effect) {
	if e.Attacker == nil {
		panic("combat.Battle.Enqueue: effect attacker must not be nil")
	}
	b.effects = append(b.effects, e)
}

// Effects returns the effects currently pending or lingering.
func (b *Battle) Effects() []*Effect {
	return append([]*Effect(nil), b.effects...)
}

// ResolveAttackEffects advances every effect by dt, resolves the eligible
// ones, expires resolved effects whose lifetime has elapsed and decays
// continuous statuses.
//
// The batch is snapshotted before resolution starts, so effects created while
// resolving wait for the next call.
//
// Postcondition: every effect in the batch whose delay reached zero is resolved exactly once.
func (b *Battle) ResolveAttackEffects(dt time.Duration) {
	batch := append([]*Effect(nil), b.effects...)
	for _, e := range batch {
		if e.resolved {
			e.age += dt
			continue
		}
		e.Delay -= dt
		if e.Delay > 0 {
			continue
		}
		b.resolve(e)
	}

	kept := b.effects[:0]
	for _, e := range b.effects {
		if e.resolved && e.age >= b.rules.EffectLifetime {
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(b.effects); i++ {
		b.effects[i] = nil
	}
	b.effects = kept

	for _, u := range b.units {
		if u.Alive() {
			b.statuses.Elapse(u, dt)
		}
	}
}

// resolve runs the pipeline for one effect.
func (b *Battle) resolve(e *Effect) {
	if e.resolved {
		return
	}
	e.resolved = true
	defer b.settle(e)

	def, ok := b.reg.Attack(e.Attack)
	if !ok {
		b.logger.Warn("effect references unknown attack", zap.String("attack", e.Attack))
		return
	}
	attacker := e.Attacker
	if !attacker.Alive() {
		return
	}
	if def.CritMultiplier <= 0 {
		adjusted := *def
		adjusted.CritMultiplier = b.rules.CritMultiplier
		def = &adjusted
	}

	if def.TileStatus != "" {
		b.applyTileStatus(e, def)
	}

	units, obstacles := b.candidates(e, def)
	for _, t := range units {
		if def.IsHeal() {
			b.healUnit(e, def, t)
		} else {
			b.strikeUnit(e, def, t)
		}
	}
	if !def.IsHeal() {
		for _, o := range obstacles {
			b.strikeObstacle(e, def, o)
		}
	}
}

func (b *Battle) applyTileStatus(e *Effect, def *ruleset.AttackDef) {
	sdef, ok := b.reg.Status(def.TileStatus)
	if !ok {
		return
	}
	for _, c := range e.Area.Coords() {
		if sdef.Flammable {
			b.statuses.IgniteAndSpread(c, def.TileStatus, b.rules.FireTurns, e.Attacker.ID)
		} else {
			b.statuses.ApplyTile(c, def.TileStatus, 0, e.Attacker.ID)
		}
	}
}

// candidates returns the living units and standing destructible obstacles
// inside e's area that its scope admits.
func (b *Battle) candidates(e *Effect, def *ruleset.AttackDef) ([]*unit.Unit, []*unit.Obstacle) {
	attacker := e.Attacker
	harmsAllies := b.roster.HasPassive(attacker, passive.FriendlyFire) || b.roster.HasPassive(attacker, passive.Betrayal)

	var units []*unit.Unit
	for _, u := range b.units {
		if !u.Alive() || !e.Area.Overlaps(u.Bounds()) {
			continue
		}
		same := u.Team == attacker.Team
		admit := false
		switch e.Scope {
		case ScopeAllied:
			admit = same
		case ScopeEveryone:
			admit = true
		default:
			admit = attacker.Team.Opposes(u.Team) || (harmsAllies && same)
		}
		if !def.IsHeal() && u == attacker {
			admit = false
		}
		if admit {
			units = append(units, u)
		}
	}

	var obstacles []*unit.Obstacle
	if e.Scope != ScopeAllied {
		for _, o := range b.obstacles {
			if o.Destructible() && o.Standing() && e.Area.Overlaps(o.Bounds()) {
				obstacles = append(obstacles, o)
			}
		}
	}
	return units, obstacles
}

func (b *Battle) healUnit(e *Effect, def *ruleset.AttackDef, t *unit.Unit) {
	healed := b.heal(t, formula.HealAmount(b.combatant(e.Attacker), def))
	if def.Cleanse {
		b.statuses.Cleanse(t)
	}
	if typ := b.effectStatus(e, def); typ != "" {
		b.statuses.ApplyNamed(t, typ, b.effectStatusTurns(e, def), e.Attacker)
	}
	b.bus.Publish(event.Healed{Caster: e.Attacker, Target: t, Amount: healed})
}

func (b *Battle) effectStatus(e *Effect, def *ruleset.AttackDef) string {
	if e.Status != "" {
		return e.Status
	}
	return def.Status
}

func (b *Battle) effectStatusTurns(e *Effect, def *ruleset.AttackDef) int {
	if e.Status != "" {
		return e.StatusTurns
	}
	return def.StatusTurns
}

// strikeUnit runs the damage path against one unit: hit roll, facing, crit,
// damage with passive modifiers, experience, damage and status application,
// then the counter check.
func (b *Battle) strikeUnit(e *Effect, def *ruleset.AttackDef, t *unit.Unit) {
	attacker := e.Attacker
	if !t.Alive() || !attacker.Alive() {
		return
	}
	ac, dc := b.combatant(attacker), b.combatant(t)
	if !b.roller.Chance("hit:"+def.Name, formula.HitChance(ac, dc, def.Accuracy)) {
		b.bus.Publish(event.Missed{Attacker: attacker, Target: t, Attack: def.Name})
		return
	}

	statusType := b.effectStatus(e, def)
	incoming, hasIncoming := b.reg.Status(statusType)
	if !hasIncoming || !incoming.SuppressFacing {
		t.Facing = grid.FacingToward(t.Tile, attacker.Tile, t.Facing)
	}

	crit := b.roller.Chance("crit:"+def.Name, formula.CritChance(ac, dc, def.Crit))
	dmg := formula.FinalDamage(ac, dc, def, b.reg.Effectiveness(), crit)
	damage := b.modifiedDamage(e, dmg.Amount)

	if p, ok := b.roster.Def(attacker, passive.Lifesteal); ok && p.Fraction > 0 {
		if n := b.heal(attacker, int(float64(min(damage, t.HP))*p.Fraction)); n > 0 {
			b.bus.Publish(event.Healed{Caster: attacker, Target: attacker, Amount: n})
		}
	}
	b.payWeaponWisp(e)
	if attacker.Team.Opposes(t.Team) {
		if p, ok := b.roster.Def(attacker, passive.WispSiphon); ok {
			b.gainWisp(attacker, b.spendWisp(t, max(p.Amount, 1)))
		}
	}
	if attacker.Team == t.Team {
		if p, ok := b.roster.Def(attacker, passive.Betrayal); ok {
			b.betray(attacker, t, p)
		}
	}
	lethal := damage >= t.HP
	if attacker.IsPlayerControlled() && t.Team == unit.TeamEnemy {
		b.grantExp(attacker, formula.ExpGain(ac, dc, lethal), !e.Props.Free)
	}

	dealt := b.hurt(t, damage)
	hit := event.Hit{
		Attacker: attacker,
		Target:   t,
		Attack:   def.Name,
		Damage:   dealt,
		Crit:     dmg.Crit,
		Strong:   dmg.Strong,
		Counter:  e.Props.Counter,
	}
	if !t.Alive() {
		b.bus.Publish(hit)
		b.Kill(t, attacker, def.Name)
		return
	}
	if statusType != "" {
		b.applyHitStatus(e, def, t, statusType, incoming)
	}
	for _, p := range b.roster.Triggered(attacker, ruleset.OnHit) {
		if p.Status != "" {
			b.statuses.ApplyNamed(t, p.Status, p.StatusTurns, attacker)
		}
	}
	b.bus.Publish(hit)

	if hasIncoming && incoming.Kind == ruleset.KindAirborne {
		return
	}
	b.maybeCounter(e, t)
}

// modifiedDamage applies the effect multiplier and the hunger bonus.
func (b *Battle) modifiedDamage(e *Effect, base int) int {
	amount := float64(base)
	if m := e.Props.Multiplier; m > 0 {
		amount *= m
	}
	if e.Attacker.Wisp == 0 {
		if p, ok := b.roster.Def(e.Attacker, passive.WispHunger); ok {
			mult := p.Multiplier
			if mult <= 0 {
				mult = defaultHungerMultiplier
			}
			amount *= mult
		}
	}
	return max(int(amount), 0)
}

// payWeaponWisp charges the equipped weapon's per-attack cost once per instance.
func (b *Battle) payWeaponWisp(e *Effect) {
	w, ok := b.reg.Weapon(e.Attacker.Weapon)
	if !ok || w.WispPerAttack <= 0 {
		return
	}
	if id := e.Props.InstanceID; id != "" {
		if b.paid[id] {
			return
		}
		b.paid[id] = true
	}
	b.spendWisp(e.Attacker, w.WispPerAttack)
}

func (b *Battle) betray(attacker, ally *unit.Unit, p *ruleset.PassiveDef) {
	attacker.Base.Attack += max(p.Amount, 1)
	b.calc.Recalculate(attacker)
	stun := p.Status
	if stun == "" {
		stun = "stun"
	}
	b.statuses.ApplyNamed(ally, stun, p.StatusTurns, attacker)
}

func (b *Battle) grantExp(u *unit.Unit, amount int, consumesTurn bool) {
	u.Exp += amount
	levelUp := false
	for u.Exp >= b.rules.ExpPerLevel {
		u.Exp -= b.rules.ExpPerLevel
		u.Level++
		levelUp = true
	}
	if levelUp {
		b.calc.Recalculate(u)
		b.logger.Debug("level up", zap.String("unit", u.ID), zap.Int("level", u.Level))
	}
	b.bus.Publish(event.ExperienceGained{Unit: u, Amount: amount, LevelUp: levelUp, ConsumesTurn: consumesTurn})
}

// applyHitStatus attaches the effect's status to t. Knockback statuses push t
// away from the attacker and are removed once the push is done.
func (b *Battle) applyHitStatus(e *Effect, def *ruleset.AttackDef, t *unit.Unit, typ string, sdef *ruleset.StatusDef) {
	s := unit.Status{Type: typ, Turns: b.effectStatusTurns(e, def), Attacker: e.Attacker}
	knockback := sdef != nil && sdef.Kind == ruleset.KindKnockback
	if knockback {
		s.Force = def.Force
		s.Direction = grid.FacingToward(e.Attacker.Tile, t.Tile, e.Attacker.Facing).Step()
	}
	inst, ok := b.statuses.Apply(t, s)
	if !ok || !knockback {
		return
	}
	b.knockback(t, inst.Force, inst.Direction)
	b.statuses.Remove(t, typ)
}

// knockback pushes t up to force minus its weight tiles along dir, stopping
// before the first tile it cannot occupy.
func (b *Battle) knockback(t *unit.Unit, force int, dir grid.Coord) {
	if t.Weight == unit.Immovable {
		return
	}
	steps := force - int(t.Weight)
	dest := t.Tile
	for i := 0; i < steps; i++ {
		next := dest.Add(dir)
		if !b.canStand(t, next) {
			break
		}
		dest = next
	}
	if dest == t.Tile {
		return
	}
	t.TurnEndedByForcedMove = true
	b.place(t, dest)
}

// canStand reports whether u could end a forced move on c.
func (b *Battle) canStand(u *unit.Unit, c grid.Coord) bool {
	terrain := b.grid.Terrain(c)
	if terrain == nil || !terrain.CanLand(u.Traversal) {
		return false
	}
	if other := b.UnitAt(c); other != nil && other != u {
		return false
	}
	return !b.Blocked(c)
}

func (b *Battle) strikeObstacle(e *Effect, def *ruleset.AttackDef, o *unit.Obstacle) {
	if !o.Standing() {
		return
	}
	attacker := e.Attacker
	ac, oc := b.combatant(attacker), obstacleCombatant(o)
	if !b.roller.Chance("hit:"+def.Name, formula.HitChance(ac, oc, def.Accuracy)) {
		b.bus.Publish(event.Missed{Attacker: attacker, Target: o, Attack: def.Name})
		return
	}
	crit := b.roller.Chance("crit:"+def.Name, formula.CritChance(ac, oc, def.Crit))
	dmg := formula.FinalDamage(ac, oc, def, nil, crit)
	b.payWeaponWisp(e)
	dealt := o.TakeDamage(b.modifiedDamage(e, dmg.Amount))
	b.bus.Publish(event.Hit{
		Attacker: attacker,
		Target:   o,
		Attack:   def.Name,
		Damage:   dealt,
		Crit:     dmg.Crit,
		Counter:  e.Props.Counter,
	})
	if !o.Standing() {
		b.removeObstacle(o, attacker)
	}
}

// settle counts e against its attack instance and finalizes the attacker's
// action once every effect of a turn-consuming instance has resolved.
func (b *Battle) settle(e *Effect) {
	id := e.Props.InstanceID
	inst, ok := b.inFlight[id]
	if !ok {
		return
	}
	inst.remaining--
	if inst.remaining > 0 {
		return
	}
	delete(b.inFlight, id)
	delete(b.paid, id)
	for k := range b.countered {
		if k.instance == id {
			delete(b.countered, k)
		}
	}
	if inst.free {
		return
	}
	inst.attacker.ActionInProgress = false
	inst.attacker.HasActed = true
	b.bus.Publish(event.ActionFinalized{Unit: inst.attacker})
}
