package combat

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ruleset"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// PendingCounter is a scheduled counter-attack awaiting its delay.
type PendingCounter struct {
	// Attacker is the unit that will be struck back.
	Attacker *unit.Unit
	// Defender performs the counter.
	Defender *unit.Unit
	Attack   string
	Delay    time.Duration
}

// CounterQueue holds counters in scheduling order.
type CounterQueue struct {
	pending []*PendingCounter
}

// Len returns the number of counters still waiting.
func (q *CounterQueue) Len() int { return len(q.pending) }

// Pending returns a copy of the waiting counters.
func (q *CounterQueue) Pending() []PendingCounter {
	out := make([]PendingCounter, 0, len(q.pending))
	for _, p := range q.pending {
		out = append(out, *p)
	}
	return out
}

func (q *CounterQueue) push(p *PendingCounter) { q.pending = append(q.pending, p) }

// Counters returns the battle's counter queue.
func (b *Battle) Counters() *CounterQueue { return &b.counters }

// maybeCounter schedules t's counter against e's attacker when every
// counter condition holds: the effect is not itself a counter or
// reaction, t survived and can act, and t's basic attack reaches the
// attacker from where t stands. At most one counter is scheduled per
// defender per attack instance.
func (b *Battle) maybeCounter(e *Effect, t *unit.Unit) {
	if e.Props.Counter || e.Props.NoCounter {
		return
	}
	if !t.Alive() || b.statuses.HasKind(t, ruleset.KindStun) || b.statuses.HasKind(t, ruleset.KindAirborne) {
		return
	}
	basic, ok := b.reg.Attack(t.BasicAttack())
	if !ok || basic.IsHeal() || !basic.Reaches(t.Tile, e.Attacker.Tile) {
		return
	}
	if id := e.Props.InstanceID; id != "" {
		key := counterKey{defender: t, instance: id}
		if b.countered[key] {
			return
		}
		b.countered[key] = true
	}
	b.counters.push(&PendingCounter{
		Attacker: e.Attacker,
		Defender: t,
		Attack:   basic.Name,
		Delay:    b.rules.CounterDelay,
	})
	b.logger.Debug("counter scheduled",
		zap.String("defender", t.ID),
		zap.String("attacker", e.Attacker.ID),
		zap.String("attack", basic.Name),
	)
}

// AdvanceCounters ages every pending counter by dt. Counters whose delay has
// elapsed are re-validated against current positions and either launched as
// free counter effects or discarded. It returns the number launched.
func (b *Battle) AdvanceCounters(dt time.Duration) int {
	launched := 0
	var waiting []*PendingCounter
	for _, p := range b.counters.pending {
		p.Delay -= dt
		if p.Delay > 0 {
			waiting = append(waiting, p)
			continue
		}
		if reason := b.counterBlocked(p); reason != "" {
			b.logger.Debug("counter discarded",
				zap.String("defender", p.Defender.ID),
				zap.String("reason", reason),
			)
			continue
		}
		def, _ := b.reg.Attack(p.Attack)
		p.Defender.Facing = grid.FacingToward(p.Defender.Tile, p.Attacker.Tile, p.Defender.Facing)
		scope := ScopeOpposing
		if !p.Defender.Team.Opposes(p.Attacker.Team) {
			scope = ScopeEveryone
		}
		b.launch(p.Defender, def, p.Attacker.Tile, scope, Props{Counter: true, Free: true})
		launched++
	}
	b.counters.pending = waiting
	return launched
}

// counterBlocked returns why p can no longer fire, or "" if it can.
func (b *Battle) counterBlocked(p *PendingCounter) string {
	switch {
	case !p.Defender.Alive():
		return "defender dead"
	case p.Defender.PendingDamageDisplay:
		return "defender mid-hit"
	case !p.Attacker.Alive():
		return "attacker dead"
	case b.statuses.PreventsAction(p.Defender):
		return "defender cannot act"
	}
	def, ok := b.reg.Attack(p.Attack)
	if !ok || !def.Reaches(p.Defender.Tile, p.Attacker.Tile) {
		return "out of range"
	}
	return ""
}
