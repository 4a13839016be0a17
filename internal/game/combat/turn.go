package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/event"
	"github.com/cory-johannsen/tactics/internal/game/ruleset"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// TickStatusEffects ends u's turn: its turn-based statuses tick, its
// on_turn_end passives fire and, if it has not acted yet, its turn is
// finalized as a wait.
func (b *Battle) TickStatusEffects(u *unit.Unit) {
	if u == nil || !u.Alive() {
		return
	}
	b.statuses.TickEndOfTurn(u)
	if !u.Alive() {
		return
	}
	for _, p := range b.roster.Triggered(u, ruleset.OnTurnEnd) {
		if p.Amount > 0 {
			if n := b.heal(u, p.Amount); n > 0 {
				b.bus.Publish(event.Healed{Caster: u, Target: u, Amount: n})
			}
		}
		if p.Status != "" {
			b.statuses.ApplyNamed(u, p.Status, p.StatusTurns, u)
		}
	}
	b.Wait(u)
}

// Wait finalizes u's turn without an action. It is a no-op for a unit that
// already acted or is dead.
func (b *Battle) Wait(u *unit.Unit) {
	if u == nil || !u.Alive() || u.HasActed {
		return
	}
	u.HasActed = true
	b.bus.Publish(event.ActionFinalized{Unit: u})
}

// EndRound ticks tile statuses and clears every unit's turn flags.
//
// Postcondition: Round() is incremented by 1.
func (b *Battle) EndRound() {
	b.statuses.TickTiles(b)
	for _, u := range b.units {
		u.ResetTurn()
	}
	if b.Idle() {
		clear(b.paid)
		clear(b.countered)
	}
	b.round++
	b.logger.Debug("round ended", zap.Int("round", b.round))
}
