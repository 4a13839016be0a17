package combat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/event"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

func TestCounter_FiresAfterDelay(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1), "slash")
	h.add(a, e)

	require.True(t, h.b.PerformAttack(a, "slash", e.Tile))
	h.b.ResolveAttackEffects(0)
	require.Equal(t, 1, h.b.Counters().Len())
	pending := h.b.Counters().Pending()[0]
	assert.Same(t, e, pending.Defender)
	assert.Equal(t, "slash", pending.Attack)

	assert.Zero(t, h.b.AdvanceCounters(300*time.Millisecond))
	assert.Equal(t, 1, h.b.Counters().Len())
	assert.Equal(t, 1, h.b.AdvanceCounters(100*time.Millisecond))
	assert.Zero(t, h.b.Counters().Len())

	h.b.ResolveAttackEffects(0)
	assert.Equal(t, 12, a.HP)
}

func TestCounter_NeverTriggersAnotherCounter(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1), "slash")
	h.add(a, e)

	require.True(t, h.b.PerformAttack(a, "slash", e.Tile))
	h.run(t)

	hits := h.rec.OfKind(event.KindHit)
	require.Len(t, hits, 2)
	assert.False(t, hits[0].(event.Hit).Counter)
	assert.True(t, hits[1].(event.Hit).Counter)
	assert.Equal(t, 12, a.HP)
	assert.Equal(t, 12, e.HP)
	assert.Len(t, h.rec.OfKind(event.KindActionFinalized), 1, "counters are free")
	assert.False(t, e.HasActed)
}

func TestCounter_ExperienceDoesNotConsumeTurn(t *testing.T) {
	h := newHarness(t)
	e := newUnit("e", unit.TeamEnemy, grid.C(1, 1), "slash")
	p := newUnit("p", unit.TeamPlayer, grid.C(2, 1), "slash")
	h.add(e, p)

	require.True(t, h.b.PerformAttack(e, "slash", p.Tile))
	h.run(t)
	gained := h.rec.OfKind(event.KindExperienceGained)
	require.Len(t, gained, 1)
	assert.Same(t, p, gained[0].(event.ExperienceGained).Unit)
	assert.False(t, gained[0].(event.ExperienceGained).ConsumesTurn)
}

func TestCounter_RevalidatedAgainstCurrentPositions(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1), "slash")
	h.add(a, e)

	require.True(t, h.b.PerformAttack(a, "slash", e.Tile))
	h.b.ResolveAttackEffects(0)
	require.Equal(t, 1, h.b.Counters().Len())

	h.b.MoveUnit(a, grid.C(5, 4))
	assert.Zero(t, h.b.AdvanceCounters(400*time.Millisecond))
	assert.Zero(t, h.b.Counters().Len())
	h.run(t)
	assert.Equal(t, 20, a.HP)
	assert.Equal(t, 1, h.logs.FilterMessage("counter discarded").Len())
}

func TestCounter_DiscardedWhenDefenderCannotAct(t *testing.T) {
	cases := []struct {
		name    string
		prepare func(h *harness, e *unit.Unit)
	}{
		{"dead", func(h *harness, e *unit.Unit) { h.b.Kill(e, nil, "test") }},
		{"mid-hit animation", func(_ *harness, e *unit.Unit) { e.PendingDamageDisplay = true }},
		{"stunned", func(h *harness, e *unit.Unit) { h.b.Statuses().ApplyNamed(e, "stun", 0, nil) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
			e := newUnit("e", unit.TeamEnemy, grid.C(2, 1), "slash")
			h.add(a, e)
			require.True(t, h.b.PerformAttack(a, "slash", e.Tile))
			h.b.ResolveAttackEffects(0)
			require.Equal(t, 1, h.b.Counters().Len())

			tc.prepare(h, e)
			assert.Zero(t, h.b.AdvanceCounters(400*time.Millisecond))
			assert.Zero(t, h.b.Counters().Len())
		})
	}
}

func TestCounter_OnePerDefenderPerInstance(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1), "slash")
	h.add(a, e)

	for i := 0; i < 2; i++ {
		h.b.Enqueue(&combat.Effect{
			Attacker: a,
			Attack:   "slash",
			Area:     grid.Tile(e.Tile),
			Props:    combat.Props{InstanceID: "volley"},
		})
	}
	h.b.ResolveAttackEffects(0)
	assert.Equal(t, 4, e.HP)
	assert.Equal(t, 1, h.b.Counters().Len())
}

func TestCounter_ReactionEffectsBypassCounters(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1), "slash")
	h.add(a, e)

	h.b.Enqueue(&combat.Effect{Attacker: a, Attack: "slash", Area: grid.Tile(e.Tile), Props: combat.Props{NoCounter: true}})
	h.b.ResolveAttackEffects(0)
	assert.Equal(t, 12, e.HP)
	assert.Zero(t, h.b.Counters().Len())
}

func TestCounter_OutOfReachDefenderDoesNotCounter(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "bolt")
	e := newUnit("e", unit.TeamEnemy, grid.C(3, 1), "slash")
	h.add(a, e)

	require.True(t, h.b.PerformAttack(a, "bolt", e.Tile))
	h.b.ResolveAttackEffects(0)
	assert.Less(t, e.HP, 20)
	assert.Zero(t, h.b.Counters().Len())
}
