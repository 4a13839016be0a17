package combat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/event"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/passive"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

func TestPerformAttack_HitDamagesAndFinalizes(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1), "slash")
	h.add(a, e)

	require.True(t, h.b.PerformAttack(a, "slash", e.Tile))
	assert.True(t, a.ActionInProgress)
	assert.False(t, h.b.Idle())

	h.b.ResolveAttackEffects(0)
	assert.Equal(t, 12, e.HP)
	assert.Equal(t, grid.FacingWest, e.Facing, "defender turns toward the attacker")
	assert.False(t, a.ActionInProgress)
	assert.True(t, a.HasActed)
	require.Len(t, h.rec.OfKind(event.KindActionFinalized), 1)

	exp := h.rec.OfKind(event.KindExperienceGained)
	require.Len(t, exp, 1)
	assert.Equal(t, 10, exp[0].(event.ExperienceGained).Amount)
	assert.True(t, exp[0].(event.ExperienceGained).ConsumesTurn)
	assert.Equal(t, 1, h.b.Counters().Len())
}

func TestPerformAttack_RejectsIllegalRequests(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash", "focus")
	a.Wisp = 3
	h.add(a)

	assert.False(t, h.b.PerformAttack(a, "slash", grid.C(3, 3)), "out of pattern")
	assert.False(t, h.b.PerformAttack(a, "bolt", grid.C(3, 1)), "unknown to the unit")
	assert.False(t, h.b.PerformAttack(a, "focus", grid.C(2, 1)), "insufficient wisp")
	require.True(t, h.b.Statuses().ApplyNamed(a, "stun", 0, nil))
	assert.False(t, h.b.PerformAttack(a, "slash", grid.C(2, 1)), "stunned")
	assert.Empty(t, h.b.Effects())
}

func TestPerformAttack_PaysWispCost(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "focus")
	h.add(a)
	require.True(t, h.b.PerformAttack(a, "focus", grid.C(3, 1)))
	assert.Equal(t, 6, a.Wisp)
}

func TestMiss_SuppressesDamageStatusAndCounter(t *testing.T) {
	h := newHarness(t, missRoll)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 2), "shove")
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 2), "slash")
	h.add(a, e)

	require.True(t, h.b.PerformAttack(a, "shove", e.Tile))
	h.b.ResolveAttackEffects(0)
	assert.Equal(t, 20, e.HP)
	assert.Equal(t, grid.C(2, 2), e.Tile)
	assert.Empty(t, e.Statuses)
	assert.Len(t, h.rec.OfKind(event.KindMissed), 1)
	assert.Empty(t, h.rec.OfKind(event.KindHit))
	assert.Empty(t, h.rec.OfKind(event.KindExperienceGained))
	assert.Zero(t, h.b.Counters().Len())
	assert.Len(t, h.rec.OfKind(event.KindActionFinalized), 1, "a missed action still finalizes")
}

func TestResolve_AtMostOnceUnderReentry(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1))
	h.add(a, e)
	h.bus.Subscribe(event.KindHit, func(event.Event) {
		h.b.ResolveAttackEffects(0)
	})

	h.b.Enqueue(&combat.Effect{Attacker: a, Attack: "slash", Area: grid.Tile(e.Tile)})
	h.b.ResolveAttackEffects(0)
	h.b.ResolveAttackEffects(0)
	assert.Equal(t, 12, e.HP)
	assert.Len(t, h.rec.OfKind(event.KindHit), 1)
}

func TestResolve_EffectsCreatedDuringResolutionWait(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1))
	h.add(a, e)
	spawned := false
	h.bus.Subscribe(event.KindHit, func(event.Event) {
		if !spawned {
			spawned = true
			h.b.Enqueue(&combat.Effect{Attacker: a, Attack: "slash", Area: grid.Tile(e.Tile)})
		}
	})

	h.b.Enqueue(&combat.Effect{Attacker: a, Attack: "slash", Area: grid.Tile(e.Tile)})
	h.b.ResolveAttackEffects(0)
	assert.Equal(t, 12, e.HP)
	h.b.ResolveAttackEffects(0)
	assert.Equal(t, 4, e.HP)
}

func TestResolve_ExpiresAfterLifetime(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1))
	h.add(a, e)

	h.b.Enqueue(&combat.Effect{Attacker: a, Attack: "slash", Area: grid.Tile(e.Tile), Delay: 200 * time.Millisecond})
	h.b.ResolveAttackEffects(100 * time.Millisecond)
	assert.Equal(t, 20, e.HP, "still delayed")
	h.b.ResolveAttackEffects(100 * time.Millisecond)
	assert.Equal(t, 12, e.HP)
	require.Len(t, h.b.Effects(), 1)
	assert.True(t, h.b.Effects()[0].Resolved())

	h.b.ResolveAttackEffects(400 * time.Millisecond)
	assert.Len(t, h.b.Effects(), 1)
	h.b.ResolveAttackEffects(100 * time.Millisecond)
	assert.Empty(t, h.b.Effects())
}

func TestResolve_DeadTargetsAreSkipped(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1))
	e.HP = 5
	h.add(a, e)

	for i := 0; i < 2; i++ {
		h.b.Enqueue(&combat.Effect{Attacker: a, Attack: "slash", Area: grid.Tile(e.Tile)})
	}
	h.b.ResolveAttackEffects(0)
	assert.Zero(t, e.HP)
	assert.Len(t, h.rec.OfKind(event.KindHit), 1)
	assert.Len(t, h.rec.OfKind(event.KindUnitDied), 1)
}

func TestStagger_ResolvesAreaOverTimeAndPaysWeaponOnce(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(2, 0), "quake")
	a.Weapon = "hungry_blade"
	e1 := newUnit("e1", unit.TeamEnemy, grid.C(2, 1))
	e2 := newUnit("e2", unit.TeamEnemy, grid.C(3, 1))
	h.add(a, e1, e2)

	require.True(t, h.b.PerformAttack(a, "quake", e1.Tile))
	h.b.ResolveAttackEffects(0)
	assert.Equal(t, 14, e1.HP)
	assert.Equal(t, 20, e2.HP)
	assert.Empty(t, h.rec.OfKind(event.KindActionFinalized))

	h.b.ResolveAttackEffects(100 * time.Millisecond)
	assert.Equal(t, 14, e2.HP)
	assert.Empty(t, h.rec.OfKind(event.KindActionFinalized))

	h.b.ResolveAttackEffects(100 * time.Millisecond)
	assert.Len(t, h.rec.OfKind(event.KindActionFinalized), 1)
	assert.Equal(t, 8, a.Wisp, "weapon cost is charged once per attack")
}

func TestScope_AlliesAreSparedWithoutFriendlyFire(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(2, 0), "quake")
	ally := newUnit("ally", unit.TeamPlayer, grid.C(1, 1))
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1))
	h.add(a, ally, e)

	require.True(t, h.b.PerformAttack(a, "quake", e.Tile))
	h.run(t)
	assert.Equal(t, 20, ally.HP)

	h2 := newHarness(t)
	a2 := newUnit("a", unit.TeamPlayer, grid.C(2, 0), "quake")
	a2.Passives = []string{passive.FriendlyFire}
	ally2 := newUnit("ally", unit.TeamPlayer, grid.C(1, 1))
	e2 := newUnit("e", unit.TeamEnemy, grid.C(2, 1))
	h2.add(a2, ally2, e2)
	require.True(t, h2.b.PerformAttack(a2, "quake", e2.Tile))
	h2.run(t)
	assert.Equal(t, 14, ally2.HP)
}

func TestLifestealAndSiphon(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	a.Weapon = "vampiric_fang"
	a.Passives = []string{passive.WispSiphon}
	a.HP = 10
	a.Wisp = 5
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1))
	h.add(a, e)

	require.True(t, h.b.PerformAttack(a, "slash", e.Tile))
	h.b.ResolveAttackEffects(0)
	assert.Equal(t, 12, e.HP)
	assert.Equal(t, 14, a.HP, "heals half of the 8 damage")
	assert.Equal(t, 7, e.Wisp)
	assert.Equal(t, 8, a.Wisp)
}

func TestLifesteal_CappedByRemainingHealth(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	a.Weapon = "vampiric_fang"
	a.HP = 10
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1))
	e.HP = 2
	h.add(a, e)

	require.True(t, h.b.PerformAttack(a, "slash", e.Tile))
	h.b.ResolveAttackEffects(0)
	assert.Equal(t, 11, a.HP)
}

func TestWispHunger_BoostsDamageWhenEmpty(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamEnemy, grid.C(1, 1), "slash")
	a.Passives = []string{passive.WispHunger}
	a.Wisp = 0
	p := newUnit("p", unit.TeamPlayer, grid.C(2, 1))
	h.add(a, p)

	require.True(t, h.b.PerformAttack(a, "slash", p.Tile))
	h.b.ResolveAttackEffects(0)
	assert.Equal(t, 4, p.HP)
}

func TestBetrayal_EmpowersAttackerAndStunsAlly(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamEnemy, grid.C(1, 1), "slash")
	a.Passives = []string{passive.Betrayal}
	ally := newUnit("ally", unit.TeamEnemy, grid.C(2, 1), "slash")
	h.add(a, ally)

	require.True(t, h.b.PerformAttack(a, "slash", ally.Tile))
	h.run(t)
	assert.Equal(t, 12, ally.HP)
	assert.Equal(t, 7, a.Base.Attack)
	assert.Equal(t, 7, a.Final.Attack)
	assert.True(t, ally.HasStatus("stun"))
	assert.Equal(t, 20, a.HP, "a stunned ally does not counter")
}

func TestExperience_LevelUp(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	a.Exp = 95
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1))
	h.add(a, e)

	require.True(t, h.b.PerformAttack(a, "slash", e.Tile))
	h.b.ResolveAttackEffects(0)
	assert.Equal(t, 2, a.Level)
	assert.Equal(t, 5, a.Exp)
	gained := h.rec.OfKind(event.KindExperienceGained)
	require.Len(t, gained, 1)
	assert.True(t, gained[0].(event.ExperienceGained).LevelUp)
}

func TestKnockback_PushesByForceMinusWeight(t *testing.T) {
	cases := []struct {
		name   string
		weight unit.Weight
		rock   bool
		want   grid.Coord
	}{
		{"light travels full force", unit.Light, false, grid.C(5, 2)},
		{"medium loses a tile", unit.Medium, false, grid.C(4, 2)},
		{"immovable stays", unit.Immovable, false, grid.C(2, 2)},
		{"blocked by obstacle", unit.Light, true, grid.C(3, 2)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			a := newUnit("a", unit.TeamPlayer, grid.C(1, 2), "shove")
			e := newUnit("e", unit.TeamEnemy, grid.C(2, 2), "slash")
			e.Weight = tc.weight
			h.add(a, e)
			if tc.rock {
				h.b.AddObstacle(&unit.Obstacle{ID: "rock", Name: "rock", Tile: grid.C(4, 2), Blocks: true, Weight: unit.Immovable})
			}

			require.True(t, h.b.PerformAttack(a, "shove", e.Tile))
			h.b.ResolveAttackEffects(0)
			assert.Equal(t, tc.want, e.Tile)
			assert.False(t, e.HasStatus("push"), "knockback is removed once applied")
			assert.Equal(t, tc.want != grid.C(2, 2), e.TurnEndedByForcedMove)
		})
	}
}

func TestKnockback_PushedDefenderCannotCounter(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 2), "shove")
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 2), "slash")
	h.add(a, e)
	require.True(t, h.b.PerformAttack(a, "shove", e.Tile))
	h.b.ResolveAttackEffects(0)
	assert.Zero(t, h.b.Counters().Len())
	assert.Len(t, h.rec.OfKind(event.KindUnitTileChanged), 1)
}

func TestDevourer_AbsorbsVictimPassives(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	a.Passives = []string{passive.Devourer}
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1), "slash")
	e.Passives = []string{"serrated"}
	e.HP = 5
	h.add(a, e)

	require.True(t, h.b.PerformAttack(a, "slash", e.Tile))
	h.b.ResolveAttackEffects(0)
	assert.Zero(t, e.HP)
	assert.Contains(t, a.Overrides, "serrated")
	assert.True(t, h.b.Roster().HasPassive(a, "serrated"))
	assert.Empty(t, h.b.Roster().Providers(unit.TeamEnemy, "serrated"))
	assert.Zero(t, h.b.Counters().Len(), "the dead do not counter")

	died := h.rec.OfKind(event.KindUnitDied)
	require.Len(t, died, 1)
	assert.Same(t, a, died[0].(event.UnitDied).Killer)
	gained := h.rec.OfKind(event.KindExperienceGained)
	require.Len(t, gained, 1)
	assert.Equal(t, 30, gained[0].(event.ExperienceGained).Amount)
}

func TestOnHitPassive_AppliesStatus(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	a.Passives = []string{"serrated"}
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1))
	h.add(a, e)
	require.True(t, h.b.PerformAttack(a, "slash", e.Tile))
	h.b.ResolveAttackEffects(0)
	require.True(t, e.HasStatus("poison"))
	assert.Same(t, a, e.Statuses["poison"].Attacker)
}

func TestHeal_RestoresAndCleanses(t *testing.T) {
	h := newHarness(t)
	healer := newUnit("healer", unit.TeamPlayer, grid.C(1, 1), "mend")
	ally := newUnit("ally", unit.TeamPlayer, grid.C(2, 1))
	ally.HP = 10
	e := newUnit("e", unit.TeamEnemy, grid.C(4, 4))
	h.add(healer, ally, e)
	require.True(t, h.b.Statuses().ApplyNamed(ally, "poison", 0, e))

	require.True(t, h.b.PerformAttack(healer, "mend", ally.Tile))
	h.b.ResolveAttackEffects(0)
	assert.Equal(t, 17, ally.HP)
	assert.False(t, ally.HasStatus("poison"))
	healed := h.rec.OfKind(event.KindHealed)
	require.Len(t, healed, 1)
	assert.Equal(t, 7, healed[0].(event.Healed).Amount)
	assert.Zero(t, h.b.Counters().Len())
}

func TestAirborneStatus_SuppressesFacingAndCounter(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "juggle")
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1), "slash")
	e.Facing = grid.FacingSouth
	h.add(a, e)

	require.True(t, h.b.PerformAttack(a, "juggle", e.Tile))
	h.b.ResolveAttackEffects(0)
	assert.True(t, e.HasStatus("airborne"))
	assert.Equal(t, grid.FacingSouth, e.Facing)
	assert.Zero(t, h.b.Counters().Len())
}

func TestTileStatus_IgnitesAndBurnsOccupant(t *testing.T) {
	h := newHarness(t)
	h.grid.SetTerrain(grid.C(2, 1), grass)
	h.grid.SetTerrain(grid.C(3, 1), grass)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "firebrand")
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1))
	h.add(a, e)

	require.True(t, h.b.PerformAttack(a, "firebrand", e.Tile))
	h.b.ResolveAttackEffects(0)
	ts, ok := h.grid.TileStatus(grid.C(3, 1), "burning")
	require.True(t, ok, "fire spreads across grass")
	assert.Equal(t, 3, ts.Turns)
	assert.Equal(t, 15, e.HP)

	h.b.EndRound()
	assert.Equal(t, 12, e.HP)
}

func TestObstacle_DestroyedByAttack(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	h.add(a)
	crate := unit.NewDestructible("crate", "crate", grid.C(2, 1), 6)
	h.b.AddObstacle(crate)

	require.True(t, h.b.PerformAttack(a, "slash", crate.Tile))
	h.b.ResolveAttackEffects(0)
	assert.False(t, crate.Standing())
	assert.Empty(t, h.b.Obstacles())
	destroyed := h.rec.OfKind(event.KindObstacleDestroyed)
	require.Len(t, destroyed, 1)
	assert.Same(t, a, destroyed[0].(event.ObstacleDestroyed).By)
}

func TestForecastUnit(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamEnemy, grid.C(1, 1), "slash")
	p := newUnit("p", unit.TeamPlayer, grid.C(2, 1))
	p.HP = 8
	h.add(a, p)

	f, ok := h.b.ForecastUnit(a, "slash", a.Tile, p)
	require.True(t, ok)
	assert.InDelta(t, 0.9, f.Hit, 1e-9)
	assert.Equal(t, 8, f.Damage)
	assert.True(t, f.Lethal)

	_, ok = h.b.ForecastUnit(a, "mend", a.Tile, p)
	assert.False(t, ok)
}

func TestForecastUnit_UsesStatsAtCandidateTile(t *testing.T) {
	h := newHarness(t)
	h.grid.SetTerrain(grid.C(1, 2), forest)
	a := newUnit("a", unit.TeamEnemy, grid.C(1, 1), "slash")
	a.Passives = []string{"woodland"}
	p := newUnit("p", unit.TeamPlayer, grid.C(2, 2))
	h.add(a, p)

	here, ok := h.b.ForecastUnit(a, "slash", a.Tile, p)
	require.True(t, ok)
	assert.Equal(t, 8, here.Damage)

	there, ok := h.b.ForecastUnit(a, "slash", grid.C(1, 2), p)
	require.True(t, ok)
	assert.Equal(t, 10, there.Damage, "woodland applies on the forest tile")
	assert.Equal(t, 5, a.Final.Attack, "forecasting does not move the unit")
}

func TestHit_RecalculatesHealthConditionsBeforeCounter(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	a.Weapon = "hungry_blade"
	a.Passives = []string{"empty_fury"}
	a.Wisp = 2
	d := newUnit("d", unit.TeamEnemy, grid.C(2, 1), "slash")
	d.Passives = []string{"last_stand"}
	d.HP = 12
	h.add(a, d)
	require.Equal(t, 5, a.Final.Attack)
	require.Equal(t, 5, d.Final.Attack)

	require.True(t, h.b.PerformAttack(a, "slash", d.Tile))
	h.b.ResolveAttackEffects(0)
	assert.Equal(t, 4, d.HP)
	assert.Equal(t, 8, d.Final.Attack, "below half health")
	assert.Zero(t, a.Wisp)
	assert.Equal(t, 12, a.Final.Attack, "weapon cost emptied the wisp pool")

	h.run(t)
	assert.Equal(t, 9, a.HP, "the counter strikes with the recalculated attack")
}

func TestHeal_RecalculatesHealthConditions(t *testing.T) {
	h := newHarness(t)
	healer := newUnit("healer", unit.TeamPlayer, grid.C(1, 1), "mend")
	ally := newUnit("ally", unit.TeamPlayer, grid.C(2, 1))
	ally.Passives = []string{"last_stand"}
	ally.HP = 8
	h.add(healer, ally)
	require.Equal(t, 8, ally.Final.Attack)

	require.True(t, h.b.PerformAttack(healer, "mend", ally.Tile))
	h.b.ResolveAttackEffects(0)
	assert.Equal(t, 15, ally.HP)
	assert.Equal(t, 5, ally.Final.Attack)
}

func TestStatusTick_RecalculatesHealthConditions(t *testing.T) {
	h := newHarness(t)
	v := newUnit("v", unit.TeamEnemy, grid.C(3, 3))
	v.Passives = []string{"last_stand"}
	v.HP = 11
	h.add(v)
	require.True(t, h.b.Statuses().ApplyNamed(v, "poison", 0, nil))
	require.Equal(t, 5, v.Final.Attack)

	h.b.TickStatusEffects(v)
	assert.Equal(t, 9, v.HP)
	assert.Equal(t, 8, v.Final.Attack)
}

func TestWispSpend_RecalculatesWispConditions(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "focus")
	a.Passives = []string{"empty_fury"}
	a.Wisp = 4
	h.add(a)
	require.Equal(t, 5, a.Final.Attack)

	require.True(t, h.b.PerformAttack(a, "focus", grid.C(3, 1)))
	assert.Zero(t, a.Wisp)
	assert.Equal(t, 12, a.Final.Attack, "recalculated when the cost is paid")
}

func TestSiphon_RecalculatesBothPools(t *testing.T) {
	h := newHarness(t)
	a := newUnit("a", unit.TeamPlayer, grid.C(1, 1), "slash")
	a.Passives = []string{passive.WispSiphon, "empty_fury"}
	a.Wisp = 0
	e := newUnit("e", unit.TeamEnemy, grid.C(2, 1))
	e.Passives = []string{"empty_fury"}
	e.Wisp = 3
	h.add(a, e)
	require.Equal(t, 12, a.Final.Attack)
	require.Equal(t, 5, e.Final.Attack)

	require.True(t, h.b.PerformAttack(a, "slash", e.Tile))
	h.b.ResolveAttackEffects(0)
	assert.Equal(t, 5, e.HP)
	assert.Equal(t, 3, a.Wisp)
	assert.Equal(t, 5, a.Final.Attack)
	assert.Zero(t, e.Wisp)
	assert.Equal(t, 12, e.Final.Attack)
}

func TestProperty_DeathAnnouncedExactlyOnce(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := newHarness(rt)
		a := newUnit("a", unit.TeamPlayer, grid.C(0, 1), "slash")
		a.MaxHP, a.HP = 500, 500
		h.add(a)
		var enemies []*unit.Unit
		n := rapid.IntRange(1, 4).Draw(rt, "enemies")
		for i := 0; i < n; i++ {
			e := newUnit(string(rune('a'+i))+"e", unit.TeamEnemy, grid.C(1+i, 1), "slash")
			e.HP = rapid.IntRange(1, 30).Draw(rt, "hp")
			h.add(e)
			enemies = append(enemies, e)
		}
		strikes := rapid.IntRange(1, 12).Draw(rt, "strikes")
		for i := 0; i < strikes; i++ {
			x := rapid.IntRange(0, 5).Draw(rt, "x")
			h.b.Enqueue(&combat.Effect{Attacker: a, Attack: "slash", Area: grid.Tile(grid.C(x, 1))})
			if rapid.Bool().Draw(rt, "tick") {
				h.b.ResolveAttackEffects(100 * time.Millisecond)
				h.b.AdvanceCounters(100 * time.Millisecond)
			}
		}
		h.run(rt)

		deaths := map[*unit.Unit]int{}
		for _, ev := range h.rec.OfKind(event.KindUnitDied) {
			deaths[ev.(event.UnitDied).Victim]++
		}
		for _, e := range append(enemies, a) {
			if e.HP < 0 {
				rt.Fatalf("%s has negative health %d", e.ID, e.HP)
			}
			want := 0
			if e.HP == 0 {
				want = 1
			}
			if deaths[e] != want {
				rt.Fatalf("%s: %d death events, want %d", e.ID, deaths[e], want)
			}
		}
	})
}
