package passive_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/passive"
	"github.com/cory-johannsen/tactics/internal/game/ruleset"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

func registry(t testing.TB) *ruleset.Registry {
	reg := ruleset.NewRegistry()
	require.NoError(t, reg.AddWeapon(&ruleset.WeaponDef{Name: "fang", Passives: []string{passive.Lifesteal}}))
	require.NoError(t, reg.AddWeapon(&ruleset.WeaponDef{Name: "staff", Passives: []string{"focus"}}))
	require.NoError(t, reg.AddPassive(&ruleset.PassiveDef{Name: passive.Lifesteal, Fraction: 0.5}))
	require.NoError(t, reg.AddPassive(&ruleset.PassiveDef{Name: "regen", Trigger: ruleset.OnTurnEnd, Amount: 2}))
	return reg
}

func newUnit(id string, team unit.Team) *unit.Unit {
	return unit.New(id, id, team, grid.C(0, 0), 10, 3, ruleset.Stats{})
}

func TestRoster_AddUnit_UnionOfSources(t *testing.T) {
	r := passive.NewRoster(registry(t))
	u := newUnit("u1", unit.TeamPlayer)
	u.Passives = []string{"regen"}
	u.Weapon = "fang"
	u.Overrides = []string{"stolen", "regen"}
	r.AddUnit(u)

	assert.True(t, r.HasPassive(u, "regen"))
	assert.True(t, r.HasPassive(u, passive.Lifesteal))
	assert.True(t, r.HasPassive(u, "stolen"))
	assert.Equal(t, []string{passive.Lifesteal, "regen", "stolen"}, r.PassivesOf(u))
	assert.Len(t, r.Providers(unit.TeamPlayer, "regen"), 1)

	trig := r.Triggered(u, ruleset.OnTurnEnd)
	require.Len(t, trig, 1)
	assert.Equal(t, "regen", trig[0].Name)
}

func TestRoster_IgnoresDeadAndTeamless(t *testing.T) {
	r := passive.NewRoster(registry(t))
	dead := newUnit("d", unit.TeamEnemy)
	dead.HP = 0
	dead.Passives = []string{"regen"}
	loner := newUnit("l", unit.NoTeam)
	loner.Passives = []string{"regen"}
	r.AddUnit(dead)
	r.AddUnit(loner)
	assert.False(t, r.HasPassive(dead, "regen"))
	assert.False(t, r.HasPassive(loner, "regen"))
}

func TestRoster_WeaponChangeRefresh(t *testing.T) {
	r := passive.NewRoster(registry(t))
	u := newUnit("u1", unit.TeamPlayer)
	u.Weapon = "fang"
	r.AddUnit(u)
	require.True(t, r.HasPassive(u, passive.Lifesteal))

	u.Weapon = "staff"
	r.Refresh(u)
	assert.False(t, r.HasPassive(u, passive.Lifesteal))
	assert.True(t, r.HasPassive(u, "focus"))
	assert.False(t, r.TeamHas(unit.TeamPlayer, passive.Lifesteal))
}

func TestRoster_DeathRemoves(t *testing.T) {
	r := passive.NewRoster(registry(t))
	u := newUnit("u1", unit.TeamEnemy)
	u.Passives = []string{"regen"}
	r.AddUnit(u)
	u.HP = 0
	r.Refresh(u)
	assert.False(t, r.HasPassive(u, "regen"))
	assert.Empty(t, r.PassivesOf(u))
}

func TestRoster_TeamsAreSeparate(t *testing.T) {
	r := passive.NewRoster(registry(t))
	a := newUnit("a", unit.TeamPlayer)
	b := newUnit("b", unit.TeamEnemy)
	a.Passives = []string{"regen"}
	r.AddUnit(a)
	r.AddUnit(b)
	assert.True(t, r.TeamHas(unit.TeamPlayer, "regen"))
	assert.False(t, r.TeamHas(unit.TeamEnemy, "regen"))
}

// TestProperty_Roster_MembershipMatchesSources checks that after any sequence
// of equips, deaths, override grants and refreshes, HasPassive equals exactly
// the union of blueprint, weapon and override passives for living units.
func TestProperty_Roster_MembershipMatchesSources(t *testing.T) {
	reg := registry(t)
	names := []string{"regen", passive.Lifesteal, "focus", "stolen", "haste"}
	weapons := []string{"", "fang", "staff", "missing"}
	rapid.Check(t, func(rt *rapid.T) {
		r := passive.NewRoster(reg)
		units := make([]*unit.Unit, 3)
		for i := range units {
			units[i] = newUnit(fmt.Sprintf("u%d", i), rapid.SampledFrom([]unit.Team{unit.TeamPlayer, unit.TeamEnemy}).Draw(rt, "team"))
			units[i].Passives = rapid.SliceOfN(rapid.SampledFrom(names), 0, 2).Draw(rt, "blueprint")
			r.AddUnit(units[i])
		}
		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		for s := 0; s < steps; s++ {
			u := rapid.SampledFrom(units).Draw(rt, "unit")
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0:
				u.Weapon = rapid.SampledFrom(weapons).Draw(rt, "weapon")
			case 1:
				u.HP = 0
			case 2:
				u.Overrides = append(u.Overrides, rapid.SampledFrom(names).Draw(rt, "override"))
			}
			r.Refresh(u)
		}
		for _, u := range units {
			want := map[string]bool{}
			if u.Alive() {
				for _, n := range r.Names(u) {
					want[n] = true
				}
			}
			for _, n := range names {
				if got := r.HasPassive(u, n); got != want[n] {
					rt.Fatalf("unit %s passive %s: got %v want %v", u.ID, n, got, want[n])
				}
			}
		}
	})
}
