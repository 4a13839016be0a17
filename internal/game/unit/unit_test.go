package unit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ruleset"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

func TestNew_FullHealth(t *testing.T) {
	u := unit.New("u1", "Ash", unit.TeamPlayer, grid.C(1, 2), 20, 5, ruleset.Stats{Attack: 4, Defense: -1})
	assert.Equal(t, 20, u.HP)
	assert.Equal(t, 5, u.Wisp)
	assert.Equal(t, 0, u.Final.Defense, "Final is floored")
	assert.True(t, u.Alive())
	assert.True(t, u.IsPlayerControlled())
	assert.Equal(t, "", u.BasicAttack())
}

func TestTeam_Opposes(t *testing.T) {
	assert.True(t, unit.TeamPlayer.Opposes(unit.TeamEnemy))
	assert.False(t, unit.TeamEnemy.Opposes(unit.TeamEnemy))
	assert.False(t, unit.NoTeam.Opposes(unit.TeamEnemy))
}

func TestParseTeam(t *testing.T) {
	for in, want := range map[string]unit.Team{"player": unit.TeamPlayer, "enemy": unit.TeamEnemy, "": unit.NoTeam, "none": unit.NoTeam} {
		got, err := unit.ParseTeam(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := unit.ParseTeam("pirates")
	assert.Error(t, err)
}

func TestUnit_HealCappedAndDeadIgnored(t *testing.T) {
	u := unit.New("u1", "Ash", unit.TeamPlayer, grid.C(0, 0), 10, 0, ruleset.Stats{})
	u.HP = 8
	assert.Equal(t, 2, u.Heal(5))
	u.HP = 0
	assert.Equal(t, 0, u.Heal(5))
	assert.Equal(t, 0, u.HP)
}

func TestProperty_Unit_HealthStaysInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxHP := rapid.IntRange(1, 100).Draw(rt, "maxHP")
		u := unit.New("u", "U", unit.TeamEnemy, grid.C(0, 0), maxHP, 3, ruleset.Stats{})
		for i := 0; i < 10; i++ {
			if rapid.Bool().Draw(rt, "heal") {
				u.Heal(rapid.IntRange(-5, 50).Draw(rt, "amount"))
			} else {
				u.TakeDamage(rapid.IntRange(-5, 50).Draw(rt, "amount"))
			}
			u.SpendWisp(rapid.IntRange(-2, 4).Draw(rt, "spend"))
			if u.HP < 0 || u.HP > u.MaxHP {
				rt.Fatalf("HP %d out of [0,%d]", u.HP, u.MaxHP)
			}
			if u.Wisp < 0 {
				rt.Fatalf("Wisp %d negative", u.Wisp)
			}
		}
	})
}

func TestObstacle_Destructible(t *testing.T) {
	tree := unit.NewDestructible("o1", "tree", grid.C(2, 2), 5)
	assert.True(t, tree.Destructible())
	assert.Equal(t, 5, tree.TakeDamage(9))
	assert.False(t, tree.Standing())

	rock := &unit.Obstacle{ID: "o2", Name: "rock", Blocks: true}
	assert.False(t, rock.Destructible())
	assert.Equal(t, 0, rock.TakeDamage(9))
	assert.True(t, rock.Standing())
}
