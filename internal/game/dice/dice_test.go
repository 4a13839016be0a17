package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// TestCryptoSource_Intn_InRange verifies every value returned by Intn(6) is in [0, 6).
func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

func TestCryptoSource_Intn_PanicsOnZero(t *testing.T) {
	assert.Panics(t, func() { dice.NewCryptoSource().Intn(0) })
}

func TestSeededSource_Reproducible(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Intn(100), b.Intn(100))
	}
}

func TestFixed_CyclesAndWraps(t *testing.T) {
	f := &dice.Fixed{Values: []int{3, -1}}
	assert.Equal(t, 3, f.Intn(10))
	assert.Equal(t, 9, f.Intn(10))
	assert.Equal(t, 3, f.Intn(10))
}

func TestRoller_CheckExtremes(t *testing.T) {
	r := dice.NewLoggedRoller(&dice.Fixed{Values: []int{0, dice.Resolution - 1}}, zap.NewNop())
	assert.False(t, r.Chance("never", 0), "p=0 never succeeds even on the lowest roll")
	assert.True(t, r.Chance("always", 1), "p=1 always succeeds even on the highest roll")
}

func TestProperty_Roller_DrawPostcondition(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := rapid.Float64Range(-1, 2).Draw(rt, "p")
		seed := rapid.Uint64().Draw(rt, "seed")
		r := dice.NewLoggedRoller(dice.NewSeededSource(seed), zap.NewNop())
		d := r.Check("probe", p)
		if d.Success != (d.Roll < d.Threshold) {
			rt.Fatalf("draw %v violates Success == Roll < Threshold", d)
		}
		if d.Threshold < 0 || d.Threshold > dice.Resolution {
			rt.Fatalf("threshold %d out of range", d.Threshold)
		}
	})
}

func TestDraw_String(t *testing.T) {
	d := dice.Draw{Label: "hit", Roll: 12, Threshold: 9000, Success: true}
	assert.Equal(t, "hit: 12 < 9000 → true", d.String())
}
