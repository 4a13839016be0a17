// Package formula holds the pure combat formulas: hit and crit chance,
// damage, healing and experience. Nothing here mutates its inputs or keeps state.
package formula

import (
	"math"

	"github.com/cory-johannsen/tactics/internal/game/ruleset"
)

const (
	// HitPerWit is the hit chance gained per point of wit advantage.
	HitPerWit = 0.02
	// CritPerWit is the crit chance gained per point of wit advantage.
	CritPerWit = 0.01
	// DefaultCritMultiplier applies when neither the attack nor the caller sets one.
	DefaultCritMultiplier = 2.0
	// StrongThreshold is the effectiveness above which a hit is flagged "strong".
	StrongThreshold = 1.0

	expDamageBase   = 10
	expKillBase     = 30
	expDamagePerLvl = 3
	expKillPerLvl   = 5
	expCap          = 100
)

// Combatant is the stat view a formula needs from either side of an exchange.
type Combatant struct {
	Attack     int
	Defense    int
	Magic      int
	Resistance int
	Wit        int
	Level      int
	Origin     string
}

// FromStats builds a Combatant from a final-stat block.
func FromStats(s ruleset.Stats, level int, origin string) Combatant {
	return Combatant{
		Attack:     s.Attack,
		Defense:    s.Defense,
		Magic:      s.Magic,
		Resistance: s.Resistance,
		Wit:        s.Wit,
		Level:      level,
		Origin:     origin,
	}
}

// clamped returns c with every stat raised to at least zero.
func (c Combatant) clamped() Combatant {
	c.Attack = max(c.Attack, 0)
	c.Defense = max(c.Defense, 0)
	c.Magic = max(c.Magic, 0)
	c.Resistance = max(c.Resistance, 0)
	c.Wit = max(c.Wit, 0)
	c.Level = max(c.Level, 1)
	return c
}

func clamp01(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return min(max(p, 0), 1)
}

// HitChance returns the probability that attacker hits defender with an
// attack of the given base accuracy.
//
// Postcondition: result in [0,1]; non-decreasing in attacker wit, non-increasing in defender wit.
func HitChance(attacker, defender Combatant, baseAccuracy float64) float64 {
	a, d := attacker.clamped(), defender.clamped()
	return clamp01(baseAccuracy + HitPerWit*float64(a.Wit-d.Wit))
}

// CritChance returns the probability that a landed hit is critical.
//
// Postcondition: result in [0,1].
func CritChance(attacker, defender Combatant, baseCrit float64) float64 {
	a, d := attacker.clamped(), defender.clamped()
	return clamp01(baseCrit + CritPerWit*float64(a.Wit-d.Wit))
}

// Effectiveness returns the origin-vs-origin multiplier from table.
//
// Postcondition: result >= 0.
func Effectiveness(table ruleset.Effectiveness, attacker, defender string) float64 {
	if table == nil {
		return 1.0
	}
	return table.Lookup(attacker, defender)
}

// Damage is the outcome of FinalDamage.
type Damage struct {
	Amount        int
	Effectiveness float64
	// Strong flags effectiveness above neutral for the UI.
	Strong bool
	Crit   bool
}

// FinalDamage computes the damage attacker deals to defender with def.
// Physical attacks use Attack against Defense, magical attacks use Magic
// against Resistance. The effectiveness multiplier applies before the crit
// multiplier (def.CritMultiplier, or DefaultCritMultiplier when unset).
//
// Precondition: def must not be nil.
// Postcondition: Amount >= 0.
func FinalDamage(attacker, defender Combatant, def *ruleset.AttackDef, table ruleset.Effectiveness, isCrit bool) Damage {
	a, d := attacker.clamped(), defender.clamped()
	offence, mitigation := a.Attack, d.Defense
	if def.Use == ruleset.Magical {
		offence, mitigation = a.Magic, d.Resistance
	}
	raw := max(def.Power+offence-mitigation, 0)
	eff := Effectiveness(table, a.Origin, d.Origin)
	amount := float64(raw) * eff
	if isCrit {
		mult := def.CritMultiplier
		if mult <= 0 {
			mult = DefaultCritMultiplier
		}
		amount *= mult
	}
	return Damage{
		Amount:        max(int(math.Floor(amount)), 0),
		Effectiveness: eff,
		Strong:        eff > StrongThreshold,
		Crit:          isCrit,
	}
}

// HealAmount returns how much health caster restores with a support attack.
//
// Postcondition: result >= 0.
func HealAmount(caster Combatant, def *ruleset.AttackDef) int {
	c := caster.clamped()
	return max(def.Power+c.Magic/2, 0)
}

// ExpGain returns the experience attacker earns for damaging or defeating target.
// Kills earn more, and higher-level targets earn more.
//
// Postcondition: result in [1, 100].
func ExpGain(attacker, target Combatant, isKill bool) int {
	a, t := attacker.clamped(), target.clamped()
	diff := t.Level - a.Level
	gain := expDamageBase + expDamagePerLvl*diff
	if isKill {
		gain = expKillBase + expKillPerLvl*diff
	}
	return min(max(gain, 1), expCap)
}
