// Package ruleset holds the read-only definition tables the rules engine
// consults: attacks, weapons, passives, statuses, terrains and origin
// effectiveness. Definitions are loaded once and never mutated by the engine.
package ruleset

// Stats is the six-stat combat block. It is used both for absolute values
// (a unit's base and final stats) and for additive modifiers.
type Stats struct {
	Attack     int `yaml:"attack"`
	Defense    int `yaml:"defense"`
	Magic      int `yaml:"magic"`
	Resistance int `yaml:"resistance"`
	Wit        int `yaml:"wit"`
	Movement   int `yaml:"movement"`
}

// Plus returns the field-wise sum of s and o.
func (s Stats) Plus(o Stats) Stats {
	return Stats{
		Attack:     s.Attack + o.Attack,
		Defense:    s.Defense + o.Defense,
		Magic:      s.Magic + o.Magic,
		Resistance: s.Resistance + o.Resistance,
		Wit:        s.Wit + o.Wit,
		Movement:   s.Movement + o.Movement,
	}
}

// Scaled returns s with every field multiplied by n.
func (s Stats) Scaled(n int) Stats {
	return Stats{
		Attack:     s.Attack * n,
		Defense:    s.Defense * n,
		Magic:      s.Magic * n,
		Resistance: s.Resistance * n,
		Wit:        s.Wit * n,
		Movement:   s.Movement * n,
	}
}

// Floored returns s with every negative field raised to zero.
//
// Postcondition: every field of the result is >= 0.
func (s Stats) Floored() Stats {
	return Stats{
		Attack:     max(s.Attack, 0),
		Defense:    max(s.Defense, 0),
		Magic:      max(s.Magic, 0),
		Resistance: max(s.Resistance, 0),
		Wit:        max(s.Wit, 0),
		Movement:   max(s.Movement, 0),
	}
}
