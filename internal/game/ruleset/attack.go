package ruleset

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/tactics/internal/game/grid"
)

// UseType selects which offensive and defensive stats an attack uses.
type UseType string

const (
	Physical UseType = "physical"
	Magical  UseType = "magical"
	Support  UseType = "support"
)

// AttackDef is the static definition of a named attack.
type AttackDef struct {
	Name     string  `yaml:"name"`
	Use      UseType `yaml:"use"`
	Power    int     `yaml:"power"`
	Accuracy float64 `yaml:"accuracy"` // base hit chance in [0,1]
	Crit     float64 `yaml:"crit"`     // base crit chance in [0,1]
	// CritMultiplier overrides the engine default when > 0.
	CritMultiplier float64 `yaml:"crit_multiplier"`
	WispCost       int     `yaml:"wisp_cost"`
	MinRange       int     `yaml:"min_range"`
	MaxRange       int     `yaml:"max_range"`
	// Pattern lists target offsets relative to the user's tile as [x, y] pairs.
	// Empty means the Manhattan ring MinRange..MaxRange.
	Pattern [][]int `yaml:"pattern"`
	// Area lists affected offsets relative to the target tile. Empty means the target tile only.
	Area        [][]int       `yaml:"area"`
	Stagger     time.Duration `yaml:"stagger"` // delay added per area tile after the first
	Status      string        `yaml:"status"`
	StatusTurns int           `yaml:"status_turns"`
	Force       int           `yaml:"force"` // knockback distance when Status is a knockback status
	Cleanse     bool          `yaml:"cleanse"`
	TileStatus  string        `yaml:"tile_status"`

	pattern []grid.Coord
	area    []grid.Coord
}

// IsHeal reports whether the attack restores health instead of dealing damage.
func (a *AttackDef) IsHeal() bool { return a.Use == Support }

// Offsets returns the fixed relative target pattern.
//
// Postcondition: Returns a non-empty slice for a validated definition.
func (a *AttackDef) Offsets() []grid.Coord { return a.pattern }

// AreaOffsets returns the affected offsets around the target tile.
//
// Postcondition: Returns a non-empty slice for a validated definition; (0,0) is always first.
func (a *AttackDef) AreaOffsets() []grid.Coord { return a.area }

// Reaches reports whether a user standing on from can target to.
func (a *AttackDef) Reaches(from, to grid.Coord) bool {
	d := to.Sub(from)
	for _, o := range a.pattern {
		if o == d {
			return true
		}
	}
	return false
}

// Validate checks the definition and derives the pattern and area offsets.
//
// Postcondition: nil return guarantees Name non-empty, Use known, Accuracy and
// Crit in [0,1], and non-empty Offsets/AreaOffsets.
func (a *AttackDef) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("attack: name must not be empty")
	}
	switch a.Use {
	case Physical, Magical, Support:
	case "":
		a.Use = Physical
	default:
		return fmt.Errorf("attack %q: unknown use %q", a.Name, a.Use)
	}
	if a.Accuracy < 0 || a.Accuracy > 1 {
		return fmt.Errorf("attack %q: accuracy must be in [0,1], got %v", a.Name, a.Accuracy)
	}
	if a.Crit < 0 || a.Crit > 1 {
		return fmt.Errorf("attack %q: crit must be in [0,1], got %v", a.Name, a.Crit)
	}
	if a.WispCost < 0 {
		return fmt.Errorf("attack %q: wisp_cost must be >= 0", a.Name)
	}
	pattern, err := offsets(a.Pattern)
	if err != nil {
		return fmt.Errorf("attack %q pattern: %w", a.Name, err)
	}
	if len(pattern) == 0 {
		lo, hi := a.MinRange, a.MaxRange
		if hi == 0 {
			lo, hi = 1, 1
		}
		if lo < 0 || lo > hi {
			return fmt.Errorf("attack %q: invalid range %d..%d", a.Name, lo, hi)
		}
		pattern = ring(lo, hi)
	}
	a.pattern = pattern

	area, err := offsets(a.Area)
	if err != nil {
		return fmt.Errorf("attack %q area: %w", a.Name, err)
	}
	a.area = []grid.Coord{{}}
	for _, o := range area {
		if o != (grid.Coord{}) {
			a.area = append(a.area, o)
		}
	}
	return nil
}

func offsets(raw [][]int) ([]grid.Coord, error) {
	out := make([]grid.Coord, 0, len(raw))
	for i, p := range raw {
		if len(p) != 2 {
			return nil, fmt.Errorf("offset %d must have exactly 2 components, got %d", i, len(p))
		}
		out = append(out, grid.C(p[0], p[1]))
	}
	return out, nil
}

// ring returns every offset whose Manhattan length lies in [lo, hi], row-major.
func ring(lo, hi int) []grid.Coord {
	var out []grid.Coord
	origin := grid.Coord{}
	for y := -hi; y <= hi; y++ {
		for x := -hi; x <= hi; x++ {
			c := grid.C(x, y)
			if d := c.Manhattan(origin); d >= lo && d <= hi {
				out = append(out, c)
			}
		}
	}
	return out
}
