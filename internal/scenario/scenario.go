// Package scenario loads battle setups from YAML: a terrain map drawn with a
// one-character legend, plus the units, obstacles and objectives placed on it.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ruleset"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// UnitSpec places one unit.
type UnitSpec struct {
	ID        string        `yaml:"id"`
	Name      string        `yaml:"name"`
	Team      string        `yaml:"team"`
	At        [2]int        `yaml:"at"`
	HP        int           `yaml:"hp"`
	Wisp      int           `yaml:"wisp"`
	Level     int           `yaml:"level"`
	Stats     ruleset.Stats `yaml:"stats"`
	Attacks   []string      `yaml:"attacks"`
	Weapon    string        `yaml:"weapon"`
	Passives  []string      `yaml:"passives"`
	Weight    string        `yaml:"weight"`
	Traversal string        `yaml:"traversal"`
	Origin    string        `yaml:"origin"`
}

// TrapSpec is the payload of a trapped obstacle.
type TrapSpec struct {
	Damage       int    `yaml:"damage"`
	Status       string `yaml:"status"`
	StatusTurns  int    `yaml:"status_turns"`
	SelfDestruct bool   `yaml:"self_destruct"`
}

// ObstacleSpec places one obstacle. An obstacle without hp is indestructible.
type ObstacleSpec struct {
	ID         string    `yaml:"id"`
	Name       string    `yaml:"name"`
	At         [2]int    `yaml:"at"`
	HP         *int      `yaml:"hp"`
	Blocks     bool      `yaml:"blocks"`
	Weight     string    `yaml:"weight"`
	Defense    int       `yaml:"defense"`
	Resistance int       `yaml:"resistance"`
	Wit        int       `yaml:"wit"`
	Trap       *TrapSpec `yaml:"trap"`
}

// ObjectiveSpec places one capturable tile.
type ObjectiveSpec struct {
	At    [2]int `yaml:"at"`
	Owner string `yaml:"owner"`
}

// Scenario is the on-disk layout of a battle setup.
type Scenario struct {
	Name string `yaml:"name"`
	// Legend maps each map character to a terrain name from the ruleset.
	Legend     map[string]string `yaml:"legend"`
	Map        []string          `yaml:"map"`
	Units      []UnitSpec        `yaml:"units"`
	Obstacles  []ObstacleSpec    `yaml:"obstacles"`
	Objectives []ObjectiveSpec   `yaml:"objectives"`
}

// Parse decodes a scenario document. Unknown keys are rejected.
//
// Postcondition: Returns a non-nil Scenario with a non-empty rectangular map, or an error.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if len(s.Map) == 0 {
		return nil, errors.New("scenario map must not be empty")
	}
	width := utf8.RuneCountInString(s.Map[0])
	for i, row := range s.Map {
		if n := utf8.RuneCountInString(row); n != width || n == 0 {
			return nil, fmt.Errorf("scenario map row %d has %d tiles, want %d", i, n, width)
		}
	}
	return &s, nil
}

// LoadFile reads and parses the scenario at path.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %q: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return s, nil
}

// Grid draws the map using terrains from reg.
func (s *Scenario) Grid(reg *ruleset.Registry) (*grid.Grid, error) {
	var g *grid.Grid
	for y, row := range s.Map {
		x := 0
		for _, ch := range row {
			name, ok := s.Legend[string(ch)]
			if !ok {
				return nil, fmt.Errorf("map tile %s uses %q, which is not in the legend", grid.C(x, y), ch)
			}
			t, ok := reg.Terrain(name)
			if !ok {
				return nil, fmt.Errorf("legend %q names unknown terrain %q", ch, name)
			}
			if g == nil {
				g = grid.New(utf8.RuneCountInString(row), len(s.Map), t)
			}
			g.SetTerrain(grid.C(x, y), t)
			x++
		}
	}
	return g, nil
}

// Build creates the battle described by s. d supplies every dependency but
// the grid, which Build draws from the map.
//
// Precondition: d.Registry must not be nil; the remaining fields follow combat.NewBattle.
// Postcondition: on error no battle is returned.
func (s *Scenario) Build(d combat.Deps) (*combat.Battle, error) {
	if d.Registry == nil {
		return nil, errors.New("scenario.Build: registry must not be nil")
	}
	g, err := s.Grid(d.Registry)
	if err != nil {
		return nil, err
	}
	units, err := s.units(d.Registry, g)
	if err != nil {
		return nil, err
	}
	obstacles, err := s.obstacles(d.Registry, g)
	if err != nil {
		return nil, err
	}
	d.Grid = g
	b := combat.NewBattle(d)
	for _, o := range obstacles {
		b.AddObstacle(o)
	}
	for _, u := range units {
		b.AddUnit(u)
	}
	for i, spec := range s.Objectives {
		c := coord(spec.At)
		if !g.InBounds(c) {
			return nil, fmt.Errorf("objective %d at %s is off the map", i, c)
		}
		owner, err := unit.ParseTeam(spec.Owner)
		if err != nil {
			return nil, fmt.Errorf("objective %d: %w", i, err)
		}
		b.AddObjective(c, owner)
	}
	return b, nil
}

func (s *Scenario) units(reg *ruleset.Registry, g *grid.Grid) ([]*unit.Unit, error) {
	taken := make(map[grid.Coord]string)
	seen := make(map[string]bool)
	out := make([]*unit.Unit, 0, len(s.Units))
	for _, spec := range s.Units {
		if spec.ID == "" {
			return nil, errors.New("unit id must not be empty")
		}
		if seen[spec.ID] {
			return nil, fmt.Errorf("duplicate unit id %q", spec.ID)
		}
		seen[spec.ID] = true
		c := coord(spec.At)
		if !g.InBounds(c) {
			return nil, fmt.Errorf("unit %q at %s is off the map", spec.ID, c)
		}
		if other, ok := taken[c]; ok {
			return nil, fmt.Errorf("unit %q shares %s with %q", spec.ID, c, other)
		}
		taken[c] = spec.ID
		if spec.HP < 1 {
			return nil, fmt.Errorf("unit %q: hp must be >= 1, got %d", spec.ID, spec.HP)
		}
		team, err := unit.ParseTeam(spec.Team)
		if err != nil {
			return nil, fmt.Errorf("unit %q: %w", spec.ID, err)
		}
		traversal, err := grid.ParseTraversal(spec.Traversal)
		if err != nil {
			return nil, fmt.Errorf("unit %q: %w", spec.ID, err)
		}
		for _, a := range spec.Attacks {
			if _, ok := reg.Attack(a); !ok {
				return nil, fmt.Errorf("unit %q knows unknown attack %q", spec.ID, a)
			}
		}
		for _, p := range spec.Passives {
			if _, ok := reg.Passive(p); !ok {
				return nil, fmt.Errorf("unit %q has unknown passive %q", spec.ID, p)
			}
		}
		if spec.Weapon != "" {
			if _, ok := reg.Weapon(spec.Weapon); !ok {
				return nil, fmt.Errorf("unit %q wields unknown weapon %q", spec.ID, spec.Weapon)
			}
		}
		name := spec.Name
		if name == "" {
			name = spec.ID
		}
		u := unit.New(spec.ID, name, team, c, spec.HP, spec.Wisp, spec.Stats)
		u.Attacks = spec.Attacks
		u.Weapon = spec.Weapon
		u.Passives = spec.Passives
		u.Weight = unit.ParseWeight(spec.Weight)
		u.Traversal = traversal
		u.Origin = spec.Origin
		if spec.Level > 0 {
			u.Level = spec.Level
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *Scenario) obstacles(reg *ruleset.Registry, g *grid.Grid) ([]*unit.Obstacle, error) {
	out := make([]*unit.Obstacle, 0, len(s.Obstacles))
	for i, spec := range s.Obstacles {
		c := coord(spec.At)
		if !g.InBounds(c) {
			return nil, fmt.Errorf("obstacle %d at %s is off the map", i, c)
		}
		id := spec.ID
		if id == "" {
			id = fmt.Sprintf("obstacle-%d", i)
		}
		o := &unit.Obstacle{
			ID:         id,
			Name:       spec.Name,
			Tile:       c,
			Blocks:     spec.Blocks,
			Weight:     unit.ParseWeight(spec.Weight),
			Defense:    spec.Defense,
			Resistance: spec.Resistance,
			Wit:        spec.Wit,
		}
		if spec.HP != nil {
			if *spec.HP < 1 {
				return nil, fmt.Errorf("obstacle %q: hp must be >= 1, got %d", id, *spec.HP)
			}
			hp := *spec.HP
			o.HP, o.MaxHP = &hp, hp
		}
		if t := spec.Trap; t != nil {
			if t.Status != "" {
				if _, ok := reg.Status(t.Status); !ok {
					return nil, fmt.Errorf("obstacle %q trap applies unknown status %q", id, t.Status)
				}
			}
			o.Trap = &unit.Trap{Damage: t.Damage, Status: t.Status, StatusTurns: t.StatusTurns, SelfDestruct: t.SelfDestruct}
		}
		out = append(out, o)
	}
	return out, nil
}

func coord(at [2]int) grid.Coord { return grid.C(at[0], at[1]) }
