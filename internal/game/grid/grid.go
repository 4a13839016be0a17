package grid

import (
	"fmt"
	"sort"
)

// Traversal is how a unit crosses terrain.
type Traversal int

const (
	Walk Traversal = iota
	Swim
	Fly
)

// ParseTraversal maps "walk", "swim" and "fly" to a Traversal.
func ParseTraversal(s string) (Traversal, error) {
	switch s {
	case "", "walk":
		return Walk, nil
	case "swim":
		return Swim, nil
	case "fly":
		return Fly, nil
	default:
		return Walk, fmt.Errorf("grid: unknown traversal %q", s)
	}
}

// Terrain is the static description of a tile type.
type Terrain struct {
	Name            string `yaml:"name"`
	Cost            int    `yaml:"cost"`
	Impassable      bool   `yaml:"impassable"`
	Water           bool   `yaml:"water"` // deep water: swimmers and flyers only
	Chasm           bool   `yaml:"chasm"` // flyers cross, nobody lands
	Flammable       bool   `yaml:"flammable"`
	SpreadsFire     bool   `yaml:"spreads_fire"`
	DefenseBonus    int    `yaml:"defense_bonus"`
	ResistanceBonus int    `yaml:"resistance_bonus"`
	WitBonus        int    `yaml:"wit_bonus"`
}

// EnterCost returns the movement cost for t to enter a tile of this terrain.
// Flyers always pay 1.
//
// Postcondition: ok is false iff the tile cannot be entered; cost >= 1 when ok.
func (tr *Terrain) EnterCost(t Traversal) (int, bool) {
	if tr == nil || tr.Impassable {
		return 0, false
	}
	if t == Fly {
		return 1, true
	}
	if tr.Chasm {
		return 0, false
	}
	if tr.Water {
		if t != Swim {
			return 0, false
		}
		return 1, true
	}
	return max(tr.Cost, 1), true
}

// CanLand reports whether a unit using t may end its move on this terrain.
func (tr *Terrain) CanLand(t Traversal) bool {
	if _, ok := tr.EnterCost(t); !ok {
		return false
	}
	return !tr.Chasm
}

// TileStatus is a named condition attached to a tile (burning, frozen).
type TileStatus struct {
	Type       string
	Turns      int
	AttackerID string
}

type tile struct {
	terrain  *Terrain
	statuses map[string]*TileStatus
}

// Grid is a rectangular tile map.
// It is not safe for concurrent use; the caller must serialise access.
type Grid struct {
	width, height int
	tiles         []tile
}

// New creates a width×height grid filled with fill.
//
// Precondition: width > 0, height > 0, fill non-nil.
func New(width, height int, fill *Terrain) *Grid {
	if width <= 0 || height <= 0 || fill == nil {
		panic("grid.New: width and height must be > 0 and fill must not be nil")
	}
	g := &Grid{width: width, height: height, tiles: make([]tile, width*height)}
	for i := range g.tiles {
		g.tiles[i].terrain = fill
	}
	return g
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// InBounds reports whether c is on the map.
func (g *Grid) InBounds(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.width && c.Y < g.height
}

func (g *Grid) at(c Coord) *tile {
	if !g.InBounds(c) {
		return nil
	}
	return &g.tiles[c.Y*g.width+c.X]
}

// SetTerrain replaces the terrain at c. Out-of-bounds coords are ignored.
func (g *Grid) SetTerrain(c Coord, t *Terrain) {
	if tl := g.at(c); tl != nil && t != nil {
		tl.terrain = t
	}
}

// Terrain returns the terrain at c, or nil when c is off the map.
func (g *Grid) Terrain(c Coord) *Terrain {
	if tl := g.at(c); tl != nil {
		return tl.terrain
	}
	return nil
}

// neighborOrder is the fixed visitation order used by every search: N, E, S, W.
var neighborOrder = [4]Coord{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}

// Neighbors returns the in-bounds orthogonal neighbours of c in N, E, S, W order.
func (g *Grid) Neighbors(c Coord) []Coord {
	out := make([]Coord, 0, 4)
	for _, d := range neighborOrder {
		n := c.Add(d)
		if g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// TileStatus returns the status of type typ on c.
func (g *Grid) TileStatus(c Coord, typ string) (*TileStatus, bool) {
	tl := g.at(c)
	if tl == nil || tl.statuses == nil {
		return nil, false
	}
	s, ok := tl.statuses[typ]
	return s, ok
}

// SetTileStatus stores s on c, replacing any status of the same type.
// Out-of-bounds coords are ignored.
func (g *Grid) SetTileStatus(c Coord, s *TileStatus) {
	tl := g.at(c)
	if tl == nil || s == nil {
		return
	}
	if tl.statuses == nil {
		tl.statuses = make(map[string]*TileStatus)
	}
	tl.statuses[s.Type] = s
}

// DeleteTileStatus removes status typ from c. Absent statuses are a no-op.
func (g *Grid) DeleteTileStatus(c Coord, typ string) {
	if tl := g.at(c); tl != nil && tl.statuses != nil {
		delete(tl.statuses, typ)
	}
}

// TilesWithStatus lists, row-major, every coord carrying at least one status.
func (g *Grid) TilesWithStatus() []Coord {
	var out []Coord
	for i, tl := range g.tiles {
		if len(tl.statuses) > 0 {
			out = append(out, Coord{X: i % g.width, Y: i / g.width})
		}
	}
	return out
}

// TileStatusTypes returns the sorted status types present on c.
func (g *Grid) TileStatusTypes(c Coord) []string {
	tl := g.at(c)
	if tl == nil {
		return nil
	}
	out := make([]string, 0, len(tl.statuses))
	for typ := range tl.statuses {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}
