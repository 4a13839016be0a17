// Package grid provides the tile grid the rules engine reads: coordinates,
// rectangles, terrain and per-tile status storage.
package grid

import "fmt"

// Coord is a tile position. X grows east, Y grows south.
type Coord struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// C is shorthand for Coord{X: x, Y: y}.
func C(x, y int) Coord { return Coord{X: x, Y: y} }

// Add returns c translated by d.
func (c Coord) Add(d Coord) Coord { return Coord{X: c.X + d.X, Y: c.Y + d.Y} }

// Sub returns the offset that translates o onto c.
func (c Coord) Sub(o Coord) Coord { return Coord{X: c.X - o.X, Y: c.Y - o.Y} }

// Manhattan returns the taxicab distance between c and o.
//
// Postcondition: Returns >= 0.
func (c Coord) Manhattan(o Coord) int {
	return abs(c.X-o.X) + abs(c.Y-o.Y)
}

// Less orders coordinates row-major. Used wherever a stable tie-break is needed.
func (c Coord) Less(o Coord) bool {
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.X < o.X
}

// String returns "(x,y)".
func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// Rect is an inclusive, axis-aligned tile rectangle.
//
// Invariant: Min.X <= Max.X and Min.Y <= Max.Y for rectangles built via Tile or Span.
type Rect struct {
	Min Coord
	Max Coord
}

// Tile returns the single-tile rectangle covering c.
func Tile(c Coord) Rect { return Rect{Min: c, Max: c} }

// Span returns the smallest rectangle covering every coord in cs.
//
// Precondition: len(cs) > 0.
func Span(cs ...Coord) Rect {
	r := Tile(cs[0])
	for _, c := range cs[1:] {
		r.Min.X = min(r.Min.X, c.X)
		r.Min.Y = min(r.Min.Y, c.Y)
		r.Max.X = max(r.Max.X, c.X)
		r.Max.Y = max(r.Max.Y, c.Y)
	}
	return r
}

// Overlaps reports whether r and o share at least one tile.
func (r Rect) Overlaps(o Rect) bool {
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X &&
		r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}

// Contains reports whether c lies inside r.
func (r Rect) Contains(c Coord) bool {
	return r.Overlaps(Tile(c))
}

// Coords lists every tile in r in row-major order.
func (r Rect) Coords() []Coord {
	var out []Coord
	for y := r.Min.Y; y <= r.Max.Y; y++ {
		for x := r.Min.X; x <= r.Max.X; x++ {
			out = append(out, Coord{X: x, Y: y})
		}
	}
	return out
}

// Facing is the cardinal direction a unit looks toward.
type Facing int

const (
	FacingSouth Facing = iota
	FacingNorth
	FacingEast
	FacingWest
)

// String returns the lowercase direction name.
func (f Facing) String() string {
	switch f {
	case FacingNorth:
		return "north"
	case FacingEast:
		return "east"
	case FacingWest:
		return "west"
	default:
		return "south"
	}
}

// FacingToward returns the facing from `from` toward `to`. The dominant axis
// wins; horizontal wins exact diagonals. Equal coords keep `current`.
func FacingToward(from, to Coord, current Facing) Facing {
	d := to.Sub(from)
	switch {
	case d.X == 0 && d.Y == 0:
		return current
	case abs(d.X) >= abs(d.Y):
		if d.X > 0 {
			return FacingEast
		}
		return FacingWest
	case d.Y > 0:
		return FacingSouth
	default:
		return FacingNorth
	}
}

// Step returns the unit offset for f.
func (f Facing) Step() Coord {
	switch f {
	case FacingNorth:
		return Coord{Y: -1}
	case FacingEast:
		return Coord{X: 1}
	case FacingWest:
		return Coord{X: -1}
	default:
		return Coord{Y: 1}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
