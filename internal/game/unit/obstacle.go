package unit

import "github.com/cory-johannsen/tactics/internal/game/grid"

// Trap is the payload of an obstacle that springs when a unit ends a move on it.
type Trap struct {
	Damage       int
	Status       string
	StatusTurns  int
	SelfDestruct bool
}

// Obstacle is a stationary map object. It is indestructible when HP is nil.
type Obstacle struct {
	ID     string
	Name   string
	Tile   grid.Coord
	HP     *int
	MaxHP  int
	Weight Weight
	// Blocks is true for obstacles units cannot move through (trees, barriers).
	Blocks     bool
	Defense    int
	Resistance int
	Wit        int
	Trap       *Trap
}

// NewDestructible creates an obstacle with hp health.
//
// Precondition: hp >= 1.
func NewDestructible(id, name string, tile grid.Coord, hp int) *Obstacle {
	return &Obstacle{ID: id, Name: name, Tile: tile, HP: &hp, MaxHP: hp, Blocks: true, Weight: Immovable}
}

// Destructible reports whether the obstacle has a health attribute.
func (o *Obstacle) Destructible() bool { return o.HP != nil }

// Standing reports whether the obstacle is still on the map: indestructible or health left.
func (o *Obstacle) Standing() bool { return o.HP == nil || *o.HP > 0 }

// TakeDamage reduces HP by amount and returns the damage dealt. Indestructible obstacles take none.
//
// Postcondition: *HP >= 0 when Destructible.
func (o *Obstacle) TakeDamage(amount int) int {
	if o.HP == nil || amount <= 0 {
		return 0
	}
	dealt := min(amount, *o.HP)
	*o.HP -= dealt
	return dealt
}

// Bounds returns the tile rectangle the obstacle occupies.
func (o *Obstacle) Bounds() grid.Rect { return grid.Tile(o.Tile) }
