// Package pathfind computes cost-bounded reachability over the battle grid
// and reverse distance fields toward a target tile.
//
// Both searches are Dijkstra over non-negative terrain costs. Neighbours are
// visited in north, east, south, west order and equal-cost queue entries pop
// in insertion order, so identical inputs always produce identical results.
package pathfind

import (
	"container/heap"
	"sort"

	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// Occupancy reports what stands on the map besides terrain.
type Occupancy interface {
	// UnitAt returns the living unit on c, or nil.
	UnitAt(c grid.Coord) *unit.Unit
	// Blocked reports whether a blocking obstacle stands on c.
	Blocked(c grid.Coord) bool
}

// Agent describes the mover.
type Agent struct {
	Start     grid.Coord
	Budget    int
	Traversal grid.Traversal
	Team      unit.Team
	// PassThroughEnemies lets the agent traverse, but never land on, tiles
	// held by opposing units.
	PassThroughEnemies bool
}

// Reach is the result of Search.
type Reach struct {
	Start    grid.Coord
	cost     map[grid.Coord]int
	prev     map[grid.Coord]grid.Coord
	landable map[grid.Coord]bool
}

type entry struct {
	at   grid.Coord
	cost int
	seq  int
}

type queue []entry

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].seq < q[j].seq
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)   { *q = append(*q, x.(entry)) }
func (q *queue) Pop() any {
	old := *q
	e := old[len(old)-1]
	*q = old[:len(old)-1]
	return e
}

// Search expands from a.Start while the accumulated entry cost stays within
// a.Budget. Tiles held by allies are traversable but not landable; tiles held
// by opponents are neither unless a.PassThroughEnemies is set.
//
// Precondition: g and occ must not be nil.
// Postcondition: the start tile is always reached at cost 0 and is landable.
func Search(g *grid.Grid, occ Occupancy, a Agent) *Reach {
	r := &Reach{
		Start:    a.Start,
		cost:     map[grid.Coord]int{a.Start: 0},
		prev:     make(map[grid.Coord]grid.Coord),
		landable: map[grid.Coord]bool{a.Start: true},
	}
	seq := 0
	q := &queue{{at: a.Start}}
	for q.Len() > 0 {
		cur := heap.Pop(q).(entry)
		if cur.cost > r.cost[cur.at] {
			continue
		}
		for _, n := range g.Neighbors(cur.at) {
			step, ok := g.Terrain(n).EnterCost(a.Traversal)
			if !ok || occ.Blocked(n) {
				continue
			}
			occupant := occ.UnitAt(n)
			if occupant != nil && a.Team.Opposes(occupant.Team) && !a.PassThroughEnemies {
				continue
			}
			total := cur.cost + step
			if total > a.Budget {
				continue
			}
			if best, seen := r.cost[n]; seen && best <= total {
				continue
			}
			r.cost[n] = total
			r.prev[n] = cur.at
			r.landable[n] = occupant == nil && g.Terrain(n).CanLand(a.Traversal)
			seq++
			heap.Push(q, entry{at: n, cost: total, seq: seq})
		}
	}
	return r
}

// Cost returns the accumulated cost to c and whether c is reachable.
func (r *Reach) Cost(c grid.Coord) (int, bool) {
	v, ok := r.cost[c]
	return v, ok
}

// Reachable reports whether c can be traversed to within budget.
func (r *Reach) Reachable(c grid.Coord) bool {
	_, ok := r.cost[c]
	return ok
}

// CanLand reports whether the agent may end its move on c.
func (r *Reach) CanLand(c grid.Coord) bool { return r.landable[c] }

// Reached returns every reachable tile in row-major order.
func (r *Reach) Reached() []grid.Coord {
	out := make([]grid.Coord, 0, len(r.cost))
	for c := range r.cost {
		out = append(out, c)
	}
	sortCoords(out)
	return out
}

// Landable returns every landable tile in row-major order.
func (r *Reach) Landable() []grid.Coord {
	var out []grid.Coord
	for c, ok := range r.landable {
		if ok {
			out = append(out, c)
		}
	}
	sortCoords(out)
	return out
}

// PathTo reconstructs the step-by-step path from the start to c, both
// inclusive. It returns nil when c was not reached.
func (r *Reach) PathTo(c grid.Coord) []grid.Coord {
	if _, ok := r.cost[c]; !ok {
		return nil
	}
	path := []grid.Coord{c}
	for c != r.Start {
		c = r.prev[c]
		path = append(path, c)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func sortCoords(cs []grid.Coord) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Less(cs[j]) })
}
