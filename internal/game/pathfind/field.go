package pathfind

import (
	"container/heap"

	"github.com/cory-johannsen/tactics/internal/game/grid"
)

// DistanceField holds, for every tile, the cheapest movement cost to walk
// from that tile to a target. Units are ignored since they move; terrain and
// blocking obstacles are respected. The target tile itself is always
// reachable at distance 0.
type DistanceField struct {
	Target grid.Coord
	dist   map[grid.Coord]int
}

// NewDistanceField runs a reverse search seeded at target.
//
// Precondition: g and occ must not be nil.
func NewDistanceField(g *grid.Grid, occ Occupancy, target grid.Coord, t grid.Traversal) *DistanceField {
	f := &DistanceField{Target: target, dist: map[grid.Coord]int{target: 0}}
	if !g.InBounds(target) {
		return f
	}
	seq := 0
	q := &queue{{at: target}}
	for q.Len() > 0 {
		cur := heap.Pop(q).(entry)
		if cur.cost > f.dist[cur.at] {
			continue
		}
		// Walking from n into cur costs cur's entry cost.
		// Only the target can be queued without being enterable.
		step, ok := g.Terrain(cur.at).EnterCost(t)
		if !ok {
			step = 1
		}
		for _, n := range g.Neighbors(cur.at) {
			if _, ok := g.Terrain(n).EnterCost(t); !ok || occ.Blocked(n) {
				continue
			}
			total := cur.cost + step
			if best, seen := f.dist[n]; seen && best <= total {
				continue
			}
			f.dist[n] = total
			seq++
			heap.Push(q, entry{at: n, cost: total, seq: seq})
		}
	}
	return f
}

// Distance returns the cost from c to the target and whether the target can
// be reached from c at all.
func (f *DistanceField) Distance(c grid.Coord) (int, bool) {
	d, ok := f.dist[c]
	return d, ok
}

// Closest returns the candidate with the smallest finite distance. Ties go
// to the earlier candidate. ok is false when no candidate can reach the target.
func (f *DistanceField) Closest(candidates []grid.Coord) (best grid.Coord, dist int, ok bool) {
	for _, c := range candidates {
		d, reachable := f.dist[c]
		if !reachable {
			continue
		}
		if !ok || d < dist {
			best, dist, ok = c, d, true
		}
	}
	return best, dist, ok
}
