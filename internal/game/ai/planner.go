package ai

import (
	"sort"

	"github.com/cory-johannsen/tactics/internal/config"
	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/passive"
	"github.com/cory-johannsen/tactics/internal/game/pathfind"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// Planner evaluates the priority-ordered decision procedure for one unit at
// a time. It never mutates the battle.
//
// Invariant: battle must not be nil.
type Planner struct {
	battle *combat.Battle
	cfg    config.AIConfig
}

// NewPlanner constructs a Planner.
//
// Precondition: battle must not be nil.
func NewPlanner(battle *combat.Battle, cfg config.AIConfig) *Planner {
	if battle == nil {
		panic("ai.NewPlanner: battle must not be nil")
	}
	return &Planner{battle: battle, cfg: cfg}
}

// Decide returns the first applicable action for u, in order: capture a
// reachable objective, the best-scoring attack, clearing an obstacle that
// stands between u and its goal, approaching the goal, waiting.
//
// Postcondition: a dead or action-prevented unit always waits.
func (p *Planner) Decide(u *unit.Unit) Decision {
	wait := Decision{Kind: Wait}
	if u == nil || !u.Alive() {
		return wait
	}
	wait.Move = u.Tile
	if p.battle.Statuses().PreventsAction(u) {
		return wait
	}
	r := p.Reach(u)
	if d, ok := p.capture(u, r); ok {
		return d
	}
	if d, ok := p.bestAttack(u, r); ok {
		return d
	}
	goal, hasGoal := p.Goal(u)
	if !hasGoal {
		return wait
	}
	if d, ok := p.clear(u, r, goal); ok {
		return d
	}
	if d, ok := p.approach(u, r, goal); ok {
		return d
	}
	return wait
}

// Reach runs the movement search for u's current turn.
func (p *Planner) Reach(u *unit.Unit) *pathfind.Reach {
	return pathfind.Search(p.battle.Grid(), p.battle, pathfind.Agent{
		Start:              u.Tile,
		Budget:             u.Final.Movement,
		Traversal:          u.Traversal,
		Team:               u.Team,
		PassThroughEnemies: p.battle.Roster().HasPassive(u, passive.PhaseWalk),
	})
}

// Goal returns u's movement objective: the nearest objective its team does
// not own, else the nearest living opponent.
func (p *Planner) Goal(u *unit.Unit) (grid.Coord, bool) {
	var tiles []grid.Coord
	for _, o := range p.battle.Objectives() {
		if o.Owner != u.Team {
			tiles = append(tiles, o.Tile)
		}
	}
	if len(tiles) == 0 {
		for _, o := range p.battle.Opponents(u) {
			tiles = append(tiles, o.Tile)
		}
	}
	return nearest(u.Tile, tiles)
}

func (p *Planner) capture(u *unit.Unit, r *pathfind.Reach) (Decision, bool) {
	best, bestCost, found := grid.Coord{}, 0, false
	for _, o := range p.battle.Objectives() {
		if o.Owner == u.Team || !r.CanLand(o.Tile) {
			continue
		}
		cost, _ := r.Cost(o.Tile)
		if !found || cost < bestCost {
			best, bestCost, found = o.Tile, cost, true
		}
	}
	if !found {
		return Decision{}, false
	}
	return p.moveTo(Capture, u, r, best), true
}

func (p *Planner) bestAttack(u *unit.Unit, r *pathfind.Reach) (Decision, bool) {
	var best Decision
	found := false
	opponents := p.battle.Opponents(u)
	for _, from := range positions(u, r) {
		for _, atk := range u.Attacks {
			for _, o := range opponents {
				if !p.battle.CanTarget(u, atk, from, o.Tile) {
					continue
				}
				f, ok := p.battle.ForecastUnit(u, atk, from, o)
				if !ok {
					continue
				}
				s := p.score(atk, f)
				// Strictly greater keeps the earlier option, and the
				// current tile is always evaluated first.
				if found && s <= best.Score {
					continue
				}
				best = p.moveTo(Attack, u, r, from)
				best.Attack, best.Target, best.Score = atk, o.Tile, s
				found = true
			}
		}
	}
	return best, found
}

// score is expected damage less the wisp penalty. A lethal forecast scores
// LethalScore scaled by its hit chance on top of the expected damage.
func (p *Planner) score(attack string, f combat.Forecast) float64 {
	expected := f.Hit * float64(f.Damage)
	if f.Lethal {
		return p.cfg.LethalScore*f.Hit + expected
	}
	cost := 0
	if def, ok := p.battle.Registry().Attack(attack); ok {
		cost = def.WispCost
	}
	return expected - p.cfg.WispPenalty*float64(cost)
}

func (p *Planner) clear(u *unit.Unit, r *pathfind.Reach, goal grid.Coord) (Decision, bool) {
	var candidates []*unit.Obstacle
	for _, o := range p.battle.Obstacles() {
		if o.Destructible() && o.Tile.Manhattan(goal) < u.Tile.Manhattan(goal) {
			candidates = append(candidates, o)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return u.Tile.Manhattan(candidates[i].Tile) < u.Tile.Manhattan(candidates[j].Tile)
	})
	for _, o := range candidates {
		for _, from := range positions(u, r) {
			var best Decision
			found := false
			for _, atk := range u.Attacks {
				if !p.battle.CanTarget(u, atk, from, o.Tile) {
					continue
				}
				f, ok := p.battle.ForecastObstacle(u, atk, from, o)
				if !ok {
					continue
				}
				if s := p.score(atk, f); !found || s > best.Score {
					best = p.moveTo(Clear, u, r, from)
					best.Attack, best.Target, best.Score = atk, o.Tile, s
					found = true
				}
			}
			if found {
				return best, true
			}
		}
	}
	return Decision{}, false
}

// approach moves u onto the landable tile with the shortest real walking
// distance to goal. When goal cannot be reached from anywhere u can land, it
// falls back to the landable tile closest to goal by Manhattan distance.
// Either way the move must strictly improve on u's current tile.
func (p *Planner) approach(u *unit.Unit, r *pathfind.Reach, goal grid.Coord) (Decision, bool) {
	landable := r.Landable()
	field := pathfind.NewDistanceField(p.battle.Grid(), p.battle, goal, u.Traversal)
	if dest, dist, ok := field.Closest(landable); ok {
		here, reachable := field.Distance(u.Tile)
		if reachable && dist >= here {
			return Decision{}, false
		}
		return p.moveTo(Approach, u, r, dest), true
	}
	dest, ok := nearest(goal, landable)
	if !ok || dest.Manhattan(goal) >= u.Tile.Manhattan(goal) {
		return Decision{}, false
	}
	return p.moveTo(Approach, u, r, dest), true
}

func (p *Planner) moveTo(k Kind, u *unit.Unit, r *pathfind.Reach, dest grid.Coord) Decision {
	d := Decision{Kind: k, Move: dest}
	if dest != u.Tile {
		d.Path = r.PathTo(dest)
	}
	return d
}

// positions lists where u can act from: its own tile, then every other
// landable tile in row-major order.
func positions(u *unit.Unit, r *pathfind.Reach) []grid.Coord {
	out := []grid.Coord{u.Tile}
	for _, c := range r.Landable() {
		if c != u.Tile {
			out = append(out, c)
		}
	}
	return out
}

// nearest returns the tile closest to from by Manhattan distance; ties go to
// the earlier tile.
func nearest(from grid.Coord, tiles []grid.Coord) (grid.Coord, bool) {
	var best grid.Coord
	found := false
	for _, c := range tiles {
		if !found || from.Manhattan(c) < from.Manhattan(best) {
			best, found = c, true
		}
	}
	return best, found
}
