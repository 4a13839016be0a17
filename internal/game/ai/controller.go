package ai

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// Controller drives one team's units through the planner, one unit per think
// interval, waiting for the battle to settle between actions.
type Controller struct {
	battle   *combat.Battle
	planner  *Planner
	team     unit.Team
	interval time.Duration
	elapsed  time.Duration
	logger   *zap.Logger
}

// NewController constructs a Controller for team.
//
// Precondition: battle, planner and logger must not be nil.
func NewController(battle *combat.Battle, planner *Planner, team unit.Team, interval time.Duration, logger *zap.Logger) *Controller {
	if battle == nil {
		panic("ai.NewController: battle must not be nil")
	}
	if planner == nil {
		panic("ai.NewController: planner must not be nil")
	}
	if logger == nil {
		panic("ai.NewController: logger must not be nil")
	}
	return &Controller{
		battle:   battle,
		planner:  planner,
		team:     team,
		interval: interval,
		logger:   logger.With(zap.Stringer("team", team)),
	}
}

// RunEnemyDecision advances the think timer by dt and, once the interval has
// elapsed and nothing is in flight, decides and executes the next ready
// unit's action. It reports whether a unit acted.
func (c *Controller) RunEnemyDecision(dt time.Duration) bool {
	c.elapsed += dt
	if c.elapsed < c.interval || !c.battle.Idle() {
		return false
	}
	u := c.next()
	if u == nil {
		return false
	}
	c.elapsed = 0
	d := c.planner.Decide(u)
	c.logger.Debug("unit decided",
		zap.String("unit", u.ID),
		zap.Stringer("decision", d),
		zap.Float64("score", d.Score),
	)
	c.Execute(u, d)
	return true
}

// Pending reports whether any living unit of the team still has to act.
func (c *Controller) Pending() bool { return c.next() != nil }

// Execute carries out d for u: movement first, then the attack if any. A
// unit that ends up not attacking has its turn finalized as a wait.
func (c *Controller) Execute(u *unit.Unit, d Decision) {
	if d.Moves() {
		c.battle.MoveUnit(u, d.Move)
		if !u.Alive() {
			return
		}
	}
	if d.Kind == Attack || d.Kind == Clear {
		if c.battle.PerformAttack(u, d.Attack, d.Target) {
			return
		}
		c.logger.Warn("planned attack rejected",
			zap.String("unit", u.ID),
			zap.String("attack", d.Attack),
			zap.Stringer("target", d.Target),
		)
	}
	c.battle.Wait(u)
}

func (c *Controller) next() *unit.Unit {
	for _, u := range c.battle.Living(c.team) {
		if !u.HasActed && !u.ActionInProgress && !u.TurnEndedByForcedMove {
			return u
		}
	}
	return nil
}
