// Package simulation is the headless host loop: it steps a battle frame by
// frame, lets both teams act through their controllers and ends turns and
// rounds until one team is left standing.
package simulation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/config"
	"github.com/cory-johannsen/tactics/internal/game/ai"
	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// maxPhaseFrames bounds one team phase. A phase that has not settled by
// then indicates an engine fault rather than a long fight.
const maxPhaseFrames = 100_000

// Result summarises a finished simulation.
type Result struct {
	Winner unit.Team
	// Decided is false when the round limit was reached with both teams alive.
	Decided bool
	Rounds  int
	Frames  int
}

// Runner owns the frame loop for one battle.
type Runner struct {
	battle    *combat.Battle
	phases    []phase
	frame     time.Duration
	maxRounds int
	frames    int
	logger    *zap.Logger
}

type phase struct {
	team unit.Team
	ctrl *ai.Controller
}

// NewRunner builds a Runner in which the player team acts first and the
// enemy team second, both driven by planner.
//
// Precondition: battle, planner and logger must not be nil; cfg must be valid.
func NewRunner(battle *combat.Battle, planner *ai.Planner, cfg config.Config, logger *zap.Logger) *Runner {
	if battle == nil {
		panic("simulation.NewRunner: battle must not be nil")
	}
	if logger == nil {
		panic("simulation.NewRunner: logger must not be nil")
	}
	r := &Runner{
		battle:    battle,
		frame:     cfg.Simulation.Frame,
		maxRounds: cfg.Simulation.MaxRounds,
		logger:    logger,
	}
	for _, team := range []unit.Team{unit.TeamPlayer, unit.TeamEnemy} {
		r.phases = append(r.phases, phase{
			team: team,
			ctrl: ai.NewController(battle, planner, team, cfg.AI.ThinkInterval, logger),
		})
	}
	return r
}

// Run plays rounds until the battle is decided, the round limit is reached
// or ctx is cancelled.
//
// Postcondition: on a nil error the battle is idle.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	for r.battle.Round() < r.maxRounds {
		for _, p := range r.phases {
			if err := r.runPhase(ctx, p); err != nil {
				return r.result(), err
			}
			if _, over := r.battle.Outcome(); over {
				return r.result(), nil
			}
		}
		r.battle.EndRound()
		if _, over := r.battle.Outcome(); over {
			return r.result(), nil
		}
	}
	r.logger.Info("round limit reached", zap.Int("rounds", r.maxRounds))
	return r.result(), nil
}

// runPhase lets p's team act until every unit has finished, then ends their turns.
func (r *Runner) runPhase(ctx context.Context, p phase) error {
	r.logger.Debug("phase started", zap.Stringer("team", p.team), zap.Int("round", r.battle.Round()))
	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if n >= maxPhaseFrames {
			return fmt.Errorf("%s phase of round %d did not settle after %d frames", p.team, r.battle.Round(), n)
		}
		r.Step(p.ctrl)
		if !r.battle.Idle() {
			continue
		}
		if _, over := r.battle.Outcome(); over || !p.ctrl.Pending() {
			break
		}
	}
	for _, u := range r.battle.Living(p.team) {
		r.battle.TickStatusEffects(u)
	}
	return nil
}

// Step advances one frame: resolve due effects, fire due counters, then let
// ctrl act if the battle has settled.
func (r *Runner) Step(ctrl *ai.Controller) {
	r.battle.ResolveAttackEffects(r.frame)
	r.battle.AdvanceCounters(r.frame)
	ctrl.RunEnemyDecision(r.frame)
	r.frames++
}

func (r *Runner) result() Result {
	winner, over := r.battle.Outcome()
	return Result{Winner: winner, Decided: over, Rounds: r.battle.Round(), Frames: r.frames}
}
