package simulation

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/event"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// Journal writes a structured log line for every battle event worth reading
// in a simulation transcript.
type Journal struct {
	logger *zap.Logger
	counts map[event.Kind]int
}

// NewJournal subscribes a Journal to bus.
//
// Precondition: bus and logger must not be nil.
func NewJournal(bus *event.Bus, logger *zap.Logger) *Journal {
	if bus == nil {
		panic("simulation.NewJournal: bus must not be nil")
	}
	if logger == nil {
		panic("simulation.NewJournal: logger must not be nil")
	}
	j := &Journal{logger: logger, counts: make(map[event.Kind]int)}
	bus.SubscribeAll(j.record)
	return j
}

// Count returns how many events of kind k have been seen.
func (j *Journal) Count(k event.Kind) int { return j.counts[k] }

func (j *Journal) record(e event.Event) {
	j.counts[e.Kind()]++
	switch ev := e.(type) {
	case event.Hit:
		j.logger.Info("hit",
			zap.String("attacker", ev.Attacker.ID),
			zap.String("target", targetID(ev.Target)),
			zap.String("attack", ev.Attack),
			zap.Int("damage", ev.Damage),
			zap.Bool("crit", ev.Crit),
			zap.Bool("counter", ev.Counter),
		)
	case event.Missed:
		j.logger.Info("miss",
			zap.String("attacker", ev.Attacker.ID),
			zap.String("target", targetID(ev.Target)),
			zap.String("attack", ev.Attack),
		)
	case event.Healed:
		j.logger.Info("healed",
			zap.String("caster", ev.Caster.ID),
			zap.String("target", ev.Target.ID),
			zap.Int("amount", ev.Amount),
		)
	case event.UnitDied:
		fields := []zap.Field{zap.String("unit", ev.Victim.ID), zap.String("reason", ev.Reason)}
		if ev.Killer != nil {
			fields = append(fields, zap.String("killer", ev.Killer.ID))
		}
		j.logger.Info("casualty", fields...)
	case event.StatusApplied:
		j.logger.Info("status applied",
			zap.String("unit", ev.Target.ID),
			zap.String("status", ev.Effect.Type),
			zap.Int("turns", ev.Effect.Turns),
		)
	case event.ExperienceGained:
		if ev.LevelUp {
			j.logger.Info("level up", zap.String("unit", ev.Unit.ID), zap.Int("level", ev.Unit.Level))
		}
	case event.ObstacleDestroyed:
		j.logger.Info("obstacle destroyed", zap.String("obstacle", ev.Obstacle.ID))
	}
}

func targetID(t any) string {
	switch v := t.(type) {
	case *unit.Unit:
		return v.ID
	case *unit.Obstacle:
		return v.ID
	default:
		return ""
	}
}
