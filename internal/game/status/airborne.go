package status

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/event"
	"github.com/cory-johannsen/tactics/internal/game/ruleset"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// AirborneDriver owns the duration of airborne statuses, which the generic
// end-of-turn ticker skips. A unit stays aloft while it keeps being hit:
// every Hit on an airborne unit resets its turns to the definition's value,
// and every ActionFinalized decrements each airborne unit by one. At zero the
// status is removed.
type AirborneDriver struct {
	m      *Manager
	logger *zap.Logger
	aloft  []*unit.Unit
}

// NewAirborneDriver creates a driver and subscribes it to bus.
//
// Precondition: m and bus must not be nil.
func NewAirborneDriver(m *Manager, bus *event.Bus) *AirborneDriver {
	if m == nil || bus == nil {
		panic("status.NewAirborneDriver: m and bus must not be nil")
	}
	d := &AirborneDriver{m: m, logger: m.logger}
	bus.Subscribe(event.KindStatusApplied, d.onApplied)
	bus.Subscribe(event.KindStatusRemoved, d.onRemoved)
	bus.Subscribe(event.KindUnitDied, d.onDied)
	bus.Subscribe(event.KindHit, d.onHit)
	bus.Subscribe(event.KindActionFinalized, d.onActionFinalized)
	return d
}

// Aloft returns the units currently tracked as airborne, in the order they rose.
func (d *AirborneDriver) Aloft() []*unit.Unit {
	out := make([]*unit.Unit, len(d.aloft))
	copy(out, d.aloft)
	return out
}

func (d *AirborneDriver) isAirborne(s *unit.Status) bool {
	def, ok := d.m.Def(s)
	return ok && def.Kind == ruleset.KindAirborne
}

func (d *AirborneDriver) onApplied(e event.Event) {
	ev := e.(event.StatusApplied)
	if !d.isAirborne(ev.Effect) {
		return
	}
	for _, u := range d.aloft {
		if u == ev.Target {
			return
		}
	}
	d.aloft = append(d.aloft, ev.Target)
}

func (d *AirborneDriver) onRemoved(e event.Event) {
	ev := e.(event.StatusRemoved)
	if d.isAirborne(ev.Effect) && d.m.FindKind(ev.Target, ruleset.KindAirborne) == nil {
		d.drop(ev.Target)
	}
}

func (d *AirborneDriver) onDied(e event.Event) {
	d.drop(e.(event.UnitDied).Victim)
}

func (d *AirborneDriver) drop(u *unit.Unit) {
	out := d.aloft[:0]
	for _, a := range d.aloft {
		if a != u {
			out = append(out, a)
		}
	}
	d.aloft = out
}

func (d *AirborneDriver) onHit(e event.Event) {
	target, ok := e.(event.Hit).Target.(*unit.Unit)
	if !ok || !target.Alive() {
		return
	}
	s := d.m.FindKind(target, ruleset.KindAirborne)
	if s == nil {
		return
	}
	if def, ok := d.m.Def(s); ok && def.Turns > 0 {
		s.Turns = def.Turns
	}
}

func (d *AirborneDriver) onActionFinalized(event.Event) {
	for _, u := range d.Aloft() {
		s := d.m.FindKind(u, ruleset.KindAirborne)
		if s == nil {
			d.drop(u)
			continue
		}
		s.Turns--
		if s.Turns <= 0 {
			d.logger.Debug("airborne landed", zap.String("unit", u.ID))
			d.m.Remove(u, s.Type)
		}
	}
}
