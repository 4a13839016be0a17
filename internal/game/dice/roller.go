package dice

import (
	"fmt"

	"go.uber.org/zap"
)

// Resolution is the number of buckets a probability draw is made against.
const Resolution = 10000

// Draw is the audit record of one probability check.
//
// Postcondition: Success == (Roll < Threshold).
type Draw struct {
	Label     string
	Roll      int // in [0, Resolution)
	Threshold int // probability scaled to Resolution
	Success   bool
}

// String returns "hit: 1234 < 9000 → true".
func (d Draw) String() string {
	return fmt.Sprintf("%s: %d < %d → %t", d.Label, d.Roll, d.Threshold, d.Success)
}

// Roller draws from a Source and logs every draw at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if src == nil || logger == nil {
		panic("dice.NewLoggedRoller: src and logger must not be nil")
	}
	return &Roller{src: src, logger: logger}
}

// Check consumes exactly one draw and succeeds with probability p.
// p is clamped to [0,1]; p == 1 always succeeds and p == 0 never does.
//
// Postcondition: returned Draw is logged.
func (r *Roller) Check(label string, p float64) Draw {
	p = min(max(p, 0), 1)
	d := Draw{
		Label:     label,
		Roll:      r.src.Intn(Resolution),
		Threshold: int(p * Resolution),
	}
	d.Success = d.Roll < d.Threshold
	r.logger.Debug("dice draw",
		zap.String("label", label),
		zap.Int("roll", d.Roll),
		zap.Int("threshold", d.Threshold),
		zap.Bool("success", d.Success),
	)
	return d
}

// Chance is Check reduced to its outcome.
func (r *Roller) Chance(label string, p float64) bool {
	return r.Check(label, p).Success
}
