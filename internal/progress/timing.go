package progress

import (
	"fmt"
	"time"
)

// Timing holds the knobs of the simulated progress curve.
type Timing struct {
	// Each ramp step adds a random increment in [MinIncrement, MaxIncrement]
	// over a random duration in [MinStep, MaxStep].
	MinIncrement float64
	MaxIncrement float64
	MinStep      time.Duration
	MaxStep      time.Duration

	// SoftCeiling ends the ramp; no ramp step may pass it.
	SoftCeiling float64

	// CreepCheckpoints are visited in order, one every CreepStep, after the
	// ramp. The last one is where an unsettled simulator stays.
	CreepCheckpoints []float64
	CreepStep        time.Duration

	// CompleteDuration is the ease-out ramp to 1.0 after settlement.
	CompleteDuration time.Duration

	// FrameInterval is how often subscribers are notified.
	FrameInterval time.Duration
}

// DefaultTiming returns the production curve.
func DefaultTiming() Timing {
	return Timing{
		MinIncrement:     0.04,
		MaxIncrement:     0.12,
		MinStep:          1600 * time.Millisecond,
		MaxStep:          4 * time.Second,
		SoftCeiling:      0.93,
		CreepCheckpoints: []float64{0.94, 0.95, 0.96},
		CreepStep:        3 * time.Second,
		CompleteDuration: 1200 * time.Millisecond,
		FrameInterval:    50 * time.Millisecond,
	}
}

// Validate reports the first inconsistent field.
func (t Timing) Validate() error {
	if t.MinIncrement <= 0 || t.MaxIncrement < t.MinIncrement {
		return fmt.Errorf("invalid increment range [%v, %v]", t.MinIncrement, t.MaxIncrement)
	}
	if t.MinStep <= 0 || t.MaxStep < t.MinStep {
		return fmt.Errorf("invalid step duration range [%v, %v]", t.MinStep, t.MaxStep)
	}
	if t.SoftCeiling <= 0 || t.SoftCeiling >= 1 {
		return fmt.Errorf("soft ceiling must be in (0, 1): %v", t.SoftCeiling)
	}
	prev := t.SoftCeiling
	for i, c := range t.CreepCheckpoints {
		if c < prev || c >= 1 {
			return fmt.Errorf("creep checkpoint %d (%v) must be in [%v, 1)", i, c, prev)
		}
		prev = c
	}
	if len(t.CreepCheckpoints) > 0 && t.CreepStep <= 0 {
		return fmt.Errorf("creep step must be positive: %v", t.CreepStep)
	}
	if t.CompleteDuration <= 0 {
		return fmt.Errorf("complete duration must be positive: %v", t.CompleteDuration)
	}
	if t.FrameInterval <= 0 {
		return fmt.Errorf("frame interval must be positive: %v", t.FrameInterval)
	}
	return nil
}

// StallValue is where an unsettled simulator ends up.
func (t Timing) StallValue() float64 {
	if n := len(t.CreepCheckpoints); n > 0 {
		return t.CreepCheckpoints[n-1]
	}
	return t.SoftCeiling
}
