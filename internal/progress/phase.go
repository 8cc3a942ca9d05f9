package progress

import (
	"math"
	"strconv"
)

// Phase is the animation regime currently driving the fraction.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRampingRandom
	PhaseFinalCreep
	PhaseCompleting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRampingRandom:
		return "ramping"
	case PhaseFinalCreep:
		return "final_creep"
	case PhaseCompleting:
		return "completing"
	case PhaseDone:
		return "done"
	default:
		return "phase(" + strconv.Itoa(int(p)) + ")"
	}
}

// Fraction is animated completion in [0, 1].
type Fraction float64

// Percent is the integer shown to the user. It reads 100 only at exactly 1.0.
func (f Fraction) Percent() int {
	p := int(math.Round(float64(f) * 100))
	if f < 1 && p >= 100 {
		return 99
	}
	if p < 0 {
		return 0
	}
	return p
}
