package progress

import (
	"math/rand/v2"
	"time"
)

type segment struct {
	start time.Duration
	dur   time.Duration
	from  float64
	to    float64
	phase Phase
}

func (s segment) end() time.Duration { return s.start + s.dur }

func (s segment) valueAt(elapsed time.Duration) float64 {
	if elapsed >= s.end() {
		return s.to
	}
	frac := float64(elapsed-s.start) / float64(s.dur)
	return s.from + (s.to-s.from)*frac
}

// Timeline is the whole animation laid out in advance from a random source.
// It is a pure function of elapsed time until Settle is called, after which
// the remainder is replaced by the completion ramp.
//
// Timeline is not safe for concurrent use; Simulator serializes access.
type Timeline struct {
	timing   Timing
	segments []segment
	stallAt  time.Duration

	settled    bool
	settleAt   time.Duration
	settleFrom float64
}

// NewTimeline lays out the ramp and creep steps. timing must be valid.
func NewTimeline(timing Timing, rng *rand.Rand) *Timeline {
	tl := &Timeline{timing: timing}

	var at time.Duration
	current := 0.0
	for current < timing.SoftCeiling {
		inc := timing.MinIncrement + rng.Float64()*(timing.MaxIncrement-timing.MinIncrement)
		dur := timing.MinStep + time.Duration(rng.Int64N(int64(timing.MaxStep-timing.MinStep)+1))
		target := current + inc
		if target > timing.SoftCeiling {
			target = timing.SoftCeiling
		}
		tl.segments = append(tl.segments, segment{start: at, dur: dur, from: current, to: target, phase: PhaseRampingRandom})
		at += dur
		current = target
	}

	for _, checkpoint := range timing.CreepCheckpoints {
		tl.segments = append(tl.segments, segment{start: at, dur: timing.CreepStep, from: current, to: checkpoint, phase: PhaseFinalCreep})
		at += timing.CreepStep
		current = checkpoint
	}
	tl.stallAt = at
	return tl
}

// StallsAt is the elapsed time after which an unsettled timeline stops moving.
func (tl *Timeline) StallsAt() time.Duration { return tl.stallAt }

// Settled reports whether Settle has been called.
func (tl *Timeline) Settled() bool { return tl.settled }

// Settle freezes the curve at elapsed and schedules the completion ramp from
// there. Only the first call has an effect; it reports whether this call did.
func (tl *Timeline) Settle(elapsed time.Duration) bool {
	if tl.settled {
		return false
	}
	if elapsed < 0 {
		elapsed = 0
	}
	from, _ := tl.unsettledAt(elapsed)
	tl.settled = true
	tl.settleAt = elapsed
	tl.settleFrom = from
	return true
}

// CompletesAt is when the fraction reaches 1.0, if settled.
func (tl *Timeline) CompletesAt() (time.Duration, bool) {
	if !tl.settled {
		return 0, false
	}
	return tl.settleAt + tl.timing.CompleteDuration, true
}

// At returns the fraction and phase at elapsed time since start.
func (tl *Timeline) At(elapsed time.Duration) (Fraction, Phase) {
	if elapsed < 0 {
		elapsed = 0
	}
	if tl.settled && elapsed >= tl.settleAt {
		p := float64(elapsed-tl.settleAt) / float64(tl.timing.CompleteDuration)
		if p >= 1 {
			return 1, PhaseDone
		}
		return Fraction(tl.settleFrom + (1-tl.settleFrom)*easeOutCubic(p)), PhaseCompleting
	}
	v, phase := tl.unsettledAt(elapsed)
	return Fraction(v), phase
}

func (tl *Timeline) unsettledAt(elapsed time.Duration) (float64, Phase) {
	for _, seg := range tl.segments {
		if elapsed < seg.end() {
			return seg.valueAt(elapsed), seg.phase
		}
	}
	if n := len(tl.segments); n > 0 {
		last := tl.segments[n-1]
		return last.to, PhaseFinalCreep
	}
	return 0, PhaseFinalCreep
}

func easeOutCubic(p float64) float64 {
	q := 1 - p
	return 1 - q*q*q
}
