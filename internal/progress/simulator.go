package progress

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/oukeidos/skinscan/internal/logger"
)

// Options configures a Simulator. Zero values select defaults.
type Options struct {
	Timing Timing
	// Seed fixes the random ramp. Zero picks a time-based seed.
	Seed uint64
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Simulator animates a believable completion fraction while an operation of
// unknown duration is in flight. One Simulator serves one submission attempt.
type Simulator struct {
	mu        sync.Mutex
	timing    Timing
	timeline  *Timeline
	now       func() time.Time
	newTicker func(time.Duration) (<-chan time.Time, func())

	started time.Time
	running bool
	stopped bool
	done    bool
	// settledEarly records a settlement that arrived before Start.
	settledEarly bool

	value Fraction
	phase Phase

	onComplete  []func()
	subscribers map[int]func(Fraction, Phase)
	nextSub     int
	stopCh      chan struct{}
}

// New builds an idle simulator.
func New(opts Options) *Simulator {
	timing := opts.Timing
	if timing.SoftCeiling == 0 && timing.FrameInterval == 0 {
		timing = DefaultTiming()
	} else if err := timing.Validate(); err != nil {
		logger.Warn("Invalid progress timing; using defaults", "error", err)
		timing = DefaultTiming()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Simulator{
		timing:      timing,
		timeline:    NewTimeline(timing, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))),
		now:         now,
		newTicker:   realTicker,
		phase:       PhaseIdle,
		subscribers: make(map[int]func(Fraction, Phase)),
		stopCh:      make(chan struct{}),
	}
}

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Timing returns the curve in use.
func (s *Simulator) Timing() Timing { return s.timing }

// Start begins the ramp from 0. Calls after the first, or after Stop, are ignored.
func (s *Simulator) Start() {
	s.mu.Lock()
	if s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.started = s.now()
	s.phase = PhaseRampingRandom
	if s.settledEarly {
		s.timeline.Settle(0)
	}
	ticks, stopTicker := s.newTicker(s.timing.FrameInterval)
	s.mu.Unlock()

	go s.run(ticks, stopTicker)
}

// OnOperationSettled switches to the completion ramp from wherever the curve
// is now. Only the first call counts.
func (s *Simulator) OnOperationSettled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if !s.running {
		s.settledEarly = true
		return
	}
	elapsed := s.now().Sub(s.started)
	if s.timeline.Settle(elapsed) {
		logger.Debug("Progress settling", "elapsed", elapsed, "from", float64(s.value), "phase", s.phase.String())
	}
}

// Observe returns the current fraction and phase.
func (s *Simulator) Observe() (Fraction, Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
	return s.value, s.phase
}

// OnProgressComplete registers cb to run once when the fraction reaches 1.0.
// If that already happened, cb runs immediately.
func (s *Simulator) OnProgressComplete(cb func()) {
	if cb == nil {
		return
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if s.done {
		s.mu.Unlock()
		cb()
		return
	}
	s.onComplete = append(s.onComplete, cb)
	s.mu.Unlock()
}

// Subscribe registers fn for every frame. The returned func unsubscribes.
func (s *Simulator) Subscribe(fn func(Fraction, Phase)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || fn == nil {
		return func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Stop releases the frame ticker and drops all listeners. No callback starts
// after Stop returns, except one already past its final stopped check.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.onComplete = nil
	s.subscribers = make(map[int]func(Fraction, Phase))
	close(s.stopCh)
}

func (s *Simulator) run(ticks <-chan time.Time, stopTicker func()) {
	defer stopTicker()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticks:
			if finished := s.frame(); finished {
				return
			}
		}
	}
}

// advanceLocked moves value and phase to the timeline position at now.
// The fraction never goes down.
func (s *Simulator) advanceLocked() {
	if !s.running {
		return
	}
	v, phase := s.timeline.At(s.now().Sub(s.started))
	if v > s.value {
		s.value = v
	}
	s.phase = phase
}

// frame notifies subscribers and, on reaching 1.0, the completion callbacks.
// It reports whether the animation has finished.
func (s *Simulator) frame() bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return true
	}
	s.advanceLocked()
	value, phase := s.value, s.phase
	subs := make([]func(Fraction, Phase), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	var fire []func()
	if phase == PhaseDone && !s.done {
		s.done = true
		fire = s.onComplete
		s.onComplete = nil
	}
	s.mu.Unlock()

	for _, fn := range subs {
		if s.isStopped() {
			return true
		}
		fn(value, phase)
	}
	for _, cb := range fire {
		if s.isStopped() {
			return true
		}
		cb()
	}
	return phase == PhaseDone
}

func (s *Simulator) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
