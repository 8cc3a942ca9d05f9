// Package screen owns the state of one visit to the submission loading
// screen: the progress simulator, the submission and the reconciler.
package screen

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oukeidos/skinscan/internal/analysis"
	"github.com/oukeidos/skinscan/internal/logger"
	"github.com/oukeidos/skinscan/internal/progress"
	"github.com/oukeidos/skinscan/internal/reconcile"
	"github.com/oukeidos/skinscan/internal/submission"
)

// Navigator moves between screens of the host front-end.
type Navigator interface {
	// Replace swaps the current screen for route; back does not return here.
	Replace(route reconcile.Route, payload *analysis.Payload)
	// BackTo pops to an earlier screen.
	BackTo(route reconcile.Route)
	// ResetTo clears the stack and shows route.
	ResetTo(route reconcile.Route)
}

// Chooser shows a blocking dialog and reports the picked choice through pick.
// pick may be called synchronously.
type Chooser interface {
	Choose(title, message string, choices []reconcile.Choice, pick func(reconcile.Choice))
}

// Starter runs a submission and reports its result once.
type Starter interface {
	Go(ctx context.Context, req submission.Request, onSettled func(submission.Result))
}

// Options configures the progress curve and frame rendering.
type Options struct {
	Timing progress.Timing
	Seed   uint64
	Now    func() time.Time
	// OnFrame, when set, receives every animation frame while mounted.
	OnFrame func(progress.Fraction, progress.Phase)
}

// Session is created per visit and discarded on Unmount.
type Session struct {
	starter Starter
	req     submission.Request
	nav     Navigator
	chooser Chooser
	opts    Options

	sim *progress.Simulator
	rec *reconcile.Reconciler

	mounted  atomic.Bool
	mountOne sync.Once
	done     chan struct{}
	doneOne  sync.Once
	pickOne  sync.Once

	mu       sync.Mutex
	result   submission.Result
	settled  bool
	decision *reconcile.Decision
	picked   *reconcile.Choice
}

// NewSession prepares a visit. Nothing runs until Mount.
func NewSession(starter Starter, req submission.Request, nav Navigator, chooser Chooser, opts Options) *Session {
	return &Session{
		starter: starter,
		req:     req,
		nav:     nav,
		chooser: chooser,
		opts:    opts,
		sim:     progress.New(progress.Options{Timing: opts.Timing, Seed: opts.Seed, Now: opts.Now}),
		rec:     reconcile.New(),
		done:    make(chan struct{}),
	}
}

// Mount starts the animation and the submission. Later calls are ignored.
func (s *Session) Mount(ctx context.Context) {
	s.mountOne.Do(func() {
		s.mounted.Store(true)
		log := logger.With("session_id", s.req.SessionID)

		if s.opts.OnFrame != nil {
			s.sim.Subscribe(func(v progress.Fraction, p progress.Phase) {
				if s.mounted.Load() {
					s.opts.OnFrame(v, p)
				}
			})
		}
		s.sim.OnProgressComplete(func() {
			if s.mounted.Load() {
				s.rec.AnimationFinished()
			}
		})
		s.rec.OnResolved(s.act)

		log.Debug("Loading screen mounted", "images", s.req.Present())
		s.sim.Start()
		s.starter.Go(ctx, s.req, s.onSettled)
	})
}

// Unmount stops timers and silences every pending callback.
func (s *Session) Unmount() {
	if !s.mounted.Swap(false) {
		s.finish()
		return
	}
	s.sim.Stop()
	s.finish()
	logger.Debug("Loading screen unmounted", "session_id", s.req.SessionID)
}

// Done is closed once the decision has been acted on, or on Unmount.
func (s *Session) Done() <-chan struct{} { return s.done }

// Observe returns the animated progress.
func (s *Session) Observe() (progress.Fraction, progress.Phase) { return s.sim.Observe() }

// Mounted reports whether callbacks are still live.
func (s *Session) Mounted() bool { return s.mounted.Load() }

// Result returns the submission result once it has settled.
func (s *Session) Result() (submission.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.settled
}

// Decision returns the reconciled decision, if any.
func (s *Session) Decision() (reconcile.Decision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.decision == nil {
		return reconcile.Decision{}, false
	}
	return *s.decision, true
}

// Picked returns the dialog choice the user made, if any.
func (s *Session) Picked() (reconcile.Choice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.picked == nil {
		return reconcile.Choice{}, false
	}
	return *s.picked, true
}

func (s *Session) onSettled(res submission.Result) {
	if !s.mounted.Load() {
		logger.Debug("Submission settled after unmount; dropping", "session_id", s.req.SessionID, "status", res.Outcome.Status.String())
		return
	}
	s.mu.Lock()
	s.result = res
	s.settled = true
	s.mu.Unlock()

	s.sim.OnOperationSettled()
	s.rec.OperationSettled(res.Outcome)
}

func (s *Session) act(d reconcile.Decision) {
	if !s.mounted.Load() {
		return
	}
	s.mu.Lock()
	s.decision = &d
	s.mu.Unlock()

	switch d.Kind {
	case reconcile.NavigateForward:
		s.nav.Replace(d.Route, d.Payload)
		s.finish()
	case reconcile.AskUser:
		s.chooser.Choose(d.Title, d.Message, d.Choices, s.pick)
	}
}

func (s *Session) pick(c reconcile.Choice) {
	s.pickOne.Do(func() {
		if !s.mounted.Load() {
			return
		}
		s.mu.Lock()
		s.picked = &c
		s.mu.Unlock()

		logger.Info("Failure dialog answered", "session_id", s.req.SessionID, "choice", c.Label)
		if c.Reset {
			s.nav.ResetTo(c.Route)
		} else {
			s.nav.BackTo(c.Route)
		}
		s.finish()
	})
}

func (s *Session) finish() {
	s.doneOne.Do(func() { close(s.done) })
}
