// Package reconcile joins "the progress animation reached 100%" with "the
// submission settled" into one navigation decision.
package reconcile

import (
	"strconv"
	"sync"

	"github.com/oukeidos/skinscan/internal/analysis"
	"github.com/oukeidos/skinscan/internal/logger"
	"github.com/oukeidos/skinscan/internal/submission"
)

// State is the reconciler's position.
type State int

const (
	WaitingOnBoth State = iota
	// WaitingOnAnimation: the operation is done, the animation is finishing.
	WaitingOnAnimation
	// WaitingOnOperation: the animation is done, the operation is pending.
	WaitingOnOperation
	Resolved
)

func (s State) String() string {
	switch s {
	case WaitingOnBoth:
		return "waiting_on_both"
	case WaitingOnAnimation:
		return "waiting_on_animation"
	case WaitingOnOperation:
		return "waiting_on_operation"
	case Resolved:
		return "resolved"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Route names a screen of the flow.
type Route string

const (
	RouteHome     Route = "home"
	RouteCapture  Route = "capture"
	RouteLoading  Route = "loading"
	RouteAnalysis Route = "analysis"
)

// Choice is one button of the failure dialog.
type Choice struct {
	Label string
	Route Route
	// Reset clears the navigation stack instead of going back.
	Reset bool
}

const (
	LabelTryAgain = "Try Again"
	LabelCancel   = "Cancel"
)

// FailureChoices are the two actions offered on failure, in display order.
var FailureChoices = []Choice{
	{Label: LabelTryAgain, Route: RouteCapture},
	{Label: LabelCancel, Route: RouteHome, Reset: true},
}

// Kind distinguishes the two decisions.
type Kind int

const (
	// NavigateForward replaces the loading screen with the analysis screen.
	NavigateForward Kind = iota
	// AskUser shows a blocking dialog with Choices.
	AskUser
)

// Decision is the one user-visible result of an attempt.
type Decision struct {
	Kind    Kind
	Route   Route
	Replace bool
	Payload *analysis.Payload

	Title   string
	Message string
	Choices []Choice
}

// DecisionFor maps a settled outcome to its decision.
func DecisionFor(o submission.Outcome) Decision {
	if o.Status == submission.StatusSuccess {
		return Decision{
			Kind:    NavigateForward,
			Route:   RouteAnalysis,
			Replace: true,
			Payload: o.Payload,
		}
	}
	return Decision{
		Kind:    AskUser,
		Title:   "Analysis failed",
		Message: o.Message(),
		Choices: append([]Choice(nil), FailureChoices...),
	}
}

// Reconciler resolves exactly once, whichever signal arrives first.
type Reconciler struct {
	mu         sync.Mutex
	state      State
	outcome    submission.Outcome
	decision   Decision
	onResolved []func(Decision)
}

// New returns a reconciler waiting on both signals.
func New() *Reconciler {
	return &Reconciler{state: WaitingOnBoth}
}

// State returns the current state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Decision returns the decision once resolved.
func (r *Reconciler) Decision() (Decision, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.decision, r.state == Resolved
}

// OnResolved registers fn to run once with the decision. If already resolved,
// fn runs immediately.
func (r *Reconciler) OnResolved(fn func(Decision)) {
	r.mu.Lock()
	if r.state == Resolved {
		d := r.decision
		r.mu.Unlock()
		fn(d)
		return
	}
	r.onResolved = append(r.onResolved, fn)
	r.mu.Unlock()
}

// AnimationFinished records that the progress reached 1.0.
func (r *Reconciler) AnimationFinished() {
	r.mu.Lock()
	switch r.state {
	case WaitingOnBoth:
		r.state = WaitingOnOperation
		r.mu.Unlock()
		return
	case WaitingOnAnimation:
		r.resolveAndUnlock()
		return
	default:
		r.mu.Unlock()
	}
}

// OperationSettled records the submission outcome. Pending outcomes and
// repeated calls are ignored.
func (r *Reconciler) OperationSettled(o submission.Outcome) {
	if o.Status == submission.StatusPending {
		logger.Warn("Ignoring pending outcome")
		return
	}
	r.mu.Lock()
	switch r.state {
	case WaitingOnBoth:
		r.outcome = o
		r.state = WaitingOnAnimation
		r.mu.Unlock()
	case WaitingOnOperation:
		r.outcome = o
		r.resolveAndUnlock()
	default:
		r.mu.Unlock()
	}
}

func (r *Reconciler) resolveAndUnlock() {
	r.state = Resolved
	r.decision = DecisionFor(r.outcome)
	callbacks := r.onResolved
	r.onResolved = nil
	d := r.decision
	status := r.outcome.Status
	r.mu.Unlock()

	logger.Debug("Submission reconciled", "outcome", status.String())
	for _, fn := range callbacks {
		fn(d)
	}
}
