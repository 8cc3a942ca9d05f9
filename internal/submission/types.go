package submission

import (
	"context"
	"strconv"

	"github.com/oukeidos/skinscan/internal/analysis"
	"github.com/oukeidos/skinscan/internal/apperrors"
	"github.com/oukeidos/skinscan/internal/recovery"
)

// Slot is a capture position.
type Slot int

const (
	SlotFront Slot = iota
	SlotLeft
	SlotRight
)

// Slots lists every capture position in upload order.
var Slots = [3]Slot{SlotFront, SlotLeft, SlotRight}

func (s Slot) String() string {
	switch s {
	case SlotFront:
		return "front"
	case SlotLeft:
		return "left"
	case SlotRight:
		return "right"
	default:
		return "slot" + strconv.Itoa(int(s))
	}
}

// Image is one captured photo. Name is the local file name, used for logs only.
type Image struct {
	Name string
	Data []byte
}

// Request is one submission attempt. A nil image means the slot was not captured.
type Request struct {
	SessionID string
	Images    [3]*Image
}

// Present counts captured images.
func (r Request) Present() int {
	n := 0
	for _, img := range r.Images {
		if img != nil {
			n++
		}
	}
	return n
}

// Uploader stores one object in remote storage.
type Uploader interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) error
}

// Analyzer runs the remote skin analysis over uploaded objects.
type Analyzer interface {
	Analyze(ctx context.Context, sessionID string, imagePaths []string) (*analysis.Payload, error)
}

// StateSaver persists the local recovery record.
type StateSaver interface {
	Save(state recovery.State) (string, error)
}

// Status is the terminal state of an attempt.
type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "status(" + strconv.Itoa(int(s)) + ")"
	}
}

// Outcome is the primary result of an attempt.
type Outcome struct {
	Status  Status
	Payload *analysis.Payload
	Err     error
}

// Success wraps a payload.
func Success(p *analysis.Payload) Outcome {
	return Outcome{Status: StatusSuccess, Payload: p}
}

// Failure wraps a fatal error.
func Failure(err error) Outcome {
	return Outcome{Status: StatusFailure, Err: err}
}

// OK reports a successful outcome.
func (o Outcome) OK() bool { return o.Status == StatusSuccess }

// Message is the user-facing failure text.
func (o Outcome) Message() string {
	return apperrors.PublicMessage(o.Err)
}

// SideEffect records an auxiliary step that must never fail the attempt.
type SideEffect struct {
	Name string
	// Location is where the step wrote, if it succeeded.
	Location string
	Err      error
}

const SideEffectRecoveryState = "recovery_state"

// Result pairs the outcome with what happened on the side.
type Result struct {
	Outcome       Outcome
	UploadedPaths []string
	SideEffects   []SideEffect
}

// FailedSideEffects returns the auxiliary steps that failed.
func (r Result) FailedSideEffects() []SideEffect {
	var failed []SideEffect
	for _, se := range r.SideEffects {
		if se.Err != nil {
			failed = append(failed, se)
		}
	}
	return failed
}
