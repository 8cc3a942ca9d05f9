package apperrors

import (
	"errors"
	"strings"
)

type Kind string

const (
	// Attempt-level kinds. Each one is fatal for a submission attempt,
	// except KindPersistence which is only ever logged.
	KindInput       Kind = "input"
	KindUpload      Kind = "upload"
	KindInvocation  Kind = "invocation"
	KindPersistence Kind = "persistence"

	// Transport-level kinds, usually wrapped by one of the kinds above.
	KindTransient  Kind = "transient"
	KindRateLimit  Kind = "rate_limit"
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindBadRequest Kind = "bad_request"
)

type Error struct {
	Kind Kind
	// SafeMessage is intended for user-facing output and logs.
	SafeMessage string
	// Cause keeps the original internal error for troubleshooting.
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.SafeMessage); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func defaultSafeMessage(kind Kind) string {
	switch kind {
	case KindInput:
		return "Some required photos are missing. Please retake your scan."
	case KindUpload:
		return "We couldn't upload your photos. Please check your connection and try again."
	case KindInvocation:
		return "We couldn't analyze your scan right now. Please try again."
	case KindPersistence:
		return "Local scan history could not be saved."
	case KindTransient:
		return "Temporary upstream error. Please try again."
	case KindRateLimit:
		return "Rate limit exceeded. Please try again later."
	case KindAuth:
		return "Authentication failed. Please verify your API key and permissions."
	case KindValidation:
		return "Response validation failed."
	case KindBadRequest:
		return "Request rejected by upstream API."
	default:
		return "Request failed."
	}
}

func New(kind Kind, safeMessage string, cause error) error {
	msg := strings.TrimSpace(safeMessage)
	if msg == "" {
		msg = defaultSafeMessage(kind)
	}
	return &Error{
		Kind:        kind,
		SafeMessage: msg,
		Cause:       cause,
	}
}

func Input(err error) error       { return New(KindInput, "", err) }
func Upload(err error) error      { return New(KindUpload, "", err) }
func Invocation(err error) error  { return New(KindInvocation, "", err) }
func Persistence(err error) error { return New(KindPersistence, "", err) }
func Transient(err error) error   { return New(KindTransient, "", err) }
func RateLimit(err error) error   { return New(KindRateLimit, "", err) }
func Auth(err error) error        { return New(KindAuth, "", err) }
func Validation(err error) error  { return New(KindValidation, "", err) }
func BadRequest(err error) error  { return New(KindBadRequest, "", err) }

// KindOf returns the outermost Kind in the chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

// HasKind reports whether any error in the chain carries kind.
func HasKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// PublicMessage is the text shown to the user. A wrapped auth, bad_request
// or rate_limit error wins over the outer message: those tell the user what
// to change, and a retry with the same settings will fail again.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	msg := e.Error()
	for cause := e.Cause; cause != nil; cause = e.Cause {
		if !errors.As(cause, &e) {
			break
		}
		if actionable(e.Kind) {
			msg = e.Error()
		}
	}
	return msg
}

func actionable(kind Kind) bool {
	switch kind {
	case KindAuth, KindBadRequest, KindRateLimit:
		return true
	}
	return false
}

func IsRetryable(err error) bool {
	return HasKind(err, KindTransient) || HasKind(err, KindRateLimit)
}

func IsRateLimit(err error) bool {
	return HasKind(err, KindRateLimit)
}

// IsFatal reports whether err must end a submission attempt.
// Persistence failures are auxiliary and never fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	kind, ok := KindOf(err)
	if !ok {
		return true
	}
	return kind != KindPersistence
}

// Detail returns "kind: cause" for logs, where the safe message would hide
// the underlying error.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) || e.Cause == nil {
		return err.Error()
	}
	return string(e.Kind) + ": " + Detail(e.Cause)
}
