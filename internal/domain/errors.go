package domain

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	TimeoutMessage      = "Request timeout. The server may be starting up. Please try again in a moment."
	ConnectivityMessage = "Connection error. Please check your connection and try again."
	GenericMessage      = "Something went wrong. Please try again."
)

type FailureKind int

const (
	// KindApplication: the backend answered with a non-2xx status.
	KindApplication FailureKind = iota
	// KindTimeout: no response within the call budget.
	KindTimeout
	// KindConnectivity: transport-level failure, nothing came back.
	KindConnectivity
	// KindValidation: a client-side precondition failed, no call was made.
	KindValidation
)

func (k FailureKind) String() string {
	switch k {
	case KindApplication:
		return "application"
	case KindTimeout:
		return "timeout"
	case KindConnectivity:
		return "connectivity"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Failure is the error type every storefront operation reports.
type Failure struct {
	Kind     FailureKind
	Status   int
	Message  string
	Attempts int
	Err      error
}

func (f *Failure) Error() string {
	switch {
	case f.Status != 0 && f.Message != "":
		return fmt.Sprintf("%s failure (status %d): %s", f.Kind, f.Status, f.Message)
	case f.Status != 0:
		return fmt.Sprintf("%s failure (status %d)", f.Kind, f.Status)
	case f.Message != "":
		return fmt.Sprintf("%s failure: %s", f.Kind, f.Message)
	case f.Err != nil:
		return fmt.Sprintf("%s failure: %v", f.Kind, f.Err)
	default:
		return f.Kind.String() + " failure"
	}
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Retryable reports whether repeating the same call could succeed.
func (f *Failure) Retryable() bool {
	switch f.Kind {
	case KindTimeout, KindConnectivity:
		return true
	case KindApplication:
		return f.Status >= http.StatusInternalServerError ||
			f.Status == http.StatusRequestTimeout ||
			f.Status == http.StatusTooManyRequests
	default:
		return false
	}
}

// UserMessage is the text shown to a user for this failure. fallback is used
// when the backend gave no message of its own.
func (f *Failure) UserMessage(fallback string) string {
	switch f.Kind {
	case KindTimeout:
		return TimeoutMessage
	case KindConnectivity:
		return ConnectivityMessage
	default:
		if f.Message != "" {
			return f.Message
		}
		if fallback != "" {
			return fallback
		}
		return GenericMessage
	}
}

func Validation(msg string) *Failure {
	return &Failure{Kind: KindValidation, Message: msg}
}

func IsValidation(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == KindValidation
}

func IsKind(err error, kind FailureKind) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == kind
}

// Describe turns any error into user-facing text.
func Describe(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.UserMessage(fallback)
	}
	if fallback != "" {
		return fallback
	}
	return GenericMessage
}
