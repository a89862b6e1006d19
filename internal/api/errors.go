package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failure the way callers need to present it.
type Kind int

const (
	// KindTransport means no usable response arrived.
	KindTransport Kind = iota + 1
	// KindServer means the backend answered with success=false.
	KindServer
	// KindValidation is a client-side check that failed before any call was made.
	KindValidation
	// KindUnauthorized covers missing company/account context and 401/403 answers.
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the typed failure returned by the client and by services built on it.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, zero when no response
	Message string // message from the backend or the validation rule
	Op      string // e.g. "POST /accounts"
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a client-side validation error.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized builds an authorization-gap error such as a missing company.
func Unauthorized(format string, args ...any) error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err carries an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == k
}

// GenericMessage is shown when neither the backend nor the client has anything better.
const GenericMessage = "Something went wrong. Please try again."

// UserMessage returns the text to show for err: the backend or validation message when
// there is one, otherwise fallback (or GenericMessage when fallback is empty).
func UserMessage(err error, fallback string) string {
	if fallback == "" {
		fallback = GenericMessage
	}
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Confirm asks the user to approve a destructive action described by prompt.
type Confirm func(prompt string) bool

// ErrNotConfirmed is returned when a destructive action was declined; no call is made.
var ErrNotConfirmed = errors.New("action not confirmed")

// Ask runs confirm, treating a nil func as a refusal.
func Ask(confirm Confirm, prompt string) error {
	if confirm == nil || !confirm(prompt) {
		return ErrNotConfirmed
	}
	return nil
}
