package graphplan

import (
	"errors"
	"fmt"
)

// Error kinds. Each is a sentinel usable with errors.Is on any *Error.
var (
	// ErrCatalogUnavailable means the intent catalog could not be read.
	ErrCatalogUnavailable = errors.New("intent catalog unavailable")
	// ErrInvalidPlan means a plan has no step list.
	ErrInvalidPlan = errors.New("invalid plan")
	// ErrUnknownIntent means a step references an intent with no template.
	ErrUnknownIntent = errors.New("unknown intent")
	// ErrQueryExecution means the graph store failed while running a step.
	ErrQueryExecution = errors.New("query execution failed")
	// ErrLowConfidence means the best classification score is under the threshold.
	ErrLowConfidence = errors.New("low classification confidence")
	// ErrNoEntity means no candidate intent yielded an extractable value.
	ErrNoEntity = errors.New("no entity extracted")
	// ErrNoIntents means there is nothing to classify against.
	ErrNoIntents = errors.New("intent catalog is empty")
)

// Configuration and wiring errors.
var (
	ErrUnknownDialect = errors.New("unknown dialect")
	ErrConfigNotFound = errors.New("config file not found")
	ErrNoDialect      = errors.New("no dialect configured")
)

// Error is the structured error returned across the planning and execution
// boundaries. Message is safe to show to end users.
type Error struct {
	// Op is the operation that failed (e.g. "planner.GeneratePlan").
	Op string

	// Kind is one of the sentinel errors above.
	Kind error

	// Message is the user-facing description.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// NewError builds an *Error.
func NewError(op string, kind error, msg string, cause error) *Error {
	return &Error{Op: op, Kind: kind, Message: msg, Cause: cause}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}

	if e.Op == "" {
		return msg
	}

	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}

	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}

	return errs
}

// UserMessage returns the message to show for err: the Message of the first
// *Error in the chain, or err's text otherwise.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}

	return err.Error()
}
