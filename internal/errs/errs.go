package errs

import "errors"

// Code classifies a failure.
type Code string

const (
	InvalidArgument  Code = "invalid_argument"
	WaitTimeout      Code = "wait_timeout"
	AmbiguousLocator Code = "ambiguous_locator"
	CleanupFailure   Code = "cleanup_failure"
	ExternalService  Code = "external_service"
	AssertionFailed  Code = "assertion_failed"
	Unavailable      Code = "unavailable"
	Internal         Code = "internal"
)

// Coded is implemented by error types that carry their own code.
type Coded interface {
	Code() Code
}

// Error is a coded error.
type Error struct {
	Kind    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Code returns the error code.
func (e *Error) Code() Code {
	if e == nil || e.Kind == "" {
		return Internal
	}
	return e.Kind
}

// New creates a coded error with message.
func New(code Code, message string) error {
	return &Error{Kind: code, Message: message}
}

// Wrap creates a coded error with message and cause.
func Wrap(code Code, message string, cause error) error {
	return &Error{Kind: code, Message: message, Err: cause}
}

// CodeOf returns the code of the first coded error in the chain,
// defaulting to Internal.
func CodeOf(err error) Code {
	if err == nil {
		return Internal
	}
	var coded Coded
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return Internal
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// Fatal reports whether err should abort the current scenario. Cleanup
// failures never do.
func Fatal(err error) bool {
	return err != nil && CodeOf(err) != CleanupFailure
}
