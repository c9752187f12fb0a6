package core

import (
	"errors"
	"fmt"
)

// Error codes. They are stable strings surfaced in logs and API responses.
const (
	CodeDataUnavailable    = "DATA_UNAVAILABLE"
	CodeNoData             = "NO_DATA"
	CodeCollectorFailed    = "COLLECTOR_FAILED"
	CodeInsufficientInputs = "INSUFFICIENT_INPUTS"
	CodeOrderFailed        = "ORDER_FAILED"
	CodeStateCorrupt       = "STATE_CORRUPT"
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeConfigMissing      = "CONFIG_MISSING"
)

// Error is a coded error. Two Errors match under errors.Is when their codes
// are equal, whatever their message or cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// WrapError returns a copy of base carrying cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{Code: base.Code, Message: base.Message, Cause: cause}
}

// Errorf wraps a formatted cause in base.
func Errorf(base *Error, format string, args ...any) *Error {
	return WrapError(base, fmt.Errorf(format, args...))
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

var (
	// Upstream data errors. A cycle that hits one of these is a no-op.
	ErrDataUnavailable = &Error{Code: CodeDataUnavailable, Message: "upstream data unavailable"}
	ErrNoData          = &Error{Code: CodeNoData, Message: "no data available"}
	ErrCollectorFailed = &Error{Code: CodeCollectorFailed, Message: "collector failed"}

	// Snapshot is missing required fields; forces NO_TRADE.
	ErrInsufficientInputs = &Error{Code: CodeInsufficientInputs, Message: "insufficient indicator inputs"}

	ErrOrderFailed = &Error{Code: CodeOrderFailed, Message: "order placement failed"}

	// Persisted state could not be decoded.
	ErrStateCorrupt = &Error{Code: CodeStateCorrupt, Message: "persisted state unreadable"}

	ErrConfigInvalid = &Error{Code: CodeConfigInvalid, Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: CodeConfigMissing, Message: "required configuration missing"}
)
