package engine

import (
	"errors"
	"fmt"
)

// Code classifies lifecycle errors so hosts can present user-visible failure
// messaging. Success is a nil error.
type Code int

const (
	// CodeUnsupportedFeature is returned by the default save/load stubs of
	// engines that do not support the corresponding feature.
	CodeUnsupportedFeature Code = iota + 1
	// CodeInvalidState signals a caller bug, e.g. resuming an engine that is
	// not paused.
	CodeInvalidState
	// CodeMissingAsset signals a required game data file could not be found.
	CodeMissingAsset
	// CodeCorruptConfig signals an unusable engine configuration.
	CodeCorruptConfig
	// CodeSaveFailed wraps save-store failures.
	CodeSaveFailed
	// CodeLoadFailed wraps load failures, including missing slots.
	CodeLoadFailed
)

func (c Code) String() string {
	switch c {
	case CodeUnsupportedFeature:
		return "unsupported feature"
	case CodeInvalidState:
		return "invalid state"
	case CodeMissingAsset:
		return "missing asset"
	case CodeCorruptConfig:
		return "corrupt configuration"
	case CodeSaveFailed:
		return "save failed"
	case CodeLoadFailed:
		return "load failed"
	default:
		return "unknown error"
	}
}

// Error is a structured lifecycle error.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Code.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error with a formatted message.
func NewError(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// WrapError creates an Error wrapping an underlying cause.
func WrapError(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the lifecycle code from an error chain, or 0 when the
// error is not a lifecycle error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

func IsUnsupportedFeature(err error) bool {
	return CodeOf(err) == CodeUnsupportedFeature
}

func IsInvalidState(err error) bool {
	return CodeOf(err) == CodeInvalidState
}
