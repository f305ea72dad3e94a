// Package apperrors provides the error taxonomy used across the gateway:
// a typed code plus an optional wrapped cause, so callers can branch on
// "is this retryable" without string matching.
package apperrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure from the ESP3/EEP/controller pipeline.
type Code string

const (
	CodeCrcMismatch             Code = "CRC_MISMATCH"
	CodeUnsupportedPacketType   Code = "UNSUPPORTED_PACKET_TYPE"
	CodeUnsupportedRORG         Code = "UNSUPPORTED_RORG"
	CodeProfileNotFound         Code = "PROFILE_NOT_FOUND"
	CodeCommandRequiredProfile  Code = "COMMAND_REQUIRED_FOR_PROFILE"
	CodeInvalidEnumValue        Code = "INVALID_ENUM_VALUE"
	CodeOutOfRangeRaw           Code = "OUT_OF_RANGE_RAW"
	CodeTransportFailure        Code = "TRANSPORT_FAILURE"
	CodeSignalNotSupported      Code = "SIGNAL_NOT_SUPPORTED"
	CodeInvalidConfig           Code = "INVALID_CONFIG"
	CodeInternal                Code = "INTERNAL"
)

// AppError carries a Code plus optional message/cause, in the shape of
// the common error wrapper used across this codebase's other services.
type AppError struct {
	Code    Code
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New creates an AppError with no wrapped cause.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap attaches a code and message to an existing error. If err already
// carries an AppError, that error's code is kept and message is prefixed to
// its message. Returns nil if err is nil.
func Wrap(err error, code Code, message string) *AppError {
	if err == nil {
		return nil
	}
	var existing *AppError
	if errors.As(err, &existing) {
		return &AppError{Code: existing.Code, Message: message + ": " + existing.Message, Err: existing.Err}
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// Is delegates to errors.Is.
func Is(err, target error) bool { return errors.Is(err, target) }

// CodeOf extracts the Code carried by err, or CodeInternal if err is not an AppError.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsRetryable reports whether the failure is local-only and the frame
// scanner/controller loop should simply continue: local parse errors
// never crash the process.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case CodeCrcMismatch, CodeUnsupportedPacketType, CodeUnsupportedRORG,
		CodeProfileNotFound, CodeSignalNotSupported:
		return true
	default:
		return false
	}
}

// IsFatal reports whether the failure must terminate the owning worker.
func IsFatal(err error) bool {
	return CodeOf(err) == CodeTransportFailure
}
