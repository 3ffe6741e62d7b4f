package model

import (
	"fmt"
)

// NotFoundError is an error signaling that something was not found in the
// database
type NotFoundError string

// Error implements the error interface
func (e NotFoundError) Error() string {
	return string(e)
}

// NotFoundErrorFmt returns a NotFoundError from the passed format string and parameters
func NotFoundErrorFmt(format string, params ...any) NotFoundError {
	return NotFoundError(fmt.Sprintf(format, params...))
}

// AlreadyExistsError is an error signaling that a record conflicts with an
// existing one, e.g. a duplicate active participant role.
type AlreadyExistsError string

// Error implements the error interface
func (e AlreadyExistsError) Error() string {
	return string(e)
}

// AlreadyExistsErrorFmt returns an AlreadyExistsError from the passed format string and parameters
func AlreadyExistsErrorFmt(format string, params ...any) AlreadyExistsError {
	return AlreadyExistsError(fmt.Sprintf(format, params...))
}

// TerminalStateError is an error signaling that an orchestration has reached a
// terminal status and rejects further changes.
type TerminalStateError string

// Error implements the error interface
func (e TerminalStateError) Error() string {
	return string(e)
}

// TerminalStateErrorFmt returns a TerminalStateError from the passed format string and parameters
func TerminalStateErrorFmt(format string, params ...any) TerminalStateError {
	return TerminalStateError(fmt.Sprintf(format, params...))
}
