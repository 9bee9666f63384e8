package cli

import (
	"errors"
	"fmt"

	"maturity/internal/product"
	"maturity/internal/session"
	"maturity/internal/stage"
)

// Exit codes returned by [RunWithConfig].
const (
	// ExitFailure is a store, transport or configuration failure.
	ExitFailure = 1
	// ExitInvalid is rejected input: bad arguments, unknown stage or product,
	// non-adjacent move.
	ExitInvalid = 2
	// ExitBlocked is a forward move refused because criteria are not met.
	ExitBlocked = 3
)

// ExitError represents a command execution failure with a specific exit code.
//
// This error type allows Cobra RunE functions to signal non-zero exit codes
// without calling os.Exit() directly, enabling testable CLI behavior.
// Commands print their own error message and return NewExitError(code), which
// propagates up to [RunWithConfig] where [IsExitError] extracts the code for
// [ExecuteResult].
type ExitError struct {
	// Code is the exit code to return to the shell.
	Code int
}

// Error implements the error interface, returning a string in the format
// "exit status N" where N is the exit code.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewExitError creates an [ExitError] with the given exit code.
//
// Use this in Cobra RunE functions to signal failure:
//
//	if err != nil {
//	    app.Printer.Error(err)
//	    return NewExitError(ExitFailure)
//	}
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// IsExitError checks if an error is an [ExitError] and extracts its exit code.
//
// Returns (code, true) if err is or wraps an *ExitError. Returns (0, false)
// for nil or other errors.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// exitCodeFor maps a domain error to its exit code.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, session.ErrBlocked):
		return ExitBlocked
	case errors.Is(err, product.ErrInvalidID),
		errors.Is(err, product.ErrNameRequired),
		errors.Is(err, stage.ErrUnknownStage),
		errors.Is(err, session.ErrNotAdjacent),
		errors.Is(err, session.ErrProductNotFound),
		errors.Is(err, errUnknownFormat):
		return ExitInvalid
	default:
		return ExitFailure
	}
}
