package nfa

import (
	"errors"
	"fmt"
)

// Common machine errors.
var (
	// ErrIterationLimit indicates the matcher hit its iteration cap
	// before finishing; the attempt is reported as a non-match.
	ErrIterationLimit = errors.New("iteration limit exceeded")

	// ErrInvalidMachine indicates a malformed machine was executed.
	ErrInvalidMachine = errors.New("invalid machine")
)

// BuildError represents an error during machine construction via the
// Builder API.
type BuildError struct {
	Message string
	StateID StateID
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.StateID != InvalidState {
		return fmt.Sprintf("machine build error at state %d: %s", e.StateID, e.Message)
	}
	return fmt.Sprintf("machine build error: %s", e.Message)
}
