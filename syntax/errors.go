package syntax

import (
	"fmt"
)

// ParseError is a single diagnostic produced while parsing a pattern.
// Pos is the codepoint index into the pattern at which the problem was
// noticed.
type ParseError struct {
	Pos int
	Msg string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("pattern offset %d: %s", e.Pos, e.Msg)
}

// ErrorFunc receives diagnostics during parsing. The parser keeps going
// after reporting, producing a best-effort tree.
type ErrorFunc func(pos int, msg string)

// CollectErrors returns an ErrorFunc that appends each diagnostic to
// dst.
func CollectErrors(dst *[]*ParseError) ErrorFunc {
	return func(pos int, msg string) {
		*dst = append(*dst, &ParseError{Pos: pos, Msg: msg})
	}
}
