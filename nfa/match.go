package nfa

import (
	"github.com/coregx/pcrex/input"
)

// Capture is the span of input a group matched. Unmatched groups have
// Matched == false and a Length of -1.
type Capture struct {
	Begin   input.Pos
	End     input.Pos
	Matched bool
}

// Length returns the capture's length in codepoints, or -1 when the
// group did not participate in the match.
func (c Capture) Length() int {
	if !c.Matched {
		return -1
	}
	return c.End.Rune - c.Begin.Rune
}

// Match is a successful match attempt. Captures[0] is the whole match
// without the \K override; Begin carries the override when one was
// taken.
type Match struct {
	// Captures holds one entry per capture slot, index 0 being the
	// whole match.
	Captures []Capture

	// Begin is the reported match start: capture 0's start, or the \K
	// position when the pattern overrode it.
	Begin input.Pos

	// End is the match end.
	End input.Pos

	// Marks lists the (*MARK) labels crossed on the accepting path, in
	// order.
	Marks []string
}

// Group returns the capture with the given index, or an unmatched
// capture when the index is out of range.
func (m *Match) Group(index int) Capture {
	if index < 0 || index >= len(m.Captures) {
		return Capture{}
	}
	return m.Captures[index]
}

// Mark returns the most recent mark label, if any.
func (m *Match) Mark() (string, bool) {
	if len(m.Marks) == 0 {
		return "", false
	}
	return m.Marks[len(m.Marks)-1], true
}

// Length returns the reported match length in codepoints, accounting
// for a \K override.
func (m *Match) Length() int {
	return m.End.Rune - m.Begin.Rune
}
