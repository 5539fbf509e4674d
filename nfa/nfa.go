// Package nfa compiles pattern syntax trees into backtracking state
// machines and executes them against codepoint streams.
//
// A Machine is a table of states; each state owns an ordered list of
// transitions whose conditions are a tagged variant (literal, class,
// assertion, capture bookkeeping, subroutine jump, ...). The
// Backtracker drives the machine with an explicit frame stack,
// implementing PCRE-style leftmost-first semantics with capture groups,
// atomic regions, subroutine calls and lookarounds.
package nfa

import (
	"fmt"

	"github.com/coregx/pcrex/syntax"
)

// StateID uniquely identifies a machine state.
// This is a 32-bit unsigned integer for compact representation.
type StateID uint32

// InvalidState represents an invalid/uninitialized state ID.
const InvalidState StateID = 0xFFFFFFFF

// CondKind identifies the type of a transition condition and determines
// which Condition fields are valid.
type CondKind uint8

const (
	// CondLiteral consumes and matches a fixed codepoint sequence.
	// An empty sequence is the epsilon transition.
	CondLiteral CondKind = iota

	// CondClass consumes one codepoint and matches it against a range
	// list.
	CondClass

	// CondSimpleAssert is a zero-width position assertion.
	CondSimpleAssert

	// CondClassAssert is a word-boundary style assertion over a class.
	CondClassAssert

	// CondNumberedBackref consumes the text captured by a group index.
	CondNumberedBackref

	// CondNamedBackref consumes the text captured by a group name.
	CondNamedBackref

	// CondCaptureBegin opens a capture span.
	CondCaptureBegin

	// CondCaptureEnd closes the innermost open capture span.
	CondCaptureEnd

	// CondResetMatchStart implements \K.
	CondResetMatchStart

	// CondPushAtomic opens an atomic region.
	CondPushAtomic

	// CondPopAtomic seals an atomic region, discarding the frames
	// pushed inside it.
	CondPopAtomic

	// CondPushCheckpoint saves the stream for an in-flight subroutine
	// call.
	CondPushCheckpoint

	// CondRestoreCheckpoint retires the most recent stream checkpoint.
	CondRestoreCheckpoint

	// CondPushPosition records the input position at a loop entry.
	CondPushPosition

	// CondCheckInfiniteLoop fails when the loop body consumed nothing.
	CondCheckInfiniteLoop

	// CondRewind moves the stream backward a fixed number of
	// codepoints (lookbehind entry).
	CondRewind

	// CondJump invokes a capture group as a subroutine.
	CondJump

	// CondAssertion runs a sub-machine as a zero-width lookaround.
	CondAssertion

	// CondCheckNumberedCapture tests whether a numbered group has
	// matched (conditional groups).
	CondCheckNumberedCapture

	// CondCheckNamedCapture tests whether a named group has matched.
	CondCheckNamedCapture

	// CondCheckNumberedRecursion tests whether the innermost active
	// subroutine call is a given group.
	CondCheckNumberedRecursion

	// CondCheckNamedRecursion tests whether the innermost active
	// subroutine call is a given named group.
	CondCheckNamedRecursion

	// CondCheckAnyRecursion tests whether any subroutine call is
	// active.
	CondCheckAnyRecursion

	// CondVerbFail always rejects.
	CondVerbFail

	// CondVerbAccept ends the innermost subroutine call, or the whole
	// match, successfully.
	CondVerbAccept

	// CondVerbMark records a label when crossed.
	CondVerbMark
)

// String returns a human-readable representation of the CondKind.
func (k CondKind) String() string {
	switch k {
	case CondLiteral:
		return "Literal"
	case CondClass:
		return "Class"
	case CondSimpleAssert:
		return "SimpleAssert"
	case CondClassAssert:
		return "ClassAssert"
	case CondNumberedBackref:
		return "NumberedBackref"
	case CondNamedBackref:
		return "NamedBackref"
	case CondCaptureBegin:
		return "CaptureBegin"
	case CondCaptureEnd:
		return "CaptureEnd"
	case CondResetMatchStart:
		return "ResetMatchStart"
	case CondPushAtomic:
		return "PushAtomic"
	case CondPopAtomic:
		return "PopAtomic"
	case CondPushCheckpoint:
		return "PushCheckpoint"
	case CondRestoreCheckpoint:
		return "RestoreCheckpoint"
	case CondPushPosition:
		return "PushPosition"
	case CondCheckInfiniteLoop:
		return "CheckInfiniteLoop"
	case CondRewind:
		return "Rewind"
	case CondJump:
		return "Jump"
	case CondAssertion:
		return "Assertion"
	case CondCheckNumberedCapture:
		return "CheckNumberedCapture"
	case CondCheckNamedCapture:
		return "CheckNamedCapture"
	case CondCheckNumberedRecursion:
		return "CheckNumberedRecursion"
	case CondCheckNamedRecursion:
		return "CheckNamedRecursion"
	case CondCheckAnyRecursion:
		return "CheckAnyRecursion"
	case CondVerbFail:
		return "VerbFail"
	case CondVerbAccept:
		return "VerbAccept"
	case CondVerbMark:
		return "VerbMark"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Condition is the tagged variant carried by a transition. The Kind
// determines which fields are meaningful.
type Condition struct {
	Kind CondKind

	// Runes is the codepoint sequence of a literal, pre-folded when
	// Fold is set.
	Runes []rune

	// Fold enables simple case folding for literals and
	// backreferences.
	Fold bool

	// Ranges is the codepoint set of a class or class assertion,
	// pre-folded when the class is case-insensitive.
	Ranges syntax.RangeList

	// Assert is the simple assertion kind.
	Assert syntax.AssertKind

	// Negate inverts class assertions and conditional checks.
	Negate bool

	// Index is the capture index of capture/backref/jump/check
	// conditions, or the codepoint count of a rewind.
	Index int

	// Name is the group name of named conditions, or the mark label.
	Name string

	// Target and TargetEnd are the callee entry and exit states of a
	// jump; Return is where control resumes after the callee exits.
	Target    StateID
	TargetEnd StateID
	Return    StateID

	// Sub is the lookaround body machine; Backward and Negative are
	// its direction and polarity. NonAtomic marks PCRE's non-atomic
	// assertion forms.
	Sub       *Machine
	Backward  bool
	Negative  bool
	NonAtomic bool
}

// Transition pairs a condition with its destination state.
type Transition struct {
	Cond Condition
	Next StateID
}

// state is one machine state: an ordered transition list plus the
// atomic flag suppressing frame pushes.
type state struct {
	transitions []Transition
	atomic      bool
}

// GroupStates records the entry and exit state of a compiled capture
// group, the addressable targets of subroutine calls.
type GroupStates struct {
	Start StateID
	End   StateID
}

// CaptureNames is the bidirectional directory of named capture groups.
// Duplicate names are allowed; IndexesFor returns every index sharing a
// name, in pattern order.
type CaptureNames struct {
	groups  []syntax.NamedGroup
	byName  map[string][]int
	byIndex map[int]string
}

// NewCaptureNames builds a directory from the parser's name list.
func NewCaptureNames(groups []syntax.NamedGroup) *CaptureNames {
	c := &CaptureNames{
		groups:  groups,
		byName:  make(map[string][]int),
		byIndex: make(map[int]string),
	}
	for _, g := range groups {
		c.byName[g.Name] = append(c.byName[g.Name], g.Index)
		if _, seen := c.byIndex[g.Index]; !seen {
			c.byIndex[g.Index] = g.Name
		}
	}
	return c
}

// IndexesFor returns all capture indices registered under name.
func (c *CaptureNames) IndexesFor(name string) []int {
	if c == nil {
		return nil
	}
	return c.byName[name]
}

// NameOf returns the name of a capture index, or "".
func (c *CaptureNames) NameOf(index int) string {
	if c == nil {
		return ""
	}
	return c.byIndex[index]
}

// Groups returns the named groups in pattern order.
func (c *CaptureNames) Groups() []syntax.NamedGroup {
	if c == nil {
		return nil
	}
	return c.groups
}

// Machine is a compiled pattern: a state table with pre-created start
// and end states. Machines are read-only after construction and safe to
// share across goroutines.
type Machine struct {
	states       []state
	start        StateID
	end          StateID
	captureCount int
	names        *CaptureNames
	groups       map[int]GroupStates
}

// Start returns the machine's start state.
func (m *Machine) Start() StateID {
	return m.start
}

// End returns the machine's accept state.
func (m *Machine) End() StateID {
	return m.end
}

// States returns the number of states in the machine.
func (m *Machine) States() int {
	return len(m.states)
}

// Transitions returns the ordered transition list of a state.
func (m *Machine) Transitions(id StateID) []Transition {
	return m.states[id].transitions
}

// IsAtomic reports whether the state suppresses backtracking frames.
func (m *Machine) IsAtomic(id StateID) bool {
	return m.states[id].atomic
}

// CaptureCount returns the number of capture slots including the
// implicit whole-match group 0.
func (m *Machine) CaptureCount() int {
	return m.captureCount
}

// Names returns the named-capture directory.
func (m *Machine) Names() *CaptureNames {
	return m.names
}

// Group returns the entry/exit states of a capture group, for
// subroutine dispatch.
func (m *Machine) Group(index int) (GroupStates, bool) {
	g, ok := m.groups[index]
	return g, ok
}

// String returns a human-readable summary of the machine.
func (m *Machine) String() string {
	return fmt.Sprintf("Machine{states: %d, start: %d, end: %d, captures: %d}",
		len(m.states), m.start, m.end, m.captureCount)
}
