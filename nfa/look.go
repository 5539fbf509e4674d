package nfa

import (
	"github.com/coregx/pcrex/input"
	"github.com/coregx/pcrex/syntax"
)

// LineEnding identifies the line-ending sequence found at the cursor.
type LineEnding uint8

const (
	// LineEndingNone means no line ending at the cursor.
	LineEndingNone LineEnding = iota

	// LineEndingLF is a lone line feed.
	LineEndingLF

	// LineEndingCR is a lone carriage return.
	LineEndingCR

	// LineEndingCRLF is a carriage return / line feed pair.
	LineEndingCRLF
)

// ConsumeLineEnding advances the stream past the line ending at the
// cursor, if any, and reports which one it was.
func ConsumeLineEnding(s *input.Stream) LineEnding {
	if s.Empty() {
		return LineEndingNone
	}
	switch s.Peek() {
	case '\n':
		s.Take()
		return LineEndingLF
	case '\r':
		s.Take()
		if !s.Empty() && s.Peek() == '\n' {
			s.Take()
			return LineEndingCRLF
		}
		return LineEndingCR
	}
	return LineEndingNone
}

// IsWithinCRLF reports whether the cursor sits between the CR and LF of
// a CR LF pair; anchors never fire there.
func IsWithinCRLF(s *input.Stream) bool {
	return !s.Empty() && !s.PrevEmpty() && s.Peek() == '\n' && s.PeekPrev() == '\r'
}

// assertHolds evaluates a simple assertion at the current stream
// position without consuming input. attemptStart is where the current
// match attempt began, for \G.
func assertHolds(kind syntax.AssertKind, s *input.Stream, attemptStart input.Pos) bool {
	switch kind {
	case syntax.AssertFalse:
		return false

	case syntax.AssertSubjectStart:
		return s.PrevEmpty()

	case syntax.AssertSubjectEnd:
		return s.Empty()

	case syntax.AssertSubjectEndOrNewline:
		if s.Empty() {
			return true
		}
		if IsWithinCRLF(s) {
			return false
		}
		probe := *s
		return ConsumeLineEnding(&probe) != LineEndingNone && probe.Empty()

	case syntax.AssertLineStart:
		if s.PrevEmpty() {
			return true
		}
		if IsWithinCRLF(s) {
			return false
		}
		return syntax.IsLineEnding(s.PeekPrev())

	case syntax.AssertLineEnd:
		if s.Empty() {
			return true
		}
		if IsWithinCRLF(s) {
			return false
		}
		return syntax.IsLineEnding(s.Peek())

	case syntax.AssertRangeStart:
		return s.Pos() == attemptStart

	default:
		return false
	}
}

// classBoundaryHolds evaluates a word-boundary style assertion: it
// holds when exactly one of the neighbouring codepoints is in the
// class, with the out-of-subject side counting as outside.
func classBoundaryHolds(ranges syntax.RangeList, negate bool, s *input.Stream) bool {
	prevIn := !s.PrevEmpty() && ranges.Contains(s.PeekPrev())
	nextIn := !s.Empty() && ranges.Contains(s.Peek())
	boundary := prevIn != nextIn
	return boundary != negate
}
