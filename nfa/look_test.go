package nfa

import (
	"testing"

	"github.com/coregx/pcrex/input"
	"github.com/coregx/pcrex/syntax"
)

func TestConsumeLineEnding(t *testing.T) {
	tests := []struct {
		text string
		want LineEnding
		rest int // codepoint position after consuming
	}{
		{"\nx", LineEndingLF, 1},
		{"\rx", LineEndingCR, 1},
		{"\r\nx", LineEndingCRLF, 2},
		{"x", LineEndingNone, 0},
		{"", LineEndingNone, 0},
	}

	for _, tt := range tests {
		s := input.NewStream(tt.text)
		if got := ConsumeLineEnding(&s); got != tt.want {
			t.Errorf("ConsumeLineEnding(%q) = %v, want %v", tt.text, got, tt.want)
		}
		if got := s.Position(); got != tt.rest {
			t.Errorf("position after ConsumeLineEnding(%q) = %d, want %d", tt.text, got, tt.rest)
		}
	}
}

func TestIsWithinCRLF(t *testing.T) {
	positions := map[int]bool{0: false, 1: false, 2: true, 3: false, 4: false}
	for pos, want := range positions {
		c := input.NewStream("a\r\nb")
		for i := 0; i < pos; i++ {
			c.Take()
		}
		if got := IsWithinCRLF(&c); got != want {
			t.Errorf("IsWithinCRLF at %d = %v, want %v", pos, got, want)
		}
	}
}

func TestAssertHolds_SubjectAnchors(t *testing.T) {
	at := func(text string, pos int) *input.Stream {
		s := input.NewStream(text)
		for i := 0; i < pos; i++ {
			s.Take()
		}
		return &s
	}

	if !assertHolds(syntax.AssertSubjectStart, at("ab", 0), input.Pos{}) {
		t.Error("\\A should hold at 0")
	}
	if assertHolds(syntax.AssertSubjectStart, at("ab", 1), input.Pos{}) {
		t.Error("\\A should not hold at 1")
	}
	if !assertHolds(syntax.AssertSubjectEnd, at("ab", 2), input.Pos{}) {
		t.Error("\\z should hold at end")
	}
	if assertHolds(syntax.AssertSubjectEnd, at("ab\n", 2), input.Pos{}) {
		t.Error("\\z should not hold before a trailing newline")
	}

	// \Z tolerates exactly one trailing line ending.
	if !assertHolds(syntax.AssertSubjectEndOrNewline, at("ab\n", 2), input.Pos{}) {
		t.Error("\\Z should hold before a trailing LF")
	}
	if !assertHolds(syntax.AssertSubjectEndOrNewline, at("ab\r\n", 2), input.Pos{}) {
		t.Error("\\Z should hold before a trailing CRLF")
	}
	if assertHolds(syntax.AssertSubjectEndOrNewline, at("ab\r\n", 3), input.Pos{}) {
		t.Error("\\Z should not hold inside a CRLF pair")
	}
	if assertHolds(syntax.AssertSubjectEndOrNewline, at("ab\n\n", 2), input.Pos{}) {
		t.Error("\\Z should not hold before two line endings")
	}
}

func TestAssertHolds_LineAnchors(t *testing.T) {
	at := func(text string, pos int) *input.Stream {
		s := input.NewStream(text)
		for i := 0; i < pos; i++ {
			s.Take()
		}
		return &s
	}

	text := "a\r\nb"
	// Line starts: 0 and 3 (after the CRLF); position 2 is inside it.
	for pos, want := range map[int]bool{0: true, 1: false, 2: false, 3: true, 4: false} {
		if got := assertHolds(syntax.AssertLineStart, at(text, pos), input.Pos{}); got != want {
			t.Errorf("line start at %d = %v, want %v", pos, got, want)
		}
	}
	// Line ends: 1 (before CR) and 4 (end); 2 is inside the CRLF.
	for pos, want := range map[int]bool{0: false, 1: true, 2: false, 3: false, 4: true} {
		if got := assertHolds(syntax.AssertLineEnd, at(text, pos), input.Pos{}); got != want {
			t.Errorf("line end at %d = %v, want %v", pos, got, want)
		}
	}
}

func TestAssertHolds_RangeStart(t *testing.T) {
	s := input.NewStream("abc")
	start := s.Pos()
	if !assertHolds(syntax.AssertRangeStart, &s, start) {
		t.Error("\\G should hold where the attempt began")
	}
	s.Take()
	if assertHolds(syntax.AssertRangeStart, &s, start) {
		t.Error("\\G should not hold after consuming input")
	}
}

func TestClassBoundary(t *testing.T) {
	word := syntax.WordRanges()

	tests := []struct {
		text string
		pos  int
		want bool
	}{
		{"ab", 0, true},
		{"ab", 1, false},
		{"ab", 2, true},
		{"a b", 1, true},
		{"a b", 2, true},
		{" ", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		s := input.NewStream(tt.text)
		for i := 0; i < tt.pos; i++ {
			s.Take()
		}
		if got := classBoundaryHolds(word, false, &s); got != tt.want {
			t.Errorf("\\b in %q at %d = %v, want %v", tt.text, tt.pos, got, tt.want)
		}
		if got := classBoundaryHolds(word, true, &s); got == tt.want {
			t.Errorf("\\B in %q at %d should be the complement", tt.text, tt.pos)
		}
	}
}
