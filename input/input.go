// Package input provides the bidirectional codepoint stream the regex
// engine matches against.
//
// A Stream walks a UTF-8 string one codepoint at a time in either
// direction. Streams are small value types: copying one checkpoints the
// current position, and the engine copies them freely during
// backtracking.
package input

import (
	"unicode/utf8"
)

// Pos is a position in a stream, tracked both as a byte offset (for
// slicing the underlying text) and as a codepoint index (the position
// the engine reasons about).
type Pos struct {
	// Byte is the offset into the underlying UTF-8 text.
	Byte int

	// Rune is the number of codepoints before this position.
	Rune int
}

// Stream is a bidirectional iterator over the codepoints of a string.
//
// The zero value is an empty stream. Streams are cheap to copy; a copy
// is an independent cursor over the same text.
type Stream struct {
	src string
	pos Pos
}

// NewStream returns a stream positioned at the start of s.
func NewStream(s string) Stream {
	return Stream{src: s}
}

// Empty reports whether the cursor is at the end of the text.
func (s *Stream) Empty() bool {
	return s.pos.Byte >= len(s.src)
}

// PrevEmpty reports whether the cursor is at the start of the text.
func (s *Stream) PrevEmpty() bool {
	return s.pos.Byte <= 0
}

// Peek returns the codepoint after the cursor without advancing.
// It must not be called when Empty.
func (s *Stream) Peek() rune {
	if c := s.src[s.pos.Byte]; c < utf8.RuneSelf {
		return rune(c)
	}
	r, _ := utf8.DecodeRuneInString(s.src[s.pos.Byte:])
	return r
}

// PeekPrev returns the codepoint before the cursor without moving.
// It must not be called when PrevEmpty.
func (s *Stream) PeekPrev() rune {
	if c := s.src[s.pos.Byte-1]; c < utf8.RuneSelf {
		return rune(c)
	}
	r, _ := utf8.DecodeLastRuneInString(s.src[:s.pos.Byte])
	return r
}

// Take returns the codepoint after the cursor and advances past it.
func (s *Stream) Take() rune {
	var r rune
	var size int
	if c := s.src[s.pos.Byte]; c < utf8.RuneSelf {
		r, size = rune(c), 1
	} else {
		r, size = utf8.DecodeRuneInString(s.src[s.pos.Byte:])
	}
	s.pos.Byte += size
	s.pos.Rune++
	return r
}

// Prev moves the cursor one codepoint backward and returns the
// codepoint it moved over.
func (s *Stream) Prev() rune {
	var r rune
	var size int
	if c := s.src[s.pos.Byte-1]; c < utf8.RuneSelf {
		r, size = rune(c), 1
	} else {
		r, size = utf8.DecodeLastRuneInString(s.src[:s.pos.Byte])
	}
	s.pos.Byte -= size
	s.pos.Rune--
	return r
}

// Position returns the codepoint index of the cursor. It increases
// monotonically as the stream is consumed.
func (s *Stream) Position() int {
	return s.pos.Rune
}

// Pos returns the full position (byte offset and codepoint index) of
// the cursor.
func (s *Stream) Pos() Pos {
	return s.pos
}

// SetPos moves the cursor to a position previously obtained from Pos
// on a stream over the same text.
func (s *Stream) SetPos(p Pos) {
	s.pos = p
}

// Text returns the underlying text.
func (s *Stream) Text() string {
	return s.src
}

// ByteOffset returns the byte offset of the cursor into Text.
func (s *Stream) ByteOffset() int {
	return s.pos.Byte
}

// Slice returns the text between two positions.
func (s *Stream) Slice(begin, end Pos) string {
	return s.src[begin.Byte:end.Byte]
}
