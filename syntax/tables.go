package syntax

import (
	"sync"
	"unicode"
)

// The engine's character tables are materialized lazily from the
// standard library's Unicode database. Each table is a compact
// RangeList so class compilation can splice them directly.

var tableOnce sync.Once

var (
	wordRanges       RangeList
	spaceRanges      RangeList
	horizSpaceRanges RangeList
	vertSpaceRanges  RangeList
	digitRanges      RangeList
	letterRanges     RangeList
	numberRanges     RangeList
	controlRanges    RangeList
	lowerRanges      RangeList
	upperRanges      RangeList
)

func buildTables() {
	// \w: letters, decimal digits and underscore. ASCII plus the
	// Unicode letter/number categories, matching PCRE with UCP.
	wordRanges = rangesFromTable(unicode.L, unicode.Nd)
	wordRanges.AppendRune('_')
	wordRanges.Compact()

	spaceRanges = rangesFromTable(unicode.White_Space)

	// \h: horizontal whitespace per PCRE.
	horizSpaceRanges = RangeList{
		{0x09, 0x09}, {0x20, 0x20}, {0xA0, 0xA0}, {0x1680, 0x1680},
		{0x180E, 0x180E}, {0x2000, 0x200A}, {0x202F, 0x202F},
		{0x205F, 0x205F}, {0x3000, 0x3000},
	}

	// \v: vertical whitespace per PCRE.
	vertSpaceRanges = RangeList{
		{0x0A, 0x0D}, {0x85, 0x85}, {0x2028, 0x2029},
	}

	digitRanges = rangesFromTable(unicode.Nd)
	letterRanges = rangesFromTable(unicode.L)
	numberRanges = rangesFromTable(unicode.N)
	controlRanges = rangesFromTable(unicode.Cc)
	lowerRanges = rangesFromTable(unicode.Ll)
	upperRanges = rangesFromTable(unicode.Lu)
}

func ensureTables() {
	tableOnce.Do(buildTables)
}

// WordRanges returns the codepoints \w matches.
func WordRanges() RangeList {
	ensureTables()
	return wordRanges
}

// SpaceRanges returns the codepoints \s matches (White_Space property).
func SpaceRanges() RangeList {
	ensureTables()
	return spaceRanges
}

// HorizontalSpaceRanges returns the codepoints \h matches.
func HorizontalSpaceRanges() RangeList {
	ensureTables()
	return horizSpaceRanges
}

// VerticalSpaceRanges returns the codepoints \v matches.
func VerticalSpaceRanges() RangeList {
	ensureTables()
	return vertSpaceRanges
}

// DigitRanges returns the codepoints \d matches (decimal number).
func DigitRanges() RangeList {
	ensureTables()
	return digitRanges
}

// IsWordChar reports whether cp is a word character for \b purposes.
func IsWordChar(cp rune) bool {
	ensureTables()
	return wordRanges.Contains(cp)
}

// newlineRanges are the codepoints '.' excludes without dot-all and \N
// always excludes.
var newlineRanges = RangeList{{0x0A, 0x0A}, {0x0B, 0x0B}, {0x0C, 0x0C}, {0x0D, 0x0D}, {0x85, 0x85}, {0x2028, 0x2029}}

// NonNewlineRanges returns the codepoints '.' matches without dot-all.
func NonNewlineRanges() RangeList {
	return newlineRanges.Negate()
}

// AnyRanges returns the full codepoint space, what '.' matches with
// dot-all.
func AnyRanges() RangeList {
	return RangeList{{0, MaxRune}}
}

// IsLineEnding reports whether cp terminates a line (LF, CR).
func IsLineEnding(cp rune) bool {
	return cp == '\n' || cp == '\r'
}

// posixClass maps POSIX class names usable as [:name:] to their
// range lists. Classes the engine does not support are absent; the
// parser reports them instead of guessing.
func posixClass(name string) (RangeList, bool) {
	ensureTables()
	switch name {
	case "alnum":
		rl := letterRanges.Clone()
		rl.AppendList(digitRanges)
		rl.Compact()
		return rl, true
	case "alpha":
		return letterRanges, true
	case "ascii":
		return RangeList{{0x00, 0x7F}}, true
	case "blank":
		return RangeList{{0x09, 0x09}, {0x20, 0x20}}, true
	case "cntrl":
		return controlRanges, true
	case "digit":
		return digitRanges, true
	case "lower":
		return lowerRanges, true
	case "space":
		// POSIX space: \t\n\v\f\r and space.
		return RangeList{{0x09, 0x0D}, {0x20, 0x20}}, true
	case "upper":
		return upperRanges, true
	}
	return nil, false
}

// ExtendedSpace reports whether cp is skipped in extended mode outside
// character classes.
func ExtendedSpace(cp rune) bool {
	switch cp {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
