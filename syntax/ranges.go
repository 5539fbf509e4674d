package syntax

import (
	"sort"
	"unicode"
)

// MaxRune is the largest codepoint a range may cover.
const MaxRune = unicode.MaxRune

// Range is an inclusive codepoint range [Lo, Hi].
type Range struct {
	Lo rune
	Hi rune
}

// RangeList is an ordered list of inclusive codepoint ranges.
//
// After Compact, the ranges are sorted by Lo, non-overlapping and
// non-adjacent, so Contains can binary search and Negate can walk the
// gaps directly.
type RangeList []Range

// Append adds a range to the list. The list may temporarily violate the
// ordering invariants; call Compact before querying.
func (rl *RangeList) Append(lo, hi rune) {
	*rl = append(*rl, Range{Lo: lo, Hi: hi})
}

// AppendRune adds a single-codepoint range.
func (rl *RangeList) AppendRune(r rune) {
	rl.Append(r, r)
}

// AppendList adds every range of other to the list.
func (rl *RangeList) AppendList(other RangeList) {
	*rl = append(*rl, other...)
}

// Compact sorts the ranges and merges overlapping or adjacent ones,
// restoring the list invariants.
func (rl *RangeList) Compact() {
	ranges := *rl
	if len(ranges) <= 1 {
		return
	}

	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].Lo != ranges[j].Lo {
			return ranges[i].Lo < ranges[j].Lo
		}
		return ranges[i].Hi < ranges[j].Hi
	})

	out := ranges[:1]
	for _, r := range ranges[1:] {
		last := &out[len(out)-1]
		// Merge when overlapping or directly adjacent.
		if r.Lo <= last.Hi+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
			continue
		}
		out = append(out, r)
	}
	*rl = out
}

// Contains reports whether cp falls in one of the ranges.
// The list must be compact.
func (rl RangeList) Contains(cp rune) bool {
	lo, hi := 0, len(rl)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case cp < rl[mid].Lo:
			hi = mid
		case cp > rl[mid].Hi:
			lo = mid + 1
		default:
			return true
		}
	}
	return false
}

// Negate returns the complement of the list over [0, MaxRune].
// The list must be compact.
func (rl RangeList) Negate() RangeList {
	out := make(RangeList, 0, len(rl)+1)
	next := rune(0)
	for _, r := range rl {
		if r.Lo > next {
			out = append(out, Range{Lo: next, Hi: r.Lo - 1})
		}
		if r.Hi >= next {
			next = r.Hi + 1
		}
		if next > MaxRune {
			return out
		}
	}
	out = append(out, Range{Lo: next, Hi: MaxRune})
	return out
}

// Clone returns an independent copy of the list.
func (rl RangeList) Clone() RangeList {
	if rl == nil {
		return nil
	}
	out := make(RangeList, len(rl))
	copy(out, rl)
	return out
}

// IsEmpty reports whether the list covers no codepoints.
func (rl RangeList) IsEmpty() bool {
	return len(rl) == 0
}

// rangesFromTable flattens a unicode.RangeTable into a RangeList,
// ignoring stride information by expanding strided runs.
func rangesFromTable(tables ...*unicode.RangeTable) RangeList {
	var out RangeList
	for _, tab := range tables {
		for _, r16 := range tab.R16 {
			appendStrided(&out, rune(r16.Lo), rune(r16.Hi), rune(r16.Stride))
		}
		for _, r32 := range tab.R32 {
			appendStrided(&out, rune(r32.Lo), rune(r32.Hi), rune(r32.Stride))
		}
	}
	out.Compact()
	return out
}

func appendStrided(rl *RangeList, lo, hi, stride rune) {
	if stride <= 1 {
		rl.Append(lo, hi)
		return
	}
	for cp := lo; cp <= hi; cp += stride {
		rl.AppendRune(cp)
	}
}
