// Package prefilter provides fast candidate filtering for regex search
// using extracted prefix literals.
//
// A prefilter scans the subject for the pattern's possible starting
// literals, so the matcher only runs at positions that can actually
// begin a match. A single literal uses substring search; multiple
// literals build an Aho-Corasick automaton.
package prefilter

import (
	"bytes"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/pcrex/literal"
)

// Prefilter finds candidate match start positions.
type Prefilter interface {
	// Find returns the byte offset of the next candidate at or after
	// `at`, or -1 when no candidate remains.
	Find(haystack []byte, at int) int

	// IsComplete reports whether a candidate is a whole match on its
	// own, needing no machine verification.
	IsComplete() bool
}

// FromLiterals selects a prefilter strategy for an extracted literal
// sequence. It returns nil when the literals cannot prune anything: an
// empty set, an empty literal (every position is a candidate), or a
// failed automaton build.
func FromLiterals(seq *literal.Seq) Prefilter {
	if seq == nil || seq.IsEmpty() || seq.HasEmptyLiteral() {
		return nil
	}

	complete := true
	for i := 0; i < seq.Len(); i++ {
		if !seq.Get(i).Complete {
			complete = false
			break
		}
	}

	if seq.Len() == 1 {
		return &SubstringPrefilter{needle: seq.Get(0).Bytes, complete: complete}
	}

	builder := ahocorasick.NewBuilder()
	for i := 0; i < seq.Len(); i++ {
		builder.AddPattern(seq.Get(i).Bytes)
	}
	auto, err := builder.Build()
	if err != nil {
		return nil
	}
	return &AhoCorasickPrefilter{auto: auto, complete: complete}
}

// SubstringPrefilter finds candidates with plain substring search.
type SubstringPrefilter struct {
	needle   []byte
	complete bool
}

// Find implements Prefilter.
func (p *SubstringPrefilter) Find(haystack []byte, at int) int {
	if at > len(haystack) {
		return -1
	}
	idx := bytes.Index(haystack[at:], p.needle)
	if idx < 0 {
		return -1
	}
	return at + idx
}

// IsComplete implements Prefilter.
func (p *SubstringPrefilter) IsComplete() bool {
	return p.complete
}

// AhoCorasickPrefilter finds candidates for multi-literal alternations
// with an Aho-Corasick automaton.
type AhoCorasickPrefilter struct {
	auto     *ahocorasick.Automaton
	complete bool
}

// Find implements Prefilter.
func (p *AhoCorasickPrefilter) Find(haystack []byte, at int) int {
	if at > len(haystack) {
		return -1
	}
	m := p.auto.Find(haystack, at)
	if m == nil {
		return -1
	}
	return m.Start
}

// IsComplete implements Prefilter.
func (p *AhoCorasickPrefilter) IsComplete() bool {
	return p.complete
}
