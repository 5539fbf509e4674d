// Package pcrex provides a PCRE-style regular expression engine.
//
// Patterns are parsed into a syntax tree, compiled into a backtracking
// state machine, and executed against a codepoint stream. The engine
// supports the PCRE surface: named and numbered captures, lookarounds,
// conditionals, subroutine calls and recursion, atomic groups,
// possessive quantifiers, control verbs, inline option toggles, POSIX
// classes and \Q...\E literal runs.
//
// Basic usage:
//
//	re, err := pcrex.Compile(`(?<num>\d+)-\k<num>`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if re.MatchString("42-42") {
//	    fmt.Println("matched!")
//	}
//
// Compilation is best-effort: even when Compile returns an error, the
// returned Regexp holds a machine built from the recoverable parts of
// the pattern, and Diagnostics lists everything that was wrong.
//
// A Regexp is safe for concurrent use; each matching operation drives
// its own matcher over the shared read-only machine.
package pcrex

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/coregx/pcrex/input"
	"github.com/coregx/pcrex/literal"
	"github.com/coregx/pcrex/nfa"
	"github.com/coregx/pcrex/prefilter"
	"github.com/coregx/pcrex/syntax"
)

// Options configures pattern compilation and matching.
type Options struct {
	// CaseInsensitive folds literals and classes (like a leading (?i)).
	CaseInsensitive bool

	// Multiline makes ^ and $ match at line boundaries.
	Multiline bool

	// NoAutoCapture makes plain parentheses non-capturing.
	NoAutoCapture bool

	// DotAll makes '.' match line terminators.
	DotAll bool

	// Extended ignores whitespace and #-comments in the pattern.
	Extended bool

	// ExtendedMore additionally ignores space and tab inside classes.
	ExtendedMore bool

	// MaxIterations caps engine steps per match attempt. Zero means
	// the default (1,000,000).
	MaxIterations int
}

// DefaultOptions returns the zero option set.
func DefaultOptions() Options {
	return Options{}
}

// CompileError aggregates the diagnostics of a failed compilation.
type CompileError struct {
	Pattern     string
	Diagnostics []*syntax.ParseError
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if len(e.Diagnostics) == 1 {
		return fmt.Sprintf("pcrex: compiling %q: %v", e.Pattern, e.Diagnostics[0])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "pcrex: compiling %q: %d problems:", e.Pattern, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		sb.WriteString("\n\t")
		sb.WriteString(d.Error())
	}
	return sb.String()
}

// Regexp is a compiled pattern. The machine is read-only after
// compilation and safe to share across goroutines; the only mutable
// state is the atomically updated run-time error of the most recent
// matching operation, reported by LastError.
type Regexp struct {
	pattern string
	machine *nfa.Machine
	diags   []*syntax.ParseError
	pf      prefilter.Prefilter
	config  nfa.Config

	lastErr atomic.Pointer[error]
}

// Compile compiles a pattern with default options.
func Compile(pattern string) (*Regexp, error) {
	return CompileWithOptions(pattern, DefaultOptions())
}

// CompileWithOptions compiles a pattern. When the pattern has problems
// the error is a *CompileError and the returned Regexp is still usable
// as a best-effort machine over the recoverable parts.
func CompileWithOptions(pattern string, opts Options) (*Regexp, error) {
	var diags []*syntax.ParseError
	onError := syntax.CollectErrors(&diags)

	parsed := syntax.Parse(pattern, syntax.Options{
		CaseInsensitive: opts.CaseInsensitive,
		Multiline:       opts.Multiline,
		NoAutoCapture:   opts.NoAutoCapture,
		DotAll:          opts.DotAll,
		Extended:        opts.Extended,
		ExtendedMore:    opts.ExtendedMore,
	}, onError)

	machine, err := nfa.Compile(parsed, onError)
	if err != nil {
		// The machine graph itself was unbuildable; nothing usable
		// remains.
		diags = append(diags, &syntax.ParseError{Msg: err.Error()})
		return nil, &CompileError{Pattern: pattern, Diagnostics: diags}
	}

	re := &Regexp{
		pattern: pattern,
		machine: machine,
		diags:   diags,
		config:  nfa.Config{MaxIterations: opts.MaxIterations},
	}

	// Prefix literals make unanchored search skip to candidate
	// positions instead of trying every offset.
	extractor := literal.New(literal.DefaultConfig())
	re.pf = prefilter.FromLiterals(extractor.ExtractPrefixes(parsed))

	if len(diags) > 0 {
		return re, &CompileError{Pattern: pattern, Diagnostics: diags}
	}
	return re, nil
}

// MustCompile compiles a pattern and panics on any diagnostic. Use for
// patterns known to be valid at build time.
func MustCompile(pattern string) *Regexp {
	re, err := Compile(pattern)
	if err != nil {
		panic("pcrex: Compile(" + pattern + "): " + err.Error())
	}
	return re
}

// String returns the source pattern.
func (re *Regexp) String() string {
	return re.pattern
}

// Diagnostics returns the compile-time diagnostics, if any.
func (re *Regexp) Diagnostics() []*syntax.ParseError {
	return re.diags
}

// Machine exposes the compiled state machine for callers that drive
// matching over their own streams.
func (re *Regexp) Machine() *nfa.Machine {
	return re.machine
}

// NumSubexp returns the number of capturing groups excluding the
// whole-match group 0.
func (re *Regexp) NumSubexp() int {
	return re.machine.CaptureCount() - 1
}

// SubexpNames returns the names of the capturing groups. Index 0 is
// always ""; unnamed groups have "".
func (re *Regexp) SubexpNames() []string {
	names := make([]string, re.machine.CaptureCount())
	for i := 1; i < len(names); i++ {
		names[i] = re.machine.Names().NameOf(i)
	}
	return names
}

// SubexpIndex returns the first capture index registered under name, or
// -1 if the pattern has no such group.
func (re *Regexp) SubexpIndex(name string) int {
	indexes := re.machine.Names().IndexesFor(name)
	if len(indexes) == 0 {
		return -1
	}
	return indexes[0]
}

// Match is one successful match against a subject string.
type Match struct {
	subject string
	names   *nfa.CaptureNames
	res     *nfa.Match
}

// Text returns the matched text, honoring a \K override.
func (m *Match) Text() string {
	return m.subject[m.res.Begin.Byte:m.res.End.Byte]
}

// Index returns the byte offsets of the match within the subject.
func (m *Match) Index() (begin, end int) {
	return m.res.Begin.Byte, m.res.End.Byte
}

// RuneIndex returns the codepoint offsets of the match.
func (m *Match) RuneIndex() (begin, end int) {
	return m.res.Begin.Rune, m.res.End.Rune
}

// Group returns the text captured by a group index; ok is false when
// the group did not participate in the match.
func (m *Match) Group(index int) (string, bool) {
	c := m.res.Group(index)
	if !c.Matched {
		return "", false
	}
	return m.subject[c.Begin.Byte:c.End.Byte], true
}

// GroupByName returns the text captured under a group name, trying
// duplicate groups in pattern order.
func (m *Match) GroupByName(name string) (string, bool) {
	for _, idx := range m.names.IndexesFor(name) {
		if s, ok := m.Group(idx); ok {
			return s, true
		}
	}
	return "", false
}

// GroupCount returns the number of capture slots including group 0.
func (m *Match) GroupCount() int {
	return len(m.res.Captures)
}

// Mark returns the most recent (*MARK) label crossed on the accepting
// path.
func (m *Match) Mark() (string, bool) {
	return m.res.Mark()
}

// Result exposes the raw capture spans.
func (m *Match) Result() *nfa.Match {
	return m.res
}

// LastError returns the run-time error of the most recent matching
// operation on this Regexp, or nil. A nfa.ErrIterationLimit result
// distinguishes an attempt aborted by the iteration cap from an
// ordinary non-match, which both report as "no match" otherwise.
func (re *Regexp) LastError() error {
	if p := re.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// setLastErr records a matcher's outcome for LastError.
func (re *Regexp) setLastErr(err error) {
	if err == nil {
		re.lastErr.Store(nil)
		return
	}
	re.lastErr.Store(&err)
}

// matcher builds a fresh backtracker; matchers are single-use scratch,
// the machine stays shared.
func (re *Regexp) matcher() *nfa.Backtracker {
	return nfa.NewBacktrackerWithConfig(re.machine, re.config)
}

// findNext advances the stream to the next match, consulting the
// prefilter when one exists.
func (re *Regexp) findNext(s *input.Stream, bt *nfa.Backtracker) *nfa.Match {
	if re.pf == nil {
		return bt.FindNext(s)
	}

	// Prefix literals are non-empty, so candidate matches are never
	// empty and need no empty-match bookkeeping.
	text := []byte(s.Text())
	for {
		candidate := re.pf.Find(text, s.ByteOffset())
		if candidate < 0 {
			return nil
		}
		for s.ByteOffset() < candidate {
			s.Take()
		}
		attempt := *s
		if m := bt.TryMatch(&attempt, false); m != nil {
			*s = attempt
			return m
		}
		if bt.Err() != nil || s.Empty() {
			return nil
		}
		s.Take()
	}
}

// Find returns the first match in the subject, or nil.
func (re *Regexp) Find(subject string) *Match {
	s := input.NewStream(subject)
	bt := re.matcher()
	res := re.findNext(&s, bt)
	re.setLastErr(bt.Err())
	if res == nil {
		return nil
	}
	return &Match{subject: subject, names: re.machine.Names(), res: res}
}

// FindAll calls cb for each successive match until it returns false or
// the subject is exhausted.
func (re *Regexp) FindAll(subject string, cb func(*Match) bool) {
	s := input.NewStream(subject)
	bt := re.matcher()
	defer func() { re.setLastErr(bt.Err()) }()
	for {
		res := re.findNext(&s, bt)
		if res == nil {
			return
		}
		if !cb(&Match{subject: subject, names: re.machine.Names(), res: res}) {
			return
		}
	}
}

// MatchString reports whether the pattern matches anywhere in the
// subject.
func (re *Regexp) MatchString(subject string) bool {
	if re.pf != nil && re.pf.IsComplete() {
		// The literal set covers the whole pattern: finding a literal
		// is finding a match; no machine ran, so no run-time error.
		re.setLastErr(nil)
		return re.pf.Find([]byte(subject), 0) >= 0
	}
	return re.Find(subject) != nil
}

// FindString returns the text of the first match, or "".
func (re *Regexp) FindString(subject string) string {
	m := re.Find(subject)
	if m == nil {
		return ""
	}
	return m.Text()
}

// FindStringIndex returns the byte offsets of the first match, or nil.
func (re *Regexp) FindStringIndex(subject string) []int {
	m := re.Find(subject)
	if m == nil {
		return nil
	}
	begin, end := m.Index()
	return []int{begin, end}
}

// FindStringSubmatch returns the first match's text and the text of
// each capture group, in stdlib layout. Unmatched groups are "".
func (re *Regexp) FindStringSubmatch(subject string) []string {
	m := re.Find(subject)
	if m == nil {
		return nil
	}
	out := make([]string, m.GroupCount())
	out[0] = m.Text()
	for i := 1; i < len(out); i++ {
		out[i], _ = m.Group(i)
	}
	return out
}

// FindStringSubmatchIndex returns the byte offsets of the first match
// and every capture group: unmatched groups get -1 pairs.
func (re *Regexp) FindStringSubmatchIndex(subject string) []int {
	m := re.Find(subject)
	if m == nil {
		return nil
	}
	out := make([]int, 0, 2*m.GroupCount())
	begin, end := m.Index()
	out = append(out, begin, end)
	for i := 1; i < m.GroupCount(); i++ {
		c := m.res.Group(i)
		if c.Matched {
			out = append(out, c.Begin.Byte, c.End.Byte)
		} else {
			out = append(out, -1, -1)
		}
	}
	return out
}

// FindAllString returns the text of up to n matches; n < 0 means all.
func (re *Regexp) FindAllString(subject string, n int) []string {
	var out []string
	re.FindAll(subject, func(m *Match) bool {
		out = append(out, m.Text())
		return n < 0 || len(out) < n
	})
	return out
}

// FindAllStringIndex returns the byte offsets of up to n matches;
// n < 0 means all.
func (re *Regexp) FindAllStringIndex(subject string, n int) [][]int {
	var out [][]int
	re.FindAll(subject, func(m *Match) bool {
		begin, end := m.Index()
		out = append(out, []int{begin, end})
		return n < 0 || len(out) < n
	})
	return out
}

// FindAllStringSubmatch returns the submatch texts of up to n matches;
// n < 0 means all.
func (re *Regexp) FindAllStringSubmatch(subject string, n int) [][]string {
	var out [][]string
	re.FindAll(subject, func(m *Match) bool {
		row := make([]string, m.GroupCount())
		row[0] = m.Text()
		for i := 1; i < len(row); i++ {
			row[i], _ = m.Group(i)
		}
		out = append(out, row)
		return n < 0 || len(out) < n
	})
	return out
}
