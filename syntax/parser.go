package syntax

import (
	"github.com/coregx/pcrex/input"
)

// maxParseDepth bounds group nesting to keep recursion in check.
const maxParseDepth = 250

// maxNumberDigits bounds numeric values in the pattern ({m,n} counts,
// group numbers); longer runs are reported as out of range.
const maxNumberDigits = 8

// Parse parses a PCRE-style pattern into a syntax tree.
//
// Diagnostics are delivered through onError (which may be nil) and
// parsing continues after every error, so the returned tree is always
// usable on a best-effort basis.
func Parse(pattern string, opts Options, onError ErrorFunc) *Regexp {
	p := &parser{
		s:       input.NewStream(pattern),
		opts:    opts,
		onError: onError,
	}
	root := p.parseAlternation(false)
	for !p.s.Empty() {
		// A stray ')' terminated the top-level alternation; report it
		// and keep parsing the remainder as a continuation.
		p.error("unmatched closing parenthesis")
		p.s.Take()
		rest := p.parseAlternation(false)
		root = &Subexpr{Nodes: []Node{root, rest}, Kind: SubexprNonCapturing, CaptureIndex: NoCapture}
	}
	return &Regexp{
		Root:         root,
		CaptureCount: p.captures,
		Names:        p.names,
	}
}

// parser holds the mutable state of a single Parse call.
type parser struct {
	s       input.Stream
	opts    Options
	onError ErrorFunc

	// captures is the highest capture index assigned so far.
	captures int

	names []NamedGroup
	depth int
}

func (p *parser) error(msg string) {
	if p.onError != nil {
		p.onError(p.s.Position(), msg)
	}
}

// accept consumes the next codepoint if it equals r.
func (p *parser) accept(r rune) bool {
	if !p.s.Empty() && p.s.Peek() == r {
		p.s.Take()
		return true
	}
	return false
}

// skipExtended skips whitespace and #-comments when extended mode is on.
func (p *parser) skipExtended() {
	if !p.opts.Extended {
		return
	}
	for !p.s.Empty() {
		c := p.s.Peek()
		switch {
		case ExtendedSpace(c):
			p.s.Take()
		case c == '#':
			for !p.s.Empty() && p.s.Peek() != '\n' {
				p.s.Take()
			}
		default:
			return
		}
	}
}

// parseAlternation parses branches separated by '|' until a closing ')'
// or the end of the pattern. The terminating ')' is left unconsumed.
//
// With branchReset set (a (?| group), every branch starts numbering
// captures at the same base and the counter resumes from the maximum
// afterwards.
func (p *parser) parseAlternation(branchReset bool) Node {
	base := p.captures
	max := p.captures

	first := p.parseBranch()
	if p.s.Empty() || p.s.Peek() == ')' {
		return first
	}

	alt := &Alternative{Branches: []Node{first}}
	for p.accept('|') {
		if branchReset {
			if p.captures > max {
				max = p.captures
			}
			p.captures = base
		}
		alt.Branches = append(alt.Branches, p.parseBranch())
	}
	if branchReset && p.captures > max {
		max = p.captures
	}
	if branchReset {
		p.captures = max
	}
	return alt
}

// parseBranch parses a single alternation branch: a sequence of atoms
// with their quantifiers, ending at '|', ')' or the end of the pattern.
func (p *parser) parseBranch() Node {
	b := branch{p: p}
	for {
		p.skipExtended()
		if p.s.Empty() {
			break
		}
		switch c := p.s.Peek(); c {
		case '|', ')':
			return b.finish()
		case '(':
			p.s.Take()
			if n := p.parseGroup(); n != nil {
				b.append(n)
			}
		case '[':
			p.s.Take()
			b.append(p.parseClass())
		case '.':
			p.s.Take()
			b.append(p.dotClass())
		case '^':
			p.s.Take()
			kind := AssertSubjectStart
			if p.opts.Multiline {
				kind = AssertLineStart
			}
			b.append(&SimpleAssert{Kind: kind})
		case '$':
			p.s.Take()
			kind := AssertSubjectEndOrNewline
			if p.opts.Multiline {
				kind = AssertLineEnd
			}
			b.append(&SimpleAssert{Kind: kind})
		case '\\':
			p.s.Take()
			p.parseEscape(&b)
		case '*', '+', '?':
			p.s.Take()
			b.quantify(c)
		case '{':
			p.s.Take()
			if min, max, ok := p.parseBraceCount(); ok {
				b.quantifyCounted(min, max)
			} else {
				b.literal('{')
			}
		default:
			p.s.Take()
			b.literal(c)
		}
	}
	return b.finish()
}

// dotClass returns the class '.' stands for under the current options.
func (p *parser) dotClass() *Class {
	if p.opts.DotAll {
		return &Class{Ranges: AnyRanges(), Fold: false}
	}
	return &Class{Ranges: NonNewlineRanges()}
}

// parseBraceCount parses the interior of a {m}, {m,} or {m,n}
// quantifier, including the closing brace. It reports ok=false without
// consuming anything definite when the braces do not form a quantifier,
// in which case the caller treats '{' as a literal.
func (p *parser) parseBraceCount() (min, max int, ok bool) {
	save := p.s
	min, digits := p.parseNumber()
	if digits == 0 {
		p.s = save
		return 0, 0, false
	}
	max = min
	if p.accept(',') {
		max = NoMax
		if n, d := p.parseNumber(); d > 0 {
			max = n
		}
	}
	if !p.accept('}') {
		p.s = save
		return 0, 0, false
	}
	if max != NoMax && max < min {
		p.error("quantifier range out of order")
		min, max = max, min
	}
	return min, max, true
}

// parseNumber consumes a run of decimal digits. The digit count is
// returned so callers can distinguish 0 from "no digits"; overlong runs
// are reported and clamped.
func (p *parser) parseNumber() (value, digits int) {
	for !p.s.Empty() {
		c := p.s.Peek()
		if c < '0' || c > '9' {
			break
		}
		p.s.Take()
		digits++
		if digits > maxNumberDigits {
			p.error("numeric value too large")
			for !p.s.Empty() && p.s.Peek() >= '0' && p.s.Peek() <= '9' {
				p.s.Take()
			}
			return value, digits
		}
		value = value*10 + int(c-'0')
	}
	return value, digits
}

// branch accumulates the nodes of one alternation branch. Adjacent
// literal codepoints merge into a single literal node; quantifiers pop
// the last atom back off, shortening a multi-codepoint literal by one.
type branch struct {
	p     *parser
	nodes []Node
}

func (b *branch) append(n Node) {
	b.nodes = append(b.nodes, n)
}

// literal appends one codepoint, folding it under case-insensitivity
// and merging it into a preceding literal run when possible.
func (b *branch) literal(c rune) {
	fold := b.p.opts.CaseInsensitive
	if fold {
		c = Fold(c)
	}
	if len(b.nodes) > 0 {
		if lit, isLit := b.nodes[len(b.nodes)-1].(*Literal); isLit && lit.Fold == fold {
			lit.Runes = append(lit.Runes, c)
			return
		}
	}
	b.append(&Literal{Runes: []rune{c}, Fold: fold})
}

// popAtom removes and returns the atom a quantifier applies to. A
// multi-codepoint literal gives up only its last codepoint.
func (b *branch) popAtom() Node {
	if len(b.nodes) == 0 {
		return nil
	}
	last := b.nodes[len(b.nodes)-1]
	if lit, isLit := last.(*Literal); isLit && len(lit.Runes) > 1 {
		cp := lit.Runes[len(lit.Runes)-1]
		lit.Runes = lit.Runes[:len(lit.Runes)-1]
		return &Literal{Runes: []rune{cp}, Fold: lit.Fold}
	}
	b.nodes = b.nodes[:len(b.nodes)-1]
	return last
}

// quantify applies ?, * or + (already consumed) to the last atom.
func (b *branch) quantify(c rune) {
	var min, max int
	switch c {
	case '?':
		min, max = 0, 1
	case '*':
		min, max = 0, NoMax
	case '+':
		min, max = 1, NoMax
	}
	b.quantifyCounted(min, max)
}

// quantifyCounted applies a repetition with explicit bounds to the last
// atom, reading the laziness/possessiveness suffix.
func (b *branch) quantifyCounted(min, max int) {
	kind := RepeatGreedy
	if b.p.accept('?') {
		kind = RepeatLazy
	} else if b.p.accept('+') {
		kind = RepeatPossessive
	}

	atom := b.popAtom()
	if atom == nil || !quantifiable(atom) {
		b.p.error("quantifier with nothing to repeat")
		if atom != nil {
			b.append(atom)
		}
		b.append(&Error{})
		return
	}
	b.append(&Repetition{Body: atom, Min: min, Max: max, Kind: kind})
}

// quantifiable reports whether a node may serve as a repetition body.
func quantifiable(n Node) bool {
	switch n.(type) {
	case *Repetition, *Error, *SimpleAssert, *ClassAssert, *MatchStartOverride,
		*Fail, *Accept, *Mark, *Feature:
		return false
	}
	return true
}

func (b *branch) finish() Node {
	if len(b.nodes) == 1 {
		if sub, isSub := b.nodes[0].(*Subexpr); isSub {
			return sub
		}
	}
	return &Subexpr{Nodes: b.nodes, Kind: SubexprNonCapturing, CaptureIndex: NoCapture}
}
