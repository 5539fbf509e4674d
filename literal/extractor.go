// Package literal extracts prefix literal sequences from pattern syntax
// trees.
//
// The extracted literals feed the prefilter: every match of the pattern
// must begin with one of the extracted prefixes, so candidate start
// positions can be found with fast substring search instead of running
// the full machine at every offset.
package literal

import (
	"github.com/coregx/pcrex/syntax"
)

// Literal is one extracted byte sequence. Complete marks a literal that
// is the entire pattern: matching it needs no machine verification.
type Literal struct {
	Bytes    []byte
	Complete bool
}

// Len returns the literal's length in bytes.
func (l Literal) Len() int {
	return len(l.Bytes)
}

// Seq is a set of alternative literals: a match must start with one of
// them.
type Seq struct {
	lits []Literal
}

// Push appends a literal to the sequence.
func (s *Seq) Push(l Literal) {
	s.lits = append(s.lits, l)
}

// Len returns the number of literals.
func (s *Seq) Len() int {
	if s == nil {
		return 0
	}
	return len(s.lits)
}

// Get returns the literal at index i.
func (s *Seq) Get(i int) Literal {
	return s.lits[i]
}

// IsEmpty reports whether the sequence holds no literals.
func (s *Seq) IsEmpty() bool {
	return s.Len() == 0
}

// HasEmptyLiteral reports whether any literal is zero-length, which
// makes the whole sequence useless as a prefilter.
func (s *Seq) HasEmptyLiteral() bool {
	for _, l := range s.lits {
		if len(l.Bytes) == 0 {
			return true
		}
	}
	return false
}

// MinLen returns the length of the shortest literal.
func (s *Seq) MinLen() int {
	min := -1
	for _, l := range s.lits {
		if min < 0 || len(l.Bytes) < min {
			min = len(l.Bytes)
		}
	}
	return min
}

// Minimize removes duplicates and literals that have another literal as
// a prefix (the shorter one subsumes the longer for candidate finding).
func (s *Seq) Minimize() {
	var out []Literal
	for _, l := range s.lits {
		subsumed := false
		for _, o := range s.lits {
			if len(o.Bytes) < len(l.Bytes) && string(l.Bytes[:len(o.Bytes)]) == string(o.Bytes) {
				subsumed = true
				break
			}
		}
		if subsumed {
			continue
		}
		dup := false
		for _, o := range out {
			if string(o.Bytes) == string(l.Bytes) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, l)
		}
	}
	s.lits = out
}

// ExtractorConfig bounds extraction so pathological patterns cannot
// explode the literal set.
type ExtractorConfig struct {
	// MaxLiterals caps the number of alternative literals.
	MaxLiterals int

	// MaxLiteralLen caps the byte length of each literal.
	MaxLiteralLen int

	// MaxClassSize caps the number of codepoints a character class may
	// contribute via cross product.
	MaxClassSize int
}

// DefaultConfig returns the default extraction limits.
func DefaultConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxLiterals:   64,
		MaxLiteralLen: 32,
		MaxClassSize:  8,
	}
}

// Extractor extracts prefix literals from syntax trees.
type Extractor struct {
	config ExtractorConfig
}

// New creates an extractor with the given configuration.
func New(config ExtractorConfig) *Extractor {
	if config.MaxLiterals == 0 {
		config = DefaultConfig()
	}
	return &Extractor{config: config}
}

// ExtractPrefixes returns the prefix literal sequence of a pattern. When
// the pattern can start with arbitrary input the sequence holds the
// empty literal; when extraction overflowed its limits it is empty.
func (e *Extractor) ExtractPrefixes(re *syntax.Regexp) *Seq {
	seq, exact := e.extract(re.Root)
	if seq == nil {
		return &Seq{}
	}
	// Zero-width assertions extend prefixes transparently but constrain
	// where they may match, so they forfeit completeness.
	if exact && containsAssert(re.Root) {
		exact = false
	}
	if exact {
		for i := range seq.lits {
			seq.lits[i].Complete = true
		}
	}
	seq.Minimize()
	return seq
}

// extract walks a node and returns the set of possible prefixes plus
// whether the set covers the node exactly. A nil sequence means
// extraction overflowed its limits and no prefilter should be built.
func (e *Extractor) extract(n syntax.Node) (*Seq, bool) {
	switch v := n.(type) {
	case *syntax.Literal:
		if v.Fold {
			// Folded literals match many input spellings; the raw
			// bytes would miss most of them.
			return seqOfEmpty(), false
		}
		return seqOf(string(v.Runes)), true

	case *syntax.Class:
		ranges := v.EffectiveRanges()
		total := 0
		for _, r := range ranges {
			total += int(r.Hi-r.Lo) + 1
			if v.Fold || total > e.config.MaxClassSize {
				return seqOfEmpty(), false
			}
		}
		seq := &Seq{}
		for _, r := range ranges {
			for cp := r.Lo; cp <= r.Hi; cp++ {
				seq.Push(Literal{Bytes: []byte(string(cp))})
			}
		}
		return seq, true

	case *syntax.SimpleAssert, *syntax.ClassAssert, *syntax.Mark, *syntax.Feature:
		// Zero-width; contributes nothing and stops nothing.
		return seqOf(""), true

	case *syntax.Subexpr:
		return e.extractChain(v.Nodes)

	case *syntax.Alternative:
		out := &Seq{}
		exact := true
		for _, br := range v.Branches {
			s, ex := e.extract(br)
			if s == nil {
				return nil, false
			}
			exact = exact && ex
			out.lits = append(out.lits, s.lits...)
			if out.Len() > e.config.MaxLiterals {
				return nil, false
			}
		}
		return out, exact

	case *syntax.Repetition:
		body, bodyExact := e.extract(v.Body)
		if body == nil {
			return nil, false
		}
		switch {
		case v.Min == 0:
			// Zero iterations are possible: the prefix may skip the
			// body entirely, and with it anything that follows is
			// unknowable.
			out := seqOfEmpty()
			out.lits = append(out.lits, body.lits...)
			return out, false
		case v.Min == 1 && v.Max == 1:
			return body, bodyExact
		default:
			return body, false
		}

	default:
		// Backreferences, lookarounds, conditionals, subroutines,
		// verbs and error placeholders end the predictable prefix.
		return seqOfEmpty(), false
	}
}

// extractChain crosses the prefixes of sequenced nodes until a child
// stops being exact.
func (e *Extractor) extractChain(nodes []syntax.Node) (*Seq, bool) {
	cur := seqOf("")
	for _, n := range nodes {
		s, exact := e.extract(n)
		if s == nil {
			return nil, false
		}
		var truncated bool
		cur, truncated = e.cross(cur, s)
		if cur == nil {
			return nil, false
		}
		if truncated || !exact {
			return cur, false
		}
	}
	return cur, true
}

// cross concatenates every literal of a with every literal of b,
// respecting the size limits. Overlong literals are truncated rather
// than dropped: a shorter prefix is still a valid prefix, though no
// longer an exact cover.
func (e *Extractor) cross(a, b *Seq) (*Seq, bool) {
	if a.Len()*b.Len() > e.config.MaxLiterals {
		return nil, false
	}
	truncated := false
	out := &Seq{}
	for _, la := range a.lits {
		for _, lb := range b.lits {
			combined := make([]byte, 0, len(la.Bytes)+len(lb.Bytes))
			combined = append(combined, la.Bytes...)
			combined = append(combined, lb.Bytes...)
			if len(combined) > e.config.MaxLiteralLen {
				combined = combined[:e.config.MaxLiteralLen]
				truncated = true
			}
			out.Push(Literal{Bytes: combined})
		}
	}
	return out, truncated
}

// containsAssert reports whether any zero-width assertion occurs in the
// tree.
func containsAssert(n syntax.Node) bool {
	switch v := n.(type) {
	case *syntax.SimpleAssert, *syntax.ClassAssert, *syntax.ComplexAssert,
		*syntax.MatchStartOverride:
		return true
	case *syntax.Subexpr:
		for _, child := range v.Nodes {
			if containsAssert(child) {
				return true
			}
		}
	case *syntax.Alternative:
		for _, br := range v.Branches {
			if containsAssert(br) {
				return true
			}
		}
	case *syntax.Repetition:
		return containsAssert(v.Body)
	}
	return false
}

func seqOf(s string) *Seq {
	return &Seq{lits: []Literal{{Bytes: []byte(s)}}}
}

func seqOfEmpty() *Seq {
	return seqOf("")
}
