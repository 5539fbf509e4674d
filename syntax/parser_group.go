package syntax

// parseGroup parses everything that can follow an opening parenthesis:
// capturing and non-capturing groups, option toggles, lookarounds,
// conditionals, subroutine calls, comments and control verbs. The
// opening '(' has already been consumed; the matching ')' is consumed
// here. A nil return means the construct contributes no node (inline
// option toggles, comments).
func (p *parser) parseGroup() Node {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxParseDepth {
		p.error("pattern nesting too deep")
		p.skipGroup()
		return &Error{}
	}

	if p.accept('*') {
		return p.parseVerb()
	}
	if !p.accept('?') {
		return p.parsePlainGroup()
	}

	if p.s.Empty() {
		p.error("unterminated group")
		return &Error{}
	}

	switch c := p.s.Peek(); c {
	case ':':
		p.s.Take()
		return p.parseGroupBody(SubexprNonCapturing, NoCapture, "")
	case '|':
		p.s.Take()
		return p.parseDuplicateGroup()
	case '>':
		p.s.Take()
		return p.parseGroupBody(SubexprAtomic, NoCapture, "")
	case '=':
		p.s.Take()
		return p.parseLookaround(false, false, false)
	case '!':
		p.s.Take()
		return p.parseLookaround(false, true, false)
	case '<':
		p.s.Take()
		if p.accept('=') {
			return p.parseLookaround(true, false, false)
		}
		if p.accept('!') {
			return p.parseLookaround(true, true, false)
		}
		return p.parseNamedGroup('>')
	case '\'':
		p.s.Take()
		return p.parseNamedGroup('\'')
	case 'P':
		p.s.Take()
		return p.parsePythonGroup()
	case '&':
		p.s.Take()
		name := p.parseName(')', "subroutine name")
		return &NamedSubroutine{Name: name}
	case 'R':
		p.s.Take()
		if !p.accept(')') {
			p.error("malformed recursion call")
			p.skipGroup()
		}
		return &NumberedSubroutine{Index: 0}
	case '(':
		p.s.Take()
		return p.parseConditional()
	case '#':
		p.s.Take()
		for !p.s.Empty() && p.s.Peek() != ')' {
			p.s.Take()
		}
		if !p.accept(')') {
			p.error("unterminated comment")
		}
		return nil
	default:
		if c >= '0' && c <= '9' {
			n, _ := p.parseNumber()
			if !p.accept(')') {
				p.error("malformed subroutine call")
				p.skipGroup()
			}
			return &NumberedSubroutine{Index: n}
		}
		return p.parseOptionGroup()
	}
}

// parsePlainGroup parses "(...)" — a capturing group, or non-capturing
// when no-auto-capture is in effect.
func (p *parser) parsePlainGroup() Node {
	if p.opts.NoAutoCapture {
		return p.parseGroupBody(SubexprNonCapturing, NoCapture, "")
	}
	p.captures++
	return p.parseGroupBody(SubexprNormal, p.captures, "")
}

// parseGroupBody parses an alternation up to ')' with group-scoped
// options and wraps it in a Subexpr of the given kind.
func (p *parser) parseGroupBody(kind SubexprKind, capture int, name string) Node {
	saved := p.opts
	body := p.parseAlternation(false)
	p.opts = saved
	p.expectClose()
	return &Subexpr{Nodes: []Node{body}, Kind: kind, CaptureIndex: capture, CaptureName: name}
}

// parseDuplicateGroup parses (?|...): every alternative re-uses the
// same capture numbers.
func (p *parser) parseDuplicateGroup() Node {
	saved := p.opts
	body := p.parseAlternation(true)
	p.opts = saved
	p.expectClose()
	return &Subexpr{Nodes: []Node{body}, Kind: SubexprDuplicate, CaptureIndex: NoCapture}
}

// parseNamedGroup parses (?<name>...) and (?'name'...).
func (p *parser) parseNamedGroup(term rune) Node {
	name := p.parseName(term, "group name")
	p.captures++
	idx := p.captures
	p.registerName(name, idx)
	return p.parseGroupBody(SubexprNormal, idx, name)
}

// parsePythonGroup parses the (?P...) family: (?P<name>...) named
// group, (?P>name) subroutine call, (?P=name) backreference.
func (p *parser) parsePythonGroup() Node {
	switch {
	case p.accept('<'):
		return p.parseNamedGroup('>')
	case p.accept('>'):
		name := p.parseName(')', "subroutine name")
		return &NamedSubroutine{Name: name}
	case p.accept('='):
		name := p.parseName(')', "group name")
		return &NamedBackref{Name: name, Fold: p.opts.CaseInsensitive}
	default:
		p.error("malformed (?P group")
		p.skipGroup()
		return &Error{}
	}
}

// parseLookaround parses the body of a lookaround whose prefix has been
// consumed.
func (p *parser) parseLookaround(backward, negative, nonAtomic bool) Node {
	saved := p.opts
	body := p.parseAlternation(false)
	p.opts = saved
	p.expectClose()
	return &ComplexAssert{Backward: backward, Negative: negative, NonAtomic: nonAtomic, Body: body}
}

// parseConditional parses (?(cond)yes|no). The leading "(?(" has been
// consumed.
func (p *parser) parseConditional() Node {
	cond := &Conditional{Index: -1}

	switch {
	case p.s.Empty():
		p.error("unterminated conditional")
		return &Error{}

	case p.s.Peek() >= '0' && p.s.Peek() <= '9':
		n, _ := p.parseNumber()
		cond.Kind = CondNumberedCapture
		cond.Index = n
		p.expectCondClose()

	case p.s.Peek() == 'R':
		p.s.Take()
		switch {
		case p.accept('&'):
			cond.Kind = CondNamedRecursion
			cond.Name = p.parseName(')', "recursion name")
		case !p.s.Empty() && p.s.Peek() >= '0' && p.s.Peek() <= '9':
			n, _ := p.parseNumber()
			cond.Kind = CondNumberedRecursion
			cond.Index = n
			p.expectCondClose()
		default:
			cond.Kind = CondAnyRecursion
			p.expectCondClose()
		}

	case p.s.Peek() == '<':
		p.s.Take()
		cond.Kind = CondNamedCapture
		cond.Name = p.parseName('>', "group name")
		p.expectCondClose()

	case p.s.Peek() == '\'':
		p.s.Take()
		cond.Kind = CondNamedCapture
		cond.Name = p.parseName('\'', "group name")
		p.expectCondClose()

	case p.s.Peek() == '?' || p.s.Peek() == '*':
		// Assertion condition: the condition is itself a lookaround
		// group, e.g. (?(?=...)yes|no).
		n := p.parseGroup()
		assert, isAssert := n.(*ComplexAssert)
		if !isAssert {
			p.error("conditional condition is not an assertion")
			assert = &ComplexAssert{Body: &Error{}}
		}
		cond.Kind = CondAssertion
		cond.Assert = assert

	default:
		name := p.parseName(')', "condition")
		if name == "DEFINE" {
			cond.Kind = CondDefine
		} else {
			cond.Kind = CondNamedCapture
			cond.Name = name
		}
	}

	cond.IfTrue = p.parseBranch()
	if p.accept('|') {
		cond.IfFalse = p.parseBranch()
	}
	for !p.s.Empty() && p.s.Peek() == '|' {
		p.error("conditional with too many branches")
		p.s.Take()
		p.parseBranch()
	}
	p.expectClose()
	return cond
}

// expectCondClose consumes the ')' ending a conditional's condition.
func (p *parser) expectCondClose() {
	if !p.accept(')') {
		p.error("unterminated conditional condition")
	}
}

// parseOptionGroup parses (?flags) and (?flags:...) option settings.
// The former mutates the options of the enclosing scope and yields no
// node.
func (p *parser) parseOptionGroup() Node {
	opts := p.opts
	if p.accept('^') {
		opts = DefaultOptions()
	}

	value := true
	for !p.s.Empty() {
		c := p.s.Peek()
		done := false
		switch c {
		case 'i':
			opts.CaseInsensitive = value
		case 'm':
			opts.Multiline = value
		case 's':
			opts.DotAll = value
		case 'n':
			opts.NoAutoCapture = value
		case 'x':
			if opts.Extended && value {
				opts.ExtendedMore = true
			}
			opts.Extended = value
			if !value {
				opts.ExtendedMore = false
			}
		case 'J':
			// Duplicate names are tolerated unconditionally.
		case '-':
			value = false
		case ':', ')':
			done = true
		default:
			p.error("unknown option flag")
		}
		if done {
			break
		}
		p.s.Take()
	}

	if p.accept(':') {
		saved := p.opts
		p.opts = opts
		body := p.parseAlternation(false)
		p.opts = saved
		p.expectClose()
		return &Subexpr{Nodes: []Node{body}, Kind: SubexprNonCapturing, CaptureIndex: NoCapture}
	}
	if !p.accept(')') {
		p.error("unterminated option group")
	}
	p.opts = opts
	return nil
}

// parseVerb parses (*VERB), (*VERB:arg) and the verb-named group
// prefixes such as (*atomic:...). The leading "(*" has been consumed.
func (p *parser) parseVerb() Node {
	var ident []rune
	for !p.s.Empty() {
		c := p.s.Peek()
		if c == ':' || c == ')' {
			break
		}
		p.s.Take()
		ident = append(ident, c)
	}
	name := string(ident)

	if p.accept(':') {
		return p.parseVerbWithArg(name)
	}
	if !p.accept(')') {
		p.error("unterminated verb")
		return &Error{}
	}

	switch name {
	case "FAIL", "F":
		return &Fail{}
	case "ACCEPT":
		return &Accept{}
	case "MARK":
		p.error("MARK requires a name")
		return &Error{}
	case "UTF", "UCP", "CR", "LF", "CRLF", "ANYCRLF", "ANY", "NUL",
		"BSR_ANYCRLF", "BSR_UNICODE", "NO_AUTO_POSSESS",
		"NO_DOTSTAR_ANCHOR", "NO_JIT", "NO_START_OPT":
		return &Feature{Name: name}
	}
	if isLimitVerb(name) {
		return &Feature{Name: name}
	}
	p.error("unknown verb " + name)
	return &Error{}
}

// parseVerbWithArg handles the colon forms: (*MARK:x), (*:x) and the
// group-opening control prefixes.
func (p *parser) parseVerbWithArg(name string) Node {
	switch name {
	case "", "MARK":
		var arg []rune
		for !p.s.Empty() && p.s.Peek() != ')' {
			arg = append(arg, p.s.Take())
		}
		if !p.accept(')') {
			p.error("unterminated verb")
		}
		return &Mark{Name: string(arg)}

	case "atomic":
		return p.parseGroupBody(SubexprAtomic, NoCapture, "")
	case "pla", "positive_lookahead":
		return p.parseLookaround(false, false, false)
	case "nla", "negative_lookahead":
		return p.parseLookaround(false, true, false)
	case "plb", "positive_lookbehind":
		return p.parseLookaround(true, false, false)
	case "nlb", "negative_lookbehind":
		return p.parseLookaround(true, true, false)
	case "napla", "non_atomic_positive_lookahead":
		return p.parseLookaround(false, false, true)
	case "naplb", "non_atomic_positive_lookbehind":
		return p.parseLookaround(true, false, true)
	}

	p.error("unknown verb " + name)
	for !p.s.Empty() && p.s.Peek() != ')' {
		p.s.Take()
	}
	p.accept(')')
	return &Error{}
}

// isLimitVerb matches (*LIMIT_MATCH=n) style advisory controls.
func isLimitVerb(name string) bool {
	for _, prefix := range []string{"LIMIT_MATCH=", "LIMIT_DEPTH=", "LIMIT_HEAP=", "LIMIT_RECURSION="} {
		if len(name) > len(prefix) && name[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// parseName reads a group or verb name up to the terminator.
func (p *parser) parseName(term rune, what string) string {
	var name []rune
	for !p.s.Empty() {
		c := p.s.Peek()
		if c == term {
			p.s.Take()
			if len(name) == 0 {
				p.error("empty " + what)
			}
			return string(name)
		}
		if c == ')' && term != ')' {
			break
		}
		if !isNameChar(c) {
			break
		}
		p.s.Take()
		name = append(name, c)
	}
	p.error("unterminated " + what)
	return string(name)
}

func isNameChar(c rune) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// registerName records a named group. Duplicate names are tolerated
// unconditionally (PCRE's J flag behavior); branch-reset groups produce
// them routinely, and only an exact (name, index) repeat is collapsed.
func (p *parser) registerName(name string, index int) {
	for _, ng := range p.names {
		if ng.Name == name && ng.Index == index {
			return
		}
	}
	p.names = append(p.names, NamedGroup{Name: name, Index: index})
}

// expectClose consumes the ')' that ends a group.
func (p *parser) expectClose() {
	if !p.accept(')') {
		p.error("unterminated group")
	}
}

// skipGroup consumes up to and including the ')' matching an already
// consumed '(' after an unrecoverable error.
func (p *parser) skipGroup() {
	depth := 1
	for !p.s.Empty() {
		switch p.s.Take() {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return
			}
		case '\\':
			if !p.s.Empty() {
				p.s.Take()
			}
		}
	}
}
