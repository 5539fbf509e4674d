package syntax

// parseClass parses a bracket character class; the opening '[' has been
// consumed. A ']' directly after '[' or '[^' is a literal.
func (p *parser) parseClass() Node {
	cl := &Class{Fold: p.opts.CaseInsensitive}
	if p.accept('^') {
		cl.Negate = true
	}

	first := true
	for {
		p.skipClassSpace()
		if p.s.Empty() {
			p.error("unterminated character class")
			break
		}
		if p.s.Peek() == ']' && !first {
			p.s.Take()
			break
		}
		first = false

		cp, ranges, single, valid := p.parseClassAtom()
		if !valid {
			continue
		}
		if !single {
			cl.Ranges.AppendList(ranges)
			continue
		}
		p.parseClassRange(cl, cp)
	}

	cl.Ranges.Compact()
	return cl
}

// parseClassRange appends cp, extending it into a range when a '-'
// with a valid upper bound follows.
func (p *parser) parseClassRange(cl *Class, lo rune) {
	p.skipClassSpace()
	if p.s.Empty() || p.s.Peek() != '-' {
		cl.Ranges.AppendRune(lo)
		return
	}
	dash := p.s
	p.s.Take()
	p.skipClassSpace()

	if p.s.Empty() || p.s.Peek() == ']' {
		// Trailing '-' is a literal.
		p.s = dash
		p.s.Take()
		cl.Ranges.AppendRune(lo)
		cl.Ranges.AppendRune('-')
		return
	}

	hi, ranges, single, valid := p.parseClassAtom()
	if !valid {
		cl.Ranges.AppendRune(lo)
		cl.Ranges.AppendRune('-')
		return
	}
	if !single {
		// A class escape cannot close a range; the '-' is a literal.
		cl.Ranges.AppendRune(lo)
		cl.Ranges.AppendRune('-')
		cl.Ranges.AppendList(ranges)
		return
	}
	if hi < lo {
		p.error("character range out of order")
		lo, hi = hi, lo
	}
	cl.Ranges.Append(lo, hi)
}

// parseClassAtom parses one class element. It yields either a single
// codepoint (single=true, usable as a range endpoint) or a range list
// (POSIX class, class escape, \Q run). valid=false means the element
// was reported and should be skipped.
func (p *parser) parseClassAtom() (cp rune, ranges RangeList, single, valid bool) {
	c := p.s.Take()
	switch c {
	case '[':
		if !p.s.Empty() && p.s.Peek() == ':' {
			if rl, ok := p.parsePosixClass(); ok {
				return 0, rl, false, true
			}
		}
		return '[', nil, true, true

	case '\\':
		return p.parseClassEscapeAtom()

	default:
		return c, nil, true, true
	}
}

// parseClassEscapeAtom parses an escape inside a class, where escape
// behaviour diverges from the outer syntax: \b is backspace, \N is
// forbidden, backreferences are forbidden.
func (p *parser) parseClassEscapeAtom() (cp rune, ranges RangeList, single, valid bool) {
	if p.s.Empty() {
		p.error("pattern ends with a backslash")
		return 0, nil, false, false
	}
	c := p.s.Take()
	switch c {
	case 'd', 'D', 's', 'S', 'h', 'H', 'v', 'V', 'w', 'W':
		return 0, p.classEscapeRanges(c), false, true

	case 'b':
		return 0x08, nil, true, true

	case 'N':
		p.error("\\N is not allowed in a character class")
		return 0, nil, false, false

	case 'Q':
		var rl RangeList
		p.parseQuotedRun(func(r rune) { rl.AppendRune(r) })
		return 0, rl, false, true

	case 'E':
		return 0, nil, false, false

	case 'p', 'P':
		p.error("\\p property escapes are not supported")
		if p.accept('{') {
			for !p.s.Empty() && p.s.Take() != '}' {
			}
		} else if !p.s.Empty() {
			p.s.Take()
		}
		return 0, nil, false, false

	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		p.error("backreferences are not allowed in a character class")
		return c - '0', nil, true, true

	default:
		r, ok := p.charEscape(c)
		if !ok {
			return 0, nil, false, false
		}
		return r, nil, true, true
	}
}

// parsePosixClass parses [:name:] or [:^name:]; the '[' has been
// consumed and ':' is next. On failure the stream is restored so the
// '[' can be treated as a literal by the caller.
func (p *parser) parsePosixClass() (RangeList, bool) {
	save := p.s
	p.s.Take() // ':'
	negate := p.accept('^')

	var name []rune
	for !p.s.Empty() {
		c := p.s.Peek()
		if c < 'a' || c > 'z' {
			break
		}
		p.s.Take()
		name = append(name, c)
	}
	if !p.accept(':') || !p.accept(']') {
		p.error("malformed POSIX class")
		p.s = save
		return nil, false
	}

	rl, ok := posixClass(string(name))
	if !ok {
		switch string(name) {
		case "print", "graph", "punct", "word", "xdigit":
			p.error("POSIX class [:" + string(name) + ":] is not supported")
		default:
			p.error("unknown POSIX class [:" + string(name) + ":]")
		}
		return nil, true
	}
	if negate {
		rl = rl.Negate()
	}
	return rl, true
}

// skipClassSpace skips space and tab inside a class under extended-more
// mode.
func (p *parser) skipClassSpace() {
	if !p.opts.ExtendedMore {
		return
	}
	for !p.s.Empty() {
		c := p.s.Peek()
		if c != ' ' && c != '\t' {
			return
		}
		p.s.Take()
	}
}
