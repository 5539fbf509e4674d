package nfa

import (
	"fmt"

	"github.com/coregx/pcrex/syntax"
)

// maxCompileDepth limits recursion during compilation to prevent stack
// overflow on pathological trees.
const maxCompileDepth = 500

// Compile lowers a parsed pattern into a Machine. Problems found while
// compiling (unresolvable subroutine targets, variable-length
// lookbehinds) are reported through onError — mirroring the parser's
// best-effort contract — and the offending construct is compiled to a
// condition that can never match, so a machine is always produced.
func Compile(re *syntax.Regexp, onError syntax.ErrorFunc) (*Machine, error) {
	names := NewCaptureNames(re.Names)
	c := &compiler{
		re:      re,
		b:       NewBuilder(),
		names:   names,
		onError: onError,
	}
	return c.compileTop(re.Root)
}

// compiler compiles one machine: the top-level pattern or a lookaround
// body. Capture numbering and names are shared across machines; group
// entry/exit states are local to each machine.
type compiler struct {
	re      *syntax.Regexp
	b       *Builder
	names   *CaptureNames
	onError syntax.ErrorFunc

	depth   int
	pending []pendingJump
}

// pendingJump is a subroutine call whose target group may not have been
// compiled yet; it is resolved after the whole tree has been lowered.
type pendingJump struct {
	from  StateID
	index int // transition index within from

	group  int    // numbered target, -1 when named
	name   string // named target
	ret    StateID
}

func (c *compiler) error(msg string) {
	if c.onError != nil {
		c.onError(0, msg)
	}
}

// compileTop frames the pattern in capture group 0 and finalizes the
// machine.
func (c *compiler) compileTop(root syntax.Node) (*Machine, error) {
	start := c.b.AddState()
	bodyIn := c.b.AddState()
	bodyOut := c.b.AddState()
	end := c.b.AddState()

	c.b.AddTransition(start, Condition{Kind: CondCaptureBegin, Index: 0}, bodyIn)
	c.compile(root, bodyIn, bodyOut)
	c.b.AddTransition(bodyOut, Condition{Kind: CondCaptureEnd, Index: 0}, end)
	c.b.SetGroup(0, start, end)
	c.b.SetStarts(start, end)

	c.resolveJumps()

	return c.b.Build(
		WithCaptureCount(c.re.CaptureCount+1),
		WithNames(c.names),
	)
}

// compileSub compiles a lookaround body into its own machine. Backward
// bodies are entered through a rewind of their fixed codepoint length,
// one per top-level alternative.
func (c *compiler) compileSub(body syntax.Node, backward bool) *Machine {
	sub := &compiler{
		re:      c.re,
		b:       NewBuilder(),
		names:   c.names,
		onError: c.onError,
	}
	start := sub.b.AddState()
	end := sub.b.AddState()

	if backward {
		sub.compileBackward(body, start, end)
	} else {
		sub.compile(body, start, end)
	}
	sub.b.SetStarts(start, end)
	sub.resolveJumps()

	m, err := sub.b.Build(
		WithCaptureCount(c.re.CaptureCount+1),
		WithNames(c.names),
	)
	if err != nil {
		// The body was reported already; fall back to a machine that
		// never matches.
		fb := NewBuilder()
		s := fb.AddState()
		e := fb.AddState()
		fb.AddTransition(s, Condition{Kind: CondSimpleAssert, Assert: syntax.AssertFalse}, e)
		fb.SetStarts(s, e)
		m, _ = fb.Build(WithCaptureCount(c.re.CaptureCount + 1), WithNames(c.names))
	}
	return m
}

// compileBackward lowers a lookbehind body. Every top-level alternative
// must have a fixed codepoint length; the branch is entered by
// rewinding that many codepoints and then matching forward.
func (c *compiler) compileBackward(body syntax.Node, from, to StateID) {
	branches := []syntax.Node{body}
	if alt, isAlt := topLevelAlternative(body); isAlt {
		branches = alt.Branches
	}
	for _, br := range branches {
		length, ok := fixedLength(br)
		if !ok {
			c.error("lookbehind of variable length is not supported")
			c.b.AddTransition(from, Condition{Kind: CondSimpleAssert, Assert: syntax.AssertFalse}, to)
			continue
		}
		entry := c.b.AddState()
		c.b.AddTransition(from, Condition{Kind: CondRewind, Index: length}, entry)
		c.compile(br, entry, to)
	}
}

// topLevelAlternative unwraps non-capturing containers around an
// alternation so lookbehind branches can be measured independently.
func topLevelAlternative(n syntax.Node) (*syntax.Alternative, bool) {
	for {
		switch v := n.(type) {
		case *syntax.Alternative:
			return v, true
		case *syntax.Subexpr:
			if v.Kind == syntax.SubexprNonCapturing && v.CaptureIndex == syntax.NoCapture && len(v.Nodes) == 1 {
				n = v.Nodes[0]
				continue
			}
			return nil, false
		default:
			return nil, false
		}
	}
}

// compile emits the path for one node between two existing states.
func (c *compiler) compile(n syntax.Node, from, to StateID) {
	c.depth++
	defer func() { c.depth-- }()
	if c.depth > maxCompileDepth {
		c.error("pattern too complex to compile")
		c.b.AddTransition(from, Condition{Kind: CondVerbFail}, to)
		return
	}

	switch v := n.(type) {
	case *syntax.Error:
		c.b.AddEpsilon(from, to)

	case *syntax.Literal:
		c.b.AddTransition(from, Condition{Kind: CondLiteral, Runes: v.Runes, Fold: v.Fold}, to)

	case *syntax.Class:
		c.b.AddTransition(from, Condition{Kind: CondClass, Ranges: c.classRanges(v)}, to)

	case *syntax.SimpleAssert:
		c.b.AddTransition(from, Condition{Kind: CondSimpleAssert, Assert: v.Kind}, to)

	case *syntax.ClassAssert:
		c.b.AddTransition(from, Condition{Kind: CondClassAssert, Ranges: v.Ranges, Negate: v.Negate}, to)

	case *syntax.NumberedBackref:
		if v.Index > c.re.CaptureCount {
			c.error(fmt.Sprintf("backreference to non-existent group %d", v.Index))
		}
		c.b.AddTransition(from, Condition{Kind: CondNumberedBackref, Index: v.Index, Fold: v.Fold}, to)

	case *syntax.NamedBackref:
		if len(c.names.IndexesFor(v.Name)) == 0 {
			c.error("backreference to non-existent group " + v.Name)
		}
		c.b.AddTransition(from, Condition{Kind: CondNamedBackref, Name: v.Name, Fold: v.Fold}, to)

	case *syntax.Subexpr:
		c.compileSubexpr(v, from, to)

	case *syntax.Alternative:
		for _, br := range v.Branches {
			c.compile(br, from, to)
		}

	case *syntax.Repetition:
		c.compileRepetition(v, from, to)

	case *syntax.ComplexAssert:
		c.compileAssertion(v, from, to)

	case *syntax.Conditional:
		c.compileConditional(v, from, to)

	case *syntax.NumberedSubroutine:
		c.compileCall(from, to, v.Index, "")

	case *syntax.NamedSubroutine:
		c.compileCall(from, to, -1, v.Name)

	case *syntax.Fail:
		c.b.AddTransition(from, Condition{Kind: CondVerbFail}, to)

	case *syntax.Accept:
		c.b.AddTransition(from, Condition{Kind: CondVerbAccept}, to)

	case *syntax.Mark:
		c.b.AddTransition(from, Condition{Kind: CondVerbMark, Name: v.Name}, to)

	case *syntax.MatchStartOverride:
		c.b.AddTransition(from, Condition{Kind: CondResetMatchStart}, to)

	case *syntax.Feature:
		c.b.AddEpsilon(from, to)

	default:
		c.error(fmt.Sprintf("cannot compile node %T", n))
		c.b.AddTransition(from, Condition{Kind: CondVerbFail}, to)
	}
}

// classRanges materializes a class's effective, possibly folded,
// codepoint set.
func (c *compiler) classRanges(cl *syntax.Class) syntax.RangeList {
	ranges := cl.Ranges
	if cl.Fold {
		ranges = syntax.FoldRanges(ranges)
	}
	if cl.Negate {
		ranges = ranges.Negate()
	}
	return ranges
}

// compileSubexpr chains a group's children, wrapping capturing groups
// in capture transitions and atomic groups in atomic brackets. Every
// capturing group gets dedicated entry/exit states so subroutine calls
// can target it without straying into sibling transitions.
func (c *compiler) compileSubexpr(sub *syntax.Subexpr, from, to StateID) {
	switch {
	case sub.CaptureIndex > 0:
		gin := c.b.AddState()
		gout := c.b.AddState()
		bodyIn := c.b.AddState()
		bodyOut := c.b.AddState()
		c.b.AddEpsilon(from, gin)
		c.b.AddTransition(gin, Condition{Kind: CondCaptureBegin, Index: sub.CaptureIndex}, bodyIn)
		c.compileChain(sub.Nodes, bodyIn, bodyOut)
		c.b.AddTransition(bodyOut, Condition{Kind: CondCaptureEnd, Index: sub.CaptureIndex}, gout)
		c.b.AddEpsilon(gout, to)
		c.b.SetGroup(sub.CaptureIndex, gin, gout)

	case sub.Kind == syntax.SubexprAtomic:
		bodyIn := c.b.AddState()
		bodyOut := c.b.AddState()
		c.b.AddTransition(from, Condition{Kind: CondPushAtomic}, bodyIn)
		c.compileChain(sub.Nodes, bodyIn, bodyOut)
		c.b.AddTransition(bodyOut, Condition{Kind: CondPopAtomic}, to)

	default:
		c.compileChain(sub.Nodes, from, to)
	}
}

// compileChain sequences nodes through fresh intermediate states.
func (c *compiler) compileChain(nodes []syntax.Node, from, to StateID) {
	if len(nodes) == 0 {
		c.b.AddEpsilon(from, to)
		return
	}
	cur := from
	for i, n := range nodes {
		next := to
		if i < len(nodes)-1 {
			next = c.b.AddState()
		}
		c.compile(n, cur, next)
		cur = next
	}
}

// compileRepetition lowers a quantifier: the mandatory prefix is
// unrolled, an unbounded tail becomes a guarded loop, a bounded tail a
// chain of optional copies. Greediness is the order of the loop and
// exit edges; possessive repetition is a greedy one inside an atomic
// bracket.
func (c *compiler) compileRepetition(rep *syntax.Repetition, from, to StateID) {
	if rep.Kind == syntax.RepeatPossessive {
		in := c.b.AddState()
		out := c.b.AddState()
		c.b.AddTransition(from, Condition{Kind: CondPushAtomic}, in)
		inner := &syntax.Repetition{Body: rep.Body, Min: rep.Min, Max: rep.Max, Kind: syntax.RepeatGreedy}
		c.compileRepetition(inner, in, out)
		c.b.AddTransition(out, Condition{Kind: CondPopAtomic}, to)
		return
	}

	if rep.Max == 0 {
		// x{0}: the body must not participate in matching, but its
		// groups stay addressable for subroutine calls.
		dead := c.b.AddState()
		dangling := c.b.AddState()
		c.b.AddTransition(from, Condition{Kind: CondVerbFail}, dead)
		c.compile(rep.Body, dead, dangling)
		c.b.AddEpsilon(from, to)
		return
	}

	// Unroll the mandatory prefix.
	cur := from
	for i := 0; i < rep.Min; i++ {
		next := c.b.AddState()
		c.compile(rep.Body, cur, next)
		cur = next
	}

	lazy := rep.Kind == syntax.RepeatLazy

	if rep.Max == syntax.NoMax {
		// Guarded loop: each iteration records its entry position and
		// fails if the body consumed nothing. The loop head is always a
		// dedicated state so the back edge cannot stray into sibling
		// transitions of a shared chain state.
		loop := cur
		if rep.Min == 0 {
			loop = c.b.AddState()
			c.b.AddEpsilon(cur, loop)
		}
		bodyIn := c.b.AddState()
		bodyOut := c.b.AddState()
		if lazy {
			c.b.AddEpsilon(loop, to)
			c.b.AddTransition(loop, Condition{Kind: CondPushPosition}, bodyIn)
		} else {
			c.b.AddTransition(loop, Condition{Kind: CondPushPosition}, bodyIn)
			c.b.AddEpsilon(loop, to)
		}
		c.compile(rep.Body, bodyIn, bodyOut)
		c.b.AddTransition(bodyOut, Condition{Kind: CondCheckInfiniteLoop}, loop)
		return
	}

	// Bounded tail: max-min optional copies, each offering an exit.
	for i := rep.Min; i < rep.Max; i++ {
		next := c.b.AddState()
		if lazy {
			c.b.AddEpsilon(cur, to)
			c.compile(rep.Body, cur, next)
		} else {
			c.compile(rep.Body, cur, next)
			c.b.AddEpsilon(cur, to)
		}
		cur = next
	}
	c.b.AddEpsilon(cur, to)
}

// compileAssertion emits a lookaround condition holding the compiled
// body machine.
func (c *compiler) compileAssertion(a *syntax.ComplexAssert, from, to StateID) {
	cond := c.assertionCondition(a)
	c.b.AddTransition(from, cond, to)
}

// assertionCondition compiles the body of a lookaround into the
// condition that runs it.
func (c *compiler) assertionCondition(a *syntax.ComplexAssert) Condition {
	return Condition{
		Kind:      CondAssertion,
		Sub:       c.compileSub(a.Body, a.Backward),
		Backward:  a.Backward,
		Negative:  a.Negative,
		NonAtomic: a.NonAtomic,
	}
}

// compileConditional branches on the condition. The two guard
// transitions are mutually exclusive at any given point, so the branch
// state never needs a backtracking frame.
func (c *compiler) compileConditional(cond *syntax.Conditional, from, to StateID) {
	if cond.Kind == syntax.CondDefine {
		// The body is compiled behind an unsatisfiable guard: it never
		// runs as a branch, but its groups are registered and callable.
		dead := c.b.AddState()
		dangling := c.b.AddState()
		c.b.AddTransition(from, Condition{Kind: CondVerbFail}, dead)
		c.compile(cond.IfTrue, dead, dangling)
		c.b.AddEpsilon(from, to)
		return
	}

	guard := c.conditionGuard(cond)

	// The two guards are mutually exclusive at any input position, so
	// the branch state is atomic: no backtracking frame is needed to
	// try the other arm, re-evaluating the guard rejects it anyway.
	branch := c.b.AddState()
	c.b.MarkAtomic(branch)
	c.b.AddEpsilon(from, branch)

	yes := c.b.AddState()
	c.b.AddTransition(branch, guard, yes)
	c.compile(cond.IfTrue, yes, to)

	negated := guard
	if negated.Kind == CondAssertion {
		negated.Negative = !negated.Negative
	} else {
		negated.Negate = !negated.Negate
	}
	no := c.b.AddState()
	c.b.AddTransition(branch, negated, no)
	if cond.IfFalse != nil {
		c.compile(cond.IfFalse, no, to)
	} else {
		c.b.AddEpsilon(no, to)
	}
}

// conditionGuard builds the positive form of a conditional's guard.
func (c *compiler) conditionGuard(cond *syntax.Conditional) Condition {
	switch cond.Kind {
	case syntax.CondNumberedCapture:
		if cond.Index > c.re.CaptureCount {
			c.error(fmt.Sprintf("conditional references non-existent group %d", cond.Index))
		}
		return Condition{Kind: CondCheckNumberedCapture, Index: cond.Index}
	case syntax.CondNamedCapture:
		if len(c.names.IndexesFor(cond.Name)) == 0 {
			c.error("conditional references non-existent group " + cond.Name)
		}
		return Condition{Kind: CondCheckNamedCapture, Name: cond.Name}
	case syntax.CondAssertion:
		return c.assertionCondition(cond.Assert)
	case syntax.CondAnyRecursion:
		return Condition{Kind: CondCheckAnyRecursion}
	case syntax.CondNumberedRecursion:
		return Condition{Kind: CondCheckNumberedRecursion, Index: cond.Index}
	case syntax.CondNamedRecursion:
		return Condition{Kind: CondCheckNamedRecursion, Name: cond.Name}
	default:
		c.error("unknown conditional kind")
		return Condition{Kind: CondVerbFail}
	}
}

// compileCall emits the transition sequence of a subroutine call. The
// jump's callee states are patched in after the whole tree has been
// compiled, so forward references work.
func (c *compiler) compileCall(from, to StateID, group int, name string) {
	callSite := c.b.AddState()
	ret := c.b.AddState()
	c.b.AddTransition(from, Condition{Kind: CondPushCheckpoint}, callSite)
	idx := c.b.AddTransition(callSite, Condition{Kind: CondJump}, InvalidState)
	c.b.AddTransition(ret, Condition{Kind: CondRestoreCheckpoint}, to)

	c.pending = append(c.pending, pendingJump{
		from:  callSite,
		index: idx,
		group: group,
		name:  name,
		ret:   ret,
	})
}

// resolveJumps patches subroutine calls with their callee states.
// Unresolvable calls are reported and become dead transitions.
func (c *compiler) resolveJumps() {
	for _, pj := range c.pending {
		group := pj.group
		if group < 0 {
			indexes := c.names.IndexesFor(pj.name)
			if len(indexes) == 0 {
				c.error("subroutine call to non-existent group " + pj.name)
				c.b.PatchCondition(pj.from, pj.index, Condition{Kind: CondVerbFail})
				c.b.PatchNext(pj.from, pj.index, pj.ret)
				continue
			}
			group = indexes[0]
		}
		g, ok := c.b.Group(group)
		if !ok {
			c.error(fmt.Sprintf("subroutine call to non-existent group %d", group))
			c.b.PatchCondition(pj.from, pj.index, Condition{Kind: CondVerbFail})
			c.b.PatchNext(pj.from, pj.index, pj.ret)
			continue
		}
		c.b.PatchCondition(pj.from, pj.index, Condition{
			Kind:      CondJump,
			Index:     group,
			Target:    g.Start,
			TargetEnd: g.End,
			Return:    pj.ret,
		})
		c.b.PatchNext(pj.from, pj.index, g.Start)
	}
	c.pending = nil
}

// fixedLength computes the exact codepoint length a node consumes, when
// that length is the same on every path.
func fixedLength(n syntax.Node) (int, bool) {
	switch v := n.(type) {
	case *syntax.Error, *syntax.SimpleAssert, *syntax.ClassAssert,
		*syntax.ComplexAssert, *syntax.MatchStartOverride, *syntax.Mark,
		*syntax.Feature:
		return 0, true
	case *syntax.Literal:
		return len(v.Runes), true
	case *syntax.Class:
		return 1, true
	case *syntax.Subexpr:
		total := 0
		for _, child := range v.Nodes {
			l, ok := fixedLength(child)
			if !ok {
				return 0, false
			}
			total += l
		}
		return total, true
	case *syntax.Alternative:
		length := -1
		for _, br := range v.Branches {
			l, ok := fixedLength(br)
			if !ok {
				return 0, false
			}
			if length >= 0 && l != length {
				return 0, false
			}
			length = l
		}
		if length < 0 {
			return 0, true
		}
		return length, true
	case *syntax.Repetition:
		if v.Min != v.Max {
			return 0, false
		}
		l, ok := fixedLength(v.Body)
		if !ok {
			return 0, false
		}
		return l * v.Min, true
	default:
		// Backreferences, conditionals, subroutines and verbs have no
		// statically known width.
		return 0, false
	}
}
