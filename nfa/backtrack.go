package nfa

import (
	"github.com/coregx/pcrex/input"
	"github.com/coregx/pcrex/syntax"
)

// DefaultMaxIterations bounds total engine steps per match attempt,
// aborting catastrophic backtracking.
const DefaultMaxIterations = 1_000_000

// Config configures a Backtracker.
type Config struct {
	// MaxIterations caps engine steps per TryMatch call. Zero means
	// DefaultMaxIterations.
	MaxIterations int
}

// DefaultConfig returns the default matcher configuration.
func DefaultConfig() Config {
	return Config{MaxIterations: DefaultMaxIterations}
}

// Backtracker executes a Machine against an input stream with explicit
// backtracking frames.
//
// A Backtracker owns mutable scratch state and must not be used
// concurrently with itself; the Machine it borrows is read-only and may
// be shared. All scratch stacks live only for the duration of a single
// TryMatch call and are cleared on both the success and failure paths.
type Backtracker struct {
	m        *Machine
	maxIters int

	stack       []frame
	ongoing     []ongoingCapture
	undo        []capturePatch
	atomics     []int
	subs        []subFrame
	checkpoints []input.Stream
	positions   []int
	marksTaken  []string

	captures      []Capture
	overrideBegin input.Pos
	overrideSet   bool
	attemptStart  input.Pos

	lastEmptyPos int
	err          error
}

// frame is one backtracking choice point: the stream and transition
// cursor to resume from, plus bookmarks into every auxiliary stack so
// side effects taken since the push can be rolled back.
type frame struct {
	stream   input.Stream
	state    StateID
	transIdx int
	marks    bookmarks
}

// bookmarks snapshots the auxiliary stack sizes and the match-start
// override before a transition commits.
type bookmarks struct {
	ongoingLen    int
	undoLen       int
	atomicLen     int
	subLen        int
	checkpointLen int
	positionLen   int
	markLen       int
	overrideSet   bool
	overrideBegin input.Pos
}

// ongoingCapture is an open capture span awaiting its end transition.
type ongoingCapture struct {
	index int
	begin input.Pos
}

// capturePatch is one entry of the capture undo log: the value a slot
// held before it was overwritten.
type capturePatch struct {
	index int
	old   Capture
}

// subFrame is an active subroutine call. target is the callee's exit
// state; reaching it transfers control to ret. The recorded stack and
// log sizes restore the pre-call world on return: completed calls are
// atomic and their capture values revert, which keeps recursion safe.
type subFrame struct {
	target     StateID
	ret        StateID
	capture    int
	stackLen   int
	ongoingLen int
	undoLen    int
}

// NewBacktracker creates a matcher for the given machine with default
// configuration.
func NewBacktracker(m *Machine) *Backtracker {
	return NewBacktrackerWithConfig(m, DefaultConfig())
}

// NewBacktrackerWithConfig creates a matcher with an explicit
// configuration.
func NewBacktrackerWithConfig(m *Machine, config Config) *Backtracker {
	if config.MaxIterations <= 0 {
		config.MaxIterations = DefaultMaxIterations
	}
	return &Backtracker{
		m:            m,
		maxIters:     config.MaxIterations,
		lastEmptyPos: -1,
	}
}

// Err returns the run-time error of the most recent attempt, if any.
// ErrIterationLimit distinguishes an aborted attempt from an ordinary
// non-match.
func (b *Backtracker) Err() error {
	return b.err
}

// TryMatch attempts a match at the stream's current position. On
// success the stream is advanced to the match end; on failure it is
// left where it was. With rejectEmpty set, zero-length matches are
// skipped as if they had failed.
func (b *Backtracker) TryMatch(s *input.Stream, rejectEmpty bool) *Match {
	b.resetScratch()
	b.err = nil
	if cap(b.captures) < b.m.CaptureCount() {
		b.captures = make([]Capture, b.m.CaptureCount())
	}
	b.captures = b.captures[:b.m.CaptureCount()]
	for i := range b.captures {
		b.captures[i] = Capture{}
	}
	b.attemptStart = s.Pos()

	st := *s
	matched := b.exec(&st, rejectEmpty)

	var m *Match
	if matched {
		caps := make([]Capture, len(b.captures))
		copy(caps, b.captures)
		begin := caps[0].Begin
		if b.overrideSet {
			begin = b.overrideBegin
		}
		m = &Match{
			Captures: caps,
			Begin:    begin,
			End:      caps[0].End,
			Marks:    append([]string(nil), b.marksTaken...),
		}
		*s = st
	}
	b.resetScratch()
	return m
}

// FindNext slides the match attempt forward one codepoint at a time
// until a match is found or the stream is exhausted. The stream ends up
// at the match end, one past it for an empty match so the same empty
// match is never reported twice.
func (b *Backtracker) FindNext(s *input.Stream) *Match {
	for {
		attempt := *s
		rejectEmpty := b.lastEmptyPos == s.Position()
		if m := b.TryMatch(&attempt, rejectEmpty); m != nil {
			*s = attempt
			if m.Captures[0].Length() == 0 {
				b.lastEmptyPos = s.Position()
				if !s.Empty() {
					s.Take()
				}
			} else {
				b.lastEmptyPos = -1
			}
			return m
		}
		if b.err != nil || s.Empty() {
			return nil
		}
		s.Take()
	}
}

// FindAll reports every successive match to the callback until it
// returns false or the stream is exhausted.
func (b *Backtracker) FindAll(s *input.Stream, cb func(*Match) bool) {
	for {
		m := b.FindNext(s)
		if m == nil {
			return
		}
		if !cb(m) {
			return
		}
	}
}

// resetScratch empties every scratch stack, keeping capacity for reuse.
func (b *Backtracker) resetScratch() {
	b.stack = b.stack[:0]
	b.ongoing = b.ongoing[:0]
	b.undo = b.undo[:0]
	b.atomics = b.atomics[:0]
	b.subs = b.subs[:0]
	b.checkpoints = b.checkpoints[:0]
	b.positions = b.positions[:0]
	b.marksTaken = b.marksTaken[:0]
	b.overrideSet = false
	b.overrideBegin = input.Pos{}
}

// exec is the machine iteration loop shared by top-level attempts and
// lookaround sub-matches.
func (b *Backtracker) exec(st *input.Stream, rejectEmpty bool) bool {
	state := b.m.Start()
	transIdx := 0

	for iters := 0; ; iters++ {
		if iters >= b.maxIters {
			b.err = ErrIterationLimit
			return false
		}

		// A completed subroutine call: control moves to the return
		// state, frames inside the call are sealed off and capture
		// values revert to their pre-call state.
		if n := len(b.subs); n > 0 && b.subs[n-1].target == state {
			f := b.subs[n-1]
			b.rewindUndo(f.undoLen)
			b.ongoing = b.ongoing[:f.ongoingLen]
			if f.stackLen < len(b.stack) {
				b.stack = b.stack[:f.stackLen]
			}
			b.subs = b.subs[:n-1]
			state, transIdx = f.ret, 0
			continue
		}

		if state == b.m.End() && len(b.subs) == 0 {
			if rejectEmpty && b.captures[0].Length() == 0 {
				if !b.backtrack(st, &state, &transIdx) {
					return false
				}
				continue
			}
			return true
		}

		trans := b.m.Transitions(state)
		if transIdx >= len(trans) {
			if !b.backtrack(st, &state, &transIdx) {
				return false
			}
			continue
		}

		t := &trans[transIdx]
		saved := *st

		pushed := false
		if transIdx+1 < len(trans) && !b.m.IsAtomic(state) {
			b.stack = append(b.stack, frame{
				stream:   saved,
				state:    state,
				transIdx: transIdx + 1,
				marks:    b.bookmark(),
			})
			pushed = true
		}

		ok, next := b.step(&t.Cond, t.Next, st)
		if !ok {
			if pushed {
				b.stack = b.stack[:len(b.stack)-1]
			}
			if b.err != nil {
				return false
			}
			*st = saved
			transIdx++
			continue
		}
		state, transIdx = next, 0
	}
}

// bookmark snapshots the auxiliary stacks for a backtracking frame.
func (b *Backtracker) bookmark() bookmarks {
	return bookmarks{
		ongoingLen:    len(b.ongoing),
		undoLen:       len(b.undo),
		atomicLen:     len(b.atomics),
		subLen:        len(b.subs),
		checkpointLen: len(b.checkpoints),
		positionLen:   len(b.positions),
		markLen:       len(b.marksTaken),
		overrideSet:   b.overrideSet,
		overrideBegin: b.overrideBegin,
	}
}

// backtrack pops the top frame, restoring the stream, the transition
// cursor and every auxiliary stack. It reports false when no frames
// remain, which fails the attempt.
func (b *Backtracker) backtrack(st *input.Stream, state *StateID, transIdx *int) bool {
	n := len(b.stack)
	if n == 0 {
		return false
	}
	f := b.stack[n-1]
	b.stack = b.stack[:n-1]

	*st = f.stream
	*state = f.state
	*transIdx = f.transIdx

	m := f.marks
	b.ongoing = b.ongoing[:m.ongoingLen]
	b.rewindUndo(m.undoLen)
	b.atomics = b.atomics[:m.atomicLen]
	b.subs = b.subs[:m.subLen]
	b.checkpoints = b.checkpoints[:m.checkpointLen]
	b.positions = b.positions[:m.positionLen]
	b.marksTaken = b.marksTaken[:m.markLen]
	b.overrideSet = m.overrideSet
	b.overrideBegin = m.overrideBegin
	return true
}

// setCapture overwrites a capture slot, logging the old value for
// rollback.
func (b *Backtracker) setCapture(index int, c Capture) {
	b.undo = append(b.undo, capturePatch{index: index, old: b.captures[index]})
	b.captures[index] = c
}

// rewindUndo rolls the capture array back to an earlier log size.
func (b *Backtracker) rewindUndo(n int) {
	for i := len(b.undo) - 1; i >= n; i-- {
		p := b.undo[i]
		b.captures[p.index] = p.old
	}
	b.undo = b.undo[:n]
}

// step evaluates one transition condition: it consumes input for
// consuming conditions, applies side effects, and returns the
// destination state (normally next, but verbs and jumps redirect).
func (b *Backtracker) step(c *Condition, next StateID, st *input.Stream) (bool, StateID) {
	switch c.Kind {
	case CondLiteral:
		for _, r := range c.Runes {
			if st.Empty() {
				return false, next
			}
			cp := st.Take()
			if c.Fold {
				cp = syntax.Fold(cp)
			}
			if cp != r {
				return false, next
			}
		}
		return true, next

	case CondClass:
		if st.Empty() {
			return false, next
		}
		return c.Ranges.Contains(st.Take()), next

	case CondSimpleAssert:
		return assertHolds(c.Assert, st, b.attemptStart), next

	case CondClassAssert:
		return classBoundaryHolds(c.Ranges, c.Negate, st), next

	case CondNumberedBackref:
		return b.matchBackref(c.Index, c.Fold, st), next

	case CondNamedBackref:
		for _, idx := range b.m.Names().IndexesFor(c.Name) {
			if idx < len(b.captures) && b.captures[idx].Matched {
				return b.matchBackref(idx, c.Fold, st), next
			}
		}
		return false, next

	case CondCaptureBegin:
		b.ongoing = append(b.ongoing, ongoingCapture{index: c.Index, begin: st.Pos()})
		return true, next

	case CondCaptureEnd:
		n := len(b.ongoing)
		if n == 0 {
			b.err = ErrInvalidMachine
			return false, next
		}
		oc := b.ongoing[n-1]
		b.ongoing = b.ongoing[:n-1]
		b.setCapture(oc.index, Capture{Begin: oc.begin, End: st.Pos(), Matched: true})
		return true, next

	case CondResetMatchStart:
		b.overrideSet = true
		b.overrideBegin = st.Pos()
		return true, next

	case CondPushAtomic:
		b.atomics = append(b.atomics, len(b.stack))
		return true, next

	case CondPopAtomic:
		n := len(b.atomics)
		if n == 0 {
			b.err = ErrInvalidMachine
			return false, next
		}
		depth := b.atomics[n-1]
		b.atomics = b.atomics[:n-1]
		if depth < len(b.stack) {
			b.stack = b.stack[:depth]
		}
		return true, next

	case CondPushCheckpoint:
		b.checkpoints = append(b.checkpoints, *st)
		return true, next

	case CondRestoreCheckpoint:
		n := len(b.checkpoints)
		if n == 0 {
			b.err = ErrInvalidMachine
			return false, next
		}
		b.checkpoints = b.checkpoints[:n-1]
		return true, next

	case CondPushPosition:
		b.positions = append(b.positions, st.Position())
		return true, next

	case CondCheckInfiniteLoop:
		n := len(b.positions)
		if n == 0 {
			b.err = ErrInvalidMachine
			return false, next
		}
		pos := b.positions[n-1]
		b.positions = b.positions[:n-1]
		return pos != st.Position(), next

	case CondRewind:
		for i := 0; i < c.Index; i++ {
			if st.PrevEmpty() {
				return false, next
			}
			st.Prev()
		}
		return true, next

	case CondJump:
		b.subs = append(b.subs, subFrame{
			target:     c.TargetEnd,
			ret:        c.Return,
			capture:    c.Index,
			stackLen:   len(b.stack),
			ongoingLen: len(b.ongoing),
			undoLen:    len(b.undo),
		})
		return true, c.Target

	case CondAssertion:
		return b.evalAssertion(c, *st), next

	case CondCheckNumberedCapture:
		matched := c.Index < len(b.captures) && b.captures[c.Index].Matched
		return matched != c.Negate, next

	case CondCheckNamedCapture:
		matched := false
		for _, idx := range b.m.Names().IndexesFor(c.Name) {
			if idx < len(b.captures) && b.captures[idx].Matched {
				matched = true
				break
			}
		}
		return matched != c.Negate, next

	case CondCheckAnyRecursion:
		return (len(b.subs) > 0) != c.Negate, next

	case CondCheckNumberedRecursion:
		active := len(b.subs) > 0 && b.subs[len(b.subs)-1].capture == c.Index
		return active != c.Negate, next

	case CondCheckNamedRecursion:
		active := false
		if n := len(b.subs); n > 0 {
			for _, idx := range b.m.Names().IndexesFor(c.Name) {
				if b.subs[n-1].capture == idx {
					active = true
					break
				}
			}
		}
		return active != c.Negate, next

	case CondVerbFail:
		return false, next

	case CondVerbAccept:
		floor := 0
		if n := len(b.subs); n > 0 {
			floor = b.subs[n-1].ongoingLen
		}
		for len(b.ongoing) > floor {
			n := len(b.ongoing)
			oc := b.ongoing[n-1]
			b.ongoing = b.ongoing[:n-1]
			b.setCapture(oc.index, Capture{Begin: oc.begin, End: st.Pos(), Matched: true})
		}
		if n := len(b.subs); n > 0 {
			return true, b.subs[n-1].target
		}
		return true, b.m.End()

	case CondVerbMark:
		b.marksTaken = append(b.marksTaken, c.Name)
		return true, next

	default:
		b.err = ErrInvalidMachine
		return false, next
	}
}

// matchBackref consumes and compares the text a group captured.
// References to unset groups fail.
func (b *Backtracker) matchBackref(index int, fold bool, st *input.Stream) bool {
	if index <= 0 || index >= len(b.captures) || !b.captures[index].Matched {
		return false
	}
	captured := st.Slice(b.captures[index].Begin, b.captures[index].End)
	for _, r := range captured {
		if st.Empty() {
			return false
		}
		cp := st.Take()
		if fold {
			cp = syntax.Fold(cp)
			r = syntax.Fold(r)
		}
		if cp != r {
			return false
		}
	}
	return true
}

// evalAssertion runs a lookaround sub-machine from the current
// position. Captures made by a successful positive assertion are kept
// (forwarded to the enclosing result); everything else is rolled back.
// A sub-match that hits its iteration cap counts as a non-match.
func (b *Backtracker) evalAssertion(c *Condition, st input.Stream) bool {
	mark := len(b.undo)

	sub := &Backtracker{
		m:            c.Sub,
		maxIters:     b.maxIters,
		lastEmptyPos: -1,
		captures:     b.captures,
		undo:         b.undo,
		attemptStart: b.attemptStart,
	}
	matched := sub.exec(&st, false)
	b.undo = sub.undo

	if !(matched && !c.Negative) {
		b.rewindUndo(mark)
	}
	return matched != c.Negative
}
