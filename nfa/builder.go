package nfa

import (
	"github.com/coregx/pcrex/internal/sparse"
)

// Builder constructs Machines incrementally. It is used by the Compiler
// and by tests that need hand-built machines.
type Builder struct {
	states []state
	start  StateID
	end    StateID
	groups map[int]GroupStates
}

// NewBuilder creates a new machine builder with default capacity.
func NewBuilder() *Builder {
	return NewBuilderWithCapacity(16)
}

// NewBuilderWithCapacity creates a new machine builder with the given
// initial state capacity.
func NewBuilderWithCapacity(capacity int) *Builder {
	return &Builder{
		states: make([]state, 0, capacity),
		start:  InvalidState,
		end:    InvalidState,
		groups: make(map[int]GroupStates),
	}
}

// AddState appends a fresh state with no transitions and returns its
// ID.
func (b *Builder) AddState() StateID {
	id := StateID(len(b.states))
	b.states = append(b.states, state{})
	return id
}

// MarkAtomic flags a state so the matcher never pushes a backtracking
// frame for it. Used where a state's transitions are known to be
// mutually exclusive.
func (b *Builder) MarkAtomic(id StateID) {
	b.states[id].atomic = true
}

// AddTransition appends a transition to a state's ordered list and
// returns its index within that list. Transition order is backtracking
// priority.
func (b *Builder) AddTransition(from StateID, cond Condition, to StateID) int {
	st := &b.states[from]
	st.transitions = append(st.transitions, Transition{Cond: cond, Next: to})
	return len(st.transitions) - 1
}

// AddEpsilon appends an unconditional zero-width transition.
func (b *Builder) AddEpsilon(from, to StateID) int {
	return b.AddTransition(from, Condition{Kind: CondLiteral}, to)
}

// PatchCondition replaces the condition of an existing transition.
// Used to resolve forward subroutine references after the whole tree
// has been compiled.
func (b *Builder) PatchCondition(from StateID, index int, cond Condition) {
	b.states[from].transitions[index].Cond = cond
}

// PatchNext replaces the destination of an existing transition.
func (b *Builder) PatchNext(from StateID, index int, to StateID) {
	b.states[from].transitions[index].Next = to
}

// SetStarts records the machine's start and end states.
func (b *Builder) SetStarts(start, end StateID) {
	b.start = start
	b.end = end
}

// SetGroup registers the entry/exit states of a capture group so
// subroutine calls can target it.
func (b *Builder) SetGroup(index int, start, end StateID) {
	b.groups[index] = GroupStates{Start: start, End: end}
}

// Group returns the registered states of a capture group.
func (b *Builder) Group(index int) (GroupStates, bool) {
	g, ok := b.groups[index]
	return g, ok
}

// BuildOption configures machine finalization.
type BuildOption func(*Machine)

// WithCaptureCount sets the number of capture slots including group 0.
func WithCaptureCount(n int) BuildOption {
	return func(m *Machine) {
		m.captureCount = n
	}
}

// WithNames attaches the named-capture directory.
func WithNames(names *CaptureNames) BuildOption {
	return func(m *Machine) {
		m.names = names
	}
}

// Build finalizes the machine and validates its shape: start/end must
// be set, every transition and jump must target an existing state, and
// the end state must be reachable from the start.
func (b *Builder) Build(opts ...BuildOption) (*Machine, error) {
	if b.start == InvalidState || b.end == InvalidState {
		return nil, &BuildError{Message: "start or end state not set", StateID: InvalidState}
	}

	m := &Machine{
		states: b.states,
		start:  b.start,
		end:    b.end,
		groups: b.groups,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.captureCount == 0 {
		m.captureCount = 1
	}

	if err := b.validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// validate walks the state graph checking that every reachable
// transition points inside the table and that the end state can be
// reached. The walk uses a sparse set so cyclic graphs (repetition
// loops) terminate.
func (b *Builder) validate(m *Machine) error {
	n := len(m.states)
	visited := sparse.NewSet(uint32(n))
	stack := []StateID{m.start}
	visited.Insert(uint32(m.start))

	push := func(id StateID) error {
		if int(id) >= n {
			return &BuildError{Message: "transition target out of range", StateID: id}
		}
		if !visited.Contains(uint32(id)) {
			visited.Insert(uint32(id))
			stack = append(stack, id)
		}
		return nil
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, t := range m.states[id].transitions {
			if err := push(t.Next); err != nil {
				return err
			}
			if t.Cond.Kind == CondJump {
				for _, target := range []StateID{t.Cond.Target, t.Cond.TargetEnd, t.Cond.Return} {
					if err := push(target); err != nil {
						return err
					}
				}
			}
		}
	}

	if !visited.Contains(uint32(m.end)) {
		return &BuildError{Message: "end state unreachable", StateID: m.end}
	}
	return nil
}
