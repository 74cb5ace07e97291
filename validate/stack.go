// Package validate implements the structural and type checker for
// function bodies: a stack-polymorphic operand stack supporting type
// variables and an "epsilon" (unreachable-polymorphic) mode, plus the
// per-opcode validation rules built on top of it.
package validate

import "github.com/vertexdlt/sablec/wasm"

// TypeVar is the id of an as-yet-unresolved operand type, used by
// polymorphic opcodes (drop, select) whose ensures/promises are only
// constrained to agree with each other, not with a fixed ValueType.
type TypeVar int

// Elem is OperandStackElement: either a concrete ValueType or a TypeVar.
type Elem struct {
	isVar bool
	vt    wasm.ValueType
	v     TypeVar
}

// Concrete builds a fixed-type stack element.
func Concrete(vt wasm.ValueType) Elem { return Elem{vt: vt} }

func varElem(v TypeVar) Elem { return Elem{isVar: true, v: v} }

func (e Elem) String() string {
	if e.isVar {
		return "t?"
	}
	return e.vt.String()
}

// Stack is the mutable operand stack plus its unification state: a
// union-find over TypeVars with an optional concrete binding per root.
// Binding a variable is visible through every occurrence on the stack
// and in requirements at once, with no in-place rewriting of either
// slice.
type Stack struct {
	items        []Elem
	requirements []Elem
	epsilon      bool

	parent map[TypeVar]TypeVar
	bound  map[TypeVar]wasm.ValueType
	next   TypeVar
}

// NewStack creates an empty, non-epsilon operand stack.
func NewStack() *Stack {
	return &Stack{
		parent: map[TypeVar]TypeVar{},
		bound:  map[TypeVar]wasm.ValueType{},
	}
}

// Fresh allocates a new, unbound TypeVar element.
func (s *Stack) Fresh() Elem {
	v := s.next
	s.next++
	s.parent[v] = v
	return varElem(v)
}

// Epsilon reports whether the stack is in unreachable-polymorphic mode.
func (s *Stack) Epsilon() bool { return s.epsilon }

// SetEpsilon clears the stack and marks the remainder of the current
// block as unreachable-polymorphic. Used by unreachable, return, br, and
// br_table.
func (s *Stack) SetEpsilon() {
	s.items = s.items[:0]
	s.epsilon = true
}

func (s *Stack) find(v TypeVar) TypeVar {
	p, ok := s.parent[v]
	if !ok {
		s.parent[v] = v
		return v
	}
	if p == v {
		return v
	}
	root := s.find(p)
	s.parent[v] = root
	return root
}

// resolve returns the concrete type of e, if known, and whether it is
// known. For a TypeVar it follows the union-find chain and looks up a
// concrete binding at the root.
func (s *Stack) resolve(e Elem) (wasm.ValueType, bool) {
	if !e.isVar {
		return e.vt, true
	}
	root := s.find(e.v)
	vt, ok := s.bound[root]
	return vt, ok
}

func (s *Stack) root(e Elem) TypeVar {
	return s.find(e.v)
}

// unify merges two elements; concrete/concrete requires equality,
// concrete/var binds the var, var/var unions the two variables.
func (s *Stack) unify(top, want Elem) error {
	tv, tok := s.resolve(top)
	wv, wok := s.resolve(want)
	switch {
	case tok && wok:
		if tv != wv {
			return &TypeError{Expecting: want, Actual: top, Epsilon: s.epsilon, Resolved: [2]wasm.ValueType{wv, tv}}
		}
	case tok && !wok:
		s.bound[s.root(want)] = tv
	case !tok && wok:
		s.bound[s.root(top)] = wv
	default:
		a, b := s.root(top), s.root(want)
		if a != b {
			s.parent[a] = b
		}
	}
	return nil
}

// Apply is the core typing step shared by every opcode rule: iterate
// ensures right-to-left against the live stack (or, in epsilon mode,
// against a bottomless supply of outstanding requirements), then push
// every promise left-to-right.
func (s *Stack) Apply(ensures, promises []Elem) error {
	cursor := len(s.items)
	for i := len(ensures) - 1; i >= 0; i-- {
		want := ensures[i]
		if cursor > 0 {
			cursor--
			if err := s.unify(s.items[cursor], want); err != nil {
				return err
			}
			continue
		}
		if !s.epsilon {
			return &TypeError{Expecting: want, Actual: Elem{}, Epsilon: false, StackEmpty: true}
		}
		s.requirements = append(s.requirements, want)
	}
	s.items = s.items[:cursor]
	s.items = append(s.items, promises...)
	return nil
}

// Finish checks that the stack holds exactly `want`, top to bottom (not
// merely a matching prefix), as required at a block/function end. In
// epsilon mode the concrete stack may be shorter than want (SetEpsilon
// cleared it), but values pushed after the SetEpsilon are still real and
// must be fully consumed by want.
func (s *Stack) Finish(want []Elem) error {
	if !s.epsilon && len(s.items) != len(want) {
		return &TypeError{StackEmpty: len(s.items) < len(want), Epsilon: false}
	}
	if err := s.Apply(want, nil); err != nil {
		return err
	}
	if len(s.items) != 0 {
		return &TypeError{Expecting: Elem{}, Actual: s.items[len(s.items)-1], Epsilon: s.epsilon}
	}
	return nil
}

// Height returns the number of live operands on the stack.
func (s *Stack) Height() int { return len(s.items) }

// Snapshot returns a defensive copy of the live stack contents, bottom to
// top, for diagnostics.
func (s *Stack) Snapshot() []Elem {
	return append([]Elem(nil), s.items...)
}
