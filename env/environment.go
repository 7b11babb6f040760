// Package env implements the symbol Environment (Context): the
// copy-on-write mapping of names to constant, variable, and function
// bindings that the parser resolves symbols against and that a compiled
// Expression retains a snapshot of for its lifetime.
package env

import (
	"sync/atomic"

	"fexpr/common"
)

// BindingKind reports which of the three union tables a resolved name
// belongs to.
type BindingKind uint8

const (
	BindingNone BindingKind = iota
	BindingConstant
	BindingVariable
	BindingFunction
)

type shared struct {
	t    *table
	refs int32
}

// Environment is a cheaply clonable, copy-on-write symbol table. Clones
// share the underlying table until a mutating call on one of them
// detaches it by deep-copying; reads never allocate.
type Environment struct {
	s *shared
}

// New returns an empty Environment.
func New() Environment {
	return Environment{s: &shared{t: newTable(), refs: 1}}
}

// Clone returns an Environment that shares this one's storage until
// either is mutated.
func (e Environment) Clone() Environment {
	atomic.AddInt32(&e.s.refs, 1)
	return Environment{s: e.s}
}

// detach ensures e's table is not shared before a mutation proceeds.
func (e *Environment) detach() {
	if atomic.LoadInt32(&e.s.refs) > 1 {
		atomic.AddInt32(&e.s.refs, -1)
		e.s = &shared{t: e.s.t.clone(), refs: 1}
	}
}

// isNoop reports whether name is already bound to a binding equal to
// value, without touching e's table. Checking this before detach lets
// a redundant re-registration skip the COW deep copy entirely, the
// way the reference implementation's Context::addConstant/addVariable
// check binding equality before ever calling isDetached()/copy().
func (e Environment) isNoop(name string, value entry) bool {
	n := e.s.t.find(name)
	return n != nil && n.value.equal(value)
}

// AddConstant registers name as a constant binding. It is a no-op if
// name is already bound to the identical constant value.
func (e *Environment) AddConstant(name string, value float32) error {
	if name == "" {
		return common.NewError(common.InvalidArgument, "symbol name must not be empty")
	}
	binding := entry{kind: entryConstant, constant: value}
	if e.isNoop(name, binding) {
		return nil
	}
	e.detach()
	e.s.t.put(name, binding)
	return nil
}

// AddVariable registers name as a variable binding at the given byte
// offset. It is a no-op if the identical binding already exists.
func (e *Environment) AddVariable(name string, offset int32, flags VarFlags) error {
	if name == "" {
		return common.NewError(common.InvalidArgument, "symbol name must not be empty")
	}
	binding := entry{kind: entryVariable, variable: NewVariable(name, offset, flags)}
	if e.isNoop(name, binding) {
		return nil
	}
	e.detach()
	e.s.t.put(name, binding)
	return nil
}

// AddFunction registers name as a function binding.
func (e *Environment) AddFunction(name string, fn NativeFunc, arity int, foldable bool, functionID int) error {
	if name == "" {
		return common.NewError(common.InvalidArgument, "symbol name must not be empty")
	}
	if arity < 0 || arity > MaxArity {
		return common.NewError(common.InvalidArgument, "function arity out of range")
	}
	binding := entry{kind: entryFunction, function: NewFunction(name, fn, arity, foldable, functionID)}
	if e.isNoop(name, binding) {
		return nil
	}
	e.detach()
	e.s.t.put(name, binding)
	return nil
}

// Delete removes name from whichever table it is bound in. It is a
// no-op (returns nil) if name is not bound.
func (e *Environment) Delete(name string) error {
	if e.s.t.find(name) == nil {
		return nil
	}
	e.detach()
	e.s.t.remove(name)
	return nil
}

// Clear removes every binding.
func (e *Environment) Clear() {
	e.detach()
	e.s.t.clear()
}

// Resolve looks up name and reports which table it came from, along
// with the corresponding value. Only one of the three result pointers
// is meaningful, selected by the returned BindingKind.
func (e Environment) Resolve(name string) (BindingKind, float32, *Variable, *Function) {
	n := e.s.t.find(name)
	if n == nil {
		return BindingNone, 0, nil, nil
	}
	switch n.value.kind {
	case entryConstant:
		return BindingConstant, n.value.constant, nil, nil
	case entryVariable:
		return BindingVariable, 0, n.value.variable, nil
	case entryFunction:
		return BindingFunction, 0, nil, n.value.function
	}
	return BindingNone, 0, nil, nil
}

// Each iterates every binding currently visible in the environment.
// Order is unspecified.
func (e Environment) Each(fn func(name string, kind BindingKind)) {
	e.s.t.each(func(name string, v entry) {
		switch v.kind {
		case entryConstant:
			fn(name, BindingConstant)
		case entryVariable:
			fn(name, BindingVariable)
		case entryFunction:
			fn(name, BindingFunction)
		}
	})
}
