// Package vm implements Peach's stack-based bytecode interpreter: the
// runtime call-frame stack, the global and string-intern tables, and the
// closure/upvalue machinery that ties compiled Functions to live,
// callable values (spec.md §4.5).
package vm

import (
	"fmt"

	"github.com/quanta-kt/peachlang/lang/compiler"
	"github.com/quanta-kt/peachlang/lang/value"
)

// Closure pairs a compiled Function with the concrete Upvalues captured
// for one instantiation. All callable user code at runtime is a Closure,
// never a bare Function (spec.md §3).
type Closure struct {
	value.Header
	Function *compiler.Function
	Upvalues []*Upvalue
}

var _ value.Object = (*Closure)(nil)

func NewClosure(fn *compiler.Function) *Closure {
	return &Closure{
		Header:   value.Header{Kind: value.ObjClosure},
		Function: fn,
		Upvalues: make([]*Upvalue, fn.UpvalueCount),
	}
}

func (c *Closure) String() string {
	if c.Function.Name == "" {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", c.Function.Name)
}
func (c *Closure) Type() string          { return "function" }
func (c *Closure) ObjHeader() *value.Header { return &c.Header }

// Upvalue is a handle to a variable captured from an enclosing function:
// open (Slot indexes into the owning VM's value stack) while the variable
// is still live, closed (the value has been copied into Closed) once it
// leaves scope (spec.md §3). Go has no pointer arithmetic to let Upvalue
// hold a raw "location" the way the reference implementation does, so the
// open case stores a stack index instead and Get/Set resolve it against
// the VM that owns the stack; this preserves the same aliasing semantics.
//
// Open upvalues referring to the same stack slot are shared: the VM keeps
// them in one intrusive list (Next), sorted by descending Slot, so two
// closures that capture the same variable observe the same writes.
type Upvalue struct {
	value.Header
	Slot   int // valid while open
	Closed value.Value
	isOpen bool
	Next   *Upvalue
}

var _ value.Object = (*Upvalue)(nil)

func (u *Upvalue) String() string           { return "<upvalue>" }
func (u *Upvalue) Type() string             { return "upvalue" }
func (u *Upvalue) ObjHeader() *value.Header { return &u.Header }

// Get reads the upvalue's current value, from vm's stack if still open or
// from Closed once closed.
func (u *Upvalue) Get(vm *VM) value.Value {
	if u.isOpen {
		return vm.stack[u.Slot]
	}
	return u.Closed
}

// Set writes through the upvalue: to vm's stack if still open, or to
// Closed once closed.
func (u *Upvalue) Set(vm *VM, v value.Value) {
	if u.isOpen {
		vm.stack[u.Slot] = v
		return
	}
	u.Closed = v
}

// NativeFn is a host-language callable exposed to Peach code, taking the
// arguments slice and returning a single Value (spec.md §3/§4.6).
type NativeFn struct {
	value.Header
	Name string
	Fn   func(args []value.Value) (value.Value, error)
}

var _ value.Object = (*NativeFn)(nil)

func (n *NativeFn) String() string          { return fmt.Sprintf("<native fn %s>", n.Name) }
func (n *NativeFn) Type() string          { return "native function" }
func (n *NativeFn) ObjHeader() *value.Header { return &n.Header }
