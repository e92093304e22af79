package vm

import (
	"fmt"
	"io"

	"github.com/quanta-kt/peachlang/lang/compiler"
	"github.com/quanta-kt/peachlang/lang/value"
)

// Result reports how an Interpret call ended (spec.md §4.5/§7).
type Result int

const (
	OK Result = iota
	CompileError
	RuntimeError
)

const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// callFrame is one activation record: the Closure being run, its
// instruction pointer into that closure's Chunk, and the index into the
// VM's value stack of this frame's slot 0 (the callee itself).
type callFrame struct {
	closure *Closure
	ip      int
	slots   int
}

// VM is Peach's bytecode interpreter: a value stack, a stack of call
// frames, the global-name table, the string-intern table, and the
// open-upvalue list (spec.md §4.5). A VM is not safe for concurrent use;
// one Peach program runs synchronously to completion on a single VM.
type VM struct {
	Stdout io.Writer
	Stderr io.Writer

	frames     [framesMax]callFrame
	frameCount int

	stack    [stackMax]value.Value
	stackTop int

	globals value.Table
	strings value.Table

	openUpvalues *Upvalue
	objects      value.Object // allocation list head; see track
}

// track links o into the VM's object allocation list (spec.md §4.5 "objects:
// Object (allocation list head)"). Go's garbage collector, not this list,
// is what actually reclaims memory; the list is kept because it is part of
// the documented object lifecycle model, and a future mark-and-sweep
// collector would walk it.
func (vm *VM) track(o value.Object) value.Object {
	o.ObjHeader().Next = vm.objects
	vm.objects = o
	return o
}

// New creates a VM with its natives registered, writing `print` output to
// stdout and runtime-error text to stderr.
func New(stdout, stderr io.Writer) *VM {
	vm := &VM{Stdout: stdout, Stderr: stderr}
	vm.defineNatives()
	return vm
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

// intern returns the canonical *value.String for s's content, registering
// s itself as canonical the first time its content is seen (spec.md
// §4.4 get_intern/take_intern). Compiled constants carry their own,
// possibly-duplicate, String objects (the compiler has no access to a
// live VM), so every load of a String constant is routed through intern to
// restore the "same content ⇒ same object" invariant.
func (vm *VM) intern(s *value.String) *value.String {
	if existing := vm.strings.FindString(s.Chars, s.Hash); existing != nil {
		return existing
	}
	vm.strings.Set(s, value.NilValue)
	vm.track(s)
	return s
}

// internConstant interns v if it is a String, passing every other Value
// through unchanged.
func (vm *VM) internConstant(v value.Value) value.Value {
	if s, ok := v.(*value.String); ok {
		return vm.intern(s)
	}
	return v
}

// Interpret compiles and runs source to completion, writing `print` output
// and any runtime-error report to vm.Stdout/vm.Stderr (spec.md §6/§7).
func (vm *VM) Interpret(source string) Result {
	fn, errs := compiler.Compile(source)
	if errs != nil {
		errs.Sort()
		for _, e := range errs {
			fmt.Fprintln(vm.Stderr, e.Error())
		}
		return CompileError
	}

	closure := NewClosure(fn)
	vm.track(closure)
	vm.push(closure)
	vm.callClosure(closure, 0)

	return vm.run()
}

// callValue dispatches a CALL: callee is peeked at argCount before this is
// invoked. Returns false (having already reported a runtime error) if the
// call cannot proceed.
func (vm *VM) callValue(callee value.Value, argCount int) bool {
	switch c := callee.(type) {
	case *Closure:
		return vm.callClosure(c, argCount)
	case *NativeFn:
		args := vm.stack[vm.stackTop-argCount : vm.stackTop]
		result, err := c.Fn(args)
		if err != nil {
			vm.runtimeError("%s", err)
			return false
		}
		vm.stackTop -= argCount + 1
		vm.push(result)
		return true
	default:
		vm.runtimeError("Can only call functions and classes.")
		return false
	}
}

func (vm *VM) callClosure(c *Closure, argCount int) bool {
	if argCount != c.Function.Arity {
		vm.runtimeError("Expected %d arguments but got %d.", c.Function.Arity, argCount)
		return false
	}
	if vm.frameCount == framesMax {
		vm.runtimeError("Stack overflow.")
		return false
	}
	vm.frames[vm.frameCount] = callFrame{
		closure: c,
		ip:      0,
		slots:   vm.stackTop - argCount - 1,
	}
	vm.frameCount++
	return true
}

// captureUpvalue returns the open Upvalue for the stack slot at index,
// reusing an existing one if the VM already has it open (spec.md §4.5
// CLOSURE logic), inserting in descending-slot order otherwise.
func (vm *VM) captureUpvalue(index int) *Upvalue {
	var prev *Upvalue
	cur := vm.openUpvalues
	for cur != nil && cur.Slot > index {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.Slot == index {
		return cur
	}

	created := &Upvalue{Header: value.Header{Kind: value.ObjUpvalue}, Slot: index, isOpen: true}
	vm.track(created)
	created.Next = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue whose Slot is at or above the
// stack slot `last` (spec.md §4.5 CLOSE_UPVALUE), copying the live value
// out of the stack so it survives the slot being reused.
func (vm *VM) closeUpvalues(last int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Slot >= last {
		up := vm.openUpvalues
		up.Closed = vm.stack[up.Slot]
		up.isOpen = false
		vm.openUpvalues = up.Next
	}
}

func (vm *VM) runtimeError(format string, args ...any) {
	fmt.Fprintf(vm.Stderr, format+"\n", args...)

	for i := vm.frameCount - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		fn := fr.closure.Function
		line := fn.Chunk.LineAt(fr.ip - 1)
		name := "script"
		if fn.Name != "" {
			name = fn.Name + "()"
		}
		fmt.Fprintf(vm.Stderr, "[line %d] in %s\n", line, name)
	}

	vm.resetStack()
}
