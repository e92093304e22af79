package compiler

import "fmt"

// Function is the compiled form of a Peach function (or, for Name == "",
// the top-level script): its arity, the number of upvalues its closures
// must capture, and its Chunk (spec.md §3). Function is itself a
// value.Value so it can live in an enclosing function's constant pool —
// the CLOSURE opcode reads a Function out of the constant pool and wraps
// it, at run time, into a callable vm.Closure.
type Function struct {
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         string // "" for the top-level script
}

func (f *Function) String() string {
	if f.Name == "" {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name)
}

func (f *Function) Type() string { return "function" }
