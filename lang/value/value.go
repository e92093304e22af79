// Package value implements Peach's runtime value representation: the
// Value interface and its primitive implementations (Nil, Bool, Number),
// the interned String object, and the open-addressing hash table shared by
// the VM's global table and string intern set.
//
// Functions, closures, upvalues and native functions are callable objects
// that also reference compiled code; they live in lang/compiler (Function,
// which is a Value) and lang/vm (Closure, Upvalue, NativeFn) respectively,
// to avoid a dependency cycle between this package and the compiler.
package value

import "strconv"

// Value is implemented by every value the virtual machine can hold on its
// stack, in a local, upvalue, or global. nil, bool and number are the
// primitive Values (compared by value); every other kind of Value is a
// heap-allocated Object (compared by identity, which for String coincides
// with content equality thanks to interning).
type Value interface {
	// String returns a human-readable representation, used by the
	// disassembler and debug output (strings are quoted); the print
	// statement uses Display instead.
	String() string
	// Type names the value's kind, such as "number" or "string".
	Type() string
}

// Nil is the type of the singleton nil value.
type Nil struct{}

// NilValue is the sole value of type Nil.
var NilValue = Nil{}

func (Nil) String() string { return "nil" }
func (Nil) Type() string   { return "nil" }

// Bool is a boolean Value.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "bool" }

// Number is a 64-bit floating point Value; Peach has no separate integer
// type (spec.md §3).
type Number float64

func (n Number) String() string { return strconv.FormatFloat(float64(n), 'g', -1, 64) }
func (Number) Type() string     { return "number" }

// Truth reports whether v is truthy. nil and false are falsey; everything
// else, including 0 and the empty string, is truthy (spec.md §4.3).
func Truth(v Value) bool {
	switch v := v.(type) {
	case Nil:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}

// Display renders v the way the `print` statement does: unlike String
// (which quotes strings for disassembly/debug output), Display writes a
// String's raw characters with no surrounding quotes.
func Display(v Value) string {
	if s, ok := v.(*String); ok {
		return s.Chars
	}
	return v.String()
}

// Equal reports whether x and y are equal per spec.md §3: nil equals nil,
// same-typed primitives compare by value, and every other Value (Strings
// included, thanks to interning) compares by identity.
func Equal(x, y Value) bool {
	switch x := x.(type) {
	case Nil:
		_, ok := y.(Nil)
		return ok
	case Bool:
		yb, ok := y.(Bool)
		return ok && x == yb
	case Number:
		yn, ok := y.(Number)
		return ok && x == yn
	default:
		return x == y
	}
}
