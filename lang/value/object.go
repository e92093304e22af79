package value

// ObjectKind tags the concrety of a heap-allocated Object (spec.md §3).
type ObjectKind byte

const (
	ObjString ObjectKind = iota
	ObjFunction
	ObjClosure
	ObjUpvalue
	ObjNativeFn
)

// Header is the common fields every heap Object carries: its kind, and the
// intrusive link into the VM's allocation list. The VM threads every
// allocated Object through this list (rooted in VM.objects) so that
// teardown can walk it once and release everything; Peach runs on the Go
// garbage collector, so in practice the list is not required for memory
// safety, but it is kept because spec.md §3/§5 makes object lifecycle and
// the allocation list part of the documented model (the "memory allocator/
// GC stub" is an out-of-scope external collaborator, but the hook it plugs
// into is still real).
type Header struct {
	Kind ObjectKind
	Next Object
}

// Object is any heap-allocated Value with a Header. Implementations live in
// this package (String) as well as lang/compiler (Function) and lang/vm
// (Closure, Upvalue, NativeFn), so the accessor method is exported.
type Object interface {
	Value
	ObjHeader() *Header
}
