package vm

import (
	"time"

	"github.com/quanta-kt/peachlang/lang/value"
)

var processStart = time.Now()

// defineNatives registers every native function in the global table
// (spec.md §4.6). The only mandated native is clock.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", func(args []value.Value) (value.Value, error) {
		return value.Number(time.Since(processStart).Seconds()), nil
	})
}

func (vm *VM) defineNative(name string, fn func(args []value.Value) (value.Value, error)) {
	native := &NativeFn{Header: value.Header{Kind: value.ObjNativeFn}, Name: name, Fn: fn}
	vm.track(native)
	key := vm.intern(value.NewString(name))
	vm.globals.Set(key, native)
}
