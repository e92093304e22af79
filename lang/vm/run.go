package vm

import (
	"fmt"

	"github.com/quanta-kt/peachlang/lang/compiler"
	"github.com/quanta-kt/peachlang/lang/value"
)

// run executes bytecode starting from the current top call frame until the
// outermost frame returns (OK), a compile-time impossible opcode is
// reached (a VM bug, not a user error), or a runtime error is raised
// (spec.md §4.5 "Execution").
func (vm *VM) run() Result {
	fr := &vm.frames[vm.frameCount-1]
	code := fr.closure.Function.Chunk.Code

	readByte := func() byte {
		b := code[fr.ip]
		fr.ip++
		return b
	}
	readShort := func() int {
		b0, b1 := code[fr.ip], code[fr.ip+1]
		fr.ip += 2
		return int(b0) | int(b1)<<8
	}
	readLong := func() int {
		b0, b1, b2 := code[fr.ip], code[fr.ip+1], code[fr.ip+2]
		fr.ip += 3
		return int(b0) | int(b1)<<8 | int(b2)<<16
	}
	readConstant := func() value.Value {
		idx := int(readByte())
		return vm.internConstant(fr.closure.Function.Chunk.Constants[idx])
	}
	readConstantLong := func() value.Value {
		idx := readLong()
		return vm.internConstant(fr.closure.Function.Chunk.Constants[idx])
	}

	for {
		op := compiler.Opcode(readByte())

		switch op {
		case compiler.LOAD_CONST:
			vm.push(readConstant())
		case compiler.LOAD_CONST_LONG:
			vm.push(readConstantLong())

		case compiler.NIL:
			vm.push(value.NilValue)
		case compiler.TRUE:
			vm.push(value.Bool(true))
		case compiler.FALSE:
			vm.push(value.Bool(false))
		case compiler.POP:
			vm.pop()

		case compiler.GET_LOCAL:
			vm.push(vm.stack[fr.slots+int(readByte())])
		case compiler.GET_LOCAL_LONG:
			vm.push(vm.stack[fr.slots+readLong()])
		case compiler.SET_LOCAL:
			vm.stack[fr.slots+int(readByte())] = vm.peek(0)
		case compiler.SET_LOCAL_LONG:
			vm.stack[fr.slots+readLong()] = vm.peek(0)

		case compiler.DEF_GLOBAL:
			name := readConstant().(*value.String)
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case compiler.DEF_GLOBAL_LONG:
			name := readConstantLong().(*value.String)
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case compiler.GET_GLOBAL:
			if !vm.getGlobal(readConstant().(*value.String)) {
				return RuntimeError
			}
		case compiler.GET_GLOBAL_LONG:
			if !vm.getGlobal(readConstantLong().(*value.String)) {
				return RuntimeError
			}

		case compiler.SET_GLOBAL:
			if !vm.setGlobal(readConstant().(*value.String)) {
				return RuntimeError
			}
		case compiler.SET_GLOBAL_LONG:
			if !vm.setGlobal(readConstantLong().(*value.String)) {
				return RuntimeError
			}

		case compiler.GET_UPVALUE:
			vm.push(fr.closure.Upvalues[readByte()].Get(vm))
		case compiler.SET_UPVALUE:
			fr.closure.Upvalues[readByte()].Set(vm, vm.peek(0))

		case compiler.CLOSE_UPVALUE:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case compiler.EQUAL:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case compiler.GREATER, compiler.LESS:
			if !vm.compare(op) {
				return RuntimeError
			}

		case compiler.NEGATE:
			n, ok := vm.peek(0).(value.Number)
			if !ok {
				vm.runtimeError("Operand must be a number.")
				return RuntimeError
			}
			vm.pop()
			vm.push(-n)
		case compiler.NOT:
			vm.push(value.Bool(!value.Truth(vm.pop())))

		case compiler.ADD:
			if !vm.add() {
				return RuntimeError
			}
		case compiler.SUB, compiler.MUL, compiler.DIV:
			if !vm.arith(op) {
				return RuntimeError
			}

		case compiler.PRINT:
			fmt.Fprintln(vm.Stdout, value.Display(vm.pop()))

		case compiler.JUMP:
			offset := readShort()
			fr.ip += offset
		case compiler.JUMP_IF_FALSE:
			offset := readShort()
			if !value.Truth(vm.peek(0)) {
				fr.ip += offset
			}
		case compiler.LOOP:
			offset := readShort()
			fr.ip -= offset

		case compiler.CALL:
			argCount := int(readByte())
			if !vm.callValue(vm.peek(argCount), argCount) {
				return RuntimeError
			}
			fr = &vm.frames[vm.frameCount-1]
			code = fr.closure.Function.Chunk.Code

		case compiler.CLOSURE:
			fn := readConstantRaw(fr, int(readByte())).(*compiler.Function)
			closure := NewClosure(fn)
			vm.track(closure)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := readByte()
				index := int(readByte())
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(fr.slots + index)
				} else {
					closure.Upvalues[i] = fr.closure.Upvalues[index]
				}
			}
			vm.push(closure)

		case compiler.RETURN:
			result := vm.pop()
			vm.closeUpvalues(fr.slots)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop() // the top-level script
				return OK
			}
			vm.stackTop = fr.slots
			vm.push(result)
			fr = &vm.frames[vm.frameCount-1]
			code = fr.closure.Function.Chunk.Code

		default:
			vm.runtimeError("internal error: unimplemented opcode %s", op)
			return RuntimeError
		}
	}
}

// readConstantRaw reads a chunk constant without interning; used for
// CLOSURE, whose operand is a *compiler.Function, never a String.
func readConstantRaw(fr *callFrame, idx int) value.Value {
	return fr.closure.Function.Chunk.Constants[idx]
}

func (vm *VM) getGlobal(name *value.String) bool {
	v, ok := vm.globals.Get(name)
	if !ok {
		vm.runtimeError("Undefined variable '%s'.", name.Chars)
		return false
	}
	vm.push(v)
	return true
}

func (vm *VM) setGlobal(name *value.String) bool {
	// SET_GLOBAL must not create a new binding; Table.Set would insert one,
	// so existence is checked first and the probing side effect of a failed
	// Set is never observed (spec.md §9 "Source quirks to preserve").
	if _, ok := vm.globals.Get(name); !ok {
		vm.runtimeError("Undefined variable '%s'.", name.Chars)
		return false
	}
	vm.globals.Set(name, vm.peek(0))
	return true
}

func (vm *VM) compare(op compiler.Opcode) bool {
	b, okB := vm.peek(0).(value.Number)
	a, okA := vm.peek(1).(value.Number)
	if !okA || !okB {
		vm.runtimeError("Operands must be numbers.")
		return false
	}
	vm.pop()
	vm.pop()
	if op == compiler.GREATER {
		vm.push(value.Bool(a > b))
	} else {
		vm.push(value.Bool(a < b))
	}
	return true
}

// add implements ADD's dual dispatch: number+number or string+string
// (spec.md §4.5).
func (vm *VM) add() bool {
	bs, bIsStr := vm.peek(0).(*value.String)
	as, aIsStr := vm.peek(1).(*value.String)
	if aIsStr && bIsStr {
		vm.pop()
		vm.pop()
		vm.push(vm.concat(as, bs))
		return true
	}

	bn, bIsNum := vm.peek(0).(value.Number)
	an, aIsNum := vm.peek(1).(value.Number)
	if aIsNum && bIsNum {
		vm.pop()
		vm.pop()
		vm.push(an + bn)
		return true
	}

	vm.runtimeError("Operands must be two numbers or two strings.")
	return false
}

// concat builds a's characters followed by b's and interns the result
// (spec.md §4.5 "String concatenation").
func (vm *VM) concat(a, b *value.String) *value.String {
	joined := value.NewString(a.Chars + b.Chars)
	return vm.intern(joined)
}

func (vm *VM) arith(op compiler.Opcode) bool {
	b, okB := vm.peek(0).(value.Number)
	a, okA := vm.peek(1).(value.Number)
	if !okA || !okB {
		vm.runtimeError("Operands must be numbers.")
		return false
	}
	vm.pop()
	vm.pop()
	switch op {
	case compiler.SUB:
		vm.push(a - b)
	case compiler.MUL:
		vm.push(a * b)
	case compiler.DIV:
		vm.push(a / b)
	}
	return true
}
