package compiler

import (
	"testing"

	"github.com/quanta-kt/peachlang/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkWriteAndLineAt(t *testing.T) {
	var c Chunk
	c.Write(byte(NIL), 1)
	c.Write(byte(TRUE), 1)
	c.Write(byte(POP), 2)
	c.Write(byte(POP), 2)
	c.Write(byte(RETURN), 3)

	assert.Equal(t, []int{1, 1, 2, 2, 3}, []int{c.LineAt(0), c.LineAt(1), c.LineAt(2), c.LineAt(3), c.LineAt(4)})
}

func TestChunkAddConstant(t *testing.T) {
	var c Chunk
	i0 := c.AddConstant(value.Number(1))
	i1 := c.AddConstant(value.Number(2))
	require.Equal(t, 0, i0)
	require.Equal(t, 1, i1)
	assert.Equal(t, value.Number(1), c.Constants[0])
	assert.Equal(t, value.Number(2), c.Constants[1])
}

func TestEmitIndexedSwitchesToLongFormPast255(t *testing.T) {
	fn, errs := Compile(declareManyGlobals(300))
	require.Nil(t, errs)

	// among the emitted DEF_GLOBAL(_LONG) opcodes, at least one LONG form
	// must appear since the constant pool holds > 256 entries (one per
	// declaration of a fresh, previously-unseen global name; the implicit
	// NIL initializer is an opcode, not a constant, spec.md §8 "Boundary
	// cases").
	var sawLong bool
	for i := 0; i < len(fn.Chunk.Code); {
		op := Opcode(fn.Chunk.Code[i])
		switch op {
		case DEF_GLOBAL_LONG:
			sawLong = true
			i += 4
		case DEF_GLOBAL:
			i += 2
		case NIL:
			i++
		default:
			i++
		}
	}
	assert.True(t, sawLong, "expected at least one DEF_GLOBAL_LONG among %d declarations", 300)
}

func declareManyGlobals(n int) string {
	src := ""
	for i := 0; i < n; i++ {
		src += "let v" + itoa(i) + ";\n"
	}
	return src
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
