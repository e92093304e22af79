package compiler_test

import (
	"strings"
	"testing"

	"github.com/kylelemons/godebug/diff"
	"github.com/quanta-kt/peachlang/lang/compiler"
	"github.com/stretchr/testify/require"
)

func TestDisassembleSimpleArithmetic(t *testing.T) {
	fn, errs := compiler.Compile(`print 1 + 2;`)
	require.Nil(t, errs)

	got := compiler.Disassemble(&fn.Chunk, "script")
	for _, want := range []string{"LOAD_CONST", "ADD", "PRINT", "RETURN", "'1'", "'2'"} {
		require.Contains(t, got, want)
	}

	// disassembly is pure and deterministic: running it twice on the same
	// chunk must be byte-identical.
	again := compiler.Disassemble(&fn.Chunk, "script")
	if got != again {
		t.Errorf("disassembly not idempotent:\n%s", diff.Diff(got, again))
	}
}

func TestDisassembleJumpShowsTarget(t *testing.T) {
	fn, errs := compiler.Compile(`if true { print 1; }`)
	require.Nil(t, errs)

	got := compiler.Disassemble(&fn.Chunk, "script")
	require.Contains(t, got, "JUMP_IF_FALSE")
	require.Contains(t, got, "->")
}

func TestDisassembleRoundTripsInstructionCount(t *testing.T) {
	fn, errs := compiler.Compile(`let x = 1; while x < 3 { x = x + 1; }`)
	require.Nil(t, errs)

	out := compiler.Disassemble(&fn.Chunk, "script")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// one header line plus one line per instruction (CLOSURE upvalue pairs
	// would add extra lines, but this snippet has none). The snippet compiles
	// to 16 instructions: LOAD_CONST DEF_GLOBAL, then GET_GLOBAL LOAD_CONST
	// LESS JUMP_IF_FALSE POP, the body GET_GLOBAL LOAD_CONST ADD SET_GLOBAL
	// POP, then LOOP POP, and the implicit NIL RETURN.
	require.Len(t, lines, 17)
}
