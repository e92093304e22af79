package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/diff"
	"github.com/quanta-kt/peachlang/lang/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run interprets src against a fresh VM and returns its stdout, stderr and
// Result, mirroring the §8 scenario table's "program -> output -> status"
// shape.
func run(src string) (stdout, stderr string, result vm.Result) {
	var out, errOut bytes.Buffer
	machine := vm.New(&out, &errOut)
	result = machine.Interpret(src)
	return out.String(), errOut.String(), result
}

func TestScenarioArithmeticPrecedence(t *testing.T) {
	out, _, res := run(`print 1 + 2 * 3;`)
	require.Equal(t, vm.OK, res)
	assert.Equal(t, "7\n", out)
}

func TestScenarioStringConcatenation(t *testing.T) {
	out, _, res := run(`let a = "foo"; let b = "bar"; print a + b;`)
	require.Equal(t, vm.OK, res)
	assert.Equal(t, "foobar\n", out)
}

func TestScenarioWhileLoop(t *testing.T) {
	out, _, res := run(`let x = 0; while x < 3 { print x; x = x + 1; }`)
	require.Equal(t, vm.OK, res)
	want := "0\n1\n2\n"
	if out != want {
		t.Errorf("output mismatch:\n%s", diff.Diff(want, out))
	}
}

func TestScenarioClosureCapturesByReference(t *testing.T) {
	out, _, res := run(`
		fn make() {
			let i = 0;
			fn inc() {
				i = i + 1;
				return i;
			}
			return inc;
		}
		let c = make();
		print c();
		print c();
		print c();
	`)
	require.Equal(t, vm.OK, res)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestScenarioClockNative(t *testing.T) {
	out, _, res := run(`print clock() >= 0;`)
	require.Equal(t, vm.OK, res)
	assert.Equal(t, "true\n", out)
}

func TestScenarioUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, stderr, res := run(`print undefined_name;`)
	require.Equal(t, vm.RuntimeError, res)
	assert.Contains(t, stderr, "Undefined variable 'undefined_name'.")
}

func TestScenarioBlockSelfReferenceIsCompileError(t *testing.T) {
	_, _, res := run(`{ let x = x; }`)
	assert.Equal(t, vm.CompileError, res)
}

func TestScenarioAndOrShortCircuit(t *testing.T) {
	out, _, res := run(`if true and false { print 1; } else { print 2; }`)
	require.Equal(t, vm.OK, res)
	assert.Equal(t, "2\n", out)
}

func TestScenarioNestedFunctionRecursion(t *testing.T) {
	out, _, res := run(`
		fn fib(n) {
			if n < 2 { return n; }
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	require.Equal(t, vm.OK, res)
	assert.Equal(t, "55\n", out)
}

func TestScenarioRuntimeErrorPrintsStackTrace(t *testing.T) {
	_, stderr, res := run(`
		fn f() {
			return 1 + "two";
		}
		f();
	`)
	require.Equal(t, vm.RuntimeError, res)
	assert.Contains(t, stderr, "must be two numbers or two strings")
	assert.Contains(t, stderr, "in f()")
}

func TestScenarioGlobalsPersistAcrossMultipleInterpretCalls(t *testing.T) {
	var out, errOut bytes.Buffer
	machine := vm.New(&out, &errOut)

	require.Equal(t, vm.OK, machine.Interpret(`let counter = 0;`))
	require.Equal(t, vm.OK, machine.Interpret(`counter = counter + 1; print counter;`))
	require.Equal(t, vm.OK, machine.Interpret(`counter = counter + 1; print counter;`))

	assert.Equal(t, "1\n2\n", out.String())
}

func TestScenarioArityMismatchIsRuntimeError(t *testing.T) {
	_, stderr, res := run(`fn f(a, b) { return a + b; } f(1);`)
	require.Equal(t, vm.RuntimeError, res)
	assert.Contains(t, stderr, "Expected 2 arguments but got 1.")
}

func TestScenarioCallingNonCallableIsRuntimeError(t *testing.T) {
	_, stderr, res := run(`let x = 1; x();`)
	require.Equal(t, vm.RuntimeError, res)
	assert.Contains(t, stderr, "Can only call functions and classes.")
}

func TestScenarioDeepRecursionReportsStackOverflow(t *testing.T) {
	_, stderr, res := run(`
		fn recurse(n) {
			return recurse(n + 1);
		}
		recurse(0);
	`)
	require.Equal(t, vm.RuntimeError, res)
	assert.Contains(t, stderr, "Stack overflow.")
}

func TestScenarioSetGlobalOnUndefinedNameIsRuntimeError(t *testing.T) {
	_, stderr, res := run(`nosuch = 1;`)
	require.Equal(t, vm.RuntimeError, res)
	assert.Contains(t, stderr, "Undefined variable 'nosuch'.")
}

func TestScenarioManyLocalsUsesLongLocalForm(t *testing.T) {
	var src strings.Builder
	src.WriteString("{\n")
	for i := 0; i < 260; i++ {
		src.WriteString("let v")
		src.WriteString(itoaTest(i))
		src.WriteString(" = ")
		src.WriteString(itoaTest(i))
		src.WriteString(";\n")
	}
	src.WriteString("print v259;\n}\n")

	out, stderr, res := run(src.String())
	require.Equal(t, vm.OK, res, "stderr: %s", stderr)
	assert.Equal(t, "259\n", out)
}

func itoaTest(n int) string {
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
