package compiler

import (
	"sort"

	"github.com/quanta-kt/peachlang/lang/value"
)

// lineRun records that the code bytes starting at offset `FirstOffset`, up
// to the next run's FirstOffset, originated from source Line. Chunk.lines
// is a sequence of these runs (spec.md §3/§4.3), which is
// far more compact than one line number per byte for typical source, and
// recovers line_of(offset) via a binary search over FirstOffset instead of
// a linear scan.
type lineRun struct {
	Line        int
	FirstOffset int
}

// Chunk is a unit of compiled bytecode: a flat byte array, an append-only
// constant pool, and a parallel run-length line table (spec.md §3/§4.3).
type Chunk struct {
	Code      []byte
	Constants []value.Value
	lines     []lineRun
}

// Write appends one byte of code, recording b's source line.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.recordLine(line)
}

func (c *Chunk) recordLine(line int) {
	if n := len(c.lines); n > 0 && c.lines[n-1].Line == line {
		return // extend the current run
	}
	c.lines = append(c.lines, lineRun{Line: line, FirstOffset: len(c.Code) - 1})
}

// AddConstant appends v to the constant pool and returns its index. The
// pool is append-only during compilation: indices, once handed out, are
// baked into the bytecode and never change (spec.md §3 invariants).
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// LineAt recovers the source line of the instruction at code offset
// offset, via binary search over the run-length table's FirstOffset column
// (spec.md §4.3).
func (c *Chunk) LineAt(offset int) int {
	if len(c.lines) == 0 {
		return 0
	}
	i := sort.Search(len(c.lines), func(i int) bool {
		return c.lines[i].FirstOffset > offset
	})
	return c.lines[i-1].Line
}
