// Package compiler implements Peach's single-pass Pratt compiler: it scans
// and parses source text and emits bytecode directly into a Chunk as it
// goes, with no intermediate AST (spec.md §1/§4.2). It also defines the
// Chunk/Opcode/Function types that make up the compiled program, and a
// disassembler used by tests and debug tooling.
package compiler

import (
	"fmt"

	"github.com/quanta-kt/peachlang/lang/scanner"
	"github.com/quanta-kt/peachlang/lang/token"
	"github.com/quanta-kt/peachlang/lang/value"
)

const (
	maxLocals   = 1 << 24 // local slots fit in a 3-byte index (LONG form)
	maxUpvalues = 255
	maxArgs     = 255
	maxJump     = 1<<16 - 1
)

// funcType distinguishes the top-level script from a nested function, the
// only difference being whether a `return` statement is allowed at all:
// any `return` in the script is an error (spec.md §4.2: "return at script
// level" is an error). Both kinds end with the same implicit NIL RETURN.
type funcType int

const (
	typeScript funcType = iota
	typeFunction
)

// local is a compile-time record of a declared local variable: its name
// token, its scope depth (−1 while its initializer is still being
// compiled, spec.md §4.2.1), and whether any nested function captures it
// as an upvalue.
type local struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueRef is a per-function record of one captured variable: either a
// local slot in the immediately enclosing function (isLocal == true) or an
// upvalue slot further out (spec.md §4.2.2).
type upvalueRef struct {
	index   uint8
	isLocal bool
}

// funcCompiler holds the compile-time state for one function body being
// compiled: the Function under construction, its locals and upvalues, and
// a link to the compiler for the lexically enclosing function. The chain
// of funcCompiler.enclosing mirrors the function-nesting stack during
// compilation (spec.md §3 "Lifecycles").
type funcCompiler struct {
	enclosing *funcCompiler
	function  *Function
	typ       funcType

	locals     []local
	scopeDepth int
	upvalues   []upvalueRef
}

// parser drives the single Pratt pass: it owns the token stream, the error
// state, and the current funcCompiler chain.
type parser struct {
	scan scanner.Scanner

	previous scanner.Token
	current  scanner.Token

	hadError  bool
	panicMode bool
	errors    CompileErrorList

	cur *funcCompiler
}

// Compile compiles source into a top-level Function ready to run, or
// returns nil and a non-empty CompileErrorList on failure. Per spec.md
// §4.2.4, compilation never panics on malformed input: every error is
// collected and reported, and synchronize lets the parser keep looking for
// further (independent) errors after one is found.
func Compile(source string) (*Function, CompileErrorList) {
	p := &parser{}
	p.scan.Init(source)
	p.pushCompiler(typeScript, "")

	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}
	p.consume(token.EOF, "expect end of expression")

	fn := p.endCompiler()
	if p.hadError {
		return nil, p.errors
	}
	return fn, nil
}

func (p *parser) pushCompiler(typ funcType, name string) {
	fc := &funcCompiler{
		enclosing: p.cur,
		typ:       typ,
		function:  &Function{Name: name},
	}
	// Slot 0 of every function's locals is reserved: at runtime it holds the
	// callee itself (spec.md §4.2.1).
	fc.locals = append(fc.locals, local{name: "", depth: 0})
	p.cur = fc
}

func (p *parser) endCompiler() *Function {
	p.emitReturn()
	fn := p.cur.function
	fn.UpvalueCount = len(p.cur.upvalues)
	p.cur = p.cur.enclosing
	return fn
}

func (p *parser) chunk() *Chunk { return &p.cur.function.Chunk }

// --- token stream -----------------------------------------------------

func (p *parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scan.ScanToken()
		if p.current.Kind != token.ERROR {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *parser) check(kind token.Kind) bool { return p.current.Kind == kind }

func (p *parser) match(kind token.Kind) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(kind token.Kind, msg string) {
	if p.current.Kind == kind {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

// --- error reporting ----------------------------------------------------

func (p *parser) errorAtCurrent(msg string) { p.errorAt(p.current, msg) }
func (p *parser) errorAtPrevious(msg string) { p.errorAt(p.previous, msg) }

func (p *parser) errorAt(tok scanner.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true

	where := fmt.Sprintf("at '%s'", tok.Lexeme)
	if tok.Kind == token.EOF {
		where = "at end"
	} else if tok.Kind == token.ERROR {
		where = ""
		msg = tok.Lexeme
	}
	ce := CompileError{Line: tok.Line, Where: where, Message: msg}
	p.errors.add(ce)
}

// synchronize skips tokens until it reaches a likely statement boundary,
// so a single error does not cascade into a flood of spurious ones
// (spec.md §4.2.4).
func (p *parser) synchronize() {
	p.panicMode = false
	for p.current.Kind != token.EOF {
		if p.previous.Kind == token.SEMI {
			return
		}
		switch p.current.Kind {
		case token.CLASS, token.FN, token.LET, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

// --- bytecode emission --------------------------------------------------

func (p *parser) emitByte(b byte) { p.chunk().Write(b, p.previous.Line) }

func (p *parser) emitOp(op Opcode) { p.emitByte(byte(op)) }

func (p *parser) emitOpByte(op Opcode, operand byte) {
	p.emitOp(op)
	p.emitByte(operand)
}

func (p *parser) emitReturn() {
	p.emitOp(NIL)
	p.emitOp(RETURN)
}

// emitJump emits op followed by a 2-byte placeholder, returning the offset
// of the first placeholder byte for a later patchJump call (spec.md
// §4.2.5).
func (p *parser) emitJump(op Opcode) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.chunk().Code) - 2
}

// patchJump backfills the 2-byte placeholder at offset with the distance
// from just after the placeholder to the current end of the chunk.
func (p *parser) patchJump(offset int) {
	jump := len(p.chunk().Code) - offset - 2
	if jump > maxJump {
		p.errorAtPrevious("too much code to jump over")
		return
	}
	p.chunk().Code[offset] = byte(jump & 0xff)
	p.chunk().Code[offset+1] = byte((jump >> 8) & 0xff)
}

// emitLoop emits LOOP plus the 2-byte backward offset to loopStart.
func (p *parser) emitLoop(loopStart int) {
	p.emitOp(LOOP)
	offset := len(p.chunk().Code) - loopStart + 2
	if offset > maxJump {
		p.errorAtPrevious("loop body too large")
	}
	p.emitByte(byte(offset & 0xff))
	p.emitByte(byte((offset >> 8) & 0xff))
}

// emitIndexed emits short for indices that fit a byte, or long (a 3-byte
// LE operand) otherwise — the _LONG forms of spec.md §4.3.
func (p *parser) emitIndexed(short, long Opcode, idx int) {
	if idx <= 0xff {
		p.emitOpByte(short, byte(idx))
		return
	}
	p.emitOp(long)
	p.emitByte(byte(idx & 0xff))
	p.emitByte(byte((idx >> 8) & 0xff))
	p.emitByte(byte((idx >> 16) & 0xff))
}

// makeConstant appends v to the current chunk's constant pool.
func (p *parser) makeConstant(v value.Value) int {
	return p.chunk().AddConstant(v)
}

func (p *parser) emitConstant(v value.Value) {
	p.emitIndexed(LOAD_CONST, LOAD_CONST_LONG, p.makeConstant(v))
}

// --- scopes and locals ---------------------------------------------------

func (p *parser) beginScope() { p.cur.scopeDepth++ }

func (p *parser) endScope() {
	p.cur.scopeDepth--
	fc := p.cur
	for len(fc.locals) > 0 && fc.locals[len(fc.locals)-1].depth > fc.scopeDepth {
		last := fc.locals[len(fc.locals)-1]
		if last.isCaptured {
			p.emitOp(CLOSE_UPVALUE)
		} else {
			p.emitOp(POP)
		}
		fc.locals = fc.locals[:len(fc.locals)-1]
	}
}

// declareVariable registers the variable named by p.previous as a new
// local in the current scope (a no-op at global scope, where variables
// are resolved by name at runtime instead — spec.md §4.2.3/Design Notes).
func (p *parser) declareVariable() {
	if p.cur.scopeDepth == 0 {
		return
	}
	name := p.previous.Lexeme

	// shadowing an outer scope is fine; redeclaring within the *same* scope
	// is an error (spec.md §4.2.1).
	for i := len(p.cur.locals) - 1; i >= 0; i-- {
		l := &p.cur.locals[i]
		if l.depth != -1 && l.depth < p.cur.scopeDepth {
			break
		}
		if l.name == name {
			p.errorAtPrevious("already a variable with this name in this scope")
		}
	}
	p.addLocal(name)
}

func (p *parser) addLocal(name string) {
	if len(p.cur.locals) >= maxLocals {
		p.errorAtPrevious("too many local variables in function")
		return
	}
	p.cur.locals = append(p.cur.locals, local{name: name, depth: -1})
}

func (p *parser) markInitialized() {
	if p.cur.scopeDepth == 0 {
		return
	}
	p.cur.locals[len(p.cur.locals)-1].depth = p.cur.scopeDepth
}

// resolveLocal searches fc's locals, most-recently-declared first, for
// name. It uses the guarded descending loop (not an unsigned counter
// tested with `>= 0`, a known bug spec.md calls out as not to be
// reproduced).
func resolveLocal(fc *funcCompiler, name string) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			if fc.locals[i].depth == -1 {
				return -2 // sentinel: "read before initialization"
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue recursively looks for name in enclosing functions,
// recording the capture chain as it unwinds (spec.md §4.2.2).
func resolveUpvalue(fc *funcCompiler, name string) int {
	if fc.enclosing == nil {
		return -1
	}

	if local := resolveLocal(fc.enclosing, name); local >= 0 {
		fc.enclosing.locals[local].isCaptured = true
		return addUpvalue(fc, uint8(local), true)
	} else if local == -2 {
		return -2
	}

	if up := resolveUpvalue(fc.enclosing, name); up >= 0 {
		return addUpvalue(fc, uint8(up), false)
	} else if up == -2 {
		return -2
	}

	return -1
}

func addUpvalue(fc *funcCompiler, index uint8, isLocal bool) int {
	for i, up := range fc.upvalues {
		if up.index == index && up.isLocal == isLocal {
			return i // dedupe: same capture already recorded
		}
	}
	if len(fc.upvalues) >= maxUpvalues {
		return -1
	}
	fc.upvalues = append(fc.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(fc.upvalues) - 1
}
