package compiler

import "github.com/quanta-kt/peachlang/lang/token"

// declaration parses one top-level production: a `let` binding, a `fn`
// declaration, or a plain statement. It resynchronizes at the next likely
// statement boundary after an error so one mistake does not cascade into a
// flood of spurious ones (spec.md §4.2.4).
func (p *parser) declaration() {
	switch {
	case p.match(token.LET):
		p.varDeclaration()
	case p.match(token.FN):
		p.funDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

// varDeclaration parses `let IDENT (= EXPR)? ;` (spec.md §4.2.1). At global
// scope the name is bound at runtime by DEF_GLOBAL; inside a scope it
// becomes a new local stack slot.
func (p *parser) varDeclaration() {
	global := p.parseVariable("expect variable name")

	if p.match(token.EQ) {
		p.expression()
	} else {
		p.emitOp(NIL)
	}
	p.consume(token.SEMI, "expect ';' after variable declaration")

	p.defineVariable(global)
}

// parseVariable consumes an identifier, declares it as a local if inside a
// scope, and otherwise interns its name as a global-name constant,
// returning that constant's index (unused for locals).
func (p *parser) parseVariable(errMsg string) int {
	p.consume(token.IDENT, errMsg)
	p.declareVariable()
	if p.cur.scopeDepth > 0 {
		return 0
	}
	return p.makeConstant(internConstant(p.previous.Lexeme))
}

// defineVariable finalizes a variable's declaration: for a local, marks it
// initialized (making it visible to further resolution); for a global,
// emits DEF_GLOBAL against the constant produced by parseVariable.
func (p *parser) defineVariable(global int) {
	if p.cur.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitIndexed(DEF_GLOBAL, DEF_GLOBAL_LONG, global)
}

// funDeclaration parses `fn IDENT ( params ) { body }`. The name is bound
// before the body is compiled so a function can refer to itself
// recursively (spec.md §4.2.1 "Lifecycles").
func (p *parser) funDeclaration() {
	global := p.parseVariable("expect function name")
	p.markInitialized()
	p.function(typeFunction)
	p.defineVariable(global)
}

// function compiles one function body into a fresh nested funcCompiler,
// then emits CLOSURE followed by upvalue_count inline (is_local, index)
// pairs that the VM reads at CLOSURE time to populate the new Closure's
// upvalue array (spec.md §4.2.1).
func (p *parser) function(typ funcType) {
	p.pushCompiler(typ, p.previous.Lexeme)
	p.beginScope()

	p.consume(token.LPAREN, "expect '(' after function name")
	if !p.check(token.RPAREN) {
		for {
			p.cur.function.Arity++
			if p.cur.function.Arity > maxArgs {
				p.errorAtCurrent("can't have more than 255 parameters")
			}
			constant := p.parseVariable("expect parameter name")
			p.defineVariable(constant)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "expect ')' after parameters")
	p.consume(token.LBRACE, "expect '{' before function body")
	p.block()

	fc := p.cur
	fn := p.endCompiler()

	idx := p.makeConstant(fn)
	if idx > 0xff {
		// CLOSURE has no _LONG form (spec.md §4.3 lists it as a fixed
		// 1-operand opcode); function constants beyond 255 aren't supported.
		p.errorAtPrevious("too many constants in enclosing chunk for closure")
	}
	p.emitOpByte(CLOSURE, byte(idx))
	for _, up := range fc.upvalues {
		b := byte(0)
		if up.isLocal {
			b = 1
		}
		p.emitByte(b)
		p.emitByte(up.index)
	}
}

func (p *parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.LBRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *parser) printStatement() {
	p.expression()
	p.consume(token.SEMI, "expect ';' after value")
	p.emitOp(PRINT)
}

// ifStatement parses `if EXPR { ... } (else { ... })?` using the
// jump/backpatch protocol (spec.md §4.2.5).
func (p *parser) ifStatement() {
	p.expression()

	thenJump := p.emitJump(JUMP_IF_FALSE)
	p.emitOp(POP)
	p.consume(token.LBRACE, "expect '{' after condition")
	p.beginScope()
	p.block()
	p.endScope()

	elseJump := p.emitJump(JUMP)
	p.patchJump(thenJump)
	p.emitOp(POP)

	if p.match(token.ELSE) {
		p.consume(token.LBRACE, "expect '{' after else")
		p.beginScope()
		p.block()
		p.endScope()
	}
	p.patchJump(elseJump)
}

// whileStatement parses `while EXPR { ... }` as a backward LOOP past a
// forward JUMP_IF_FALSE (spec.md §4.2.5).
func (p *parser) whileStatement() {
	loopStart := len(p.chunk().Code)
	p.expression()

	exitJump := p.emitJump(JUMP_IF_FALSE)
	p.emitOp(POP)
	p.consume(token.LBRACE, "expect '{' after condition")
	p.beginScope()
	p.block()
	p.endScope()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(POP)
}

// returnStatement parses `return EXPR? ;`. A bare `return;` is sugar for
// `return nil;`. Returning at all from the top-level script is an error
// (spec.md §4.2).
func (p *parser) returnStatement() {
	if p.cur.typ == typeScript {
		p.errorAtPrevious("can't return from top-level code")
	}
	if p.match(token.SEMI) {
		p.emitReturn()
		return
	}
	p.expression()
	p.consume(token.SEMI, "expect ';' after return value")
	p.emitOp(RETURN)
}

// block parses declarations up to (but not past) the closing brace. The
// caller owns begin_scope/end_scope around it.
func (p *parser) block() {
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RBRACE, "expect '}' after block")
}

func (p *parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMI, "expect ';' after expression")
	p.emitOp(POP)
}
