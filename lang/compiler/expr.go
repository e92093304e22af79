package compiler

import (
	"strconv"

	"github.com/quanta-kt/peachlang/lang/token"
	"github.com/quanta-kt/peachlang/lang/value"
)

// precedence orders Peach's binary operators, low to high (spec.md §4.2).
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

// parseFn is either a prefix or an infix parsing rule. canAssign threads
// through whether an assignment (`=`) may legally be consumed here — only
// true at precedence <= precAssignment (spec.md §4.2).
type parseFn func(p *parser, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// rules is the Pratt table, implemented as flat data keyed by token.Kind
// rather than a dispatch hierarchy (spec.md §9 "Design Notes": "a flat
// lookup... is equally acceptable").
var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LPAREN:  {prefix: grouping, infix: call, precedence: precCall},
		token.MINUS:   {prefix: unary, infix: binary, precedence: precTerm},
		token.PLUS:    {infix: binary, precedence: precTerm},
		token.SLASH:   {infix: binary, precedence: precFactor},
		token.STAR:    {infix: binary, precedence: precFactor},
		token.BANG:    {prefix: unary},
		token.BANG_EQ:  {infix: binary, precedence: precEquality},
		token.EQ_EQ:   {infix: binary, precedence: precEquality},
		token.GT:      {infix: binary, precedence: precComparison},
		token.GT_EQ:   {infix: binary, precedence: precComparison},
		token.LT:      {infix: binary, precedence: precComparison},
		token.LT_EQ:   {infix: binary, precedence: precComparison},
		token.IDENT:   {prefix: variable},
		token.STRING:  {prefix: stringLit},
		token.NUMBER:  {prefix: number},
		token.AND:     {infix: and_, precedence: precAnd},
		token.OR:      {infix: or_, precedence: precOr},
		token.FALSE:   {prefix: literal},
		token.NIL:     {prefix: literal},
		token.TRUE:    {prefix: literal},
	}
}

func getRule(kind token.Kind) parseRule { return rules[kind] }

func (p *parser) expression() { p.parsePrecedence(precAssignment) }

func (p *parser) parsePrecedence(prec precedence) {
	p.advance()
	prefix := getRule(p.previous.Kind).prefix
	if prefix == nil {
		p.errorAtPrevious("expect expression")
		return
	}

	canAssign := prec <= precAssignment
	prefix(p, canAssign)

	for prec <= getRule(p.current.Kind).precedence {
		p.advance()
		infix := getRule(p.previous.Kind).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.EQ) {
		p.errorAtPrevious("Invalid assignment target.")
	}
}

func number(p *parser, _ bool) {
	n, err := strconv.ParseFloat(p.previous.Lexeme, 64)
	if err != nil {
		p.errorAtPrevious("invalid number literal")
		return
	}
	p.emitConstant(value.Number(n))
}

func stringLit(p *parser, _ bool) {
	// strip the surrounding quotes; Peach strings have no escape sequences
	// (spec.md §6).
	body := p.previous.Lexeme[1 : len(p.previous.Lexeme)-1]
	p.emitConstant(internConstant(body))
}

// internConstant produces a String object for body to place in a constant
// pool. The compiler does not have access to a VM's live intern table
// (compilation happens before any VM exists, and a REPL may compile many
// chunks against one long-lived VM), so each chunk carries its own String
// objects; the VM interns them into its table the first time each constant
// is loaded (see vm.VM's constant-load path), guaranteeing
// `intern(s) == intern(s)` for identical byte sequences process-wide.
func internConstant(body string) *value.String {
	return value.NewString(body)
}

func literal(p *parser, _ bool) {
	switch p.previous.Kind {
	case token.FALSE:
		p.emitOp(FALSE)
	case token.TRUE:
		p.emitOp(TRUE)
	case token.NIL:
		p.emitOp(NIL)
	}
}

func grouping(p *parser, _ bool) {
	p.expression()
	p.consume(token.RPAREN, "expect ')' after expression")
}

func unary(p *parser, _ bool) {
	opKind := p.previous.Kind
	line := p.previous.Line
	p.parsePrecedence(precUnary)
	switch opKind {
	case token.MINUS:
		p.chunk().Write(byte(NEGATE), line)
	case token.BANG:
		p.chunk().Write(byte(NOT), line)
	}
}

func binary(p *parser, _ bool) {
	opKind := p.previous.Kind
	line := p.previous.Line
	rule := getRule(opKind)
	p.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case token.BANG_EQ:
		p.chunk().Write(byte(EQUAL), line)
		p.chunk().Write(byte(NOT), line)
	case token.EQ_EQ:
		p.chunk().Write(byte(EQUAL), line)
	case token.GT:
		p.chunk().Write(byte(GREATER), line)
	case token.GT_EQ:
		p.chunk().Write(byte(LESS), line)
		p.chunk().Write(byte(NOT), line)
	case token.LT:
		p.chunk().Write(byte(LESS), line)
	case token.LT_EQ:
		p.chunk().Write(byte(GREATER), line)
		p.chunk().Write(byte(NOT), line)
	case token.PLUS:
		p.chunk().Write(byte(ADD), line)
	case token.MINUS:
		p.chunk().Write(byte(SUB), line)
	case token.STAR:
		p.chunk().Write(byte(MUL), line)
	case token.SLASH:
		p.chunk().Write(byte(DIV), line)
	}
}

// and_ short-circuits: if the left operand is falsey, its value (not a
// bool) is left on the stack and the right operand is skipped entirely
// (spec.md §4.2 "Expression rules").
func and_(p *parser, _ bool) {
	endJump := p.emitJump(JUMP_IF_FALSE)
	p.emitOp(POP)
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

// or_ short-circuits the opposite way: if the left operand is truthy, skip
// the right operand.
func or_(p *parser, _ bool) {
	elseJump := p.emitJump(JUMP_IF_FALSE)
	endJump := p.emitJump(JUMP)

	p.patchJump(elseJump)
	p.emitOp(POP)

	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

func variable(p *parser, canAssign bool) {
	namedVariable(p, p.previous.Lexeme, canAssign)
}

func namedVariable(p *parser, name string, canAssign bool) {
	var getOp, getOpLong, setOp, setOpLong Opcode
	arg := resolveLocal(p.cur, name)
	if arg == -2 {
		p.errorAtPrevious("can't read local variable in its own initializer")
		arg = 0
	}
	if arg >= 0 {
		getOp, getOpLong = GET_LOCAL, GET_LOCAL_LONG
		setOp, setOpLong = SET_LOCAL, SET_LOCAL_LONG
	} else if up := resolveUpvalue(p.cur, name); up != -1 {
		if up == -2 {
			p.errorAtPrevious("can't read local variable in its own initializer")
			up = 0
		}
		arg = up
		if canAssign && p.match(token.EQ) {
			p.expression()
			p.emitOpByte(SET_UPVALUE, byte(arg))
			return
		}
		p.emitOpByte(GET_UPVALUE, byte(arg))
		return
	} else {
		arg = p.makeConstant(internConstant(name))
		getOp, getOpLong = GET_GLOBAL, GET_GLOBAL_LONG
		setOp, setOpLong = SET_GLOBAL, SET_GLOBAL_LONG
	}

	if canAssign && p.match(token.EQ) {
		p.expression()
		p.emitIndexed(setOp, setOpLong, arg)
		return
	}
	p.emitIndexed(getOp, getOpLong, arg)
}

// argumentList parses a parenthesized, comma-separated argument list,
// leaving the arguments pushed on the stack, and returns their count.
func (p *parser) argumentList() int {
	count := 0
	if !p.check(token.RPAREN) {
		for {
			p.expression()
			if count == maxArgs {
				p.errorAtPrevious("can't have more than 255 arguments")
			}
			count++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "expect ')' after arguments")
	return count
}

func call(p *parser, _ bool) {
	argCount := p.argumentList()
	p.emitOpByte(CALL, byte(argCount))
}
