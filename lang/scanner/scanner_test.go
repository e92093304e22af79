package scanner_test

import (
	"testing"

	"github.com/quanta-kt/peachlang/lang/scanner"
	"github.com/quanta-kt/peachlang/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []scanner.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestScanTokensPunctAndOperators(t *testing.T) {
	toks := scanner.ScanTokens("!= <= >= == ( ) { } ; , .")
	want := []token.Kind{
		token.BANG_EQ, token.LT_EQ, token.GT_EQ, token.EQ_EQ,
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.SEMI, token.COMMA, token.DOT, token.EOF,
	}
	assert.Equal(t, want, kinds(toks))
}

func TestScanTokensKeywordsAndIdents(t *testing.T) {
	toks := scanner.ScanTokens("let x = foo and bar")
	want := []token.Kind{
		token.LET, token.IDENT, token.EQ, token.IDENT, token.AND, token.IDENT, token.EOF,
	}
	assert.Equal(t, want, kinds(toks))
}

func TestScanTokensNumberAndString(t *testing.T) {
	toks := scanner.ScanTokens(`123 4.5 "hello"`)
	require.Len(t, toks, 4)
	assert.Equal(t, token.NUMBER, toks[0].Kind)
	assert.Equal(t, "123", toks[0].Lexeme)
	assert.Equal(t, token.NUMBER, toks[1].Kind)
	assert.Equal(t, "4.5", toks[1].Lexeme)
	assert.Equal(t, token.STRING, toks[2].Kind)
	assert.Equal(t, `"hello"`, toks[2].Lexeme)
}

func TestScanTokensSkipsLineComments(t *testing.T) {
	toks := scanner.ScanTokens("1 // a comment\n2")
	want := []token.Kind{token.NUMBER, token.NUMBER, token.EOF}
	assert.Equal(t, want, kinds(toks))
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 2, toks[1].Line)
}

func TestScanTokensUnterminatedString(t *testing.T) {
	toks := scanner.ScanTokens(`"abc`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.ERROR, toks[0].Kind)
	assert.Contains(t, toks[0].Lexeme, "unterminated")
}

func TestScanTokensIllegalCharacter(t *testing.T) {
	toks := scanner.ScanTokens("@")
	require.Len(t, toks, 2)
	assert.Equal(t, token.ERROR, toks[0].Kind)
	assert.Contains(t, toks[0].Lexeme, "unexpected character")
}
