package token_test

import (
	"testing"

	"github.com/quanta-kt/peachlang/lang/token"
	"github.com/stretchr/testify/assert"
)

func TestLookupKeyword(t *testing.T) {
	cases := []struct {
		lit  string
		want token.Kind
	}{
		{"and", token.AND},
		{"class", token.CLASS},
		{"else", token.ELSE},
		{"false", token.FALSE},
		{"for", token.FOR},
		{"fn", token.FN},
		{"if", token.IF},
		{"nil", token.NIL},
		{"or", token.OR},
		{"print", token.PRINT},
		{"return", token.RETURN},
		{"super", token.SUPER},
		{"this", token.THIS},
		{"true", token.TRUE},
		{"let", token.LET},
		{"while", token.WHILE},
		{"", token.IDENT},
		{"f", token.IDENT},
		{"foo", token.IDENT},
		{"falsey", token.IDENT},
		{"things", token.IDENT},
	}
	for _, tt := range cases {
		assert.Equal(t, tt.want, token.LookupKeyword(tt.lit), tt.lit)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "+", token.PLUS.String())
	assert.Equal(t, "while", token.WHILE.String())
	assert.Equal(t, "end of file", token.EOF.String())
}
