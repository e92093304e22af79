// Package scanner tokenizes Peach source code for the compiler to consume.
//
// Some of the scanner's structure (the advance/peek character-at-a-time
// style, and reporting malformed input as a token rather than an
// out-of-band error) is adapted from the Go source code:
// https://cs.opensource.google/go/go/+/refs/tags/go1.22.1:src/go/scanner/scanner.go
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package scanner

import (
	"fmt"

	"github.com/quanta-kt/peachlang/lang/token"
)

// Token combines a lexical Kind with the source slice that produced it and
// the 1-based line on which it ends (the same as the line on which it
// starts for every token except a string literal that spans several
// lines). Lexeme is a slice of the original
// source string, so a Token must not outlive the source it was scanned
// from. For an ERROR token, Lexeme instead carries a human-readable
// message.
type Token struct {
	Kind   token.Kind
	Lexeme string
	Line   int
}

// Scanner tokenizes a single Peach source string on demand. The zero value
// is not usable; call Init first.
type Scanner struct {
	src     string
	start   int // start of the current lexeme
	current int // next byte to read
	line    int
}

// Init prepares the scanner to tokenize src from the beginning.
func (s *Scanner) Init(src string) {
	s.src = src
	s.start = 0
	s.current = 0
	s.line = 1
}

// ScanTokens scans every token in src, including the terminal EOF. It is a
// convenience for tests and tools that want the whole stream at once; the
// compiler itself calls ScanToken one at a time.
func ScanTokens(src string) []Token {
	var s Scanner
	s.Init(src)
	var out []Token
	for {
		tok := s.ScanToken()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return out
}

// ScanToken returns the next token in the source, or an EOF token once the
// source is exhausted. Malformed input (an unterminated string or an
// unrecognized character) yields an ERROR token whose Lexeme is a
// human-readable message.
func (s *Scanner) ScanToken() Token {
	s.skipWhitespaceAndComments()
	s.start = s.current

	if s.atEnd() {
		return s.make(token.EOF)
	}

	c := s.advance()
	switch {
	case isAlpha(c):
		return s.identifier()
	case isDigit(c):
		return s.number()
	}

	switch c {
	case '(':
		return s.make(token.LPAREN)
	case ')':
		return s.make(token.RPAREN)
	case '{':
		return s.make(token.LBRACE)
	case '}':
		return s.make(token.RBRACE)
	case ',':
		return s.make(token.COMMA)
	case '.':
		return s.make(token.DOT)
	case '-':
		return s.make(token.MINUS)
	case '+':
		return s.make(token.PLUS)
	case ';':
		return s.make(token.SEMI)
	case '*':
		return s.make(token.STAR)
	case '/':
		return s.make(token.SLASH)
	case '!':
		return s.make(s.pick('=', token.BANG_EQ, token.BANG))
	case '=':
		return s.make(s.pick('=', token.EQ_EQ, token.EQ))
	case '<':
		return s.make(s.pick('=', token.LT_EQ, token.LT))
	case '>':
		return s.make(s.pick('=', token.GT_EQ, token.GT))
	case '"':
		return s.string()
	}

	return s.errorf("unexpected character '%c'", c)
}

func (s *Scanner) atEnd() bool { return s.current >= len(s.src) }

// advance consumes and returns the next byte of source, which must exist
// (callers check atEnd first, except at the very start of a rune that was
// already known to be present).
func (s *Scanner) advance() byte {
	c := s.src[s.current]
	s.current++
	return c
}

// peek returns the next unconsumed byte without advancing, or 0 at EOF.
func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.current]
}

// peekNext returns the byte after peek, or 0 if that is past EOF.
func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.src) {
		return 0
	}
	return s.src[s.current+1]
}

// pick advances and returns want if the next byte matches expect, otherwise
// it leaves the scanner untouched and returns otherwise.
func (s *Scanner) pick(expect byte, want, otherwise token.Kind) token.Kind {
	if s.atEnd() || s.src[s.current] != expect {
		return otherwise
	}
	s.current++
	return want
}

func (s *Scanner) skipWhitespaceAndComments() {
	for {
		switch s.peek() {
		case ' ', '\t', '\r':
			s.current++
		case '\n':
			s.line++
			s.current++
		case '/':
			if s.peekNext() == '/' {
				for s.peek() != '\n' && !s.atEnd() {
					s.current++
				}
				continue
			}
			return
		default:
			return
		}
	}
}

func (s *Scanner) identifier() Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.current++
	}
	lit := s.src[s.start:s.current]
	kind := token.IDENT
	if len(lit) > 1 {
		// keywords are all longer than a single letter; skip the trie lookup
		// for the common one-letter-identifier case.
		kind = token.LookupKeyword(lit)
	}
	return s.make(kind)
}

func (s *Scanner) number() Token {
	for isDigit(s.peek()) {
		s.current++
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.current++ // consume the '.'
		for isDigit(s.peek()) {
			s.current++
		}
	}
	return s.make(token.NUMBER)
}

func (s *Scanner) string() Token {
	for s.peek() != '"' && !s.atEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.current++
	}
	if s.atEnd() {
		return s.errorf("unterminated string")
	}
	s.current++ // consume closing quote
	return s.make(token.STRING)
}

func (s *Scanner) make(kind token.Kind) Token {
	return Token{Kind: kind, Lexeme: s.src[s.start:s.current], Line: s.line}
}

func (s *Scanner) errorf(format string, args ...any) Token {
	return Token{Kind: token.ERROR, Lexeme: fmt.Sprintf(format, args...), Line: s.line}
}

// isAlpha reports whether c may start or continue an identifier. Per
// spec.md §6, identifiers are ASCII letters/underscore followed by
// letters/digits/underscore — there is no Unicode identifier support.
func isAlpha(c byte) bool {
	return c == '_' ||
		'a' <= c && c <= 'z' ||
		'A' <= c && c <= 'Z'
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
