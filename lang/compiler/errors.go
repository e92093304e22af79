package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// CompileError is a single compile-time diagnostic, formatted per spec.md
// §4.2.4 as "[line L] Error at '<lexeme>': <msg>" (or "at end" at EOF).
// This mirrors the shape of go/scanner.Error (which nenuphar re-exports in
// lang/scanner), but Peach positions are a bare source line, so Peach
// defines its own small aggregator instead of aliasing go/scanner's
// column/offset-aware one.
type CompileError struct {
	Line    int
	Where   string // "at '<lexeme>'", "at end", or "" for a scanner ERROR token
	Message string
}

func (e CompileError) Error() string {
	return fmt.Sprintf("[line %d] Error %s: %s", e.Line, e.Where, e.Message)
}

// CompileErrorList collects every CompileError reported during one compile.
// Multiple errors may accumulate per compile (panicMode suppresses
// cascading reports, but not unrelated later ones); Sort restores
// source order once scanning is done.
type CompileErrorList []CompileError

func (el *CompileErrorList) add(e CompileError) { *el = append(*el, e) }

// Sort orders the list by source line, stably.
func (el CompileErrorList) Sort() {
	sort.SliceStable(el, func(i, j int) bool { return el[i].Line < el[j].Line })
}

func (el CompileErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (and %d more errors)", el[0], len(el)-1)
	return sb.String()
}
