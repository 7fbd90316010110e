package corebasic

import (
	"io"

	"github.com/jcorbin/corebasic/internal/flushio"
)

// Compile tokenizes, parses, compiles, and links source into a runnable VM.
// Any parser or compiler failure is returned as a
// (possibly multi-element) ParseError slice and no VM is produced; linking
// only runs when there are no ParseErrors, so a link-phase failure
// (Overflow, MissingLabel) is returned as err with an empty ParseError slice.
func Compile(source string, opts ...Option) (*VM, []ParseError, error) {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	lineToks, lineNums := tokenizeProgram(source)

	sym := newSymbolTable()
	var errs []ParseError
	var nodes []*Node
	for i, toks := range lineToks {
		p := &parser{line: lineNums[i]}
		n := p.parseLine(toks)
		if n == nil {
			errs = append(errs, ParseError{Line: lineNums[i], Kind: classifyLexFailure(toks)})
			continue
		}
		nodes = append(nodes, n)
	}

	c := newCompiler(sym)
	errs = append(errs, c.compileProgram(nodes)...)
	if len(errs) > 0 {
		return nil, errs, nil
	}

	vm, err := link(sym, o.memorySize, o.screenWidth, o.screenHeight)
	if err != nil {
		return nil, errs, err
	}
	vm.logfn = o.logfn
	vm.markWidth = 6
	if o.out != nil {
		vm.out = o.out
	} else {
		vm.out = flushio.NewWriteFlusher(io.Discard)
	}
	return vm, nil, nil
}

// tokenizeProgram splits source into per-line non-empty token slices and
// their corresponding 1-based source line numbers, tokenizing each line up
// to its newline.
func tokenizeProgram(source string) (lines [][]Token, lineNums []int) {
	t := NewTokenizer(source)
	pos := 0
	line := 1
	for pos < t.Len() {
		toks, next := tokenizeLine(t, pos)
		if len(toks) > 0 {
			lines = append(lines, toks)
			lineNums = append(lineNums, line)
		}
		if next <= pos {
			break // no progress possible; avoid an infinite loop on malformed input
		}
		line++
		pos = next
	}
	return lines, lineNums
}

// classifyLexFailure picks an ErrorKind for a line neither parseDeclaration
// nor parseStatement accepted.
func classifyLexFailure(toks []Token) ErrorKind {
	depth := 0
	for _, t := range toks {
		switch t.Text {
		case "(":
			depth++
		case ")":
			depth--
		}
	}
	if depth != 0 {
		return ErrParenthMismatch
	}
	if len(toks) >= 2 && toks[0].Kind == TokWord && toks[1].Kind == TokOperator && toks[1].Text == "=" {
		return ErrAssignment
	}
	return ErrUnknownLine
}
