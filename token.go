package corebasic

import "unicode"

// TokenKind classifies a lexical token returned by the tokenizer. It is
// coarser than the parser's terminal types: the tokenizer only needs to
// know enough to slice the source, not to interpret the slice.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokNewline
	TokSeparator // , : ( )
	TokOperator  // == != >= <= and or + - * / % = < > !
	TokString    // "..."
	TokWord      // identifier, keyword, or numeric literal
)

// Token is a slice of the source buffer, per NextToken(pos)'s contract
// generalized to also carry the decoded kind and text for the parser's
// convenience.
type Token struct {
	Kind        TokenKind
	Start, Len  int
	Text        string
}

// twoCharOps and threeCharOps are checked before single-char operators so
// that the longest match wins.
var threeCharOps = []string{"and"}
var twoCharOps = []string{"==", "!=", ">=", "<=", "or"}

const singleCharOps = "+-*/%=<>!"
const separators = ",:()"

// isIDStart/isIDPart decide the alphanumeric run consumed by rule 5.
func isIDStart(r rune) bool { return unicode.IsLetter(r) }
func isIDPart(r rune) bool  { return unicode.IsLetter(r) || unicode.IsDigit(r) }

// Tokenizer walks a character buffer with NextToken.
type Tokenizer struct {
	src []rune
}

// NewTokenizer prepares src for tokenizing.
func NewTokenizer(src string) *Tokenizer {
	return &Tokenizer{src: []rune(src)}
}

// Len reports the number of runes in the source buffer.
func (t *Tokenizer) Len() int { return len(t.src) }

// NextToken applies its classification rules in order, returning the token starting
// at or after pos and the position just past it. At end of input it
// returns a TokEOF token of zero length at len(src).
func (t *Tokenizer) NextToken(pos int) (Token, int) {
	n := len(t.src)

	// Rule 1: skip whitespace except newline; a line comment consumes
	// nothing here -- callers (tokenizeLine) stop at it explicitly.
	for pos < n && isSpaceNotNewline(t.src[pos]) {
		pos++
	}

	if pos >= n {
		return Token{Kind: TokEOF, Start: pos}, pos
	}

	if t.src[pos] == '\n' {
		return Token{Kind: TokNewline, Start: pos, Len: 1, Text: "\n"}, pos + 1
	}

	// line comment: report as EOF-for-this-line; caller skips to the newline.
	if pos+1 < n && t.src[pos] == '/' && t.src[pos+1] == '/' {
		return Token{Kind: TokEOF, Start: pos}, pos
	}

	// Rule 2: string literal, does not span newlines or comments.
	if t.src[pos] == '"' {
		end := pos + 1
		for end < n && t.src[end] != '"' && t.src[end] != '\n' {
			end++
		}
		if end < n && t.src[end] == '"' {
			end++
		}
		text := string(t.src[pos:end])
		return Token{Kind: TokString, Start: pos, Len: end - pos, Text: text}, end
	}

	// Rule 3: longest-match multi-character operators first. "and"/"or" are
	// word-like, so they only match at a word boundary -- otherwise an
	// identifier like "andy" would tokenize as operator "and" plus word "y".
	if pos+3 <= n {
		s := string(t.src[pos : pos+3])
		for _, op := range threeCharOps {
			if s == op && !(pos+3 < n && isIDPart(t.src[pos+3])) {
				return Token{Kind: TokOperator, Start: pos, Len: 3, Text: s}, pos + 3
			}
		}
	}
	if pos+2 <= n {
		s := string(t.src[pos : pos+2])
		for _, op := range twoCharOps {
			if s == op && (op != "or" || !(pos+2 < n && isIDPart(t.src[pos+2]))) {
				return Token{Kind: TokOperator, Start: pos, Len: 2, Text: s}, pos + 2
			}
		}
	}
	if c := t.src[pos]; containsRune(singleCharOps, c) {
		return Token{Kind: TokOperator, Start: pos, Len: 1, Text: string(c)}, pos + 1
	}

	// Rule 4: single-character separators.
	if c := t.src[pos]; containsRune(separators, c) {
		return Token{Kind: TokSeparator, Start: pos, Len: 1, Text: string(c)}, pos + 1
	}

	// Rule 5: alphanumeric run (identifier, keyword, or numeric literal).
	end := pos
	for end < n && isIDPart(t.src[end]) {
		end++
	}
	if end == pos {
		// Stray character we don't recognize at all: consume one rune so
		// the caller always makes progress; the line then fails to parse
		// and Compile reports it through classifyLexFailure.
		end = pos + 1
	}
	text := string(t.src[pos:end])
	return Token{Kind: TokWord, Start: pos, Len: end - pos, Text: text}, end
}

func isSpaceNotNewline(r rune) bool {
	return r != '\n' && unicode.IsSpace(r)
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}

// tokenizeLine tokenizes from pos through (and including) the next
// TokNewline or TokEOF, tokenizing the line up to the newline.
// The returned slice never includes the trailing newline token itself; next
// is the position just past it (or past EOF).
func tokenizeLine(t *Tokenizer, pos int) (line []Token, next int) {
	for {
		tok, np := t.NextToken(pos)
		pos = np
		switch tok.Kind {
		case TokEOF:
			// Either true EOF or a line comment: skip to the next newline.
			for pos < t.Len() && t.src[pos] != '\n' {
				pos++
			}
			if pos < t.Len() {
				pos++ // consume the newline itself
			}
			return line, pos
		case TokNewline:
			return line, pos
		default:
			line = append(line, tok)
		}
	}
}
