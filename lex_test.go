package corebasic

import "testing"

func mustParseLine(t *testing.T, src string) *Node {
	t.Helper()
	tok := NewTokenizer(src)
	toks, _ := tokenizeLine(tok, 0)
	p := &parser{line: 1}
	n := p.parseLine(toks)
	if n == nil {
		t.Fatalf("parseLine(%q) = nil, want a node", src)
	}
	return n
}

func TestParseDeclaration(t *testing.T) {
	n := mustParseLine(t, "x = 1 + 2 * 3")
	if !n.IsSymbol || n.Symbol != SymDeclaration {
		t.Fatalf("got %+v, want Declaration", n)
	}
	if n.Left.StrVal != "x" {
		t.Fatalf("got target %q, want x", n.Left.StrVal)
	}
	// left-associative precedence: 1 + (2*3), so the root operator is '+'.
	if n.Right.Op != OpAdd {
		t.Fatalf("got root op %v, want +", OpcodeName(n.Right.Op))
	}
	if n.Right.Right.Op != OpMul {
		t.Fatalf("got rhs op %v, want *", OpcodeName(n.Right.Right.Op))
	}
}

func TestParseLeftAssociativeSubtraction(t *testing.T) {
	n := mustParseLine(t, "x = 2 + 3 - 4")
	// should parse as (2+3)-4, i.e. root op is '-' with a '+' on its left.
	if n.Right.Op != OpSub {
		t.Fatalf("got root op %v, want -", OpcodeName(n.Right.Op))
	}
	if n.Right.Left.Op != OpAdd {
		t.Fatalf("got lhs op %v, want +", OpcodeName(n.Right.Left.Op))
	}
}

func TestParseIfCondition(t *testing.T) {
	n := mustParseLine(t, "if (x > 3 and y < 2)")
	if n.Symbol != SymIf {
		t.Fatalf("got %+v, want If", n)
	}
	if n.Middle.Op != OpAnd {
		t.Fatalf("got condition op %v, want and", OpcodeName(n.Middle.Op))
	}
	if n.Middle.Left.Op != OpGreater || n.Middle.Right.Op != OpLess {
		t.Fatalf("unexpected condition shape: %+v", n.Middle)
	}
}

func TestParseFunctionCall(t *testing.T) {
	n := mustParseLine(t, `disp("hello")`)
	if n.Term != TermFunction || n.StrVal != "disp" {
		t.Fatalf("got %+v, want a disp call", n)
	}
	if argCount(n.Middle) != 1 {
		t.Fatalf("got %d args, want 1", argCount(n.Middle))
	}
}

func TestParseForStatement(t *testing.T) {
	n := mustParseLine(t, "for (i, 0, 10, 1)")
	if n.Symbol != SymFor {
		t.Fatalf("got %+v, want For", n)
	}
	if n.Left.StrVal != "i" {
		t.Fatalf("got iterator %q, want i", n.Left.StrVal)
	}
}

func TestParseRejectsUnparenthesizedIf(t *testing.T) {
	tok := NewTokenizer("if x > 3")
	toks, _ := tokenizeLine(tok, 0)
	p := &parser{line: 1}
	if n := p.parseLine(toks); n != nil {
		t.Fatalf("got %+v, want nil (missing parens)", n)
	}
}
