package corebasic

// builtins maps a function-call name to its opcode and required argument
// count; an unknown name or a mismatched count both raise
// ErrInvalidID, matching cbUtil's single "not a known identifier" path.
var builtins = map[string]struct {
	Op    Opcode
	Arity int
}{
	"input":  {OpInput, 0},
	"getKey": {OpGetKey, 0},
	"pause":  {OpPause, 0},
	"disp":   {OpDisp, 1},
	"output": {OpOutput, 3},
	"clear":  {OpClear, 0},
}

// compiler walks the lexical tree built by parser and emits Instructions
// into a symbolTable. Traversal is post-order: operands (Left,
// Right) are emitted before the node's own opcode; Middle (a condition or
// an argument list) is emitted after Left/Right but still before the node's
// own control-flow instruction, since its value must already be on the
// stack when that instruction runs.
type compiler struct {
	sym  *symbolTable
	errs []ParseError
}

func newCompiler(sym *symbolTable) *compiler { return &compiler{sym: sym} }

func (c *compiler) fail(line int, kind ErrorKind) {
	c.errs = append(c.errs, ParseError{Line: line, Kind: kind})
}

// compileProgram compiles every parsed line in source order, emitting a Nop
// marker (carrying the line number for CurrentLine/trace purposes) ahead of
// each line's instructions.
func (c *compiler) compileProgram(lines []*Node) []ParseError {
	for _, n := range lines {
		if n == nil {
			continue
		}
		c.sym.emit(Instruction{Op: OpNop, Arg: n.Line})
		c.compileLine(n)
	}
	if len(c.sym.blocks) > 0 {
		c.fail(lines[len(lines)-1].Line, ErrBlockMismatch)
	}
	return c.errs
}

func (c *compiler) compileLine(n *Node) {
	switch {
	case n.IsSymbol && n.Symbol == SymDeclaration:
		c.compileDeclaration(n)
	case n.IsSymbol:
		c.compileControl(n)
	default:
		c.emitExpr(n)
	}
}

func (c *compiler) compileDeclaration(n *Node) {
	c.emitExpr(n.Right)
	slot := c.sym.addVar(n.Left.StrVal)
	c.sym.emit(Instruction{Op: OpLoadVar, Arg: -(slot + 1)})
	c.sym.emit(Instruction{Op: OpSet})
}

// escapeFor emits the unconditional "skip the rest of the if/elif/else
// chain" jump taken after a branch's body runs, recording it against prior
// so End can patch every branch's escape to land at the same place.
func (c *compiler) escapeFor(prior *blockEntry, line int) {
	idx := c.sym.emit(Instruction{Op: OpGoto})
	prior.Escapes = append(prior.Escapes, idx)
}

func (c *compiler) compileControl(n *Node) {
	switch n.Symbol {
	case SymIf:
		c.emitExpr(n.Middle)
		idx := c.sym.emit(Instruction{Op: OpIf})
		c.sym.pushBlock(blockEntry{Symbol: SymIf, CondFalseJump: idx})

	case SymElif:
		prior, ok := c.sym.popBlock()
		if !ok || (prior.Symbol != SymIf && prior.Symbol != SymElif) {
			c.fail(n.Line, ErrBlockMismatch)
			return
		}
		c.escapeFor(&prior, n.Line)
		c.sym.patch(prior.CondFalseJump, len(c.sym.instrs))
		c.emitExpr(n.Middle)
		idx := c.sym.emit(Instruction{Op: OpIf})
		c.sym.pushBlock(blockEntry{Symbol: SymElif, CondFalseJump: idx, Escapes: prior.Escapes})

	case SymElse:
		prior, ok := c.sym.popBlock()
		if !ok || (prior.Symbol != SymIf && prior.Symbol != SymElif) {
			c.fail(n.Line, ErrBlockMismatch)
			return
		}
		c.escapeFor(&prior, n.Line)
		c.sym.patch(prior.CondFalseJump, len(c.sym.instrs))
		c.sym.pushBlock(blockEntry{Symbol: SymElse, CondFalseJump: -1, Escapes: prior.Escapes})

	case SymWhile:
		header := len(c.sym.instrs)
		c.emitExpr(n.Middle)
		idx := c.sym.emit(Instruction{Op: OpIf})
		c.sym.pushBlock(blockEntry{Symbol: SymWhile, CondFalseJump: idx, HeaderIndex: header})

	case SymFor:
		// For parses fully (block-depth stays consistent) but iteration
		// codegen is unimplemented; see DESIGN.md.
		c.fail(n.Line, ErrUnknownOp)
		c.sym.pushBlock(blockEntry{Symbol: SymFor, CondFalseJump: -1})

	case SymEnd:
		b, ok := c.sym.popBlock()
		if !ok {
			c.fail(n.Line, ErrBlockMismatch)
			return
		}
		switch b.Symbol {
		case SymWhile:
			gotoIdx := c.sym.emit(Instruction{Op: OpGoto})
			c.sym.patch(gotoIdx, b.HeaderIndex)
			c.sym.patch(b.CondFalseJump, len(c.sym.instrs))
		case SymFor:
			// no codegen to close; already reported at open.
		default:
			if b.CondFalseJump >= 0 {
				c.sym.patch(b.CondFalseJump, len(c.sym.instrs))
			}
			for _, e := range b.Escapes {
				c.sym.patch(e, len(c.sym.instrs))
			}
		}

	case SymGoto:
		idx := c.sym.emit(Instruction{Op: OpGoto})
		c.sym.pending = append(c.sym.pending, pendingJump{InstrIndex: idx, Label: n.StrVal, Line: n.Line})

	case SymLabel:
		c.sym.addLabel(n.StrVal, len(c.sym.instrs))

	default:
		c.fail(n.Line, ErrUnknownLine)
	}
}

// emitExpr emits the post-order instructions for an expression/term/factor
// subtree, terminating in terminal node handling.
func (c *compiler) emitExpr(n *Node) {
	if n == nil {
		return
	}
	if n.IsSymbol {
		if n.Symbol == SymNone {
			return
		}
		c.fail(n.Line, ErrUnknownLine)
		return
	}
	switch n.Term {
	case TermInt:
		idx := c.sym.addData(intVar(n.IntVal))
		c.sym.emit(Instruction{Op: OpLoadData, Arg: idx})
	case TermFloat:
		idx := c.sym.addData(floatVar(n.FloatVal))
		c.sym.emit(Instruction{Op: OpLoadData, Arg: idx})
	case TermBool:
		idx := c.sym.addData(boolVar(n.BoolVal))
		c.sym.emit(Instruction{Op: OpLoadData, Arg: idx})
	case TermString:
		sid := c.sym.addString(n.StrVal)
		idx := c.sym.addData(stringVar(sid))
		c.sym.emit(Instruction{Op: OpLoadData, Arg: idx})
	case TermVariable:
		slot := c.sym.addVar(n.StrVal)
		c.sym.emit(Instruction{Op: OpLoadVar, Arg: -(slot + 1)})
	case TermOperator:
		c.emitExpr(n.Left)
		c.emitExpr(n.Right)
		c.sym.emit(Instruction{Op: n.Op})
	case TermFunction:
		c.emitArgs(n.Middle)
		b, ok := builtins[n.StrVal]
		if !ok {
			c.fail(n.Line, ErrInvalidID)
			return
		}
		if b.Arity != argCount(n.Middle) {
			c.fail(n.Line, ErrInvalidID)
			return
		}
		c.sym.emit(Instruction{Op: b.Op})
	default:
		c.fail(n.Line, ErrUnknownLine)
	}
}

func (c *compiler) emitArgs(n *Node) {
	for n != nil && n.IsSymbol && n.Symbol == SymExpressionList {
		c.emitExpr(n.Middle)
		n = n.Right
	}
}

func argCount(n *Node) int {
	count := 0
	for n != nil && n.IsSymbol && n.Symbol == SymExpressionList {
		count++
		n = n.Right
	}
	return count
}
