package corebasic

import (
	"github.com/pkg/errors"

	"github.com/jcorbin/corebasic/internal/flushio"
	"github.com/jcorbin/corebasic/internal/mem"
)

// InterruptState names why Step returned without making progress.
type InterruptState int

const (
	IntrNone InterruptState = iota
	IntrInput
	IntrGetKey
	IntrPause
)

// VM is a linked, runnable coreBasic program: a fixed Code segment plus a
// paged cell store for static data and the downward-growing stack, per
// Cells are (tag, value) pairs split across two
// parallel mem.Ints cores rather than packed into one address space, since
// Go has no portable tagged-union cell the way the original C does.
type VM struct {
	logging

	Code    []Instruction
	Strings []string

	cells mem.Ints
	tags  mem.Ints

	MemorySize       int
	DataVarCount     int
	HeapPointer      int
	VarCount         int
	StackBasePointer int
	StackPointer     int

	InstructionPointer int
	LineIndex          int
	Ticks              int
	Halted             bool
	InterruptState     InterruptState

	ScreenWidth  int
	ScreenHeight int
	Screen       []byte

	out flushio.WriteFlusher
}

func (vm *VM) loadCell(addr int) (Variable, error) {
	val, err := vm.cells.Load(uint(addr))
	if err != nil {
		return Variable{}, errors.Wrapf(err, "load cell %d", addr)
	}
	tag, err := vm.tags.Load(uint(addr))
	if err != nil {
		return Variable{}, errors.Wrapf(err, "load cell tag %d", addr)
	}
	return decodeVariable(tag, val), nil
}

func (vm *VM) storeCell(addr int, v Variable) error {
	tag, val := v.encode()
	if err := vm.cells.Stor(uint(addr), val); err != nil {
		return errors.Wrapf(err, "store cell %d", addr)
	}
	if err := vm.tags.Stor(uint(addr), tag); err != nil {
		return errors.Wrapf(err, "store cell tag %d", addr)
	}
	return nil
}

func (vm *VM) fail(kind ErrorKind) error {
	return RuntimeError{Line: vm.LineIndex, Kind: kind}
}

func (vm *VM) push(v Variable) error {
	newSP := vm.StackPointer - 1
	if newSP < vm.HeapPointer {
		return vm.fail(ErrOverflow)
	}
	if err := vm.storeCell(newSP, v); err != nil {
		return err
	}
	vm.StackPointer = newSP
	return nil
}

func (vm *VM) pop() (Variable, error) {
	if vm.StackPointer >= vm.StackBasePointer {
		return Variable{}, vm.fail(ErrOverflow)
	}
	v, err := vm.loadCell(vm.StackPointer)
	if err != nil {
		return Variable{}, err
	}
	vm.StackPointer++
	return v, nil
}

func (vm *VM) peek() (Variable, error) {
	if vm.StackPointer >= vm.StackBasePointer {
		return Variable{}, vm.fail(ErrOverflow)
	}
	return vm.loadCell(vm.StackPointer)
}

// deref resolves a VarOffset L-value to the Variable actually stored at its
// target cell; any other type is returned unchanged, per cbProcess.c's
// "GetVariable" helper.
func (vm *VM) deref(v Variable) (Variable, error) {
	if v.Type != VarOffset {
		return v, nil
	}
	return vm.loadCell(vm.StackBasePointer + v.Offset)
}

// jump applies a relative instruction-cell displacement the same way both
// Goto and a false If do: IP += rel - 1, so that the unconditional +1 at the
// end of Step lands exactly rel cells from the jump instruction.
func (vm *VM) jump(rel int) { vm.InstructionPointer += rel - 1 }

// Step executes a single instruction. It returns a non-nil
// RuntimeError on fault (including ErrHalted if called again after Halt),
// and reports InterruptState so the host can service Input/GetKey/Pause via
// ReleaseInterrupt before stepping again.
func (vm *VM) Step() (InterruptState, error) {
	if vm.Halted {
		return vm.InterruptState, vm.fail(ErrHalted)
	}
	if vm.InterruptState != IntrNone {
		return vm.InterruptState, nil
	}
	if vm.InstructionPointer < 0 || vm.InstructionPointer >= len(vm.Code) {
		return IntrNone, vm.fail(ErrOverflow)
	}

	instr := vm.Code[vm.InstructionPointer]
	vm.logf("step", "ip=%d line=%d op=%s arg=%d", vm.InstructionPointer, vm.LineIndex, OpcodeName(instr.Op), instr.Arg)

	var err error
	switch instr.Op {
	case OpNop:
		vm.LineIndex = instr.Arg

	case OpLoadData:
		var v Variable
		if v, err = vm.loadCell(instr.Arg); err == nil {
			err = vm.push(v)
		}

	case OpLoadVar:
		err = vm.push(offsetVar(instr.Arg))

	case OpAddStack:
		newSP := vm.StackPointer + instr.Arg
		if newSP < vm.HeapPointer || newSP > vm.StackBasePointer {
			err = vm.fail(ErrOverflow)
		} else {
			vm.StackPointer = newSP
		}

	case OpSet:
		err = vm.execSet()

	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		err = vm.execMath(instr.Op)

	case OpEq, OpNotEq, OpGreater, OpGreaterEq, OpLess, OpLessEq:
		err = vm.execComp(instr.Op)

	case OpNot:
		err = vm.execNot()
	case OpAnd:
		err = vm.execAnd()
	case OpOr:
		err = vm.execOr()

	case OpIf:
		err = vm.execIf(instr.Arg)

	case OpGoto:
		vm.jump(instr.Arg)

	case OpHalt:
		vm.Halted = true

	case OpInput, OpGetKey, OpPause:
		// Suspend without advancing IP/Ticks: ReleaseInterrupt completes
		// this instruction (pushing a value, for Input/GetKey) and advances
		// past it once the host resumes us.
		switch instr.Op {
		case OpInput:
			vm.InterruptState = IntrInput
		case OpGetKey:
			vm.InterruptState = IntrGetKey
		case OpPause:
			vm.InterruptState = IntrPause
		}
		return vm.InterruptState, nil

	case OpDisp:
		err = vm.execDisp()
	case OpOutput:
		err = vm.execOutput()
	case OpClear:
		for i := range vm.Screen {
			vm.Screen[i] = 0
		}

	default:
		err = vm.fail(ErrUnknownOp)
	}

	if err != nil {
		return vm.InterruptState, err
	}
	vm.Ticks++
	vm.InstructionPointer++
	return vm.InterruptState, nil
}

// execSet implements Store: both operands are popped (unlike the math and
// comparison ops, which only pop one and overwrite the other in place), and
// the target must be an L-value, per cbStep_Store.
func (vm *VM) execSet() error {
	b, err := vm.pop() // target (L-value)
	if err != nil {
		return err
	}
	a, err := vm.pop() // value
	if err != nil {
		return err
	}
	if b.Type != VarOffset {
		return vm.fail(ErrConstSet)
	}
	v, err := vm.deref(a)
	if err != nil {
		return err
	}
	return vm.storeCell(vm.StackBasePointer+b.Offset, v)
}

// execMath implements the arithmetic ops: pop A, peek (not pop) B, and
// overwrite B's cell in place, per cbStep_MathOp -- the stack ends up one
// cell deeper than after Set, which pops both operands.
func (vm *VM) execMath(op Opcode) error {
	a, err := vm.pop()
	if err != nil {
		return err
	}
	a, err = vm.deref(a)
	if err != nil {
		return err
	}
	bRaw, err := vm.peek()
	if err != nil {
		return err
	}
	b, err := vm.deref(bRaw)
	if err != nil {
		return err
	}
	if a.Type != VarInt || b.Type != VarInt {
		return vm.fail(ErrTypeMismatch)
	}
	if (op == OpDiv || op == OpMod) && a.Int == 0 {
		return vm.fail(ErrDivZero)
	}
	var result Variable
	switch op {
	case OpAdd:
		result = intVar(b.Int + a.Int)
	case OpSub:
		result = intVar(b.Int - a.Int)
	case OpMul:
		result = intVar(b.Int * a.Int)
	case OpDiv:
		result = intVar(b.Int / a.Int)
	case OpMod:
		result = intVar(b.Int % a.Int)
	}
	return vm.storeCell(vm.StackPointer, result)
}

func (vm *VM) execComp(op Opcode) error {
	a, err := vm.pop()
	if err != nil {
		return err
	}
	a, err = vm.deref(a)
	if err != nil {
		return err
	}
	bRaw, err := vm.peek()
	if err != nil {
		return err
	}
	b, err := vm.deref(bRaw)
	if err != nil {
		return err
	}
	if a.Type != VarInt || b.Type != VarInt {
		return vm.fail(ErrTypeMismatch)
	}
	cmp := b.Int - a.Int
	var r bool
	switch op {
	case OpEq:
		r = cmp == 0
	case OpNotEq:
		r = cmp != 0
	case OpGreater:
		r = cmp > 0
	case OpGreaterEq:
		r = cmp >= 0
	case OpLess:
		r = cmp < 0
	case OpLessEq:
		r = cmp <= 0
	}
	return vm.storeCell(vm.StackPointer, boolVar(r))
}

// execNot pops a single bool operand and pushes its negation -- the one
// logic op that isn't a peek-and-overwrite, since it's unary.
func (vm *VM) execNot() error {
	a, err := vm.pop()
	if err != nil {
		return err
	}
	a, err = vm.deref(a)
	if err != nil {
		return err
	}
	if a.Type != VarBool {
		return vm.fail(ErrTypeMismatch)
	}
	return vm.push(boolVar(!a.Bool))
}

func (vm *VM) execAnd() error {
	a, err := vm.pop()
	if err != nil {
		return err
	}
	a, err = vm.deref(a)
	if err != nil {
		return err
	}
	bRaw, err := vm.peek()
	if err != nil {
		return err
	}
	b, err := vm.deref(bRaw)
	if err != nil {
		return err
	}
	if a.Type != VarBool || b.Type != VarBool {
		return vm.fail(ErrTypeMismatch)
	}
	return vm.storeCell(vm.StackPointer, boolVar(a.Bool && b.Bool))
}

// execOr is a faithful reproduction of the original dispatcher's bug: both
// its "is Or" and "is And" branches test the same opcode, so when Op is
// actually Or, neither branch's body runs and B is left untouched.
func (vm *VM) execOr() error {
	a, err := vm.pop()
	if err != nil {
		return err
	}
	_, err = vm.deref(a)
	if err != nil {
		return err
	}
	// B is deliberately left as-is: see cbStep_LogicOp's duplicated
	// "== cbOps_And" condition in the original dispatcher.
	return nil
}

// execIf implements the conditional branch: pop and type-check the
// condition, and on false apply the same relative jump formula as Goto.
func (vm *VM) execIf(rel int) error {
	a, err := vm.pop()
	if err != nil {
		return err
	}
	a, err = vm.deref(a)
	if err != nil {
		return err
	}
	switch a.Type {
	case VarInt, VarFloat, VarBool:
	default:
		return vm.fail(ErrTypeMismatch)
	}
	if a.isZero() {
		vm.jump(rel)
	}
	return nil
}

// execDisp implements the single-argument display statement: an Int is
// written as decimal text, a String is written byte-for-byte with '\n'
// translated to a newline only at display time (the stored literal keeps
// its two-character escape), per cbStep_Disp.
func (vm *VM) execDisp() error {
	a, err := vm.pop()
	if err != nil {
		return err
	}
	a, err = vm.deref(a)
	if err != nil {
		return err
	}
	var text string
	switch a.Type {
	case VarInt:
		text = itoa(a.Int)
	case VarString:
		if a.StrID < 0 || a.StrID >= len(vm.Strings) {
			return vm.fail(ErrOverflow)
		}
		text = translateEscapes(vm.Strings[a.StrID])
	default:
		return vm.fail(ErrTypeMismatch)
	}
	_, err = vm.out.Write([]byte(text))
	if err != nil {
		return err
	}
	return vm.out.Flush()
}

// execOutput implements the screen-poke statement. Arguments are pushed
// x, y, color and so popped color, y, x; only x/y are bounds-checked, per
// cbStep_Output -- an out-of-range color silently truncates into the byte
// screen buffer.
func (vm *VM) execOutput() error {
	c, err := vm.pop()
	if err != nil {
		return err
	}
	y, err := vm.pop()
	if err != nil {
		return err
	}
	x, err := vm.pop()
	if err != nil {
		return err
	}
	c, _ = vm.deref(c)
	y, _ = vm.deref(y)
	x, _ = vm.deref(x)
	if x.Type != VarInt || y.Type != VarInt || c.Type != VarInt {
		return vm.fail(ErrTypeMismatch)
	}
	if x.Int < 0 || x.Int >= vm.ScreenWidth || y.Int < 0 || y.Int >= vm.ScreenHeight {
		return vm.fail(ErrOverflow)
	}
	vm.Screen[y.Int*vm.ScreenWidth+x.Int] = byte(c.Int)
	return nil
}

// ReleaseInterrupt resumes a Step that suspended on Input/GetKey/Pause, per
// For Input, raw is parsed as an integer, then a float, then a bool,
// falling back to Int(-1), matching cbStep_ReleaseInterrupt; Pause simply
// clears the interrupt and otherwise ignores raw.
func (vm *VM) ReleaseInterrupt(raw string) error {
	var err error
	switch vm.InterruptState {
	case IntrNone:
		return nil
	case IntrPause:
	case IntrGetKey:
		var key int
		if len(raw) > 0 {
			key = int(raw[0])
		}
		err = vm.push(intVar(key))
	case IntrInput:
		err = vm.push(parseInputLiteral(raw))
	}
	if err != nil {
		return err
	}
	vm.InterruptState = IntrNone
	vm.Ticks++
	vm.InstructionPointer++
	return nil
}

func parseInputLiteral(raw string) Variable {
	if isInteger(raw) {
		n := 0
		for _, r := range raw {
			n = n*10 + int(r-'0')
		}
		return intVar(n)
	}
	if isFloatLit(raw) {
		if f, ok := parseFloatLit(raw); ok {
			return floatVar(f)
		}
	}
	if raw == "true" || raw == "false" {
		return boolVar(raw == "true")
	}
	return intVar(-1)
}

func translateEscapes(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == 'n' {
			out = append(out, '\n')
			i++
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// --- inspectors, part of the external surface ---

// InstructionCount reports the size of the linked Code segment.
func (vm *VM) InstructionCount() int { return len(vm.Code) }

// VariableCount reports the number of distinct variable slots reserved at
// link time.
func (vm *VM) VariableCount() int { return vm.VarCount }

// CurrentLine reports the source line the VM is currently executing.
func (vm *VM) CurrentLine() int { return vm.LineIndex }

// ScreenBuffer returns the VM's screen pixel buffer, row-major: index
// y*ScreenWidth+x holds the color last written by output(x, y, c).
func (vm *VM) ScreenBuffer() []byte { return vm.Screen }
