package corebasic

import (
	"github.com/pkg/errors"
)

// DefaultMemorySize is the cell count given to Compile when no WithMemorySize
// option is supplied.
const DefaultMemorySize = 4096

// link lowers a symbolTable into a runnable VM: variable slots are
// reserved by prepending an AddStack instruction, the program is terminated
// with a Halt, static data is copied into low memory, and every pending
// Goto/jump is resolved against the label table. A link-phase error aborts
// construction entirely; no partial VM is returned.
func link(sym *symbolTable, memSize int, screenW, screenH int) (*VM, error) {
	instrs := make([]Instruction, 0, len(sym.instrs)+2)
	instrs = append(instrs, Instruction{Op: OpAddStack, Arg: -len(sym.vars)})
	instrs = append(instrs, sym.instrs...)
	instrs = append(instrs, Instruction{Op: OpHalt})

	// The AddStack prelude shifts every instruction by one cell, but since
	// both a jump site and its target shift equally, the relative
	// displacement computed against sym.instrs indices is unaffected.
	const shift = 1

	if len(sym.data) > memSize {
		return nil, errors.Wrapf(RuntimeError{Kind: ErrOverflow}, "static data needs %d cells, memory size is %d", len(sym.data), memSize)
	}

	for _, pj := range sym.pending {
		target, ok := sym.findLabel(pj.Label)
		if !ok {
			return nil, errors.Wrapf(ParseError{Line: pj.Line, Kind: ErrMissingLabel}, "undefined label %q", pj.Label)
		}
		instrs[pj.InstrIndex+shift].Arg = target - pj.InstrIndex
	}

	vm := &VM{
		Code:             instrs,
		Strings:          append([]string(nil), sym.strings...),
		MemorySize:       memSize,
		DataVarCount:     len(sym.data),
		HeapPointer:      len(sym.data),
		VarCount:         len(sym.vars),
		StackBasePointer: memSize,
		StackPointer:     memSize,
		ScreenWidth:      screenW,
		ScreenHeight:     screenH,
		Screen:           make([]byte, screenW*screenH),
	}
	vm.cells.Limit = uint(memSize) + 1
	vm.tags.Limit = uint(memSize) + 1

	vals := make([]int, len(sym.data))
	tags := make([]int, len(sym.data))
	for i, d := range sym.data {
		tag, payload := d.encode()
		tags[i] = tag
		vals[i] = payload
	}
	if err := vm.cells.Stor(0, vals...); err != nil {
		return nil, errors.Wrap(err, "storing static data")
	}
	if err := vm.tags.Stor(0, tags...); err != nil {
		return nil, errors.Wrap(err, "storing static data tags")
	}

	return vm, nil
}
