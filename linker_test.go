package corebasic

import "testing"

func TestLinkMissingLabel(t *testing.T) {
	sym := newSymbolTable()
	sym.emit(Instruction{Op: OpGoto})
	sym.pending = append(sym.pending, pendingJump{InstrIndex: 0, Label: "nowhere", Line: 1})
	_, err := link(sym, DefaultMemorySize, DefaultScreenWidth, DefaultScreenHeight)
	if err == nil {
		t.Fatal("got nil error, want MissingLabel")
	}
}

func TestLinkOverflow(t *testing.T) {
	sym := newSymbolTable()
	for i := 0; i < 10; i++ {
		sym.addData(intVar(i))
	}
	_, err := link(sym, 4, DefaultScreenWidth, DefaultScreenHeight)
	if err == nil {
		t.Fatal("got nil error, want Overflow")
	}
}

func TestLinkResolvesLabel(t *testing.T) {
	sym := newSymbolTable()
	gotoIdx := sym.emit(Instruction{Op: OpGoto})
	sym.pending = append(sym.pending, pendingJump{InstrIndex: gotoIdx, Label: "here", Line: 1})
	sym.addLabel("here", len(sym.instrs))
	sym.emit(Instruction{Op: OpHalt})

	vm, err := link(sym, DefaultMemorySize, DefaultScreenWidth, DefaultScreenHeight)
	if err != nil {
		t.Fatalf("link failed: %v", err)
	}
	// code layout: [AddStack, Goto, Halt, Halt(appended)]; the goto at
	// index 1 must land on the Halt at index 2.
	if vm.Code[1].Op != OpGoto {
		t.Fatalf("got %+v at index 1, want Goto", vm.Code[1])
	}
	target := 1 + vm.Code[1].Arg
	if vm.Code[target].Op != OpHalt {
		t.Fatalf("goto resolved to %+v, want Halt", vm.Code[target])
	}
}
