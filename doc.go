/* Package corebasic implements a small BASIC-like language: a tokenizer, a
recursive-descent parser, a bytecode compiler, a linker that lays the
compiled program into a fixed-size linear memory image, and a register-based
virtual machine that executes that image one instruction at a time.

The stages mirror a conventional toolchain:

	source text -> tokens -> lexical tree -> bytecode -> linear image -> VM

Tokenizing and parsing happen per source line (see token.go and lex.go); the
parser builds a lexical tree per line. The compiler (compiler.go) walks each
line's tree post-order, emitting instructions, static data, and local
variable slots into a shared compile-time symbolTable (symboltable.go), while
the linker (linker.go) keeps the instructions as a separate CODE slice and
lays static DATA into the low cells of a fixed-size cell store whose top
holds a downward-growing STACK.

The VM (vm.go) fetches one instruction at a time from CODE and
dispatches on its opcode. Three opcodes -- Input, GetKey, and Pause --
cooperatively suspend the VM by setting an interrupt state; the host
supplies the missing input via ReleaseInterrupt and execution resumes on the
next Step.

None of this owns a command-line loop or a graphical editor -- those are
host concerns. See cmd/corebasic for a minimal terminal driver.
*/
package corebasic
