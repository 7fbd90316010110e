package corebasic

import "math"

// VarType tags the runtime value held by a Variable cell.
type VarType int

const (
	VarInt VarType = iota // zero value, so a zeroed cell reads as Int(0)
	VarFloat
	VarBool
	VarString
	VarOffset // an L-value: a cell displacement from StackBasePointer
)

func (t VarType) String() string {
	switch t {
	case VarInt:
		return "int"
	case VarFloat:
		return "float"
	case VarBool:
		return "bool"
	case VarString:
		return "string"
	case VarOffset:
		return "offset"
	default:
		return "unknown"
	}
}

// Variable is the tagged runtime value held by every stack and static-data
// cell. Only one of the typed accessors is meaningful at a time, chosen by
// Type; Offset doubles as the signed displacement for the VarOffset case.
type Variable struct {
	Type   VarType
	Int    int
	Float  float32
	Bool   bool
	StrID  int // VarString: index into the VM's string table
	Offset int // VarOffset: cell displacement from StackBasePointer
}

func intVar(v int) Variable    { return Variable{Type: VarInt, Int: v} }
func floatVar(v float32) Variable { return Variable{Type: VarFloat, Float: v} }
func boolVar(v bool) Variable   { return Variable{Type: VarBool, Bool: v} }
func stringVar(id int) Variable { return Variable{Type: VarString, StrID: id} }
func offsetVar(off int) Variable { return Variable{Type: VarOffset, Offset: off} }

// isZero reports whether v should be treated as boolean-false by the If
// opcode: zero int, zero float, or false bool. Anything else (in practice
// only reachable via a bug, since If type-checks first) is truthy.
func (v Variable) isZero() bool {
	switch v.Type {
	case VarInt:
		return v.Int == 0
	case VarFloat:
		return v.Float == 0
	case VarBool:
		return !v.Bool
	default:
		return false
	}
}

// encode packs a Variable into the two-int cell representation stored in
// the VM's backing memory: [0]=type tag, [1]=payload. Floats are carried as
// their IEEE-754 bit pattern so the cell stays an ordinary int pair.
func (v Variable) encode() (tag, payload int) {
	switch v.Type {
	case VarInt:
		return int(VarInt), v.Int
	case VarFloat:
		return int(VarFloat), int(math.Float32bits(v.Float))
	case VarBool:
		b := 0
		if v.Bool {
			b = 1
		}
		return int(VarBool), b
	case VarString:
		return int(VarString), v.StrID
	case VarOffset:
		return int(VarOffset), v.Offset
	default:
		return int(VarInt), 0
	}
}

func decodeVariable(tag, payload int) Variable {
	switch VarType(tag) {
	case VarFloat:
		return Variable{Type: VarFloat, Float: math.Float32frombits(uint32(payload))}
	case VarBool:
		return Variable{Type: VarBool, Bool: payload != 0}
	case VarString:
		return Variable{Type: VarString, StrID: payload}
	case VarOffset:
		return Variable{Type: VarOffset, Offset: payload}
	default:
		return Variable{Type: VarInt, Int: payload}
	}
}
