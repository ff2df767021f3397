// Package bytecode packs and unpacks the 32-bit instruction words the
// interpreter dispatches on. Every instruction is register
// addressed; constants are referenced through the owning Fn's constant table.
package bytecode

import "fmt"

// Op is the 6-bit opcode embedded in the low bits of every instruction word.
type Op uint8

// Format names the instruction shape a given Op decodes as.
type Format string

const (
	// FormatABC packs A, B, C (B/C each carry an extra const-select bit).
	FormatABC Format = "iABC"
	// FormatABx packs A and an 18-bit unsigned Bx, used for constant/closure loads.
	FormatABx Format = "iABx"
	// FormatAsBx packs A and a sign-magnitude 17-bit sBx, used for CLASS/METHOD
	// sign-carrying fields.
	FormatAsBx Format = "iAsBx"
	// FormatJx packs a single signed 26-bit jump offset with no A register.
	FormatJx Format = "iJx"
	// FormatVBVC packs A plus a 6-bit vB/12-bit vC pair, used for method calls.
	FormatVBVC Format = "ivBvC"
)

const (
	// MOVE copies a value between registers: R[A] := R[B].
	MOVE Op = iota
	// LOADK loads a constant: R[A] := K[Bx] (shallow-copied if mutable).
	LOADK
	// LOADNULL sets R[A] := null.
	LOADNULL
	// LOADBOOL sets R[A] := bool(B); if C != 0, skips the next instruction.
	LOADBOOL
	// GETGLOBAL reads a module variable: R[A] := Module.vars[Bx].
	GETGLOBAL
	// SETGLOBAL writes a module variable: Module.vars[Bx] := R[A].
	SETGLOBAL
	// GETUPVAL reads an upvalue: R[A] := Upvalues[Bx].
	GETUPVAL
	// SETUPVAL writes an upvalue: Upvalues[Bx] := R[A].
	SETUPVAL
	// GETFIELD reads an instance field: R[A] := R[B].fields[C].
	GETFIELD
	// SETFIELD writes an instance field: R[B].fields[C] := R[A].
	SETFIELD
	// TEST skips the next instruction (which must be JUMP) unless
	// truthy(R[B]) == bool(C).
	TEST
	// JUMP adds a signed offset to the instruction pointer.
	JUMP
	// RETURN returns from the current frame; B==1 returns R[A], else null; C==1
	// marks a module-body return.
	RETURN
	// CALLK dispatches method symbol vC on R[A] with args R[A+1..A+vB].
	CALLK
	// CALLSUPERK is CALLK but resolves the method starting at the superclass
	// found in R[A+vB+1].
	CALLSUPERK
	// CLOSURE materializes a closure from prototype K[Bx] into R[A].
	CLOSURE
	// CLOSE closes every open upvalue at or above &R[A].
	CLOSE
	// CLASS creates a class: name R[A-1], superclass R[A], |sBx| fields,
	// negative sBx marks it foreign.
	CLASS
	// ENDCLASS attaches attributes from R[A] to the class in R[A+1].
	ENDCLASS
	// METHOD binds R[A-1] (closure or foreign signature string) as method
	// symbol |sBx| on class R[A]; negative sBx marks it static.
	METHOD
	// CONSTRUCT allocates an instance of class R[A]; Bx != 0 marks it foreign.
	CONSTRUCT
	// IMPORTMODULE loads (or finds cached) module K[Bx], leaving its body
	// closure (or existing value) in R[A].
	IMPORTMODULE
	// IMPORTVAR reads K[Bx] out of the most-recently-imported module into R[A].
	IMPORTVAR
	// ADD, SUB, MUL, DIV: R[A] := R[B] op R[C], both register operands.
	ADD
	SUB
	MUL
	DIV
	// ADDK, SUBK, MULK, DIVK: as above but one of B/C is a constant index,
	// selected by that operand's own K bit, preserving operand order.
	ADDK
	SUBK
	MULK
	DIVK
	// NEG negates R[B] into R[A]; NOT logically inverts it.
	NEG
	NOT
	// EQ, LT, LTE compare two registers; the following instruction is skipped
	// when the comparison is false. A is not compared with the result: on the
	// operator-overload path it names the register the call is staged in.
	EQ
	LT
	LTE
	// EQK, LTK, LTEK: as above with one operand possibly a constant.
	EQK
	LTK
	LTEK
	// ADDELEM appends R[C] (or K[C]) to the list in R[B].
	ADDELEM
	// ADDELEMK concatenates the elements of the list in R[C] (or K[C]) onto
	// the list in R[B] (list-literal spread); an operand that is not a List
	// adds nothing.
	ADDELEMK
	// ITERATE advances the iterator: R[A] := nextState(seq=R[B], it=R[C]) or
	// false to terminate.
	ITERATE
	// ITERATORVALUE reads the current element: R[A] := valueAt(seq=R[B], it=R[C]).
	ITERATORVALUE
	// GETSUB reads a subscript: R[A] := R[B][R[C] or K[C]].
	GETSUB
	// SETSUB writes a subscript: R[B][R[C] or K[C]] := R[A].
	SETSUB
	// RANGE builds a range: R[A] := Range(R[B], R[C], inclusive=bool(K)).
	RANGE
	// NOOP is a placeholder reserved for peephole patching.
	NOOP
)

var names = map[Op]string{
	MOVE: "MOVE", LOADK: "LOADK", LOADNULL: "LOADNULL", LOADBOOL: "LOADBOOL",
	GETGLOBAL: "GETGLOBAL", SETGLOBAL: "SETGLOBAL", GETUPVAL: "GETUPVAL", SETUPVAL: "SETUPVAL",
	GETFIELD: "GETFIELD", SETFIELD: "SETFIELD", TEST: "TEST", JUMP: "JUMP", RETURN: "RETURN",
	CALLK: "CALLK", CALLSUPERK: "CALLSUPERK", CLOSURE: "CLOSURE", CLOSE: "CLOSE",
	CLASS: "CLASS", ENDCLASS: "ENDCLASS", METHOD: "METHOD", CONSTRUCT: "CONSTRUCT",
	IMPORTMODULE: "IMPORTMODULE", IMPORTVAR: "IMPORTVAR",
	ADD: "ADD", SUB: "SUB", MUL: "MUL", DIV: "DIV",
	ADDK: "ADDK", SUBK: "SUBK", MULK: "MULK", DIVK: "DIVK",
	NEG: "NEG", NOT: "NOT", EQ: "EQ", LT: "LT", LTE: "LTE",
	EQK: "EQK", LTK: "LTK", LTEK: "LTEK",
	ADDELEM: "ADDELEM", ADDELEMK: "ADDELEMK", ITERATE: "ITERATE", ITERATORVALUE: "ITERATORVALUE",
	GETSUB: "GETSUB", SETSUB: "SETSUB", RANGE: "RANGE", NOOP: "NOOP",
}

// Packed field widths and bit offsets within a 32-bit instruction word.
const (
	opShift = 0
	opBits  = 6
	aShift  = opBits
	aBits   = 8
	bShift  = aShift + aBits // 14
	bBits   = 9
	cShift  = bShift + bBits // 23
	cBits   = 9

	bxShift = bShift // 14, spans B+C: 18 bits
	bxBits  = 18

	// within the 9-bit B/C fields: low 8 bits are the register/const index,
	// the top bit selects "this operand is a constant index" (mirrors luaf's
	// GetBK/GetCK packing).
	kFlagBit = 8

	vbShift = bShift // 14
	vbBits  = 6
	vcShift = vbShift + vbBits // 20
	vcBits  = 12

	maskOp  = (1 << opBits) - 1
	maskA   = (1 << aBits) - 1
	maskB   = (1 << bBits) - 1
	maskC   = (1 << cBits) - 1
	maskBx  = (1 << bxBits) - 1
	maskVB  = (1 << vbBits) - 1
	maskVC  = (1 << vcBits) - 1
	maskReg = (1 << kFlagBit) - 1 // 8-bit register/const index within B or C
)

// IABC packs a plain register-register-register instruction with no constants.
func IABC(op Op, a, b, c uint8) uint32 {
	return IABCK(op, a, b, false, c, false)
}

// IABCK packs an instruction where B and/or C may instead address the
// constant table; bK/cK set the respective top bit.
func IABCK(op Op, a, b uint8, bK bool, c uint8, cK bool) uint32 {
	word := uint32(op)&maskOp | uint32(a)&maskA<<aShift
	bField := uint32(b) & maskReg
	if bK {
		bField |= 1 << kFlagBit
	}
	cField := uint32(c) & maskReg
	if cK {
		cField |= 1 << kFlagBit
	}
	return word | bField<<bShift | cField<<cShift
}

// IABx packs an (A, unsigned 18-bit Bx) instruction.
func IABx(op Op, a uint8, bx uint32) uint32 {
	return uint32(op)&maskOp | uint32(a)&maskA<<aShift | (bx&maskBx)<<bxShift
}

// IAsBx packs an (A, signed sBx) instruction using sign-magnitude: the low 17
// bits of the Bx slot hold the magnitude, the top (31st) bit holds the sign.
func IAsBx(op Op, a uint8, sbx int32) uint32 {
	mag := sbx
	sign := uint32(0)
	if mag < 0 {
		sign = 1
		mag = -mag
	}
	return uint32(op)&maskOp | uint32(a)&maskA<<aShift |
		(uint32(mag)&((1<<17)-1))<<bxShift | sign<<31
}

// IsJx packs a signed 26-bit jump offset with no A register, two's complement.
func IsJx(op Op, offset int32) uint32 {
	const bits = 26
	return uint32(op)&maskOp | (uint32(offset)&((1<<bits)-1))<<aShift
}

// IvBvC packs an (A, vB, vC) method-call instruction.
func IvBvC(op Op, a uint8, vb uint8, vc uint16) uint32 {
	return uint32(op)&maskOp | uint32(a)&maskA<<aShift |
		(uint32(vb)&maskVB)<<vbShift | (uint32(vc)&maskVC)<<vcShift
}

// GetOp extracts the opcode.
func GetOp(w uint32) Op { return Op(w & maskOp) }

// GetA extracts the A register.
func GetA(w uint32) int64 { return int64(w >> aShift & maskA) }

// GetB extracts the raw B field's 8-bit index, ignoring the K flag.
func GetB(w uint32) int64 { return int64(w >> bShift & maskReg) }

// GetC extracts the raw C field's 8-bit index, ignoring the K flag.
func GetC(w uint32) int64 { return int64(w >> cShift & maskReg) }

// GetBK extracts B's index and whether it addresses the constant table.
func GetBK(w uint32) (int64, bool) {
	return int64(w >> bShift & maskReg), w>>bShift&(1<<kFlagBit) != 0
}

// GetCK extracts C's index and whether it addresses the constant table.
func GetCK(w uint32) (int64, bool) {
	return int64(w >> cShift & maskReg), w>>cShift&(1<<kFlagBit) != 0
}

// GetBx extracts the unsigned 18-bit Bx field.
func GetBx(w uint32) int64 { return int64(w >> bxShift & maskBx) }

// GetsBx extracts the sign-magnitude sBx field.
func GetsBx(w uint32) int64 {
	mag := int64(w >> bxShift & ((1 << 17) - 1))
	if w&(1<<31) != 0 {
		return -mag
	}
	return mag
}

// GetsJx extracts the signed 26-bit jump offset.
func GetsJx(w uint32) int64 {
	const bits = 26
	v := int64(w >> aShift & ((1 << bits) - 1))
	if v&(1<<(bits-1)) != 0 {
		v -= 1 << bits
	}
	return v
}

// GetVB extracts the 6-bit argument count field.
func GetVB(w uint32) int64 { return int64(w >> vbShift & maskVB) }

// GetVC extracts the 12-bit method-symbol field.
func GetVC(w uint32) int64 { return int64(w >> vcShift & maskVC) }

// Kind reports which field layout an opcode decodes as.
func Kind(w uint32) Format {
	switch GetOp(w) {
	case LOADK, CLOSURE, GETGLOBAL, SETGLOBAL, GETUPVAL, SETUPVAL,
		IMPORTMODULE, IMPORTVAR, CONSTRUCT:
		return FormatABx
	case CLASS, METHOD:
		return FormatAsBx
	case JUMP:
		return FormatJx
	case CALLK, CALLSUPERK:
		return FormatVBVC
	default:
		return FormatABC
	}
}

// ToString renders an instruction for debug dumps.
func ToString(w uint32) string {
	op := GetOp(w)
	name, ok := names[op]
	if !ok {
		name = "UNKNOWN"
	}
	switch Kind(w) {
	case FormatABx:
		return fmt.Sprintf("%-13s A=%d Bx=%d", name, GetA(w), GetBx(w))
	case FormatAsBx:
		return fmt.Sprintf("%-13s A=%d sBx=%d", name, GetA(w), GetsBx(w))
	case FormatJx:
		return fmt.Sprintf("%-13s sJx=%d", name, GetsJx(w))
	case FormatVBVC:
		return fmt.Sprintf("%-13s A=%d vB=%d vC=%d", name, GetA(w), GetVB(w), GetVC(w))
	default:
		b, bK := GetBK(w)
		c, cK := GetCK(w)
		return fmt.Sprintf("%-13s A=%d B=%d(k=%v) C=%d(k=%v)", name, GetA(w), b, bK, c, cK)
	}
}
