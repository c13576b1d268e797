/*
 * EVM - Opcode table.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package vm

// N is the number of general-purpose registers. Register index 0 is
// always the stack pointer; general registers occupy 1..N.
const N = 4

const (
	OpStop Word = iota
	OpNop
	OpSyscall
	OpLd
	OpSt
	OpSet
	OpFset
	OpCpy
	OpPush
	OpPop
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpFadd
	OpFsub
	OpFmul
	OpFdiv
	OpNot
	OpAnd
	OpOr
	OpXor
	OpJp
	OpJpz
	OpJz
	OpJn
	OpJnz
	OpJ
	OpCvtfi
	OpCvtif
	OpPut
	OpFput
	OpLnot
	OpLda
	OpLdd
	OpStd
	OpInvalid
)

// ArgKind classifies how an instruction's argument word is interpreted.
// The kind is a static property of the opcode, never of the bits found
// at runtime.
type ArgKind int

const (
	ArgNone ArgKind = iota
	ArgReg
	ArgMem
	ArgCode
	ArgImmI
	ArgImmF
)

// opinfo describes one opcode's mnemonic and its fixed argument shape.
type opinfo struct {
	name string
	args []ArgKind
}

// opTable is indexed by opcode value; it is the single source of truth
// for argument count, argument interpretation, and mnemonic spelling
// shared by the assembler, the interpreter, and the disassembler.
var opTable = [OpInvalid + 1]opinfo{
	OpStop:    {"stop", nil},
	OpNop:     {"nop", nil},
	OpSyscall: {"syscall", nil},
	OpLd:      {"ld", []ArgKind{ArgReg, ArgMem}},
	OpSt:      {"st", []ArgKind{ArgMem, ArgReg}},
	OpSet:     {"set", []ArgKind{ArgReg, ArgImmI}},
	OpFset:    {"fset", []ArgKind{ArgReg, ArgImmF}},
	OpCpy:     {"cpy", []ArgKind{ArgReg, ArgReg}},
	OpPush:    {"push", []ArgKind{ArgReg}},
	OpPop:     {"pop", []ArgKind{ArgReg}},
	OpAdd:     {"add", []ArgKind{ArgReg, ArgReg}},
	OpSub:     {"sub", []ArgKind{ArgReg, ArgReg}},
	OpMul:     {"mul", []ArgKind{ArgReg, ArgReg}},
	OpDiv:     {"div", []ArgKind{ArgReg, ArgReg}},
	OpFadd:    {"fadd", []ArgKind{ArgReg, ArgReg}},
	OpFsub:    {"fsub", []ArgKind{ArgReg, ArgReg}},
	OpFmul:    {"fmul", []ArgKind{ArgReg, ArgReg}},
	OpFdiv:    {"fdiv", []ArgKind{ArgReg, ArgReg}},
	OpNot:     {"not", []ArgKind{ArgReg}},
	OpAnd:     {"and", []ArgKind{ArgReg, ArgReg}},
	OpOr:      {"or", []ArgKind{ArgReg, ArgReg}},
	OpXor:     {"xor", []ArgKind{ArgReg, ArgReg}},
	OpJp:      {"jp", []ArgKind{ArgReg, ArgCode}},
	OpJpz:     {"jpz", []ArgKind{ArgReg, ArgCode}},
	OpJz:      {"jz", []ArgKind{ArgReg, ArgCode}},
	OpJn:      {"jn", []ArgKind{ArgReg, ArgCode}},
	OpJnz:     {"jnz", []ArgKind{ArgReg, ArgCode}},
	OpJ:       {"j", []ArgKind{ArgCode}},
	OpCvtfi:   {"cvtfi", []ArgKind{ArgReg}},
	OpCvtif:   {"cvtif", []ArgKind{ArgReg}},
	OpPut:     {"put", []ArgKind{ArgReg}},
	OpFput:    {"fput", []ArgKind{ArgReg}},
	OpLnot:    {"lnot", []ArgKind{ArgReg}},
	OpLda:     {"lda", []ArgKind{ArgReg, ArgMem}},
	OpLdd:     {"ldd", []ArgKind{ArgReg, ArgReg}},
	OpStd:     {"std", []ArgKind{ArgReg, ArgReg}},
	OpInvalid: {"invalid", nil},
}

// mnemonics indexes opTable by name for the assembler.
var mnemonics = func() map[string]Word {
	m := make(map[string]Word, len(opTable))
	for op, info := range opTable {
		if op == int(OpInvalid) {
			continue
		}
		m[info.name] = Word(op)
	}
	return m
}()

// Lookup returns the opcode for a mnemonic and whether it was found.
func Lookup(mnemonic string) (Word, bool) {
	op, ok := mnemonics[mnemonic]
	return op, ok
}

// NArgs reports how many argument words the opcode takes, or -1 if the
// opcode is out of range.
func NArgs(op Word) int {
	if op > OpInvalid {
		return -1
	}
	return len(opTable[op].args)
}

// Name returns the opcode's mnemonic, or "invalid" if out of range.
func Name(op Word) string {
	if op > OpInvalid {
		return opTable[OpInvalid].name
	}
	return opTable[op].name
}

// ArgKinds returns the static argument-type vector for the opcode.
func ArgKinds(op Word) []ArgKind {
	if op > OpInvalid {
		return nil
	}
	return opTable[op].args
}
