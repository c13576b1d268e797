/*
 * EVM Disassembler
 *
 * Copyright (c) 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a
 * copy of this software and associated documentation files (the "Software"),
 * to deal in the Software without restriction, including without limitation
 * the rights to use, copy, modify, merge, publish, distribute, sublicense,
 * and/or sell copies of the Software, and to permit persons to whom the
 * Software is furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
 * RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 */

// Package disassemble renders a memory image's data and code segments
// back into readable text, one line per word or instruction.
package disassemble

import (
	"fmt"
	"strings"

	"evm/util/hex"
	"evm/vm"
)

// Instruction renders one instruction starting at word address addr,
// returning the mnemonic-and-operands text and the instruction's
// length in words. An opcode outside [0, OpInvalid) aborts with a
// *vm.Fault of kind vm.IllegalInstruction rather than rendering
// placeholder text, matching the severity every other fault-producing
// path in this codebase already uses.
func Instruction(img *vm.Image, addr int) (string, int, error) {
	op := img.Get(addr)
	if op > vm.OpInvalid || op == vm.OpInvalid {
		return "", 0, &vm.Fault{
			Kind: vm.IllegalInstruction,
			Msg:  fmt.Sprintf("opcode %d at address %d", op, addr),
		}
	}

	name := vm.Name(op)
	kinds := vm.ArgKinds(op)
	inst := name + strings.Repeat(" ", max(1, 7-len(name)))

	operands := make([]string, 0, len(kinds))
	for i, kind := range kinds {
		w := img.Get(addr + 1 + i)
		operands = append(operands, formatOperand(kind, w))
	}
	inst += strings.Join(operands, ", ")
	return strings.TrimRight(inst, " "), 1 + len(kinds), nil
}

func formatOperand(kind vm.ArgKind, w vm.Word) string {
	switch kind {
	case vm.ArgReg:
		if w.Int() == 0 {
			return "sp"
		}
		return fmt.Sprintf("r%d", w.Int())
	case vm.ArgMem, vm.ArgCode:
		return fmt.Sprintf("%#x", w.Uint())
	case vm.ArgImmI:
		return fmt.Sprintf("%d", w.Int())
	case vm.ArgImmF:
		return fmt.Sprintf("%f", w.Float())
	default:
		return ""
	}
}

// Data renders one line of the data segment: address, hex, decimal,
// float reinterpretation, and an ASCII rendering of the word's bytes.
func Data(img *vm.Image, addr int) string {
	w := img.Get(addr)
	u := w.Uint()

	var hexStr strings.Builder
	hex.FormatWord(&hexStr, []uint32{u})

	bytes := [4]byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24)}
	ascii := make([]byte, 4)
	for i, b := range bytes {
		if b >= 0x20 && b < 0x7f {
			ascii[i] = b
		} else {
			ascii[i] = '.'
		}
	}
	return fmt.Sprintf("%04d  %s %-12d  %-14g  |%s|", addr, strings.TrimSpace(hexStr.String()), w.Int(), w.Float(), ascii)
}

// Listing renders a full program listing: every data word followed by
// every instruction in the code segment. markIP, if >= 0, draws a ">>"
// marker beside the instruction at that address, for use by an
// interactive stepper. It stops and returns an error as soon as
// Instruction reports an illegal opcode, rather than padding the
// remainder of the listing with placeholder text.
func Listing(img *vm.Image, markIP int) (string, error) {
	var b strings.Builder

	dstart, dend := img.DataRange()
	if dend > dstart {
		fmt.Fprintln(&b, "data:")
		for a := dstart; a < dend; a++ {
			fmt.Fprintln(&b, Data(img, a))
		}
	}

	cstart, cend := img.CodeRange()
	fmt.Fprintln(&b, "code:")
	for a := cstart; a < cend; {
		text, n, err := Instruction(img, a)
		if err != nil {
			return b.String(), err
		}

		words := make([]uint32, n)
		for i := 0; i < n && a+i < cend; i++ {
			words[i] = img.Get(a + i).Uint()
		}
		var hexStr strings.Builder
		hex.FormatWord(&hexStr, words)

		marker := "  "
		if a == markIP {
			marker = ">>"
		}
		fmt.Fprintf(&b, "%s %04d  %-36s %s\n", marker, a, strings.TrimSpace(hexStr.String()), text)
		a += n
	}
	return b.String(), nil
}
