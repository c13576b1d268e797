/*
 * EVM - Execution faults.
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

import "fmt"

// Kind identifies why execution stopped.
type Kind int

const (
	ImageInvalid Kind = iota
	BadIP
	BadSP
	BadRegister
	BadMemory
	BadCodeAddress
	NoSyscallHook
	UnknownOpcode
	DivByZero
	IllegalInstruction
)

func (k Kind) String() string {
	switch k {
	case ImageInvalid:
		return "ImageInvalid"
	case BadIP:
		return "BadIp"
	case BadSP:
		return "BadSp"
	case BadRegister:
		return "BadRegister"
	case BadMemory:
		return "BadMemory"
	case BadCodeAddress:
		return "BadCodeAddress"
	case NoSyscallHook:
		return "NoSyscallHook"
	case UnknownOpcode:
		return "UnknownOpcode"
	case DivByZero:
		return "DivByZero"
	case IllegalInstruction:
		return "IllegalInstruction"
	default:
		return "Unknown"
	}
}

// Fault reports why the interpreter halted, along with a snapshot of the
// register file at the moment of the fault so a caller can inspect the
// machine state without it being mutated further.
type Fault struct {
	Kind Kind
	Regs Registers
	Msg  string
}

func (f *Fault) Error() string {
	if f.Msg != "" {
		return fmt.Sprintf("%s: %s (ip=%08x)", f.Kind, f.Msg, f.Regs.IP)
	}
	return fmt.Sprintf("%s (ip=%08x)", f.Kind, f.Regs.IP)
}

func fault(kind Kind, regs Registers, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Regs: regs, Msg: fmt.Sprintf(format, args...)}
}
