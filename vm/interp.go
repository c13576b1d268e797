/*
 * EVM - Fetch-decode-execute loop.
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

import (
	"fmt"
	"io"
)

// Registers is the machine's visible state: the instruction pointer and
// the N+1 general slots, where slot 0 is the stack pointer. Index 0 is
// never addressed as a "general" register by the assembler, but it is
// reachable through the same Regs array the interpreter checks operands
// against, per the reference's union-of-sp-and-r0 layout.
type Registers struct {
	IP   Word
	Regs [N + 1]Word
}

// SP returns the stack pointer, register index 0.
func (r Registers) SP() Word { return r.Regs[0] }

// SetSP sets the stack pointer, register index 0.
func (r *Registers) SetSP(w Word) { r.Regs[0] = w }

// SyscallHook bridges a `syscall` instruction to host-supplied behavior.
// It runs synchronously and returns the register file that replaces the
// interpreter's current one; any memory effects are applied directly to
// img before the hook returns.
type SyscallHook func(regs Registers, img *Image) Registers

// Status is the result of a Run invocation.
type Status struct {
	Regs    Registers
	Stopped bool
	Err     *Fault
}

// Options configures a single Run invocation.
type Options struct {
	Hook       SyscallHook
	Initial    *Registers
	SingleStep bool
	Unsafe     bool
	Stdout     io.Writer
}

// Run executes img's code segment from the current instruction pointer
// until a stop instruction, a fault, or (with SingleStep) one instruction
// has executed. The caller-owned image is mutated in place.
func Run(img *Image, opts Options) Status {
	var regs Registers
	if opts.Initial != nil {
		regs = *opts.Initial
	} else {
		start, _ := img.CodeRange()
		_, dend := img.DataRange()
		regs.IP = WordFromInt(int32(start))
		regs.SetSP(WordFromInt(int32(dend - 1)))
	}

	out := opts.Stdout
	if out == nil {
		out = io.Discard
	}

	for {
		ip := int(regs.IP.Int())

		if !opts.Unsafe && !img.InCode(ip) {
			return Status{Regs: regs, Err: fault(BadIP, regs, "ip=%d outside code segment", ip)}
		}
		if sp := int(regs.SP().Int()); !opts.Unsafe && !img.InData(sp) {
			return Status{Regs: regs, Err: fault(BadSP, regs, "sp=%d outside data segment", sp)}
		}

		op := img.Get(ip)
		if op > OpInvalid {
			return Status{Regs: regs, Err: fault(UnknownOpcode, regs, "opcode %d", op)}
		}

		nargs := NArgs(op)
		var arg1, arg2 Word
		if nargs >= 1 {
			arg1 = img.Get(ip + 1)
		}
		if nargs >= 2 {
			arg2 = img.Get(ip + 2)
		}

		jumped := false

		chkreg := func(x Word) (int, *Fault) {
			idx := int(x.Int())
			if !opts.Unsafe && (idx < 0 || idx > N) {
				return 0, fault(BadRegister, regs, "register %d out of range", idx)
			}
			return idx, nil
		}
		chkmem := func(x Word) (int, *Fault) {
			idx := int(x.Int())
			if !opts.Unsafe && !img.InData(idx) {
				return 0, fault(BadMemory, regs, "address %d outside data segment", idx)
			}
			return idx, nil
		}
		chkcod := func(x Word) (int, *Fault) {
			idx := int(x.Int())
			if !opts.Unsafe && !img.InCode(idx) {
				return 0, fault(BadCodeAddress, regs, "address %d outside code segment", idx)
			}
			return idx, nil
		}
		var ferr *Fault

		switch op {
		case OpStop:
			return Status{Regs: regs, Stopped: true}

		case OpNop:
			// no-op

		case OpSyscall:
			if opts.Hook == nil {
				return Status{Regs: regs, Err: fault(NoSyscallHook, regs, "syscall with no hook installed")}
			}
			regs = opts.Hook(regs, img)

		case OpLd:
			r, e1 := chkreg(arg1)
			m, e2 := chkmem(arg2)
			if ferr = firstFault(e1, e2); ferr == nil {
				regs.Regs[r] = img.Get(m)
			}

		case OpSt:
			m, e1 := chkmem(arg1)
			r, e2 := chkreg(arg2)
			if ferr = firstFault(e1, e2); ferr == nil {
				img.Set(m, regs.Regs[r])
			}

		case OpSet:
			r, e1 := chkreg(arg1)
			if ferr = firstFault(e1); ferr == nil {
				regs.Regs[r] = arg2
			}

		case OpFset:
			r, e1 := chkreg(arg1)
			if ferr = firstFault(e1); ferr == nil {
				regs.Regs[r] = arg2
			}

		case OpCpy:
			rd, e1 := chkreg(arg1)
			rs, e2 := chkreg(arg2)
			if ferr = firstFault(e1, e2); ferr == nil {
				regs.Regs[rd] = regs.Regs[rs]
			}

		case OpPush:
			r, e1 := chkreg(arg1)
			if ferr = firstFault(e1); ferr == nil {
				sp := int(regs.SP().Int())
				img.Set(sp, regs.Regs[r])
				regs.SetSP(WordFromInt(int32(sp - 1)))
			}

		case OpPop:
			r, e1 := chkreg(arg1)
			if ferr = firstFault(e1); ferr == nil {
				sp := int(regs.SP().Int())
				regs.Regs[r] = img.Get(sp)
				regs.SetSP(WordFromInt(int32(sp + 1)))
			}

		case OpAdd, OpSub, OpMul, OpDiv:
			rd, e1 := chkreg(arg1)
			rs, e2 := chkreg(arg2)
			if ferr = firstFault(e1, e2); ferr == nil {
				a, b := regs.Regs[rd].Int(), regs.Regs[rs].Int()
				switch op {
				case OpAdd:
					regs.Regs[rd] = WordFromInt(a + b)
				case OpSub:
					regs.Regs[rd] = WordFromInt(a - b)
				case OpMul:
					regs.Regs[rd] = WordFromInt(a * b)
				case OpDiv:
					if b == 0 {
						ferr = fault(DivByZero, regs, "division by zero")
					} else {
						regs.Regs[rd] = WordFromInt(a / b)
					}
				}
			}

		case OpFadd, OpFsub, OpFmul, OpFdiv:
			rd, e1 := chkreg(arg1)
			rs, e2 := chkreg(arg2)
			if ferr = firstFault(e1, e2); ferr == nil {
				a, b := regs.Regs[rd].Float(), regs.Regs[rs].Float()
				switch op {
				case OpFadd:
					regs.Regs[rd] = WordFromFloat(a + b)
				case OpFsub:
					regs.Regs[rd] = WordFromFloat(a - b)
				case OpFmul:
					regs.Regs[rd] = WordFromFloat(a * b)
				case OpFdiv:
					regs.Regs[rd] = WordFromFloat(a / b)
				}
			}

		case OpNot:
			r, e1 := chkreg(arg1)
			if ferr = firstFault(e1); ferr == nil {
				regs.Regs[r] = WordFromUint(^regs.Regs[r].Uint())
			}

		case OpLnot:
			r, e1 := chkreg(arg1)
			if ferr = firstFault(e1); ferr == nil {
				if regs.Regs[r].Int() == 0 {
					regs.Regs[r] = WordFromInt(1)
				} else {
					regs.Regs[r] = WordFromInt(0)
				}
			}

		case OpAnd, OpOr, OpXor:
			rd, e1 := chkreg(arg1)
			rs, e2 := chkreg(arg2)
			if ferr = firstFault(e1, e2); ferr == nil {
				a, b := regs.Regs[rd].Uint(), regs.Regs[rs].Uint()
				switch op {
				case OpAnd:
					regs.Regs[rd] = WordFromUint(a & b)
				case OpOr:
					regs.Regs[rd] = WordFromUint(a | b)
				case OpXor:
					regs.Regs[rd] = WordFromUint(a ^ b)
				}
			}

		case OpJp, OpJpz, OpJz, OpJn, OpJnz:
			r, e1 := chkreg(arg1)
			m, e2 := chkcod(arg2)
			if ferr = firstFault(e1, e2); ferr == nil {
				v := regs.Regs[r].Int()
				take := false
				switch op {
				case OpJp:
					take = v > 0
				case OpJpz:
					take = v >= 0
				case OpJz:
					take = v == 0
				case OpJn:
					take = v < 0
				case OpJnz:
					// Preserves the reference's behavior: despite the
					// mnemonic, this takes the jump on r <= 0.
					take = v <= 0
				}
				if take {
					regs.IP = WordFromInt(int32(m))
					jumped = true
				}
			}

		case OpJ:
			m, e1 := chkcod(arg1)
			if ferr = firstFault(e1); ferr == nil {
				regs.IP = WordFromInt(int32(m))
				jumped = true
			}

		case OpCvtfi:
			r, e1 := chkreg(arg1)
			if ferr = firstFault(e1); ferr == nil {
				regs.Regs[r] = WordFromInt(int32(regs.Regs[r].Float()))
			}

		case OpCvtif:
			r, e1 := chkreg(arg1)
			if ferr = firstFault(e1); ferr == nil {
				regs.Regs[r] = WordFromFloat(float32(regs.Regs[r].Int()))
			}

		case OpPut:
			r, e1 := chkreg(arg1)
			if ferr = firstFault(e1); ferr == nil {
				fmt.Fprintf(out, "%d\n", regs.Regs[r].Int())
			}

		case OpFput:
			r, e1 := chkreg(arg1)
			if ferr = firstFault(e1); ferr == nil {
				fmt.Fprintf(out, "%f\n", regs.Regs[r].Float())
			}

		case OpLda:
			r, e1 := chkreg(arg1)
			m, e2 := chkmem(arg2)
			if ferr = firstFault(e1, e2); ferr == nil {
				regs.Regs[r] = WordFromInt(int32(m))
			}

		case OpLdd:
			rd, e1 := chkreg(arg1)
			ra, e2 := chkreg(arg2)
			if ferr = firstFault(e1, e2); ferr == nil {
				addr := int(regs.Regs[ra].Int())
				m, e3 := chkmem(WordFromInt(int32(addr)))
				if ferr = e3; ferr == nil {
					regs.Regs[rd] = img.Get(m)
				}
			}

		case OpStd:
			ra, e1 := chkreg(arg1)
			rs, e2 := chkreg(arg2)
			if ferr = firstFault(e1, e2); ferr == nil {
				addr := int(regs.Regs[ra].Int())
				m, e3 := chkmem(WordFromInt(int32(addr)))
				if ferr = e3; ferr == nil {
					img.Set(m, regs.Regs[rs])
				}
			}

		default:
			return Status{Regs: regs, Err: fault(UnknownOpcode, regs, "opcode %d", op)}
		}

		if ferr != nil {
			return Status{Regs: regs, Err: ferr}
		}

		if !jumped {
			regs.IP = WordFromInt(int32(ip + 1 + nargs))
		}

		if opts.SingleStep {
			return Status{Regs: regs}
		}
	}
}

func firstFault(errs ...*Fault) *Fault {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
