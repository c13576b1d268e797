/*
 * EVM - Default syscall bridge.
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

// Package syscalls provides a host-side implementation of the bridge
// the "syscall" opcode calls out to: r1 selects a function, r2 carries
// its argument, and the return value (where one exists) comes back in
// r2.
package syscalls

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"evm/vm"
)

const (
	Exit      = 0 // mark the session exited (Console.Exited); does not stop the interpreter
	PrintInt  = 1 // print r2 as a signed integer
	PrintFlt  = 2 // print r2 reinterpreted as a float
	ReadInt   = 3 // read a signed integer into r2
	PrintChar = 4 // print r2's low byte as a character
)

// Console bridges syscalls to a pair of streams, the way a terminal
// session does. Exited is set once the program issues syscall 0.
type Console struct {
	In     *bufio.Reader
	Out    io.Writer
	Exited bool
}

// NewConsole returns a Console wired to the given streams.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{In: bufio.NewReader(in), Out: out}
}

// Hook implements vm.SyscallHook.
func (c *Console) Hook(regs vm.Registers, img *vm.Image) vm.Registers {
	switch regs.Regs[1].Int() {
	case Exit:
		c.Exited = true

	case PrintInt:
		fmt.Fprintf(c.Out, "%d", regs.Regs[2].Int())

	case PrintFlt:
		fmt.Fprintf(c.Out, "%g", regs.Regs[2].Float())

	case PrintChar:
		fmt.Fprintf(c.Out, "%c", byte(regs.Regs[2].Int()))

	case ReadInt:
		var n int32
		if _, err := fmt.Fscan(c.In, &n); err != nil {
			slog.Error("syscall read failed: " + err.Error())
			n = 0
		}
		regs.Regs[2] = vm.WordFromInt(n)

	default:
		slog.Warn(fmt.Sprintf("unknown syscall number %d ignored", regs.Regs[1].Int()))
	}
	return regs
}
