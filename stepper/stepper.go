/*
 * EVM - Interactive single-stepper.
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

// Package stepper implements an interactive, line-at-a-time session
// that alternates between rendering the machine state and executing
// one instruction.
package stepper

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/peterh/liner"

	"evm/disassemble"
	"evm/vm"
)

// session carries the state one command's process function needs:
// the image under inspection, the current status, and the options
// used to resume execution.
type session struct {
	img    *vm.Image
	opts   vm.Options
	status vm.Status
	first  bool
	out    io.Writer
	done   bool
}

type cmd struct {
	name    string
	min     int // minimum unambiguous abbreviation length
	process func(*session)
}

var cmdList = []cmd{
	{name: "step", min: 0, process: (*session).step},
	{name: "regs", min: 1, process: (*session).regs},
	{name: "quit", min: 1, process: (*session).quit},
}

// matchCommand reports whether name matches cmd's name, honoring the
// minimum-abbreviation-length contract (an empty name, from a blank
// line, always matches "step").
func matchCommand(c cmd, name string) bool {
	if name == "" {
		return c.name == "step"
	}
	if len(name) > len(c.name) {
		return false
	}
	if name != c.name[:len(name)] {
		return false
	}
	return len(name) >= c.min
}

func lookupCommand(name string) (cmd, bool) {
	var found cmd
	matches := 0
	for _, c := range cmdList {
		if matchCommand(c, name) {
			found = c
			matches++
		}
	}
	if matches != 1 {
		return cmd{}, false
	}
	return found, true
}

func (s *session) step() {
	if s.first {
		s.opts.Initial = nil
	} else {
		regs := s.status.Regs
		s.opts.Initial = &regs
	}
	s.status = vm.Run(s.img, s.opts)
	s.first = false
}

func (s *session) regs() {
	printRegisters(s.out, s.status.Regs)
}

func (s *session) quit() {
	s.done = true
}

// alt-screen escape sequences, matching the reference driver's
// terminal_state(): enter clears the screen and switches into the
// alternate buffer, exit clears it again and switches back.
const (
	altScreenEnter = "\x1b[2J\x1b[?1049h"
	altScreenExit  = "\x1b[2J\x1b[?1049l"
	clearScreen    = "\x1b[2J"
)

// Run drives an interactive stepping session over img, printing to out.
// It acquires the terminal for the duration of the session and
// guarantees release on every exit path, including a fault.
func Run(img *vm.Image, opts vm.Options, out io.Writer) vm.Status {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCmd)

	fmt.Fprint(out, altScreenEnter)
	defer fmt.Fprint(out, altScreenExit)

	opts.SingleStep = true
	s := &session{img: img, opts: opts, first: true, out: out}

	for {
		if !s.first {
			fmt.Fprint(out, clearScreen)
			listing, err := disassemble.Listing(img, int(s.status.Regs.IP.Int()))
			fmt.Fprintln(out, listing)
			printRegisters(out, s.status.Regs)
			if err != nil {
				fmt.Fprintln(out, "disassembly error: "+err.Error())
				return s.status
			}
		}
		if !s.first && (s.status.Stopped || s.status.Err != nil) {
			printOutcome(out, s.status)
			return s.status
		}

		input, err := line.Prompt("evm> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return s.status
			}
			slog.Error("error reading line: " + err.Error())
			return s.status
		}
		line.AppendHistory(input)

		name := strings.TrimSpace(input)
		c, ok := lookupCommand(name)
		if !ok {
			fmt.Fprintf(out, "unknown command %q (try step, regs, quit)\n", name)
			continue
		}
		c.process(s)
		if s.done {
			return s.status
		}
	}
}

// completeCmd offers every command name whose abbreviation prefix
// matches, for the liner completer.
func completeCmd(prefix string) []string {
	var out []string
	for _, c := range cmdList {
		if strings.HasPrefix(c.name, prefix) {
			out = append(out, c.name)
		}
	}
	return out
}

func printRegisters(out io.Writer, regs vm.Registers) {
	fmt.Fprintf(out, "ip=%d sp=%d", regs.IP.Int(), regs.SP().Int())
	for i := 1; i <= vm.N; i++ {
		fmt.Fprintf(out, " r%d=%d", i, regs.Regs[i].Int())
	}
	fmt.Fprintln(out)
}

func printOutcome(out io.Writer, status vm.Status) {
	if status.Err != nil {
		fmt.Fprintln(out, "fault: "+status.Err.Error())
		return
	}
	fmt.Fprintln(out, "program stopped")
}
