/*
 * EVM - Interpreter tests.
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
	"bytes"
	"testing"
)

func asm(ops ...Word) []Word {
	return ops
}

func TestSmallestValidProgram(t *testing.T) {
	// A single data word gives sp a valid starting value; code is just stop.
	data := make([]Word, 1)
	img := NewImage(data, asm(OpStop))

	st := Run(img, Options{})
	if !st.Stopped {
		t.Fatalf("expected stopped, got %+v", st)
	}
	if st.Err != nil {
		t.Fatalf("unexpected fault: %v", st.Err)
	}
	if want := int32(img.LenData); st.Regs.IP.Int() != want {
		t.Errorf("ip = %d, want %d (stop returns before the post-dispatch advance)", st.Regs.IP.Int(), want)
	}
}

func TestZeroDataSegmentFaultsBadSp(t *testing.T) {
	// An empty data segment leaves sp = len_data - 1 = -1, which is out of
	// range before stop ever dispatches: the pre-dispatch sp check runs
	// unconditionally every cycle, exactly like the ip check.
	img := NewImage(nil, asm(OpStop))

	st := Run(img, Options{})
	if st.Stopped {
		t.Fatalf("expected fault, got stopped: %+v", st)
	}
	if st.Err == nil || st.Err.Kind != BadSP {
		t.Fatalf("expected BadSp fault, got %+v", st.Err)
	}
}

func TestIntegerArithmetic(t *testing.T) {
	// set r1, 7 / set r2, 5 / sub r1, r2 / put r1 / stop
	img := NewImage(make([]Word, 1), asm(
		OpSet, WordFromInt(1), WordFromInt(7),
		OpSet, WordFromInt(2), WordFromInt(5),
		OpSub, WordFromInt(1), WordFromInt(2),
		OpPut, WordFromInt(1),
		OpStop,
	))

	var out bytes.Buffer
	st := Run(img, Options{Stdout: &out})
	if st.Err != nil {
		t.Fatalf("unexpected fault: %v", st.Err)
	}
	if !st.Stopped {
		t.Fatalf("expected stopped")
	}
	if got, want := out.String(), "2\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestStackPushPopAddressing(t *testing.T) {
	// zeros 4 / start: set r1, 42 / push r1 / push r1 / pop r1 / pop r1 /
	// put r1 / stop
	//
	// push writes at the current sp then decrements it; pop reads at the
	// current sp then increments it. The first pop therefore reads the
	// adjacent slot the second push never touched, not the pushed value.
	// Two pushes followed by two pops leaves sp back at its starting value
	// -- still in range -- and the second pop reaches the
	// slot the second push actually wrote. This mirrors the reference
	// interpreter exactly.
	data := make([]Word, 4)
	img := NewImage(data, asm(
		OpSet, WordFromInt(1), WordFromInt(42),
		OpPush, WordFromInt(1),
		OpPush, WordFromInt(1),
		OpPop, WordFromInt(1),
		OpPop, WordFromInt(1),
		OpPut, WordFromInt(1),
		OpStop,
	))

	var out bytes.Buffer
	st := Run(img, Options{Stdout: &out})
	if st.Err != nil {
		t.Fatalf("unexpected fault: %v", st.Err)
	}
	if got, want := out.String(), "42\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestForwardLabelJump(t *testing.T) {
	// j end / (skipped) set r1,1 / end: set r1,2 / put r1 / stop
	img := NewImage(make([]Word, 1), asm(
		OpJ, WordFromInt(6),
		OpSet, WordFromInt(1), WordFromInt(1),
		OpSet, WordFromInt(1), WordFromInt(2),
		OpPut, WordFromInt(1),
		OpStop,
	))

	var out bytes.Buffer
	st := Run(img, Options{Stdout: &out})
	if st.Err != nil {
		t.Fatalf("unexpected fault: %v", st.Err)
	}
	if got, want := out.String(), "2\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestBadMemoryFaultOnIndirectStore(t *testing.T) {
	// r1 <- end_data (one past the data segment); std r1, r2 must fault.
	data := make([]Word, 2)
	img := NewImage(data, asm(
		OpSet, WordFromInt(1), WordFromInt(2),
		OpSet, WordFromInt(2), WordFromInt(9),
		OpStd, WordFromInt(1), WordFromInt(2),
	))

	st := Run(img, Options{})
	if st.Err == nil {
		t.Fatalf("expected fault, got none")
	}
	if st.Err.Kind != BadMemory {
		t.Errorf("fault kind = %v, want BadMemory", st.Err.Kind)
	}
	if st.Stopped {
		t.Errorf("stopped should be false on fault")
	}
}

func TestImageValidationRejectsOversizedHeader(t *testing.T) {
	words := []Word{Word(Magic), Word(Version), WordFromInt(10), WordFromInt(10)}
	if _, err := Load(words); err == nil {
		t.Fatalf("expected ImageInvalid for truncated buffer")
	}
}

func TestImageValidationRejectsBadMagic(t *testing.T) {
	img := NewImage(nil, asm(OpStop))
	words, err := Decode(img.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	words[0] = Word(Magic ^ 1)
	if _, err := Load(words); err == nil {
		t.Fatalf("expected ImageInvalid for bad magic")
	}
}

func TestDivByZeroFaults(t *testing.T) {
	img := NewImage(make([]Word, 1), asm(
		OpSet, WordFromInt(1), WordFromInt(1),
		OpSet, WordFromInt(2), WordFromInt(0),
		OpDiv, WordFromInt(1), WordFromInt(2),
	))
	st := Run(img, Options{})
	if st.Err == nil || st.Err.Kind != DivByZero {
		t.Fatalf("expected DivByZero fault, got %+v", st)
	}
}

func TestFloatDivByZeroDoesNotFault(t *testing.T) {
	img := NewImage(make([]Word, 1), asm(
		OpFset, WordFromInt(1), WordFromFloat(1),
		OpFset, WordFromInt(2), WordFromFloat(0),
		OpFdiv, WordFromInt(1), WordFromInt(2),
		OpStop,
	))
	st := Run(img, Options{})
	if st.Err != nil {
		t.Fatalf("float division by zero must not fault: %v", st.Err)
	}
}

func TestCvtfiTruncatesTowardZero(t *testing.T) {
	cases := []struct {
		in   float32
		want int32
	}{
		{3.9, 3},
		{-3.9, -3},
	}
	for _, c := range cases {
		img := NewImage(make([]Word, 1), asm(
			OpFset, WordFromInt(1), WordFromFloat(c.in),
			OpCvtfi, WordFromInt(1),
			OpStop,
		))
		st := Run(img, Options{})
		if st.Err != nil {
			t.Fatalf("unexpected fault: %v", st.Err)
		}
		if got := st.Regs.Regs[1].Int(); got != c.want {
			t.Errorf("cvtfi(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestJnzTakesJumpOnNonPositive(t *testing.T) {
	// This preserves the reference's mnemonic/semantics mismatch: jnz
	// reads "jump non-zero" but actually jumps when r <= 0.
	img := NewImage(make([]Word, 1), asm(
		OpSet, WordFromInt(1), WordFromInt(0),
		OpJnz, WordFromInt(1), WordFromInt(12),
		OpSet, WordFromInt(2), WordFromInt(1),
		OpPut, WordFromInt(2),
		OpStop,
	))
	var out bytes.Buffer
	st := Run(img, Options{Stdout: &out})
	if st.Err != nil {
		t.Fatalf("unexpected fault: %v", st.Err)
	}
	if out.Len() != 0 {
		t.Errorf("expected the put to be skipped by the taken jump, got %q", out.String())
	}
}

func TestSyscallWithoutHookFaults(t *testing.T) {
	img := NewImage(make([]Word, 1), asm(OpSyscall))
	st := Run(img, Options{})
	if st.Err == nil || st.Err.Kind != NoSyscallHook {
		t.Fatalf("expected NoSyscallHook fault, got %+v", st)
	}
}

func TestSyscallHookInvoked(t *testing.T) {
	img := NewImage(make([]Word, 1), asm(OpSyscall, OpStop))
	called := false
	hook := func(regs Registers, m *Image) Registers {
		called = true
		regs.Regs[1] = WordFromInt(99)
		return regs
	}
	st := Run(img, Options{Hook: hook})
	if !called {
		t.Fatalf("hook was not invoked")
	}
	if st.Regs.Regs[1].Int() != 99 {
		t.Errorf("hook's register update was not propagated")
	}
}

func TestSingleStepExecutesOneInstruction(t *testing.T) {
	img := NewImage(make([]Word, 1), asm(
		OpSet, WordFromInt(1), WordFromInt(1),
		OpSet, WordFromInt(1), WordFromInt(2),
		OpStop,
	))
	st := Run(img, Options{SingleStep: true})
	if st.Stopped || st.Err != nil {
		t.Fatalf("single step should not run to completion: %+v", st)
	}
	if st.Regs.Regs[1].Int() != 1 {
		t.Errorf("register = %d after one step, want 1", st.Regs.Regs[1].Int())
	}
	st = Run(img, Options{SingleStep: true, Initial: &st.Regs})
	if st.Regs.Regs[1].Int() != 2 {
		t.Errorf("register = %d after two steps, want 2", st.Regs.Regs[1].Int())
	}
}
