/*
 * EVM - Assembler tests.
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

package assemble

import (
	"bytes"
	"strings"
	"testing"

	"evm/vm"
)

func TestAssembleMinimalProgram(t *testing.T) {
	// An empty data segment assembles fine but has no valid sp to start
	// from, so running it faults immediately rather than reaching stop.
	img, err := Assemble("start\nstop\n")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if img.LenData != 0 || img.LenCode != 1 {
		t.Fatalf("unexpected image shape: data=%d code=%d", img.LenData, img.LenCode)
	}
	st := vm.Run(img, vm.Options{})
	if st.Stopped || st.Err == nil || st.Err.Kind != vm.BadSP {
		t.Fatalf("expected BadSp fault, got %+v", st)
	}
}

func TestAssembleArithmeticAndPut(t *testing.T) {
	src := `zeros 1
start
set r1, 7
set r2, 5
sub r1, r2
put r1
stop
`
	img, err := Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	var out bytes.Buffer
	st := vm.Run(img, vm.Options{Stdout: &out})
	if st.Err != nil {
		t.Fatalf("run: %v", st.Err)
	}
	if got, want := out.String(), "2\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestAssembleDataSegmentAndLabel(t *testing.T) {
	src := `count: 42
zeros 3
start
ld r1, count
put r1
stop
`
	img, err := Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if img.LenData != 4 {
		t.Fatalf("len data = %d, want 4", img.LenData)
	}
	var out bytes.Buffer
	st := vm.Run(img, vm.Options{Stdout: &out})
	if st.Err != nil {
		t.Fatalf("run: %v", st.Err)
	}
	if got, want := out.String(), "42\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestAssembleForwardLabelInCode(t *testing.T) {
	src := `zeros 1
start
j skip
set r1, 9
skip: set r1, 1
put r1
stop
`
	img, err := Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	var out bytes.Buffer
	st := vm.Run(img, vm.Options{Stdout: &out})
	if st.Err != nil {
		t.Fatalf("run: %v", st.Err)
	}
	if got, want := out.String(), "1\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestAssembleFloatImmediateEmitsBitPattern(t *testing.T) {
	src := `zeros 1
start
fset r1, 1.5
fput r1
stop
`
	img, err := Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	var out bytes.Buffer
	st := vm.Run(img, vm.Options{Stdout: &out})
	if st.Err != nil {
		t.Fatalf("run: %v", st.Err)
	}
	if !strings.Contains(out.String(), "1.5") {
		t.Errorf("stdout = %q, want it to contain 1.5", out.String())
	}
}

func TestAssembleUndefinedLabelFails(t *testing.T) {
	src := "start\nj nowhere\nstop\n"
	if _, err := Assemble(src); err == nil {
		t.Fatalf("expected an error for an undefined label")
	}
}

func TestAssembleUnknownMnemonicFails(t *testing.T) {
	src := "start\nfrobnicate r1\nstop\n"
	_, err := Assemble(src)
	if err == nil {
		t.Fatalf("expected an error for an unknown mnemonic")
	}
	var aerr *Error
	if !asError(err, &aerr) {
		t.Fatalf("expected *assemble.Error, got %T", err)
	}
	if !strings.Contains(aerr.Context, "frobnicate") {
		t.Errorf("context window missing failing line: %q", aerr.Context)
	}
}

func TestAssembleMissingStartFails(t *testing.T) {
	if _, err := Assemble("42\n"); err == nil {
		t.Fatalf("expected an error for a missing start sentinel")
	}
}

func TestAssembleZerosDirective(t *testing.T) {
	src := "zeros 5\nstart\nstop\n"
	img, err := Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if img.LenData != 5 {
		t.Errorf("len data = %d, want 5", img.LenData)
	}
}

func TestAssembleRegisterOperandSp(t *testing.T) {
	src := "zeros 1\nstart\npush sp\nstop\n"
	if _, err := Assemble(src); err != nil {
		t.Fatalf("assemble: %v", err)
	}
}

func asError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if ok {
		*target = e
	}
	return ok
}
