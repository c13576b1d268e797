/*
 * EVM - Opcode table tests.
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

import "testing"

func TestOpcodeCount(t *testing.T) {
	if OpInvalid != 0x24 {
		t.Errorf("OpInvalid = %#x, want 0x24", int(OpInvalid))
	}
}

func TestLookupRoundTrip(t *testing.T) {
	for op := Word(0); op < OpInvalid; op++ {
		name := Name(op)
		got, ok := Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) not found for opcode %#x", name, int(op))
			continue
		}
		if got != op {
			t.Errorf("Lookup(%q) = %#x, want %#x", name, int(got), int(op))
		}
	}
}

func TestLookupUnknownMnemonic(t *testing.T) {
	if _, ok := Lookup("frobnicate"); ok {
		t.Errorf("expected unknown mnemonic to miss")
	}
}

func TestNArgsMatchesArgKinds(t *testing.T) {
	for op := Word(0); op < OpInvalid; op++ {
		if got, want := NArgs(op), len(ArgKinds(op)); got != want {
			t.Errorf("opcode %#x: NArgs=%d, len(ArgKinds)=%d", int(op), got, want)
		}
	}
}
