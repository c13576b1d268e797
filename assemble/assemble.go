/*
 * EVM - Two-pass assembler.
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
	"fmt"
	"strings"

	"evm/vm"
)

// maxLabels bounds the label table, mirroring the reference's fixed
// 40-entry table.
const maxLabels = 40

// Error reports an assembly failure with a context window of up to four
// lines before and four lines after the failing source line, matching
// the reference tool's diagnostics.
type Error struct {
	Msg     string
	Line    int
	Context string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s\n%s", e.Line, e.Msg, e.Context)
}

func newError(src string, pos int, format string, args ...any) *Error {
	lineNo, lines, idx := lineOf(src, pos)
	lo := idx - 4
	if lo < 0 {
		lo = 0
	}
	hi := idx + 4
	if hi >= len(lines) {
		hi = len(lines) - 1
	}
	var b strings.Builder
	for i := lo; i <= hi; i++ {
		marker := "  "
		if i == idx {
			marker = "->"
		}
		fmt.Fprintf(&b, "%s %4d | %s\n", marker, i+1, lines[i])
	}
	return &Error{Msg: fmt.Sprintf(format, args...), Line: lineNo, Context: b.String()}
}

// labelTable is a bounded, first-insertion-wins mapping from identifier
// to word index.
type labelTable struct {
	names []string
	addrs []int
}

func (lt *labelTable) define(name string, addr int) {
	if _, ok := lt.lookup(name); ok {
		return // first insertion wins; duplicates are tolerated silently
	}
	if len(lt.names) >= maxLabels {
		return
	}
	lt.names = append(lt.names, name)
	lt.addrs = append(lt.addrs, addr)
}

func (lt *labelTable) lookup(name string) (int, bool) {
	for i, n := range lt.names {
		if n == name {
			return lt.addrs[i], true
		}
	}
	return 0, false
}

// Assemble lowers a complete source program (data section, "start",
// code section) into a memory image.
func Assemble(src string) (*vm.Image, error) {
	labels := &labelTable{}

	data, codeOffset, err := assembleData(src, labels)
	if err != nil {
		return nil, err
	}

	codeSrc := src[codeOffset:]

	if err := collectCodeLabels(codeSrc, len(data), labels); err != nil {
		return nil, err
	}

	code, err := emitCode(codeSrc, len(data), labels)
	if err != nil {
		return nil, err
	}

	return vm.NewImage(data, code), nil
}

// assembleData runs the single data pass: it walks lines until the
// sentinel "start" line, emitting words and recording labels, and
// returns the byte offset in src where the code section begins.
func assembleData(src string, labels *labelTable) ([]vm.Word, int, error) {
	tz := NewTokenizer(src)
	var data []vm.Word

	for {
		lineStart := tz.Pos()
		tok := tz.Next()

		for tok.Kind == Eol {
			lineStart = tz.Pos()
			tok = tz.Next()
		}

		if tok.Kind == Eof {
			return nil, 0, newError(src, lineStart, "missing \"start\" sentinel before end of file")
		}

		var label string
		if tok.Kind == Id && tok.S != "start" {
			save := tz.pos
			colon := tz.Next()
			if colon.Kind == Colon {
				label = tok.S
				tok = tz.Next()
			} else {
				tz.pos = save
			}
		}

		switch {
		case tok.Kind == Id && tok.S == "start" && label == "":
			eol := tz.Next()
			if eol.Kind != Eol && eol.Kind != Eof {
				return nil, 0, newError(src, tok.Pos, "expected end of line after \"start\"")
			}
			return data, tz.Pos(), nil

		case tok.Kind == Id && tok.S == "zeros":
			n := tz.Next()
			if n.Kind != IntLit {
				return nil, 0, newError(src, n.Pos, "\"zeros\" requires an integer count")
			}
			if label != "" {
				labels.define(label, len(data))
			}
			for i := int32(0); i < n.I; i++ {
				data = append(data, vm.Word(0))
			}
			if err := expectEol(tz, src); err != nil {
				return nil, 0, err
			}

		case tok.Kind == IntLit:
			if label != "" {
				labels.define(label, len(data))
			}
			data = append(data, vm.WordFromInt(tok.I))
			if err := expectEol(tz, src); err != nil {
				return nil, 0, err
			}

		case tok.Kind == FloatLit:
			if label != "" {
				labels.define(label, len(data))
			}
			data = append(data, vm.WordFromFloat(tok.F))
			if err := expectEol(tz, src); err != nil {
				return nil, 0, err
			}

		case tok.Kind == StringLit:
			if label != "" {
				labels.define(label, len(data))
			}
			data = append(data, packString(tok.S)...)
			if err := expectEol(tz, src); err != nil {
				return nil, 0, err
			}

		default:
			return nil, 0, newError(src, tok.Pos, "invalid line in data section")
		}
	}
}

// packString packs raw bytes four-per-word, little-endian byte order,
// zero-padding a trailing partial word.
func packString(s string) []vm.Word {
	n := (len(s) + 3) / 4
	out := make([]vm.Word, n)
	for i := 0; i < len(s); i++ {
		out[i/4] |= vm.Word(s[i]) << uint((i%4)*8)
	}
	return out
}

func expectEol(tz *Tokenizer, src string) error {
	tok := tz.Next()
	if tok.Kind != Eol && tok.Kind != Eof {
		return newError(src, tok.Pos, "unexpected trailing token on line")
	}
	return nil
}

// collectCodeLabels is code pass 1: it advances a running word position
// by 1+nargs per instruction and records every label, without emitting,
// so pass 2 can resolve forward references.
func collectCodeLabels(codeSrc string, base int, labels *labelTable) error {
	tz := NewTokenizer(codeSrc)
	pos := base

	for {
		lineStart := tz.Pos()
		tok := tz.Next()
		for tok.Kind == Eol {
			lineStart = tz.Pos()
			tok = tz.Next()
		}
		if tok.Kind == Eof {
			return nil
		}

		var label string
		if tok.Kind == Id {
			save := tz.pos
			colon := tz.Next()
			if colon.Kind == Colon {
				label = tok.S
				labels.define(label, pos)
				tok = tz.Next()
				for tok.Kind == Eol {
					lineStart = tz.Pos()
					tok = tz.Next()
				}
			} else {
				tz.pos = save
			}
		}

		if tok.Kind == Eof {
			return nil
		}
		if tok.Kind == Eol {
			continue
		}
		if tok.Kind != Id {
			return newError(codeSrc, lineStart, "expected mnemonic")
		}

		op, ok := vm.Lookup(tok.S)
		if !ok {
			return newError(codeSrc, tok.Pos, "unknown mnemonic %q", tok.S)
		}
		nargs := vm.NArgs(op)
		pos += 1 + nargs

		if err := skipOperands(tz, codeSrc, nargs); err != nil {
			return err
		}
	}
}

func skipOperands(tz *Tokenizer, src string, nargs int) error {
	for i := 0; i < nargs; i++ {
		tok := tz.Next()
		if tok.Kind == Invalid || tok.Kind == Eol || tok.Kind == Eof {
			return newError(src, tok.Pos, "missing operand")
		}
		if i < nargs-1 {
			comma := tz.Next()
			if comma.Kind != Comma {
				return newError(src, comma.Pos, "expected ','")
			}
		}
	}
	return expectEol(tz, src)
}

// emitCode is code pass 2: it re-scans the same source range and
// emits the opcode word and argument words for every instruction,
// resolving memory/code operands against the label table built by
// pass 1.
func emitCode(codeSrc string, base int, labels *labelTable) ([]vm.Word, error) {
	tz := NewTokenizer(codeSrc)
	var code []vm.Word

	for {
		lineStart := tz.Pos()
		tok := tz.Next()
		for tok.Kind == Eol {
			lineStart = tz.Pos()
			tok = tz.Next()
		}
		if tok.Kind == Eof {
			return code, nil
		}

		if tok.Kind == Id {
			save := tz.pos
			colon := tz.Next()
			if colon.Kind == Colon {
				tok = tz.Next()
				for tok.Kind == Eol {
					lineStart = tz.Pos()
					tok = tz.Next()
				}
			} else {
				tz.pos = save
			}
		}

		if tok.Kind == Eof {
			return code, nil
		}
		if tok.Kind == Eol {
			continue
		}
		if tok.Kind != Id {
			return nil, newError(codeSrc, lineStart, "expected mnemonic")
		}

		op, ok := vm.Lookup(tok.S)
		if !ok {
			return nil, newError(codeSrc, tok.Pos, "unknown mnemonic %q", tok.S)
		}

		code = append(code, op)
		kinds := vm.ArgKinds(op)
		for i, kind := range kinds {
			argTok := tz.Next()
			w, err := resolveOperand(codeSrc, argTok, kind, base, labels)
			if err != nil {
				return nil, err
			}
			code = append(code, w)
			if i < len(kinds)-1 {
				comma := tz.Next()
				if comma.Kind != Comma {
					return nil, newError(codeSrc, comma.Pos, "expected ','")
				}
			}
		}
		if err := expectEol(tz, codeSrc); err != nil {
			return nil, err
		}
	}
}

func resolveOperand(src string, tok Token, kind vm.ArgKind, base int, labels *labelTable) (vm.Word, error) {
	switch kind {
	case vm.ArgReg:
		idx, ok := IsRegister(tok, vm.N)
		if !ok {
			return 0, newError(src, tok.Pos, "expected a register operand")
		}
		return vm.WordFromInt(int32(idx)), nil

	case vm.ArgMem, vm.ArgCode:
		if tok.Kind == Id {
			addr, ok := labels.lookup(tok.S)
			if !ok {
				return 0, newError(src, tok.Pos, "undefined label %q", tok.S)
			}
			return vm.WordFromInt(int32(addr)), nil
		}
		if tok.Kind == IntLit {
			return vm.WordFromInt(tok.I), nil
		}
		return 0, newError(src, tok.Pos, "expected a memory address or label")

	case vm.ArgImmI:
		if tok.Kind != IntLit {
			return 0, newError(src, tok.Pos, "expected an integer immediate")
		}
		return vm.WordFromInt(tok.I), nil

	case vm.ArgImmF:
		if tok.Kind != FloatLit {
			return 0, newError(src, tok.Pos, "expected a float immediate")
		}
		// The reference contains a labeled bug here: it emits the
		// integer field of the token rather than the float field's bit
		// pattern. We emit the correct bit pattern, per the
		// specification's stated intent; see the design notes.
		return vm.WordFromFloat(tok.F), nil

	default:
		return 0, newError(src, tok.Pos, "opcode takes no such operand")
	}
}
