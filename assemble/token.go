/*
 * EVM - Source tokenizer.
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

// Package assemble implements the two-pass assembler: a streaming
// tokenizer plus a parser that lowers the line-oriented source grammar
// into a memory image.
package assemble

import (
	"strconv"
	"strings"
)

// TokKind tags the variant a Token holds.
type TokKind int

const (
	Invalid TokKind = iota
	FloatLit
	IntLit
	StringLit
	Id
	Comma
	Colon
	Eof
	Eol
)

// Token is one lexical unit of source. Exactly one of I, F, S is
// meaningful, selected by Kind.
type Token struct {
	Kind TokKind
	I    int32
	F    float32
	S    string
	Pos  int
}

// Tokenizer walks a source buffer one token at a time. It never
// allocates more than the token it is about to return; positions are
// byte offsets into the original source, used for error reporting.
type Tokenizer struct {
	src string
	pos int
}

// NewTokenizer returns a tokenizer positioned at the start of src.
func NewTokenizer(src string) *Tokenizer {
	return &Tokenizer{src: src}
}

// Pos returns the tokenizer's current byte offset into the source.
func (tz *Tokenizer) Pos() int {
	return tz.pos
}

func (tz *Tokenizer) peek() byte {
	if tz.pos >= len(tz.src) {
		return 0
	}
	return tz.src[tz.pos]
}

func (tz *Tokenizer) peekAt(off int) byte {
	if tz.pos+off >= len(tz.src) {
		return 0
	}
	return tz.src[tz.pos+off]
}

// skipSpace consumes blanks, tabs, and comments, but never a newline:
// line boundaries are significant to the grammar, so Eol is a real
// token rather than whitespace.
func (tz *Tokenizer) skipSpace() {
	for {
		switch tz.peek() {
		case ' ', '\t':
			tz.pos++
		case '#':
			for tz.peek() != '\n' && tz.peek() != '\r' && tz.peek() != 0 {
				tz.pos++
			}
		default:
			return
		}
	}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isAlnum(b byte) bool {
	return isAlpha(b) || isDigit(b)
}

// Next returns the next token in the stream. It returns Eof tokens
// forever once the source is exhausted, so callers may poll freely.
func (tz *Tokenizer) Next() Token {
	tz.skipSpace()
	start := tz.pos

	switch tz.peek() {
	case 0:
		return Token{Kind: Eof, Pos: start}
	case '\n', '\r':
		tz.pos++
		return Token{Kind: Eol, Pos: start}
	case ',':
		tz.pos++
		return Token{Kind: Comma, Pos: start}
	case ':':
		tz.pos++
		return Token{Kind: Colon, Pos: start}
	case '\'', '"':
		return tz.scanString(start)
	}

	if tz.peek() == '-' || isDigit(tz.peek()) {
		if tok, ok := tz.scanNumber(start); ok {
			return tok
		}
	}

	if isAlpha(tz.peek()) {
		return tz.scanIdent(start)
	}

	tz.pos++
	return Token{Kind: Invalid, Pos: start}
}

func (tz *Tokenizer) scanString(start int) Token {
	quote := tz.peek()
	tz.pos++
	contentStart := tz.pos
	for tz.peek() != quote && tz.peek() != '\n' && tz.peek() != 0 {
		tz.pos++
	}
	content := tz.src[contentStart:tz.pos]
	if tz.peek() == quote {
		tz.pos++
	}
	return Token{Kind: StringLit, S: content, Pos: start}
}

func (tz *Tokenizer) scanIdent(start int) Token {
	for isAlnum(tz.peek()) {
		tz.pos++
	}
	return Token{Kind: Id, S: tz.src[start:tz.pos], Pos: start}
}

// scanNumber consumes the longest valid numeric literal at the current
// position and classifies it as int or float. When a prefix parses as
// both, the longer consumption wins; on a tie, the integer reading
// wins, per the grammar's stated rule.
func (tz *Tokenizer) scanNumber(start int) (Token, bool) {
	intVal, intLen, intOK := scanIntLiteral(tz.src[start:])
	floatVal, floatLen, floatOK := scanFloatLiteral(tz.src[start:])

	if !intOK && !floatOK {
		return Token{}, false
	}

	// Longer consumption wins; on a tie the integer reading wins.
	if intOK && (!floatOK || intLen >= floatLen) {
		tz.pos = start + intLen
		return Token{Kind: IntLit, I: intVal, Pos: start}, true
	}
	tz.pos = start + floatLen
	return Token{Kind: FloatLit, F: floatVal, Pos: start}, true
}

// scanFloatLiteral consumes a strtof-compatible float from the front of
// s: optional sign, digits, optional '.' fraction, optional exponent.
func scanFloatLiteral(s string) (float32, int, bool) {
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	digitsStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	sawDigits := i > digitsStart
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			sawDigits = true
		}
	}
	if !sawDigits {
		return 0, 0, false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		e := i + 1
		if e < len(s) && (s[e] == '+' || s[e] == '-') {
			e++
		}
		digitsStart := e
		for e < len(s) && isDigit(s[e]) {
			e++
		}
		if e > digitsStart {
			i = e
		}
	}
	f, err := strconv.ParseFloat(s[:i], 32)
	if err != nil {
		return 0, 0, false
	}
	return float32(f), i, true
}

// scanIntLiteral consumes a strtol-compatible integer with automatic
// base detection (0x prefix for hex, leading 0 for octal, decimal
// otherwise) from the front of s. It reports how many bytes it consumed.
func scanIntLiteral(s string) (int32, int, bool) {
	i := 0
	neg := false
	if i < len(s) && s[i] == '-' {
		neg = true
		i++
	}
	digitsStart := i
	base := 10
	if i+1 < len(s) && s[i] == '0' && (s[i+1] == 'x' || s[i+1] == 'X') {
		base = 16
		i += 2
		digitsStart = i
	} else if i < len(s) && s[i] == '0' && i+1 < len(s) && isDigit(s[i+1]) {
		base = 8
		digitsStart = i
	}

	j := i
	for j < len(s) && isHexDigitForBase(s[j], base) {
		j++
	}
	if j == digitsStart && base != 8 {
		return 0, 0, false
	}
	if j == i && base == 8 {
		return 0, 0, false
	}

	text := s[digitsStart:j]
	if text == "" {
		if base == 16 {
			return 0, 0, false
		}
		text = "0"
	}
	v, err := strconv.ParseInt(text, base, 64)
	if err != nil {
		return 0, 0, false
	}
	if neg {
		v = -v
	}
	return int32(v), j, true
}

func isHexDigitForBase(b byte, base int) bool {
	switch base {
	case 16:
		return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
	case 8:
		return b >= '0' && b <= '7'
	default:
		return isDigit(b)
	}
}

// IsRegister reports whether tok spells a register name ("sp" or
// "r<digit>" with 1<=digit<=n), returning its index on success.
func IsRegister(tok Token, n int) (int, bool) {
	if tok.Kind != Id {
		return 0, false
	}
	if tok.S == "sp" {
		return 0, true
	}
	if len(tok.S) != 2 || tok.S[0] != 'r' || !isDigit(tok.S[1]) {
		return 0, false
	}
	idx := int(tok.S[1] - '0')
	if idx < 1 || idx > n {
		return 0, false
	}
	return idx, true
}

// lineOf returns the 1-based line number of the line containing byte
// offset pos, every line of src, and the 0-based index of that line in
// them, used for assembler error context windows.
func lineOf(src string, pos int) (lineNo int, lines []string, idx int) {
	lines = strings.Split(src, "\n")
	off := 0
	for i, l := range lines {
		if pos <= off+len(l) {
			return i + 1, lines, i
		}
		off += len(l) + 1
	}
	return len(lines), lines, len(lines) - 1
}
