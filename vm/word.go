/*
 * EVM - Tagged 32-bit word.
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

// Package vm implements the register-based bytecode interpreter: the tagged
// word type, the memory image format, and the fetch-decode-execute loop.
package vm

import "math"

// Word is the 32-bit container shared by every register and memory cell.
// The three views below reinterpret the same bits; they never convert
// numerically between them.
type Word uint32

// Int views the word as a two's complement signed integer.
func (w Word) Int() int32 {
	return int32(w)
}

// Uint views the word as an unsigned integer.
func (w Word) Uint() uint32 {
	return uint32(w)
}

// Float views the word as an IEEE-754 single precision float.
func (w Word) Float() float32 {
	return math.Float32frombits(uint32(w))
}

// WordFromInt packs a signed integer into a word.
func WordFromInt(i int32) Word {
	return Word(uint32(i))
}

// WordFromUint packs an unsigned integer into a word.
func WordFromUint(u uint32) Word {
	return Word(u)
}

// WordFromFloat packs a float into a word as its IEEE-754 bit pattern.
func WordFromFloat(f float32) Word {
	return Word(math.Float32bits(f))
}
