/*
 * EVM - Memory image layout and validation.
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
	"encoding/binary"
	"fmt"
)

// Magic is the image sentinel: ('E'<<16)|('V'<<8)|'M'.
const Magic = uint32('E')<<16 | uint32('V')<<8 | uint32('M')

// Version is the only image format version this package reads or writes.
const Version = 1

// headerWords is the number of words preceding the data segment in the
// on-disk/on-wire layout. Logical addresses used throughout the
// interpreter, assembler, and disassembler never include this offset:
// word 0 of the data segment is always logical address 0.
const headerWords = 4

// Image is a validated, addressable memory: a data segment (doubling as
// the stack) followed by a code segment, addressed by logical word
// index starting at 0. Image owns no storage beyond the word slice
// handed to it; Load never copies.
type Image struct {
	Words   []Word // data segment followed by code segment; header stripped
	LenData int
	LenCode int
}

// Load validates a raw on-disk word buffer (header + data + code) and
// returns the addressable view over its data and code segments. words[0:4]
// is the header; words[4:] is data followed by code.
func Load(words []Word) (*Image, error) {
	if len(words) < headerWords {
		return nil, fmt.Errorf("ImageInvalid: buffer too small for header (%d words)", len(words))
	}

	magic := words[0].Uint()
	version := words[1].Uint()
	lenData := words[2].Int()
	lenCode := words[3].Int()

	if magic != Magic {
		return nil, fmt.Errorf("ImageInvalid: bad magic %06x", magic)
	}
	if version != Version {
		return nil, fmt.Errorf("ImageInvalid: unsupported version %d", version)
	}
	if lenData < 0 || lenCode < 0 {
		return nil, fmt.Errorf("ImageInvalid: negative segment length (data=%d code=%d)", lenData, lenCode)
	}

	need := headerWords + int(lenData) + int(lenCode)
	if need > len(words) {
		return nil, fmt.Errorf("ImageInvalid: header claims %d words, buffer holds %d", need, len(words))
	}

	img := &Image{
		Words:   words[headerWords:need],
		LenData: int(lenData),
		LenCode: int(lenCode),
	}
	return img, nil
}

// NewImage assembles a data segment and a code segment into a fresh
// Image, ready to run, disassemble, or serialize with Encode.
func NewImage(data, code []Word) *Image {
	words := make([]Word, len(data)+len(code))
	copy(words, data)
	copy(words[len(data):], code)
	return &Image{Words: words, LenData: len(data), LenCode: len(code)}
}

// DataRange returns the half-open logical-address range of the data
// segment (and, aliased, the stack).
func (img *Image) DataRange() (start, end int) {
	return 0, img.LenData
}

// CodeRange returns the half-open logical-address range of the code
// segment.
func (img *Image) CodeRange() (start, end int) {
	return img.LenData, img.LenData + img.LenCode
}

// InData reports whether a logical address lies within the data segment.
func (img *Image) InData(addr int) bool {
	return addr >= 0 && addr < img.LenData
}

// InCode reports whether a logical address lies within the code segment.
func (img *Image) InCode(addr int) bool {
	start, end := img.CodeRange()
	return addr >= start && addr < end
}

// Get reads the word at logical address addr, without bounds checking.
// Callers that need a fault on out-of-range access should check InData
// or InCode first.
func (img *Image) Get(addr int) Word {
	return img.Words[addr]
}

// Set writes the word at logical address addr, without bounds checking.
func (img *Image) Set(addr int, w Word) {
	img.Words[addr] = w
}

// Encode serializes the image to its little-endian on-disk byte layout,
// including the 4-word header.
func (img *Image) Encode() []byte {
	total := headerWords + len(img.Words)
	out := make([]byte, total*4)
	binary.LittleEndian.PutUint32(out[0:], Magic)
	binary.LittleEndian.PutUint32(out[4:], Version)
	binary.LittleEndian.PutUint32(out[8:], uint32(img.LenData))
	binary.LittleEndian.PutUint32(out[12:], uint32(img.LenCode))
	for i, w := range img.Words {
		binary.LittleEndian.PutUint32(out[(headerWords+i)*4:], w.Uint())
	}
	return out
}

// Decode parses the little-endian on-disk byte layout (header + data +
// code) into a word slice suitable for Load.
func Decode(b []byte) ([]Word, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("ImageInvalid: byte length %d is not word-aligned", len(b))
	}
	words := make([]Word, len(b)/4)
	for i := range words {
		words[i] = Word(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return words, nil
}
