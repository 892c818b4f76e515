// Copyright © 2018 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package jam

import "errors"

// ErrIllegalBase means a byte outside {A,C,G,T,U} (case-insensitive) was
// found where a strict nucleotide base was required.
var ErrIllegalBase = errors.New("jam: illegal base")

// ErrKOverflow means k is outside the range the 2-bit fast path supports.
var ErrKOverflow = errors.New("jam: k (1-31) overflow")

// maxPackedK is the largest k-mer size that fits in a uint64 2-bit code.
// Sizes up to 64 fall back to byte-slice handling in KmerIterator.
const maxPackedK = 31

// base2bit maps an uppercased, U-normalized base to its 2-bit code.
// Degenerate IUPAC symbols are rejected rather than collapsed to a single
// base: a sketcher must poison a window on any ambiguity instead of
// silently narrowing it.
func base2bit(b byte) (uint64, bool) {
	switch b {
	case 'A':
		return 0, true
	case 'C':
		return 1, true
	case 'G':
		return 2, true
	case 'T':
		return 3, true
	default:
		return 0, false
	}
}

var bit2base = [4]byte{'A', 'C', 'G', 'T'}

// cleanBase uppercases a letter and maps U/u to T. Non-letter bytes are
// passed through unchanged; base2bit rejects anything outside A/C/G/T.
func cleanBase(b byte) byte {
	switch b {
	case 'a':
		return 'A'
	case 'c':
		return 'C'
	case 'g':
		return 'G'
	case 't', 'u', 'U':
		return 'T'
	case 'A', 'C', 'G', 'T':
		return b
	default:
		if b >= 'a' && b <= 'z' {
			return b - ('a' - 'A')
		}
		return b
	}
}

// packEncode packs a cleaned (upper-case, U->T already applied) k-mer of
// length k<=maxPackedK into a 2-bit code, most significant base first.
func packEncode(kmer []byte) (code uint64, ok bool) {
	for i := range kmer {
		c, valid := base2bit(kmer[i])
		if !valid {
			return 0, false
		}
		code |= c << uint((len(kmer)-1-i)*2)
	}
	return code, true
}

// packDecode is the inverse of packEncode.
func packDecode(code uint64, k int) []byte {
	kmer := make([]byte, k)
	for i := 0; i < k; i++ {
		kmer[k-1-i] = bit2base[code&3]
		code >>= 2
	}
	return kmer
}

// packShiftIn advances a packed code by one base: drop the oldest base,
// append the new one.
func packShiftIn(prevCode uint64, k int, newBase byte) (uint64, bool) {
	c, ok := base2bit(newBase)
	if !ok {
		return 0, false
	}
	mask := uint64(1)<<uint(k*2) - 1
	return ((prevCode << 2) | c) & mask, true
}

// packRevComp returns the code of the reverse complement of a packed k-mer.
func packRevComp(code uint64, k int) (c uint64) {
	for i := 0; i < k; i++ {
		c <<= 2
		c |= code&3 ^ 3
		code >>= 2
	}
	return
}

var baseComplement = [256]byte{}

func init() {
	for i := range baseComplement {
		baseComplement[i] = byte(i)
	}
	baseComplement['A'] = 'T'
	baseComplement['T'] = 'A'
	baseComplement['C'] = 'G'
	baseComplement['G'] = 'C'
}

// reverseComplement computes the reverse complement of a cleaned
// (upper-case, U->T) byte slice, for k-mers beyond the 2-bit fast path
// (k in (31,64]).
func reverseComplement(kmer []byte) []byte {
	n := len(kmer)
	rc := make([]byte, n)
	for i, b := range kmer {
		rc[n-1-i] = baseComplement[b]
	}
	return rc
}
