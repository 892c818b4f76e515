// Copyright © 2018-2020 Wei Shen <shenwei356@gmail.com>
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

import (
	"fmt"

	"github.com/will-rowe/nthash"
)

// ErrInvalidK means k is outside [1,64].
var ErrInvalidK = fmt.Errorf("jam: invalid k-mer size")

// ErrShortSeq means the sequence is shorter than k.
var ErrShortSeq = fmt.Errorf("jam: sequence shorter than k")

const maxK = 64

// KmerIterator walks every overlapping window of a sequence, yielding the
// canonical hash of each window that contains only unambiguous bases. Windows
// that touch an N (or any other non-ACGTU symbol) are skipped and not
// counted by NumKmers; every emitted window is counted, whether or not a
// Filter admits its hash downstream.
//
// For k<=31 the forward code is tracked incrementally with the 2-bit packing
// from kmer.go (packShiftIn); the packed code is only ever used to
// reconstruct the byte window passed to the Hasher; the hash itself always
// runs over nucleotide bytes; for k in (31,64] the fast path is bypassed
// and both the window and its reverse complement are recomputed from raw
// bytes every step.
//
// Algorithm AlgoNtHash with seed 0 skips both of the above: it hands each
// maximal run of unambiguous bases to a single github.com/will-rowe/nthash.NTHi
// and drives it with repeated Next(true) calls, an O(1)-per-step rolling
// update rather than re-hashing the full forward and reverse-complement
// window from raw bytes on every step. With a non-zero seed AlgoNtHash takes
// the per-window paths above like any other Hasher.
type KmerIterator struct {
	seq    []byte
	k      int
	hasher Hasher
	seed   uint64

	packed  bool
	pos     int
	end     int // last valid start index, inclusive
	fwdCode uint64
	haveFwd bool

	useNtHash bool
	ntRuns    [][]byte
	ntRunIdx  int
	ntIter    *nthash.NTHi

	numKmers int
	done     bool
}

// NewKmerIterator validates k and the sequence length and returns an
// iterator positioned before the first window.
func NewKmerIterator(sequence []byte, k int, hasher Hasher, seed uint64) (*KmerIterator, error) {
	if k < 1 || k > maxK {
		return nil, ErrInvalidK
	}
	if len(sequence) < k {
		return nil, ErrShortSeq
	}

	cleaned := make([]byte, len(sequence))
	for i, b := range sequence {
		cleaned[i] = cleanBase(b)
	}

	it := &KmerIterator{
		seq:    cleaned,
		k:      k,
		hasher: hasher,
		seed:   seed,
		packed: k <= maxPackedK,
		pos:    0,
		end:    len(cleaned) - k,
	}
	if hasher != nil && hasher.Algorithm() == AlgoNtHash && seed == 0 {
		it.useNtHash = true
		it.ntRuns = acgtRuns(cleaned, k)
	}
	return it, nil
}

// acgtRuns splits seq into its maximal runs of unambiguous bases at least k
// long - the spans nthash.NTHi can roll across without crossing a skipped,
// invalidating base.
func acgtRuns(seq []byte, k int) [][]byte {
	var runs [][]byte
	start := -1
	for i, b := range seq {
		if _, ok := base2bit(b); ok {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			if i-start >= k {
				runs = append(runs, seq[start:i])
			}
			start = -1
		}
	}
	if start != -1 && len(seq)-start >= k {
		runs = append(runs, seq[start:])
	}
	return runs
}

// NumKmers reports how many valid (unambiguous) windows have been produced
// so far, i.e. the count a Filter's num_kmers statistic accumulates.
func (it *KmerIterator) NumKmers() int {
	return it.numKmers
}

// Next advances to the next unambiguous window and returns its canonical
// hash, min(hash(forward), hash(reverse-complement)). ok is false once the
// sequence is exhausted.
func (it *KmerIterator) Next() (hash uint64, ok bool) {
	if it.done {
		return 0, false
	}
	if it.useNtHash {
		return it.nextNtHash()
	}
	if it.packed {
		return it.nextPacked()
	}
	return it.nextUnpacked()
}

// nextNtHash advances within the current run's nthash.NTHi, rolling to the
// next maximal unambiguous run once the current one is exhausted.
func (it *KmerIterator) nextNtHash() (hash uint64, ok bool) {
	for {
		if it.ntIter != nil {
			code, ok := it.ntIter.Next(true)
			if ok {
				it.numKmers++
				return code, true
			}
			it.ntIter = nil
		}
		if it.ntRunIdx >= len(it.ntRuns) {
			it.done = true
			return 0, false
		}
		run := it.ntRuns[it.ntRunIdx]
		it.ntRunIdx++
		iter, err := nthash.NewHasher(&run, uint(it.k))
		if err != nil {
			continue
		}
		it.ntIter = iter
	}
}

func (it *KmerIterator) nextPacked() (hash uint64, ok bool) {
	for it.pos <= it.end {
		window := it.seq[it.pos : it.pos+it.k]

		var code uint64
		var valid bool
		if it.haveFwd {
			code, valid = packShiftIn(it.fwdCode, it.k, window[it.k-1])
		}
		if !it.haveFwd || !valid {
			code, valid = packEncode(window)
		}

		it.pos++
		if !valid {
			it.haveFwd = false
			continue
		}
		it.fwdCode = code
		it.haveFwd = true
		it.numKmers++

		fwdBytes := packDecode(code, it.k)
		rcBytes := packDecode(packRevComp(code, it.k), it.k)
		return it.canonicalHash(fwdBytes, rcBytes), true
	}
	it.done = true
	return 0, false
}

func (it *KmerIterator) nextUnpacked() (hash uint64, ok bool) {
	for it.pos <= it.end {
		window := it.seq[it.pos : it.pos+it.k]
		it.pos++

		if !allACGT(window) {
			continue
		}
		it.numKmers++
		return it.canonicalHash(window, reverseComplement(window)), true
	}
	it.done = true
	return 0, false
}

func (it *KmerIterator) canonicalHash(fwd, rc []byte) uint64 {
	hf := it.hasher.Hash(fwd, it.seed)
	hr := it.hasher.Hash(rc, it.seed)
	if hr < hf {
		return hr
	}
	return hf
}

func allACGT(window []byte) bool {
	for _, b := range window {
		if _, ok := base2bit(b); !ok {
			return false
		}
	}
	return true
}
