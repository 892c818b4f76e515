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

import "fmt"

const maxUint64 = ^uint64(0)

// ErrConfigNminGTNmax means nmin was set greater than nmax.
var ErrConfigNminGTNmax = fmt.Errorf("jam: nmin exceeds nmax")

// Filter composes the three orthogonal downsampling policies a Sketch is
// built under: fscale (fraction of hash space), kscale (post-filter
// retained/valid ratio) and nmin/nmax (per-record absolute bounds applied at
// finalization, not at admission time). A zero pointer means the
// corresponding policy is unset.
type Filter struct {
	Fscale *uint64
	Kscale *uint64
	Nmin   *uint64
	Nmax   *uint64
}

// NewFilter validates the four policy fields and returns a ready Filter.
// The only cross-field invariant enforced here is nmin<=nmax; everything
// else (fscale/kscale magnitudes) is accepted as-is; a scale of 0 is
// treated like an unset one and admits the full hash space.
func NewFilter(fscale, kscale, nmin, nmax *uint64) (*Filter, error) {
	if nmin != nil && nmax != nil && *nmin > *nmax {
		return nil, ErrConfigNminGTNmax
	}
	return &Filter{Fscale: fscale, Kscale: kscale, Nmin: nmin, Nmax: nmax}, nil
}

// hmax computes floor(2^64/scale)-1 for a set scale pointer, or the full
// hash space ceiling when unset. 2^64 itself overflows uint64, so it's
// derived from maxUint64 (=2^64-1): floor(2^64/s) is maxUint64/s when s
// doesn't evenly divide 2^64, and maxUint64/s + 1 when it does (remainder
// s-1, since maxUint64 = 2^64-1).
func hmax(scale *uint64) uint64 {
	if scale == nil || *scale == 0 {
		return maxUint64
	}
	s := *scale
	q := maxUint64 / s
	if maxUint64%s == s-1 {
		return q
	}
	return q - 1
}

// HMaxFscale is the admission ceiling fscale alone imposes; recorded
// verbatim in the Sketch header's fscale field (the raw scale, not HMax).
func (f *Filter) HMaxFscale() uint64 { return hmax(f.Fscale) }

// HMaxKscale is the admission ceiling kscale alone imposes.
func (f *Filter) HMaxKscale() uint64 { return hmax(f.Kscale) }

// HMax is the effective admission ceiling once both gates are composed:
// fscale is the hard gate, kscale a secondary gate on its survivors. Because
// both gates are simple "h<=ceiling" prefixes of hash space, composing them
// in sequence is equivalent to a single threshold at the smaller of the two
// ceilings; Admit still evaluates them as two explicit, ordered predicates
// so the precedence stays visible at the call site.
func (f *Filter) HMax() uint64 {
	hf, hk := f.HMaxFscale(), f.HMaxKscale()
	if hk < hf {
		return hk
	}
	return hf
}

// Admit reports whether h survives the fscale gate followed by the kscale
// gate. It does not know about nmin/nmax: those are applied once per record,
// at finalization, against the full set of admitted and rejected hashes.
func (f *Filter) Admit(h uint64) bool {
	if h > f.HMaxFscale() {
		return false
	}
	return h <= f.HMaxKscale()
}

// nminValue returns the configured nmin, or 0 if unset.
func (f *Filter) nminValue() uint64 {
	if f.Nmin == nil {
		return 0
	}
	return *f.Nmin
}

// nmaxValue returns the configured nmax, or maxUint64 if unset.
func (f *Filter) nmaxValue() uint64 {
	if f.Nmax == nil {
		return maxUint64
	}
	return *f.Nmax
}

// rejectHeapCap is the bound on the per-record rejection heap: large enough
// to satisfy the largest possible nmin extension, zero (no heap needed) when
// nmin is unset.
func (f *Filter) rejectHeapCap() int {
	if f.Nmin == nil {
		return 0
	}
	if *f.Nmin > uint64(int(^uint(0)>>1)) {
		return int(^uint(0) >> 1)
	}
	return int(*f.Nmin)
}
