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
	"container/heap"
	"sort"
)

// RecordStats holds the optional per-record accumulator a Sketch may carry
// when built with --stats, matching the native codec's gc/length/a/c/g/t
// stats block. GCPercent and the base counts are computed over every base
// seen by the builder, independent of which k-mers were admitted.
type RecordStats struct {
	GCPercent float64
	Length    uint64
	A, C, G, T uint64
}

// RecordSketch is the retained-hash set and bookkeeping for one sequence
// record (singleton mode) or one whole input file (non-singleton mode).
type RecordSketch struct {
	ID       string
	Hashes   []uint64
	NumKmers int
	Stats    *RecordStats
}

// Sketch is the in-memory container for an ordered sequence of
// RecordSketch plus the policy parameters every record in it shares.
type Sketch struct {
	KmerSize  int
	Algorithm Algorithm

	Fscale uint64
	Kscale uint64
	Nmin   uint64
	Nmax   uint64

	Singleton bool
	HasStats  bool

	Source  string
	Records []RecordSketch
}

// rejectEntry is a candidate hash that failed Filter.Admit but might still
// be needed to satisfy an nmin extension at finalize time.
type rejectEntry struct {
	hash uint64
	seq  int
}

// rejectHeap is a bounded max-heap: Len() never exceeds its builder's cap,
// and the root is always the largest hash currently held, so a smaller
// incoming candidate can evict it in O(log cap).
type rejectHeap []rejectEntry

func (h rejectHeap) Len() int            { return len(h) }
func (h rejectHeap) Less(i, j int) bool  { return h[i].hash > h[j].hash }
func (h rejectHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *rejectHeap) Push(x interface{}) { *h = append(*h, x.(rejectEntry)) }
func (h *rejectHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// admitEntry records an admitted hash together with the global insertion
// sequence it arrived at, so the final record can be serialized in
// insertion order once nmax/nmin adjustments are applied.
type admitEntry struct {
	hash uint64
	seq  int
}

// recordBuilder accumulates one RecordSketch under a fixed Filter. It is
// not safe for concurrent use; SketchBuilder gives each in-flight record
// its own instance.
type recordBuilder struct {
	id     string
	filter *Filter

	admitted  map[uint64]admitEntry
	reject    rejectHeap
	rejectCap int
	nextSeq   int
	numKmers  int
	wantStats bool
	baseCount [4]uint64 // A,C,G,T, indexed by base2bit's code
	length    uint64
}

func newRecordBuilder(id string, filter *Filter, wantStats bool) *recordBuilder {
	return &recordBuilder{
		id:        id,
		filter:    filter,
		admitted:  make(map[uint64]admitEntry),
		rejectCap: filter.rejectHeapCap(),
		wantStats: wantStats,
	}
}

// Observe registers one valid (unambiguous) k-mer's canonical hash. It
// counts toward NumKmers regardless of the admission outcome.
func (b *recordBuilder) Observe(h uint64) {
	b.numKmers++
	seq := b.nextSeq
	b.nextSeq++

	if _, ok := b.admitted[h]; ok {
		return
	}
	if b.filter.Admit(h) {
		b.admitted[h] = admitEntry{hash: h, seq: seq}
		return
	}
	b.observeRejected(h, seq)
}

func (b *recordBuilder) observeRejected(h uint64, seq int) {
	if b.rejectCap == 0 {
		return
	}
	if b.reject.Len() < b.rejectCap {
		heap.Push(&b.reject, rejectEntry{hash: h, seq: seq})
		return
	}
	if h < b.reject[0].hash {
		heap.Pop(&b.reject)
		heap.Push(&b.reject, rejectEntry{hash: h, seq: seq})
	}
}

// ObserveBases feeds the record's raw sequence bytes into the base-
// composition accumulator. Called once per record when stats were
// requested; bases outside A/C/G/T (e.g. N) are counted in length but not
// in any of the four buckets.
func (b *recordBuilder) ObserveBases(seq []byte) {
	if !b.wantStats {
		return
	}
	b.length += uint64(len(seq))
	for _, raw := range seq {
		if code, ok := base2bit(cleanBase(raw)); ok {
			b.baseCount[code]++
		}
	}
}

// Finalize applies the nmax truncation and nmin extension rules and
// freezes the record. It must only be called once.
func (b *recordBuilder) Finalize() RecordSketch {
	entries := make([]admitEntry, 0, len(b.admitted))
	for _, e := range b.admitted {
		entries = append(entries, e)
	}

	nmax := b.filter.nmaxValue()
	if uint64(len(entries)) > nmax {
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].hash != entries[j].hash {
				return entries[i].hash < entries[j].hash
			}
			return entries[i].seq < entries[j].seq
		})
		entries = entries[:nmax]
	}

	nmin := b.filter.nminValue()
	target := nmin
	if uint64(b.numKmers) < target {
		target = uint64(b.numKmers)
	}
	if b.filter.Nmin != nil && uint64(len(entries)) < target {
		needed := int(target) - len(entries)
		candidates := make([]rejectEntry, len(b.reject))
		copy(candidates, b.reject)
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].hash != candidates[j].hash {
				return candidates[i].hash < candidates[j].hash
			}
			return candidates[i].seq < candidates[j].seq
		})
		for i := 0; i < len(candidates) && needed > 0; i++ {
			c := candidates[i]
			if i > 0 && c.hash == candidates[i-1].hash {
				continue
			}
			entries = append(entries, admitEntry{hash: c.hash, seq: c.seq})
			needed--
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	hashes := make([]uint64, len(entries))
	for i, e := range entries {
		hashes[i] = e.hash
	}

	rec := RecordSketch{ID: b.id, Hashes: hashes, NumKmers: b.numKmers}
	if b.wantStats {
		a, c, g, t := b.baseCount[0], b.baseCount[1], b.baseCount[2], b.baseCount[3]
		gc := 0.0
		if b.length > 0 {
			gc = float64(c+g) / float64(b.length) * 100
		}
		rec.Stats = &RecordStats{GCPercent: gc, Length: b.length, A: a, C: c, G: g, T: t}
	}
	return rec
}

// SortedHashes returns a copy of rec.Hashes sorted ascending, the order the
// interoperable (sourmash) format requires for its mins field.
func (rec *RecordSketch) SortedHashes() []uint64 {
	out := make(HashSlice, len(rec.Hashes))
	copy(out, rec.Hashes)
	sortHashes(out)
	return out
}
