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

import "testing"

// TestRecordBuilderNmaxTruncation checks that once nmax is exceeded, only
// the nmax smallest hashes survive.
func TestRecordBuilderNmaxTruncation(t *testing.T) {
	f, err := NewFilter(nil, nil, nil, u64(5))
	if err != nil {
		t.Fatal(err)
	}
	rb := newRecordBuilder("r1", f, false)
	for _, h := range []uint64{100, 90, 80, 70, 60, 50, 40, 30, 20, 10} {
		rb.Observe(h)
	}
	rec := rb.Finalize()
	if len(rec.Hashes) != 5 {
		t.Fatalf("len(Hashes) = %d, want 5", len(rec.Hashes))
	}
	want := map[uint64]bool{10: true, 20: true, 30: true, 40: true, 50: true}
	for _, h := range rec.Hashes {
		if !want[h] {
			t.Errorf("unexpected surviving hash %d, want one of the 5 smallest", h)
		}
	}
	if rec.NumKmers != 10 {
		t.Errorf("NumKmers = %d, want 10", rec.NumKmers)
	}
}

// TestRecordBuilderNminReadmitsFromRejectHeap checks that when a fscale
// gate admits fewer than nmin hashes, Finalize tops the record back up to
// nmin using the smallest hashes held in the rejection heap.
func TestRecordBuilderNminReadmitsFromRejectHeap(t *testing.T) {
	f, err := NewFilter(u64(1000), nil, u64(10), u64(20))
	if err != nil {
		t.Fatal(err)
	}
	rb := newRecordBuilder("r1", f, false)

	// All 100 candidates sit near the top of hash space, far above the
	// fscale ceiling (maxUint64/1000), so every one is rejected and the
	// bounded reject heap ends up holding exactly the 10 smallest of them.
	for i := uint64(0); i < 100; i++ {
		rb.Observe(maxUint64 - i)
	}
	rec := rb.Finalize()
	if len(rec.Hashes) != 10 {
		t.Fatalf("len(Hashes) = %d, want 10 (readmitted from the reject heap)", len(rec.Hashes))
	}
	for _, h := range rec.Hashes {
		if h < maxUint64-99 {
			t.Errorf("readmitted hash %d falls outside the 10 smallest rejected candidates", h)
		}
	}
}

func TestRecordSketchSortedHashes(t *testing.T) {
	rec := RecordSketch{Hashes: []uint64{30, 10, 20}}
	sorted := rec.SortedHashes()
	want := []uint64{10, 20, 30}
	for i, h := range sorted {
		if h != want[i] {
			t.Errorf("SortedHashes()[%d] = %d, want %d", i, h, want[i])
		}
	}
	if rec.Hashes[0] != 30 {
		t.Error("SortedHashes should not mutate the original slice")
	}
}

func TestRecordBuilderObserveBasesStats(t *testing.T) {
	f, _ := NewFilter(nil, nil, nil, nil)
	rb := newRecordBuilder("r1", f, true)
	rb.ObserveBases([]byte("ACGTN"))
	rec := rb.Finalize()
	if rec.Stats == nil {
		t.Fatal("Stats should be populated when wantStats is true")
	}
	if rec.Stats.Length != 5 {
		t.Errorf("Length = %d, want 5", rec.Stats.Length)
	}
	if rec.Stats.A != 1 || rec.Stats.C != 1 || rec.Stats.G != 1 || rec.Stats.T != 1 {
		t.Errorf("base counts = %+v, want 1 each of A/C/G/T", *rec.Stats)
	}
	if rec.Stats.GCPercent != 40 {
		t.Errorf("GCPercent = %v, want 40", rec.Stats.GCPercent)
	}
}
