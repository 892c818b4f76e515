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
	"errors"
	"testing"
)

func TestNewComparatorRequiresPairedGCBounds(t *testing.T) {
	lower := 10.0
	if _, err := NewComparator(CompareOptions{GCLower: &lower}); err != ErrConfigGCBounds {
		t.Errorf("one-sided GC bound should be ErrConfigGCBounds, got %v", err)
	}
}

func mkSketch(kmerSize int, algo Algorithm, records ...RecordSketch) *Sketch {
	return &Sketch{KmerSize: kmerSize, Algorithm: algo, Records: records}
}

// TestCompareSelfContainmentIsOne checks that a record compared against
// itself reports containment 1.0.
func TestCompareSelfContainmentIsOne(t *testing.T) {
	hashes := make([]uint64, 50)
	for i := range hashes {
		hashes[i] = uint64(i)
	}
	query := mkSketch(21, AlgoXXHash, RecordSketch{ID: "q1", Hashes: hashes})
	db := mkSketch(21, AlgoXXHash, RecordSketch{ID: "q1", Hashes: hashes})

	cmp, err := NewComparator(CompareOptions{Threads: 2})
	if err != nil {
		t.Fatal(err)
	}
	rows, fileErrs, err := cmp.Compare(query, []string{"db.jams"}, func(string) (*Sketch, error) { return db, nil })
	if err != nil {
		t.Fatal(err)
	}
	if len(fileErrs) != 0 {
		t.Fatalf("unexpected fileErrs: %v", fileErrs)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].Containment != 1.0 {
		t.Errorf("Containment = %v, want 1.0", rows[0].Containment)
	}
	if rows[0].Intersection != 50 {
		t.Errorf("Intersection = %d, want 50", rows[0].Intersection)
	}
}

// TestCompareContainmentMonotonic checks that adding hashes to the query
// that aren't in the database record can only shrink containment, never
// grow it, holding the intersection fixed.
func TestCompareContainmentMonotonic(t *testing.T) {
	dbHashes := []uint64{1, 2, 3, 4, 5}
	db := mkSketch(21, AlgoXXHash, RecordSketch{ID: "d1", Hashes: dbHashes})

	small := mkSketch(21, AlgoXXHash, RecordSketch{ID: "q1", Hashes: []uint64{1, 2}})
	big := mkSketch(21, AlgoXXHash, RecordSketch{ID: "q1", Hashes: []uint64{1, 2, 100, 101, 102, 103}})

	cmp, _ := NewComparator(CompareOptions{Threads: 1})
	rowsSmall, _, _ := cmp.Compare(small, []string{"db.jams"}, func(string) (*Sketch, error) { return db, nil })
	rowsBig, _, _ := cmp.Compare(big, []string{"db.jams"}, func(string) (*Sketch, error) { return db, nil })

	if len(rowsSmall) != 1 || len(rowsBig) != 1 {
		t.Fatalf("expected one row each, got %d and %d", len(rowsSmall), len(rowsBig))
	}
	if rowsBig[0].Containment >= rowsSmall[0].Containment {
		t.Errorf("diluting the query with unrelated hashes should lower containment: small=%v big=%v",
			rowsSmall[0].Containment, rowsBig[0].Containment)
	}
}

func TestCompareCutoffFiltersRows(t *testing.T) {
	db := mkSketch(21, AlgoXXHash, RecordSketch{ID: "d1", Hashes: []uint64{1, 2, 3, 4, 5}})
	query := mkSketch(21, AlgoXXHash, RecordSketch{ID: "q1", Hashes: []uint64{1, 100, 101, 102}})

	cmp, _ := NewComparator(CompareOptions{Threads: 1, Cutoff: 0.5})
	rows, _, err := cmp.Compare(query, []string{"db.jams"}, func(string) (*Sketch, error) { return db, nil })
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("containment 0.25 should be cut off at 0.5, got rows=%v", rows)
	}
}

func TestCompareHardAbortsOnKmerSizeMismatch(t *testing.T) {
	query := mkSketch(21, AlgoXXHash, RecordSketch{ID: "q1", Hashes: []uint64{1, 2, 3}})
	db := mkSketch(31, AlgoXXHash, RecordSketch{ID: "d1", Hashes: []uint64{1, 2, 3}})

	cmp, _ := NewComparator(CompareOptions{Threads: 1})
	_, _, err := cmp.Compare(query, []string{"db.jams"}, func(string) (*Sketch, error) { return db, nil })
	if err != ErrKmerSizeMismatch {
		t.Errorf("expected ErrKmerSizeMismatch, got %v", err)
	}
}

func TestCompareSkipsUnreadableFilesButContinues(t *testing.T) {
	query := mkSketch(21, AlgoXXHash, RecordSketch{ID: "q1", Hashes: []uint64{1, 2, 3}})
	db := mkSketch(21, AlgoXXHash, RecordSketch{ID: "d1", Hashes: []uint64{1, 2, 3}})
	openErr := errors.New("boom")

	cmp, _ := NewComparator(CompareOptions{Threads: 2})
	rows, fileErrs, err := cmp.Compare(query, []string{"bad.jams", "good.jams"}, func(path string) (*Sketch, error) {
		if path == "bad.jams" {
			return nil, openErr
		}
		return db, nil
	})
	if err != nil {
		t.Fatalf("a soft open error should not abort the run: %v", err)
	}
	if len(fileErrs) != 1 {
		t.Fatalf("len(fileErrs) = %d, want 1", len(fileErrs))
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1 from the readable file", len(rows))
	}
}

func TestCompareGCGate(t *testing.T) {
	pass := RecordSketch{ID: "d1", Hashes: []uint64{1, 2, 3}, Stats: &RecordStats{GCPercent: 50}}
	fail := RecordSketch{ID: "d2", Hashes: []uint64{1, 2, 3}, Stats: &RecordStats{GCPercent: 90}}
	db := mkSketch(21, AlgoXXHash, pass, fail)
	query := mkSketch(21, AlgoXXHash, RecordSketch{ID: "q1", Hashes: []uint64{1, 2, 3}})

	lower, upper := 40.0, 60.0
	cmp, _ := NewComparator(CompareOptions{Threads: 1, GCLower: &lower, GCUpper: &upper})
	rows, _, err := cmp.Compare(query, []string{"db.jams"}, func(string) (*Sketch, error) { return db, nil })
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].DBRecordID != "d1" {
		t.Errorf("expected only d1 to pass the GC gate, got rows=%v", rows)
	}
}
