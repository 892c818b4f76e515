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
	"sync"
)

// ErrKmerSizeMismatch means a database sketch's kmer_size or hash_algorithm
// does not match the query; the Comparator treats this as fatal.
var ErrKmerSizeMismatch = fmt.Errorf("jam: kmer_size or hash_algorithm mismatch between query and database")

// ErrConfigGCBounds means only one of gc_lower/gc_upper was set.
var ErrConfigGCBounds = fmt.Errorf("jam: gc_lower and gc_upper must be set together")

// ComparisonRow is one (query record, database record) containment result.
type ComparisonRow struct {
	QueryID      string
	DBFile       string
	DBRecordID   string
	Intersection int
	Containment  float64
}

// CompareOptions configures a Comparator run.
type CompareOptions struct {
	Cutoff   float64
	GCLower  *float64
	GCUpper  *float64
	Threads  int
}

// Comparator streams a query Sketch against one or more database Sketch
// files, reporting containment of each query record in each database
// record.
type Comparator struct {
	opts CompareOptions
}

// NewComparator validates CompareOptions.
func NewComparator(opts CompareOptions) (*Comparator, error) {
	if (opts.GCLower == nil) != (opts.GCUpper == nil) {
		return nil, ErrConfigGCBounds
	}
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	return &Comparator{opts: opts}, nil
}

// dbFileOpener loads one database Sketch file, or returns an error if it
// can't be read; a read error is soft (skip that file), unlike a
// kmer_size/hash_algorithm mismatch once the file is loaded, which aborts
// the whole run.
type dbFileOpener func(path string) (*Sketch, error)

// Compare runs the query against every database file. Rows are ordered by
// database file (input order), then database record (decoder order within
// the file), then query record (input order) - the unit of parallel work
// is one database file, mirroring the "one unit = one db file when the
// query has a single record" rule; with multiple query records every
// (query_record, db_record) pair inside that file is still evaluated, just
// within the same unit.
//
// fileErrs carries one entry per database file that failed to open, a soft
// failure that does not stop the run. A non-nil error return is always the
// hard kmer_size/hash_algorithm mismatch abort.
func (c *Comparator) Compare(query *Sketch, dbPaths []string, open dbFileOpener) (rows []ComparisonRow, fileErrs []error, err error) {
	type unit struct {
		id   int
		path string
	}
	units := make(chan unit, c.opts.Threads)
	go func() {
		for i, p := range dbPaths {
			units <- unit{id: i, path: p}
		}
		close(units)
	}()

	type unitResult struct {
		id      int
		path    string
		rows    []ComparisonRow
		openErr error
		hardErr error
	}

	results := make(chan unitResult, len(dbPaths))
	var wg sync.WaitGroup
	token := make(chan struct{}, c.opts.Threads)

	for u := range units {
		token <- struct{}{}
		wg.Add(1)
		go func(u unit) {
			defer func() {
				<-token
				wg.Done()
			}()

			db, oerr := open(u.path)
			if oerr != nil {
				results <- unitResult{id: u.id, path: u.path, openErr: oerr}
				return
			}
			if db.KmerSize != query.KmerSize || db.Algorithm != query.Algorithm {
				results <- unitResult{id: u.id, path: u.path, hardErr: ErrKmerSizeMismatch}
				return
			}
			results <- unitResult{id: u.id, path: u.path, rows: c.compareAgainstFile(query, u.path, db)}
		}(u)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	buf := make(map[int]unitResult)
	nextID := 0
	for res := range results {
		buf[res.id] = res
		for {
			r, ok := buf[nextID]
			if !ok {
				break
			}
			delete(buf, nextID)
			nextID++
			if r.hardErr != nil {
				err = r.hardErr
				continue
			}
			if r.openErr != nil {
				fileErrs = append(fileErrs, fmt.Errorf("%s: %w", r.path, r.openErr))
				continue
			}
			rows = append(rows, r.rows...)
		}
	}
	if err != nil {
		return nil, fileErrs, err
	}
	return rows, fileErrs, nil
}

func (c *Comparator) compareAgainstFile(query *Sketch, path string, db *Sketch) []ComparisonRow {
	var rows []ComparisonRow
	for ri := range db.Records {
		r := &db.Records[ri]
		if !c.passesStatsGate(r) {
			continue
		}
		for qi := range query.Records {
			q := &query.Records[qi]
			inter := intersectionSize(r.Hashes, q.Hashes)
			var containment float64
			if len(q.Hashes) > 0 {
				containment = float64(inter) / float64(len(q.Hashes))
			}
			if containment < c.opts.Cutoff {
				continue
			}
			rows = append(rows, ComparisonRow{
				QueryID:      q.ID,
				DBFile:       path,
				DBRecordID:   r.ID,
				Intersection: inter,
				Containment:  containment,
			})
		}
	}
	return rows
}

func (c *Comparator) passesStatsGate(r *RecordSketch) bool {
	if c.opts.GCLower == nil {
		return true
	}
	if r.Stats == nil {
		return false
	}
	return r.Stats.GCPercent >= *c.opts.GCLower && r.Stats.GCPercent <= *c.opts.GCUpper
}

// intersectionSize counts |a ∩ b|, building a lookup map from whichever
// slice is smaller and probing it with every element of the other, so the
// map's size is bounded by min(|a|,|b|).
func intersectionSize(a, b []uint64) int {
	small, large := a, b
	if len(large) < len(small) {
		small, large = large, small
	}
	set := make(map[uint64]struct{}, len(small))
	for _, h := range small {
		set[h] = struct{}{}
	}
	n := 0
	for _, h := range large {
		if _, ok := set[h]; ok {
			n++
		}
	}
	return n
}
