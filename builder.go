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
	"io"
	"strings"
	"sync"
)

// SeqRecord is one decoded sequence record, stripped of everything but what
// the sketcher needs. jam/cmd adapts shenwei356/bio/seqio/fastx records into
// this shape so the core package stays decoder-agnostic and testable
// without a FASTA/FASTQ fixture.
type SeqRecord struct {
	ID  string
	Seq []byte
}

// RecordSource yields SeqRecords one at a time, returning io.EOF when
// exhausted.
type RecordSource interface {
	Next() (SeqRecord, error)
}

// RecordSourceOpener opens one input file (or stdin alias) as a
// RecordSource. The returned closer, if non-nil, is always called once the
// file has been fully consumed or an error aborts it.
type RecordSourceOpener func(path string) (src RecordSource, closer func() error, err error)

// BuildOptions configures a SketchBuilder. KmerSize, Hasher and Seed are
// shared by every record; Filter carries the fscale/kscale/nmin/nmax
// policy.
type BuildOptions struct {
	KmerSize  int
	Hasher    Hasher
	Seed      uint64
	Filter    *Filter
	Singleton bool
	Stats     bool
	Threads   int
}

// SketchBuilder drives k-mer extraction and filtering over one or more
// input files, producing a single Sketch whose Records preserve input-file
// order (and, in singleton mode, in-file record order).
type SketchBuilder struct {
	opts BuildOptions
}

// NewSketchBuilder validates and wraps a BuildOptions.
func NewSketchBuilder(opts BuildOptions) *SketchBuilder {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	return &SketchBuilder{opts: opts}
}

// fileResult is what one worker produces for one input file; the collector
// goroutine reassembles these in input order by id, regardless of which
// worker finishes first.
type fileResult struct {
	id      int
	path    string
	records []RecordSketch
	err     error
}

// Build processes every path, each against its own worker, and returns one
// Sketch aggregating all records in path order, plus one error per
// unreadable or undecodable input file. A per-file error is reported and
// skipped, not fatal to the batch - mirroring Comparator.Compare's
// per-database-file handling - since a single corrupt file in a
// many-thousand-file run shouldn't discard every record already built from
// its siblings.
func (sb *SketchBuilder) Build(paths []string, open RecordSourceOpener) (*Sketch, []error) {
	sk := &Sketch{
		KmerSize:  sb.opts.KmerSize,
		Algorithm: sb.opts.Hasher.Algorithm(),
		Fscale:    optionalUint64(sb.opts.Filter.Fscale),
		Kscale:    optionalUint64(sb.opts.Filter.Kscale),
		Nmin:      optionalUint64(sb.opts.Filter.Nmin),
		Nmax:      optionalUint64(sb.opts.Filter.Nmax),
		Singleton: sb.opts.Singleton,
		HasStats:  sb.opts.Stats,
		Source:    strings.Join(paths, ","),
	}
	if len(paths) == 0 {
		return sk, nil
	}

	chPaths := make(chan indexedPath, sb.opts.Threads)
	go func() {
		for i, p := range paths {
			chPaths <- indexedPath{id: i, path: p}
		}
		close(chPaths)
	}()

	results := make(chan fileResult, len(paths))
	var wg sync.WaitGroup
	token := make(chan struct{}, sb.opts.Threads)

	for ip := range chPaths {
		token <- struct{}{}
		wg.Add(1)
		go func(ip indexedPath) {
			defer func() {
				<-token
				wg.Done()
			}()
			recs, err := sb.buildOneFile(ip.path, open)
			results <- fileResult{id: ip.id, path: ip.path, records: recs, err: err}
		}(ip)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	buf := make(map[int]fileResult)
	var fileErrs []error
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
			if r.err != nil {
				fileErrs = append(fileErrs, fmt.Errorf("%s: %w", r.path, r.err))
				continue
			}
			sk.Records = append(sk.Records, r.records...)
		}
	}
	return sk, fileErrs
}

type indexedPath struct {
	id   int
	path string
}

func (sb *SketchBuilder) buildOneFile(path string, open RecordSourceOpener) ([]RecordSketch, error) {
	src, closer, err := open(path)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer closer()
	}

	var fileRec *recordBuilder
	if !sb.opts.Singleton {
		fileRec = newRecordBuilder(stemName(path), sb.opts.Filter, sb.opts.Stats)
	}

	var out []RecordSketch
	for {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		rb := fileRec
		if sb.opts.Singleton {
			rb = newRecordBuilder(rec.ID, sb.opts.Filter, sb.opts.Stats)
		}

		iter, err := NewKmerIterator(rec.Seq, sb.opts.KmerSize, sb.opts.Hasher, sb.opts.Seed)
		if err == nil {
			for {
				h, ok := iter.Next()
				if !ok {
					break
				}
				rb.Observe(h)
			}
		} else if err != ErrShortSeq {
			return nil, err
		}
		rb.ObserveBases(rec.Seq)

		if sb.opts.Singleton {
			out = append(out, rb.Finalize())
		}
	}
	if !sb.opts.Singleton && fileRec != nil {
		out = append(out, fileRec.Finalize())
	}
	return out, nil
}

func optionalUint64(p *uint64) uint64 {
	if p == nil {
		return 0
	}
	return *p
}

// stemName strips directory and extension(s) from a path, used to name a
// non-singleton record after its input file's stem.
func stemName(path string) string {
	base := path
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	for _, ext := range []string{".gz", ".fasta", ".fa", ".fastq", ".fq", ".fna"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
