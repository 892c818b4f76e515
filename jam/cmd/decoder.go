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

package cmd

import (
	"io"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/jam"
)

// fastxSource adapts a *fastx.Reader - an external FASTA/FASTQ decoder -
// to jam.RecordSource. Each input file gets its own *fastx.Reader: decoders
// are never shared across worker goroutines, each worker opens its own.
type fastxSource struct {
	r *fastx.Reader
}

// openFastx is a jam.RecordSourceOpener backed by fastx.NewDefaultReader,
// which already transparently handles gzip-compressed FASTA/FASTQ via
// shenwei356/xopen - so FASTA/FASTQ inputs do not go through cmd's own
// inStream gzip sniffing.
func openFastx(path string) (jam.RecordSource, func() error, error) {
	if seq.ValidateSeq {
		seq.ValidateSeq = false // sketching tolerates any byte; KmerIterator does its own validity check
	}
	r, err := fastx.NewDefaultReader(path)
	if err != nil {
		return nil, nil, err
	}
	return &fastxSource{r: r}, r.Close, nil
}

func (s *fastxSource) Next() (jam.SeqRecord, error) {
	rec, err := s.r.Read()
	if err != nil {
		if err == io.EOF {
			return jam.SeqRecord{}, io.EOF
		}
		return jam.SeqRecord{}, err
	}
	// fastx reuses its internal buffers across Read calls; copy both
	// fields out so a RecordSketch built from them stays valid after the
	// next Read.
	id := string(rec.ID)
	b := make([]byte, len(rec.Seq.Seq))
	copy(b, rec.Seq.Seq)
	return jam.SeqRecord{ID: id, Seq: b}, nil
}
