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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shenwei356/jam"
	"github.com/shenwei356/jam/codec"
	"github.com/spf13/cobra"
)

// ErrHeaderMismatch is jam merge's HeaderMismatch-class error: every input
// sketch must share kmer_size, hash_algorithm and scaling policy.
var ErrHeaderMismatch = fmt.Errorf("jam: merge inputs have mismatched headers")

var mergeCmd = &cobra.Command{
	Use:   "merge -o OUT [INPUTS]...",
	Short: "concatenate the record sets of several sketch files",
	Long: `merge concatenates the record sets of several sketch files

All inputs must share kmer_size, hash_algorithm, fscale, kscale, nmin and
nmax; a mismatch is a fatal HeaderMismatch error. The merged result's
source is set to OUT's stem.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		outFile := getFlagString(cmd, "out")
		if outFile == "" {
			checkError(fmt.Errorf("flag -o/--out is required"))
		}
		checkOutFile(outFile, opt.Force)

		files := expandInputs(args)
		if len(files) == 0 {
			checkError(fmt.Errorf("no input files given"))
		}

		sketches := loadSketchesParallel(files, opt.NumCPUs)

		merged := sketches[0]
		for _, sk := range sketches[1:] {
			if sk.KmerSize != merged.KmerSize || sk.Algorithm != merged.Algorithm ||
				sk.Fscale != merged.Fscale || sk.Kscale != merged.Kscale ||
				sk.Nmin != merged.Nmin || sk.Nmax != merged.Nmax {
				checkError(ErrHeaderMismatch)
			}
			merged.Records = append(merged.Records, sk.Records...)
		}
		merged.Source = strings.TrimSuffix(filepath.Base(outFile), filepath.Ext(outFile))

		writeSketch(merged, outFile, "bin", opt.Force)
		if opt.Verbose {
			log.Infof("merged %d file(s) into %s: %d record(s)", len(files), outFile, len(merged.Records))
		}
	},
}

// loadSketchesParallel reads every sketch file concurrently (bounded by
// threads) and returns them in input order, the same ordered-collector
// shape jam.SketchBuilder.Build and jam.Comparator.Compare use for their
// own per-unit fan-out.
func loadSketchesParallel(files []string, threads int) []*jam.Sketch {
	type result struct {
		sk  *jam.Sketch
		err error
	}
	out := make([]result, len(files))
	token := make(chan struct{}, threads)
	var wg sync.WaitGroup
	for i, f := range files {
		token <- struct{}{}
		wg.Add(1)
		go func(i int, f string) {
			defer func() { <-token; wg.Done() }()
			sk, err := loadSketchFile(f)
			out[i] = result{sk: sk, err: err}
		}(i, f)
	}
	wg.Wait()

	sketches := make([]*jam.Sketch, 0, len(files))
	for i, r := range out {
		if r.err != nil {
			checkError(fmt.Errorf("%s: %w", files[i], r.err))
		}
		sketches = append(sketches, r.sk)
	}
	return sketches
}

// loadSketchFile sniffs the leading bytes to tell a native container (magic
// "JAMS") apart from a sourmash JSON envelope (starts with '[' or '{' once
// leading whitespace is skipped), rather than trusting the file extension.
func loadSketchFile(path string) (*jam.Sketch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(len(codec.Magic))
	if err == nil && string(head) == string(codec.Magic[:]) {
		return codec.ReadNative(br)
	}
	return codec.ReadSourmash(br)
}

func init() {
	RootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringP("out", "o", "", "output sketch file")
}
